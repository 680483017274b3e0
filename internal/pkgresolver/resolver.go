package pkgresolver

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

// PackageNameResolver 包名解析器（统一入口）
// 将导入路径解析为真实包名，带缓存
type PackageNameResolver struct {
	cache       *PackageNameCache
	stdLib      *StdLibScanner
	projectRoot string // 项目根目录（包含 go.mod）
}

// NewPackageNameResolver 创建解析器
func NewPackageNameResolver(projectRoot string) *PackageNameResolver {
	return &PackageNameResolver{
		cache:       NewPackageNameCache(),
		stdLib:      NewStdLibScanner(),
		projectRoot: projectRoot,
	}
}

// GetPackageName 获取导入路径对应的真实包名
// 解析失败时降级为路径最后一部分，保证调用方总能得到一个可用的限定符
// 降级结果同样写入缓存，避免对同一路径反复扫描磁盘
func (r *PackageNameResolver) GetPackageName(importPath string) (string, error) {
	if name, ok := r.cache.GetByImportPath(importPath); ok {
		return name, nil
	}

	pkgName := ""
	if diskPath, err := r.resolveDiskPath(importPath); err == nil {
		pkgName, _ = readPackageName(diskPath)
	}
	if pkgName == "" {
		pkgName = filepath.Base(importPath)
	}

	r.cache.SetByImportPath(importPath, pkgName)
	return pkgName, nil
}

// resolveDiskPath 将导入路径解析为磁盘路径
func (r *PackageNameResolver) resolveDiskPath(importPath string) (string, error) {
	// 标准库
	isStd, err := r.stdLib.IsStdLib(importPath)
	if err == nil && isStd {
		return r.stdLib.GetStdLibPath(importPath)
	}

	// 项目内部包
	if r.projectRoot != "" {
		moduleName, err := getModuleName(r.projectRoot)
		if err == nil && strings.HasPrefix(importPath, moduleName) {
			relativePath := strings.TrimPrefix(importPath, moduleName)
			relativePath = strings.TrimPrefix(relativePath, "/")
			return filepath.Join(r.projectRoot, relativePath), nil
		}
	}

	// 第三方包：查找 GOMODCACHE
	return findThirdPartyPackage(importPath)
}

// IsStdLib 判断是否是标准库（便捷方法）
func (r *PackageNameResolver) IsStdLib(importPath string) (bool, error) {
	return r.stdLib.IsStdLib(importPath)
}

// readPackageName 读取指定目录的 package 声明
func readPackageName(pkgDir string) (string, error) {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return "", fmt.Errorf("读取目录失败 %s: %w", pkgDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() ||
			!strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") {
			continue
		}

		// 只解析包声明，不需要完整解析
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, filepath.Join(pkgDir, name), nil, parser.PackageClauseOnly)
		if err != nil || f.Name == nil {
			continue
		}
		return f.Name.Name, nil
	}

	return "", fmt.Errorf("目录 %s 中没有可解析的 Go 源文件", pkgDir)
}

// getModuleName 从go.mod文件获取模块名称
func getModuleName(projectRoot string) (string, error) {
	content, err := os.ReadFile(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module")), nil
		}
	}

	return "", fmt.Errorf("未在 go.mod 中找到模块名称")
}

// findThirdPartyPackage 查找第三方包的磁盘路径
func findThirdPartyPackage(importPath string) (string, error) {
	goPath := os.Getenv("GOPATH")
	goModCache := os.Getenv("GOMODCACHE")

	if goModCache == "" {
		if goPath == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("无法获取用户主目录: %v", err)
			}
			goPath = filepath.Join(homeDir, "go")
		}
		goModCache = filepath.Join(goPath, "pkg", "mod")
	}

	// 从最长的候选模块路径开始，逐级回退
	parts := strings.Split(importPath, "/")
	for i := len(parts); i >= 1; i-- {
		modulePath := strings.Join(parts[:i], "/")
		subPath := ""
		if i < len(parts) {
			subPath = strings.Join(parts[i:], "/")
		}

		// Go模块缓存中大写字母的编码规则
		pattern := filepath.Join(goModCache, encodeModulePath(modulePath)+"@*")
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}

		// 选择最新的版本（按字典序排序，最后一个通常版本号较高）
		finalPath := matches[len(matches)-1]
		if subPath != "" {
			finalPath = filepath.Join(finalPath, subPath)
		}

		if _, err := os.Stat(finalPath); err == nil {
			return finalPath, nil
		}
	}

	// 降级到 GOPATH/src
	if goPath != "" {
		goPathSrc := filepath.Join(goPath, "src", importPath)
		if _, err := os.Stat(goPathSrc); err == nil {
			return goPathSrc, nil
		}
	}

	return "", fmt.Errorf("未找到第三方包 %s", importPath)
}

// encodeModulePath 将模块路径编码为 Go 模块缓存使用的格式
// 规则：大写字母前添加 ! 并转为小写
// 例如：github.com/Masterminds/sprig -> github.com/!masterminds/sprig
func encodeModulePath(path string) string {
	var result strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			result.WriteRune('!')
			result.WriteRune(r + 32) // 转为小写
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

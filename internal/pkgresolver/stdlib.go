package pkgresolver

import (
	"fmt"
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StdLibScanner 标准库扫描器
// 扫描 $GOROOT/src 建立标准库包路径集合
type StdLibScanner struct {
	goroot   string
	stdPkgs  map[string]bool
	initOnce sync.Once
	initErr  error
}

// NewStdLibScanner 创建标准库扫描器
func NewStdLibScanner() *StdLibScanner {
	return &StdLibScanner{
		stdPkgs: make(map[string]bool),
	}
}

// Init 初始化扫描器（延迟初始化）
func (s *StdLibScanner) Init() error {
	s.initOnce.Do(func() {
		s.goroot = build.Default.GOROOT
		if s.goroot == "" {
			s.goroot = os.Getenv("GOROOT")
		}
		if s.goroot == "" {
			s.initErr = fmt.Errorf("无法获取 GOROOT")
			return
		}

		s.initErr = s.scanDir(filepath.Join(s.goroot, "src"), "")
	})
	return s.initErr
}

// scanDir 递归扫描目录
func (s *StdLibScanner) scanDir(dir, pkgPath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // 忽略无法读取的目录
	}

	hasGoFiles := false
	for _, entry := range entries {
		name := entry.Name()

		// 标准库的 internal 不对外
		if strings.HasPrefix(name, ".") ||
			name == "testdata" ||
			name == "vendor" ||
			name == "internal" {
			continue
		}

		if entry.IsDir() {
			newPkgPath := name
			if pkgPath != "" {
				newPkgPath = pkgPath + "/" + name
			}
			s.scanDir(filepath.Join(dir, name), newPkgPath)
		} else if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			hasGoFiles = true
		}
	}

	if hasGoFiles && pkgPath != "" {
		s.stdPkgs[pkgPath] = true
	}

	return nil
}

// IsStdLib 判断是否是标准库
func (s *StdLibScanner) IsStdLib(importPath string) (bool, error) {
	if err := s.Init(); err != nil {
		return false, err
	}

	firstSlash := strings.Index(importPath, "/")
	if firstSlash == -1 {
		// 没有斜杠，如 fmt, os, math
		_, isStd := s.stdPkgs[importPath]
		return isStd, nil
	}

	// 第一部分包含点（域名），肯定是第三方包
	if strings.Contains(importPath[:firstSlash], ".") {
		return false, nil
	}

	_, isStd := s.stdPkgs[importPath]
	return isStd, nil
}

// GetStdLibPath 获取标准库的磁盘路径
func (s *StdLibScanner) GetStdLibPath(importPath string) (string, error) {
	isStd, err := s.IsStdLib(importPath)
	if err != nil {
		return "", err
	}
	if !isStd {
		return "", fmt.Errorf("%s 不是标准库", importPath)
	}

	return filepath.Join(s.goroot, "src", filepath.FromSlash(importPath)), nil
}

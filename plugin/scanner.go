package plugin

import (
	"bufio"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

// Scanner 两阶段并行注解扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件
// 第二阶段：对匹配的文件进行 AST 解析
type Scanner struct {
	workers int
	verbose bool

	// 注解过滤器（可选）
	annotationFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quickMatchRegex 快速匹配注解的正则
// 匹配 @Name 或 @Name(...) 模式
var quickMatchRegex = regexp.MustCompile(`@(\w+)(?:\([^)]*\))?`)

// Scan 扫描指定路径
// 支持: ./... ./pkg/... ./pkg /abs/path/...
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	if len(allFiles) == 0 {
		return &ScanResult{}, nil
	}

	// ========== 第一阶段：快速匹配 ==========
	matchedFiles, err := s.quickMatch(ctx, allFiles)
	if err != nil {
		return nil, err
	}

	if len(matchedFiles) == 0 {
		return &ScanResult{}, nil
	}

	// ========== 第二阶段：AST 解析 ==========
	return s.parseFiles(ctx, matchedFiles)
}

// quickMatch 第一阶段：快速文本匹配
// 并行读取文件，检查是否包含 @xxx 模式
func (s *Scanner) quickMatch(ctx context.Context, files []string) ([]string, error) {
	type matchResult struct {
		file    string
		matched bool
		err     error
	}

	resultCh := make(chan matchResult, len(files))
	fileCh := make(chan string, len(files))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case file, ok := <-fileCh:
					if !ok {
						return
					}
					matched, err := s.QuickMatchFile(file)
					resultCh <- matchResult{file: file, matched: matched, err: err}
				}
			}
		}()
	}

	go func() {
		for _, file := range files {
			select {
			case <-ctx.Done():
				break
			case fileCh <- file:
			}
		}
		close(fileCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var matchedFiles []string
	for r := range resultCh {
		if r.err != nil {
			continue // 跳过错误文件
		}
		if r.matched {
			matchedFiles = append(matchedFiles, r.file)
		}
	}

	return matchedFiles, nil
}

// QuickMatchFile 快速检查文件是否包含注解或 go:ctorgen 配置
// 用于 dev 模式判断文件是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// 只检查注释行，参数标记可能出现在代码行尾部
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(trimmed, "//") && !strings.Contains(trimmed, "/*") {
			continue
		}

		// 检查 go:ctorgen: 配置（支持 //go:ctorgen: 和 // go:ctorgen:）
		if strings.Contains(trimmed, "go:ctorgen:") {
			return true, nil
		}

		for _, match := range quickMatchRegex.FindAllStringSubmatch(line, -1) {
			if len(match) < 2 {
				continue
			}
			annName := match[1]
			if len(s.annotationFilter) == 0 {
				return true, nil
			}
			for _, filter := range s.annotationFilter {
				if annName == filter {
					return true, nil
				}
			}
		}
	}

	return false, scanner.Err()
}

// fileScan 单个文件的解析结果
type fileScan struct {
	funcs     []*AnnotatedTarget
	methods   []*AnnotatedTarget
	structs   []*AnnotatedTarget
	pkgConfig *PackageConfig
	err       error
}

// parseFiles 第二阶段：AST 解析
func (s *Scanner) parseFiles(ctx context.Context, files []string) (*ScanResult, error) {
	resultCh := make(chan *fileScan, len(files))
	fileCh := make(chan string, len(files))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case file, ok := <-fileCh:
					if !ok {
						return
					}
					resultCh <- s.parseFile(file)
				}
			}
		}()
	}

	go func() {
		for _, file := range files {
			select {
			case <-ctx.Done():
				break
			case fileCh <- file:
			}
		}
		close(fileCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := &ScanResult{
		PackageConfigs: make(map[string]*PackageConfig),
	}
	for r := range resultCh {
		if r.err != nil {
			continue
		}
		result.Funcs = append(result.Funcs, r.funcs...)
		result.Methods = append(result.Methods, r.methods...)
		result.Structs = append(result.Structs, r.structs...)
		if r.pkgConfig != nil {
			mergePackageConfig(result.PackageConfigs, r.pkgConfig)
		}
	}

	return result, nil
}

// mergePackageConfig 合并包级配置，同一个包可能由多个文件声明
func mergePackageConfig(configs map[string]*PackageConfig, incoming *PackageConfig) {
	pkgDir := incoming.PackageDir
	existing, ok := configs[pkgDir]
	if !ok {
		configs[pkgDir] = incoming
		return
	}

	if incoming.DefaultOutput != "" {
		if existing.DefaultOutput != "" && existing.DefaultOutput != incoming.DefaultOutput {
			fmt.Printf("警告: 包 %s 中存在多个不同的 go:ctorgen 默认输出配置，使用后发现的配置\n", pkgDir)
		}
		existing.DefaultOutput = incoming.DefaultOutput
	}
	for k, v := range incoming.PluginOutputs {
		if existingV, ok := existing.PluginOutputs[k]; ok && existingV != v {
			fmt.Printf("警告: 包 %s 中插件 %s 存在多个不同的输出配置，使用后发现的配置\n", pkgDir, k)
		}
		existing.PluginOutputs[k] = v
	}
}

// parseFile AST 解析单个文件
func (s *Scanner) parseFile(filePath string) *fileScan {
	result := &fileScan{}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		result.err = err
		return result
	}

	packageName := file.Name.Name

	// 解析包级 go:ctorgen: 配置
	result.pkgConfig = s.parsePackageConfig(file, filePath)

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				s.parseTypeDecl(fset, file, filePath, packageName, d, result)
			}
		case *ast.FuncDecl:
			s.parseFuncDecl(fset, file, filePath, packageName, d, result)
		}
	}

	return result
}

// parseTypeDecl 解析类型声明
func (s *Scanner) parseTypeDecl(fset *token.FileSet, file *ast.File, filePath, packageName string, decl *ast.GenDecl, result *fileScan) {
	var docText string
	if decl.Doc != nil {
		docText = decl.Doc.Text()
	}

	annotations := ParseAnnotations(docText)
	if len(s.annotationFilter) > 0 {
		annotations = FilterByNames(annotations, s.annotationFilter...)
	}
	if len(annotations) == 0 {
		return
	}

	for _, spec := range decl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		if _, ok := typeSpec.Type.(*ast.StructType); !ok {
			continue
		}

		result.structs = append(result.structs, &AnnotatedTarget{
			Target: &Target{
				Kind:        TargetStruct,
				Name:        typeSpec.Name.Name,
				PackageName: packageName,
				FilePath:    filePath,
				Position:    typeSpec.Pos(),
				Node:        typeSpec,
				File:        file,
				Fset:        fset,
			},
			Annotations: annotations,
		})
	}
}

// parseFuncDecl 解析函数声明
func (s *Scanner) parseFuncDecl(fset *token.FileSet, file *ast.File, filePath, packageName string, decl *ast.FuncDecl, result *fileScan) {
	var docText string
	if decl.Doc != nil {
		docText = decl.Doc.Text()
	}

	annotations := ParseAnnotations(docText)
	if len(annotations) == 0 {
		return
	}

	if len(s.annotationFilter) > 0 {
		annotations = FilterByNames(annotations, s.annotationFilter...)
		if len(annotations) == 0 {
			return
		}
	}

	target := &Target{
		Name:        decl.Name.Name,
		PackageName: packageName,
		FilePath:    filePath,
		Position:    decl.Pos(),
		Node:        decl,
		File:        file,
		Fset:        fset,
	}

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		target.Kind = TargetMethod
		recv := decl.Recv.List[0]

		if len(recv.Names) > 0 {
			target.ReceiverName = recv.Names[0].Name
		}
		target.ReceiverType = exprToString(recv.Type)

		result.methods = append(result.methods, &AnnotatedTarget{
			Target:      target,
			Annotations: annotations,
		})
	} else {
		target.Kind = TargetFunc
		result.funcs = append(result.funcs, &AnnotatedTarget{
			Target:      target,
			Annotations: annotations,
		})
	}
}

// generatedSuffixes 生成文件的后缀，扫描时跳过
var generatedSuffixes = []string{
	"_test.go",
	"_gen.go",
	"_fields.go",
}

func isSkippedFile(path string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// collectFiles 收集所有需要扫描的文件
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		if recursive {
			pattern = strings.TrimSuffix(pattern, "/...")
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			err := filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				if info.IsDir() {
					name := info.Name()
					if strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" {
						return filepath.SkipDir
					}
					if !recursive && path != absPath {
						return filepath.SkipDir
					}
					return nil
				}

				if strings.HasSuffix(path, ".go") && !isSkippedFile(path) {
					if !seen[path] {
						seen[path] = true
						files = append(files, path)
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if strings.HasSuffix(absPath, ".go") {
			if !seen[absPath] {
				seen[absPath] = true
				files = append(files, absPath)
			}
		}
	}

	return files, nil
}

func exprToString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return "*" + exprToString(e.X)
	case *ast.SelectorExpr:
		return exprToString(e.X) + "." + e.Sel.Name
	case *ast.IndexExpr:
		return exprToString(e.X) + "[" + exprToString(e.Index) + "]"
	default:
		return ""
	}
}

// 默认扫描器
var defaultScanner = NewScanner()

func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return defaultScanner.Scan(ctx, patterns...)
}

func ScanWithFilter(ctx context.Context, annotations []string, patterns ...string) (*ScanResult, error) {
	scanner := NewScanner(WithAnnotationFilter(annotations...))
	return scanner.Scan(ctx, patterns...)
}

// directiveRegex 匹配 go:ctorgen: 指令
// 支持两种格式：//go:ctorgen: 和 // go:ctorgen:
var directiveRegex = regexp.MustCompile(`go:ctorgen:\s*(.*)`)

// parsePackageConfig 解析包级 go:ctorgen: 配置
// 支持格式:
//
//	//go:ctorgen: -output `$TYPE_fields`
//	// go:ctorgen: plugin:fieldgen -output `$FILE_fields`
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var directiveLines []string

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimPrefix(c.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(text)

			if matches := directiveRegex.FindStringSubmatch(text); len(matches) > 1 {
				directiveLines = append(directiveLines, matches[1])
			}
		}
	}

	if len(directiveLines) == 0 {
		return nil
	}

	if len(directiveLines) > 1 {
		fmt.Printf("警告: 文件 %s 定义了多个 go:ctorgen: 指令，将被忽略\n", filePath)
		return nil
	}

	return parseDirectiveLine(directiveLines[0], filePath)
}

// parseDirectiveLine 解析单行 go:ctorgen: 配置
// 格式:
//
//	-output `xxx`                                          // 默认输出
//	plugin:fieldgen -output `xxx` plugin:other -output `yyy`  // 插件特定输出
func parseDirectiveLine(line string, filePath string) *PackageConfig {
	pkgDir := filepath.Dir(filePath)
	config := &PackageConfig{
		PackageDir:    pkgDir,
		PluginOutputs: make(map[string]string),
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	parts := splitDirectiveArgs(line)

	var currentPlugin string
	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "plugin:") {
			// 切换到特定插件
			currentPlugin = strings.ToLower(strings.TrimPrefix(part, "plugin:"))
		} else if part == "-output" && i+1 < len(parts) {
			i++
			output := trimQuotes(parts[i])
			if currentPlugin == "" {
				config.DefaultOutput = output
			} else {
				config.PluginOutputs[currentPlugin] = output
			}
		}
	}

	if config.DefaultOutput == "" && len(config.PluginOutputs) == 0 {
		return nil
	}

	return config
}

// splitDirectiveArgs 分割 go:ctorgen 参数，支持引号内的空格
func splitDirectiveArgs(line string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(line); i++ {
		c := line[i]

		if !inQuote && (c == '`' || c == '"' || c == '\'') {
			inQuote = true
			quoteChar = c
			current.WriteByte(c)
		} else if inQuote && c == quoteChar {
			inQuote = false
			current.WriteByte(c)
			quoteChar = 0
		} else if !inQuote && c == ' ' {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteByte(c)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// trimQuotes 去除引号
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '`' && s[len(s)-1] == '`') ||
			(s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

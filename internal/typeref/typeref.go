package typeref

import (
	"go/ast"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ctorgen/ctorgen/internal/pkgresolver"
)

// Import 生成代码需要携带的一条导入
type Import struct {
	Path  string // 完整导入路径
	Alias string // 显式别名（如果有）
}

// Table 源文件的导入表
// 将类型表达式中的包限定符（别名或真实包名）映射回导入路径，
// 使生成文件可以原样复用限定符并补齐对应的 import
type Table struct {
	byQualifier map[string]Import
}

// NewTable 从源文件构建导入表
// resolver 用于获取真实包名（导入路径最后一段不一定等于包名，
// 如 gopkg.in/yaml.v3 的包名是 yaml）
func NewTable(file *ast.File, resolver *pkgresolver.PackageNameResolver) *Table {
	t := &Table{byQualifier: make(map[string]Import)}

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)

		if imp.Name != nil {
			name := imp.Name.Name
			// dot import 和空白导入无法作为限定符
			if name == "." || name == "_" {
				continue
			}
			t.byQualifier[name] = Import{Path: importPath, Alias: name}
			continue
		}

		// 没有显式别名：限定符是真实包名
		var pkgName string
		if resolver != nil {
			pkgName, _ = resolver.GetPackageName(importPath)
		}
		if pkgName == "" {
			pkgName = filepath.Base(importPath)
		}
		t.byQualifier[pkgName] = Import{Path: importPath}
	}

	return t
}

// Lookup 根据限定符查找导入
func (t *Table) Lookup(qualifier string) (Import, bool) {
	imp, ok := t.byQualifier[qualifier]
	return imp, ok
}

// CollectImports 收集类型表达式引用的所有导入
// 遇到无法通过导入表解析的限定符时返回 ok=false，
// 调用方应跳过该参数（符号尚未就绪或源文件不完整）
func (t *Table) CollectImports(expr ast.Expr) ([]Import, bool) {
	var imports []Import
	ok := true

	ast.Inspect(expr, func(n ast.Node) bool {
		sel, isSel := n.(*ast.SelectorExpr)
		if !isSel {
			return true
		}
		ident, isIdent := sel.X.(*ast.Ident)
		if !isIdent {
			return true
		}

		imp, found := t.Lookup(ident.Name)
		if !found {
			ok = false
			return false
		}
		imports = append(imports, imp)
		return false // 限定符已处理，不再深入
	})

	if !ok {
		return nil, false
	}
	return Dedupe(imports), true
}

// Dedupe 按导入路径去重并排序，保证生成顺序稳定
func Dedupe(imports []Import) []Import {
	seen := make(map[string]bool, len(imports))
	result := make([]Import, 0, len(imports))
	for _, imp := range imports {
		if seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		result = append(result, imp)
	}
	slices.SortFunc(result, func(a, b Import) int {
		return strings.Compare(a.Path, b.Path)
	})
	return result
}

// Render 将类型表达式渲染为源码文本，保留包限定符
// 返回空字符串表示表达式包含不支持的节点，调用方应跳过
func Render(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		inner := Render(e.X)
		if inner == "" {
			return ""
		}
		return "*" + inner
	case *ast.SelectorExpr:
		x := Render(e.X)
		if x == "" {
			return ""
		}
		return x + "." + e.Sel.Name
	case *ast.ArrayType:
		elt := Render(e.Elt)
		if elt == "" {
			return ""
		}
		if e.Len == nil {
			return "[]" + elt
		}
		length := Render(e.Len)
		if length == "" {
			return ""
		}
		return "[" + length + "]" + elt
	case *ast.Ellipsis:
		elt := Render(e.Elt)
		if elt == "" {
			return ""
		}
		return "..." + elt
	case *ast.MapType:
		key, value := Render(e.Key), Render(e.Value)
		if key == "" || value == "" {
			return ""
		}
		return "map[" + key + "]" + value
	case *ast.ChanType:
		value := Render(e.Value)
		if value == "" {
			return ""
		}
		switch e.Dir {
		case ast.RECV:
			return "<-chan " + value
		case ast.SEND:
			return "chan<- " + value
		default:
			return "chan " + value
		}
	case *ast.FuncType:
		return renderFuncType(e)
	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "any"
		}
		return "" // 匿名非空接口不支持
	case *ast.StructType:
		if e.Fields == nil || len(e.Fields.List) == 0 {
			return "struct{}"
		}
		return "" // 匿名非空结构体不支持
	case *ast.IndexExpr:
		x, index := Render(e.X), Render(e.Index)
		if x == "" || index == "" {
			return ""
		}
		return x + "[" + index + "]"
	case *ast.IndexListExpr:
		x := Render(e.X)
		if x == "" {
			return ""
		}
		indices := make([]string, 0, len(e.Indices))
		for _, idx := range e.Indices {
			rendered := Render(idx)
			if rendered == "" {
				return ""
			}
			indices = append(indices, rendered)
		}
		return x + "[" + strings.Join(indices, ", ") + "]"
	case *ast.ParenExpr:
		inner := Render(e.X)
		if inner == "" {
			return ""
		}
		return "(" + inner + ")"
	case *ast.BasicLit:
		return e.Value
	default:
		return ""
	}
}

// renderFuncType 渲染函数类型
func renderFuncType(fn *ast.FuncType) string {
	params, ok := renderFieldList(fn.Params)
	if !ok {
		return ""
	}

	result := "func(" + params + ")"

	if fn.Results == nil || len(fn.Results.List) == 0 {
		return result
	}

	results, ok := renderFieldList(fn.Results)
	if !ok {
		return ""
	}
	if len(fn.Results.List) == 1 && len(fn.Results.List[0].Names) == 0 {
		return result + " " + results
	}
	return result + " (" + results + ")"
}

// renderFieldList 渲染参数/返回值列表
func renderFieldList(list *ast.FieldList) (string, bool) {
	if list == nil {
		return "", true
	}

	var parts []string
	for _, field := range list.List {
		typ := Render(field.Type)
		if typ == "" {
			return "", false
		}
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		names := make([]string, 0, len(field.Names))
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
		parts = append(parts, strings.Join(names, ", ")+" "+typ)
	}

	return strings.Join(parts, ", "), true
}

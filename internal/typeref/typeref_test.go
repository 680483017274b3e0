package typeref

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseTypeExpr 解析单个类型表达式
func parseTypeExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	require.NoError(t, err, "解析类型表达式失败: %s", src)
	return expr
}

// parseTypeFromField 通过函数参数解析类型表达式
// parser.ParseExpr 无法解析 ... 和部分类型形式，借助函数签名
func parseTypeFromField(t *testing.T, typeSrc string) ast.Expr {
	t.Helper()
	src := "package p\nfunc f(x " + typeSrc + ")"
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "t.go", src, 0)
	require.NoError(t, err)
	fn := file.Decls[0].(*ast.FuncDecl)
	return fn.Type.Params.List[0].Type
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"ident", "string", "string"},
		{"pointer", "*Config", "*Config"},
		{"selector", "slog.Logger", "slog.Logger"},
		{"pointer selector", "*slog.Logger", "*slog.Logger"},
		{"slice", "[]byte", "[]byte"},
		{"array", "[4]int", "[4]int"},
		{"map", "map[string]int", "map[string]int"},
		{"map of selector", "map[string]time.Duration", "map[string]time.Duration"},
		{"chan", "chan int", "chan int"},
		{"recv chan", "<-chan int", "<-chan int"},
		{"send chan", "chan<- int", "chan<- int"},
		{"func no result", "func(int)", "func(int)"},
		{"func one result", "func(a, b int) error", "func(a, b int) error"},
		{"func multi result", "func() (int, error)", "func() (int, error)"},
		{"empty interface", "interface{}", "any"},
		{"empty struct", "struct{}", "struct{}"},
		{"generic instantiation", "List[string]", "List[string]"},
		{"nested", "[]map[string][]*url.URL", "[]map[string][]*url.URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := parseTypeExpr(t, tt.src)
			assert.Equal(t, tt.expected, Render(expr))
		})
	}
}

func TestRender_Variadic(t *testing.T) {
	expr := parseTypeFromField(t, "...string")
	assert.Equal(t, "...string", Render(expr))
}

func TestRender_MultiTypeParamInstantiation(t *testing.T) {
	expr := parseTypeFromField(t, "Pair[K, V]")
	assert.Equal(t, "Pair[K, V]", Render(expr))
}

func TestRender_UnsupportedReturnsEmpty(t *testing.T) {
	// 非空匿名结构体不支持
	expr := parseTypeFromField(t, "struct{ X int }")
	assert.Equal(t, "", Render(expr))

	// 非空匿名接口不支持
	expr = parseTypeFromField(t, "interface{ Close() error }")
	assert.Equal(t, "", Render(expr))
}

// parseTestFile 解析完整文件用于导入表测试
func parseTestFile(t *testing.T, src string) *ast.File {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "t.go", src, parser.ParseComments)
	require.NoError(t, err)
	return file
}

func TestTable_Lookup(t *testing.T) {
	file := parseTestFile(t, `package p

import (
	"log/slog"
	xhttp "net/http"
	_ "embed"
	. "fmt"
)
`)

	table := NewTable(file, nil)

	// 无别名导入按包名（路径最后一段）查找
	imp, ok := table.Lookup("slog")
	require.True(t, ok)
	assert.Equal(t, "log/slog", imp.Path)
	assert.Empty(t, imp.Alias)

	// 显式别名
	imp, ok = table.Lookup("xhttp")
	require.True(t, ok)
	assert.Equal(t, "net/http", imp.Path)
	assert.Equal(t, "xhttp", imp.Alias)

	// 空白导入和 dot import 不产生限定符
	_, ok = table.Lookup("embed")
	assert.False(t, ok)
	_, ok = table.Lookup("fmt")
	assert.False(t, ok)
}

func TestTable_CollectImports(t *testing.T) {
	file := parseTestFile(t, `package p

import (
	"log/slog"
	"time"
	xhttp "net/http"
)
`)

	table := NewTable(file, nil)

	expr := parseTypeExpr(t, "map[time.Duration]*slog.Logger")
	imports, ok := table.CollectImports(expr)
	require.True(t, ok)
	require.Len(t, imports, 2)
	// 按路径排序
	assert.Equal(t, "log/slog", imports[0].Path)
	assert.Equal(t, "time", imports[1].Path)

	// 别名导入
	expr = parseTypeExpr(t, "*xhttp.Client")
	imports, ok = table.CollectImports(expr)
	require.True(t, ok)
	require.Len(t, imports, 1)
	assert.Equal(t, "net/http", imports[0].Path)
	assert.Equal(t, "xhttp", imports[0].Alias)

	// 无限定符的表达式没有导入
	expr = parseTypeExpr(t, "[]string")
	imports, ok = table.CollectImports(expr)
	require.True(t, ok)
	assert.Empty(t, imports)

	// 未知限定符视为不可解析
	expr = parseTypeExpr(t, "unknown.Thing")
	_, ok = table.CollectImports(expr)
	assert.False(t, ok)
}

func TestDedupe(t *testing.T) {
	imports := []Import{
		{Path: "time"},
		{Path: "log/slog"},
		{Path: "time"},
	}

	result := Dedupe(imports)
	require.Len(t, result, 2)
	assert.Equal(t, "log/slog", result[0].Path)
	assert.Equal(t, "time", result[1].Path)
}

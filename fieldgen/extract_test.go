package fieldgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/ctorgen/ctorgen/plugin"
)

// parseCtorTarget 从源码构建一个函数目标
func parseCtorTarget(t *testing.T, src, funcName string) *plugin.Target {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("解析源码失败: %v", err)
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != funcName {
			continue
		}
		return &plugin.Target{
			Kind:        plugin.TargetFunc,
			Name:        funcName,
			PackageName: file.Name.Name,
			FilePath:    "test.go",
			Node:        fn,
			File:        file,
			Fset:        fset,
		}
	}

	t.Fatalf("未找到函数 %s", funcName)
	return nil
}

func defaultParams() *FieldsParams {
	return &FieldsParams{Ctor: "true"}
}

func TestExtract_PointerCtor(t *testing.T) {
	src := `package demo

import (
	"log/slog"
	"net/http"
)

// @AutoFields
func NewService(
	logger *slog.Logger, // @Field
	client *http.Client, // @Field
	name string,
) *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	if info.TypeName != "Service" {
		t.Errorf("TypeName = %q, want Service", info.TypeName)
	}
	if !info.Pointer {
		t.Error("expected pointer kind")
	}
	if info.AllocName != "newService" {
		t.Errorf("AllocName = %q, want newService", info.AllocName)
	}
	if !info.GenCtor {
		t.Error("expected GenCtor to be true")
	}

	// 未标记的 name 参数不产生字段，顺序与声明一致
	if len(info.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(info.Fields))
	}
	if info.Fields[0].Name != "logger" || info.Fields[0].Type != "*slog.Logger" {
		t.Errorf("field 0 = %+v, want logger *slog.Logger", info.Fields[0])
	}
	if info.Fields[1].Name != "client" || info.Fields[1].Type != "*http.Client" {
		t.Errorf("field 1 = %+v, want client *http.Client", info.Fields[1])
	}

	// 导入按路径排序
	if len(info.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(info.Imports))
	}
	if info.Imports[0].Path != "log/slog" || info.Imports[1].Path != "net/http" {
		t.Errorf("imports = %+v", info.Imports)
	}
}

func TestExtract_ValueCtor(t *testing.T) {
	src := `package demo

// @AutoFields
func NewPoint(
	x int, // @Field
	y int, // @Field
) Point {
	return Point{}
}
`
	target := parseCtorTarget(t, src, "NewPoint")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if info.Pointer {
		t.Error("expected value kind")
	}
	if info.TypeName != "Point" {
		t.Errorf("TypeName = %q, want Point", info.TypeName)
	}
}

func TestExtract_NoMarkedParams(t *testing.T) {
	src := `package demo

// @AutoFields
func NewService(name string, port int) *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	if _, ok := extract(target, defaultParams(), nil); ok {
		t.Error("expected absent result when no parameter is marked")
	}
}

func TestExtract_NoParams(t *testing.T) {
	src := `package demo

// @AutoFields
func NewService() *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	if _, ok := extract(target, defaultParams(), nil); ok {
		t.Error("expected absent result for empty parameter list")
	}
}

func TestExtract_AnonymousReturn(t *testing.T) {
	src := `package demo

// @AutoFields
func NewThing(
	name string, // @Field
) struct{ n string } {
	return struct{ n string }{}
}
`
	target := parseCtorTarget(t, src, "NewThing")

	if _, ok := extract(target, defaultParams(), nil); ok {
		t.Error("expected absent result for anonymous return type")
	}
}

func TestExtract_Generic(t *testing.T) {
	src := `package demo

// @AutoFields
func NewPair[K comparable, V any](
	key K, // @Field
	value V, // @Field
) Pair[K, V] {
	return Pair[K, V]{}
}
`
	target := parseCtorTarget(t, src, "NewPair")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	if info.TypeName != "Pair" {
		t.Errorf("TypeName = %q, want Pair", info.TypeName)
	}
	// 类型参数按声明顺序原样保留
	if len(info.TypeParams) != 2 {
		t.Fatalf("expected 2 type params, got %d", len(info.TypeParams))
	}
	if info.TypeParams[0].Name != "K" || info.TypeParams[0].Constraint != "comparable" {
		t.Errorf("type param 0 = %+v", info.TypeParams[0])
	}
	if info.TypeParams[1].Name != "V" || info.TypeParams[1].Constraint != "any" {
		t.Errorf("type param 1 = %+v", info.TypeParams[1])
	}
	if got := info.TypeExpr(); got != "Pair[K, V]" {
		t.Errorf("TypeExpr() = %q", got)
	}
	if got := info.TypeParamsDecl(); got != "[K comparable, V any]" {
		t.Errorf("TypeParamsDecl() = %q", got)
	}
}

func TestExtract_MultiNameParams(t *testing.T) {
	src := `package demo

// @AutoFields
func NewBox(
	width, height int, // @Field
) Box {
	return Box{}
}
`
	target := parseCtorTarget(t, src, "NewBox")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	// 一个名字一个字段，按顺序
	if len(info.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(info.Fields))
	}
	if info.Fields[0].Name != "width" || info.Fields[1].Name != "height" {
		t.Errorf("fields = %+v", info.Fields)
	}
}

func TestExtract_LeadingMarker(t *testing.T) {
	src := `package demo

import "time"

// @AutoFields
func NewRegistry(
	// @Field
	entries map[string]time.Duration,
	limit int, // @Field
) Registry {
	return Registry{}
}
`
	target := parseCtorTarget(t, src, "NewRegistry")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	if len(info.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(info.Fields))
	}
	if info.Fields[0].Name != "entries" || info.Fields[0].Type != "map[string]time.Duration" {
		t.Errorf("field 0 = %+v", info.Fields[0])
	}
}

func TestExtract_SharedLineTrailingMarker(t *testing.T) {
	src := `package demo

// @AutoFields
func NewX(a int, c int, // @Field
) X {
	return X{}
}
`
	target := parseCtorTarget(t, src, "NewX")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	// 尾随注释标记的是同一行最后一个参数组，前面的参数不受影响
	if len(info.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d: %+v", len(info.Fields), info.Fields)
	}
	if info.Fields[0].ParamName != "c" {
		t.Errorf("field = %+v, want marked parameter c", info.Fields[0])
	}
}

func TestExtract_SharedLineThenLeadingMarker(t *testing.T) {
	src := `package demo

// @AutoFields
func NewY(a int, c int, // @Field
	// @Field
	d int,
) Y {
	return Y{}
}
`
	target := parseCtorTarget(t, src, "NewY")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	// 尾随归属不影响后续行的前导归属
	if len(info.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d: %+v", len(info.Fields), info.Fields)
	}
	if info.Fields[0].ParamName != "c" || info.Fields[1].ParamName != "d" {
		t.Errorf("fields = %+v, want c and d", info.Fields)
	}
}

func TestExtract_AutoFieldLongForm(t *testing.T) {
	src := `package demo

// @AutoFields
func NewService(
	name string, // @AutoField
) *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if len(info.Fields) != 1 || info.Fields[0].Name != "name" {
		t.Errorf("fields = %+v", info.Fields)
	}
}

func TestExtract_UnresolvableQualifierSkipsParam(t *testing.T) {
	src := `package demo

// @AutoFields
func NewService(
	conn unknown.Conn, // @Field
	name string, // @Field
) *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	// 无法解析导入的参数被跳过，不是错误
	if len(info.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(info.Fields))
	}
	if info.Fields[0].Name != "name" {
		t.Errorf("field = %+v", info.Fields[0])
	}
}

func TestExtract_OnlyUnresolvableParam(t *testing.T) {
	src := `package demo

// @AutoFields
func NewService(
	conn unknown.Conn, // @Field
) *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	if _, ok := extract(target, defaultParams(), nil); ok {
		t.Error("expected absent result when every marked parameter is skipped")
	}
}

func TestExtract_Variadic(t *testing.T) {
	src := `package demo

// @AutoFields
func NewGroup(
	names ...string, // @Field
) *Group {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewGroup")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if len(info.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(info.Fields))
	}
	if info.Fields[0].Type != "[]string" || !info.Fields[0].Variadic {
		t.Errorf("field = %+v, want []string variadic", info.Fields[0])
	}
}

func TestExtract_ParamOverrides(t *testing.T) {
	src := `package demo

// @AutoFields(new=build, ctor=false)
func NewService(
	name string, // @Field
) *Service {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewService")

	params := &FieldsParams{New: "build", Ctor: "false"}
	info, ok := extract(target, params, nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if info.AllocName != "build" {
		t.Errorf("AllocName = %q, want build", info.AllocName)
	}
	if info.GenCtor {
		t.Error("expected GenCtor to be false")
	}
}

func TestExtract_UpperFirstParamBecomesLowerField(t *testing.T) {
	src := `package demo

// @AutoFields
func NewConfig(
	Timeout int, // @Field
) *Config {
	return nil
}
`
	target := parseCtorTarget(t, src, "NewConfig")

	info, ok := extract(target, defaultParams(), nil)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if info.Fields[0].Name != "timeout" {
		t.Errorf("field name = %q, want timeout", info.Fields[0].Name)
	}
	if info.Fields[0].ParamName != "Timeout" {
		t.Errorf("param name = %q, want Timeout", info.Fields[0].ParamName)
	}
}

func TestIsCandidate(t *testing.T) {
	src := `package demo

// @AutoFields
func WithMarkers(
	a int, // @Field
) *T { return nil }

// @AutoFields
func NoComments(a int) *T { return nil }
`
	withMarkers := parseCtorTarget(t, src, "WithMarkers")
	if !isCandidate(withMarkers) {
		t.Error("expected WithMarkers to be a candidate")
	}

	noComments := parseCtorTarget(t, src, "NoComments")
	if isCandidate(noComments) {
		t.Error("expected NoComments to not be a candidate")
	}
}

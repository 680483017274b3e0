package fieldgen

import (
	"go/ast"
	"go/token"

	"github.com/ctorgen/ctorgen/internal/pkgresolver"
	"github.com/ctorgen/ctorgen/internal/typeref"
	"github.com/ctorgen/ctorgen/internal/utils"
	"github.com/ctorgen/ctorgen/plugin"
)

// markerNames 参数标记注解，仅按名称匹配
// Field 是 AutoField 的惯用简写，两者等价
var markerNames = []string{"AutoField", "Field"}

// isCandidate 判断目标是否值得进入提取阶段
// 纯语法判断：函数声明、参数列表非空、参数区间内存在注释
// 不合法的节点一律返回 false，不报错
func isCandidate(target *plugin.Target) bool {
	fn, ok := target.Node.(*ast.FuncDecl)
	if !ok || fn.Type == nil {
		return false
	}
	if fn.Type.Params == nil || len(fn.Type.Params.List) == 0 {
		return false
	}
	if target.File == nil || target.Fset == nil {
		return false
	}

	open := fn.Type.Params.Opening
	closing := fn.Type.Params.Closing
	for _, cg := range target.File.Comments {
		if cg.Pos() > open && cg.End() < closing {
			return true
		}
	}
	return false
}

// paramAnnotations 收集参数列表内部的注释注解，按参数下标归属
// 归属规则：
//   - 同一行的尾随注释属于该行最后一个参数组
//   - 独立成行的注释属于其下方最近的参数
func paramAnnotations(fset *token.FileSet, file *ast.File, params *ast.FieldList) map[int][]*plugin.Annotation {
	result := make(map[int][]*plugin.Annotation)

	paramLines := make([]int, len(params.List))
	for i, field := range params.List {
		paramLines[i] = fset.Position(field.Pos()).Line
	}

	for _, cg := range file.Comments {
		if cg.Pos() <= params.Opening || cg.End() >= params.Closing {
			continue
		}
		cgLine := fset.Position(cg.Pos()).Line
		cgEnd := fset.Position(cg.End()).Line

		idx := -1
		for i, line := range paramLines {
			if cgLine == line {
				// 尾随注释：同一行可能有多个参数组，注释标记的是紧邻它的最后一个
				idx = i
				continue
			}
			if cgEnd < line {
				// 前导注释，属于下一个参数；已匹配到尾随归属时不再覆盖
				if idx < 0 {
					idx = i
				}
				break
			}
		}
		if idx < 0 {
			continue
		}

		anns := plugin.ParseAnnotations(cg.Text())
		result[idx] = append(result[idx], anns...)
	}

	return result
}

// hasMarker 判断注解列表是否包含字段标记
func hasMarker(anns []*plugin.Annotation) bool {
	for _, name := range markerNames {
		if plugin.HasAnnotation(anns, name) {
			return true
		}
	}
	return false
}

// resolveReturnType 从函数的第一个返回值解析构造的类型
// 支持命名类型、指针、泛型实例化；其他形态视为无法解析
func resolveReturnType(fn *ast.FuncDecl) (name string, pointer bool, ok bool) {
	if fn.Type.Results == nil || len(fn.Type.Results.List) == 0 {
		return "", false, false
	}

	expr := fn.Type.Results.List[0].Type
	if star, isStar := expr.(*ast.StarExpr); isStar {
		pointer = true
		expr = star.X
	}

	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, pointer, true
	case *ast.IndexExpr:
		if ident, isIdent := e.X.(*ast.Ident); isIdent {
			return ident.Name, pointer, true
		}
	case *ast.IndexListExpr:
		if ident, isIdent := e.X.(*ast.Ident); isIdent {
			return ident.Name, pointer, true
		}
	}
	return "", false, false
}

// extract 从构造函数目标提取生成模型
// 返回 ok=false 表示目标不产出任何内容（静默跳过）：
// 候选判断失败、返回类型无法解析、或没有任何参数通过标记与类型解析
func extract(target *plugin.Target, params *FieldsParams, resolver *pkgresolver.PackageNameResolver) (*CtorInfo, bool) {
	if !isCandidate(target) {
		return nil, false
	}
	fn := target.Node.(*ast.FuncDecl)

	typeName, pointer, ok := resolveReturnType(fn)
	if !ok {
		return nil, false
	}

	table := typeref.NewTable(target.File, resolver)
	var imports []typeref.Import

	// 泛型参数原样保留，约束无法渲染则整个目标跳过
	var typeParams []TypeParamInfo
	if fn.Type.TypeParams != nil {
		for _, field := range fn.Type.TypeParams.List {
			constraint := typeref.Render(field.Type)
			if constraint == "" {
				return nil, false
			}
			constraintImports, impOK := table.CollectImports(field.Type)
			if !impOK {
				return nil, false
			}
			imports = append(imports, constraintImports...)
			for _, name := range field.Names {
				typeParams = append(typeParams, TypeParamInfo{Name: name.Name, Constraint: constraint})
			}
		}
	}

	annsByParam := paramAnnotations(target.Fset, target.File, fn.Type.Params)

	var fields []FieldInfo
	for i, field := range fn.Type.Params.List {
		if !hasMarker(annsByParam[i]) {
			continue
		}
		// 无名参数无法参与字段初始化
		if len(field.Names) == 0 {
			continue
		}

		typeExpr := field.Type
		variadic := false
		if ell, isEll := typeExpr.(*ast.Ellipsis); isEll {
			typeExpr = ell.Elt
			variadic = true
		}

		rendered := typeref.Render(typeExpr)
		if rendered == "" {
			continue
		}
		fieldImports, impOK := table.CollectImports(typeExpr)
		if !impOK {
			// 限定符解析不到导入，该参数跳过
			continue
		}

		fieldType := rendered
		if variadic {
			fieldType = "[]" + rendered
		}

		for _, name := range field.Names {
			if name.Name == "_" {
				continue
			}
			fields = append(fields, FieldInfo{
				ParamName: name.Name,
				Name:      utils.LowerFirst(name.Name),
				Type:      fieldType,
				Variadic:  variadic,
			})
		}
		imports = append(imports, fieldImports...)
	}

	if len(fields) == 0 {
		return nil, false
	}

	allocName := params.New
	if allocName == "" {
		allocName = "new" + upperFirst(typeName)
	}

	return &CtorInfo{
		PackageName: target.PackageName,
		TypeName:    typeName,
		TypeParams:  typeParams,
		Pointer:     pointer,
		Fields:      fields,
		Imports:     typeref.Dedupe(imports),
		AllocName:   allocName,
		GenCtor:     params.CtorEnabled(),
	}, true
}

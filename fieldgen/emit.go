package fieldgen

import (
	"fmt"
	"unicode"

	"github.com/donutnomad/gg"
)

// buildDefinition 为一组目标生成 gg 定义
// 同一输出文件内的目标已按类型名排序，生成结果对相同输入字节级一致
func buildDefinition(infos []*CtorInfo) (*gg.Generator, error) {
	if len(infos) == 0 {
		return nil, fmt.Errorf("没有目标需要生成")
	}

	gen := gg.New()
	gen.SetPackage(infos[0].PackageName)

	for _, info := range infos {
		for _, imp := range info.Imports {
			if imp.Alias != "" {
				gen.PAlias(imp.Path, imp.Alias)
			} else {
				gen.P(imp.Path)
			}
		}
	}

	for i, info := range infos {
		if i > 0 {
			gen.Body().AddLine()
		}
		emitStruct(gen, info)
		if info.GenCtor {
			gen.Body().AddLine()
			emitAllocator(gen, info)
		}
	}

	return gen, nil
}

// emitStruct 生成字段结构体声明
func emitStruct(gen *gg.Generator, info *CtorInfo) {
	structDef := gen.Body().NewStruct(info.TypeName + info.TypeParamsDecl())
	for _, field := range info.Fields {
		structDef.AddField(field.Name, field.Type)
	}
}

// emitAllocator 生成逐字段构造函数
// 参数沿用源构造函数的参数名，函数体是键值形式的复合字面量
func emitAllocator(gen *gg.Generator, info *CtorInfo) {
	returnType := info.TypeExpr()
	amp := ""
	if info.Pointer {
		returnType = "*" + returnType
		amp = "&"
	}

	fn := gen.Body().NewFunction(info.AllocName + info.TypeParamsDecl()).
		AddResult("", returnType)

	for _, field := range info.Fields {
		paramType := field.Type
		if field.Variadic {
			paramType = "..." + paramType[len("[]"):]
		}
		fn.AddParameter(field.ParamName, paramType)
	}

	body := []any{
		gg.S("return %s%s{", amp, info.TypeExpr()),
	}
	for _, field := range info.Fields {
		body = append(body, gg.S("%s: %s,", field.Name, field.ParamName))
	}
	body = append(body, gg.S("}"))

	fn.AddBody(body...)
}

// upperFirst 将首字母转换为大写
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

package fieldgen

import (
	"strings"

	"github.com/ctorgen/ctorgen/internal/typeref"
)

// FieldInfo 一个待生成的字段，来自一个被标记的构造参数
type FieldInfo struct {
	ParamName string // 源参数名，构造函数参数沿用此名
	Name      string // 生成的字段名（首字母小写）
	Type      string // 渲染后的类型表达式，带包限定符
	Variadic  bool   // 源参数是否是变长参数（字段类型已转为切片）
}

// TypeParamInfo 泛型类型参数
type TypeParamInfo struct {
	Name       string
	Constraint string
}

// CtorInfo 一个构造函数目标的完整描述，提取阶段的产物
type CtorInfo struct {
	PackageName string           // 目标所在包名
	TypeName    string           // 构造的类型名，如 Service
	TypeParams  []TypeParamInfo  // 泛型参数，按声明顺序
	Pointer     bool             // 构造函数返回 *T 还是 T
	Fields      []FieldInfo      // 字段列表，按参数声明顺序
	Imports     []typeref.Import // 生成文件需要的导入
	AllocName   string           // 生成的构造函数名
	GenCtor     bool             // 是否生成构造函数
}

// TypeExpr 返回类型的使用形式，如 Service 或 Pair[K, V]
func (c *CtorInfo) TypeExpr() string {
	if len(c.TypeParams) == 0 {
		return c.TypeName
	}
	names := make([]string, 0, len(c.TypeParams))
	for _, tp := range c.TypeParams {
		names = append(names, tp.Name)
	}
	return c.TypeName + "[" + strings.Join(names, ", ") + "]"
}

// TypeParamsDecl 返回类型参数的声明形式，如 [K comparable, V any]
func (c *CtorInfo) TypeParamsDecl() string {
	if len(c.TypeParams) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.TypeParams))
	for _, tp := range c.TypeParams {
		parts = append(parts, tp.Name+" "+tp.Constraint)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

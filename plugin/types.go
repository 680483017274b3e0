package plugin

import (
	"go/ast"
	"go/token"

	"github.com/donutnomad/gg"
)

// TargetKind 表示注解目标的类型
type TargetKind int

const (
	TargetFunc   TargetKind = iota + 1 // 包级函数（构造函数）
	TargetMethod                       // 结构体方法
	TargetStruct                       // 结构体
)

func (k TargetKind) String() string {
	switch k {
	case TargetFunc:
		return "func"
	case TargetMethod:
		return "method"
	case TargetStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// ParamDef 定义注解参数的元信息
type ParamDef struct {
	Name        string // 参数名称
	Required    bool   // 是否必填
	Default     string // 默认值（如果不是必填）
	Description string // 参数描述
}

// Annotation 表示解析后的注解
type Annotation struct {
	Name   string            // 注解名称，如 "AutoFields"
	Params map[string]string // 注解参数，如 new=`xxx`
	Raw    string            // 原始注解文本
}

// Target 表示注解的目标
// 生成器需要读取参数列表内部的注释（如 @Field 标记），
// 因此除 AST 节点外还携带所在文件与 FileSet。
type Target struct {
	Kind        TargetKind // 目标类型
	Name        string     // 名称（函数名、方法名、结构体名）
	PackageName string     // 包名
	FilePath    string     // 文件路径
	Position    token.Pos  // 位置信息

	// 方法特有字段
	ReceiverName string // 接收者名称（仅方法）
	ReceiverType string // 接收者类型（仅方法）

	// AST 上下文，用于深度解析（参数注释、返回值类型等）
	Node ast.Node
	File *ast.File
	Fset *token.FileSet
}

// AnnotatedTarget 表示带注解的目标
type AnnotatedTarget struct {
	Target       *Target       // 目标信息
	Annotations  []*Annotation // 注解列表
	ParsedParams any           // 解析后的参数结构体
}

// ScanResult 表示扫描结果
type ScanResult struct {
	Funcs   []*AnnotatedTarget // 带注解的包级函数
	Methods []*AnnotatedTarget // 带注解的方法
	Structs []*AnnotatedTarget // 带注解的结构体

	// PackageConfigs 包级配置
	// key: 包目录路径
	PackageConfigs map[string]*PackageConfig
}

// All 返回所有带注解的目标
func (r *ScanResult) All() []*AnnotatedTarget {
	result := make([]*AnnotatedTarget, 0, len(r.Funcs)+len(r.Methods)+len(r.Structs))
	result = append(result, r.Funcs...)
	result = append(result, r.Methods...)
	result = append(result, r.Structs...)
	return result
}

// ByAnnotation 按注解名称过滤
func (r *ScanResult) ByAnnotation(name string) []*AnnotatedTarget {
	var result []*AnnotatedTarget
	for _, t := range r.All() {
		for _, a := range t.Annotations {
			if a.Name == name {
				result = append(result, t)
				break
			}
		}
	}
	return result
}

// GenerateContext 生成上下文，传递给 Generator
type GenerateContext struct {
	Targets        []*AnnotatedTarget        // 该 Generator 需要处理的目标
	PackageConfigs map[string]*PackageConfig // 包级配置，key: 包目录路径
	DefaultOutput  string                    // 命令行指定的默认输出路径（最低优先级）
	Verbose        bool                      // 详细输出
}

// GetPackageConfig 获取指定包目录的配置
func (c *GenerateContext) GetPackageConfig(pkgDir string) *PackageConfig {
	if c.PackageConfigs == nil {
		return nil
	}
	return c.PackageConfigs[pkgDir]
}

// GenerateResult 生成结果
// Generator 返回 gg 定义，由聚合器统一处理
type GenerateResult struct {
	// Definitions 是生成的 gg 定义
	// key: 输出文件路径（相对路径或绝对路径）
	// value: gg.Generator 定义
	Definitions map[string]*gg.Generator

	// Errors 错误列表
	Errors []error

	// Skipped 跳过的数量
	Skipped int
}

// PackageConfig 包级生成配置
// 通过 // go:ctorgen: 注释定义
// 示例:
//
//	// go:ctorgen: -output `$TYPE_fields`
//	// go:ctorgen: plugin:fieldgen -output `$FILE_fields`
type PackageConfig struct {
	PackageDir string // 包目录路径

	// DefaultOutput 默认输出路径（对所有插件生效）
	DefaultOutput string

	// PluginOutputs 插件特定的输出路径
	// key: 插件名（小写）, value: 输出路径
	PluginOutputs map[string]string
}

// GetPluginOutput 获取指定插件的输出路径
// 优先返回插件特定配置，其次返回默认配置，最后返回空字符串
func (c *PackageConfig) GetPluginOutput(pluginName string) string {
	if c == nil {
		return ""
	}
	if output, ok := c.PluginOutputs[pluginName]; ok {
		return output
	}
	return c.DefaultOutput
}

// NewGenerateResult 创建新的生成结果
func NewGenerateResult() *GenerateResult {
	return &GenerateResult{
		Definitions: make(map[string]*gg.Generator),
	}
}

// AddDefinition 添加 gg 定义
func (r *GenerateResult) AddDefinition(path string, gen *gg.Generator) {
	if r.Definitions == nil {
		r.Definitions = make(map[string]*gg.Generator)
	}
	r.Definitions[path] = gen
}

// AddError 添加错误
func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// HasErrors 检查是否有错误
func (r *GenerateResult) HasErrors() bool {
	return len(r.Errors) > 0
}

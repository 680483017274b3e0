package fieldgen

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cast"
	"golang.org/x/exp/maps"

	"github.com/ctorgen/ctorgen/internal/pkgresolver"
	"github.com/ctorgen/ctorgen/plugin"
)

const generatorName = "fieldgen"

// FieldsParams 定义 AutoFields 注解支持的参数
type FieldsParams struct {
	New  string `param:"name=new,required=false,default=,description=生成的构造函数名，默认 new+类型名"`
	Ctor string `param:"name=ctor,required=false,default=true,description=是否生成构造函数: true|false"`
}

// CtorEnabled 解析 ctor 参数
func (p *FieldsParams) CtorEnabled() bool {
	return cast.ToBool(strings.TrimSpace(p.Ctor))
}

// FieldsGenerator 实现 plugin.Generator 接口
// 扫描带 @AutoFields 注解的构造函数，为被 @Field 标记的参数
// 在同包生成字段结构体与逐字段构造函数
type FieldsGenerator struct {
	plugin.BaseGenerator

	// resolvers 按项目根目录缓存包名解析器
	resolvers map[string]*pkgresolver.PackageNameResolver
}

func NewFieldsGenerator() *FieldsGenerator {
	gen := &FieldsGenerator{
		BaseGenerator: *plugin.NewBaseGeneratorWithParamsStruct(
			generatorName,
			[]string{"AutoFields"},
			[]plugin.TargetKind{plugin.TargetFunc},
			FieldsParams{},
		),
		resolvers: make(map[string]*pkgresolver.PackageNameResolver),
	}
	gen.SetPriority(10)
	return gen
}

// Generate 执行代码生成
func (g *FieldsGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()

	if len(ctx.Targets) == 0 {
		return result, nil
	}

	// 按输出文件分组处理
	fileInfos := make(map[string][]*CtorInfo)

	for _, at := range ctx.Targets {
		ann := plugin.GetAnnotation(at.Annotations, "AutoFields")
		if ann == nil {
			continue
		}

		var params FieldsParams
		if at.ParsedParams != nil {
			var ok bool
			params, ok = at.ParsedParams.(FieldsParams)
			if !ok {
				result.AddError(fmt.Errorf("ParsedParams 类型断言失败: %T", at.ParsedParams))
				continue
			}
		}

		resolver := g.resolverFor(filepath.Dir(at.Target.FilePath))
		info, ok := extract(at.Target, &params, resolver)
		if !ok {
			// 无标记参数或目标不合法，不产出任何内容
			result.Skipped++
			if ctx.Verbose {
				fmt.Printf("[fieldgen] 跳过函数 %s (无有效标记参数)\n", at.Target.Name)
			}
			continue
		}

		pkgConfig := ctx.GetPackageConfig(filepath.Dir(at.Target.FilePath))
		outputPath := plugin.GetOutputPath(at.Target, ann, info.TypeName, "$TYPE_fields.go", pkgConfig, g.Name(), ctx.DefaultOutput)

		fileInfos[outputPath] = append(fileInfos[outputPath], info)

		if ctx.Verbose {
			fmt.Printf("[fieldgen] 处理构造函数 %s -> 类型 %s -> %s\n", at.Target.Name, info.TypeName, outputPath)
		}
	}

	// 按输出路径排序，确保生成顺序一致
	outputPaths := maps.Keys(fileInfos)
	slices.Sort(outputPaths)

	for _, outputPath := range outputPaths {
		infos := fileInfos[outputPath]
		// 同一文件内按类型名排序，保证多目标时顺序稳定
		slices.SortFunc(infos, func(a, b *CtorInfo) int {
			return strings.Compare(a.TypeName, b.TypeName)
		})

		if ctx.Verbose {
			for _, info := range infos {
				fmt.Printf("[fieldgen] %s", spew.Sdump(info))
			}
		}

		gen, err := buildDefinition(infos)
		if err != nil {
			result.AddError(fmt.Errorf("生成 %s 失败: %w", outputPath, err))
			continue
		}
		result.AddDefinition(outputPath, gen)
	}

	return result, nil
}

// resolverFor 返回文件所在项目的包名解析器，按项目根缓存
func (g *FieldsGenerator) resolverFor(dir string) *pkgresolver.PackageNameResolver {
	root := findProjectRoot(dir)
	if resolver, ok := g.resolvers[root]; ok {
		return resolver
	}
	resolver := pkgresolver.NewPackageNameResolver(root)
	g.resolvers[root] = resolver
	return resolver
}

// findProjectRoot 从目录向上查找 go.mod 所在目录
// 找不到时退回起始目录
func findProjectRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	current := abs
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		current = parent
	}
}

package recordgen

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/donutnomad/recordgen/internal/logger"
	"github.com/donutnomad/recordgen/plugin"
)

const (
	generatorName  = "record"
	annotationName = "Record"
)

// RecordParams @Record 注解参数
type RecordParams struct {
	Skip bool `param:"name=skip,required=false,default=false,description=跳过该类，不生成构造函数与 With 方法"`
}

// RecordGenerator 为只读类生成构造函数与 With 方法
type RecordGenerator struct {
	*plugin.BaseGenerator
}

// NewRecordGenerator 创建生成器
func NewRecordGenerator() *RecordGenerator {
	return &RecordGenerator{
		BaseGenerator: plugin.NewBaseGeneratorWithParamsStruct(
			generatorName,
			[]string{annotationName},
			[]plugin.TargetKind{plugin.TargetClass},
			RecordParams{},
		),
	}
}

// Implicit 未加注解的类也交给该生成器处理
func (g *RecordGenerator) Implicit() bool {
	return true
}

// Generate 为每个目标类生成编辑与诊断
func (g *RecordGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	log := logger.FromContext(ctx.Context)
	result := plugin.NewGenerateResult()

	for _, target := range ctx.Targets {
		if params, ok := target.ParsedParams.(RecordParams); ok && params.Skip {
			log.Debug("跳过类", "class", target.Target.FullName, "reason", "skip=true")
			result.Skipped++
			continue
		}

		t := target.Target
		plan, ok, err := BuildPlan(t.File.Source, t.Class, Options{Indent: ctx.Indent})
		if err != nil {
			result.AddError(err)
			continue
		}
		if ctx.Verbose {
			log.Debug("类模型", "class", t.FullName, "model", spew.Sdump(plan.Model))
		}
		if !ok {
			log.Debug("类不满足条件", "class", t.FullName,
				"reason", plan.Eligibility.Reason.String(), "member", plan.Eligibility.Member)
			result.Skipped++
			continue
		}

		result.AddDiagnostic(plan.Diagnostic())
		if plan.UpToDate() {
			log.Debug("已是最新", "class", t.FullName)
			continue
		}
		result.AddEdits(t.FilePath, plan.Fix.Edits...)
	}

	return result, nil
}

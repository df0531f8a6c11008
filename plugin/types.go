package plugin

import (
	"context"

	"github.com/donutnomad/recordgen/internal/csharp"
	"github.com/donutnomad/recordgen/internal/diag"
	"github.com/donutnomad/recordgen/internal/source"
)

// TargetKind 表示注解目标的类型
type TargetKind int

const (
	TargetClass TargetKind = iota + 1 // 类
)

func (k TargetKind) String() string {
	switch k {
	case TargetClass:
		return "class"
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
	Name   string            // 注解名称，如 "Record"
	Params map[string]string // 注解参数，如 skip=true
	Raw    string            // 原始注解文本
}

// Target 表示注解的目标
type Target struct {
	Kind      TargetKind // 目标类型
	Name      string     // 类名
	FullName  string     // 含命名空间与外层类
	Namespace string
	FilePath  string      // 文件路径
	Span      source.Span // 类声明的位置

	File  *csharp.File  // 所在文件的解析结果
	Class *csharp.Class // 类声明
}

// AnnotatedTarget 表示带注解的目标
// 隐式目标没有注解，Annotations 为空
type AnnotatedTarget struct {
	Target       *Target       // 目标信息
	Annotations  []*Annotation // 注解列表
	ParsedParams any           // 解析后的参数结构体
}

// ScanResult 表示扫描结果
type ScanResult struct {
	Classes []*AnnotatedTarget // 所有类（含嵌套类），按文件与出现顺序
	Files   []*csharp.File     // 成功解析的文件
	FileSet *source.FileSet

	// Errors 单个文件的读取或解析错误，不中断扫描
	Errors []error
}

// All 返回所有目标
func (r *ScanResult) All() []*AnnotatedTarget {
	return r.Classes
}

// GenerateContext 生成上下文，传递给 Generator
type GenerateContext struct {
	Context context.Context    // 携带 logger
	Targets []*AnnotatedTarget // 该 Generator 需要处理的目标
	FileSet *source.FileSet
	Indent  string // 配置的一级缩进，为空时由生成器推断
	Verbose bool   // 详细输出
}

// GenerateResult 生成结果
// Generator 返回对源文件的编辑，由 Run 统一应用
type GenerateResult struct {
	// Edits key: 源文件路径
	Edits map[string][]diag.TextEdit

	// Diagnostics 每个可更新的类一条
	Diagnostics []diag.Diagnostic

	// Errors 错误列表
	Errors []error

	// Skipped 跳过的数量
	Skipped int
}

// NewGenerateResult 创建新的生成结果
func NewGenerateResult() *GenerateResult {
	return &GenerateResult{
		Edits: make(map[string][]diag.TextEdit),
	}
}

// AddEdits 添加对 path 的编辑
func (r *GenerateResult) AddEdits(path string, edits ...diag.TextEdit) {
	if len(edits) == 0 {
		return
	}
	if r.Edits == nil {
		r.Edits = make(map[string][]diag.TextEdit)
	}
	r.Edits[path] = append(r.Edits[path], edits...)
}

// AddDiagnostic 添加诊断
func (r *GenerateResult) AddDiagnostic(d diag.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// AddError 添加错误
func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// HasErrors 检查是否有错误
func (r *GenerateResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Merge 合并另一个结果
func (r *GenerateResult) Merge(other *GenerateResult) {
	if other == nil {
		return
	}
	for path, edits := range other.Edits {
		r.AddEdits(path, edits...)
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.Errors = append(r.Errors, other.Errors...)
	r.Skipped += other.Skipped
}

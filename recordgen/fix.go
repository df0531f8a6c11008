package recordgen

import (
	"strings"

	"github.com/donutnomad/recordgen/internal/csharp"
	"github.com/donutnomad/recordgen/internal/diag"
	"github.com/donutnomad/recordgen/internal/source"
)

const (
	// DiagnosticMessage 可更新时的提示
	DiagnosticMessage = "Records constructor and modifiers can be updated"
	// FixTitle 修复动作标题
	FixTitle = "Update immutable record constructor and modifier method"
)

// Options 修复选项
type Options struct {
	Indent string // 一级缩进，空表示从源码推断
}

// Plan 一个类的分析与修复结果
type Plan struct {
	Class       *csharp.Class
	Model       ClassModel
	Eligibility Eligibility
	Synthesis   Synthesis
	Fix         diag.Fix
}

// UpToDate 生成的成员与源码一致，无需修改
func (p *Plan) UpToDate() bool {
	return len(p.Fix.Edits) == 0
}

// Diagnostic 将结果转为诊断，定位到类名
func (p *Plan) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.CodeRecordUpdate,
		Message:  DiagnosticMessage,
		Primary:  p.Class.NameSpan,
		Subject:  p.Class.Name,
		Fixes:    []diag.Fix{p.Fix},
	}
}

// BuildPlan 分析类并生成修复；类不合格时返回 false
func BuildPlan(src *source.File, cls *csharp.Class, opts Options) (*Plan, bool, error) {
	model := ExtractClass(cls)
	plan := &Plan{
		Class:       cls,
		Model:       model,
		Eligibility: Analyze(model),
	}
	if !plan.Eligibility.OK() {
		return plan, false, nil
	}
	syn, _ := Synthesize(model)
	plan.Synthesis = syn

	fix, err := BuildFix(src, cls, model, syn, opts)
	if err != nil {
		return nil, false, err
	}
	plan.Fix = fix
	return plan, true, nil
}

// BuildFix 生成把合成结果写回源码的编辑
// 已有成员只替换声明部分（保留特性与前导注释）；新成员追加在最后一个成员之后
// 渲染结果与原文相同时不产生编辑
func BuildFix(src *source.File, cls *csharp.Class, model ClassModel, syn Synthesis, opts Options) (diag.Fix, error) {
	style := detectStyle(src, cls, opts)

	ctorText, err := RenderConstructor(syn.Constructor, style)
	if err != nil {
		return diag.Fix{}, err
	}
	withText, err := RenderWith(syn.With, style)
	if err != nil {
		return diag.Fix{}, err
	}

	var edits []diag.TextEdit
	var appended []string
	for _, slot := range Merge(model, syn) {
		var text string
		switch slot.Kind {
		case SlotConstructor:
			text = ctorText
		case SlotWith:
			text = withText
		default:
			continue
		}
		if !slot.Replaced() {
			appended = append(appended, text)
			continue
		}
		m := cls.Members[slot.Index]
		// 原成员可能使用不同的缩进，按其自身缩进重新渲染
		if indent := src.LineIndent(m.DeclSpan.Start); indent != style.Indent {
			text = reindent(text, style, indent)
		}
		old := src.Text(m.DeclSpan)
		if old != text {
			edits = append(edits, diag.ReplaceSpan(m.DeclSpan, text, old))
		}
	}

	if len(appended) > 0 {
		nl := style.NewLine
		var at uint32
		var b strings.Builder
		if n := len(cls.Members); n > 0 {
			at = cls.Members[n-1].Span.End
			b.WriteString(nl)
		} else {
			at = cls.OpenBrace + 1
		}
		for i, text := range appended {
			if i > 0 {
				b.WriteString(nl)
			}
			b.WriteString(nl + style.Indent + text)
		}
		if len(cls.Members) == 0 {
			b.WriteString(nl + src.LineIndent(cls.Close))
		}
		edits = append(edits, diag.InsertText(source.Span{File: src.ID, Start: at, End: at}, b.String()))
	}

	return diag.NewFix(FixTitle, diag.WithEdits(edits...)), nil
}

// detectStyle 从已有成员推断缩进；没有成员时在类缩进上加一级
func detectStyle(src *source.File, cls *csharp.Class, opts Options) Style {
	style := Style{NewLine: src.NewLine(), Unit: opts.Indent}
	classIndent := src.LineIndent(cls.Span.Start)

	if len(cls.Members) > 0 {
		first := cls.Members[0].Span.Start
		if src.LineCol(first).Line != src.LineCol(cls.OpenBrace).Line {
			style.Indent = src.LineIndent(first)
			if style.Unit == "" && strings.HasPrefix(style.Indent, classIndent) && len(style.Indent) > len(classIndent) {
				style.Unit = style.Indent[len(classIndent):]
			}
		}
	}
	if style.Unit == "" {
		style.Unit = DefaultIndent
		if strings.HasPrefix(classIndent, "\t") {
			style.Unit = "\t"
		}
	}
	if style.Indent == "" {
		style.Indent = classIndent + style.Unit
	}
	return style
}

// reindent 把按 style.Indent 渲染的文本改为 indent
func reindent(text string, style Style, indent string) string {
	lines := strings.Split(text, style.NewLine)
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + strings.TrimPrefix(lines[i], style.Indent)
	}
	return strings.Join(lines, style.NewLine)
}

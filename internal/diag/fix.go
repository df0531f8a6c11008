package diag

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/donutnomad/recordgen/internal/source"
)

var (
	// ErrStaleEdit 编辑的 OldText 与文件当前内容不一致
	ErrStaleEdit = errors.New("编辑已过期")
	// ErrOverlappingEdits 两个编辑覆盖了同一段文本
	ErrOverlappingEdits = errors.New("编辑区间重叠")
)

// TextEdit 对单个文件的一处文本替换
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string // 期望被替换的原文，为空表示不校验
}

// Fix 一组原子应用的编辑
type Fix struct {
	Title string
	Edits []TextEdit
}

// Option 构造 Fix 时的可选项
type Option func(*Fix)

// WithTitle 覆盖修复标题
func WithTitle(title string) Option {
	return func(f *Fix) {
		f.Title = title
	}
}

// WithEdits 追加编辑
func WithEdits(edits ...TextEdit) Option {
	return func(f *Fix) {
		f.Edits = append(f.Edits, edits...)
	}
}

// NewFix 创建修复
func NewFix(title string, opts ...Option) Fix {
	f := Fix{Title: title}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText 在 at 处插入文本（at.Start == at.End）
func InsertText(at source.Span, text string) TextEdit {
	return TextEdit{
		Span:    source.Span{File: at.File, Start: at.Start, End: at.Start},
		NewText: text,
	}
}

// ReplaceSpan 用 newText 替换 span，expect 为替换前的原文
func ReplaceSpan(span source.Span, newText, expect string) TextEdit {
	return TextEdit{
		Span:    span,
		NewText: newText,
		OldText: expect,
	}
}

// ApplyEdits 将编辑应用到 content 上并返回新内容
// 编辑按起始位置排序；同一位置的插入保持传入顺序
func ApplyEdits(content []byte, edits []TextEdit) ([]byte, error) {
	if len(edits) == 0 {
		return content, nil
	}

	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b TextEdit) int {
		return int(a.Span.Start) - int(b.Span.Start)
	})

	for i, e := range sorted {
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(content) {
			return nil, fmt.Errorf("编辑区间 %s 越界", e.Span)
		}
		if e.OldText != "" && string(content[e.Span.Start:e.Span.End]) != e.OldText {
			return nil, fmt.Errorf("%w: %s", ErrStaleEdit, e.Span)
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.Span.End > e.Span.Start || (!prev.Span.Empty() && prev.Span.Start == e.Span.Start) {
				return nil, fmt.Errorf("%w: %s 与 %s", ErrOverlappingEdits, prev.Span, e.Span)
			}
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(content))
	var last uint32
	for _, e := range sorted {
		buf.Write(content[last:e.Span.Start])
		buf.WriteString(e.NewText)
		last = e.Span.End
	}
	buf.Write(content[last:])
	return buf.Bytes(), nil
}

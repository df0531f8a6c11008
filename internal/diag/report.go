package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/donutnomad/recordgen/internal/source"
)

// Format 输出格式
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ReportOptions 渲染选项
type ReportOptions struct {
	Format  Format
	Color   bool
	Context bool // 文本格式下是否输出源码行与插入符
}

// Report 将诊断写入 w
func Report(w io.Writer, fs *source.FileSet, diags []Diagnostic, opts ReportOptions) error {
	switch opts.Format {
	case FormatJSON:
		return reportJSON(w, fs, diags)
	case FormatText, "":
		return reportText(w, fs, diags, opts)
	default:
		return fmt.Errorf("不支持的输出格式: %s", opts.Format)
	}
}

type jsonDiagnostic struct {
	File     string `json:"file"`
	Line     uint32 `json:"line"`
	Column   uint32 `json:"column"`
	Severity string `json:"severity"`
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Class    string `json:"class,omitempty"`
	Fixable  bool   `json:"fixable"`
}

func reportJSON(w io.Writer, fs *source.FileSet, diags []Diagnostic) error {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		var path string
		if f := fs.Get(d.Primary.File); f != nil {
			path = f.Path
		}
		start, _ := fs.Resolve(d.Primary)
		out = append(out, jsonDiagnostic{
			File:     path,
			Line:     start.Line,
			Column:   start.Col,
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
			Class:    d.Subject,
			Fixable:  d.HasEdits(),
		})
	}
	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化诊断失败: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func reportText(w io.Writer, fs *source.FileSet, diags []Diagnostic, opts ReportOptions) error {
	sevColor := map[Severity]*color.Color{
		SevInfo:    color.New(color.FgCyan, color.Bold),
		SevWarning: color.New(color.FgYellow, color.Bold),
		SevError:   color.New(color.FgRed, color.Bold),
	}
	bold := color.New(color.Bold)
	for _, c := range sevColor {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	if opts.Color {
		bold.EnableColor()
	} else {
		bold.DisableColor()
	}

	for _, d := range diags {
		f := fs.Get(d.Primary.File)
		if f == nil {
			continue
		}
		start := f.LineCol(d.Primary.Start)
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s[%s]: %s\n",
			bold.Sprint(f.Path), start.Line, start.Col,
			sevColor[d.Severity].Sprint(d.Severity), d.Code, d.Message); err != nil {
			return err
		}
		if !opts.Context {
			continue
		}
		line := f.Line(start.Line)
		prefix := line[:min(int(start.Col-1), len(line))]
		width := runewidth.StringWidth(strings.TrimSpace(d.Subject))
		if width == 0 {
			width = 1
		}
		caret := strings.Repeat(" ", caretOffset(prefix)) + strings.Repeat("^", width)
		if _, err := fmt.Fprintf(w, "  %s\n  %s\n", strings.ReplaceAll(line, "\t", "    "), sevColor[d.Severity].Sprint(caret)); err != nil {
			return err
		}
	}
	return nil
}

// caretOffset 计算插入符前的显示宽度，制表符按 4 列处理
func caretOffset(prefix string) int {
	n := 0
	for _, r := range prefix {
		if r == '\t' {
			n += 4
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}

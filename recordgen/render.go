package recordgen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultIndent 无法从源码推断缩进时使用的缩进单位
const DefaultIndent = "    "

// Style 输出格式
type Style struct {
	Indent  string // 成员所在的缩进，作用于首行之后的每一行
	Unit    string // 一级缩进
	NewLine string
}

func (s Style) withDefaults() Style {
	if s.Unit == "" {
		s.Unit = DefaultIndent
	}
	if s.NewLine == "" {
		s.NewLine = "\n"
	}
	return s
}

const memberTemplates = `
{{- define "constructor" -}}
{{- $decls := list -}}
{{- range .Params }}{{ $decls = append $decls (printf "%s %s" .Type .Name) }}{{ end -}}
public {{ .ClassName }}({{ join ", " $decls }})
{
{{- range .Assignments }}
{{ $.Unit }}this.{{ .Member }} = {{ .Param }};
{{- end }}
}
{{- end -}}

{{- define "with" -}}
{{- $decls := list -}}
{{- range .Params }}{{ $decls = append $decls (printf "%s %s = %s" .Type .Name .Default) }}{{ end -}}
{{- $args := list -}}
{{- range .Args }}{{ $args = append $args (printf "%s ?? this.%s" .Param .Member) }}{{ end -}}
public {{ .ReturnType }} With({{ join ", " $decls }})
{
{{ $.Unit }}return new {{ .ReturnType }}({{ join ", " $args }});
}
{{- end -}}
`

var templates = template.Must(template.New("members").Funcs(sprig.TxtFuncMap()).Parse(memberTemplates))

type constructorData struct {
	Constructor
	Unit string
}

type withData struct {
	WithMethod
	Unit string
}

// RenderConstructor 生成构造函数源码，首行不带缩进
func RenderConstructor(c Constructor, style Style) (string, error) {
	style = style.withDefaults()
	return execute("constructor", constructorData{Constructor: c, Unit: style.Unit}, style)
}

// RenderWith 生成 With 方法源码，首行不带缩进
// 参数取值按 OverrideOrKeep 渲染为 Param ?? this.Member
func RenderWith(w WithMethod, style Style) (string, error) {
	style = style.withDefaults()
	return execute("with", withData{WithMethod: w, Unit: style.Unit}, style)
}

func execute(name string, data any, style Style) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("渲染 %s 失败: %w", name, err)
	}
	lines := strings.Split(buf.String(), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = style.Indent + lines[i]
		}
	}
	return strings.Join(lines, style.NewLine), nil
}

package plugin

import (
	"fmt"
	"strings"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder

	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}

		// 获取主注解名
		mainAnnotation := annotations[0]
		paramDefs := gen.ParamDefs()

		// 生成器描述
		sb.WriteString(fmt.Sprintf("  @%s - %s\n", mainAnnotation, gen.Name()))
		if ig, ok := gen.(ImplicitGenerator); ok && ig.Implicit() {
			sb.WriteString("    未加注解的类同样会被处理（require_annotation: true 时关闭）\n")
		}

		// 生成器特定参数
		if len(paramDefs) > 0 {
			sb.WriteString("    参数:\n")
			for _, param := range paramDefs {
				// 生成参数行
				required := ""
				if param.Required {
					required = " (必填)"
				}

				defaultVal := ""
				if param.Default != "" {
					defaultVal = fmt.Sprintf(" [默认: %s]", param.Default)
				}

				sb.WriteString(fmt.Sprintf("      %s%s%s - %s\n",
					param.Name, required, defaultVal, param.Description))
			}
		}

		// 生成用法示例
		sb.WriteString("    示例:\n")
		sb.WriteString(fmt.Sprintf("      // @%s\n", mainAnnotation))

		// 单个参数示例（如果有）
		if len(paramDefs) > 0 {
			for i, param := range paramDefs {
				if i >= 2 {
					break // 只显示前2个参数的示例
				}
				if param.Default != "" {
					sb.WriteString(fmt.Sprintf("      // @%s(%s=%s)\n",
						mainAnnotation, param.Name, param.Default))
				}
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}


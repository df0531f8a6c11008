package recordgen

import (
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/donutnomad/recordgen/internal/csharp"
)

// Extract 将一个解析后的成员映射为恰好一个 MemberDescriptor，不做任何资格判断
func Extract(m *csharp.Member) MemberDescriptor {
	switch m.Kind {
	case csharp.MemberField:
		if len(m.Declarators) == 0 {
			return Other{Category: OtherMalformed}
		}
		// const 字段隐式为 static
		isConst := m.HasModifier("const")
		return Field{
			Name:       m.Declarators[0],
			Type:       m.Type,
			IsStatic:   m.HasModifier("static") || isConst,
			IsReadonly: m.HasModifier("readonly") || isConst,
			IsPublic:   m.HasModifier("public"),
		}

	case csharp.MemberProperty:
		p := Property{
			Name:     m.Name,
			Type:     m.Type,
			IsStatic: m.HasModifier("static"),
			IsPublic: m.HasModifier("public"),
		}
		if !m.HasModifier("abstract") && !m.HasModifier("extern") {
			p.Accessors = mo.Some(AccessorShape{
				HasSetter: lo.ContainsBy(m.Accessors, func(a csharp.Accessor) bool {
					return a.Keyword == "set" || a.Keyword == "init"
				}),
				GetHasBody: m.ExpressionBodied || lo.ContainsBy(m.Accessors, func(a csharp.Accessor) bool {
					return a.HasBody
				}),
			})
		}
		return p

	case csharp.MemberConstructor:
		return Other{Category: OtherConstructor, Name: m.Name, Params: toParameters(m.Params), IsStatic: m.HasModifier("static")}
	case csharp.MemberMethod:
		return Other{Category: OtherMethod, Name: m.Name, Params: toParameters(m.Params), IsStatic: m.HasModifier("static")}
	case csharp.MemberNestedType:
		return Other{Category: OtherNestedType, Name: m.Name}
	default:
		return Other{Category: OtherMisc, Name: m.Name}
	}
}

func toParameters(params []csharp.Param) []Parameter {
	return lo.Map(params, func(p csharp.Param, _ int) Parameter {
		return Parameter{Name: p.Name, Type: p.Type}
	})
}

// ExtractClass 构建类模型，Members 与 cls.Members 下标一一对应
// 畸形成员以 OtherMalformed 占位，由资格判断与字段选择自然忽略
func ExtractClass(cls *csharp.Class) ClassModel {
	return ClassModel{
		Name:       cls.Name,
		TypeParams: cls.TypeParams,
		Members:    lo.Map(cls.Members, func(m *csharp.Member, _ int) MemberDescriptor { return Extract(m) }),
	}
}

package recordgen

import (
	"github.com/samber/lo"
)

// Reason 资格判断的结论
type Reason int

const (
	Eligible          Reason = iota
	NotApplicable            // 没有非静态字段，也没有公开属性
	MutableField             // 非静态字段不是 readonly
	NonPublicField           // 非静态字段不是 public
	Setter                   // 非静态属性有 set / init
	NonPublicProperty        // 非静态自动只读属性不是 public
)

func (r Reason) String() string {
	switch r {
	case Eligible:
		return "eligible"
	case NotApplicable:
		return "not applicable"
	case MutableField:
		return "mutable field"
	case NonPublicField:
		return "non-public field"
	case Setter:
		return "property with setter"
	case NonPublicProperty:
		return "non-public property"
	default:
		return "unknown"
	}
}

// Eligibility 资格判断结果，Member 为导致不合格的第一个成员
type Eligibility struct {
	Reason Reason
	Member string
}

// OK 是否可以生成
func (e Eligibility) OK() bool {
	return e.Reason == Eligible
}

// Analyze 判断类是否可以套用 record 模式
//
// static 成员不受任何约束；带访问器体的计算属性既不约束资格，也不会成为数据字段；
// 任意非静态属性只要有 setter（不论可见性）就不合格
func Analyze(c ClassModel) Eligibility {
	var fields []Field
	var props []Property
	for _, m := range c.Members {
		switch d := m.(type) {
		case Field:
			if !d.IsStatic {
				fields = append(fields, d)
			}
		case Property:
			if !d.IsStatic {
				props = append(props, d)
			}
		}
	}

	hasCandidate := len(fields) > 0 || lo.ContainsBy(props, func(p Property) bool { return p.IsPublic })
	if !hasCandidate {
		return Eligibility{Reason: NotApplicable}
	}

	for _, f := range fields {
		if !f.IsReadonly {
			return Eligibility{Reason: MutableField, Member: f.Name}
		}
		if !f.IsPublic {
			return Eligibility{Reason: NonPublicField, Member: f.Name}
		}
	}

	for _, p := range props {
		shape, ok := p.Accessors.Get()
		if !ok {
			continue
		}
		if shape.HasSetter {
			return Eligibility{Reason: Setter, Member: p.Name}
		}
		if !shape.GetHasBody && !p.IsPublic {
			return Eligibility{Reason: NonPublicProperty, Member: p.Name}
		}
	}

	return Eligibility{Reason: Eligible}
}

// IsEligible 类是否可以套用 record 模式
func IsEligible(c ClassModel) bool {
	return Analyze(c).OK()
}

// IsDataField 成员是否进入构造函数与 With 的参数列表
// 与 Analyze 使用同一谓词，逐成员判断
func IsDataField(m MemberDescriptor) bool {
	switch d := m.(type) {
	case Field:
		return !d.IsStatic && d.IsPublic && d.IsReadonly
	case Property:
		return !d.IsStatic && d.IsPublic && isPlainProperty(d)
	default:
		return false
	}
}

// isPlainProperty 自动实现的只读属性：没有访问器体，没有 setter
func isPlainProperty(p Property) bool {
	shape, ok := p.Accessors.Get()
	return ok && !shape.HasSetter && !shape.GetHasBody
}

// SelectFields 按声明顺序选出数据字段
// overrides 为上一次 With 中已经包装为可空的参数名
func SelectFields(c ClassModel, overrides map[string]struct{}) []FieldSpec {
	return lo.FilterMap(c.Members, func(m MemberDescriptor, _ int) (FieldSpec, bool) {
		if !IsDataField(m) {
			return FieldSpec{}, false
		}
		var typ string
		switch d := m.(type) {
		case Field:
			typ = d.Type
		case Property:
			typ = d.Type
		}
		_, carried := overrides[m.MemberName()]
		return FieldSpec{
			Name:                 m.MemberName(),
			Type:                 typ,
			RequiresNullableWrap: IsNonNullableByDefault(typ) || carried,
		}, true
	})
}

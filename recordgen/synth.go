package recordgen

import (
	"github.com/samber/lo"
)

// NullDefault With 参数的缺省值
const NullDefault = "null"

// Constructor 合成的构造函数
type Constructor struct {
	ClassName   string
	Params      []Parameter
	Assignments []Assignment
}

// Assignment this.Member = Param
type Assignment struct {
	Member string
	Param  string
}

// WithMethod 合成的 With 方法
type WithMethod struct {
	ReturnType string // 类自身类型，泛型类带类型参数
	Params     []WithParam
	Args       []OverrideOrKeep // 按构造函数参数顺序
}

// WithParam With 参数；Default 为未传参时的缺省值
type WithParam struct {
	Name    string
	Type    string
	Wrapped bool
	Default string
}

// OverrideOrKeep 传入了 Param 就用 Param，否则保留当前实例的 Member
type OverrideOrKeep struct {
	Param  string
	Member string
}

// Synthesis 一次合成的结果，构造函数与 With 使用同一份字段列表
type Synthesis struct {
	Fields      []FieldSpec
	Constructor Constructor
	With        WithMethod
}

// BuildConstructor 每个字段一个参数，类型按声明原样；按字段顺序赋值
func BuildConstructor(className string, fields []FieldSpec) Constructor {
	return Constructor{
		ClassName: className,
		Params: lo.Map(fields, func(f FieldSpec, _ int) Parameter {
			return Parameter{Name: f.Name, Type: f.Type}
		}),
		Assignments: lo.Map(fields, func(f FieldSpec, _ int) Assignment {
			return Assignment{Member: f.Name, Param: f.Name}
		}),
	}
}

// BuildWithMethod selfType 为类自身类型写法（如 Box<T>）
// RequiresNullableWrap 的字段参数包装为可空，不会重复包装
func BuildWithMethod(selfType string, fields []FieldSpec) WithMethod {
	return WithMethod{
		ReturnType: selfType,
		Params: lo.Map(fields, func(f FieldSpec, _ int) WithParam {
			typ := f.Type
			if f.RequiresNullableWrap {
				typ = WrapNullable(typ)
			}
			return WithParam{
				Name:    f.Name,
				Type:    typ,
				Wrapped: IsNullableWrapped(typ),
				Default: NullDefault,
			}
		}),
		Args: lo.Map(fields, func(f FieldSpec, _ int) OverrideOrKeep {
			return OverrideOrKeep{Param: f.Name, Member: f.Name}
		}),
	}
}

// Synthesize 资格判断通过时合成构造函数与 With
// 上一次 With 中已包装的参数并入可空判断，包装只增不减
func Synthesize(c ClassModel) (Synthesis, bool) {
	if !IsEligible(c) {
		return Synthesis{}, false
	}
	overrides := NullableOverrides(PreviousWithMethod(c))
	fields := SelectFields(c, overrides)
	return Synthesis{
		Fields:      fields,
		Constructor: BuildConstructor(c.Name, fields),
		With:        BuildWithMethod(c.SelfType(), fields),
	}, true
}

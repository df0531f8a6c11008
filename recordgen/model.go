package recordgen

import (
	"github.com/samber/mo"
)

// DescriptorKind 成员角色
type DescriptorKind int

const (
	KindField DescriptorKind = iota + 1
	KindProperty
	KindOther
)

func (k DescriptorKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindProperty:
		return "property"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// MemberDescriptor 成员角色的封闭变体，只有 Field / Property / Other 三种实现
// 角色在提取时确定，后续逻辑只按变体匹配
type MemberDescriptor interface {
	Kind() DescriptorKind
	MemberName() string
	descriptor()
}

// Field 字段
type Field struct {
	Name       string
	Type       string
	IsStatic   bool
	IsReadonly bool
	IsPublic   bool
}

// Property 属性
// Accessors 仅在 abstract / extern 属性上为 None
type Property struct {
	Name      string
	Type      string
	IsStatic  bool
	IsPublic  bool
	Accessors mo.Option[AccessorShape]
}

// AccessorShape 访问器形态
type AccessorShape struct {
	HasSetter  bool // 存在 set 或 init，不论可见性
	GetHasBody bool // 任一访问器有 {...} 或 => 体，或属性本身是表达式体
}

// OtherKind 不透明成员的来源
type OtherKind int

const (
	OtherMisc OtherKind = iota // 事件、索引器、运算符、析构函数
	OtherConstructor
	OtherMethod
	OtherNestedType
	OtherMalformed // 没有声明任何变量的字段
)

func (k OtherKind) String() string {
	switch k {
	case OtherConstructor:
		return "constructor"
	case OtherMethod:
		return "method"
	case OtherNestedType:
		return "nested type"
	case OtherMalformed:
		return "malformed"
	default:
		return "misc"
	}
}

// Other 原样透传的成员；方法与构造函数保留参数，用于读取上一次生成的 With
// IsStatic 只对构造函数与方法有意义，静态构造函数与静态 With 不归生成器所有
type Other struct {
	Category OtherKind
	Name     string
	Params   []Parameter
	IsStatic bool
}

// Parameter 方法参数
type Parameter struct {
	Name string
	Type string
}

func (Field) Kind() DescriptorKind    { return KindField }
func (Property) Kind() DescriptorKind { return KindProperty }
func (Other) Kind() DescriptorKind    { return KindOther }

func (f Field) MemberName() string    { return f.Name }
func (p Property) MemberName() string { return p.Name }
func (o Other) MemberName() string    { return o.Name }

func (Field) descriptor()    {}
func (Property) descriptor() {}
func (Other) descriptor()    {}

// ClassModel 一个类的成员模型，成员顺序即声明顺序
type ClassModel struct {
	Name       string
	TypeParams string // "<T, U>"，非泛型类为空
	Members    []MemberDescriptor
}

// SelfType 返回类自身的类型写法，泛型类带上类型参数
func (c ClassModel) SelfType() string {
	return c.Name + c.TypeParams
}

// FieldSpec 参与合成的数据字段
type FieldSpec struct {
	Name                 string
	Type                 string
	RequiresNullableWrap bool
}

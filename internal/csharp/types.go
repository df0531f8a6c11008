package csharp

import (
	"slices"

	"github.com/donutnomad/recordgen/internal/source"
)

// File 一个已解析的 C# 源文件
type File struct {
	Source  *source.File
	Classes []*Class // 所有类声明（含嵌套类），按出现顺序
}

// Class 类声明
type Class struct {
	Name       string
	TypeParams string   // 泛型参数列表原文，如 "<T, U>"，无则为空
	Modifiers  []string // public / static / partial ...
	Comments   []string // 声明前的注释
	Namespace  string
	Parent     *Class // 外层类（嵌套类时）

	Span      source.Span // 整个声明，含特性与修饰符
	NameSpan  source.Span
	OpenBrace uint32 // '{' 的偏移
	Close     uint32 // '}' 的偏移

	Members []*Member
}

// FullName 返回包含命名空间与外层类的名字
func (c *Class) FullName() string {
	name := c.Name
	for p := c.Parent; p != nil; p = p.Parent {
		name = p.Name + "." + name
	}
	if c.Namespace != "" {
		name = c.Namespace + "." + name
	}
	return name
}

// HasModifier 检查类是否带有修饰符
func (c *Class) HasModifier(m string) bool {
	return slices.Contains(c.Modifiers, m)
}

// MemberKind 成员类型
type MemberKind int

const (
	MemberField MemberKind = iota + 1
	MemberProperty
	MemberConstructor
	MemberMethod
	MemberNestedType
	MemberOther // 事件、索引器、运算符、析构函数等
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberProperty:
		return "property"
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	case MemberNestedType:
		return "nested type"
	case MemberOther:
		return "other"
	default:
		return "unknown"
	}
}

// Member 类成员声明
type Member struct {
	Kind      MemberKind
	Modifiers []string
	Name      string
	Type      string // 字段/属性类型或方法返回类型，保持源码写法（连续空白折叠为一个空格）

	// Span 覆盖整个成员（含特性）；DeclSpan 从第一个修饰符或类型开始，不含特性
	Span     source.Span
	DeclSpan source.Span

	Declarators      []string   // 字段：声明的变量名
	Accessors        []Accessor // 属性：访问器列表
	ExpressionBodied bool       // 属性：int X => ...;
	Params           []Param    // 构造函数/方法：参数列表
	Nested           *Class     // 嵌套类
}

// HasModifier 检查成员是否带有修饰符
func (m *Member) HasModifier(mod string) bool {
	return slices.Contains(m.Modifiers, mod)
}

// Accessor 属性访问器
type Accessor struct {
	Keyword   string // get / set / init / add / remove
	Modifiers []string
	HasBody   bool // { ... } 或 => ...
}

// Param 方法参数
type Param struct {
	Name      string
	Type      string
	Modifiers []string
	Default   string
}

package csharp

import (
	"github.com/donutnomad/recordgen/internal/source"
)

// Kind 词法单元类型
type Kind uint8

const (
	EOF Kind = iota
	Ident
	Number
	String
	Char
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Number:
		return "Number"
	case String:
		return "String"
	case Char:
		return "Char"
	case Punct:
		return "Punct"
	}
	return "Unknown"
}

// Token 词法单元
// 关键字也以 Ident 表示，由解析器按文本判断；逐字标识符（@class）保留 @ 前缀
type Token struct {
	Kind     Kind
	Text     string
	Span     source.Span
	Comments []string // 紧挨在该 token 之前的注释（包括 // 与 /* */）
}

// Is 判断 token 是否为指定文本的标识符或标点
func (t Token) Is(text string) bool {
	return (t.Kind == Ident || t.Kind == Punct) && t.Text == text
}

// modifiers 可出现在成员声明前的修饰符
var modifiers = map[string]struct{}{
	"public": {}, "private": {}, "protected": {}, "internal": {}, "file": {},
	"static": {}, "readonly": {}, "const": {}, "volatile": {}, "abstract": {},
	"virtual": {}, "override": {}, "sealed": {}, "extern": {}, "unsafe": {},
	"new": {}, "partial": {}, "async": {}, "required": {}, "fixed": {},
}

// typeKeywords 类型声明关键字
var typeKeywords = map[string]struct{}{
	"class": {}, "struct": {}, "interface": {}, "enum": {}, "record": {}, "delegate": {},
}

// accessorKeywords 属性/事件访问器关键字
var accessorKeywords = map[string]struct{}{
	"get": {}, "set": {}, "init": {}, "add": {}, "remove": {},
}

// paramModifiers 参数修饰符
var paramModifiers = map[string]struct{}{
	"ref": {}, "out": {}, "in": {}, "params": {}, "this": {}, "scoped": {}, "readonly": {},
}

func isModifier(t Token) bool {
	if t.Kind != Ident {
		return false
	}
	_, ok := modifiers[t.Text]
	return ok
}

func isTypeKeyword(t Token) bool {
	if t.Kind != Ident {
		return false
	}
	_, ok := typeKeywords[t.Text]
	return ok
}

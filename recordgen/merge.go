package recordgen

import (
	"github.com/samber/lo"
)

// OwnedSlots 由生成器维护的两个成员的位置，-1 表示不存在
type OwnedSlots struct {
	Constructor int
	With        int
}

// LocateOwned 找到第一个实例构造函数与第一个名为 With 的实例方法
func LocateOwned(c ClassModel) OwnedSlots {
	owned := OwnedSlots{Constructor: -1, With: -1}
	for i, m := range c.Members {
		o, ok := m.(Other)
		if !ok || o.IsStatic {
			continue
		}
		switch {
		case o.Category == OtherConstructor && owned.Constructor < 0:
			owned.Constructor = i
		case o.Category == OtherMethod && o.Name == WithMethodName && owned.With < 0:
			owned.With = i
		}
	}
	return owned
}

// SlotKind 合并后成员的来源
type SlotKind int

const (
	SlotExisting SlotKind = iota
	SlotConstructor
	SlotWith
)

// Slot 合并后的一个成员；SlotExisting 时 Index 指向原成员
type Slot struct {
	Kind  SlotKind
	Index int
}

// Replaced 是否替换了原有成员
func (s Slot) Replaced() bool {
	return s.Kind != SlotExisting && s.Index >= 0
}

// Merge 原位替换已有的构造函数与 With，不存在时追加到末尾（构造函数在前）
// 其余成员保持原有相对顺序
func Merge(c ClassModel, _ Synthesis) []Slot {
	owned := LocateOwned(c)
	slots := make([]Slot, 0, len(c.Members)+2)
	for i := range c.Members {
		switch i {
		case owned.Constructor:
			slots = append(slots, Slot{Kind: SlotConstructor, Index: i})
		case owned.With:
			slots = append(slots, Slot{Kind: SlotWith, Index: i})
		default:
			slots = append(slots, Slot{Kind: SlotExisting, Index: i})
		}
	}
	if owned.Constructor < 0 {
		slots = append(slots, Slot{Kind: SlotConstructor, Index: -1})
	}
	if owned.With < 0 {
		slots = append(slots, Slot{Kind: SlotWith, Index: -1})
	}
	return slots
}

// Materialize 按 Merge 的结果构造新的类模型
func Materialize(c ClassModel, s Synthesis) ClassModel {
	ctor := Other{Category: OtherConstructor, Name: c.Name, Params: s.Constructor.Params}
	with := Other{
		Category: OtherMethod,
		Name:     WithMethodName,
		Params: lo.Map(s.With.Params, func(p WithParam, _ int) Parameter {
			return Parameter{Name: p.Name, Type: p.Type}
		}),
	}
	members := lo.Map(Merge(c, s), func(slot Slot, _ int) MemberDescriptor {
		switch slot.Kind {
		case SlotConstructor:
			return ctor
		case SlotWith:
			return with
		default:
			return c.Members[slot.Index]
		}
	})
	return ClassModel{Name: c.Name, TypeParams: c.TypeParams, Members: members}
}

package recordgen

import (
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// WithMethodName 生成的修改方法名
const WithMethodName = "With"

// nonNullableByDefault 默认不可空的值类型，With 参数需要包装为可空
var nonNullableByDefault = map[string]struct{}{
	"sbyte": {}, "byte": {}, "short": {}, "ushort": {},
	"int": {}, "uint": {}, "long": {}, "ulong": {},
	"float": {}, "double": {}, "decimal": {},
	"bool": {}, "char": {},
	"Guid": {}, "System.Guid": {},
	"DateTime": {}, "System.DateTime": {},
}

// normalizeType 去掉空白与 global:: 前缀
func normalizeType(typ string) string {
	typ = strings.Join(strings.Fields(typ), "")
	return strings.TrimPrefix(typ, "global::")
}

// IsNonNullableByDefault 类型是否在默认不可空表中
func IsNonNullableByDefault(typ string) bool {
	_, ok := nonNullableByDefault[normalizeType(typ)]
	return ok
}

// IsNullableWrapped 类型是否已经是 T?、Nullable<T> 或 System.Nullable<T>
func IsNullableWrapped(typ string) bool {
	t := normalizeType(typ)
	if strings.HasSuffix(t, "?") {
		return true
	}
	return strings.HasSuffix(t, ">") &&
		(strings.HasPrefix(t, "Nullable<") || strings.HasPrefix(t, "System.Nullable<"))
}

// WrapNullable 包装为可空类型，已包装的类型原样返回
func WrapNullable(typ string) string {
	if IsNullableWrapped(typ) {
		return typ
	}
	return typ + "?"
}

// PreviousParam 上一次 With 方法的参数形态
type PreviousParam struct {
	Name    string
	Wrapped bool
}

// PreviousWithMethod 读取类中第一个名为 With 的实例方法的参数
func PreviousWithMethod(c ClassModel) mo.Option[[]PreviousParam] {
	for _, m := range c.Members {
		o, ok := m.(Other)
		if !ok || o.IsStatic || o.Category != OtherMethod || o.Name != WithMethodName {
			continue
		}
		return mo.Some(lo.Map(o.Params, func(p Parameter, _ int) PreviousParam {
			return PreviousParam{Name: p.Name, Wrapped: IsNullableWrapped(p.Type)}
		}))
	}
	return mo.None[[]PreviousParam]()
}

// NullableOverrides 上一次 With 中已包装为可空的参数名集合
func NullableOverrides(prev mo.Option[[]PreviousParam]) map[string]struct{} {
	params := prev.OrEmpty()
	wrapped := lo.Filter(params, func(p PreviousParam, _ int) bool { return p.Wrapped })
	return lo.SliceToMap(wrapped, func(p PreviousParam) (string, struct{}) {
		return p.Name, struct{}{}
	})
}

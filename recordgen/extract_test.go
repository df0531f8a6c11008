package recordgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/recordgen/internal/csharp"
	"github.com/donutnomad/recordgen/internal/source"
)

const sampleSource = `public class Sample
{
    public readonly int A, B;
    private static string s;
    public const int Max = 1;
    public string Name { get; }
    public int Twice => A * 2;
    public int Count { get { return A; } }
    public string Mutable { get; private set; }
    public abstract int Abs { get; }
    public Sample(int A) { }
    public Sample With(int? A = null) { return null; }
    public event EventHandler Changed;
    public class Inner { }
}
`

// parseClass 解析源码并返回第一个类
func parseClass(t *testing.T, src string) (*source.File, *csharp.Class) {
	t.Helper()
	f, err := csharp.ParseSource(source.NewFileSet(), "Foo.cs", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, f.Classes)
	return f.Source, f.Classes[0]
}

func modelOf(t *testing.T, src string) ClassModel {
	t.Helper()
	_, cls := parseClass(t, src)
	return ExtractClass(cls)
}

func TestExtractClass(t *testing.T) {
	model := modelOf(t, sampleSource)
	require.Len(t, model.Members, 12)
	assert.Equal(t, "Sample", model.Name)

	assert.Equal(t, Field{Name: "A", Type: "int", IsReadonly: true, IsPublic: true}, model.Members[0])
	assert.Equal(t, Field{Name: "s", Type: "string", IsStatic: true}, model.Members[1])
	// const 隐式 static readonly
	assert.Equal(t, Field{Name: "Max", Type: "int", IsStatic: true, IsReadonly: true, IsPublic: true}, model.Members[2])

	name, ok := model.Members[3].(Property)
	require.True(t, ok)
	assert.Equal(t, AccessorShape{}, name.Accessors.MustGet())
	assert.True(t, name.IsPublic)

	twice := model.Members[4].(Property)
	assert.True(t, twice.Accessors.MustGet().GetHasBody)

	count := model.Members[5].(Property)
	assert.True(t, count.Accessors.MustGet().GetHasBody)
	assert.False(t, count.Accessors.MustGet().HasSetter)

	mutable := model.Members[6].(Property)
	assert.True(t, mutable.Accessors.MustGet().HasSetter)

	abs := model.Members[7].(Property)
	assert.True(t, abs.Accessors.IsAbsent())

	assert.Equal(t, Other{Category: OtherConstructor, Name: "Sample", Params: []Parameter{{Name: "A", Type: "int"}}}, model.Members[8])
	assert.Equal(t, Other{Category: OtherMethod, Name: "With", Params: []Parameter{{Name: "A", Type: "int?"}}}, model.Members[9])
	assert.Equal(t, KindOther, model.Members[10].Kind())
	assert.Equal(t, Other{Category: OtherNestedType, Name: "Inner"}, model.Members[11])
}

func TestExtractMalformedField(t *testing.T) {
	m := Extract(&csharp.Member{Kind: csharp.MemberField, Type: "int"})
	assert.Equal(t, Other{Category: OtherMalformed}, m)
	assert.False(t, IsDataField(m))
}

func TestExtractStaticConstructor(t *testing.T) {
	model := modelOf(t, "class Foo { static Foo() { } public static Foo With(Foo f) { return f; } }")
	assert.Equal(t, Other{Category: OtherConstructor, Name: "Foo", Params: []Parameter{}, IsStatic: true}, model.Members[0])
	assert.Equal(t, Other{Category: OtherMethod, Name: "With", Params: []Parameter{{Name: "f", Type: "Foo"}}, IsStatic: true}, model.Members[1])
}

func TestExtractInitAccessor(t *testing.T) {
	model := modelOf(t, "class Foo { public string Tag { get; init; } = \"x\"; }")
	p := model.Members[0].(Property)
	assert.True(t, p.Accessors.MustGet().HasSetter)
}

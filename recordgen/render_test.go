package recordgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	syn, ok := Synthesize(modelOf(t, "class Foo { public string Bar { get; } public int N { get; } }"))
	require.True(t, ok)

	style := Style{Indent: "    "}
	ctor, err := RenderConstructor(syn.Constructor, style)
	require.NoError(t, err)
	assert.Equal(t, `public Foo(string Bar, int N)
    {
        this.Bar = Bar;
        this.N = N;
    }`, ctor)

	with, err := RenderWith(syn.With, style)
	require.NoError(t, err)
	assert.Equal(t, `public Foo With(string Bar = null, int? N = null)
    {
        return new Foo(Bar ?? this.Bar, N ?? this.N);
    }`, with)
}

func TestRenderStyle(t *testing.T) {
	syn, ok := Synthesize(modelOf(t, "class Box<T> { public readonly T Value; }"))
	require.True(t, ok)

	with, err := RenderWith(syn.With, Style{Indent: "\t", Unit: "\t", NewLine: "\r\n"})
	require.NoError(t, err)
	assert.Equal(t, "public Box<T> With(T Value = null)\r\n\t{\r\n\t\treturn new Box<T>(Value ?? this.Value);\r\n\t}", with)
}

func TestRenderEmptyConstructor(t *testing.T) {
	ctor, err := RenderConstructor(BuildConstructor("Foo", nil), Style{})
	require.NoError(t, err)
	assert.Equal(t, "public Foo()\n{\n}", ctor)
}

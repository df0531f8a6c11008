package csharp

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/recordgen/internal/source"
)

func lex(t *testing.T, src string) []Token {
	t.Helper()
	f := source.NewFileSet().Add("a.cs", []byte(src))
	toks, err := Tokenize(f)
	require.NoError(t, err)
	return toks
}

func texts(toks []Token) []string {
	return lo.FilterMap(toks, func(t Token, _ int) (string, bool) {
		return t.Text, t.Kind != EOF
	})
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "nested generics keep > separate",
			src:  "List<List<int>> x;",
			want: []string{"List", "<", "List", "<", "int", ">", ">", "x", ";"},
		},
		{
			name: "verbatim string",
			src:  `s = @"a""b";`,
			want: []string{"s", "=", `@"a""b"`, ";"},
		},
		{
			name: "interpolated string with nested string",
			src:  `s = $"x{a + "}"}z";`,
			want: []string{"s", "=", `$"x{a + "}"}z"`, ";"},
		},
		{
			name: "raw string",
			src:  `s = """a"b""";`,
			want: []string{"s", "=", `"""a"b"""`, ";"},
		},
		{
			name: "operators",
			src:  "a ??= b => c?.d",
			want: []string{"a", "??=", "b", "=>", "c", "?.", "d"},
		},
		{
			name: "verbatim identifier and char",
			src:  `@class = '\'';`,
			want: []string{"@class", "=", `'\''`, ";"},
		},
		{
			name: "numbers",
			src:  "x = 1.5e-3 + 0xFF;",
			want: []string{"x", "=", "1.5e-3", "+", "0xFF", ";"},
		},
		{
			name: "preprocessor lines skipped",
			src:  "#region Fields\nint a;\n#endregion",
			want: []string{"int", "a", ";"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(lex(t, tt.src)))
		})
	}
}

func TestTokenizeComments(t *testing.T) {
	toks := lex(t, "// @Record\n/* note */\nclass Foo {}")
	require.Equal(t, "class", toks[0].Text)
	assert.Equal(t, []string{"// @Record", "/* note */"}, toks[0].Comments)
	assert.Empty(t, toks[1].Comments)
}

func TestTokenizeBOM(t *testing.T) {
	toks := lex(t, "\xEF\xBB\xBFclass")
	assert.Equal(t, "class", toks[0].Text)
	assert.Equal(t, uint32(3), toks[0].Span.Start)
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{`s = "abc`, "/* open", `c = 'a`, `s = $"{x"`} {
		f := source.NewFileSet().Add("bad.cs", []byte(src))
		_, err := Tokenize(f)
		require.Error(t, err, src)
		assert.True(t, errors.Is(err, ErrUnexpectedEOF), src)
		assert.Contains(t, err.Error(), "bad.cs:1:")
	}
}

package recordgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/recordgen/internal/csharp"
	"github.com/donutnomad/recordgen/internal/diag"
	"github.com/donutnomad/recordgen/internal/source"
)

// applyAll 对文件中所有合格的类生成修复并应用
func applyAll(t *testing.T, src string, opts Options) string {
	t.Helper()
	f, err := csharp.ParseSource(source.NewFileSet(), "Foo.cs", []byte(src))
	require.NoError(t, err)

	var edits []diag.TextEdit
	for _, cls := range f.Classes {
		plan, ok, err := BuildPlan(f.Source, cls, opts)
		require.NoError(t, err)
		if ok {
			edits = append(edits, plan.Fix.Edits...)
		}
	}
	out, err := diag.ApplyEdits(f.Source.Content, edits)
	require.NoError(t, err)
	return string(out)
}

// assertFix 检查修复结果，并确认对结果再次运行不再产生编辑
func assertFix(t *testing.T, before, after string) {
	t.Helper()
	got := applyAll(t, before, Options{})
	assert.Equal(t, after, got)
	assert.Equal(t, got, applyAll(t, got, Options{}), "再次运行应没有修改")
}

func TestFixSingleProperty(t *testing.T) {
	assertFix(t, `
public class Foo
{
    public string Bar { get; }
}
`, `
public class Foo
{
    public string Bar { get; }

    public Foo(string Bar)
    {
        this.Bar = Bar;
    }

    public Foo With(string Bar = null)
    {
        return new Foo(Bar ?? this.Bar);
    }
}
`)
}

func TestFixNonNullableTypes(t *testing.T) {
	assertFix(t, `
public class Foo
{
    public string Bar { get; }
    public DateTime Something { get; }
    public int N { get; }
}
`, `
public class Foo
{
    public string Bar { get; }
    public DateTime Something { get; }
    public int N { get; }

    public Foo(string Bar, DateTime Something, int N)
    {
        this.Bar = Bar;
        this.Something = Something;
        this.N = N;
    }

    public Foo With(string Bar = null, DateTime? Something = null, int? N = null)
    {
        return new Foo(Bar ?? this.Bar, Something ?? this.Something, N ?? this.N);
    }
}
`)
}

func TestFixKeepsPreviousNullableWrap(t *testing.T) {
	assertFix(t, `
public class Foo
{
    public string Bar { get; }
    public SomeStruct Something { get; }
    public int N { get; }

    public Foo(string Bar, SomeStruct Something)
    {
        this.Bar = Bar;
        this.Something = Something;
    }

    public Foo With(string Bar = null, SomeStruct? Something = null)
    {
        return new Foo(Bar ?? this.Bar, Something ?? this.Something);
    }
}
`, `
public class Foo
{
    public string Bar { get; }
    public SomeStruct Something { get; }
    public int N { get; }

    public Foo(string Bar, SomeStruct Something, int N)
    {
        this.Bar = Bar;
        this.Something = Something;
        this.N = N;
    }

    public Foo With(string Bar = null, SomeStruct? Something = null, int? N = null)
    {
        return new Foo(Bar ?? this.Bar, Something ?? this.Something, N ?? this.N);
    }
}
`)
}

func TestFixInsertsNewMembersPositionally(t *testing.T) {
	assertFix(t, `
public class Foo
{
    public string Bar { get; }
    public DateTime Something { get; }
    public SomeStruct Something2 { get; }
    public int N { get; }

    public Foo(string Bar, SomeStruct Something2)
    {
        this.Bar = Bar;
        this.Something2 = Something2;
    }

    public Foo With(string Bar = null, SomeStruct? Something2 = null)
    {
        return new Foo(Bar ?? this.Bar, Something2 ?? this.Something2);
    }
}
`, `
public class Foo
{
    public string Bar { get; }
    public DateTime Something { get; }
    public SomeStruct Something2 { get; }
    public int N { get; }

    public Foo(string Bar, DateTime Something, SomeStruct Something2, int N)
    {
        this.Bar = Bar;
        this.Something = Something;
        this.Something2 = Something2;
        this.N = N;
    }

    public Foo With(string Bar = null, DateTime? Something = null, SomeStruct? Something2 = null, int? N = null)
    {
        return new Foo(Bar ?? this.Bar, Something ?? this.Something, Something2 ?? this.Something2, N ?? this.N);
    }
}
`)
}

func TestFixLeavesStaticMembersUntouched(t *testing.T) {
	assertFix(t, `
public class Foo
{
    public string Bar { get; }
    public SomeStruct Something { get; }
    public int N { get; }
    public static Foo Empty = new Foo("", SomeStruct.Empty);
    public static int Test { get { return 10; } }
    public static MakeEmpty()
    {
        return new Foo("", SomeStruct.Empty);
    }

    public Foo(string Bar, SomeStruct Something)
    {
        this.Bar = Bar;
        this.Something = Something;
    }

    public Foo With(string Bar = null, SomeStruct? Something = null)
    {
        return new Foo(Bar ?? this.Bar, Something ?? this.Something);
    }
}
`, `
public class Foo
{
    public string Bar { get; }
    public SomeStruct Something { get; }
    public int N { get; }
    public static Foo Empty = new Foo("", SomeStruct.Empty);
    public static int Test { get { return 10; } }
    public static MakeEmpty()
    {
        return new Foo("", SomeStruct.Empty);
    }

    public Foo(string Bar, SomeStruct Something, int N)
    {
        this.Bar = Bar;
        this.Something = Something;
        this.N = N;
    }

    public Foo With(string Bar = null, SomeStruct? Something = null, int? N = null)
    {
        return new Foo(Bar ?? this.Bar, Something ?? this.Something, N ?? this.N);
    }
}
`)
}

func TestFixComputedProperty(t *testing.T) {
	assertFix(t, `class Foo
{
    public int Double => 2 * A;
    public readonly int A;
}
`, `class Foo
{
    public int Double => 2 * A;
    public readonly int A;

    public Foo(int A)
    {
        this.A = A;
    }

    public Foo With(int? A = null)
    {
        return new Foo(A ?? this.A);
    }
}
`)
}

func TestFixTabsAndNamespace(t *testing.T) {
	assertFix(t,
		"namespace Demo\n{\n\tpublic class Foo\n\t{\n\t\tpublic readonly int A;\n\t}\n}\n",
		"namespace Demo\n{\n\tpublic class Foo\n\t{\n\t\tpublic readonly int A;\n\n"+
			"\t\tpublic Foo(int A)\n\t\t{\n\t\t\tthis.A = A;\n\t\t}\n\n"+
			"\t\tpublic Foo With(int? A = null)\n\t\t{\n\t\t\treturn new Foo(A ?? this.A);\n\t\t}\n\t}\n}\n")
}

func TestFixCRLF(t *testing.T) {
	assertFix(t,
		"class Foo\r\n{\r\n    public readonly int A;\r\n}\r\n",
		"class Foo\r\n{\r\n    public readonly int A;\r\n\r\n"+
			"    public Foo(int A)\r\n    {\r\n        this.A = A;\r\n    }\r\n\r\n"+
			"    public Foo With(int? A = null)\r\n    {\r\n        return new Foo(A ?? this.A);\r\n    }\r\n}\r\n")
}

func TestFixNestedClasses(t *testing.T) {
	assertFix(t, `public class Outer
{
    public readonly int A;

    public class Inner
    {
        public readonly string B;
    }
}
`, `public class Outer
{
    public readonly int A;

    public class Inner
    {
        public readonly string B;

        public Inner(string B)
        {
            this.B = B;
        }

        public Inner With(string B = null)
        {
            return new Inner(B ?? this.B);
        }
    }

    public Outer(int A)
    {
        this.A = A;
    }

    public Outer With(int? A = null)
    {
        return new Outer(A ?? this.A);
    }
}
`)
}

func TestFixGenericClass(t *testing.T) {
	assertFix(t, `public class Box<T> where T : struct
{
    public readonly T Value;
}
`, `public class Box<T> where T : struct
{
    public readonly T Value;

    public Box(T Value)
    {
        this.Value = Value;
    }

    public Box<T> With(T Value = null)
    {
        return new Box<T>(Value ?? this.Value);
    }
}
`)
}

func TestFixKeepsAttributesAndComments(t *testing.T) {
	src := `class Foo
{
    public readonly int A;

    // 手写注释
    [Obsolete]
    public Foo(int A, int B)
    {
    }
}
`
	want := `class Foo
{
    public readonly int A;

    // 手写注释
    [Obsolete]
    public Foo(int A)
    {
        this.A = A;
    }

    public Foo With(int? A = null)
    {
        return new Foo(A ?? this.A);
    }
}
`
	assertFix(t, src, want)
}

func TestFixOneLineClassIsIdempotent(t *testing.T) {
	once := applyAll(t, "class Foo { public string Bar {get;} }", Options{})
	assert.Contains(t, once, "public Foo(string Bar)")
	assert.Contains(t, once, "return new Foo(Bar ?? this.Bar);")
	assert.Equal(t, once, applyAll(t, once, Options{}))
}

func TestFixIndentOption(t *testing.T) {
	got := applyAll(t, "class Foo\n{\n  public readonly int A;\n}\n", Options{Indent: "\t"})
	assert.Contains(t, got, "\n  public Foo(int A)\n  {\n  \tthis.A = A;\n  }")
}

func TestBuildPlan(t *testing.T) {
	src, cls := parseClass(t, "class Foo { public static int X; }")
	plan, ok, err := BuildPlan(src, cls, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, NotApplicable, plan.Eligibility.Reason)

	src, cls = parseClass(t, "class Foo { public string Bar { get; set; } }")
	plan, ok, err = BuildPlan(src, cls, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Setter, plan.Eligibility.Reason)

	src, cls = parseClass(t, "class Foo\n{\n    public string Bar { get; }\n}\n")
	plan, ok, err = BuildPlan(src, cls, Options{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, plan.UpToDate())

	d := plan.Diagnostic()
	assert.Equal(t, diag.SevInfo, d.Severity)
	assert.Equal(t, diag.CodeRecordUpdate, d.Code)
	assert.Equal(t, DiagnosticMessage, d.Message)
	assert.Equal(t, "Foo", src.Text(d.Primary))
	assert.True(t, d.HasEdits())
	assert.Equal(t, FixTitle, d.Fixes[0].Title)
}

func TestBuildPlanUpToDate(t *testing.T) {
	fixed := applyAll(t, "class Foo\n{\n    public string Bar { get; }\n}\n", Options{})
	src, cls := parseClass(t, fixed)
	plan, ok, err := BuildPlan(src, cls, Options{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, plan.UpToDate())
	assert.False(t, plan.Diagnostic().HasEdits())
}

func TestFixLeavesStaticConstructorUntouched(t *testing.T) {
	assertFix(t, `class Foo
{
    public static readonly Foo Empty;

    static Foo()
    {
        Empty = new Foo("");
    }

    public string Bar { get; }
}
`, `class Foo
{
    public static readonly Foo Empty;

    static Foo()
    {
        Empty = new Foo("");
    }

    public string Bar { get; }

    public Foo(string Bar)
    {
        this.Bar = Bar;
    }

    public Foo With(string Bar = null)
    {
        return new Foo(Bar ?? this.Bar);
    }
}
`)
}

func TestFixStaticConstructorBeforeInstanceConstructor(t *testing.T) {
	assertFix(t, `class Foo
{
    public readonly int A;
    public readonly int B;

    static Foo() { }

    public Foo(int A)
    {
        this.A = A;
    }

    public static Foo With(Foo other) { return other; }
}
`, `class Foo
{
    public readonly int A;
    public readonly int B;

    static Foo() { }

    public Foo(int A, int B)
    {
        this.A = A;
        this.B = B;
    }

    public static Foo With(Foo other) { return other; }

    public Foo With(int? A = null, int? B = null)
    {
        return new Foo(A ?? this.A, B ?? this.B);
    }
}
`)
}

func TestFixReplacesOnlyFirstConstructor(t *testing.T) {
	assertFix(t, `class Foo
{
    public readonly int A;
    public readonly int B;

    public Foo(int A)
    {
        this.A = A;
    }

    public Foo(string s)
        : this(int.Parse(s), 0)
    {
    }
}
`, `class Foo
{
    public readonly int A;
    public readonly int B;

    public Foo(int A, int B)
    {
        this.A = A;
        this.B = B;
    }

    public Foo(string s)
        : this(int.Parse(s), 0)
    {
    }

    public Foo With(int? A = null, int? B = null)
    {
        return new Foo(A ?? this.A, B ?? this.B);
    }
}
`)
}

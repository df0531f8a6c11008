package plugin

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/donutnomad/recordgen/internal/diag"
)

func TestParseAnnotations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{
			name:     "simple annotation",
			input:    "// @Record",
			expected: 1,
		},
		{
			name:     "annotation with params",
			input:    "// @Record(skip=`true`)",
			expected: 1,
		},
		{
			name:     "multiple annotations",
			input:    "// @Record @Other",
			expected: 2,
		},
		{
			name:     "multiline annotations",
			input:    "// @Record\n// @Other(to=`Dto`)",
			expected: 2,
		},
		{
			name:     "xml doc comment",
			input:    "/// @Record",
			expected: 1,
		},
		{
			name:     "block comment",
			input:    "/*\n * @Record\n */",
			expected: 1,
		},
		{
			name:     "email is not an annotation",
			input:    "// contact: dev@example.com",
			expected: 0,
		},
		{
			name:     "no annotation",
			input:    "// This is a comment",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotations := ParseAnnotations(tt.input)
			if len(annotations) != tt.expected {
				t.Errorf("expected %d annotations, got %d", tt.expected, len(annotations))
			}
		})
	}
}

func TestAnnotationParams(t *testing.T) {
	annotations := ParseAnnotationsFromComments([]string{
		"/// <summary>Person</summary>",
		"// @Record(skip=`true`, indent=\"  \", mode=full)",
	})

	if len(annotations) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(annotations))
	}

	ann := annotations[0]
	if ann.Name != "Record" {
		t.Errorf("expected name 'Record', got '%s'", ann.Name)
	}
	if ann.GetParam("skip") != "true" {
		t.Errorf("expected skip 'true', got '%s'", ann.GetParam("skip"))
	}
	if ann.GetParam("indent") != "  " {
		t.Errorf("expected indent '  ', got '%s'", ann.GetParam("indent"))
	}
	if ann.GetParam("MODE") != "full" {
		t.Errorf("expected mode 'full', got '%s'", ann.GetParam("mode"))
	}
	if ann.GetParam("missing") != "" {
		t.Error("expected empty value for missing param")
	}
}

func TestAnnotationParamsWithoutQuotes(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		expectedParams map[string]string
	}{
		{
			name:  "普通格式多参数（逗号分隔）",
			input: "// @Record(skip=true, mode=full)",
			expectedParams: map[string]string{
				"skip": "true",
				"mode": "full",
			},
		},
		{
			name:  "普通格式无空格",
			input: "// @Record(skip=true,mode=full)",
			expectedParams: map[string]string{
				"skip": "true",
				"mode": "full",
			},
		},
		{
			name:  "混合格式（反引号和普通）",
			input: "// @Record(skip=`true`, mode=full)",
			expectedParams: map[string]string{
				"skip": "true",
				"mode": "full",
			},
		},
		{
			name:  "布尔值1",
			input: "// @Record(enabled=1, disabled=0)",
			expectedParams: map[string]string{
				"enabled":  "1",
				"disabled": "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotations := ParseAnnotations(tt.input)
			if len(annotations) != 1 {
				t.Fatalf("expected 1 annotation, got %d", len(annotations))
			}

			ann := annotations[0]
			for key, expected := range tt.expectedParams {
				actual := ann.GetParam(key)
				if actual != expected {
					t.Errorf("param %s: expected '%s', got '%s'", key, expected, actual)
				}
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	gen1 := &testGenerator{
		BaseGenerator: *NewBaseGenerator("gen1", []string{"Record"}, []TargetKind{TargetClass}),
	}
	gen2 := &testGenerator{
		BaseGenerator: *NewBaseGenerator("gen2", []string{"Other"}, []TargetKind{TargetClass}),
	}
	gen2.SetPriority(10)

	if err := registry.Register(gen1); err != nil {
		t.Fatalf("failed to register gen1: %v", err)
	}
	if err := registry.Register(gen2); err != nil {
		t.Fatalf("failed to register gen2: %v", err)
	}

	if anns := registry.Annotations(); len(anns) != 2 {
		t.Errorf("unexpected annotations: %v", anns)
	}

	// 测试重复注册
	gen3 := &testGenerator{
		BaseGenerator: *NewBaseGenerator("gen3", []string{"Record"}, []TargetKind{TargetClass}),
	}
	if err := registry.Register(gen3); err == nil {
		t.Error("should fail when registering duplicate annotation")
	}

	if gen, ok := registry.GetByName("gen1"); !ok || gen.Name() != "gen1" {
		t.Error("should get gen1 by name")
	}
	if _, ok := registry.GetByName("gen3"); ok {
		t.Error("gen3 should not be registered")
	}

	// 按优先级排序
	gens := registry.Generators()
	if len(gens) != 2 || gens[0].Name() != "gen2" || gens[1].Name() != "gen1" {
		t.Errorf("unexpected generator order: %v", gens)
	}
}

func TestDispatchTargets(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&editGenerator{
		BaseGenerator: *NewBaseGenerator("record", []string{"Record", "Immutable"}, []TargetKind{TargetClass}),
		implicit:      true,
	})
	registry.MustRegister(&testGenerator{
		BaseGenerator: *NewBaseGenerator("other", []string{"Other"}, []TargetKind{TargetClass}),
	})

	newTarget := func(name string, anns ...string) *AnnotatedTarget {
		var list []*Annotation
		for _, a := range anns {
			list = append(list, &Annotation{Name: a})
		}
		return &AnnotatedTarget{Target: &Target{Kind: TargetClass, Name: name}, Annotations: list}
	}
	result := &ScanResult{Classes: []*AnnotatedTarget{
		newTarget("Plain"),
		newTarget("Both", "Record", "Immutable"),
		newTarget("OnlyOther", "Other"),
		newTarget("Unknown", "Json"),
	}}

	names := func(targets []*AnnotatedTarget) string {
		var out []string
		for _, t := range targets {
			out = append(out, t.Target.Name)
		}
		return strings.Join(out, ",")
	}

	dispatch := registry.DispatchTargets(result, false)
	if got := names(dispatch["record"]); got != "Plain,Both,Unknown" {
		t.Errorf("record targets = %s", got)
	}
	if got := names(dispatch["other"]); got != "OnlyOther" {
		t.Errorf("other targets = %s", got)
	}

	dispatch = registry.DispatchTargets(result, true)
	if got := names(dispatch["record"]); got != "Both" {
		t.Errorf("record targets with requireAnnotation = %s", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

const modelsSource = `namespace Demo;

// @Record(skip=true)
public class User
{
    public string Name { get; }

    public class Address
    {
        public string City { get; }
    }
}

/// @Other
public class Order
{
    public int Id { get; }
}
`

func TestScanner(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "Models.cs"), modelsSource)
	writeFile(t, filepath.Join(tmpDir, "bin", "Debug", "Copy.cs"), "public class Copy {}\n")
	writeFile(t, filepath.Join(tmpDir, ".git", "Hidden.cs"), "public class Hidden {}\n")
	writeFile(t, filepath.Join(tmpDir, "Gen", "View.g.cs"), "public class View {}\n")
	writeFile(t, filepath.Join(tmpDir, "notes.txt"), "// @Record\n")

	scanner := NewScanner(WithExclude("**/*.g.cs"))
	result, err := scanner.Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(result.Files))
	}
	if len(result.Classes) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(result.Classes))
	}

	user := result.Classes[0]
	if user.Target.FullName != "Demo.User" || user.Target.Kind != TargetClass {
		t.Errorf("unexpected first target: %+v", user.Target)
	}
	if len(user.Annotations) != 1 || user.Annotations[0].Name != "Record" {
		t.Errorf("expected Record annotation, got %+v", user.Annotations)
	} else if user.Annotations[0].GetParam("skip") != "true" {
		t.Errorf("expected skip 'true', got '%s'", user.Annotations[0].GetParam("skip"))
	}

	if got := result.Classes[1].Target.FullName; got != "Demo.User.Address" {
		t.Errorf("expected nested class, got %s", got)
	}
	if len(result.Classes[1].Annotations) != 0 {
		t.Error("nested class should not inherit annotations")
	}
	if anns := result.Classes[2].Annotations; len(anns) != 1 || anns[0].Name != "Other" {
		t.Errorf("expected Other annotation on Order, got %+v", anns)
	}
}

func TestScannerRequireAnnotation(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "Models.cs"), modelsSource)
	writeFile(t, filepath.Join(tmpDir, "Plain.cs"), "public class Plain { public int X { get; } }\n")

	scanner := NewScanner(WithRequireAnnotation(true), WithAnnotationFilter("Record"))
	result, err := scanner.Scan(context.Background(), tmpDir+"/...")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected only the annotated file, got %d", len(result.Files))
	}
	// Order 的 @Other 被过滤掉
	for _, target := range result.Classes {
		for _, ann := range target.Annotations {
			if ann.Name == "Other" {
				t.Errorf("Other annotation should be filtered out: %s", target.Target.FullName)
			}
		}
	}

	ok, err := scanner.QuickMatchFile(filepath.Join(tmpDir, "Plain.cs"))
	if err != nil || ok {
		t.Errorf("QuickMatchFile(Plain.cs) = %v, %v", ok, err)
	}
}

func TestScannerParseErrors(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "Bad.cs"), "class A { public int X;")
	writeFile(t, filepath.Join(tmpDir, "Good.cs"), "class B { }\n")

	result, err := NewScanner(WithWorkers(1)).Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(result.Errors))
	}
	if !strings.Contains(result.Errors[0].Error(), "Bad.cs") {
		t.Errorf("error should mention file: %v", result.Errors[0])
	}
	if len(result.Classes) != 1 || result.Classes[0].Target.Name != "B" {
		t.Errorf("expected class B to be scanned")
	}
}

// testGenerator 测试用生成器
type testGenerator struct {
	BaseGenerator
}

func (g *testGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	return NewGenerateResult(), nil
}

type seenParams struct {
	Skip bool `param:"name=skip,required=false,default=false,description=跳过"`
}

// editGenerator 在每个类声明前插入一行注释
type editGenerator struct {
	BaseGenerator
	implicit bool
}

func (g *editGenerator) Implicit() bool { return g.implicit }

func (g *editGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	result := NewGenerateResult()
	for _, target := range ctx.Targets {
		if p, ok := target.ParsedParams.(seenParams); ok && p.Skip {
			result.Skipped++
			continue
		}
		span := target.Target.Span
		result.AddEdits(target.Target.FilePath, diag.InsertText(span, "// seen "+target.Target.Name+"\n"))
		result.AddDiagnostic(diag.Diagnostic{Code: diag.CodeRecordUpdate, Primary: target.Target.Class.NameSpan, Subject: target.Target.Name})
	}
	return result, nil
}

func newEditRegistry() *Registry {
	registry := NewRegistry()
	registry.MustRegister(&editGenerator{
		BaseGenerator: *NewBaseGeneratorWithParamsStruct("seen", []string{"Record"}, []TargetKind{TargetClass}, seenParams{}),
		implicit:      true,
	})
	return registry
}

const runSource = `// @Record(skip=true)
public class Skipped { }

public class Plain { }
`

func TestRunAppliesEdits(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Models.cs")
	writeFile(t, path, runSource)

	stats, err := RunWithOptionsAndStats(context.Background(), &RunOptions{
		Registry: newEditRegistry(),
		Patterns: []string{tmpDir},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	want := "// @Record(skip=true)\npublic class Skipped { }\n\n// seen Plain\npublic class Plain { }\n"
	if string(content) != want {
		t.Errorf("unexpected content:\n%s", content)
	}
	if stats.FileCount != 1 || stats.Skipped != 1 || stats.TargetCount != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(stats.Diagnostics) != 1 || stats.Diagnostics[0].Subject != "Plain" {
		t.Errorf("unexpected diagnostics: %+v", stats.Diagnostics)
	}
}

func TestRunDryRunWithDiff(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Models.cs")
	writeFile(t, path, runSource)

	var out bytes.Buffer
	stats, err := RunWithOptionsAndStats(context.Background(), &RunOptions{
		Registry: newEditRegistry(),
		Patterns: []string{path},
		DryRun:   true,
		Diff:     true,
		Out:      &out,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != runSource {
		t.Error("dry run should not modify the file")
	}
	if stats.FileCount != 1 || len(stats.ChangedFiles) != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !strings.Contains(out.String(), "+// seen Plain") {
		t.Errorf("expected diff output, got:\n%s", out.String())
	}
}

func TestRunWithoutGenerators(t *testing.T) {
	_, err := RunWithOptionsAndStats(context.Background(), &RunOptions{
		Registry: NewRegistry(),
		Patterns: []string{t.TempDir()},
	})
	if err == nil {
		t.Error("expected error without registered generators")
	}
}

// brokenGenerator 总是返回错误
type brokenGenerator struct {
	BaseGenerator
}

func (g *brokenGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	return nil, errors.New("boom")
}

func TestRunKeepsResultsOfHealthyGenerators(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Models.cs")
	writeFile(t, path, "// @Broken\npublic class Bad { }\n\npublic class Plain { }\n")

	registry := newEditRegistry()
	registry.MustRegister(&brokenGenerator{
		BaseGenerator: *NewBaseGenerator("broken", []string{"Broken"}, []TargetKind{TargetClass}),
	})

	stats, err := RunWithOptionsAndStats(context.Background(), &RunOptions{
		Registry: registry,
		Patterns: []string{tmpDir},
	})
	if err == nil {
		t.Fatal("expected error from broken generator")
	}

	// broken 失败不影响 seen 的编辑
	content, _ := os.ReadFile(path)
	want := "// @Broken\npublic class Bad { }\n\n// seen Plain\npublic class Plain { }\n"
	if string(content) != want {
		t.Errorf("unexpected content:\n%s", content)
	}
	if stats == nil || stats.FileCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

package plugin

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/donutnomad/recordgen/internal/csharp"
	"github.com/donutnomad/recordgen/internal/logger"
	"github.com/donutnomad/recordgen/internal/source"
)

// Scanner 两阶段并行扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件（仅 requireAnnotation 时启用）
// 第二阶段：对文件进行词法与声明解析
type Scanner struct {
	workers int
	verbose bool

	// 注解过滤器（可选）
	annotationFilter []string

	include           []string
	exclude           []string
	requireAnnotation bool

	fset *source.FileSet
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

// WithInclude 目录遍历时只收集匹配的文件，glob 相对于扫描根目录
func WithInclude(patterns ...string) ScannerOption {
	return func(s *Scanner) {
		if len(patterns) > 0 {
			s.include = patterns
		}
	}
}

// WithExclude 目录遍历时跳过匹配的文件
func WithExclude(patterns ...string) ScannerOption {
	return func(s *Scanner) {
		s.exclude = patterns
	}
}

// WithRequireAnnotation 只解析包含注解的文件
func WithRequireAnnotation(v bool) ScannerOption {
	return func(s *Scanner) {
		s.requireAnnotation = v
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
		include: []string{"**/*.cs"},
		fset:    source.NewFileSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quickMatchRegex 快速匹配注解的正则
// 匹配 @Name 或 @Name(...) 模式
var quickMatchRegex = regexp.MustCompile(`(?:^|\s)@(\w+)(?:\([^)]*\))?`)

// Scan 扫描指定路径
// 支持: . ./src ./src/... Foo.cs /abs/path
// 目录总是递归扫描，末尾的 /... 可省略
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	log := logger.FromContext(ctx)

	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}
	log.Debug("收集文件", "count", len(allFiles))

	if len(allFiles) == 0 {
		return &ScanResult{FileSet: s.fset}, nil
	}

	// ========== 第一阶段：快速匹配 ==========
	files := allFiles
	if s.requireAnnotation {
		files, err = s.quickMatch(ctx, allFiles)
		if err != nil {
			return nil, err
		}
		log.Debug("快速匹配", "matched", len(files), "total", len(allFiles))
		if len(files) == 0 {
			return &ScanResult{FileSet: s.fset}, nil
		}
	}

	// ========== 第二阶段：解析 ==========
	return s.parseFiles(ctx, files)
}

// quickMatch 第一阶段：快速文本匹配
// 并行读取文件，检查是否包含 @xxx 模式，结果保持输入顺序
func (s *Scanner) quickMatch(ctx context.Context, files []string) ([]string, error) {
	matched := make([]bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := s.QuickMatchFile(file)
			if err != nil {
				return fmt.Errorf("读取文件 %s 失败: %w", file, err)
			}
			matched[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []string
	for i, file := range files {
		if matched[i] {
			result = append(result, file)
		}
	}
	return result, nil
}

// QuickMatchFile 快速检查文件的注释中是否包含注解
// 用于 dev 模式判断文件是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		// 只检查注释行
		trimmed := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "/*") && !strings.HasPrefix(trimmed, "*") {
			continue
		}

		for _, match := range quickMatchRegex.FindAllStringSubmatch(trimmed, -1) {
			if len(s.annotationFilter) == 0 || slices.Contains(s.annotationFilter, match[1]) {
				return true, nil
			}
		}
	}

	return false, scanner.Err()
}

// parseFiles 第二阶段：解析文件
// 单个文件失败记录到 ScanResult.Errors，不影响其他文件
func (s *Scanner) parseFiles(ctx context.Context, files []string) (*ScanResult, error) {
	type parseResult struct {
		file *csharp.File
		err  error
	}
	results := make([]parseResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := s.fset.Load(path)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].file, results[i].err = csharp.ParseFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	result := &ScanResult{FileSet: s.fset}
	for _, r := range results {
		if r.err != nil {
			log.Warn("跳过无法解析的文件", "error", r.err)
			result.Errors = append(result.Errors, r.err)
			continue
		}
		result.Files = append(result.Files, r.file)
		result.Classes = append(result.Classes, s.classTargets(r.file)...)
	}
	if s.verbose {
		log.Debug("解析完成", "files", len(result.Files), "classes", len(result.Classes), "errors", len(result.Errors))
	}
	return result, nil
}

// classTargets 将文件中的类转换为目标，注解来自类声明前的注释
func (s *Scanner) classTargets(f *csharp.File) []*AnnotatedTarget {
	targets := make([]*AnnotatedTarget, 0, len(f.Classes))
	for _, cls := range f.Classes {
		annotations := ParseAnnotationsFromComments(cls.Comments)
		if len(s.annotationFilter) > 0 {
			annotations = FilterByNames(annotations, s.annotationFilter...)
		}
		targets = append(targets, &AnnotatedTarget{
			Target: &Target{
				Kind:      TargetClass,
				Name:      cls.Name,
				FullName:  cls.FullName(),
				Namespace: cls.Namespace,
				FilePath:  f.Source.Path,
				Span:      cls.Span,
				File:      f,
				Class:     cls,
			},
			Annotations: annotations,
		})
	}
	return targets
}

// skipDirs 遍历时总是跳过的目录
var skipDirs = []string{"bin", "obj", "node_modules", "packages"}

// IsSkippedDir 隐藏目录与构建输出目录不扫描也不监听
func IsSkippedDir(name string) bool {
	return strings.HasPrefix(name, ".") || slices.Contains(skipDirs, name)
}

// collectFiles 收集所有需要扫描的文件
// 直接指定的 .cs 文件不受 include / exclude 限制
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(pattern, "/...")
		if pattern == "" {
			pattern = "."
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(absPath), ".cs") {
				add(absPath)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != absPath && IsSkippedDir(name) {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(absPath, path)
			if err != nil {
				return err
			}
			if s.matches(filepath.ToSlash(rel)) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// matches 判断相对路径是否被 include 选中且未被 exclude 排除
func (s *Scanner) matches(rel string) bool {
	if !strings.EqualFold(filepath.Ext(rel), ".cs") {
		return false
	}
	if !slices.ContainsFunc(s.include, func(p string) bool { return globMatch(p, rel) }) {
		return false
	}
	return !slices.ContainsFunc(s.exclude, func(p string) bool { return globMatch(p, rel) })
}

// globMatch 非法的 pattern 视为不匹配，配置加载时已校验
func globMatch(pattern, rel string) bool {
	ok, _ := doublestar.Match(pattern, rel)
	return ok
}

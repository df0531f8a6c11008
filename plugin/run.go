package plugin

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/donutnomad/recordgen/internal/diag"
	"github.com/donutnomad/recordgen/internal/logger"
	"github.com/donutnomad/recordgen/internal/source"
	"github.com/donutnomad/recordgen/internal/utils"
)

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Verbose  bool

	DryRun bool      // 只计算编辑，不写文件
	Diff   bool      // 输出 unified diff
	Out    io.Writer // diff 输出位置，默认 os.Stdout

	Workers           int      // 并发数，0 表示 CPU 数
	Include           []string // 目录遍历的 glob
	Exclude           []string
	RequireAnnotation bool   // 只处理带注解的类
	Indent            string // 一级缩进，为空时从源码推断
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration // 扫描耗时
	GenerateDuration time.Duration // 生成耗时
	TotalDuration    time.Duration // 总耗时
	TargetCount      int           // 目标数量
	FileCount        int           // 修改（或 DryRun 时将修改）的文件数量
	ParseErrors      int           // 无法解析而被跳过的文件数量
	Skipped          int           // 生成器跳过的目标数量

	// ChangedFiles 按路径排序
	ChangedFiles []string

	// Diagnostics 按文件与位置排序，位置通过 FileSet 解析
	Diagnostics []diag.Diagnostic
	FileSet     *source.FileSet
}

// RunWithOptionsAndStats 运行代码生成并返回统计信息
// 1. 扫描指定路径下的类
// 2. 将目标分发给对应的生成器
// 3. 执行生成器
// 4. 按文件合并编辑并写回源文件
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	log := logger.FromContext(ctx)
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}
	if len(registry.Generators()) == 0 {
		return nil, fmt.Errorf("没有已注册的生成器")
	}

	// 扫描
	scanStart := time.Now()
	scanOpts := []ScannerOption{
		WithScannerVerbose(opts.Verbose),
		WithWorkers(opts.Workers),
		WithInclude(opts.Include...),
		WithExclude(opts.Exclude...),
		WithRequireAnnotation(opts.RequireAnnotation),
	}
	if opts.RequireAnnotation {
		scanOpts = append(scanOpts, WithAnnotationFilter(registry.Annotations()...))
	}
	result, err := NewScanner(scanOpts...).Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)
	stats.FileSet = result.FileSet
	stats.ParseErrors = len(result.Errors)

	if len(result.All()) == 0 {
		log.Debug("没有找到任何类")
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}

	stats.TargetCount = len(result.All())
	log.Debug("扫描完成", "targets", stats.TargetCount, "files", len(result.Files), "duration", stats.ScanDuration)

	generateStart := time.Now()

	// 分发目标
	dispatch := registry.DispatchTargets(result, opts.RequireAnnotation)

	var allErrors []error

	// 按优先级排序生成器名称（优先级数字越小越靠前）
	genNames := maps.Keys(dispatch)
	slices.SortFunc(genNames, func(a, b string) int {
		genA, _ := registry.GetByName(a)
		genB, _ := registry.GetByName(b)
		if c := cmp.Compare(genA.Priority(), genB.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	// 先串行解析所有目标的参数（避免并发修改共享数据）
	for _, genName := range genNames {
		gen, ok := registry.GetByName(genName)
		if !ok {
			continue
		}
		allErrors = append(allErrors, parseTargetParams(gen, dispatch[genName])...)
	}

	// 并发执行生成器，结果按 genNames 的顺序保存，单个生成器失败不影响其他生成器
	genResults := make([]*GenerateResult, len(genNames))
	genErrors := make([]error, len(genNames))
	var wg sync.WaitGroup
	for i, genName := range genNames {
		gen, ok := registry.GetByName(genName)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			targets := dispatch[genName]
			genLog := log.With("generator", genName)
			genLog.Debug("执行生成器", "targets", len(targets))

			start := time.Now()
			genResults[i], genErrors[i] = gen.Generate(&GenerateContext{
				Context: logger.ContextWithLogger(ctx, genLog),
				Targets: targets,
				FileSet: result.FileSet,
				Indent:  opts.Indent,
				Verbose: opts.Verbose,
			})
			genLog.Debug("生成器完成", "duration", time.Since(start))
		}()
	}
	wg.Wait()

	// 按优先级顺序合并结果
	merged := NewGenerateResult()
	for i, genName := range genNames {
		if genErrors[i] != nil {
			allErrors = append(allErrors, fmt.Errorf("生成器 %s 执行失败: %w", genName, genErrors[i]))
			continue
		}
		merged.Merge(genResults[i])
	}
	allErrors = append(allErrors, merged.Errors...)
	stats.Skipped = merged.Skipped
	stats.Diagnostics = sortDiagnostics(result.FileSet, merged.Diagnostics)

	// 应用编辑
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	paths := maps.Keys(merged.Edits)
	slices.Sort(paths)
	for _, path := range paths {
		changed, err := applyFileEdits(result.FileSet, path, merged.Edits[path], opts, out)
		if err != nil {
			allErrors = append(allErrors, err)
			continue
		}
		if !changed {
			continue
		}
		stats.FileCount++
		stats.ChangedFiles = append(stats.ChangedFiles, path)
		if opts.DryRun {
			log.Info("需要更新", "file", path)
		} else {
			log.Info("更新文件", "file", path)
		}
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if len(allErrors) > 0 {
		for _, e := range allErrors {
			log.Error("生成失败", "error", e)
		}
		return stats, fmt.Errorf("生成过程中出现 %d 个错误", len(allErrors))
	}

	return stats, nil
}

// parseTargetParams 解析目标上属于 gen 的注解参数
// 没有注解的隐式目标保留参数零值
func parseTargetParams(gen Generator, targets []*AnnotatedTarget) []error {
	var errs []error
	paramDefs := gen.ParamDefs()
	for _, target := range targets {
		// 创建参数结构体实例
		paramsProto := gen.NewParams()
		if paramsProto == nil {
			continue // 该生成器不需要参数
		}

		// 找到目标上属于当前生成器的注解
		var targetAnn *Annotation
		for _, ann := range target.Annotations {
			if slices.Contains(gen.Annotations(), ann.Name) {
				targetAnn = ann
				break
			}
		}
		if targetAnn == nil {
			targetAnn = &Annotation{Params: map[string]string{}}
		}

		if err := ParseAnnotationParams(targetAnn, paramsProto, paramDefs); err != nil {
			errs = append(errs, fmt.Errorf("%s: 解析 @%s 参数失败: %w", target.Target.FullName, targetAnn.Name, err))
			continue
		}
		// 存储解析后的参数（解引用指针）
		val := reflect.ValueOf(paramsProto)
		if val.Kind() != reflect.Ptr {
			errs = append(errs, fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", paramsProto))
			continue
		}
		target.ParsedParams = val.Elem().Interface()
	}
	return errs
}

// applyFileEdits 将编辑应用到文件，返回内容是否发生变化
func applyFileEdits(fset *source.FileSet, path string, edits []diag.TextEdit, opts *RunOptions, out io.Writer) (bool, error) {
	f, ok := fset.GetByPath(path)
	if !ok {
		return false, fmt.Errorf("文件 %s 未加载", path)
	}
	updated, err := diag.ApplyEdits(f.Content, edits)
	if err != nil {
		return false, fmt.Errorf("应用编辑到 %s 失败: %w", path, err)
	}
	if string(updated) == string(f.Content) {
		return false, nil
	}

	if opts.Diff {
		text, err := utils.UnifiedDiff(path, f.Content, updated)
		if err != nil {
			return false, err
		}
		if _, err := io.WriteString(out, text); err != nil {
			return false, err
		}
	}
	if opts.DryRun {
		return true, nil
	}
	if err := utils.WriteFileAtomic(path, updated); err != nil {
		return false, fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return true, nil
}

// sortDiagnostics 按文件路径与起始位置排序
func sortDiagnostics(fset *source.FileSet, diags []diag.Diagnostic) []diag.Diagnostic {
	path := func(d diag.Diagnostic) string {
		if f := fset.Get(d.Primary.File); f != nil {
			return f.Path
		}
		return ""
	}
	sorted := slices.Clone(diags)
	slices.SortStableFunc(sorted, func(a, b diag.Diagnostic) int {
		if c := cmp.Compare(path(a), path(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Primary.Start, b.Primary.Start)
	})
	return sorted
}

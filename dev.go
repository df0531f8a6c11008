package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/donutnomad/recordgen/internal/csharp"
	"github.com/donutnomad/recordgen/internal/logger"
	"github.com/donutnomad/recordgen/internal/source"
	"github.com/donutnomad/recordgen/plugin"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Run      *plugin.RunOptions // 每次生成使用的选项，Patterns 为监听的路径
	Verbose  bool
	Debounce time.Duration // 防抖动时间
}

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	opts    *DevOptions
	log     logger.Logger
	watcher *fsnotify.Watcher
	scanner *plugin.Scanner
	roots   []string
	ctx     context.Context // 用于响应退出信号

	// 防抖动相关
	mu           sync.Mutex
	pendingFiles map[string]*time.Timer // key: 文件路径
}

// dev 启动开发模式，ctx 取消时退出
func dev(ctx context.Context, opts *DevOptions) error {
	log := logger.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	var scanOpts []plugin.ScannerOption
	if opts.Run.RequireAnnotation {
		scanOpts = append(scanOpts, plugin.WithAnnotationFilter(opts.Run.Registry.Annotations()...))
	}

	roots, dirs, err := collectWatchDirs(opts.Run.Patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}

	runner := &devRunner{
		opts:         opts,
		log:          log,
		watcher:      watcher,
		scanner:      plugin.NewScanner(scanOpts...),
		roots:        roots,
		ctx:          ctx,
		pendingFiles: make(map[string]*time.Timer),
	}

	// 退出时停止所有待处理的定时器
	defer func() {
		runner.mu.Lock()
		for _, timer := range runner.pendingFiles {
			timer.Stop()
		}
		runner.mu.Unlock()
	}()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		log.Debug("监听目录", "dir", dir)
	}

	// 启动时先完整生成一次
	runner.runGenerate(opts.Run.Patterns)

	log.Info("开发模式已启动，按 Ctrl+C 退出", "dirs", len(dirs), "debounce", opts.Debounce)

	return runner.watchLoop(ctx)
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Info("正在退出...")
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("监听错误", "error", err)
		}
	}
}

// handleEvent 处理文件事件
func (r *devRunner) handleEvent(event fsnotify.Event) {
	filePath := event.Name

	// 新建目录需要加入监听
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(filePath); err == nil && info.IsDir() {
			if !plugin.IsSkippedDir(info.Name()) {
				if err := r.watcher.Add(filePath); err == nil {
					r.log.Debug("监听目录", "dir", filePath)
				}
			}
			return
		}
	}

	// 只关注 Write 和 Create 事件
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !r.wanted(filePath) {
		return
	}

	r.log.Debug("检测到文件变化", "file", filePath)

	if r.opts.Run.RequireAnnotation {
		hasAnnotation, err := r.scanner.QuickMatchFile(filePath)
		if err != nil {
			r.log.Debug("检查注解失败", "file", filePath, "error", err)
			return
		}
		if !hasAnnotation {
			r.log.Debug("跳过文件（无注解）", "file", filePath)
			return
		}
	}

	// 检查语法错误，编辑中的文件常常暂时无法解析
	if err := checkSyntax(filePath); err != nil {
		r.log.Warn("语法错误", "file", filePath, "error", err)
		return
	}

	r.scheduleGenerate(filePath)
}

// wanted 判断文件是否在某个根目录的 include 范围内且未被 exclude
func (r *devRunner) wanted(filePath string) bool {
	if !strings.EqualFold(filepath.Ext(filePath), ".cs") {
		return false
	}
	for _, root := range r.roots {
		rel, err := filepath.Rel(root, filePath)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		include := r.opts.Run.Include
		if len(include) == 0 {
			include = []string{"**/*.cs"}
		}
		matched := slices.ContainsFunc(include, func(p string) bool {
			ok, _ := doublestar.Match(p, rel)
			return ok
		})
		excluded := slices.ContainsFunc(r.opts.Run.Exclude, func(p string) bool {
			ok, _ := doublestar.Match(p, rel)
			return ok
		})
		if matched && !excluded {
			return true
		}
	}
	return false
}

// scheduleGenerate 防抖动调度生成
func (r *devRunner) scheduleGenerate(filePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 取消之前的 timer
	if timer, exists := r.pendingFiles[filePath]; exists {
		timer.Stop()
	}

	r.pendingFiles[filePath] = time.AfterFunc(r.opts.Debounce, func() {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		r.runGenerate([]string{filePath})

		r.mu.Lock()
		delete(r.pendingFiles, filePath)
		r.mu.Unlock()
	})
}

// runGenerate 执行实际的代码生成
// 写回文件会再次触发事件，第二次运行没有编辑，不会循环
func (r *devRunner) runGenerate(patterns []string) {
	r.log.Debug("触发代码生成", "paths", patterns)

	opts := *r.opts.Run
	opts.Patterns = patterns

	stats, err := plugin.RunWithOptionsAndStats(r.ctx, &opts)
	if err != nil {
		r.log.Error("生成失败", "error", err)
		return
	}

	if stats.FileCount > 0 {
		r.log.Info("生成完成", "files", stats.FileCount, "duration", stats.TotalDuration)
	} else if r.opts.Verbose {
		r.log.Info("生成完成: 无文件需要更新")
	}
}

// checkSyntax 检查文件能否被解析
func checkSyntax(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	_, err = csharp.ParseSource(source.NewFileSet(), filePath, content)
	return err
}

// collectWatchDirs 收集所有需要监听的目录（递归）
// roots 为各路径的根目录，用于计算 include / exclude 的相对路径
func collectWatchDirs(patterns []string) (roots, dirs []string, err error) {
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		baseDir := strings.TrimSuffix(pattern, "/...")

		absDir, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, nil, err
		}

		info, err := os.Stat(absDir)
		if err != nil {
			return nil, nil, err
		}
		if !info.IsDir() {
			absDir = filepath.Dir(absDir)
		}
		roots = append(roots, absDir)

		err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != absDir && plugin.IsSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			if !seen[path] {
				seen[path] = true
				dirs = append(dirs, path)
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	return roots, dirs, nil
}

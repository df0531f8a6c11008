package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/donutnomad/recordgen/internal/config"
	"github.com/donutnomad/recordgen/internal/diag"
	"github.com/donutnomad/recordgen/internal/logger"
	"github.com/donutnomad/recordgen/plugin"
	"github.com/donutnomad/recordgen/recordgen"
)

func init() {
	// 集中注册所有生成器
	plugin.MustRegister(recordgen.NewRecordGenerator())
}

// Globals 所有命令共享的选项，未指定的值来自配置文件
type Globals struct {
	Config            string  `help:"配置文件路径，默认从扫描路径向上查找 .recordgen.yaml" short:"c" type:"path"`
	Verbose           bool    `help:"详细输出（等同于 --log-level=debug）" short:"v"`
	LogLevel          *string `help:"日志级别: debug, info, warn, error, disabled" name:"log-level"`
	Workers           *int    `help:"并发处理的文件数，0 表示 CPU 数"`
	RequireAnnotation *bool   `help:"只处理带 // @Record 注解的类" name:"require-annotation"`
	Indent            *string `help:"一级缩进，默认从源码推断"`
}

type CLI struct {
	Globals

	Gen     GenCmd     `cmd:"" default:"withargs" help:"为类生成或更新构造函数与 With 方法（默认命令）"`
	Check   CheckCmd   `cmd:"" help:"只报告需要更新的类，不修改文件"`
	Dev     DevCmd     `cmd:"" help:"开发模式，监听文件变动自动更新"`
	Version VersionCmd `cmd:"" help:"显示版本信息"`
}

// session 一次命令执行的上下文：合并后的配置与 logger
type session struct {
	cfg     config.Config
	cfgPath string
	log     logger.Logger
	ctx     context.Context
}

func (g *Globals) setup(ctx context.Context, paths []string, extra config.Overrides) (*session, error) {
	dir := "."
	if len(paths) > 0 {
		dir = strings.TrimSuffix(paths[0], "/...")
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
	}

	base, cfgPath, err := config.Resolve(g.Config, dir)
	if err != nil {
		return nil, err
	}
	overrides := config.Overrides{
		Workers:           mo.PointerToOption(g.Workers),
		LogLevel:          mo.PointerToOption(g.LogLevel),
		RequireAnnotation: mo.PointerToOption(g.RequireAnnotation),
		Indent:            mo.PointerToOption(g.Indent),
		Debounce:          extra.Debounce,
	}
	if g.Verbose && g.LogLevel == nil {
		overrides.LogLevel = mo.Some(string(logger.DebugLevel))
	}
	cfg := base.With(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("命令行参数无效: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.LogLevel)
	log := logger.NewLogger(logCfg)
	if cfgPath != "" {
		log.Debug("使用配置文件", "path", cfgPath)
	}

	return &session{
		cfg:     cfg,
		cfgPath: cfgPath,
		log:     log,
		ctx:     logger.ContextWithLogger(ctx, log),
	}, nil
}

func (s *session) runOptions(paths []string, verbose bool) *plugin.RunOptions {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return &plugin.RunOptions{
		Registry:          plugin.Global(),
		Patterns:          paths,
		Verbose:           verbose,
		Workers:           s.cfg.Workers,
		Include:           s.cfg.Include,
		Exclude:           s.cfg.Exclude,
		RequireAnnotation: s.cfg.RequireAnnotation,
		Indent:            s.cfg.Indent,
	}
}

func (s *session) logGenerators() {
	for _, gen := range plugin.Global().Generators() {
		anns := lo.Map(gen.Annotations(), func(item string, index int) string {
			return "@" + item
		})
		s.log.Debug("已注册生成器", "name", gen.Name(), "annotations", strings.Join(anns, ","))
	}
}

type GenCmd struct {
	Paths  []string `arg:"" optional:"" help:"扫描的文件或目录（递归），默认当前目录" type:"path"`
	DryRun bool     `help:"只计算修改，不写文件" name:"dry-run" short:"n"`
	Diff   bool     `help:"输出 unified diff"`
}

func (c *GenCmd) Run(ctx context.Context, g *Globals) error {
	s, err := g.setup(ctx, c.Paths, config.Overrides{})
	if err != nil {
		return err
	}
	s.logGenerators()

	opts := s.runOptions(c.Paths, g.Verbose)
	opts.DryRun = c.DryRun
	opts.Diff = c.Diff

	stats, err := plugin.RunWithOptionsAndStats(s.ctx, opts)
	if err != nil {
		return err
	}

	// 输出统计信息
	if stats.FileCount > 0 || g.Verbose {
		verb := "更新"
		if c.DryRun {
			verb = "需要更新"
		}
		fmt.Printf("\n统计: 扫描 %d 个类, %s %d 个文件, 跳过 %d 个无法解析的文件\n",
			stats.TargetCount, verb, stats.FileCount, stats.ParseErrors)
		fmt.Printf("耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}
	return nil
}

type CheckCmd struct {
	Paths   []string `arg:"" optional:"" help:"扫描的文件或目录（递归），默认当前目录" type:"path"`
	Format  string   `help:"输出格式" enum:"text,json" default:"text"`
	All     bool     `help:"同时报告已是最新的类"`
	Strict  bool     `help:"存在需要更新的类时以非零状态退出"`
	NoColor bool     `help:"禁用颜色" name:"no-color"`
}

func (c *CheckCmd) Run(ctx context.Context, g *Globals) error {
	s, err := g.setup(ctx, c.Paths, config.Overrides{})
	if err != nil {
		return err
	}

	opts := s.runOptions(c.Paths, g.Verbose)
	opts.DryRun = true

	stats, err := plugin.RunWithOptionsAndStats(s.ctx, opts)
	if err != nil {
		return err
	}

	diags := stats.Diagnostics
	if !c.All {
		diags = lo.Filter(diags, func(d diag.Diagnostic, _ int) bool { return d.HasEdits() })
	}
	err = diag.Report(os.Stdout, stats.FileSet, diags, diag.ReportOptions{
		Format:  diag.Format(c.Format),
		Color:   !c.NoColor && !color.NoColor,
		Context: true,
	})
	if err != nil {
		return err
	}

	pending := lo.CountBy(stats.Diagnostics, func(d diag.Diagnostic) bool { return d.HasEdits() })
	if c.Strict && pending > 0 {
		return fmt.Errorf("%d 个类需要更新", pending)
	}
	return nil
}

type DevCmd struct {
	Paths    []string `arg:"" optional:"" help:"监听的目录（递归），默认当前目录" type:"path"`
	Debounce *string  `help:"防抖时间，如 500ms"`
}

func (c *DevCmd) Run(ctx context.Context, g *Globals) error {
	s, err := g.setup(ctx, c.Paths, config.Overrides{Debounce: mo.PointerToOption(c.Debounce)})
	if err != nil {
		return err
	}
	s.logGenerators()

	return dev(s.ctx, &DevOptions{
		Run:      s.runOptions(c.Paths, g.Verbose),
		Verbose:  g.Verbose,
		Debounce: s.cfg.DebounceDuration(),
	})
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func description() string {
	var sb strings.Builder
	sb.WriteString("recordgen - 为 C# 只读类生成 record 风格的构造函数与 With 方法\n")
	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		sb.WriteString("\n支持的注解:\n")
		sb.WriteString(plugin.FormatHelpText(registry))
	}
	sb.WriteString(`示例:
  recordgen                          扫描当前目录并更新文件
  recordgen --diff -n ./src          只输出 diff，不写文件
  recordgen check --strict           存在需要更新的类时失败（适合 CI）
  recordgen check --format json      以 JSON 输出诊断
  recordgen dev ./src                开发模式，监听文件变动`)
	return sb.String()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("recordgen"),
		kong.Description(description()),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/samber/mo"
)

// FileName 配置文件名，从工作目录向上查找
const FileName = ".recordgen.yaml"

// ErrNotFound 没有找到配置文件
var ErrNotFound = errors.New("配置文件不存在")

// Config .recordgen.yaml
type Config struct {
	// Include / Exclude 相对扫描根目录的 glob，支持 **
	Include []string `yaml:"include" validate:"dive,required,glob"`
	Exclude []string `yaml:"exclude" validate:"dive,required,glob"`

	// RequireAnnotation 为 true 时只处理带 // @Record 注解的类
	RequireAnnotation bool `yaml:"require_annotation"`

	// Indent 一级缩进，为空时从源码推断
	Indent string `yaml:"indent" validate:"omitempty,indent"`

	// Workers 并发处理文件数，0 表示 CPU 数
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`

	// Debounce dev 模式的防抖时间，如 500ms
	Debounce string `yaml:"debounce" validate:"omitempty,duration"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error disabled"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Include:  []string{"**/*.cs"},
		Exclude:  []string{"**/bin/**", "**/obj/**", "**/*.g.cs", "**/*.Designer.cs"},
		Debounce: "500ms",
		LogLevel: "info",
	}
}

// Load 读取配置文件，未出现的字段保留默认值
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	return Parse(path, content)
}

// Parse 解析配置内容，path 只用于错误信息
func Parse(path string, content []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(content), yaml.DisallowUnknownField())
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Find 从 dir 开始逐级向上查找配置文件
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Resolve 指定了 explicit 时必须存在；否则从 dir 向上查找，找不到使用默认配置
// 返回实际使用的配置文件路径（默认配置时为空）
func Resolve(explicit, dir string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	if path, ok := Find(dir); ok {
		cfg, err := Load(path)
		return cfg, path, err
	}
	return Default(), "", nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	_ = v.RegisterValidation("indent", func(fl validator.FieldLevel) bool {
		return strings.Trim(fl.Field().String(), " \t") == ""
	})
	return v
}

// Validate 校验配置
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// DebounceDuration 解析后的防抖时间
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Overrides 命令行参数，None 表示未指定
type Overrides struct {
	Workers           mo.Option[int]
	LogLevel          mo.Option[string]
	RequireAnnotation mo.Option[bool]
	Indent            mo.Option[string]
	Debounce          mo.Option[string]
}

// With 用命令行参数覆盖配置：指定了就用指定值，否则保留配置文件中的值
func (c Config) With(o Overrides) Config {
	c.Workers = o.Workers.OrElse(c.Workers)
	c.LogLevel = o.LogLevel.OrElse(c.LogLevel)
	c.RequireAnnotation = o.RequireAnnotation.OrElse(c.RequireAnnotation)
	c.Indent = o.Indent.OrElse(c.Indent)
	c.Debounce = o.Debounce.OrElse(c.Debounce)
	return c
}

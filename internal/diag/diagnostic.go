// Package diag 描述诊断信息以及可自动应用的修复
package diag

import (
	"github.com/donutnomad/recordgen/internal/source"
)

// Severity 诊断级别
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Code 诊断 ID，与 IDE 中的分析器 ID 保持一致
type Code string

const (
	// CodeRecordUpdate 类可以（重新）生成 record 构造函数与 With 方法
	CodeRecordUpdate Code = "CSharpRecordsUpdateNecessary"
)

// Diagnostic 一条诊断
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Subject  string // 诊断指向的类名
	Fixes    []Fix
}

// HasEdits 是否至少有一个修复包含实际编辑
func (d Diagnostic) HasEdits() bool {
	for _, f := range d.Fixes {
		if len(f.Edits) > 0 {
			return true
		}
	}
	return false
}

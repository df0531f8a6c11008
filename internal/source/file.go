package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fortio.org/safecast"
)

type (
	// FileID 文件在 FileSet 中的唯一标识
	FileID uint32
)

// File 一个已加载的源文件
// 内容保持原样（不做 BOM / CRLF 归一化），因为修复结果需要原样写回
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // 每个 '\n' 的偏移
	Hash    [32]byte
}

// LineCol 人类可读的位置
type LineCol struct {
	Line uint32 // 从 1 开始
	Col  uint32 // 从 1 开始，按字节计
}

// FileSet 管理一组源文件，可并发使用
type FileSet struct {
	mu    sync.RWMutex
	files []*File
	index map[string]FileID
}

// NewFileSet 创建空的 FileSet
func NewFileSet() *FileSet {
	return &FileSet{
		index: make(map[string]FileID),
	}
}

// Add 添加文件内容并返回新的 *File
// 同一路径重复添加时总是生成新的 FileID，索引指向最新版本
func (fs *FileSet) Add(path string, content []byte) *File {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("文件数量溢出: %w", err))
	}
	f := &File{
		ID:      FileID(n),
		Path:    filepath.Clean(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
	}
	fs.files = append(fs.files, f)
	fs.index[f.Path] = f.ID
	return f
}

// Load 从磁盘读取文件并添加
func (fs *FileSet) Load(path string) (*File, error) {
	// #nosec G304 -- 路径由调用方提供
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	return fs.Add(path, content), nil
}

// Get 按 ID 获取文件
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

// GetByPath 获取某路径最新加载的文件
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.index[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return fs.files[id], true
}

// Resolve 将 span 转为起止行列
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return f.LineCol(span.Start), f.LineCol(span.End)
}

// LineCol 将字节偏移转换为行列
func (f *File) LineCol(off uint32) LineCol {
	// 第一个 >= off 的换行符下标就是 0-based 行号
	line := sort.Search(len(f.LineIdx), func(i int) bool { return f.LineIdx[i] >= off })
	var lineStart uint32
	if line > 0 {
		lineStart = f.LineIdx[line-1] + 1
	}
	l, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		panic(fmt.Errorf("行号溢出: %w", err))
	}
	return LineCol{Line: l, Col: off - lineStart + 1}
}

// Line 返回第 n 行（1-based）的文本，不含换行符
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.LineIdx)+1 {
		return ""
	}
	var start uint32
	if n > 1 {
		start = f.LineIdx[n-2] + 1
	}
	end := uint32(len(f.Content))
	if int(n-1) < len(f.LineIdx) {
		end = f.LineIdx[n-1]
	}
	return string(bytes.TrimRight(f.Content[start:end], "\r"))
}

// Text 返回 span 覆盖的原始文本
func (f *File) Text(span Span) string {
	return string(f.Content[span.Start:span.End])
}

// LineIndent 返回 off 所在行开头的空白
func (f *File) LineIndent(off uint32) string {
	start := off
	for start > 0 && f.Content[start-1] != '\n' {
		start--
	}
	end := start
	for end < uint32(len(f.Content)) && (f.Content[end] == ' ' || f.Content[end] == '\t') {
		end++
	}
	return string(f.Content[start:end])
}

// NewLine 返回文件使用的换行符
func (f *File) NewLine() string {
	if bytes.Contains(f.Content, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}

func buildLineIndex(content []byte) []uint32 {
	idx := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i))
		}
	}
	return idx
}

package source

import (
	"fmt"
)

// Span 文件内的字节区间 [Start, End)
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover 返回同时覆盖两个 span 的最小 span
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Overlaps 判断两个 span 是否有交集；空 span 落在另一 span 内部也算
func (s Span) Overlaps(other Span) bool {
	if s.File != other.File {
		return false
	}
	if s.Empty() {
		return s.Start > other.Start && s.Start < other.End
	}
	if other.Empty() {
		return other.Start > s.Start && other.Start < s.End
	}
	return s.Start < other.End && other.Start < s.End
}

package csharp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/donutnomad/recordgen/internal/source"
)

var (
	// ErrUnexpectedEOF 字符串、注释或声明在文件结束前没有闭合
	ErrUnexpectedEOF = errors.New("意外的文件结尾")
	// ErrUnbalanced 括号不配对
	ErrUnbalanced = errors.New("括号不配对")
)

// punct3 / punct2 多字符运算符，按长度优先匹配
// '>' 始终单独成词，避免 List<List<int>> 被合并为 >>
var (
	punct3 = []string{"??=", "<<="}
	punct2 = []string{
		"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "::",
		"++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "->", "..", "<<",
	}
)

// Lexer C# 词法分析器
// 只识别声明解析需要的结构：标识符、字面量、标点与注释，预处理指令整行跳过
type Lexer struct {
	file      *source.File
	off       uint32
	lineStart bool
	comments  []string
}

// NewLexer 创建词法分析器
func NewLexer(f *source.File) *Lexer {
	lx := &Lexer{file: f, lineStart: true}
	// UTF-8 BOM
	if len(f.Content) >= 3 && f.Content[0] == 0xEF && f.Content[1] == 0xBB && f.Content[2] == 0xBF {
		lx.off = 3
	}
	return lx
}

// Tokenize 将整个文件切分为 token，最后一个 token 的 Kind 为 EOF
func Tokenize(f *source.File) ([]Token, error) {
	lx := NewLexer(f)
	var toks []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (lx *Lexer) eof() bool {
	return int(lx.off) >= len(lx.file.Content)
}

func (lx *Lexer) peek() byte {
	return lx.peekAt(0)
}

func (lx *Lexer) peekAt(n uint32) byte {
	if int(lx.off+n) >= len(lx.file.Content) {
		return 0
	}
	return lx.file.Content[lx.off+n]
}

func (lx *Lexer) errorf(err error, start uint32, what string) error {
	pos := lx.file.LineCol(start)
	return fmt.Errorf("%s:%d:%d: %s: %w", lx.file.Path, pos.Line, pos.Col, what, err)
}

// Next 返回下一个 token
func (lx *Lexer) Next() (Token, error) {
	if err := lx.skipTrivia(); err != nil {
		return Token{}, err
	}
	comments := lx.comments
	lx.comments = nil

	start := lx.off
	if lx.eof() {
		return Token{Kind: EOF, Span: lx.span(start), Comments: comments}, nil
	}
	lx.lineStart = false

	kind, err := lx.scan()
	if err != nil {
		return Token{}, err
	}
	sp := lx.span(start)
	return Token{
		Kind:     kind,
		Text:     lx.file.Text(sp),
		Span:     sp,
		Comments: comments,
	}, nil
}

func (lx *Lexer) span(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.off}
}

func (lx *Lexer) skipTrivia() error {
	for !lx.eof() {
		b := lx.peek()
		switch {
		case b == '\n':
			lx.off++
			lx.lineStart = true
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			lx.off++
		case b == '#' && lx.lineStart:
			// #region / #if 等预处理指令
			for !lx.eof() && lx.peek() != '\n' {
				lx.off++
			}
		case b == '/' && lx.peekAt(1) == '/':
			start := lx.off
			for !lx.eof() && lx.peek() != '\n' {
				lx.off++
			}
			lx.comments = append(lx.comments, strings.TrimRight(lx.file.Text(lx.span(start)), "\r"))
		case b == '/' && lx.peekAt(1) == '*':
			start := lx.off
			lx.off += 2
			for {
				if lx.eof() {
					return lx.errorf(ErrUnexpectedEOF, start, "块注释未闭合")
				}
				if lx.peek() == '*' && lx.peekAt(1) == '/' {
					lx.off += 2
					break
				}
				lx.off++
			}
			lx.comments = append(lx.comments, lx.file.Text(lx.span(start)))
		default:
			return nil
		}
	}
	return nil
}

func (lx *Lexer) scan() (Kind, error) {
	start := lx.off
	b := lx.peek()
	switch {
	case isIdentStart(b):
		lx.scanIdent()
		return Ident, nil
	case b == '@' && isIdentStart(lx.peekAt(1)):
		lx.off++
		lx.scanIdent()
		return Ident, nil
	case b == '@' || b == '$' || b == '"':
		if ok, serr := lx.scanStringLiteral(); ok {
			if serr != nil {
				return String, lx.errorf(serr.err, start, serr.what)
			}
			return String, nil
		}
	case b == '\'':
		return Char, lx.scanChar(start)
	case isDigit(b) || (b == '.' && isDigit(lx.peekAt(1))):
		lx.scanNumber()
		return Number, nil
	}

	for _, group := range [][]string{punct3, punct2} {
		for _, p := range group {
			if lx.hasPrefix(p) {
				lx.off += uint32(len(p))
				return Punct, nil
			}
		}
	}
	lx.off++
	return Punct, nil
}

// stringErr 字符串扫描错误，由 scan 统一附加位置
type stringErr struct {
	err  error
	what string
}

func (lx *Lexer) hasPrefix(p string) bool {
	rest := lx.file.Content[lx.off:]
	return len(rest) >= len(p) && string(rest[:len(p)]) == p
}

func (lx *Lexer) scanIdent() {
	for !lx.eof() && isIdentPart(lx.peek()) {
		lx.off++
	}
}

func (lx *Lexer) scanNumber() {
	hex := lx.peek() == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X')
	for !lx.eof() {
		b := lx.peek()
		switch {
		case isIdentPart(b):
			lx.off++
		case b == '.' && isDigit(lx.peekAt(1)):
			lx.off++
		case (b == '+' || b == '-') && !hex && lx.off > 0 &&
			(lx.file.Content[lx.off-1] == 'e' || lx.file.Content[lx.off-1] == 'E'):
			lx.off++
		default:
			return
		}
	}
}

func (lx *Lexer) scanChar(start uint32) error {
	lx.off++
	for {
		if lx.eof() || lx.peek() == '\n' {
			return lx.errorf(ErrUnexpectedEOF, start, "字符字面量未闭合")
		}
		switch lx.peek() {
		case '\\':
			lx.off += 2
		case '\'':
			lx.off++
			return nil
		default:
			lx.off++
		}
	}
}

// scanStringLiteral 识别 "..." @"..." $"..." $@"..." @$"..." 与 """...""" 形式
// 返回 false 表示当前位置不是字符串（例如单独的 $ 或 @）
func (lx *Lexer) scanStringLiteral() (bool, *stringErr) {
	verbatim, interpolated := false, false
	p := lx.off
	for p < uint32(len(lx.file.Content)) {
		switch lx.file.Content[p] {
		case '@':
			verbatim = true
			p++
			continue
		case '$':
			interpolated = true
			p++
			continue
		}
		break
	}
	if p >= uint32(len(lx.file.Content)) || lx.file.Content[p] != '"' {
		return false, nil
	}
	lx.off = p

	if lx.hasPrefix(`"""`) {
		return true, lx.scanRaw()
	}
	lx.off++
	if interpolated {
		return true, lx.scanInterpolated(verbatim)
	}
	return true, lx.scanQuoted(verbatim)
}

// scanQuoted 扫描普通/逐字字符串的剩余部分（开头引号已消费）
func (lx *Lexer) scanQuoted(verbatim bool) *stringErr {
	for {
		if lx.eof() || (!verbatim && lx.peek() == '\n') {
			return &stringErr{ErrUnexpectedEOF, "字符串未闭合"}
		}
		b := lx.peek()
		switch {
		case !verbatim && b == '\\':
			lx.off += 2
		case verbatim && b == '"' && lx.peekAt(1) == '"':
			lx.off += 2
		case b == '"':
			lx.off++
			return nil
		default:
			lx.off++
		}
	}
}

// scanInterpolated 扫描内插字符串，{...} 中可以嵌套字符串与字符
func (lx *Lexer) scanInterpolated(verbatim bool) *stringErr {
	depth := 0
	for {
		if lx.eof() {
			return &stringErr{ErrUnexpectedEOF, "内插字符串未闭合"}
		}
		b := lx.peek()
		if depth == 0 {
			switch {
			case !verbatim && b == '\n':
				return &stringErr{ErrUnexpectedEOF, "内插字符串未闭合"}
			case !verbatim && b == '\\':
				lx.off += 2
			case b == '"' && verbatim && lx.peekAt(1) == '"':
				lx.off += 2
			case b == '"':
				lx.off++
				return nil
			case b == '{' && lx.peekAt(1) == '{':
				lx.off += 2
			case b == '{':
				depth++
				lx.off++
			default:
				lx.off++
			}
			continue
		}
		switch b {
		case '{':
			depth++
			lx.off++
		case '}':
			depth--
			lx.off++
		case '\'':
			if err := lx.scanChar(lx.off); err != nil {
				return &stringErr{ErrUnexpectedEOF, "内插表达式中的字符未闭合"}
			}
		case '"', '@', '$':
			ok, serr := lx.scanStringLiteral()
			if !ok {
				lx.off++
				continue
			}
			if serr != nil {
				return serr
			}
		default:
			lx.off++
		}
	}
}

// scanRaw 扫描原始字符串 """...""" ，结束引号数与开始引号数相同
func (lx *Lexer) scanRaw() *stringErr {
	n := uint32(0)
	for lx.peek() == '"' {
		n++
		lx.off++
	}
	closing := strings.Repeat(`"`, int(n))
	for {
		if lx.eof() {
			return &stringErr{ErrUnexpectedEOF, "原始字符串未闭合"}
		}
		if lx.hasPrefix(closing) {
			lx.off += n
			for lx.peek() == '"' {
				lx.off++
			}
			return nil
		}
		lx.off++
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

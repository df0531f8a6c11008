package csharp

import (
	"fmt"
	"strings"

	"github.com/donutnomad/recordgen/internal/source"
)

// ParseFile 解析源文件中的类声明及其成员
// 只解析声明层级的结构；方法体、初始化表达式只做括号配对跳过
func ParseFile(f *source.File) (*File, error) {
	toks, err := Tokenize(f)
	if err != nil {
		return nil, err
	}
	p := &parser{
		src:  f,
		toks: toks,
		out:  &File{Source: f},
	}
	if err := p.parseDecls("", false); err != nil {
		return nil, err
	}
	return p.out, nil
}

// ParseSource 将内容加入 fs 并解析
func ParseSource(fs *source.FileSet, path string, content []byte) (*File, error) {
	return ParseFile(fs.Add(path, content))
}

type parser struct {
	src  *source.File
	toks []Token
	pos  int
	out  *File
}

func (p *parser) tok(i int) Token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) cur() Token {
	return p.tok(p.pos)
}

func (p *parser) errorf(i int, err error, format string, args ...any) error {
	pos := p.src.LineCol(p.tok(i).Span.Start)
	return fmt.Errorf("%s:%d:%d: %s: %w", p.src.Path, pos.Line, pos.Col, fmt.Sprintf(format, args...), err)
}

// parseDecls 解析命名空间/编译单元层级的声明
// inBlock 为 true 时遇到 '}' 返回，由调用方消费
func (p *parser) parseDecls(ns string, inBlock bool) error {
	for {
		t := p.cur()
		switch {
		case t.Kind == EOF:
			if inBlock {
				return p.errorf(p.pos, ErrUnexpectedEOF, "命名空间未闭合")
			}
			return nil
		case t.Is("}") && inBlock:
			return nil
		case t.Is(";"):
			p.pos++
		case t.Is("using") || t.Is("global") || (t.Is("extern") && p.tok(p.pos+1).Is("alias")):
			end, err := p.statementEnd(p.pos)
			if err != nil {
				return err
			}
			p.pos = end
		case t.Is("namespace"):
			if err := p.parseNamespace(ns); err != nil {
				return err
			}
		default:
			if err := p.parseTypeDecl(ns); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parseNamespace(outer string) error {
	p.pos++
	var name strings.Builder
	for !p.cur().Is("{") && !p.cur().Is(";") {
		if p.cur().Kind == EOF {
			return p.errorf(p.pos, ErrUnexpectedEOF, "命名空间声明不完整")
		}
		name.WriteString(p.cur().Text)
		p.pos++
	}
	ns := name.String()
	if outer != "" {
		ns = outer + "." + ns
	}
	if p.cur().Is(";") {
		// 文件范围命名空间，作用到文件结尾
		p.pos++
		return p.parseDecls(ns, false)
	}
	p.pos++
	if err := p.parseDecls(ns, true); err != nil {
		return err
	}
	p.pos++ // '}'
	return nil
}

// parseTypeDecl 解析一个顶层类型声明；非 class 的类型整体跳过
func (p *parser) parseTypeDecl(ns string) error {
	start := p.pos
	i := p.skipAttributes(start)
	if i > start && !isModifier(p.tok(i)) && !isTypeKeyword(p.tok(i)) {
		// [assembly: ...] 等全局特性
		p.pos = i
		return nil
	}
	for isModifier(p.tok(i)) {
		i++
	}
	t := p.tok(i)
	if t.Is("class") {
		_, err := p.parseClass(start, i, ns, nil)
		return err
	}
	end, err := p.statementEnd(start)
	if err != nil {
		return err
	}
	if end <= p.pos {
		end = p.pos + 1
	}
	p.pos = end
	return nil
}

// parseClass 从 kw（'class' 关键字）开始解析类声明，start 为声明起点（含特性）
// 返回后 p.pos 指向声明之后
func (p *parser) parseClass(start, kw int, ns string, parent *Class) (*Class, error) {
	cls := &Class{
		Namespace: ns,
		Parent:    parent,
		Comments:  p.tok(start).Comments,
	}
	for i := p.skipAttributes(start); i < kw; i++ {
		cls.Modifiers = append(cls.Modifiers, p.tok(i).Text)
	}

	i := kw + 1
	name := p.tok(i)
	if name.Kind != Ident {
		return nil, p.errorf(i, ErrUnbalanced, "类声明缺少名称")
	}
	cls.Name = name.Text
	cls.NameSpan = name.Span
	i++
	if p.tok(i).Is("<") {
		end, ok := p.skipAngles(i)
		if !ok {
			return nil, p.errorf(i, ErrUnbalanced, "类 %s 的泛型参数列表不完整", cls.Name)
		}
		cls.TypeParams = p.text(i, end)
		i = end
	}

	// 基类列表、主构造函数、泛型约束
	depth := 0
	for {
		t := p.tok(i)
		switch {
		case t.Kind == EOF:
			return nil, p.errorf(kw, ErrUnexpectedEOF, "类 %s 缺少类体", cls.Name)
		case t.Is("(") || t.Is("["):
			depth++
		case t.Is(")") || t.Is("]"):
			depth--
		case depth == 0 && t.Is(";"):
			// 无类体的类声明，没有可处理的成员
			p.pos = i + 1
			return nil, nil
		}
		if depth == 0 && t.Is("{") {
			break
		}
		i++
	}

	cls.OpenBrace = p.tok(i).Span.Start
	p.out.Classes = append(p.out.Classes, cls)
	p.pos = i + 1
	if err := p.parseMembers(cls); err != nil {
		return nil, err
	}
	closeTok := p.cur()
	cls.Close = closeTok.Span.Start
	cls.Span = source.Span{File: p.src.ID, Start: p.tok(start).Span.Start, End: closeTok.Span.End}
	p.pos++
	if p.cur().Is(";") {
		p.pos++
	}
	return cls, nil
}

func (p *parser) parseMembers(cls *Class) error {
	for {
		t := p.cur()
		switch {
		case t.Kind == EOF:
			return p.errorf(p.pos, ErrUnexpectedEOF, "类 %s 未闭合", cls.Name)
		case t.Is("}"):
			return nil
		case t.Is(";"):
			p.pos++
			continue
		}

		start := p.pos
		end, err := p.memberEnd(start)
		if err != nil {
			return err
		}
		m, err := p.parseMember(cls, start, end)
		if err != nil {
			return err
		}
		cls.Members = append(cls.Members, m)
		if p.pos < end {
			p.pos = end
		}
	}
}

// memberEnd 返回成员最后一个 token 之后的下标
// 规则：出现顶层 '=' 或 '=>' 后成员以 ';' 结束；否则以第一个顶层 {...} 结束，
// 其后若跟 '=' 则为属性初始化器，继续到 ';'
func (p *parser) memberEnd(i int) (int, error) {
	depth := 0
	sawAssign := false
	for {
		t := p.tok(i)
		switch {
		case t.Kind == EOF:
			return 0, p.errorf(i, ErrUnexpectedEOF, "成员声明未结束")
		case t.Is("(") || t.Is("["):
			depth++
		case t.Is(")") || t.Is("]"):
			depth--
		case depth > 0:
		case t.Is("=") || t.Is("=>"):
			sawAssign = true
		case t.Is(";"):
			return i + 1, nil
		case t.Is("}"):
			return i, nil
		case t.Is("{"):
			end, err := p.skipBraces(i)
			if err != nil {
				return 0, err
			}
			if sawAssign {
				i = end
				continue
			}
			next := p.tok(end)
			switch {
			case next.Is("="):
				sawAssign = true
				i = end
				continue
			case next.Is(";"):
				return end + 1, nil
			}
			return end, nil
		}
		i++
	}
}

// parseMember 对 [start, end) 范围内的 token 分类
func (p *parser) parseMember(cls *Class, start, end int) (*Member, error) {
	i := p.skipAttributes(start)
	declStart := i
	m := &Member{
		Kind: MemberOther,
		Span: p.span(start, end),
	}
	for i < end && isModifier(p.tok(i)) {
		m.Modifiers = append(m.Modifiers, p.tok(i).Text)
		i++
	}
	m.DeclSpan = p.span(declStart, end)

	t := p.tok(i)
	switch {
	case isTypeKeyword(t):
		m.Kind = MemberNestedType
		if n := p.tok(i + 1); n.Kind == Ident {
			m.Name = n.Text
		}
		if t.Is("class") {
			nested, err := p.parseClass(start, i, cls.Namespace, cls)
			if err != nil {
				return nil, err
			}
			m.Nested = nested
		}
		return m, nil
	case t.Is("event") || t.Is("~") || t.Is("implicit") || t.Is("explicit"):
		return m, nil
	case t.Kind == Ident && t.Text == cls.Name && p.tok(i+1).Is("("):
		m.Kind = MemberConstructor
		m.Name = t.Text
		params, _, err := p.parseParams(i + 1)
		if err != nil {
			return nil, err
		}
		m.Params = params
		return m, nil
	}

	typeEnd, ok := p.scanType(i)
	if !ok || typeEnd >= end {
		return m, nil
	}
	j := typeEnd
	if p.tok(j).Is("operator") || p.tok(j).Is("this") {
		return m, nil
	}
	m.Type = p.text(i, typeEnd)
	switch {
	case p.tok(j).Is(";"):
		// 没有声明任何变量的字段，交给上层过滤
		m.Kind = MemberField
		return m, nil
	case p.tok(j).Kind != Ident:
		return m, nil
	}

	// 成员名，可能是显式接口实现 IFoo<T>.Bar
	for {
		m.Name = p.tok(j).Text
		j++
		if p.tok(j).Is("<") {
			k, ok := p.skipAngles(j)
			if !ok {
				return m, nil
			}
			if !p.tok(k).Is(".") {
				j = k // 泛型方法的类型参数
				break
			}
			j = k
		}
		if p.tok(j).Is(".") && p.tok(j+1).Kind == Ident {
			j++
			continue
		}
		break
	}

	next := p.tok(j)
	switch {
	case next.Is("("):
		m.Kind = MemberMethod
		params, _, err := p.parseParams(j)
		if err != nil {
			return nil, err
		}
		m.Params = params
	case next.Is("{"):
		m.Kind = MemberProperty
		accessors, err := p.parseAccessors(j)
		if err != nil {
			return nil, err
		}
		m.Accessors = accessors
	case next.Is("=>"):
		m.Kind = MemberProperty
		m.ExpressionBodied = true
	case next.Is("=") || next.Is(";") || next.Is(",") || next.Is("["):
		m.Kind = MemberField
		m.Declarators = p.parseDeclarators(m.Name, j, end)
	}
	return m, nil
}

// parseDeclarators 收集字段声明中的变量名，first 为第一个变量名，i 指向其后的 token
func (p *parser) parseDeclarators(first string, i, end int) []string {
	names := []string{first}
	depth := 0
	for ; i < end; i++ {
		t := p.tok(i)
		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
		case depth == 0 && t.Is(",") && p.tok(i+1).Kind == Ident:
			names = append(names, p.tok(i+1).Text)
		}
	}
	return names
}

// parseAccessors 解析 { get; private set; init => x; } 形式的访问器列表，i 指向 '{'
func (p *parser) parseAccessors(i int) ([]Accessor, error) {
	var out []Accessor
	i++
	for {
		i = p.skipAttributes(i)
		t := p.tok(i)
		switch {
		case t.Kind == EOF:
			return nil, p.errorf(i, ErrUnexpectedEOF, "访问器列表未闭合")
		case t.Is("}"):
			return out, nil
		}

		var acc Accessor
		for p.tok(i).Kind == Ident {
			if _, ok := accessorKeywords[p.tok(i).Text]; ok {
				break
			}
			acc.Modifiers = append(acc.Modifiers, p.tok(i).Text)
			i++
		}
		kw := p.tok(i)
		if _, ok := accessorKeywords[kw.Text]; !ok || kw.Kind != Ident {
			return nil, p.errorf(i, ErrUnbalanced, "无法识别的访问器 %q", kw.Text)
		}
		acc.Keyword = kw.Text
		i++

		switch t := p.tok(i); {
		case t.Is(";"):
			i++
		case t.Is("{"):
			end, err := p.skipBraces(i)
			if err != nil {
				return nil, err
			}
			acc.HasBody = true
			i = end
		case t.Is("=>"):
			end, err := p.statementEnd(i)
			if err != nil {
				return nil, err
			}
			acc.HasBody = true
			i = end
		default:
			return nil, p.errorf(i, ErrUnbalanced, "访问器 %s 后缺少 ';' 或访问器体", acc.Keyword)
		}
		out = append(out, acc)
	}
}

// parseParams 解析参数列表，i 指向 '('，返回参数与 ')' 之后的下标
func (p *parser) parseParams(i int) ([]Param, int, error) {
	closeIdx, err := p.skipBalanced(i, "(", ")")
	if err != nil {
		return nil, 0, err
	}
	var params []Param
	j := i + 1
	for j < closeIdx-1 {
		var prm Param
		j = p.skipAttributes(j)
		for p.tok(j).Kind == Ident {
			if _, ok := paramModifiers[p.tok(j).Text]; !ok {
				break
			}
			// this / scoped 之后仍需要类型；ref readonly 等组合也逐个收集
			prm.Modifiers = append(prm.Modifiers, p.tok(j).Text)
			j++
		}
		typeEnd, ok := p.scanType(j)
		if ok && typeEnd < closeIdx && p.tok(typeEnd).Kind == Ident {
			prm.Type = p.text(j, typeEnd)
			prm.Name = p.tok(typeEnd).Text
			j = typeEnd + 1
		}
		// 默认值或无法识别的部分跳到下一个顶层 ','
		depth := 0
		defStart := -1
		for ; j < closeIdx-1; j++ {
			t := p.tok(j)
			if depth == 0 && t.Is(",") {
				break
			}
			switch {
			case t.Is("(") || t.Is("[") || t.Is("{"):
				depth++
			case t.Is(")") || t.Is("]") || t.Is("}"):
				depth--
			case depth == 0 && t.Is("=") && defStart < 0:
				defStart = j + 1
			}
		}
		if defStart >= 0 && defStart < j {
			prm.Default = p.text(defStart, j)
		}
		if prm.Name != "" {
			params = append(params, prm)
		}
		j++ // ','
	}
	return params, closeIdx, nil
}

// scanType 识别从 i 开始的类型，返回类型之后的下标
func (p *parser) scanType(i int) (int, bool) {
	if p.tok(i).Is("ref") {
		i++
		if p.tok(i).Is("readonly") {
			i++
		}
	}
	switch t := p.tok(i); {
	case t.Is("("):
		end, err := p.skipBalanced(i, "(", ")")
		if err != nil {
			return 0, false
		}
		i = end
	case t.Kind == Ident:
		i++
		for {
			if p.tok(i).Is("<") {
				end, ok := p.skipAngles(i)
				if !ok {
					return 0, false
				}
				i = end
				continue
			}
			if (p.tok(i).Is(".") || p.tok(i).Is("::")) && p.tok(i+1).Kind == Ident {
				i += 2
				continue
			}
			break
		}
	default:
		return 0, false
	}

	// 后缀：可空、指针、数组秩
	for {
		t := p.tok(i)
		switch {
		case t.Is("?") || t.Is("*"):
			i++
		case t.Is("[") && (p.tok(i+1).Is("]") || p.tok(i+1).Is(",")):
			end, err := p.skipBalanced(i, "[", "]")
			if err != nil {
				return 0, false
			}
			i = end
		default:
			return i, true
		}
	}
}

// skipAngles 跳过类型实参列表 <...>，遇到不可能出现在类型中的 token 时返回 false
func (p *parser) skipAngles(i int) (int, bool) {
	depth, parens := 0, 0
	for {
		t := p.tok(i)
		switch {
		case t.Kind == EOF, t.Is(";"), t.Is("{"), t.Is("}"), t.Is("="), t.Is("=>"):
			return 0, false
		case t.Is("<"):
			depth++
		case t.Is(">"):
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case t.Is("("):
			parens++
		case t.Is(")"):
			parens--
			if parens < 0 {
				return 0, false
			}
		}
		i++
	}
}

// skipBalanced i 指向 open，返回匹配的 close 之后的下标
func (p *parser) skipBalanced(i int, open, close string) (int, error) {
	depth := 0
	for j := i; ; j++ {
		t := p.tok(j)
		switch {
		case t.Kind == EOF:
			return 0, p.errorf(i, ErrUnbalanced, "%q 未闭合", open)
		case t.Is(open):
			depth++
		case t.Is(close):
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
}

func (p *parser) skipBraces(i int) (int, error) {
	return p.skipBalanced(i, "{", "}")
}

func (p *parser) skipAttributes(i int) int {
	for p.tok(i).Is("[") {
		end, err := p.skipBalanced(i, "[", "]")
		if err != nil {
			return i
		}
		i = end
	}
	return i
}

// statementEnd 从 i 开始找到顶层 ';' 或完整的 {...} 块
func (p *parser) statementEnd(i int) (int, error) {
	depth := 0
	for j := i; ; j++ {
		t := p.tok(j)
		switch {
		case t.Kind == EOF:
			return j, nil
		case t.Is("(") || t.Is("["):
			depth++
		case t.Is(")") || t.Is("]"):
			depth--
		case depth > 0:
		case t.Is(";"):
			return j + 1, nil
		case t.Is("{"):
			end, err := p.skipBraces(j)
			if err != nil {
				return 0, err
			}
			if p.tok(end).Is(";") {
				end++
			}
			return end, nil
		case t.Is("}"):
			return j, nil
		}
	}
}

func (p *parser) span(start, end int) source.Span {
	if end <= start {
		end = start + 1
	}
	return source.Span{
		File:  p.src.ID,
		Start: p.tok(start).Span.Start,
		End:   p.tok(end - 1).Span.End,
	}
}

// text 返回 [start, end) token 覆盖的源码，连续空白折叠为一个空格
func (p *parser) text(start, end int) string {
	raw := p.src.Text(p.span(start, end))
	return strings.Join(strings.Fields(raw), " ")
}

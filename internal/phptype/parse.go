package phptype

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse builds a union type from declaration or doc-comment text, e.g.
// "int|string", "?Foo", "string[]", "array{id: int}", "callable(int): bool" or
// "Collection<int, Foo>".
func Parse(text string) (UnionType, error) {
	p := &typeParser{src: text}
	p.skipSpace()
	if p.eof() {
		return UnionType{}, fmt.Errorf("empty type")
	}
	u, err := p.parseUnion()
	if err != nil {
		return UnionType{}, fmt.Errorf("invalid type %q: %w", text, err)
	}
	p.skipSpace()
	if !p.eof() {
		return UnionType{}, fmt.Errorf("invalid type %q: unexpected %q at offset %d", text, p.src[p.pos:], p.pos)
	}
	return u, nil
}

// MustParse is Parse for texts known to be valid.
func MustParse(text string) UnionType {
	u, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return u
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) eof() bool { return p.pos >= len(p.src) }

func (p *typeParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) accept(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *typeParser) expect(s string) error {
	if !p.accept(s) {
		if p.eof() {
			return fmt.Errorf("expected %q, got end of input", s)
		}
		return fmt.Errorf("expected %q at offset %d", s, p.pos)
	}
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '\\' || c == '-' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseUnion() (UnionType, error) {
	var parts []UnionType
	for {
		u, err := p.parseIntersection()
		if err != nil {
			return UnionType{}, err
		}
		parts = append(parts, u)
		if !p.accept("|") {
			return Flatten(parts...), nil
		}
	}
}

func (p *typeParser) parseIntersection() (UnionType, error) {
	u, err := p.parseAtom()
	if err != nil {
		return UnionType{}, err
	}
	if p.peek() == '&' {
		return UnionType{}, fmt.Errorf("intersection types are not supported")
	}
	return u, nil
}

func (p *typeParser) parseAtom() (UnionType, error) {
	u, err := p.parsePrimary()
	if err != nil {
		return UnionType{}, err
	}
	for p.accept("[]") {
		u = Single(Array)
	}
	return u, nil
}

func (p *typeParser) parsePrimary() (UnionType, error) {
	switch c := p.peek(); {
	case c == 0:
		return UnionType{}, fmt.Errorf("unexpected end of input")
	case c == '?':
		p.pos++
		inner, err := p.parseAtom()
		if err != nil {
			return UnionType{}, err
		}
		return inner.Map(func(m DiscreteType) DiscreteType { return m.withNullable(true) }), nil
	case c == '(':
		p.pos++
		inner, err := p.parseUnion()
		if err != nil {
			return UnionType{}, err
		}
		return inner, p.expect(")")
	case c == '\'' || c == '"':
		if _, err := p.quoted(); err != nil {
			return UnionType{}, err
		}
		return Single(String), nil
	case c == '-' || (c >= '0' && c <= '9'):
		lit := p.ident()
		if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Single(Int), nil
		}
		if _, err := strconv.ParseFloat(lit, 64); err == nil {
			return Single(Float), nil
		}
		return UnionType{}, fmt.Errorf("invalid literal %q", lit)
	}

	name := p.ident()
	if name == "" {
		return UnionType{}, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos:p.pos+1], p.pos)
	}

	switch lower := strings.ToLower(name); lower {
	case "array", "list", "non-empty-array", "non-empty-list":
		if p.peek() == '{' {
			p.pos++
			return p.parseShape()
		}
		return Single(Array), p.skipGenerics()
	case "callable", "closure", "\\closure":
		if p.peek() == '(' {
			p.pos++
			return p.parseSignature()
		}
		if lower == "callable" {
			return Single(Callable), nil
		}
	}

	if u, ok := keywordType(strings.ToLower(name)); ok {
		return u, p.skipGenerics()
	}

	ref := NewClassRef(name)
	if p.peek() == '<' {
		p.pos++
		generics, err := p.parseList(">")
		if err != nil {
			return UnionType{}, err
		}
		ref.Generics = generics
	}
	return Of(ref), nil
}

func keywordType(lower string) (UnionType, bool) {
	switch lower {
	case "mixed":
		return Single(Mixed), true
	case "int", "integer", "positive-int", "negative-int", "non-negative-int", "non-positive-int", "non-zero-int":
		return Single(Int), true
	case "float", "double":
		return Single(Float), true
	case "string", "non-empty-string", "numeric-string", "class-string", "literal-string",
		"callable-string", "lowercase-string", "non-falsy-string", "truthy-string":
		return Single(String), true
	case "bool", "boolean":
		return Single(Bool), true
	case "true":
		return Single(True), true
	case "false":
		return Single(False), true
	case "null":
		return Single(Null), true
	case "void":
		return Single(Void), true
	case "never", "never-return", "never-returns", "no-return", "noreturn":
		return Single(Never), true
	case "iterable":
		return Single(Iterable), true
	case "object":
		return Single(Object), true
	case "resource", "closed-resource", "open-resource":
		return Single(Resource), true
	case "self":
		return Single(Self), true
	case "static", "$this":
		return Single(Static), true
	case "parent":
		return Single(Parent), true
	case "array-key":
		return Of(Scalar{Kind: Int}, Scalar{Kind: String}), true
	case "number", "numeric":
		return Of(Scalar{Kind: Int}, Scalar{Kind: Float}), true
	case "scalar":
		return Of(Scalar{Kind: Int}, Scalar{Kind: Float}, Scalar{Kind: String}, Scalar{Kind: Bool}), true
	}
	return UnionType{}, false
}

// skipGenerics consumes an optional <...> suffix whose arguments carry no
// information for the kinds that accept them (int<0, max>, array<int, Foo>).
func (p *typeParser) skipGenerics() error {
	if p.peek() != '<' {
		return nil
	}
	p.pos++
	_, err := p.parseList(">")
	return err
}

func (p *typeParser) parseList(closing string) ([]UnionType, error) {
	var items []UnionType
	if p.accept(closing) {
		return items, nil
	}
	for {
		item, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.accept(closing) {
			return items, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *typeParser) quoted() (string, error) {
	p.skipSpace()
	quote := p.src[p.pos]
	end := strings.IndexByte(p.src[p.pos+1:], quote)
	if end < 0 {
		return "", fmt.Errorf("unterminated string literal")
	}
	s := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return s, nil
}

func (p *typeParser) parseShape() (UnionType, error) {
	shape := Shape{}
	var next int64
	for {
		if p.accept("}") {
			return Of(shape), nil
		}
		if p.accept("...") {
			if err := p.expect("}"); err != nil {
				return UnionType{}, err
			}
			return Of(shape), nil
		}

		key, optional, keyed := p.shapeKey()
		if !keyed {
			key = IndexKey(next)
		}
		if key.IsIndex && key.Index >= next {
			next = key.Index + 1
		}

		t, err := p.parseUnion()
		if err != nil {
			return UnionType{}, err
		}
		shape.Entries = append(shape.Entries, ShapeEntry{Key: key, Type: t, Optional: optional})

		if p.accept("}") {
			return Of(shape), nil
		}
		if err := p.expect(","); err != nil {
			return UnionType{}, err
		}
	}
}

// shapeKey reads "key:" or "key?:" and reports whether a key was present.
// Without a key the position is restored so the entry parses as a positional type.
func (p *typeParser) shapeKey() (ShapeKey, bool, bool) {
	start := p.pos
	var raw string
	var isString bool
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		s, err := p.quoted()
		if err != nil {
			p.pos = start
			return ShapeKey{}, false, false
		}
		raw, isString = s, true
	default:
		raw = p.ident()
	}
	if raw == "" {
		p.pos = start
		return ShapeKey{}, false, false
	}
	optional := p.accept("?:")
	if !optional && !p.accept(":") {
		p.pos = start
		return ShapeKey{}, false, false
	}
	if !isString {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IndexKey(n), optional, true
		}
	}
	return StringKey(raw), optional, true
}

func (p *typeParser) parseSignature() (UnionType, error) {
	sig := Signature{}
	for !p.accept(")") {
		arg, err := p.parseUnion()
		if err != nil {
			return UnionType{}, err
		}
		sig.Args = append(sig.Args, arg)
		p.accept("&")
		p.accept("...")
		if p.peek() == '$' {
			p.ident()
		}
		p.accept("=")
		if p.accept(")") {
			break
		}
		if err := p.expect(","); err != nil {
			return UnionType{}, err
		}
	}
	if p.accept(":") {
		ret, err := p.parseAtom()
		if err != nil {
			return UnionType{}, err
		}
		sig.Return = &ret
	}
	return Of(sig), nil
}

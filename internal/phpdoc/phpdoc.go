// Package phpdoc extracts structured facts from PHP doc comments.
package phpdoc

import (
	"regexp"
	"strings"

	"github.com/shopware/phpflow/internal/ast"
)

// Kind classifies a doc comment entry.
type Kind uint8

const (
	// Description is free text before the first tag.
	Description Kind = iota
	// General is any other tag, or free text after a tag.
	General
	Var
	Param
	Return
)

func (k Kind) String() string {
	switch k {
	case Description:
		return "description"
	case General:
		return "general"
	case Var:
		return "var"
	case Param:
		return "param"
	case Return:
		return "return"
	}
	return "unknown"
}

// Entry is one line-level fact of a doc comment.
type Entry struct {
	Kind Kind
	// Tag is the tag name without "@", empty for description lines.
	Tag string
	// Type is the raw type text of @var, @param and @return.
	Type string
	// Variable is the variable name without "$".
	Variable string
	Text     string
	// Line and Column locate the entry inside the comment, zero-based.
	Line   int
	Column int
}

// Range converts the entry position into a source range, given the range of the
// comment it was parsed from.
func (e Entry) Range(comment ast.Range) ast.Range {
	start := ast.Position{Line: comment.Start.Line + e.Line, Column: e.Column}
	if e.Line == 0 {
		start.Column += comment.Start.Column
	}
	end := start
	end.Column += len(e.source())
	return ast.Range{Start: start, End: end}
}

func (e Entry) source() string {
	if e.Tag == "" {
		return e.Text
	}
	parts := []string{"@" + e.Tag}
	if e.Type != "" {
		parts = append(parts, e.Type)
	}
	if e.Variable != "" {
		parts = append(parts, "$"+e.Variable)
	}
	if e.Text != "" {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}

// prefixed reports whether the tag is a tool-specific variant such as @phpstan-var.
func (e Entry) prefixed() bool {
	return strings.Contains(e.Tag, "-")
}

// Block is a parsed doc comment.
type Block struct {
	Entries []Entry
}

var tagPattern = regexp.MustCompile(`^@([A-Za-z][A-Za-z0-9_\\-]*)`)

var variablePattern = regexp.MustCompile(`^(?:&\s*)?(?:\.\.\.)?\$([A-Za-z_\x80-\xff][A-Za-z0-9_\x80-\xff]*)`)

// Parse splits a doc comment into entries. The text may include the
// surrounding /** and */ markers.
func Parse(text string) *Block {
	block := &Block{}
	seenTag := false

	for i, raw := range strings.Split(text, "\n") {
		line, col := stripDecoration(raw, i == 0)
		if line == "" {
			continue
		}

		m := tagPattern.FindStringSubmatch(line)
		if m == nil {
			kind := Description
			if seenTag {
				kind = General
			}
			block.Entries = append(block.Entries, Entry{Kind: kind, Text: line, Line: i, Column: col})
			continue
		}

		seenTag = true
		entry := Entry{Kind: General, Tag: m[1], Line: i, Column: col}
		rest := strings.TrimSpace(line[len(m[0]):])

		switch tagKind(m[1]) {
		case Var:
			entry.Kind = Var
			entry.Type, entry.Variable, entry.Text = typeAndVariable(rest, true)
		case Param:
			entry.Kind = Param
			entry.Type, entry.Variable, entry.Text = typeAndVariable(rest, false)
		case Return:
			entry.Kind = Return
			entry.Type, rest = splitType(rest)
			entry.Text = rest
		default:
			entry.Text = rest
		}
		block.Entries = append(block.Entries, entry)
	}

	return block
}

func tagKind(tag string) Kind {
	name := strings.ToLower(tag)
	for _, prefix := range []string{"phpstan-", "psalm-", "phan-"} {
		name = strings.TrimPrefix(name, prefix)
	}
	switch name {
	case "var":
		return Var
	case "param":
		return Param
	case "return":
		return Return
	}
	return General
}

// stripDecoration removes comment markers and the leading "*" of a line. It returns
// the remaining text and its byte column in the original line.
func stripDecoration(line string, first bool) (string, int) {
	col := 0
	if first {
		if i := strings.Index(line, "/**"); i >= 0 {
			col = i + 3
		}
	}
	line = strings.TrimRight(line, " \t\r")
	line = strings.TrimSuffix(line, "*/")

	if col > len(line) {
		return "", col
	}
	rest := line[col:]
	trimmed := strings.TrimLeft(rest, " \t")
	col += len(rest) - len(trimmed)
	if !first && strings.HasPrefix(trimmed, "*") {
		trimmed = trimmed[1:]
		col++
		inner := strings.TrimLeft(trimmed, " \t")
		col += len(trimmed) - len(inner)
		trimmed = inner
	}
	return strings.TrimSpace(trimmed), col
}

// typeAndVariable splits "Type $name text". A missing type is accepted, and so
// is the legacy "$name Type" order when allowLegacy is set.
func typeAndVariable(rest string, allowLegacy bool) (typ, variable, text string) {
	if m := variablePattern.FindStringSubmatch(rest); m != nil {
		variable = m[1]
		rest = strings.TrimSpace(rest[len(m[0]):])
		if allowLegacy && rest != "" {
			typ, rest = splitType(rest)
		}
		return typ, variable, rest
	}

	typ, rest = splitType(rest)
	if m := variablePattern.FindStringSubmatch(rest); m != nil {
		variable = m[1]
		rest = strings.TrimSpace(rest[len(m[0]):])
	}
	return typ, variable, rest
}

// splitType reads one type expression off the front of s. Whitespace inside
// brackets, around "|" and "&", and after the ":" of a callable return type stays
// part of the type.
func splitType(s string) (string, string) {
	depth := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '<', '{', '(', '[':
			depth++
		case '>', '}', ')', ']':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth > 0 {
				break
			}
			next := strings.TrimLeft(s[i:], " \t")
			prev := s[i-1]
			if next != "" && (next[0] == '|' || next[0] == '&' && !isVariableStart(next[1:]) || next[0] == ':' && prev == ')') {
				i = len(s) - len(next)
				continue
			}
			if prev == '|' || prev == '&' || prev == ':' {
				i = len(s) - len(next)
				continue
			}
			return s[:i], strings.TrimSpace(s[i:])
		}
		i++
	}
	return s, ""
}

func isVariableStart(s string) bool {
	s = strings.TrimLeft(s, " \t.")
	return strings.HasPrefix(s, "$")
}

// VarType returns the @var type for the variable. A @var without a variable name
// applies to whatever the comment annotates, so it matches any name.
func (b *Block) VarType(name string) (string, bool) {
	return b.lookup(Var, func(e Entry) bool {
		return e.Variable == "" || e.Variable == name
	})
}

// ParamType returns the @param type of the named parameter.
func (b *Block) ParamType(name string) (string, bool) {
	return b.lookup(Param, func(e Entry) bool {
		return e.Variable == name
	})
}

// ReturnType returns the @return type.
func (b *Block) ReturnType() (string, bool) {
	return b.lookup(Return, func(Entry) bool { return true })
}

// Summary joins the description lines.
func (b *Block) Summary() string {
	var lines []string
	for _, e := range b.Entries {
		if e.Kind == Description {
			lines = append(lines, e.Text)
		}
	}
	return strings.Join(lines, " ")
}

// lookup prefers tool-specific tags, which usually carry the more precise type.
func (b *Block) lookup(kind Kind, match func(Entry) bool) (string, bool) {
	if b == nil {
		return "", false
	}
	found := ""
	ok := false
	for _, e := range b.Entries {
		if e.Kind != kind || e.Type == "" || !match(e) {
			continue
		}
		if e.prefixed() {
			return e.Type, true
		}
		if !ok {
			found, ok = e.Type, true
		}
	}
	return found, ok
}

// Find returns the first entry of the given kind that annotates the variable.
func (b *Block) Find(kind Kind, variable string) (Entry, bool) {
	if b == nil {
		return Entry{}, false
	}
	for _, e := range b.Entries {
		if e.Kind == kind && (variable == "" || e.Variable == "" || e.Variable == variable) {
			return e, true
		}
	}
	return Entry{}, false
}

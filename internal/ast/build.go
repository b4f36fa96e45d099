package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// NewParser returns a tree-sitter parser configured for PHP. The caller must Close it.
func NewParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return parser, nil
}

// Parse parses src with a fresh parser and builds the typed tree.
// The returned File is always usable; the error joins every KindError found.
func Parse(src []byte) (*File, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()
	return ParseWith(parser, src)
}

// ParseWith parses src with an existing parser, which must not be shared between goroutines.
func ParseWith(parser *tree_sitter.Parser, src []byte) (*File, error) {
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse source")
	}
	defer tree.Close()
	return Build(tree.RootNode(), src)
}

// Build converts a concrete PHP syntax tree into typed records. Statements that
// contain syntax errors are replaced by BadStmt or BadExpr and reported as
// *KindError values joined into the returned error.
func Build(root *tree_sitter.Node, src []byte) (*File, error) {
	b := &builder{src: src}
	file := &File{Loc: b.rangeOf(root)}
	file.Stmts = b.statements(b.named(root))
	return file, errors.Join(b.errs...)
}

type builder struct {
	src  []byte
	errs []error
}

func (b *builder) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(b.src)
}

func (b *builder) rangeOf(n *tree_sitter.Node) Range {
	if n == nil {
		return Range{}
	}
	r := n.Range()
	return Range{
		Start: Position{Line: int(r.StartPoint.Row), Column: int(r.StartPoint.Column)},
		End:   Position{Line: int(r.EndPoint.Row), Column: int(r.EndPoint.Column)},
	}
}

// named returns the named children of n, comments included.
func (b *builder) named(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	children := make([]*tree_sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

func withoutComments(nodes []*tree_sitter.Node) []*tree_sitter.Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.Kind() != "comment" {
			out = append(out, n)
		}
	}
	return out
}

func sameNode(a, b *tree_sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func firstOfKind(nodes []*tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for _, n := range nodes {
		for _, k := range kinds {
			if n.Kind() == k {
				return n
			}
		}
	}
	return nil
}

// hasToken reports whether n has a direct anonymous child with the given text.
func (b *builder) hasToken(n *tree_sitter.Node, token string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && strings.EqualFold(b.text(child), token) {
			return true
		}
	}
	return false
}

func (b *builder) docOf(n *tree_sitter.Node) *DocComment {
	text := b.text(n)
	if !strings.HasPrefix(text, "/**") {
		return nil
	}
	return &DocComment{Text: text, Loc: b.rangeOf(n)}
}

// syntaxErrors records a KindError for every ERROR or MISSING node below n and
// returns them joined, or nil when n is clean.
func (b *builder) syntaxErrors(n *tree_sitter.Node) error {
	if n == nil || !(n.HasError() || n.IsMissing()) {
		return nil
	}
	var found []error
	var walk func(*tree_sitter.Node)
	walk = func(node *tree_sitter.Node) {
		switch {
		case node.IsError():
			found = append(found, &KindError{Range: b.rangeOf(node), Expected: "valid syntax", Actual: fmt.Sprintf("%q", truncate(b.text(node)))})
			return
		case node.IsMissing():
			found = append(found, &KindError{Range: b.rangeOf(node), Expected: fmt.Sprintf("%q", node.Kind()), Actual: "nothing"})
			return
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && (child.HasError() || child.IsMissing()) {
				walk(child)
			}
		}
	}
	walk(n)
	b.errs = append(b.errs, found...)
	return errors.Join(found...)
}

// directErrors is syntaxErrors restricted to the direct children of n, for
// container statements whose nested statements report their own errors.
func (b *builder) directErrors(n *tree_sitter.Node) error {
	var found []error
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && (child.IsError() || child.IsMissing()) {
			if err := b.syntaxErrors(child); err != nil {
				found = append(found, err)
			}
		}
	}
	return errors.Join(found...)
}

func truncate(s string) string {
	const limit = 40
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func (b *builder) badStmt(n *tree_sitter.Node, err error) *BadStmt {
	bad := &BadStmt{Err: err}
	bad.Loc = b.rangeOf(n)
	return bad
}

func (b *builder) badExpr(n *tree_sitter.Node, err error) *BadExpr {
	bad := &BadExpr{Err: err}
	bad.Loc = b.rangeOf(n)
	return bad
}

// missing records a structural KindError for a required child that is absent.
func (b *builder) missing(parent *tree_sitter.Node, expected string) *BadExpr {
	err := &KindError{Range: b.rangeOf(parent), Expected: expected, Actual: "nothing"}
	b.errs = append(b.errs, err)
	return b.badExpr(parent, err)
}

type docSetter interface {
	setDoc(*DocComment)
}

// statements converts a run of sibling statement nodes, attaching doc comments
// to the statement that follows them.
func (b *builder) statements(nodes []*tree_sitter.Node) []Stmt {
	var stmts []Stmt
	var pending *DocComment
	for _, n := range nodes {
		if n.Kind() == "comment" {
			if doc := b.docOf(n); doc != nil {
				pending = doc
			}
			continue
		}
		s := b.stmt(n)
		if s == nil {
			continue
		}
		if pending != nil {
			if ds, ok := s.(docSetter); ok {
				ds.setDoc(pending)
			}
			pending = nil
		}
		stmts = append(stmts, s)
	}
	return stmts
}

// body converts a loop or branch body, which is a braced block, a colon block
// or a single statement.
func (b *builder) body(n *tree_sitter.Node) []Stmt {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "compound_statement", "colon_block":
		return b.statements(b.named(n))
	}
	if s := b.stmt(n); s != nil {
		return []Stmt{s}
	}
	return nil
}

func (b *builder) stmt(n *tree_sitter.Node) Stmt {
	if n.IsError() {
		return b.badStmt(n, b.syntaxErrors(n))
	}

	switch n.Kind() {
	case "php_tag", "empty_statement", "comment":
		return nil
	case "text_interpolation", "text":
		s := &InlineHTML{Text: b.text(n)}
		s.Loc = b.rangeOf(n)
		return s
	case "compound_statement":
		s := &Block{Stmts: b.statements(b.named(n))}
		s.Loc = b.rangeOf(n)
		return s
	case "if_statement":
		return b.ifStmt(n)
	case "while_statement":
		return b.whileStmt(n)
	case "do_statement":
		return b.doStmt(n)
	case "for_statement":
		return b.forStmt(n)
	case "foreach_statement":
		return b.foreachStmt(n)
	case "switch_statement":
		return b.switchStmt(n)
	case "try_statement":
		return b.tryStmt(n)
	case "function_definition":
		return b.functionDecl(n)
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		return b.classDecl(n)
	case "namespace_definition":
		return b.namespace(n)
	}

	// The remaining statements have no nested statements, so any syntax error
	// inside them replaces the whole statement.
	if err := b.syntaxErrors(n); err != nil {
		return b.badStmt(n, err)
	}

	switch n.Kind() {
	case "expression_statement":
		children := withoutComments(b.named(n))
		if len(children) == 0 {
			return nil
		}
		s := &ExprStmt{X: b.expr(children[0])}
		s.Loc = b.rangeOf(n)
		return s
	case "echo_statement":
		s := &Echo{}
		s.Loc = b.rangeOf(n)
		for _, child := range withoutComments(b.named(n)) {
			s.Exprs = append(s.Exprs, b.sequence(child)...)
		}
		return s
	case "return_statement":
		s := &Return{}
		s.Loc = b.rangeOf(n)
		if children := withoutComments(b.named(n)); len(children) > 0 {
			s.Value = b.expr(children[0])
		}
		return s
	case "break_statement":
		s := &Break{Levels: b.levels(n)}
		s.Loc = b.rangeOf(n)
		return s
	case "continue_statement":
		s := &Continue{Levels: b.levels(n)}
		s.Loc = b.rangeOf(n)
		return s
	case "global_declaration":
		s := &Global{}
		s.Loc = b.rangeOf(n)
		for _, child := range withoutComments(b.named(n)) {
			if child.Kind() == "variable_name" {
				s.Names = append(s.Names, strings.TrimPrefix(b.text(child), "$"))
			}
		}
		return s
	case "function_static_declaration":
		s := &Static{}
		s.Loc = b.rangeOf(n)
		for _, child := range withoutComments(b.named(n)) {
			if child.Kind() != "static_variable_declaration" {
				continue
			}
			v := StaticVar{Loc: b.rangeOf(child)}
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				nameNode = firstOfKind(b.named(child), "variable_name")
			}
			v.Name = strings.TrimPrefix(b.text(nameNode), "$")
			if value := child.ChildByFieldName("value"); value != nil {
				v.Default = b.expr(value)
			}
			s.Vars = append(s.Vars, v)
		}
		return s
	case "unset_statement":
		s := &Unset{}
		s.Loc = b.rangeOf(n)
		for _, child := range withoutComments(b.named(n)) {
			s.Targets = append(s.Targets, b.expr(child))
		}
		return s
	case "namespace_use_declaration":
		return b.useDecl(n)
	}

	s := &UnsupportedStmt{Production: n.Kind()}
	s.Loc = b.rangeOf(n)
	return s
}

func (b *builder) levels(n *tree_sitter.Node) int {
	children := withoutComments(b.named(n))
	if len(children) > 0 && children[0].Kind() == "integer" {
		if v, err := strconv.Atoi(b.text(children[0])); err == nil && v > 0 {
			return v
		}
	}
	return 1
}

// condition unwraps the parenthesized condition of a control statement.
func (b *builder) condition(n *tree_sitter.Node) Expr {
	cond := n.ChildByFieldName("condition")
	if cond == nil {
		return b.missing(n, "condition")
	}
	return b.expr(cond)
}

func (b *builder) ifStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &If{Cond: b.condition(n), Then: b.body(n.ChildByFieldName("body"))}
	s.Loc = b.rangeOf(n)

	for _, child := range b.named(n) {
		switch child.Kind() {
		case "else_if_clause":
			s.ElseIfs = append(s.ElseIfs, ElseIf{
				Cond: b.condition(child),
				Body: b.body(child.ChildByFieldName("body")),
				Loc:  b.rangeOf(child),
			})
		case "else_clause":
			s.HasElse = true
			s.Else = b.body(child.ChildByFieldName("body"))
		}
	}
	return s
}

func (b *builder) whileStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &While{Cond: b.condition(n), Body: b.body(n.ChildByFieldName("body"))}
	s.Loc = b.rangeOf(n)
	return s
}

func (b *builder) doStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &DoWhile{Body: b.body(n.ChildByFieldName("body")), Cond: b.condition(n)}
	s.Loc = b.rangeOf(n)
	return s
}

// forStmt splits the header on its semicolons because the three sections are
// optional and not reliably addressable by field.
func (b *builder) forStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &For{}
	s.Loc = b.rangeOf(n)

	var sections [3][]Expr
	section, opened, closed := 0, false, false
	var bodyNodes []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			switch child.Kind() {
			case "(":
				if !opened {
					opened = true
				}
			case ";":
				if opened && !closed && section < 2 {
					section++
				}
			case ")":
				if opened && !closed {
					closed = true
				}
			}
			continue
		}
		if child.Kind() == "comment" {
			continue
		}
		if !closed {
			sections[section] = append(sections[section], b.sequence(child)...)
		} else {
			bodyNodes = append(bodyNodes, child)
		}
	}

	s.Init, s.Cond, s.Update = sections[0], sections[1], sections[2]
	if len(bodyNodes) == 1 {
		s.Body = b.body(bodyNodes[0])
	} else {
		s.Body = b.statements(bodyNodes)
	}
	return s
}

func (b *builder) foreachStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &Foreach{}
	s.Loc = b.rangeOf(n)

	children := withoutComments(b.named(n))
	if len(children) < 2 {
		s.Subject = b.missing(n, "foreach subject and binding")
		return s
	}
	s.Subject = b.expr(children[0])

	binding := children[1]
	if binding.Kind() == "pair" {
		parts := withoutComments(b.named(binding))
		if len(parts) == 2 {
			s.Key = b.expr(parts[0])
			binding = parts[1]
		}
	}
	if binding.Kind() == "by_ref" {
		s.ByRef = true
		if inner := withoutComments(b.named(binding)); len(inner) > 0 {
			binding = inner[0]
		}
	}
	s.Value = b.expr(binding)

	if body := n.ChildByFieldName("body"); body != nil {
		s.Body = b.body(body)
	} else if len(children) > 2 {
		rest := children[2:]
		if len(rest) == 1 {
			s.Body = b.body(rest[0])
		} else {
			s.Body = b.statements(rest)
		}
	}
	return s
}

func (b *builder) switchStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &Switch{Subject: b.condition(n)}
	s.Loc = b.rangeOf(n)

	block := n.ChildByFieldName("body")
	if block == nil {
		block = firstOfKind(b.named(n), "switch_block")
	}
	for _, arm := range b.named(block) {
		switch arm.Kind() {
		case "case_statement":
			value := arm.ChildByFieldName("value")
			var rest []*tree_sitter.Node
			for _, child := range b.named(arm) {
				if sameNode(child, value) {
					continue
				}
				if value == nil && len(rest) == 0 && child.Kind() != "comment" {
					// first expression is the case value when the field is unavailable
					value = child
					continue
				}
				rest = append(rest, child)
			}
			c := Case{Body: b.statements(rest), Loc: b.rangeOf(arm)}
			if value != nil {
				c.Cond = b.expr(value)
			} else {
				c.Cond = b.missing(arm, "case value")
			}
			s.Cases = append(s.Cases, c)
		case "default_statement":
			s.Cases = append(s.Cases, Case{Body: b.statements(b.named(arm)), Loc: b.rangeOf(arm)})
		}
	}
	return s
}

func (b *builder) tryStmt(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &Try{Body: b.body(n.ChildByFieldName("body"))}
	s.Loc = b.rangeOf(n)

	for _, child := range b.named(n) {
		switch child.Kind() {
		case "catch_clause":
			c := Catch{Loc: b.rangeOf(child), Body: b.body(child.ChildByFieldName("body"))}
			if types := child.ChildByFieldName("type"); types != nil {
				if types.Kind() == "type_list" {
					for _, t := range withoutComments(b.named(types)) {
						c.Types = append(c.Types, b.text(t))
					}
				} else {
					c.Types = append(c.Types, b.text(types))
				}
			}
			if name := child.ChildByFieldName("name"); name != nil {
				c.Var = strings.TrimPrefix(b.text(name), "$")
			}
			s.Catches = append(s.Catches, c)
		case "finally_clause":
			s.HasFinally = true
			s.Finally = b.body(child.ChildByFieldName("body"))
		}
	}
	return s
}

func (b *builder) params(n *tree_sitter.Node) []Param {
	var params []Param
	var pending *DocComment
	for _, child := range b.named(n) {
		switch child.Kind() {
		case "comment":
			if doc := b.docOf(child); doc != nil {
				pending = doc
			}
			continue
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}

		p := Param{
			Loc:      b.rangeOf(child),
			Doc:      pending,
			Variadic: child.Kind() == "variadic_parameter",
			Promoted: child.Kind() == "property_promotion_parameter",
			ByRef:    child.ChildByFieldName("reference_modifier") != nil || b.hasToken(child, "&"),
		}
		pending = nil

		nameNode := child.ChildByFieldName("name")
		if nameNode != nil && nameNode.Kind() == "by_ref" {
			p.ByRef = true
			nameNode = firstOfKind(b.named(nameNode), "variable_name")
		}
		if nameNode == nil {
			nameNode = firstOfKind(b.named(child), "variable_name")
		}
		p.Name = strings.TrimPrefix(b.text(nameNode), "$")

		if t := child.ChildByFieldName("type"); t != nil {
			p.Type = b.text(t)
		}
		if def := child.ChildByFieldName("default_value"); def != nil {
			p.Default = b.expr(def)
		}
		params = append(params, p)
	}
	return params
}

func (b *builder) returnType(n *tree_sitter.Node) string {
	return b.text(n.ChildByFieldName("return_type"))
}

func (b *builder) functionDecl(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &FunctionDecl{
		Name:       b.text(n.ChildByFieldName("name")),
		Params:     b.params(n.ChildByFieldName("parameters")),
		ReturnType: b.returnType(n),
		Body:       b.body(n.ChildByFieldName("body")),
		ByRef:      firstOfKind(b.named(n), "reference_modifier") != nil || b.hasToken(n, "&"),
	}
	s.Loc = b.rangeOf(n)
	return s
}

func (b *builder) classDecl(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &ClassDecl{
		Name: b.text(n.ChildByFieldName("name")),
		Type: strings.TrimSuffix(n.Kind(), "_declaration"),
	}
	s.Loc = b.rangeOf(n)

	for _, child := range b.named(n) {
		switch child.Kind() {
		case "base_clause":
			s.Extends = append(s.Extends, b.names(child)...)
		case "class_interface_clause":
			s.Implements = append(s.Implements, b.names(child)...)
		case "abstract_modifier":
			s.Abstract = true
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = firstOfKind(b.named(n), "declaration_list", "enum_declaration_list")
	}
	var pending *DocComment
	for _, member := range b.named(body) {
		switch member.Kind() {
		case "comment":
			if doc := b.docOf(member); doc != nil {
				pending = doc
			}
			continue
		case "method_declaration":
			m := b.methodDecl(member)
			m.Comment = pending
			s.Methods = append(s.Methods, m)
		case "property_declaration":
			props := b.propertyDecl(member)
			for _, p := range props {
				p.Comment = pending
			}
			s.Properties = append(s.Properties, props...)
		case "const_declaration":
			for _, element := range b.named(member) {
				if element.Kind() != "const_element" {
					continue
				}
				parts := withoutComments(b.named(element))
				if len(parts) < 2 {
					continue
				}
				c := &ClassConst{Name: b.text(parts[0]), Value: b.expr(parts[len(parts)-1])}
				c.Loc = b.rangeOf(element)
				c.Comment = pending
				s.Consts = append(s.Consts, c)
			}
		}
		pending = nil
	}
	return s
}

func (b *builder) names(n *tree_sitter.Node) []string {
	var names []string
	for _, child := range b.named(n) {
		switch child.Kind() {
		case "name", "qualified_name", "relative_name":
			names = append(names, b.text(child))
		}
	}
	return names
}

func (b *builder) methodDecl(n *tree_sitter.Node) *MethodDecl {
	m := &MethodDecl{
		Name:       b.text(n.ChildByFieldName("name")),
		Params:     b.params(n.ChildByFieldName("parameters")),
		ReturnType: b.returnType(n),
	}
	m.Loc = b.rangeOf(n)
	for _, child := range b.named(n) {
		switch child.Kind() {
		case "static_modifier":
			m.Static = true
		case "abstract_modifier":
			m.Abstract = true
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		m.Body = b.statements(b.named(body))
		if m.Body == nil {
			m.Body = []Stmt{}
		}
	}
	return m
}

func (b *builder) propertyDecl(n *tree_sitter.Node) []*PropertyDecl {
	typeText := b.text(n.ChildByFieldName("type"))
	static := firstOfKind(b.named(n), "static_modifier") != nil

	var props []*PropertyDecl
	for _, element := range b.named(n) {
		if element.Kind() != "property_element" {
			continue
		}
		nameNode := element.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = firstOfKind(b.named(element), "variable_name")
		}
		p := &PropertyDecl{
			Name:   strings.TrimPrefix(b.text(nameNode), "$"),
			Type:   typeText,
			Static: static,
		}
		p.Loc = b.rangeOf(element)
		if def := element.ChildByFieldName("default_value"); def != nil {
			p.Default = b.expr(def)
		} else if init := firstOfKind(b.named(element), "property_initializer"); init != nil {
			if parts := withoutComments(b.named(init)); len(parts) > 0 {
				p.Default = b.expr(parts[0])
			}
		}
		props = append(props, p)
	}
	return props
}

func (b *builder) namespace(n *tree_sitter.Node) Stmt {
	if err := b.directErrors(n); err != nil {
		return b.badStmt(n, err)
	}
	s := &Namespace{Name: b.text(n.ChildByFieldName("name"))}
	s.Loc = b.rangeOf(n)
	if body := n.ChildByFieldName("body"); body != nil {
		s.Braced = true
		s.Body = b.statements(b.named(body))
	}
	return s
}

func (b *builder) useDecl(n *tree_sitter.Node) Stmt {
	s := &Use{}
	s.Loc = b.rangeOf(n)

	children := b.named(n)
	// the import type sits on the declaration or on its first clause depending on the form
	for _, holder := range append([]*tree_sitter.Node{n}, children...) {
		if s.Type != "" {
			break
		}
		if t := holder.ChildByFieldName("type"); t != nil {
			s.Type = strings.ToLower(b.text(t))
		} else if b.hasToken(holder, "function") {
			s.Type = "function"
		} else if b.hasToken(holder, "const") {
			s.Type = "const"
		}
	}

	if group := firstOfKind(children, "namespace_use_group"); group != nil {
		prefix := ""
		if ns := firstOfKind(children, "namespace_name"); ns != nil {
			prefix = b.text(ns) + `\`
		}
		for _, clause := range b.named(group) {
			if item, ok := b.useItem(clause); ok {
				item.Name = prefix + item.Name
				s.Items = append(s.Items, item)
			}
		}
		return s
	}

	for _, clause := range children {
		if item, ok := b.useItem(clause); ok {
			s.Items = append(s.Items, item)
		}
	}
	return s
}

func (b *builder) useItem(clause *tree_sitter.Node) (UseItem, bool) {
	switch clause.Kind() {
	case "namespace_use_clause", "namespace_use_group_clause":
	default:
		return UseItem{}, false
	}
	parts := withoutComments(b.named(clause))
	if len(parts) == 0 {
		return UseItem{}, false
	}
	item := UseItem{Name: b.text(parts[0])}
	if alias := clause.ChildByFieldName("alias"); alias != nil && !sameNode(alias, parts[0]) {
		item.Alias = b.text(alias)
	} else if aliasing := firstOfKind(parts, "namespace_aliasing_clause"); aliasing != nil {
		item.Alias = b.text(firstOfKind(b.named(aliasing), "name"))
	} else if len(parts) > 1 && parts[len(parts)-1].Kind() == "name" {
		item.Alias = b.text(parts[len(parts)-1])
	}
	return item, true
}

// sequence flattens comma separated expression lists.
func (b *builder) sequence(n *tree_sitter.Node) []Expr {
	if n.Kind() != "sequence_expression" {
		return []Expr{b.expr(n)}
	}
	var exprs []Expr
	for _, child := range withoutComments(b.named(n)) {
		exprs = append(exprs, b.sequence(child)...)
	}
	return exprs
}

package ast

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func (b *builder) expr(n *tree_sitter.Node) Expr {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return b.badExpr(n, b.syntaxErrors(n))
	}
	// Closure bodies hold statements that report their own errors.
	if n.HasError() && n.Kind() != "anonymous_function" && n.Kind() != "anonymous_function_creation_expression" && n.Kind() != "arrow_function" {
		return b.badExpr(n, b.syntaxErrors(n))
	}

	loc := b.rangeOf(n)
	switch n.Kind() {
	case "parenthesized_expression":
		children := withoutComments(b.named(n))
		if len(children) == 0 {
			return b.missing(n, "expression")
		}
		return b.expr(children[0])
	case "error_suppression_expression":
		e := &Unary{Op: "@", Operand: b.firstExpr(n)}
		e.Loc = loc
		return e
	case "variable_name":
		e := &Variable{Name: strings.TrimPrefix(b.text(n), "$")}
		e.Loc = loc
		return e
	case "integer":
		return b.intLit(n)
	case "float":
		f, _ := strconv.ParseFloat(strings.ReplaceAll(b.text(n), "_", ""), 64)
		e := &FloatLit{Value: f}
		e.Loc = loc
		return e
	case "string":
		e := &StringLit{Value: unquoteSingle(b.text(n))}
		e.Loc = loc
		return e
	case "encapsed_string":
		return b.encapsed(n)
	case "heredoc", "nowdoc":
		e := &StringLit{Interpolated: true, Parts: b.stringParts(n)}
		e.Loc = loc
		return e
	case "boolean":
		e := &BoolLit{Value: strings.EqualFold(b.text(n), "true")}
		e.Loc = loc
		return e
	case "null":
		e := &NullLit{}
		e.Loc = loc
		return e
	case "name", "qualified_name", "relative_name":
		e := &Name{Value: b.text(n)}
		e.Loc = loc
		return e
	case "assignment_expression", "reference_assignment_expression":
		e := &Assign{
			Target: b.field(n, "left", "assignment target"),
			Value:  b.field(n, "right", "assigned value"),
			ByRef:  n.Kind() == "reference_assignment_expression",
		}
		e.Loc = loc
		return e
	case "augmented_assignment_expression":
		op := b.text(n.ChildByFieldName("operator"))
		e := &CompoundAssign{
			Op:     strings.TrimSuffix(op, "="),
			Target: b.field(n, "left", "assignment target"),
			Value:  b.field(n, "right", "assigned value"),
		}
		e.Loc = loc
		return e
	case "binary_expression":
		opNode := n.ChildByFieldName("operator")
		e := &Binary{
			Op:    strings.ToLower(b.text(opNode)),
			Left:  b.field(n, "left", "left operand"),
			Right: b.field(n, "right", "right operand"),
			OpLoc: b.rangeOf(opNode),
		}
		e.Loc = loc
		return e
	case "unary_op_expression":
		return b.unary(n)
	case "update_expression":
		return b.update(n)
	case "conditional_expression":
		e := &Ternary{
			Cond: b.field(n, "condition", "condition"),
			Then: b.expr(n.ChildByFieldName("body")),
			Else: b.field(n, "alternative", "alternative"),
		}
		e.Loc = loc
		return e
	case "function_call_expression":
		e := &Call{
			Function: b.field(n, "function", "function name"),
			Args:     b.args(n.ChildByFieldName("arguments")),
		}
		e.Loc = loc
		return e
	case "member_call_expression", "nullsafe_member_call_expression":
		e := &MethodCall{
			Object:   b.field(n, "object", "object"),
			Method:   b.memberName(n.ChildByFieldName("name")),
			Args:     b.args(n.ChildByFieldName("arguments")),
			NullSafe: strings.HasPrefix(n.Kind(), "nullsafe"),
		}
		e.Loc = loc
		return e
	case "scoped_call_expression":
		e := &StaticCall{
			Class:  b.text(n.ChildByFieldName("scope")),
			Method: b.memberName(n.ChildByFieldName("name")),
			Args:   b.args(n.ChildByFieldName("arguments")),
		}
		e.Loc = loc
		return e
	case "member_access_expression", "nullsafe_member_access_expression":
		e := &PropertyFetch{
			Object:   b.field(n, "object", "object"),
			Property: b.memberName(n.ChildByFieldName("name")),
			NullSafe: strings.HasPrefix(n.Kind(), "nullsafe"),
		}
		e.Loc = loc
		return e
	case "scoped_property_access_expression":
		e := &StaticPropertyFetch{
			Class:    b.text(n.ChildByFieldName("scope")),
			Property: strings.TrimPrefix(b.text(n.ChildByFieldName("name")), "$"),
		}
		e.Loc = loc
		return e
	case "class_constant_access_expression":
		parts := withoutComments(b.named(n))
		e := &ClassConstFetch{}
		e.Loc = loc
		if len(parts) >= 1 {
			e.Class = b.text(parts[0])
		}
		if len(parts) >= 2 {
			e.Const = b.text(parts[len(parts)-1])
		} else {
			// Foo::class has no named constant node
			e.Const = "class"
		}
		return e
	case "object_creation_expression":
		e := &New{}
		e.Loc = loc
		for _, child := range withoutComments(b.named(n)) {
			switch child.Kind() {
			case "arguments":
				e.Args = b.args(child)
			case "name", "qualified_name", "relative_name", "variable_name":
				e.Class = b.text(child)
			}
		}
		return e
	case "array_creation_expression":
		return b.array(n)
	case "subscript_expression":
		parts := withoutComments(b.named(n))
		e := &Index{}
		e.Loc = loc
		if len(parts) == 0 {
			return b.missing(n, "subscript target")
		}
		e.Target = b.expr(parts[0])
		if len(parts) > 1 {
			e.Index = b.expr(parts[1])
		}
		return e
	case "cast_expression":
		e := &Cast{
			Type:    castType(b.text(n.ChildByFieldName("type"))),
			Operand: b.field(n, "value", "cast operand"),
		}
		e.Loc = loc
		return e
	case "anonymous_function", "anonymous_function_creation_expression":
		return b.closure(n)
	case "arrow_function":
		e := &ArrowFunc{
			Params:     b.params(n.ChildByFieldName("parameters")),
			ReturnType: b.returnType(n),
			Body:       b.field(n, "body", "arrow function body"),
			Static:     firstOfKind(b.named(n), "static_modifier") != nil || b.hasToken(n, "static"),
		}
		e.Loc = loc
		return e
	case "throw_expression":
		e := &Throw{Value: b.firstExpr(n)}
		e.Loc = loc
		return e
	}

	e := &UnsupportedExpr{Production: n.Kind()}
	e.Loc = loc
	for _, child := range withoutComments(b.named(n)) {
		if isOperand(child.Kind()) {
			e.Operands = append(e.Operands, b.expr(child))
		}
	}
	return e
}

// isOperand filters the children of an unsupported production down to nodes that
// convert to an expression other than a bare name or another unsupported record.
func isOperand(kind string) bool {
	switch kind {
	case "variable_name", "parenthesized_expression", "assignment_expression",
		"binary_expression", "unary_op_expression", "function_call_expression",
		"member_call_expression", "member_access_expression", "subscript_expression",
		"conditional_expression", "update_expression", "augmented_assignment_expression",
		"cast_expression", "array_creation_expression", "encapsed_string",
		"nullsafe_member_call_expression", "nullsafe_member_access_expression",
		"scoped_call_expression", "object_creation_expression":
		return true
	}
	return false
}

// field converts the named field of n, recording a KindError when it is absent.
func (b *builder) field(n *tree_sitter.Node, name, expected string) Expr {
	child := n.ChildByFieldName(name)
	if child == nil {
		return b.missing(n, expected)
	}
	return b.expr(child)
}

func (b *builder) firstExpr(n *tree_sitter.Node) Expr {
	children := withoutComments(b.named(n))
	if len(children) == 0 {
		return b.missing(n, "expression")
	}
	return b.expr(children[len(children)-1])
}

func (b *builder) memberName(n *tree_sitter.Node) string {
	if n == nil || n.Kind() != "name" {
		// dynamic member names cannot be resolved statically
		return ""
	}
	return b.text(n)
}

func (b *builder) intLit(n *tree_sitter.Node) Expr {
	text := b.text(n)
	loc := b.rangeOf(n)
	normalized := text
	// a leading zero is octal in PHP
	if len(normalized) > 1 && normalized[0] == '0' && normalized[1] >= '0' && normalized[1] <= '9' {
		normalized = "0o" + normalized[1:]
	}
	v, err := strconv.ParseInt(normalized, 0, 64)
	if err != nil {
		// integer overflow turns the literal into a float
		f, _ := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		e := &FloatLit{Value: f}
		e.Loc = loc
		return e
	}
	e := &IntLit{Value: v}
	e.Loc = loc
	return e
}

func (b *builder) unary(n *tree_sitter.Node) Expr {
	e := &Unary{}
	e.Loc = b.rangeOf(n)
	if op := n.ChildByFieldName("operator"); op != nil {
		e.Op = b.text(op)
	} else if first := n.Child(0); first != nil && !first.IsNamed() {
		e.Op = b.text(first)
	}
	if arg := n.ChildByFieldName("argument"); arg != nil {
		e.Operand = b.expr(arg)
	} else {
		e.Operand = b.firstExpr(n)
	}
	return e
}

func (b *builder) update(n *tree_sitter.Node) Expr {
	e := &IncDec{}
	e.Loc = b.rangeOf(n)
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch text := b.text(child); {
		case !child.IsNamed() && (text == "++" || text == "--"):
			e.Op = text
			e.Prefix = e.Target == nil
		case child.IsNamed() && child.Kind() != "comment" && e.Target == nil:
			e.Target = b.expr(child)
		}
	}
	if e.Target == nil {
		e.Target = b.missing(n, "increment target")
	}
	return e
}

func (b *builder) args(n *tree_sitter.Node) []Arg {
	var args []Arg
	for _, child := range withoutComments(b.named(n)) {
		if child.Kind() != "argument" {
			if child.Kind() == "variadic_placeholder" {
				continue
			}
			args = append(args, Arg{Value: b.expr(child)})
			continue
		}
		parts := withoutComments(b.named(child))
		if len(parts) == 0 {
			continue
		}
		arg := Arg{}
		nameNode := child.ChildByFieldName("name")
		value := parts[len(parts)-1]
		if nameNode != nil && !sameNode(nameNode, value) {
			arg.Name = b.text(nameNode)
		}
		switch value.Kind() {
		case "variadic_unpacking":
			arg.Spread = true
			arg.Value = b.firstExpr(value)
		case "variadic_placeholder":
			continue
		default:
			arg.Value = b.expr(value)
		}
		args = append(args, arg)
	}
	return args
}

func (b *builder) array(n *tree_sitter.Node) Expr {
	e := &ArrayLit{}
	e.Loc = b.rangeOf(n)
	for _, element := range withoutComments(b.named(n)) {
		if element.Kind() != "array_element_initializer" {
			continue
		}
		parts := withoutComments(b.named(element))
		item := ArrayItem{}
		switch len(parts) {
		case 0:
			continue
		case 1:
		default:
			item.Key = b.expr(parts[0])
		}
		value := parts[len(parts)-1]
		switch value.Kind() {
		case "by_ref":
			item.ByRef = true
			item.Value = b.firstExpr(value)
		case "variadic_unpacking":
			item.Spread = true
			item.Value = b.firstExpr(value)
		default:
			item.Value = b.expr(value)
		}
		e.Items = append(e.Items, item)
	}
	return e
}

func (b *builder) closure(n *tree_sitter.Node) Expr {
	e := &Closure{
		Params:     b.params(n.ChildByFieldName("parameters")),
		ReturnType: b.returnType(n),
		Static:     firstOfKind(b.named(n), "static_modifier") != nil || b.hasToken(n, "static"),
	}
	e.Loc = b.rangeOf(n)
	if body := n.ChildByFieldName("body"); body != nil {
		e.Body = b.statements(b.named(body))
	}
	if use := firstOfKind(b.named(n), "anonymous_function_use_clause"); use != nil {
		for _, v := range withoutComments(b.named(use)) {
			u := ClosureUse{Loc: b.rangeOf(v)}
			if v.Kind() == "by_ref" {
				u.ByRef = true
				v = firstOfKind(b.named(v), "variable_name")
			}
			if v == nil || v.Kind() != "variable_name" {
				continue
			}
			u.Name = strings.TrimPrefix(b.text(v), "$")
			e.Uses = append(e.Uses, u)
		}
	}
	return e
}

func (b *builder) encapsed(n *tree_sitter.Node) Expr {
	e := &StringLit{Parts: b.stringParts(n)}
	e.Loc = b.rangeOf(n)
	if len(e.Parts) > 0 {
		e.Interpolated = true
		return e
	}
	e.Value = unquoteDouble(b.text(n))
	return e
}

// stringParts collects the embedded expressions of an interpolated string.
func (b *builder) stringParts(n *tree_sitter.Node) []Expr {
	var parts []Expr
	for _, child := range withoutComments(b.named(n)) {
		switch child.Kind() {
		case "string_content", "string_value", "escape_sequence", "heredoc_start", "heredoc_end",
			"nowdoc_string", "text":
		case "heredoc_body", "nowdoc_body":
			parts = append(parts, b.stringParts(child)...)
		default:
			parts = append(parts, b.expr(child))
		}
	}
	return parts
}

func castType(text string) string {
	t := strings.ToLower(strings.Trim(text, "() \t"))
	switch t {
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "double", "real":
		return "float"
	case "binary":
		return "string"
	}
	return t
}

func unquoteSingle(text string) string {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "b"), "B")
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	if !strings.Contains(text, `\`) {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' && i+1 < len(text) && (text[i+1] == '\\' || text[i+1] == '\'') {
			i++
		}
		sb.WriteByte(text[i])
	}
	return sb.String()
}

func unquoteDouble(text string) string {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "b"), "B")
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	if !strings.Contains(text, `\`) {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 >= len(text) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch next := text[i]; next {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'v':
			sb.WriteByte('\v')
		case 'f':
			sb.WriteByte('\f')
		case 'e':
			sb.WriteByte(0x1b)
		case '\\', '$', '"':
			sb.WriteByte(next)
		case 'x':
			end := i + 1
			for end < len(text) && end < i+3 && isHex(text[end]) {
				end++
			}
			if end == i+1 {
				sb.WriteString(`\x`)
				continue
			}
			v, _ := strconv.ParseUint(text[i+1:end], 16, 8)
			sb.WriteByte(byte(v))
			i = end - 1
		default:
			if next >= '0' && next <= '7' {
				end := i
				for end < len(text) && end < i+3 && text[end] >= '0' && text[end] <= '7' {
					end++
				}
				v, _ := strconv.ParseUint(text[i:end], 8, 16)
				sb.WriteByte(byte(v))
				i = end - 1
				continue
			}
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

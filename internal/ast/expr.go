package ast

// Variable is $name. Dynamic variables ($$x) are UnsupportedExpr.
type Variable struct {
	exprBase
	Name string
}

// IntLit is an integer literal in any base.
type IntLit struct {
	exprBase
	Value int64
}

type FloatLit struct {
	exprBase
	Value float64
}

// StringLit is a quoted string, heredoc or nowdoc. Interpolated strings have no
// constant value; their embedded expressions are listed in Parts.
type StringLit struct {
	exprBase
	Value        string
	Interpolated bool
	Parts        []Expr
}

type BoolLit struct {
	exprBase
	Value bool
}

type NullLit struct {
	exprBase
}

// Name is a bare or qualified identifier used as an expression: a constant fetch,
// a called function name or the class operand of instanceof.
type Name struct {
	exprBase
	Value string
}

// Assign is target = value or target = &value.
type Assign struct {
	exprBase
	Target Expr
	Value  Expr
	ByRef  bool
}

// CompoundAssign is target op= value; Op holds the binary operator without "=".
type CompoundAssign struct {
	exprBase
	Op     string
	Target Expr
	Value  Expr
}

// Binary covers arithmetic, comparison, logical, bitwise, ??, . and instanceof.
type Binary struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
	// OpLoc is the range of the operator token.
	OpLoc Range
}

// Unary is one of ! - + ~ or @ applied to an operand.
type Unary struct {
	exprBase
	Op      string
	Operand Expr
}

// IncDec is ++ or -- in prefix or postfix position.
type IncDec struct {
	exprBase
	Op     string
	Prefix bool
	Target Expr
}

// Ternary is cond ? then : else. Then is nil for the short form cond ?: else.
type Ternary struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

// Arg is one call argument.
type Arg struct {
	Name   string
	Value  Expr
	Spread bool
}

// Call is a function call. Function is a *Name for direct calls.
type Call struct {
	exprBase
	Function Expr
	Args     []Arg
}

type MethodCall struct {
	exprBase
	Object   Expr
	Method   string
	Args     []Arg
	NullSafe bool
}

// StaticCall is Class::method(); Class is the written qualifier (self, static, Foo\Bar).
type StaticCall struct {
	exprBase
	Class  string
	Method string
	Args   []Arg
}

type PropertyFetch struct {
	exprBase
	Object   Expr
	Property string
	NullSafe bool
}

type StaticPropertyFetch struct {
	exprBase
	Class    string
	Property string
}

type ClassConstFetch struct {
	exprBase
	Class string
	Const string
}

// New is new Class(args). Class is "$name" for new $name() and empty for anonymous
// classes and other dynamic forms.
type New struct {
	exprBase
	Class string
	Args  []Arg
}

type ArrayItem struct {
	Key    Expr
	Value  Expr
	ByRef  bool
	Spread bool
}

type ArrayLit struct {
	exprBase
	Items []ArrayItem
}

// Index is target[index]. Index is nil for the append form target[].
type Index struct {
	exprBase
	Target Expr
	Index  Expr
}

// Cast is (type) operand with a normalised type name (int, float, string, bool, array, object, unset).
type Cast struct {
	exprBase
	Type    string
	Operand Expr
}

// Param is one function, method or closure parameter.
type Param struct {
	Name     string
	Type     string
	Default  Expr
	ByRef    bool
	Variadic bool
	Promoted bool
	Doc      *DocComment
	Loc      Range
}

// ClosureUse is a variable imported by use (...).
type ClosureUse struct {
	Name  string
	ByRef bool
	Loc   Range
}

type Closure struct {
	exprBase
	Params     []Param
	Uses       []ClosureUse
	ReturnType string
	Body       []Stmt
	Static     bool
}

// ArrowFunc is fn(params) => body.
type ArrowFunc struct {
	exprBase
	Params     []Param
	ReturnType string
	Body       Expr
	Static     bool
}

// Throw is the PHP 8 throw expression.
type Throw struct {
	exprBase
	Value Expr
}

// UnsupportedExpr stands for an expression production without a typed record.
// Operands holds the expression children that could still be converted.
type UnsupportedExpr struct {
	exprBase
	Production string
	Operands   []Expr
}

// BadExpr replaces an expression that failed to convert.
type BadExpr struct {
	exprBase
	Err error
}

func (*Variable) Kind() string            { return "variable" }
func (*IntLit) Kind() string              { return "int" }
func (*FloatLit) Kind() string            { return "float" }
func (*StringLit) Kind() string           { return "string" }
func (*BoolLit) Kind() string             { return "bool" }
func (*NullLit) Kind() string             { return "null" }
func (*Name) Kind() string                { return "name" }
func (*Assign) Kind() string              { return "assign" }
func (*CompoundAssign) Kind() string      { return "compound_assign" }
func (*Binary) Kind() string              { return "binary" }
func (*Unary) Kind() string               { return "unary" }
func (*IncDec) Kind() string              { return "incdec" }
func (*Ternary) Kind() string             { return "ternary" }
func (*Call) Kind() string                { return "call" }
func (*MethodCall) Kind() string          { return "method_call" }
func (*StaticCall) Kind() string          { return "static_call" }
func (*PropertyFetch) Kind() string       { return "property_fetch" }
func (*StaticPropertyFetch) Kind() string { return "static_property_fetch" }
func (*ClassConstFetch) Kind() string     { return "class_const_fetch" }
func (*New) Kind() string                 { return "new" }
func (*ArrayLit) Kind() string            { return "array" }
func (*Index) Kind() string               { return "index" }
func (*Cast) Kind() string                { return "cast" }
func (*Closure) Kind() string             { return "closure" }
func (*ArrowFunc) Kind() string           { return "arrow_function" }
func (*Throw) Kind() string               { return "throw" }
func (*UnsupportedExpr) Kind() string     { return "unsupported_expr" }
func (*BadExpr) Kind() string             { return "bad_expr" }

func (*Variable) Children() []Node            { return nil }
func (*IntLit) Children() []Node              { return nil }
func (*FloatLit) Children() []Node            { return nil }
func (s *StringLit) Children() []Node         { return exprNodes(s.Parts...) }
func (*BoolLit) Children() []Node             { return nil }
func (*NullLit) Children() []Node             { return nil }
func (*Name) Children() []Node                { return nil }
func (a *Assign) Children() []Node            { return exprNodes(a.Target, a.Value) }
func (a *CompoundAssign) Children() []Node    { return exprNodes(a.Target, a.Value) }
func (b *Binary) Children() []Node            { return exprNodes(b.Left, b.Right) }
func (u *Unary) Children() []Node             { return exprNodes(u.Operand) }
func (i *IncDec) Children() []Node            { return exprNodes(i.Target) }
func (t *Ternary) Children() []Node           { return exprNodes(t.Cond, t.Then, t.Else) }
func (*StaticPropertyFetch) Children() []Node { return nil }
func (*ClassConstFetch) Children() []Node     { return nil }
func (p *PropertyFetch) Children() []Node     { return exprNodes(p.Object) }
func (i *Index) Children() []Node             { return exprNodes(i.Target, i.Index) }
func (c *Cast) Children() []Node              { return exprNodes(c.Operand) }
func (t *Throw) Children() []Node             { return exprNodes(t.Value) }
func (u *UnsupportedExpr) Children() []Node   { return exprNodes(u.Operands...) }
func (*BadExpr) Children() []Node             { return nil }

func (c *Call) Children() []Node {
	return append(exprNodes(c.Function), argNodes(c.Args)...)
}

func (m *MethodCall) Children() []Node {
	return append(exprNodes(m.Object), argNodes(m.Args)...)
}

func (s *StaticCall) Children() []Node { return argNodes(s.Args) }
func (n *New) Children() []Node        { return argNodes(n.Args) }

func (a *ArrayLit) Children() []Node {
	var nodes []Node
	for _, item := range a.Items {
		nodes = append(nodes, exprNodes(item.Key, item.Value)...)
	}
	return nodes
}

func (c *Closure) Children() []Node {
	return append(paramNodes(c.Params), stmtNodes(c.Body)...)
}

func (f *ArrowFunc) Children() []Node {
	return append(paramNodes(f.Params), exprNodes(f.Body)...)
}

func argNodes(args []Arg) []Node {
	var nodes []Node
	for _, a := range args {
		nodes = append(nodes, exprNodes(a.Value)...)
	}
	return nodes
}

func paramNodes(params []Param) []Node {
	var nodes []Node
	for _, p := range params {
		nodes = append(nodes, exprNodes(p.Default)...)
	}
	return nodes
}

package ast

type ExprStmt struct {
	stmtBase
	X Expr
}

type Echo struct {
	stmtBase
	Exprs []Expr
}

// Return has a nil Value for a bare return.
type Return struct {
	stmtBase
	Value Expr
}

type ElseIf struct {
	Cond Expr
	Body []Stmt
	Loc  Range
}

// If holds the whole if/elseif/else chain. HasElse separates an empty else
// block from a missing one.
type If struct {
	stmtBase
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt
	HasElse bool
}

type While struct {
	stmtBase
	Cond Expr
	Body []Stmt
}

type DoWhile struct {
	stmtBase
	Body []Stmt
	Cond Expr
}

// For is the C-style loop. Each section is a comma separated expression list.
type For struct {
	stmtBase
	Init   []Expr
	Cond   []Expr
	Update []Expr
	Body   []Stmt
}

// Foreach binds Key (optional) and Value for every element of Subject.
type Foreach struct {
	stmtBase
	Subject Expr
	Key     Expr
	Value   Expr
	ByRef   bool
	Body    []Stmt
}

// Case is one switch arm; Cond is nil for default.
type Case struct {
	Cond Expr
	Body []Stmt
	Loc  Range
}

type Switch struct {
	stmtBase
	Subject Expr
	Cases   []Case
}

type Break struct {
	stmtBase
	Levels int
}

type Continue struct {
	stmtBase
	Levels int
}

// Block is a braced statement list.
type Block struct {
	stmtBase
	Stmts []Stmt
}

type FunctionDecl struct {
	stmtBase
	Name       string
	Params     []Param
	ReturnType string
	Body       []Stmt
	ByRef      bool
}

type MethodDecl struct {
	stmtBase
	Name       string
	Params     []Param
	ReturnType string
	// Body is nil for abstract and interface methods.
	Body     []Stmt
	Static   bool
	Abstract bool
}

type PropertyDecl struct {
	stmtBase
	Name    string
	Type    string
	Default Expr
	Static  bool
}

type ClassConst struct {
	stmtBase
	Name  string
	Value Expr
}

// ClassDecl covers class, interface, trait and enum declarations.
type ClassDecl struct {
	stmtBase
	Name       string
	Type       string // class, interface, trait or enum
	Extends    []string
	Implements []string
	Abstract   bool
	Methods    []*MethodDecl
	Properties []*PropertyDecl
	Consts     []*ClassConst
}

// Global imports global variables into the function scope.
type Global struct {
	stmtBase
	Names []string
}

type StaticVar struct {
	Name    string
	Default Expr
	Loc     Range
}

type Static struct {
	stmtBase
	Vars []StaticVar
}

type Unset struct {
	stmtBase
	Targets []Expr
}

type InlineHTML struct {
	stmtBase
	Text string
}

// Namespace has nil Body for the statement form (namespace Foo;).
type Namespace struct {
	stmtBase
	Name   string
	Body   []Stmt
	Braced bool
}

type UseItem struct {
	Name  string
	Alias string
}

// Use is a namespace import. Type is "", "function" or "const".
type Use struct {
	stmtBase
	Type  string
	Items []UseItem
}

type Catch struct {
	Types []string
	Var   string
	Body  []Stmt
	Loc   Range
}

type Try struct {
	stmtBase
	Body    []Stmt
	Catches []Catch
	Finally []Stmt
	// HasFinally separates an empty finally block from a missing one.
	HasFinally bool
}

// UnsupportedStmt stands for a statement production without a typed record.
type UnsupportedStmt struct {
	stmtBase
	Production string
}

// BadStmt replaces a statement that failed to convert.
type BadStmt struct {
	stmtBase
	Err error
}

func (*ExprStmt) Kind() string        { return "expression_statement" }
func (*Echo) Kind() string            { return "echo" }
func (*Return) Kind() string          { return "return" }
func (*If) Kind() string              { return "if" }
func (*While) Kind() string           { return "while" }
func (*DoWhile) Kind() string         { return "do_while" }
func (*For) Kind() string             { return "for" }
func (*Foreach) Kind() string         { return "foreach" }
func (*Switch) Kind() string          { return "switch" }
func (*Break) Kind() string           { return "break" }
func (*Continue) Kind() string        { return "continue" }
func (*Block) Kind() string           { return "block" }
func (*FunctionDecl) Kind() string    { return "function" }
func (*MethodDecl) Kind() string      { return "method" }
func (*PropertyDecl) Kind() string    { return "property" }
func (*ClassConst) Kind() string      { return "class_const" }
func (*ClassDecl) Kind() string       { return "class" }
func (*Global) Kind() string          { return "global" }
func (*Static) Kind() string          { return "static" }
func (*Unset) Kind() string           { return "unset" }
func (*InlineHTML) Kind() string      { return "inline_html" }
func (*Namespace) Kind() string       { return "namespace" }
func (*Use) Kind() string             { return "use" }
func (*Try) Kind() string             { return "try" }
func (*UnsupportedStmt) Kind() string { return "unsupported_stmt" }
func (*BadStmt) Kind() string         { return "bad_stmt" }

func (s *ExprStmt) Children() []Node      { return exprNodes(s.X) }
func (s *Echo) Children() []Node          { return exprNodes(s.Exprs...) }
func (s *Return) Children() []Node        { return exprNodes(s.Value) }
func (*Break) Children() []Node           { return nil }
func (*Continue) Children() []Node        { return nil }
func (s *Block) Children() []Node         { return stmtNodes(s.Stmts) }
func (p *PropertyDecl) Children() []Node  { return exprNodes(p.Default) }
func (c *ClassConst) Children() []Node    { return exprNodes(c.Value) }
func (*Global) Children() []Node          { return nil }
func (s *Unset) Children() []Node         { return exprNodes(s.Targets...) }
func (*InlineHTML) Children() []Node      { return nil }
func (s *Namespace) Children() []Node     { return stmtNodes(s.Body) }
func (*Use) Children() []Node             { return nil }
func (*UnsupportedStmt) Children() []Node { return nil }
func (*BadStmt) Children() []Node         { return nil }

func (s *If) Children() []Node {
	nodes := append(exprNodes(s.Cond), stmtNodes(s.Then)...)
	for _, elseIf := range s.ElseIfs {
		nodes = append(nodes, exprNodes(elseIf.Cond)...)
		nodes = append(nodes, stmtNodes(elseIf.Body)...)
	}
	return append(nodes, stmtNodes(s.Else)...)
}

func (s *While) Children() []Node {
	return append(exprNodes(s.Cond), stmtNodes(s.Body)...)
}

func (s *DoWhile) Children() []Node {
	return append(stmtNodes(s.Body), exprNodes(s.Cond)...)
}

func (s *For) Children() []Node {
	nodes := exprNodes(s.Init...)
	nodes = append(nodes, exprNodes(s.Cond...)...)
	nodes = append(nodes, exprNodes(s.Update...)...)
	return append(nodes, stmtNodes(s.Body)...)
}

func (s *Foreach) Children() []Node {
	return append(exprNodes(s.Subject, s.Key, s.Value), stmtNodes(s.Body)...)
}

func (s *Switch) Children() []Node {
	nodes := exprNodes(s.Subject)
	for _, c := range s.Cases {
		nodes = append(nodes, exprNodes(c.Cond)...)
		nodes = append(nodes, stmtNodes(c.Body)...)
	}
	return nodes
}

func (s *FunctionDecl) Children() []Node {
	return append(paramNodes(s.Params), stmtNodes(s.Body)...)
}

func (s *MethodDecl) Children() []Node {
	return append(paramNodes(s.Params), stmtNodes(s.Body)...)
}

func (s *ClassDecl) Children() []Node {
	var nodes []Node
	for _, c := range s.Consts {
		nodes = append(nodes, c)
	}
	for _, p := range s.Properties {
		nodes = append(nodes, p)
	}
	for _, m := range s.Methods {
		nodes = append(nodes, m)
	}
	return nodes
}

func (s *Static) Children() []Node {
	var nodes []Node
	for _, v := range s.Vars {
		nodes = append(nodes, exprNodes(v.Default)...)
	}
	return nodes
}

func (s *Try) Children() []Node {
	nodes := stmtNodes(s.Body)
	for _, c := range s.Catches {
		nodes = append(nodes, stmtNodes(c.Body)...)
	}
	return append(nodes, stmtNodes(s.Finally)...)
}

// Package ast maps the tree-sitter PHP grammar onto typed records.
//
// Every handled grammar production becomes one Go type. Productions without a
// dedicated record become UnsupportedExpr or UnsupportedStmt so that consumers can
// report the gap instead of guessing. Comments never appear as children; doc
// comments are attached to the declaration or statement that follows them.
package ast

import "fmt"

// Position is a zero-based line and byte column.
type Position struct {
	Line   int
	Column int
}

func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// Range is a half-open source span.
type Range struct {
	Start Position
	End   Position
}

// String renders the start as a one-based line:column pair.
func (r Range) String() string {
	return fmt.Sprintf("%d:%d", r.Start.Line+1, r.Start.Column+1)
}

// Contains reports whether p lies inside r.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

type Node interface {
	Kind() string
	Range() Range
	// Children returns the direct child nodes in source order, nil entries omitted.
	Children() []Node
}

// Expr is implemented by every expression record.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement record.
type Stmt interface {
	Node
	stmtNode()
	// Doc returns the doc comment directly preceding the statement, if any.
	Doc() *DocComment
}

// DocComment is a /** ... */ block attached to the following node.
type DocComment struct {
	Text string
	Loc  Range
}

// File is the typed tree of one PHP source file.
type File struct {
	Stmts []Stmt
	Loc   Range
}

func (f *File) Kind() string     { return "file" }
func (f *File) Range() Range     { return f.Loc }
func (f *File) Children() []Node { return stmtNodes(f.Stmts) }

type exprBase struct {
	Loc Range
}

func (b *exprBase) Range() Range { return b.Loc }
func (*exprBase) exprNode()      {}

type stmtBase struct {
	Loc     Range
	Comment *DocComment
}

func (b *stmtBase) Range() Range         { return b.Loc }
func (b *stmtBase) Doc() *DocComment     { return b.Comment }
func (*stmtBase) stmtNode()              {}
func (b *stmtBase) setDoc(d *DocComment) { b.Comment = d }

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, 0, len(stmts))
	for _, s := range stmts {
		if s != nil {
			nodes = append(nodes, s)
		}
	}
	return nodes
}

func exprNodes(exprs ...Expr) []Node {
	nodes := make([]Node, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			nodes = append(nodes, e)
		}
	}
	return nodes
}

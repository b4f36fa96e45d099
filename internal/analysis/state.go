package analysis

import (
	"errors"
	"strings"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
	"github.com/shopware/phpflow/internal/symbols"
)

// Round tells which pass of the analysis is running.
type Round uint8

const (
	// RoundOne collects declarations into the symbol table.
	RoundOne Round = iota + 1
	// RoundTwo walks every file with the complete table.
	RoundTwo
)

func (r Round) String() string {
	switch r {
	case RoundOne:
		return "round one"
	case RoundTwo:
		return "round two"
	}
	return "unknown round"
}

// Result is the static evaluation of an expression.
type Result struct {
	Type phptype.UnionType
	// Value is meaningful only when Known is set.
	Value phpvalue.Value
	Known bool
}

// Const is the result of a constant expression.
func Const(v phpvalue.Value) Result {
	return Result{Type: v.Type(), Value: v, Known: true}
}

// Typed is a result with a type and no constant value.
func Typed(t phptype.UnionType) Result {
	return Result{Type: t}
}

// functionContext describes the function, method or closure being analysed.
type functionContext struct {
	returnType phptype.UnionType
	// generator functions return a Generator whatever their return statements say.
	generator bool
	class     symbols.Name
	static    bool
	// dynamic bodies reach their variables through get_defined_vars, extract or $$name.
	dynamic bool
	// scope is the function's own variable scope, before any branching.
	scope *Scope
}

// State is the analysis state of one file. It is passed to every analysis step and
// must not be shared between goroutines.
type State struct {
	Round    Round
	Table    symbols.Table
	Resolver *symbols.AliasResolver

	emitter   Emitter
	scopes    []*Scope
	functions []*functionContext
	memo      map[ast.Expr]Result

	// quiet suppresses undefined-variable reports inside isset, empty and the left side of ??.
	quiet int
	// syntaxErrors counts the syntax-error nodes visited so far.
	syntaxErrors int
}

// NewState creates the state for analysing one file with the global scope open.
// table may be nil; emitter may be nil to discard issues.
func NewState(table symbols.Table, emitter Emitter) *State {
	return &State{
		Round:    RoundTwo,
		Table:    table,
		Resolver: symbols.NewAliasResolver(""),
		emitter:  emitter,
		scopes:   []*Scope{NewScope()},
		memo:     make(map[ast.Expr]Result),
	}
}

// Scope returns the innermost scope.
func (st *State) Scope() *Scope {
	return st.scopes[len(st.scopes)-1]
}

// withScope runs fn with s replacing the innermost scope.
func (st *State) withScope(s *Scope, fn func()) {
	top := len(st.scopes) - 1
	saved := st.scopes[top]
	st.scopes[top] = s
	defer func() { st.scopes[top] = saved }()
	fn()
}

// pushFunction opens the scope of a function body.
func (st *State) pushFunction(ctx *functionContext) {
	st.scopes = append(st.scopes, ctx.scope)
	st.functions = append(st.functions, ctx)
}

func (st *State) popFunction() {
	st.scopes = st.scopes[:len(st.scopes)-1]
	st.functions = st.functions[:len(st.functions)-1]
}

// function returns the innermost function context, nil at file level.
func (st *State) function() *functionContext {
	if len(st.functions) == 0 {
		return nil
	}
	return st.functions[len(st.functions)-1]
}

// class returns the class whose code is being analysed, if any.
func (st *State) class() (symbols.Name, bool) {
	if fn := st.function(); fn != nil && fn.class != "" {
		return fn.class, true
	}
	return "", false
}

// Eval evaluates an expression once; later calls for the same node return the
// memoised result.
func (st *State) Eval(e ast.Expr) Result {
	if e == nil {
		return Result{}
	}
	if res, ok := st.memo[e]; ok {
		return res
	}
	res := ast.VisitExpr[Result](e, evaluator{st})
	st.memo[e] = res
	return res
}

// Exec analyses one statement. It returns false when the statement could not be
// analysed consistently and the rest of its block should be skipped.
func (st *State) Exec(s ast.Stmt) bool {
	if s == nil {
		return true
	}
	return ast.VisitStmt[bool](s, executor{st})
}

// ExecBlock analyses a statement list. After a statement fails, its remaining
// siblings are skipped except for declarations, which do not depend on flow.
func (st *State) ExecBlock(stmts []ast.Stmt) bool {
	ok := true
	for _, s := range stmts {
		if !ok {
			switch s.(type) {
			case *ast.FunctionDecl, *ast.ClassDecl:
			default:
				continue
			}
		}
		if !st.Exec(s) {
			ok = false
		}
	}
	return ok
}

// evalHeader evaluates the expressions heading a statement and reports whether they
// were free of syntax errors.
func (st *State) evalHeader(exprs ...ast.Expr) bool {
	before := st.syntaxErrors
	for _, e := range exprs {
		st.Eval(e)
		if st.syntaxErrors > before {
			return false
		}
	}
	return true
}

func (st *State) report(kind IssueKind, r ast.Range, format string, args ...any) {
	if st.emitter == nil {
		return
	}
	st.emitter.Emit(newIssue(kind, r, format, args...))
}

// reportSyntax surfaces every KindError carried by a bad node.
func (st *State) reportSyntax(r ast.Range, err error) {
	st.syntaxErrors++
	var kindErrors []*ast.KindError
	collectKindErrors(err, &kindErrors)
	if len(kindErrors) == 0 {
		msg := "syntax error"
		if err != nil {
			msg = err.Error()
		}
		st.report(SyntaxError, r, "%s", msg)
		return
	}
	for _, ke := range kindErrors {
		st.report(SyntaxError, ke.Range, "syntax error: expected %s, got %s", ke.Expected, ke.Actual)
	}
}

func collectKindErrors(err error, out *[]*ast.KindError) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collectKindErrors(e, out)
		}
		return
	}
	var ke *ast.KindError
	if errors.As(err, &ke) {
		*out = append(*out, ke)
	}
}

// isSubtype adapts the symbol table for phptype.Accepts.
func (st *State) isSubtype(child, parent string) bool {
	if st.Table == nil {
		return false
	}
	return st.Table.IsSubtype(symbols.Name(child), symbols.Name(parent))
}

// resolveClass turns a written class name into a fully qualified name, resolving
// self, static and parent against the current class.
func (st *State) resolveClass(written string) (symbols.Name, bool) {
	switch strings.ToLower(written) {
	case "":
		return "", false
	case "self", "static":
		return st.class()
	case "parent":
		class, ok := st.class()
		if !ok || st.Table == nil {
			return "", false
		}
		c, ok := st.Table.Class(class)
		if !ok || c.Parent == "" {
			return "", false
		}
		return c.Parent, true
	}
	return st.Resolver.Resolve(written), true
}

// classType is the type of an instance of the class.
func classType(name symbols.Name) phptype.UnionType {
	return phptype.Of(phptype.ClassRef{Name: string(name), Form: phptype.FullyQualified})
}

// parseType reads written type text and resolves its class names in the current file.
// Text that does not parse yields the empty union.
func (st *State) parseType(text string) phptype.UnionType {
	if strings.TrimSpace(text) == "" {
		return phptype.UnionType{}
	}
	u, err := phptype.Parse(text)
	if err != nil {
		return phptype.UnionType{}
	}
	return u.Resolve(func(written string) string {
		return string(st.Resolver.Resolve(written))
	})
}

// symbolType reads type text stored in the symbol table, which is already resolved,
// and replaces self and static with the class it was found on.
func (st *State) symbolType(text string, owner symbols.Name) phptype.UnionType {
	u, err := phptype.Parse(text)
	if err != nil || strings.TrimSpace(text) == "" {
		return phptype.UnionType{}
	}
	if owner == "" {
		return u
	}
	return u.Map(func(m phptype.DiscreteType) phptype.DiscreteType {
		s, ok := m.(phptype.Scalar)
		if !ok || (s.Kind != phptype.Self && s.Kind != phptype.Static) {
			return m
		}
		return phptype.ClassRef{Name: string(owner), Form: phptype.FullyQualified, Nullable: s.Nullable}
	})
}

// accepts reports whether the declared type admits the actual type.
func (st *State) accepts(declared, actual phptype.UnionType) bool {
	return phptype.Accepts(declared, actual, st.isSubtype)
}

// checkClass reports a namespaced class that round one never saw. Global names are
// skipped because they usually come from PHP itself or an extension.
func (st *State) checkClass(name symbols.Name, r ast.Range) {
	if st.Table == nil || st.Table.Len() == 0 || !name.IsQualified() {
		return
	}
	if _, ok := st.Table.Class(name); !ok {
		st.report(UnknownClass, r, "unknown class %s", name)
	}
}

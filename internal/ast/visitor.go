package ast

// ExprVisitor has one method per expression record. Adding a record means adding a
// method here, which breaks every visitor until it handles the new case.
type ExprVisitor[R any] interface {
	VisitVariable(*Variable) R
	VisitIntLit(*IntLit) R
	VisitFloatLit(*FloatLit) R
	VisitStringLit(*StringLit) R
	VisitBoolLit(*BoolLit) R
	VisitNullLit(*NullLit) R
	VisitName(*Name) R
	VisitAssign(*Assign) R
	VisitCompoundAssign(*CompoundAssign) R
	VisitBinary(*Binary) R
	VisitUnary(*Unary) R
	VisitIncDec(*IncDec) R
	VisitTernary(*Ternary) R
	VisitCall(*Call) R
	VisitMethodCall(*MethodCall) R
	VisitStaticCall(*StaticCall) R
	VisitPropertyFetch(*PropertyFetch) R
	VisitStaticPropertyFetch(*StaticPropertyFetch) R
	VisitClassConstFetch(*ClassConstFetch) R
	VisitNew(*New) R
	VisitArrayLit(*ArrayLit) R
	VisitIndex(*Index) R
	VisitCast(*Cast) R
	VisitClosure(*Closure) R
	VisitArrowFunc(*ArrowFunc) R
	VisitThrow(*Throw) R
	VisitUnsupportedExpr(*UnsupportedExpr) R
	VisitBadExpr(*BadExpr) R
}

// VisitExpr dispatches e to the matching visitor method.
func VisitExpr[R any](e Expr, v ExprVisitor[R]) R {
	switch n := e.(type) {
	case *Variable:
		return v.VisitVariable(n)
	case *IntLit:
		return v.VisitIntLit(n)
	case *FloatLit:
		return v.VisitFloatLit(n)
	case *StringLit:
		return v.VisitStringLit(n)
	case *BoolLit:
		return v.VisitBoolLit(n)
	case *NullLit:
		return v.VisitNullLit(n)
	case *Name:
		return v.VisitName(n)
	case *Assign:
		return v.VisitAssign(n)
	case *CompoundAssign:
		return v.VisitCompoundAssign(n)
	case *Binary:
		return v.VisitBinary(n)
	case *Unary:
		return v.VisitUnary(n)
	case *IncDec:
		return v.VisitIncDec(n)
	case *Ternary:
		return v.VisitTernary(n)
	case *Call:
		return v.VisitCall(n)
	case *MethodCall:
		return v.VisitMethodCall(n)
	case *StaticCall:
		return v.VisitStaticCall(n)
	case *PropertyFetch:
		return v.VisitPropertyFetch(n)
	case *StaticPropertyFetch:
		return v.VisitStaticPropertyFetch(n)
	case *ClassConstFetch:
		return v.VisitClassConstFetch(n)
	case *New:
		return v.VisitNew(n)
	case *ArrayLit:
		return v.VisitArrayLit(n)
	case *Index:
		return v.VisitIndex(n)
	case *Cast:
		return v.VisitCast(n)
	case *Closure:
		return v.VisitClosure(n)
	case *ArrowFunc:
		return v.VisitArrowFunc(n)
	case *Throw:
		return v.VisitThrow(n)
	case *UnsupportedExpr:
		return v.VisitUnsupportedExpr(n)
	case *BadExpr:
		return v.VisitBadExpr(n)
	}
	unknown := &UnsupportedExpr{Production: "unknown"}
	if e != nil {
		unknown.Loc = e.Range()
		unknown.Production = e.Kind()
	}
	return v.VisitUnsupportedExpr(unknown)
}

// StmtVisitor has one method per statement record.
type StmtVisitor[R any] interface {
	VisitExprStmt(*ExprStmt) R
	VisitEcho(*Echo) R
	VisitReturn(*Return) R
	VisitIf(*If) R
	VisitWhile(*While) R
	VisitDoWhile(*DoWhile) R
	VisitFor(*For) R
	VisitForeach(*Foreach) R
	VisitSwitch(*Switch) R
	VisitBreak(*Break) R
	VisitContinue(*Continue) R
	VisitBlock(*Block) R
	VisitFunctionDecl(*FunctionDecl) R
	VisitClassDecl(*ClassDecl) R
	VisitGlobal(*Global) R
	VisitStatic(*Static) R
	VisitUnset(*Unset) R
	VisitInlineHTML(*InlineHTML) R
	VisitNamespace(*Namespace) R
	VisitUse(*Use) R
	VisitTry(*Try) R
	VisitUnsupportedStmt(*UnsupportedStmt) R
	VisitBadStmt(*BadStmt) R
}

// VisitStmt dispatches s to the matching visitor method. Class members are
// reached through VisitClassDecl and never dispatched on their own.
func VisitStmt[R any](s Stmt, v StmtVisitor[R]) R {
	switch n := s.(type) {
	case *ExprStmt:
		return v.VisitExprStmt(n)
	case *Echo:
		return v.VisitEcho(n)
	case *Return:
		return v.VisitReturn(n)
	case *If:
		return v.VisitIf(n)
	case *While:
		return v.VisitWhile(n)
	case *DoWhile:
		return v.VisitDoWhile(n)
	case *For:
		return v.VisitFor(n)
	case *Foreach:
		return v.VisitForeach(n)
	case *Switch:
		return v.VisitSwitch(n)
	case *Break:
		return v.VisitBreak(n)
	case *Continue:
		return v.VisitContinue(n)
	case *Block:
		return v.VisitBlock(n)
	case *FunctionDecl:
		return v.VisitFunctionDecl(n)
	case *ClassDecl:
		return v.VisitClassDecl(n)
	case *Global:
		return v.VisitGlobal(n)
	case *Static:
		return v.VisitStatic(n)
	case *Unset:
		return v.VisitUnset(n)
	case *InlineHTML:
		return v.VisitInlineHTML(n)
	case *Namespace:
		return v.VisitNamespace(n)
	case *Use:
		return v.VisitUse(n)
	case *Try:
		return v.VisitTry(n)
	case *UnsupportedStmt:
		return v.VisitUnsupportedStmt(n)
	case *BadStmt:
		return v.VisitBadStmt(n)
	}
	unknown := &UnsupportedStmt{Production: "unknown"}
	if s != nil {
		unknown.Loc = s.Range()
		unknown.Production = s.Kind()
	}
	return v.VisitUnsupportedStmt(unknown)
}

// Inspect walks the tree depth-first in source order. If fn returns false the
// children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children() {
		Inspect(child, fn)
	}
}

package analysis

import (
	"strings"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phpdoc"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
	"github.com/shopware/phpflow/internal/symbols"
)

// executor runs round two over statements. Every method returns whether the
// statement was analysed consistently; false makes ExecBlock skip the rest of the block.
type executor struct {
	st *State
}

func (x executor) VisitExprStmt(s *ast.ExprStmt) bool {
	x.st.applyVarDoc(s)
	return x.st.evalHeader(s.X)
}

// applyVarDoc gives the variable assigned by a statement the type of its @var comment.
func (st *State) applyVarDoc(s *ast.ExprStmt) {
	doc := parseDoc(s.Doc())
	if doc == nil {
		return
	}
	for _, entry := range doc.Entries {
		if entry.Kind != phpdoc.Var || entry.Type == "" {
			continue
		}
		name := entry.Variable
		if name == "" {
			assign, ok := s.X.(*ast.Assign)
			if !ok {
				continue
			}
			v, ok := assign.Target.(*ast.Variable)
			if !ok {
				continue
			}
			name = v.Name
		}
		if t := st.parseType(entry.Type); !t.IsEmpty() {
			st.Scope().Var(name).SetCommentType(t)
		}
	}
}

func (x executor) VisitEcho(s *ast.Echo) bool {
	return x.st.evalHeader(s.Exprs...)
}

func (x executor) VisitReturn(s *ast.Return) bool {
	st := x.st
	if !st.evalHeader(s.Value) {
		return false
	}
	st.checkReturn(s.Range(), s.Value, st.Eval(s.Value))
	st.Scope().Terminate()
	return true
}

func (x executor) VisitIf(s *ast.If) bool {
	st := x.st
	if !st.evalHeader(s.Cond) {
		return false
	}
	st.checkCondition(s.Cond, st.Eval(s.Cond))

	then := st.branchFor(s.Cond, true)
	rest := st.branchFor(s.Cond, false)
	st.withScope(then, func() { st.ExecBlock(s.Then) })
	st.withScope(rest, func() { x.elseChain(s.ElseIfs, s) })
	st.Scope().Merge(then, rest)
	return true
}

// elseChain runs the elseif and else arms in the scope where every earlier
// condition was false. Without else, that scope is the implicit fall-through arm.
func (x executor) elseChain(elseIfs []ast.ElseIf, s *ast.If) {
	st := x.st
	if len(elseIfs) == 0 {
		if s.HasElse {
			st.ExecBlock(s.Else)
		}
		return
	}
	arm := elseIfs[0]
	if !st.evalHeader(arm.Cond) {
		return
	}
	st.checkCondition(arm.Cond, st.Eval(arm.Cond))

	then := st.branchFor(arm.Cond, true)
	rest := st.branchFor(arm.Cond, false)
	st.withScope(then, func() { st.ExecBlock(arm.Body) })
	st.withScope(rest, func() { x.elseChain(elseIfs[1:], s) })
	st.Scope().Merge(then, rest)
}

func (x executor) VisitWhile(s *ast.While) bool {
	st := x.st
	st.widen(s.Body, s.Cond)
	if !st.evalHeader(s.Cond) {
		return false
	}
	st.checkCondition(s.Cond, st.Eval(s.Cond))

	body := st.branchFor(s.Cond, true)
	exit := st.branchFor(s.Cond, false)
	st.withScope(body, func() { st.ExecBlock(s.Body) })
	st.Scope().Merge(body, exit)
	return true
}

func (x executor) VisitDoWhile(s *ast.DoWhile) bool {
	st := x.st
	st.widen(s.Body, s.Cond)
	// the body runs at least once
	st.ExecBlock(s.Body)
	if !st.evalHeader(s.Cond) {
		return false
	}
	st.checkCondition(s.Cond, st.Eval(s.Cond))
	return true
}

func (x executor) VisitFor(s *ast.For) bool {
	st := x.st
	if !st.evalHeader(s.Init...) {
		return false
	}
	st.widen(s.Body, append(append([]ast.Expr{}, s.Cond...), s.Update...)...)
	if !st.evalHeader(s.Cond...) {
		return false
	}

	// the last condition expression decides whether the loop runs
	var cond ast.Expr
	if len(s.Cond) > 0 {
		cond = s.Cond[len(s.Cond)-1]
		st.checkCondition(cond, st.Eval(cond))
	}
	body := st.branchFor(cond, true)
	exit := st.branchFor(cond, false)
	st.withScope(body, func() {
		if st.ExecBlock(s.Body) && !body.Terminated() {
			st.evalHeader(s.Update...)
		}
	})
	st.Scope().Merge(body, exit)
	return true
}

func (x executor) VisitForeach(s *ast.Foreach) bool {
	st := x.st
	if !st.evalHeader(s.Subject) {
		return false
	}
	subject := st.Eval(s.Subject)
	st.widen(s.Body)

	keyType, valueType := iterationTypes(subject.Type)
	body := st.Scope().Branch()
	st.withScope(body, func() {
		if s.Key != nil {
			st.assignTo(s.Key, Typed(keyType))
		}
		if s.Value != nil {
			st.assignTo(s.Value, Typed(valueType))
			if v, ok := s.Value.(*ast.Variable); ok && s.ByRef {
				if vd, ok := st.Scope().Lookup(v.Name); ok {
					vd.Imported = true
				}
			}
		}
		st.ExecBlock(s.Body)
	})
	st.Scope().Merge(body, st.Scope().Branch())
	return true
}

func (x executor) VisitSwitch(s *ast.Switch) bool {
	st := x.st
	if !st.evalHeader(s.Subject) {
		return false
	}
	for _, c := range s.Cases {
		if c.Cond != nil {
			st.Eval(c.Cond)
		}
	}

	var arms []*Scope
	seenDefault, defaultCovered := false, false
	for _, c := range s.Cases {
		if c.Cond == nil {
			seenDefault = true
		}
		// an empty case falls through into the next body
		if len(c.Body) == 0 {
			continue
		}
		if seenDefault {
			defaultCovered = true
		}
		arm := st.Scope().Branch()
		st.withScope(arm, func() { st.ExecBlock(c.Body) })
		arms = append(arms, arm)
	}
	if !defaultCovered {
		arms = append(arms, st.Scope().Branch())
	}
	st.Scope().Merge(arms...)
	return true
}

func (x executor) VisitBreak(*ast.Break) bool       { return true }
func (x executor) VisitContinue(*ast.Continue) bool { return true }
func (x executor) VisitInlineHTML(*ast.InlineHTML) bool {
	return true
}

func (x executor) VisitBlock(s *ast.Block) bool {
	x.st.ExecBlock(s.Stmts)
	return true
}

func (x executor) VisitFunctionDecl(s *ast.FunctionDecl) bool {
	st := x.st
	ctx := &functionContext{
		returnType: st.parseType(s.ReturnType),
		generator:  containsYield(s.Body),
		dynamic:    usesDynamicScope(s.Body),
		scope:      NewScope(),
	}
	st.runFunction(ctx, s.Params, parseDoc(s.Doc()), s.Body)
	return true
}

// runFunction analyses a function body in its own scope.
func (st *State) runFunction(ctx *functionContext, params []ast.Param, doc *phpdoc.Block, body []ast.Stmt) {
	st.pushFunction(ctx)
	defer st.popFunction()
	st.bindParams(params, doc)
	st.execBody(ctx, body)
}

// execBody analyses a function body and reports its unused variables. A body cut
// short by a syntax error has not seen all its reads, so nothing is reported.
func (st *State) execBody(ctx *functionContext, body []ast.Stmt) {
	before := st.syntaxErrors
	if !st.ExecBlock(body) || st.syntaxErrors > before {
		return
	}
	st.reportUnused(ctx)
}

func (x executor) VisitClassDecl(s *ast.ClassDecl) bool {
	st := x.st
	class := symbols.NewName(s.Name)
	if ns := st.Resolver.Namespace(); ns != "" {
		class = symbols.Name(ns + "\\" + s.Name)
	}

	// constants and property defaults are evaluated in a static class context
	st.pushFunction(&functionContext{class: class, static: true, scope: NewScope()})
	for _, c := range s.Consts {
		st.Eval(c.Value)
	}
	for _, p := range s.Properties {
		if p.Default == nil {
			continue
		}
		def := st.Eval(p.Default)
		declared := bindSelf(st.parseType(p.Type), class)
		if def.Known && def.Value.Kind() == phpvalue.KindNull {
			// untyped and nullable properties accept a null default
			if declared.IsEmpty() || declared.IsNullable() {
				continue
			}
		}
		if !declared.IsEmpty() && !def.Type.IsEmpty() && !st.accepts(declared, def.Type) {
			st.report(DeclaredTypeMismatch, p.Range(), "default value %s does not match type %s of property $%s", describe(def), declared, p.Name)
		}
	}
	st.popFunction()

	for _, m := range s.Methods {
		if m.Body == nil {
			continue
		}
		ctx := &functionContext{
			returnType: bindSelf(st.parseType(m.ReturnType), class),
			generator:  containsYield(m.Body),
			dynamic:    usesDynamicScope(m.Body),
			class:      class,
			static:     m.Static,
			scope:      NewScope(),
		}
		st.runFunction(ctx, m.Params, parseDoc(m.Doc()), m.Body)
	}
	return true
}

func (x executor) VisitGlobal(s *ast.Global) bool {
	for _, name := range s.Names {
		v := x.st.Scope().Var(name)
		v.Bind(phptype.UnionType{}, phpvalue.Value{}, false, s.Range())
		v.Imported = true
	}
	return true
}

func (x executor) VisitStatic(s *ast.Static) bool {
	st := x.st
	for _, sv := range s.Vars {
		var def Result
		if sv.Default != nil {
			def = st.Eval(sv.Default)
		}
		v := st.Scope().Var(sv.Name)
		// the value survives between calls, so only the type of the default is known
		v.Bind(def.Type, phpvalue.Value{}, false, sv.Loc)
		v.Imported = true
		if def.Known {
			v.Default, v.DefaultKnown = def.Value, true
		}
	}
	return true
}

func (x executor) VisitUnset(s *ast.Unset) bool {
	st := x.st
	for _, target := range s.Targets {
		if v, ok := target.(*ast.Variable); ok {
			st.Scope().Delete(v.Name)
			continue
		}
		st.quiet++
		st.Eval(target)
		st.quiet--
	}
	return true
}

func (x executor) VisitNamespace(s *ast.Namespace) bool {
	st := x.st
	st.Resolver.SetNamespace(s.Name)
	if s.Braced {
		st.ExecBlock(s.Body)
		st.Resolver.SetNamespace("")
	}
	return true
}

func (x executor) VisitUse(s *ast.Use) bool {
	if s.Type != "" {
		return true
	}
	for _, item := range s.Items {
		x.st.Resolver.AddImport(item.Name, item.Alias)
	}
	return true
}

func (x executor) VisitTry(s *ast.Try) bool {
	st := x.st
	try := st.Scope().Branch()
	st.withScope(try, func() { st.ExecBlock(s.Body) })

	arms := []*Scope{try}
	for _, c := range s.Catches {
		// the exception may leave the try block before any of its statements ran
		entry := st.Scope().Branch()
		partial := try.Branch()
		partial.terminated = false
		entry.Merge(partial, st.Scope().Branch())

		if c.Var != "" {
			var types []phptype.UnionType
			for _, written := range c.Types {
				if class, ok := st.resolveClass(written); ok {
					types = append(types, classType(class))
				}
			}
			v := entry.Var(c.Var)
			v.Bind(phptype.Flatten(types...), phpvalue.Value{}, false, c.Loc)
			v.Imported = true
		}
		st.withScope(entry, func() { st.ExecBlock(c.Body) })
		arms = append(arms, entry)
	}
	st.Scope().Merge(arms...)

	if s.HasFinally {
		st.ExecBlock(s.Finally)
	}
	return true
}

func (x executor) VisitUnsupportedStmt(s *ast.UnsupportedStmt) bool {
	switch s.Production {
	case "exit_statement":
		x.st.Scope().Terminate()
	case "declare_statement", "const_declaration", "named_label_statement", "goto_statement":
	default:
		x.st.report(MissingCapability, s.Range(), "unsupported statement %s", s.Production)
	}
	return true
}

func (x executor) VisitBadStmt(s *ast.BadStmt) bool {
	x.st.reportSyntax(s.Range(), s.Err)
	return false
}

// widen drops the constant values of the variables a loop assigns, since the
// condition and body also see the values of later iterations.
func (st *State) widen(body []ast.Stmt, header ...ast.Expr) {
	names := make(map[string]bool)
	collect := func(n ast.Node) {
		assignedNames(n, names)
	}
	for _, s := range body {
		walkAssignments(s, collect)
	}
	for _, e := range header {
		if e != nil {
			walkAssignments(e, collect)
		}
	}
	for name := range names {
		if v, ok := st.Scope().Lookup(name); ok {
			v.Widen()
		}
	}
}

// walkAssignments visits every node of n outside nested function and class bodies.
// Closures are visited themselves, for their by-reference uses.
func walkAssignments(n ast.Node, visit func(ast.Node)) {
	ast.Inspect(n, func(node ast.Node) bool {
		visit(node)
		switch node.(type) {
		case *ast.Closure, *ast.ArrowFunc, *ast.FunctionDecl, *ast.ClassDecl:
			return false
		}
		return true
	})
}

// assignedNames adds the variables a node may write to names.
func assignedNames(n ast.Node, names map[string]bool) {
	switch n := n.(type) {
	case *ast.Assign:
		targetNames(n.Target, names)
		if n.ByRef {
			targetNames(n.Value, names)
		}
	case *ast.CompoundAssign:
		targetNames(n.Target, names)
	case *ast.IncDec:
		targetNames(n.Target, names)
	case *ast.Foreach:
		targetNames(n.Key, names)
		targetNames(n.Value, names)
	case *ast.Call:
		// any variable passed to a function may be taken by reference
		for _, arg := range n.Args {
			targetNames(arg.Value, names)
		}
	case *ast.MethodCall:
		for _, arg := range n.Args {
			targetNames(arg.Value, names)
		}
	case *ast.StaticCall:
		for _, arg := range n.Args {
			targetNames(arg.Value, names)
		}
	case *ast.Unset:
		for _, target := range n.Targets {
			targetNames(target, names)
		}
	case *ast.Global:
		for _, name := range n.Names {
			names[name] = true
		}
	case *ast.Static:
		for _, sv := range n.Vars {
			names[sv.Name] = true
		}
	case *ast.Closure:
		for _, use := range n.Uses {
			if use.ByRef {
				names[use.Name] = true
			}
		}
	}
}

func targetNames(e ast.Expr, names map[string]bool) {
	switch t := e.(type) {
	case *ast.Variable:
		names[t.Name] = true
	case *ast.Index:
		targetNames(t.Target, names)
	case *ast.ArrayLit:
		for _, item := range t.Items {
			targetNames(item.Value, names)
		}
	case *ast.UnsupportedExpr:
		if strings.HasPrefix(t.Production, "list") {
			for _, op := range t.Operands {
				targetNames(op, names)
			}
		}
	}
}

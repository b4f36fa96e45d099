package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phpdoc"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
	"github.com/shopware/phpflow/internal/symbols"
)

// evaluator computes the Result of an expression and records its effects on the
// current scope. It is only reached through State.Eval, which memoises it.
type evaluator struct {
	st *State
}

func (e evaluator) VisitVariable(n *ast.Variable) Result {
	return e.st.readVariable(n.Name, n.Range())
}

func (e evaluator) VisitIntLit(n *ast.IntLit) Result     { return Const(phpvalue.Int(n.Value)) }
func (e evaluator) VisitFloatLit(n *ast.FloatLit) Result { return Const(phpvalue.Float(n.Value)) }
func (e evaluator) VisitBoolLit(n *ast.BoolLit) Result   { return Const(phpvalue.Bool(n.Value)) }
func (e evaluator) VisitNullLit(*ast.NullLit) Result     { return Const(phpvalue.Null()) }

func (e evaluator) VisitStringLit(n *ast.StringLit) Result {
	if !n.Interpolated {
		return Const(phpvalue.String(n.Value))
	}
	for _, part := range n.Parts {
		e.st.Eval(part)
	}
	return Typed(phptype.Single(phptype.String))
}

// VisitName evaluates a constant fetch.
func (e evaluator) VisitName(n *ast.Name) Result {
	if v, ok := builtinConstants[strings.TrimPrefix(n.Value, "\\")]; ok {
		return Const(v)
	}
	return Result{}
}

func (e evaluator) VisitAssign(n *ast.Assign) Result {
	if n.ByRef {
		return e.st.assignRef(n)
	}
	res := e.st.Eval(n.Value)
	e.st.assignTo(n.Target, res)
	return res
}

func (e evaluator) VisitCompoundAssign(n *ast.CompoundAssign) Result {
	st := e.st
	op, ok := ParseOp(n.Op)
	if !ok {
		st.report(InternalError, n.Range(), "unknown operator %s=", n.Op)
		st.Eval(n.Value)
		return Result{}
	}

	var left, right Result
	if op == OpCoalesce {
		st.quiet++
		left = st.Eval(n.Target)
		st.quiet--
		branch := st.Scope().Branch()
		st.withScope(branch, func() { right = st.Eval(n.Value) })
		st.Scope().Merge(branch, st.Scope().Branch())
	} else {
		left = st.Eval(n.Target)
		right = st.Eval(n.Value)
	}

	res := Evaluate(op, resultOperands{left: left, right: right}, st.emitter, n.Range())
	st.assignTo(n.Target, res)
	return res
}

func (e evaluator) VisitBinary(n *ast.Binary) Result {
	st := e.st
	op, ok := ParseOp(n.Op)
	if !ok {
		st.Eval(n.Left)
		st.Eval(n.Right)
		st.report(InternalError, n.Range(), "unknown operator %s", n.Op)
		return Result{}
	}

	switch op {
	case OpAnd, OpOr:
		// the right side only runs when the left side did not decide the result
		st.Eval(n.Left)
		branch := st.branchFor(n.Left, op == OpAnd)
		st.withScope(branch, func() { st.Eval(n.Right) })
		st.Scope().Merge(branch, st.Scope().Branch())
	case OpCoalesce:
		st.quiet++
		st.Eval(n.Left)
		st.quiet--
		branch := st.Scope().Branch()
		st.withScope(branch, func() { st.Eval(n.Right) })
		st.Scope().Merge(branch, st.Scope().Branch())
	case OpInstanceof:
		left := st.Eval(n.Left)
		if !left.Type.IsEmpty() && !left.Type.MayBeObject() {
			st.report(InstanceofNonObject, n.Range(), "instanceof on a value of type %s, which is never an object", left.Type)
		}
		if name, ok := n.Right.(*ast.Name); ok {
			if class, ok := st.resolveClass(name.Value); ok && !symbols.IsSpecialType(name.Value) {
				st.checkClass(class, name.Range())
			}
		} else {
			st.Eval(n.Right)
		}
	default:
		st.Eval(n.Left)
		st.Eval(n.Right)
	}
	return Evaluate(op, exprOperands{st: st, left: n.Left, right: n.Right}, st.emitter, n.Range())
}

func (e evaluator) VisitUnary(n *ast.Unary) Result {
	st := e.st
	if n.Op == "@" {
		st.quiet++
		defer func() { st.quiet-- }()
		return st.Eval(n.Operand)
	}

	operand := st.Eval(n.Operand)
	switch n.Op {
	case "!":
		if operand.Known {
			if b, ok := operand.Value.AsBool(); ok {
				return Const(phpvalue.Bool(!b))
			}
		}
		return Typed(phptype.Single(phptype.Bool))
	case "-", "+":
		if operand.Known {
			if num, ok := operand.Value.AsNumber(); ok {
				return Const(negate(num, n.Op == "-"))
			}
		}
		return Typed(numericType(operand.Type))
	case "~":
		if i, ok := operand.Value.IntValue(); ok && operand.Known {
			return Const(phpvalue.Int(^i))
		}
		return Typed(phptype.Single(phptype.Int))
	}
	st.report(InternalError, n.Range(), "unknown unary operator %s", n.Op)
	return Result{}
}

func negate(num phpvalue.Value, minus bool) phpvalue.Value {
	if !minus {
		return num
	}
	if i, ok := num.IntValue(); ok {
		if i == math.MinInt64 {
			return phpvalue.Float(-float64(i))
		}
		return phpvalue.Int(-i)
	}
	f, _ := num.FloatValue()
	return phpvalue.Float(-f)
}

// numericType is the result type of unary arithmetic on t.
func numericType(t phptype.UnionType) phptype.UnionType {
	switch {
	case t.Is(phptype.Int):
		return t
	case t.Is(phptype.Float):
		return t
	}
	return phptype.Of(phptype.Scalar{Kind: phptype.Int}, phptype.Scalar{Kind: phptype.Float})
}

func (e evaluator) VisitIncDec(n *ast.IncDec) Result {
	st := e.st
	old := st.Eval(n.Target)
	inc := n.Op == "++"

	updated := Typed(old.Type)
	if old.Type.Has(phptype.Null) && inc {
		updated.Type = phptype.Flatten(old.Type.WithoutNull(), phptype.Single(phptype.Int))
	}
	if old.Known {
		switch old.Value.Kind() {
		case phpvalue.KindInt:
			i, _ := old.Value.IntValue()
			switch {
			case inc && i == math.MaxInt64:
				updated = Const(phpvalue.Float(float64(i) + 1))
			case !inc && i == math.MinInt64:
				updated = Const(phpvalue.Float(float64(i) - 1))
			case inc:
				updated = Const(phpvalue.Int(i + 1))
			default:
				updated = Const(phpvalue.Int(i - 1))
			}
		case phpvalue.KindFloat:
			f, _ := old.Value.FloatValue()
			if inc {
				updated = Const(phpvalue.Float(f + 1))
			} else {
				updated = Const(phpvalue.Float(f - 1))
			}
		case phpvalue.KindNull:
			// null-- stays null
			if inc {
				updated = Const(phpvalue.Int(1))
			} else {
				updated = old
			}
		}
	}

	st.assignTo(n.Target, updated)
	if n.Prefix {
		return updated
	}
	return old
}

func (e evaluator) VisitTernary(n *ast.Ternary) Result {
	st := e.st
	cond := st.Eval(n.Cond)
	st.checkCondition(n.Cond, cond)

	thenScope := st.branchFor(n.Cond, true)
	elseScope := st.branchFor(n.Cond, false)
	thenRes := Result{Type: cond.Type.WithoutNull(), Value: cond.Value, Known: cond.Known}
	if n.Then != nil {
		st.withScope(thenScope, func() { thenRes = st.Eval(n.Then) })
	}
	var elseRes Result
	st.withScope(elseScope, func() { elseRes = st.Eval(n.Else) })
	st.Scope().Merge(thenScope, elseScope)

	if cond.Known {
		if b, ok := cond.Value.AsBool(); ok {
			if b {
				return thenRes
			}
			return elseRes
		}
	}
	res := Result{}
	if !thenRes.Type.IsEmpty() && !elseRes.Type.IsEmpty() {
		res.Type = phptype.Flatten(thenRes.Type, elseRes.Type)
	}
	if thenRes.Known && elseRes.Known && thenRes.Value.IdenticalTo(elseRes.Value) {
		res.Value, res.Known = thenRes.Value, true
	}
	return res
}

func (e evaluator) VisitCall(n *ast.Call) Result {
	st := e.st
	name, ok := n.Function.(*ast.Name)
	if !ok {
		callee := st.Eval(n.Function)
		st.evalArgs(n.Args, nil, nil)
		if callee.Type.Len() == 1 {
			if sig, ok := callee.Type.Members()[0].(phptype.Signature); ok && sig.Return != nil {
				return Typed(*sig.Return)
			}
		}
		return Result{}
	}

	lower := strings.ToLower(strings.TrimPrefix(name.Value, "\\"))
	switch lower {
	case "isset", "empty":
		st.quiet++
		for _, arg := range n.Args {
			st.Eval(arg.Value)
		}
		st.quiet--
		return Typed(phptype.Single(phptype.Bool))
	case "compact":
		for _, arg := range n.Args {
			st.compactArg(arg.Value)
		}
		return Typed(phptype.Single(phptype.Array))
	case "exit", "die":
		st.evalArgs(n.Args, nil, nil)
		st.Scope().Terminate()
		return Typed(phptype.Single(phptype.Never))
	}

	fn, found := st.lookupFunction(name.Value)
	if !found {
		st.evalArgs(n.Args, nil, builtinOutParams[lower])
		if t, ok := builtinReturnType(lower); ok {
			return Typed(t)
		}
		return Result{}
	}
	st.evalArgs(n.Args, fn.Params, nil)
	ret := st.symbolType(fn.ReturnType, "")
	if ret.Is(phptype.Never) {
		st.Scope().Terminate()
	}
	return Typed(ret)
}

// compactArg reads the variables compact() names.
func (st *State) compactArg(e ast.Expr) {
	switch a := e.(type) {
	case *ast.StringLit:
		if !a.Interpolated {
			st.readVariable(a.Value, a.Range())
			return
		}
	case *ast.ArrayLit:
		for _, item := range a.Items {
			if item.Value != nil {
				st.compactArg(item.Value)
			}
		}
		return
	}
	st.Eval(e)
}

// lookupFunction finds a user function the way PHP does: an unqualified name is tried
// in the current namespace first, then globally.
func (st *State) lookupFunction(written string) (*symbols.Function, bool) {
	if st.Table == nil {
		return nil, false
	}
	name := symbols.NewName(written)
	if strings.HasPrefix(written, "\\") {
		return st.Table.Function(name)
	}
	if name.IsQualified() {
		return st.Table.Function(st.Resolver.Resolve(written))
	}
	if ns := st.Resolver.Namespace(); ns != "" {
		if fn, ok := st.Table.Function(symbols.Name(ns + "\\" + string(name))); ok {
			return fn, true
		}
	}
	return st.Table.Function(name)
}

// evalArgs evaluates call arguments in order. By-reference parameters are bound
// instead of read: out lists the parameters of builtins that only write.
func (st *State) evalArgs(args []ast.Arg, params []symbols.Param, out map[int]string) {
	for i, arg := range args {
		if arg.Value == nil {
			continue
		}
		if arg.Spread {
			st.Eval(arg.Value)
			continue
		}
		idx := i
		if arg.Name != "" {
			idx = paramIndex(params, arg.Name)
		}
		if text, ok := out[idx]; ok && arg.Name == "" {
			if v, ok := arg.Value.(*ast.Variable); ok {
				st.writeVariable(v, Typed(phptype.MustParse(text)))
				if vd, ok := st.Scope().Lookup(v.Name); ok {
					vd.Imported = true
				}
				continue
			}
		}
		if p, ok := paramAt(params, idx); ok && p.ByRef {
			st.passByRef(arg.Value)
			continue
		}
		st.Eval(arg.Value)
	}
}

func paramIndex(params []symbols.Param, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func paramAt(params []symbols.Param, idx int) (symbols.Param, bool) {
	switch {
	case idx < 0 || len(params) == 0:
		return symbols.Param{}, false
	case idx < len(params):
		return params[idx], true
	case params[len(params)-1].Variadic:
		return params[len(params)-1], true
	}
	return symbols.Param{}, false
}

// passByRef binds an argument passed to a by-reference parameter. A bound variable
// is read and may come back changed; an unbound one is created by the call.
func (st *State) passByRef(e ast.Expr) {
	v, ok := e.(*ast.Variable)
	if !ok || v.Name == "this" || superglobals[v.Name] {
		if isWritable(e) {
			st.assignTo(e, Result{})
		} else {
			st.Eval(e)
		}
		return
	}
	vd := st.Scope().Var(v.Name)
	if vd.IsBound() && !vd.IsPartial {
		vd.ReadFrom(v.Range())
		vd.Widen()
		return
	}
	vd.SingleWriteTo(phptype.UnionType{}, phpvalue.Value{}, false, v.Range())
	vd.Imported = true
}

func (e evaluator) VisitMethodCall(n *ast.MethodCall) Result {
	st := e.st
	obj := st.Eval(n.Object)
	m, receiver, found := st.findMethod(obj.Type, n.Method)
	if !found {
		st.evalArgs(n.Args, nil, nil)
		return Result{}
	}
	st.evalArgs(n.Args, m.Params, nil)
	ret := st.symbolType(m.ReturnType, receiver)
	if n.NullSafe && obj.Type.IsNullable() && !ret.IsEmpty() {
		ret = ret.Nullable()
	}
	return Typed(ret)
}

func (e evaluator) VisitStaticCall(n *ast.StaticCall) Result {
	st := e.st
	class, ok := st.scopeClass(n.Class, n.Range())
	if !ok || st.Table == nil {
		st.evalArgs(n.Args, nil, nil)
		return Result{}
	}
	m, _, found := symbols.FindMethod(st.Table, class, n.Method)
	if !found {
		st.evalArgs(n.Args, nil, nil)
		return Result{}
	}
	st.evalArgs(n.Args, m.Params, nil)
	return Typed(st.symbolType(m.ReturnType, class))
}

// findMethod looks the method up on the first class of t that declares it.
func (st *State) findMethod(t phptype.UnionType, method string) (symbols.Method, symbols.Name, bool) {
	if st.Table == nil || method == "" {
		return symbols.Method{}, "", false
	}
	for _, member := range t.Members() {
		ref, ok := member.(phptype.ClassRef)
		if !ok {
			continue
		}
		if m, _, ok := symbols.FindMethod(st.Table, symbols.Name(ref.Name), method); ok {
			return m, symbols.Name(ref.Name), true
		}
	}
	return symbols.Method{}, "", false
}

// propertyType looks the property up on the first class of t that declares it.
func (st *State) propertyType(t phptype.UnionType, property string) (phptype.UnionType, bool) {
	if st.Table == nil || property == "" {
		return phptype.UnionType{}, false
	}
	for _, member := range t.Members() {
		ref, ok := member.(phptype.ClassRef)
		if !ok {
			continue
		}
		if p, _, ok := symbols.FindProperty(st.Table, symbols.Name(ref.Name), property); ok {
			return st.symbolType(p.Type, symbols.Name(ref.Name)), true
		}
	}
	return phptype.UnionType{}, false
}

// scopeClass resolves the class qualifier of a static access: a written name, or a
// variable holding an object or a class name.
func (st *State) scopeClass(written string, r ast.Range) (symbols.Name, bool) {
	if !strings.HasPrefix(written, "$") {
		return st.resolveClass(written)
	}
	res := st.readVariable(strings.TrimPrefix(written, "$"), r)
	if s, ok := res.Value.StringValue(); ok && res.Known {
		return symbols.NewName(s), true
	}
	for _, m := range res.Type.Members() {
		if ref, ok := m.(phptype.ClassRef); ok {
			return symbols.Name(ref.Name), true
		}
	}
	return "", false
}

func (e evaluator) VisitPropertyFetch(n *ast.PropertyFetch) Result {
	st := e.st
	obj := st.Eval(n.Object)
	t, ok := st.propertyType(obj.Type, n.Property)
	if !ok {
		return Result{}
	}
	if n.NullSafe && obj.Type.IsNullable() && !t.IsEmpty() {
		t = t.Nullable()
	}
	return Typed(t)
}

func (e evaluator) VisitStaticPropertyFetch(n *ast.StaticPropertyFetch) Result {
	st := e.st
	class, ok := st.scopeClass(n.Class, n.Range())
	if !ok {
		return Result{}
	}
	t, _ := st.propertyType(classType(class), n.Property)
	return Typed(t)
}

func (e evaluator) VisitClassConstFetch(n *ast.ClassConstFetch) Result {
	st := e.st
	if !strings.EqualFold(n.Const, "class") {
		if strings.HasPrefix(n.Class, "$") {
			st.readVariable(strings.TrimPrefix(n.Class, "$"), n.Range())
		}
		return Result{}
	}
	stringType := Typed(phptype.Single(phptype.String))
	if strings.EqualFold(n.Class, "static") || strings.HasPrefix(n.Class, "$") {
		// late static binding and objects are only known at run time
		if strings.HasPrefix(n.Class, "$") {
			st.readVariable(strings.TrimPrefix(n.Class, "$"), n.Range())
		}
		return stringType
	}
	class, ok := st.resolveClass(n.Class)
	if !ok {
		return stringType
	}
	return Const(phpvalue.String(string(class)))
}

func (e evaluator) VisitNew(n *ast.New) Result {
	st := e.st
	if n.Class == "" {
		st.evalArgs(n.Args, nil, nil)
		return Typed(phptype.Single(phptype.Object))
	}
	class, ok := st.scopeClass(n.Class, n.Range())
	if !ok {
		st.evalArgs(n.Args, nil, nil)
		return Typed(phptype.Single(phptype.Object))
	}
	if !strings.HasPrefix(n.Class, "$") && !symbols.IsSpecialType(n.Class) {
		st.checkClass(class, n.Range())
	}
	var params []symbols.Param
	if st.Table != nil {
		if ctor, _, ok := symbols.FindMethod(st.Table, class, "__construct"); ok {
			params = ctor.Params
		}
	}
	st.evalArgs(n.Args, params, nil)
	return Typed(classType(class))
}

func (e evaluator) VisitArrayLit(n *ast.ArrayLit) Result {
	st := e.st
	if len(n.Items) == 0 {
		return Typed(phptype.Single(phptype.Array))
	}

	var entries []phptype.ShapeEntry
	next := int64(0)
	isShape := true
	for _, item := range n.Items {
		var key phptype.ShapeKey
		keyOK := true
		if item.Key != nil {
			key, keyOK = shapeKey(st.Eval(item.Key))
		}

		var value Result
		switch {
		case item.ByRef:
			value = st.bindReference(item.Value)
		case item.Value != nil:
			value = st.Eval(item.Value)
		}

		if item.Spread || !keyOK {
			isShape = false
			continue
		}
		if item.Key == nil {
			key = phptype.IndexKey(next)
		}
		if key.IsIndex && key.Index >= next && key.Index < math.MaxInt64 {
			next = key.Index + 1
		}
		t := value.Type
		if t.IsEmpty() {
			t = phptype.MixedType()
		}
		entries = setShapeEntry(entries, phptype.ShapeEntry{Key: key, Type: t})
	}
	if !isShape {
		return Typed(phptype.Single(phptype.Array))
	}
	return Typed(phptype.Of(phptype.Shape{Entries: entries}))
}

func setShapeEntry(entries []phptype.ShapeEntry, entry phptype.ShapeEntry) []phptype.ShapeEntry {
	for i, e := range entries {
		if e.Key == entry.Key {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

// shapeKey converts a constant array key the way PHP does: canonical integer strings,
// bools and floats become integer keys and null becomes "".
func shapeKey(res Result) (phptype.ShapeKey, bool) {
	if !res.Known {
		return phptype.ShapeKey{}, false
	}
	v := res.Value
	switch v.Kind() {
	case phpvalue.KindInt:
		i, _ := v.IntValue()
		return phptype.IndexKey(i), true
	case phpvalue.KindString:
		s, _ := v.StringValue()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(i, 10) == s {
			return phptype.IndexKey(i), true
		}
		return phptype.StringKey(s), true
	case phpvalue.KindBool:
		if b, _ := v.BoolValue(); b {
			return phptype.IndexKey(1), true
		}
		return phptype.IndexKey(0), true
	case phpvalue.KindFloat:
		f, _ := v.FloatValue()
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
			return phptype.ShapeKey{}, false
		}
		return phptype.IndexKey(int64(f)), true
	case phpvalue.KindNull:
		return phptype.StringKey(""), true
	}
	return phptype.ShapeKey{}, false
}

// singleShape returns the shape when t is exactly one array shape.
func singleShape(t phptype.UnionType) (phptype.Shape, bool) {
	if t.Len() != 1 {
		return phptype.Shape{}, false
	}
	s, ok := t.Members()[0].(phptype.Shape)
	return s, ok
}

func (e evaluator) VisitIndex(n *ast.Index) Result {
	st := e.st
	target := st.Eval(n.Target)
	if n.Index == nil {
		return Result{}
	}
	index := st.Eval(n.Index)

	if shape, ok := singleShape(target.Type); ok {
		if key, ok := shapeKey(index); ok {
			if t, ok := shape.Lookup(key); ok {
				return Typed(t)
			}
		}
		return Result{}
	}
	if target.Type.Is(phptype.String) {
		s, sok := target.Value.StringValue()
		i, iok := index.Value.IntValue()
		if target.Known && index.Known && sok && iok {
			if i < 0 {
				i += int64(len(s))
			}
			if i >= 0 && i < int64(len(s)) {
				return Const(phpvalue.String(s[i : i+1]))
			}
		}
		return Typed(phptype.Single(phptype.String))
	}
	if _, value := iterationTypes(target.Type); !value.IsEmpty() {
		return Typed(value)
	}
	return Result{}
}

func (e evaluator) VisitCast(n *ast.Cast) Result {
	st := e.st
	operand := st.Eval(n.Operand)
	v, known := operand.Value, operand.Known
	switch n.Type {
	case "int":
		if known {
			if i, ok := castInt(v); ok {
				return Const(phpvalue.Int(i))
			}
		}
		return Typed(phptype.Single(phptype.Int))
	case "float":
		if known {
			if num, ok := v.AsNumber(); ok {
				if i, ok := num.IntValue(); ok {
					return Const(phpvalue.Float(float64(i)))
				}
				return Const(num)
			}
		}
		return Typed(phptype.Single(phptype.Float))
	case "string":
		if known {
			if s, ok := v.AsString(); ok {
				return Const(phpvalue.String(s))
			}
		}
		return Typed(phptype.Single(phptype.String))
	case "bool":
		if known {
			if b, ok := v.AsBool(); ok {
				return Const(phpvalue.Bool(b))
			}
		}
		return Typed(phptype.Single(phptype.Bool))
	case "array":
		if _, ok := singleShape(operand.Type); ok || operand.Type.Is(phptype.Array) {
			return Typed(operand.Type)
		}
		return Typed(phptype.Single(phptype.Array))
	case "object":
		if !operand.Type.IsEmpty() && operand.Type.Filter(objectMatch).Len() == operand.Type.Len() {
			return Typed(operand.Type)
		}
		return Typed(phptype.Single(phptype.Object))
	case "unset":
		return Const(phpvalue.Null())
	}
	st.report(InternalError, n.Range(), "unknown cast (%s)", n.Type)
	return Result{}
}

func castInt(v phpvalue.Value) (int64, bool) {
	if b, ok := v.BoolValue(); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	if v.Kind() == phpvalue.KindNull {
		return 0, true
	}
	num, ok := v.AsNumber()
	if !ok {
		return 0, false
	}
	if i, ok := num.IntValue(); ok {
		return i, true
	}
	f, _ := num.FloatValue()
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func (e evaluator) VisitClosure(n *ast.Closure) Result {
	st := e.st
	outer := st.Scope()
	inner := NewScope()
	for _, use := range n.Uses {
		iv := inner.Var(use.Name)
		iv.Imported = true
		if use.ByRef {
			ov := outer.Var(use.Name)
			if !ov.IsBound() {
				ov.Bind(phptype.Single(phptype.Null), phpvalue.Null(), true, use.Loc)
			}
			ov.ReadFrom(use.Loc)
			ov.Imported = true
			iv.Bind(ov.LiveType(), phpvalue.Value{}, false, use.Loc)
			continue
		}
		res := st.readVariable(use.Name, use.Loc)
		iv.Bind(res.Type, res.Value, res.Known, use.Loc)
	}

	ctx := &functionContext{
		returnType: st.parseType(n.ReturnType),
		generator:  containsYield(n.Body),
		dynamic:    usesDynamicScope(n.Body),
		static:     n.Static,
		scope:      inner,
	}
	if outerFn := st.function(); outerFn != nil {
		ctx.class = outerFn.class
		ctx.static = ctx.static || outerFn.static
		ctx.returnType = bindSelf(ctx.returnType, ctx.class)
	}

	st.pushFunction(ctx)
	args := st.bindParams(n.Params, nil)
	st.execBody(ctx, n.Body)
	st.popFunction()

	return Typed(phptype.Of(signature(args, ctx.returnType)))
}

func (e evaluator) VisitArrowFunc(n *ast.ArrowFunc) Result {
	st := e.st
	// arrow functions capture the enclosing scope by value
	inner := st.Scope().Branch()
	inner.terminated = false

	ctx := &functionContext{
		returnType: st.parseType(n.ReturnType),
		static:     n.Static,
		scope:      inner,
	}
	if outerFn := st.function(); outerFn != nil {
		ctx.class = outerFn.class
		ctx.static = ctx.static || outerFn.static
		ctx.dynamic = outerFn.dynamic
		ctx.returnType = bindSelf(ctx.returnType, ctx.class)
	}

	st.pushFunction(ctx)
	args := st.bindParams(n.Params, nil)
	body := st.Eval(n.Body)
	if n.Body != nil {
		st.checkReturn(n.Body.Range(), n.Body, body)
	}
	st.popFunction()
	st.Scope().Absorb(inner)

	ret := ctx.returnType
	if ret.IsEmpty() {
		ret = body.Type
	}
	return Typed(phptype.Of(signature(args, ret)))
}

func signature(args []phptype.UnionType, ret phptype.UnionType) phptype.Signature {
	sig := phptype.Signature{Args: args}
	if !ret.IsEmpty() {
		sig.Return = &ret
	}
	return sig
}

func (e evaluator) VisitThrow(n *ast.Throw) Result {
	e.st.Eval(n.Value)
	e.st.Scope().Terminate()
	return Typed(phptype.Single(phptype.Never))
}

func (e evaluator) VisitUnsupportedExpr(n *ast.UnsupportedExpr) Result {
	st := e.st
	evalOperands := func() Result {
		var last Result
		for _, op := range n.Operands {
			last = st.Eval(op)
		}
		return last
	}

	switch n.Production {
	case "clone_expression":
		return Typed(evalOperands().Type)
	case "print_intrinsic":
		evalOperands()
		return Const(phpvalue.Int(1))
	case "sequence_expression":
		return evalOperands()
	case "yield_expression", "include_expression", "include_once_expression",
		"require_expression", "require_once_expression":
		evalOperands()
		return Result{}
	}
	st.report(MissingCapability, n.Range(), "unsupported expression %s", n.Production)
	evalOperands()
	return Result{}
}

func (e evaluator) VisitBadExpr(n *ast.BadExpr) Result {
	e.st.reportSyntax(n.Range(), n.Err)
	return Result{}
}

// readVariable records a read and returns what the variable holds at this point.
func (st *State) readVariable(name string, r ast.Range) Result {
	if name == "this" {
		if fn := st.function(); fn != nil && fn.class != "" && !fn.static {
			return Typed(classType(fn.class))
		}
		return Result{}
	}
	if superglobals[name] {
		return Typed(phptype.Single(phptype.Array))
	}

	v := st.Scope().Var(name)
	v.ReadFrom(r)
	if fn := st.function(); fn != nil && !fn.dynamic && st.quiet == 0 && !v.reported {
		switch {
		case !v.IsBound():
			v.reported = true
			st.report(UndefinedVariable, r, "undefined variable $%s", name)
		case v.IsPartial:
			v.reported = true
			st.report(PossiblyUndefinedVariable, r, "variable $%s might not be defined", name)
		}
	}

	res := Result{Type: v.LiveType()}
	if res.Type.IsEmpty() {
		res.Type = v.DeclaredType()
	}
	if res.Type.IsEmpty() {
		res.Type = v.CommentType()
	}
	res.Value, res.Known = v.LiveValue()
	return res
}

// writeVariable records an assignment of res to the variable.
func (st *State) writeVariable(target *ast.Variable, res Result) {
	if target.Name == "this" || superglobals[target.Name] {
		return
	}
	v := st.Scope().Var(target.Name)
	if declared := v.DeclaredType(); !declared.IsEmpty() && !res.Type.IsEmpty() && !st.accepts(declared, res.Type) {
		st.report(DeclaredTypeMismatch, target.Range(), "cannot assign %s to $%s of type %s", describe(res), target.Name, declared)
	}
	t := res.Type
	if t.IsEmpty() {
		t = v.CommentType()
	}
	v.SingleWriteTo(t, res.Value, res.Known, target.Range())
}

// assignTo stores an already evaluated value into an assignment target.
func (st *State) assignTo(target ast.Expr, res Result) {
	switch t := target.(type) {
	case *ast.Variable:
		st.writeVariable(t, res)
	case *ast.Index:
		st.assignIndex(t)
	case *ast.PropertyFetch:
		obj := st.Eval(t.Object)
		if declared, ok := st.propertyType(obj.Type, t.Property); ok {
			st.checkPropertyWrite(declared, t.Property, res, t.Range())
		}
	case *ast.StaticPropertyFetch:
		if class, ok := st.scopeClass(t.Class, t.Range()); ok {
			if declared, ok := st.propertyType(classType(class), t.Property); ok {
				st.checkPropertyWrite(declared, t.Property, res, t.Range())
			}
		}
	case *ast.ArrayLit:
		st.destructure(t, res)
	case *ast.UnsupportedExpr:
		if t.Production != "list_literal" {
			st.report(MissingCapability, t.Range(), "unsupported assignment target %s", t.Production)
		}
		for _, op := range t.Operands {
			if isWritable(op) {
				st.assignTo(op, Result{})
			} else {
				st.Eval(op)
			}
		}
	case *ast.BadExpr:
		st.Eval(t)
	default:
		st.Eval(target)
	}
}

func (st *State) checkPropertyWrite(declared phptype.UnionType, property string, res Result, r ast.Range) {
	if declared.IsEmpty() || res.Type.IsEmpty() || st.accepts(declared, res.Type) {
		return
	}
	st.report(DeclaredTypeMismatch, r, "cannot assign %s to property $%s of type %s", describe(res), property, declared)
}

// assignIndex handles $a[k] = v. Writing into a missing or array-like variable
// creates or updates an array; other types keep their type.
func (st *State) assignIndex(n *ast.Index) {
	if n.Index != nil {
		st.Eval(n.Index)
	}
	switch t := n.Target.(type) {
	case *ast.Variable:
		if t.Name == "this" || superglobals[t.Name] {
			return
		}
		v := st.Scope().Var(t.Name)
		if v.IsBound() && !maybeArray(v.LiveType()) {
			v.ReadFrom(t.Range())
			return
		}
		v.SingleWriteTo(phptype.Single(phptype.Array), phpvalue.Value{}, false, t.Range())
	case *ast.Index:
		st.assignIndex(t)
	default:
		st.Eval(n.Target)
	}
}

func maybeArray(t phptype.UnionType) bool {
	if t.IsEmpty() {
		return true
	}
	for _, m := range t.Members() {
		switch m := m.(type) {
		case phptype.Shape, phptype.ClassRef:
			return true
		case phptype.Scalar:
			switch m.Kind {
			case phptype.Array, phptype.Iterable, phptype.Mixed, phptype.Null, phptype.Object:
				return true
			}
		}
	}
	return false
}

// destructure assigns the elements of res to the items of [$a, 'k' => $b] = res.
func (st *State) destructure(pattern *ast.ArrayLit, res Result) {
	shape, isShape := singleShape(res.Type)
	next := int64(0)
	for _, item := range pattern.Items {
		if item.Value == nil {
			next++
			continue
		}
		var key phptype.ShapeKey
		keyOK := true
		if item.Key != nil {
			key, keyOK = shapeKey(st.Eval(item.Key))
		} else {
			key = phptype.IndexKey(next)
			next++
		}
		elem := Result{}
		if isShape && keyOK {
			if t, ok := shape.Lookup(key); ok {
				elem = Typed(t)
			}
		}
		st.assignTo(item.Value, elem)
	}
}

// assignRef handles $a = &$b. Both sides share storage from here on, so both are
// marked imported and lose their constant values.
func (st *State) assignRef(n *ast.Assign) Result {
	res := st.bindReference(n.Value)
	if t, ok := n.Target.(*ast.Variable); ok {
		st.writeVariable(t, res)
		if v, ok := st.Scope().Lookup(t.Name); ok {
			v.Imported = true
		}
		return res
	}
	st.assignTo(n.Target, res)
	return res
}

// bindReference takes a reference to e. A missing variable springs into existence
// holding null.
func (st *State) bindReference(e ast.Expr) Result {
	src, ok := e.(*ast.Variable)
	if !ok || src.Name == "this" || superglobals[src.Name] {
		if isWritable(e) {
			st.assignTo(e, Result{})
			return Result{}
		}
		return Typed(st.Eval(e).Type)
	}
	v := st.Scope().Var(src.Name)
	if !v.IsBound() {
		v.Bind(phptype.Single(phptype.Null), phpvalue.Null(), true, src.Range())
	}
	v.ReadFrom(src.Range())
	v.Imported = true
	return Typed(v.LiveType())
}

func isWritable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Variable, *ast.Index, *ast.PropertyFetch, *ast.StaticPropertyFetch, *ast.ArrayLit:
		return true
	}
	return false
}

// iterationTypes returns the key and value types of iterating over t.
func iterationTypes(t phptype.UnionType) (phptype.UnionType, phptype.UnionType) {
	var keys, values []phptype.UnionType
	for _, m := range t.Members() {
		switch m := m.(type) {
		case phptype.Shape:
			for _, entry := range m.Entries {
				if entry.Key.IsIndex {
					keys = append(keys, phptype.Single(phptype.Int))
				} else {
					keys = append(keys, phptype.Single(phptype.String))
				}
				values = append(values, entry.Type)
			}
		case phptype.ClassRef:
			switch len(m.Generics) {
			case 1:
				values = append(values, m.Generics[0])
			case 2:
				keys = append(keys, m.Generics[0])
				values = append(values, m.Generics[1])
			default:
				return phptype.UnionType{}, phptype.UnionType{}
			}
		default:
			return phptype.UnionType{}, phptype.UnionType{}
		}
	}
	return phptype.Flatten(keys...), phptype.Flatten(values...)
}

// checkCondition reports a branch condition that always folds to the same value.
// Conditions without variables, like while (true) or PHP_INT_SIZE === 8, are meant.
func (st *State) checkCondition(cond ast.Expr, res Result) {
	if cond == nil || !res.Known || !hasVariable(cond) {
		return
	}
	b, ok := res.Value.AsBool()
	if !ok {
		return
	}
	st.report(ConstantCondition, cond.Range(), "condition is always %t", b)
}

func hasVariable(e ast.Expr) bool {
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if _, ok := n.(*ast.Variable); ok {
			found = true
		}
		return !found
	})
	return found
}

// checkReturn compares a returned value with the declared return type.
func (st *State) checkReturn(r ast.Range, value ast.Expr, res Result) {
	fn := st.function()
	if fn == nil || fn.generator || fn.returnType.IsEmpty() {
		return
	}
	declared := fn.returnType
	switch {
	case declared.Is(phptype.Void):
		if value != nil {
			st.report(DeclaredTypeMismatch, r, "void function must not return a value")
		}
	case declared.Is(phptype.Never):
		st.report(DeclaredTypeMismatch, r, "function declared never must not return")
	case value == nil:
		st.report(DeclaredTypeMismatch, r, "function with return type %s must return a value", declared)
	case !res.Type.IsEmpty() && !st.accepts(declared, res.Type):
		st.report(DeclaredTypeMismatch, r, "cannot return %s from function with return type %s", describe(res), declared)
	}
}

// bindParams binds the parameters in the current function scope and returns their types.
func (st *State) bindParams(params []ast.Param, doc *phpdoc.Block) []phptype.UnionType {
	types := make([]phptype.UnionType, 0, len(params))
	for _, p := range params {
		declared := st.parseType(p.Type)
		var comment phptype.UnionType
		if text, ok := doc.ParamType(p.Name); ok {
			comment = st.parseType(text)
		}
		if comment.IsEmpty() && p.Doc != nil {
			if text, ok := phpdoc.Parse(p.Doc.Text).VarType(p.Name); ok {
				comment = st.parseType(text)
			}
		}
		if fn := st.function(); fn != nil {
			declared = bindSelf(declared, fn.class)
			comment = bindSelf(comment, fn.class)
		}

		var def Result
		if p.Default != nil {
			def = st.Eval(p.Default)
			if def.Known && def.Value.Kind() == phpvalue.KindNull && !declared.IsEmpty() {
				// function f(Foo $x = null) makes the parameter nullable
				declared = declared.Nullable()
			}
			if !declared.IsEmpty() && !def.Type.IsEmpty() && !p.Variadic && !st.accepts(declared, def.Type) {
				st.report(DeclaredTypeMismatch, p.Loc, "default value %s does not match type %s of $%s", describe(def), declared, p.Name)
			}
		}

		t := declared
		if t.IsEmpty() {
			t = comment
		}
		if p.Variadic {
			declared = phptype.Single(phptype.Array)
			t = declared
		}

		st.Scope().Delete(p.Name)
		v := st.Scope().Var(p.Name)
		v.IsArgument = true
		v.SetDeclaredType(declared)
		v.SetCommentType(comment)
		if def.Known {
			v.Default, v.DefaultKnown = def.Value, true
		}
		v.Bind(t, phpvalue.Value{}, false, p.Loc)
		types = append(types, t)
	}
	return types
}

// reportUnused reports variables the function wrote but never read.
func (st *State) reportUnused(fn *functionContext) {
	if fn.dynamic {
		return
	}
	for _, name := range fn.scope.Names() {
		v, _ := fn.scope.Lookup(name)
		if v.Writes == 0 || v.Reads > 0 || v.IsArgument || v.Imported || name == "this" {
			continue
		}
		r, ok := v.FirstWrite()
		if !ok {
			continue
		}
		st.report(UnusedVariable, r, "variable $%s is assigned but never used", name)
	}
}

// bindSelf replaces self and static with the class the code belongs to.
func bindSelf(t phptype.UnionType, class symbols.Name) phptype.UnionType {
	if class == "" || t.IsEmpty() {
		return t
	}
	return t.Map(func(m phptype.DiscreteType) phptype.DiscreteType {
		s, ok := m.(phptype.Scalar)
		if !ok || (s.Kind != phptype.Self && s.Kind != phptype.Static) {
			return m
		}
		return phptype.ClassRef{Name: string(class), Form: phptype.FullyQualified, Nullable: s.Nullable}
	})
}

// containsYield reports whether a function body is a generator. Nested functions
// are not part of the body.
func containsYield(body []ast.Stmt) bool {
	found := false
	inspectBody(body, func(n ast.Node) {
		if u, ok := n.(*ast.UnsupportedExpr); ok && u.Production == "yield_expression" {
			found = true
		}
	})
	return found
}

// dynamicScopeCalls reach the variables of the calling scope by name.
var dynamicScopeCalls = map[string]bool{
	"get_defined_vars": true,
	"extract":          true,
	"parse_str":        true,
}

// usesDynamicScope reports whether a function body reads or writes variables in ways
// flow analysis cannot follow.
func usesDynamicScope(body []ast.Stmt) bool {
	found := false
	inspectBody(body, func(n ast.Node) {
		switch n := n.(type) {
		case *ast.Call:
			if name, ok := n.Function.(*ast.Name); ok {
				lower := strings.ToLower(strings.TrimPrefix(name.Value, "\\"))
				if dynamicScopeCalls[lower] && (lower != "parse_str" || len(n.Args) == 1) {
					found = true
				}
			}
		case *ast.UnsupportedExpr:
			switch n.Production {
			case "dynamic_variable_name", "include_expression", "include_once_expression",
				"require_expression", "require_once_expression":
				found = true
			}
		}
	})
	return found
}

func inspectBody(body []ast.Stmt, visit func(ast.Node)) {
	for _, s := range body {
		ast.Inspect(s, func(n ast.Node) bool {
			switch n.(type) {
			case *ast.Closure, *ast.FunctionDecl, *ast.ClassDecl:
				return false
			}
			visit(n)
			return true
		})
	}
}

// describe renders a result for a message: its constant value if known, else its type.
func describe(res Result) string {
	if res.Known {
		return res.Value.String()
	}
	return res.Type.String()
}

func parseDoc(doc *ast.DocComment) *phpdoc.Block {
	if doc == nil {
		return nil
	}
	return phpdoc.Parse(doc.Text)
}

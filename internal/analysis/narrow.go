package analysis

import (
	"strings"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/symbols"
)

// refinement rewrites the type of one variable inside a branch.
type refinement struct {
	name  string
	apply func(phptype.UnionType) phptype.UnionType
	// defines is set when the condition only holds for a set variable, as with isset.
	defines bool
}

// Narrow returns a snapshot of the current scope in which the variables tested by
// cond are refined for the side of the branch (true for the then-arm). It returns nil
// when cond tells nothing about any variable in scope.
func Narrow(st *State, cond ast.Expr, side bool) *Scope {
	refs := refinements(st, cond, side)
	if len(refs) == 0 {
		return nil
	}

	var branch *Scope
	for _, ref := range refs {
		v, ok := st.Scope().Lookup(ref.name)
		bound := ok && v.IsBound()
		if !bound && !ref.defines {
			continue
		}
		var narrowed phptype.UnionType
		if bound {
			narrowed = ref.apply(v.LiveType())
		}
		if narrowed.IsEmpty() && !ref.defines {
			continue
		}
		if branch == nil {
			branch = st.Scope().Branch()
		}
		bv := branch.Var(ref.name)
		if ref.defines {
			bv.Define(narrowed)
		} else {
			bv.Narrow(narrowed)
		}
	}
	return branch
}

// branchFor returns the narrowed snapshot for one side of cond, or a plain snapshot.
func (st *State) branchFor(cond ast.Expr, side bool) *Scope {
	if cond != nil {
		if b := Narrow(st, cond, side); b != nil {
			return b
		}
	}
	return st.Scope().Branch()
}

func refinements(st *State, cond ast.Expr, side bool) []refinement {
	switch c := cond.(type) {
	case *ast.Unary:
		if c.Op == "!" {
			return refinements(st, c.Operand, !side)
		}
	case *ast.Variable:
		// a truthy variable is not null
		if side {
			return []refinement{{name: c.Name, apply: phptype.UnionType.WithoutNull}}
		}
	case *ast.Binary:
		return binaryRefinements(st, c, side)
	case *ast.Call:
		return callRefinements(c, side)
	case *ast.Assign:
		// if ($x = f()) narrows $x like if ($x)
		if v, ok := c.Target.(*ast.Variable); ok && side {
			return []refinement{{name: v.Name, apply: phptype.UnionType.WithoutNull}}
		}
	}
	return nil
}

func binaryRefinements(st *State, c *ast.Binary, side bool) []refinement {
	op, ok := ParseOp(c.Op)
	if !ok {
		return nil
	}
	switch op {
	case OpAnd:
		if side {
			return append(refinements(st, c.Left, true), refinements(st, c.Right, true)...)
		}
	case OpOr:
		if !side {
			return append(refinements(st, c.Left, false), refinements(st, c.Right, false)...)
		}
	case OpInstanceof:
		v, ok := c.Left.(*ast.Variable)
		if !ok {
			return nil
		}
		name, ok := c.Right.(*ast.Name)
		if !ok {
			return nil
		}
		class, ok := st.resolveClass(name.Value)
		if !ok {
			return nil
		}
		return []refinement{{name: v.Name, apply: instanceofRefinement(st, string(class), side)}}
	case OpIdentical, OpNotIdentical, OpEqual, OpNotEqual:
		v, ok := nullComparison(c)
		if !ok {
			return nil
		}
		isNull := side == (op == OpIdentical || op == OpEqual)
		switch {
		case !isNull:
			return []refinement{{name: v.Name, apply: phptype.UnionType.WithoutNull}}
		case op == OpIdentical || op == OpNotIdentical:
			return []refinement{{name: v.Name, apply: phptype.UnionType.OnlyNull}}
		}
	}
	return nil
}

// nullComparison matches $x <op> null and null <op> $x.
func nullComparison(c *ast.Binary) (*ast.Variable, bool) {
	if _, ok := c.Right.(*ast.NullLit); ok {
		v, ok := c.Left.(*ast.Variable)
		return v, ok
	}
	if _, ok := c.Left.(*ast.NullLit); ok {
		v, ok := c.Right.(*ast.Variable)
		return v, ok
	}
	return nil, false
}

func instanceofRefinement(st *State, class string, side bool) func(phptype.UnionType) phptype.UnionType {
	matches := func(m phptype.DiscreteType) bool {
		ref, ok := m.(phptype.ClassRef)
		return ok && st.isSubtype(ref.Name, class)
	}
	if side {
		return func(t phptype.UnionType) phptype.UnionType {
			kept := t.Filter(matches).WithoutNull()
			if kept.IsEmpty() {
				return classType(symbols.Name(class))
			}
			return kept
		}
	}
	return func(t phptype.UnionType) phptype.UnionType {
		return t.Filter(func(m phptype.DiscreteType) bool { return !matches(m) })
	}
}

// typeChecks maps the is_* functions to the members they accept and the type they
// narrow an unknown or mixed variable to.
var typeChecks = map[string]struct {
	match    func(phptype.DiscreteType) bool
	fallback phptype.UnionType
}{
	"is_int":      {scalarMatch(phptype.Int), phptype.Single(phptype.Int)},
	"is_integer":  {scalarMatch(phptype.Int), phptype.Single(phptype.Int)},
	"is_long":     {scalarMatch(phptype.Int), phptype.Single(phptype.Int)},
	"is_float":    {scalarMatch(phptype.Float), phptype.Single(phptype.Float)},
	"is_double":   {scalarMatch(phptype.Float), phptype.Single(phptype.Float)},
	"is_string":   {scalarMatch(phptype.String), phptype.Single(phptype.String)},
	"is_bool":     {scalarMatch(phptype.Bool, phptype.True, phptype.False), phptype.Single(phptype.Bool)},
	"is_null":     {scalarMatch(phptype.Null), phptype.Single(phptype.Null)},
	"is_array":    {arrayMatch, phptype.Single(phptype.Array)},
	"is_iterable": {iterableMatch, phptype.Single(phptype.Iterable)},
	"is_object":   {objectMatch, phptype.Single(phptype.Object)},
	"is_callable": {callableMatch, phptype.Single(phptype.Callable)},
}

func callRefinements(c *ast.Call, side bool) []refinement {
	fn, ok := c.Function.(*ast.Name)
	if !ok || len(c.Args) == 0 {
		return nil
	}
	name := strings.ToLower(strings.TrimPrefix(fn.Value, "\\"))

	if name == "isset" {
		if !side {
			return nil
		}
		var refs []refinement
		for _, arg := range c.Args {
			if v, ok := arg.Value.(*ast.Variable); ok {
				refs = append(refs, refinement{name: v.Name, apply: phptype.UnionType.WithoutNull, defines: true})
			}
		}
		return refs
	}
	if name == "empty" {
		if v, ok := c.Args[0].Value.(*ast.Variable); ok && !side {
			return []refinement{{name: v.Name, apply: phptype.UnionType.WithoutNull, defines: true}}
		}
		return nil
	}

	check, ok := typeChecks[name]
	if !ok {
		return nil
	}
	v, ok := c.Args[0].Value.(*ast.Variable)
	if !ok {
		return nil
	}
	if name == "is_null" {
		if side {
			return []refinement{{name: v.Name, apply: phptype.UnionType.OnlyNull}}
		}
		return []refinement{{name: v.Name, apply: phptype.UnionType.WithoutNull}}
	}
	if side {
		return []refinement{{name: v.Name, apply: func(t phptype.UnionType) phptype.UnionType {
			kept := t.WithoutNull().Filter(check.match)
			if kept.IsEmpty() || t.Has(phptype.Mixed) {
				return phptype.Flatten(kept, check.fallback)
			}
			return kept
		}}}
	}
	return []refinement{{name: v.Name, apply: func(t phptype.UnionType) phptype.UnionType {
		return t.Filter(func(m phptype.DiscreteType) bool { return !check.match(m) })
	}}}
}

func scalarMatch(kinds ...phptype.ScalarKind) func(phptype.DiscreteType) bool {
	return func(m phptype.DiscreteType) bool {
		s, ok := m.(phptype.Scalar)
		if !ok {
			return false
		}
		for _, k := range kinds {
			if s.Kind == k {
				return true
			}
		}
		return false
	}
}

func arrayMatch(m phptype.DiscreteType) bool {
	if _, ok := m.(phptype.Shape); ok {
		return true
	}
	return scalarMatch(phptype.Array)(m)
}

func iterableMatch(m phptype.DiscreteType) bool {
	return arrayMatch(m) || scalarMatch(phptype.Iterable)(m)
}

func objectMatch(m phptype.DiscreteType) bool {
	switch m.(type) {
	case phptype.ClassRef, phptype.Signature:
		return true
	}
	return scalarMatch(phptype.Object, phptype.Self, phptype.Static, phptype.Parent)(m)
}

func callableMatch(m phptype.DiscreteType) bool {
	if _, ok := m.(phptype.Signature); ok {
		return true
	}
	return scalarMatch(phptype.Callable)(m)
}

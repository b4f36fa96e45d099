package analysis

import (
	"fmt"
	"math"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
	"github.com/shopware/phpflow/internal/symbols"
)

// Op is a binary operator.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpConcat
	OpEqual
	OpNotEqual
	OpIdentical
	OpNotIdentical
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpSpaceship
	OpAnd
	OpOr
	OpXor
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpCoalesce
	OpInstanceof
)

var opTokens = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpPow:          "**",
	OpConcat:       ".",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpIdentical:    "===",
	OpNotIdentical: "!==",
	OpLess:         "<",
	OpGreater:      ">",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
	OpSpaceship:    "<=>",
	OpAnd:          "&&",
	OpOr:           "||",
	OpXor:          "xor",
	OpBitAnd:       "&",
	OpBitOr:        "|",
	OpBitXor:       "^",
	OpShiftLeft:    "<<",
	OpShiftRight:   ">>",
	OpCoalesce:     "??",
	OpInstanceof:   "instanceof",
}

func (op Op) String() string {
	if int(op) < len(opTokens) {
		return opTokens[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// ParseOp maps an operator token to its Op. The keyword forms and and or share the
// entries of && and ||; <> is !=.
func ParseOp(token string) (Op, bool) {
	switch token {
	case "and":
		return OpAnd, true
	case "or":
		return OpOr, true
	case "<>":
		return OpNotEqual, true
	}
	for i, t := range opTokens {
		if t == token {
			return Op(i), true
		}
	}
	return 0, false
}

// Operands gives an operator access to its operands. Every accessor may analyse the
// operand on first use; results are memoised.
type Operands interface {
	LeftType() phptype.UnionType
	RightType() phptype.UnionType
	LeftValue() (phpvalue.Value, bool)
	RightValue() (phpvalue.Value, bool)
	// RightSymbol returns the right operand as a class name, for instanceof.
	RightSymbol() (symbols.Name, bool)
}

// foldStatus tells why a value fold produced no constant.
type foldStatus uint8

const (
	folded foldStatus = iota
	// notConstant means an operand has no constant value.
	notConstant
	// uncovered means both operands are constant but the fold does not handle them.
	uncovered
)

type opEntry struct {
	typ   func(Operands) phptype.UnionType
	value func(Operands) (phpvalue.Value, foldStatus)
}

var opTable [len(opTokens)]opEntry

func init() {
	boolType := func(Operands) phptype.UnionType { return phptype.Single(phptype.Bool) }
	intType := func(Operands) phptype.UnionType { return phptype.Single(phptype.Int) }

	for _, op := range []Op{OpAdd, OpSub, OpMul, OpDiv, OpPow} {
		opTable[op] = opEntry{typ: arithmeticType(op), value: arithmeticValue(op)}
	}
	opTable[OpMod] = opEntry{typ: intType, value: arithmeticValue(OpMod)}
	opTable[OpConcat] = opEntry{
		typ:   func(Operands) phptype.UnionType { return phptype.Single(phptype.String) },
		value: concatValue,
	}
	opTable[OpEqual] = opEntry{typ: boolType, value: equalValue(false)}
	opTable[OpNotEqual] = opEntry{typ: boolType, value: equalValue(true)}
	opTable[OpIdentical] = opEntry{typ: boolType, value: identicalValue(false)}
	opTable[OpNotIdentical] = opEntry{typ: boolType, value: identicalValue(true)}
	for _, op := range []Op{OpLess, OpGreater, OpLessEqual, OpGreaterEqual} {
		opTable[op] = opEntry{typ: boolType, value: compareValue(op)}
	}
	opTable[OpSpaceship] = opEntry{typ: intType, value: compareValue(OpSpaceship)}
	opTable[OpAnd] = opEntry{typ: boolType, value: logicalValue(true)}
	opTable[OpOr] = opEntry{typ: boolType, value: logicalValue(false)}
	opTable[OpXor] = opEntry{typ: boolType, value: xorValue}
	for _, op := range []Op{OpBitAnd, OpBitOr, OpBitXor, OpShiftLeft, OpShiftRight} {
		opTable[op] = opEntry{typ: bitwiseType, value: bitwiseValue(op)}
	}
	opTable[OpCoalesce] = opEntry{typ: coalesceType, value: coalesceValue}
	opTable[OpInstanceof] = opEntry{typ: boolType, value: instanceofValue}
}

// Evaluate applies op to the operands. Constant operands the value fold does not cover
// yield a result without value and a MissingCoverage issue at r.
func Evaluate(op Op, o Operands, emitter Emitter, r ast.Range) Result {
	if int(op) >= len(opTable) || opTable[op].typ == nil {
		if emitter != nil {
			emitter.Emit(newIssue(InternalError, r, "unknown operator %s", op))
		}
		return Result{}
	}
	entry := opTable[op]
	res := Result{Type: entry.typ(o)}

	value, status := entry.value(o)
	switch status {
	case folded:
		res.Value, res.Known = value, true
		res.Type = value.Type()
	case uncovered:
		if emitter != nil {
			l, _ := o.LeftValue()
			rv, _ := o.RightValue()
			emitter.Emit(newIssue(MissingCoverage, r, "cannot fold %s %s %s", l, op, rv))
		}
	}
	return res
}

func bothValues(o Operands) (phpvalue.Value, phpvalue.Value, bool) {
	l, lok := o.LeftValue()
	if !lok {
		return l, phpvalue.Value{}, false
	}
	r, rok := o.RightValue()
	return l, r, rok
}

func onlyArrays(t phptype.UnionType) bool {
	if t.IsEmpty() {
		return false
	}
	for _, m := range t.Members() {
		switch m := m.(type) {
		case phptype.Shape:
		case phptype.Scalar:
			if m.Kind != phptype.Array || m.Nullable {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func arithmeticType(op Op) func(Operands) phptype.UnionType {
	return func(o Operands) phptype.UnionType {
		l, r := o.LeftType(), o.RightType()
		switch {
		case op == OpAdd && onlyArrays(l) && onlyArrays(r):
			return phptype.Single(phptype.Array)
		case l.Is(phptype.Float) || r.Is(phptype.Float):
			return phptype.Single(phptype.Float)
		case op != OpDiv && l.Is(phptype.Int) && r.Is(phptype.Int):
			return phptype.Single(phptype.Int)
		}
		return phptype.Of(phptype.Scalar{Kind: phptype.Int}, phptype.Scalar{Kind: phptype.Float})
	}
}

func arithmeticValue(op Op) func(Operands) (phpvalue.Value, foldStatus) {
	return func(o Operands) (phpvalue.Value, foldStatus) {
		lv, rv, ok := bothValues(o)
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		l, lok := lv.AsNumber()
		r, rok := rv.AsNumber()
		if !lok || !rok {
			return phpvalue.Value{}, uncovered
		}
		li, lInt := l.IntValue()
		ri, rInt := r.IntValue()
		if lInt && rInt {
			return intArithmetic(op, li, ri)
		}
		return floatArithmetic(op, toFloat(l), toFloat(r))
	}
}

func toFloat(v phpvalue.Value) float64 {
	if i, ok := v.IntValue(); ok {
		return float64(i)
	}
	f, _ := v.FloatValue()
	return f
}

// intArithmetic folds integer operands. Results that overflow become floats, as in PHP.
func intArithmetic(op Op, l, r int64) (phpvalue.Value, foldStatus) {
	switch op {
	case OpAdd:
		sum := l + r
		if (sum > l) == (r > 0) {
			return phpvalue.Int(sum), folded
		}
		return phpvalue.Float(float64(l) + float64(r)), folded
	case OpSub:
		diff := l - r
		if (diff < l) == (r > 0) {
			return phpvalue.Int(diff), folded
		}
		return phpvalue.Float(float64(l) - float64(r)), folded
	case OpMul:
		if l == 0 || r == 0 {
			return phpvalue.Int(0), folded
		}
		product := l * r
		if product/r == l && !(l == -1 && r == math.MinInt64) && !(r == -1 && l == math.MinInt64) {
			return phpvalue.Int(product), folded
		}
		return phpvalue.Float(float64(l) * float64(r)), folded
	case OpDiv:
		if r == 0 {
			return phpvalue.Value{}, uncovered
		}
		if l%r == 0 && !(l == math.MinInt64 && r == -1) {
			return phpvalue.Int(l / r), folded
		}
		return phpvalue.Float(float64(l) / float64(r)), folded
	case OpMod:
		if r == 0 {
			return phpvalue.Value{}, uncovered
		}
		if r == -1 {
			return phpvalue.Int(0), folded
		}
		return phpvalue.Int(l % r), folded
	case OpPow:
		if r < 0 {
			return phpvalue.Float(math.Pow(float64(l), float64(r))), folded
		}
		switch l {
		case 0:
			if r == 0 {
				return phpvalue.Int(1), folded
			}
			return phpvalue.Int(0), folded
		case 1:
			return phpvalue.Int(1), folded
		case -1:
			if r%2 == 0 {
				return phpvalue.Int(1), folded
			}
			return phpvalue.Int(-1), folded
		}
		result := int64(1)
		for i := int64(0); i < r; i++ {
			next := result * l
			if next/l != result {
				return phpvalue.Float(math.Pow(float64(l), float64(r))), folded
			}
			result = next
		}
		return phpvalue.Int(result), folded
	}
	return phpvalue.Value{}, uncovered
}

func floatArithmetic(op Op, l, r float64) (phpvalue.Value, foldStatus) {
	switch op {
	case OpAdd:
		return phpvalue.Float(l + r), folded
	case OpSub:
		return phpvalue.Float(l - r), folded
	case OpMul:
		return phpvalue.Float(l * r), folded
	case OpDiv:
		if r == 0 {
			return phpvalue.Value{}, uncovered
		}
		return phpvalue.Float(l / r), folded
	case OpPow:
		return phpvalue.Float(math.Pow(l, r)), folded
	case OpMod:
		// % truncates both operands to int
		if math.IsNaN(l) || math.IsNaN(r) || math.Abs(l) >= math.MaxInt64 || math.Abs(r) >= math.MaxInt64 {
			return phpvalue.Value{}, uncovered
		}
		return intArithmetic(OpMod, int64(l), int64(r))
	}
	return phpvalue.Value{}, uncovered
}

func concatValue(o Operands) (phpvalue.Value, foldStatus) {
	lv, rv, ok := bothValues(o)
	if !ok {
		return phpvalue.Value{}, notConstant
	}
	l, lok := lv.AsString()
	r, rok := rv.AsString()
	if !lok || !rok {
		return phpvalue.Value{}, uncovered
	}
	return phpvalue.String(l + r), folded
}

func equalValue(negate bool) func(Operands) (phpvalue.Value, foldStatus) {
	return func(o Operands) (phpvalue.Value, foldStatus) {
		l, r, ok := bothValues(o)
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		equal, defined := l.EqualTo(r)
		if !defined {
			return phpvalue.Value{}, uncovered
		}
		return phpvalue.Bool(equal != negate), folded
	}
}

func identicalValue(negate bool) func(Operands) (phpvalue.Value, foldStatus) {
	return func(o Operands) (phpvalue.Value, foldStatus) {
		l, r, ok := bothValues(o)
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		return phpvalue.Bool(l.IdenticalTo(r) != negate), folded
	}
}

// compareValue orders Int/Int and Float/Float pairs only. Mixed pairs go through PHP's
// type juggling, which is not modelled.
func compareValue(op Op) func(Operands) (phpvalue.Value, foldStatus) {
	return func(o Operands) (phpvalue.Value, foldStatus) {
		l, r, ok := bothValues(o)
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		sameNumber := l.Kind() == r.Kind() && (l.Kind() == phpvalue.KindInt || l.Kind() == phpvalue.KindFloat)
		if !sameNumber {
			return phpvalue.Value{}, uncovered
		}
		c, ok := phpvalue.Compare(l, r)
		if !ok {
			// NaN compares false with everything
			if op == OpSpaceship {
				return phpvalue.Int(1), folded
			}
			return phpvalue.Bool(false), folded
		}
		switch op {
		case OpLess:
			return phpvalue.Bool(c < 0), folded
		case OpGreater:
			return phpvalue.Bool(c > 0), folded
		case OpLessEqual:
			return phpvalue.Bool(c <= 0), folded
		case OpGreaterEqual:
			return phpvalue.Bool(c >= 0), folded
		}
		return phpvalue.Int(int64(c)), folded
	}
}

// logicalValue folds && (and true) and || (and false), short-circuiting on the left side.
func logicalValue(and bool) func(Operands) (phpvalue.Value, foldStatus) {
	return func(o Operands) (phpvalue.Value, foldStatus) {
		lv, ok := o.LeftValue()
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		l, ok := lv.AsBool()
		if !ok {
			return phpvalue.Value{}, uncovered
		}
		if l != and {
			return phpvalue.Bool(l), folded
		}
		rv, ok := o.RightValue()
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		r, ok := rv.AsBool()
		if !ok {
			return phpvalue.Value{}, uncovered
		}
		return phpvalue.Bool(r), folded
	}
}

func xorValue(o Operands) (phpvalue.Value, foldStatus) {
	lv, rv, ok := bothValues(o)
	if !ok {
		return phpvalue.Value{}, notConstant
	}
	l, lok := lv.AsBool()
	r, rok := rv.AsBool()
	if !lok || !rok {
		return phpvalue.Value{}, uncovered
	}
	return phpvalue.Bool(l != r), folded
}

func bitwiseType(o Operands) phptype.UnionType {
	if o.LeftType().Is(phptype.String) && o.RightType().Is(phptype.String) {
		return phptype.Single(phptype.String)
	}
	return phptype.Single(phptype.Int)
}

func bitwiseValue(op Op) func(Operands) (phpvalue.Value, foldStatus) {
	return func(o Operands) (phpvalue.Value, foldStatus) {
		lv, rv, ok := bothValues(o)
		if !ok {
			return phpvalue.Value{}, notConstant
		}
		l, lok := lv.IntValue()
		r, rok := rv.IntValue()
		if !lok || !rok {
			return phpvalue.Value{}, uncovered
		}
		switch op {
		case OpBitAnd:
			return phpvalue.Int(l & r), folded
		case OpBitOr:
			return phpvalue.Int(l | r), folded
		case OpBitXor:
			return phpvalue.Int(l ^ r), folded
		}
		if r < 0 {
			// negative shifts throw an ArithmeticError
			return phpvalue.Value{}, uncovered
		}
		if op == OpShiftLeft {
			if r >= 64 {
				return phpvalue.Int(0), folded
			}
			return phpvalue.Int(l << uint(r)), folded
		}
		if r >= 64 {
			r = 63
		}
		return phpvalue.Int(l >> uint(r)), folded
	}
}

func coalesceType(o Operands) phptype.UnionType {
	left := o.LeftType()
	if left.IsEmpty() {
		return phptype.UnionType{}
	}
	if !left.IsNullable() {
		return left
	}
	return phptype.Flatten(left.WithoutNull(), o.RightType())
}

func coalesceValue(o Operands) (phpvalue.Value, foldStatus) {
	l, ok := o.LeftValue()
	if !ok {
		return phpvalue.Value{}, notConstant
	}
	if l.Kind() != phpvalue.KindNull {
		return l, folded
	}
	r, ok := o.RightValue()
	if !ok {
		return phpvalue.Value{}, notConstant
	}
	return r, folded
}

// instanceofValue folds constant left operands: scalars are never objects.
func instanceofValue(o Operands) (phpvalue.Value, foldStatus) {
	if _, ok := o.LeftValue(); ok {
		return phpvalue.Bool(false), folded
	}
	return phpvalue.Value{}, notConstant
}

// exprOperands evaluates the operand expressions through the state memo.
type exprOperands struct {
	st          *State
	left, right ast.Expr
}

func (o exprOperands) LeftType() phptype.UnionType  { return o.st.Eval(o.left).Type }
func (o exprOperands) RightType() phptype.UnionType { return o.st.Eval(o.right).Type }

func (o exprOperands) LeftValue() (phpvalue.Value, bool) {
	res := o.st.Eval(o.left)
	return res.Value, res.Known
}

func (o exprOperands) RightValue() (phpvalue.Value, bool) {
	res := o.st.Eval(o.right)
	return res.Value, res.Known
}

func (o exprOperands) RightSymbol() (symbols.Name, bool) {
	name, ok := o.right.(*ast.Name)
	if !ok {
		return "", false
	}
	return o.st.resolveClass(name.Value)
}

// resultOperands holds already computed operands.
type resultOperands struct {
	left, right Result
}

func (o resultOperands) LeftType() phptype.UnionType        { return o.left.Type }
func (o resultOperands) RightType() phptype.UnionType       { return o.right.Type }
func (o resultOperands) LeftValue() (phpvalue.Value, bool)  { return o.left.Value, o.left.Known }
func (o resultOperands) RightValue() (phpvalue.Value, bool) { return o.right.Value, o.right.Known }
func (o resultOperands) RightSymbol() (symbols.Name, bool)  { return "", false }

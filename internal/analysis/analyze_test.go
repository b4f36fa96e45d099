package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
)

func analyze(t *testing.T, src string) (*State, *Collector) {
	t.Helper()
	c := &Collector{}
	st, err := AnalyzeSource("test.php", []byte(src), nil, c)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st, c
}

func TestAnalyzeDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kind  IssueKind
		count int
	}{
		{
			name:  "undefined in function",
			src:   "<?php\nfunction f() { return $x; }\n",
			kind:  UndefinedVariable,
			count: 1,
		},
		{
			name:  "possibly undefined after if",
			src:   "<?php\nfunction f($c) { if ($c) { $x = 1; } return $x; }\n",
			kind:  PossiblyUndefinedVariable,
			count: 1,
		},
		{
			name:  "isset guard ends with the if",
			src:   "<?php\nfunction f($c) { if ($c) { $x = 1; } if (isset($x)) { echo $x; } return $x; }\n",
			kind:  PossiblyUndefinedVariable,
			count: 1,
		},
		{
			name:  "reported once per variable",
			src:   "<?php\nfunction f() { echo $x; echo $x; }\n",
			kind:  UndefinedVariable,
			count: 1,
		},
		{
			name:  "defined in every arm",
			src:   "<?php\nfunction f($c) { if ($c) { $x = 1; } elseif ($c > 1) { $x = 2; } else { $x = 3; } return $x; }\n",
			kind:  PossiblyUndefinedVariable,
			count: 0,
		},
		{
			name:  "early return leaves the other arm",
			src:   "<?php\nfunction f($c) { if ($c) { return 0; } else { $x = 1; } return $x; }\n",
			kind:  PossiblyUndefinedVariable,
			count: 0,
		},
		{
			name:  "parameter default mismatch",
			src:   "<?php\nfunction f(int $x = \"a\") { return $x; }\n",
			kind:  DeclaredTypeMismatch,
			count: 1,
		},
		{
			name:  "nullable default",
			src:   "<?php\nfunction f(int $x = null) { return $x; }\n",
			kind:  DeclaredTypeMismatch,
			count: 0,
		},
		{
			name:  "assignment to typed parameter",
			src:   "<?php\nfunction f(int $x) { $x = \"a\"; return $x; }\n",
			kind:  DeclaredTypeMismatch,
			count: 1,
		},
		{
			name:  "return mismatch",
			src:   "<?php\nfunction f(): int { return \"a\"; }\n",
			kind:  DeclaredTypeMismatch,
			count: 1,
		},
		{
			name:  "float accepts int",
			src:   "<?php\nfunction f(): float { return 1; }\n",
			kind:  DeclaredTypeMismatch,
			count: 0,
		},
		{
			name:  "void returning a value",
			src:   "<?php\nfunction f(): void { return 1; }\n",
			kind:  DeclaredTypeMismatch,
			count: 1,
		},
		{
			name:  "constant condition",
			src:   "<?php\nfunction f() { $a = 1; if ($a > 0) { return 1; } return 2; }\n",
			kind:  ConstantCondition,
			count: 1,
		},
		{
			name:  "literal condition is not reported",
			src:   "<?php\nfunction f() { while (true) { return 1; } }\n",
			kind:  ConstantCondition,
			count: 0,
		},
		{
			name:  "instanceof on a string",
			src:   "<?php\nfunction f() { $s = \"a\"; return $s instanceof Foo; }\n",
			kind:  InstanceofNonObject,
			count: 1,
		},
		{
			name:  "unknown namespaced class",
			src:   "<?php\nnamespace App;\nfunction f() { return new Missing(); }\n",
			kind:  UnknownClass,
			count: 1,
		},
		{
			name:  "known namespaced class",
			src:   "<?php\nnamespace App;\nclass Known {}\nfunction f() { return new Known(); }\n",
			kind:  UnknownClass,
			count: 0,
		},
		{
			name:  "foreach value after the loop",
			src:   "<?php\nfunction f(array $xs) { foreach ($xs as $x) {} return $x; }\n",
			kind:  PossiblyUndefinedVariable,
			count: 1,
		},
		{
			name:  "read after unset",
			src:   "<?php\nfunction f() { $x = 1; unset($x); return $x; }\n",
			kind:  UndefinedVariable,
			count: 1,
		},
		{
			name:  "isset does not report",
			src:   "<?php\nfunction f() { return isset($x) ? 1 : 2; }\n",
			kind:  UndefinedVariable,
			count: 0,
		},
		{
			name:  "coalesce does not report",
			src:   "<?php\nfunction f() { return $x ?? 1; }\n",
			kind:  UndefinedVariable,
			count: 0,
		},
		{
			name:  "extract makes the scope dynamic",
			src:   "<?php\nfunction f(array $a) { extract($a); return $name; }\n",
			kind:  UndefinedVariable,
			count: 0,
		},
		{
			name:  "global binds the variable",
			src:   "<?php\nfunction f() { global $config; return $config; }\n",
			kind:  UndefinedVariable,
			count: 0,
		},
		{
			name:  "property default mismatch",
			src:   "<?php\nclass A { private int $n = \"a\"; }\n",
			kind:  DeclaredTypeMismatch,
			count: 1,
		},
		{
			name:  "match is not modelled",
			src:   "<?php\nfunction f($v) { return match($v) { 1 => 'a', default => 'b' }; }\n",
			kind:  MissingCapability,
			count: 1,
		},
		{
			name:  "file scope is not checked for undefined variables",
			src:   "<?php\necho $x;\n",
			kind:  UndefinedVariable,
			count: 0,
		},
		{
			name:  "unused variable",
			src:   "<?php\nfunction f() { $x = 1; }\n",
			kind:  UnusedVariable,
			count: 1,
		},
		{
			name:  "written in a loop and read in the next iteration",
			src:   "<?php\nfunction f(array $xs) { $last = null; foreach ($xs as $x) { if ($last !== null) { echo $last; } $last = $x; } }\n",
			kind:  UnusedVariable,
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := analyze(t, tt.src)
			assert.Equal(t, tt.count, c.Count(tt.kind), "issues: %v", c.Issues())
		})
	}
}

func TestAnalyzeCleanCode(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "if else",
			src:  "<?php\nfunction f($c) { if ($c) { $x = 1; } else { $x = 2; } return $x; }\n",
		},
		{
			name: "while loop widens its counter",
			src:  "<?php\nfunction f() { $i = 0; while ($i < 10) { $i++; } return $i; }\n",
		},
		{
			name: "for loop",
			src:  "<?php\nfunction f() { $sum = 0; for ($i = 0; $i < 10; $i++) { $sum += $i; } return $sum; }\n",
		},
		{
			name: "foreach accumulates",
			src:  "<?php\nfunction f(array $xs) { $total = 0; foreach ($xs as $x) { $total += $x; } return $total; }\n",
		},
		{
			name: "try catch",
			src:  "<?php\nfunction f() { try { $x = g(); } catch (\\Exception $e) { $x = null; } return $x; }\n",
		},
		{
			name: "switch with default",
			src:  "<?php\nfunction f($v) { switch ($v) { case 1: $x = 'a'; break; default: $x = 'b'; } return $x; }\n",
		},
		{
			name: "closure use",
			src:  "<?php\nfunction f() { $a = 1; $g = function () use ($a) { return $a; }; return $g(); }\n",
		},
		{
			name: "arrow function captures by value",
			src:  "<?php\nfunction f() { $a = 1; return fn($b) => $a + $b; }\n",
		},
		{
			name: "preg_match writes its matches",
			src:  "<?php\nfunction f($s) { if (preg_match('/a/', $s, $m)) { return $m; } return null; }\n",
		},
		{
			name: "method reading a typed property",
			src:  "<?php\nclass A { private int $n = 1; public function get(): int { return $this->n; } }\n",
		},
		{
			name: "compact reads its variables",
			src:  "<?php\nfunction f() { $a = 1; $b = 2; return compact('a', 'b'); }\n",
		},
		{
			name: "by-reference out parameter",
			src:  "<?php\nfunction g(&$out) { $out = 1; }\nfunction f() { g($v); return $v; }\n",
		},
		{
			name: "static variable",
			src:  "<?php\nfunction f() { static $n = 0; $n++; return $n; }\n",
		},
		{
			name: "isset guards a partly defined variable",
			src:  "<?php\nfunction f($c) { if ($c) { $x = 1; } if (isset($x)) { echo $x; } }\n",
		},
		{
			name: "variable set when isset fails",
			src:  "<?php\nfunction f($c) { if ($c) { $x = 1; } if (!isset($x)) { $x = 2; } echo $x; }\n",
		},
		{
			name: "isset guards a variable from an earlier iteration",
			src:  "<?php\nfunction f(array $a) { foreach ($a as $v) { if (isset($prev)) { echo $prev; } $prev = $v; } }\n",
		},
		{
			name: "not empty guards a partly defined variable",
			src:  "<?php\nfunction f($c) { if ($c) { $x = 1; } if (!empty($x)) { echo $x; } }\n",
		},
		{
			name: "narrowed nullable",
			src:  "<?php\nfunction f(?int $x): int { if ($x === null) { return 0; } return $x; }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := analyze(t, tt.src)
			assert.Empty(t, c.Issues())
		})
	}
}

func TestAnalyzeUnusedVariablePosition(t *testing.T) {
	_, c := analyze(t, "<?php\nfunction f() {\n    $x = 1;\n}\n")

	issues := c.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, UnusedVariable, issues[0].Kind)
	assert.Equal(t, SeverityInfo, issues[0].Severity)
	assert.Equal(t, 2, issues[0].Range.Start.Line)
	assert.Equal(t, 4, issues[0].Range.Start.Column)
	assert.Equal(t, "variable $x is assigned but never used", issues[0].Message)
}

func TestAnalyzeFoldsFileScope(t *testing.T) {
	st, c := analyze(t, "<?php\n$x = 1 + 2;\n$s = 'a' . 'b';\n$t = $x > 2 ? 'big' : 'small';\n$n = -PHP_INT_MAX;\n")
	assert.Zero(t, c.Count(MissingCoverage))

	tests := []struct {
		name string
		want phpvalue.Value
	}{
		{"x", phpvalue.Int(3)},
		{"s", phpvalue.String("ab")},
		{"t", phpvalue.String("big")},
		{"n", phpvalue.Int(-9223372036854775807)},
	}
	for _, tt := range tests {
		v, ok := st.Scope().Lookup(tt.name)
		require.True(t, ok, tt.name)
		value, known := v.LiveValue()
		require.True(t, known, tt.name)
		assert.True(t, value.IdenticalTo(tt.want), "$%s = %s, want %s", tt.name, value, tt.want)
	}
}

func TestAnalyzeMergesBranchValues(t *testing.T) {
	st, _ := analyze(t, "<?php\nif ($c) { $x = 1; } else { $x = 1; }\nif ($c) { $y = 1; } else { $y = 'a'; }\n")

	x, _ := st.Scope().Lookup("x")
	value, known := x.LiveValue()
	require.True(t, known)
	assert.True(t, value.IdenticalTo(phpvalue.Int(1)))

	y, _ := st.Scope().Lookup("y")
	_, known = y.LiveValue()
	assert.False(t, known)
	assert.Equal(t, "int|string", y.LiveType().String())
}

func TestAnalyzeSyntaxError(t *testing.T) {
	_, c := analyze(t, "<?php\n$x = ;\necho 1;\n")
	assert.Greater(t, c.Count(SyntaxError), 0)
}

func TestForHeaderSyntaxErrorSkipsLoop(t *testing.T) {
	c := &Collector{}
	st := NewState(nil, c)
	i := st.Scope().Var("i")
	i.SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(0), true, ast.Range{})
	reads, writes := i.Reads, i.Writes

	loop := &ast.For{
		Init:   []ast.Expr{&ast.BadExpr{Err: &ast.KindError{Expected: "expression", Actual: "ERROR"}}},
		Cond:   []ast.Expr{&ast.Binary{Op: "<", Left: &ast.Variable{Name: "i"}, Right: &ast.IntLit{Value: 3}}},
		Update: []ast.Expr{&ast.IncDec{Op: "++", Target: &ast.Variable{Name: "i"}}},
		Body:   []ast.Stmt{&ast.ExprStmt{X: &ast.Assign{Target: &ast.Variable{Name: "x"}, Value: &ast.IntLit{Value: 1}}}},
	}

	assert.False(t, st.Exec(loop))
	assert.Equal(t, []string{"i"}, st.Scope().Names())
	assert.Equal(t, 1, c.Count(SyntaxError))

	after, ok := st.Scope().Lookup("i")
	require.True(t, ok)
	assert.Equal(t, reads, after.Reads)
	assert.Equal(t, writes, after.Writes)
	value, known := after.LiveValue()
	require.True(t, known)
	assert.True(t, value.IdenticalTo(phpvalue.Int(0)))
}

func TestSyntaxErrorSuppressesUnusedVariables(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "function with broken for header",
			src:  "<?php\nfunction f() { $i = 0; for ($i = ; $i < 3; $i++) { $j = $i; } return $i; }\n",
		},
		{
			name: "closure with broken statement",
			src:  "<?php\nfunction f() { return function () { $u = 1; $v = ; }; }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := analyze(t, tt.src)
			assert.Greater(t, c.Count(SyntaxError), 0)
			assert.Equal(t, 0, c.Count(UnusedVariable))
		})
	}
}

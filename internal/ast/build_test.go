package ast

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	file, err := Parse([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

func TestBuildAssignments(t *testing.T) {
	file := parse(t, `<?php
$x = 1;
$y = "a" . $x;
$z += 2.5;
`)
	require.Len(t, file.Stmts, 3)

	first := file.Stmts[0].(*ExprStmt).X.(*Assign)
	assert.Equal(t, "x", first.Target.(*Variable).Name)
	assert.Equal(t, int64(1), first.Value.(*IntLit).Value)
	assert.Equal(t, 1, first.Range().Start.Line)

	second := file.Stmts[1].(*ExprStmt).X.(*Assign)
	concat := second.Value.(*Binary)
	assert.Equal(t, ".", concat.Op)
	assert.Equal(t, "a", concat.Left.(*StringLit).Value)
	assert.Equal(t, "x", concat.Right.(*Variable).Name)

	third := file.Stmts[2].(*ExprStmt).X.(*CompoundAssign)
	assert.Equal(t, "+", third.Op)
	assert.Equal(t, 2.5, third.Value.(*FloatLit).Value)
}

func TestBuildIntegerBases(t *testing.T) {
	file := parse(t, `<?php
$a = 0x1F;
$b = 017;
$c = 0b101;
$d = 1_000;
`)
	expected := []int64{31, 15, 5, 1000}
	require.Len(t, file.Stmts, len(expected))
	for i, want := range expected {
		lit := file.Stmts[i].(*ExprStmt).X.(*Assign).Value.(*IntLit)
		assert.Equal(t, want, lit.Value)
	}
}

func TestBuildIfChain(t *testing.T) {
	file := parse(t, `<?php
if ($a) {
    $b = 1;
} elseif ($c) {
    $b = 2;
} else {
    $b = 3;
}
if ($d) $e = 1;
`)
	require.Len(t, file.Stmts, 2)

	chain := file.Stmts[0].(*If)
	assert.Equal(t, "a", chain.Cond.(*Variable).Name)
	assert.Len(t, chain.Then, 1)
	require.Len(t, chain.ElseIfs, 1)
	assert.Equal(t, "c", chain.ElseIfs[0].Cond.(*Variable).Name)
	assert.True(t, chain.HasElse)
	assert.Len(t, chain.Else, 1)

	single := file.Stmts[1].(*If)
	assert.Len(t, single.Then, 1)
	assert.False(t, single.HasElse)
	assert.Empty(t, single.ElseIfs)
}

func TestBuildLoops(t *testing.T) {
	file := parse(t, `<?php
for ($i = 0, $j = 1; $i < 10; $i++) {
    echo $i, $j;
}
for (;;) {}
while ($x > 0) { $x--; }
do { $x++; } while ($x < 5);
foreach ($items as $k => &$v) {}
foreach ($items as $item) { echo $item; }
`)
	require.Len(t, file.Stmts, 6)

	loop := file.Stmts[0].(*For)
	assert.Len(t, loop.Init, 2)
	require.Len(t, loop.Cond, 1)
	assert.Equal(t, "<", loop.Cond[0].(*Binary).Op)
	require.Len(t, loop.Update, 1)
	inc := loop.Update[0].(*IncDec)
	assert.Equal(t, "++", inc.Op)
	assert.False(t, inc.Prefix)
	require.Len(t, loop.Body, 1)
	assert.Len(t, loop.Body[0].(*Echo).Exprs, 2)

	empty := file.Stmts[1].(*For)
	assert.Empty(t, empty.Init)
	assert.Empty(t, empty.Cond)
	assert.Empty(t, empty.Update)

	while := file.Stmts[2].(*While)
	assert.Equal(t, ">", while.Cond.(*Binary).Op)
	assert.Len(t, while.Body, 1)

	do := file.Stmts[3].(*DoWhile)
	assert.Len(t, do.Body, 1)
	assert.Equal(t, "<", do.Cond.(*Binary).Op)

	byRef := file.Stmts[4].(*Foreach)
	assert.Equal(t, "items", byRef.Subject.(*Variable).Name)
	assert.Equal(t, "k", byRef.Key.(*Variable).Name)
	assert.Equal(t, "v", byRef.Value.(*Variable).Name)
	assert.True(t, byRef.ByRef)

	plain := file.Stmts[5].(*Foreach)
	assert.Nil(t, plain.Key)
	assert.Equal(t, "item", plain.Value.(*Variable).Name)
	assert.False(t, plain.ByRef)
	assert.Len(t, plain.Body, 1)
}

func TestBuildSwitch(t *testing.T) {
	file := parse(t, `<?php
switch ($x) {
    case 1:
        $y = 1;
        break;
    case 2:
    default:
        $y = 2;
}
`)
	require.Len(t, file.Stmts, 1)
	sw := file.Stmts[0].(*Switch)
	assert.Equal(t, "x", sw.Subject.(*Variable).Name)
	require.Len(t, sw.Cases, 3)
	assert.Equal(t, int64(1), sw.Cases[0].Cond.(*IntLit).Value)
	assert.Len(t, sw.Cases[0].Body, 2)
	assert.IsType(t, &Break{}, sw.Cases[0].Body[1])
	assert.Empty(t, sw.Cases[1].Body)
	assert.Nil(t, sw.Cases[2].Cond)
	assert.Len(t, sw.Cases[2].Body, 1)
}

func TestBuildFunctionWithDocComment(t *testing.T) {
	file := parse(t, `<?php
/**
 * @param int $a
 */
function foo(int $a, ?string $b = null, &$c, ...$rest): int {
    return $a;
}
`)
	require.Len(t, file.Stmts, 1)
	fn := file.Stmts[0].(*FunctionDecl)
	assert.Equal(t, "foo", fn.Name)
	require.NotNil(t, fn.Doc())
	assert.Contains(t, fn.Doc().Text, "@param int $a")
	assert.Equal(t, "int", fn.ReturnType)

	require.Len(t, fn.Params, 4)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "int", fn.Params[0].Type)
	assert.Equal(t, "?string", fn.Params[1].Type)
	assert.IsType(t, &NullLit{}, fn.Params[1].Default)
	assert.True(t, fn.Params[2].ByRef)
	assert.True(t, fn.Params[3].Variadic)
	assert.Equal(t, "rest", fn.Params[3].Name)

	require.Len(t, fn.Body, 1)
	assert.Equal(t, "a", fn.Body[0].(*Return).Value.(*Variable).Name)
}

func TestBuildClass(t *testing.T) {
	file := parse(t, `<?php
namespace App;

abstract class Foo extends Base implements \Countable, Sub\Marker
{
    const LIMIT = 10;

    /** @var string[] */
    private array $names = [];

    public static function make(): Foo { return new Foo(); }

    abstract protected function name(): string;

    public function __construct(private int $id) {}
}
`)
	require.Len(t, file.Stmts, 2)
	ns := file.Stmts[0].(*Namespace)
	assert.Equal(t, "App", ns.Name)
	assert.False(t, ns.Braced)

	class := file.Stmts[1].(*ClassDecl)
	assert.Equal(t, "Foo", class.Name)
	assert.Equal(t, "class", class.Type)
	assert.True(t, class.Abstract)
	assert.Equal(t, []string{"Base"}, class.Extends)
	assert.Equal(t, []string{`\Countable`, `Sub\Marker`}, class.Implements)

	require.Len(t, class.Consts, 1)
	assert.Equal(t, "LIMIT", class.Consts[0].Name)

	require.Len(t, class.Properties, 1)
	prop := class.Properties[0]
	assert.Equal(t, "names", prop.Name)
	assert.Equal(t, "array", prop.Type)
	assert.IsType(t, &ArrayLit{}, prop.Default)
	require.NotNil(t, prop.Doc())
	assert.Contains(t, prop.Doc().Text, "@var string[]")

	require.Len(t, class.Methods, 3)
	assert.Equal(t, "make", class.Methods[0].Name)
	assert.True(t, class.Methods[0].Static)
	assert.Equal(t, "Foo", class.Methods[0].ReturnType)
	assert.Nil(t, class.Methods[1].Body)
	assert.True(t, class.Methods[1].Abstract)
	require.Len(t, class.Methods[2].Params, 1)
	assert.True(t, class.Methods[2].Params[0].Promoted)
	assert.Equal(t, "id", class.Methods[2].Params[0].Name)
	assert.NotNil(t, class.Methods[2].Body)
}

func TestBuildUse(t *testing.T) {
	file := parse(t, `<?php
use Foo\Bar, Baz\Qux as Q;
use function Foo\helper;
use Foo\{A, B as C};
`)
	require.Len(t, file.Stmts, 3)

	plain := file.Stmts[0].(*Use)
	assert.Equal(t, "", plain.Type)
	assert.Equal(t, []UseItem{{Name: `Foo\Bar`}, {Name: `Baz\Qux`, Alias: "Q"}}, plain.Items)

	fn := file.Stmts[1].(*Use)
	assert.Equal(t, "function", fn.Type)
	assert.Equal(t, []UseItem{{Name: `Foo\helper`}}, fn.Items)

	group := file.Stmts[2].(*Use)
	assert.Equal(t, []UseItem{{Name: `Foo\A`}, {Name: `Foo\B`, Alias: "C"}}, group.Items)
}

func TestBuildStrings(t *testing.T) {
	file := parse(t, `<?php
$a = 'it\'s';
$b = "tab\there";
$c = "hi $name!";
`)
	require.Len(t, file.Stmts, 3)

	single := file.Stmts[0].(*ExprStmt).X.(*Assign).Value.(*StringLit)
	assert.Equal(t, "it's", single.Value)
	assert.False(t, single.Interpolated)

	double := file.Stmts[1].(*ExprStmt).X.(*Assign).Value.(*StringLit)
	assert.Equal(t, "tab\there", double.Value)

	interpolated := file.Stmts[2].(*ExprStmt).X.(*Assign).Value.(*StringLit)
	assert.True(t, interpolated.Interpolated)
	require.Len(t, interpolated.Parts, 1)
	assert.Equal(t, "name", interpolated.Parts[0].(*Variable).Name)
}

func TestBuildClosures(t *testing.T) {
	file := parse(t, `<?php
$f = function (int $x) use ($y, &$z): int { return $x + $y; };
$g = fn($x) => $x * $factor;
`)
	require.Len(t, file.Stmts, 2)

	closure := file.Stmts[0].(*ExprStmt).X.(*Assign).Value.(*Closure)
	require.Len(t, closure.Params, 1)
	assert.Equal(t, "int", closure.ReturnType)
	require.Len(t, closure.Uses, 2)
	assert.Equal(t, "y", closure.Uses[0].Name)
	assert.False(t, closure.Uses[0].ByRef)
	assert.Equal(t, "z", closure.Uses[1].Name)
	assert.True(t, closure.Uses[1].ByRef)
	assert.Len(t, closure.Body, 1)

	arrow := file.Stmts[1].(*ExprStmt).X.(*Assign).Value.(*ArrowFunc)
	require.Len(t, arrow.Params, 1)
	assert.Equal(t, "*", arrow.Body.(*Binary).Op)
}

func TestBuildCallsAndMembers(t *testing.T) {
	file := parse(t, `<?php
strlen($s);
$obj->run(1, name: 2);
$obj?->prop;
Foo::create(...$args);
Foo::BAR;
$x instanceof \App\Foo;
new Foo($a);
$arr[] = 1;
(int) $v;
`)
	require.Len(t, file.Stmts, 9)
	x := func(i int) Expr { return file.Stmts[i].(*ExprStmt).X }

	call := x(0).(*Call)
	assert.Equal(t, "strlen", call.Function.(*Name).Value)
	require.Len(t, call.Args, 1)

	method := x(1).(*MethodCall)
	assert.Equal(t, "run", method.Method)
	require.Len(t, method.Args, 2)
	assert.Equal(t, "name", method.Args[1].Name)

	prop := x(2).(*PropertyFetch)
	assert.True(t, prop.NullSafe)
	assert.Equal(t, "prop", prop.Property)

	static := x(3).(*StaticCall)
	assert.Equal(t, "Foo", static.Class)
	assert.Equal(t, "create", static.Method)
	require.Len(t, static.Args, 1)
	assert.True(t, static.Args[0].Spread)

	constant := x(4).(*ClassConstFetch)
	assert.Equal(t, "Foo", constant.Class)
	assert.Equal(t, "BAR", constant.Const)

	instanceof := x(5).(*Binary)
	assert.Equal(t, "instanceof", instanceof.Op)
	assert.Equal(t, `\App\Foo`, instanceof.Right.(*Name).Value)

	newExpr := x(6).(*New)
	assert.Equal(t, "Foo", newExpr.Class)
	assert.Len(t, newExpr.Args, 1)

	appendTo := x(7).(*Assign).Target.(*Index)
	assert.Nil(t, appendTo.Index)

	cast := x(8).(*Cast)
	assert.Equal(t, "int", cast.Type)
}

func TestBuildUnsupportedKeepsOperands(t *testing.T) {
	file := parse(t, `<?php
$x = match ($y) { default => 1 };
`)
	require.Len(t, file.Stmts, 1)
	unsupported := file.Stmts[0].(*ExprStmt).X.(*Assign).Value.(*UnsupportedExpr)
	assert.Equal(t, "match_expression", unsupported.Production)
	require.Len(t, unsupported.Operands, 1)
	assert.Equal(t, "y", unsupported.Operands[0].(*Variable).Name)
}

func TestBuildSyntaxError(t *testing.T) {
	file, err := Parse([]byte("<?php\n$x = ;\n$y = 2;\n"))
	require.Error(t, err)
	require.NotNil(t, file)

	var kindErr *KindError
	assert.True(t, errors.As(err, &kindErr))

	var bad int
	for _, s := range file.Stmts {
		if _, ok := s.(*BadStmt); ok {
			bad++
		}
	}
	assert.GreaterOrEqual(t, bad, 1)
}

func TestInspect(t *testing.T) {
	file := parse(t, `<?php $a = $b + $c;`)
	var names []string
	Inspect(file, func(n Node) bool {
		if v, ok := n.(*Variable); ok {
			names = append(names, v.Name)
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDump(t *testing.T) {
	file := parse(t, `<?php $a = 1 + 2;`)
	var buf bytes.Buffer
	Dump(&buf, file)
	out := buf.String()
	assert.Contains(t, out, "file")
	assert.Contains(t, out, "assign")
	assert.Contains(t, out, "variable $a")
	assert.Contains(t, out, "binary +")
}

package formula

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func variable(name string) *ast.Variable { return &ast.Variable{Name: name} }

func TestGetFormulaInstanceOfProducesSingleClause(t *testing.T) {
	expr := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"}
	clauses := GetFormula(expr)
	require.Len(t, clauses, 1)
	require.False(t, clauses[0].Wedge)
	require.Contains(t, clauses[0].Possibilities, "$x")
}

func TestGetFormulaAndConcatenates(t *testing.T) {
	a := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"}
	b := &ast.InstanceOf{Subject: variable("$y"), ClassName: "Bar"}
	clauses := GetFormula(&ast.Binary{Operator: ast.OpLogicalAnd, Left: a, Right: b})
	require.Len(t, clauses, 2)
}

func TestGetFormulaOrDistributes(t *testing.T) {
	a := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"}
	b := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Bar"}
	clauses := GetFormula(&ast.Binary{Operator: ast.OpLogicalOr, Left: a, Right: b})
	require.Len(t, clauses, 1)
	require.Len(t, clauses[0].Possibilities["$x"], 2)
}

func TestNegateDeMorgan(t *testing.T) {
	a := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"}
	b := &ast.InstanceOf{Subject: variable("$y"), ClassName: "Bar"}
	clauses := GetFormula(&ast.Unary{Operator: "!", Operand: &ast.Binary{Operator: ast.OpLogicalAnd, Left: a, Right: b}})
	// !(a && b) == !a || !b: a single clause mentioning both vars.
	require.Len(t, clauses, 1)
	require.Contains(t, clauses[0].Possibilities, "$x")
	require.Contains(t, clauses[0].Possibilities, "$y")
}

func TestSaturateClausesIsIdempotent(t *testing.T) {
	a := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"}
	b := &ast.InstanceOf{Subject: variable("$x"), ClassName: "Bar"}
	clauses := GetFormula(&ast.Binary{Operator: ast.OpLogicalAnd, Left: a, Right: b})
	once := SaturateClauses(clauses, 50)
	twice := SaturateClauses(once, 50)
	require.ElementsMatch(t, once, twice)
}

func TestFindSatisfyingAssignmentsExtractsPerVariable(t *testing.T) {
	clauses := GetFormula(&ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"})
	sat := FindSatisfyingAssignments(clauses, nil)
	require.Contains(t, sat.Assertions, "$x")
	require.Len(t, sat.Assertions["$x"], 1)
}

func TestReconcileKeyedTypesNarrowsInstanceOf(t *testing.T) {
	locals := map[string]*types.TUnion{"$x": types.Mixed()}
	clauses := GetFormula(&ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"})
	sat := FindSatisfyingAssignments(clauses, nil)
	result := ReconcileKeyedTypes(locals, sat, nil)
	require.True(t, result.Changed["$x"])
	require.False(t, result.Impossible["$x"])
	require.Equal(t, "Foo", result.Locals["$x"].Types[0].String())
}

func TestReconcileKeyedTypesDetectsImpossibility(t *testing.T) {
	locals := map[string]*types.TUnion{"$x": types.Null()}
	clauses := GetFormula(&ast.IsSet{Subjects: []ast.Expression{variable("$x")}})
	sat := FindSatisfyingAssignments(clauses, nil)
	result := ReconcileKeyedTypes(locals, sat, nil)
	require.True(t, result.Impossible["$x"])
}

func TestReconcileWithNoAssertionsIsIdentity(t *testing.T) {
	locals := map[string]*types.TUnion{"$x": types.Int(), "$y": types.Str()}
	result := ReconcileKeyedTypes(locals, Satisfying{
		Assertions: map[string]assertion.AssertionSet{},
		Active:     map[string][]int{},
	}, nil)
	require.Empty(t, result.Changed)
	require.Empty(t, result.Impossible)
	require.Equal(t, "int", result.Locals["$x"].String())
	require.Equal(t, "string", result.Locals["$y"].String())
}

func TestParadoxCheckDetectsContradiction(t *testing.T) {
	pos := GetFormula(&ast.InstanceOf{Subject: variable("$x"), ClassName: "Foo"})
	neg := Not(pos)
	paradox, varID := ParadoxCheck(pos, neg)
	require.True(t, paradox)
	require.Equal(t, "$x", varID)
}

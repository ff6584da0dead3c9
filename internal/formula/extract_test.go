package formula

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func isIntCall(varName string) *ast.Call {
	return &ast.Call{
		FunctionName: "is_int",
		Arguments:    []ast.Argument{{Value: &ast.Variable{Name: varName}}},
	}
}

func TestGetFormulaDecomposesTypeCheckCall(t *testing.T) {
	clauses := GetFormula(isIntCall("$x"))
	require.Len(t, clauses, 1)
	require.False(t, clauses[0].Wedge)
	disj := clauses[0].Possibilities["$x"]
	require.Len(t, disj, 1)
	require.Equal(t, assertion.IsType, disj[0].Kind)
	require.Equal(t, "int", disj[0].Type.String())
}

func TestGetFormulaNegatedTypeCheck(t *testing.T) {
	clauses := GetFormula(&ast.Unary{Operator: "!", Operand: isIntCall("$x")})
	require.Len(t, clauses, 1)
	disj := clauses[0].Possibilities["$x"]
	require.Len(t, disj, 1)
	require.Equal(t, assertion.IsNotType, disj[0].Kind)
}

func TestGetFormulaUnknownCallIsWedge(t *testing.T) {
	clauses := GetFormula(&ast.Call{FunctionName: "frobnicate"})
	require.Len(t, clauses, 1)
	require.True(t, clauses[0].Wedge)
}

func TestReconcileTypeCheckNarrowsUnion(t *testing.T) {
	locals := map[string]*types.TUnion{
		"$x": types.New(types.TInt{}, types.TString{}),
	}
	sat := FindSatisfyingAssignments(GetFormula(isIntCall("$x")), nil)
	result := ReconcileKeyedTypes(locals, sat, nil)
	require.Equal(t, "int", result.Locals["$x"].String())
}

func TestReconcileNegatedTypeCheckSubtracts(t *testing.T) {
	locals := map[string]*types.TUnion{
		"$x": types.New(types.TInt{}, types.TString{}),
	}
	neg := Not(GetFormula(isIntCall("$x")))
	sat := FindSatisfyingAssignments(neg, nil)
	result := ReconcileKeyedTypes(locals, sat, nil)
	require.Equal(t, "string", result.Locals["$x"].String())
}

package invocation

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func requiresTwo() *codebase.FunctionLikeMetadata {
	return &codebase.FunctionLikeMetadata{
		ID: "::requires_two",
		Parameters: []codebase.Parameter{
			{Name: "a", Type: types.Int()},
			{Name: "b", Type: types.Int()},
		},
		ReturnType: types.Void(),
	}
}

func hasIssue(issues []diagnostics.Issue, code diagnostics.Code) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestInvokeTooFewArguments(t *testing.T) {
	result := Invoke(Invocation{
		Target:    requiresTwo(),
		Arguments: []Argument{{Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)}},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.TooFewArguments))
}

func TestInvokeExactArityNoIssues(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.False(t, hasIssue(result.Issues, diagnostics.TooFewArguments))
	require.False(t, hasIssue(result.Issues, diagnostics.TooManyArguments))
	require.False(t, hasIssue(result.Issues, diagnostics.InvalidArgument))
}

func TestInvokeDuplicateNamedArgument(t *testing.T) {
	g := &codebase.FunctionLikeMetadata{
		ID: "::g",
		Parameters: []codebase.Parameter{
			{Name: "a", Type: types.Int()},
			{Name: "b", Type: types.Int(), HasDefault: true, Default: types.IntLiteral(0)},
		},
		ReturnType: types.Void(),
	}
	result := Invoke(Invocation{
		Target: g,
		Arguments: []Argument{
			{Name: "a", Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Name: "a", Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.DuplicateNamedArgument))
}

func TestInvokeInvalidArgumentType(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: "x"}, Type: types.StringLiteral("x")},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.InvalidArgument))
}

func TestInvokeDeprecatedTargetWarns(t *testing.T) {
	target := requiresTwo()
	target.Flags.Deprecated = true
	result := Invoke(Invocation{
		Target: target,
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.DeprecatedFunction))
}

func TestInvokeTemplateInferenceNarrowsReturnType(t *testing.T) {
	identity := &codebase.FunctionLikeMetadata{
		ID:            "::identity",
		TemplateTypes: []codebase.TemplateParameter{{Name: "T"}},
		Parameters: []codebase.Parameter{
			{Name: "v", Type: types.New(types.TGenericParameter{Name: "T", DefiningEntity: "::identity"})},
		},
		ReturnType: types.New(types.TGenericParameter{Name: "T", DefiningEntity: "::identity"}),
	}
	result := Invoke(Invocation{
		Target:    identity,
		Arguments: []Argument{{Expr: &ast.Literal{Value: int64(5)}, Type: types.IntLiteral(5)}},
	})
	require.Equal(t, "int(5)", result.ReturnType.String())
}

func TestInvokeByRefWriteBack(t *testing.T) {
	swap := &codebase.FunctionLikeMetadata{
		ID: "::increment",
		Parameters: []codebase.Parameter{
			{Name: "n", Type: types.Int(), ByRef: true},
		},
		ReturnType: types.Void(),
	}
	arg := &ast.Variable{Name: "$x"}
	result := Invoke(Invocation{
		Target:    swap,
		Arguments: []Argument{{Expr: arg, Type: types.Int()}},
		CallerVarOf: func(e ast.Expression) (string, bool) {
			if v, ok := e.(*ast.Variable); ok {
				return v.Name, true
			}
			return "", false
		},
	})
	require.Len(t, result.ByRefWrites, 1)
	require.Equal(t, "$x", result.ByRefWrites[0].VariableID)
}

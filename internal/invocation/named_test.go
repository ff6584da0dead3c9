package invocation

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func TestInvokeNamedArgumentNotAllowed(t *testing.T) {
	target := requiresTwo()
	target.Flags.ForbidsNamedArgs = true
	result := Invoke(Invocation{
		Target: target,
		Arguments: []Argument{
			{Name: "a", Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.NamedArgumentNotAllowed))
}

func TestInvokeUnknownNamedArgument(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
			{Name: "ghost", Expr: &ast.Literal{Value: int64(3)}, Type: types.IntLiteral(3)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.InvalidNamedArgument))
}

func TestInvokeNamedOverridesPositional(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
			{Name: "a", Expr: &ast.Literal{Value: int64(9)}, Type: types.IntLiteral(9)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.NamedArgumentOverridesPositional))
}

func TestInvokeFalseArgument(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: false}, Type: types.False()},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.FalseArgument))
}

func TestInvokePossiblyFalseArgument(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Variable{Name: "$v"}, Type: types.New(types.TInt{}, types.TBool{HasValue: true, Value: false})},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.PossiblyFalseArgument))
}

func TestInvokeIgnoreFalsableSuppressesFalseArgument(t *testing.T) {
	falsable := types.New(types.TInt{}, types.TBool{HasValue: true, Value: false})
	falsable.IgnoreFalsableIssues = true
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Variable{Name: "$v"}, Type: falsable},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
		},
	})
	require.False(t, hasIssue(result.Issues, diagnostics.PossiblyFalseArgument))
}

func TestInvokeWhereConstraintViolation(t *testing.T) {
	target := &codebase.FunctionLikeMetadata{
		ID:            "::sum",
		TemplateTypes: []codebase.TemplateParameter{{Name: "T"}},
		WhereConstraints: []codebase.WhereConstraint{
			{Parameter: "T", Bound: types.Int()},
		},
		Parameters: []codebase.Parameter{
			{Name: "v", Type: types.New(types.TGenericParameter{Name: "T", DefiningEntity: "::sum"})},
		},
		ReturnType: types.Void(),
	}
	result := Invoke(Invocation{
		Target:    target,
		Arguments: []Argument{{Expr: &ast.Literal{Value: "x"}, Type: types.StringLiteral("x")}},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.InvalidArgument))
}

func TestInvokeTemplateBoundViolation(t *testing.T) {
	target := &codebase.FunctionLikeMetadata{
		ID: "::keyed",
		TemplateTypes: []codebase.TemplateParameter{
			{Name: "K", Constraint: types.ArrayKeyType()},
		},
		Parameters: []codebase.Parameter{
			{Name: "k", Type: types.New(types.TGenericParameter{Name: "K", DefiningEntity: "::keyed"})},
		},
		ReturnType: types.Void(),
	}
	result := Invoke(Invocation{
		Target:    target,
		Arguments: []Argument{{Expr: &ast.Variable{Name: "$o"}, Type: types.Object()}},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.InvalidArgument))
}

func TestInvokeUnpackedEmptyListAddsNothing(t *testing.T) {
	variadic := &codebase.FunctionLikeMetadata{
		ID: "::collect",
		Parameters: []codebase.Parameter{
			{Name: "items", Type: types.Int(), Variadic: true},
		},
		ReturnType: types.Void(),
	}
	result := Invoke(Invocation{
		Target: variadic,
		Arguments: []Argument{
			{Unpack: true, Expr: &ast.Variable{Name: "$xs"}, Type: types.New(types.TListArray{ElementType: types.Int()})},
		},
	})
	require.False(t, hasIssue(result.Issues, diagnostics.TooFewArguments))
	require.False(t, hasIssue(result.Issues, diagnostics.TooManyArguments))
}

func TestInvokeUnpackIntoNonVariadicRejected(t *testing.T) {
	result := Invoke(Invocation{
		Target: requiresTwo(),
		Arguments: []Argument{
			{Expr: &ast.Literal{Value: int64(1)}, Type: types.IntLiteral(1)},
			{Expr: &ast.Literal{Value: int64(2)}, Type: types.IntLiteral(2)},
			{Unpack: true, Expr: &ast.Variable{Name: "$xs"}, Type: types.New(types.TListArray{ElementType: types.Int()})},
		},
	})
	require.True(t, hasIssue(result.Issues, diagnostics.TooManyArguments))
}

func TestInvokeConditionalAssertionsRewrittenToCallerVars(t *testing.T) {
	target := &codebase.FunctionLikeMetadata{
		ID:   "::is_foo",
		Name: "is_foo",
		Parameters: []codebase.Parameter{
			{Name: "subject", Type: types.Mixed()},
		},
		ReturnType: types.Bool(),
		IfTrueAssertions: map[string]assertion.AssertionSet{
			"subject": {{{Kind: assertion.IsType, Type: types.TNamedObject{Name: "Foo"}}}},
		},
	}
	result := Invoke(Invocation{
		Target:    target,
		Arguments: []Argument{{Expr: &ast.Variable{Name: "$x"}, Type: types.Mixed()}},
		CallerVarOf: func(e ast.Expression) (string, bool) {
			if v, ok := e.(*ast.Variable); ok {
				return v.Name, true
			}
			return "", false
		},
	})
	require.Contains(t, result.IfTrueAssertions, "$x")
}

package analyzer

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	blockctx "github.com/mago-analyzer/mago/internal/context"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func TestLogicalAndFalsyLeftIsAlwaysFalse(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$x"] = types.Bool()

	result := a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalAnd,
		Left:     &ast.Literal{Value: false},
		Right:    &ast.Variable{Name: "$x"},
	})

	require.Equal(t, "false", result.String())
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.RedundantLogicalOperation))
}

func TestLogicalAndBothTruthyIsAlwaysTrue(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()

	result := a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalAnd,
		Left:     &ast.Literal{Value: true},
		Right:    &ast.Literal{Value: int64(7)},
	})

	require.Equal(t, "true", result.String())
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.RedundantLogicalOperation))
}

func TestLogicalOrTruthyLeftIsAlwaysTrue(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$x"] = types.Bool()

	result := a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalOr,
		Left:     &ast.Literal{Value: true},
		Right:    &ast.Variable{Name: "$x"},
	})

	require.Equal(t, "true", result.String())
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.RedundantLogicalOperation))
}

func TestLogicalOrNarrowsRightOperand(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$x"] = types.New(types.TNamedObject{Name: "Foo"}, types.TNull{})

	// `$x === null || consume($x)`: the RHS runs only when $x is not null.
	rhs := &ast.Variable{Name: "$x"}
	rhs.Span = ast.Span{StartOffset: 20, EndOffset: 22}
	a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalOr,
		Left: &ast.Binary{
			Operator: ast.OpIdentical,
			Left:     &ast.Variable{Name: "$x"},
			Right:    &ast.Literal{Value: nil},
		},
		Right: rhs,
	})

	rightType, ok := a.Artifacts.ExpressionType(rhs.Span)
	require.True(t, ok)
	require.NotNil(t, rightType)
	require.Equal(t, "Foo", rightType.String())
}

func TestLogicalXorDeterminedOperandsAreRedundant(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()

	result := a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalXor,
		Left:     &ast.Literal{Value: true},
		Right:    &ast.Literal{Value: false},
	})

	require.Equal(t, "true", result.String())
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.RedundantLogicalOperation))
}

func TestMixedOperandReported(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$m"] = types.Mixed()
	ctx.Locals["$b"] = types.Bool()

	a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalAnd,
		Left:     &ast.Variable{Name: "$m"},
		Right:    &ast.Variable{Name: "$b"},
	})
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.MixedOperand))
}

func TestNullOperandReported(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$n"] = types.Null()
	ctx.Locals["$b"] = types.Bool()

	a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalAnd,
		Left:     &ast.Variable{Name: "$b"},
		Right:    &ast.Variable{Name: "$n"},
	})
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.NullOperand))
}

func TestInvalidOperandReportedForArray(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$arr"] = types.New(types.TListArray{ElementType: types.Int()})
	ctx.Locals["$b"] = types.Bool()

	a.AnalyzeExpression(ctx, &ast.Binary{
		Operator: ast.OpLogicalAnd,
		Left:     &ast.Variable{Name: "$arr"},
		Right:    &ast.Variable{Name: "$b"},
	})
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.InvalidOperand))
}

func TestNegationOfDeterminedOperand(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	result := a.AnalyzeExpression(ctx, &ast.Unary{Operator: "!", Operand: &ast.Literal{Value: true}})
	require.Equal(t, "false", result.String())
}

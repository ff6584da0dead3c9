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

func TestSwitchLiteralSubjectFlagsAlwaysAndUnreachable(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()

	// $x = 1; switch ($x) { case 1: break; case 2: break; }
	sw := &ast.Switch{
		Subject: &ast.Literal{Value: int64(1)},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: int64(1)}, Body: &ast.Block{Statements: []ast.Statement{&ast.Break{}}}},
			{Expr: &ast.Literal{Value: int64(2)}, Body: &ast.Block{Statements: []ast.Statement{&ast.Break{}}}},
		},
	}
	a.AnalyzeStatement(ctx, sw)

	require.True(t, hasCode(a.Collector.Issues(), diagnostics.AlwaysMatchingSwitchCase))
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.UnreachableSwitchCase))
}

func TestSwitchNeverMatchingCase(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()

	sw := &ast.Switch{
		Subject: &ast.Literal{Value: int64(1)},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: "a"}, Body: &ast.Block{}},
		},
	}
	a.AnalyzeStatement(ctx, sw)
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.NeverMatchingSwitchCase))
}

func TestSwitchExhaustiveOverBoolSetsHasReturned(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$b"] = types.Bool()

	ret := &ast.Return{Value: &ast.Literal{Value: int64(1)}}
	sw := &ast.Switch{
		Subject: &ast.Variable{Name: "$b"},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: true}, Body: &ast.Block{Statements: []ast.Statement{ret}}},
			{Expr: &ast.Literal{Value: false}, Body: &ast.Block{Statements: []ast.Statement{ret}}},
		},
	}
	a.AnalyzeStatement(ctx, sw)

	require.True(t, ctx.HasReturned)
	require.True(t, a.Artifacts.FullyMatchedSwitchOffsets[sw.GetSpan().StartOffset])
}

func TestSwitchWithDefaultAndReturnsSetsHasReturned(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$n"] = types.Int()

	ret := &ast.Return{Value: &ast.Literal{Value: int64(0)}}
	sw := &ast.Switch{
		Subject: &ast.Variable{Name: "$n"},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: int64(1)}, Body: &ast.Block{Statements: []ast.Statement{ret}}},
			{Expr: nil, Body: &ast.Block{Statements: []ast.Statement{ret}}},
		},
	}
	a.AnalyzeStatement(ctx, sw)
	require.True(t, ctx.HasReturned)
}

func TestSwitchNonExhaustiveLeavesHasReturnedUnset(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$n"] = types.Int()

	ret := &ast.Return{Value: &ast.Literal{Value: int64(0)}}
	sw := &ast.Switch{
		Subject: &ast.Variable{Name: "$n"},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: int64(1)}, Body: &ast.Block{Statements: []ast.Statement{ret}}},
		},
	}
	a.AnalyzeStatement(ctx, sw)
	require.False(t, ctx.HasReturned)
}

func TestSwitchFallthroughChainsConditions(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$n"] = types.Int()

	// case 1: (fallthrough) case 2: break; — the body arm matches 1 or 2.
	sw := &ast.Switch{
		Subject: &ast.Variable{Name: "$n"},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: int64(1)}, Body: nil},
			{Expr: &ast.Literal{Value: int64(2)}, Body: &ast.Block{Statements: []ast.Statement{&ast.Break{}}}},
		},
	}
	a.AnalyzeStatement(ctx, sw)
	require.False(t, hasCode(a.Collector.Issues(), diagnostics.UnreachableSwitchCase))
	require.False(t, hasCode(a.Collector.Issues(), diagnostics.NeverMatchingSwitchCase))
}

func TestSwitchTempVarDoesNotLeak(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$n"] = types.Int()

	sw := &ast.Switch{
		Subject: &ast.Variable{Name: "$n"},
		Cases:   []ast.SwitchCase{{Expr: &ast.Literal{Value: int64(1)}, Body: &ast.Block{}}},
	}
	a.AnalyzeStatement(ctx, sw)
	for name := range ctx.Locals {
		require.NotContains(t, name, "-tmp-switch-")
	}
}

package analyzer

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/config"
	blockctx "github.com/mago-analyzer/mago/internal/context"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/refgraph"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeIfNarrowsThenBranch(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	ctx.Locals["$x"] = types.New(types.TNamedObject{Name: "Foo"}, types.TNull{})

	var narrowedInThen *types.TUnion
	thenRead := &ast.Variable{Name: "$x"}
	thenRead.Span = ast.Span{StartOffset: 40, EndOffset: 42}
	stmt := &ast.If{
		Condition: &ast.InstanceOf{Subject: &ast.Variable{Name: "$x"}, ClassName: "Foo"},
		Then: &ast.Block{Statements: []ast.Statement{
			&ast.ExpressionStatement{Expr: thenRead},
		}},
	}
	a.AnalyzeStatement(ctx, stmt)

	// the Then branch's read of $x has its own span, so the type recorded
	// for it is the one the reconciled Then context gave it.
	narrowedInThen, ok := a.Artifacts.ExpressionType(thenRead.Span)
	require.True(t, ok)
	require.NotNil(t, narrowedInThen)
	require.Equal(t, "Foo", narrowedInThen.String())
}

func TestAnalyzeSwitchDetectsUnreachableCase(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()

	sw := &ast.Switch{
		Subject: &ast.Literal{Value: int64(1)},
		Cases: []ast.SwitchCase{
			{Expr: &ast.Literal{Value: int64(1)}, Body: &ast.Block{}},
			{Expr: &ast.Literal{Value: int64(1)}, Body: &ast.Block{}},
		},
	}
	a.AnalyzeStatement(ctx, sw)
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.UnreachableSwitchCase))
}

func TestAnalyzeNewAbstractClassReportsIssue(t *testing.T) {
	metadata := codebase.NewMetadata()
	abstract := codebase.NewClassLikeMetadata("Shape", codebase.KindClass)
	abstract.Flags.Abstract = true
	metadata.AddClassLike(abstract)

	a := newTestAnalyzer(metadata)
	ctx := blockctx.New()
	a.AnalyzeExpression(ctx, &ast.New{ClassName: "Shape"})
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.AbstractInstantiation))
}

func TestAnalyzeNewInterfaceReportsIssue(t *testing.T) {
	metadata := codebase.NewMetadata()
	metadata.AddClassLike(codebase.NewClassLikeMetadata("Countable", codebase.KindInterface))

	a := newTestAnalyzer(metadata)
	ctx := blockctx.New()
	a.AnalyzeExpression(ctx, &ast.New{ClassName: "Countable"})
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.InterfaceInstantiation))
}

func TestAnalyzeNewNonExistentClass(t *testing.T) {
	a := newTestAnalyzer(codebase.NewMetadata())
	ctx := blockctx.New()
	a.AnalyzeExpression(ctx, &ast.New{ClassName: "Ghost"})
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.NonExistentClass))
}

func TestCheckUnusedParametersProposesRename(t *testing.T) {
	a := New(codebase.NewMetadata(), refgraph.New(), diagnostics.NewCollector(false), config.Default(), "f.php")
	params := []ast.Parameter{{Name: "used"}, {Name: "unused"}}
	body := &ast.Block{Statements: []ast.Statement{
		&ast.Return{Value: &ast.Variable{Name: "$used"}},
	}}
	edits := a.CheckUnusedParameters(params, body)
	require.Len(t, edits, 1)
	require.Contains(t, edits[0].Description, "unused")
	require.True(t, hasCode(a.Collector.Issues(), diagnostics.UnusedParameter))
}

func TestCheckUnusedParametersSkipsUnderscorePrefixed(t *testing.T) {
	a := New(codebase.NewMetadata(), refgraph.New(), diagnostics.NewCollector(false), config.Default(), "f.php")
	params := []ast.Parameter{{Name: "_unused"}}
	body := &ast.Block{}
	edits := a.CheckUnusedParameters(params, body)
	require.Empty(t, edits)
}

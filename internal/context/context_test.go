package context

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/formula"
	"github.com/mago-analyzer/mago/internal/types"
	"github.com/stretchr/testify/require"
)

func TestCloneProducesIndependentScope(t *testing.T) {
	root := New()
	root.Locals["$x"] = types.Int()

	clone := root.Clone()
	clone.Locals["$x"] = types.Str()

	require.Equal(t, "int", root.Locals["$x"].String())
	require.Equal(t, "string", clone.Locals["$x"].String())
	require.NotEqual(t, root.ScopeID, clone.ScopeID)
}

func TestSwitchTempVarIDDisambiguatesByScope(t *testing.T) {
	a := New()
	b := a.Clone()
	require.NotEqual(t, a.SwitchTempVarID(0), b.SwitchTempVarID(0))
}

func TestRemoveReconciledClauseRefsPartitions(t *testing.T) {
	ctx := New()
	untouched := formula.NewClause("$y", assertion.Disjunction{{Kind: assertion.Truthy}})
	touched := formula.NewClause("$x", assertion.Disjunction{{Kind: assertion.Truthy}})
	kept, reconciled := ctx.RemoveReconciledClauseRefs([]formula.Clause{untouched, touched}, map[string]bool{"$x": true})
	require.Len(t, kept, 1)
	require.Len(t, reconciled, 1)
	require.Contains(t, kept[0].Possibilities, "$y")
	require.Contains(t, reconciled[0].Possibilities, "$x")
}

func TestGetRedefinedLocalsDetectsChangesAndAdditions(t *testing.T) {
	ctx := New()
	original := map[string]*types.TUnion{"$x": types.Int(), "$y": types.Str()}
	ctx.Locals["$x"] = types.Str()
	ctx.Locals["$z"] = types.Bool()

	removed := map[string]bool{}
	redefined := ctx.GetRedefinedLocals(original, true, removed)

	require.Contains(t, redefined, "$x")
	require.Contains(t, redefined, "$z")
	require.True(t, removed["$y"])
}

func TestRemoveVariableFromConflictingClausesDropsAllMentions(t *testing.T) {
	ctx := New()
	ctx.Clauses = []formula.Clause{
		formula.NewClause("$x", assertion.Disjunction{{Kind: assertion.Truthy}}),
		formula.NewClause("$y", assertion.Disjunction{{Kind: assertion.Truthy}}),
	}
	ctx.RemoveVariableFromConflictingClauses("$x", types.Str())
	require.Len(t, ctx.Clauses, 1)
	require.Contains(t, ctx.Clauses[0].Possibilities, "$y")
	require.Equal(t, "string", ctx.Locals["$x"].String())
}

func TestBreakTargetStack(t *testing.T) {
	ctx := New()
	ctx.PushBreakType(BreakTarget{Kind: "loop"})
	ctx.PushBreakType(BreakTarget{Kind: "switch"})

	target, ok := ctx.BreakTargetAt(1)
	require.True(t, ok)
	require.Equal(t, "switch", target.Kind)

	target, ok = ctx.BreakTargetAt(2)
	require.True(t, ok)
	require.Equal(t, "loop", target.Kind)

	_, ok = ctx.BreakTargetAt(3)
	require.False(t, ok)
}

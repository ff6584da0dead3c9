package refgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelfReferenceIsNoOp(t *testing.T) {
	r := New()
	m := Member{Symbol: "Foo", Name: "bar"}
	r.AddSymbolReferenceToSymbol(m, m)
	require.Zero(t, r.EdgeCount())
}

func TestBodyRefSuppressedBySignatureRef(t *testing.T) {
	r := New()
	src := Member{Symbol: "Caller"}
	dst := Member{Symbol: "Callee"}
	r.AddSymbolReferenceInSignature(src, dst)
	r.AddSymbolReferenceToSymbol(src, dst)
	require.Equal(t, 2, r.EdgeCount())

	r.Finalize()
	require.Equal(t, 1, r.EdgeCount())
	require.Equal(t, []Member{src}, r.ReferencedBy(dst))
}

func TestReferencedByMergesBodyAndSignature(t *testing.T) {
	r := New()
	dst := Member{Symbol: "Shared"}
	r.AddSymbolReferenceToSymbol(Member{Symbol: "A"}, dst)
	r.AddSymbolReferenceInSignature(Member{Symbol: "B"}, dst)

	by := r.ReferencedBy(dst)
	require.Len(t, by, 2)
}

func TestPropagateInvalidationWalksTransitively(t *testing.T) {
	r := New()
	// C's signature references B, B's references A: changing A
	// invalidates both.
	r.AddSymbolReferenceInSignature(Member{Symbol: "B"}, Member{Symbol: "A"})
	r.AddSymbolReferenceInSignature(Member{Symbol: "C"}, Member{Symbol: "B"})

	result := r.PropagateInvalidation([]Member{{Symbol: "A"}}, 100)
	require.False(t, result.GaveUp)
	require.True(t, result.Invalidated[Member{Symbol: "A"}])
	require.True(t, result.Invalidated[Member{Symbol: "B"}])
	require.True(t, result.Invalidated[Member{Symbol: "C"}])
}

func TestPropagateInvalidationGivesUpPastBudget(t *testing.T) {
	r := New()
	hub := Member{Symbol: "Hub"}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		r.AddSymbolReferenceInSignature(Member{Symbol: name}, hub)
	}
	result := r.PropagateInvalidation([]Member{hub}, 2)
	require.True(t, result.GaveUp)
	require.Nil(t, result.Invalidated)
	require.Contains(t, result.Note, "gave up after")
}

package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func unionEqual(t *testing.T, got, want *TUnion) {
	t.Helper()
	diff := cmp.Diff(want.Types, got.Types, cmpopts.SortSlices(func(a, b Atomic) bool {
		return a.String() < b.String()
	}))
	require.Empty(t, diff, "union mismatch: got %s want %s", got, want)
}

func TestCombineTrueFalseCollapsesToBool(t *testing.T) {
	out := New(Combine([]Atomic{TBool{HasValue: true, Value: true}, TBool{HasValue: true, Value: false}}, nil, false)...)
	unionEqual(t, out, Bool())
}

func TestCombineNeverIsNeutral(t *testing.T) {
	out := New(Combine([]Atomic{TNever{}, TInt{Kind: IntUnspecified}}, nil, false)...)
	unionEqual(t, out, Int())
}

func TestCombineIsIdempotent(t *testing.T) {
	out := New(Combine([]Atomic{TInt{Kind: IntPositive}, TInt{Kind: IntPositive}}, nil, false)...)
	unionEqual(t, out, PositiveInt())
}

func TestCombineLiteralBucketUnderLimit(t *testing.T) {
	atoms := []Atomic{TInt{Kind: IntLiteral, Literal: 1}, TInt{Kind: IntLiteral, Literal: 2}}
	out := New(Combine(atoms, nil, false)...)
	require.Len(t, out.Types, 2)
}

func TestCombineLiteralBucketOverLimitWidens(t *testing.T) {
	atoms := make([]Atomic, 0, 25)
	for i := int64(0); i < 25; i++ {
		atoms = append(atoms, TInt{Kind: IntLiteral, Literal: i})
	}
	out := New(Combine(atoms, nil, false)...)
	require.Len(t, out.Types, 1)
	require.Equal(t, "int", out.Types[0].String())
}

type fakeCodebase struct{ parents map[string][]string }

func (f fakeCodebase) IsInstanceOf(child, parent string) bool {
	for _, p := range f.parents[child] {
		if p == parent || f.IsInstanceOf(p, parent) {
			return true
		}
	}
	return false
}

func TestCombineDropsSubclassWhenSupertypePresent(t *testing.T) {
	cb := fakeCodebase{parents: map[string][]string{"Dog": {"Animal"}}}
	out := New(Combine([]Atomic{TNamedObject{Name: "Dog"}, TNamedObject{Name: "Animal"}}, cb, false)...)
	unionEqual(t, out, NamedObject("Animal"))
}

func TestCombineKeepsIntersectionDistinctFromBareName(t *testing.T) {
	// Foo&Countable must not merge into plain Foo losing the
	// intersection; with no codebase the plain Foo subsumes it instead.
	out := New(Combine([]Atomic{
		TNamedObject{Name: "Foo", Intersection: []string{"Countable"}},
		TNamedObject{Name: "Foo"},
	}, nil, false)...)
	unionEqual(t, out, NamedObject("Foo"))
}

func TestCombineMergesRemappedParameters(t *testing.T) {
	out := Combine([]Atomic{
		TNamedObject{Name: "Box", RemappedParameters: map[string]*TUnion{"T": Int()}},
		TNamedObject{Name: "Box", RemappedParameters: map[string]*TUnion{"T": Str()}},
	}, nil, false)
	require.Len(t, out, 1)
	merged := out[0].(TNamedObject)
	require.ElementsMatch(t, []string{"int", "string"}, stringsOf(merged.RemappedParameters["T"]))
}

func TestIsContainedByIntRange(t *testing.T) {
	r := IsContainedBy(PositiveInt(), Int(), false, nil)
	require.True(t, r.Contained)
	r = IsContainedBy(Int(), PositiveInt(), false, nil)
	require.False(t, r.Contained)
}

func TestReplaceSubstitutesGenericParameter(t *testing.T) {
	tr := NewTemplateResult()
	tr.AddLowerBound("T", "fn:map", Int(), nil)
	param := New(TGenericParameter{Name: "T", DefiningEntity: "fn:map"})
	out := Replace(param, tr, nil)
	unionEqual(t, out, Int())
}

// Package artifacts holds the per-file analyzer outputs of spec.md §3.6:
// per-expression types keyed by source range, the conditional assertion
// maps the invocation engine records for `@assert-if-true`/`-if-false`
// targets, fully-matched switch offsets, and the symbol reference graph
// edges collected while walking bodies.
package artifacts

import (
	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/refgraph"
	"github.com/mago-analyzer/mago/internal/types"
)

// Artifacts is one file's analysis output. It is owned by a single
// analyzer; the host reads it after analysis completes.
type Artifacts struct {
	ExpressionTypes map[ast.Span]*types.TUnion

	// IfTrueAssertions/IfFalseAssertions are keyed by a call's source
	// range and record, per caller variable id, the assertions that hold
	// when a later condition tests the call's boolean result.
	IfTrueAssertions  map[ast.Span]map[string]assertion.AssertionSet
	IfFalseAssertions map[ast.Span]map[string]assertion.AssertionSet

	// FullyMatchedSwitchOffsets marks switches whose cases were proven
	// exhaustive, keyed by the switch statement's start offset.
	FullyMatchedSwitchOffsets map[int]bool

	References *refgraph.References
}

// New builds empty artifacts recording into refs (which may be shared
// with the populator's signature-phase edges).
func New(refs *refgraph.References) *Artifacts {
	if refs == nil {
		refs = refgraph.New()
	}
	return &Artifacts{
		ExpressionTypes:           map[ast.Span]*types.TUnion{},
		IfTrueAssertions:          map[ast.Span]map[string]assertion.AssertionSet{},
		IfFalseAssertions:         map[ast.Span]map[string]assertion.AssertionSet{},
		FullyMatchedSwitchOffsets: map[int]bool{},
		References:                refs,
	}
}

// SetExpressionType records the inferred type for an expression's span.
// Later recordings for the same span win, matching re-analysis of the
// same node under a refined context.
func (a *Artifacts) SetExpressionType(span ast.Span, t *types.TUnion) {
	if t == nil {
		return
	}
	a.ExpressionTypes[span] = t
}

// ExpressionType returns the recorded type for span, if any.
func (a *Artifacts) ExpressionType(span ast.Span) (*types.TUnion, bool) {
	t, ok := a.ExpressionTypes[span]
	return t, ok
}

// RecordCallAssertions stores a call's conditional assertion maps under
// its span for later conditions that test the call's result.
func (a *Artifacts) RecordCallAssertions(span ast.Span, ifTrue, ifFalse map[string]assertion.AssertionSet) {
	if len(ifTrue) > 0 {
		a.IfTrueAssertions[span] = ifTrue
	}
	if len(ifFalse) > 0 {
		a.IfFalseAssertions[span] = ifFalse
	}
}

// MarkFullyMatchedSwitch records that the switch starting at offset was
// proven exhaustive.
func (a *Artifacts) MarkFullyMatchedSwitch(offset int) {
	a.FullyMatchedSwitchOffsets[offset] = true
}

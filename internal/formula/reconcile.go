package formula

import (
	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/types"
)

// ReconciliationResult is the outcome of ReconcileKeyedTypes: the narrowed locals, which variables actually
// changed, and which ones became impossible.
type ReconciliationResult struct {
	Locals     map[string]*types.TUnion
	Changed    map[string]bool
	Impossible map[string]bool
}

// ReconcileKeyedTypes returns a narrowed copy of locals (locals itself is
// left unmodified) against the assertions a satisfied formula implies, per
// spec.md §4.4. It never removes a key that isn't mentioned by the
// satisfying assignment.
func ReconcileKeyedTypes(locals map[string]*types.TUnion, sat Satisfying, cb types.Codebase) ReconciliationResult {
	out := make(map[string]*types.TUnion, len(locals))
	for k, v := range locals {
		out[k] = v
	}
	result := ReconciliationResult{Locals: out, Changed: map[string]bool{}, Impossible: map[string]bool{}}

	for varID, set := range sat.Assertions {
		current, ok := out[varID]
		if !ok {
			current = types.Mixed()
		}
		narrowed, possible := assertion.AssertionSet(set).Reconcile(current, cb)
		if !possible {
			result.Impossible[varID] = true
		}
		if current == nil || narrowed.String() != current.String() {
			result.Changed[varID] = true
		}
		out[varID] = narrowed
	}
	return result
}

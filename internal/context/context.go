// Package context implements the Block Context of spec.md §3 Lifecycles /
// §4.5: per-scope mutable state cloned at each branch and merged at join
// points by internal/analyzer.
//
// Cloning stamps a fresh scope id via github.com/google/uuid, the same role
// the teacher's SetInferenceContext gives globally-unique type-variable
// names across nested modules (internal/typesystem's TVar generation) —
// here it disambiguates synthetic switch-subject temporaries between
// sibling clones of the same block.
package context

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mago-analyzer/mago/internal/config"
	"github.com/mago-analyzer/mago/internal/formula"
	"github.com/mago-analyzer/mago/internal/types"
)

// BreakTarget records what `break`/`continue` N levels should unwind to.
type BreakTarget struct {
	Kind  string // "loop" or "switch"
	Label string
}

// CaseScope is one entry of the switch case_scopes stack, carrying the
// negated-clauses hypothesis accumulated across earlier cases.
type CaseScope struct {
	NegatedClauses []formula.Clause
}

// BlockContext is spec.md §3's BlockContext.
type BlockContext struct {
	ScopeID string

	Locals  map[string]*types.TUnion
	Clauses []formula.Clause

	// ReconciledExpressionClauses marks clause keys already folded into
	// Locals by a prior reconciliation, so a later pass over the same
	// clause set doesn't re-apply it.
	ReconciledExpressionClauses map[string]bool

	ConditionallyReferencedVariableIDs map[string]bool
	AssignedVariableIDs                map[string]bool

	BreakTypes []BreakTarget
	CaseScopes []CaseScope

	// IfBodyContext holds the nested scope logical-OR's if-conditional-scope
	// abstraction threads into the RHS arm.
	IfBodyContext *BlockContext

	InsideConditional     bool
	InsideGeneralUse      bool
	InsideNegation        bool
	InsideLoopExpressions bool
	InsideCall            bool
	HasReturned           bool

	ByReferenceConstraints map[string]*types.TUnion

	// PossiblyThrownExceptions accumulates thrown class names from calls
	// and `throw` statements reached in this scope.
	PossiblyThrownExceptions map[string]bool
}

// New creates an empty root block context.
func New() *BlockContext {
	return &BlockContext{
		ScopeID:                            uuid.NewString(),
		Locals:                             map[string]*types.TUnion{},
		ReconciledExpressionClauses:        map[string]bool{},
		ConditionallyReferencedVariableIDs: map[string]bool{},
		AssignedVariableIDs:                map[string]bool{},
		ByReferenceConstraints:             map[string]*types.TUnion{},
		PossiblyThrownExceptions:           map[string]bool{},
	}
}

// Clone produces an independent mutable scope (spec.md §4.5 clone()),
// re-stamped with a fresh scope id so synthetic temporaries minted in
// sibling clones never collide.
func (b *BlockContext) Clone() *BlockContext {
	out := &BlockContext{
		ScopeID:                            uuid.NewString(),
		Locals:                             make(map[string]*types.TUnion, len(b.Locals)),
		Clauses:                            append([]formula.Clause{}, b.Clauses...),
		ReconciledExpressionClauses:        make(map[string]bool, len(b.ReconciledExpressionClauses)),
		ConditionallyReferencedVariableIDs: map[string]bool{},
		AssignedVariableIDs:                map[string]bool{},
		BreakTypes:                         append([]BreakTarget{}, b.BreakTypes...),
		CaseScopes:                         append([]CaseScope{}, b.CaseScopes...),
		InsideConditional:                  b.InsideConditional,
		InsideGeneralUse:                   b.InsideGeneralUse,
		InsideNegation:                     b.InsideNegation,
		InsideLoopExpressions:              b.InsideLoopExpressions,
		InsideCall:                         b.InsideCall,
		HasReturned:                        b.HasReturned,
		ByReferenceConstraints:             make(map[string]*types.TUnion, len(b.ByReferenceConstraints)),
		PossiblyThrownExceptions:           make(map[string]bool, len(b.PossiblyThrownExceptions)),
	}
	for k, v := range b.Locals {
		out.Locals[k] = v
	}
	for k, v := range b.ReconciledExpressionClauses {
		out.ReconciledExpressionClauses[k] = v
	}
	for k, v := range b.ByReferenceConstraints {
		out.ByReferenceConstraints[k] = v
	}
	for k, v := range b.PossiblyThrownExceptions {
		out.PossiblyThrownExceptions[k] = v
	}
	if b.IfBodyContext != nil {
		out.IfBodyContext = b.IfBodyContext.Clone()
	}
	return out
}

func clauseKeyFor(c formula.Clause) string { return fmt.Sprintf("%+v", c) }

// RemoveReconciledClauseRefs partitions clauses into ones unaffected by the
// just-reconciled variables ("kept") and ones that mentioned a changed
// variable ("reconciled", now folded into Locals and safe to drop).
func (b *BlockContext) RemoveReconciledClauseRefs(clauses []formula.Clause, changedVars map[string]bool) (kept, reconciled []formula.Clause) {
	for _, c := range clauses {
		touchesChanged := false
		for v := range c.Possibilities {
			if changedVars[v] {
				touchesChanged = true
				break
			}
		}
		if touchesChanged {
			reconciled = append(reconciled, c)
			b.ReconciledExpressionClauses[clauseKeyFor(c)] = true
		} else {
			kept = append(kept, c)
		}
	}
	return kept, reconciled
}

// GetRedefinedLocals computes the delta between original and b.Locals for
// branch merges: variables whose type changed, plus (when
// includePossibly) variables present in one side only. removed, if
// non-nil, is populated with variables that existed in original but were
// dropped from b.Locals entirely.
func (b *BlockContext) GetRedefinedLocals(original map[string]*types.TUnion, includePossibly bool, removed map[string]bool) map[string]*types.TUnion {
	redefined := map[string]*types.TUnion{}
	for name, origType := range original {
		newType, stillPresent := b.Locals[name]
		if !stillPresent {
			if removed != nil {
				removed[name] = true
			}
			continue
		}
		if origType.String() != newType.String() {
			redefined[name] = newType
		}
	}
	if includePossibly {
		for name, newType := range b.Locals {
			if _, hadBefore := original[name]; !hadBefore {
				redefined[name] = newType
			}
		}
	}
	return redefined
}

// RemoveVariableFromConflictingClauses drops every clause mentioning var
//: once var has been freshly assigned, clauses recorded
// against its previous value no longer reflect reality.
func (b *BlockContext) RemoveVariableFromConflictingClauses(varID string, newType *types.TUnion) {
	var kept []formula.Clause
	for _, c := range b.Clauses {
		if _, mentions := c.Possibilities[varID]; !mentions {
			kept = append(kept, c)
		}
	}
	b.Clauses = kept
	if newType != nil {
		b.Locals[varID] = newType
	}
}

// PushBreakType / PopBreakType manage the break_types stack.
func (b *BlockContext) PushBreakType(t BreakTarget) { b.BreakTypes = append(b.BreakTypes, t) }

func (b *BlockContext) PopBreakType() (BreakTarget, bool) {
	if len(b.BreakTypes) == 0 {
		return BreakTarget{}, false
	}
	n := len(b.BreakTypes) - 1
	t := b.BreakTypes[n]
	b.BreakTypes = b.BreakTypes[:n]
	return t, true
}

// BreakTargetAt resolves a `break N`/`continue N` level (1-based, counting
// from the innermost) to its target.
func (b *BlockContext) BreakTargetAt(levels int) (BreakTarget, bool) {
	if levels < 1 || levels > len(b.BreakTypes) {
		return BreakTarget{}, false
	}
	return b.BreakTypes[len(b.BreakTypes)-levels], true
}

// PushCaseScope / PopCaseScope manage the switch case_scopes stack.
func (b *BlockContext) PushCaseScope(s CaseScope) { b.CaseScopes = append(b.CaseScopes, s) }

func (b *BlockContext) PopCaseScope() (CaseScope, bool) {
	if len(b.CaseScopes) == 0 {
		return CaseScope{}, false
	}
	n := len(b.CaseScopes) - 1
	s := b.CaseScopes[n]
	b.CaseScopes = b.CaseScopes[:n]
	return s, true
}

// SwitchTempVarID mints the synthetic switch-subject temporary's
// variable-id, disambiguated by this scope's id so nested/cloned
// switches never collide. In test or LSP mode the unstable scope id is
// dropped so snapshots and hover output stay deterministic.
func (b *BlockContext) SwitchTempVarID(offset int) string {
	if config.IsTestMode || config.IsLSPMode {
		return fmt.Sprintf("$-tmp-switch-%d", offset)
	}
	return fmt.Sprintf("$-tmp-switch-%d-%s", offset, b.ScopeID)
}

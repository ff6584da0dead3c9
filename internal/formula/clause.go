// Package formula implements spec.md §4.4: turning boolean expressions
// into CNF-like clauses, saturating them by resolution, finding satisfying
// per-variable assertion sets, and reconciling a block context's locals
// against those assertions.
//
// The "clone the block, analyze the condition, reconcile, analyze the
// branch under the reconciled context" shape follows the teacher's
// inferIfExpression/inferMatchExpression in
// internal/analyzer/inference_control.go, generalized from Hindley-Milner
// substitution threading to the PHP-style narrowing spec.md describes.
package formula

import (
	"sort"

	"github.com/mago-analyzer/mago/internal/assertion"
)

// Clause is a disjunction over (variable, assertion) pairs. Wedge marks a tautological clause, contributed by expressions
// the extractor could not usefully decompose.
type Clause struct {
	Wedge         bool
	Possibilities map[string]assertion.Disjunction
	Generated     bool // true when produced by De Morgan negation
}

func NewWedge() Clause { return Clause{Wedge: true} }

func NewClause(varID string, d assertion.Disjunction) Clause {
	return Clause{Possibilities: map[string]assertion.Disjunction{varID: d}}
}

// Negate applies De Morgan's law: ¬(C1 ∧ C2 ∧ ... ) = ¬C1 ∨ ¬C2 ∨ ...,
// which for a single clause (a disjunction) becomes a conjunction of
// single-possibility clauses.
func (c Clause) Negate() []Clause {
	if c.Wedge {
		return nil // negating a tautology yields an unsatisfiable formula; caller treats as "no clauses"
	}
	var out []Clause
	for varID, disj := range c.Possibilities {
		for _, a := range disj {
			out = append(out, NewClause(varID, assertion.Disjunction{a.Negate()}))
		}
	}
	return out
}

// And concatenates two clause sets (spec.md §4.4: "&& (concatenate
// clauses)").
func And(a, b []Clause) []Clause {
	return append(append([]Clause{}, a...), b...)
}

// Or distributes two clause sets into their cross-product (spec.md §4.4:
// "|| (product/distribute)"): (C1∧C2) ∨ (D1∧D2) = (C1∨D1)∧(C1∨D2)∧(C2∨D1)∧(C2∨D2).
func Or(a, b []Clause) []Clause {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	var out []Clause
	for _, ca := range a {
		for _, cb := range b {
			out = append(out, orClauses(ca, cb))
		}
	}
	return out
}

func orClauses(a, b Clause) Clause {
	if a.Wedge || b.Wedge {
		return NewWedge()
	}
	merged := map[string]assertion.Disjunction{}
	for v, d := range a.Possibilities {
		merged[v] = append(merged[v], d...)
	}
	for v, d := range b.Possibilities {
		merged[v] = append(merged[v], d...)
	}
	return Clause{Possibilities: merged, Generated: true}
}

// Not negates a whole clause set. A clause set represents the conjunction
// C1 ∧ C2 ∧ ..., so ¬(C1 ∧ C2 ∧ ...) = ¬C1 ∨ ¬C2 ∨ ...; each ¬Ci is itself
// a conjunction (c.Negate() returns the clauses to AND together), and the
// per-clause negations are then OR-distributed across each other.
func Not(clauses []Clause) []Clause {
	if len(clauses) == 0 {
		return nil
	}
	acc := clauses[0].Negate()
	for _, c := range clauses[1:] {
		acc = Or(acc, c.Negate())
	}
	return acc
}

// clauseKey is a canonical string for deduplicating clauses during
// saturation.
func clauseKey(c Clause) string {
	if c.Wedge {
		return "<wedge>"
	}
	vars := make([]string, 0, len(c.Possibilities))
	for v := range c.Possibilities {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	key := ""
	for _, v := range vars {
		key += v + ":"
		parts := make([]string, len(c.Possibilities[v]))
		for i, a := range c.Possibilities[v] {
			parts[i] = a.String()
		}
		sort.Strings(parts)
		for _, p := range parts {
			key += p + ","
		}
		key += ";"
	}
	return key
}

// SaturateClauses repeatedly applies resolution — if C∪{(v,A)} and
// C∪{(v,¬A)} both exist, add C — until no change, bounded by maxSteps.
// When the bound is hit it returns the input unsaturated.
func SaturateClauses(clauses []Clause, maxSteps int) []Clause {
	current := dedupe(clauses)
	for step := 0; step < maxSteps; step++ {
		added := false
		seen := map[string]bool{}
		for _, c := range current {
			seen[clauseKey(c)] = true
		}
		for i := 0; i < len(current); i++ {
			for j := i + 1; j < len(current); j++ {
				if resolved, ok := resolve(current[i], current[j]); ok {
					k := clauseKey(resolved)
					if !seen[k] {
						seen[k] = true
						current = append(current, resolved)
						added = true
					}
				}
			}
		}
		if !added {
			return current
		}
	}
	return clauses
}

func dedupe(clauses []Clause) []Clause {
	seen := map[string]bool{}
	var out []Clause
	for _, c := range clauses {
		k := clauseKey(c)
		if !seen[k] {
			seen[k] = true
			out = append(out, c)
		}
	}
	return out
}

// resolve finds a single variable on which a and b differ by exactly one
// complementary assertion while sharing every other possibility, and
// returns the resolvent C.
func resolve(a, b Clause) (Clause, bool) {
	if a.Wedge || b.Wedge {
		return Clause{}, false
	}
	if len(a.Possibilities) != len(b.Possibilities) {
		return Clause{}, false
	}
	var pivot string
	found := false
	for v := range a.Possibilities {
		bd, ok := b.Possibilities[v]
		if !ok {
			return Clause{}, false
		}
		if !disjunctionsComplementary(a.Possibilities[v], bd) {
			if !disjunctionsEqual(a.Possibilities[v], bd) {
				return Clause{}, false
			}
			continue
		}
		if found {
			return Clause{}, false // more than one differing var: not a valid resolution
		}
		pivot = v
		found = true
	}
	if !found {
		return Clause{}, false
	}
	out := Clause{Possibilities: map[string]assertion.Disjunction{}, Generated: true}
	for v, d := range a.Possibilities {
		if v == pivot {
			continue
		}
		out.Possibilities[v] = d
	}
	if len(out.Possibilities) == 0 {
		return NewWedge(), true
	}
	return out, true
}

func disjunctionsEqual(a, b assertion.Disjunction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

func disjunctionsComplementary(a, b assertion.Disjunction) bool {
	if len(a) != 1 || len(b) != 1 {
		return false
	}
	return a[0].String() == b[0].Negate().String()
}

// Satisfying is the (assertions, active) result pair of spec.md §4.4's
// find_satisfying_assignments.
type Satisfying struct {
	Assertions map[string]assertion.AssertionSet
	Active     map[string][]int // var -> indices of clauses contributing to it
}

// FindSatisfyingAssignments extracts, per variable, the conjunction of
// single-variable clauses mentioning it. referencedVars, if
// non-nil, is populated with every variable the formula touches.
func FindSatisfyingAssignments(clauses []Clause, referencedVars map[string]bool) Satisfying {
	result := Satisfying{Assertions: map[string]assertion.AssertionSet{}, Active: map[string][]int{}}
	for idx, c := range clauses {
		if c.Wedge {
			continue
		}
		for v := range c.Possibilities {
			if referencedVars != nil {
				referencedVars[v] = true
			}
		}
		if len(c.Possibilities) != 1 {
			continue // only single-variable clauses directly constrain one var's AssertionSet
		}
		for v, d := range c.Possibilities {
			result.Assertions[v] = append(result.Assertions[v], d)
			result.Active[v] = append(result.Active[v], idx)
		}
	}
	return result
}

// ParadoxCheck compares entry clauses against existing ones to detect an
// impossible combination: a bare single-assertion clause for v and its
// exact negation both present as wedge-free unit clauses.
func ParadoxCheck(existing, incoming []Clause) (paradox bool, varID string) {
	for _, e := range existing {
		if e.Wedge || len(e.Possibilities) != 1 {
			continue
		}
		for ev, ed := range e.Possibilities {
			for _, in := range incoming {
				if in.Wedge || len(in.Possibilities) != 1 {
					continue
				}
				if id, ok := in.Possibilities[ev]; ok {
					if disjunctionsComplementary(ed, id) {
						return true, ev
					}
				}
			}
		}
	}
	return false, ""
}

// Package assertion implements the tagged Assertion variant and the
// AssertionSet conjunction-of-disjunctions described in spec.md §3.4.
package assertion

import "github.com/mago-analyzer/mago/internal/types"

// Kind discriminates the Assertion variants.
type Kind int

const (
	IsType Kind = iota
	IsNotType
	IsIdentical
	IsNotIdentical
	Truthy
	Falsy
	Empty
	NonEmpty
	ArrayKeyExists
	HasProperty
	InRange
)

// Assertion is a single fact an expression's truth value implies about a
// variable's type.
type Assertion struct {
	Kind Kind
	Type types.Atomic // valid for IsType/IsNotType/IsIdentical/IsNotIdentical
	Key  string       // valid for ArrayKeyExists/HasProperty
	Low  *int64       // valid for InRange
	High *int64       // valid for InRange
}

func (a Assertion) String() string {
	switch a.Kind {
	case IsType:
		return "=" + a.Type.String()
	case IsNotType:
		return "!" + a.Type.String()
	case IsIdentical:
		return "===" + a.Type.String()
	case IsNotIdentical:
		return "!==" + a.Type.String()
	case Truthy:
		return "truthy"
	case Falsy:
		return "falsy"
	case Empty:
		return "empty"
	case NonEmpty:
		return "!falsy"
	case ArrayKeyExists:
		return "array-key-exists(" + a.Key + ")"
	case HasProperty:
		return "has-property(" + a.Key + ")"
	case InRange:
		return "in-range"
	}
	return "?"
}

// Negate returns the logical complement of a, used by the formula
// extractor's negate_or_synthesize transform.
func (a Assertion) Negate() Assertion {
	switch a.Kind {
	case IsType:
		return Assertion{Kind: IsNotType, Type: a.Type}
	case IsNotType:
		return Assertion{Kind: IsType, Type: a.Type}
	case IsIdentical:
		return Assertion{Kind: IsNotIdentical, Type: a.Type}
	case IsNotIdentical:
		return Assertion{Kind: IsIdentical, Type: a.Type}
	case Truthy:
		return Assertion{Kind: Falsy}
	case Falsy:
		return Assertion{Kind: Truthy}
	case Empty:
		return Assertion{Kind: NonEmpty}
	case NonEmpty:
		return Assertion{Kind: Empty}
	default:
		return a
	}
}

// Disjunction is a "this OR this OR ..." set of assertions for one
// variable within one clause.
type Disjunction []Assertion

// AssertionSet is a CNF over assertions for a single variable identifier
//: a conjunction of disjunctions.
type AssertionSet []Disjunction

// Reconcile applies the full conjunction of disjunctions to t, narrowing it
// step by step. When a conjunct makes
// the type impossible, the result is types.Never() and ok is false.
func (set AssertionSet) Reconcile(t *types.TUnion, cb types.Codebase) (result *types.TUnion, ok bool) {
	result = t
	for _, disj := range set {
		var branches []types.Atomic
		possible := false
		for _, a := range disj {
			narrowed := ReconcileOne(result, a, cb)
			if !narrowed.IsNever() {
				possible = true
			}
			branches = append(branches, narrowed.Types...)
		}
		result = types.New(types.Combine(branches, cb, false)...)
		if !possible {
			return types.Never(), false
		}
	}
	return result, true
}

// ReconcileOne applies a single assertion to t. Unsupported
// combinations are conservative: they return t unchanged rather than
// Never, per spec.md §7's "fall back to a conservative result" rule.
func ReconcileOne(t *types.TUnion, a Assertion, cb types.Codebase) *types.TUnion {
	switch a.Kind {
	case IsType:
		return intersectWithAtomic(t, a.Type, cb)
	case IsNotType:
		return subtractAtomic(t, a.Type, cb)
	case IsIdentical:
		r := types.IsContainedBy(types.New(a.Type), t, true, cb)
		if !r.Contained {
			return types.Never()
		}
		return types.New(a.Type)
	case IsNotIdentical:
		return subtractAtomic(t, a.Type, cb)
	case Truthy:
		return filterAtomics(t, func(at types.Atomic) bool { return !types.AtomicAlwaysFalsy(at) })
	case Falsy:
		return filterAtomics(t, func(at types.Atomic) bool { return !types.AtomicAlwaysTruthy(at) })
	case Empty:
		return filterAtomics(t, func(at types.Atomic) bool { return !types.AtomicAlwaysTruthy(at) })
	case NonEmpty:
		return filterAtomics(t, func(at types.Atomic) bool { return !types.AtomicAlwaysFalsy(at) })
	default:
		return t
	}
}

func intersectWithAtomic(t *types.TUnion, target types.Atomic, cb types.Codebase) *types.TUnion {
	var kept []types.Atomic
	for _, a := range t.Types {
		r := types.IsContainedBy(types.New(a), types.New(target), true, cb)
		if r.Contained {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return types.New(target)
	}
	return types.New(types.Combine(kept, cb, false)...)
}

func subtractAtomic(t *types.TUnion, target types.Atomic, cb types.Codebase) *types.TUnion {
	var kept []types.Atomic
	for _, a := range t.Types {
		r := types.IsContainedBy(types.New(a), types.New(target), true, cb)
		if r.Contained {
			continue
		}
		if refined, ok := refineAfterSubtract(a, target); ok {
			kept = append(kept, refined...)
			continue
		}
		kept = append(kept, a)
	}
	return types.New(types.Combine(kept, cb, false)...)
}

// refineAfterSubtract narrows an atomic that overlaps the subtracted type
// without being contained by it: `bool` minus `true` is `false`, `mixed`
// minus `null` is non-null mixed. Atomics the lattice cannot represent a
// hole in (e.g. `int` minus one literal) are left unchanged by the caller.
func refineAfterSubtract(a, target types.Atomic) ([]types.Atomic, bool) {
	switch av := a.(type) {
	case types.TBool:
		if tv, ok := target.(types.TBool); ok && !av.HasValue && tv.HasValue {
			return []types.Atomic{types.TBool{HasValue: true, Value: !tv.Value}}, true
		}
	case types.TMixed:
		if _, ok := target.(types.TNull); ok && !av.NonNull {
			av.NonNull = true
			return []types.Atomic{av}, true
		}
	}
	return nil, false
}

func filterAtomics(t *types.TUnion, keep func(types.Atomic) bool) *types.TUnion {
	var kept []types.Atomic
	for _, a := range t.Types {
		if keep(a) {
			kept = append(kept, a)
		}
	}
	return types.New(types.Combine(kept, nil, false)...)
}


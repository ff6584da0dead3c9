package types

// VarianceProvider is the optional extension of Codebase the comparator
// consults for generic-parameter variance: a codebase that records
// `@template-covariant` answers true for those positions, and the
// comparator then accepts a narrower type argument where an invariant
// position would demand an exact match.
type VarianceProvider interface {
	TemplateIsCovariant(className string, index int) bool
}

// ComparisonResult is the richer result of the comparator.
type ComparisonResult struct {
	Contained              bool
	TypeCoerced            bool
	ScalarTypeMatchFound   bool
}

// IsContainedBy reports whether every member of `from` is contained by some
// member of `to`. insideAssertion relaxes scalar
// coercion checks the way reconciliation needs (e.g. int vs numeric-string)
// without granting it to ordinary argument-type checking.
func IsContainedBy(from, to *TUnion, insideAssertion bool, cb Codebase) ComparisonResult {
	if from == nil || to == nil {
		return ComparisonResult{}
	}
	if to.IsMixed() {
		return ComparisonResult{Contained: true}
	}
	result := ComparisonResult{Contained: true}
	for _, f := range from.Types {
		if _, ok := f.(TNever); ok {
			continue // never is contained by everything
		}
		found := false
		for _, t := range to.Types {
			r := atomicContainedBy(f, t, insideAssertion, cb)
			if r.Contained {
				found = true
				result.TypeCoerced = result.TypeCoerced || r.TypeCoerced
				result.ScalarTypeMatchFound = result.ScalarTypeMatchFound || r.ScalarTypeMatchFound
				break
			}
			// a near-miss still informs the caller's invalid-vs-possibly
			// classification
			result.TypeCoerced = result.TypeCoerced || r.TypeCoerced
			result.ScalarTypeMatchFound = result.ScalarTypeMatchFound || r.ScalarTypeMatchFound
		}
		if !found {
			result.Contained = false
		}
	}
	return result
}

func atomicContainedBy(f, t Atomic, insideAssertion bool, cb Codebase) ComparisonResult {
	if _, ok := t.(TMixed); ok {
		return ComparisonResult{Contained: true}
	}
	if tg, ok := t.(TGenericParameter); ok {
		// an unbound template accepts anything its constraint accepts
		if tg.Constraint == nil {
			return ComparisonResult{Contained: true}
		}
		return IsContainedBy(New(f), tg.Constraint, insideAssertion, cb)
	}
	switch fv := f.(type) {
	case TNever:
		return ComparisonResult{Contained: true}
	case TMixed:
		_, isMixed := t.(TMixed)
		return ComparisonResult{Contained: isMixed}
	case TNull:
		_, ok := t.(TNull)
		return ComparisonResult{Contained: ok}
	case TVoid:
		_, ok := t.(TVoid)
		return ComparisonResult{Contained: ok}
	case TBool:
		tv, ok := t.(TBool)
		if !ok {
			return ComparisonResult{}
		}
		if !tv.HasValue {
			return ComparisonResult{Contained: true}
		}
		return ComparisonResult{Contained: fv.HasValue && fv.Value == tv.Value}
	case TInt:
		return intContainedBy(fv, t, insideAssertion)
	case TFloat:
		switch tv := t.(type) {
		case TFloat:
			if !tv.HasValue {
				return ComparisonResult{Contained: true}
			}
			return ComparisonResult{Contained: fv.HasValue && fv.Value == tv.Value}
		case TNumeric:
			return ComparisonResult{Contained: true}
		case TGenericScalar:
			return ComparisonResult{Contained: true}
		}
		return ComparisonResult{}
	case TString:
		return stringContainedBy(fv, t, insideAssertion)
	case TClassString:
		tv, ok := t.(TClassString)
		if !ok {
			return ComparisonResult{}
		}
		if tv.ClassName == "" {
			return ComparisonResult{Contained: true}
		}
		if cb != nil && fv.ClassName != "" {
			return ComparisonResult{Contained: fv.ClassName == tv.ClassName || cb.IsInstanceOf(fv.ClassName, tv.ClassName)}
		}
		return ComparisonResult{Contained: fv.ClassName == tv.ClassName}
	case TArrayKey:
		_, ok := t.(TArrayKey)
		return ComparisonResult{Contained: ok}
	case TNumeric:
		_, ok := t.(TNumeric)
		return ComparisonResult{Contained: ok}
	case TGenericScalar:
		_, ok := t.(TGenericScalar)
		return ComparisonResult{Contained: ok}
	case TResource:
		tv, ok := t.(TResource)
		if !ok {
			return ComparisonResult{}
		}
		if tv.Closed == TriUnknown {
			return ComparisonResult{Contained: true}
		}
		return ComparisonResult{Contained: fv.Closed == tv.Closed}
	case TObjectAny:
		switch t.(type) {
		case TObjectAny, TNamedObject, TEnum:
			return ComparisonResult{Contained: true}
		}
		return ComparisonResult{}
	case TNamedObject:
		return namedObjectContainedBy(fv, t, cb)
	case TEnum:
		tv, ok := t.(TEnum)
		if !ok {
			if _, ok := t.(TObjectAny); ok {
				return ComparisonResult{Contained: true}
			}
			return ComparisonResult{}
		}
		if tv.Name != fv.Name {
			return ComparisonResult{}
		}
		if tv.Case == "" {
			return ComparisonResult{Contained: true}
		}
		return ComparisonResult{Contained: fv.Case == tv.Case}
	case TKeyedArray:
		return keyedArrayContainedBy(fv, t, insideAssertion, cb)
	case TListArray:
		return listArrayContainedBy(fv, t, insideAssertion, cb)
	case TIterable:
		tv, ok := t.(TIterable)
		if !ok {
			return ComparisonResult{}
		}
		kr := IsContainedBy(fv.KeyType, tv.KeyType, insideAssertion, cb)
		vr := IsContainedBy(fv.ValueType, tv.ValueType, insideAssertion, cb)
		return ComparisonResult{Contained: kr.Contained && vr.Contained}
	case TCallable:
		return callableContainedBy(fv, t, insideAssertion, cb)
	case TGenericParameter:
		if fv.Constraint != nil {
			return IsContainedBy(fv.Constraint, New(t), insideAssertion, cb)
		}
		return ComparisonResult{}
	case TDerived:
		tv, ok := t.(TDerived)
		return ComparisonResult{Contained: ok && tv.Opaque == fv.Opaque}
	case TPlaceholder:
		return ComparisonResult{Contained: true}
	}
	return ComparisonResult{}
}

func intContainedBy(fv TInt, t Atomic, insideAssertion bool) ComparisonResult {
	switch tv := t.(type) {
	case TInt:
		flo, fhi := fv.bounds()
		tlo, thi := tv.bounds()
		ok := (tlo == nil || (flo != nil && *flo >= *tlo)) && (thi == nil || (fhi != nil && *fhi <= *thi))
		return ComparisonResult{Contained: ok}
	case TNumeric:
		return ComparisonResult{Contained: true}
	case TArrayKey:
		return ComparisonResult{Contained: true}
	case TGenericScalar:
		return ComparisonResult{Contained: true}
	case TFloat:
		if insideAssertion {
			return ComparisonResult{Contained: true, TypeCoerced: true}
		}
	case TString:
		if insideAssertion && tv.IsNumeric {
			return ComparisonResult{Contained: true, TypeCoerced: true, ScalarTypeMatchFound: true}
		}
	}
	return ComparisonResult{}
}

func stringContainedBy(fv TString, t Atomic, insideAssertion bool) ComparisonResult {
	tv, ok := t.(TString)
	if !ok {
		switch t.(type) {
		case TArrayKey, TGenericScalar:
			return ComparisonResult{Contained: true}
		}
		if insideAssertion {
			if _, isNumeric := t.(TNumeric); isNumeric && fv.IsNumeric {
				return ComparisonResult{Contained: true, TypeCoerced: true}
			}
		}
		return ComparisonResult{}
	}
	if tv.HasLiteral {
		return ComparisonResult{Contained: fv.HasLiteral && fv.Literal == tv.Literal}
	}
	if tv.IsNonEmpty && !fv.IsNonEmpty && !(fv.HasLiteral && fv.Literal != "") {
		return ComparisonResult{}
	}
	if tv.IsNumeric && !fv.IsNumeric && !(fv.HasLiteral && isNumericString(fv.Literal)) {
		return ComparisonResult{}
	}
	return ComparisonResult{Contained: true}
}

func namedObjectContainedBy(fv TNamedObject, t Atomic, cb Codebase) ComparisonResult {
	tv, ok := t.(TNamedObject)
	if !ok {
		if _, ok := t.(TObjectAny); ok {
			return ComparisonResult{Contained: true}
		}
		return ComparisonResult{}
	}
	if !objectSatisfiesName(fv, tv.Name, cb) {
		return ComparisonResult{}
	}
	// an intersection target requires every member: Foo is not contained
	// by Foo&Countable unless Foo (or fv's own intersection) satisfies
	// Countable too.
	for _, required := range tv.Intersection {
		if !objectSatisfiesName(fv, required, cb) {
			return ComparisonResult{}
		}
	}
	if len(tv.TypeParams) > 0 && len(fv.TypeParams) == len(tv.TypeParams) {
		vp, _ := cb.(VarianceProvider)
		for i := range tv.TypeParams {
			r := IsContainedBy(fv.TypeParams[i], tv.TypeParams[i], false, cb)
			if !r.Contained {
				return ComparisonResult{}
			}
			if vp == nil || !vp.TemplateIsCovariant(tv.Name, i) {
				// invariant position: the reverse direction must hold too
				back := IsContainedBy(tv.TypeParams[i], fv.TypeParams[i], false, cb)
				if !back.Contained {
					return ComparisonResult{TypeCoerced: true}
				}
			}
		}
	}
	return ComparisonResult{Contained: true}
}

// objectSatisfiesName reports whether an instance of fv is an instance of
// want, through fv's own name, the inheritance graph, or any member of
// fv's intersection.
func objectSatisfiesName(fv TNamedObject, want string, cb Codebase) bool {
	if fv.Name == want {
		return true
	}
	if cb != nil && cb.IsInstanceOf(fv.Name, want) {
		return true
	}
	for _, extra := range fv.Intersection {
		if extra == want {
			return true
		}
		if cb != nil && cb.IsInstanceOf(extra, want) {
			return true
		}
	}
	return false
}

func keyedArrayContainedBy(fv TKeyedArray, t Atomic, insideAssertion bool, cb Codebase) ComparisonResult {
	tv, ok := t.(TKeyedArray)
	if !ok {
		return ComparisonResult{}
	}
	for k, texp := range tv.KnownItems {
		fitem, ok := fv.KnownItems[k]
		if !ok {
			if !texp.Optional {
				return ComparisonResult{}
			}
			continue
		}
		r := IsContainedBy(fitem.Value, texp.Value, insideAssertion, cb)
		if !r.Contained {
			return ComparisonResult{}
		}
	}
	return ComparisonResult{Contained: true}
}

func listArrayContainedBy(fv TListArray, t Atomic, insideAssertion bool, cb Codebase) ComparisonResult {
	tv, ok := t.(TListArray)
	if !ok {
		return ComparisonResult{}
	}
	if tv.ElementType != nil && fv.ElementType != nil {
		r := IsContainedBy(fv.ElementType, tv.ElementType, insideAssertion, cb)
		if !r.Contained {
			return ComparisonResult{}
		}
	}
	if tv.NonEmpty && !fv.NonEmpty {
		return ComparisonResult{}
	}
	return ComparisonResult{Contained: true}
}

// callableContainedBy checks contravariant parameters / covariant return,
// per spec.md §4.7's variance sketch for callable-typed parameters.
func callableContainedBy(fv TCallable, t Atomic, insideAssertion bool, cb Codebase) ComparisonResult {
	tv, ok := t.(TCallable)
	if !ok {
		return ComparisonResult{}
	}
	if fv.Signature == nil || tv.Signature == nil {
		return ComparisonResult{Contained: fv.Alias == tv.Alias}
	}
	if len(fv.Signature.Parameters) != len(tv.Signature.Parameters) {
		return ComparisonResult{}
	}
	for i := range fv.Signature.Parameters {
		// contravariant: the expected (to) parameter type must be
		// contained by the actual (from) parameter type.
		r := IsContainedBy(tv.Signature.Parameters[i].Type, fv.Signature.Parameters[i].Type, insideAssertion, cb)
		if !r.Contained {
			return ComparisonResult{}
		}
	}
	r := IsContainedBy(fv.Signature.ReturnType, tv.Signature.ReturnType, insideAssertion, cb)
	return ComparisonResult{Contained: r.Contained}
}

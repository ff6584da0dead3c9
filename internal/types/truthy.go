package types

// AtomicAlwaysTruthy reports whether every runtime value of a coerces to
// true in a boolean context.
func AtomicAlwaysTruthy(a Atomic) bool {
	switch v := a.(type) {
	case TBool:
		return v.HasValue && v.Value
	case TInt:
		if v.Kind == IntLiteral {
			return v.Literal != 0
		}
		lo, hi := v.bounds()
		if lo != nil && *lo > 0 {
			return true
		}
		if hi != nil && *hi < 0 {
			return true
		}
		return false
	case TFloat:
		return v.HasValue && v.Value != 0
	case TString:
		if v.HasLiteral {
			return v.Literal != "" && v.Literal != "0"
		}
		return v.IsTruthy
	case TMixed:
		return v.Truthiness == Truthy
	case TNamedObject, TObjectAny, TEnum, TCallable, TResource:
		return true
	case TKeyedArray:
		return v.NonEmpty || len(v.KnownItems) > 0
	case TListArray:
		return v.NonEmpty || len(v.KnownElements) > 0
	default:
		return false
	}
}

// AtomicAlwaysFalsy reports whether every runtime value of a coerces to
// false in a boolean context.
func AtomicAlwaysFalsy(a Atomic) bool {
	switch v := a.(type) {
	case TNull, TVoid, TNever:
		return true
	case TBool:
		return v.HasValue && !v.Value
	case TInt:
		return v.Kind == IntLiteral && v.Literal == 0
	case TFloat:
		return v.HasValue && v.Value == 0
	case TString:
		return v.HasLiteral && (v.Literal == "" || v.Literal == "0")
	case TMixed:
		return v.Truthiness == Falsy
	default:
		return false
	}
}

// IsAlwaysTruthy reports whether the union as a whole can never be falsy.
func (u *TUnion) IsAlwaysTruthy() bool {
	if u == nil || len(u.Types) == 0 || u.PossiblyUndefined {
		return false
	}
	for _, a := range u.Types {
		if !AtomicAlwaysTruthy(a) {
			return false
		}
	}
	return true
}

// IsAlwaysFalsy reports whether the union as a whole can never be truthy.
func (u *TUnion) IsAlwaysFalsy() bool {
	if u == nil || len(u.Types) == 0 {
		return false
	}
	for _, a := range u.Types {
		if !AtomicAlwaysFalsy(a) {
			return false
		}
	}
	return true
}

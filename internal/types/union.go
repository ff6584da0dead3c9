package types

import "strings"

// TUnion is the top-level type: an ordered, deduplicated collection of
// atomics plus the flag set of spec.md §3.2.
type TUnion struct {
	Types []Atomic

	HadTemplate              bool
	ReferenceFree            bool
	PossiblyUndefined        bool
	PossiblyUndefinedFromTry bool
	IgnoreNullableIssues     bool
	IgnoreFalsableIssues     bool
	ByReference              bool
}

// New builds a union from atomics, enforcing the Never-absorption invariant
// of spec.md §3.2 ("Never appears alone unless combined with one
// non-Never; an empty union is invalid").
func New(atomics ...Atomic) *TUnion {
	if len(atomics) == 0 {
		atomics = []Atomic{TNever{}}
	}
	if len(atomics) > 1 {
		filtered := make([]Atomic, 0, len(atomics))
		for _, a := range atomics {
			if _, ok := a.(TNever); ok {
				continue
			}
			filtered = append(filtered, a)
		}
		if len(filtered) > 0 {
			atomics = filtered
		}
	}
	return &TUnion{Types: atomics}
}

func (u *TUnion) String() string {
	if u == nil {
		return "<nil>"
	}
	parts := make([]string, len(u.Types))
	for i, a := range u.Types {
		parts[i] = a.String()
	}
	return strings.Join(parts, "|")
}

// Clone deep-copies the flag set and the atomic slice header.
func (u *TUnion) Clone() *TUnion {
	if u == nil {
		return nil
	}
	out := *u
	out.Types = append([]Atomic(nil), u.Types...)
	return &out
}

// IsNever reports whether this union is exactly `never`, the bottom type.
func (u *TUnion) IsNever() bool {
	if u == nil || len(u.Types) != 1 {
		return false
	}
	_, ok := u.Types[0].(TNever)
	return ok
}

// IsSingle reports whether the union has exactly one atomic member.
func (u *TUnion) IsSingle() bool {
	return u != nil && len(u.Types) == 1
}

// HasAtomicOfKind reports whether any member matches the predicate.
func (u *TUnion) HasAtomicOfKind(pred func(Atomic) bool) bool {
	if u == nil {
		return false
	}
	for _, a := range u.Types {
		if pred(a) {
			return true
		}
	}
	return false
}

// IsNullable reports whether null is a possible member.
func (u *TUnion) IsNullable() bool {
	return u.HasAtomicOfKind(func(a Atomic) bool { _, ok := a.(TNull); return ok })
}

// IsMixed reports whether any member of the union is mixed.
func (u *TUnion) IsMixed() bool {
	return u.HasAtomicOfKind(func(a Atomic) bool { _, ok := a.(TMixed); return ok })
}

// ---- canonical singletons -------------------

var (
	singletonInt          = New(TInt{Kind: IntUnspecified})
	singletonPositiveInt   = New(TInt{Kind: IntPositive})
	singletonString        = New(TString{})
	singletonNonEmptyString = New(TString{IsNonEmpty: true})
	singletonBool           = New(TBool{})
	singletonTrue           = New(TBool{HasValue: true, Value: true})
	singletonFalse          = New(TBool{HasValue: true, Value: false})
	singletonNull           = New(TNull{})
	singletonMixed          = New(TMixed{})
	singletonNever          = New(TNever{})
	singletonObject         = New(TObjectAny{})
	singletonArrayKey       = New(TArrayKey{})
	singletonScalar         = New(TGenericScalar{})
	singletonFloat          = New(TFloat{})
	singletonResource       = New(TResource{})
	singletonVoid           = New(TVoid{})
)

func Int() *TUnion           { return singletonInt.Clone() }
func PositiveInt() *TUnion    { return singletonPositiveInt.Clone() }
func Str() *TUnion            { return singletonString.Clone() }
func NonEmptyString() *TUnion { return singletonNonEmptyString.Clone() }
func Bool() *TUnion           { return singletonBool.Clone() }
func True() *TUnion           { return singletonTrue.Clone() }
func False() *TUnion          { return singletonFalse.Clone() }
func Null() *TUnion           { return singletonNull.Clone() }
func Mixed() *TUnion          { return singletonMixed.Clone() }
func Never() *TUnion          { return singletonNever.Clone() }
func Object() *TUnion         { return singletonObject.Clone() }
func ArrayKeyType() *TUnion   { return singletonArrayKey.Clone() }
func Scalar() *TUnion         { return singletonScalar.Clone() }
func Float() *TUnion          { return singletonFloat.Clone() }
func Resource() *TUnion       { return singletonResource.Clone() }
func Void() *TUnion           { return singletonVoid.Clone() }

// IntLiteral builds a literal-int union; allocates.
func IntLiteral(v int64) *TUnion { return New(TInt{Kind: IntLiteral, Literal: v}) }

// StringLiteral builds a literal-string union.
func StringLiteral(v string) *TUnion {
	return New(TString{HasLiteral: true, Literal: v, IsTruthy: v != "" && v != "0", IsNonEmpty: v != ""})
}

// ClassString builds `class-string<name>`.
func ClassString(name string) *TUnion { return New(TClassString{ClassName: name}) }

// NamedObject builds a simple named-object union (no type params).
func NamedObject(name string) *TUnion { return New(TNamedObject{Name: name}) }

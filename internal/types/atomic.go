// Package types implements the type lattice of spec.md §4.1 / §3.1–3.2: the
// atomic-type sum, the TUnion collection built over it, and the four
// operation groups (constructors, combiner, comparator, expander/template
// replacer) the rest of the analyzer core is built on.
//
// The shape mirrors the teacher's internal/typesystem package (a closed
// `Type` interface implemented by small structs, substitution applied via a
// cycle-checked recursive walk — see types.go's ApplyWithCycleCheck and
// replace.go's ReplaceTCon in the teacher) but the lattice itself is the one
// spec.md describes: a sum of atomics combined into an unordered,
// deduplicated union, not a Hindley-Milner TVar/TApp/TCon system.
package types

import "fmt"

// Atomic is one constituent of a TUnion.
type Atomic interface {
	fmt.Stringer
	atomicNode()
}

// Tri is a three-valued logic flag.
type Tri int

const (
	TriUnknown Tri = iota
	TriTrue
	TriFalse
)

// Truthiness classifies TMixed per spec.md §3.1.
type Truthiness int

const (
	Undetermined Truthiness = iota
	Truthy
	Falsy
)

// ---- bottom / top / nullish atomics -----------------------------------

// TNever is the bottom type; it absorbs into unions per spec.md §3.2.
type TNever struct{}

func (TNever) atomicNode()   {}
func (TNever) String() string { return "never" }

// TVoid is the return type of statements with no value.
type TVoid struct{}

func (TVoid) atomicNode()   {}
func (TVoid) String() string { return "void" }

// TNull is the null singleton.
type TNull struct{}

func (TNull) atomicNode()   {}
func (TNull) String() string { return "null" }

// TPlaceholder stands in for a type the populator has not yet resolved.
type TPlaceholder struct{}

func (TPlaceholder) atomicNode()   {}
func (TPlaceholder) String() string { return "<placeholder>" }

// TMixed is the dynamic top type, carrying truthiness/nullability metadata
// so narrowing can still make progress against it.
type TMixed struct {
	Truthiness   Truthiness
	NonNull      bool
	FromIssetLoop bool
}

func (TMixed) atomicNode() {}
func (m TMixed) String() string {
	switch {
	case m.NonNull && m.Truthiness == Truthy:
		return "mixed&truthy&non-null"
	case m.NonNull:
		return "mixed&non-null"
	case m.Truthiness == Truthy:
		return "truthy-mixed"
	case m.Truthiness == Falsy:
		return "falsy-mixed"
	default:
		return "mixed"
	}
}

// ---- scalars -----------------------------------------------------------

// IntKind classifies the integer range lattice of spec.md §3.1.
type IntKind int

const (
	IntUnspecified IntKind = iota
	IntLiteral
	IntRange
	IntPositive     // > 0
	IntNonNegative  // >= 0
	IntNegative     // < 0
	IntNonPositive  // <= 0
)

// TInt is the integer range lattice element.
type TInt struct {
	Kind    IntKind
	Literal int64 // valid when Kind == IntLiteral
	From    *int64
	To      *int64 // valid when Kind == IntRange; nil bound means unbounded
}

func (TInt) atomicNode() {}
func (i TInt) String() string {
	switch i.Kind {
	case IntLiteral:
		return fmt.Sprintf("int(%d)", i.Literal)
	case IntRange:
		from, to := "-inf", "+inf"
		if i.From != nil {
			from = fmt.Sprintf("%d", *i.From)
		}
		if i.To != nil {
			to = fmt.Sprintf("%d", *i.To)
		}
		return fmt.Sprintf("int<%s, %s>", from, to)
	case IntPositive:
		return "positive-int"
	case IntNonNegative:
		return "non-negative-int"
	case IntNegative:
		return "negative-int"
	case IntNonPositive:
		return "non-positive-int"
	default:
		return "int"
	}
}

// Combine merges two integer ranges into the narrowest range subsuming both.
func (i TInt) Combine(o TInt) TInt {
	if i.Kind == IntUnspecified || o.Kind == IntUnspecified {
		return TInt{Kind: IntUnspecified}
	}
	if i.Kind == IntLiteral && o.Kind == IntLiteral {
		if i.Literal == o.Literal {
			return i
		}
		lo, hi := i.Literal, o.Literal
		if lo > hi {
			lo, hi = hi, lo
		}
		return TInt{Kind: IntRange, From: &lo, To: &hi}
	}
	lo1, hi1 := i.bounds()
	lo2, hi2 := o.bounds()
	var lo, hi *int64
	if lo1 != nil && lo2 != nil {
		v := minPtr(*lo1, *lo2)
		lo = &v
	}
	if hi1 != nil && hi2 != nil {
		v := maxPtr(*hi1, *hi2)
		hi = &v
	}
	if lo == nil && hi == nil {
		return TInt{Kind: IntUnspecified}
	}
	return normalizeIntRange(lo, hi)
}

func (i TInt) bounds() (lo, hi *int64) {
	switch i.Kind {
	case IntLiteral:
		return &i.Literal, &i.Literal
	case IntRange:
		return i.From, i.To
	case IntPositive:
		v := int64(1)
		return &v, nil
	case IntNonNegative:
		v := int64(0)
		return &v, nil
	case IntNegative:
		v := int64(-1)
		return nil, &v
	case IntNonPositive:
		v := int64(0)
		return nil, &v
	default:
		return nil, nil
	}
}

func normalizeIntRange(lo, hi *int64) TInt {
	switch {
	case lo != nil && *lo == 1 && hi == nil:
		return TInt{Kind: IntPositive}
	case lo != nil && *lo == 0 && hi == nil:
		return TInt{Kind: IntNonNegative}
	case hi != nil && *hi == -1 && lo == nil:
		return TInt{Kind: IntNegative}
	case hi != nil && *hi == 0 && lo == nil:
		return TInt{Kind: IntNonPositive}
	default:
		return TInt{Kind: IntRange, From: lo, To: hi}
	}
}

func minPtr(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxPtr(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// TFloat is a float, optionally a literal value.
type TFloat struct {
	HasValue bool
	Value    float64
}

func (TFloat) atomicNode() {}
func (f TFloat) String() string {
	if f.HasValue {
		return fmt.Sprintf("float(%v)", f.Value)
	}
	return "float"
}

// TBool is a bool, optionally narrowed to a literal.
type TBool struct {
	HasValue bool
	Value    bool
}

func (TBool) atomicNode() {}
func (b TBool) String() string {
	if b.HasValue {
		if b.Value {
			return "true"
		}
		return "false"
	}
	return "bool"
}

// TString is a string with the flag set described in spec.md §3.1.
type TString struct {
	HasLiteral  bool
	Literal     string
	IsNumeric   bool
	IsTruthy    bool
	IsNonEmpty  bool
	IsLowercase bool
}

func (TString) atomicNode() {}
func (s TString) String() string {
	if s.HasLiteral {
		return fmt.Sprintf("string(%q)", s.Literal)
	}
	switch {
	case s.IsNonEmpty:
		return "non-empty-string"
	case s.IsNumeric:
		return "numeric-string"
	case s.IsLowercase:
		return "lowercase-string"
	default:
		return "string"
	}
}

// TClassString is `class-string<Name>` (or bare `class-string`).
type TClassString struct {
	ClassName string // "" for bare class-string
}

func (TClassString) atomicNode() {}
func (c TClassString) String() string {
	if c.ClassName == "" {
		return "class-string"
	}
	return fmt.Sprintf("class-string<%s>", c.ClassName)
}

// TArrayKey is `array-key` (int|string).
type TArrayKey struct{}

func (TArrayKey) atomicNode()   {}
func (TArrayKey) String() string { return "array-key" }

// TNumeric is `numeric` (int|float|numeric-string).
type TNumeric struct{}

func (TNumeric) atomicNode()   {}
func (TNumeric) String() string { return "numeric" }

// TGenericScalar is `scalar`.
type TGenericScalar struct{}

func (TGenericScalar) atomicNode()   {}
func (TGenericScalar) String() string { return "scalar" }

// TResource is a resource handle, optionally known-closed.
type TResource struct {
	Closed Tri
}

func (TResource) atomicNode() {}
func (r TResource) String() string {
	switch r.Closed {
	case TriTrue:
		return "closed-resource"
	case TriFalse:
		return "open-resource"
	default:
		return "resource"
	}
}

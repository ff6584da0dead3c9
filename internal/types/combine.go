package types

import (
	"sort"
	"strings"
)

// Codebase is the minimal view the lattice needs of codebase metadata to
// apply Liskov subsumption when combining named objects.
// package codebase implements this; types cannot import codebase (codebase
// imports types), so the dependency is inverted through this interface,
// mirroring how the teacher's typesystem.Resolver interface lets Unify call
// back into symbols without an import cycle (internal/typesystem/unify.go).
type Codebase interface {
	// IsInstanceOf reports whether every instance of child is also an
	// instance of parent (child <: parent), per the populated inheritance
	// graph.
	IsInstanceOf(child, parent string) bool
}

const literalBucketLimit = 20

// Combine merges a flat list of atomics into the deduplicated, subsumed set
// a TUnion should hold (spec.md §4.1 "Combiner (join)"). It must terminate
// and be commutative up to result ordering.
func Combine(atomics []Atomic, cb Codebase, overwriteEmptyArray bool) []Atomic {
	if len(atomics) == 0 {
		return []Atomic{TNever{}}
	}

	var (
		mixed        *TMixed
		hasTrue      bool
		hasFalse     bool
		hasBool      bool
		ints         []TInt
		floats       []TFloat
		strings_     []TString
		namedObjects []TNamedObject
		enums        = map[string][]string{} // name -> cases (nil entry = bare)
		keyedArrays  []TKeyedArray
		listArrays   []TListArray
		rest         []Atomic
		sawNever     bool
	)

	for _, a := range atomics {
		switch v := a.(type) {
		case TNever:
			sawNever = true
		case TMixed:
			if mixed == nil {
				cp := v
				mixed = &cp
			} else {
				*mixed = joinMixed(*mixed, v)
			}
		case TBool:
			hasBool = true
			if v.HasValue {
				if v.Value {
					hasTrue = true
				} else {
					hasFalse = true
				}
			} else {
				hasTrue, hasFalse = true, true
			}
		case TInt:
			ints = append(ints, v)
		case TFloat:
			floats = append(floats, v)
		case TString:
			strings_ = append(strings_, v)
		case TNamedObject:
			namedObjects = append(namedObjects, v)
		case TEnum:
			if _, ok := enums[v.Name]; !ok {
				enums[v.Name] = nil
			}
			if v.Case != "" {
				enums[v.Name] = append(enums[v.Name], v.Case)
			} else {
				enums[v.Name] = []string{} // bare enum marker, cleared below
			}
		case TKeyedArray:
			keyedArrays = append(keyedArrays, v)
		case TListArray:
			listArrays = append(listArrays, v)
		default:
			rest = append(rest, a)
		}
	}

	var out []Atomic

	if mixed != nil {
		out = append(out, *mixed)
	}

	if hasTrue && hasFalse {
		out = append(out, TBool{})
	} else if hasBool {
		if hasTrue {
			out = append(out, TBool{HasValue: true, Value: true})
		} else if hasFalse {
			out = append(out, TBool{HasValue: true, Value: false})
		} else {
			out = append(out, TBool{})
		}
	}

	if len(ints) > 0 {
		out = append(out, combineInts(ints)...)
	}
	if len(floats) > 0 {
		out = append(out, combineFloats(floats)...)
	}
	if len(strings_) > 0 {
		out = append(out, combineStrings(strings_)...)
	}
	if len(namedObjects) > 0 {
		out = append(out, combineNamedObjects(namedObjects, cb)...)
	}
	for name, cases := range enums {
		if len(cases) == 0 {
			out = append(out, TEnum{Name: name})
			continue
		}
		seen := map[string]bool{}
		uniq := make([]string, 0, len(cases))
		for _, c := range cases {
			if !seen[c] {
				seen[c] = true
				uniq = append(uniq, c)
			}
		}
		sort.Strings(uniq)
		for _, c := range uniq {
			out = append(out, TEnum{Name: name, Case: c})
		}
	}
	if len(keyedArrays) > 0 {
		out = append(out, combineKeyedArrays(keyedArrays, cb, overwriteEmptyArray)...)
	}
	if len(listArrays) > 0 {
		out = append(out, combineListArrays(listArrays, cb)...)
	}
	out = append(out, rest...)

	if len(out) == 0 {
		if sawNever {
			return []Atomic{TNever{}}
		}
		return []Atomic{TNever{}}
	}
	return out
}

func joinMixed(a, b TMixed) TMixed {
	out := TMixed{NonNull: a.NonNull && b.NonNull, FromIssetLoop: a.FromIssetLoop || b.FromIssetLoop}
	if a.Truthiness == b.Truthiness {
		out.Truthiness = a.Truthiness
	} else {
		out.Truthiness = Undetermined
	}
	return out
}

func combineInts(ints []TInt) []Atomic {
	literals := map[int64]bool{}
	acc := ints[0]
	for i, v := range ints {
		if v.Kind == IntLiteral {
			literals[v.Literal] = true
		}
		if i == 0 {
			continue
		}
		acc = acc.Combine(v)
	}
	if allLiteral(ints) && len(literals) > literalBucketLimit {
		return []Atomic{TInt{Kind: IntUnspecified}}
	}
	if len(literals) > 0 && len(literals) <= literalBucketLimit && allLiteral(ints) {
		keys := make([]int64, 0, len(literals))
		for k := range literals {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		out := make([]Atomic, len(keys))
		for i, k := range keys {
			out[i] = TInt{Kind: IntLiteral, Literal: k}
		}
		return out
	}
	return []Atomic{acc}
}

func allLiteral(ints []TInt) bool {
	for _, v := range ints {
		if v.Kind != IntLiteral {
			return false
		}
	}
	return true
}

func combineFloats(floats []TFloat) []Atomic {
	if len(floats) == 1 {
		return []Atomic{floats[0]}
	}
	first := floats[0]
	for _, f := range floats[1:] {
		if !f.HasValue || !first.HasValue || f.Value != first.Value {
			return []Atomic{TFloat{}}
		}
	}
	return []Atomic{first}
}

// combineStrings merges string atomics: literals bucket like ints, and flags on the generalized atomic take the narrowest
// intersection across all inputs (§4.1 "narrowest flag wins on each axis").
func combineStrings(strs []TString) []Atomic {
	literals := map[string]bool{}
	hasNonLiteral := false
	flags := TString{IsNumeric: true, IsTruthy: true, IsNonEmpty: true, IsLowercase: true}
	for _, s := range strs {
		if s.HasLiteral {
			literals[s.Literal] = true
			flags.IsNumeric = flags.IsNumeric && isNumericString(s.Literal)
			flags.IsTruthy = flags.IsTruthy && s.Literal != "" && s.Literal != "0"
			flags.IsNonEmpty = flags.IsNonEmpty && s.Literal != ""
			flags.IsLowercase = flags.IsLowercase && isLowercaseString(s.Literal)
		} else {
			hasNonLiteral = true
			flags.IsNumeric = flags.IsNumeric && s.IsNumeric
			flags.IsTruthy = flags.IsTruthy && s.IsTruthy
			flags.IsNonEmpty = flags.IsNonEmpty && s.IsNonEmpty
			flags.IsLowercase = flags.IsLowercase && s.IsLowercase
		}
	}
	if !hasNonLiteral && len(literals) > 0 && len(literals) <= literalBucketLimit {
		keys := make([]string, 0, len(literals))
		for k := range literals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Atomic, len(keys))
		for i, k := range keys {
			out[i] = TString{HasLiteral: true, Literal: k}
		}
		return out
	}
	return []Atomic{flags}
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '-' && i == 0 {
			continue
		}
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func isLowercaseString(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}
	}
	return true
}

// combineNamedObjects applies Liskov subsumption: drop an object when a
// strict supertype of it is also present (intersections included, via
// the comparator), and merge same-identity generics' type-parameters
// (spec.md §4.1 "drop T<A> + T<B> -> T<combine(A,B)>").
func combineNamedObjects(objs []TNamedObject, cb Codebase) []Atomic {
	byKey := map[string]TNamedObject{}
	order := []string{}
	for _, o := range objs {
		key := namedObjectKey(o)
		if existing, ok := byKey[key]; ok {
			byKey[key] = mergeSameNamedObject(existing, o, cb)
			continue
		}
		byKey[key] = o
		order = append(order, key)
	}

	kept := make([]string, 0, len(order))
	for _, key := range order {
		o := byKey[key]
		subsumed := false
		for _, otherKey := range order {
			if otherKey == key {
				continue
			}
			other := byKey[otherKey]
			if namedObjectContainedBy(o, other, cb).Contained &&
				!namedObjectContainedBy(other, o, cb).Contained {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, key)
		}
	}
	out := make([]Atomic, len(kept))
	for i, k := range kept {
		out[i] = byKey[k]
	}
	return out
}

// namedObjectKey is the merge identity of a named object: its name plus
// its (order-insensitive) intersection members. Type parameters are NOT
// part of the key so T<A> + T<B> land in the same bucket and merge.
func namedObjectKey(o TNamedObject) string {
	if len(o.Intersection) == 0 {
		return o.Name
	}
	parts := append([]string{}, o.Intersection...)
	sort.Strings(parts)
	return o.Name + "&" + strings.Join(parts, "&")
}

func mergeSameNamedObject(a, b TNamedObject, cb Codebase) TNamedObject {
	out := a
	out.IsThis = a.IsThis && b.IsThis
	if len(a.TypeParams) == len(b.TypeParams) {
		merged := make([]*TUnion, len(a.TypeParams))
		for i := range a.TypeParams {
			merged[i] = New(Combine(append(append([]Atomic{}, a.TypeParams[i].Types...), b.TypeParams[i].Types...), cb, false)...)
		}
		out.TypeParams = merged
	}
	if len(a.RemappedParameters) > 0 || len(b.RemappedParameters) > 0 {
		remapped := map[string]*TUnion{}
		for name, t := range a.RemappedParameters {
			remapped[name] = t
		}
		for name, t := range b.RemappedParameters {
			if existing, ok := remapped[name]; ok {
				remapped[name] = CombineUnions(cb, false, existing, t)
			} else {
				remapped[name] = t
			}
		}
		out.RemappedParameters = remapped
	}
	return out
}

// combineKeyedArrays merges known-items per key (union of values,
// optional = a || b) and promotes empty-array to empty-keyed when both
// inputs are empty.
func combineKeyedArrays(arrays []TKeyedArray, cb Codebase, overwriteEmptyArray bool) []Atomic {
	merged := TKeyedArray{KnownItems: map[ArrayKey]KeyedArrayItem{}}
	anyNonEmpty := false
	var keyType, valueType *TUnion
	for _, a := range arrays {
		if a.NonEmpty {
			anyNonEmpty = true
		}
		for k, item := range a.KnownItems {
			if existing, ok := merged.KnownItems[k]; ok {
				merged.KnownItems[k] = KeyedArrayItem{
					Optional: existing.Optional || item.Optional,
					Value:    New(Combine(append(append([]Atomic{}, existing.Value.Types...), item.Value.Types...), cb, overwriteEmptyArray)...),
				}
			} else {
				merged.KnownItems[k] = item
			}
		}
		if a.KeyType != nil {
			if keyType == nil {
				keyType = a.KeyType.Clone()
			} else {
				keyType = New(Combine(append(append([]Atomic{}, keyType.Types...), a.KeyType.Types...), cb, overwriteEmptyArray)...)
			}
		}
		if a.ValueType != nil {
			if valueType == nil {
				valueType = a.ValueType.Clone()
			} else {
				valueType = New(Combine(append(append([]Atomic{}, valueType.Types...), a.ValueType.Types...), cb, overwriteEmptyArray)...)
			}
		}
	}
	merged.KeyType = keyType
	merged.ValueType = valueType
	merged.NonEmpty = anyNonEmpty && (overwriteEmptyArray || len(merged.KnownItems) > 0)
	return []Atomic{merged}
}

func combineListArrays(arrays []TListArray, cb Codebase) []Atomic {
	var elementType *TUnion
	anyNonEmpty := false
	for _, a := range arrays {
		if a.NonEmpty {
			anyNonEmpty = true
		}
		if a.ElementType != nil {
			if elementType == nil {
				elementType = a.ElementType.Clone()
			} else {
				elementType = New(Combine(append(append([]Atomic{}, elementType.Types...), a.ElementType.Types...), cb, false)...)
			}
		}
	}
	return []Atomic{TListArray{ElementType: elementType, NonEmpty: anyNonEmpty}}
}

// CombineUnions is the convenience entry point used throughout the
// analyzer: flatten N unions' atomics and combine them into one.
func CombineUnions(cb Codebase, overwriteEmptyArray bool, unions ...*TUnion) *TUnion {
	var flat []Atomic
	for _, u := range unions {
		if u == nil {
			continue
		}
		flat = append(flat, u.Types...)
	}
	return New(Combine(flat, cb, overwriteEmptyArray)...)
}

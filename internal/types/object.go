package types

import (
	"fmt"
	"sort"
	"strings"
)

// TObjectAny is the bare `object` type.
type TObjectAny struct{}

func (TObjectAny) atomicNode()   {}
func (TObjectAny) String() string { return "object" }

// TNamedObject is `Name`, `Name<Params>`, `static`/`self`/`parent`
// (IsThis marks the former two), or an intersection `A&B`.
type TNamedObject struct {
	Name       string
	TypeParams []*TUnion
	IsThis     bool
	// Intersection lists additional types an instance must also satisfy
	// (`A&B`), sorted; the comparator requires every member.
	Intersection []string
	// RemappedParameters binds template names to types when an
	// inheritance expansion renamed positions away (a `Box<int>` seen
	// through an ancestor that calls the parameter something else); the
	// invocation engine reads it when seeding class-level templates.
	RemappedParameters map[string]*TUnion
}

func (TNamedObject) atomicNode() {}
func (o TNamedObject) String() string {
	var b strings.Builder
	b.WriteString(o.Name)
	if len(o.TypeParams) > 0 {
		b.WriteString("<")
		parts := make([]string, len(o.TypeParams))
		for i, p := range o.TypeParams {
			parts[i] = p.String()
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(">")
	}
	for _, i := range o.Intersection {
		b.WriteString("&")
		b.WriteString(i)
	}
	return b.String()
}

// TEnum is an enum type, optionally narrowed to one case.
type TEnum struct {
	Name string
	Case string // "" means "any case of Name"
}

func (TEnum) atomicNode() {}
func (e TEnum) String() string {
	if e.Case == "" {
		return e.Name
	}
	return fmt.Sprintf("%s::%s", e.Name, e.Case)
}

// ---- arrays --------------------------------------------------------------

// ArrayKey is a map key: either an int or a string, per spec.md §3.1.
type ArrayKey struct {
	IsString bool
	Int      int64
	Str      string
}

func (k ArrayKey) String() string {
	if k.IsString {
		return k.Str
	}
	return fmt.Sprintf("%d", k.Int)
}

func (k ArrayKey) Less(o ArrayKey) bool {
	if k.IsString != o.IsString {
		return !k.IsString // ints sort before strings
	}
	if k.IsString {
		return k.Str < o.Str
	}
	return k.Int < o.Int
}

// KeyedArrayItem is one entry of a keyed/list array's known shape.
type KeyedArrayItem struct {
	Optional bool
	Value    *TUnion
}

// TKeyedArray is `array{k: V, ...}` with a parameter fallback for unknown
// keys.
type TKeyedArray struct {
	KnownItems map[ArrayKey]KeyedArrayItem
	KeyType    *TUnion // nil when fully known (sealed shape)
	ValueType  *TUnion // nil when fully known
	NonEmpty   bool
}

func (TKeyedArray) atomicNode() {}
func (a TKeyedArray) String() string {
	if len(a.KnownItems) == 0 && a.KeyType == nil {
		return "array{}"
	}
	keys := make([]ArrayKey, 0, len(a.KnownItems))
	for k := range a.KnownItems {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		item := a.KnownItems[k]
		opt := ""
		if item.Optional {
			opt = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s: %s", k, opt, item.Value))
	}
	if a.KeyType != nil {
		parts = append(parts, fmt.Sprintf("...<%s, %s>", a.KeyType, a.ValueType))
	}
	return "array{" + strings.Join(parts, ", ") + "}"
}

// TListArray is `list<V>` / a known-shape list, the 0-indexed-contiguous
// specialization of TKeyedArray.
type TListArray struct {
	KnownElements map[int]KeyedArrayItem
	ElementType   *TUnion
	NonEmpty      bool
	KnownCount    *int
}

func (TListArray) atomicNode() {}
func (a TListArray) String() string {
	if len(a.KnownElements) == 0 {
		if a.NonEmpty {
			return fmt.Sprintf("non-empty-list<%s>", a.ElementType)
		}
		return fmt.Sprintf("list<%s>", a.ElementType)
	}
	idxs := make([]int, 0, len(a.KnownElements))
	for i := range a.KnownElements {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	parts := make([]string, len(idxs))
	for i, idx := range idxs {
		parts[i] = a.KnownElements[idx].Value.String()
	}
	return "list{" + strings.Join(parts, ", ") + "}"
}

// TIterable is `iterable<K, V>`.
type TIterable struct {
	KeyType   *TUnion
	ValueType *TUnion
}

func (TIterable) atomicNode() {}
func (i TIterable) String() string {
	return fmt.Sprintf("iterable<%s, %s>", i.KeyType, i.ValueType)
}

// ---- callables -------------------------------------------------------

// CallableParameter is one parameter of a callable signature.
type CallableParameter struct {
	Type       *TUnion
	ByRef      bool
	Variadic   bool
	HasDefault bool
}

// CallableSignature is the shape of a closure/callable type.
type CallableSignature struct {
	Parameters []CallableParameter
	ReturnType *TUnion
	IsPure     bool
}

// TCallable is either an inline signature or an alias to a declared
// function-like.
type TCallable struct {
	Signature *CallableSignature
	Alias     string // function-like id, used when Signature is nil
}

func (TCallable) atomicNode() {}
func (c TCallable) String() string {
	if c.Signature == nil {
		return fmt.Sprintf("callable(%s)", c.Alias)
	}
	parts := make([]string, len(c.Signature.Parameters))
	for i, p := range c.Signature.Parameters {
		parts[i] = p.Type.String()
	}
	return fmt.Sprintf("(%s): %s", strings.Join(parts, ", "), c.Signature.ReturnType)
}

// ---- generics ----------------------------------------------------------

// TGenericParameter is an unresolved template/generic reference.
type TGenericParameter struct {
	Name           string
	DefiningEntity string // class-like or function-like id
	Constraint     *TUnion
	Intersection   bool
}

func (TGenericParameter) atomicNode() {}
func (g TGenericParameter) String() string {
	return fmt.Sprintf("%s:%s", g.Name, g.DefiningEntity)
}

// TDerived is an opaque, analyzer-internal atomic not otherwise modeled.
type TDerived struct {
	Opaque string
}

func (TDerived) atomicNode()   {}
func (d TDerived) String() string { return d.Opaque }

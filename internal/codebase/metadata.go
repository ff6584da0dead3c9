// Package codebase implements the metadata model of spec.md §3.3 and the
// two-phase-plus-descendants populator of spec.md §4.3.
//
// The map-of-maps-with-string-keys shape and the "check local scope, else
// fall back to outer" lookup idiom are carried from the teacher's
// internal/symbols.SymbolTable (see symbol_table_resolution.go's
// GetTraitMethodIndex-style methods); here there is no scope chain, only a
// flat, process-wide CodebaseMetadata, since class-likes are populated once
// per analysis pass rather than per lexical scope.
package codebase

import (
	"strings"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/types"
)

// ClassLikeKind enumerates the four class-like kinds.
type ClassLikeKind int

const (
	KindClass ClassLikeKind = iota
	KindInterface
	KindTrait
	KindEnum
)

// Variance records a template parameter's declared variance.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// TemplateParameter is one `@template` declaration on a class-like or
// function-like.
type TemplateParameter struct {
	Name       string
	Constraint *types.TUnion
	Variance   Variance
}

// WhereConstraint is a `@where` bound checked after template refinement.
type WhereConstraint struct {
	Parameter string
	Bound     *types.TUnion
}

// ClassLikeFlags are the boolean facets named in spec.md §3.3.
type ClassLikeFlags struct {
	Final                 bool
	Abstract              bool
	Readonly              bool
	Deprecated            bool
	ConsistentConstructor bool
	// FixedTemplateFallback generalizes the SplObjectStorage special case
	// named in spec.md §9's open questions: a class-like whose unresolved
	// template parameters should fall back to `never` rather than `mixed`.
	FixedTemplateFallback bool
}

// Property is a minimal member record; the invocation engine consumes
// methods via FunctionLikeMetadata separately, and this just carries the
// declaring/appearing bookkeeping the populator needs.
type Property struct {
	Name     string
	Type     *types.TUnion
	Readonly bool
	Static   bool
}

// ClassLikeMetadata is spec.md §3.3's ClassLikeMetadata.
type ClassLikeMetadata struct {
	Name  string
	Kind  ClassLikeKind
	Flags ClassLikeFlags

	DirectParentClasses    []string
	DirectParentInterfaces []string
	UsedTraits             []string
	RequireExtends         []string
	RequireImplements      []string
	PermittedInheritors    []string

	OwnMethods    map[string]bool
	OwnProperties map[string]Property
	OwnConstants  map[string]*types.TUnion

	AppearingMethodIDs     map[string]string // method name -> declaring class
	DeclaringMethodIDs     map[string]string
	InheritableMethodIDs   map[string]string
	PotentialDeclaringIDs  map[string][]string
	OverriddenMethodIDs    map[string][]string // method name -> classes it overrides
	AppearingPropertyIDs   map[string]string
	DeclaringPropertyIDs   map[string]string

	TemplateTypes []TemplateParameter
	// ExtendsArguments holds the parsed type arguments of an
	// `extends Parent<...>` / `implements Iface<...>` clause, keyed by
	// the parent's name in declaration order. A nil entry at a position
	// means the scanner saw a pass-through of one of this class's own
	// templates there; TemplateExtendedOffsets records which.
	ExtendsArguments        map[string][]*types.TUnion
	TemplateExtendedOffsets map[string][]int // parent -> positions into this class's own TemplateTypes
	// TemplateExtendedParameters is the populator's output: parent ->
	// (parent template name -> resolved type), transitive through
	// grandparents.
	TemplateExtendedParameters map[string]map[string]*types.TUnion

	AllParentClasses     []string
	AllParentInterfaces  []string

	Populated bool
}

func NewClassLikeMetadata(name string, kind ClassLikeKind) *ClassLikeMetadata {
	return &ClassLikeMetadata{
		Name:                       name,
		Kind:                       kind,
		OwnMethods:                 map[string]bool{},
		OwnProperties:              map[string]Property{},
		OwnConstants:               map[string]*types.TUnion{},
		AppearingMethodIDs:         map[string]string{},
		DeclaringMethodIDs:         map[string]string{},
		InheritableMethodIDs:       map[string]string{},
		PotentialDeclaringIDs:      map[string][]string{},
		OverriddenMethodIDs:        map[string][]string{},
		AppearingPropertyIDs:       map[string]string{},
		DeclaringPropertyIDs:       map[string]string{},
		ExtendsArguments:           map[string][]*types.TUnion{},
		TemplateExtendedOffsets:    map[string][]int{},
		TemplateExtendedParameters: map[string]map[string]*types.TUnion{},
	}
}

// TemplateParam looks up a declared template parameter by name.
func (c *ClassLikeMetadata) TemplateParam(name string) (TemplateParameter, bool) {
	for _, tp := range c.TemplateTypes {
		if tp.Name == name {
			return tp, true
		}
	}
	return TemplateParameter{}, false
}

// Parameter is a function-like parameter.
type Parameter struct {
	Name       string
	Type       *types.TUnion
	ByRef      bool
	Variadic   bool
	Promoted   bool
	HasDefault bool
	Default    *types.TUnion
}

// FunctionLikeFlags are the boolean facets named in spec.md §3.3.
type FunctionLikeFlags struct {
	Pure              bool
	Deprecated        bool
	ForbidsNamedArgs  bool
	MustUse           bool
	HasYield          bool
	HasThrow          bool
	IgnoreNullableReturn bool
	IgnoreFalsableReturn bool
}

// FunctionLikeMetadata is spec.md §3.3's FunctionLikeMetadata.
//
// Assertions map a parameter name (docblock `@assert`/`@assert-if-true`/
// `@assert-if-false` subject) to a CNF of assertions (a conjunction of
// disjunctions):
// UnconditionalAssertions always apply to the caller's context once the
// call completes; IfTrueAssertions/IfFalseAssertions are recorded by the
// invocation engine into a call's artifacts for a later condition that
// tests the call's boolean result to reconcile against.
type FunctionLikeMetadata struct {
	ID         string // "Class::method" or "::function"
	ClassName  string // "" for free functions
	Name       string
	Parameters []Parameter
	ReturnType *types.TUnion

	TemplateTypes    []TemplateParameter
	WhereConstraints []WhereConstraint
	ThrownTypes      []string

	UnconditionalAssertions map[string]assertion.AssertionSet
	IfTrueAssertions        map[string]assertion.AssertionSet
	IfFalseAssertions       map[string]assertion.AssertionSet

	Flags FunctionLikeFlags

	Populated bool
}

func (f *FunctionLikeMetadata) TemplateParam(name string) (TemplateParameter, bool) {
	for _, tp := range f.TemplateTypes {
		if tp.Name == name {
			return tp, true
		}
	}
	return TemplateParameter{}, false
}

// ParameterByName finds a parameter by name, used for named-argument
// binding.
func (f *FunctionLikeMetadata) ParameterByName(name string) (int, *Parameter) {
	for i := range f.Parameters {
		if f.Parameters[i].Name == name {
			return i, &f.Parameters[i]
		}
	}
	return -1, nil
}

// VariadicParameter returns the trailing variadic parameter, if any.
func (f *FunctionLikeMetadata) VariadicParameter() (int, *Parameter) {
	if n := len(f.Parameters); n > 0 && f.Parameters[n-1].Variadic {
		return n - 1, &f.Parameters[n-1]
	}
	return -1, nil
}

// Symbols is the kind table of spec.md §3.3.
type SymbolKind int

const (
	SymbolClassLike SymbolKind = iota
	SymbolFunction
	SymbolConstant
)

// Metadata is the full CodebaseMetadata of spec.md §3.3.
type Metadata struct {
	ClassLikes    map[string]*ClassLikeMetadata // keyed lowercase
	FunctionLikes map[string]*FunctionLikeMetadata
	Constants     map[string]*types.TUnion
	Symbols       map[string]SymbolKind

	AllClassLikeDescendants   map[string]map[string]bool
	DirectClassLikeDescendants map[string]map[string]bool
}

func NewMetadata() *Metadata {
	return &Metadata{
		ClassLikes:                 map[string]*ClassLikeMetadata{},
		FunctionLikes:              map[string]*FunctionLikeMetadata{},
		Constants:                  map[string]*types.TUnion{},
		Symbols:                    map[string]SymbolKind{},
		AllClassLikeDescendants:    map[string]map[string]bool{},
		DirectClassLikeDescendants: map[string]map[string]bool{},
	}
}

func lower(s string) string { return strings.ToLower(s) }

// AddClassLike registers a class-like by its lowercased name.
func (m *Metadata) AddClassLike(c *ClassLikeMetadata) {
	m.ClassLikes[lower(c.Name)] = c
	m.Symbols[lower(c.Name)] = SymbolClassLike
}

// ClassLike looks up a class-like case-insensitively.
func (m *Metadata) ClassLike(name string) (*ClassLikeMetadata, bool) {
	c, ok := m.ClassLikes[lower(name)]
	return c, ok
}

// AddFunctionLike registers a function-like under its ID.
func (m *Metadata) AddFunctionLike(f *FunctionLikeMetadata) {
	m.FunctionLikes[lower(f.ID)] = f
}

func (m *Metadata) FunctionLike(id string) (*FunctionLikeMetadata, bool) {
	f, ok := m.FunctionLikes[lower(id)]
	return f, ok
}

// TemplateIsCovariant implements types.VarianceProvider: the comparator
// accepts a narrower type argument only in positions declared
// `@template-covariant`.
func (m *Metadata) TemplateIsCovariant(className string, index int) bool {
	c, ok := m.ClassLike(className)
	if !ok || index < 0 || index >= len(c.TemplateTypes) {
		return false
	}
	return c.TemplateTypes[index].Variance == Covariant
}

// IsInstanceOf implements types.Codebase for the type lattice's combiner
// and comparator.
func (m *Metadata) IsInstanceOf(child, parent string) bool {
	if lower(child) == lower(parent) {
		return true
	}
	if descendants, ok := m.AllClassLikeDescendants[lower(parent)]; ok {
		return descendants[lower(child)]
	}
	return false
}

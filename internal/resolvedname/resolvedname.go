// Package resolvedname models the per-file resolved-name map spec.md §6
// expects from an external collaborator: the mapping from a bare name as
// it appears in source (a `use`-imported class, an unqualified function
// call, a `parent`/`self`/`static` keyword) to the fully-qualified name
// internal/codebase's Metadata is keyed on.
package resolvedname

import "strings"

// Kind distinguishes what a resolved name refers to, since PHP's
// namespaces keep separate slots for classes, functions, and constants.
type Kind int

const (
	KindClassLike Kind = iota
	KindFunction
	KindConstant
)

// Map is one file's name resolution table, built by the external
// parser/importer from its `use` statements and namespace declaration.
type Map struct {
	entries map[Kind]map[string]string // lowercased local name -> fully-qualified name
}

func New() *Map {
	return &Map{entries: map[Kind]map[string]string{
		KindClassLike: {},
		KindFunction:  {},
		KindConstant:  {},
	}}
}

// Add records that localName resolves to fullyQualified under kind.
func (m *Map) Add(kind Kind, localName, fullyQualified string) {
	m.entries[kind][strings.ToLower(localName)] = fullyQualified
}

// Resolve looks up a name as it appeared in source, falling back to the
// name unchanged when no `use` import shadows it.
func (m *Map) Resolve(kind Kind, localName string) string {
	if fq, ok := m.entries[kind][strings.ToLower(localName)]; ok {
		return fq
	}
	return localName
}

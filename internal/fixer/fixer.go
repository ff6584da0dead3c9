// Package fixer implements spec.md §1's second output channel: proposed
// source edits a host may apply, kept entirely separate from
// internal/diagnostics's read-only Issue stream.
package fixer

import "github.com/mago-analyzer/mago/internal/ast"

// Edit is one proposed textual change, anchored to a span the host's
// source map can resolve back to file offsets.
type Edit struct {
	Span        ast.Span
	Description string
	Replacement string
}

// RenameParameter proposes prefixing an unused parameter's name with an
// underscore, the convention spec.md §4.6 names for silencing the
// unused-parameter notice at the declaration site.
func RenameParameter(oldName, newName string, span ast.Span) Edit {
	return Edit{
		Span:        span,
		Description: "rename parameter $" + oldName + " to $" + newName,
		Replacement: newName,
	}
}

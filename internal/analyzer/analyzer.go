// Package analyzer implements the Expression/Statement Analyzer of
// spec.md §4.6: a traversal over the AST that updates a BlockContext and
// records diagnostics into a Collector as it goes.
//
// The walker shape — a struct combining the codebase metadata, a
// deduplicating issue collector, and per-file mutable state, with
// dispatch by a type switch over a closed node-kind union — is grounded
// on the teacher's internal/analyzer/analyzer.go `walker` struct and its
// `errorSet` keyed by `"line:col:code"` (here internal/diagnostics.Collector
// owns the dedup key, keyed by span+code+message).
package analyzer

import (
	"github.com/mago-analyzer/mago/internal/artifacts"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/config"
	blockctx "github.com/mago-analyzer/mago/internal/context"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/formula"
	"github.com/mago-analyzer/mago/internal/refgraph"
	"github.com/mago-analyzer/mago/internal/resolvedname"
	"github.com/mago-analyzer/mago/internal/types"
)

// Analyzer walks one file's AST against a frozen, already-populated
// codebase.
type Analyzer struct {
	Metadata  *codebase.Metadata
	RefGraph  *refgraph.References
	Collector *diagnostics.Collector
	Settings  config.Settings
	Artifacts *artifacts.Artifacts

	FileID string

	// Names is the file's import-alias resolution table; nil means every
	// name in the AST is already fully qualified.
	Names *resolvedname.Map

	// CurrentClass/CurrentFunction give self/static/parent resolution and
	// assertion/template scoping their defining entity.
	CurrentClass    *codebase.ClassLikeMetadata
	CurrentFunction *codebase.FunctionLikeMetadata
	StaticClassName string
}

// New builds an Analyzer over already-populated codebase metadata.
func New(metadata *codebase.Metadata, refs *refgraph.References, collector *diagnostics.Collector, settings config.Settings, fileID string) *Analyzer {
	return &Analyzer{
		Metadata:  metadata,
		RefGraph:  refs,
		Collector: collector,
		Settings:  settings,
		Artifacts: artifacts.New(refs),
		FileID:    fileID,
	}
}

// codebase exposes *codebase.Metadata as a types.Codebase even when
// a's Metadata is nil (tests exercising the type lattice standalone).
func (a *Analyzer) codebase() types.Codebase {
	if a.Metadata == nil {
		return nil
	}
	return a.Metadata
}

func (a *Analyzer) expansionOptions() types.TypeExpansionOptions {
	opts := types.TypeExpansionOptions{}
	if a.StaticClassName != "" {
		opts.StaticClassType = types.NamedObject(a.StaticClassName)
	}
	if a.CurrentClass != nil {
		opts.SelfClass = a.CurrentClass.Name
		opts.FunctionIsFinal = a.CurrentClass.Flags.Final
		if len(a.CurrentClass.DirectParentClasses) > 0 {
			opts.ParentClass = a.CurrentClass.DirectParentClasses[0]
		}
	}
	return opts
}

// resolveClassName runs a source-level name through the file's resolved
// name map, falling back to the name unchanged.
func (a *Analyzer) resolveClassName(name string) string {
	if a.Names == nil {
		return name
	}
	return a.Names.Resolve(resolvedname.KindClassLike, name)
}

func (a *Analyzer) resolveFunctionName(name string) string {
	if a.Names == nil {
		return name
	}
	return a.Names.Resolve(resolvedname.KindFunction, name)
}

// saturate applies resolution under the configured fuel bounds: clause
// sets past MaxClauseSetSize are returned unsaturated (spec.md §5's
// "give up" signal) rather than risking blowup.
func (a *Analyzer) saturate(clauses []formula.Clause) []formula.Clause {
	if a.Settings.MaxClauseSetSize > 0 && len(clauses) > a.Settings.MaxClauseSetSize {
		return clauses
	}
	return formula.SaturateClauses(clauses, a.Settings.MaxSaturationSteps)
}

// AnalyzeBlock walks a block's statements in source order, short-circuiting once HasReturned is set.
func (a *Analyzer) AnalyzeBlock(ctx *blockctx.BlockContext, block *ast.Block) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		if ctx.HasReturned {
			break
		}
		a.AnalyzeStatement(ctx, stmt)
	}
}

func refgraphMember(symbol, name string) refgraph.Member {
	return refgraph.Member{Symbol: symbol, Name: name}
}

func (a *Analyzer) report(code diagnostics.Code, severity diagnostics.Severity, message string, span ast.Span) {
	a.Collector.Report(diagnostics.Issue{
		Code: code, Severity: severity, Message: message,
		Annotations: []diagnostics.Annotation{{Span: span, Role: diagnostics.RolePrimary}},
	})
}

// checkLogicalOperand enforces spec.md §8's operand rules for logical
// operators: mixed emits MixedOperand, a definite null emits NullOperand,
// and array/object/resource operands emit InvalidOperand.
func (a *Analyzer) checkLogicalOperand(t *types.TUnion, span ast.Span) {
	if t == nil {
		return
	}
	if t.IsMixed() {
		a.report(diagnostics.MixedOperand, diagnostics.SeverityWarning,
			"operand of a logical operation has type mixed", span)
		return
	}
	allNull := len(t.Types) > 0
	for _, at := range t.Types {
		if _, ok := at.(types.TNull); !ok {
			allNull = false
			break
		}
	}
	if allNull {
		a.report(diagnostics.NullOperand, diagnostics.SeverityWarning,
			"operand of a logical operation is always null", span)
		return
	}
	if t.IsSingle() {
		switch t.Types[0].(type) {
		case types.TKeyedArray, types.TListArray, types.TIterable, types.TNamedObject, types.TObjectAny, types.TResource:
			a.report(diagnostics.InvalidOperand, diagnostics.SeverityWarning,
				"operand of type "+t.String()+" in a logical operation", span)
		}
	}
}

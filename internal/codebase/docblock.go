package codebase

import (
	"strings"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/docblock"
	"github.com/mago-analyzer/mago/internal/types"
)

// ApplyFunctionDoc folds a parsed docblock into a function-like's
// metadata: flags, templates, where-constraints, thrown types, parameter
// and return overrides, and assertion sets. The external comment parser
// produces the docblock.Doc; this is the only place its tags become
// behavior.
func ApplyFunctionDoc(f *FunctionLikeMetadata, doc docblock.Doc) {
	for _, tag := range doc.Tags {
		switch tag.Kind {
		case docblock.TagDeprecated:
			f.Flags.Deprecated = true
		case docblock.TagPure:
			f.Flags.Pure = true
		case docblock.TagMustUse:
			f.Flags.MustUse = true
		case docblock.TagNoNamedArguments:
			f.Flags.ForbidsNamedArgs = true
		case docblock.TagIgnoreNullableReturn:
			f.Flags.IgnoreNullableReturn = true
			if f.ReturnType != nil {
				f.ReturnType.IgnoreNullableIssues = true
			}
		case docblock.TagIgnoreFalsableReturn:
			f.Flags.IgnoreFalsableReturn = true
			if f.ReturnType != nil {
				f.ReturnType.IgnoreFalsableIssues = true
			}
		case docblock.TagTemplate, docblock.TagTemplateCovariant, docblock.TagTemplateContravariant:
			f.TemplateTypes = append(f.TemplateTypes, templateFromTag(tag))
		case docblock.TagWhere:
			f.WhereConstraints = append(f.WhereConstraints, WhereConstraint{
				Parameter: tag.Subject,
				Bound:     docType(tag.TypeExpr),
			})
		case docblock.TagThrows:
			f.ThrownTypes = append(f.ThrownTypes, tag.TypeExpr)
		case docblock.TagParam:
			if _, p := f.ParameterByName(tag.Subject); p != nil {
				p.Type = docType(tag.TypeExpr)
			}
		case docblock.TagReturn:
			f.ReturnType = docType(tag.TypeExpr)
		case docblock.TagAssert:
			addAssertion(&f.UnconditionalAssertions, tag)
		case docblock.TagAssertIfTrue:
			addAssertion(&f.IfTrueAssertions, tag)
		case docblock.TagAssertIfFalse:
			addAssertion(&f.IfFalseAssertions, tag)
		}
	}
}

// ApplyClassDoc folds a parsed docblock into a class-like's metadata.
func ApplyClassDoc(c *ClassLikeMetadata, doc docblock.Doc) {
	for _, tag := range doc.Tags {
		switch tag.Kind {
		case docblock.TagDeprecated:
			c.Flags.Deprecated = true
		case docblock.TagConsistentConstructor:
			c.Flags.ConsistentConstructor = true
		case docblock.TagInheritors:
			c.PermittedInheritors = append(c.PermittedInheritors, tag.TypeExpr)
		case docblock.TagTemplate, docblock.TagTemplateCovariant, docblock.TagTemplateContravariant:
			c.TemplateTypes = append(c.TemplateTypes, templateFromTag(tag))
		}
	}
}

func templateFromTag(tag docblock.Tag) TemplateParameter {
	tp := TemplateParameter{Name: tag.Subject}
	switch tag.Kind {
	case docblock.TagTemplateCovariant:
		tp.Variance = Covariant
	case docblock.TagTemplateContravariant:
		tp.Variance = Contravariant
	}
	if tag.TypeExpr != "" {
		tp.Constraint = docType(tag.TypeExpr)
	}
	return tp
}

// addAssertion appends one `@assert` tag's fact to the subject's set. A
// `!`-prefixed type expression asserts the negation.
func addAssertion(m *map[string]assertion.AssertionSet, tag docblock.Tag) {
	if *m == nil {
		*m = map[string]assertion.AssertionSet{}
	}
	expr := tag.TypeExpr
	kind := assertion.IsType
	if strings.HasPrefix(expr, "!") {
		kind = assertion.IsNotType
		expr = expr[1:]
	}
	t := docType(expr)
	if !t.IsSingle() {
		return
	}
	(*m)[tag.Subject] = append((*m)[tag.Subject], assertion.Disjunction{{Kind: kind, Type: t.Types[0]}})
}

// docType resolves the handful of type spellings docblock fixtures use;
// a full type-expression parser is the external collaborator's job.
func docType(name string) *types.TUnion {
	return fixtureType(name)
}

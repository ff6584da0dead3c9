// Package invocation implements the Invocation Engine of spec.md §4.7:
// argument sorting, parameter binding, template inference, comparator-
// driven argument validation, by-reference write-back, assertion
// application, and thrown-type propagation.
package invocation

import (
	"fmt"
	"strings"

	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/types"
)

// Argument is one call-site argument, already analyzed to a type.
type Argument struct {
	Name      string // non-empty for named arguments
	Unpack    bool
	Expr      ast.Expression
	Type      *types.TUnion
	IsClosure bool
}

// Invocation is spec.md §4.7's Invocation{target, arguments_source, span}.
type Invocation struct {
	Target       *codebase.FunctionLikeMetadata
	ClassContext *codebase.ClassLikeMetadata // non-nil for method calls, carries class-level templates
	// ReceiverType is the type the method is called on, when known:
	// calling a method on `Box<int>` pins the class template T to int.
	ReceiverType *types.TUnion
	Arguments    []Argument
	Span         ast.Span
	CallerVarOf  func(ast.Expression) (string, bool) // maps an argument expression to a caller variable-id, for assertion rewriting and by-ref write-back
}

// ByRefWrite is one write-back the caller must apply to its locals.
type ByRefWrite struct {
	VariableID string
	Type       *types.TUnion
}

// Result is everything the invocation produced.
type Result struct {
	ReturnType     *types.TUnion
	TemplateResult *types.TemplateResult
	ByRefWrites    []ByRefWrite
	ThrownTypes    []string
	Issues         []diagnostics.Issue

	// CallerAssertions always apply once the call completes;
	// IfTrueAssertions/IfFalseAssertions apply only when a later
	// condition tests the call's boolean result and are recorded into
	// artifacts keyed by the call's span. All three are keyed by caller
	// variable-ids, already rewritten from parameter names.
	CallerAssertions  map[string]assertion.AssertionSet
	IfTrueAssertions  map[string]assertion.AssertionSet
	IfFalseAssertions map[string]assertion.AssertionSet
}

type boundArgument struct {
	arg       Argument
	paramIdx  int
	fromNamed bool
}

// Invoke runs the full binding/inference/validation pipeline for one call.
func Invoke(inv Invocation) Result {
	target := inv.Target
	result := Result{
		TemplateResult:    types.NewTemplateResult(),
		CallerAssertions:  map[string]assertion.AssertionSet{},
		IfTrueAssertions:  map[string]assertion.AssertionSet{},
		IfFalseAssertions: map[string]assertion.AssertionSet{},
	}
	if target == nil {
		result.ReturnType = types.Mixed()
		return result
	}

	// Step 1: seed upper bounds from declared template constraints,
	// function-level and class-level.
	for _, tp := range target.TemplateTypes {
		if tp.Constraint != nil {
			result.TemplateResult.UpperBounds[target.ID+"::"+tp.Name] = tp.Constraint
		}
	}
	if inv.ClassContext != nil {
		for _, tp := range inv.ClassContext.TemplateTypes {
			if tp.Constraint != nil {
				result.TemplateResult.UpperBounds[inv.ClassContext.Name+"::"+tp.Name] = tp.Constraint
			}
		}
	}

	// Step 2: sort non-closure -> closure -> unpacked, so closure
	// arguments see template bounds tightened by every other argument.
	sorted := sortArguments(inv.Arguments)

	bound := make(map[int]boundArgument)
	nextPositional := 0
	variadicIdx, variadicParam := target.VariadicParameter()
	providedCount := 0
	positionalSpilledIntoVariadic := false

	// Steps 3-4: bind and infer templates for non-closure and closure args.
	for _, a := range sorted {
		if a.Unpack {
			continue // handled below, after positional binding is known
		}
		providedCount++
		if a.Name != "" && target.Flags.ForbidsNamedArgs {
			result.Issues = append(result.Issues, issueAt(diagnostics.NamedArgumentNotAllowed, diagnostics.SeverityError,
				target.ID+" does not accept named arguments", spanOf(a.Expr)))
		}
		idx, param := resolveParameter(target, a, &nextPositional, variadicIdx, variadicParam)
		if param == nil {
			if a.Name != "" {
				result.Issues = append(result.Issues, issueAt(diagnostics.InvalidNamedArgument, diagnostics.SeverityError,
					"no parameter named `"+a.Name+"` on "+target.ID, spanOf(a.Expr)))
			} else {
				result.Issues = append(result.Issues, issueAt(diagnostics.TooManyArguments, diagnostics.SeverityError,
					"too many arguments to "+target.ID, spanOf(a.Expr)))
			}
			continue
		}
		if a.Name != "" {
			if existing, taken := bound[idx]; taken {
				code := diagnostics.NamedArgumentOverridesPositional
				msg := "named argument `" + a.Name + "` overrides an earlier positional argument"
				if existing.fromNamed {
					code = diagnostics.DuplicateNamedArgument
					msg = "duplicate named argument `" + a.Name + "`"
				}
				result.Issues = append(result.Issues, issueAt(code, diagnostics.SeverityError, msg, spanOf(a.Expr)))
			}
			if param.Variadic && positionalSpilledIntoVariadic {
				result.Issues = append(result.Issues, issueAt(diagnostics.NamedArgumentAfterPositional, diagnostics.SeverityError,
					"named argument `"+a.Name+"` targets a variadic parameter already fed positionally", spanOf(a.Expr)))
			}
		} else if param.Variadic {
			positionalSpilledIntoVariadic = true
		}
		bound[idx] = boundArgument{arg: a, paramIdx: idx, fromNamed: a.Name != ""}
		if param.Type != nil && a.Type != nil {
			inferTemplates(&result, inv, param.Type, a.Type, varianceOf(param))
		}
	}

	// Step 7: unpacked arguments bind against the variadic element type;
	// their known minimum length counts toward arity.
	for _, a := range sorted {
		if !a.Unpack {
			continue
		}
		if variadicParam == nil {
			result.Issues = append(result.Issues, issueAt(diagnostics.TooManyArguments, diagnostics.SeverityError,
				"cannot unpack into a non-variadic call", spanOf(a.Expr)))
			continue
		}
		if a.Type != nil {
			elementType := iterableElementType(a.Type)
			inferTemplates(&result, inv, variadicParam.Type, elementType, varianceOf(variadicParam))
			providedCount += iterableMinCount(a.Type)
		}
	}

	// Step 8: defaulted parameters also feed template inference.
	for i := range target.Parameters {
		p := &target.Parameters[i]
		if p.Variadic {
			continue
		}
		if _, isBound := bound[i]; isBound {
			continue
		}
		if p.HasDefault && p.Default != nil && p.Type != nil {
			inferTemplates(&result, inv, p.Type, p.Default, varianceOf(p))
		}
	}

	// Step 5: refine against class-level bindings and @where constraints,
	// and check inferred lower bounds against declared upper bounds.
	refineClassTemplates(&result, inv)
	checkTemplateBounds(&result, target, inv.Span)
	checkWhereConstraints(&result, target, inv.Span)

	// Step 6: bind & verify each provided argument against its
	// (template-replaced) parameter type.
	for idx, b := range bound {
		param := parameterAt(target, idx)
		if param == nil {
			continue
		}
		expected := param.Type
		if expected != nil {
			expected = types.Replace(expected, result.TemplateResult, nil)
		}
		validateArgument(&result, b.arg, expected, param)
	}

	hasUnpack := false
	for _, a := range sorted {
		if a.Unpack {
			hasUnpack = true
		}
	}
	checkArity(&result, target, bound, providedCount, hasUnpack, inv.Span)

	returnType := target.ReturnType
	if returnType == nil {
		returnType = types.Mixed()
	}
	result.ReturnType = types.Replace(returnType, result.TemplateResult, nil)

	// Step 11: thrown-type propagation.
	result.ThrownTypes = append(result.ThrownTypes, target.ThrownTypes...)

	// Step 9: assertions, rewritten to caller variable ids and run
	// through the template replacer against the inferred bindings.
	rewriteAssertions(inv, target, target.UnconditionalAssertions, result.TemplateResult, result.CallerAssertions)
	rewriteAssertions(inv, target, target.IfTrueAssertions, result.TemplateResult, result.IfTrueAssertions)
	rewriteAssertions(inv, target, target.IfFalseAssertions, result.TemplateResult, result.IfFalseAssertions)

	// Step 10: by-reference write-back.
	for idx, b := range bound {
		param := parameterAt(target, idx)
		if param == nil || !param.ByRef || inv.CallerVarOf == nil {
			continue
		}
		if varID, ok := inv.CallerVarOf(b.arg.Expr); ok {
			postType := param.Type
			if postType != nil {
				postType = types.Replace(postType, result.TemplateResult, nil)
				postType = postType.Clone()
				postType.ByReference = true
			}
			result.ByRefWrites = append(result.ByRefWrites, ByRefWrite{VariableID: varID, Type: postType})
		}
	}

	// Step 12: deprecated target.
	if target.Flags.Deprecated {
		code := diagnostics.DeprecatedFunction
		switch {
		case strings.Contains(target.ID, "{closure}"):
			code = diagnostics.DeprecatedClosure
		case target.ClassName != "":
			code = diagnostics.DeprecatedMethod
		}
		result.Issues = append(result.Issues, issueAt(code, diagnostics.SeverityWarning,
			"call to deprecated "+target.ID, inv.Span))
	}

	return result
}

func issueAt(code diagnostics.Code, severity diagnostics.Severity, message string, span ast.Span) diagnostics.Issue {
	return diagnostics.Issue{
		Code: code, Severity: severity, Message: message,
		Annotations: []diagnostics.Annotation{{Span: span, Role: diagnostics.RolePrimary}},
	}
}

// inferTemplates records lower bounds for the target's own templates and,
// for method calls, the enclosing class's templates: a constructor
// parameter typed `T` is defined on the class, not on __construct.
func inferTemplates(result *Result, inv Invocation, paramType, argType *types.TUnion, variance types.Variance) {
	types.Infer(result.TemplateResult, paramType, argType, inv.Target.ID, variance, nil)
	if inv.ClassContext != nil {
		types.Infer(result.TemplateResult, paramType, argType, inv.ClassContext.Name, variance, nil)
	}
}

// refineClassTemplates seeds class-level template bindings: first from
// the receiver's own type arguments (positional TypeParams, or the
// by-name RemappedParameters an inheritance expansion produced), then
// from the class context's resolved template_extended_parameters, so a
// method declared on a generic ancestor resolves that ancestor's
// parameters.
func refineClassTemplates(result *Result, inv Invocation) {
	if inv.ClassContext == nil {
		return
	}
	if inv.ReceiverType != nil && inv.ReceiverType.IsSingle() {
		if obj, ok := inv.ReceiverType.Types[0].(types.TNamedObject); ok {
			for i, tp := range inv.ClassContext.TemplateTypes {
				if i < len(obj.TypeParams) && obj.TypeParams[i] != nil {
					result.TemplateResult.AddLowerBound(tp.Name, inv.ClassContext.Name, obj.TypeParams[i], nil)
				}
			}
			for name, t := range obj.RemappedParameters {
				if t != nil {
					result.TemplateResult.AddLowerBound(name, inv.ClassContext.Name, t, nil)
				}
			}
		}
	}
	for ancestor, bindings := range inv.ClassContext.TemplateExtendedParameters {
		for name, t := range bindings {
			if t == nil {
				continue
			}
			if _, already := result.TemplateResult.LowerBound(name, ancestor); !already {
				result.TemplateResult.AddLowerBound(name, ancestor, t, nil)
			}
		}
	}
}

// checkTemplateBounds verifies every inferred lower bound against its
// declared constraint.
func checkTemplateBounds(result *Result, target *codebase.FunctionLikeMetadata, span ast.Span) {
	for _, tp := range target.TemplateTypes {
		if tp.Constraint == nil {
			continue
		}
		lower, ok := result.TemplateResult.LowerBound(tp.Name, target.ID)
		if !ok {
			continue
		}
		if r := types.IsContainedBy(lower, tp.Constraint, false, nil); !r.Contained {
			result.Issues = append(result.Issues, issueAt(diagnostics.InvalidArgument, diagnostics.SeverityError,
				fmt.Sprintf("inferred type %s for template %s violates its bound %s", lower, tp.Name, tp.Constraint), span))
		}
	}
}

// checkWhereConstraints verifies `@where` bounds after inference.
func checkWhereConstraints(result *Result, target *codebase.FunctionLikeMetadata, span ast.Span) {
	for _, wc := range target.WhereConstraints {
		if wc.Bound == nil {
			continue
		}
		lower, ok := result.TemplateResult.LowerBound(wc.Parameter, target.ID)
		if !ok {
			continue
		}
		if r := types.IsContainedBy(lower, wc.Bound, false, nil); !r.Contained {
			result.Issues = append(result.Issues, issueAt(diagnostics.InvalidArgument, diagnostics.SeverityError,
				fmt.Sprintf("inferred type %s for %s violates the where-constraint %s", lower, wc.Parameter, wc.Bound), span))
		}
	}
}

// rewriteAssertions converts parameter-name-keyed assertion sets into
// caller-variable-keyed ones, running each asserted type through the
// template replacer against the inferred bindings.
func rewriteAssertions(inv Invocation, target *codebase.FunctionLikeMetadata, in map[string]assertion.AssertionSet, tr *types.TemplateResult, out map[string]assertion.AssertionSet) {
	if len(in) == 0 || inv.CallerVarOf == nil {
		return
	}
	for paramName, set := range in {
		callerVar, ok := callerVarForParam(inv, target, paramName)
		if !ok {
			continue
		}
		out[callerVar] = replaceAssertionSet(set, tr)
	}
}

func replaceAssertionSet(set assertion.AssertionSet, tr *types.TemplateResult) assertion.AssertionSet {
	replaced := make(assertion.AssertionSet, len(set))
	for i, disj := range set {
		newDisj := make(assertion.Disjunction, len(disj))
		for j, a := range disj {
			if a.Type != nil {
				if sub := types.Replace(types.New(a.Type), tr, nil); sub.IsSingle() {
					a.Type = sub.Types[0]
				}
			}
			newDisj[j] = a
		}
		replaced[i] = newDisj
	}
	return replaced
}

func callerVarForParam(inv Invocation, target *codebase.FunctionLikeMetadata, paramName string) (string, bool) {
	if paramName == "" {
		return "", false // "" denotes the call's own return value; caller decides how to key it
	}
	idx, param := target.ParameterByName(paramName)
	if param == nil {
		return "", false
	}
	positional := 0
	for _, a := range inv.Arguments {
		if a.Unpack {
			continue
		}
		if a.Name == paramName {
			return inv.CallerVarOf(a.Expr)
		}
		if a.Name == "" {
			if positional == idx {
				return inv.CallerVarOf(a.Expr)
			}
			positional++
		}
	}
	return "", false
}

func sortArguments(args []Argument) []Argument {
	var nonClosure, closures, unpacked []Argument
	for _, a := range args {
		switch {
		case a.Unpack:
			unpacked = append(unpacked, a)
		case a.IsClosure:
			closures = append(closures, a)
		default:
			nonClosure = append(nonClosure, a)
		}
	}
	out := make([]Argument, 0, len(args))
	out = append(out, nonClosure...)
	out = append(out, closures...)
	out = append(out, unpacked...)
	return out
}

func resolveParameter(target *codebase.FunctionLikeMetadata, a Argument, nextPositional *int, variadicIdx int, variadicParam *codebase.Parameter) (int, *codebase.Parameter) {
	if a.Name != "" {
		idx, param := target.ParameterByName(a.Name)
		if param != nil {
			return idx, param
		}
		return -1, nil
	}
	idx := *nextPositional
	*nextPositional++
	if idx < len(target.Parameters) && !target.Parameters[idx].Variadic {
		return idx, &target.Parameters[idx]
	}
	if variadicParam != nil {
		return variadicIdx, variadicParam
	}
	return -1, nil
}

func parameterAt(target *codebase.FunctionLikeMetadata, idx int) *codebase.Parameter {
	if idx < 0 {
		return nil
	}
	if idx < len(target.Parameters) {
		return &target.Parameters[idx]
	}
	if vIdx, vParam := target.VariadicParameter(); vParam != nil && idx >= vIdx {
		return vParam
	}
	return nil
}

func varianceOf(p *codebase.Parameter) types.Variance {
	if p.ByRef {
		return types.Invariant
	}
	return types.Covariant
}

func iterableElementType(t *types.TUnion) *types.TUnion {
	for _, a := range t.Types {
		switch v := a.(type) {
		case types.TIterable:
			return v.ValueType
		case types.TListArray:
			return v.ElementType
		case types.TKeyedArray:
			if v.ValueType != nil {
				return v.ValueType
			}
		}
	}
	return types.Mixed()
}

// iterableMinCount returns the provable minimum element count of an
// unpacked iterable: unpacking an empty list contributes zero.
func iterableMinCount(t *types.TUnion) int {
	for _, a := range t.Types {
		switch v := a.(type) {
		case types.TListArray:
			if v.KnownCount != nil {
				return *v.KnownCount
			}
			return len(v.KnownElements)
		case types.TKeyedArray:
			n := 0
			for _, item := range v.KnownItems {
				if !item.Optional {
					n++
				}
			}
			return n
		}
	}
	return 0
}

func spanOf(e ast.Expression) ast.Span {
	if e == nil {
		return ast.Span{}
	}
	return e.GetSpan()
}

// validateArgument implements spec.md §4.7 step 6's comparator-driven
// checks: null/false special cases first, then InvalidArgument (no
// overlap) vs PossiblyInvalidArgument (coercible or partial overlap).
func validateArgument(result *Result, a Argument, expected *types.TUnion, param *codebase.Parameter) {
	if expected == nil || a.Type == nil || expected.IsMixed() {
		return
	}

	if !expected.IsNullable() && !a.Type.IgnoreNullableIssues {
		if isOnly(a.Type, func(at types.Atomic) bool { _, ok := at.(types.TNull); return ok }) {
			result.Issues = append(result.Issues, issueAt(diagnostics.NullArgument, diagnostics.SeverityError,
				"null given, parameter `"+param.Name+"` expects "+expected.String(), spanOf(a.Expr)))
			return
		}
		if a.Type.IsNullable() {
			result.Issues = append(result.Issues, issueAt(diagnostics.PossiblyNullArgument, diagnostics.SeverityWarning,
				"argument may be null, parameter `"+param.Name+"` expects "+expected.String(), spanOf(a.Expr)))
		}
	}

	if !unionAllowsFalse(expected) && !a.Type.IgnoreFalsableIssues {
		if isOnly(a.Type, isFalseAtomic) {
			result.Issues = append(result.Issues, issueAt(diagnostics.FalseArgument, diagnostics.SeverityError,
				"false given, parameter `"+param.Name+"` expects "+expected.String(), spanOf(a.Expr)))
			return
		}
		if a.Type.HasAtomicOfKind(isFalseAtomic) {
			result.Issues = append(result.Issues, issueAt(diagnostics.PossiblyFalseArgument, diagnostics.SeverityWarning,
				"argument may be false, parameter `"+param.Name+"` expects "+expected.String(), spanOf(a.Expr)))
		}
	}

	r := types.IsContainedBy(a.Type, expected, false, nil)
	if r.Contained {
		return
	}
	if r.ScalarTypeMatchFound || r.TypeCoerced || partiallyContained(a.Type, expected) {
		result.Issues = append(result.Issues, issueAt(diagnostics.PossiblyInvalidArgument, diagnostics.SeverityWarning,
			"argument type "+a.Type.String()+" possibly invalid for parameter `"+param.Name+"` (expects "+expected.String()+")", spanOf(a.Expr)))
		return
	}
	result.Issues = append(result.Issues, issueAt(diagnostics.InvalidArgument, diagnostics.SeverityError,
		"argument type "+a.Type.String()+" invalid for parameter `"+param.Name+"` (expects "+expected.String()+")", spanOf(a.Expr)))
}

func isOnly(t *types.TUnion, pred func(types.Atomic) bool) bool {
	return t.IsSingle() && pred(t.Types[0])
}

func isFalseAtomic(at types.Atomic) bool {
	b, ok := at.(types.TBool)
	return ok && b.HasValue && !b.Value
}

func unionAllowsFalse(t *types.TUnion) bool {
	return t.HasAtomicOfKind(func(at types.Atomic) bool {
		b, ok := at.(types.TBool)
		return ok && (!b.HasValue || !b.Value)
	})
}

// partiallyContained implements the spec's committed definition of
// "possibly invalid": some but not all members of the argument union
// satisfy the parameter.
func partiallyContained(from, to *types.TUnion) bool {
	if from == nil || len(from.Types) < 2 {
		return false
	}
	for _, f := range from.Types {
		if r := types.IsContainedBy(types.New(f), to, false, nil); r.Contained {
			return true
		}
	}
	return false
}

func checkArity(result *Result, target *codebase.FunctionLikeMetadata, bound map[int]boundArgument, providedCount int, hasUnpack bool, span ast.Span) {
	required := 0
	for _, p := range target.Parameters {
		if p.Variadic || p.HasDefault {
			continue
		}
		required++
	}
	if providedCount < required {
		result.Issues = append(result.Issues, issueAt(diagnostics.TooFewArguments, diagnostics.SeverityError,
			fmt.Sprintf("too few arguments to %s: %d provided, %d required", target.ID, providedCount, required), span))
		return
	}
	if hasUnpack {
		return // the unpacked iterable may cover any still-unbound slot
	}
	for i := 0; i < required; i++ {
		if _, ok := bound[i]; !ok {
			result.Issues = append(result.Issues, issueAt(diagnostics.TooFewArguments, diagnostics.SeverityError,
				"missing argument for parameter `"+target.Parameters[i].Name+"`", span))
			return
		}
	}
}

package analyzer

import (
	"fmt"

	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/config"
	blockctx "github.com/mago-analyzer/mago/internal/context"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/formula"
	"github.com/mago-analyzer/mago/internal/invocation"
	"github.com/mago-analyzer/mago/internal/types"
)

// AnalyzeStatement dispatches over the closed statement union.
func (a *Analyzer) AnalyzeStatement(ctx *blockctx.BlockContext, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		a.AnalyzeExpression(ctx, s.Expr)
	case *ast.Block:
		a.AnalyzeBlock(ctx, s)
	case *ast.If:
		a.analyzeIf(ctx, s)
	case *ast.Switch:
		a.analyzeSwitch(ctx, s)
	case *ast.Return:
		if s.Value != nil {
			a.AnalyzeExpression(ctx, s.Value)
		}
		ctx.HasReturned = true
	case *ast.Break:
		ctx.BreakTargetAt(max(s.Levels, 1))
	case *ast.Continue:
		ctx.BreakTargetAt(max(s.Levels, 1))
	case *ast.Try:
		a.analyzeTry(ctx, s)
	case *ast.Loop:
		a.analyzeLoop(ctx, s)
	}
}

// analyzeIf implements spec.md §4.6 If handling: paradox-check the entry
// clauses, clone per branch, reconcile each against the (saturated)
// condition formula, then merge redefined locals back.
func (a *Analyzer) analyzeIf(ctx *blockctx.BlockContext, s *ast.If) {
	ctx.InsideConditional = true
	a.AnalyzeExpression(ctx, s.Condition)
	ctx.InsideConditional = false

	condFormula := a.saturate(formula.GetFormula(s.Condition))

	if paradox, varID := formula.ParadoxCheck(ctx.Clauses, condFormula); paradox {
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"condition on "+varID+" contradicts a fact already established in this scope", s.Condition.GetSpan())
	}

	thenCtx := ctx.Clone()
	thenCtx.Clauses = a.saturate(formula.And(thenCtx.Clauses, condFormula))
	thenSat := formula.FindSatisfyingAssignments(thenCtx.Clauses, ctx.ConditionallyReferencedVariableIDs)
	thenRecon := formula.ReconcileKeyedTypes(thenCtx.Locals, thenSat, a.codebase())
	thenImpossible := thenRecon.Impossible
	for v, t := range thenRecon.Locals {
		thenCtx.Locals[v] = t
	}
	kept, _ := thenCtx.RemoveReconciledClauseRefs(thenCtx.Clauses, thenRecon.Changed)
	thenCtx.Clauses = kept
	a.AnalyzeBlock(thenCtx, s.Then)

	elseCtx := ctx.Clone()
	if s.Else != nil {
		negated := a.saturate(formula.And(elseCtx.Clauses, formula.Not(condFormula)))
		elseSat := formula.FindSatisfyingAssignments(negated, ctx.ConditionallyReferencedVariableIDs)
		elseRecon := formula.ReconcileKeyedTypes(elseCtx.Locals, elseSat, a.codebase())
		for v, t := range elseRecon.Locals {
			elseCtx.Locals[v] = t
		}
		keptElse, _ := elseCtx.RemoveReconciledClauseRefs(negated, elseRecon.Changed)
		elseCtx.Clauses = keptElse
		a.AnalyzeBlock(elseCtx, s.Else)
	}

	for v := range thenImpossible {
		a.report(diagnostics.ImpossibleAssignment, diagnostics.SeverityWarning,
			"branch narrows "+v+" to an impossible type", s.Condition.GetSpan())
	}

	switch {
	case thenCtx.HasReturned && (s.Else == nil || elseCtx.HasReturned):
		if s.Else == nil {
			// the then-branch exits; the rest of this block runs under the
			// negated condition.
			negated := a.saturate(formula.And(ctx.Clauses, formula.Not(condFormula)))
			sat := formula.FindSatisfyingAssignments(negated, nil)
			recon := formula.ReconcileKeyedTypes(ctx.Locals, sat, a.codebase())
			for v, t := range recon.Locals {
				ctx.Locals[v] = t
			}
			ctx.Clauses = negated
		} else {
			ctx.HasReturned = true
		}
	case thenCtx.HasReturned:
		for v, t := range elseCtx.Locals {
			ctx.Locals[v] = t
		}
	case s.Else != nil && elseCtx.HasReturned:
		for v, t := range thenCtx.Locals {
			ctx.Locals[v] = t
		}
	default:
		removed := map[string]bool{}
		redefined := thenCtx.GetRedefinedLocals(ctx.Locals, true, removed)
		for name, newType := range redefined {
			other := elseCtx.Locals[name]
			if other == nil {
				other = ctx.Locals[name]
			}
			if other == nil {
				merged := newType.Clone()
				merged.PossiblyUndefined = true
				ctx.Locals[name] = merged
				continue
			}
			ctx.Locals[name] = types.CombineUnions(a.codebase(), false, newType, other)
		}
		if s.Else != nil {
			elseRedefined := elseCtx.GetRedefinedLocals(ctx.Locals, false, nil)
			for name, newType := range elseRedefined {
				if _, alreadyMerged := redefined[name]; alreadyMerged {
					continue
				}
				ctx.Locals[name] = types.CombineUnions(a.codebase(), false, ctx.Locals[name], newType)
			}
		}
	}

	for _, branch := range []*blockctx.BlockContext{thenCtx, elseCtx} {
		for v := range branch.AssignedVariableIDs {
			ctx.AssignedVariableIDs[v] = true
		}
		for exc := range branch.PossiblyThrownExceptions {
			ctx.PossiblyThrownExceptions[exc] = true
		}
	}
}

func (a *Analyzer) analyzeTry(ctx *blockctx.BlockContext, s *ast.Try) {
	bodyCtx := ctx.Clone()
	a.AnalyzeBlock(bodyCtx, s.Body)
	for v, t := range bodyCtx.Locals {
		if _, existed := ctx.Locals[v]; !existed {
			// assignments inside try may not have happened when a catch runs
			t = t.Clone()
			t.PossiblyUndefinedFromTry = true
		}
		ctx.Locals[v] = t
	}
	for exc := range bodyCtx.PossiblyThrownExceptions {
		ctx.PossiblyThrownExceptions[exc] = true
	}
	for _, c := range s.Catches {
		catchCtx := ctx.Clone()
		if c.Variable != "" {
			var caught []types.Atomic
			for _, name := range c.ClassNames {
				caught = append(caught, types.TNamedObject{Name: a.resolveClassName(name)})
			}
			catchCtx.Locals["$"+c.Variable] = types.New(caught...)
		}
		// the handled classes no longer escape this statement
		for _, name := range c.ClassNames {
			delete(ctx.PossiblyThrownExceptions, a.resolveClassName(name))
		}
		a.AnalyzeBlock(catchCtx, c.Body)
	}
	if s.Finally != nil {
		a.AnalyzeBlock(ctx, s.Finally)
	}
}

func (a *Analyzer) analyzeLoop(ctx *blockctx.BlockContext, s *ast.Loop) {
	ctx.PushBreakType(blockctx.BreakTarget{Kind: "loop"})
	defer ctx.PopBreakType()

	bodyCtx := ctx.Clone()
	bodyCtx.InsideLoopExpressions = s.Condition != nil
	if s.Condition != nil {
		a.AnalyzeExpression(bodyCtx, s.Condition)
	}
	a.AnalyzeBlock(bodyCtx, s.Body)
	for v, t := range bodyCtx.Locals {
		if orig, existed := ctx.Locals[v]; existed {
			if orig.String() != t.String() {
				ctx.Locals[v] = types.CombineUnions(a.codebase(), false, orig, t)
			}
			continue
		}
		// loop bodies may run zero times
		t = t.Clone()
		t.PossiblyUndefined = true
		ctx.Locals[v] = t
	}
	for exc := range bodyCtx.PossiblyThrownExceptions {
		ctx.PossiblyThrownExceptions[exc] = true
	}
}

// analyzeSwitch implements spec.md §4.6 Switch handling: a synthetic
// subject temporary, per-case formula chaining across fall-through arms,
// never/always-matching and unreachable diagnostics, and exhaustiveness.
func (a *Analyzer) analyzeSwitch(ctx *blockctx.BlockContext, s *ast.Switch) {
	subjectType := a.AnalyzeExpression(ctx, s.Subject)
	tempVar := ctx.SwitchTempVarID(s.GetSpan().StartOffset)
	ctx.Locals[tempVar] = subjectType

	ctx.PushBreakType(blockctx.BreakTarget{Kind: "switch"})
	defer ctx.PopBreakType()
	ctx.PushCaseScope(blockctx.CaseScope{})
	defer ctx.PopCaseScope()

	var negations []formula.Clause
	var pending []formula.Clause // fall-through chain of body-less cases
	hasDefault := false
	sawBody := false
	allReturn := len(s.Cases) > 0
	alwaysMatched := false

	for i, c := range s.Cases {
		if c.Expr == nil {
			hasDefault = true
			if alwaysMatched {
				a.report(diagnostics.UnreachableSwitchDefault, diagnostics.SeverityNotice,
					"default arm is unreachable because an earlier case always matches", s.GetSpan())
			}
		}

		var caseFormula []formula.Clause
		if c.Expr != nil {
			eq := &ast.Binary{
				Operator: ast.OpIdentical,
				Left:     &ast.Variable{Name: tempVar},
				Right:    c.Expr,
			}
			caseFormula = formula.Or(pending, a.saturate(formula.GetFormula(eq)))

			switch {
			case alwaysMatched:
				a.report(diagnostics.UnreachableSwitchCase, diagnostics.SeverityNotice,
					"case is unreachable because an earlier case always matches", c.Expr.GetSpan())
			case a.assertionsMakeImpossible(caseFormula, tempVar, subjectType):
				a.report(diagnostics.NeverMatchingSwitchCase, diagnostics.SeverityNotice,
					"case can never match the switch subject", c.Expr.GetSpan())
			case a.assertionsMakeImpossible(formula.And(negations, caseFormula), tempVar, subjectType):
				a.report(diagnostics.UnreachableSwitchCase, diagnostics.SeverityNotice,
					"case cannot match once earlier cases are ruled out", c.Expr.GetSpan())
			case a.assertionsMakeImpossible(formula.And(negations, formula.Not(caseFormula)), tempVar, subjectType):
				alwaysMatched = true
				if i != len(s.Cases)-1 {
					a.report(diagnostics.AlwaysMatchingSwitchCase, diagnostics.SeverityNotice,
						"case always matches, making later cases unreachable", c.Expr.GetSpan())
				}
			}
		}

		if c.Body == nil {
			// fall-through arm: its condition ORs into the next case
			pending = caseFormula
			continue
		}
		pending = nil
		sawBody = true

		caseCtx := ctx.Clone()
		entry := formula.And(negations, caseFormula)
		caseSat := formula.FindSatisfyingAssignments(a.saturate(entry), nil)
		caseRecon := formula.ReconcileKeyedTypes(caseCtx.Locals, caseSat, a.codebase())
		for v, t := range caseRecon.Locals {
			caseCtx.Locals[v] = t
		}
		a.AnalyzeBlock(caseCtx, c.Body)
		if !caseCtx.HasReturned {
			allReturn = false
		}

		redefined := caseCtx.GetRedefinedLocals(ctx.Locals, true, nil)
		for name, newType := range redefined {
			if name == tempVar {
				continue
			}
			if orig, ok := ctx.Locals[name]; ok {
				ctx.Locals[name] = types.CombineUnions(a.codebase(), false, orig, newType)
			} else {
				merged := newType.Clone()
				merged.PossiblyUndefined = true
				ctx.Locals[name] = merged
			}
		}
		for exc := range caseCtx.PossiblyThrownExceptions {
			ctx.PossiblyThrownExceptions[exc] = true
		}

		if c.Expr != nil {
			negations = formula.And(negations, formula.Not(caseFormula))
			if len(ctx.CaseScopes) > 0 {
				ctx.CaseScopes[len(ctx.CaseScopes)-1].NegatedClauses = negations
			}
		}
	}

	exhaustive := hasDefault || alwaysMatched ||
		a.assertionsMakeImpossible(negations, tempVar, subjectType)
	if exhaustive {
		if a.Artifacts != nil {
			a.Artifacts.MarkFullyMatchedSwitch(s.GetSpan().StartOffset)
		}
		if allReturn && sawBody {
			ctx.HasReturned = true
		}
	}
	delete(ctx.Locals, tempVar)
}

// assertionsMakeImpossible reports whether the clause set forces varID's
// type to never, starting from t.
func (a *Analyzer) assertionsMakeImpossible(clauses []formula.Clause, varID string, t *types.TUnion) bool {
	if len(clauses) == 0 || t == nil {
		return false
	}
	sat := formula.FindSatisfyingAssignments(clauses, nil)
	set, ok := sat.Assertions[varID]
	if !ok {
		return false
	}
	_, possible := set.Reconcile(t, a.codebase())
	return !possible
}

// analyzeNew implements spec.md §4.6 New/instantiation handling: candidate
// resolution against possibly multiple names (ambiguity), per-candidate
// fail modes, and invoking __construct through internal/invocation.
func (a *Analyzer) analyzeNew(ctx *blockctx.BlockContext, e *ast.New) *types.TUnion {
	args := a.analyzeArguments(ctx, e.Arguments)

	names, dynamic := a.resolveInstantiationNames(ctx, e)
	if len(names) == 0 {
		return types.Object()
	}
	if len(names) > 1 {
		a.report(diagnostics.AmbiguousInstantiationTarget, diagnostics.SeverityWarning,
			"instantiation target is ambiguous among multiple candidates", e.GetSpan())
	}

	var results []*types.TUnion
	for _, name := range names {
		results = append(results, a.analyzeInstantiationCandidate(ctx, name, args, e, dynamic))
	}
	return types.CombineUnions(a.codebase(), false, results...)
}

// resolveInstantiationNames returns the candidate class names and whether
// the target was dynamic (`new $expr`), which weakens constructor
// consistency guarantees.
func (a *Analyzer) resolveInstantiationNames(ctx *blockctx.BlockContext, e *ast.New) ([]string, bool) {
	switch e.ClassName {
	case "static":
		if a.StaticClassName != "" {
			return []string{a.StaticClassName}, false
		}
		if a.CurrentClass != nil {
			return []string{a.CurrentClass.Name}, false
		}
		a.report(diagnostics.StaticOutsideClassScope, diagnostics.SeverityError,
			"'static' used outside of a class scope", e.GetSpan())
		return nil, false
	case "self":
		if a.CurrentClass != nil {
			return []string{a.CurrentClass.Name}, false
		}
		a.report(diagnostics.SelfOutsideClassScope, diagnostics.SeverityError,
			"'self' used outside of a class scope", e.GetSpan())
		return nil, false
	case "parent":
		if a.CurrentClass != nil && len(a.CurrentClass.DirectParentClasses) > 0 {
			return []string{a.CurrentClass.DirectParentClasses[0]}, false
		}
		a.report(diagnostics.ParentOutsideClassScope, diagnostics.SeverityError,
			"'parent' used without a parent class", e.GetSpan())
		return nil, false
	case "":
		if e.ClassExpr == nil {
			return nil, false
		}
		t := a.AnalyzeExpression(ctx, e.ClassExpr)
		var names []string
		sawUsable := false
		for _, atomic := range t.Types {
			switch v := atomic.(type) {
			case types.TClassString:
				if v.ClassName == "" {
					a.report(diagnostics.UnknownClassInstantiation, diagnostics.SeverityWarning,
						"cannot tell which class this class-string names", e.ClassExpr.GetSpan())
					sawUsable = true
					continue
				}
				names = append(names, v.ClassName)
				sawUsable = true
			case types.TNamedObject:
				// `new $instance` clones the instance's class
				names = append(names, v.Name)
				sawUsable = true
			case types.TString:
				a.report(diagnostics.UnknownClassInstantiation, diagnostics.SeverityWarning,
					"instantiating from a plain string; use class-string to make the target checkable", e.ClassExpr.GetSpan())
				sawUsable = true
			}
		}
		if !sawUsable {
			a.report(diagnostics.InvalidClassStringExpression, diagnostics.SeverityError,
				"expression of type "+t.String()+" cannot name a class", e.ClassExpr.GetSpan())
		}
		return names, true
	default:
		return []string{a.resolveClassName(e.ClassName)}, false
	}
}

func (a *Analyzer) analyzeInstantiationCandidate(ctx *blockctx.BlockContext, name string, args []invocation.Argument, e *ast.New, dynamic bool) *types.TUnion {
	class, ok := a.Metadata.ClassLike(name)
	if !ok {
		a.report(diagnostics.NonExistentClass, diagnostics.SeverityError,
			fmt.Sprintf("class %q does not exist", name), e.GetSpan())
		return types.Object()
	}

	switch class.Kind {
	case codebase.KindInterface:
		a.report(diagnostics.InterfaceInstantiation, diagnostics.SeverityError,
			fmt.Sprintf("cannot instantiate interface %q", name), e.GetSpan())
		return types.Never()
	case codebase.KindTrait:
		a.report(diagnostics.TraitInstantiation, diagnostics.SeverityError,
			fmt.Sprintf("cannot instantiate trait %q", name), e.GetSpan())
		return types.Never()
	case codebase.KindEnum:
		a.report(diagnostics.EnumInstantiation, diagnostics.SeverityError,
			fmt.Sprintf("cannot instantiate enum %q", name), e.GetSpan())
		return types.Never()
	}
	if class.Flags.Abstract && e.ClassName != "static" {
		a.report(diagnostics.AbstractInstantiation, diagnostics.SeverityError,
			fmt.Sprintf("cannot instantiate abstract class %q", name), e.GetSpan())
		return types.Never()
	}
	if (dynamic || e.ClassName == "static") && !class.Flags.Final && !class.Flags.ConsistentConstructor {
		a.report(diagnostics.UnsafeInstantiation, diagnostics.SeverityWarning,
			fmt.Sprintf("unsafe instantiation of %q: its constructor may change in subclasses (missing @consistent-constructor)", name), e.GetSpan())
	}
	if class.Flags.Deprecated {
		a.report(diagnostics.DeprecatedClass, diagnostics.SeverityWarning,
			fmt.Sprintf("class %q is deprecated", name), e.GetSpan())
	}

	var templateResult *types.TemplateResult
	declaring, hasCtor := class.DeclaringMethodIDs[config.ConstructMethodName]
	if hasCtor {
		if ctor, ok := a.Metadata.FunctionLike(declaring + "::" + config.ConstructMethodName); ok {
			ctorResult := invocation.Invoke(invocation.Invocation{
				Target: ctor, ClassContext: class, Arguments: args, Span: e.GetSpan(),
				CallerVarOf: callerVarOf,
			})
			for _, issue := range ctorResult.Issues {
				a.Collector.Report(issue)
			}
			for _, thrown := range ctorResult.ThrownTypes {
				ctx.PossiblyThrownExceptions[thrown] = true
			}
			templateResult = ctorResult.TemplateResult
		}
	} else if len(args) > 0 {
		a.report(diagnostics.TooManyArguments, diagnostics.SeverityError,
			fmt.Sprintf("%q has no constructor but arguments were provided", name), e.GetSpan())
	}

	isThis := e.ClassName == "static" || (e.ClassName == "self" && class.Flags.Final)
	obj := types.TNamedObject{Name: class.Name, IsThis: isThis}
	if len(class.TemplateTypes) > 0 {
		obj.TypeParams = resolveInstantiationTypeParams(class, templateResult)
	}
	return types.New(obj)
}

// resolveInstantiationTypeParams turns the constructor's inferred
// template bindings into the instantiated object's type parameters,
// falling back to declared constraints — or to `never` for classes
// flagged with the fixed-template fallback — when nothing was inferred.
func resolveInstantiationTypeParams(class *codebase.ClassLikeMetadata, tr *types.TemplateResult) []*types.TUnion {
	params := make([]*types.TUnion, len(class.TemplateTypes))
	for i, tp := range class.TemplateTypes {
		if tr != nil {
			if bound, ok := tr.LowerBound(tp.Name, class.Name); ok {
				params[i] = bound
				continue
			}
		}
		switch {
		case class.Flags.FixedTemplateFallback:
			params[i] = types.Never()
		case tp.Constraint != nil:
			params[i] = tp.Constraint
		default:
			params[i] = types.Mixed()
		}
	}
	return params
}

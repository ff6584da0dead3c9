package analyzer

import (
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/codebase"
	"github.com/mago-analyzer/mago/internal/config"
	blockctx "github.com/mago-analyzer/mago/internal/context"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/formula"
	"github.com/mago-analyzer/mago/internal/invocation"
	"github.com/mago-analyzer/mago/internal/types"
)

// AnalyzeExpression dispatches over the closed expression union, records
// the inferred type into the artifacts keyed by the expression's span,
// and returns it.
func (a *Analyzer) AnalyzeExpression(ctx *blockctx.BlockContext, expr ast.Expression) *types.TUnion {
	t := a.analyzeExpressionInner(ctx, expr)
	if a.Artifacts != nil && expr != nil {
		a.Artifacts.SetExpressionType(expr.GetSpan(), t)
	}
	return t
}

func (a *Analyzer) analyzeExpressionInner(ctx *blockctx.BlockContext, expr ast.Expression) *types.TUnion {
	switch e := expr.(type) {
	case *ast.Literal:
		return a.analyzeLiteral(e)
	case *ast.Variable:
		if t, ok := ctx.Locals[e.Name]; ok {
			if ctx.InsideConditional {
				ctx.ConditionallyReferencedVariableIDs[e.Name] = true
			}
			return t
		}
		return types.Mixed()
	case *ast.Binary:
		return a.analyzeBinary(ctx, e)
	case *ast.Unary:
		return a.analyzeUnary(ctx, e)
	case *ast.InstanceOf:
		a.AnalyzeExpression(ctx, e.Subject)
		return types.Bool()
	case *ast.IsSet:
		for _, s := range e.Subjects {
			a.AnalyzeExpression(ctx, s)
		}
		return types.Bool()
	case *ast.EmptyCall:
		a.AnalyzeExpression(ctx, e.Subject)
		return types.Bool()
	case *ast.Assign:
		return a.analyzeAssign(ctx, e)
	case *ast.Call:
		return a.analyzeCall(ctx, e)
	case *ast.MethodCall:
		return a.analyzeMethodCall(ctx, e)
	case *ast.New:
		return a.analyzeNew(ctx, e)
	case *ast.Closure:
		return a.analyzeClosure(ctx, e)
	case *ast.ArrayAccess:
		a.AnalyzeExpression(ctx, e.Array)
		if e.Key != nil {
			a.AnalyzeExpression(ctx, e.Key)
		}
		return types.Mixed()
	case *ast.PropertyAccess:
		a.AnalyzeExpression(ctx, e.Object)
		return types.Mixed()
	default:
		return types.Mixed()
	}
}

func (a *Analyzer) analyzeLiteral(lit *ast.Literal) *types.TUnion {
	switch v := lit.Value.(type) {
	case nil:
		return types.Null()
	case bool:
		if v {
			return types.True()
		}
		return types.False()
	case int64:
		return types.IntLiteral(v)
	case int:
		return types.IntLiteral(int64(v))
	case float64:
		return types.Float()
	case string:
		return types.StringLiteral(v)
	default:
		return types.Mixed()
	}
}

func (a *Analyzer) analyzeUnary(ctx *blockctx.BlockContext, e *ast.Unary) *types.TUnion {
	t := a.AnalyzeExpression(ctx, e.Operand)
	if e.Operator == "!" {
		switch {
		case t.IsAlwaysTruthy():
			return types.False()
		case t.IsAlwaysFalsy():
			return types.True()
		default:
			return types.Bool()
		}
	}
	return t
}

func (a *Analyzer) analyzeAssign(ctx *blockctx.BlockContext, e *ast.Assign) *types.TUnion {
	val := a.AnalyzeExpression(ctx, e.Value)
	if e.ByRef {
		val = val.Clone()
		val.ByReference = true
	}
	if v, ok := e.Target.(*ast.Variable); ok {
		ctx.AssignedVariableIDs[v.Name] = true
		ctx.RemoveVariableFromConflictingClauses(v.Name, val)
	} else {
		a.AnalyzeExpression(ctx, e.Target)
	}
	return val
}

func (a *Analyzer) analyzeClosure(ctx *blockctx.BlockContext, e *ast.Closure) *types.TUnion {
	inner := ctx.Clone()
	for _, p := range e.Parameters {
		inner.Locals["$"+p.Name] = types.Mixed()
	}
	a.AnalyzeBlock(inner, e.Body)
	a.CheckUnusedParameters(e.Parameters, e.Body)
	return types.New(types.TCallable{})
}

// analyzeBinary implements spec.md §4.6's Logical AND/OR/XOR handling: the
// clone-extract-saturate-reconcile-merge dance, grounded on the teacher's
// inferIfExpression clone-then-merge shape (internal/analyzer/
// inference_control.go in the prior code), here driven by
// internal/formula and internal/context instead of HM substitution.
func (a *Analyzer) analyzeBinary(ctx *blockctx.BlockContext, e *ast.Binary) *types.TUnion {
	switch e.Operator {
	case ast.OpLogicalAnd:
		return a.analyzeLogicalAnd(ctx, e)
	case ast.OpLogicalOr:
		return a.analyzeLogicalOr(ctx, e)
	case ast.OpLogicalXor:
		return a.analyzeLogicalXor(ctx, e)
	case ast.OpEquals, ast.OpIdentical, ast.OpNotEquals, ast.OpNotIdentical:
		a.AnalyzeExpression(ctx, e.Left)
		a.AnalyzeExpression(ctx, e.Right)
		return types.Bool()
	default:
		a.AnalyzeExpression(ctx, e.Left)
		a.AnalyzeExpression(ctx, e.Right)
		return types.Mixed()
	}
}

func (a *Analyzer) analyzeLogicalAnd(ctx *blockctx.BlockContext, e *ast.Binary) *types.TUnion {
	leftCtx := ctx.Clone()
	leftCtx.InsideConditional = true
	leftCtx.InsideGeneralUse = true
	leftType := a.AnalyzeExpression(leftCtx, e.Left)
	a.checkLogicalOperand(leftType, e.Left.GetSpan())

	leftFormula := a.saturate(formula.And(ctx.Clauses, formula.GetFormula(e.Left)))
	sat := formula.FindSatisfyingAssignments(leftFormula, ctx.ConditionallyReferencedVariableIDs)

	// The RHS is only evaluated when the LHS held: reconcile under the
	// LHS assertions before walking it.
	rightCtx := leftCtx.Clone()
	recon := formula.ReconcileKeyedTypes(rightCtx.Locals, sat, a.codebase())
	for v, t := range recon.Locals {
		rightCtx.Locals[v] = t
	}
	for v := range recon.Impossible {
		a.report(diagnostics.ImpossibleAssignment, diagnostics.SeverityWarning,
			"condition narrows "+v+" to an impossible type", e.Left.GetSpan())
	}
	kept, _ := rightCtx.RemoveReconciledClauseRefs(leftFormula, recon.Changed)
	rightCtx.Clauses = kept

	rightType := a.AnalyzeExpression(rightCtx, e.Right)
	a.checkLogicalOperand(rightType, e.Right.GetSpan())

	a.mergeOperandContexts(ctx, leftCtx, rightCtx)

	switch {
	case leftType.IsAlwaysFalsy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the left operand is always falsy, so the && is always false", e.GetSpan())
		return types.False()
	case rightType.IsAlwaysFalsy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the right operand is always falsy, so the && is always false", e.GetSpan())
		return types.False()
	case leftType.IsAlwaysTruthy() && rightType.IsAlwaysTruthy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"both operands are always truthy, so the && is always true", e.GetSpan())
		return types.True()
	case leftType.IsAlwaysTruthy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the left operand is always truthy, so the && equals the boolean value of the right operand", e.GetSpan())
		return types.Bool()
	case rightType.IsAlwaysTruthy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the right operand is always truthy, so the && equals the boolean value of the left operand", e.GetSpan())
		return types.Bool()
	default:
		return types.Bool()
	}
}

// analyzeLogicalOr mirrors `if (lhs) {} else { rhs }`: a nested if-body
// context carries narrowings from the negated LHS into the RHS arm, per
// spec.md §9's shared-mutable-if-body note.
func (a *Analyzer) analyzeLogicalOr(ctx *blockctx.BlockContext, e *ast.Binary) *types.TUnion {
	leftCtx := ctx.Clone()
	leftCtx.InsideConditional = true
	leftCtx.InsideGeneralUse = true
	leftType := a.AnalyzeExpression(leftCtx, e.Left)
	a.checkLogicalOperand(leftType, e.Left.GetSpan())

	negated := a.saturate(formula.And(ctx.Clauses, formula.Not(formula.GetFormula(e.Left))))
	sat := formula.FindSatisfyingAssignments(negated, ctx.ConditionallyReferencedVariableIDs)

	ifBody := ctx.Clone()
	recon := formula.ReconcileKeyedTypes(ifBody.Locals, sat, a.codebase())
	for v, t := range recon.Locals {
		ifBody.Locals[v] = t
	}
	leftCtx.IfBodyContext = ifBody

	rightCtx := ifBody.Clone()
	rightType := a.AnalyzeExpression(rightCtx, e.Right)
	a.checkLogicalOperand(rightType, e.Right.GetSpan())

	// Variables redefined in the RHS arm merge back with combine, since
	// the parent only knows "LHS held, or the RHS's effects apply".
	for name, origType := range ctx.Locals {
		rt, ok := rightCtx.Locals[name]
		if !ok {
			continue
		}
		if origType.String() != rt.String() {
			ctx.Locals[name] = types.CombineUnions(a.codebase(), false, origType, rt)
		}
	}
	a.mergeOperandContexts(ctx, leftCtx, rightCtx)

	switch {
	case leftType.IsAlwaysTruthy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the left operand is always truthy, so the || is always true", e.GetSpan())
		return types.True()
	case rightType.IsAlwaysTruthy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the right operand is always truthy, so the || is always true", e.GetSpan())
		return types.True()
	case leftType.IsAlwaysFalsy() && rightType.IsAlwaysFalsy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"both operands are always falsy, so the || is always false", e.GetSpan())
		return types.False()
	case leftType.IsAlwaysFalsy():
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the left operand is always falsy, so the || equals the boolean value of the right operand", e.GetSpan())
		return types.Bool()
	default:
		return types.Bool()
	}
}

// analyzeLogicalXor evaluates both sides unconditionally (no
// short-circuit) and detects always-same/always-different operands.
func (a *Analyzer) analyzeLogicalXor(ctx *blockctx.BlockContext, e *ast.Binary) *types.TUnion {
	leftType := a.AnalyzeExpression(ctx, e.Left)
	rightType := a.AnalyzeExpression(ctx, e.Right)
	a.checkLogicalOperand(leftType, e.Left.GetSpan())
	a.checkLogicalOperand(rightType, e.Right.GetSpan())

	leftKnown := leftType.IsAlwaysTruthy() || leftType.IsAlwaysFalsy()
	rightKnown := rightType.IsAlwaysTruthy() || rightType.IsAlwaysFalsy()
	if leftKnown && rightKnown {
		same := leftType.IsAlwaysTruthy() == rightType.IsAlwaysTruthy()
		if same {
			a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
				"both operands always have the same boolean value, so the xor is always false", e.GetSpan())
			return types.False()
		}
		a.report(diagnostics.RedundantLogicalOperation, diagnostics.SeverityNotice,
			"the operands always have different boolean values, so the xor is always true", e.GetSpan())
		return types.True()
	}
	return types.Bool()
}

// mergeOperandContexts folds the referenced/assigned bookkeeping of an
// operator's operand scopes back into the parent, per spec.md §4.6
// ("Merge referenced/assigned back into parent context").
func (a *Analyzer) mergeOperandContexts(ctx *blockctx.BlockContext, operands ...*blockctx.BlockContext) {
	for _, op := range operands {
		for v := range op.ConditionallyReferencedVariableIDs {
			ctx.ConditionallyReferencedVariableIDs[v] = true
		}
		for v := range op.AssignedVariableIDs {
			ctx.AssignedVariableIDs[v] = true
			if t, ok := op.Locals[v]; ok {
				ctx.Locals[v] = t
			}
		}
		for exc := range op.PossiblyThrownExceptions {
			ctx.PossiblyThrownExceptions[exc] = true
		}
	}
}

// resolveCallTarget looks up a statically-named free function, running
// the name through the file's resolved-name map first.
func (a *Analyzer) resolveCallTarget(name string) (*codebase.FunctionLikeMetadata, bool) {
	if a.Metadata == nil {
		return nil, false
	}
	if f, ok := a.Metadata.FunctionLike("::" + a.resolveFunctionName(name)); ok {
		return f, true
	}
	// Fallback to the unqualified spelling, matching the language's
	// local-then-global function resolution order.
	f, ok := a.Metadata.FunctionLike("::" + name)
	return f, ok
}

func (a *Analyzer) analyzeCall(ctx *blockctx.BlockContext, e *ast.Call) *types.TUnion {
	args := a.analyzeArguments(ctx, e.Arguments)

	if e.FunctionName != "" {
		target, ok := a.resolveCallTarget(e.FunctionName)
		if !ok {
			return types.Mixed()
		}
		return a.invokeAndReport(ctx, target, nil, nil, args, e.GetSpan())
	}

	calleeType := a.AnalyzeExpression(ctx, e.Callee)
	targets := a.callableTargets(calleeType)
	if len(targets) == 0 {
		a.report(diagnostics.InvalidCallable, diagnostics.SeverityError,
			"expression is not callable", e.GetSpan())
		return types.Mixed()
	}
	var results []*types.TUnion
	for _, t := range targets {
		results = append(results, a.invokeAndReport(ctx, t, nil, nil, args, e.GetSpan()))
	}
	return types.CombineUnions(a.codebase(), false, results...)
}

func (a *Analyzer) analyzeMethodCall(ctx *blockctx.BlockContext, e *ast.MethodCall) *types.TUnion {
	args := a.analyzeArguments(ctx, e.Arguments)

	className := a.resolveClassName(e.ClassName)
	var receiverType *types.TUnion
	if e.Target != nil {
		receiverType = a.AnalyzeExpression(ctx, e.Target)
		if className == "" {
			className = soleObjectClassName(receiverType)
		}
	}
	if className == "" || a.Metadata == nil {
		return types.Mixed()
	}
	class, ok := a.Metadata.ClassLike(className)
	if !ok {
		return types.Mixed()
	}
	declaring, ok := class.DeclaringMethodIDs[lowerName(e.MethodName)]
	if !ok {
		return types.Mixed()
	}
	if a.Artifacts != nil && a.CurrentClass != nil {
		a.Artifacts.References.AddSymbolReferenceToSymbol(
			refgraphMember(a.CurrentClass.Name, currentMemberName(a.CurrentFunction)),
			refgraphMember(declaring, e.MethodName),
		)
	}
	target, ok := a.Metadata.FunctionLike(declaring + "::" + e.MethodName)
	if !ok {
		return types.Mixed()
	}
	return a.invokeAndReport(ctx, target, class, receiverType, args, e.GetSpan())
}

func currentMemberName(f *codebase.FunctionLikeMetadata) string {
	if f == nil {
		return ""
	}
	return f.Name
}

func lowerName(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func soleObjectClassName(t *types.TUnion) string {
	if t == nil || len(t.Types) != 1 {
		return ""
	}
	if obj, ok := t.Types[0].(types.TNamedObject); ok {
		return obj.Name
	}
	return ""
}

// callableTargets resolves a callable-valued expression's type to the
// function-likes it could dispatch to: explicit callable aliases,
// class-strings of invokable classes, or inline signatures (which carry
// no metadata and contribute no target).
func (a *Analyzer) callableTargets(t *types.TUnion) []*codebase.FunctionLikeMetadata {
	if t == nil || a.Metadata == nil {
		return nil
	}
	var out []*codebase.FunctionLikeMetadata
	for _, atomic := range t.Types {
		switch v := atomic.(type) {
		case types.TCallable:
			if v.Alias != "" {
				if f, ok := a.Metadata.FunctionLike(v.Alias); ok {
					out = append(out, f)
				}
			}
		case types.TClassString:
			if class, ok := a.Metadata.ClassLike(v.ClassName); ok {
				if declaring, ok := class.DeclaringMethodIDs[config.InvokeMethodName]; ok {
					if f, ok := a.Metadata.FunctionLike(declaring + "::" + config.InvokeMethodName); ok {
						out = append(out, f)
					}
				}
			}
		case types.TNamedObject:
			if class, ok := a.Metadata.ClassLike(v.Name); ok {
				if declaring, ok := class.DeclaringMethodIDs[config.InvokeMethodName]; ok {
					if f, ok := a.Metadata.FunctionLike(declaring + "::" + config.InvokeMethodName); ok {
						out = append(out, f)
					}
				}
			}
		}
	}
	return out
}

func (a *Analyzer) analyzeArguments(ctx *blockctx.BlockContext, args []ast.Argument) []invocation.Argument {
	out := make([]invocation.Argument, 0, len(args))
	for _, arg := range args {
		t := a.AnalyzeExpression(ctx, arg.Value)
		out = append(out, invocation.Argument{
			Name: arg.Name, Unpack: arg.Unpack, Expr: arg.Value, Type: t, IsClosure: arg.IsClosure,
		})
	}
	return out
}

func (a *Analyzer) invokeAndReport(ctx *blockctx.BlockContext, target *codebase.FunctionLikeMetadata, class *codebase.ClassLikeMetadata, receiver *types.TUnion, args []invocation.Argument, span ast.Span) *types.TUnion {
	result := invocation.Invoke(invocation.Invocation{
		Target:       target,
		ClassContext: class,
		ReceiverType: receiver,
		Arguments:    args,
		Span:         span,
		CallerVarOf:  callerVarOf,
	})
	for _, issue := range result.Issues {
		a.Collector.Report(issue)
	}
	for _, w := range result.ByRefWrites {
		ctx.RemoveVariableFromConflictingClauses(w.VariableID, w.Type)
		if w.Type != nil {
			ctx.ByReferenceConstraints[w.VariableID] = w.Type
		}
	}
	for varID, set := range result.CallerAssertions {
		if current, ok := ctx.Locals[varID]; ok {
			if narrowed, possible := set.Reconcile(current, a.codebase()); possible {
				ctx.Locals[varID] = narrowed
			}
		}
	}
	if a.Artifacts != nil {
		a.Artifacts.RecordCallAssertions(span, result.IfTrueAssertions, result.IfFalseAssertions)
		if a.CurrentFunction != nil && target != nil {
			src := refgraphMember(a.CurrentFunction.ClassName, a.CurrentFunction.Name)
			a.Artifacts.References.AddFunctionReturnReference(src, refgraphMember(target.ClassName, target.Name))
		}
	}
	for _, thrown := range result.ThrownTypes {
		ctx.PossiblyThrownExceptions[thrown] = true
	}
	if result.ReturnType == nil {
		return types.Mixed()
	}
	// a return type spelled self/static/parent resolves against the
	// calling scope
	return types.Expand(result.ReturnType, a.expansionOptions())
}

// callerVarOf maps an argument expression to the caller-side variable id
// assertions and by-ref write-backs should target.
func callerVarOf(e ast.Expression) (string, bool) {
	switch v := e.(type) {
	case *ast.Variable:
		return v.Name, true
	case *ast.PropertyAccess:
		if base, ok := callerVarOf(v.Object); ok {
			return base + "->" + v.Property, true
		}
	}
	return "", false
}

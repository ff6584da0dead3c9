package analyzer

import (
	"strings"

	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/diagnostics"
	"github.com/mago-analyzer/mago/internal/fixer"
)

// paramUse tracks whether a body ever reads a variable's value, for the
// unused-parameter heuristic of spec.md §4.6.
type paramUse struct {
	read bool
}

// CheckUnusedParameters walks a function-like body and reports parameters
// that are never read, proposing a `_`-prefixed rename via internal/fixer.
// By-ref parameters and parameters already named with a leading
// underscore are exempt.
func (a *Analyzer) CheckUnusedParameters(params []ast.Parameter, body *ast.Block) []fixer.Edit {
	if bodyReadsVariadicArgs(body) {
		return nil // reflection over the argument list may observe any parameter
	}
	uses := map[string]*paramUse{}
	for _, p := range params {
		uses["$"+p.Name] = &paramUse{}
	}
	walkBlockForVariableUses(body, uses)

	span := ast.Span{}
	if body != nil {
		span = body.GetSpan()
	}
	var edits []fixer.Edit
	for _, p := range params {
		if p.ByRef || p.Variadic || strings.HasPrefix(p.Name, "_") {
			continue
		}
		// A parameter counts as used if the body reads it anywhere; an
		// assignment to it is not a read. The order of reads and
		// assignments is not tracked, so a read after a reassignment counts.
		u := uses["$"+p.Name]
		if u == nil || !u.read {
			a.report(diagnostics.UnusedParameter, diagnostics.SeverityNotice,
				"parameter $"+p.Name+" is never used", span)
			edits = append(edits, fixer.RenameParameter(p.Name, "_"+p.Name, span))
		}
	}
	return edits
}

// bodyReadsVariadicArgs reports whether the body calls the reflective
// argument-list primitive, which can observe every parameter without
// naming any of them.
func bodyReadsVariadicArgs(block *ast.Block) bool {
	found := false
	var walkStmt func(ast.Statement)
	var walkExpr func(ast.Expression)
	walkExpr = func(e ast.Expression) {
		if found || e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.Call:
			if v.FunctionName == "func_get_args" {
				found = true
				return
			}
			walkExpr(v.Callee)
			for _, arg := range v.Arguments {
				walkExpr(arg.Value)
			}
		case *ast.Binary:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.Unary:
			walkExpr(v.Operand)
		case *ast.Assign:
			walkExpr(v.Target)
			walkExpr(v.Value)
		case *ast.MethodCall:
			walkExpr(v.Target)
			for _, arg := range v.Arguments {
				walkExpr(arg.Value)
			}
		case *ast.Closure:
			// a nested closure has its own argument list
		}
	}
	walkStmt = func(s ast.Statement) {
		if found || s == nil {
			return
		}
		switch v := s.(type) {
		case *ast.ExpressionStatement:
			walkExpr(v.Expr)
		case *ast.Block:
			for _, inner := range v.Statements {
				walkStmt(inner)
			}
		case *ast.If:
			walkExpr(v.Condition)
			if v.Then != nil {
				walkStmt(v.Then)
			}
			if v.Else != nil {
				walkStmt(v.Else)
			}
		case *ast.Switch:
			walkExpr(v.Subject)
			for _, c := range v.Cases {
				walkExpr(c.Expr)
				if c.Body != nil {
					walkStmt(c.Body)
				}
			}
		case *ast.Return:
			walkExpr(v.Value)
		case *ast.Try:
			if v.Body != nil {
				walkStmt(v.Body)
			}
			for _, c := range v.Catches {
				if c.Body != nil {
					walkStmt(c.Body)
				}
			}
			if v.Finally != nil {
				walkStmt(v.Finally)
			}
		case *ast.Loop:
			walkExpr(v.Condition)
			if v.Body != nil {
				walkStmt(v.Body)
			}
		}
	}
	if block == nil {
		return false
	}
	for _, s := range block.Statements {
		walkStmt(s)
	}
	return found
}

func walkBlockForVariableUses(block *ast.Block, uses map[string]*paramUse) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		walkStatementForVariableUses(stmt, uses)
	}
}

func walkStatementForVariableUses(stmt ast.Statement, uses map[string]*paramUse) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		walkExprForVariableUses(s.Expr, uses)
	case *ast.Block:
		walkBlockForVariableUses(s, uses)
	case *ast.If:
		walkExprForVariableUses(s.Condition, uses)
		walkBlockForVariableUses(s.Then, uses)
		walkBlockForVariableUses(s.Else, uses)
	case *ast.Switch:
		walkExprForVariableUses(s.Subject, uses)
		for _, c := range s.Cases {
			if c.Expr != nil {
				walkExprForVariableUses(c.Expr, uses)
			}
			walkBlockForVariableUses(c.Body, uses)
		}
	case *ast.Return:
		if s.Value != nil {
			walkExprForVariableUses(s.Value, uses)
		}
	case *ast.Try:
		walkBlockForVariableUses(s.Body, uses)
		for _, c := range s.Catches {
			walkBlockForVariableUses(c.Body, uses)
		}
		walkBlockForVariableUses(s.Finally, uses)
	case *ast.Loop:
		if s.Condition != nil {
			walkExprForVariableUses(s.Condition, uses)
		}
		walkBlockForVariableUses(s.Body, uses)
	}
}

func walkExprForVariableUses(expr ast.Expression, uses map[string]*paramUse) {
	switch e := expr.(type) {
	case *ast.Variable:
		if u, ok := uses[e.Name]; ok {
			u.read = true
		}
	case *ast.Assign:
		// reassigning a parameter without reading it first isn't a use
		if _, ok := e.Target.(*ast.Variable); !ok {
			walkExprForVariableUses(e.Target, uses)
		}
		walkExprForVariableUses(e.Value, uses)
	case *ast.Binary:
		walkExprForVariableUses(e.Left, uses)
		walkExprForVariableUses(e.Right, uses)
	case *ast.Unary:
		walkExprForVariableUses(e.Operand, uses)
	case *ast.InstanceOf:
		walkExprForVariableUses(e.Subject, uses)
	case *ast.IsSet:
		for _, s := range e.Subjects {
			walkExprForVariableUses(s, uses)
		}
	case *ast.EmptyCall:
		walkExprForVariableUses(e.Subject, uses)
	case *ast.Call:
		if e.Callee != nil {
			walkExprForVariableUses(e.Callee, uses)
		}
		for _, arg := range e.Arguments {
			walkExprForVariableUses(arg.Value, uses)
		}
	case *ast.MethodCall:
		if e.Target != nil {
			walkExprForVariableUses(e.Target, uses)
		}
		for _, arg := range e.Arguments {
			walkExprForVariableUses(arg.Value, uses)
		}
	case *ast.New:
		if e.ClassExpr != nil {
			walkExprForVariableUses(e.ClassExpr, uses)
		}
		for _, arg := range e.Arguments {
			walkExprForVariableUses(arg.Value, uses)
		}
	case *ast.Closure:
		for _, use := range e.ByRefUses {
			if u, ok := uses["$"+use]; ok {
				u.read = true
			}
		}
		walkBlockForVariableUses(e.Body, uses)
	case *ast.ArrayAccess:
		walkExprForVariableUses(e.Array, uses)
		if e.Key != nil {
			walkExprForVariableUses(e.Key, uses)
		}
	case *ast.PropertyAccess:
		walkExprForVariableUses(e.Object, uses)
	}
}

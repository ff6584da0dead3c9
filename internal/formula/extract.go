package formula

import (
	"github.com/mago-analyzer/mago/internal/assertion"
	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/mago-analyzer/mago/internal/types"
)

// GetFormula turns a condition expression into a CNF clause set. Expressions it cannot decompose contribute a single
// wedge clause, the same "give up and assume nothing" fallback spec.md §7
// asks for elsewhere.
func GetFormula(expr ast.Expression) []Clause {
	switch e := expr.(type) {
	case *ast.Binary:
		switch e.Operator {
		case ast.OpLogicalAnd:
			return And(GetFormula(e.Left), GetFormula(e.Right))
		case ast.OpLogicalOr:
			return Or(GetFormula(e.Left), GetFormula(e.Right))
		case ast.OpLogicalXor:
			// a xor b = (a && !b) || (!a && b)
			a := GetFormula(e.Left)
			b := GetFormula(e.Right)
			return Or(And(a, Not(b)), And(Not(a), b))
		case ast.OpIdentical, ast.OpEquals:
			if c, ok := literalEqualityClause(e.Left, e.Right, true); ok {
				return []Clause{c}
			}
			if c, ok := literalEqualityClause(e.Right, e.Left, true); ok {
				return []Clause{c}
			}
		case ast.OpNotIdentical, ast.OpNotEquals:
			if c, ok := literalEqualityClause(e.Left, e.Right, false); ok {
				return []Clause{c}
			}
			if c, ok := literalEqualityClause(e.Right, e.Left, false); ok {
				return []Clause{c}
			}
		}
		return []Clause{NewWedge()}

	case *ast.Unary:
		if e.Operator == "!" {
			return Not(GetFormula(e.Operand))
		}
		return []Clause{NewWedge()}

	case *ast.InstanceOf:
		if varID, ok := variableID(e.Subject); ok {
			return []Clause{NewClause(varID, assertion.Disjunction{{
				Kind: assertion.IsType,
				Type: types.TNamedObject{Name: e.ClassName},
			}})}
		}
		return []Clause{NewWedge()}

	case *ast.IsSet:
		var out []Clause
		for _, subj := range e.Subjects {
			if varID, ok := variableID(subj); ok {
				out = And(out, []Clause{NewClause(varID, assertion.Disjunction{{Kind: assertion.IsNotType, Type: types.TNull{}}})})
			} else {
				out = And(out, []Clause{NewWedge()})
			}
		}
		if out == nil {
			return []Clause{NewWedge()}
		}
		return out

	case *ast.EmptyCall:
		if varID, ok := variableID(e.Subject); ok {
			return []Clause{NewClause(varID, assertion.Disjunction{{Kind: assertion.Empty}})}
		}
		return []Clause{NewWedge()}

	case *ast.Variable:
		return []Clause{NewClause(e.Name, assertion.Disjunction{{Kind: assertion.Truthy}})}

	case *ast.Call:
		if c, ok := typeCheckCallClause(e); ok {
			return []Clause{c}
		}
		return []Clause{NewWedge()}

	default:
		return []Clause{NewWedge()}
	}
	return []Clause{NewWedge()}
}

// typeCheckCallClause decomposes `is_int($x)`-family calls into a direct
// IsType assertion on the argument, the "is_* calls" decomposition of
// spec.md §4.4.
func typeCheckCallClause(e *ast.Call) (Clause, bool) {
	if e.FunctionName == "" || len(e.Arguments) != 1 || e.Arguments[0].Name != "" {
		return Clause{}, false
	}
	varID, ok := variableID(e.Arguments[0].Value)
	if !ok {
		return Clause{}, false
	}
	var asserted types.Atomic
	switch e.FunctionName {
	case "is_int", "is_integer", "is_long":
		asserted = types.TInt{Kind: types.IntUnspecified}
	case "is_string":
		asserted = types.TString{}
	case "is_bool":
		asserted = types.TBool{}
	case "is_float", "is_double":
		asserted = types.TFloat{}
	case "is_null":
		asserted = types.TNull{}
	case "is_array":
		asserted = types.TKeyedArray{KeyType: types.ArrayKeyType(), ValueType: types.Mixed()}
	case "is_object":
		asserted = types.TObjectAny{}
	case "is_callable":
		asserted = types.TCallable{}
	case "is_numeric":
		asserted = types.TNumeric{}
	case "is_resource":
		asserted = types.TResource{}
	default:
		return Clause{}, false
	}
	return NewClause(varID, assertion.Disjunction{{Kind: assertion.IsType, Type: asserted}}), true
}

// literalEqualityClause handles `$x === null`/`$x == 5`/etc, producing an
// IsIdentical (or, when negative, IsNotIdentical) assertion on the variable
// side; loose and strict comparisons produce the same assertion.
func literalEqualityClause(varSide, litSide ast.Expression, positive bool) (Clause, bool) {
	varID, ok := variableID(varSide)
	if !ok {
		return Clause{}, false
	}
	lit, ok := litSide.(*ast.Literal)
	if !ok {
		return Clause{}, false
	}
	atomic := literalAtomic(lit)
	if atomic == nil {
		return Clause{}, false
	}
	kind := assertion.IsIdentical
	if !positive {
		kind = assertion.IsNotIdentical
	}
	return NewClause(varID, assertion.Disjunction{{Kind: kind, Type: atomic}}), true
}

func literalAtomic(lit *ast.Literal) types.Atomic {
	switch v := lit.Value.(type) {
	case nil:
		return types.TNull{}
	case bool:
		return types.TBool{HasValue: true, Value: v}
	case int64:
		return types.TInt{Kind: types.IntLiteral, Literal: v}
	case int:
		return types.TInt{Kind: types.IntLiteral, Literal: int64(v)}
	case float64:
		return types.TFloat{HasValue: true, Value: v}
	case string:
		return types.TString{HasLiteral: true, Literal: v}
	default:
		return nil
	}
}

// variableID extracts the variable-id a clause should key on: spec.md
// §4.4's extractor keys clauses on `$x`, `$this->prop`, and similar stable
// paths, matching the identifiers internal/context's locals map uses.
func variableID(expr ast.Expression) (string, bool) {
	switch e := expr.(type) {
	case *ast.Variable:
		return e.Name, true
	case *ast.PropertyAccess:
		if base, ok := variableID(e.Object); ok {
			return base + "->" + e.Property, true
		}
	}
	return "", false
}

package types

// TemplateResult holds the upper/lower bounds inferred for generic
// parameters during an invocation.
// Keyed by "DefiningEntity::Name" so the same parameter name on two
// distinct function-likes never collides.
type TemplateResult struct {
	LowerBounds map[string]*TUnion
	UpperBounds map[string]*TUnion
}

func NewTemplateResult() *TemplateResult {
	return &TemplateResult{LowerBounds: map[string]*TUnion{}, UpperBounds: map[string]*TUnion{}}
}

func templateKey(name, definingEntity string) string { return definingEntity + "::" + name }

// AddLowerBound widens the recorded lower bound for (name, definingEntity)
// by combining it with addition, matching how §4.7's inference sketch
// accumulates "lower_bound[T] ⊇ arg_type" across multiple arguments.
func (tr *TemplateResult) AddLowerBound(name, definingEntity string, t *TUnion, cb Codebase) {
	k := templateKey(name, definingEntity)
	if existing, ok := tr.LowerBounds[k]; ok {
		tr.LowerBounds[k] = CombineUnions(cb, false, existing, t)
		return
	}
	tr.LowerBounds[k] = t.Clone()
}

func (tr *TemplateResult) LowerBound(name, definingEntity string) (*TUnion, bool) {
	t, ok := tr.LowerBounds[templateKey(name, definingEntity)]
	return t, ok
}

// Replace substitutes every TGenericParameter atomic reachable inside t
// with its resolved lower bound from tr, recursively. Parameters with no
// inferred bound are left in place, which keeps substitution
// compositional over disjoint domains. visited guards the same kind
// of self-referential generic the teacher's ApplyWithCycleCheck guards
// against (internal/typesystem/types.go).
func Replace(t *TUnion, tr *TemplateResult, cb Codebase) *TUnion {
	return replaceWithVisited(t, tr, cb, map[string]bool{})
}

func replaceWithVisited(t *TUnion, tr *TemplateResult, cb Codebase, visited map[string]bool) *TUnion {
	if t == nil || tr == nil {
		return t
	}
	var out []Atomic
	for _, a := range t.Types {
		out = append(out, replaceAtomic(a, tr, cb, visited)...)
	}
	result := New(Combine(out, cb, false)...)
	return result
}

func replaceAtomic(a Atomic, tr *TemplateResult, cb Codebase, visited map[string]bool) []Atomic {
	switch v := a.(type) {
	case TGenericParameter:
		key := templateKey(v.Name, v.DefiningEntity)
		if visited[key] {
			return []Atomic{a}
		}
		if bound, ok := tr.LowerBound(v.Name, v.DefiningEntity); ok {
			newVisited := cloneVisited(visited)
			newVisited[key] = true
			return replaceWithVisited(bound, tr, cb, newVisited).Types
		}
		return []Atomic{a}
	case TNamedObject:
		if len(v.TypeParams) > 0 {
			params := make([]*TUnion, len(v.TypeParams))
			for i, p := range v.TypeParams {
				params[i] = replaceWithVisited(p, tr, cb, visited)
			}
			v.TypeParams = params
		}
		if len(v.RemappedParameters) > 0 {
			remapped := make(map[string]*TUnion, len(v.RemappedParameters))
			for name, p := range v.RemappedParameters {
				remapped[name] = replaceWithVisited(p, tr, cb, visited)
			}
			v.RemappedParameters = remapped
		}
		return []Atomic{v}
	case TKeyedArray:
		if v.ValueType != nil {
			v.ValueType = replaceWithVisited(v.ValueType, tr, cb, visited)
		}
		if v.KeyType != nil {
			v.KeyType = replaceWithVisited(v.KeyType, tr, cb, visited)
		}
		items := make(map[ArrayKey]KeyedArrayItem, len(v.KnownItems))
		for k, item := range v.KnownItems {
			items[k] = KeyedArrayItem{Optional: item.Optional, Value: replaceWithVisited(item.Value, tr, cb, visited)}
		}
		v.KnownItems = items
		return []Atomic{v}
	case TListArray:
		if v.ElementType != nil {
			v.ElementType = replaceWithVisited(v.ElementType, tr, cb, visited)
		}
		return []Atomic{v}
	case TIterable:
		v.KeyType = replaceWithVisited(v.KeyType, tr, cb, visited)
		v.ValueType = replaceWithVisited(v.ValueType, tr, cb, visited)
		return []Atomic{v}
	case TCallable:
		if v.Signature != nil {
			sig := *v.Signature
			params := make([]CallableParameter, len(sig.Parameters))
			for i, p := range sig.Parameters {
				p.Type = replaceWithVisited(p.Type, tr, cb, visited)
				params[i] = p
			}
			sig.Parameters = params
			sig.ReturnType = replaceWithVisited(sig.ReturnType, tr, cb, visited)
			v.Signature = &sig
		}
		return []Atomic{v}
	default:
		return []Atomic{a}
	}
}

func cloneVisited(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Infer descends param/arg structure recursively, recording lower bounds
// for generic parameters defined on definingEntity. Every variance,
// contravariant callable-parameter positions included, widens the lower
// bound the same way; no upper bounds are recorded here.
type Variance int

const (
	Covariant Variance = iota
	Contravariant
	Invariant
)

func Infer(tr *TemplateResult, param, arg *TUnion, definingEntity string, variance Variance, cb Codebase) {
	if param == nil || arg == nil {
		return
	}
	for _, pa := range param.Types {
		inferAtomic(tr, pa, arg, definingEntity, variance, cb)
	}
}

func inferAtomic(tr *TemplateResult, pa Atomic, arg *TUnion, definingEntity string, variance Variance, cb Codebase) {
	switch p := pa.(type) {
	case TGenericParameter:
		if p.DefiningEntity != definingEntity {
			return
		}
		switch variance {
		case Contravariant:
			tr.AddLowerBound(p.Name, p.DefiningEntity, arg, cb) // approximate: still widen
		default:
			tr.AddLowerBound(p.Name, p.DefiningEntity, arg, cb)
		}
	case TNamedObject:
		if !arg.IsSingle() {
			return
		}
		argNamed, ok := arg.Types[0].(TNamedObject)
		if !ok || len(argNamed.TypeParams) != len(p.TypeParams) {
			return
		}
		for i := range p.TypeParams {
			Infer(tr, p.TypeParams[i], argNamed.TypeParams[i], definingEntity, variance, cb)
		}
	case TIterable:
		if !arg.IsSingle() {
			return
		}
		switch argIter := arg.Types[0].(type) {
		case TIterable:
			Infer(tr, p.KeyType, argIter.KeyType, definingEntity, variance, cb)
			Infer(tr, p.ValueType, argIter.ValueType, definingEntity, variance, cb)
		case TListArray:
			Infer(tr, p.ValueType, argIter.ElementType, definingEntity, variance, cb)
		case TKeyedArray:
			Infer(tr, p.ValueType, argIter.ValueType, definingEntity, variance, cb)
		}
	case TListArray:
		if !arg.IsSingle() {
			return
		}
		if argList, ok := arg.Types[0].(TListArray); ok {
			Infer(tr, p.ElementType, argList.ElementType, definingEntity, variance, cb)
		}
	case TCallable:
		if !arg.IsSingle() || p.Signature == nil {
			return
		}
		argCallable, ok := arg.Types[0].(TCallable)
		if !ok || argCallable.Signature == nil {
			return
		}
		// contravariant on parameters, covariant on return.
		for i := 0; i < len(p.Signature.Parameters) && i < len(argCallable.Signature.Parameters); i++ {
			Infer(tr, p.Signature.Parameters[i].Type, argCallable.Signature.Parameters[i].Type, definingEntity, Contravariant, cb)
		}
		Infer(tr, p.Signature.ReturnType, argCallable.Signature.ReturnType, definingEntity, Covariant, cb)
	}
}

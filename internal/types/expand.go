package types

// TypeExpansionOptions carries the context needed to resolve self/static/
// parent references inside a type.
type TypeExpansionOptions struct {
	SelfClass        string
	StaticClassType  *TUnion
	ParentClass      string
	FunctionIsFinal  bool
}

// Expand resolves self/static/parent atomics inside t against opts. This
// mirrors the teacher's ApplyWithCycleCheck walk in
// internal/typesystem/types.go, but substitutes by well-known names
// ("self", "static", "parent") instead of an arbitrary substitution map.
func Expand(t *TUnion, opts TypeExpansionOptions) *TUnion {
	if t == nil {
		return nil
	}
	out := make([]Atomic, len(t.Types))
	for i, a := range t.Types {
		out[i] = expandAtomic(a, opts)
	}
	result := New(out...)
	result.HadTemplate = t.HadTemplate
	result.PossiblyUndefined = t.PossiblyUndefined
	return result
}

func expandAtomic(a Atomic, opts TypeExpansionOptions) Atomic {
	switch v := a.(type) {
	case TNamedObject:
		switch v.Name {
		case "self":
			if opts.SelfClass != "" {
				v.Name = opts.SelfClass
			}
		case "static":
			if opts.StaticClassType != nil && opts.StaticClassType.IsSingle() {
				if named, ok := opts.StaticClassType.Types[0].(TNamedObject); ok {
					return named
				}
			}
		case "parent":
			if opts.ParentClass != "" {
				v.Name = opts.ParentClass
			}
		}
		if len(v.TypeParams) > 0 {
			params := make([]*TUnion, len(v.TypeParams))
			for i, p := range v.TypeParams {
				params[i] = Expand(p, opts)
			}
			v.TypeParams = params
		}
		if len(v.RemappedParameters) > 0 {
			remapped := make(map[string]*TUnion, len(v.RemappedParameters))
			for name, p := range v.RemappedParameters {
				remapped[name] = Expand(p, opts)
			}
			v.RemappedParameters = remapped
		}
		return v
	case TKeyedArray:
		if v.ValueType != nil {
			v.ValueType = Expand(v.ValueType, opts)
		}
		return v
	case TListArray:
		if v.ElementType != nil {
			v.ElementType = Expand(v.ElementType, opts)
		}
		return v
	case TIterable:
		v.KeyType = Expand(v.KeyType, opts)
		v.ValueType = Expand(v.ValueType, opts)
		return v
	default:
		return a
	}
}

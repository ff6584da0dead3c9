package codebase

import (
	"github.com/mago-analyzer/mago/internal/refgraph"
	"github.com/mago-analyzer/mago/internal/types"
)

// Populator runs the three phases of spec.md §4.3 over a Metadata: class-
// like inheritance closure, type-position finalization, and descendants
// maps. It is idempotent and records outgoing references into a
// refgraph.References the way the teacher's populator phase would record
// symbol references while walking declared types.
type Populator struct {
	Metadata  *Metadata
	RefGraph  *refgraph.References
	populating map[string]bool // cycle guard for Phase A
}

func NewPopulator(m *Metadata, refs *refgraph.References) *Populator {
	return &Populator{Metadata: m, RefGraph: refs, populating: map[string]bool{}}
}

// PopulateAll runs all three phases over every registered class-like.
func (p *Populator) PopulateAll() {
	for name := range p.Metadata.ClassLikes {
		p.populateClassLike(name)
	}
	for _, c := range p.Metadata.ClassLikes {
		p.finalizeClassLikeTypes(c)
	}
	for _, f := range p.Metadata.FunctionLikes {
		p.finalizeFunctionLikeTypes(f)
	}
	p.buildDescendantsMaps()
}

// populateClassLike is Phase A, recursing into
// parents/traits/interfaces first.
func (p *Populator) populateClassLike(name string) {
	c, ok := p.Metadata.ClassLike(name)
	if !ok || c.Populated || p.populating[lower(name)] {
		return
	}
	p.populating[lower(name)] = true
	defer delete(p.populating, lower(name))

	var parents []*ClassLikeMetadata
	for _, parentName := range append(append([]string{}, c.DirectParentClasses...), c.DirectParentInterfaces...) {
		p.populateClassLike(parentName)
		if parent, ok := p.Metadata.ClassLike(parentName); ok {
			parents = append(parents, parent)
		}
	}
	for _, traitName := range c.UsedTraits {
		p.populateClassLike(traitName)
		if trait, ok := p.Metadata.ClassLike(traitName); ok {
			parents = append(parents, trait)
		}
	}

	for _, parent := range parents {
		p.inheritFrom(c, parent)
	}

	if c.Flags.Readonly {
		for name, prop := range c.OwnProperties {
			if !prop.Static {
				prop.Readonly = true
				c.OwnProperties[name] = prop
			}
		}
	}

	c.Populated = true
}

// inheritFrom implements steps 2-5 of spec.md §4.3 Phase A.
func (p *Populator) inheritFrom(c, parent *ClassLikeMetadata) {
	// Step 2: constants and ancestor lists.
	for name, t := range parent.OwnConstants {
		if _, shadowed := c.OwnConstants[name]; !shadowed {
			c.OwnConstants[name] = t
		}
	}
	c.AllParentClasses = appendUnique(c.AllParentClasses, parent.Name)
	c.AllParentClasses = appendUnique(c.AllParentClasses, parent.AllParentClasses...)
	c.AllParentInterfaces = appendUnique(c.AllParentInterfaces, parent.AllParentInterfaces...)
	if parent.Kind == KindInterface {
		c.AllParentInterfaces = appendUnique(c.AllParentInterfaces, parent.Name)
	}
	c.UsedTraits = appendUnique(c.UsedTraits, parent.UsedTraits...)

	// Step 3: methods.
	for name, declaringClass := range parent.AppearingMethodIDs {
		if _, already := c.AppearingMethodIDs[name]; !already {
			c.AppearingMethodIDs[name] = declaringClass
		} else {
			c.PotentialDeclaringIDs[name] = appendUnique(c.PotentialDeclaringIDs[name], declaringClass)
		}
		if c.Kind == KindTrait {
			c.AppearingMethodIDs[name] = c.Name
		}
	}
	for name := range parent.InheritableMethodIDs {
		if name == "__construct" && !parent.Flags.ConsistentConstructor {
			continue
		}
		c.OverriddenMethodIDs[name] = appendUnique(c.OverriddenMethodIDs[name], parent.Name)
		if p.RefGraph != nil {
			p.RefGraph.AddOverrideReference(Member(c.Name, name), Member(parent.Name, name))
		}
		if _, ownsIt := c.OwnMethods[name]; !ownsIt {
			c.InheritableMethodIDs[name] = parent.Name
			c.DeclaringMethodIDs[name] = parent.Name
		}
	}

	// Step 4: properties. The child inherits every parent property it does
	// not declare itself; property finality is not modelled.
	for name, prop := range parent.OwnProperties {
		if _, ownsIt := c.OwnProperties[name]; ownsIt {
			continue
		}
		c.AppearingPropertyIDs[name] = parent.Name
		c.DeclaringPropertyIDs[name] = parent.Name
	}

	// Step 5: template extension, fixed-point substitution through the
	// parent's own template_extended_parameters.
	args, hasArgs := c.ExtendsArguments[parent.Name]
	offsets, hasOffsets := c.TemplateExtendedOffsets[parent.Name]
	if (hasArgs || hasOffsets) && len(parent.TemplateTypes) > 0 {
		resolved := map[string]*types.TUnion{}
		for i, tp := range parent.TemplateTypes {
			switch {
			case i < len(args) && args[i] != nil:
				// concrete argument from `extends Parent<Type>`
				resolved[tp.Name] = args[i]
			case i < len(offsets) && offsets[i] < len(c.TemplateTypes):
				// pass-through of one of the child's own templates
				child := c.TemplateTypes[offsets[i]]
				resolved[tp.Name] = types.New(types.TGenericParameter{
					Name:           child.Name,
					DefiningEntity: c.Name,
					Constraint:     child.Constraint,
				})
			case tp.Constraint != nil:
				resolved[tp.Name] = tp.Constraint
			default:
				resolved[tp.Name] = types.Mixed()
			}
		}
		c.TemplateExtendedParameters[parent.Name] = resolved
	}
	for grandparent, bindings := range parent.TemplateExtendedParameters {
		substituted := map[string]*types.TUnion{}
		for paramName, boundType := range bindings {
			substituted[paramName] = substituteTemplateRefs(boundType, c.TemplateExtendedParameters[parent.Name])
		}
		if existing, ok := c.TemplateExtendedParameters[grandparent]; ok {
			for k, v := range substituted {
				if _, already := existing[k]; !already {
					existing[k] = v
				}
			}
		} else {
			c.TemplateExtendedParameters[grandparent] = substituted
		}
	}
}

// substituteTemplateRefs replaces TGenericParameter atomics defined on the
// (now-resolved) parent with their resolved bindings, the "a generic
// referencing a parent's parameter is replaced by the parameter's resolved
// value" fixed point named in spec.md §4.3 step 5.
func substituteTemplateRefs(t *types.TUnion, bindings map[string]*types.TUnion) *types.TUnion {
	if t == nil || len(bindings) == 0 {
		return t
	}
	var out []types.Atomic
	for _, a := range t.Types {
		if gp, ok := a.(types.TGenericParameter); ok {
			if bound, ok := bindings[gp.Name]; ok {
				out = append(out, bound.Types...)
				continue
			}
		}
		out = append(out, a)
	}
	return types.New(types.Combine(out, nil, false)...)
}

func appendUnique(list []string, items ...string) []string {
	seen := map[string]bool{}
	for _, l := range list {
		seen[l] = true
	}
	for _, it := range items {
		if it != "" && !seen[it] {
			seen[it] = true
			list = append(list, it)
		}
	}
	return list
}

func Member(symbol, name string) refgraph.Member { return refgraph.Member{Symbol: symbol, Name: name} }

// finalizeClassLikeTypes is Phase B for a class-like: register outgoing references.
func (p *Populator) finalizeClassLikeTypes(c *ClassLikeMetadata) {
	for name, prop := range c.OwnProperties {
		p.registerOutgoingRefs(c.Name, name, prop.Type)
	}
	for name, t := range c.OwnConstants {
		p.registerOutgoingRefs(c.Name, name, t)
	}
}

func (p *Populator) finalizeFunctionLikeTypes(f *FunctionLikeMetadata) {
	for _, param := range f.Parameters {
		p.registerOutgoingRefs(f.ClassName, f.Name, param.Type)
	}
	p.registerOutgoingRefs(f.ClassName, f.Name, f.ReturnType)
	f.Populated = true
}

func (p *Populator) registerOutgoingRefs(ownerSymbol, ownerMember string, t *types.TUnion) {
	if t == nil || p.RefGraph == nil {
		return
	}
	src := refgraph.Member{Symbol: ownerSymbol, Name: ownerMember}
	for _, a := range t.Types {
		if named, ok := a.(types.TNamedObject); ok {
			p.RefGraph.AddSymbolReferenceInSignature(src, refgraph.Member{Symbol: named.Name})
		}
	}
}

// buildDescendantsMaps is Phase C: invert the
// populated AllParentClasses/AllParentInterfaces lists.
func (p *Populator) buildDescendantsMaps() {
	for name, c := range p.Metadata.ClassLikes {
		for _, parent := range c.AllParentClasses {
			p.addDescendant(lower(parent), name)
		}
		for _, parent := range c.AllParentInterfaces {
			p.addDescendant(lower(parent), name)
		}
	}
	for parent, children := range p.Metadata.AllClassLikeDescendants {
		direct := map[string]bool{}
		for child := range children {
			if c, ok := p.Metadata.ClassLike(child); ok {
				for _, dp := range append(append([]string{}, c.DirectParentClasses...), c.DirectParentInterfaces...) {
					if lower(dp) == parent {
						direct[child] = true
					}
				}
			}
		}
		p.Metadata.DirectClassLikeDescendants[parent] = direct
	}
}

func (p *Populator) addDescendant(parent, child string) {
	if p.Metadata.AllClassLikeDescendants[parent] == nil {
		p.Metadata.AllClassLikeDescendants[parent] = map[string]bool{}
	}
	p.Metadata.AllClassLikeDescendants[parent][child] = true
}

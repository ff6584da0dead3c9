// Package refgraph implements the symbol reference graph of spec.md §4.2:
// directed edges between symbols (and their members) recorded in signature
// or body context, used by a host to decide what to re-analyze after a
// source change.
package refgraph

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Member identifies a symbol or, with a non-empty Name, one of its
// members (method/property/constant). An empty Member denotes the symbol
// itself.
type Member struct {
	Symbol string
	Name   string // "" for the symbol itself
}

func (m Member) String() string {
	if m.Name == "" {
		return m.Symbol
	}
	return m.Symbol + "::" + m.Name
}

// References is the four-map edge store of spec.md §4.2.
type References struct {
	bodyRefs          map[Member]map[Member]bool
	signatureRefs     map[Member]map[Member]bool
	overriddenRefs    map[Member]map[Member]bool
	functionReturnRefs map[Member]map[Member]bool

	// inverse maps, kept in lockstep for O(1) "who references me" queries.
	bodyRefsInverse      map[Member]map[Member]bool
	signatureRefsInverse map[Member]map[Member]bool
}

// New builds an empty reference graph.
func New() *References {
	return &References{
		bodyRefs:             map[Member]map[Member]bool{},
		signatureRefs:        map[Member]map[Member]bool{},
		overriddenRefs:       map[Member]map[Member]bool{},
		functionReturnRefs:   map[Member]map[Member]bool{},
		bodyRefsInverse:      map[Member]map[Member]bool{},
		signatureRefsInverse: map[Member]map[Member]bool{},
	}
}

// AddSymbolReferenceToSymbol records a body-context edge. Self-edges are a
// no-op.
func (r *References) AddSymbolReferenceToSymbol(src, dst Member) {
	if src == dst {
		return
	}
	addEdge(r.bodyRefs, src, dst)
	addEdge(r.bodyRefsInverse, dst, src)
}

// AddSymbolReferenceInSignature records a signature-context edge (e.g. a
// parameter or return type naming another class-like).
func (r *References) AddSymbolReferenceInSignature(src, dst Member) {
	if src == dst {
		return
	}
	addEdge(r.signatureRefs, src, dst)
	addEdge(r.signatureRefsInverse, dst, src)
}

// AddOverrideReference records a `parent::method()` call edge.
func (r *References) AddOverrideReference(src, dst Member) {
	addEdge(r.overriddenRefs, src, dst)
}

// AddFunctionReturnReference records that src's return value flows from a
// call to dst, used for dead-code-on-return-value analyses.
func (r *References) AddFunctionReturnReference(src, dst Member) {
	addEdge(r.functionReturnRefs, src, dst)
}

func addEdge(m map[Member]map[Member]bool, src, dst Member) {
	if m[src] == nil {
		m[src] = map[Member]bool{}
	}
	m[src][dst] = true
}

// Finalize suppresses body refs that duplicate a signature ref to the same
// destination. Call once after a file's edges are all added.
func (r *References) Finalize() {
	for src, dsts := range r.signatureRefs {
		for dst := range dsts {
			if bodyDsts, ok := r.bodyRefs[src]; ok {
				if bodyDsts[dst] {
					delete(bodyDsts, dst)
					delete(r.bodyRefsInverse[dst], src)
				}
			}
		}
	}
}

// ReferencedBy returns everything that references member, across both body
// and signature edges.
func (r *References) ReferencedBy(member Member) []Member {
	seen := map[Member]bool{}
	var out []Member
	for src := range r.bodyRefsInverse[member] {
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	for src := range r.signatureRefsInverse[member] {
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out
}

// EdgeCount returns the number of recorded body and signature edges (other
// edge maps are not counted), used for host-side telemetry.
func (r *References) EdgeCount() int {
	n := 0
	for _, dsts := range r.bodyRefs {
		n += len(dsts)
	}
	for _, dsts := range r.signatureRefs {
		n += len(dsts)
	}
	return n
}

// PropagationResult is the outcome of PropagateInvalidation: either a
// bounded set of transitively invalidated signatures, or GaveUp=true when
// the step budget was exhausted.
type PropagationResult struct {
	Invalidated map[Member]bool
	GaveUp      bool
	Note        string
}

// PropagateInvalidation walks signature-reference edges transitively from
// changed, bounded by maxSteps (spec.md §4.2, §5: "bounded by a step
// budget (return None if exceeded)"). On overrun it returns a
// human-readable note built with go-humanize, the same "make a number
// readable in a message" role go-humanize plays in hashicorp/nomad's CLI
// output.
func (r *References) PropagateInvalidation(changed []Member, maxSteps int) PropagationResult {
	invalidated := map[Member]bool{}
	queue := append([]Member{}, changed...)
	for _, c := range changed {
		invalidated[c] = true
	}
	steps := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for src := range r.signatureRefsInverse[cur] {
			steps++
			if steps > maxSteps {
				return PropagationResult{
					GaveUp: true,
					Note: fmt.Sprintf(
						"gave up after %s propagation steps (budget %s)",
						humanize.Comma(int64(steps)), humanize.Comma(int64(maxSteps)),
					),
				}
			}
			if !invalidated[src] {
				invalidated[src] = true
				queue = append(queue, src)
			}
		}
	}
	return PropagationResult{Invalidated: invalidated}
}

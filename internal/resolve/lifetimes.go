package resolve

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/types"
)

// buildLifetimeRelation walks every callable body in ns and records an
// outlives edge from each OpNamedBlock to every OpNamedBlock lexically
// nested within it (spec.md §4.2.2: an enclosing named block always
// outlives the scopes nested inside it), giving internal/types'
// reference subtyping something better than exact-name equality to
// work with.
func buildLifetimeRelation(h *heap.Heap, ns *Namespace) *types.LifetimeRelation {
	rel := types.NewLifetimeRelation()
	for _, unitIdx := range ns.Units() {
		for _, decl := range ns.LocalDecls(unitIdx) {
			if decl.Kind != KindCallable {
				continue
			}
			it := h.Get(decl.Index)
			if len(it.Operands) < 8 {
				continue
			}
			declareNesting(h, it.Operands[7], nil, rel, map[heap.Index]bool{})
		}
	}
	return rel
}

// declareNesting records outer ⊒ inner for every OpNamedBlock reachable
// from idx, where outer ranges over every named block already open on
// the path from the callable's body down to idx.
func declareNesting(h *heap.Heap, idx heap.Index, enclosing []string, rel *types.LifetimeRelation, seen map[heap.Index]bool) {
	if seen[idx] {
		return
	}
	seen[idx] = true

	it := h.Get(idx)
	next := enclosing
	if it.Op == opcode.OpNamedBlock {
		name := string(it.Data)
		for _, outer := range enclosing {
			rel.Declare(outer, name)
		}
		next = append(append([]string(nil), enclosing...), name)
	}
	for _, op := range it.Operands {
		declareNesting(h, op, next, rel, seen)
	}
}

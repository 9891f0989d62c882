package resolve

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
)

// Result is what a Pass produces: for every Link operand it found and
// resolved, the single target declaration index it now denotes, plus
// whatever diagnostics the resolution attempts raised. Later stages
// (internal/flow) look a use's target up here rather than re-running
// ResolveLink themselves.
type Result struct {
	Targets     map[heap.Index]heap.Index
	Namespace   *Namespace
	Diagnostics []*diagnostics.Diagnostic
}

// Target returns the resolved declaration a Link item (by its own heap
// index) now points to, or ok=false if it was never resolved (either
// genuinely unresolved, or not one of the link-carrying operand
// positions this pass understands).
func (r *Result) Target(linkIdx heap.Index) (heap.Index, bool) {
	idx, ok := r.Targets[linkIdx]
	return idx, ok
}

// linkSite names one occurrence of a Link operand this pass resolves,
// together with the DeclKind its enclosing construct requires. spec.md
// §3.2/§3.4 give Link operand slots to exactly three opcodes — this is
// an interpretive decision (not spelled out by spec.md, which never
// says what Kind a given Link occurrence must resolve to): a Nominal
// type's link names a type alias, an Invoke's link and a Binding's link
// both name a callable (the binding caches the concrete instantiated
// type once the link is resolved and type arguments applied).
type linkSite struct {
	parent   heap.Index
	linkIdx  heap.Index
	kind     DeclKind
}

// Pass runs name resolution over an entire Module heap, implementing
// spec.md §4.3 for every Link operand reachable from the root.
func Pass(h *heap.Heap) *Result {
	res := &Result{Targets: map[heap.Index]heap.Index{}}

	moduleIdx := h.RootIndex()
	ns := BuildNamespace(h, moduleIdx)
	res.Namespace = ns

	owner := ownerUnits(h, ns)
	sites := linkSites(h, moduleIdx)

	for _, site := range sites {
		link := h.Get(site.linkIdx)
		name := names.ParseQualifiedName(string(link.Data))
		unit := owner[site.linkIdx]

		targets, diag := ns.ResolveLink(unit, name, site.kind, site.linkIdx, names.Range{})
		if diag != nil {
			res.Diagnostics = append(res.Diagnostics, diag)
			continue
		}
		if len(targets) == 1 {
			res.Targets[site.linkIdx] = targets[0]
		}
	}

	return res
}

// ownerUnits maps every item index to the unit it was first discovered
// under while walking the module's declaration trees — structural
// sharing (spec.md §3.1) means an item can in principle be reachable
// from more than one unit, but Link items (carrying a use-site-specific
// unresolved name) are never legitimately shared across units, so
// "first owner found" is exact for them in practice.
func ownerUnits(h *heap.Heap, ns *Namespace) map[heap.Index]heap.Index {
	owner := map[heap.Index]heap.Index{}
	var walk func(idx, unit heap.Index)
	walk = func(idx, unit heap.Index) {
		if _, seen := owner[idx]; seen {
			return
		}
		owner[idx] = unit
		it := h.Get(idx)
		for _, op := range it.Operands {
			walk(op, unit)
		}
	}
	for _, unitIdx := range ns.units {
		unit := h.Get(unitIdx)
		for _, declIdx := range Tuple(h, unit.Operands[1]) {
			walk(declIdx, unitIdx)
		}
	}
	return owner
}

// linkSites walks the whole module and records every Link-carrying
// operand occurrence, in encounter order.
func linkSites(h *heap.Heap, moduleIdx heap.Index) []linkSite {
	var sites []linkSite
	seen := map[heap.Index]bool{}
	var walk func(idx heap.Index)
	walk = func(idx heap.Index) {
		if seen[idx] {
			return
		}
		seen[idx] = true
		it := h.Get(idx)
		switch it.Op {
		case opcode.OpTypeNominal:
			sites = append(sites, linkSite{parent: idx, linkIdx: it.Operands[0], kind: KindType})
		case opcode.OpBinding:
			sites = append(sites, linkSite{parent: idx, linkIdx: it.Operands[0], kind: KindCallable})
		case opcode.OpInvoke:
			sites = append(sites, linkSite{parent: idx, linkIdx: it.Operands[1], kind: KindCallable})
		}
		for _, op := range it.Operands {
			walk(op)
		}
	}
	walk(moduleIdx)
	return sites
}


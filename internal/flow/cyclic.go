package flow

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
)

// checkCyclicStaticInitialisers implements spec.md §4.4.4: a static
// variable's initializer is scanned transitively for references to
// other static variables; if the closure reaches the variable itself,
// every variable on that cycle is reported.
func checkCyclicStaticInitialisers(h *heap.Heap, resolved *resolve.Result, col *diagnostics.Collector) {
	if resolved == nil || resolved.Namespace == nil {
		return
	}

	var statics []heap.Index
	refs := map[heap.Index][]heap.Index{}
	for _, unitIdx := range resolved.Namespace.Units() {
		for _, decl := range resolved.Namespace.LocalDecls(unitIdx) {
			if decl.Kind != resolve.KindStaticVar {
				continue
			}
			statics = append(statics, decl.Index)
			it := h.Get(decl.Index)
			if len(it.Operands) < 4 {
				continue
			}
			refs[decl.Index] = staticVarsIn(h, it.Operands[3])
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := map[heap.Index]int{}
	onCycle := map[heap.Index]bool{}

	var stack []heap.Index
	var dfs func(v heap.Index)
	dfs = func(v heap.Index) {
		color[v] = gray
		stack = append(stack, v)
		for _, w := range refs[v] {
			switch color[w] {
			case white:
				dfs(w)
			case gray:
				for i := len(stack) - 1; i >= 0; i-- {
					onCycle[stack[i]] = true
					if stack[i] == w {
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[v] = black
	}
	for _, v := range statics {
		if color[v] == white {
			dfs(v)
		}
	}

	for _, v := range statics {
		if onCycle[v] {
			name, _ := resolve.DeclName(h, v)
			col.Add(diagnostics.New(diagnostics.ErrCyclicStaticInitialiser, v, names.Range{},
				"static variable %s participates in a cyclic initialiser", name))
		}
	}
}

// staticVarsIn collects every static variable directly referenced
// within an expression subtree.
func staticVarsIn(h *heap.Heap, idx heap.Index) []heap.Index {
	var out []heap.Index
	seen := map[heap.Index]bool{}
	var walk func(heap.Index)
	walk = func(i heap.Index) {
		if seen[i] {
			return
		}
		seen[i] = true
		it := h.Get(i)
		if it.Op == opcode.OpStaticVarAccess {
			out = append(out, it.Operands[1])
			return
		}
		for _, op := range it.Operands {
			child := h.Get(op)
			if isExprOp(child.Op) {
				walk(op)
			}
		}
	}
	walk(idx)
	return out
}

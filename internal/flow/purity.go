package flow

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
)

// checkFunctionalPurity implements spec.md §4.4.5: a Function body
// (as opposed to a Method's) may not allocate, invoke a method, or
// dereference a reference, and the restriction applies transitively —
// a Function that only calls another, impure Function is itself
// impure.
func checkFunctionalPurity(h *heap.Heap, resolved *resolve.Result, col *diagnostics.Collector) {
	if resolved == nil || resolved.Namespace == nil {
		return
	}

	var funcs []heap.Index
	calls := map[heap.Index][]heap.Index{}
	reason := map[heap.Index]diagnostics.ErrorCode{}

	for _, unitIdx := range resolved.Namespace.Units() {
		for _, decl := range resolved.Namespace.LocalDecls(unitIdx) {
			if decl.Kind != resolve.KindCallable {
				continue
			}
			it := h.Get(decl.Index)
			if it.Op != opcode.OpFunction || len(it.Operands) < 8 {
				continue
			}
			funcs = append(funcs, decl.Index)
			scanPurity(h, resolved, decl.Index, it.Operands[7], reason, calls)
		}
	}

	impure := map[heap.Index]diagnostics.ErrorCode{}
	for f, r := range reason {
		impure[f] = r
	}
	for changed := true; changed; {
		changed = false
		for _, f := range funcs {
			if _, already := impure[f]; already {
				continue
			}
			for _, callee := range calls[f] {
				if r, ok := impure[callee]; ok {
					impure[f] = r
					changed = true
					break
				}
			}
		}
	}

	for _, f := range funcs {
		if code, ok := impure[f]; ok {
			name, _ := resolve.DeclName(h, f)
			col.Add(diagnostics.New(code, f, names.Range{}, "function %s is not pure", name))
		}
	}
}

// scanPurity walks a Function body collecting its own direct purity
// violation (first one found, recorded in reason) and the other
// Functions it calls directly (recorded in calls), so the fixpoint
// loop in checkFunctionalPurity can propagate impurity through calls.
func scanPurity(
	h *heap.Heap,
	resolved *resolve.Result,
	owner heap.Index,
	bodyIdx heap.Index,
	reason map[heap.Index]diagnostics.ErrorCode,
	calls map[heap.Index][]heap.Index,
) {
	var walk func(heap.Index)
	walk = func(idx heap.Index) {
		it := h.Get(idx)
		switch it.Op {
		case opcode.OpNew, opcode.OpNewLife:
			if _, ok := reason[owner]; !ok {
				reason[owner] = diagnostics.ErrAllocationNotPermitted
			}
		case opcode.OpDeref:
			if _, ok := reason[owner]; !ok {
				reason[owner] = diagnostics.ErrReferenceAccessNotPermitted
			}
		case opcode.OpInvoke:
			if target, ok := resolved.Target(it.Operands[1]); ok {
				switch h.Get(target).Op {
				case opcode.OpMethod:
					if _, ok := reason[owner]; !ok {
						reason[owner] = diagnostics.ErrMethodcallNotPermitted
					}
				case opcode.OpFunction:
					calls[owner] = append(calls[owner], target)
				}
			}
		}
		for _, op := range it.Operands {
			child := h.Get(op)
			if isExprOp(child.Op) || isStmtOp(child.Op) {
				walk(op)
			}
		}
	}
	walk(bodyIdx)
}

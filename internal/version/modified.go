package version

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
)

// modifiedVars computes the set of variable declarations assigned
// anywhere within a loop body, in first-encountered order — the
// "modified(B)" set spec.md §4.5 havocs at a loop head, which the
// external parser leaves empty (§3.4) for this pass to fill in.
func (v *versioner) modifiedVars(bodyIdx heap.Index) []Var {
	var out []Var
	seen := map[Var]bool{}
	add := func(vr Var) {
		if !seen[vr] {
			seen[vr] = true
			out = append(out, vr)
		}
	}
	var walk func(heap.Index)
	walk = func(idx heap.Index) {
		it := v.h.Get(idx)
		switch it.Op {
		case opcode.OpAssign:
			for _, l := range resolve.Tuple(v.h, it.Operands[0]) {
				if target, ok := v.lvalVar(l); ok {
					add(target)
				}
			}
		case opcode.OpVarDeclStmt:
			// A fresh declaration inside the loop body is not itself
			// modified across iterations (it's re-declared each time),
			// so it is deliberately not added here.
		}
		for _, op := range it.Operands {
			child := v.h.Get(op)
			if isStmtOp(child.Op) {
				walk(op)
			}
		}
	}
	walk(bodyIdx)
	return out
}

// isStmtOp reports whether op is a statement opcode, bounding the
// descent in modifiedVars to the statement tree (not into nested
// expression/type operands, which never contain further assignments).
func isStmtOp(op opcode.Opcode) bool {
	return op >= opcode.OpBlock && op <= opcode.OpVarDeclStmt
}

package flow

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/types"
)

// stmt type-checks one statement under e, returning the branchEnv after
// it completes normally (spec.md §4.4.1's per-construct rules).
func (w *walker) stmt(idx heap.Index, e branchEnv) branchEnv {
	it := w.h.Get(idx)
	switch it.Op {
	case opcode.OpBlock, opcode.OpNamedBlock:
		stmts := resolve.Tuple(w.h, it.Operands[0])
		terminated := false
		for _, s := range stmts {
			if terminated {
				w.col.Add(diagnostics.New(diagnostics.ErrUnreachableCode, s, names.Range{}, "unreachable statement"))
				terminated = false // report once per run of dead code, not once per statement
			}
			e = w.stmt(s, e)
			if isTerminalStmt(w.h.Get(s).Op) {
				terminated = true
			}
		}
		return e

	case opcode.OpAssert, opcode.OpAssume:
		cond := it.Operands[0]
		t := w.infer(cond, e)
		w.requireBool(t, "condition", idx)
		if it.Op == opcode.OpAssume {
			return w.refineTrue(cond, e)
		}
		return e

	case opcode.OpDebug:
		w.infer(it.Operands[0], e)
		return e

	case opcode.OpAssign:
		rhs := resolve.Tuple(w.h, it.Operands[1])
		lhs := resolve.Tuple(w.h, it.Operands[0])
		next := e.clone()
		for i, l := range lhs {
			if i >= len(rhs) {
				continue
			}
			rt := w.infer(rhs[i], e)
			w.checkAssignTarget(l, rt, next)
		}
		return next

	case opcode.OpSkip, opcode.OpBreak, opcode.OpContinue, opcode.OpFail:
		return e

	case opcode.OpWhile:
		// operands: (condition, invariants tuple, body, modified tuple)
		modified := assignedVarsIn(w.h, it.Operands[2])
		bodyEnv := e.clone()
		for _, v := range modified {
			delete(bodyEnv.refined, v)
		}
		condT := w.infer(it.Operands[0], bodyEnv)
		w.requireBool(condT, "while condition", idx)
		for _, inv := range resolve.Tuple(w.h, it.Operands[1]) {
			w.infer(inv, bodyEnv)
		}
		bodyEnv = w.refineTrue(it.Operands[0], bodyEnv)
		w.stmt(it.Operands[2], bodyEnv)

		after := e.clone()
		for _, v := range modified {
			delete(after.refined, v)
		}
		after = w.refineFalse(it.Operands[0], after)
		return after

	case opcode.OpDoWhile:
		// operands: (body, condition, invariants tuple, modified tuple)
		modified := assignedVarsIn(w.h, it.Operands[0])
		bodyEnv := e.clone()
		for _, v := range modified {
			delete(bodyEnv.refined, v)
		}
		afterBody := w.stmt(it.Operands[0], bodyEnv)
		condT := w.infer(it.Operands[1], afterBody)
		w.requireBool(condT, "do-while condition", idx)
		for _, inv := range resolve.Tuple(w.h, it.Operands[2]) {
			w.infer(inv, afterBody)
		}
		final := afterBody.clone()
		for _, v := range modified {
			delete(final.refined, v)
		}
		return w.refineFalse(it.Operands[1], final)

	case opcode.OpIfElse:
		condT := w.infer(it.Operands[0], e)
		w.requireBool(condT, "if condition", idx)
		thenEnv := w.stmt(it.Operands[1], w.refineTrue(it.Operands[0], e.clone()))
		elseEnv := w.stmt(it.Operands[2], w.refineFalse(it.Operands[0], e.clone()))
		return joinBranch(thenEnv, elseEnv)

	case opcode.OpReturn:
		vals := resolve.Tuple(w.h, it.Operands[0])
		w.sawReturn = true
		if len(vals) > w.returnCount {
			w.col.Add(diagnostics.New(diagnostics.ErrTooManyReturns, idx, names.Range{}, "too many return values"))
		} else if len(vals) < w.returnCount {
			w.col.Add(diagnostics.New(diagnostics.ErrInsufficientReturns, idx, names.Range{}, "too few return values"))
		}
		for i, v := range vals {
			vt := w.infer(v, e)
			if i < len(w.returnTypes) {
				w.checkCoercion(vt, w.returnTypes[i], idx)
			}
		}
		return e

	case opcode.OpSwitch:
		disc := w.infer(it.Operands[0], e)
		var envs []branchEnv
		for _, c := range resolve.Tuple(w.h, it.Operands[1]) {
			cs := w.h.Get(c)
			ct := w.infer(cs.Operands[0], e)
			if !types.IsSubtypeIn(ct, disc, w.env) && !types.IsSubtypeIn(disc, ct, w.env) {
				w.col.Add(diagnostics.New(diagnostics.ErrIncomparableOperands, c, names.Range{}, "switch case type %s incomparable with subject type %s", ct, disc))
			}
			envs = append(envs, w.stmt(cs.Operands[1], e.clone()))
		}
		// No default ⇒ also join with the pre-switch environment.
		envs = append(envs, e)
		return joinAllBranches(envs)

	case opcode.OpSwitchDflt:
		disc := w.infer(it.Operands[0], e)
		var envs []branchEnv
		for _, c := range resolve.Tuple(w.h, it.Operands[1]) {
			cs := w.h.Get(c)
			ct := w.infer(cs.Operands[0], e)
			if !types.IsSubtypeIn(ct, disc, w.env) && !types.IsSubtypeIn(disc, ct, w.env) {
				w.col.Add(diagnostics.New(diagnostics.ErrIncomparableOperands, c, names.Range{}, "switch case type %s incomparable with subject type %s", ct, disc))
			}
			envs = append(envs, w.stmt(cs.Operands[1], e.clone()))
		}
		envs = append(envs, w.stmt(it.Operands[2], e.clone()))
		return joinAllBranches(envs)

	case opcode.OpVarDeclStmt:
		declIdx := it.Operands[0]
		decl := w.h.Get(declIdx)
		next := w.declareLocal(e, declIdx)
		if decl.Op == opcode.OpVariableInit && len(decl.Operands) >= 4 {
			it := w.infer(decl.Operands[3], e)
			declared := resolve.BuildType(w.h, decl.Operands[2], nil)
			w.checkCoercion(it, declared, idx)
		}
		return next

	default:
		return e
	}
}

// requireBool emits a subtype error when t isn't Bool-compatible.
func (w *walker) requireBool(t types.Type, what string, subject heap.Index) {
	if t == nil {
		return
	}
	if !types.IsSubtypeIn(t, types.Bool{}, w.env) {
		w.col.Add(diagnostics.New(diagnostics.ErrSubtypeError, subject, names.Range{}, "%s must be bool, got %s", what, t))
	}
}

// checkCoercion implements spec.md §4.4.3: when target is a Union,
// apply the most-precise-candidate selection rule; ambiguity is an
// error. Any other target, a Nominal included, gets the ordinary
// subtype check here and no selection rule.
func (w *walker) checkCoercion(from, target types.Type, subject heap.Index) {
	if from == nil || target == nil {
		return
	}
	if _, ok := target.(types.Union); !ok {
		if !types.IsSubtypeIn(from, target, w.env) {
			w.col.Add(diagnostics.New(diagnostics.ErrSubtypeError, subject, names.Range{}, "%s is not a subtype of %s", from, target))
		}
		return
	}
	res := types.SelectCoercion(from, target)
	if res.Ambiguous {
		w.col.Add(diagnostics.New(diagnostics.ErrAmbiguousCoercion, subject, names.Range{}, "coercion of %s to %s is ambiguous", from, target))
	} else if res.Target == nil {
		w.col.Add(diagnostics.New(diagnostics.ErrSubtypeError, subject, names.Range{}, "%s is not a subtype of any member of %s", from, target))
	}
}

// checkAssignTarget resolves the variable an lvalue ultimately writes
// through, records definite assignment, and enforces final/parameter
// single-assignment (spec.md §4.4.2's unassignment variant).
func (w *walker) checkAssignTarget(lhs heap.Index, rhsType types.Type, e branchEnv) {
	declIdx, ok := w.lvalVar(lhs)
	if !ok {
		return
	}
	declaredRaw := e.refined[declIdx]
	w.checkCoercion(rhsType, declaredRaw, lhs)

	w.reassignSeen[declIdx]++
	if w.reassignSeen[declIdx] > 1 {
		if w.finalLocals[declIdx] {
			w.col.Add(diagnostics.New(diagnostics.ErrFinalVariableReassigned, lhs, names.Range{}, "final variable reassigned"))
		} else if w.isParam[declIdx] {
			w.col.Add(diagnostics.New(diagnostics.ErrParameterReassigned, lhs, names.Range{}, "parameter reassigned"))
		}
	}
	e.assigned[declIdx] = true
	e.refined[declIdx] = rhsType
}

func (w *walker) lvalVar(idx heap.Index) (heap.Index, bool) {
	it := w.h.Get(idx)
	switch it.Op {
	case opcode.OpVarAccessCopy, opcode.OpVarAccessMove, opcode.OpStaticVarAccess:
		return it.Operands[1], true
	case opcode.OpRecordAccess, opcode.OpRecordBorrow:
		return w.lvalVar(it.Operands[1])
	case opcode.OpArrayAccess, opcode.OpArrayBorrow:
		return w.lvalVar(it.Operands[1])
	case opcode.OpDeref:
		return w.lvalVar(it.Operands[1])
	default:
		return 0, false
	}
}

// refineTrue/refineFalse implement spec.md §4.4.1's `is`-test and
// equality-comparison path refinement: "in T, refine by c; in F,
// refine by ¬c".
func (w *walker) refineTrue(condIdx heap.Index, e branchEnv) branchEnv {
	it := w.h.Get(condIdx)
	switch it.Op {
	case opcode.OpIs:
		if declIdx, ok := w.lvalVar(it.Operands[1]); ok {
			e.refined[declIdx] = resolve.BuildType(w.h, it.Operands[2], nil)
		}
	case opcode.OpAnd:
		e = w.refineTrue(it.Operands[1], e)
		e = w.refineTrue(it.Operands[2], e)
	}
	return e
}

func (w *walker) refineFalse(condIdx heap.Index, e branchEnv) branchEnv {
	it := w.h.Get(condIdx)
	switch it.Op {
	case opcode.OpIs:
		if declIdx, ok := w.lvalVar(it.Operands[1]); ok {
			if cur, ok := e.refined[declIdx]; ok {
				tested := resolve.BuildType(w.h, it.Operands[2], nil)
				e.refined[declIdx] = types.Difference{Minuend: cur, Subtrahend: tested}
			}
		}
	case opcode.OpOr:
		e = w.refineFalse(it.Operands[1], e)
		e = w.refineFalse(it.Operands[2], e)
	}
	return e
}

// isTerminalStmt reports whether op always transfers control away from
// the statement following it in the same block.
func isTerminalStmt(op opcode.Opcode) bool {
	switch op {
	case opcode.OpReturn, opcode.OpFail, opcode.OpBreak, opcode.OpContinue:
		return true
	default:
		return false
	}
}

func isExprOp(op opcode.Opcode) bool {
	return op >= opcode.OpVarAccessCopy && op <= opcode.OpArrayRange
}

func isStmtOp(op opcode.Opcode) bool {
	return op >= opcode.OpBlock && op <= opcode.OpVarDeclStmt
}

// assignedVarsIn computes the set of variable declarations assigned
// anywhere within a statement subtree — flow's own copy of the set
// internal/version's modifiedVars also computes, needed here to decide
// which refinements a loop head must drop before checking the body
// (spec.md §4.4.1), independently of version's later SSA numbering.
func assignedVarsIn(h *heap.Heap, bodyIdx heap.Index) []heap.Index {
	var out []heap.Index
	seen := map[heap.Index]bool{}
	add := func(v heap.Index) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	var walk func(heap.Index)
	walk = func(idx heap.Index) {
		it := h.Get(idx)
		if it.Op == opcode.OpAssign {
			for _, l := range resolve.Tuple(h, it.Operands[0]) {
				if v, ok := lvalVarStatic(h, l); ok {
					add(v)
				}
			}
		}
		for _, op := range it.Operands {
			child := h.Get(op)
			if isStmtOp(child.Op) {
				walk(op)
			}
		}
	}
	walk(bodyIdx)
	return out
}

func lvalVarStatic(h *heap.Heap, idx heap.Index) (heap.Index, bool) {
	it := h.Get(idx)
	switch it.Op {
	case opcode.OpVarAccessCopy, opcode.OpVarAccessMove, opcode.OpStaticVarAccess:
		return it.Operands[1], true
	case opcode.OpRecordAccess, opcode.OpRecordBorrow, opcode.OpArrayAccess, opcode.OpArrayBorrow, opcode.OpDeref:
		return lvalVarStatic(h, it.Operands[1])
	default:
		return 0, false
	}
}

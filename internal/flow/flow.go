// Package flow implements the Flow-Typing & Checks pass of spec.md
// §4.4: flow-sensitive type propagation with path refinement, definite
// assignment/unassignment, the ambiguous-coercion check, the cyclic
// static-initialiser check, and the functional-purity check, run as
// cooperating single-pass traversals over each callable body.
//
// Grounded on the teacher's internal/analyzer walker (a small struct
// threaded through a recursive statement/expression visit, collecting
// *diagnostics.DiagnosticError into a slice rather than failing fast —
// internal/analyzer/statements.go's w.addError pattern), generalized
// from an AST visitor to a heap-opcode switch.
package flow

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/types"
)

// Result is the combined output of every flow analysis.
type Result struct {
	// Types holds the inferred type of every expression occurrence this
	// pass visited, keyed by the expression's own heap index — kept as a
	// side table rather than written back into the heap's operand[0]
	// (unlike spec.md §6.2's literal phrasing) because expression items
	// are structurally shared (spec.md §3.1): the same subexpression can
	// be reachable from more than one flow-sensitive context carrying a
	// different path refinement at each occurrence, so mutating a shared
	// item's type operand in place would let one occurrence's refinement
	// leak into another's.
	Types map[heap.Index]types.Type

	Diagnostics []*diagnostics.Diagnostic
}

// Pass runs every flow analysis over every callable reachable from
// resolved.Namespace.
func Pass(h *heap.Heap, resolved *resolve.Result) *Result {
	res := &Result{Types: map[heap.Index]types.Type{}}
	if resolved == nil || resolved.Namespace == nil {
		return res
	}
	env := resolved.Namespace.Environment()
	col := diagnostics.NewCollector()

	checkCyclicStaticInitialisers(h, resolved, col)
	checkFunctionalPurity(h, resolved, col)

	for _, unitIdx := range resolved.Namespace.Units() {
		for _, decl := range resolved.Namespace.LocalDecls(unitIdx) {
			if decl.Kind != resolve.KindCallable {
				continue
			}
			w := &walker{h: h, resolved: resolved, env: env, col: col, types: res.Types}
			w.walkCallable(decl.Index)
		}
	}

	res.Diagnostics = col.Items()
	return res
}

// branchEnv is the flow-sensitive state threaded through one callable
// body: a path refinement per declaration and the definite-assignment
// set, both copy-on-write at branch points (mirroring internal/version's
// Env, spec.md §4.5's sibling analysis).
type branchEnv struct {
	refined  map[heap.Index]types.Type
	assigned map[heap.Index]bool
}

func newBranchEnv() branchEnv {
	return branchEnv{refined: map[heap.Index]types.Type{}, assigned: map[heap.Index]bool{}}
}

func (e branchEnv) clone() branchEnv {
	r := make(map[heap.Index]types.Type, len(e.refined))
	for k, v := range e.refined {
		r[k] = v
	}
	a := make(map[heap.Index]bool, len(e.assigned))
	for k, v := range e.assigned {
		a[k] = v
	}
	return branchEnv{refined: r, assigned: a}
}

// joinBranch implements spec.md §4.4.1's "at a join point, the
// refinements of incoming branches are unioned" and §4.4.2's "assigned
// joins by intersection at merges".
func joinBranch(a, b branchEnv) branchEnv {
	out := newBranchEnv()
	for v, ta := range a.refined {
		if tb, ok := b.refined[v]; ok {
			out.refined[v] = types.NewUnion(ta, tb)
		}
	}
	for v := range a.assigned {
		if b.assigned[v] {
			out.assigned[v] = true
		}
	}
	return out
}

func joinAllBranches(envs []branchEnv) branchEnv {
	if len(envs) == 0 {
		return newBranchEnv()
	}
	cur := envs[0]
	for _, e := range envs[1:] {
		cur = joinBranch(cur, e)
	}
	return cur
}

// walker is the per-callable flow-checking state.
type walker struct {
	h        *heap.Heap
	resolved *resolve.Result
	env      *types.Environment
	col      *diagnostics.Collector
	types    map[heap.Index]types.Type

	isFunction   bool // true for Function (not Method): functional-purity applies
	finalLocals  map[heap.Index]bool
	isParam      map[heap.Index]bool
	reassignSeen map[heap.Index]int
	returnTypes  []types.Type
	returnCount  int // number of return-variable slots declared
	sawReturn    bool
}

func (w *walker) walkCallable(declIdx heap.Index) {
	it := w.h.Get(declIdx)
	if len(it.Operands) < 8 {
		return
	}
	w.isFunction = it.Op == opcode.OpFunction
	w.finalLocals = map[heap.Index]bool{}
	w.isParam = map[heap.Index]bool{}
	w.reassignSeen = map[heap.Index]int{}

	e := newBranchEnv()
	for _, p := range resolve.Tuple(w.h, it.Operands[3]) {
		e = w.declareLocal(e, p)
		w.isParam[p] = true
		w.reassignSeen[p] = 1
	}
	returns := resolve.Tuple(w.h, it.Operands[4])
	w.returnCount = len(returns)
	for _, r := range returns {
		rt := resolve.BuildType(w.h, w.h.Get(r).Operands[2], nil)
		w.returnTypes = append(w.returnTypes, rt)
	}
	// requires are assumed true on entry (spec.md §4.4.1); flow typing
	// doesn't need their truth value, only that they type-check.
	for _, r := range resolve.Tuple(w.h, it.Operands[5]) {
		w.infer(r, e)
	}

	e = w.stmt(it.Operands[7], e)

	for _, ens := range resolve.Tuple(w.h, it.Operands[6]) {
		w.infer(ens, e)
	}
	if w.returnCount > 0 && !w.sawReturn {
		w.col.Add(diagnostics.New(diagnostics.ErrInsufficientReturns, declIdx, names.Range{},
			"%s: not every path returns a value", decodeName(w.h, it.Operands[1])))
	}
}

func (w *walker) declareLocal(e branchEnv, declIdx heap.Index) branchEnv {
	next := e.clone()
	it := w.h.Get(declIdx)
	var typeOperand heap.Index
	switch it.Op {
	case opcode.OpVariable, opcode.OpVariableInit:
		typeOperand = it.Operands[2]
	default:
		return next
	}
	next.refined[declIdx] = resolve.BuildType(w.h, typeOperand, nil)
	next.assigned[declIdx] = it.Op == opcode.OpVariableInit
	mods := opcode.DecodeModifiers(w.h.Get(it.Operands[0]).Data)
	if mods.Has(opcode.ModifierFinal) && it.Op == opcode.OpVariableInit {
		w.reassignSeen[declIdx] = 1
		w.finalLocals[declIdx] = true
	}
	return next
}

func decodeName(h *heap.Heap, nameIdx heap.Index) string {
	return resolve.NameOf(h, nameIdx).String()
}

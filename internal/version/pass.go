package version

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/types"
)

// FuncResult is the versioning output for one callable body.
type FuncResult struct {
	// Use maps an expression item's own index (OpVarAccessCopy,
	// OpVarAccessMove, or OpStaticVarAccess) to the version of its
	// declaration visible at that program point.
	Use map[heap.Index]int

	// Def maps a variable declaration's index to the version it
	// receives at each declaration, assignment, or method-call havoc
	// reached during the walk; each write overwrites the previous one,
	// so only the last is kept. Versions issued by a join or a loop-head
	// havoc are not written here; FinalEnv holds the versions visible
	// at the end of the body.
	Def map[heap.Index]int

	// ModifiedAtLoop maps a While/DoWhile item's own index to the set
	// of variable declarations havocked at its loop head — spec.md
	// §3.4's "modified variable declarations" tuple, computed here
	// since the external parser leaves it empty (§6.2: "Expression
	// types are left absent; flow typing fills them" — the modified
	// set is this pass's analogous fill-in).
	ModifiedAtLoop map[heap.Index][]Var

	// FinalEnv is the versioning environment after the whole body,
	// exposed for tests asserting the SSA property (spec.md §8).
	FinalEnv Env
}

// Result is the versioning output for every callable in a module.
type Result struct {
	Functions map[heap.Index]*FuncResult
}

// Pass runs variable-versioning over every Function/Method/Property/
// Lambda declaration reachable from resolved.Namespace, implementing
// spec.md §4.5. It must run after flow analyses succeed (spec.md §5
// ordering guarantee 3), since method-call havocking needs resolved
// link targets and built types to decide reference-containment.
func Pass(h *heap.Heap, resolved *resolve.Result) *Result {
	res := &Result{Functions: map[heap.Index]*FuncResult{}}
	if resolved == nil || resolved.Namespace == nil {
		return res
	}
	env := resolved.Namespace.Environment()

	for _, unitIdx := range resolved.Namespace.Units() {
		for _, decl := range resolved.Namespace.LocalDecls(unitIdx) {
			if decl.Kind != resolve.KindCallable {
				continue
			}
			res.Functions[decl.Index] = versionCallable(h, resolved, env, decl.Index)
		}
	}
	return res
}

// versionCallable versions one Function/Method/Property/Lambda body.
func versionCallable(h *heap.Heap, resolved *resolve.Result, env *types.Environment, declIdx heap.Index) *FuncResult {
	it := h.Get(declIdx)
	fr := &FuncResult{
		Use:            map[heap.Index]int{},
		Def:            map[heap.Index]int{},
		ModifiedAtLoop: map[heap.Index][]Var{},
	}

	v := &versioner{h: h, resolved: resolved, env: env, fr: fr}

	e := NewEnv()
	switch it.Op {
	case opcode.OpFunction, opcode.OpMethod, opcode.OpProperty:
		if len(it.Operands) >= 8 {
			for _, p := range resolve.Tuple(h, it.Operands[3]) {
				e = v.declareParam(e, p)
			}
			for _, r := range resolve.Tuple(h, it.Operands[4]) {
				e = v.declareParam(e, r)
			}
			e = v.stmt(it.Operands[7], e)
		}
	case opcode.OpLambda:
		if len(it.Operands) >= 9 {
			for _, p := range resolve.Tuple(h, it.Operands[3]) {
				e = v.declareParam(e, p)
			}
			e = v.stmt(it.Operands[7], e)
		}
	}
	fr.FinalEnv = e
	return fr
}

type versioner struct {
	h        *heap.Heap
	resolved *resolve.Result
	env      *types.Environment
	fr       *FuncResult
}

func (v *versioner) declareParam(e Env, declIdx heap.Index) Env {
	next := e.Declare(declIdx)
	v.fr.Def[declIdx] = 0
	return next
}

// stmt versions one statement, returning the environment after it.
func (v *versioner) stmt(idx heap.Index, e Env) Env {
	it := v.h.Get(idx)
	switch it.Op {
	case opcode.OpBlock:
		for _, s := range resolve.Tuple(v.h, it.Operands[0]) {
			e = v.stmt(s, e)
		}
		return e

	case opcode.OpNamedBlock:
		for _, s := range resolve.Tuple(v.h, it.Operands[0]) {
			e = v.stmt(s, e)
		}
		return e

	case opcode.OpAssert, opcode.OpAssume:
		return v.expr(it.Operands[0], e)

	case opcode.OpDebug:
		return v.expr(it.Operands[0], e)

	case opcode.OpAssign:
		rhs := resolve.Tuple(v.h, it.Operands[1])
		for _, r := range rhs {
			e = v.expr(r, e)
		}
		lhs := resolve.Tuple(v.h, it.Operands[0])
		for _, l := range lhs {
			if target, ok := v.lvalVar(l); ok {
				var n int
				e, n = e.Havoc(target)
				v.fr.Def[target] = n
				// Also record the new version at the LHS occurrence item
				// itself (keyed like any other Use), so a later pass
				// translating this assignment can read the freshly
				// assigned version straight off the LHS expression
				// instead of re-deriving it from Def (which only keeps
				// the last write per declaration).
				v.fr.Use[l] = n
			}
		}
		return e

	case opcode.OpSkip, opcode.OpBreak, opcode.OpContinue, opcode.OpFail:
		return e

	case opcode.OpWhile:
		// operands: (condition, invariants tuple, body, modified tuple)
		modified := v.modifiedVars(it.Operands[2])
		v.fr.ModifiedAtLoop[idx] = modified
		bodyEnv := e.HavocAll(modified)
		bodyEnv = v.expr(it.Operands[0], bodyEnv)
		for _, inv := range resolve.Tuple(v.h, it.Operands[1]) {
			bodyEnv = v.expr(inv, bodyEnv)
		}
		v.stmt(it.Operands[2], bodyEnv)
		return e.HavocAll(modified)

	case opcode.OpDoWhile:
		// operands: (body, condition, invariants tuple, modified tuple)
		modified := v.modifiedVars(it.Operands[0])
		v.fr.ModifiedAtLoop[idx] = modified
		bodyEnv := e.HavocAll(modified)
		bodyEnv = v.stmt(it.Operands[0], bodyEnv)
		bodyEnv = v.expr(it.Operands[1], bodyEnv)
		for _, inv := range resolve.Tuple(v.h, it.Operands[2]) {
			bodyEnv = v.expr(inv, bodyEnv)
		}
		return e.HavocAll(modified)

	case opcode.OpIfElse:
		e = v.expr(it.Operands[0], e)
		thenEnv := v.stmt(it.Operands[1], e)
		elseEnv := v.stmt(it.Operands[2], e)
		return Join(thenEnv, elseEnv)

	case opcode.OpReturn:
		for _, r := range resolve.Tuple(v.h, it.Operands[0]) {
			e = v.expr(r, e)
		}
		return e

	case opcode.OpSwitch:
		e = v.expr(it.Operands[0], e)
		var envs []Env
		for _, c := range resolve.Tuple(v.h, it.Operands[1]) {
			cs := v.h.Get(c)
			caseEnv := v.expr(cs.Operands[0], e)
			envs = append(envs, v.stmt(cs.Operands[1], caseEnv))
		}
		// No default arm: also join with the pre-switch environment
		// (spec.md §4.4.1 "including the implicit empty branch if no
		// default").
		envs = append(envs, e)
		return JoinAll(envs)

	case opcode.OpSwitchDflt:
		e = v.expr(it.Operands[0], e)
		var envs []Env
		for _, c := range resolve.Tuple(v.h, it.Operands[1]) {
			cs := v.h.Get(c)
			caseEnv := v.expr(cs.Operands[0], e)
			envs = append(envs, v.stmt(cs.Operands[1], caseEnv))
		}
		envs = append(envs, v.stmt(it.Operands[2], e))
		return JoinAll(envs)

	case opcode.OpVarDeclStmt:
		declIdx := it.Operands[0]
		decl := v.h.Get(declIdx)
		if decl.Op == opcode.OpVariableInit && len(decl.Operands) >= 4 {
			e = v.expr(decl.Operands[3], e)
		}
		next := e.Declare(declIdx)
		v.fr.Def[declIdx] = 0
		return next

	default:
		return e
	}
}

// lvalVar extracts the root variable declaration an lvalue expression
// ultimately writes through, drilling past record/array access forms
// (spec.md doesn't spell out a distinct lval item shape; assignment
// targets reuse the ordinary expression opcodes).
func (v *versioner) lvalVar(idx heap.Index) (Var, bool) {
	it := v.h.Get(idx)
	switch it.Op {
	case opcode.OpVarAccessCopy, opcode.OpVarAccessMove, opcode.OpStaticVarAccess:
		return it.Operands[1], true
	case opcode.OpRecordAccess, opcode.OpRecordBorrow:
		return v.lvalVar(it.Operands[1])
	case opcode.OpArrayAccess, opcode.OpArrayBorrow:
		return v.lvalVar(it.Operands[1])
	case opcode.OpDeref:
		return v.lvalVar(it.Operands[1])
	default:
		return 0, false
	}
}

// expr records a Use-version for every variable access in idx's
// subtree and returns the environment after evaluating it — an
// OpInvoke targeting a Method conservatively havocs any referenced
// argument variable (spec.md §4.5), and that havoc must be visible to
// whatever in the enclosing statement runs after this subexpression,
// so the updated Env is threaded back to the caller rather than
// discarded.
func (v *versioner) expr(idx heap.Index, e Env) Env {
	it := v.h.Get(idx)
	switch it.Op {
	case opcode.OpVarAccessCopy, opcode.OpVarAccessMove, opcode.OpStaticVarAccess:
		if n, ok := e.Version(it.Operands[1]); ok {
			v.fr.Use[idx] = n
		}
		return e
	case opcode.OpConstant, opcode.OpTypeVariable:
		return e
	case opcode.OpInvoke:
		args := resolve.Tuple(v.h, it.Operands[3])
		for _, a := range args {
			e = v.expr(a, e)
		}
		return v.maybeHavocCallArgs(it.Operands[1], args, e)
	case opcode.OpIndirectInvoke:
		e = v.expr(it.Operands[1], e)
		for _, a := range resolve.Tuple(v.h, it.Operands[3]) {
			e = v.expr(a, e)
		}
		return e
	}
	for _, op := range it.Operands {
		if op == idx {
			continue
		}
		child := v.h.Get(op)
		if isExprOp(child.Op) {
			e = v.expr(op, e)
		}
	}
	return e
}

// maybeHavocCallArgs implements spec.md §4.5's "Call to a method...
// havoc any variable syntactically occurring in that argument" rule,
// returning the environment with every such variable's version bumped.
func (v *versioner) maybeHavocCallArgs(linkIdx heap.Index, args []heap.Index, e Env) Env {
	target, ok := v.resolved.Target(linkIdx)
	if !ok {
		return e
	}
	if v.h.Get(target).Op != opcode.OpMethod {
		return e
	}
	for _, a := range args {
		at := v.h.Get(a)
		if len(at.Operands) == 0 {
			continue
		}
		argType := resolve.BuildType(v.h, at.Operands[0], nil)
		if !containsReference(argType, v.env, nil) {
			continue
		}
		for _, vr := range varsIn(v.h, a) {
			var n int
			e, n = e.Havoc(vr)
			v.fr.Def[vr] = n
		}
	}
	return e
}

// varsIn collects every variable declaration syntactically referenced
// within idx's expression subtree.
func varsIn(h *heap.Heap, idx heap.Index) []heap.Index {
	var out []heap.Index
	seen := map[heap.Index]bool{}
	var walk func(heap.Index)
	walk = func(i heap.Index) {
		if seen[i] {
			return
		}
		seen[i] = true
		it := h.Get(i)
		switch it.Op {
		case opcode.OpVarAccessCopy, opcode.OpVarAccessMove, opcode.OpStaticVarAccess:
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

// isExprOp reports whether op is one of the expression opcodes, so the
// generic descent in expr/varsIn doesn't wander into an operand that
// happens to be a type or a declaration reference.
func isExprOp(op opcode.Opcode) bool {
	return op >= opcode.OpVarAccessCopy && op <= opcode.OpArrayRange
}

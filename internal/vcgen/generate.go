package vcgen

import (
	"github.com/google/uuid"

	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/version"
)

// Generate runs the VC generator (spec.md §4.6) over every callable
// reachable from resolved.Namespace, producing one Module per unit.
// versions must come from a version.Pass over the same heap.
func Generate(h *heap.Heap, resolved *resolve.Result, versions *version.Result) []*Module {
	var mods []*Module
	if resolved == nil || resolved.Namespace == nil || versions == nil {
		return mods
	}
	for _, unitIdx := range resolved.Namespace.Units() {
		mod := &Module{UnitName: resolved.Namespace.UnitName(unitIdx).String()}
		for _, decl := range resolved.Namespace.LocalDecls(unitIdx) {
			if decl.Kind != resolve.KindCallable {
				continue
			}
			fr := versions.Functions[decl.Index]
			if fr == nil {
				continue
			}
			g := &generator{
				h:        h,
				resolved: resolved,
				versions: versions,
				t:        &translator{h: h, fr: fr, resolved: resolved},
				mod:      mod,
			}
			g.genCallable(decl)
		}
		mods = append(mods, mod)
	}
	return mods
}

// generator holds the per-callable state needed to thread a path
// condition Γ through a body and emit obligations into mod.
type generator struct {
	h        *heap.Heap
	resolved *resolve.Result
	versions *version.Result
	t        *translator
	mod      *Module
	callable string
}

func declKindString(op opcode.Opcode) string {
	switch op {
	case opcode.OpFunction:
		return "function"
	case opcode.OpMethod:
		return "method"
	case opcode.OpProperty:
		return "property"
	default:
		return "callable"
	}
}

// genCallable emits decl's Decl entry and walks its body, accumulating
// Γ from an empty precondition-only start.
func (g *generator) genCallable(decl resolve.DeclEntry) {
	it := g.h.Get(decl.Index)
	if len(it.Operands) < 8 {
		return
	}
	g.callable = decl.Name.String()

	params := resolve.Tuple(g.h, it.Operands[3])
	returns := resolve.Tuple(g.h, it.Operands[4])
	requiresExprs := resolve.Tuple(g.h, it.Operands[5])
	ensuresExprs := resolve.Tuple(g.h, it.Operands[6])
	body := it.Operands[7]

	var requiresF, ensuresF []Formula
	for _, r := range requiresExprs {
		requiresF = append(requiresF, g.t.translate(r))
	}
	for _, en := range ensuresExprs {
		ensuresF = append(ensuresF, g.t.translate(en))
	}

	declParams := make([]BoundVar, 0, len(params))
	for _, p := range params {
		declParams = append(declParams, BoundVar{Name: varName(g.h, p), Sort: "int"})
	}
	g.mod.Declarations = append(g.mod.Declarations, Decl{
		Name:     g.callable,
		Kind:     declKindString(it.Op),
		Requires: requiresF,
		Ensures:  ensuresF,
		Params:   declParams,
	})

	gamma := conj(requiresF...)
	g.walkStmt(body, gamma, ensuresF, returns)
}

// emit appends one obligation, binding every distinct Var the formula
// pair mentions (spec.md §4.6's ∀v̄ over versioned locals live at the
// obligation point).
func (g *generator) emit(kind Kind, gamma, phi Formula) {
	bound := collectVars(gamma, phi)
	g.mod.Obligations = append(g.mod.Obligations, Obligation{
		ID:       uuid.New(),
		Kind:     kind,
		Range:    names.Range{},
		Bound:    bound,
		Gamma:    gamma,
		Phi:      phi,
		Callable: g.callable,
	})
}

// walkStmt threads gamma (the conjunction of everything known to hold
// on entry to idx) through one statement, emitting obligations as it
// goes, and returns the Γ that holds after idx completes normally.
func (g *generator) walkStmt(idx heap.Index, gamma Formula, ensuresF []Formula, returns []heap.Index) Formula {
	it := g.h.Get(idx)
	switch it.Op {
	case opcode.OpBlock, opcode.OpNamedBlock:
		for _, s := range resolve.Tuple(g.h, it.Operands[0]) {
			gamma = g.walkStmt(s, gamma, ensuresF, returns)
		}
		return gamma

	case opcode.OpAssert:
		g.checkCalls(it.Operands[0], gamma)
		phi := g.t.translate(it.Operands[0])
		g.emit(KindAssert, gamma, phi)
		return And{Left: gamma, Right: phi}

	case opcode.OpAssume:
		phi := g.t.translate(it.Operands[0])
		return And{Left: gamma, Right: phi}

	case opcode.OpDebug:
		g.checkCalls(it.Operands[0], gamma)
		return gamma

	case opcode.OpAssign:
		rhs := resolve.Tuple(g.h, it.Operands[1])
		lhs := resolve.Tuple(g.h, it.Operands[0])
		for _, r := range rhs {
			g.checkCalls(r, gamma)
		}
		for i, l := range lhs {
			if i >= len(rhs) {
				continue
			}
			eq := BinOp{Op: "==", Left: g.t.translate(l), Right: g.t.translate(rhs[i])}
			gamma = And{Left: gamma, Right: eq}
		}
		return gamma

	case opcode.OpSkip, opcode.OpBreak, opcode.OpContinue, opcode.OpFail:
		return gamma

	case opcode.OpWhile:
		// operands: (condition, invariants tuple, body, modified tuple)
		cond := g.t.translate(it.Operands[0])
		invs := resolve.Tuple(g.h, it.Operands[1])

		// Invariant must hold on entry.
		for _, inv := range invs {
			g.emit(KindInvariantHold, gamma, g.t.translate(inv))
		}

		bodyGamma := gamma
		for _, inv := range invs {
			bodyGamma = And{Left: bodyGamma, Right: g.t.translate(inv)}
		}
		bodyGamma = And{Left: bodyGamma, Right: cond}
		bodyEnd := g.walkStmt(it.Operands[2], bodyGamma, ensuresF, returns)

		// Invariant must be preserved by one iteration of the body.
		for _, inv := range invs {
			g.emit(KindInvariantHold, bodyEnd, g.t.translate(inv))
		}

		after := gamma
		for _, inv := range invs {
			after = And{Left: after, Right: g.t.translate(inv)}
		}
		after = And{Left: after, Right: Not{Operand: cond}}
		return after

	case opcode.OpDoWhile:
		// operands: (body, condition, invariants tuple, modified tuple)
		cond := g.t.translate(it.Operands[1])
		invs := resolve.Tuple(g.h, it.Operands[2])

		bodyEnd := g.walkStmt(it.Operands[0], gamma, ensuresF, returns)
		for _, inv := range invs {
			g.emit(KindInvariantHold, bodyEnd, g.t.translate(inv))
		}

		after := bodyEnd
		for _, inv := range invs {
			after = And{Left: after, Right: g.t.translate(inv)}
		}
		after = And{Left: after, Right: Not{Operand: cond}}
		return after

	case opcode.OpIfElse:
		g.checkCalls(it.Operands[0], gamma)
		cond := g.t.translate(it.Operands[0])
		thenGamma := g.walkStmt(it.Operands[1], And{Left: gamma, Right: cond}, ensuresF, returns)
		elseGamma := g.walkStmt(it.Operands[2], And{Left: gamma, Right: Not{Operand: cond}}, ensuresF, returns)
		return Or{Left: thenGamma, Right: elseGamma}

	case opcode.OpReturn:
		vals := resolve.Tuple(g.h, it.Operands[0])
		retGamma := gamma
		for _, r := range vals {
			g.checkCalls(r, gamma)
		}
		for i, r := range vals {
			if i >= len(returns) {
				continue
			}
			eq := BinOp{Op: "==", Left: returnVarFormula(g.h, g.t, returns[i]), Right: g.t.translate(r)}
			retGamma = And{Left: retGamma, Right: eq}
		}
		for _, ef := range ensuresF {
			g.emit(KindPostcondition, retGamma, ef)
		}
		return gamma

	case opcode.OpSwitch:
		g.checkCalls(it.Operands[0], gamma)
		disc := g.t.translate(it.Operands[0])
		var branches Formula = gamma // no-default ⇒ the empty branch also joins (spec.md §4.4.1)
		first := true
		for _, c := range resolve.Tuple(g.h, it.Operands[1]) {
			cs := g.h.Get(c)
			caseEq := BinOp{Op: "==", Left: disc, Right: g.t.translate(cs.Operands[0])}
			caseGamma := And{Left: gamma, Right: caseEq}
			caseEnd := g.walkStmt(cs.Operands[1], caseGamma, ensuresF, returns)
			if first {
				branches = caseEnd
				first = false
			} else {
				branches = Or{Left: branches, Right: caseEnd}
			}
		}
		return Or{Left: branches, Right: gamma}

	case opcode.OpSwitchDflt:
		g.checkCalls(it.Operands[0], gamma)
		disc := g.t.translate(it.Operands[0])
		var branches Formula
		first := true
		for _, c := range resolve.Tuple(g.h, it.Operands[1]) {
			cs := g.h.Get(c)
			caseEq := BinOp{Op: "==", Left: disc, Right: g.t.translate(cs.Operands[0])}
			caseGamma := And{Left: gamma, Right: caseEq}
			caseEnd := g.walkStmt(cs.Operands[1], caseGamma, ensuresF, returns)
			if first {
				branches = caseEnd
				first = false
			} else {
				branches = Or{Left: branches, Right: caseEnd}
			}
		}
		dfltEnd := g.walkStmt(it.Operands[2], gamma, ensuresF, returns)
		if first {
			return dfltEnd
		}
		return Or{Left: branches, Right: dfltEnd}

	case opcode.OpVarDeclStmt:
		declIdx := it.Operands[0]
		decl := g.h.Get(declIdx)
		if decl.Op == opcode.OpVariableInit && len(decl.Operands) >= 4 {
			g.checkCalls(decl.Operands[3], gamma)
			lhsF := Var{Name: varName(g.h, declIdx), Version: 0}
			rhsF := g.t.translate(decl.Operands[3])
			gamma = And{Left: gamma, Right: BinOp{Op: "==", Left: lhsF, Right: rhsF}}
			g.checkTypeInvariant(decl.Operands[2], lhsF, gamma)
		}
		return gamma

	default:
		return gamma
	}
}

// returnVarFormula renders a named return variable's current value,
// falling back to version 0 (the version it was declared with) when
// versioning never recorded a reassignment.
func returnVarFormula(h *heap.Heap, t *translator, declIdx heap.Index) Formula {
	v := 0
	if n, ok := t.fr.Def[declIdx]; ok {
		v = n
	}
	return Var{Name: varName(h, declIdx), Version: v}
}

// checkCalls walks an expression subtree and, for every call to a
// callable with a requires clause, emits a precondition obligation —
// spec.md §4.6's "constraint inlining": the callee's requires, with its
// parameters substituted by the call's actual arguments.
func (g *generator) checkCalls(idx heap.Index, gamma Formula) {
	it := g.h.Get(idx)
	if it.Op == opcode.OpInvoke {
		args := resolve.Tuple(g.h, it.Operands[3])
		if target, ok := g.resolved.Target(it.Operands[1]); ok {
			g.emitCallPrecondition(target, args, gamma)
		}
		for _, a := range args {
			g.checkCalls(a, gamma)
		}
		return
	}
	for _, op := range it.Operands {
		if op == idx {
			continue
		}
		child := g.h.Get(op)
		if isExprOpcode(child.Op) {
			g.checkCalls(op, gamma)
		}
	}
}

func (g *generator) emitCallPrecondition(target heap.Index, args []heap.Index, gamma Formula) {
	ct := g.h.Get(target)
	if len(ct.Operands) < 8 {
		return
	}
	requires := resolve.Tuple(g.h, ct.Operands[5])
	if len(requires) == 0 {
		return
	}
	calleeFR := g.versions.Functions[target]
	if calleeFR == nil {
		return
	}
	params := resolve.Tuple(g.h, ct.Operands[3])
	calleeT := &translator{h: g.h, fr: calleeFR, resolved: g.resolved}

	subst := map[string]Formula{}
	for i, p := range params {
		if i < len(args) {
			subst[varName(g.h, p)] = g.t.translate(args[i])
		}
	}
	for _, r := range requires {
		phi := substFormula(calleeT.translate(r), subst)
		g.emit(KindPrecondition, gamma, phi)
	}
}

// checkTypeInvariant instantiates a nominal alias's invariants at a
// variable declaration whose annotated type is that alias, substituting
// the alias's bound refinement variable (the name of the variable in
// the alias's underlying operand, or "value" when that operand is not a
// variable) with the declared variable.
func (g *generator) checkTypeInvariant(typeIdx heap.Index, value Formula, gamma Formula) {
	t := g.h.Get(typeIdx)
	if t.Op != opcode.OpTypeNominal {
		return
	}
	target, ok := g.resolved.Target(t.Operands[0])
	if !ok {
		return
	}
	alias := g.h.Get(target)
	if len(alias.Operands) < 5 {
		return
	}
	invs := resolve.Tuple(g.h, alias.Operands[4])
	if len(invs) == 0 {
		return
	}
	// The invariant expressions live in the alias's own declaration, not
	// the use site, so they carry no version history of their own;
	// translate with an empty Use map (every reference inside resolves
	// to version 0) and substitute the refinement variable afterward.
	aliasT := &translator{h: g.h, fr: &version.FuncResult{Use: map[heap.Index]int{}}, resolved: g.resolved}
	subst := map[string]Formula{"value": value}
	if bound := g.h.Get(alias.Operands[3]); bound.Op == opcode.OpVariable || bound.Op == opcode.OpVariableInit {
		subst = map[string]Formula{varName(g.h, alias.Operands[3]): value}
	}
	for _, inv := range invs {
		phi := substFormula(aliasT.translate(inv), subst)
		g.emit(KindInvariantHold, gamma, phi)
	}
}

// collectVars gathers every distinct Var a set of formulas mentions, in
// first-encountered order, for binding under the obligation's ∀.
func collectVars(fs ...Formula) []BoundVar {
	var out []BoundVar
	seen := map[string]bool{}
	var walk func(Formula)
	walk = func(f Formula) {
		switch v := f.(type) {
		case Var:
			key := v.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, BoundVar{Name: key, Sort: "int"})
			}
		case BinOp:
			walk(v.Left)
			walk(v.Right)
		case Not:
			walk(v.Operand)
		case And:
			walk(v.Left)
			walk(v.Right)
		case Or:
			walk(v.Left)
			walk(v.Right)
		case Implies:
			walk(v.Left)
			walk(v.Right)
		case Iff:
			walk(v.Left)
			walk(v.Right)
		case Forall:
			walk(v.Body)
		case Exists:
			walk(v.Body)
		case Call:
			for _, a := range v.Args {
				walk(a)
			}
		case FieldAccess:
			walk(v.Record)
		case Index:
			walk(v.Array)
			walk(v.At)
		case UnaryOp:
			walk(v.Operand)
		case TypeTest:
			walk(v.Expr)
		}
	}
	for _, f := range fs {
		if f != nil {
			walk(f)
		}
	}
	return out
}

// substFormula replaces every Var named in subst (by name, ignoring
// version) with its substitute, recursing through every Formula shape —
// the mechanism spec.md §4.6's "constraint inlining" needs to rename a
// callee's parameters, or an alias's refinement variable, to the
// expressions a call site or declaration actually supplies.
func substFormula(f Formula, subst map[string]Formula) Formula {
	switch v := f.(type) {
	case Var:
		if r, ok := subst[v.Name]; ok {
			return r
		}
		return v
	case BinOp:
		return BinOp{Op: v.Op, Left: substFormula(v.Left, subst), Right: substFormula(v.Right, subst)}
	case Not:
		return Not{Operand: substFormula(v.Operand, subst)}
	case And:
		return And{Left: substFormula(v.Left, subst), Right: substFormula(v.Right, subst)}
	case Or:
		return Or{Left: substFormula(v.Left, subst), Right: substFormula(v.Right, subst)}
	case Implies:
		return Implies{Left: substFormula(v.Left, subst), Right: substFormula(v.Right, subst)}
	case Iff:
		return Iff{Left: substFormula(v.Left, subst), Right: substFormula(v.Right, subst)}
	case Forall:
		return Forall{Bound: v.Bound, Body: substFormula(v.Body, subst)}
	case Exists:
		return Exists{Bound: v.Bound, Body: substFormula(v.Body, subst)}
	case Call:
		args := make([]Formula, len(v.Args))
		for i, a := range v.Args {
			args[i] = substFormula(a, subst)
		}
		return Call{Func: v.Func, Args: args}
	case FieldAccess:
		return FieldAccess{Record: substFormula(v.Record, subst), Field: v.Field}
	case Index:
		return Index{Array: substFormula(v.Array, subst), At: substFormula(v.At, subst)}
	case UnaryOp:
		return UnaryOp{Op: v.Op, Operand: substFormula(v.Operand, subst)}
	case TypeTest:
		return TypeTest{Expr: substFormula(v.Expr, subst), TypeName: v.TypeName}
	default:
		return f
	}
}

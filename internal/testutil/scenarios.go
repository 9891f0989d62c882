package testutil

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
)

// Scenario is one hand-built compilation unit matching one of spec.md
// §8's concrete end-to-end walkthroughs, plus the outcome a caller's
// test should assert on.
type Scenario struct {
	Name        string
	Heap        *heap.Heap
	ExpectValid bool // true iff every generated obligation is expected to hold
}

// IdentityFunction builds `function id(int x) -> (int y) : return x`.
// One obligation, vacuously true; no requires/ensures.
func IdentityFunction() *Scenario {
	b := NewBuilder()
	return buildSingleFunctionScenario(b, "id",
		[]Param{{Name: "x", Type: b.TypeInt()}},
		[]Param{{Name: "y", Type: b.TypeInt()}},
		func(b *Builder, params, returns []heap.Index) ([]heap.Index, []heap.Index, heap.Index) {
			xAccess := b.VarAccessCopy(b.TypeInt(), params[0])
			return nil, nil, b.Block(b.Return(xAccess))
		}, true)
}

// AbsoluteValue builds:
//
//	function abs(int x) -> (int y) ensures y >= 0 :
//	  if x >= 0: return x else: return -x
func AbsoluteValue() *Scenario {
	b := NewBuilder()
	return buildSingleFunctionScenario(b, "abs",
		[]Param{{Name: "x", Type: b.TypeInt()}},
		[]Param{{Name: "y", Type: b.TypeInt()}},
		func(b *Builder, params, returns []heap.Index) ([]heap.Index, []heap.Index, heap.Index) {
			intT := b.TypeInt()
			x := func() heap.Index { return b.VarAccessCopy(intT, params[0]) }
			zero := func() heap.Index { return b.IntConst(0) }
			cond := b.GreaterEqual(b.TypeBool(), x(), zero())
			thenBlk := b.Block(b.Return(x()))
			negX := b.Sub(intT, zero(), x())
			elseBlk := b.Block(b.Return(negX))
			body := b.Block(b.IfElse(cond, thenBlk, elseBlk))

			y := b.VarAccessCopy(intT, returns[0])
			ensures := b.GreaterEqual(b.TypeBool(), y, b.IntConst(0))
			return nil, []heap.Index{ensures}, body
		}, true)
}

// RefinementMismatch builds:
//
//	type nat is (int n) where n >= 0
//	function f(int x) -> (nat r) : return x
//
// Expected: one obligation `x >= 0`, invalid.
func RefinementMismatch() *Scenario {
	b := NewBuilder()
	intT := b.TypeInt()
	nVar := b.alloc(opcode.OpVariable, []heap.Index{b.Modifiers(0), b.Name("n"), intT}, nil)
	nAccess := b.VarAccessCopy(intT, nVar)
	invariant := b.GreaterEqual(b.TypeBool(), nAccess, b.IntConst(0))
	natAlias := b.TypeAliasDecl(0, "nat", nVar, invariant)

	natType := b.TypeNominal("nat")
	paramIdxs := b.Params([]Param{{Name: "x", Type: intT}})
	returnIdxs := b.Params([]Param{{Name: "r", Type: natType}})
	xAccess := b.VarAccessCopy(intT, paramIdxs[0])
	body := b.Block(b.Return(xAccess))
	fnDecl := b.FunctionDecl(0, "f", paramIdxs, returnIdxs, nil, nil, body)

	unit := b.UnitDecl("main", natAlias, fnDecl)
	b.Module("m", unit)
	return &Scenario{Name: "refinement mismatch", Heap: b.H, ExpectValid: false}
}

// AmbiguousCoercion builds:
//
//	type msg is {int k, int p} | {int k, int|null p}
//	function m(int k, int p) -> (msg r) : return {k:k, p:p}
func AmbiguousCoercion() *Scenario {
	b := NewBuilder()
	intT := b.TypeInt()

	recA := b.TypeRecord(false, RecordField{Name: "k", Type: b.TypeInt()}, RecordField{Name: "p", Type: b.TypeInt()})
	recB := b.TypeRecord(false, RecordField{Name: "k", Type: b.TypeInt()}, RecordField{Name: "p", Type: b.TypeUnion(b.TypeInt(), b.TypeNull())})
	msgUnion := b.TypeUnion(recA, recB)
	msgVar := b.alloc(opcode.OpVariable, []heap.Index{b.Modifiers(0), b.Name("msg"), msgUnion}, nil)
	msgAlias := b.TypeAliasDecl(0, "msg", msgVar)

	msgType := b.TypeNominal("msg")
	paramIdxs := b.Params([]Param{{Name: "k", Type: intT}, {Name: "p", Type: intT}})
	returnIdxs := b.Params([]Param{{Name: "r", Type: msgType}})
	fields := []RecordField{{Name: "k", Type: intT}, {Name: "p", Type: intT}}
	values := []heap.Index{b.VarAccessCopy(intT, paramIdxs[0]), b.VarAccessCopy(intT, paramIdxs[1])}
	recordLit := b.RecordInit(recA, fields, values)
	body := b.Block(b.Return(recordLit))
	fnDecl := b.FunctionDecl(0, "m", paramIdxs, returnIdxs, nil, nil, body)

	unit := b.UnitDecl("main", msgAlias, fnDecl)
	b.Module("m", unit)
	return &Scenario{Name: "ambiguous coercion", Heap: b.H, ExpectValid: false}
}

// CyclicStaticInitialisers builds:
//
//	static int a = b + 1
//	static int b = a + 1
//
// checkCyclicStaticInitialisers walks each static var's own
// initializer for direct OpStaticVarAccess targets (internal/flow's
// staticVarsIn) — the cycle only needs both declarations to reference
// each other's *heap index*, so `a`'s initializer is built against a
// placeholder StaticVar standing in for `b`, then the real `b` is
// allocated last, referencing the real `a`, and finally `a`'s access is
// repointed from the placeholder to the real `b` with ReplaceOperand.
// Name resolution never enters into this check, so the placeholder's
// name is irrelevant.
func CyclicStaticInitialisers() *Scenario {
	b := NewBuilder()
	intT := b.TypeInt()

	bPlaceholder := b.alloc(opcode.OpStaticVar, []heap.Index{b.Modifiers(0), b.Name("b"), intT, b.IntConst(0)}, nil)
	aRef := b.StaticVarAccess(intT, bPlaceholder)
	aInit := b.Add(intT, aRef, b.IntConst(1))
	aDecl := b.alloc(opcode.OpStaticVar, []heap.Index{b.Modifiers(0), b.Name("a"), intT, aInit}, nil)
	bInit := b.Add(intT, b.StaticVarAccess(intT, aDecl), b.IntConst(1))
	bDecl := b.alloc(opcode.OpStaticVar, []heap.Index{b.Modifiers(0), b.Name("b"), intT, bInit}, nil)
	if err := b.H.ReplaceOperand(aRef, 1, bDecl); err != nil {
		panic(err)
	}

	unit := b.UnitDecl("main", aDecl, bDecl)
	b.Module("m", unit)
	return &Scenario{Name: "cyclic static initialisers", Heap: b.H, ExpectValid: false}
}

// LoopInvariantPreserved builds a function summing an int array with
// the loop invariant `i >= 0 && i <= |xs|`.
func LoopInvariantPreserved() *Scenario {
	b := NewBuilder()
	intT := b.TypeInt()
	arrT := b.TypeArray(b.TypeInt())

	return buildSingleFunctionScenario(b, "sum",
		[]Param{{Name: "xs", Type: arrT}},
		[]Param{{Name: "total", Type: intT}},
		func(b *Builder, params, returns []heap.Index) ([]heap.Index, []heap.Index, heap.Index) {
			xsParam := params[0]
			iDecl := b.VariableInitDecl(0, "i", intT, b.IntConst(0))
			sumDecl := b.VariableInitDecl(0, "sum", intT, b.IntConst(0))

			xsAccess := func() heap.Index { return b.VarAccessCopy(arrT, xsParam) }
			iAccess := func() heap.Index { return b.VarAccessCopy(intT, iDecl) }
			sumAccess := func() heap.Index { return b.VarAccessCopy(intT, sumDecl) }

			length := b.ArrayLength(intT, xsAccess())
			cond := b.Less(b.TypeBool(), iAccess(), length)

			invLower := b.GreaterEqual(b.TypeBool(), iAccess(), b.IntConst(0))
			invUpper := b.LessEqual(b.TypeBool(), iAccess(), b.ArrayLength(intT, xsAccess()))
			invariants := b.Tuple(invLower, invUpper)

			elem := b.ArrayAccess(intT, xsAccess(), iAccess())
			newSum := b.Add(intT, sumAccess(), elem)
			newI := b.Add(intT, iAccess(), b.IntConst(1))
			bodyStmts := b.Block(
				b.Assign([]heap.Index{sumAccess()}, []heap.Index{newSum}),
				b.Assign([]heap.Index{iAccess()}, []heap.Index{newI}),
			)

			// The modified tuple is left empty: spec.md §3.4 has the
			// external parser leave it empty for internal/version's own
			// modifiedVars to fill in by walking the body.
			loop := b.While(cond, invariants, bodyStmts)
			ret := b.Return(sumAccess())
			body := b.Block(b.VarDeclStmt(iDecl), b.VarDeclStmt(sumDecl), loop, ret)
			return nil, nil, body
		}, true)
}

// buildSingleFunctionScenario declares params/returns first, then calls
// buildBody with their indices to produce the requires/ensures
// condition lists and the function body, then assembles the Function
// item and its enclosing unit/module.
func buildSingleFunctionScenario(b *Builder, name string, params, returns []Param,
	buildBody func(b *Builder, params, returns []heap.Index) (requires, ensures []heap.Index, body heap.Index),
	expectValid bool) *Scenario {

	paramIdxs := b.Params(params)
	returnIdxs := b.Params(returns)
	requires, ensures, body := buildBody(b, paramIdxs, returnIdxs)
	fnDecl := b.FunctionDecl(0, name, paramIdxs, returnIdxs, requires, ensures, body)

	unit := b.UnitDecl("main", fnDecl)
	b.Module("m", unit)
	return &Scenario{Name: name, Heap: b.H, ExpectValid: expectValid}
}

// All returns every scenario, in spec.md §8's listed order.
func All() []*Scenario {
	return []*Scenario{
		IdentityFunction(),
		AbsoluteValue(),
		RefinementMismatch(),
		AmbiguousCoercion(),
		CyclicStaticInitialisers(),
		LoopInvariantPreserved(),
	}
}

package flow

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/types"
)

var comparisonOps = map[opcode.Opcode]bool{
	opcode.OpEqual: true, opcode.OpNotEqual: true,
	opcode.OpLess: true, opcode.OpLessEqual: true,
	opcode.OpGreater: true, opcode.OpGreaterEqual: true,
}

var arithOps = map[opcode.Opcode]bool{
	opcode.OpAdd: true, opcode.OpSub: true, opcode.OpMul: true,
	opcode.OpQuo: true, opcode.OpRem: true,
	opcode.OpBitAnd: true, opcode.OpBitOr: true, opcode.OpBitXor: true,
	opcode.OpShl: true, opcode.OpShr: true,
}

var logicOps = map[opcode.Opcode]bool{
	opcode.OpAnd: true, opcode.OpOr: true, opcode.OpImplies: true, opcode.OpIff: true,
}

// infer computes idx's type bottom-up under e's path refinement
// (spec.md §4.4.1) and records it in w.types, the side table flow
// typing fills instead of the heap's own type operand (see flow.go's
// Result.Types doc comment).
func (w *walker) infer(idx heap.Index, e branchEnv) types.Type {
	it := w.h.Get(idx)
	var t types.Type

	switch {
	case it.Op == opcode.OpVarAccessCopy || it.Op == opcode.OpVarAccessMove || it.Op == opcode.OpStaticVarAccess:
		declIdx := it.Operands[1]
		if !e.assigned[declIdx] {
			w.col.Add(diagnostics.New(diagnostics.ErrVariablePossiblyUninitialised, idx, names.Range{},
				"%s may be used before it is assigned", decodeName(w.h, declIdx)))
		}
		if rt, ok := e.refined[declIdx]; ok && rt != nil {
			t = rt
		} else {
			t = resolve.BuildType(w.h, it.Operands[0], nil)
		}

	case it.Op == opcode.OpConstant:
		t = resolve.BuildType(w.h, it.Operands[0], nil)

	case it.Op == opcode.OpCast:
		w.infer(it.Operands[1], e)
		t = resolve.BuildType(w.h, it.Operands[0], nil)

	case it.Op == opcode.OpNot:
		ct := w.infer(it.Operands[1], e)
		w.requireBool(ct, "operand of !", idx)
		t = types.Bool{}

	case logicOps[it.Op]:
		lt := w.infer(it.Operands[1], e)
		rt := w.infer(it.Operands[2], e)
		w.requireBool(lt, "left operand", idx)
		w.requireBool(rt, "right operand", idx)
		t = types.Bool{}

	case it.Op == opcode.OpForall || it.Op == opcode.OpExists:
		next := e.clone()
		for _, bv := range resolve.Tuple(w.h, it.Operands[1]) {
			next = w.declareLocal(next, bv)
		}
		bt := w.infer(it.Operands[2], next)
		w.requireBool(bt, "quantifier body", idx)
		t = types.Bool{}

	case comparisonOps[it.Op]:
		lt := w.infer(it.Operands[1], e)
		rt := w.infer(it.Operands[2], e)
		if !types.IsSubtypeIn(lt, rt, w.env) && !types.IsSubtypeIn(rt, lt, w.env) {
			w.col.Add(diagnostics.New(diagnostics.ErrIncomparableOperands, idx, names.Range{},
				"%s and %s are not comparable", lt, rt))
		}
		t = types.Bool{}

	case it.Op == opcode.OpIs:
		w.infer(it.Operands[1], e)
		t = types.Bool{}

	case arithOps[it.Op]:
		lt := w.infer(it.Operands[1], e)
		rt := w.infer(it.Operands[2], e)
		w.requireInt(lt, "left operand", idx)
		w.requireInt(rt, "right operand", idx)
		t = types.Int{}

	case it.Op == opcode.OpBitNot:
		ct := w.infer(it.Operands[1], e)
		w.requireInt(ct, "operand of ~", idx)
		t = types.Int{}

	case it.Op == opcode.OpDeref:
		rt := w.infer(it.Operands[1], e)
		ref, ok := underlyingReference(rt, w.env)
		if !ok {
			w.col.Add(diagnostics.New(diagnostics.ErrExpectedReference, idx, names.Range{}, "%s is not a reference", rt))
			t = types.Any{}
		} else {
			t = ref.Target
		}

	case it.Op == opcode.OpNew || it.Op == opcode.OpNewLife:
		w.infer(it.Operands[1], e)
		t = resolve.BuildType(w.h, it.Operands[0], nil)

	case it.Op == opcode.OpLambdaAccess:
		t = resolve.BuildType(w.h, it.Operands[0], nil)

	case it.Op == opcode.OpRecordAccess || it.Op == opcode.OpRecordBorrow:
		rt := w.infer(it.Operands[1], e)
		rec, ok := underlyingRecord(rt, w.env)
		if !ok {
			w.col.Add(diagnostics.New(diagnostics.ErrExpectedRecord, idx, names.Range{}, "%s is not a record", rt))
			t = types.Any{}
			break
		}
		field := string(it.Data)
		ft, ok := rec.Field(field)
		if !ok {
			w.col.Add(diagnostics.New(diagnostics.ErrInvalidField, idx, names.Range{}, "no field %q on %s", field, rt))
			t = types.Any{}
			break
		}
		t = ft

	case it.Op == opcode.OpRecordInit:
		t = resolve.BuildType(w.h, it.Operands[0], nil)
		for _, v := range resolve.Tuple(w.h, it.Operands[1]) {
			w.infer(v, e)
		}

	case it.Op == opcode.OpArrayAccess || it.Op == opcode.OpArrayBorrow:
		at := w.infer(it.Operands[1], e)
		idxT := w.infer(it.Operands[2], e)
		w.requireInt(idxT, "array index", idx)
		arr, ok := underlyingArray(at, w.env)
		if !ok {
			w.col.Add(diagnostics.New(diagnostics.ErrExpectedArray, idx, names.Range{}, "%s is not an array", at))
			t = types.Any{}
			break
		}
		t = arr.Element

	case it.Op == opcode.OpArrayLength:
		at := w.infer(it.Operands[1], e)
		if _, ok := underlyingArray(at, w.env); !ok {
			w.col.Add(diagnostics.New(diagnostics.ErrExpectedArray, idx, names.Range{}, "%s is not an array", at))
		}
		t = types.Int{}

	case it.Op == opcode.OpArrayGenerator:
		lt := w.infer(it.Operands[1], e)
		w.requireInt(lt, "array length", idx)
		elem := w.infer(it.Operands[2], e)
		t = types.Array{Element: elem}

	case it.Op == opcode.OpArrayInit:
		elems := resolve.Tuple(w.h, it.Operands[1])
		var elemT types.Type = types.Any{}
		for i, v := range elems {
			vt := w.infer(v, e)
			if i == 0 {
				elemT = vt
			} else {
				elemT = types.NewUnion(elemT, vt)
			}
		}
		t = types.Array{Element: elemT}

	case it.Op == opcode.OpArrayRange:
		st := w.infer(it.Operands[1], e)
		et := w.infer(it.Operands[2], e)
		w.requireInt(st, "range start", idx)
		w.requireInt(et, "range end", idx)
		t = types.Array{Element: types.Int{}}

	case it.Op == opcode.OpInvoke:
		t = w.inferInvoke(idx, it, e)

	case it.Op == opcode.OpIndirectInvoke:
		ct := w.infer(it.Operands[1], e)
		for _, lt := range resolve.Tuple(w.h, it.Operands[2]) {
			w.infer(lt, e)
		}
		args := resolve.Tuple(w.h, it.Operands[3])
		fn, ok := underlyingFunction(ct, w.env)
		if !ok {
			w.col.Add(diagnostics.New(diagnostics.ErrExpectedLambda, idx, names.Range{}, "%s is not callable", ct))
			t = types.Any{}
			break
		}
		w.checkArgs(args, fn.Params, e)
		t = tupleType(fn.Returns)

	default:
		t = resolve.BuildType(w.h, it.Operands[0], nil)
	}

	w.types[idx] = t
	return t
}

func (w *walker) requireInt(t types.Type, what string, subject heap.Index) {
	if t == nil {
		return
	}
	if !types.IsSubtypeIn(t, types.Int{}, w.env) {
		w.col.Add(diagnostics.New(diagnostics.ErrSubtypeError, subject, names.Range{}, "%s must be int, got %s", what, t))
	}
}

func (w *walker) inferInvoke(idx heap.Index, it heap.Item, e branchEnv) types.Type {
	args := resolve.Tuple(w.h, it.Operands[3])
	target, ok := w.resolved.Target(it.Operands[1])
	if !ok {
		for _, a := range args {
			w.infer(a, e)
		}
		return types.Any{}
	}
	decl := w.h.Get(target)
	var params []heap.Index
	var returns []heap.Index
	switch decl.Op {
	case opcode.OpFunction, opcode.OpMethod:
		params = resolve.Tuple(w.h, decl.Operands[3])
		returns = resolve.Tuple(w.h, decl.Operands[4])
	default:
		for _, a := range args {
			w.infer(a, e)
		}
		return types.Any{}
	}
	if len(args) < len(params) {
		w.col.Add(diagnostics.New(diagnostics.ErrInsufficientArguments, idx, names.Range{},
			"call to %s has too few arguments", decodeName(w.h, it.Operands[1])))
	}
	var paramTypes []types.Type
	for _, p := range params {
		pd := w.h.Get(p)
		paramTypes = append(paramTypes, resolve.BuildType(w.h, pd.Operands[2], nil))
	}
	w.checkArgs(args, paramTypes, e)

	var retTypes []types.Type
	for _, r := range returns {
		rd := w.h.Get(r)
		retTypes = append(retTypes, resolve.BuildType(w.h, rd.Operands[2], nil))
	}
	return tupleType(retTypes)
}

func (w *walker) checkArgs(args []heap.Index, params []types.Type, e branchEnv) {
	for i, a := range args {
		at := w.infer(a, e)
		if i < len(params) {
			w.checkCoercion(at, params[i], a)
		}
	}
}

func tupleType(ts []types.Type) types.Type {
	switch len(ts) {
	case 0:
		return types.Void{}
	case 1:
		return ts[0]
	default:
		return types.NewUnion(ts...)
	}
}

func underlyingReference(t types.Type, env *types.Environment) (types.Reference, bool) {
	t = expand(t, env)
	r, ok := t.(types.Reference)
	return r, ok
}

func underlyingRecord(t types.Type, env *types.Environment) (types.Record, bool) {
	t = expand(t, env)
	r, ok := t.(types.Record)
	return r, ok
}

func underlyingArray(t types.Type, env *types.Environment) (types.Array, bool) {
	t = expand(t, env)
	a, ok := t.(types.Array)
	return a, ok
}

func underlyingFunction(t types.Type, env *types.Environment) (types.Function, bool) {
	t = expand(t, env)
	switch f := t.(type) {
	case types.Function:
		return f, true
	case types.Method:
		return f.Strip(), true
	default:
		return types.Function{}, false
	}
}

// expand resolves a Nominal alias to its underlying shape so field,
// index, deref, and call checks see through type aliases the way
// spec.md §4.2.2's subtyping rule already does.
func expand(t types.Type, env *types.Environment) types.Type {
	switch v := t.(type) {
	case types.Nominal:
		underlying, ok := types.Expand(env, v)
		if !ok {
			return t
		}
		return expand(underlying, env)
	case types.Recursive:
		return expand(v.Unfold(), env)
	default:
		return t
	}
}

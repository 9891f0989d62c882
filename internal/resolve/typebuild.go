package resolve

import (
	"strconv"

	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/types"
)

// BuildType reads the type item at idx off the heap and returns the
// types.Type it denotes (spec.md §3.3). ancestors maps an enclosing
// OpTypeRecord/OpTypeUnion/... item's index to the Recursive.Var name
// already chosen for it, so an OpTypeRecursive back-reference resolves
// to a bound Variable instead of re-walking the heap into a cycle —
// mirroring how subtype.go's emptyCtx guards against cycles with a
// seenPair set, but here keyed by heap index since that's the natural
// identity a back-reference already carries.
func BuildType(h *heap.Heap, idx heap.Index, ancestors map[heap.Index]string) types.Type {
	it := h.Get(idx)
	switch it.Op {
	case opcode.OpTypeAny:
		return types.Any{}
	case opcode.OpTypeVoid:
		return types.Void{}
	case opcode.OpTypeNull:
		return types.Null{}
	case opcode.OpTypeBool:
		return types.Bool{}
	case opcode.OpTypeByte:
		return types.Byte{}
	case opcode.OpTypeInt:
		return types.Int{}

	case opcode.OpTypeArray:
		return types.Array{Element: BuildType(h, it.Operands[0], ancestors)}

	case opcode.OpTypeRecord:
		open := len(it.Data) == 1 && it.Data[0] != 0
		fieldIdxs := Tuple(h, it.Operands[0])
		fields := make([]types.Field, len(fieldIdxs))
		for i, fi := range fieldIdxs {
			f := h.Get(fi)
			fields[i] = types.Field{
				Name: string(f.Data),
				Type: BuildType(h, f.Operands[0], ancestors),
			}
		}
		return types.NewRecord(open, fields...)

	case opcode.OpTypeReference:
		return types.Reference{Target: BuildType(h, it.Operands[0], ancestors)}

	case opcode.OpTypeReferenceLife:
		return types.Reference{
			Target:   BuildType(h, it.Operands[0], ancestors),
			Lifetime: string(it.Data),
		}

	case opcode.OpTypeFunction:
		return types.Function{
			Params:  buildTypeTuple(h, it.Operands[0], ancestors),
			Returns: buildTypeTuple(h, it.Operands[1], ancestors),
		}

	case opcode.OpTypeMethod:
		return types.Method{
			Params:            buildTypeTuple(h, it.Operands[0], ancestors),
			Returns:           buildTypeTuple(h, it.Operands[1], ancestors),
			CapturedLifetimes: buildIdentTuple(h, it.Operands[2]),
			LifetimeParams:    buildIdentTuple(h, it.Operands[3]),
		}

	case opcode.OpTypeProperty:
		params := buildTypeTuple(h, it.Operands[0], ancestors)
		var ret types.Type = types.Void{}
		if len(params) > 0 {
			ret = params[len(params)-1]
			params = params[:len(params)-1]
		}
		return types.Property{Params: params, Returns: ret}

	case opcode.OpTypeUnion:
		members := buildTypeTuple(h, it.Operands[0], ancestors)
		anyMembers := make([]types.Type, len(members))
		copy(anyMembers, members)
		return types.NewUnion(anyMembers...)

	case opcode.OpTypeNominal:
		link := h.Get(it.Operands[0])
		name := names.ParseQualifiedName(string(link.Data))
		argIdxs := Tuple(h, it.Operands[1])
		args := make([]types.Type, len(argIdxs))
		for i, ai := range argIdxs {
			args[i] = BuildType(h, ai, ancestors)
		}
		return types.Nominal{Name: name, Args: args}

	case opcode.OpTypeRecursive:
		if back, ok := heap.DecodeIndex(it.Data); ok {
			if v, ok := ancestors[back]; ok {
				return types.Variable{Name: v}
			}
		}
		return types.Void{}

	case opcode.OpTypeVariable:
		return types.Variable{Name: string(it.Data)}

	default:
		return types.Any{}
	}
}

// buildTypeTuple reads an OpTuple of type items.
func buildTypeTuple(h *heap.Heap, tupleIdx heap.Index, ancestors map[heap.Index]string) []types.Type {
	idxs := Tuple(h, tupleIdx)
	out := make([]types.Type, len(idxs))
	for i, ti := range idxs {
		out[i] = BuildType(h, ti, ancestors)
	}
	return out
}

// buildIdentTuple reads an OpTuple of OpName leaves as plain strings
// (used for lifetime-name tuples, which carry no further structure).
func buildIdentTuple(h *heap.Heap, tupleIdx heap.Index) []string {
	idxs := Tuple(h, tupleIdx)
	out := make([]string, len(idxs))
	for i, ni := range idxs {
		out[i] = string(h.Get(ni).Data)
	}
	return out
}

// Environment builds a types.Environment whose ExpandNominal resolves a
// Nominal's name against this Namespace's TypeAlias declarations,
// substituting positionally-named template variables ("$0", "$1", ...,
// matching types.Environment's templateVarName convention) for the
// alias's own declared template parameters before handing the
// underlying type back to the caller — Nominal.Substitute in
// internal/types then applies the caller's actual type arguments.
func (ns *Namespace) Environment() *types.Environment {
	return &types.Environment{
		ExpandNominal: ns.expandNominal,
		Lifetimes:     buildLifetimeRelation(ns.h, ns),
	}
}

func (ns *Namespace) expandNominal(name names.QualifiedName) (types.Type, bool) {
	entries := ns.declByQualifiedName(name, KindType)
	if len(entries) != 1 {
		return nil, false
	}
	alias := ns.h.Get(entries[0].Index)
	if alias.Op != opcode.OpTypeAlias || len(alias.Operands) < 5 {
		return nil, false
	}
	templateParams := Tuple(ns.h, alias.Operands[2])
	underlyingIdx := alias.Operands[3]
	// Operand 3 is the alias's underlying variable; its own type operand
	// is the type the alias denotes.
	if v := ns.h.Get(underlyingIdx); (v.Op == opcode.OpVariable || v.Op == opcode.OpVariableInit) && len(v.Operands) >= 3 {
		underlyingIdx = v.Operands[2]
	}
	renamed := map[string]types.Type{}
	for i, p := range templateParams {
		orig := string(ns.h.Get(p).Data)
		renamed[orig] = types.Variable{Name: positionalVar(i)}
	}
	underlying := BuildType(ns.h, underlyingIdx, nil)
	if len(renamed) > 0 {
		underlying = underlying.Substitute(types.NewSubst(renamed))
	}
	return underlying, true
}

func positionalVar(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "$" + string(digits[i])
	}
	return "$" + strconv.Itoa(i)
}

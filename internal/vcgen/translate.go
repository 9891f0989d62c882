package vcgen

import (
	"fmt"
	"math/big"

	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/version"
)

// UnaryOp covers the unary operators the binary-focused Formula set
// above doesn't already have a dedicated node for: bitwise complement
// and pointer dereference.
type UnaryOp struct {
	Op      string // "~", "*"
	Operand Formula
}

func (f UnaryOp) String() string { return f.Op + f.Operand.String() }

// TypeTest is the translation of an `is` expression (spec.md §3.4).
type TypeTest struct {
	Expr     Formula
	TypeName string
}

func (f TypeTest) String() string { return f.Expr.String() + " is " + f.TypeName }

// translator carries the per-callable context translate needs: the
// heap, this callable's Use-version map, and the whole module's
// resolved Link targets (for naming an Invoke's callee).
type translator struct {
	h        *heap.Heap
	fr       *version.FuncResult
	resolved *resolve.Result
}

var binOpSymbol = map[opcode.Opcode]string{
	opcode.OpEqual:        "==",
	opcode.OpNotEqual:     "!=",
	opcode.OpLess:         "<",
	opcode.OpLessEqual:    "<=",
	opcode.OpGreater:      ">",
	opcode.OpGreaterEqual: ">=",
	opcode.OpAdd:          "+",
	opcode.OpSub:          "-",
	opcode.OpMul:          "*",
	opcode.OpQuo:          "/",
	opcode.OpRem:          "%",
	opcode.OpBitAnd:       "&",
	opcode.OpBitOr:        "|",
	opcode.OpBitXor:       "^",
	opcode.OpShl:          "<<",
	opcode.OpShr:          ">>",
}

// translate converts the expression at idx into a Formula.
func (t *translator) translate(idx heap.Index) Formula {
	it := t.h.Get(idx)

	if sym, ok := binOpSymbol[it.Op]; ok {
		return BinOp{Op: sym, Left: t.translate(it.Operands[1]), Right: t.translate(it.Operands[2])}
	}

	switch it.Op {
	case opcode.OpVarAccessCopy, opcode.OpVarAccessMove, opcode.OpStaticVarAccess:
		name := varName(t.h, it.Operands[1])
		v, _ := t.fr.Use[idx]
		return Var{Name: name, Version: v}

	case opcode.OpConstant:
		return t.translateConstant(it)

	case opcode.OpCast:
		return t.translate(it.Operands[1])

	case opcode.OpNot:
		return Not{Operand: t.translate(it.Operands[1])}
	case opcode.OpAnd:
		return And{Left: t.translate(it.Operands[1]), Right: t.translate(it.Operands[2])}
	case opcode.OpOr:
		return Or{Left: t.translate(it.Operands[1]), Right: t.translate(it.Operands[2])}
	case opcode.OpImplies:
		return Implies{Left: t.translate(it.Operands[1]), Right: t.translate(it.Operands[2])}
	case opcode.OpIff:
		return Iff{Left: t.translate(it.Operands[1]), Right: t.translate(it.Operands[2])}

	case opcode.OpForall, opcode.OpExists:
		bound := make([]BoundVar, 0)
		for _, bv := range resolve.Tuple(t.h, it.Operands[1]) {
			bound = append(bound, BoundVar{Name: varName(t.h, bv), Sort: "int"})
		}
		body := t.translate(it.Operands[2])
		if it.Op == opcode.OpForall {
			return Forall{Bound: bound, Body: body}
		}
		return Exists{Bound: bound, Body: body}

	case opcode.OpIs:
		testType := resolve.BuildType(t.h, it.Operands[2], nil)
		return TypeTest{Expr: t.translate(it.Operands[1]), TypeName: testType.String()}

	case opcode.OpBitNot:
		return UnaryOp{Op: "~", Operand: t.translate(it.Operands[1])}
	case opcode.OpDeref:
		return UnaryOp{Op: "*", Operand: t.translate(it.Operands[1])}

	case opcode.OpRecordAccess, opcode.OpRecordBorrow:
		return FieldAccess{Record: t.translate(it.Operands[1]), Field: string(it.Data)}

	case opcode.OpArrayAccess, opcode.OpArrayBorrow:
		return Index{Array: t.translate(it.Operands[1]), At: t.translate(it.Operands[2])}

	case opcode.OpArrayLength:
		return Call{Func: "len", Args: []Formula{t.translate(it.Operands[1])}}

	case opcode.OpInvoke:
		return t.translateInvoke(it)

	case opcode.OpLambdaAccess:
		return Var{Name: varName(t.h, it.Operands[1]), Version: 0}

	default:
		// Anything else (array init/generator/range, new, record init,
		// indirect invoke) is a constructed value with no obligation of
		// its own; represent it opaquely as an uninterpreted call on
		// its operands so Γ can still mention it syntactically.
		var args []Formula
		for _, op := range it.Operands[1:] {
			child := t.h.Get(op)
			if isExprOpcode(child.Op) {
				args = append(args, t.translate(op))
			}
		}
		name := "?"
		if s, ok := opcode.Lookup(it.Op); ok {
			name = s.Name
		}
		return Call{Func: name, Args: args}
	}
}

func (t *translator) translateInvoke(it heap.Item) Formula {
	name := "<unresolved>"
	if target, ok := t.resolved.Target(it.Operands[1]); ok {
		if n, ok := resolve.DeclName(t.h, target); ok {
			name = n.String()
		}
	}
	var args []Formula
	for _, a := range resolve.Tuple(t.h, it.Operands[3]) {
		args = append(args, t.translate(a))
	}
	return Call{Func: name, Args: args}
}

func (t *translator) translateConstant(it heap.Item) Formula {
	typ := t.h.Get(it.Operands[0])
	switch typ.Op {
	case opcode.OpTypeBool:
		return BoolConst{Value: len(it.Data) == 1 && it.Data[0] != 0}
	case opcode.OpTypeNull:
		return NullConst{}
	default:
		n := new(big.Int).SetBytes(it.Data)
		if len(it.Data) > 0 && it.Data[0]&0x80 != 0 {
			// Two's-complement negative (spec.md §6.1): the magnitude
			// read above is wrong for negatives, so reinterpret.
			full := new(big.Int).Lsh(big.NewInt(1), uint(len(it.Data)*8))
			n.Sub(n, full)
		}
		return IntConst{Value: n.Int64()}
	}
}

func varName(h *heap.Heap, declIdx heap.Index) string {
	if name, ok := resolve.DeclName(h, declIdx); ok {
		return name.String()
	}
	return fmt.Sprintf("$v%d", declIdx)
}

func isExprOpcode(op opcode.Opcode) bool {
	return op >= opcode.OpVarAccessCopy && op <= opcode.OpArrayRange
}

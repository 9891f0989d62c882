// Builder helpers construct *heap.Heap values directly, standing in for
// the external.Parser no test here can depend on (spec.md §1 places
// surface syntax out of core scope). heap.Allocate rejects forward
// references (internal/heap/heap.go), so every method below returns an
// already-sealed item's Index and callers compose bottom-up, exactly
// the discipline a real encoder would follow.
package testutil

import (
	"math/big"

	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
)

// Builder accumulates items onto one heap in allocation order.
type Builder struct {
	H *heap.Heap
}

// NewBuilder returns a Builder over a fresh, empty heap.
func NewBuilder() *Builder {
	return &Builder{H: heap.New()}
}

// must panics on an Allocate error — every error Allocate can return
// (bad arity, forward reference) is a bug in the builder call sequence
// itself, not a runtime condition a test needs to handle.
func (b *Builder) must(idx heap.Index, err error) heap.Index {
	if err != nil {
		panic(err)
	}
	return idx
}

func (b *Builder) alloc(op opcode.Opcode, operands []heap.Index, data []byte) heap.Index {
	return b.must(b.H.Allocate(op, operands, data))
}

// Name allocates an OpName leaf.
func (b *Builder) Name(s string) heap.Index {
	return b.alloc(opcode.OpName, nil, []byte(s))
}

// Modifiers allocates an OpModifiers leaf from the given bits.
func (b *Builder) Modifiers(bits opcode.Modifier) heap.Index {
	return b.alloc(opcode.OpModifiers, nil, []byte{byte(bits)})
}

// Tuple allocates an OpTuple over the given elements, in order. An
// empty tuple is legal (ArityMany accepts zero operands).
func (b *Builder) Tuple(elems ...heap.Index) heap.Index {
	return b.alloc(opcode.OpTuple, elems, nil)
}

// --- types (spec.md §3.3) ---

func (b *Builder) TypeAny() heap.Index  { return b.alloc(opcode.OpTypeAny, nil, nil) }
func (b *Builder) TypeVoid() heap.Index { return b.alloc(opcode.OpTypeVoid, nil, nil) }
func (b *Builder) TypeNull() heap.Index { return b.alloc(opcode.OpTypeNull, nil, nil) }
func (b *Builder) TypeBool() heap.Index { return b.alloc(opcode.OpTypeBool, nil, nil) }
func (b *Builder) TypeByte() heap.Index { return b.alloc(opcode.OpTypeByte, nil, nil) }
func (b *Builder) TypeInt() heap.Index  { return b.alloc(opcode.OpTypeInt, nil, nil) }

func (b *Builder) TypeArray(elem heap.Index) heap.Index {
	return b.alloc(opcode.OpTypeArray, []heap.Index{elem}, nil)
}

// RecordField is one (name, type) pair used by TypeRecord.
type RecordField struct {
	Name string
	Type heap.Index
}

func (b *Builder) TypeRecord(open bool, fields ...RecordField) heap.Index {
	fieldIdxs := make([]heap.Index, len(fields))
	for i, f := range fields {
		fieldIdxs[i] = b.alloc(opcode.OpRecordField, []heap.Index{f.Type}, []byte(f.Name))
	}
	flag := byte(0)
	if open {
		flag = 1
	}
	return b.alloc(opcode.OpTypeRecord, []heap.Index{b.Tuple(fieldIdxs...)}, []byte{flag})
}

func (b *Builder) TypeReference(target heap.Index) heap.Index {
	return b.alloc(opcode.OpTypeReference, []heap.Index{target}, nil)
}

func (b *Builder) TypeUnion(members ...heap.Index) heap.Index {
	return b.alloc(opcode.OpTypeUnion, []heap.Index{b.Tuple(members...)}, nil)
}

// TypeNominal allocates a Link (unresolved name) and the Nominal type
// item referencing it. args may be empty for a non-generic alias.
func (b *Builder) TypeNominal(name string, args ...heap.Index) heap.Index {
	link := b.alloc(opcode.OpLink, nil, []byte(name))
	return b.alloc(opcode.OpTypeNominal, []heap.Index{link, b.Tuple(args...)}, nil)
}

// --- declarations (spec.md §3.2) ---

// Param is one (name, type) pair used by Function/Method/Property.
type Param struct {
	Name string
	Type heap.Index
}

// paramDecl allocates a bare OpVariable for one parameter.
func (b *Builder) paramDecl(p Param) heap.Index {
	return b.alloc(opcode.OpVariable, []heap.Index{b.Modifiers(0), b.Name(p.Name), p.Type}, nil)
}

// VariableDecl allocates an OpVariable — an uninitialised local,
// declared but not yet definitely assigned (spec.md §4.4.2's
// definite-assignment state starts false for this opcode, unlike
// VariableInitDecl).
func (b *Builder) VariableDecl(mods opcode.Modifier, name string, typ heap.Index) heap.Index {
	return b.alloc(opcode.OpVariable, []heap.Index{b.Modifiers(mods), b.Name(name), typ}, nil)
}

// Params allocates one OpVariable per entry, in order, so callers can
// build a function body against these declarations' indices before the
// enclosing OpFunction itself is allocated (heap.Allocate forbids
// forward references, so the body's statements — which reference these
// param declarations — must exist, and so must the declarations, before
// the Function item wrapping them all can be sealed).
func (b *Builder) Params(ps []Param) []heap.Index {
	out := make([]heap.Index, len(ps))
	for i, p := range ps {
		out[i] = b.paramDecl(p)
	}
	return out
}

// FunctionDecl allocates an OpFunction from already-built operand
// indices: paramIdxs/returnIdxs from Params, requires/ensures condition
// expressions built against them, and a body built against them too.
func (b *Builder) FunctionDecl(mods opcode.Modifier, name string, paramIdxs, returnIdxs, requires, ensures []heap.Index, body heap.Index) heap.Index {
	return b.alloc(opcode.OpFunction, []heap.Index{
		b.Modifiers(mods),
		b.Name(name),
		b.Tuple(), // template params: none of these fixtures are generic
		b.Tuple(paramIdxs...),
		b.Tuple(returnIdxs...),
		b.Tuple(requires...),
		b.Tuple(ensures...),
		body,
	}, nil)
}

// StaticVarDecl allocates an OpStaticVar.
func (b *Builder) StaticVarDecl(mods opcode.Modifier, name string, typ, init heap.Index) heap.Index {
	return b.alloc(opcode.OpStaticVar, []heap.Index{b.Modifiers(mods), b.Name(name), typ, init}, nil)
}

// TypeAliasDecl allocates an OpTypeAlias with no template parameters.
func (b *Builder) TypeAliasDecl(mods opcode.Modifier, name string, underlying heap.Index, invariants ...heap.Index) heap.Index {
	return b.alloc(opcode.OpTypeAlias, []heap.Index{
		b.Modifiers(mods),
		b.Name(name),
		b.Tuple(),
		underlying,
		b.Tuple(invariants...),
	}, nil)
}

// UnitDecl allocates an OpUnit with the given top-level declarations.
func (b *Builder) UnitDecl(name string, decls ...heap.Index) heap.Index {
	return b.alloc(opcode.OpUnit, []heap.Index{b.Name(name), b.Tuple(decls...)}, nil)
}

// Module allocates the OpModule root and sets it as the heap's root.
func (b *Builder) Module(name string, units ...heap.Index) heap.Index {
	idx := b.alloc(opcode.OpModule, []heap.Index{
		b.Name(name),
		b.Tuple(units...),
		b.Tuple(), // extern units: none of these fixtures cross a module boundary
		b.Tuple(), // attached diagnostics: none at construction time
	}, nil)
	if err := b.H.SetRoot(idx); err != nil {
		panic(err)
	}
	return idx
}

// --- statements (spec.md §3.4) ---

func (b *Builder) Block(stmts ...heap.Index) heap.Index {
	return b.alloc(opcode.OpBlock, []heap.Index{b.Tuple(stmts...)}, nil)
}

func (b *Builder) Assert(cond heap.Index) heap.Index {
	return b.alloc(opcode.OpAssert, []heap.Index{cond}, nil)
}

func (b *Builder) Assume(cond heap.Index) heap.Index {
	return b.alloc(opcode.OpAssume, []heap.Index{cond}, nil)
}

func (b *Builder) Assign(lhs, rhs []heap.Index) heap.Index {
	return b.alloc(opcode.OpAssign, []heap.Index{b.Tuple(lhs...), b.Tuple(rhs...)}, nil)
}

func (b *Builder) Skip() heap.Index     { return b.alloc(opcode.OpSkip, nil, nil) }
func (b *Builder) Break() heap.Index    { return b.alloc(opcode.OpBreak, nil, nil) }
func (b *Builder) Continue() heap.Index { return b.alloc(opcode.OpContinue, nil, nil) }
func (b *Builder) Fail() heap.Index     { return b.alloc(opcode.OpFail, nil, nil) }

func (b *Builder) IfElse(cond, then, els heap.Index) heap.Index {
	return b.alloc(opcode.OpIfElse, []heap.Index{cond, then, els}, nil)
}

func (b *Builder) Return(values ...heap.Index) heap.Index {
	return b.alloc(opcode.OpReturn, []heap.Index{b.Tuple(values...)}, nil)
}

// While allocates an OpWhile. modified is normally left empty: spec.md
// §3.4 has the external parser leave this tuple empty, for
// internal/version's modifiedVars to compute by walking body itself —
// the parameter exists only for a caller that wants to simulate an
// already-annotated binary.
func (b *Builder) While(cond, invariantsTuple, body heap.Index, modified ...heap.Index) heap.Index {
	return b.alloc(opcode.OpWhile, []heap.Index{cond, invariantsTuple, body, b.Tuple(modified...)}, nil)
}

func (b *Builder) VarDeclStmt(decl heap.Index) heap.Index {
	return b.alloc(opcode.OpVarDeclStmt, []heap.Index{decl}, nil)
}

// VariableInitDecl allocates an OpVariableInit (a local `var` with an
// initializer), for use with VarDeclStmt.
func (b *Builder) VariableInitDecl(mods opcode.Modifier, name string, typ, init heap.Index) heap.Index {
	return b.alloc(opcode.OpVariableInit, []heap.Index{b.Modifiers(mods), b.Name(name), typ, init}, nil)
}

// --- expressions (spec.md §3.4); operand[0] is always the result type ---

func (b *Builder) VarAccessCopy(typ, decl heap.Index) heap.Index {
	return b.alloc(opcode.OpVarAccessCopy, []heap.Index{typ, decl}, nil)
}

func (b *Builder) StaticVarAccess(typ, decl heap.Index) heap.Index {
	return b.alloc(opcode.OpStaticVarAccess, []heap.Index{typ, decl}, nil)
}

// IntConst allocates an OpConstant of type int, encoding v as the
// minimal-width two's-complement big-endian byte string
// internal/vcgen's translator decodes.
func (b *Builder) IntConst(v int64) heap.Index {
	return b.alloc(opcode.OpConstant, []heap.Index{b.TypeInt()}, encodeSignedInt(v))
}

// BoolConst allocates an OpConstant of type bool.
func (b *Builder) BoolConst(v bool) heap.Index {
	data := []byte{0}
	if v {
		data[0] = 1
	}
	return b.alloc(opcode.OpConstant, []heap.Index{b.TypeBool()}, data)
}

func encodeSignedInt(v int64) []byte {
	n := big.NewInt(v)
	if v >= 0 {
		if v == 0 {
			return []byte{0}
		}
		bs := n.Bytes()
		if bs[0]&0x80 != 0 {
			bs = append([]byte{0}, bs...)
		}
		return bs
	}
	// Two's complement: find the smallest byte width whose top bit,
	// once set, represents v.
	width := 1
	for {
		full := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
		twos := new(big.Int).Add(n, full)
		if twos.BitLen() < width*8 {
			bs := twos.Bytes()
			for len(bs) < width {
				bs = append([]byte{0}, bs...)
			}
			return bs
		}
		width++
	}
}

func (b *Builder) binOp(op opcode.Opcode, typ, lhs, rhs heap.Index) heap.Index {
	return b.alloc(op, []heap.Index{typ, lhs, rhs}, nil)
}

func (b *Builder) Add(typ, lhs, rhs heap.Index) heap.Index          { return b.binOp(opcode.OpAdd, typ, lhs, rhs) }
func (b *Builder) Sub(typ, lhs, rhs heap.Index) heap.Index          { return b.binOp(opcode.OpSub, typ, lhs, rhs) }
func (b *Builder) GreaterEqual(typ, lhs, rhs heap.Index) heap.Index { return b.binOp(opcode.OpGreaterEqual, typ, lhs, rhs) }
func (b *Builder) Less(typ, lhs, rhs heap.Index) heap.Index         { return b.binOp(opcode.OpLess, typ, lhs, rhs) }
func (b *Builder) LessEqual(typ, lhs, rhs heap.Index) heap.Index    { return b.binOp(opcode.OpLessEqual, typ, lhs, rhs) }
func (b *Builder) And(typ, lhs, rhs heap.Index) heap.Index          { return b.binOp(opcode.OpAnd, typ, lhs, rhs) }

func (b *Builder) Not(typ, operand heap.Index) heap.Index {
	return b.alloc(opcode.OpNot, []heap.Index{typ, operand}, nil)
}

func (b *Builder) RecordInit(typ heap.Index, fields []RecordField, values []heap.Index) heap.Index {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	data := []byte(joinZero(names))
	return b.alloc(opcode.OpRecordInit, []heap.Index{typ, b.Tuple(values...)}, data)
}

func joinZero(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "\x00"
		}
		out += s
	}
	return out
}

func (b *Builder) ArrayAccess(typ, array, index heap.Index) heap.Index {
	return b.alloc(opcode.OpArrayAccess, []heap.Index{typ, array, index}, nil)
}

func (b *Builder) ArrayLength(typ, array heap.Index) heap.Index {
	return b.alloc(opcode.OpArrayLength, []heap.Index{typ, array}, nil)
}

func (b *Builder) ArrayInit(typ heap.Index, elems ...heap.Index) heap.Index {
	return b.alloc(opcode.OpArrayInit, []heap.Index{typ, b.Tuple(elems...)}, nil)
}

// Invoke allocates a Link (unresolved callable name) plus its Invoke
// expression. binding is left as a freshly-allocated, uncached
// OpBinding — internal/resolve re-resolves the Invoke's own Link
// operand directly (it never reads a Binding's cached type during
// resolution), so an empty binding is a legal placeholder here.
func (b *Builder) Invoke(typ heap.Index, calleeName string, args ...heap.Index) heap.Index {
	link := b.alloc(opcode.OpLink, nil, []byte(calleeName))
	bindingLink := b.alloc(opcode.OpLink, nil, []byte(calleeName))
	binding := b.alloc(opcode.OpBinding, []heap.Index{bindingLink, b.Tuple()}, []byte{})
	return b.alloc(opcode.OpInvoke, []heap.Index{typ, link, binding, b.Tuple(args...)}, nil)
}

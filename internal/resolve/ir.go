// Package resolve implements the Name Resolver of spec.md §4.3: given
// an unresolved Link item and its enclosing unit's import list, find
// the unique target declaration the name refers to, or report
// AmbiguousName/NameNotFound. It also owns the heap→types.Type bridge
// (typebuild.go) other passes use to read a type item off the heap,
// since building a Nominal type's Environment (alias expansion, §4.2.2)
// requires exactly the declaration index this package already computed.
//
// Grounded on the teacher's internal/symbols scoped-lookup style (a
// table queried by name with an outer-scope fallback, internal/symbols/
// symbol_table_resolution.go) — generalized here from lexical scope
// nesting to the import-list shadowing order spec.md §4.3 specifies.
package resolve

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
)

// NameOf decodes an OpName leaf item's data payload (raw UTF-8 bytes,
// dot-joined for a qualified name) into a names.QualifiedName.
func NameOf(h *heap.Heap, idx heap.Index) names.QualifiedName {
	return names.ParseQualifiedName(string(h.Get(idx).Data))
}

// Tuple returns an OpTuple item's operand list — the "tuple of X"
// convention every multi-valued position in the heap uses (see
// internal/opcode's package doc).
func Tuple(h *heap.Heap, idx heap.Index) []heap.Index {
	return h.Get(idx).Operands
}

// nameOperandIndex is the operand position carrying a declaration's
// OpName, which every declaration opcode in spec.md §3.2 places
// immediately after its modifiers operand.
const nameOperandIndex = 1

// DeclName returns the qualified name of a top-level declaration item
// (StaticVar, TypeAlias, Function, Method, Property, Lambda, Variable,
// VariableInit), or ok=false for any other opcode.
func DeclName(h *heap.Heap, idx heap.Index) (names.QualifiedName, bool) {
	it := h.Get(idx)
	switch it.Op {
	case opcode.OpStaticVar, opcode.OpTypeAlias,
		opcode.OpFunction, opcode.OpMethod, opcode.OpProperty, opcode.OpLambda,
		opcode.OpVariable, opcode.OpVariableInit:
		return NameOf(h, it.Operands[nameOperandIndex]), true
	default:
		return nil, false
	}
}

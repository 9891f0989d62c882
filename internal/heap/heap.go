package heap

import (
	"fmt"

	"github.com/wyverify/wyverify/internal/opcode"
)

// noRoot marks a Heap whose root has not yet been set.
const noRoot Index = -1

// Heap is a content-addressed store of items (spec.md §3.1). The zero
// value is an empty heap with no root; use New for clarity.
type Heap struct {
	items []Item
	root  Index
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{root: noRoot}
}

// Len returns the number of allocated items, including unreachable ones.
func (h *Heap) Len() int { return len(h.items) }

// Allocate appends a new item, validating operands and data against
// op's schema, and returns its index. It never mutates an existing
// item (spec.md §3.1 "immutable once sealed").
func (h *Heap) Allocate(op opcode.Opcode, operands []Index, data []byte) (Index, error) {
	schema, ok := opcode.Lookup(op)
	if !ok {
		return noRoot, &UnknownOpcodeError{Op: int(op), Index: len(h.items)}
	}
	if !schema.MatchesOperandCount(len(operands)) {
		return noRoot, &SchemaMismatchError{
			Op:     op,
			Index:  len(h.items),
			Reason: fmt.Sprintf("got %d operands, schema wants %s", len(operands), schema.OperandArity),
		}
	}
	if schema.DataArity == opcode.DataZero && data != nil {
		return noRoot, &SchemaMismatchError{Op: op, Index: len(h.items), Reason: "schema forbids a data payload"}
	}
	if schema.DataArity == opcode.DataTwo && data == nil {
		return noRoot, &SchemaMismatchError{Op: op, Index: len(h.items), Reason: "schema requires a data payload"}
	}
	for _, ref := range operands {
		if ref < 0 || int(ref) >= len(h.items) {
			return noRoot, &CorruptBinaryError{Reason: fmt.Sprintf("operand index %d out of range (heap has %d items)", ref, len(h.items))}
		}
	}
	idx := Index(len(h.items))
	h.items = append(h.items, Item{Op: op, Operands: append([]Index(nil), operands...), Data: data})
	return idx, nil
}

// AllocateCyclic is the one escape hatch from the "no forward
// references" invariant: it allocates an OpTypeRecursive item whose
// data payload is the raw back-reference index (spec.md §3.3), which
// by construction always names an *earlier*, already-allocated
// ancestor item — so no actual forward reference is created; the index
// is simply not threaded through Operands because the writer's
// reachability sweep must not re-traverse into it as a normal edge
// (see binary.go).
func (h *Heap) AllocateCyclic(backRef Index) (Index, error) {
	if backRef < 0 || int(backRef) >= len(h.items) {
		return noRoot, &CorruptBinaryError{Reason: fmt.Sprintf("recursive back-reference %d out of range", backRef)}
	}
	return h.Allocate(opcode.OpTypeRecursive, nil, encodeIndex(backRef))
}

// ReplaceOperand mutates the i'th operand of the item at idx in place.
// It fails if i is out of the opcode's fixed arity, or (for ArityMany
// items) out of the item's current operand count. This never changes
// arity or opcode (spec.md §3.1).
func (h *Heap) ReplaceOperand(idx Index, i int, newRef Index) error {
	if idx < 0 || int(idx) >= len(h.items) {
		return &CorruptBinaryError{Reason: fmt.Sprintf("item index %d out of range", idx)}
	}
	it := &h.items[idx]
	if i < 0 || i >= len(it.Operands) {
		schema, _ := opcode.Lookup(it.Op)
		return &SchemaMismatchError{Op: it.Op, Index: int(idx), Reason: fmt.Sprintf("operand %d out of range for arity %s", i, schema.OperandArity)}
	}
	if newRef < 0 || int(newRef) >= len(h.items) {
		return &CorruptBinaryError{Reason: fmt.Sprintf("operand index %d out of range", newRef)}
	}
	it.Operands[i] = newRef
	return nil
}

// SetRoot designates idx as the heap's sole entry point.
func (h *Heap) SetRoot(idx Index) error {
	if idx < 0 || int(idx) >= len(h.items) {
		return &CorruptBinaryError{Reason: fmt.Sprintf("root index %d out of range", idx)}
	}
	h.root = idx
	return nil
}

// Root returns the root item and its index, or an error if unset.
func (h *Heap) Root() (Index, Item, error) {
	if h.root == noRoot {
		return noRoot, Item{}, &CorruptBinaryError{Reason: "heap has no root"}
	}
	return h.root, h.items[h.root], nil
}

// RootIndex returns the root index, or noRoot if unset, without error.
func (h *Heap) RootIndex() Index { return h.root }

// Get returns the item at idx.
func (h *Heap) Get(idx Index) Item { return h.items[idx] }

// ItemsOfKind returns the indices of every allocated item (reachable or
// not) whose opcode is op, in allocation order.
func (h *Heap) ItemsOfKind(op opcode.Opcode) []Index {
	var out []Index
	for i, it := range h.items {
		if it.Op == op {
			out = append(out, Index(i))
		}
	}
	return out
}

// Reachable returns the set of item indices reachable from the root by
// following operand references (spec.md §3.1's reachability invariant),
// treating OpTypeRecursive's back-reference as reachable too (it points
// to an ancestor that must stay alive, even though it isn't threaded
// through Operands).
func (h *Heap) Reachable() map[Index]bool {
	seen := make(map[Index]bool, len(h.items))
	if h.root == noRoot {
		return seen
	}
	var walk func(Index)
	walk = func(idx Index) {
		if seen[idx] {
			return
		}
		seen[idx] = true
		it := h.items[idx]
		for _, ref := range it.Operands {
			walk(ref)
		}
		if it.Op == opcode.OpTypeRecursive {
			if back, ok := decodeIndex(it.Data); ok {
				walk(back)
			}
		}
	}
	walk(h.root)
	return seen
}

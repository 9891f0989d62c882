// Package heap implements the content-addressed item store of spec.md
// §3.1/§4.1: an append-only sequence of opcode-tagged items with
// operand references and an optional data payload, a distinguished
// root, and a schema-driven binary reader/writer (§6.1).
package heap

import "github.com/wyverify/wyverify/internal/opcode"

// Index is a position within a Heap's item slice. The zero value is a
// valid index (item 0); use a negative value or Heap.Root()'s error
// return to represent "no root yet".
type Index int

// Item is one immutable (once sealed) node: an opcode, an ordered list
// of operand references, and an optional raw data payload.
//
// Item is a value type; Heap owns storage and hands out Index values,
// never pointers, so that sharing is always mediated by re-reading from
// the owning Heap (spec.md §3.4 "Ownership").
type Item struct {
	Op       opcode.Opcode
	Operands []Index
	Data     []byte // nil iff the opcode's schema has DataArity == DataZero
}

// HasData reports whether Data is meaningfully present (non-nil; an
// empty-but-non-nil byte slice is a legal zero-length payload).
func (it Item) HasData() bool { return it.Data != nil }

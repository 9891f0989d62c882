package heap

import (
	"fmt"

	"github.com/wyverify/wyverify/internal/opcode"
)

// SchemaMismatchError reports that a decoded or constructed item's
// operand count or data presence didn't match its opcode's schema
// (spec.md §4.1).
type SchemaMismatchError struct {
	Op     opcode.Opcode
	Index  int
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("item %d: opcode %s: %s", e.Index, nameOf(e.Op), e.Reason)
}

// CorruptBinaryError wraps any structural failure reading the binary
// format that isn't more specifically a SchemaMismatchError or
// TruncatedInputError (bad magic, bad version, bad CRC, out-of-range
// operand index).
type CorruptBinaryError struct {
	Reason string
}

func (e *CorruptBinaryError) Error() string { return "corrupt binary heap: " + e.Reason }

// TruncatedInputError reports that the stream ended before a complete
// item, pool entry, or footer could be read.
type TruncatedInputError struct {
	Section string
}

func (e *TruncatedInputError) Error() string {
	return "truncated binary heap input in " + e.Section
}

// UnknownOpcodeError reports an opcode varint with no schema row.
type UnknownOpcodeError struct {
	Op    int
	Index int
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("item %d: unknown opcode %d", e.Index, e.Op)
}

func nameOf(op opcode.Opcode) string {
	if s, ok := opcode.Lookup(op); ok {
		return s.Name
	}
	return "?"
}

package heap

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wyverify/wyverify/internal/opcode"
)

// Binary format (spec.md §6.1):
//
//	magic   "WI"
//	version byte, currently 1
//	pool    varint(count), count * (varint(len) bytes)
//	items   varint(count), count * item record
//	footer  varint(rootIndex) uint32-LE(crc32 of pool||items bytes)
//
// An item record is:
//
//	varint(opcode)
//	[varint(operandCount) if the opcode's arity class is "many"]
//	operandCount * varint(operand index)
//	[varint(poolIndex) if the opcode's data-arity class is "two"]
//
// Every item's operand and pool-index references name strictly earlier
// entries: Write renumbers the heap into a post-order traversal from
// the root (root last), so a reader can allocate items in file order
// directly into a Heap and have every reference already resolved. This
// also deduplicates equal data payloads into a single pool slot,
// resolving spec.md §6.1's nominal tension between "every item may
// carry inline data" and "there is a separate constant pool": every
// data payload, poolable or not, is written as a pool index — there is
// no per-opcode special-casing of which items get pooled.
//
// OpTypeRecursive's back-reference is the one data payload that can
// name a *later*-in-file item (it points up the stack to an ancestor
// that post-order numbering necessarily finishes after its
// descendants). Write resolves this with a two-pass numbering: the
// full old-to-new index map is built before any item is serialized, so
// by the time a recursive item's back-reference bytes are translated
// and pooled, its target's new index is already known even though that
// target itself is written later in the file.

var magic = [2]byte{'W', 'I'}

const version = 1

// Write renumbers h into a canonical post-order layout and serializes
// it in the binary format described above.
func Write(h *Heap, w io.Writer) error {
	root := h.RootIndex()
	if root < 0 {
		return &CorruptBinaryError{Reason: "cannot write a heap with no root"}
	}

	order, oldToNew := topoOrder(h, root)

	poolIndex := map[string]int{}
	var pool [][]byte
	internPool := func(data []byte) uint64 {
		key := string(data)
		if i, ok := poolIndex[key]; ok {
			return uint64(i)
		}
		i := len(pool)
		poolIndex[key] = i
		pool = append(pool, data)
		return uint64(i)
	}

	// Pass 1 is already done by topoOrder (oldToNew is complete), so
	// every item's data, including a recursive back-reference, can be
	// translated and pooled in file order during pass 2.
	translate := func(old Index, it Item) []byte {
		if it.Op != opcode.OpTypeRecursive {
			return it.Data
		}
		back, ok := decodeIndex(it.Data)
		if !ok {
			return it.Data
		}
		newBack, ok := oldToNew[back]
		if !ok {
			return it.Data
		}
		return encodeIndex(newBack)
	}

	var body []byte
	for _, old := range order {
		it := h.Get(old)
		schema, ok := opcode.Lookup(it.Op)
		if !ok {
			return &UnknownOpcodeError{Op: int(it.Op), Index: int(old)}
		}
		if schema.DataArity == opcode.DataTwo {
			internPool(translate(old, it))
		}
	}

	body = protowire.AppendVarint(body, uint64(len(pool)))
	for _, data := range pool {
		body = protowire.AppendVarint(body, uint64(len(data)))
		body = append(body, data...)
	}

	body = protowire.AppendVarint(body, uint64(len(order)))
	for _, old := range order {
		it := h.Get(old)
		schema, _ := opcode.Lookup(it.Op)
		body = protowire.AppendVarint(body, uint64(it.Op))
		if schema.OperandArity == opcode.ArityMany {
			body = protowire.AppendVarint(body, uint64(len(it.Operands)))
		}
		for _, ref := range it.Operands {
			newRef, ok := oldToNew[ref]
			if !ok {
				return &CorruptBinaryError{Reason: "operand reference escapes reachable set"}
			}
			body = protowire.AppendVarint(body, uint64(newRef))
		}
		if schema.DataArity == opcode.DataTwo {
			poolIdx := uint64(poolIndex[string(translate(old, it))])
			body = protowire.AppendVarint(body, poolIdx)
		}
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{version}); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}

	footer := protowire.AppendVarint(nil, uint64(len(order)-1))
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc32.ChecksumIEEE(body))
	footer = append(footer, crcBuf[:]...)
	_, err := w.Write(footer)
	return err
}

// topoOrder returns a post-order traversal of the items reachable from
// root (root last) and the resulting old-to-new index map. Cycles
// (only possible through an OpTypeRecursive back-reference) are
// short-circuited: a node already on the current DFS path is treated
// as finished for ordering purposes without being re-visited.
func topoOrder(h *Heap, root Index) ([]Index, map[Index]Index) {
	const (
		unvisited = iota
		onStack
		done
	)
	state := map[Index]int{}
	var order []Index
	oldToNew := map[Index]Index{}

	var walk func(Index)
	walk = func(idx Index) {
		switch state[idx] {
		case done, onStack:
			return
		}
		state[idx] = onStack
		it := h.Get(idx)
		for _, ref := range it.Operands {
			walk(ref)
		}
		if it.Op == opcode.OpTypeRecursive {
			if back, ok := decodeIndex(it.Data); ok {
				if state[back] == unvisited {
					walk(back)
				}
			}
		}
		state[idx] = done
		oldToNew[idx] = Index(len(order))
		order = append(order, idx)
	}
	walk(root)
	return order, oldToNew
}

// Read parses the binary format written by Write into a fresh Heap.
func Read(r io.Reader) (*Heap, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < 3 {
		return nil, &TruncatedInputError{Section: "header"}
	}
	if raw[0] != magic[0] || raw[1] != magic[1] {
		return nil, &CorruptBinaryError{Reason: "bad magic"}
	}
	if raw[2] != version {
		return nil, &CorruptBinaryError{Reason: "unsupported version"}
	}
	body := raw[3:]

	pool, rest, err := readPool(body)
	if err != nil {
		return nil, err
	}
	items, footerStart, err := readItemRecords(rest)
	if err != nil {
		return nil, err
	}
	bodyConsumed := len(body) - len(footerStart)

	rootIdx, n := protowire.ConsumeVarint(footerStart)
	if n < 0 {
		return nil, &TruncatedInputError{Section: "footer root index"}
	}
	footerStart = footerStart[n:]
	if len(footerStart) < 4 {
		return nil, &TruncatedInputError{Section: "footer crc"}
	}
	wantCRC := binary.LittleEndian.Uint32(footerStart[:4])
	gotCRC := crc32.ChecksumIEEE(body[:bodyConsumed])
	if wantCRC != gotCRC {
		return nil, &CorruptBinaryError{Reason: "crc mismatch"}
	}

	h := New()
	for i, rec := range items {
		var data []byte
		schema, ok := opcode.Lookup(rec.op)
		if !ok {
			return nil, &UnknownOpcodeError{Op: int(rec.op), Index: i}
		}
		if schema.DataArity == opcode.DataTwo {
			if rec.poolIdx < 0 || rec.poolIdx >= len(pool) {
				return nil, &CorruptBinaryError{Reason: "pool index out of range"}
			}
			data = pool[rec.poolIdx]
		}
		idx, err := h.Allocate(rec.op, rec.operands, data)
		if err != nil {
			return nil, err
		}
		if int(idx) != i {
			return nil, &CorruptBinaryError{Reason: "item index sequence broken"}
		}
	}
	if int(rootIdx) >= len(items) {
		return nil, &CorruptBinaryError{Reason: "root index out of range"}
	}
	if err := h.SetRoot(Index(rootIdx)); err != nil {
		return nil, err
	}
	return h, nil
}

func readPool(b []byte) ([][]byte, []byte, error) {
	count, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return nil, nil, &TruncatedInputError{Section: "pool count"}
	}
	b = b[n:]
	pool := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		length, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, nil, &TruncatedInputError{Section: "pool entry length"}
		}
		b = b[n:]
		if uint64(len(b)) < length {
			return nil, nil, &TruncatedInputError{Section: "pool entry bytes"}
		}
		pool = append(pool, bytes.Clone(b[:length]))
		b = b[length:]
	}
	return pool, b, nil
}

type itemRecord struct {
	op       opcode.Opcode
	operands []Index
	poolIdx  int
}

func readItemRecords(b []byte) ([]itemRecord, []byte, error) {
	count, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return nil, nil, &TruncatedInputError{Section: "item count"}
	}
	b = b[n:]
	items := make([]itemRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		opVal, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, nil, &TruncatedInputError{Section: "item opcode"}
		}
		b = b[n:]
		op := opcode.Opcode(opVal)
		schema, ok := opcode.Lookup(op)
		if !ok {
			return nil, nil, &UnknownOpcodeError{Op: int(op), Index: int(i)}
		}

		operandCount, ok := schema.OperandArity.Fixed()
		if !ok {
			var cnt uint64
			cnt, n = protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, nil, &TruncatedInputError{Section: "item operand count"}
			}
			b = b[n:]
			operandCount = int(cnt)
		}
		operands := make([]Index, operandCount)
		for j := 0; j < operandCount; j++ {
			ref, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, nil, &TruncatedInputError{Section: "item operand"}
			}
			b = b[n:]
			operands[j] = Index(ref)
		}

		poolIdx := -1
		if schema.DataArity == opcode.DataTwo {
			var p uint64
			p, n = protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, nil, &TruncatedInputError{Section: "item pool index"}
			}
			b = b[n:]
			poolIdx = int(p)
		}

		items = append(items, itemRecord{op: op, operands: operands, poolIdx: poolIdx})
	}
	return items, b, nil
}

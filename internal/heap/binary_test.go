package heap_test

import (
	"bytes"
	"testing"

	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
)

func buildSimpleHeap(t *testing.T) *heap.Heap {
	t.Helper()
	h := heap.New()

	intType, err := h.Allocate(opcode.OpTypeInt, nil, nil)
	if err != nil {
		t.Fatalf("allocate int type: %v", err)
	}
	name, err := h.Allocate(opcode.OpName, nil, []byte("x"))
	if err != nil {
		t.Fatalf("allocate name: %v", err)
	}
	modifiers, err := h.Allocate(opcode.OpModifiers, nil, []byte{0})
	if err != nil {
		t.Fatalf("allocate modifiers: %v", err)
	}
	constant, err := h.Allocate(opcode.OpConstant, []heap.Index{intType}, []byte{1})
	if err != nil {
		t.Fatalf("allocate constant: %v", err)
	}
	variable, err := h.Allocate(opcode.OpVariableInit, []heap.Index{modifiers, name, intType, constant}, nil)
	if err != nil {
		t.Fatalf("allocate variable: %v", err)
	}
	if err := h.SetRoot(variable); err != nil {
		t.Fatalf("set root: %v", err)
	}
	return h
}

func TestRoundTrip(t *testing.T) {
	h := buildSimpleHeap(t)

	var buf bytes.Buffer
	if err := heap.Write(h, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	h2, err := heap.Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	rootIdx, rootItem, err := h2.Root()
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if rootItem.Op != opcode.OpVariableInit {
		t.Errorf("root op = %v, want OpVariableInit", rootItem.Op)
	}
	if int(rootIdx) != h2.Len()-1 {
		t.Errorf("root index %d is not the last item (%d)", rootIdx, h2.Len()-1)
	}

	reachable := h2.Reachable()
	if len(reachable) != h2.Len() {
		t.Errorf("round trip kept %d unreachable items (reachable=%d, total=%d)", h2.Len()-len(reachable), len(reachable), h2.Len())
	}
}

func TestRoundTripDedupesPool(t *testing.T) {
	h := heap.New()
	ty, _ := h.Allocate(opcode.OpTypeInt, nil, nil)
	a, err := h.Allocate(opcode.OpConstant, []heap.Index{ty}, []byte("same"))
	if err != nil {
		t.Fatalf("allocate a: %v", err)
	}
	b, err := h.Allocate(opcode.OpConstant, []heap.Index{ty}, []byte("same"))
	if err != nil {
		t.Fatalf("allocate b: %v", err)
	}
	pairOperands, err := h.Allocate(opcode.OpTuple, []heap.Index{a, b}, nil)
	if err != nil {
		t.Fatalf("allocate tuple: %v", err)
	}
	if err := h.SetRoot(pairOperands); err != nil {
		t.Fatalf("set root: %v", err)
	}

	var buf bytes.Buffer
	if err := heap.Write(h, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Bytes 0-2 are the magic and version; byte 3 is the pool count.
	if n := buf.Bytes()[3]; n != 1 {
		t.Errorf("pool holds %d entries, want 1 shared entry for the two equal payloads", n)
	}
	h2, err := heap.Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if h2.Len() != h.Len() {
		t.Errorf("item count changed across round trip: got %d, want %d", h2.Len(), h.Len())
	}
}

func TestAllocateRejectsSchemaMismatch(t *testing.T) {
	h := heap.New()
	if _, err := h.Allocate(opcode.OpTypeInt, []heap.Index{0}, nil); err == nil {
		t.Fatal("expected schema mismatch error for OpTypeInt with an operand")
	}
}

func TestAllocateRejectsForwardOperandReference(t *testing.T) {
	h := heap.New()
	if _, err := h.Allocate(opcode.OpBlock, []heap.Index{5}, nil); err == nil {
		t.Fatal("expected out-of-range error for a forward operand reference")
	}
}

func TestRecursiveBackReferenceSurvivesRoundTrip(t *testing.T) {
	h := heap.New()
	fieldsTuple, err := h.Allocate(opcode.OpTuple, nil, nil)
	if err != nil {
		t.Fatalf("allocate empty fields tuple: %v", err)
	}
	record, err := h.Allocate(opcode.OpTypeRecord, []heap.Index{fieldsTuple}, []byte{0})
	if err != nil {
		t.Fatalf("allocate record: %v", err)
	}
	back, err := h.AllocateCyclic(record)
	if err != nil {
		t.Fatalf("allocate cyclic: %v", err)
	}
	// back is the root: an isolated recursive reference to record, the
	// way a recursive type's own back-edge would appear nested inside a
	// larger structure whose root is further out.
	if err := h.SetRoot(back); err != nil {
		t.Fatalf("set root: %v", err)
	}

	var buf bytes.Buffer
	if err := heap.Write(h, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	h2, err := heap.Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	_, rootItem, err := h2.Root()
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if rootItem.Op != opcode.OpTypeRecursive {
		t.Fatalf("root op = %v, want OpTypeRecursive", rootItem.Op)
	}
}

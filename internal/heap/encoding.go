package heap

import "encoding/binary"

// encodeIndex/decodeIndex are the fixed-width encoding used for a
// recursive type's back-reference data payload (spec.md §3.3). Using a
// fixed width rather than a varint keeps AllocateCyclic's caller from
// having to know about protowire.
func encodeIndex(idx Index) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(idx))
	return buf
}

func decodeIndex(data []byte) (Index, bool) {
	return DecodeIndex(data)
}

// DecodeIndex decodes an OpTypeRecursive item's data payload into the
// back-reference Index it names. Exported so passes building a Type
// from a heap item (internal/resolve) can follow the back-reference
// without reimplementing the encoding.
func DecodeIndex(data []byte) (Index, bool) {
	if len(data) != 4 {
		return 0, false
	}
	return Index(binary.LittleEndian.Uint32(data)), true
}

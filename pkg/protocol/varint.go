package protocol

import "github.com/quic-go/quic-go/quicvarint"

// MaxVarint is the largest value a QUIC variable-length integer can carry.
const MaxVarint = quicvarint.Max

// MaxVarintLen is the maximum number of bytes a varint can occupy.
const MaxVarintLen = 8

// VarintLen returns the encoded size of v, or 0 if v exceeds MaxVarint.
func VarintLen(v uint64) int {
	if v > MaxVarint {
		return 0
	}
	return quicvarint.Len(v)
}

// varintClass returns the encoded size announced by the first byte of a
// varint.
func varintClass(first byte) int {
	return 1 << (first >> 6)
}

// DecodeVarint decodes a varint from the start of buf.
// Returns (value, bytesRead). If bytesRead is 0 the buffer holds fewer bytes
// than the encoding announces; need reports how many bytes are missing.
func DecodeVarint(buf []byte) (v uint64, n int, need int) {
	if len(buf) == 0 {
		return 0, 0, 1
	}
	class := varintClass(buf[0])
	if len(buf) < class {
		return 0, 0, class - len(buf)
	}
	v, n, err := quicvarint.Parse(buf[:class])
	if err != nil {
		// Unreachable once the length class is satisfied.
		return 0, 0, class
	}
	return v, n, 0
}

// AppendVarint appends the minimal encoding of v to buf.
// v must not exceed MaxVarint.
func AppendVarint(buf []byte, v uint64) []byte {
	return quicvarint.Append(buf, v)
}

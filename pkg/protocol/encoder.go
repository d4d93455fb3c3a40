package protocol

// Encoder appends protocol fields to a buffer, optionally bounded by a fixed
// capacity.
//
// Write methods do not return errors. The first failure is kept and every
// later write becomes a no-op; check Err once the value is fully written.
type Encoder struct {
	buf   []byte
	limit int // -1 when unbounded
	err   error
}

// NewEncoder creates an unbounded encoder that appends to buf.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf, limit: -1}
}

// NewFixedEncoder creates an encoder that writes into dst and fails with
// ErrShortBuffer rather than grow past len(dst).
func NewFixedEncoder(dst []byte) *Encoder {
	return &Encoder{buf: dst[:0:len(dst)], limit: len(dst)}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Err returns the first error hit while writing, if any.
func (e *Encoder) Err() error {
	return e.err
}

// Fail records err unless an earlier error is already kept.
func (e *Encoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) reserve(n int) bool {
	if e.err != nil {
		return false
	}
	if e.limit >= 0 && len(e.buf)+n > e.limit {
		e.err = ErrShortBuffer
		return false
	}
	return true
}

// WriteVarint appends a QUIC variable-length integer.
func (e *Encoder) WriteVarint(v uint64) {
	if v > MaxVarint {
		e.Fail(ErrValueOutOfRange)
		return
	}
	if e.reserve(VarintLen(v)) {
		e.buf = AppendVarint(e.buf, v)
	}
}

// WriteUint8 appends a single raw byte.
func (e *Encoder) WriteUint8(b uint8) {
	if e.reserve(1) {
		e.buf = append(e.buf, b)
	}
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	if e.reserve(len(b)) {
		e.buf = append(e.buf, b...)
	}
}

// WriteBitString appends a bit-length-prefixed byte string.
func (e *Encoder) WriteBitString(s BitString) {
	if s.Bits > MaxBitStringSize {
		e.Fail(ErrBitStringOversize)
		return
	}
	n := bitsToBytes(s.Bits)
	if len(s.Data) < n {
		e.Fail(ErrBitStringTruncated)
		return
	}
	e.WriteVarint(s.Bits)
	e.WriteBytes(s.Data[:n])
}

// WriteTuple appends a count-prefixed sequence of byte strings.
func (e *Encoder) WriteTuple(t Tuple) {
	if len(t) > MaxTupleItems {
		e.Fail(ErrTooManyItems)
		return
	}
	e.WriteVarint(uint64(len(t)))
	for _, item := range t {
		e.WriteBitString(item)
	}
}

// WriteLengthData appends a varint byte length followed by b.
func (e *Encoder) WriteLengthData(b []byte) {
	if len(b) > MaxBitStringSize {
		e.Fail(ErrBitStringOversize)
		return
	}
	e.WriteVarint(uint64(len(b)))
	e.WriteBytes(b)
}

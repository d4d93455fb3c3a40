package protocol

// Decoder reads protocol fields from a byte buffer it does not own.
//
// Every Read method takes an after argument: the minimum number of bytes
// the caller still expects once this field has been read. When the buffer
// runs out, the returned *IncompleteError reports the bytes missing for the
// current field plus after, so the shortfall accumulates from the fields
// that have not been parsed yet.
//
// After an error the read position is unspecified and the decoder should be
// discarded.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// ReadVarint reads a QUIC variable-length integer.
func (d *Decoder) ReadVarint(after int) (uint64, error) {
	v, n, need := DecodeVarint(d.buf[d.pos:])
	if n == 0 {
		return 0, incomplete(after + need)
	}
	d.pos += n
	return v, nil
}

// ReadUint8 reads a single raw byte.
func (d *Decoder) ReadUint8(after int) (uint8, error) {
	if d.pos >= len(d.buf) {
		return 0, incomplete(after + 1)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
// The returned slice references the decoder's buffer; do not modify.
func (d *Decoder) ReadBytes(n int, after int) ([]byte, error) {
	if avail := d.Remaining(); avail < n {
		return nil, incomplete(after + n - avail)
	}
	b := d.buf[d.pos : d.pos+n : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadBitString reads a bit-length-prefixed byte string.
// Data references the decoder's buffer.
func (d *Decoder) ReadBitString(after int) (BitString, error) {
	bits, err := d.ReadVarint(after)
	if err != nil {
		return BitString{}, err
	}
	if bits > MaxBitStringSize {
		return BitString{}, ErrBitStringTooLong
	}
	data, err := d.ReadBytes(bitsToBytes(bits), after)
	if err != nil {
		return BitString{}, err
	}
	return BitString{Bits: bits, Data: data}, nil
}

// ReadTuple reads a count-prefixed sequence of byte strings.
func (d *Decoder) ReadTuple(after int) (Tuple, error) {
	count, err := d.ReadVarint(after)
	if err != nil {
		return nil, err
	}
	if count > MaxTupleItems {
		return nil, ErrTooManyTupleItems
	}
	n := int(count)
	t := make(Tuple, n)
	for i := 0; i < n; i++ {
		item, err := d.ReadBitString(after + n - i - 1)
		if err != nil {
			return nil, err
		}
		t[i] = item
	}
	return t, nil
}

// ReadLengthData reads a varint byte length followed by that many bytes, as
// carried by parameter values. Lengths above MaxBitStringSize are malformed.
func (d *Decoder) ReadLengthData(after int) ([]byte, error) {
	n, err := d.ReadVarint(after)
	if err != nil {
		return nil, err
	}
	if n > MaxBitStringSize {
		return nil, ErrParameterTooLong
	}
	return d.ReadBytes(int(n), after)
}

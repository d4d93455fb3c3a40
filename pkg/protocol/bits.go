package protocol

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// BitString is a byte string whose length is counted in bits. Bits may not
// be a multiple of eight; the trailing bits of the last byte are carried
// as-is.
type BitString struct {
	Bits uint64
	Data []byte
}

// NewBitString returns a byte-aligned BitString over b.
func NewBitString(b []byte) BitString {
	return BitString{Bits: uint64(len(b)) * 8, Data: b}
}

// StringBits returns a byte-aligned BitString holding s.
func StringBits(s string) BitString {
	return NewBitString([]byte(s))
}

func bitsToBytes(bits uint64) int {
	return int((bits + 7) / 8)
}

// Bytes returns the bytes covered by the bit length.
func (s BitString) Bytes() []byte {
	n := bitsToBytes(s.Bits)
	if n > len(s.Data) {
		n = len(s.Data)
	}
	return s.Data[:n]
}

// Equal reports whether s and o have the same bit length and bytes.
func (s BitString) Equal(o BitString) bool {
	return s.Bits == o.Bits && bytes.Equal(s.Bytes(), o.Bytes())
}

// String returns the bytes as text, or as hex when they are not
// byte-aligned UTF-8.
func (s BitString) String() string {
	b := s.Bytes()
	if s.Bits%8 == 0 && utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

type bitStringJSON struct {
	Bits uint64 `json:"bits"`
	Hex  string `json:"hex"`
}

// MarshalJSON renders byte-aligned UTF-8 strings as JSON strings and
// everything else as {"bits": n, "hex": "..."}.
func (s BitString) MarshalJSON() ([]byte, error) {
	b := s.Bytes()
	if s.Bits%8 == 0 && utf8.Valid(b) {
		return json.Marshal(string(b))
	}
	return json.Marshal(bitStringJSON{Bits: s.Bits, Hex: hex.EncodeToString(b)})
}

// UnmarshalJSON accepts either form produced by MarshalJSON.
func (s *BitString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = StringBits(str)
		return nil
	}
	var raw bitStringJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b, err := hex.DecodeString(raw.Hex)
	if err != nil {
		return err
	}
	if bitsToBytes(raw.Bits) > len(b) {
		return errors.New("protocol: bit string hex shorter than bit length")
	}
	*s = BitString{Bits: raw.Bits, Data: b}
	return nil
}

// Tuple is an ordered sequence of byte strings, used for track namespaces.
type Tuple []BitString

// NewTuple builds a tuple of byte-aligned items.
func NewTuple(items ...string) Tuple {
	t := make(Tuple, len(items))
	for i, item := range items {
		t[i] = StringBits(item)
	}
	return t
}

// Equal reports whether t and o hold equal items in the same order.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// String joins the items with "/".
func (t Tuple) String() string {
	var buf bytes.Buffer
	for i, item := range t {
		if i > 0 {
			buf.WriteByte('/')
		}
		buf.WriteString(item.String())
	}
	return buf.String()
}

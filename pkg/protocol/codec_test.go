package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	for _, tc := range sampleMessages() {
		t.Run(tc.name, func(t *testing.T) {
			b := mustAppend(t, tc.msg)
			got := mustParse(t, b)

			if got.Type() != tc.msg.Type() {
				t.Fatalf("Type() = %v, want %v", got.Type(), tc.msg.Type())
			}
			if !reflect.DeepEqual(got, tc.msg) {
				t.Errorf("Parse(Append(m)) = %+v, want %+v", got, tc.msg)
			}

			again := mustAppend(t, got)
			if !bytes.Equal(again, b) {
				t.Errorf("re-encoding = %x, want %x", again, b)
			}
		})
	}
}

func TestParsePrefixIsIncomplete(t *testing.T) {
	for _, tc := range sampleMessages() {
		t.Run(tc.name, func(t *testing.T) {
			b := mustAppend(t, tc.msg)
			for k := 0; k < len(b); k++ {
				_, _, err := Parse(b[:k])
				if !errors.Is(err, ErrIncomplete) {
					t.Fatalf("Parse(prefix %d of %d) error = %v, want incomplete", k, len(b), err)
				}
				n := Needed(err)
				if n < 1 {
					t.Fatalf("Parse(prefix %d) needed = %d, want >= 1", k, n)
				}
				if k+n > len(b) {
					t.Fatalf("Parse(prefix %d) needed = %d, overshoots length %d", k, n, len(b))
				}

				// Feeding exactly the reported shortfall makes progress
				// without changing the verdict.
				_, _, err = Parse(b[:k+n])
				if err != nil {
					if !errors.Is(err, ErrIncomplete) {
						t.Fatalf("Parse(prefix %d) error = %v, want nil or incomplete", k+n, err)
					}
					if k+n+Needed(err) > len(b) {
						t.Fatalf("Parse(prefix %d) needed = %d, overshoots length %d", k+n, Needed(err), len(b))
					}
				}
			}
		})
	}
}

func TestParseLeavesRest(t *testing.T) {
	first := mustAppend(t, &Unsubscribe{SubscribeID: 5})
	second := mustAppend(t, &MaxSubscribeID{SubscribeID: 6})
	b := append(append([]byte{}, first...), second...)

	m, n, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n != len(first) {
		t.Errorf("Parse() consumed %d, want %d", n, len(first))
	}
	if got, ok := m.(*Unsubscribe); !ok || got.SubscribeID != 5 {
		t.Errorf("Parse() = %+v, want Unsubscribe{5}", m)
	}

	m, _, err = Parse(b[n:])
	if err != nil {
		t.Fatalf("Parse(rest) error = %v", err)
	}
	if got, ok := m.(*MaxSubscribeID); !ok || got.SubscribeID != 6 {
		t.Errorf("Parse(rest) = %+v, want MaxSubscribeID{6}", m)
	}
}

func TestFormat(t *testing.T) {
	for _, tc := range sampleMessages() {
		t.Run(tc.name, func(t *testing.T) {
			want := mustAppend(t, tc.msg)

			for size := 0; size < len(want); size++ {
				dst := make([]byte, size, size+64)
				if _, err := Format(dst, tc.msg); !errors.Is(err, ErrShortBuffer) {
					t.Fatalf("Format(%d bytes) error = %v, want ErrShortBuffer", size, err)
				}
			}

			dst := make([]byte, len(want)+3)
			n, err := Format(dst, tc.msg)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if !bytes.Equal(dst[:n], want) {
				t.Errorf("Format() = %x, want %x", dst[:n], want)
			}
		})
	}
}

func TestEncodedLen(t *testing.T) {
	m := &SubscribeOk{SubscribeID: 65, ContentExists: true, Largest: Location{Group: 31, Object: 27}}
	n, err := EncodedLen(m)
	if err != nil {
		t.Fatalf("EncodedLen() error = %v", err)
	}
	if n != 7 {
		t.Errorf("EncodedLen() = %d, want 7", n)
	}
}

func TestFormatInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{"varint overflow", &Unsubscribe{SubscribeID: MaxVarint + 1}, ErrValueOutOfRange},
		{"filter zero", &Subscribe{Namespace: NewTuple("a"), TrackName: StringBits("b")}, ErrFilterTypeOutOfRange},
		{"filter five", &Subscribe{FilterType: 5}, ErrFilterTypeOutOfRange},
		{"missing role", &ServerSetup{SelectedVersion: 1}, ErrRoleOutOfRange},
		{"too many versions", &ClientSetup{Versions: make([]uint32, MaxVersions+1), Params: SetupParameters{Role: RolePublisher}}, ErrTooManyItems},
		{"track status", &TrackStatus{StatusCode: 4}, ErrStatusOutOfRange},
		{"truncated bit string", &Goaway{NewSessionURI: BitString{Bits: 16, Data: []byte{1}}}, ErrBitStringTruncated},
		{"oversize bit string", &Goaway{NewSessionURI: BitString{Bits: MaxBitStringSize + 1, Data: make([]byte, 1025)}}, ErrBitStringOversize},
		{"long path", &ServerSetup{Params: SetupParameters{Role: RolePublisher, Path: make([]byte, MaxBitStringSize+1)}}, ErrBitStringOversize},
		{"long tuple", &AnnounceOk{Namespace: make(Tuple, MaxTupleItems+1)}, ErrTooManyItems},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Append(nil, tc.msg)
			if !errors.Is(err, tc.want) {
				t.Errorf("Append() error = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Append() error = %v, want ErrInvalidValue", err)
			}
			if _, err := Format(make([]byte, 64), tc.msg); !errors.Is(err, tc.want) {
				t.Errorf("Format() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseUnknownMessageType(t *testing.T) {
	for _, b := range [][]byte{{0x0f, 0x00}, {0x16, 0x00}, {0x42, 0x00}, {0x40, 0x52, 0x00}} {
		_, _, err := Parse(b)
		if !errors.Is(err, ErrUnknownMessageType) {
			t.Errorf("Parse(%x) error = %v, want ErrUnknownMessageType", b, err)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	_, _, err := Parse(nil)
	if n := Needed(err); n != 2 {
		t.Errorf("Parse(nil) needed = %d, want 2", n)
	}
}

func TestMessageTypeText(t *testing.T) {
	for _, tc := range sampleMessages() {
		text, err := tc.msg.Type().MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		var got MessageType
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if got != tc.msg.Type() {
			t.Errorf("UnmarshalText(%q) = %v, want %v", text, got, tc.msg.Type())
		}
	}

	var mt MessageType
	if err := mt.UnmarshalText([]byte("publish")); err == nil {
		t.Error("UnmarshalText(publish) should fail")
	}
	if got := MessageType(0x99).String(); got != "unknown(0x99)" {
		t.Errorf("String() = %q, want unknown(0x99)", got)
	}
}

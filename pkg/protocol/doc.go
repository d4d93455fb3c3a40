// Package protocol implements the wire format of the Media over QUIC
// transport control and data streams (draft-05/06 era).
//
// The package is a pure codec. It translates between Go values and their
// binary encoding and never performs I/O, so it can be driven by any
// reliable byte stream: a QUIC stream, a WebSocket, a capture file.
//
// # Decoding
//
// Every decode entry point returns one of three results:
//
//   - success: the decoded value and the number of bytes consumed
//   - incomplete: an *IncompleteError carrying a lower bound on how many
//     more bytes must be appended before the same call can make progress
//   - malformed: an error wrapping ErrMalformed; more bytes will not help
//
// The lower bound is exact for the field that ran out of bytes and adds one
// byte for every mandatory field that follows it, so a caller driving an
// incremental reader never has to guess a read size:
//
//	msg, n, err := protocol.Parse(buf)
//	switch {
//	case err == nil:
//		buf = buf[n:]
//	case errors.Is(err, protocol.ErrIncomplete):
//		need := protocol.Needed(err)
//		// read at least need more bytes, then call Parse again
//	default:
//		// close the session
//	}
//
// Decoded byte strings borrow the input buffer. They stay valid for as long
// as the caller keeps that buffer unmodified.
//
// # Encoding
//
// Format writes into a caller-provided buffer and either writes the whole
// message or fails with ErrShortBuffer. Append grows a slice instead.
//
// # Wire Format
//
// Integers are QUIC variable-length integers: the two high bits of the first
// byte select a 1, 2, 4 or 8 byte encoding, leaving 6, 14, 30 or 62 bits for
// the value.
//
//	┌──────────┬───────────────────────────────────────────┐
//	│ 00xxxxxx │ 1 byte,  0..63                            │
//	│ 01xxxxxx │ 2 bytes, 0..16383                         │
//	│ 10xxxxxx │ 4 bytes, 0..1073741823                    │
//	│ 11xxxxxx │ 8 bytes, 0..4611686018427387903           │
//	└──────────┴───────────────────────────────────────────┘
//
// A control message is a varint type tag followed by the type's fields.
// Byte strings are a varint bit length followed by ceil(bits/8) bytes.
// Tuples are a varint item count followed by that many byte strings.
// Parameter lists are a varint count of (key, length, value) triples.
//
// Stream frames (datagrams, stream headers and the object records that
// follow a header) use a separate type keyspace, see ParseStreamFrame.
package protocol

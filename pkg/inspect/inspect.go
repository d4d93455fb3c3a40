// Package inspect converts decoded MoQ messages and stream frames to and
// from self-describing JSON envelopes.
//
// A control message is wrapped as
//
//	{"type": "subscribe", "message": {"subscribeId": 1, ...}}
//
// and a stream frame as
//
//	{"type": "header_subgroup", "frame": {"subscribeId": 1, ...}}
//
// Objects read from a data stream are wrapped as
//
//	{"type": "object", "object": {"groupId": 0, "objectId": 3, ...}}
//
// Byte strings render as JSON strings when they hold whole bytes of valid
// UTF-8 and as {"bits": n, "hex": "..."} otherwise. Parameter blobs such as
// the setup path use base64, as encoding/json does for []byte.
package inspect

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// TypeObject is the envelope type of an object read from a data stream.
const TypeObject = "object"

var (
	// ErrEmptyEnvelope is returned for an envelope without a body.
	ErrEmptyEnvelope = errors.New("inspect: envelope has no message, frame or object")

	// ErrUnknownType is returned for an envelope type that names neither
	// a message nor a stream frame.
	ErrUnknownType = errors.New("inspect: unknown envelope type")
)

// Envelope is the JSON form of one decoded item. Exactly one of Message,
// Frame and Object is set.
type Envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
	Frame   json.RawMessage `json:"frame,omitempty"`
	Object  json.RawMessage `json:"object,omitempty"`

	// Consumed is the encoded size of the item, when known.
	Consumed int `json:"consumed,omitempty"`
}

// ObjectView is the JSON body of an object envelope.
type ObjectView struct {
	GroupID       uint64 `json:"groupId"`
	ObjectID      uint64 `json:"objectId"`
	Status        uint64 `json:"status,omitempty"`
	PayloadLength int    `json:"payloadLength"`

	// Payload is rendered as text when it is valid UTF-8, else as hex.
	Payload    string `json:"payload,omitempty"`
	PayloadHex string `json:"payloadHex,omitempty"`
}

// Describe wraps a control message.
func Describe(m protocol.Message) (*Envelope, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("inspect: %s: %w", m.Type(), err)
	}
	return &Envelope{Type: m.Type().String(), Message: body}, nil
}

// DescribeStream wraps a datagram or stream header.
func DescribeStream(f protocol.StreamFrame) (*Envelope, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("inspect: %s: %w", f.Type(), err)
	}
	return &Envelope{Type: f.Type().String(), Frame: body}, nil
}

// DescribeObject wraps an object read from a data stream. Payloads longer
// than maxPayload bytes are cut; pass 0 to omit the payload.
func DescribeObject(obj *transport.Object, maxPayload int) (*Envelope, error) {
	view := ObjectView{
		GroupID:       obj.GroupID,
		ObjectID:      obj.ObjectID,
		Status:        obj.Status,
		PayloadLength: len(obj.Payload),
	}
	p := obj.Payload
	if len(p) > maxPayload {
		p = p[:maxPayload]
	}
	if len(p) > 0 {
		if utf8.Valid(p) {
			view.Payload = string(p)
		} else {
			view.PayloadHex = hex.EncodeToString(p)
		}
	}
	body, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	return &Envelope{Type: TypeObject, Object: body}, nil
}

// DecodeEnvelope parses a JSON envelope into the message or frame it
// describes. Exactly one of the returned values is non-nil on success.
func DecodeEnvelope(data []byte) (protocol.Message, protocol.StreamFrame, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("inspect: %w", err)
	}
	return env.Decode()
}

// Decode returns the message or frame e describes.
func (e *Envelope) Decode() (protocol.Message, protocol.StreamFrame, error) {
	switch {
	case e.Message != nil:
		var t protocol.MessageType
		if err := t.UnmarshalText([]byte(e.Type)); err != nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
		}
		m, err := protocol.NewMessage(t)
		if err != nil {
			return nil, nil, err
		}
		if err := strictUnmarshal(e.Message, m); err != nil {
			return nil, nil, fmt.Errorf("inspect: %s: %w", e.Type, err)
		}
		return m, nil, nil

	case e.Frame != nil:
		var t protocol.StreamType
		if err := t.UnmarshalText([]byte(e.Type)); err != nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
		}
		f, err := protocol.NewStreamFrame(t)
		if err != nil {
			return nil, nil, err
		}
		if err := strictUnmarshal(e.Frame, f); err != nil {
			return nil, nil, fmt.Errorf("inspect: %s: %w", e.Type, err)
		}
		return nil, f, nil

	case e.Object != nil:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)

	default:
		return nil, nil, ErrEmptyEnvelope
	}
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Encode parses a JSON envelope and returns the wire encoding of the
// message or frame it describes.
func Encode(data []byte) ([]byte, error) {
	m, f, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return protocol.Append(nil, m)
	}
	return protocol.AppendStreamFrame(nil, f)
}

package protocol

import (
	"fmt"
	"strconv"
)

// MessageType is the varint tag that opens every control message.
type MessageType uint64

const (
	MessageObjectStream            MessageType = 0x00
	MessageObjectDatagram          MessageType = 0x01
	MessageSubscribeUpdate         MessageType = 0x02
	MessageSubscribe               MessageType = 0x03
	MessageSubscribeOk             MessageType = 0x04
	MessageSubscribeError          MessageType = 0x05
	MessageAnnounce                MessageType = 0x06
	MessageAnnounceOk              MessageType = 0x07
	MessageAnnounceError           MessageType = 0x08
	MessageUnannounce              MessageType = 0x09
	MessageUnsubscribe             MessageType = 0x0A
	MessageSubscribeDone           MessageType = 0x0B
	MessageAnnounceCancel          MessageType = 0x0C
	MessageTrackStatusRequest      MessageType = 0x0D
	MessageTrackStatus             MessageType = 0x0E
	MessageGoaway                  MessageType = 0x10
	MessageSubscribeNamespace      MessageType = 0x11
	MessageSubscribeNamespaceOk    MessageType = 0x12
	MessageSubscribeNamespaceError MessageType = 0x13
	MessageUnsubscribeNamespace    MessageType = 0x14
	MessageMaxSubscribeID          MessageType = 0x15
	MessageClientSetup             MessageType = 0x40
	MessageServerSetup             MessageType = 0x41
	MessageStreamHeaderTrack       MessageType = 0x50
	MessageStreamHeaderGroup       MessageType = 0x51
)

var messageNames = map[MessageType]string{
	MessageObjectStream:            "object_stream",
	MessageObjectDatagram:          "object_datagram",
	MessageSubscribeUpdate:         "subscribe_update",
	MessageSubscribe:               "subscribe",
	MessageSubscribeOk:             "subscribe_ok",
	MessageSubscribeError:          "subscribe_error",
	MessageAnnounce:                "announce",
	MessageAnnounceOk:              "announce_ok",
	MessageAnnounceError:           "announce_error",
	MessageUnannounce:              "unannounce",
	MessageUnsubscribe:             "unsubscribe",
	MessageSubscribeDone:           "subscribe_done",
	MessageAnnounceCancel:          "announce_cancel",
	MessageTrackStatusRequest:      "track_status_request",
	MessageTrackStatus:             "track_status",
	MessageGoaway:                  "goaway",
	MessageSubscribeNamespace:      "subscribe_namespace",
	MessageSubscribeNamespaceOk:    "subscribe_namespace_ok",
	MessageSubscribeNamespaceError: "subscribe_namespace_error",
	MessageUnsubscribeNamespace:    "unsubscribe_namespace",
	MessageMaxSubscribeID:          "max_subscribe_id",
	MessageClientSetup:             "client_setup",
	MessageServerSetup:             "server_setup",
	MessageStreamHeaderTrack:       "stream_header_track",
	MessageStreamHeaderGroup:       "stream_header_group",
}

var messageTypes = func() map[string]MessageType {
	m := make(map[string]MessageType, len(messageNames))
	for t, name := range messageNames {
		m[name] = t
	}
	return m
}()

// String returns the snake_case name of the message type.
func (t MessageType) String() string {
	if name, ok := messageNames[t]; ok {
		return name
	}
	return "unknown(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (t MessageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MessageType) UnmarshalText(b []byte) error {
	mt, ok := messageTypes[string(b)]
	if !ok {
		return fmt.Errorf("protocol: unknown message type %q", b)
	}
	*t = mt
	return nil
}

// Message is a decoded control message. The set of implementations is
// closed; use a type switch to handle specific kinds.
type Message interface {
	Type() MessageType
	encode(e *Encoder)
	decode(d *Decoder) error
}

// NewMessage returns a zero message of type t.
func NewMessage(t MessageType) (Message, error) {
	switch t {
	case MessageObjectStream:
		return &ObjectStream{}, nil
	case MessageObjectDatagram:
		return &ObjectDatagram{}, nil
	case MessageSubscribeUpdate:
		return &SubscribeUpdate{}, nil
	case MessageSubscribe:
		return &Subscribe{}, nil
	case MessageSubscribeOk:
		return &SubscribeOk{}, nil
	case MessageSubscribeError:
		return &SubscribeError{}, nil
	case MessageAnnounce:
		return &Announce{}, nil
	case MessageAnnounceOk:
		return &AnnounceOk{}, nil
	case MessageAnnounceError:
		return &AnnounceError{}, nil
	case MessageUnannounce:
		return &Unannounce{}, nil
	case MessageUnsubscribe:
		return &Unsubscribe{}, nil
	case MessageSubscribeDone:
		return &SubscribeDone{}, nil
	case MessageAnnounceCancel:
		return &AnnounceCancel{}, nil
	case MessageTrackStatusRequest:
		return &TrackStatusRequest{}, nil
	case MessageTrackStatus:
		return &TrackStatus{}, nil
	case MessageGoaway:
		return &Goaway{}, nil
	case MessageSubscribeNamespace:
		return &SubscribeNamespace{}, nil
	case MessageSubscribeNamespaceOk:
		return &SubscribeNamespaceOk{}, nil
	case MessageSubscribeNamespaceError:
		return &SubscribeNamespaceError{}, nil
	case MessageUnsubscribeNamespace:
		return &UnsubscribeNamespace{}, nil
	case MessageMaxSubscribeID:
		return &MaxSubscribeID{}, nil
	case MessageClientSetup:
		return &ClientSetup{}, nil
	case MessageServerSetup:
		return &ServerSetup{}, nil
	case MessageStreamHeaderTrack:
		return &StreamHeaderTrack{}, nil
	case MessageStreamHeaderGroup:
		return &StreamHeaderGroup{}, nil
	default:
		return nil, ErrUnknownMessageType
	}
}

// Parse decodes one control message from the start of b and returns it with
// the number of bytes consumed. b[n:] is the unconsumed rest.
//
// On failure err is either an *IncompleteError or wraps ErrMalformed.
func Parse(b []byte) (Message, int, error) {
	d := NewDecoder(b)
	m, err := DecodeMessageFrom(d)
	if err != nil {
		return nil, 0, err
	}
	return m, d.Position(), nil
}

// DecodeMessageFrom decodes one control message at the decoder's position.
func DecodeMessageFrom(d *Decoder) (Message, error) {
	// Every message has at least one field after its tag.
	t, err := d.ReadVarint(1)
	if err != nil {
		return nil, err
	}
	m, err := NewMessage(MessageType(t))
	if err != nil {
		return nil, err
	}
	if err := m.decode(d); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeMessageTo writes m, including its type tag, to e.
func EncodeMessageTo(e *Encoder, m Message) {
	e.WriteVarint(uint64(m.Type()))
	m.encode(e)
}

// Format encodes m into dst and returns the number of bytes written. It
// fails with ErrShortBuffer if the encoding does not fit in len(dst).
func Format(dst []byte, m Message) (int, error) {
	return format(dst, func(e *Encoder) { EncodeMessageTo(e, m) })
}

// Append appends the encoding of m to b.
func Append(b []byte, m Message) ([]byte, error) {
	return appendTo(b, func(e *Encoder) { EncodeMessageTo(e, m) })
}

// EncodedLen returns the encoded size of m.
func EncodedLen(m Message) (int, error) {
	b, err := Append(nil, m)
	return len(b), err
}

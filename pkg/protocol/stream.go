package protocol

import (
	"fmt"
	"strconv"
)

// StreamType tags the frames that open a data stream or datagram. It is a
// separate keyspace from MessageType.
type StreamType uint64

const (
	StreamTypeDatagram       StreamType = 0x01
	StreamTypeHeaderTrack    StreamType = 0x02
	StreamTypeHeaderSubgroup StreamType = 0x04
)

// String returns the snake_case name of the stream type.
func (t StreamType) String() string {
	switch t {
	case StreamTypeDatagram:
		return "datagram"
	case StreamTypeHeaderTrack:
		return "header_track"
	case StreamTypeHeaderSubgroup:
		return "header_subgroup"
	default:
		return "unknown(0x" + strconv.FormatUint(uint64(t), 16) + ")"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t StreamType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *StreamType) UnmarshalText(b []byte) error {
	for _, st := range []StreamType{StreamTypeDatagram, StreamTypeHeaderTrack, StreamTypeHeaderSubgroup} {
		if st.String() == string(b) {
			*t = st
			return nil
		}
	}
	return fmt.Errorf("protocol: unknown stream type %q", b)
}

// StreamFrame is a decoded datagram or stream header. The set of
// implementations is closed.
type StreamFrame interface {
	Type() StreamType
	encode(e *Encoder)
	decode(d *Decoder) error
}

// NewStreamFrame returns a zero frame of type t.
func NewStreamFrame(t StreamType) (StreamFrame, error) {
	switch t {
	case StreamTypeDatagram:
		return &Datagram{}, nil
	case StreamTypeHeaderTrack:
		return &HeaderTrack{}, nil
	case StreamTypeHeaderSubgroup:
		return &HeaderSubgroup{}, nil
	default:
		return nil, ErrUnknownStreamType
	}
}

// readObjectStatus reads the status carried by an object with an empty
// payload.
func readObjectStatus(d *Decoder, after int) (uint64, error) {
	status, err := d.ReadVarint(after)
	if err != nil {
		return 0, err
	}
	if status > MaxObjectStatus {
		return 0, ErrInvalidObjectStatus
	}
	return status, nil
}

func writeObjectStatus(e *Encoder, status uint64) {
	if status > MaxObjectStatus {
		e.Fail(ErrStatusOutOfRange)
		return
	}
	e.WriteVarint(status)
}

// Datagram carries one object outside of any stream. The payload follows
// the frame and is not part of it.
type Datagram struct {
	SubscribeID       uint64 `json:"subscribeId"`
	TrackAlias        uint64 `json:"trackAlias"`
	GroupID           uint64 `json:"groupId"`
	ObjectID          uint64 `json:"objectId"`
	PublisherPriority uint8  `json:"publisherPriority"`
	PayloadLength     uint64 `json:"payloadLength"`

	// Status is on the wire only when PayloadLength is 0.
	Status uint64 `json:"status"`
}

// Type implements StreamFrame.
func (*Datagram) Type() StreamType { return StreamTypeDatagram }

func (f *Datagram) decode(d *Decoder) error {
	var err error
	if f.SubscribeID, err = d.ReadVarint(5); err != nil {
		return err
	}
	if f.TrackAlias, err = d.ReadVarint(4); err != nil {
		return err
	}
	if f.GroupID, err = d.ReadVarint(3); err != nil {
		return err
	}
	if f.ObjectID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if f.PublisherPriority, err = d.ReadUint8(1); err != nil {
		return err
	}
	if f.PayloadLength, err = d.ReadVarint(0); err != nil {
		return err
	}
	if f.PayloadLength == 0 {
		f.Status, err = readObjectStatus(d, 0)
	}
	return err
}

func (f *Datagram) encode(e *Encoder) {
	e.WriteVarint(f.SubscribeID)
	e.WriteVarint(f.TrackAlias)
	e.WriteVarint(f.GroupID)
	e.WriteVarint(f.ObjectID)
	e.WriteUint8(f.PublisherPriority)
	e.WriteVarint(f.PayloadLength)
	if f.PayloadLength == 0 {
		writeObjectStatus(e, f.Status)
	}
}

// HeaderTrack opens a stream carrying every object of a track as a
// sequence of TrackObject records.
type HeaderTrack struct {
	SubscribeID       uint64 `json:"subscribeId"`
	TrackAlias        uint64 `json:"trackAlias"`
	PublisherPriority uint8  `json:"publisherPriority"`
}

// Type implements StreamFrame.
func (*HeaderTrack) Type() StreamType { return StreamTypeHeaderTrack }

func (f *HeaderTrack) decode(d *Decoder) error {
	var err error
	if f.SubscribeID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if f.TrackAlias, err = d.ReadVarint(1); err != nil {
		return err
	}
	f.PublisherPriority, err = d.ReadUint8(0)
	return err
}

func (f *HeaderTrack) encode(e *Encoder) {
	e.WriteVarint(f.SubscribeID)
	e.WriteVarint(f.TrackAlias)
	e.WriteUint8(f.PublisherPriority)
}

// HeaderSubgroup opens a stream carrying the objects of one subgroup as a
// sequence of SubgroupObject records.
type HeaderSubgroup struct {
	SubscribeID       uint64 `json:"subscribeId"`
	TrackAlias        uint64 `json:"trackAlias"`
	GroupID           uint64 `json:"groupId"`
	SubgroupID        uint64 `json:"subgroupId"`
	PublisherPriority uint8  `json:"publisherPriority"`
}

// Type implements StreamFrame.
func (*HeaderSubgroup) Type() StreamType { return StreamTypeHeaderSubgroup }

func (f *HeaderSubgroup) decode(d *Decoder) error {
	var err error
	if f.SubscribeID, err = d.ReadVarint(4); err != nil {
		return err
	}
	if f.TrackAlias, err = d.ReadVarint(3); err != nil {
		return err
	}
	if f.GroupID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if f.SubgroupID, err = d.ReadVarint(1); err != nil {
		return err
	}
	f.PublisherPriority, err = d.ReadUint8(0)
	return err
}

func (f *HeaderSubgroup) encode(e *Encoder) {
	e.WriteVarint(f.SubscribeID)
	e.WriteVarint(f.TrackAlias)
	e.WriteVarint(f.GroupID)
	e.WriteVarint(f.SubgroupID)
	e.WriteUint8(f.PublisherPriority)
}

// TrackObject is the per-object record on a HeaderTrack stream. The
// payload follows the record.
type TrackObject struct {
	GroupID       uint64 `json:"groupId"`
	ObjectID      uint64 `json:"objectId"`
	PayloadLength uint64 `json:"payloadLength"`

	// Status is on the wire only when PayloadLength is 0.
	Status uint64 `json:"status"`
}

func (o *TrackObject) decode(d *Decoder) error {
	var err error
	if o.GroupID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if o.ObjectID, err = d.ReadVarint(1); err != nil {
		return err
	}
	if o.PayloadLength, err = d.ReadVarint(0); err != nil {
		return err
	}
	if o.PayloadLength == 0 {
		o.Status, err = readObjectStatus(d, 0)
	}
	return err
}

func (o *TrackObject) encode(e *Encoder) {
	e.WriteVarint(o.GroupID)
	e.WriteVarint(o.ObjectID)
	e.WriteVarint(o.PayloadLength)
	if o.PayloadLength == 0 {
		writeObjectStatus(e, o.Status)
	}
}

// SubgroupObject is the per-object record on a HeaderSubgroup stream. The
// payload follows the record.
type SubgroupObject struct {
	ObjectID      uint64 `json:"objectId"`
	PayloadLength uint64 `json:"payloadLength"`

	// Status is on the wire only when PayloadLength is 0.
	Status uint64 `json:"status"`
}

func (o *SubgroupObject) decode(d *Decoder) error {
	var err error
	if o.ObjectID, err = d.ReadVarint(1); err != nil {
		return err
	}
	if o.PayloadLength, err = d.ReadVarint(0); err != nil {
		return err
	}
	if o.PayloadLength == 0 {
		o.Status, err = readObjectStatus(d, 0)
	}
	return err
}

func (o *SubgroupObject) encode(e *Encoder) {
	e.WriteVarint(o.ObjectID)
	e.WriteVarint(o.PayloadLength)
	if o.PayloadLength == 0 {
		writeObjectStatus(e, o.Status)
	}
}

// ParseStreamFrame decodes one datagram or stream header from the start of
// b and returns it with the number of bytes consumed.
func ParseStreamFrame(b []byte) (StreamFrame, int, error) {
	d := NewDecoder(b)
	t, err := d.ReadVarint(1)
	if err != nil {
		return nil, 0, err
	}
	f, err := NewStreamFrame(StreamType(t))
	if err != nil {
		return nil, 0, err
	}
	if err := f.decode(d); err != nil {
		return nil, 0, err
	}
	return f, d.Position(), nil
}

// FormatStreamFrame encodes f, including its type tag, into dst.
func FormatStreamFrame(dst []byte, f StreamFrame) (int, error) {
	return format(dst, func(e *Encoder) { encodeStreamFrame(e, f) })
}

// AppendStreamFrame appends the encoding of f to b.
func AppendStreamFrame(b []byte, f StreamFrame) ([]byte, error) {
	return appendTo(b, func(e *Encoder) { encodeStreamFrame(e, f) })
}

func encodeStreamFrame(e *Encoder, f StreamFrame) {
	e.WriteVarint(uint64(f.Type()))
	f.encode(e)
}

// ParseTrackObject decodes one TrackObject record from the start of b.
func ParseTrackObject(b []byte) (TrackObject, int, error) {
	var o TrackObject
	d := NewDecoder(b)
	if err := o.decode(d); err != nil {
		return TrackObject{}, 0, err
	}
	return o, d.Position(), nil
}

// FormatTrackObject encodes o into dst.
func FormatTrackObject(dst []byte, o *TrackObject) (int, error) {
	return format(dst, o.encode)
}

// AppendTrackObject appends the encoding of o to b.
func AppendTrackObject(b []byte, o *TrackObject) ([]byte, error) {
	return appendTo(b, o.encode)
}

// ParseSubgroupObject decodes one SubgroupObject record from the start of b.
func ParseSubgroupObject(b []byte) (SubgroupObject, int, error) {
	var o SubgroupObject
	d := NewDecoder(b)
	if err := o.decode(d); err != nil {
		return SubgroupObject{}, 0, err
	}
	return o, d.Position(), nil
}

// FormatSubgroupObject encodes o into dst.
func FormatSubgroupObject(dst []byte, o *SubgroupObject) (int, error) {
	return format(dst, o.encode)
}

// AppendSubgroupObject appends the encoding of o to b.
func AppendSubgroupObject(b []byte, o *SubgroupObject) ([]byte, error) {
	return appendTo(b, o.encode)
}

func format(dst []byte, write func(*Encoder)) (int, error) {
	e := NewFixedEncoder(dst)
	write(e)
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

func appendTo(b []byte, write func(*Encoder)) ([]byte, error) {
	e := NewEncoder(b)
	write(e)
	if err := e.Err(); err != nil {
		return b, err
	}
	return e.Bytes(), nil
}

package protocol

// FilterType selects where a subscription starts and ends.
type FilterType uint64

const (
	FilterLatestGroup   FilterType = 0x1
	FilterLatestObject  FilterType = 0x2
	FilterAbsoluteStart FilterType = 0x3
	FilterAbsoluteRange FilterType = 0x4
)

// String returns the string representation of the filter type.
func (f FilterType) String() string {
	switch f {
	case FilterLatestGroup:
		return "LatestGroup"
	case FilterLatestObject:
		return "LatestObject"
	case FilterAbsoluteStart:
		return "AbsoluteStart"
	case FilterAbsoluteRange:
		return "AbsoluteRange"
	default:
		return "Unknown"
	}
}

// Valid reports whether f is a defined filter type.
func (f FilterType) Valid() bool {
	return f >= FilterLatestGroup && f <= FilterAbsoluteRange
}

// HasStart reports whether the filter carries a start location.
func (f FilterType) HasStart() bool {
	return f == FilterAbsoluteStart || f == FilterAbsoluteRange
}

// HasEnd reports whether the filter carries an end location.
func (f FilterType) HasEnd() bool {
	return f == FilterAbsoluteRange
}

// Location addresses an object within a track.
type Location struct {
	Group  uint64 `json:"group"`
	Object uint64 `json:"object"`
}

func (l *Location) decode(d *Decoder, after int) error {
	var err error
	if l.Group, err = d.ReadVarint(after + 1); err != nil {
		return err
	}
	l.Object, err = d.ReadVarint(after)
	return err
}

func (l *Location) encode(e *Encoder) {
	e.WriteVarint(l.Group)
	e.WriteVarint(l.Object)
}

// readContentExists reads the one-byte flag that gates an optional location.
func readContentExists(d *Decoder, after int) (bool, error) {
	b, err := d.ReadUint8(after)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidContentExists
	}
}

func writeContentExists(e *Encoder, exists bool) {
	if exists {
		e.WriteUint8(1)
	} else {
		e.WriteUint8(0)
	}
}

// Subscribe requests objects of a track.
type Subscribe struct {
	SubscribeID uint64     `json:"subscribeId"`
	TrackAlias  uint64     `json:"trackAlias"`
	Namespace   Tuple      `json:"namespace"`
	TrackName   BitString  `json:"trackName"`
	FilterType  FilterType `json:"filterType"`

	// Start is on the wire only for FilterAbsoluteStart and
	// FilterAbsoluteRange; End only for FilterAbsoluteRange.
	Start Location `json:"start"`
	End   Location `json:"end"`

	Params SubscribeParameters `json:"params"`
}

// Type implements Message.
func (*Subscribe) Type() MessageType { return MessageSubscribe }

func (m *Subscribe) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(5); err != nil {
		return err
	}
	if m.TrackAlias, err = d.ReadVarint(4); err != nil {
		return err
	}
	if m.Namespace, err = d.ReadTuple(3); err != nil {
		return err
	}
	if m.TrackName, err = d.ReadBitString(2); err != nil {
		return err
	}
	filter, err := d.ReadVarint(1)
	if err != nil {
		return err
	}
	m.FilterType = FilterType(filter)
	switch m.FilterType {
	case FilterLatestGroup, FilterLatestObject:
	case FilterAbsoluteStart:
		if err := m.Start.decode(d, 1); err != nil {
			return err
		}
	case FilterAbsoluteRange:
		if err := m.Start.decode(d, 3); err != nil {
			return err
		}
		if err := m.End.decode(d, 1); err != nil {
			return err
		}
	default:
		return ErrInvalidFilterType
	}
	return m.Params.decode(d, 0)
}

func (m *Subscribe) encode(e *Encoder) {
	if !m.FilterType.Valid() {
		e.Fail(ErrFilterTypeOutOfRange)
		return
	}
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.TrackAlias)
	e.WriteTuple(m.Namespace)
	e.WriteBitString(m.TrackName)
	e.WriteVarint(uint64(m.FilterType))
	if m.FilterType.HasStart() {
		m.Start.encode(e)
	}
	if m.FilterType.HasEnd() {
		m.End.encode(e)
	}
	m.Params.encode(e)
}

// SubscribeUpdate narrows the range of an existing subscription.
type SubscribeUpdate struct {
	SubscribeID uint64              `json:"subscribeId"`
	Start       Location            `json:"start"`
	End         Location            `json:"end"`
	Params      SubscribeParameters `json:"params"`
}

// Type implements Message.
func (*SubscribeUpdate) Type() MessageType { return MessageSubscribeUpdate }

func (m *SubscribeUpdate) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(5); err != nil {
		return err
	}
	if err := m.Start.decode(d, 3); err != nil {
		return err
	}
	if err := m.End.decode(d, 1); err != nil {
		return err
	}
	return m.Params.decode(d, 0)
}

func (m *SubscribeUpdate) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	m.Start.encode(e)
	m.End.encode(e)
	m.Params.encode(e)
}

// SubscribeOk accepts a subscription.
type SubscribeOk struct {
	SubscribeID   uint64 `json:"subscribeId"`
	Expires       uint64 `json:"expires"`
	ContentExists bool   `json:"contentExists"`

	// Largest is on the wire only when ContentExists is set.
	Largest Location `json:"largest"`
}

// Type implements Message.
func (*SubscribeOk) Type() MessageType { return MessageSubscribeOk }

func (m *SubscribeOk) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if m.Expires, err = d.ReadVarint(1); err != nil {
		return err
	}
	if m.ContentExists, err = readContentExists(d, 0); err != nil {
		return err
	}
	if m.ContentExists {
		return m.Largest.decode(d, 0)
	}
	return nil
}

func (m *SubscribeOk) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.Expires)
	writeContentExists(e, m.ContentExists)
	if m.ContentExists {
		m.Largest.encode(e)
	}
}

// SubscribeError rejects a subscription.
type SubscribeError struct {
	SubscribeID uint64    `json:"subscribeId"`
	ErrorCode   uint64    `json:"errorCode"`
	Reason      BitString `json:"reason"`
	TrackAlias  uint64    `json:"trackAlias"`
}

// Type implements Message.
func (*SubscribeError) Type() MessageType { return MessageSubscribeError }

func (m *SubscribeError) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(3); err != nil {
		return err
	}
	if m.ErrorCode, err = d.ReadVarint(2); err != nil {
		return err
	}
	if m.Reason, err = d.ReadBitString(1); err != nil {
		return err
	}
	m.TrackAlias, err = d.ReadVarint(0)
	return err
}

func (m *SubscribeError) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.ErrorCode)
	e.WriteBitString(m.Reason)
	e.WriteVarint(m.TrackAlias)
}

// SubscribeDone ends a subscription from the publisher side.
type SubscribeDone struct {
	SubscribeID   uint64    `json:"subscribeId"`
	StatusCode    uint64    `json:"statusCode"`
	Reason        BitString `json:"reason"`
	ContentExists bool      `json:"contentExists"`

	// Final is on the wire only when ContentExists is set.
	Final Location `json:"final"`
}

// Type implements Message.
func (*SubscribeDone) Type() MessageType { return MessageSubscribeDone }

func (m *SubscribeDone) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(3); err != nil {
		return err
	}
	if m.StatusCode, err = d.ReadVarint(2); err != nil {
		return err
	}
	if m.Reason, err = d.ReadBitString(1); err != nil {
		return err
	}
	if m.ContentExists, err = readContentExists(d, 0); err != nil {
		return err
	}
	if m.ContentExists {
		return m.Final.decode(d, 0)
	}
	return nil
}

func (m *SubscribeDone) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.StatusCode)
	e.WriteBitString(m.Reason)
	writeContentExists(e, m.ContentExists)
	if m.ContentExists {
		m.Final.encode(e)
	}
}

// Unsubscribe cancels a subscription from the subscriber side.
type Unsubscribe struct {
	SubscribeID uint64 `json:"subscribeId"`
}

// Type implements Message.
func (*Unsubscribe) Type() MessageType { return MessageUnsubscribe }

func (m *Unsubscribe) decode(d *Decoder) (err error) {
	m.SubscribeID, err = d.ReadVarint(0)
	return err
}

func (m *Unsubscribe) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
}

// MaxSubscribeID raises the subscribe ID ceiling granted to the peer.
type MaxSubscribeID struct {
	SubscribeID uint64 `json:"subscribeId"`
}

// Type implements Message.
func (*MaxSubscribeID) Type() MessageType { return MessageMaxSubscribeID }

func (m *MaxSubscribeID) decode(d *Decoder) (err error) {
	m.SubscribeID, err = d.ReadVarint(0)
	return err
}

func (m *MaxSubscribeID) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
}

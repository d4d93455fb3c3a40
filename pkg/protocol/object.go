package protocol

// objectHeader is the shared layout of ObjectStream and ObjectDatagram.
type objectHeader struct {
	SubscribeID  uint64 `json:"subscribeId"`
	TrackAlias   uint64 `json:"trackAlias"`
	GroupID      uint64 `json:"groupId"`
	SendOrder    uint64 `json:"sendOrder"`
	ObjectStatus uint64 `json:"objectStatus"`
}

func (m *objectHeader) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(4); err != nil {
		return err
	}
	if m.TrackAlias, err = d.ReadVarint(3); err != nil {
		return err
	}
	if m.GroupID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if m.SendOrder, err = d.ReadVarint(1); err != nil {
		return err
	}
	m.ObjectStatus, err = d.ReadVarint(0)
	return err
}

func (m *objectHeader) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.TrackAlias)
	e.WriteVarint(m.GroupID)
	e.WriteVarint(m.SendOrder)
	e.WriteVarint(m.ObjectStatus)
}

// ObjectStream introduces a single object sent on its own stream.
type ObjectStream struct {
	SubscribeID  uint64 `json:"subscribeId"`
	TrackAlias   uint64 `json:"trackAlias"`
	GroupID      uint64 `json:"groupId"`
	SendOrder    uint64 `json:"sendOrder"`
	ObjectStatus uint64 `json:"objectStatus"`
}

// Type implements Message.
func (*ObjectStream) Type() MessageType { return MessageObjectStream }

func (m *ObjectStream) decode(d *Decoder) error { return (*objectHeader)(m).decode(d) }

func (m *ObjectStream) encode(e *Encoder) { (*objectHeader)(m).encode(e) }

// ObjectDatagram introduces a single object sent as a datagram.
type ObjectDatagram struct {
	SubscribeID  uint64 `json:"subscribeId"`
	TrackAlias   uint64 `json:"trackAlias"`
	GroupID      uint64 `json:"groupId"`
	SendOrder    uint64 `json:"sendOrder"`
	ObjectStatus uint64 `json:"objectStatus"`
}

// Type implements Message.
func (*ObjectDatagram) Type() MessageType { return MessageObjectDatagram }

func (m *ObjectDatagram) decode(d *Decoder) error { return (*objectHeader)(m).decode(d) }

func (m *ObjectDatagram) encode(e *Encoder) { (*objectHeader)(m).encode(e) }

// StreamHeaderTrack opens a stream carrying every object of a track.
type StreamHeaderTrack struct {
	SubscribeID uint64 `json:"subscribeId"`
	TrackAlias  uint64 `json:"trackAlias"`
	SendOrder   uint64 `json:"sendOrder"`
}

// Type implements Message.
func (*StreamHeaderTrack) Type() MessageType { return MessageStreamHeaderTrack }

func (m *StreamHeaderTrack) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(2); err != nil {
		return err
	}
	if m.TrackAlias, err = d.ReadVarint(1); err != nil {
		return err
	}
	m.SendOrder, err = d.ReadVarint(0)
	return err
}

func (m *StreamHeaderTrack) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.TrackAlias)
	e.WriteVarint(m.SendOrder)
}

// StreamHeaderGroup opens a stream carrying the objects of one group.
type StreamHeaderGroup struct {
	SubscribeID uint64 `json:"subscribeId"`
	TrackAlias  uint64 `json:"trackAlias"`
	GroupID     uint64 `json:"groupId"`
	SendOrder   uint64 `json:"sendOrder"`
}

// Type implements Message.
func (*StreamHeaderGroup) Type() MessageType { return MessageStreamHeaderGroup }

func (m *StreamHeaderGroup) decode(d *Decoder) error {
	var err error
	if m.SubscribeID, err = d.ReadVarint(3); err != nil {
		return err
	}
	if m.TrackAlias, err = d.ReadVarint(2); err != nil {
		return err
	}
	if m.GroupID, err = d.ReadVarint(1); err != nil {
		return err
	}
	m.SendOrder, err = d.ReadVarint(0)
	return err
}

func (m *StreamHeaderGroup) encode(e *Encoder) {
	e.WriteVarint(m.SubscribeID)
	e.WriteVarint(m.TrackAlias)
	e.WriteVarint(m.GroupID)
	e.WriteVarint(m.SendOrder)
}

package protocol

// TrackStatusRequest asks a publisher for the state of a track.
type TrackStatusRequest struct {
	Namespace Tuple     `json:"namespace"`
	TrackName BitString `json:"trackName"`
}

// Type implements Message.
func (*TrackStatusRequest) Type() MessageType { return MessageTrackStatusRequest }

func (m *TrackStatusRequest) decode(d *Decoder) error {
	var err error
	if m.Namespace, err = d.ReadTuple(1); err != nil {
		return err
	}
	m.TrackName, err = d.ReadBitString(0)
	return err
}

func (m *TrackStatusRequest) encode(e *Encoder) {
	e.WriteTuple(m.Namespace)
	e.WriteBitString(m.TrackName)
}

// TrackStatus answers a TrackStatusRequest.
type TrackStatus struct {
	Namespace  Tuple     `json:"namespace"`
	TrackName  BitString `json:"trackName"`
	StatusCode uint64    `json:"statusCode"`

	// Last is on the wire only while the track is in progress.
	Last Location `json:"last"`
}

// Type implements Message.
func (*TrackStatus) Type() MessageType { return MessageTrackStatus }

func (m *TrackStatus) decode(d *Decoder) error {
	var err error
	if m.Namespace, err = d.ReadTuple(2); err != nil {
		return err
	}
	if m.TrackName, err = d.ReadBitString(1); err != nil {
		return err
	}
	if m.StatusCode, err = d.ReadVarint(0); err != nil {
		return err
	}
	if m.StatusCode > MaxTrackStatus {
		return ErrInvalidTrackStatus
	}
	if m.StatusCode == TrackStatusInProgress {
		return m.Last.decode(d, 0)
	}
	return nil
}

func (m *TrackStatus) encode(e *Encoder) {
	if m.StatusCode > MaxTrackStatus {
		e.Fail(ErrStatusOutOfRange)
		return
	}
	e.WriteTuple(m.Namespace)
	e.WriteBitString(m.TrackName)
	e.WriteVarint(m.StatusCode)
	if m.StatusCode == TrackStatusInProgress {
		m.Last.encode(e)
	}
}

// Goaway asks the peer to migrate to a new session.
type Goaway struct {
	NewSessionURI BitString `json:"newSessionUri"`
}

// Type implements Message.
func (*Goaway) Type() MessageType { return MessageGoaway }

func (m *Goaway) decode(d *Decoder) (err error) {
	m.NewSessionURI, err = d.ReadBitString(0)
	return err
}

func (m *Goaway) encode(e *Encoder) {
	e.WriteBitString(m.NewSessionURI)
}

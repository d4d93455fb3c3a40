package protocol

// Protocol versions understood by this package. Peers may offer others.
const (
	VersionDraft05 uint32 = 0xff000005
	VersionDraft06 uint32 = 0xff000006
)

// ClientSetup opens a session and offers the versions the client speaks.
type ClientSetup struct {
	Versions []uint32        `json:"versions"`
	Params   SetupParameters `json:"params"`
}

// Type implements Message.
func (*ClientSetup) Type() MessageType { return MessageClientSetup }

func (m *ClientSetup) decode(d *Decoder) error {
	count, err := d.ReadVarint(1)
	if err != nil {
		return err
	}
	if count > MaxVersions {
		return ErrTooManyVersions
	}
	n := int(count)
	m.Versions = make([]uint32, n)
	for i := 0; i < n; i++ {
		// The remaining versions and the parameter count follow.
		v, err := d.ReadVarint(n - i)
		if err != nil {
			return err
		}
		if v > MaxVersion {
			return ErrVersionOverflow
		}
		m.Versions[i] = uint32(v)
	}
	return m.Params.decode(d, 0)
}

func (m *ClientSetup) encode(e *Encoder) {
	if len(m.Versions) > MaxVersions {
		e.Fail(ErrTooManyItems)
		return
	}
	e.WriteVarint(uint64(len(m.Versions)))
	for _, v := range m.Versions {
		e.WriteVarint(uint64(v))
	}
	m.Params.encode(e)
}

// ServerSetup completes the session handshake with the selected version.
type ServerSetup struct {
	SelectedVersion uint32          `json:"selectedVersion"`
	Params          SetupParameters `json:"params"`
}

// Type implements Message.
func (*ServerSetup) Type() MessageType { return MessageServerSetup }

func (m *ServerSetup) decode(d *Decoder) error {
	v, err := d.ReadVarint(1)
	if err != nil {
		return err
	}
	if v > MaxVersion {
		return ErrVersionOverflow
	}
	m.SelectedVersion = uint32(v)
	return m.Params.decode(d, 0)
}

func (m *ServerSetup) encode(e *Encoder) {
	e.WriteVarint(uint64(m.SelectedVersion))
	m.Params.encode(e)
}

// SelectVersion returns the first version offered by the client that is
// also in supported.
func (m *ClientSetup) SelectVersion(supported ...uint32) (uint32, bool) {
	for _, offered := range m.Versions {
		for _, v := range supported {
			if offered == v {
				return v, true
			}
		}
	}
	return 0, false
}

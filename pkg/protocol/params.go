package protocol

// Parameter keys.
const (
	ParamRole              = 0x00
	ParamPath              = 0x01
	ParamAuthorizationInfo = 0x02
)

// Role declares which side of a track a session endpoint takes.
type Role uint8

const (
	RolePublisher  Role = 0x01
	RoleSubscriber Role = 0x02
	RolePubSub     Role = 0x03
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RolePublisher:
		return "Publisher"
	case RoleSubscriber:
		return "Subscriber"
	case RolePubSub:
		return "PubSub"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r >= RolePublisher && r <= RolePubSub
}

// SetupParameters are exchanged in ClientSetup and ServerSetup.
type SetupParameters struct {
	// Role is mandatory.
	Role Role `json:"role"`

	// Path is optional; nil means absent. A decoded Path references the
	// input buffer.
	Path []byte `json:"path,omitempty"`
}

// SubscribeParameters are carried by subscriptions and announcements.
type SubscribeParameters struct {
	// AuthInfo is optional; nil means absent. A decoded AuthInfo references
	// the input buffer.
	AuthInfo []byte `json:"authInfo,omitempty"`
}

// readParamCount reads a parameter count and bounds it.
func readParamCount(d *Decoder, after int) (int, error) {
	count, err := d.ReadVarint(after)
	if err != nil {
		return 0, err
	}
	if count > MaxParameters {
		return 0, ErrTooManyParameters
	}
	return int(count), nil
}

// paramAfter is the shortfall floor while reading parameter i of n: every
// remaining parameter carries at least a key byte and a length byte.
func paramAfter(after, i, n int) int {
	return after + 2*(n-i-1)
}

func (p *SetupParameters) decode(d *Decoder, after int) error {
	n, err := readParamCount(d, after)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMissingParameters
	}
	var haveRole bool
	*p = SetupParameters{}
	for i := 0; i < n; i++ {
		rest := paramAfter(after, i, n)
		key, err := d.ReadVarint(rest + 1)
		if err != nil {
			return err
		}
		switch key {
		case ParamRole:
			if haveRole {
				return ErrDuplicateParameter
			}
			v, err := d.ReadLengthData(rest)
			if err != nil {
				return err
			}
			if len(v) != 1 || !Role(v[0]).Valid() {
				return ErrInvalidRole
			}
			p.Role = Role(v[0])
			haveRole = true
		case ParamPath:
			if p.Path != nil {
				return ErrDuplicateParameter
			}
			v, err := d.ReadLengthData(rest)
			if err != nil {
				return err
			}
			p.Path = v
		default:
			if _, err := d.ReadLengthData(rest); err != nil {
				return err
			}
		}
	}
	if !haveRole {
		return ErrMissingRole
	}
	return nil
}

func (p *SetupParameters) encode(e *Encoder) {
	if !p.Role.Valid() {
		e.Fail(ErrRoleOutOfRange)
		return
	}
	n := uint64(1)
	if p.Path != nil {
		n++
	}
	e.WriteVarint(n)
	e.WriteVarint(ParamRole)
	e.WriteLengthData([]byte{byte(p.Role)})
	if p.Path != nil {
		e.WriteVarint(ParamPath)
		e.WriteLengthData(p.Path)
	}
}

func (p *SubscribeParameters) decode(d *Decoder, after int) error {
	n, err := readParamCount(d, after)
	if err != nil {
		return err
	}
	*p = SubscribeParameters{}
	for i := 0; i < n; i++ {
		rest := paramAfter(after, i, n)
		key, err := d.ReadVarint(rest + 1)
		if err != nil {
			return err
		}
		if key == ParamAuthorizationInfo && p.AuthInfo != nil {
			return ErrDuplicateParameter
		}
		v, err := d.ReadLengthData(rest)
		if err != nil {
			return err
		}
		if key == ParamAuthorizationInfo {
			p.AuthInfo = v
		}
	}
	return nil
}

func (p *SubscribeParameters) encode(e *Encoder) {
	if p.AuthInfo == nil {
		e.WriteVarint(0)
		return
	}
	e.WriteVarint(1)
	e.WriteVarint(ParamAuthorizationInfo)
	e.WriteLengthData(p.AuthInfo)
}

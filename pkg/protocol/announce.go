package protocol

// Announce advertises a track namespace.
type Announce struct {
	Namespace Tuple               `json:"namespace"`
	Params    SubscribeParameters `json:"params"`
}

// Type implements Message.
func (*Announce) Type() MessageType { return MessageAnnounce }

func (m *Announce) decode(d *Decoder) error {
	var err error
	if m.Namespace, err = d.ReadTuple(1); err != nil {
		return err
	}
	return m.Params.decode(d, 0)
}

func (m *Announce) encode(e *Encoder) {
	e.WriteTuple(m.Namespace)
	m.Params.encode(e)
}

// AnnounceOk accepts an announcement.
type AnnounceOk struct {
	Namespace Tuple `json:"namespace"`
}

// Type implements Message.
func (*AnnounceOk) Type() MessageType { return MessageAnnounceOk }

func (m *AnnounceOk) decode(d *Decoder) (err error) {
	m.Namespace, err = d.ReadTuple(0)
	return err
}

func (m *AnnounceOk) encode(e *Encoder) {
	e.WriteTuple(m.Namespace)
}

// Unannounce withdraws an announcement.
type Unannounce struct {
	Namespace Tuple `json:"namespace"`
}

// Type implements Message.
func (*Unannounce) Type() MessageType { return MessageUnannounce }

func (m *Unannounce) decode(d *Decoder) (err error) {
	m.Namespace, err = d.ReadTuple(0)
	return err
}

func (m *Unannounce) encode(e *Encoder) {
	e.WriteTuple(m.Namespace)
}

// namespaceError is the shared layout of the namespace rejection messages.
type namespaceError struct {
	Namespace Tuple     `json:"namespace"`
	ErrorCode uint64    `json:"errorCode"`
	Reason    BitString `json:"reason"`
}

func (m *namespaceError) decode(d *Decoder) error {
	var err error
	if m.Namespace, err = d.ReadTuple(2); err != nil {
		return err
	}
	if m.ErrorCode, err = d.ReadVarint(1); err != nil {
		return err
	}
	m.Reason, err = d.ReadBitString(0)
	return err
}

func (m *namespaceError) encode(e *Encoder) {
	e.WriteTuple(m.Namespace)
	e.WriteVarint(m.ErrorCode)
	e.WriteBitString(m.Reason)
}

// AnnounceError rejects an announcement.
type AnnounceError struct {
	Namespace Tuple     `json:"namespace"`
	ErrorCode uint64    `json:"errorCode"`
	Reason    BitString `json:"reason"`
}

// Type implements Message.
func (*AnnounceError) Type() MessageType { return MessageAnnounceError }

func (m *AnnounceError) decode(d *Decoder) error { return (*namespaceError)(m).decode(d) }

func (m *AnnounceError) encode(e *Encoder) { (*namespaceError)(m).encode(e) }

// AnnounceCancel revokes a previously accepted announcement.
type AnnounceCancel struct {
	Namespace Tuple     `json:"namespace"`
	ErrorCode uint64    `json:"errorCode"`
	Reason    BitString `json:"reason"`
}

// Type implements Message.
func (*AnnounceCancel) Type() MessageType { return MessageAnnounceCancel }

func (m *AnnounceCancel) decode(d *Decoder) error { return (*namespaceError)(m).decode(d) }

func (m *AnnounceCancel) encode(e *Encoder) { (*namespaceError)(m).encode(e) }

// SubscribeNamespace asks for announcements under a namespace prefix.
type SubscribeNamespace struct {
	Prefix Tuple               `json:"prefix"`
	Params SubscribeParameters `json:"params"`
}

// Type implements Message.
func (*SubscribeNamespace) Type() MessageType { return MessageSubscribeNamespace }

func (m *SubscribeNamespace) decode(d *Decoder) error {
	var err error
	if m.Prefix, err = d.ReadTuple(1); err != nil {
		return err
	}
	return m.Params.decode(d, 0)
}

func (m *SubscribeNamespace) encode(e *Encoder) {
	e.WriteTuple(m.Prefix)
	m.Params.encode(e)
}

// SubscribeNamespaceOk accepts a namespace subscription.
type SubscribeNamespaceOk struct {
	Prefix Tuple `json:"prefix"`
}

// Type implements Message.
func (*SubscribeNamespaceOk) Type() MessageType { return MessageSubscribeNamespaceOk }

func (m *SubscribeNamespaceOk) decode(d *Decoder) (err error) {
	m.Prefix, err = d.ReadTuple(0)
	return err
}

func (m *SubscribeNamespaceOk) encode(e *Encoder) {
	e.WriteTuple(m.Prefix)
}

// SubscribeNamespaceError rejects a namespace subscription.
type SubscribeNamespaceError struct {
	Prefix    Tuple     `json:"prefix"`
	ErrorCode uint64    `json:"errorCode"`
	Reason    BitString `json:"reason"`
}

// Type implements Message.
func (*SubscribeNamespaceError) Type() MessageType { return MessageSubscribeNamespaceError }

func (m *SubscribeNamespaceError) decode(d *Decoder) error {
	var v namespaceError
	if err := v.decode(d); err != nil {
		return err
	}
	m.Prefix, m.ErrorCode, m.Reason = v.Namespace, v.ErrorCode, v.Reason
	return nil
}

func (m *SubscribeNamespaceError) encode(e *Encoder) {
	v := namespaceError{Namespace: m.Prefix, ErrorCode: m.ErrorCode, Reason: m.Reason}
	v.encode(e)
}

// UnsubscribeNamespace cancels a namespace subscription.
type UnsubscribeNamespace struct {
	Prefix Tuple `json:"prefix"`
}

// Type implements Message.
func (*UnsubscribeNamespace) Type() MessageType { return MessageUnsubscribeNamespace }

func (m *UnsubscribeNamespace) decode(d *Decoder) (err error) {
	m.Prefix, err = d.ReadTuple(0)
	return err
}

func (m *UnsubscribeNamespace) encode(e *Encoder) {
	e.WriteTuple(m.Prefix)
}

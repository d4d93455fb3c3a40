package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// Report is the result of decoding a complete buffer.
//
// Decoding stops at the first item that does not parse. When the buffer
// ends inside an item, Needed is the lower bound on the missing bytes and
// Err is nil. Otherwise Err says why decoding stopped, and Consumed is the
// offset of the rejected item.
type Report struct {
	Items    []*Envelope `json:"items"`
	Consumed int         `json:"consumed"`
	Needed   int         `json:"needed,omitempty"`
	Err      error       `json:"-"`
}

// Complete reports whether every byte decoded.
func (r *Report) Complete() bool {
	return r.Err == nil && r.Needed == 0
}

// reporter accumulates a Report and emits one parse event per item.
type reporter struct {
	ctx    context.Context
	obs    transport.Observer
	report Report
}

func (r *reporter) observe(kind transport.Kind, typ string, n int, start time.Time, err error) {
	if r.obs == nil {
		return
	}
	ev := transport.ParseEvent{Kind: kind, Attempts: 1, Start: start, Duration: time.Since(start), Err: err}
	switch {
	case err == nil:
		ev.Type, ev.Bytes = typ, n
	case errors.Is(err, protocol.ErrIncomplete):
		ev.Err = io.ErrUnexpectedEOF
	}
	r.obs.ObserveParse(r.ctx, ev)
}

// stop records why decoding ended. It always returns false.
func (r *reporter) stop(kind transport.Kind, start time.Time, err error) bool {
	r.observe(kind, "", 0, start, err)
	if n := protocol.Needed(err); n > 0 {
		r.report.Needed = n
		return false
	}
	r.report.Err = err
	return false
}

func (r *reporter) add(env *Envelope, n int) {
	env.Consumed = n
	r.report.Items = append(r.report.Items, env)
	r.report.Consumed += n
}

// DecodeControl decodes b as a sequence of control messages. obs, if not
// nil, is notified once per message.
func DecodeControl(ctx context.Context, b []byte, obs transport.Observer) *Report {
	r := &reporter{ctx: ctx, obs: obs}
	for r.report.Consumed < len(b) {
		start := time.Now()
		m, n, err := protocol.Parse(b[r.report.Consumed:])
		if err != nil {
			r.stop(transport.KindControl, start, err)
			break
		}
		r.observe(transport.KindControl, m.Type().String(), n, start, nil)
		env, err := Describe(m)
		if err != nil {
			r.report.Err = err
			break
		}
		r.add(env, n)
	}
	return &r.report
}

// DecodeData decodes b as a data stream: a track or subgroup header and
// the object records that follow it. Payloads longer than maxPayload bytes
// are cut in the envelopes.
func DecodeData(ctx context.Context, b []byte, obs transport.Observer, maxPayload int) *Report {
	r := &reporter{ctx: ctx, obs: obs}
	if len(b) == 0 {
		return &r.report
	}

	start := time.Now()
	header, n, err := protocol.ParseStreamFrame(b)
	if err == nil && header.Type() == protocol.StreamTypeDatagram {
		err = fmt.Errorf("%w: %s", transport.ErrUnexpectedFrame, header.Type())
	}
	if err != nil {
		r.stop(transport.KindStreamHeader, start, err)
		return &r.report
	}
	r.observe(transport.KindStreamHeader, header.Type().String(), n, start, nil)
	env, err := DescribeStream(header)
	if err != nil {
		r.report.Err = err
		return &r.report
	}
	r.add(env, n)

	for r.report.Consumed < len(b) {
		if !r.object(header, b, maxPayload) {
			break
		}
	}
	return &r.report
}

// object decodes one record and its payload at the current offset.
func (r *reporter) object(header protocol.StreamFrame, b []byte, maxPayload int) bool {
	start := time.Now()
	rest := b[r.report.Consumed:]

	var (
		obj    transport.Object
		length uint64
		typ    string
		n      int
		err    error
	)
	switch h := header.(type) {
	case *protocol.HeaderTrack:
		var rec protocol.TrackObject
		rec, n, err = protocol.ParseTrackObject(rest)
		obj = transport.Object{GroupID: rec.GroupID, ObjectID: rec.ObjectID, Status: rec.Status}
		length, typ = rec.PayloadLength, "track_object"
	case *protocol.HeaderSubgroup:
		var rec protocol.SubgroupObject
		rec, n, err = protocol.ParseSubgroupObject(rest)
		obj = transport.Object{GroupID: h.GroupID, ObjectID: rec.ObjectID, Status: rec.Status}
		length, typ = rec.PayloadLength, "subgroup_object"
	}
	if err != nil {
		return r.stop(transport.KindObject, start, err)
	}

	if avail := uint64(len(rest) - n); length > avail {
		short := length - avail
		if short > math.MaxInt32 {
			short = math.MaxInt32
		}
		return r.stop(transport.KindObject, start, &protocol.IncompleteError{Needed: int(short)})
	}
	obj.Payload = rest[n : n+int(length)]
	n += int(length)

	r.observe(transport.KindObject, typ, n, start, nil)
	env, err := DescribeObject(&obj, maxPayload)
	if err != nil {
		r.report.Err = err
		return false
	}
	r.add(env, n)
	return true
}

// DecodeDatagram decodes b as one datagram: the frame and its payload.
func DecodeDatagram(ctx context.Context, b []byte, obs transport.Observer, maxPayload int) *Report {
	r := &reporter{ctx: ctx, obs: obs}
	start := time.Now()
	dg, payload, err := transport.ReadDatagram(b)
	if err != nil {
		r.stop(transport.KindDatagram, start, err)
		return &r.report
	}
	r.observe(transport.KindDatagram, dg.Type().String(), len(b), start, nil)

	frame, err := DescribeStream(dg)
	if err != nil {
		r.report.Err = err
		return &r.report
	}
	body, err := DescribeObject(&transport.Object{GroupID: dg.GroupID, ObjectID: dg.ObjectID, Status: dg.Status, Payload: payload}, maxPayload)
	if err != nil {
		r.report.Err = err
		return &r.report
	}
	r.add(frame, len(b)-len(payload))
	r.add(body, len(payload))
	return &r.report
}

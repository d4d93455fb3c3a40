package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vango-dev/moqwire/pkg/protocol"
)

// Object is one object read from a data stream.
type Object struct {
	GroupID  uint64
	ObjectID uint64

	// Status is meaningful only when Payload is empty.
	Status uint64

	// Payload borrows the reader's buffer.
	Payload []byte
}

// DataStreamReader reads a unidirectional data stream: a HeaderTrack or
// HeaderSubgroup frame followed by object records and their payloads.
type DataStreamReader struct {
	buf    buffer
	opts   options
	header protocol.StreamFrame
	err    error
}

// NewDataStreamReader creates a DataStreamReader over r.
func NewDataStreamReader(r io.Reader, opts ...Option) *DataStreamReader {
	o := buildOptions(opts)
	return &DataStreamReader{
		buf:  buffer{r: r, max: o.maxMessageSize, size: o.bufferSize},
		opts: o,
	}
}

// Header reads the stream header if it has not been read yet and returns
// it.
func (s *DataStreamReader) Header(ctx context.Context) (protocol.StreamFrame, error) {
	if s.header != nil {
		return s.header, nil
	}
	if s.err != nil {
		return nil, s.err
	}

	start := time.Now()
	f, n, attempts, err := next(ctx, &s.buf, protocol.ParseStreamFrame)
	if err == nil && f.Type() == protocol.StreamTypeDatagram {
		err = fmt.Errorf("%w: %s", ErrUnexpectedFrame, f.Type())
	}
	ev := ParseEvent{Kind: KindStreamHeader, Bytes: n, Attempts: attempts, Start: start, Duration: time.Since(start), Err: err}
	if err == nil {
		ev.Type = f.Type().String()
	}
	s.opts.observe(ctx, ev)

	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.header = f
	return f, nil
}

// ReadObject reads the next object. It returns io.EOF once the stream ends
// cleanly after the last payload.
func (s *DataStreamReader) ReadObject(ctx context.Context) (Object, error) {
	h, err := s.Header(ctx)
	if err != nil {
		return Object{}, err
	}
	if s.err != nil {
		return Object{}, s.err
	}

	start := time.Now()
	var (
		obj      Object
		length   uint64
		n        int
		attempts int
		typ      string
	)
	switch h := h.(type) {
	case *protocol.HeaderTrack:
		var rec protocol.TrackObject
		rec, n, attempts, err = next(ctx, &s.buf, protocol.ParseTrackObject)
		obj = Object{GroupID: rec.GroupID, ObjectID: rec.ObjectID, Status: rec.Status}
		length, typ = rec.PayloadLength, "track_object"
	case *protocol.HeaderSubgroup:
		var rec protocol.SubgroupObject
		rec, n, attempts, err = next(ctx, &s.buf, protocol.ParseSubgroupObject)
		obj = Object{GroupID: h.GroupID, ObjectID: rec.ObjectID, Status: rec.Status}
		length, typ = rec.PayloadLength, "subgroup_object"
	}
	if err == nil && length > uint64(s.opts.maxPayloadSize) {
		err = ErrPayloadTooLarge
	}

	if err != io.EOF {
		ev := ParseEvent{Kind: KindObject, Bytes: n, Attempts: attempts, Start: start, Duration: time.Since(start), Err: err}
		if err == nil {
			ev.Type = typ
		}
		s.opts.observe(ctx, ev)
	}
	if err != nil {
		s.fail(err)
		return Object{}, err
	}

	if obj.Payload, err = s.buf.take(int(length)); err != nil {
		s.fail(err)
		return Object{}, err
	}
	return obj, nil
}

// fail makes err permanent unless the caller's context caused it.
func (s *DataStreamReader) fail(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if protocol.IsMalformed(err) {
		s.opts.logger.Debug("rejecting data stream", "error", err)
	}
	s.err = err
}

// ReadDatagram parses a datagram frame and returns it with its payload,
// which borrows b.
func ReadDatagram(b []byte) (*protocol.Datagram, []byte, error) {
	f, n, err := protocol.ParseStreamFrame(b)
	if err != nil {
		return nil, nil, err
	}
	dg, ok := f.(*protocol.Datagram)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnexpectedFrame, f.Type())
	}
	payload := b[n:]
	if uint64(len(payload)) != dg.PayloadLength {
		return nil, nil, fmt.Errorf("%w: announced %d, got %d", ErrPayloadLength, dg.PayloadLength, len(payload))
	}
	return dg, payload, nil
}

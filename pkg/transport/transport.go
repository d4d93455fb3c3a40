// Package transport drives the protocol codec over byte streams.
//
// The codec parses from a buffer and reports how many more bytes it needs.
// Reader and DataStreamReader turn that into blocking reads: they keep the
// partial message buffered, read at least the reported shortfall, and parse
// again from the message start. Writer formats into a reusable buffer and
// grows it when the codec reports the buffer is too small.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Default limits.
const (
	// DefaultMaxMessageSize bounds a single buffered control message or
	// stream record.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultMaxPayloadSize bounds a single object payload.
	DefaultMaxPayloadSize = 16 * 1024 * 1024

	// DefaultBufferSize is the initial read buffer size.
	DefaultBufferSize = 4096
)

var (
	// ErrMessageTooLarge is returned when a message would need more than the
	// configured maximum to be buffered.
	ErrMessageTooLarge = errors.New("transport: message exceeds maximum size")

	// ErrPayloadTooLarge is returned when an object announces a payload
	// above the configured maximum.
	ErrPayloadTooLarge = errors.New("transport: object payload exceeds maximum size")

	// ErrUnexpectedFrame is returned when a stream opens with a frame that
	// cannot start it.
	ErrUnexpectedFrame = errors.New("transport: unexpected stream frame")

	// ErrPayloadLength is returned when a datagram payload does not match
	// its announced length.
	ErrPayloadLength = errors.New("transport: payload length mismatch")
)

// Kind names what a ParseEvent parsed.
type Kind string

const (
	KindControl      Kind = "control"
	KindStreamHeader Kind = "stream_header"
	KindObject       Kind = "object"
	KindDatagram     Kind = "datagram"
)

// ParseEvent describes one finished parse, successful or not.
type ParseEvent struct {
	Kind Kind

	// Type is the message or frame type name; empty when the parse failed.
	Type string

	// Bytes is the encoded size on success.
	Bytes int

	// Attempts counts parse calls, one per incomplete retry plus the last.
	Attempts int

	Start    time.Time
	Duration time.Duration
	Err      error
}

// Observer is notified after every parse performed by a reader.
type Observer interface {
	ObserveParse(ctx context.Context, ev ParseEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev ParseEvent)

// ObserveParse implements Observer.
func (f ObserverFunc) ObserveParse(ctx context.Context, ev ParseEvent) {
	f(ctx, ev)
}

type options struct {
	maxMessageSize int
	maxPayloadSize int
	bufferSize     int
	observer       Observer
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxMessageSize: DefaultMaxMessageSize,
		maxPayloadSize: DefaultMaxPayloadSize,
		bufferSize:     DefaultBufferSize,
		logger:         slog.Default().With("component", "transport"),
	}
}

// Option configures a reader.
type Option func(*options)

// WithMaxMessageSize bounds the bytes buffered for a single message.
func WithMaxMessageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxMessageSize = n
		}
	}
}

// WithMaxPayloadSize bounds object payloads read by DataStreamReader.
func WithMaxPayloadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPayloadSize = n
		}
	}
}

// WithBufferSize sets the initial read buffer size.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithObserver installs a parse observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithLogger sets the logger used for rejected input.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.bufferSize > o.maxMessageSize {
		o.bufferSize = o.maxMessageSize
	}
	return o
}

func (o *options) observe(ctx context.Context, ev ParseEvent) {
	if o.observer != nil {
		o.observer.ObserveParse(ctx, ev)
	}
}

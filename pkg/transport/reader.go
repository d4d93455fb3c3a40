package transport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/vango-dev/moqwire/pkg/protocol"
)

// buffer holds bytes read from a stream that have not been consumed yet.
//
// Bytes already handed out are never overwritten: when the tail runs out of
// room the unread part moves to a fresh array. Decoded values that borrow
// the buffer therefore stay valid after later reads.
type buffer struct {
	r     io.Reader
	buf   []byte
	start int
	end   int
	max   int
	size  int
}

func (b *buffer) unread() []byte {
	return b.buf[b.start:b.end]
}

func (b *buffer) consume(n int) {
	b.start += n
}

// fill reads until at least n more bytes are buffered, refusing to buffer
// more than limit.
func (b *buffer) fill(n, limit int) error {
	pending := b.end - b.start
	if pending+n > limit {
		return ErrMessageTooLarge
	}
	if len(b.buf)-b.end < n {
		size := b.size
		if size < pending+n {
			size = pending + n
		}
		nb := make([]byte, size)
		copy(nb, b.unread())
		b.buf, b.start, b.end = nb, 0, pending
	}
	got, err := io.ReadAtLeast(b.r, b.buf[b.end:], n)
	b.end += got
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && pending+got == 0:
		return io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return io.ErrUnexpectedEOF
	default:
		return err
	}
}

// take returns the next n bytes, reading as needed. Callers bound n.
func (b *buffer) take(n int) ([]byte, error) {
	if short := n - (b.end - b.start); short > 0 {
		if err := b.fill(short, n); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	p := b.buf[b.start : b.start+n : b.start+n]
	b.start += n
	return p, nil
}

// next parses one value from the buffer, reading more whenever the parser
// reports a shortfall.
func next[T any](ctx context.Context, b *buffer, parse func([]byte) (T, int, error)) (v T, n int, attempts int, err error) {
	for {
		attempts++
		v, n, err = parse(b.unread())
		if err == nil {
			b.consume(n)
			return v, n, attempts, nil
		}
		if !errors.Is(err, protocol.ErrIncomplete) {
			return v, 0, attempts, err
		}
		if err := ctx.Err(); err != nil {
			return v, 0, attempts, err
		}
		if err := b.fill(protocol.Needed(err), b.max); err != nil {
			return v, 0, attempts, err
		}
	}
}

// Reader reads control messages from a byte stream.
//
// Messages returned by ReadMessage borrow the reader's buffer and remain
// valid after later calls. A Reader is not safe for concurrent use.
type Reader struct {
	buf  buffer
	opts options
	err  error
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := buildOptions(opts)
	return &Reader{
		buf:  buffer{r: r, max: o.maxMessageSize, size: o.bufferSize},
		opts: o,
	}
}

// ReadMessage reads the next control message.
//
// It returns io.EOF when the stream ends between messages and
// io.ErrUnexpectedEOF when it ends inside one. Malformed input is fatal:
// the error is returned again by every later call.
func (r *Reader) ReadMessage(ctx context.Context) (protocol.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	start := time.Now()
	m, n, attempts, err := next(ctx, &r.buf, protocol.Parse)

	ev := ParseEvent{Kind: KindControl, Bytes: n, Attempts: attempts, Start: start, Duration: time.Since(start), Err: err}
	if err == nil {
		ev.Type = m.Type().String()
	}
	if err != io.EOF {
		r.opts.observe(ctx, ev)
	}

	if err != nil {
		if protocol.IsMalformed(err) {
			r.opts.logger.Debug("rejecting control stream", "error", err, "attempts", attempts)
			r.err = err
		}
		return nil, err
	}
	return m, nil
}

// Buffered returns the number of bytes read from the stream but not yet
// consumed.
func (r *Reader) Buffered() int {
	return r.buf.end - r.buf.start
}

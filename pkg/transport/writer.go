package transport

import (
	"errors"
	"io"
	"sync"

	"github.com/vango-dev/moqwire/pkg/protocol"
)

// maxWriteBuffer caps how far Writer grows its buffer for a single value.
const maxWriteBuffer = 1 << 20

// Writer writes encoded messages to a byte stream. Each value is written
// with a single Write call. A Writer is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 256)}
}

// WriteMessage encodes and writes a control message.
func (w *Writer) WriteMessage(m protocol.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.format(func(dst []byte) (int, error) { return protocol.Format(dst, m) })
	if err != nil {
		return err
	}
	_, err = w.w.Write(w.buf[:n])
	return err
}

// WriteStreamFrame encodes and writes a datagram frame or stream header.
func (w *Writer) WriteStreamFrame(f protocol.StreamFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.format(func(dst []byte) (int, error) { return protocol.FormatStreamFrame(dst, f) })
	if err != nil {
		return err
	}
	_, err = w.w.Write(w.buf[:n])
	return err
}

// WriteTrackObject writes an object record for a HeaderTrack stream
// followed by payload. The record's payload length is taken from payload.
func (w *Writer) WriteTrackObject(rec protocol.TrackObject, payload []byte) error {
	rec.PayloadLength = uint64(len(payload))
	return w.writeRecord(func(dst []byte) (int, error) { return protocol.FormatTrackObject(dst, &rec) }, payload)
}

// WriteSubgroupObject writes an object record for a HeaderSubgroup stream
// followed by payload. The record's payload length is taken from payload.
func (w *Writer) WriteSubgroupObject(rec protocol.SubgroupObject, payload []byte) error {
	rec.PayloadLength = uint64(len(payload))
	return w.writeRecord(func(dst []byte) (int, error) { return protocol.FormatSubgroupObject(dst, &rec) }, payload)
}

func (w *Writer) writeRecord(format func([]byte) (int, error), payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.format(format)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(w.buf[:n]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.w.Write(payload)
	return err
}

// format runs fn against the write buffer, doubling the buffer until the
// encoding fits.
func (w *Writer) format(fn func([]byte) (int, error)) (int, error) {
	for {
		n, err := fn(w.buf)
		if !errors.Is(err, protocol.ErrShortBuffer) {
			return n, err
		}
		if len(w.buf) >= maxWriteBuffer {
			return 0, err
		}
		w.buf = make([]byte, 2*len(w.buf))
	}
}

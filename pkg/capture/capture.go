package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// ErrNotFound is returned when a capture doesn't exist.
var ErrNotFound = errors.New("capture: not found")

// ErrTooLarge is returned when a capture exceeds the size limit.
var ErrTooLarge = errors.New("capture: too large")

// ErrInvalidID is returned for IDs outside the allowed alphabet.
var ErrInvalidID = errors.New("capture: invalid id")

// Store is the interface for capture storage backends.
type Store interface {
	// Save stores everything read from r under id, replacing any capture
	// with the same ID.
	Save(ctx context.Context, id string, r io.Reader) (Info, error)

	// Open returns the capture bytes. The caller closes the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// List returns the stored captures ordered by ID.
	List(ctx context.Context) ([]Info, error)
}

// Info describes a stored capture.
type Info struct {
	ID      string    `json:"id"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// ValidID reports whether id can name a capture.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func checkID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// NewID generates a cryptographically random capture ID.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// limitReader reads at most max bytes from r and fails with ErrTooLarge if
// r has more. A max of 0 means no limit.
func limitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &limitedReader{r: io.LimitReader(r, max+1), left: max}
}

type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return 0, ErrTooLarge
	}
	return n, err
}

// Replay decodes the capture id as a control stream and calls fn for every
// message in order. Messages are only valid during the call. Replay stops
// at the first error from fn or from decoding; a capture that ends cleanly
// on a message boundary returns nil.
func Replay(ctx context.Context, s Store, id string, fn func(protocol.Message) error, opts ...transport.Option) error {
	rc, err := s.Open(ctx, id)
	if err != nil {
		return err
	}
	defer rc.Close()

	r := transport.NewReader(rc, opts...)
	for {
		m, err := r.ReadMessage(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("capture %s: %w", id, err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
}

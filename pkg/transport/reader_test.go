package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/vango-dev/moqwire/pkg/protocol"
)

func encodeAll(t *testing.T, msgs ...protocol.Message) []byte {
	t.Helper()
	var b []byte
	for _, m := range msgs {
		var err error
		if b, err = protocol.Append(b, m); err != nil {
			t.Fatalf("Append(%s) error = %v", m.Type(), err)
		}
	}
	return b
}

func testMessages() []protocol.Message {
	return []protocol.Message{
		&protocol.ClientSetup{Versions: []uint32{protocol.VersionDraft06}, Params: protocol.SetupParameters{Role: protocol.RoleSubscriber}},
		&protocol.Subscribe{
			SubscribeID: 1,
			TrackAlias:  2,
			Namespace:   protocol.NewTuple("moq", "chat"),
			TrackName:   protocol.StringBits("messages"),
			FilterType:  protocol.FilterAbsoluteRange,
			Start:       protocol.Location{Group: 1},
			End:         protocol.Location{Group: 9, Object: 3},
		},
		&protocol.Unsubscribe{SubscribeID: 1},
		&protocol.Goaway{NewSessionURI: protocol.StringBits("https://relay.example/next")},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []ParseEvent
}

func (r *recorder) ObserveParse(_ context.Context, ev ParseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestReaderReadsMessages(t *testing.T) {
	msgs := testMessages()
	data := encodeAll(t, msgs...)

	readers := map[string]func(io.Reader) io.Reader{
		"whole":    func(r io.Reader) io.Reader { return r },
		"one byte": iotest.OneByteReader,
		"half":     iotest.HalfReader,
		"data err": iotest.DataErrReader,
	}

	for name, wrap := range readers {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			r := NewReader(wrap(bytes.NewReader(data)), WithObserver(rec), WithBufferSize(16))
			ctx := context.Background()

			for i, want := range msgs {
				got, err := r.ReadMessage(ctx)
				if err != nil {
					t.Fatalf("ReadMessage() #%d error = %v", i, err)
				}
				if got.Type() != want.Type() {
					t.Fatalf("ReadMessage() #%d = %s, want %s", i, got.Type(), want.Type())
				}
			}
			if _, err := r.ReadMessage(ctx); err != io.EOF {
				t.Errorf("ReadMessage() at end error = %v, want io.EOF", err)
			}

			if len(rec.events) != len(msgs) {
				t.Fatalf("observed %d events, want %d", len(rec.events), len(msgs))
			}
			total := 0
			for _, ev := range rec.events {
				if ev.Err != nil || ev.Kind != KindControl || ev.Attempts < 1 {
					t.Errorf("event = %+v", ev)
				}
				total += ev.Bytes
			}
			if total != len(data) {
				t.Errorf("observed %d bytes, want %d", total, len(data))
			}
		})
	}
}

func TestReaderRetriesOnShortfall(t *testing.T) {
	data := encodeAll(t, testMessages()[1])
	rec := &recorder{}
	r := NewReader(iotest.OneByteReader(bytes.NewReader(data)), WithObserver(rec))

	if _, err := r.ReadMessage(context.Background()); err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got := rec.events[0].Attempts; got < 2 || got > len(data)+1 {
		t.Errorf("Attempts = %d, want between 2 and %d", got, len(data)+1)
	}
}

func TestReaderMessagesStayValid(t *testing.T) {
	msgs := testMessages()
	data := encodeAll(t, msgs...)
	r := NewReader(iotest.OneByteReader(bytes.NewReader(data)), WithBufferSize(8))
	ctx := context.Background()

	var got []protocol.Message
	for range msgs {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		got = append(got, m)
	}

	sub := got[1].(*protocol.Subscribe)
	if sub.Namespace.String() != "moq/chat" || sub.TrackName.String() != "messages" {
		t.Errorf("Subscribe = %v %v after later reads", sub.Namespace, sub.TrackName)
	}
	if !bytes.Equal(encodeAll(t, got...), data) {
		t.Error("re-encoded messages differ from the stream")
	}
}

func TestReaderTruncated(t *testing.T) {
	data := encodeAll(t, testMessages()...)
	r := NewReader(bytes.NewReader(data[:len(data)-3]))
	ctx := context.Background()

	var err error
	for err == nil {
		_, err = r.ReadMessage(ctx)
	}
	if err != io.ErrUnexpectedEOF {
		t.Errorf("ReadMessage() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReaderMalformedIsSticky(t *testing.T) {
	data := append(encodeAll(t, &protocol.Unsubscribe{SubscribeID: 3}), 0x0f, 0x00, 0x00)
	rec := &recorder{}
	r := NewReader(bytes.NewReader(data), WithObserver(rec))
	ctx := context.Background()

	if _, err := r.ReadMessage(ctx); err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	_, err := r.ReadMessage(ctx)
	if !errors.Is(err, protocol.ErrUnknownMessageType) {
		t.Fatalf("ReadMessage() error = %v, want ErrUnknownMessageType", err)
	}
	if _, again := r.ReadMessage(ctx); again != err {
		t.Errorf("ReadMessage() after failure = %v, want %v", again, err)
	}
	if last := rec.events[len(rec.events)-1]; last.Err == nil || last.Type != "" {
		t.Errorf("last event = %+v, want failure", last)
	}
}

func TestReaderMessageTooLarge(t *testing.T) {
	big := &protocol.Goaway{NewSessionURI: protocol.NewBitString(make([]byte, 200))}
	r := NewReader(bytes.NewReader(encodeAll(t, big)), WithMaxMessageSize(64))
	if _, err := r.ReadMessage(context.Background()); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("ReadMessage() error = %v, want ErrMessageTooLarge", err)
	}
}

func TestReaderContextCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(pr)
	if _, err := r.ReadMessage(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadMessage() error = %v, want context.Canceled", err)
	}
}

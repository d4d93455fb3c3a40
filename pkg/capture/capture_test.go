package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

func controlStream(t *testing.T, msgs ...protocol.Message) []byte {
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

func sampleCapture(t *testing.T) []byte {
	return controlStream(t,
		&protocol.ClientSetup{Versions: []uint32{protocol.VersionDraft05}, Params: protocol.SetupParameters{Role: protocol.RoleSubscriber}},
		&protocol.Subscribe{SubscribeID: 1, Namespace: protocol.NewTuple("live"), TrackName: protocol.StringBits("video"), FilterType: protocol.FilterLatestGroup},
		&protocol.Unsubscribe{SubscribeID: 1},
	)
}

func TestValidID(t *testing.T) {
	valid := []string{"a", "abc-123", "session_1.in", strings.Repeat("x", 128), NewID()}
	for _, id := range valid {
		if !ValidID(id) {
			t.Errorf("ValidID(%q) = false", id)
		}
	}
	invalid := []string{"", ".hidden", "../etc", "a/b", "sp ace", strings.Repeat("x", 129)}
	for _, id := range invalid {
		if ValidID(id) {
			t.Errorf("ValidID(%q) = true", id)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b || len(a) != 32 {
		t.Errorf("NewID() = %q, %q", a, b)
	}
}

func TestReplay(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	if _, err := store.Save(ctx, "s1", bytes.NewReader(sampleCapture(t))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var seen []protocol.MessageType
	err = Replay(ctx, store, "s1", func(m protocol.Message) error {
		seen = append(seen, m.Type())
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	want := []protocol.MessageType{protocol.MessageClientSetup, protocol.MessageSubscribe, protocol.MessageUnsubscribe}
	if len(seen) != len(want) {
		t.Fatalf("Replay() saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("message %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), 0)
	ctx := context.Background()
	_, _ = store.Save(ctx, "s1", bytes.NewReader(sampleCapture(t)))

	stop := errors.New("stop")
	calls := 0
	err := Replay(ctx, store, "s1", func(protocol.Message) error {
		calls++
		return stop
	})
	if err != stop || calls != 1 {
		t.Errorf("Replay() = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestReplayErrors(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), 0)
	ctx := context.Background()
	noop := func(protocol.Message) error { return nil }

	if err := Replay(ctx, store, "missing", noop); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replay(missing) error = %v, want ErrNotFound", err)
	}

	data := sampleCapture(t)
	_, _ = store.Save(ctx, "cut", bytes.NewReader(data[:len(data)-1]))
	if err := Replay(ctx, store, "cut", noop); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Replay(truncated) error = %v, want io.ErrUnexpectedEOF", err)
	}

	_, _ = store.Save(ctx, "junk", bytes.NewReader([]byte{0x3f, 0x00}))
	if err := Replay(ctx, store, "junk", noop); !protocol.IsMalformed(err) {
		t.Errorf("Replay(junk) error = %v, want malformed", err)
	}

	big := controlStream(t, &protocol.Goaway{NewSessionURI: protocol.NewBitString(make([]byte, 300))})
	_, _ = store.Save(ctx, "big", bytes.NewReader(big))
	if err := Replay(ctx, store, "big", noop, transport.WithMaxMessageSize(128)); !errors.Is(err, transport.ErrMessageTooLarge) {
		t.Errorf("Replay(big) error = %v, want ErrMessageTooLarge", err)
	}
}

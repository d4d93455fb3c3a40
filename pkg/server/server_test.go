package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/moqwire/pkg/capture"
	"github.com/vango-dev/moqwire/pkg/inspect"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

type decodeBody struct {
	Items    []inspect.Envelope `json:"items"`
	Consumed int                `json:"consumed"`
	Needed   int                `json:"needed"`
	Error    *struct {
		Code   string `json:"code"`
		Offset *int   `json:"offset"`
	} `json:"error"`
}

type eventLog struct {
	mu     sync.Mutex
	events []transport.ParseEvent
}

func (l *eventLog) ObserveParse(_ context.Context, ev transport.ParseEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func encode(t *testing.T, msgs ...protocol.Message) []byte {
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

func do(t *testing.T, h http.Handler, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) decodeBody {
	t.Helper()
	var out decodeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestNewFillsDefaults(t *testing.T) {
	s := New(&Config{Address: ":0"})
	cfg := s.Config()
	if cfg.Address != ":0" {
		t.Errorf("Address = %q, want :0", cfg.Address)
	}
	if cfg.ReadLimit != 1<<20 || cfg.SelectedVersion != protocol.VersionDraft06 || cfg.CheckOrigin == nil {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if New(nil).Config().MetricsPath != "/metrics" {
		t.Error("New(nil) did not use DefaultConfig")
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, New(nil), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("moqwire_parses_total 1\n"))
	})
	s := New(&Config{MetricsHandler: metrics, MetricsPath: "/internal/metrics"})

	if rec := do(t, s, http.MethodGet, "/internal/metrics", "", nil); !strings.Contains(rec.Body.String(), "parses_total") {
		t.Errorf("metrics route = %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, New(nil), http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics without handler = %d, want 404", rec.Code)
	}
}

func TestDecodeControl(t *testing.T) {
	events := &eventLog{}
	s := New(&Config{Observer: events})
	data := encode(t,
		&protocol.ClientSetup{Versions: []uint32{protocol.VersionDraft06}, Params: protocol.SetupParameters{Role: protocol.RoleSubscriber}},
		&protocol.Unsubscribe{SubscribeID: 7},
	)

	rec := do(t, s, http.MethodPost, "/v1/decode", "application/octet-stream", data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeJSON(t, rec)
	if len(out.Items) != 2 || out.Items[0].Type != "client_setup" || out.Items[1].Type != "unsubscribe" {
		t.Fatalf("items = %+v", out.Items)
	}
	if out.Consumed != len(data) || out.Needed != 0 || out.Error != nil {
		t.Errorf("consumed=%d needed=%d error=%v, want %d 0 nil", out.Consumed, out.Needed, out.Error, len(data))
	}
	if len(events.events) != 2 {
		t.Errorf("observed %d events, want 2", len(events.events))
	}
}

func TestDecodeHexTruncated(t *testing.T) {
	data := encode(t, &protocol.Unsubscribe{SubscribeID: 7}, &protocol.Goaway{NewSessionURI: protocol.StringBits("https://relay.example")})
	text := hex.EncodeToString(data[:len(data)-4])
	// Whitespace in hex input is ignored.
	text = text[:4] + "\n  " + text[4:]

	rec := do(t, New(nil), http.MethodPost, "/v1/decode?hex=1", "", []byte(text))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeJSON(t, rec)
	if len(out.Items) != 1 || out.Needed < 1 {
		t.Errorf("items=%d needed=%d, want 1 item and a shortfall", len(out.Items), out.Needed)
	}
}

func TestDecodeMalformed(t *testing.T) {
	good := encode(t, &protocol.Unsubscribe{SubscribeID: 1})
	data := append(good, 0x3f, 0x00)

	rec := do(t, New(nil), http.MethodPost, "/v1/decode", "", data)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	out := decodeJSON(t, rec)
	if out.Error == nil || out.Error.Code != "E200" {
		t.Fatalf("error = %+v, want E200", out.Error)
	}
	if out.Error.Offset == nil || *out.Error.Offset != len(good) {
		t.Errorf("offset = %v, want %d", out.Error.Offset, len(good))
	}
	if len(out.Items) != 1 {
		t.Errorf("items = %d, want the message before the bad one", len(out.Items))
	}
}

func TestDecodeData(t *testing.T) {
	var stream bytes.Buffer
	w := transport.NewWriter(&stream)
	_ = w.WriteStreamFrame(&protocol.HeaderSubgroup{SubscribeID: 1, TrackAlias: 2, GroupID: 3})
	_ = w.WriteSubgroupObject(protocol.SubgroupObject{ObjectID: 0}, []byte("hello"))

	rec := do(t, New(nil), http.MethodPost, "/v1/decode?kind=data", "", stream.Bytes())
	out := decodeJSON(t, rec)
	if rec.Code != http.StatusOK || len(out.Items) != 2 {
		t.Fatalf("status = %d, items = %+v", rec.Code, out.Items)
	}
	if out.Items[0].Type != "header_subgroup" || out.Items[1].Type != inspect.TypeObject {
		t.Errorf("types = %s %s", out.Items[0].Type, out.Items[1].Type)
	}
	var obj inspect.ObjectView
	if err := json.Unmarshal(out.Items[1].Object, &obj); err != nil {
		t.Fatal(err)
	}
	if obj.Payload != "hello" || obj.PayloadLength != 5 {
		t.Errorf("object = %s", out.Items[1].Object)
	}
}

func TestDecodeDatagram(t *testing.T) {
	b, err := protocol.AppendStreamFrame(nil, &protocol.Datagram{SubscribeID: 1, GroupID: 2, ObjectID: 3, PayloadLength: 2})
	if err != nil {
		t.Fatal(err)
	}
	rec := do(t, New(nil), http.MethodPost, "/v1/decode?kind=datagram", "", append(b, 0xff, 0x00))
	out := decodeJSON(t, rec)
	if rec.Code != http.StatusOK || len(out.Items) != 2 || out.Items[0].Type != "datagram" {
		t.Fatalf("status = %d, items = %+v", rec.Code, out.Items)
	}
	var obj inspect.ObjectView
	if err := json.Unmarshal(out.Items[1].Object, &obj); err != nil {
		t.Fatal(err)
	}
	if obj.PayloadHex != "ff00" || obj.PayloadLength != 2 {
		t.Errorf("object = %s", out.Items[1].Object)
	}
}

func TestDecodeBadRequests(t *testing.T) {
	tests := []struct {
		name, target, code string
		body               []byte
	}{
		{"unknown kind", "/v1/decode?kind=video", "E401", []byte{0x10, 0x01}},
		{"bad hex", "/v1/decode?hex=1", "E400", []byte("zz")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, New(nil), http.MethodPost, tt.target, "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if out := decodeJSON(t, rec); out.Error == nil || out.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", out.Error, tt.code)
			}
		})
	}
}

func TestDecodeReadLimit(t *testing.T) {
	s := New(&Config{ReadLimit: 8})
	rec := do(t, s, http.MethodPost, "/v1/decode", "", make([]byte, 64))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestEncode(t *testing.T) {
	want := encode(t, &protocol.Unsubscribe{SubscribeID: 9}, &protocol.AnnounceOk{Namespace: protocol.NewTuple("moq")})
	body := `[
		{"type": "unsubscribe", "message": {"subscribeId": 9}},
		{"type": "announce_ok", "message": {"namespace": ["moq"]}}
	]`

	rec := do(t, New(nil), http.MethodPost, "/v1/encode", "application/json", []byte(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(rec.Body.Bytes(), want) {
		t.Errorf("encode = %x, want %x", rec.Body.Bytes(), want)
	}

	single := encode(t, &protocol.Unsubscribe{SubscribeID: 9})
	rec = do(t, New(nil), http.MethodPost, "/v1/encode?hex=1", "application/json", []byte(`{"type": "unsubscribe", "message": {"subscribeId": 9}}`))
	if got := strings.TrimSpace(rec.Body.String()); got != hex.EncodeToString(single) {
		t.Errorf("encode hex = %q, want %x", got, single)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name, body, code string
	}{
		{"unknown type", `{"type": "subscribe_everything", "message": {}}`, "E210"},
		{"empty envelope", `{"type": "unsubscribe"}`, "E210"},
		{"bad json", `[{"type": `, "E210"},
		{"unencodable", `{"type": "server_setup", "message": {"selectedVersion": 1, "params": {"role": 9}}}`, "E203"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, New(nil), http.MethodPost, "/v1/encode", "application/json", []byte(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if out := decodeJSON(t, rec); out.Error == nil || out.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", out.Error, tt.code)
			}
		})
	}
}

func TestCaptures(t *testing.T) {
	store, err := capture.NewFileStore(t.TempDir(), 1<<10)
	if err != nil {
		t.Fatal(err)
	}
	s := New(&Config{Captures: store})
	data := encode(t, &protocol.Unsubscribe{SubscribeID: 1}, &protocol.Unsubscribe{SubscribeID: 2})

	rec := do(t, s, http.MethodPut, "/v1/captures/session-1", "application/octet-stream", data)
	if rec.Code != http.StatusCreated {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}
	var info capture.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil || info.ID != "session-1" || info.Size != int64(len(data)) {
		t.Fatalf("PUT info = %+v, %v", info, err)
	}

	rec = do(t, s, http.MethodGet, "/v1/captures", "", nil)
	var list []capture.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/v1/captures/session-1", "", nil)
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Errorf("GET raw = %x, want %x", rec.Body.Bytes(), data)
	}

	rec = do(t, s, http.MethodGet, "/v1/captures/session-1?decode=1", "", nil)
	if out := decodeJSON(t, rec); len(out.Items) != 2 {
		t.Errorf("GET decoded items = %d, want 2", len(out.Items))
	}

	rec = do(t, s, http.MethodPut, "/v1/captures/hexed?hex=1", "", []byte(hex.EncodeToString(data)))
	if rec.Code != http.StatusCreated {
		t.Errorf("PUT hex status = %d", rec.Code)
	}
}

func TestCaptureErrors(t *testing.T) {
	store, err := capture.NewFileStore(t.TempDir(), 16)
	if err != nil {
		t.Fatal(err)
	}
	s := New(&Config{Captures: store})

	tests := []struct {
		name, method, target string
		body                 []byte
		status               int
		code                 string
	}{
		{"missing", http.MethodGet, "/v1/captures/nope", nil, http.StatusNotFound, "E300"},
		{"invalid id", http.MethodPut, "/v1/captures/.hidden", []byte{1}, http.StatusBadRequest, "E301"},
		{"too large", http.MethodPut, "/v1/captures/big", make([]byte, 64), http.StatusRequestEntityTooLarge, "E302"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, "", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if out := decodeJSON(t, rec); out.Error == nil || out.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", out.Error, tt.code)
			}
		})
	}

	if rec := do(t, New(nil), http.MethodGet, "/v1/captures", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("captures disabled status = %d, want 404", rec.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := httptest.NewUnstartedServer(nil)
	ln := srv.Listener
	defer ln.Close()

	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}

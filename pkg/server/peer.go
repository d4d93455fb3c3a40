package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	errs "github.com/vango-dev/moqwire/internal/errors"
	"github.com/vango-dev/moqwire/pkg/inspect"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// Subscribe error code sent for every subscription: the peer has no tracks.
const SubscribeErrorTrackDoesNotExist = 0x2

// ErrSetupRequired is reported when a session does not open with a client
// setup.
var ErrSetupRequired = errors.New("server: session must begin with client_setup")

// ErrNoCommonVersion is reported when the client offers no version the
// server speaks.
var ErrNoCommonVersion = errors.New("server: no common version")

// Note is the text message the peer sends for every message it reads, and
// once with Error set before it gives up on a session.
type Note struct {
	Envelope *inspect.Envelope `json:"envelope,omitempty"`
	Summary  string            `json:"summary,omitempty"`
	Error    error             `json:"error,omitempty"`
}

// session is one WebSocket peer.
type session struct {
	stream  *transport.WebSocketStream
	reader  *transport.Reader
	writer  *transport.Writer
	version uint32
	logger  *slog.Logger
}

// HandleWebSocket upgrades the request and runs a peer session on it.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.config.ReadLimit)

	stream := transport.NewWebSocketStream(conn)
	defer stream.Close()

	sess := &session{
		stream: stream,
		reader: transport.NewReader(stream,
			transport.WithMaxMessageSize(s.config.MaxMessageSize),
			transport.WithObserver(s.config.Observer),
			transport.WithLogger(s.logger),
		),
		writer: transport.NewWriter(stream),
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}
	sess.logger.Debug("session opened")
	if err := s.serve(r.Context(), sess); err != nil {
		sess.logger.Warn("session ended", "error", err)
		return
	}
	sess.logger.Debug("session closed")
}

// serve reads messages until the client leaves, sends goaway or breaks
// the protocol.
func (s *Server) serve(ctx context.Context, sess *session) error {
	for {
		m, err := sess.reader.ReadMessage(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			sess.note(&Note{Error: coded(err, "E200")})
			return err
		}

		env, err := inspect.Describe(m)
		if err != nil {
			return err
		}
		if err := sess.note(&Note{Envelope: env, Summary: inspect.Summary(m)}); err != nil {
			return err
		}

		replies, done, err := s.respond(sess, m)
		if err != nil {
			sess.note(&Note{Error: errs.Newf(errs.CategoryProtocol, "%v", err)})
			return err
		}
		for _, reply := range replies {
			if err := sess.writer.WriteMessage(reply); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

// respond returns the replies to m and whether the session is over.
func (s *Server) respond(sess *session, m protocol.Message) ([]protocol.Message, bool, error) {
	setup, isSetup := m.(*protocol.ClientSetup)
	if sess.version == 0 {
		if !isSetup {
			return nil, false, fmt.Errorf("%w, got %s", ErrSetupRequired, m.Type())
		}
		v, ok := setup.SelectVersion(s.config.SelectedVersion)
		if !ok {
			return nil, false, fmt.Errorf("%w: offered %#x, want %#x", ErrNoCommonVersion, setup.Versions, s.config.SelectedVersion)
		}
		sess.version = v
		sess.logger.Info("session established", "version", fmt.Sprintf("%#x", v), "role", setup.Params.Role)
		return []protocol.Message{&protocol.ServerSetup{
			SelectedVersion: v,
			Params:          protocol.SetupParameters{Role: protocol.RolePubSub},
		}}, false, nil
	}

	switch m := m.(type) {
	case *protocol.ClientSetup:
		return nil, false, errors.New("server: duplicate client_setup")
	case *protocol.Subscribe:
		return []protocol.Message{&protocol.SubscribeError{
			SubscribeID: m.SubscribeID,
			ErrorCode:   SubscribeErrorTrackDoesNotExist,
			Reason:      protocol.StringBits("track does not exist"),
			TrackAlias:  m.TrackAlias,
		}}, false, nil
	case *protocol.Announce:
		return []protocol.Message{&protocol.AnnounceOk{Namespace: m.Namespace}}, false, nil
	case *protocol.SubscribeNamespace:
		return []protocol.Message{&protocol.SubscribeNamespaceOk{Prefix: m.Prefix}}, false, nil
	case *protocol.TrackStatusRequest:
		return []protocol.Message{&protocol.TrackStatus{
			Namespace:  m.Namespace,
			TrackName:  m.TrackName,
			StatusCode: protocol.TrackStatusNotExist,
		}}, false, nil
	case *protocol.Goaway:
		return nil, true, nil
	default:
		return nil, false, nil
	}
}

func (sess *session) note(n *Note) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return sess.stream.WriteText(b)
}

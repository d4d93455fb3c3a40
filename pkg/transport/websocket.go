package transport

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketStream exposes a WebSocket connection as a byte stream. Binary
// messages are consecutive segments of the stream; their boundaries carry
// no meaning. Text messages are skipped on read.
type WebSocketStream struct {
	conn *websocket.Conn
	r    io.Reader
	wmu  sync.Mutex
}

// NewWebSocketStream wraps conn.
func NewWebSocketStream(conn *websocket.Conn) *WebSocketStream {
	return &WebSocketStream{conn: conn}
}

// Conn returns the underlying connection.
func (s *WebSocketStream) Conn() *websocket.Conn {
	return s.conn
}

// Read implements io.Reader. A normal close from the peer reads as io.EOF.
func (s *WebSocketStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			mt, r, err := s.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if errors.Is(err, io.EOF) {
			s.r = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

// Write implements io.Writer by sending p as one binary message.
func (s *WebSocketStream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteText sends p as a text message, outside of the byte stream.
func (s *WebSocketStream) WriteText(p []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, p)
}

// Close sends a normal close frame and closes the connection.
func (s *WebSocketStream) Close() error {
	s.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.wmu.Unlock()
	return s.conn.Close()
}

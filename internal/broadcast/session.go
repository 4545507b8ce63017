package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second
)

// session is one connected viewer. A single writer goroutine drains the
// send queue, which keeps per-session delivery in Publish order.
type session struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	send chan Envelope
	done chan struct{}
	once sync.Once
}

func newSession(conn *websocket.Conn, sendBuffer int, logger *slog.Logger) *session {
	return &session{
		id:     uuid.NewString(),
		conn:   conn,
		logger: logger,
		send:   make(chan Envelope, sendBuffer),
		done:   make(chan struct{}),
	}
}

// writePump is the session's only writer. It exits when the session closes
// or a write fails; either way the connection is torn down.
func (s *session) writePump() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer s.close()

	for {
		select {
		case env := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := s.conn.WriteJSON(env); err != nil {
				s.logger.Debug("session write failed", "session_id", s.id, "error", err)
				return
			}
		case <-ping.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// readPump discards inbound frames; its job is to notice the peer closing
// and to refresh the read deadline on pongs.
func (s *session) readPump() {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("session close", "session_id", s.id, "error", err)
		}
	})
}

// Package broadcast fans newly stored readings out to connected viewer
// sessions over websocket. Delivery is best effort: a session that cannot
// keep up misses deliveries and repairs its view on the next poll.
package broadcast

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"airwatch-server/internal/modules/readings/types"
)

// EventSensorData is the event name carried by every push frame.
const EventSensorData = "sensor-data"

// Envelope is the wire frame sent to viewer sessions.
type Envelope struct {
	Event string        `json:"event"`
	Data  types.Reading `json:"data"`
}

// Publisher is the part of the hub the ingest path depends on.
type Publisher interface {
	Publish(r types.Reading)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard is served from arbitrary origins; there is no auth to protect.
		return true
	},
}

type Hub struct {
	logger     *slog.Logger
	sendBuffer int

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
}

// NewHub returns a hub whose sessions each get a sendBuffer-deep outbound
// queue. If logger is nil, slog.Default() is used.
func NewHub(sendBuffer int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Hub{
		logger:     logger,
		sendBuffer: sendBuffer,
		sessions:   make(map[string]*session),
	}
}

// Publish delivers r to every session connected at the time of the call.
// Sessions connecting afterwards do not receive r (no replay). Within one
// session frames arrive in Publish order; a session whose queue is full
// misses this delivery without blocking or failing the others.
func (h *Hub) Publish(r types.Reading) {
	env := Envelope{Event: EventSensorData, Data: r}

	h.mu.RLock()
	snapshot := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	for _, s := range snapshot {
		select {
		case s.send <- env:
		default:
			h.logger.Warn("session send queue full, delivery dropped",
				"session_id", s.id,
				"reading_id", r.ID,
			)
		}
	}
}

// HandleWS upgrades the request and runs the session until the client
// disconnects or the hub shuts down.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	s := newSession(conn, h.sendBuffer, h.logger)
	h.register(s)
	h.logger.Info("viewer connected", "session_id", s.id, "remote", r.RemoteAddr)

	go s.writePump()
	// readPump blocks until the peer goes away; run it on this goroutine so
	// the handler's lifetime matches the session's.
	s.readPump()

	h.unregister(s)
	s.close()
	h.logger.Info("viewer disconnected", "session_id", s.id)
}

// SessionCount returns the number of currently connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown closes every connected session. Publish calls after Shutdown
// deliver to nobody.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
}

package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"airwatch-server/internal/modules/readings/types"
)

// State is the connection state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

const (
	defaultPollInterval = 30 * time.Second
	initialBackoff      = time.Second
	maxBackoff          = 30 * time.Second
	pullTimeout         = 10 * time.Second
)

// Options configure a Session. The zero value is usable.
type Options struct {
	// PollInterval is the fixed period between polls of the latest reading.
	// The poll runs regardless of connection state. Defaults to 30s.
	PollInterval time.Duration

	// Reconnect enables automatic redial with exponential backoff after the
	// push connection drops.
	Reconnect bool

	// OnUpdate is invoked whenever the current view changes. It runs on the
	// session's internal goroutines, so it must not block.
	OnUpdate func(types.Reading)

	Logger *slog.Logger
}

// Session maintains a live view of the latest reading. Pushed events and
// periodic polls both funnel into one event loop, which applies them through
// the view's merge rule. The poll keeps running while disconnected, so the
// view converges even when the push channel is down, and the view survives
// disconnects unchanged.
type Session struct {
	client *Client
	wsURL  string
	opts   Options
	logger *slog.Logger

	view  CurrentView
	state atomic.Int32

	events chan types.Reading
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	connMu sync.Mutex
	conn   *websocket.Conn
}

// NewSession builds a session against the API at baseURL. Call Start to
// begin polling and (when possible) receiving pushed events.
func NewSession(baseURL string, opts Options) (*Session, error) {
	wsURL, err := websocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client: NewClient(baseURL),
		wsURL:  wsURL,
		opts:   opts,
		logger: logger,
		events: make(chan types.Reading, 16),
		done:   make(chan struct{}),
	}, nil
}

func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Start launches the event loop and the push connection. It returns after
// the goroutines are running; the first pull happens asynchronously.
func (s *Session) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.runLoop(ctx)
	go s.runPush(ctx)
}

// State reports the push connection state. The poll is unaffected by it.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Current returns the current view and whether any reading has been applied.
func (s *Session) Current() (types.Reading, bool) {
	return s.view.Reading()
}

// Close stops polling, closes the push connection and waits for the session
// goroutines to exit. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.closeConn()
	})
	s.wg.Wait()
}

// runLoop is the single consumer of both event sources. It owns the view.
func (s *Session) runLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case r := <-s.events:
			s.apply(r)
		case <-ticker.C:
			s.pull(ctx)
		}
	}
}

// pull fetches the latest reading and feeds it through the merge rule. A
// failed pull leaves the view untouched; the next tick retries.
func (s *Session) pull(ctx context.Context) {
	pullCtx, cancel := context.WithTimeout(ctx, pullTimeout)
	defer cancel()
	r, err := s.client.Latest(pullCtx)
	if err != nil {
		s.logger.Warn("pull latest reading failed", "error", err)
		return
	}
	s.apply(r)
}

func (s *Session) apply(r types.Reading) {
	if s.view.Apply(r) && s.opts.OnUpdate != nil {
		s.opts.OnUpdate(r)
	}
}

// runPush dials the websocket and forwards pushed readings to the event
// loop, redialing with backoff when enabled.
func (s *Session) runPush(ctx context.Context) {
	defer s.wg.Done()
	backoff := initialBackoff
	for {
		err := s.connectAndRead(ctx)
		s.state.Store(int32(StateDisconnected))
		if s.stopped(ctx) {
			return
		}
		if !s.opts.Reconnect {
			if err != nil {
				s.logger.Warn("push channel closed", "error", err)
			}
			return
		}
		s.logger.Warn("push channel down, redialing", "error", err, "backoff", backoff)
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (s *Session) connectAndRead(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, pullTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.wsURL, err)
	}
	s.setConn(conn)
	defer s.closeConn()

	s.state.Store(int32(StateConnected))
	s.logger.Info("push channel connected", "url", s.wsURL)

	// The server does not replay history, so pull once to cover anything
	// that happened before the subscription took effect.
	s.pull(ctx)

	for {
		var envelope struct {
			Event string        `json:"event"`
			Data  types.Reading `json:"data"`
		}
		if err := conn.ReadJSON(&envelope); err != nil {
			if s.stopped(ctx) {
				return nil
			}
			return fmt.Errorf("read push event: %w", err)
		}
		if envelope.Event != "sensor-data" {
			continue
		}
		select {
		case s.events <- envelope.Data:
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) stopped(ctx context.Context) bool {
	select {
	case <-s.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Session) setConn(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}

func (s *Session) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

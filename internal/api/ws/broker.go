package ws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/api/middleware"
	"github.com/GriffinCanCode/webterm/internal/auth"
	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// Config tunes the broker.
type Config struct {
	AuthTimeout    time.Duration
	CommandTimeout time.Duration
	QueueSize      int
	// Origins limits which browser origins may open a socket; empty or
	// "*" allows any.
	Origins []string
}

// DefaultConfig returns the broker defaults.
func DefaultConfig() Config {
	return Config{
		AuthTimeout:    5 * time.Second,
		CommandTimeout: 10 * time.Second,
		QueueSize:      32,
	}
}

// ClientInfo describes one open connection.
type ClientInfo struct {
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
	IsAnonymous bool      `json:"isAnonymous"`
}

// Broker accepts terminal sockets, authenticates them and forwards their
// commands to an executor.
type Broker struct {
	verifier auth.Verifier
	exec     shell.Executor
	limiters *middleware.Limiters
	metrics  *monitoring.Metrics
	log      *logging.Logger
	cfg      Config
	now      func() time.Time
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    map[id.ConnID]*connection
	sessions map[string]int
}

// Option configures a Broker.
type Option func(*Broker)

func WithConfig(cfg Config) Option {
	return func(b *Broker) { b.cfg = cfg }
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(b *Broker) { b.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

// NewBroker creates a broker. limiters may be nil for no rate limiting.
func NewBroker(verifier auth.Verifier, exec shell.Executor, limiters *middleware.Limiters, log *logging.Logger, opts ...Option) *Broker {
	if log == nil {
		log = logging.NewNop()
	}
	if limiters == nil {
		limiters = middleware.NewLimiters(0, 0)
	}

	b := &Broker{
		verifier: verifier,
		exec:     exec,
		limiters: limiters,
		log:      log.Named("broker"),
		cfg:      DefaultConfig(),
		now:      time.Now,
		conns:    make(map[id.ConnID]*connection),
		sessions: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cfg.QueueSize <= 0 {
		b.cfg.QueueSize = DefaultConfig().QueueSize
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     middleware.CORSConfig{Origins: b.cfg.Origins}.CheckOrigin,
	}
	return b
}

// HandleConnection upgrades the request and serves it until the client
// disconnects.
func (b *Broker) HandleConnection(c *gin.Context) {
	token := auth.ExtractToken(c.Request)

	conn, err := b.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	identity, err := b.authenticate(conn, token)
	if err != nil {
		b.reject(conn, err)
		return
	}

	cc := newConnection(b, conn, identity)
	b.register(cc)
	defer b.unregister(cc)

	cc.log.Info("client connected", zap.String("username", identity.Username))
	cc.run()
	cc.log.Info("client disconnected")
}

// authenticate resolves the caller. Without a token on the upgrade request
// the first frame must be an auth message.
func (b *Broker) authenticate(conn *websocket.Conn, token string) (auth.Identity, error) {
	if token == "" {
		_ = conn.SetReadDeadline(b.now().Add(b.cfg.AuthTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return auth.Identity{}, fmt.Errorf("read auth message: %w", err)
		}
		_ = conn.SetReadDeadline(time.Time{})

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil || msg.Type != TypeAuth {
			return auth.Identity{}, auth.ErrMissingToken
		}
		token = msg.Token
	}
	if token == "" {
		return auth.Identity{}, auth.ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.AuthTimeout)
	defer cancel()

	identity, err := b.verifier.Verify(ctx, token)
	if err != nil {
		return auth.Identity{}, err
	}
	if identity.SessionID == "" {
		identity.SessionID = id.NewSessionID().String()
	}
	b.metrics.RecordAuth("ok")
	return identity, nil
}

func (b *Broker) reject(conn *websocket.Conn, err error) {
	result := "error"
	if auth.IsUnauthorized(err) {
		result = "rejected"
	}
	b.metrics.RecordAuth(result)
	b.log.Warn("websocket auth failed", zap.String("result", result), zap.Error(err))

	deadline := time.Now().Add(writeWait)
	if data, mErr := sonic.Marshal(Event{Type: TypeError, Error: MsgAuthError}); mErr == nil {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, MsgAuthError), deadline)
	_ = conn.Close()
}

func (b *Broker) register(c *connection) {
	b.mu.Lock()
	b.conns[c.id] = c
	b.sessions[c.identity.SessionID]++
	b.mu.Unlock()
	b.metrics.IncWSConnections()
}

// unregister forgets c. The last connection of a session releases its rate
// limiter and ends the executor session; files and history stay put.
func (b *Broker) unregister(c *connection) {
	sid := c.identity.SessionID

	b.mu.Lock()
	delete(b.conns, c.id)
	b.sessions[sid]--
	last := b.sessions[sid] <= 0
	if last {
		delete(b.sessions, sid)
	}
	b.mu.Unlock()
	b.metrics.DecWSConnections()

	if !last {
		return
	}
	b.limiters.Release(sid)

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CommandTimeout)
	defer cancel()
	if err := b.exec.EndSession(ctx, sid); err != nil {
		c.log.Warn("end session failed", zap.Error(err))
	}
}

// Count returns the number of open connections.
func (b *Broker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// Clients lists open connections, oldest first.
func (b *Broker) Clients() []ClientInfo {
	b.mu.Lock()
	out := make([]ClientInfo, 0, len(b.conns))
	for _, c := range b.conns {
		out = append(out, ClientInfo{
			Username:    c.identity.Username,
			ConnectedAt: c.connectedAt,
			IsAnonymous: c.identity.IsAnonymous,
		})
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out
}

// Close sends a going-away frame to every client and closes its socket.
func (b *Broker) Close() error {
	b.mu.Lock()
	conns := make([]*connection, 0, len(b.conns))
	for _, c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	var errs []error
	deadline := time.Now().Add(writeWait)
	for _, c := range conns {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		if err := c.ws.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

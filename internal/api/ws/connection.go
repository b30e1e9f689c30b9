package ws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/auth"
	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/relay"
	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// connection is one authenticated terminal socket. Commands are queued and
// run by a single worker so results come back in order.
type connection struct {
	id          id.ConnID
	ws          *websocket.Conn
	identity    auth.Identity
	connectedAt time.Time
	broker      *Broker
	log         *logging.Logger

	queue  chan string
	done   chan struct{}
	closed atomic.Bool

	writeMu sync.Mutex
}

func newConnection(b *Broker, ws *websocket.Conn, identity auth.Identity) *connection {
	cid := id.NewConnID()
	return &connection{
		id:          cid,
		ws:          ws,
		identity:    identity,
		connectedAt: b.now(),
		broker:      b,
		log: b.log.With(
			zap.String("conn_id", cid.String()),
			zap.String("session_id", identity.SessionID),
			zap.String("user_id", identity.UserID)),
		queue: make(chan string, b.cfg.QueueSize),
		done:  make(chan struct{}),
	}
}

// run blocks until the client goes away. A command still executing at that
// point finishes, but its result is dropped.
func (c *connection) run() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.work()
	}()

	name := c.identity.Username
	if name == "" {
		name = c.identity.UserID
	}
	c.send(newOutput(fmt.Sprintf(welcomeFormat, name), ""))

	c.readLoop()

	c.closed.Store(true)
	close(c.done)
	wg.Wait()
	_ = c.ws.Close()
}

func (c *connection) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.send(Event{Type: TypeError, Error: MsgInvalidMessage})
			continue
		}
		c.broker.metrics.RecordWSMessage("in", inboundLabel(msg.Type))

		switch msg.Type {
		case TypeCommand:
			c.enqueue(msg.Command)
		case TypePing:
			c.send(pong(c.broker.now()))
		case TypeAuth:
			// Already authenticated.
		default:
			c.send(Event{Type: TypeError, Error: MsgUnknownType})
		}
	}
}

func (c *connection) enqueue(raw interface{}) {
	line, ok := raw.(string)
	if !ok || line == "" {
		c.send(newOutput("", MsgInvalidCommand))
		return
	}

	if !c.broker.limiters.Allow(c.identity.SessionID) {
		c.broker.metrics.IncRateLimited("session")
		c.send(newOutput("", MsgRateLimited))
		return
	}

	select {
	case c.queue <- line:
	default:
		c.send(newOutput("", MsgQueueFull))
	}
}

func (c *connection) work() {
	for {
		select {
		case <-c.done:
			return
		case line := <-c.queue:
			if c.closed.Load() {
				return
			}
			c.execute(line)
		}
	}
}

func (c *connection) execute(line string) {
	c.log.Debug("command received", zap.String("command", strings.TrimSpace(line)))

	// Not tied to the socket: a disconnect must not cut a store write short.
	ctx, cancel := context.WithTimeout(context.Background(), c.broker.cfg.CommandTimeout)
	defer cancel()

	res, err := c.broker.exec.Execute(ctx, shell.Request{
		SessionID: c.identity.SessionID,
		UserID:    c.identity.UserID,
		Username:  c.identity.Username,
		Command:   line,
	})
	if err != nil {
		msg := shell.InternalError
		if relay.IsTimeout(err) {
			msg = MsgTimedOut
		}
		c.log.Error("command execution failed", zap.Error(err))
		c.send(newOutput("", msg))
		return
	}

	c.send(newOutput(res.Output, res.Error))
	if res.Clear {
		c.send(Event{Type: TypeClear})
	}
}

// send writes v unless the client has gone. Write errors are logged only;
// the read loop notices a dead socket.
func (c *connection) send(v interface{}) {
	if c.closed.Load() {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		c.log.Error("encode message", zap.Error(err))
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Debug("websocket write failed", zap.Error(err))
		return
	}
	c.broker.metrics.RecordWSMessage("out", messageType(v))
}

func inboundLabel(t string) string {
	switch t {
	case TypeAuth, TypeCommand, TypePing:
		return t
	default:
		return "unknown"
	}
}

func messageType(v interface{}) string {
	switch m := v.(type) {
	case Output:
		return m.Type
	case Event:
		return m.Type
	default:
		return "unknown"
	}
}

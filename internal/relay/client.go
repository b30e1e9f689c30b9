package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// Client executes commands on a remote interpreter over a Relay. Each call
// carries a fresh request ID; the response is matched on a reply channel
// private to this client and delivered through a single-shot channel.
type Client struct {
	relay          Relay
	requestChannel string
	replyChannel   string
	timeout        time.Duration
	log            *logging.Logger
	metrics        Metrics

	mu      sync.Mutex
	pending map[string]chan Response
	sub     Subscription
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRequestChannel overrides the channel requests are published on.
func WithRequestChannel(channel string) ClientOption {
	return func(c *Client) { c.requestChannel = channel }
}

// WithTimeout bounds how long Execute waits for a response.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithClientMetrics reports round trips to m.
func WithClientMetrics(m Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client. Start must be called before Execute.
func NewClient(r Relay, log *logging.Logger, opts ...ClientOption) *Client {
	c := &Client{
		relay:          r,
		requestChannel: DefaultRequestChannel,
		replyChannel:   ReplyChannelPrefix + id.NewChannelSuffix(),
		timeout:        10 * time.Second,
		log:            log.Named("relay.client"),
		pending:        make(map[string]chan Response),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to the reply channel.
func (c *Client) Start(ctx context.Context) error {
	sub, err := c.relay.Subscribe(ctx, c.replyChannel, c.onResponse)
	if err != nil {
		return fmt.Errorf("subscribe to replies: %w", err)
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
	c.log.Info("relay client started",
		zap.String("request_channel", c.requestChannel),
		zap.String("reply_channel", c.replyChannel))
	return nil
}

// Close stops receiving replies. Calls still waiting time out.
func (c *Client) Close() error {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}

// Execute sends req to the interpreter and waits for its result.
func (c *Client) Execute(ctx context.Context, req shell.Request) (shell.Result, error) {
	resp, err := c.roundTrip(ctx, Request{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Username:  req.Username,
		Operation: OpExecute,
		Command:   req.Command,
	})
	if err != nil {
		return shell.Result{}, err
	}
	return shell.Result{Output: resp.Output, Error: resp.Error, Clear: resp.Clear}, nil
}

// EndSession tells the interpreter to drop the session. It does not wait
// for an acknowledgement.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	payload, err := Encode(Request{
		RequestID: id.NewRequestID().String(),
		SessionID: sessionID,
		Operation: OpEndSession,
	})
	if err != nil {
		return err
	}
	return c.relay.Publish(ctx, c.requestChannel, payload)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

// Pending returns the number of requests awaiting a response.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Client) roundTrip(ctx context.Context, req Request) (resp Response, err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveRelayRoundTrip(req.Operation, outcome(err), time.Since(start))
		}
	}()

	req.RequestID = id.NewRequestID().String()
	req.ReplyTo = c.replyChannel

	payload, err := Encode(req)
	if err != nil {
		return Response{}, err
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[req.RequestID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.RequestID)
		c.mu.Unlock()
	}()

	if err := c.relay.Publish(ctx, c.requestChannel, payload); err != nil {
		return Response{}, fmt.Errorf("publish request: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp = <-ch:
		return resp, nil
	case <-timer.C:
		c.log.Warn("relay request timed out",
			zap.String("request_id", req.RequestID),
			zap.String("session_id", req.SessionID),
			zap.Duration("timeout", c.timeout))
		return Response{}, ErrTimeout
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// onResponse resolves the pending call for a response. Responses for
// unknown IDs are late or duplicated and are dropped.
func (c *Client) onResponse(_ context.Context, payload []byte) {
	resp, err := DecodeResponse(payload)
	if err != nil {
		c.log.Warn("dropping malformed response", zap.Error(err))
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	c.mu.Unlock()

	if !ok {
		fields := []zap.Field{zap.String("request_id", resp.RequestID)}
		if sent, err := id.Timestamp(resp.RequestID); err == nil {
			fields = append(fields, zap.Duration("age", time.Since(sent)))
		}
		c.log.Debug("dropping unmatched response", fields...)
		return
	}
	ch <- resp
}

// IsTimeout reports whether err came from a response that never arrived.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// commandLine rebuilds a command from Args when Command is empty.
func commandLine(req Request) string {
	if req.Command != "" || len(req.Args) == 0 {
		return req.Command
	}
	return strings.Join(req.Args, " ")
}

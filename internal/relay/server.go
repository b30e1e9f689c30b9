package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

// Server consumes requests from the request channel, runs them on an
// Executor and publishes each response to the request's ReplyTo channel.
type Server struct {
	relay   Relay
	channel string
	exec    shell.Executor
	timeout time.Duration
	log     *logging.Logger

	mu  sync.Mutex
	sub Subscription
	wg  sync.WaitGroup
}

// NewServer creates a server for exec listening on channel.
func NewServer(r Relay, exec shell.Executor, channel string, timeout time.Duration, log *logging.Logger) *Server {
	if channel == "" {
		channel = DefaultRequestChannel
	}
	return &Server{
		relay:   r,
		channel: channel,
		exec:    exec,
		timeout: timeout,
		log:     log.Named("relay.server"),
	}
}

// Start subscribes to the request channel.
func (s *Server) Start(ctx context.Context) error {
	sub, err := s.relay.Subscribe(ctx, s.channel, s.onRequest)
	if err != nil {
		return fmt.Errorf("subscribe to requests: %w", err)
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	s.log.Info("relay server listening", zap.String("channel", s.channel))
	return nil
}

// Close unsubscribes and waits for in-flight requests to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) onRequest(_ context.Context, payload []byte) {
	req, err := DecodeRequest(payload)
	if err != nil {
		s.log.Warn("dropping invalid request", zap.Error(err))
		return
	}

	// Requests of different sessions proceed in parallel; the executor
	// serializes within a session.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handle(req)
	}()
}

func (s *Server) handle(req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	switch req.Operation {
	case OpEndSession:
		if err := s.exec.EndSession(ctx, req.SessionID); err != nil {
			s.log.Warn("end session failed", zap.String("session_id", req.SessionID), zap.Error(err))
		}
		return
	case OpExecute:
	default:
		return
	}

	resp := Response{RequestID: req.RequestID, SessionID: req.SessionID}
	res, err := s.exec.Execute(ctx, shell.Request{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Username:  req.Username,
		Command:   commandLine(req),
	})
	if err != nil {
		s.log.Error("execute failed",
			zap.String("request_id", req.RequestID),
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		resp.Error = shell.InternalError
	} else {
		resp.Success = !res.Failed()
		resp.Output = res.Output
		resp.Error = res.Error
		resp.Clear = res.Clear
	}

	out, err := Encode(resp)
	if err != nil {
		s.log.Error("encode response failed", zap.Error(err))
		return
	}
	if err := s.relay.Publish(ctx, req.ReplyTo, out); err != nil {
		s.log.Error("publish response failed",
			zap.String("request_id", req.RequestID),
			zap.String("reply_to", req.ReplyTo),
			zap.Error(err))
	}
}

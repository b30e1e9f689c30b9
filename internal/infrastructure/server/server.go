package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/webterm/internal/api/http"
	"github.com/GriffinCanCode/webterm/internal/api/middleware"
	"github.com/GriffinCanCode/webterm/internal/api/ws"
	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/monitoring"
)

// Role selects which half of the system a process runs.
type Role string

const (
	// RoleStandalone runs the broker with an in-process interpreter.
	RoleStandalone Role = "standalone"
	// RoleBroker runs only the WebSocket broker.
	RoleBroker Role = "broker"
	// RoleInterpreter runs only the interpreter service.
	RoleInterpreter Role = "interpreter"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and the components behind it.
type Server struct {
	role    Role
	router  *gin.Engine
	addr    string
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	broker  *ws.Broker
	store   *vfs.Store
	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the logger built from config.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a server for role. Components that subscribe to a relay are
// started with ctx.
func New(ctx context.Context, cfg *config.Config, role Role, opts ...Option) (*Server, error) {
	s := &Server{role: role, config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = newLogger(cfg.Logging, role)
	}

	port := cfg.Server.Port
	switch role {
	case RoleStandalone, RoleBroker:
	case RoleInterpreter:
		port = cfg.Interpreter.Port
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	s.addr = net.JoinHostPort(cfg.Server.Host, port)

	s.logger.Info("Initializing webterm",
		zap.String("role", string(role)),
		zap.String("addr", s.addr),
		zap.String("executor", cfg.Executor.Mode),
		zap.String("auth", cfg.Auth.Mode),
		zap.String("store", cfg.Store.Driver),
	)

	s.metrics = monitoring.NewMetrics()
	s.router = s.newRouter()

	var err error
	switch role {
	case RoleStandalone:
		err = s.buildStandalone(ctx)
	case RoleBroker:
		err = s.buildBroker(ctx)
	case RoleInterpreter:
		err = s.buildInterpreter(ctx)
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.logger.Info("Server initialized successfully")
	return s, nil
}

func newLogger(cfg config.LogConfig, role Role) *logging.Logger {
	l, err := logging.New(logging.Config{
		Level:       cfg.Level,
		Development: cfg.Development,
		Service:     string(role),
	})
	if err == nil {
		return l
	}
	if cfg.Development {
		return logging.NewDevelopment()
	}
	return logging.NewDefault()
}

func (s *Server) newRouter() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))
	cors := middleware.DefaultCORSConfig()
	cors.Origins = s.config.Server.CORSOrigins
	router.Use(middleware.CORS(cors))
	if rl := s.config.RateLimit; rl.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", rl.HTTPRate),
			zap.Int("burst", rl.HTTPBurst),
			zap.Int("session_capacity", rl.Capacity),
			zap.Duration("session_window", rl.Window),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: float64(rl.HTTPRate),
			Burst:             rl.HTTPBurst,
		}, s.metrics))
	}
	return router
}

func (s *Server) buildStandalone(ctx context.Context) error {
	interp, err := s.newInterpreter()
	if err != nil {
		return err
	}

	var exec shell.Executor = interp
	switch s.config.Executor.Mode {
	case config.ExecutorLocal:
	case config.ExecutorRelay:
		// One process, so the relay hop stays in memory.
		exec, err = s.startRelay(ctx, newMemoryRelay(), interp)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("executor mode %q is not available in standalone mode", s.config.Executor.Mode)
	}
	return s.mountBroker(exec)
}

func (s *Server) buildBroker(ctx context.Context) error {
	exec, err := s.newRemoteExecutor(ctx)
	if err != nil {
		return err
	}
	return s.mountBroker(exec)
}

func (s *Server) buildInterpreter(ctx context.Context) error {
	interp, err := s.newInterpreter()
	if err != nil {
		return err
	}
	apihttp.NewHandlers(interp, s.store, s.logger).RegisterRoutes(s.router)

	if s.config.Executor.Mode == config.ExecutorRelay {
		r, err := newRedisRelay(s.config.Relay.RedisURL, s.logger)
		if err != nil {
			return err
		}
		s.addCloser("relay", r.Close)
		if err := s.serveRelay(ctx, r, interp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) mountBroker(exec shell.Executor) error {
	verifier := newVerifier(s.config.Auth, s.logger)

	var limiters *middleware.Limiters
	if rl := s.config.RateLimit; rl.Enabled {
		limiters = middleware.NewLimiters(rl.Capacity, rl.Window)
	}

	s.broker = ws.NewBroker(verifier, exec, limiters, s.logger,
		ws.WithConfig(ws.Config{
			AuthTimeout:    s.config.Auth.Timeout,
			CommandTimeout: s.config.Server.CommandTimeout,
			QueueSize:      ws.DefaultConfig().QueueSize,
			Origins:        s.config.Server.CORSOrigins,
		}),
		ws.WithMetrics(s.metrics),
	)
	s.broker.RegisterRoutes(s.router)
	s.addCloser("broker", s.broker.Close)
	return nil
}

func (s *Server) addCloser(name string, fn func() error) {
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// Handler returns the router. Used by tests and embedding servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.addr), zap.String("role", string(s.role)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases components in reverse construction order.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.fn(); err != nil {
			s.logger.Error("Failed to close component", zap.String("component", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
			continue
		}
		s.logger.Debug("Closed component", zap.String("component", c.name))
	}
	s.closers = nil

	s.logger.Sync()
	return errors.Join(errs...)
}

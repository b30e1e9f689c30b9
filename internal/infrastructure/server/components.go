package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/webterm/internal/api/http"
	"github.com/GriffinCanCode/webterm/internal/auth"
	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/relay"
)

func newMemoryRelay() relay.Relay {
	return relay.NewMemory()
}

func newRedisRelay(url string, log *logging.Logger) (relay.Relay, error) {
	r, err := relay.NewRedis(url, log)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// newRepository opens the document store selected by cfg.
func newRepository(cfg config.StoreConfig) (vfs.Repository, func() error, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return vfs.NewMemoryRepository(), func() error { return nil }, nil
	case config.StoreSQLite:
		repo, err := vfs.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (s *Server) newInterpreter() (*shell.Interpreter, error) {
	repo, closeRepo, err := newRepository(s.config.Store)
	if err != nil {
		return nil, err
	}
	s.addCloser("store", closeRepo)
	s.logger.Info("Filesystem store ready",
		zap.String("driver", s.config.Store.Driver),
		zap.String("path", s.config.Store.DatabasePath))

	s.store = vfs.NewStore(repo, vfs.WithMetrics(s.metrics))
	return shell.NewInterpreter(s.store, s.logger, shell.WithMetrics(s.metrics)), nil
}

// newVerifier builds the token verifier for cfg. Remote mode checks the
// signature locally before asking the auth service.
func newVerifier(cfg config.AuthConfig, log *logging.Logger) auth.Verifier {
	local := auth.NewJWTVerifier(cfg.JWTSecret)
	if cfg.Mode == config.AuthRemote {
		return auth.Chain{local, auth.NewRemoteVerifier(cfg.URL, cfg.Timeout, log)}
	}
	return local
}

// newRemoteExecutor reaches an interpreter running in another process.
func (s *Server) newRemoteExecutor(ctx context.Context) (shell.Executor, error) {
	switch s.config.Executor.Mode {
	case config.ExecutorHTTP:
		s.logger.Info("Using interpreter over HTTP", zap.String("url", s.config.Interpreter.URL))
		return apihttp.NewExecutor(s.config.Interpreter.URL, s.config.Server.CommandTimeout, s.logger), nil
	case config.ExecutorRelay:
		r, err := newRedisRelay(s.config.Relay.RedisURL, s.logger)
		if err != nil {
			return nil, err
		}
		s.addCloser("relay", r.Close)
		if err := r.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect relay: %w", err)
		}
		return s.startClient(ctx, r)
	default:
		return nil, fmt.Errorf("executor mode %q needs the standalone role", s.config.Executor.Mode)
	}
}

// startRelay wires a relay client to a relay server that runs interp, so
// commands take the same hop they would across processes.
func (s *Server) startRelay(ctx context.Context, r relay.Relay, interp shell.Executor) (shell.Executor, error) {
	s.addCloser("relay", r.Close)
	if err := s.serveRelay(ctx, r, interp); err != nil {
		return nil, err
	}
	return s.startClient(ctx, r)
}

func (s *Server) serveRelay(ctx context.Context, r relay.Relay, interp shell.Executor) error {
	srv := relay.NewServer(r, interp, s.config.Relay.RequestChannel, s.config.Relay.Timeout, s.logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	s.addCloser("relay server", srv.Close)
	return nil
}

func (s *Server) startClient(ctx context.Context, r relay.Relay) (shell.Executor, error) {
	client := relay.NewClient(r, s.logger,
		relay.WithRequestChannel(s.config.Relay.RequestChannel),
		relay.WithTimeout(s.config.Relay.Timeout),
		relay.WithClientMetrics(s.metrics),
	)
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	s.addCloser("relay client", client.Close)
	return client, nil
}

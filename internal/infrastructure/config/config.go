package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Executor modes understood by the broker.
const (
	ExecutorLocal = "local"
	ExecutorRelay = "relay"
	ExecutorHTTP  = "http"
)

// Auth modes.
const (
	AuthJWT    = "jwt"
	AuthRemote = "remote"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Interpreter InterpreterConfig
	Auth        AuthConfig
	Store       StoreConfig
	Relay       RelayConfig
	Executor    ExecutorConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds the broker HTTP server configuration.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8000"`
	Host           string        `envconfig:"HOST" default:"0.0.0.0"`
	CommandTimeout time.Duration `envconfig:"COMMAND_TIMEOUT" default:"10s"`
	CORSOrigins    []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

// InterpreterConfig holds the interpreter service configuration.
type InterpreterConfig struct {
	Port string `envconfig:"INTERPRETER_PORT" default:"8001"`
	URL  string `envconfig:"INTERPRETER_URL" default:"http://localhost:8001"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	Mode      string        `envconfig:"AUTH_MODE" default:"jwt"`
	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me"`
	URL       string        `envconfig:"AUTH_URL" default:"http://localhost:3001"`
	Timeout   time.Duration `envconfig:"AUTH_TIMEOUT" default:"5s"`
}

// StoreConfig selects the filesystem document store.
type StoreConfig struct {
	Driver       string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"webterm.db"`
}

// RelayConfig holds message relay settings.
type RelayConfig struct {
	RedisURL       string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Timeout        time.Duration `envconfig:"RELAY_TIMEOUT" default:"10s"`
	RequestChannel string        `envconfig:"RELAY_REQUEST_CHANNEL" default:"webterm:cli:requests"`
}

// ExecutorConfig selects how the broker reaches the interpreter.
type ExecutorConfig struct {
	Mode string `envconfig:"EXECUTOR_MODE" default:"relay"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-session command limits and the per-IP HTTP limit.
type RateLimitConfig struct {
	Capacity  int           `envconfig:"RATE_LIMIT_CAPACITY" default:"100"`
	Window    time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	Enabled   bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	HTTPRate  int           `envconfig:"RATE_LIMIT_HTTP_RPS" default:"50"`
	HTTPBurst int           `envconfig:"RATE_LIMIT_HTTP_BURST" default:"100"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			CommandTimeout: 10 * time.Second,
			CORSOrigins:    []string{"*"},
		},
		Interpreter: InterpreterConfig{
			Port: "8001",
			URL:  "http://localhost:8001",
		},
		Auth: AuthConfig{
			Mode:      AuthJWT,
			JWTSecret: "change-me",
			URL:       "http://localhost:3001",
			Timeout:   5 * time.Second,
		},
		Store: StoreConfig{
			Driver:       StoreSQLite,
			DatabasePath: "webterm.db",
		},
		Relay: RelayConfig{
			RedisURL:       "redis://localhost:6379/0",
			Timeout:        10 * time.Second,
			RequestChannel: "webterm:cli:requests",
		},
		Executor: ExecutorConfig{
			Mode: ExecutorRelay,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			Capacity:  100,
			Window:    time.Minute,
			Enabled:   true,
			HTTPRate:  50,
			HTTPBurst: 100,
		},
	}
}

// Validate rejects unknown mode values and non-positive durations.
func (c *Config) Validate() error {
	switch c.Executor.Mode {
	case ExecutorLocal, ExecutorRelay, ExecutorHTTP:
	default:
		return fmt.Errorf("invalid EXECUTOR_MODE %q", c.Executor.Mode)
	}
	switch c.Auth.Mode {
	case AuthJWT, AuthRemote:
	default:
		return fmt.Errorf("invalid AUTH_MODE %q", c.Auth.Mode)
	}
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.Relay.Timeout <= 0 || c.Auth.Timeout <= 0 || c.Server.CommandTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

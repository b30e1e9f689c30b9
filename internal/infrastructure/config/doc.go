// Package config provides 12-factor configuration for the webterm processes.
//
// Configuration is loaded from environment variables with defaults. CLI
// flags on the webterm command override individual values.
//
// Configuration Sections:
//   - Server: broker HTTP settings and per-command timeout
//   - Interpreter: interpreter HTTP port and the URL the broker dials
//   - Auth: token verification mode, JWT secret, auth service URL
//   - Store: filesystem document store driver and database path
//   - Relay: Redis URL, request channel and round-trip timeout
//   - Executor: how the broker reaches the interpreter (local, relay, http)
//   - Logging: log level and output format
//   - RateLimit: per-session token bucket and per-IP HTTP limits
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("broker on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config

// Package server assembles webterm from configuration.
//
// A process runs one Role. Standalone mounts the broker and keeps the
// interpreter in-process, reached directly or through an in-memory relay.
// Broker reaches a separate interpreter over Redis pub/sub or HTTP.
// Interpreter serves the command and filesystem API and, in relay mode,
// consumes requests from Redis.
//
// Every role shares the same router stack: recovery, request metrics, CORS
// and an optional per-IP limit, plus /metrics for Prometheus.
package server

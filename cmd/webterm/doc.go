// Package main is the entry point for webterm.
//
// Architecture:
//
//	Browser terminal → Broker (WebSocket, auth, rate limit)
//	                     → Interpreter (commands, per-user filesystem)
//
// The broker reaches the interpreter in-process, over Redis pub/sub or
// over HTTP, selected by EXECUTOR_MODE.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Everything in one process
//	./webterm serve --port 8000
//
//	# Split deployment
//	EXECUTOR_MODE=relay REDIS_URL=redis://redis:6379/0 ./webterm interpreter
//	EXECUTOR_MODE=relay REDIS_URL=redis://redis:6379/0 ./webterm broker
//
//	# Development mode (colored logs, debug level)
//	./webterm serve --dev
//
//	# A token for local testing
//	JWT_SECRET=dev ./webterm token --user u1 --name alice
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

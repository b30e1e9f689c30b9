/*
Package monitoring collects Prometheus metrics for the broker and the
interpreter.

Each Metrics owns its registry, so several servers (or tests) can live in one
process. A nil *Metrics is accepted everywhere and records nothing.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	store := vfs.NewStore(repo, vfs.WithMetrics(metrics))
	interp := shell.NewInterpreter(store, log, shell.WithMetrics(metrics))

Metrics satisfies the recorder interfaces of the store, the interpreter and
the relay client. Stats returns a compact JSON view for /api/stats.
*/
package monitoring

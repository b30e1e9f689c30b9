// Package middleware provides the HTTP middleware shared by the broker and
// the interpreter, plus the keyed token buckets the broker uses to limit
// terminal sessions.
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(), metrics))
//
//	sessions := middleware.NewLimiters(100, time.Minute)
//	if !sessions.Allow(sessionID) { ... }
package middleware

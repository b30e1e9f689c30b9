/*
Package resilience guards outbound calls with a circuit breaker.

The broker calls two peers over HTTP: the auth service and, when deployed
that way, a remote interpreter. When either peer stops answering, the
breaker opens and calls fail fast with ErrCircuitOpen instead of holding a
terminal command until its timeout.

# Usage

	breaker := resilience.New("auth", resilience.Settings{
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, auth.ErrUnauthorized)
		},
	})

	identity, err := resilience.Do(breaker, func() (auth.Identity, error) {
		return verify(ctx, token)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

IsSuccessful lets a caller count an answered-but-negative call (a rejected
token, a 4xx) as healthy so it never trips the breaker.
*/
package resilience

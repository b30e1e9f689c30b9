package relay

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClosed  = errors.New("relay: closed")
	ErrTimeout = errors.New("relay: timed out waiting for response")
)

// Handler receives one published payload.
type Handler func(ctx context.Context, payload []byte)

// Subscription is an active channel subscription.
type Subscription interface {
	Close() error
}

// Relay is a best-effort publish/subscribe transport. It has no notion of
// request/response pairing; Client and Server add that on top.
type Relay interface {
	// Connect establishes the broker connection. Failure is a hard error.
	Connect(ctx context.Context) error
	// Publish sends payload to every current subscriber of channel.
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe invokes h for each payload published on channel until the
	// subscription is closed.
	Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error)
	Close() error
}

// Metrics receives relay round-trip outcomes. Outcome is one of "ok",
// "timeout" or "error".
type Metrics interface {
	ObserveRelayRoundTrip(operation, outcome string, duration time.Duration)
}

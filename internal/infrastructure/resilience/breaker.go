package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State is the position of a breaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values take the defaults noted.
type Settings struct {
	// MaxRequests is the number of trial calls let through while half-open,
	// and the consecutive successes that close the breaker again. Default 1.
	MaxRequests uint32
	// Interval clears the counts while closed. Default 60s.
	Interval time.Duration
	// Timeout is how long the breaker stays open before a trial. Default 60s.
	Timeout time.Duration
	// ReadyToTrip is consulted after each failure while closed. Default:
	// more than five consecutive failures.
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies the result of a call. Default: err == nil.
	IsSuccessful func(err error) bool
	// OnStateChange observes transitions. It runs with the breaker locked
	// and must not call back into it.
	OnStateChange func(name string, from State, to State)
	// Now overrides the clock.
	Now func() time.Time
}

// Counts are the call statistics of the current window. A window ends on
// every state change and every Interval while closed.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker fails calls fast while a peer is unhealthy.
type Breaker struct {
	name     string
	settings Settings

	mu     sync.Mutex
	state  State
	window uint64 // bumped whenever counts reset; stale outcomes are dropped
	counts Counts
	until  time.Time // closed: end of window; open: start of trial; half-open: unused
}

// New creates a closed breaker.
func New(name string, settings Settings) *Breaker {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Interval <= 0 {
		settings.Interval = 60 * time.Second
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 60 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool { return err == nil }
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	b := &Breaker{name: name, settings: settings}
	b.resetWindow(settings.Now())
	return b
}

func (b *Breaker) Name() string { return b.name }

// State returns the state as of now, applying any due transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick(b.settings.Now())
	return b.state
}

// Counts returns a copy of the current window's counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Execute runs fn unless the breaker rejects it, and records the outcome.
// If fn panics the call is recorded as a failure and the panic continues.
func (b *Breaker) Execute(fn func() error) error {
	window, err := b.admit()
	if err != nil {
		return err
	}

	settled := false
	defer func() {
		if !settled {
			b.settle(window, false)
		}
	}()

	err = fn()
	settled = true
	b.settle(window, b.settings.IsSuccessful(err))
	return err
}

// Do runs fn through b and returns its value.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tick(b.settings.Now())
	switch {
	case b.state == StateOpen:
		return 0, ErrCircuitOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.settings.MaxRequests:
		return 0, ErrTooManyRequests
	}
	b.counts.Requests++
	return b.window, nil
}

func (b *Breaker) settle(window uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.settings.Now()
	b.tick(now)
	if window != b.window {
		return
	}

	if ok {
		b.counts.success()
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.MaxRequests {
			b.moveTo(StateClosed, now)
		}
		return
	}

	b.counts.failure()
	switch b.state {
	case StateClosed:
		if b.settings.ReadyToTrip(b.counts) {
			b.moveTo(StateOpen, now)
		}
	case StateHalfOpen:
		b.moveTo(StateOpen, now)
	}
}

// tick applies time-driven changes: a new window while closed, a trial
// once the open timeout has passed.
func (b *Breaker) tick(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.until) {
			b.resetWindow(now)
		}
	case StateOpen:
		if now.After(b.until) {
			b.moveTo(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) moveTo(to State, now time.Time) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.resetWindow(now)
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}

func (b *Breaker) resetWindow(now time.Time) {
	b.window++
	b.counts = Counts{}
	switch b.state {
	case StateClosed:
		b.until = now.Add(b.settings.Interval)
	case StateOpen:
		b.until = now.Add(b.settings.Timeout)
	default:
		b.until = time.Time{}
	}
}

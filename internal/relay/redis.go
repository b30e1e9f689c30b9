package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

// Redis is a Relay backed by Redis pub/sub. A failed Publish or Subscribe
// reconnects once and retries before giving up.
type Redis struct {
	opts *redis.Options
	log  *logging.Logger

	mu     sync.Mutex
	client *redis.Client
	subs   map[*redisSub]struct{}
	closed bool
}

// redisSub survives reconnects: the relay re-subscribes channel on the new
// client and swaps ps, and loop follows the swap.
type redisSub struct {
	r       *Redis
	channel string
	once    sync.Once
	done    chan struct{}

	mu     sync.Mutex
	ps     *redis.PubSub
	closed bool
}

// NewRedis creates a relay for the given redis:// URL. No connection is
// made until Connect or first use.
func NewRedis(url string, log *logging.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("relay: parse redis url: %w", err)
	}
	return &Redis{
		opts: opts,
		log:  log.Named("relay"),
		subs: make(map[*redisSub]struct{}),
	}, nil
}

func (r *Redis) Connect(ctx context.Context) error {
	_, err := r.reconnect(ctx, nil)
	return err
}

// conn returns the live client, dialing if there is none yet.
func (r *Redis) conn(ctx context.Context) (*redis.Client, error) {
	r.mu.Lock()
	c, closed := r.client, r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if c != nil {
		return c, nil
	}
	return r.reconnect(ctx, nil)
}

// reconnect replaces stale with a fresh, pinged client. If another caller
// already replaced it, that client is returned instead.
func (r *Redis) reconnect(ctx context.Context, stale *redis.Client) (*redis.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.client != nil && r.client != stale {
		return r.client, nil
	}

	c := redis.NewClient(r.opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("relay: connect %s: %w", r.opts.Addr, err)
	}

	// Move every live subscription before the old client goes away.
	moved := make(map[*redisSub]*redis.PubSub, len(r.subs))
	for sub := range r.subs {
		ps, err := subscribe(ctx, c, sub.channel)
		if err != nil {
			for _, ps := range moved {
				_ = ps.Close()
			}
			_ = c.Close()
			return nil, err
		}
		moved[sub] = ps
	}
	for sub, ps := range moved {
		sub.swap(ps)
	}

	if r.client != nil {
		_ = r.client.Close()
		r.log.Warn("redis connection re-established",
			zap.String("addr", r.opts.Addr),
			zap.Int("subscriptions", len(moved)))
	}
	r.client = c
	return c, nil
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	c, err := r.conn(ctx)
	if err != nil {
		return err
	}
	err = c.Publish(ctx, channel, payload).Err()
	if err == nil || ctx.Err() != nil {
		return err
	}

	c, rerr := r.reconnect(ctx, c)
	if rerr != nil {
		return fmt.Errorf("relay: publish: %w", err)
	}
	return c.Publish(ctx, channel, payload).Err()
}

func (r *Redis) Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	ps, err := subscribe(ctx, c, channel)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		if c, err = r.reconnect(ctx, c); err != nil {
			return nil, err
		}
		if ps, err = subscribe(ctx, c, channel); err != nil {
			return nil, err
		}
	}

	sub := &redisSub{r: r, channel: channel, ps: ps, done: make(chan struct{})}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = ps.Close()
		return nil, ErrClosed
	}
	if r.client != c {
		// A reconnect ran after subscribe; ps is on the retired client.
		_ = ps.Close()
		if ps, err = subscribe(ctx, r.client, channel); err != nil {
			r.mu.Unlock()
			return nil, err
		}
		sub.ps = ps
	}
	r.subs[sub] = struct{}{}
	r.mu.Unlock()

	go sub.loop(h)
	return sub, nil
}

// subscribe waits for the server to confirm the subscription so no message
// published after Subscribe returns is missed.
func subscribe(ctx context.Context, c *redis.Client, channel string) (*redis.PubSub, error) {
	ps := c.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("relay: subscribe %s: %w", channel, err)
	}
	return ps, nil
}

func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := make([]*redisSub, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	c := r.client
	r.client = nil
	r.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	if c != nil {
		return c.Close()
	}
	return nil
}

func (s *redisSub) loop(h Handler) {
	defer close(s.done)
	ps, _ := s.current()
	for {
		for msg := range ps.Channel() {
			h(context.Background(), []byte(msg.Payload))
		}
		next, closed := s.current()
		if closed || next == ps {
			if !closed {
				s.r.log.Error("redis subscription lost", zap.String("channel", s.channel))
			}
			return
		}
		ps = next
	}
}

func (s *redisSub) current() (*redis.PubSub, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ps, s.closed
}

// swap installs ps and closes the previous PubSub, which ends the inner
// range in loop.
func (s *redisSub) swap(ps *redis.PubSub) {
	s.mu.Lock()
	old := s.ps
	s.ps = ps
	s.mu.Unlock()
	_ = old.Close()
}

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		s.r.mu.Lock()
		delete(s.r.subs, s)
		s.r.mu.Unlock()

		s.mu.Lock()
		s.closed = true
		ps := s.ps
		s.mu.Unlock()

		err = ps.Close()
		<-s.done
	})
	return err
}

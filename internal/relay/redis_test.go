package relay

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	r, err := NewRedis("redis://"+srv.Addr(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, srv
}

func TestRedisPublishSubscribe(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, r.Connect(ctx))

	got, sub := collect(t, r, "webterm:test")
	require.NoError(t, r.Publish(ctx, "webterm:test", []byte(`{"a":1}`)))
	assert.Equal(t, `{"a":1}`, receive(t, got))

	require.NoError(t, sub.Close())
}

func TestRedisLazyConnect(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	// Subscribe without an explicit Connect.
	got, _ := collect(t, r, "lazy")
	require.NoError(t, r.Publish(ctx, "lazy", []byte("hi")))
	assert.Equal(t, "hi", receive(t, got))
}

func TestRedisConnectFailure(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	r, err := NewRedis("redis://"+addr, logging.NewNop())
	require.NoError(t, err)
	defer r.Close()

	assert.Error(t, r.Connect(context.Background()))
}

func TestRedisReconnectsAfterRestart(t *testing.T) {
	r, srv := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, r.Connect(ctx))

	srv.Close()
	require.NoError(t, srv.Restart())

	got, _ := collect(t, r, "after-restart")
	require.NoError(t, r.Publish(ctx, "after-restart", []byte("back")))
	assert.Equal(t, "back", receive(t, got))
}

func TestRedisSubscriptionSurvivesReconnect(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, r.Connect(ctx))

	got, sub := collect(t, r, "replies")
	require.NoError(t, r.Publish(ctx, "replies", []byte("before")))
	assert.Equal(t, "before", receive(t, got))

	r.mu.Lock()
	stale := r.client
	r.mu.Unlock()
	fresh, err := r.reconnect(ctx, stale)
	require.NoError(t, err)
	require.NotSame(t, stale, fresh)

	require.NoError(t, r.Publish(ctx, "replies", []byte("after")))
	assert.Equal(t, "after", receive(t, got))

	require.NoError(t, sub.Close())
	r.mu.Lock()
	assert.Empty(t, r.subs)
	r.mu.Unlock()
}

func TestRedisInvalidURL(t *testing.T) {
	_, err := NewRedis("mysql://nope", logging.NewNop())
	assert.Error(t, err)
}

func TestRedisClosed(t *testing.T) {
	r, _ := newTestRedis(t)
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Publish(context.Background(), "c", nil), ErrClosed)
}

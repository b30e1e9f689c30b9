package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r Relay, channel string) (<-chan string, Subscription) {
	t.Helper()
	got := make(chan string, 16)
	sub, err := r.Subscribe(context.Background(), channel, func(_ context.Context, payload []byte) {
		got <- string(payload)
	})
	require.NoError(t, err)
	return got, sub
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return ""
	}
}

func TestMemoryPublishSubscribe(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()
	require.NoError(t, m.Connect(ctx))

	a, subA := collect(t, m, "news")
	b, _ := collect(t, m, "news")
	other, _ := collect(t, m, "other")

	require.NoError(t, m.Publish(ctx, "news", []byte("hello")))
	assert.Equal(t, "hello", receive(t, a))
	assert.Equal(t, "hello", receive(t, b))

	require.NoError(t, subA.Close())
	require.NoError(t, subA.Close())
	require.NoError(t, m.Publish(ctx, "news", []byte("second")))
	assert.Equal(t, "second", receive(t, b))

	select {
	case msg := <-a:
		t.Fatalf("closed subscription received %q", msg)
	case msg := <-other:
		t.Fatalf("other channel received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryDropsForSlowSubscriber(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	release := make(chan struct{})
	_, err := m.Subscribe(ctx, "slow", func(context.Context, []byte) { <-release })
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < memoryBuffer*4; i++ {
			_ = m.Publish(ctx, "slow", []byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	close(release)
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	ctx := context.Background()
	assert.ErrorIs(t, m.Connect(ctx), ErrClosed)
	assert.ErrorIs(t, m.Publish(ctx, "c", nil), ErrClosed)
	_, err := m.Subscribe(ctx, "c", func(context.Context, []byte) {})
	assert.ErrorIs(t, err, ErrClosed)
}

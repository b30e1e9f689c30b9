package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		prefix string
		id     string
	}{
		{RequestPrefix, NewRequestID().String()},
		{ConnPrefix, NewConnID().String()},
		{SessionPrefix, NewSessionID().String()},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			prefix, rest, ok := strings.Cut(tt.id, "_")
			require.True(t, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Len(t, rest, 26)
			assert.True(t, IsValid(tt.id))
		})
	}
}

func TestChannelSuffixIsLowercaseULID(t *testing.T) {
	suffix := NewChannelSuffix()
	assert.Equal(t, strings.ToLower(suffix), suffix)
	assert.True(t, IsValid(strings.ToUpper(suffix)))
	assert.NotEqual(t, suffix, NewChannelSuffix())
}

func TestNewEntryID(t *testing.T) {
	a := NewEntryID()
	assert.NotEqual(t, a, NewEntryID())
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(Default().Generate().String()))

	for _, id := range []string{"", "invalid", "1234567890", "req_", "zzzzzzzzzzzzzzzzzzzzzzzzzz", "req_" + uuid.NewString()} {
		assert.False(t, IsValid(id), id)
	}
}

func TestTimestampFollowsClock(t *testing.T) {
	at := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(fixedClock(at))

	ts, err := Timestamp(gen.Prefixed(RequestPrefix))
	require.NoError(t, err)
	assert.True(t, at.Equal(ts), "got %s", ts)

	_, err = Timestamp("req_nope")
	assert.Error(t, err)
}

func TestSameMillisecondStillSorts(t *testing.T) {
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)))

	prev := gen.Generate().String()
	for i := 0; i < 50; i++ {
		next := gen.Generate().String()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestConcurrentGenerationIsUnique(t *testing.T) {
	gen := NewGenerator(time.Now)

	const workers, perWorker = 20, 100
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.Prefixed(ConnPrefix)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestDefaultGenerator(t *testing.T) {
	assert.Same(t, Default(), Default())
}

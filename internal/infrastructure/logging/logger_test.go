package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesJSONWithService(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")
	l, err := New(Config{Level: "info", Service: "broker", OutputPaths: []string{out}})
	require.NoError(t, err)

	l.Named("relay").Info("published", zap.String("channel", "webterm:cli:requests"))
	l.Debug("dropped below level")
	l.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, sonic.Unmarshal(data, &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "published", entry["message"])
	assert.Equal(t, "broker", entry["service"])
	assert.Equal(t, "relay", entry["logger"])
	assert.Equal(t, "webterm:cli:requests", entry["channel"])
	assert.Contains(t, entry, "timestamp")
}

func TestConstructors(t *testing.T) {
	assert.NotNil(t, NewDefault())
	assert.NotNil(t, NewDevelopment())

	nop := NewNop()
	nop.With(zap.String("k", "v")).Info("discarded")
	nop.Sync()
}

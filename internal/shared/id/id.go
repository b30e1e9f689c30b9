// Package id provides identifier generation for webterm.
//
// Two formats are used:
//   - ULIDs for request and connection identifiers, which sort by creation
//     time and carry a short type prefix (req_*, conn_*) for readable logs
//   - UUIDv4 for filesystem entry identifiers
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RequestID correlates a relay request with its response.
type RequestID string

// ConnID identifies one websocket connection.
type ConnID string

// SessionID identifies a terminal session.
type SessionID string

const (
	RequestPrefix = "req"
	ConnPrefix    = "conn"
	SessionPrefix = "sess"
)

// Generator creates ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(time.Now)
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand with monotonic
// entropy, so ids created within the same millisecond still sort.
func NewGenerator(now func() time.Time) *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0), now: now}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// Prefixed returns prefix_ULID.
func (g *Generator) Prefixed(prefix string) string {
	return prefix + "_" + g.Generate().String()
}

// NewRequestID generates a new relay request ID.
func NewRequestID() RequestID {
	return RequestID(Default().Prefixed(RequestPrefix))
}

// NewConnID generates a new connection ID.
func NewConnID() ConnID {
	return ConnID(Default().Prefixed(ConnPrefix))
}

// NewSessionID generates a session ID for tokens that do not carry one.
func NewSessionID() SessionID {
	return SessionID(Default().Prefixed(SessionPrefix))
}

// NewChannelSuffix returns a unique suffix for per-process reply channels.
func NewChannelSuffix() string {
	return strings.ToLower(Default().Generate().String())
}

// NewEntryID generates a filesystem entry ID.
func NewEntryID() string {
	return uuid.NewString()
}

func (id RequestID) String() string { return string(id) }
func (id ConnID) String() string    { return string(id) }
func (id SessionID) String() string { return string(id) }

// parse strips an optional type prefix and decodes the ULID.
func parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.ParseStrict(id)
}

// IsValid reports whether id is a ULID, with or without a type prefix.
func IsValid(id string) bool {
	_, err := parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a possibly prefixed ULID.
func Timestamp(id string) (time.Time, error) {
	u, err := parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

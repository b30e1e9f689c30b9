package shell

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
)

// Session is the interpreter state carried between commands of one
// terminal. Fields are guarded by mu, which also serializes command
// execution for the session.
type Session struct {
	mu sync.Mutex

	ID          string
	UserID      string
	Username    string
	CurrentPath string
	History     []string
	CreatedAt   time.Time
	LastActive  time.Time

	initialized bool
}

// SessionInfo is a read-only copy of a Session.
type SessionInfo struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	CurrentPath string    `json:"currentPath"`
	History     []string  `json:"history"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
}

// Sessions holds live sessions keyed by session ID.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Acquire returns the session for id, creating it on first use. A session
// belongs to the user that created it; any other user gets ErrSessionOwner.
func (s *Sessions) Acquire(id, userID, username string) (sess *Session, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		if sess.UserID != userID {
			return nil, false, ErrSessionOwner
		}
		return sess, false, nil
	}
	now := s.now()
	sess = &Session{
		ID:          id,
		UserID:      userID,
		Username:    username,
		CurrentPath: vfs.HomeDir,
		CreatedAt:   now,
		LastActive:  now,
	}
	s.sessions[id] = sess
	return sess, true, nil
}

// Evict drops the session. Commands already running on it finish normally.
func (s *Sessions) Evict(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Get returns a snapshot of the session.
func (s *Sessions) Get(id string) (SessionInfo, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return SessionInfo{}, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return SessionInfo{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		Username:    sess.Username,
		CurrentPath: sess.CurrentPath,
		History:     append([]string(nil), sess.History...),
		CreatedAt:   sess.CreatedAt,
		LastActive:  sess.LastActive,
	}, true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

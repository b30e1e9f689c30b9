package shell

import (
	"context"
	"time"

	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
)

// Request is one line of terminal input from an authenticated session.
type Request struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
	UserID    string `json:"userId" validate:"required,max=128"`
	Username  string `json:"username" validate:"max=128"`
	Command   string `json:"command" validate:"max=65536"`
}

// Result is the outcome of a command. Error is user-facing text; Clear
// asks the client to reset its screen.
type Result struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	Clear  bool   `json:"clear,omitempty"`
}

// Failed reports whether the command produced an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Executor runs commands for sessions. The Interpreter implements it
// in-process; relay and HTTP clients implement it across processes.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
	EndSession(ctx context.Context, sessionID string) error
}

// Filesystem is the subset of the vfs store the interpreter drives.
type Filesystem interface {
	Initialize(ctx context.Context, owner string) error
	List(ctx context.Context, owner, dir string) ([]vfs.Entry, error)
	Create(ctx context.Context, owner, dir, name string, typ vfs.EntryType, content string) (vfs.Entry, error)
	Read(ctx context.Context, owner, dir, name string) (string, error)
	Write(ctx context.Context, owner, dir, name, content string) (vfs.Entry, error)
	Append(ctx context.Context, owner, dir, name, content string) (vfs.Entry, error)
	Delete(ctx context.Context, owner, dir, name string, typ vfs.EntryType) error
	Exists(ctx context.Context, owner, p string) (bool, error)
}

// Metrics receives command outcomes.
type Metrics interface {
	ObserveCommand(name, status string, duration time.Duration)
	SetActiveSessions(n int)
}

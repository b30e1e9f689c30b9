package shell

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

// Interpreter parses command lines and runs builtins against a Filesystem.
type Interpreter struct {
	fs       Filesystem
	sessions *Sessions
	log      *logging.Logger
	metrics  Metrics
	now      func() time.Time
	started  time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMetrics reports command outcomes to m.
func WithMetrics(m Metrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// WithClock overrides the time source used by date and uptime.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// NewInterpreter creates an interpreter with an empty session store.
func NewInterpreter(fs Filesystem, log *logging.Logger, opts ...Option) *Interpreter {
	i := &Interpreter{
		fs:       fs,
		sessions: NewSessions(),
		log:      log.Named("shell"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.started = i.now()
	return i
}

// Execute runs one command line for the session in req. Commands of the
// same session run one at a time. The error is non-nil only for a
// malformed request; command failures are reported in Result.Error.
func (i *Interpreter) Execute(ctx context.Context, req Request) (Result, error) {
	if req.SessionID == "" || req.UserID == "" {
		return Result{}, fmt.Errorf("%w: session and user are required", ErrInvalidRequest)
	}

	sess, created, err := i.sessions.Acquire(req.SessionID, req.UserID, req.Username)
	if err != nil {
		i.log.Warn("session owner mismatch",
			zap.String("session_id", req.SessionID),
			zap.String("user_id", req.UserID))
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if created && i.metrics != nil {
		i.metrics.SetActiveSessions(i.sessions.Len())
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.initialized {
		if err := i.fs.Initialize(ctx, sess.UserID); err != nil {
			i.log.Error("filesystem initialization failed",
				zap.String("session_id", sess.ID),
				zap.String("user_id", sess.UserID),
				zap.Error(err))
			return Result{Error: InternalError}, nil
		}
		sess.initialized = true
	}

	line := strings.TrimSpace(req.Command)
	if line == "" {
		return Result{}, nil
	}
	sess.History = append(sess.History, line)
	sess.LastActive = i.now()

	start := time.Now()
	name, res := i.run(ctx, sess, line)
	i.observe(name, res, time.Since(start))
	return res, nil
}

// EndSession evicts the session. Its filesystem is untouched.
func (i *Interpreter) EndSession(_ context.Context, sessionID string) error {
	if i.sessions.Evict(sessionID) {
		i.log.Debug("session evicted", zap.String("session_id", sessionID))
		if i.metrics != nil {
			i.metrics.SetActiveSessions(i.sessions.Len())
		}
	}
	return nil
}

// Session returns a snapshot of a live session.
func (i *Interpreter) Session(sessionID string) (SessionInfo, bool) {
	return i.sessions.Get(sessionID)
}

// ActiveSessions returns the number of live sessions.
func (i *Interpreter) ActiveSessions() int {
	return i.sessions.Len()
}

// InitializeFilesystem creates the home skeleton for owner.
func (i *Interpreter) InitializeFilesystem(ctx context.Context, owner string) error {
	return i.fs.Initialize(ctx, owner)
}

// run executes line and returns the command name used for metrics.
func (i *Interpreter) run(ctx context.Context, sess *Session, line string) (string, Result) {
	redir, ok, err := parseRedirection(line)
	if err != nil {
		return "redirect", i.failure(sess, "redirect", err)
	}
	if !ok {
		return i.dispatch(ctx, sess, line)
	}

	name, res := i.dispatch(ctx, sess, redir.command)
	if res.Failed() {
		return name, res
	}
	if err := i.writeFile(ctx, sess, redir.target, res.Output, redir.append); err != nil {
		return name, i.failure(sess, name, redirectError(redir.target, err))
	}
	return name, Result{}
}

func (i *Interpreter) dispatch(ctx context.Context, sess *Session, line string) (name string, res Result) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return "", Result{}
	}
	name, args := tokens[0], tokens[1:]

	h, ok := handlers[name]
	if !ok {
		return "unknown", Result{Error: commandNotFound(name).Error()}
	}

	defer func() {
		if r := recover(); r != nil {
			i.log.Error("command panicked",
				zap.String("session_id", sess.ID),
				zap.String("command", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res = Result{Error: InternalError}
		}
	}()

	res, err := h(i, ctx, sess, args)
	if err != nil {
		return name, i.failure(sess, name, err)
	}
	return name, res
}

// failure converts a handler error into a Result. User-facing errors pass
// through verbatim; everything else is logged and hidden.
func (i *Interpreter) failure(sess *Session, name string, err error) Result {
	var ce *CommandError
	var pe *vfs.PathError
	if errors.As(err, &ce) || errors.As(err, &pe) {
		return Result{Error: err.Error()}
	}
	i.log.Error("command failed",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID),
		zap.String("command", name),
		zap.Error(err))
	return Result{Error: InternalError}
}

// writeFile creates target or, when it already exists, overwrites or
// appends to it.
func (i *Interpreter) writeFile(ctx context.Context, sess *Session, name, content string, appendMode bool) error {
	_, err := i.fs.Create(ctx, sess.UserID, sess.CurrentPath, name, vfs.TypeFile, content)
	if !errors.Is(err, vfs.ErrAlreadyExists) {
		return err
	}
	if appendMode {
		_, err = i.fs.Append(ctx, sess.UserID, sess.CurrentPath, name, content)
	} else {
		_, err = i.fs.Write(ctx, sess.UserID, sess.CurrentPath, name, content)
	}
	return err
}

func redirectError(target string, err error) error {
	if errors.Is(err, vfs.ErrTypeMismatch) {
		return userError("%s: Is a directory", target)
	}
	return err
}

func (i *Interpreter) observe(name string, res Result, d time.Duration) {
	if i.metrics == nil || name == "" {
		return
	}
	status := "ok"
	switch {
	case res.Error == InternalError:
		status = "internal"
	case res.Failed():
		status = "error"
	}
	i.metrics.ObserveCommand(name, status, d)
}

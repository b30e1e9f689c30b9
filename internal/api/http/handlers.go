package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handlers serves the interpreter's HTTP API.
type Handlers struct {
	interp *shell.Interpreter
	fs     shell.Filesystem
	log    *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(interp *shell.Interpreter, fs shell.Filesystem, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{interp: interp, fs: fs, log: log.Named("http")}
}

type initRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
}

type fsQuery struct {
	UserID string `form:"userId" validate:"required,max=128"`
	Path   string `form:"path"`
	Name   string `form:"name"`
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "interpreter",
		"sessions": h.interp.ActiveSessions(),
	})
}

// Execute runs one command line for a session.
func (h *Handlers) Execute(c *gin.Context) {
	var req shell.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.interp.Execute(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, shell.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("execute failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": shell.InternalError})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetSession returns a session snapshot
func (h *Handlers) GetSession(c *gin.Context) {
	info, ok := h.interp.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// EndSession drops a session's in-memory state.
func (h *Handlers) EndSession(c *gin.Context) {
	sessionID := c.Param("id")
	_, existed := h.interp.Session(sessionID)
	if err := h.interp.EndSession(c.Request.Context(), sessionID); err != nil {
		h.log.Error("end session failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": shell.InternalError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ended": existed})
}

// InitFilesystem creates a user's home folders.
func (h *Handlers) InitFilesystem(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.interp.InitializeFilesystem(c.Request.Context(), req.UserID); err != nil {
		h.internal(c, "init filesystem", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFiles lists a folder.
func (h *Handlers) ListFiles(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}

	entries, err := h.fs.List(c.Request.Context(), q.UserID, q.Path)
	if err != nil {
		h.internal(c, "list files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": entries})
}

// ReadFile returns a file's content.
func (h *Handlers) ReadFile(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}

	content, err := h.fs.Read(c.Request.Context(), q.UserID, q.Path, q.Name)
	switch {
	case errors.Is(err, vfs.ErrNotFound), errors.Is(err, vfs.ErrTypeMismatch):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.internal(c, "read file", err)
	default:
		c.JSON(http.StatusOK, gin.H{"content": content})
	}
}

// PathExists reports whether a folder path exists.
func (h *Handlers) PathExists(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}

	exists, err := h.fs.Exists(c.Request.Context(), q.UserID, q.Path)
	if err != nil {
		h.internal(c, "path exists", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *Handlers) bindQuery(c *gin.Context) (fsQuery, bool) {
	var q fsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	if err := validate.Struct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	if q.Path == "" {
		q.Path = vfs.HomeDir
	}
	return q, true
}

func (h *Handlers) internal(c *gin.Context, op string, err error) {
	h.log.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": shell.InternalError})
}

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webterm/internal/domain/shell"
	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

func setupRouter(t *testing.T) (*gin.Engine, *shell.Interpreter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := vfs.NewStore(vfs.NewMemoryRepository())
	interp := shell.NewInterpreter(store, logging.NewNop())
	router := gin.New()
	NewHandlers(interp, store, logging.NewNop()).RegisterRoutes(router)
	return router, interp
}

func do(t *testing.T, router *gin.Engine, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func execute(command string) map[string]string {
	return map[string]string{"sessionId": "s1", "userId": "u1", "username": "alice", "command": command}
}

func TestExecuteHandler(t *testing.T) {
	router, _ := setupRouter(t)

	w, out := do(t, router, http.MethodPost, "/api/cli/execute", execute("pwd"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"output": "/home/user"}, out)

	_, out = do(t, router, http.MethodPost, "/api/cli/execute", execute("frobnicate"))
	assert.Equal(t, "Command not found: frobnicate. Type 'help' for available commands.", out["error"])

	_, out = do(t, router, http.MethodPost, "/api/cli/execute", execute("clear"))
	assert.Equal(t, true, out["clear"])
}

func TestExecuteHandlerValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing session", body: map[string]string{"userId": "u1", "command": "ls"}},
		{name: "missing user", body: map[string]string{"sessionId": "s1", "command": "ls"}},
		{name: "wrong type", body: map[string]interface{}{"sessionId": 7, "userId": "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, router, http.MethodPost, "/api/cli/execute", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestSessionHandlers(t *testing.T) {
	router, interp := setupRouter(t)

	w, out := do(t, router, http.MethodGet, "/api/cli/session/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", out["error"])

	do(t, router, http.MethodPost, "/api/cli/execute", execute("mkdir docs"))
	do(t, router, http.MethodPost, "/api/cli/execute", execute("cd docs"))

	w, out = do(t, router, http.MethodGet, "/api/cli/session/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/home/user/docs", out["currentPath"])
	assert.Equal(t, []interface{}{"mkdir docs", "cd docs"}, out["history"])

	_, out = do(t, router, http.MethodDelete, "/api/cli/session/s1", nil)
	assert.Equal(t, map[string]interface{}{"success": true, "ended": true}, out)
	assert.Zero(t, interp.ActiveSessions())

	_, out = do(t, router, http.MethodDelete, "/api/cli/session/s1", nil)
	assert.Equal(t, false, out["ended"])
}

func TestFilesystemHandlers(t *testing.T) {
	router, _ := setupRouter(t)

	w, out := do(t, router, http.MethodPost, "/api/fs/init", map[string]string{"userId": "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])

	w, _ = do(t, router, http.MethodPost, "/api/fs/init", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	do(t, router, http.MethodPost, "/api/cli/execute", map[string]string{"sessionId": "s1", "userId": "u1", "command": `echo "notes" > a.txt`})

	_, out = do(t, router, http.MethodGet, "/api/fs/list?userId=u1", nil)
	files, ok := out["files"].([]interface{})
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].(map[string]interface{})["name"])

	_, out = do(t, router, http.MethodGet, "/api/fs/read?userId=u1&path=/home/user&name=a.txt", nil)
	assert.Equal(t, "notes", out["content"])

	w, _ = do(t, router, http.MethodGet, "/api/fs/read?userId=u2&name=a.txt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, out = do(t, router, http.MethodGet, "/api/fs/exists?userId=u1&path=/home/user", nil)
	assert.Equal(t, true, out["exists"])
	_, out = do(t, router, http.MethodGet, "/api/fs/exists?userId=u2&path=/home/user", nil)
	assert.Equal(t, false, out["exists"])

	w, _ = do(t, router, http.MethodGet, "/api/fs/list", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	router, _ := setupRouter(t)
	do(t, router, http.MethodPost, "/api/cli/execute", execute("pwd"))

	w, out := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, float64(1), out["sessions"])
}

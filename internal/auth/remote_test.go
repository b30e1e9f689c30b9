package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

func authService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch req.Token {
		case "good":
			_, _ = w.Write([]byte(`{"user":{"id":"u1","username":"alice","email":"a@example.com","sessionId":"sess-9","isAnonymous":false}}`))
		case "empty":
			_, _ = w.Write([]byte(`{}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteVerifier(t *testing.T) {
	v := NewRemoteVerifier(authService(t).URL, time.Second, logging.NewNop())
	ctx := context.Background()

	got, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Username: "alice", Email: "a@example.com", SessionID: "sess-9"}, got)

	_, err = v.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = v.Verify(ctx, "empty")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = v.Verify(ctx, "broken")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestChain(t *testing.T) {
	local := NewJWTVerifier("secret")
	token, _, err := local.Issue(Identity{UserID: "u1", Username: "local-name", SessionID: "local-sess"}, time.Hour)
	require.NoError(t, err)

	var seen string
	remote := VerifierFunc(func(_ context.Context, tok string) (Identity, error) {
		seen = tok
		return Identity{UserID: "u1", Username: "alice"}, nil
	})

	got, err := Chain{local, remote}.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, token, seen)
	assert.Equal(t, Identity{UserID: "u1", Username: "alice", SessionID: "local-sess"}, got)
}

func TestChainStopsAtFirstRejection(t *testing.T) {
	called := false
	remote := VerifierFunc(func(context.Context, string) (Identity, error) {
		called = true
		return Identity{UserID: "u1"}, nil
	})

	_, err := Chain{NewJWTVerifier("secret"), remote}.Verify(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)

	_, err = Chain{remote}.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)

	unavailable := errors.New("auth service down")
	_, err = Chain{VerifierFunc(func(context.Context, string) (Identity, error) {
		return Identity{}, unavailable
	})}.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, unavailable)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "query", query: "xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", query: "xyz", want: "abc"},
		{name: "basic ignored", header: "Basic abc", want: ""},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws"
			if tt.query != "" {
				target += "?token=" + url.QueryEscape(tt.query)
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the token was checked and rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingToken means no token was presented.
	ErrMissingToken = errors.New("missing authentication token")
)

// Identity is the authenticated principal behind a connection.
type Identity struct {
	UserID      string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	SessionID   string `json:"sessionId"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (Identity, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// ExtractToken reads a bearer token from the Authorization header, falling
// back to the token query parameter.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Chain requires every verifier to accept the token. Later verifiers take
// precedence; fields they leave empty keep earlier values.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	var out Identity
	for _, v := range c {
		identity, err := v.Verify(ctx, token)
		if err != nil {
			return Identity{}, err
		}
		out = merge(out, identity)
	}
	if out.UserID == "" {
		return Identity{}, ErrUnauthorized
	}
	return out, nil
}

func merge(base, next Identity) Identity {
	if next.UserID != "" {
		base.UserID = next.UserID
	}
	if next.Username != "" {
		base.Username = next.Username
	}
	if next.Email != "" {
		base.Email = next.Email
	}
	if next.SessionID != "" {
		base.SessionID = next.SessionID
	}
	base.IsAnonymous = next.IsAnonymous
	return base
}

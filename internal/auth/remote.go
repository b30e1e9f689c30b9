package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
)

const verifyPath = "/api/auth/verify"

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	User *Identity `json:"user"`
}

// RemoteVerifier asks the auth service to verify a token.
type RemoteVerifier struct {
	client *httpclient.Client
}

// NewRemoteVerifier creates a verifier for the auth service at baseURL.
func NewRemoteVerifier(baseURL string, timeout time.Duration, log *logging.Logger) *RemoteVerifier {
	return &RemoteVerifier{
		client: httpclient.New(httpclient.Config{
			Name:     "auth",
			BaseURL:  baseURL,
			Timeout:  timeout,
			RetryMax: 2,
		}, log),
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	var resp verifyResponse
	err := v.client.Post(ctx, verifyPath, verifyRequest{Token: token}, &resp)
	switch {
	case httpclient.IsStatus(err, http.StatusUnauthorized), httpclient.IsStatus(err, http.StatusForbidden):
		return Identity{}, ErrUnauthorized
	case err != nil:
		return Identity{}, fmt.Errorf("verify token: %w", err)
	}

	if resp.User == nil || resp.User.UserID == "" {
		return Identity{}, fmt.Errorf("%w: empty identity", ErrUnauthorized)
	}
	return *resp.User, nil
}

// IsUnauthorized reports whether err rejects the credentials rather than
// signalling an unavailable verifier.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrMissingToken)
}

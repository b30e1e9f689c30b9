package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

func TestJWTIssueAndVerify(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, expires, err := v.Issue(Identity{UserID: "u1", Username: "alice", SessionID: "sess-1"}, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	got, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Username: "alice", SessionID: "sess-1"}, got)
}

func TestJWTVerifyAssignsSession(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, _, err := v.Issue(Identity{UserID: "guest", IsAnonymous: true}, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, got.IsAnonymous)
	assert.True(t, id.IsValid(got.SessionID))
}

func TestJWTVerifyRejects(t *testing.T) {
	v := NewJWTVerifier("secret")
	good, _, err := v.Issue(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	other, _, err := NewJWTVerifier("other").Issue(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	expired, _, err := v.Issue(Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)

	noUser, _, err := v.Issue(Identity{Username: "nobody"}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", other},
		{"expired", expired},
		{"no user", noUser},
		{"unsigned", none},
		{"garbage", "not.a.token"},
		{"tampered", good + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.True(t, IsUnauthorized(err))
		})
	}

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

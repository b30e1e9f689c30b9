package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// Claims holds the terminal token claims.
type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HMAC-signed tokens locally.
type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTVerifier creates a verifier for tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: "webterm", now: time.Now}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = id.NewSessionID().String()
	}

	return Identity{
		UserID:      claims.UserID,
		Username:    claims.Username,
		Email:       claims.Email,
		SessionID:   sessionID,
		IsAnonymous: claims.IsAnonymous,
	}, nil
}

// Issue signs a token for identity valid for ttl.
func (v *JWTVerifier) Issue(identity Identity, ttl time.Duration) (string, time.Time, error) {
	now := v.now()
	expires := now.Add(ttl)
	claims := &Claims{
		UserID:      identity.UserID,
		Username:    identity.Username,
		Email:       identity.Email,
		SessionID:   identity.SessionID,
		IsAnonymous: identity.IsAnonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

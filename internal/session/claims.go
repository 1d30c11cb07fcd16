package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mbeoliero/xchange/pkg/errcode"
)

// Claims is the part of the backend token the client cares about
type Claims struct {
	UserId string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the token payload without checking the signature.
// The client cannot hold the signing secret; the server still validates every request.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, errcode.ErrTokenMissing
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}
	if claims.UserId == "" {
		claims.UserId = claims.Subject
	}
	if claims.UserId == "" {
		return nil, errcode.ErrTokenInvalid
	}
	return &claims, nil
}

// Expired reports whether the token's exp lies before now. Tokens without exp never expire here.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// TTL is the time left before expiry, 0 when the token has no exp
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

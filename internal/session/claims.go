package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the backend puts in its HS256 tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token claims without verifying the signature. The
// result is informational only; validity is decided by the backend.
func ParseClaims(token string) (*Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ExpiresAt returns the exp claim, zero when absent.
func (c *Claims) ExpiresAt() time.Time {
	if c == nil || c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Claims decodes the current credential.
func (s *Store) Claims() (*Claims, error) {
	return ParseClaims(s.Token())
}

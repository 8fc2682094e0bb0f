package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// ErrNoAccessToken is returned by Manager.Claims when signed out.
var ErrNoAccessToken = errors.New("no access token")

// Claims is the payload of an access token.
type Claims struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a JWT without checking its signature. The client never
// holds the signing key; the server remains the only judge of validity, so the
// result is for display and routing only.
func ParseClaims(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("decoding access token: %w", err)
	}
	return c, nil
}

// Expiry returns the exp claim, or the zero time when absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// User maps the claims onto the domain user.
func (c Claims) User() domain.User {
	return domain.User{
		ID:         c.UserID,
		Username:   c.Username,
		Role:       domain.Role(c.Role),
		IsVerified: c.IsVerified,
	}
}

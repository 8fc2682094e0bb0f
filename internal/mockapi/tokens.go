package mockapi

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/waabox/constitutiongpt/internal/session"
)

type refreshRecord struct {
	userID  string
	family  string
	expires time.Time
	used    bool
}

// tokenIssuer signs access JWTs and keeps opaque refresh tokens. A refresh
// token is good for one rotation. Presenting a spent one revokes every token
// descended from the same login.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	refresh map[string]*refreshRecord // keyed by sha256 of the token
	revoked map[string]bool
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
		refresh:    make(map[string]*refreshRecord),
		revoked:    make(map[string]bool),
	}
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// issue mints a pair for u. An empty family starts a new one.
func (ti *tokenIssuer) issue(u *user, family string) (session.Pair, error) {
	now := ti.now()
	claims := session.Claims{
		UserID:     u.ID,
		Username:   u.Username,
		Role:       string(u.Role),
		IsVerified: u.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return session.Pair{}, fmt.Errorf("signing access token: %w", err)
	}

	if family == "" {
		family = uuid.NewString()
	}
	refresh := uuid.NewString() + "." + uuid.NewString()

	ti.mu.Lock()
	ti.refresh[hashToken(refresh)] = &refreshRecord{
		userID:  u.ID,
		family:  family,
		expires: now.Add(ti.refreshTTL),
	}
	ti.mu.Unlock()

	return session.Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// rotate spends raw and reports who it belonged to.
func (ti *tokenIssuer) rotate(raw string) (userID, family string, err error) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	rec, ok := ti.refresh[hashToken(raw)]
	switch {
	case !ok, ti.revoked[rec.family]:
		return "", "", errInvalidRefreshToken
	case rec.used:
		ti.revoked[rec.family] = true
		return "", "", errInvalidRefreshToken
	case !ti.now().Before(rec.expires):
		return "", "", errInvalidRefreshToken
	}
	rec.used = true
	return rec.userID, rec.family, nil
}

// verify checks the signature and expiry of an access token.
func (ti *tokenIssuer) verify(access string) (session.Claims, error) {
	var claims session.Claims
	_, err := jwt.ParseWithClaims(access, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.Claims{}, newHTTPError(http.StatusUnauthorized, "Token expired")
		}
		return session.Claims{}, errInvalidToken
	}
	return claims, nil
}

// Package tokensvc implements the Token Service (spec §4.2, C2): it issues
// and verifies bearer tokens that stand in for a player id across the
// connection lifecycle.
//
// The teacher's auth.Validator verifies externally-issued Auth0 JWTs against
// a JWKS endpoint. This spec has no external identity provider (C1 and C2
// are both owned by this process), so tokensvc is self-signed instead: one
// process-wide HMAC-SHA256 secret both issues and verifies, following the
// same github.com/golang-jwt/jwt/v5 claims-struct idiom the teacher uses.
package tokensvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vrsocial/roomcore/internal/v1/apierr"
)

// DefaultLifetime is the token validity window used when Issuer is
// constructed without an explicit override (spec §4.2: 30 days).
const DefaultLifetime = 30 * 24 * time.Hour

// claims is the JWT claim set: just the registered subject, issued-at, and
// expiry fields. No scope or profile data travels in the token itself —
// C1 is the source of truth for profile data (spec §2).
type claims struct {
	jwt.RegisteredClaims
}

// Issuer issues and verifies bearer tokens for player ids. Safe for
// concurrent use; the signing secret is immutable after construction.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// New constructs an Issuer signing with secret, using DefaultLifetime.
// secret must be non-empty; callers are expected to load it from
// configuration (spec §7: "signing secret").
func New(secret []byte) *Issuer {
	return &Issuer{secret: secret, lifetime: DefaultLifetime, now: time.Now}
}

// WithLifetime returns a copy of the issuer using the given token lifetime
// instead of DefaultLifetime.
func (iss *Issuer) WithLifetime(d time.Duration) *Issuer {
	clone := *iss
	clone.lifetime = d
	return &clone
}

// Lifetime reports the issuer's configured token validity window, so
// collaborators that cache a token alongside it (e.g. the session map) can
// size their own TTL to match.
func (iss *Issuer) Lifetime() time.Duration {
	return iss.lifetime
}

// withClock overrides the issuer's time source, for tests that need to
// observe expiry without sleeping.
func (iss *Issuer) withClock(now func() time.Time) *Issuer {
	clone := *iss
	clone.now = now
	return &clone
}

// Issue mints a signed token for playerID, valid for the issuer's
// configured lifetime from now.
func (iss *Issuer) Issue(playerID string) (string, error) {
	now := iss.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(iss.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", apierr.ErrInternal)
	}
	return signed, nil
}

// Verify parses and validates token, returning the subject player id. A
// malformed, unsigned-by-us, or expired token returns ErrTokenInvalid
// (spec §4.2: "verify(token) -> Option<player_id>", modeled here as an
// error rather than a bool so callers can log the cause).
func (iss *Issuer) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return iss.secret, nil
	}, jwt.WithTimeFunc(iss.now))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, apierr.ErrTokenInvalid)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return "", apierr.ErrTokenInvalid
	}
	if c.Subject == "" {
		return "", apierr.ErrTokenInvalid
	}
	return c.Subject, nil
}

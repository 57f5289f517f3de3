package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sessions issues and resolves self-authenticating session tokens.
//
// A token is an HS256-signed JWT carrying the user id as its subject. The
// bearer cannot alter the id without breaking the signature, and no
// server-side session table is needed to resolve it. The flip side is
// that a copied token stays valid until it expires; logout only clears
// the client's cookie. Keep the TTL short.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions creates a session issuer with the given signing secret and
// token lifetime.
func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{secret: secret, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue produces a signed token bound to userID.
func (s *Sessions) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Resolve returns the user id embedded in token. A missing, tampered,
// mis-signed or expired token yields ok=false; callers treat that as
// "no identity", not as an error.
func (s *Sessions) Resolve(token string) (userID int64, ok bool) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return 0, false
	}

	claims, okClaims := parsed.Claims.(*jwt.RegisteredClaims)
	if !okClaims {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Package jwtmw seals session ids into signed cookie values.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to the iss claim of every sealed value.
const Issuer = "shelfflix"

// ErrInvalidToken is returned by Open for any value that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Sealer signs a session id with HS256 so that the cookie cannot be forged
// without SESSION_SECRET. The id itself stays the only server-side key.
type Sealer struct {
	secret []byte
	now    func() time.Time
}

// NewSealer creates a Sealer with the provided secret.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	return &Sealer{secret: []byte(secret), now: time.Now}, nil
}

// Seal creates a signed token carrying sessionID as jti and expiresAt as exp.
func (s *Sealer) Seal(sessionID string, expiresAt time.Time) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id must not be empty")
	}

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Open verifies the signature and expiry of value and returns the session id.
func (s *Sealer) Open(value string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		// HMAC以外のアルゴリズムは拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	return claims.ID, nil
}

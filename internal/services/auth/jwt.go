package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

// Verifier validates HS256 access tokens issued by the hosted auth service.
// The subject is the user id; email is carried as a top-level claim.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

func (v *Verifier) Verify(raw string) (Identity, error) {
	if !v.Enabled() || strings.TrimSpace(raw) == "" {
		return Identity{}, ErrUnauthorized
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || token == nil || !token.Valid {
		return Identity{}, ErrUnauthorized
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

// Sign issues a token in the hosted auth format. Used by local tooling and tests.
func (v *Verifier) Sign(identity Identity, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", fmt.Errorf("jwt secret is empty")
	}
	if strings.TrimSpace(identity.UserID) == "" {
		return "", fmt.Errorf("invalid token payload")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := v.now().UTC()
	claims := tokenClaims{
		Email: identity.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

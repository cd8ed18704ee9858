// Package service verifies bearer tokens issued by the external auth provider.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/finboard/finboard/internal/auth/domain"
)

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	Verify(token string) (*authDomain.Principal, error)
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret   []byte
	audience string
	leeway   time.Duration
}

// NewJWTVerifier returns a TokenVerifier for HS256 tokens signed with secret. When audience
// is non-empty the "aud" claim must contain it.
func NewJWTVerifier(secret, audience string) TokenVerifier {
	return &jwtVerifier{
		secret:   []byte(secret),
		audience: audience,
		leeway:   30 * time.Second,
	}
}

func (v *jwtVerifier) Verify(token string) (*authDomain.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed := &claims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, authDomain.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, authDomain.ErrAudienceMismatch
		default:
			return nil, fmt.Errorf("%w: %v", authDomain.ErrInvalidToken, err)
		}
	}

	if parsed.Subject == "" {
		return nil, authDomain.ErrMissingSubject
	}

	return &authDomain.Principal{UserID: parsed.Subject, Email: parsed.Email}, nil
}

// Package domain defines the authenticated caller and authentication errors.
package domain

import (
	apperrors "github.com/finboard/finboard/internal/errors"
)

// Principal is the user a verified bearer token was issued to.
type Principal struct {
	// UserID is the token subject. Items are scoped to it.
	UserID string
	Email  string
}

// Authentication errors. Each one wraps ErrUnauthorized.
var (
	ErrMissingToken     = apperrors.Wrap(apperrors.ErrUnauthorized, "missing bearer token")
	ErrInvalidToken     = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid token")
	ErrExpiredToken     = apperrors.Wrap(apperrors.ErrUnauthorized, "token expired")
	ErrMissingSubject   = apperrors.Wrap(apperrors.ErrUnauthorized, "token has no subject")
	ErrAudienceMismatch = apperrors.Wrap(apperrors.ErrUnauthorized, "token audience mismatch")
)

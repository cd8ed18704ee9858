package aggregator

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/finboard/finboard/internal/errors"
)

// Error codes that change how callers treat an item.
const (
	ErrorCodeItemLoginRequired  = "ITEM_LOGIN_REQUIRED"
	ErrorCodeInvalidAccessToken = "INVALID_ACCESS_TOKEN"
	ErrorCodeInvalidPublicToken = "INVALID_PUBLIC_TOKEN"
	ErrorCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrorCodeProductNotReady    = "PRODUCT_NOT_READY"
)

// APIError is an error body returned by the aggregator.
type APIError struct {
	StatusCode     int    `json:"-"`
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aggregator error %d %s: %s", e.StatusCode, e.ErrorCode, e.ErrorMessage)
}

// Code returns the provider error code, e.g. ITEM_LOGIN_REQUIRED.
func (e *APIError) Code() string {
	return e.ErrorCode
}

// Unwrap maps client-side mistakes to ErrInvalidInput and everything else to ErrUpstream.
func (e *APIError) Unwrap() error {
	if e.ErrorCode == ErrorCodeInvalidPublicToken {
		return apperrors.ErrInvalidInput
	}
	return apperrors.ErrUpstream
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError ||
		e.ErrorCode == ErrorCodeRateLimitExceeded
}

// ErrorCode returns the aggregator error code carried by err, or "".
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode
	}
	return ""
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// upstreamError mimics an aggregator error body that unwraps to ErrUpstream.
type upstreamError struct {
	code string
}

func (e *upstreamError) Error() string { return "aggregator error " + e.code }

func (e *upstreamError) Unwrap() error { return ErrUpstream }

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "failed to get accounts"))

	wrapped := Wrap(ErrCredentials, "failed to process credentials")
	assert.EqualError(t, wrapped, "failed to process credentials: credentials unavailable")
	assert.ErrorIs(t, wrapped, ErrCredentials)
}

func TestWrapf(t *testing.T) {
	assert.Nil(t, Wrapf(nil, "failed to remove item %s", "item-1"))

	cause := &upstreamError{code: "INTERNAL_SERVER_ERROR"}
	wrapped := Wrapf(cause, "failed to get accounts for item %s", "item-1")

	assert.EqualError(t, wrapped, "failed to get accounts for item item-1: aggregator error INTERNAL_SERVER_ERROR")
	assert.ErrorIs(t, wrapped, ErrUpstream)

	var target *upstreamError
	assert.True(t, As(wrapped, &target))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", target.code)
}

func TestCredentialsChain(t *testing.T) {
	// Linking joins its own sentinel with the sealing cause; both must stay matchable.
	sealFailed := Wrap(ErrCredentials, "failed to secure credentials")
	cause := New("encryption key unavailable")
	err := fmt.Errorf("%w: %w", sealFailed, cause)

	assert.True(t, Is(err, sealFailed))
	assert.True(t, Is(err, ErrCredentials))
	assert.True(t, Is(err, cause))
	assert.False(t, Is(err, ErrUpstream))
	assert.False(t, Is(err, ErrInvalidInput))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := map[string]error{
		"not found":     ErrNotFound,
		"conflict":      ErrConflict,
		"invalid input": ErrInvalidInput,
		"unauthorized":  ErrUnauthorized,
		"forbidden":     ErrForbidden,
		"upstream":      ErrUpstream,
		"credentials":   ErrCredentials,
	}

	for name, err := range sentinels {
		for otherName, other := range sentinels {
			if name == otherName {
				continue
			}
			assert.False(t, errors.Is(err, other), "%s must not match %s", name, otherName)
		}
	}
}

// Package domain defines the credential vault's key material, sealed record format
// and error taxonomy.
package domain

import (
	"github.com/finboard/finboard/internal/errors"
)

// ErrCredential is the coarse failure signal shared by every Seal and Open failure.
//
// Callers that only need to know "the credential could not be secured or recovered" match
// on this error. The specific kinds below exist for internal diagnostics and must not be
// surfaced to end users.
var ErrCredential = errors.New("credential operation failed")

// Credential failure kinds. Each one wraps ErrCredential.
var (
	// ErrKeyUnavailable indicates the key store holds no validated key.
	ErrKeyUnavailable = errors.Wrap(ErrCredential, "encryption key unavailable")

	// ErrSealFailed indicates an unexpected cipher or entropy failure while sealing.
	ErrSealFailed = errors.Wrap(ErrCredential, "seal failed")

	// ErrMalformedRecord indicates the input is empty or does not have exactly three segments.
	ErrMalformedRecord = errors.Wrap(ErrCredential, "malformed sealed record")

	// ErrInvalidNonceLength indicates the nonce segment does not decode to NonceSize bytes.
	ErrInvalidNonceLength = errors.Wrap(ErrCredential, "invalid nonce length")

	// ErrInvalidTagLength indicates the tag segment does not decode to TagSize bytes.
	ErrInvalidTagLength = errors.Wrap(ErrCredential, "invalid tag length")

	// ErrAuthenticationFailed indicates tag verification failed: wrong key, corruption or tampering.
	ErrAuthenticationFailed = errors.Wrap(ErrCredential, "authentication failed")

	// ErrDecodeError indicates a segment is not valid hex or the plaintext is not valid UTF-8.
	ErrDecodeError = errors.Wrap(ErrCredential, "decode error")
)

// Key configuration diagnostics. Each one wraps ErrKeyUnavailable so a store poisoned by
// any of them fails Seal and Open with ErrKeyUnavailable.
var (
	// ErrKeyNotSet indicates the encryption key configuration value is absent.
	ErrKeyNotSet = errors.Wrap(ErrKeyUnavailable, "encryption key not set")

	// ErrInvalidKeyLength indicates the configured key is not EncodedKeySize hex characters.
	ErrInvalidKeyLength = errors.Wrap(ErrKeyUnavailable, "invalid encryption key length")

	// ErrInvalidKeyEncoding indicates the configured key is not valid hex.
	ErrInvalidKeyEncoding = errors.Wrap(ErrKeyUnavailable, "invalid encryption key encoding")
)

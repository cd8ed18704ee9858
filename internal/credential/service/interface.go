// Package service implements the credential vault: a key store holding the single
// encryption key and an AES-256-GCM sealer that turns plaintext credentials into
// sealed records and back.
package service

import (
	"context"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"
)

// Sealer protects credential material before it is persisted.
//
// Implementations are safe for concurrent use. Every failure wraps
// credentialDomain.ErrCredential.
type Sealer interface {
	// Seal encrypts plaintext and returns a self-contained sealed record.
	Seal(plaintext string) (string, error)

	// Open verifies and decrypts a sealed record produced by Seal.
	Open(record string) (string, error)
}

// KMSService opens KMS keepers used to unwrap a KMS-protected encryption key.
type KMSService interface {
	// OpenKeeper opens a keeper for the given gocloud.dev secrets URI.
	OpenKeeper(ctx context.Context, keyURI string) (credentialDomain.KMSKeeper, error)
}

package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"unicode/utf8"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"
)

// AESGCMSealer implements Sealer with AES-256-GCM.
//
// Each record uses a fresh 16-byte random nonce and carries a 16-byte tag; no associated
// data is authenticated. The cipher is built per call from the immutable key, so the
// sealer holds no mutable state and is safe for concurrent use.
//
// Example:
//
//	keys, err := NewKeyStore(os.Getenv("ENCRYPTION_KEY"))
//	if err != nil {
//	    return err
//	}
//	sealer := NewAESGCMSealer(keys)
//	record, err := sealer.Seal(accessToken)
type AESGCMSealer struct {
	keys   *KeyStore
	random io.Reader
}

// NewAESGCMSealer creates a sealer bound to keys.
func NewAESGCMSealer(keys *KeyStore) *AESGCMSealer {
	return &AESGCMSealer{
		keys:   keys,
		random: rand.Reader,
	}
}

// Seal encrypts plaintext into a sealed record.
//
// Fails with ErrKeyUnavailable before any cryptographic work when the key store is
// poisoned, and with ErrSealFailed on any cipher or entropy failure. A failed call never
// returns a partial record.
func (s *AESGCMSealer) Seal(plaintext string) (string, error) {
	key, err := s.keys.material()
	if err != nil {
		return "", err
	}

	aead, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", credentialDomain.ErrSealFailed, err)
	}

	nonce := make([]byte, credentialDomain.NonceSize)
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return "", fmt.Errorf("%w: failed to generate nonce", credentialDomain.ErrSealFailed)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	split := len(sealed) - credentialDomain.TagSize

	record := credentialDomain.SealedRecord{
		Nonce:      nonce,
		Tag:        sealed[split:],
		Ciphertext: sealed[:split],
	}
	encoded := record.String()
	credentialDomain.Zero(sealed)

	return encoded, nil
}

// Open verifies and decrypts a sealed record.
//
// The record shape is validated first (see credentialDomain.ParseSealedRecord). The tag is
// then verified over the whole ciphertext before any plaintext is released; a mismatch fails
// with ErrAuthenticationFailed. Plaintext that is not valid UTF-8 fails with ErrDecodeError.
func (s *AESGCMSealer) Open(record string) (string, error) {
	key, err := s.keys.material()
	if err != nil {
		return "", err
	}

	parsed, err := credentialDomain.ParseSealedRecord(record)
	if err != nil {
		return "", err
	}

	aead, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", credentialDomain.ErrAuthenticationFailed, err)
	}

	// GCM expects the tag appended to the ciphertext.
	input := make([]byte, 0, len(parsed.Ciphertext)+len(parsed.Tag))
	input = append(input, parsed.Ciphertext...)
	input = append(input, parsed.Tag...)

	plaintext, err := aead.Open(nil, parsed.Nonce, input, nil)
	if err != nil {
		return "", credentialDomain.ErrAuthenticationFailed
	}
	defer credentialDomain.Zero(plaintext)

	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid utf-8", credentialDomain.ErrDecodeError)
	}

	return string(plaintext), nil
}

// newGCM builds AES-256-GCM with the record's nonce and tag sizes.
func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != credentialDomain.KeySize {
		return nil, credentialDomain.ErrKeyUnavailable
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, credentialDomain.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aead, nil
}

package domain

import (
	"context"
	"encoding/hex"
	"fmt"
)

// DecodeKey validates and decodes the hex form of the encryption key.
//
// Upper and lower case hex are accepted. The value is never trimmed, padded or truncated:
// anything other than exactly EncodedKeySize hex characters is rejected. Returned errors
// describe the problem without including the value.
func DecodeKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, ErrKeyNotSet
	}
	if len(encoded) != EncodedKeySize {
		return nil, fmt.Errorf(
			"%w: expected %d hex characters, got %d",
			ErrInvalidKeyLength,
			EncodedKeySize,
			len(encoded),
		)
	}

	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidKeyEncoding
	}
	if len(key) != KeySize {
		Zero(key)
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeyLength, KeySize, len(key))
	}

	return key, nil
}

// KMSKeeper is the subset of a gocloud.dev secrets keeper used to unwrap the encryption key.
// *secrets.Keeper satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

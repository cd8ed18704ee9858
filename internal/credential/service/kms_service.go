package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"gocloud.dev/secrets"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a secrets.Keeper for the configured KMS provider using the keyURI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (credentialDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// KMSKeyLoader returns a KeyLoader that unwraps a KMS-protected encryption key.
//
// wrappedKey is base64 KMS ciphertext whose plaintext is the hex encryption key. The
// unwrapped value goes through the same validation as a plain key. When keyURI is empty
// wrappedKey is returned unchanged, so plain configuration needs no special casing.
func KMSKeyLoader(
	ctx context.Context,
	kms KMSService,
	keyURI string,
	wrappedKey string,
	logger *slog.Logger,
) KeyLoader {
	return func() (string, error) {
		if keyURI == "" {
			return wrappedKey, nil
		}
		if wrappedKey == "" {
			return "", credentialDomain.ErrKeyNotSet
		}

		ciphertext, err := base64.StdEncoding.DecodeString(wrappedKey)
		if err != nil {
			return "", fmt.Errorf("invalid base64 KMS ciphertext: %w", err)
		}

		keeper, err := kms.OpenKeeper(ctx, keyURI)
		if err != nil {
			return "", err
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil && logger != nil {
				logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()

		plaintext, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt encryption key with KMS: %w", err)
		}
		defer credentialDomain.Zero(plaintext)

		if logger != nil {
			logger.Info("encryption key unwrapped with KMS")
		}

		return string(plaintext), nil
	}
}

// WrapKey encrypts the hex encryption key with the KMS keeper at keyURI and returns the
// base64 ciphertext suitable for ENCRYPTION_KEY.
func WrapKey(ctx context.Context, kms KMSService, keyURI string, encodedKey string) (string, error) {
	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() { _ = keeper.Close() }()

	ciphertext, err := keeper.Encrypt(ctx, []byte(encodedKey))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt encryption key with KMS: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

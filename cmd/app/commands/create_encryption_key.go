package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"
	credentialService "github.com/finboard/finboard/internal/credential/service"
)

// RunCreateEncryptionKey generates a random 32-byte encryption key and writes it in the
// form ENCRYPTION_KEY expects: 64 hex characters.
//
// When kmsKeyURI is set the hex key is wrapped by that KMS keeper and the base64 ciphertext
// is written instead, together with ENCRYPTION_KEY_KMS_URI. The raw key bytes are zeroed
// once encoded. Nothing about the key is logged.
func RunCreateEncryptionKey(
	ctx context.Context,
	kms credentialService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	key := make([]byte, credentialDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}
	encoded := hex.EncodeToString(key)
	credentialDomain.Zero(key)

	value := encoded
	if kmsKeyURI != "" {
		wrapped, err := credentialService.WrapKey(ctx, kms, kmsKeyURI, encoded)
		if err != nil {
			return err
		}
		value = wrapped
	}

	logger.Info("encryption key generated", slog.Bool("kms_wrapped", kmsKeyURI != ""))

	if format == "json" {
		result := map[string]string{"encryption_key": value}
		if kmsKeyURI != "" {
			result["encryption_key_kms_uri"] = kmsKeyURI
		}
		return writeJSON(writer, result)
	}

	if kmsKeyURI != "" {
		_, _ = fmt.Fprintln(writer, "# Encryption key wrapped with KMS")
		_, _ = fmt.Fprintf(writer, "ENCRYPTION_KEY_KMS_URI=%q\n", kmsKeyURI)
	}
	_, err := fmt.Fprintf(writer, "ENCRYPTION_KEY=%q\n", value)
	return err
}

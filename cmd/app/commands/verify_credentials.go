package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

// CredentialVerifier sweeps stored credentials and reports those that no longer open.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, batchSize int, markUnusable bool) (*linkingDomain.VerifyReport, error)
}

// RunVerifyCredentials opens every stored access token with the configured key and reports
// the items whose sealed records fail. With markUnusable those items are flagged so the
// user is asked to relink. Useful after a key change to find what the old key sealed.
func RunVerifyCredentials(
	ctx context.Context,
	verifier CredentialVerifier,
	logger *slog.Logger,
	writer io.Writer,
	batchSize int,
	markUnusable bool,
	format string,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be a positive number, got: %d", batchSize)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("verifying stored credentials",
		slog.Int("batch_size", batchSize),
		slog.Bool("mark_unusable", markUnusable),
	)

	report, err := verifier.VerifyCredentials(ctx, batchSize, markUnusable)
	if err != nil {
		return fmt.Errorf("failed to verify credentials: %w", err)
	}

	logger.Info("verification completed",
		slog.Int("checked", report.Checked),
		slog.Int("unusable", len(report.Unusable)),
	)

	if format == "json" {
		unusable := report.Unusable
		if unusable == nil {
			unusable = []string{}
		}
		return writeJSON(writer, map[string]any{
			"checked":       report.Checked,
			"unusable":      unusable,
			"mark_unusable": markUnusable,
		})
	}

	_, _ = fmt.Fprintf(writer, "Checked %d credential(s), %d unusable\n", report.Checked, len(report.Unusable))
	for _, itemID := range report.Unusable {
		_, _ = fmt.Fprintf(writer, "  %s\n", itemID)
	}
	if markUnusable && len(report.Unusable) > 0 {
		_, _ = fmt.Fprintln(writer, "Unusable items were marked for relinking")
	}
	return nil
}

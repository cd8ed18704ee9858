package service

import (
	"context"
	"time"

	"github.com/finboard/finboard/internal/metrics"
)

// sealerWithMetrics decorates Sealer with metrics instrumentation.
// Only the outcome and duration are recorded, never record or plaintext content.
type sealerWithMetrics struct {
	next    Sealer
	metrics metrics.BusinessMetrics
}

// NewSealerWithMetrics wraps a Sealer with metrics recording.
func NewSealerWithMetrics(sealer Sealer, m metrics.BusinessMetrics) Sealer {
	return &sealerWithMetrics{
		next:    sealer,
		metrics: m,
	}
}

// Seal records metrics for seal operations.
func (s *sealerWithMetrics) Seal(plaintext string) (string, error) {
	start := time.Now()
	record, err := s.next.Seal(plaintext)
	s.record("credential_seal", start, err)
	return record, err
}

// Open records metrics for open operations.
func (s *sealerWithMetrics) Open(record string) (string, error) {
	start := time.Now()
	plaintext, err := s.next.Open(record)
	s.record("credential_open", start, err)
	return plaintext, err
}

func (s *sealerWithMetrics) record(operation string, start time.Time, err error) {
	metrics.Observe(context.Background(), s.metrics, "credential", operation, start, err)
}

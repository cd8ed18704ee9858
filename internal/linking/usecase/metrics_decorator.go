package usecase

import (
	"context"
	"time"

	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
	"github.com/finboard/finboard/internal/metrics"
)

const metricsDomain = "linking"

// itemUseCaseWithMetrics decorates ItemUseCase with operation counts and latencies.
type itemUseCaseWithMetrics struct {
	next    ItemUseCase
	metrics metrics.BusinessMetrics
}

// NewItemUseCaseWithMetrics wraps an ItemUseCase with metrics recording.
func NewItemUseCaseWithMetrics(useCase ItemUseCase, m metrics.BusinessMetrics) ItemUseCase {
	return &itemUseCaseWithMetrics{next: useCase, metrics: m}
}

func (i *itemUseCaseWithMetrics) CreateLinkToken(
	ctx context.Context,
	userID string,
) (*linkingDomain.LinkToken, error) {
	start := time.Now()
	token, err := i.next.CreateLinkToken(ctx, userID)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_create_link_token", start, err)
	return token, err
}

func (i *itemUseCaseWithMetrics) Link(
	ctx context.Context,
	input *linkingDomain.LinkInput,
) (*linkingDomain.Item, error) {
	start := time.Now()
	item, err := i.next.Link(ctx, input)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_link", start, err)
	return item, err
}

func (i *itemUseCaseWithMetrics) List(ctx context.Context, userID string) ([]*linkingDomain.Item, error) {
	start := time.Now()
	items, err := i.next.List(ctx, userID)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_list", start, err)
	return items, err
}

func (i *itemUseCaseWithMetrics) Accounts(
	ctx context.Context,
	userID, itemID string,
) ([]linkingDomain.Account, error) {
	start := time.Now()
	accounts, err := i.next.Accounts(ctx, userID, itemID)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_accounts", start, err)
	return accounts, err
}

func (i *itemUseCaseWithMetrics) Summary(
	ctx context.Context,
	input *linkingDomain.SummaryInput,
) (*linkingDomain.Summary, error) {
	start := time.Now()
	summary, err := i.next.Summary(ctx, input)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_summary", start, err)
	return summary, err
}

func (i *itemUseCaseWithMetrics) Unlink(ctx context.Context, userID, itemID string) error {
	start := time.Now()
	err := i.next.Unlink(ctx, userID, itemID)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_unlink", start, err)
	return err
}

func (i *itemUseCaseWithMetrics) VerifyCredentials(
	ctx context.Context,
	batchSize int,
	markUnusable bool,
) (*linkingDomain.VerifyReport, error) {
	start := time.Now()
	report, err := i.next.VerifyCredentials(ctx, batchSize, markUnusable)
	metrics.Observe(ctx, i.metrics, metricsDomain, "item_verify_credentials", start, err)
	return report, err
}

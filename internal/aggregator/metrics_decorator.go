package aggregator

import (
	"context"
	"time"

	"github.com/finboard/finboard/internal/metrics"
)

const metricsDomain = "aggregator"

// API is the set of aggregation calls made by the application. *Client implements it.
type API interface {
	CreateLinkToken(ctx context.Context, userID string) (*LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error)
	GetItem(ctx context.Context, accessToken string) (*Item, error)
	GetInstitution(ctx context.Context, institutionID string) (*Institution, error)
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error)
	RemoveItem(ctx context.Context, accessToken string) error
}

type apiWithMetrics struct {
	next    API
	metrics metrics.BusinessMetrics
}

// NewAPIWithMetrics wraps api with per-call counts and latencies. Retries inside a call
// count once.
func NewAPIWithMetrics(api API, m metrics.BusinessMetrics) API {
	return &apiWithMetrics{next: api, metrics: m}
}

func (a *apiWithMetrics) CreateLinkToken(ctx context.Context, userID string) (*LinkToken, error) {
	start := time.Now()
	token, err := a.next.CreateLinkToken(ctx, userID)
	metrics.Observe(ctx, a.metrics, metricsDomain, "create_link_token", start, err)
	return token, err
}

func (a *apiWithMetrics) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	start := time.Now()
	exchange, err := a.next.ExchangePublicToken(ctx, publicToken)
	metrics.Observe(ctx, a.metrics, metricsDomain, "exchange_public_token", start, err)
	return exchange, err
}

func (a *apiWithMetrics) GetItem(ctx context.Context, accessToken string) (*Item, error) {
	start := time.Now()
	item, err := a.next.GetItem(ctx, accessToken)
	metrics.Observe(ctx, a.metrics, metricsDomain, "get_item", start, err)
	return item, err
}

func (a *apiWithMetrics) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	start := time.Now()
	institution, err := a.next.GetInstitution(ctx, institutionID)
	metrics.Observe(ctx, a.metrics, metricsDomain, "get_institution", start, err)
	return institution, err
}

func (a *apiWithMetrics) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	start := time.Now()
	accounts, err := a.next.GetAccounts(ctx, accessToken)
	metrics.Observe(ctx, a.metrics, metricsDomain, "get_accounts", start, err)
	return accounts, err
}

func (a *apiWithMetrics) GetTransactions(
	ctx context.Context,
	accessToken string,
	start, end time.Time,
) ([]Transaction, error) {
	begin := time.Now()
	transactions, err := a.next.GetTransactions(ctx, accessToken, start, end)
	metrics.Observe(ctx, a.metrics, metricsDomain, "get_transactions", begin, err)
	return transactions, err
}

func (a *apiWithMetrics) RemoveItem(ctx context.Context, accessToken string) error {
	start := time.Now()
	err := a.next.RemoveItem(ctx, accessToken)
	metrics.Observe(ctx, a.metrics, metricsDomain, "remove_item", start, err)
	return err
}

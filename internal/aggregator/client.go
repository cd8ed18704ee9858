// Package aggregator is a client for the financial-data aggregation API (Plaid).
//
// Every call is throttled process-wide, retried with exponential backoff on throttling,
// server and transport errors, and bounded by a per-call timeout. Access tokens are sent
// in request bodies only and never logged.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Environment base URLs.
var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

const (
	clientName  = "Financial Dashboard"
	countryCode = "US"
	language    = "en"
	product     = "transactions"

	maxErrorBody = 64 << 10

	// transactionsPageSize is the page size used against /transactions/get.
	transactionsPageSize = 100
	// maxTransactions caps a single GetTransactions call.
	maxTransactions = 500

	dateLayout = "2006-01-02"
)

// Config configures a Client.
type Config struct {
	ClientID       string
	Secret         string
	Environment    string // sandbox, development or production
	BaseURL        string // Overrides Environment when set
	Timeout        time.Duration
	MaxRetries     int
	RequestsPerSec float64
	HTTPClient     *http.Client
}

// Client calls the aggregation API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	timeout    time.Duration
	maxRetries uint64
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *slog.Logger

	// newBackOff is replaced in tests to avoid real sleeps.
	newBackOff func() backoff.BackOff
}

// NewClient creates a Client. Unknown environments fall back to sandbox.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = environments[strings.ToLower(cfg.Environment)]
		if !ok {
			logger.Warn("unknown aggregator environment, using sandbox", slog.String("environment", cfg.Environment))
			baseURL = environments["sandbox"]
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}

	maxRetries := uint64(0)
	if cfg.MaxRetries > 0 {
		maxRetries = uint64(cfg.MaxRetries)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		timeout:    cfg.Timeout,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: httpClient,
		logger:     logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// CreateLinkToken creates a link token bound to userID.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (*LinkToken, error) {
	req := linkTokenCreateRequest{
		User:         linkTokenUser{ClientUserID: userID},
		ClientName:   clientName,
		Products:     []string{product},
		CountryCodes: []string{countryCode},
		Language:     language,
	}

	var resp LinkToken
	if err := c.call(ctx, "/link/token/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangePublicToken trades the widget's public token for an access token and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	var resp Exchange
	if err := c.call(ctx, "/item/public_token/exchange", publicTokenExchangeRequest{PublicToken: publicToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetItem returns the item behind accessToken.
func (c *Client) GetItem(ctx context.Context, accessToken string) (*Item, error) {
	var resp itemGetResponse
	if err := c.call(ctx, "/item/get", accessTokenRequest{AccessToken: accessToken}, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// GetInstitution looks up an institution by id.
func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	req := institutionGetRequest{InstitutionID: institutionID, CountryCodes: []string{countryCode}}

	var resp institutionGetResponse
	if err := c.call(ctx, "/institutions/get_by_id", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Institution, nil
}

// GetAccounts returns the accounts and cached balances of the item behind accessToken.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var resp accountsGetResponse
	if err := c.call(ctx, "/accounts/get", accessTokenRequest{AccessToken: accessToken}, &resp); err != nil {
		return nil, err
	}
	if resp.Accounts == nil {
		return []Account{}, nil
	}
	return resp.Accounts, nil
}

// GetTransactions returns the transactions dated between start and end inclusive, newest
// first. Pages are fetched until the reported total or maxTransactions is reached.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error) {
	req := transactionsGetRequest{
		AccessToken: accessToken,
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
		Options:     transactionsGetOptions{Count: transactionsPageSize},
	}

	transactions := []Transaction{}
	for {
		var resp transactionsGetResponse
		if err := c.call(ctx, "/transactions/get", req, &resp); err != nil {
			return nil, err
		}
		transactions = append(transactions, resp.Transactions...)

		if len(resp.Transactions) == 0 || len(transactions) >= resp.TotalTransactions {
			break
		}
		if len(transactions) >= maxTransactions {
			transactions = transactions[:maxTransactions]
			break
		}
		req.Options.Offset = len(transactions)
	}
	return transactions, nil
}

// RemoveItem invalidates accessToken at the aggregator.
func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	return c.call(ctx, "/item/remove", accessTokenRequest{AccessToken: accessToken}, nil)
}

// call posts body to path and decodes the response into out, retrying transient failures.
func (c *Client) call(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := c.do(ctx, path, payload, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		c.logger.Warn("aggregator request failed",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.String("error_code", ErrorCode(err)),
		)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, policy)
}

func (c *Client) do(ctx context.Context, path string, payload []byte, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.clientID)
	req.Header.Set("PLAID-SECRET", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || json.Unmarshal(body, apiErr) != nil || apiErr.ErrorCode == "" {
		apiErr.ErrorType = "API_ERROR"
		apiErr.ErrorCode = "UNEXPECTED_RESPONSE"
		apiErr.ErrorMessage = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

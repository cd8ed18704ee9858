package aggregator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/finboard/finboard/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		ClientID:   "client-id",
		Secret:     "secret",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return client
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClient_Environment(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		env  string
		want string
	}{
		{env: "sandbox", want: "https://sandbox.plaid.com"},
		{env: "Development", want: "https://development.plaid.com"},
		{env: "production", want: "https://production.plaid.com"},
		{env: "staging", want: "https://sandbox.plaid.com"},
		{env: "", want: "https://sandbox.plaid.com"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			client := NewClient(Config{Environment: tt.env}, logger)
			assert.Equal(t, tt.want, client.baseURL)
		})
	}
}

func TestClient_CreateLinkToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/link/token/create", r.URL.Path)
		assert.Equal(t, "client-id", r.Header.Get("PLAID-CLIENT-ID"))
		assert.Equal(t, "secret", r.Header.Get("PLAID-SECRET"))

		body := decodeBody(t, r)
		assert.Equal(t, map[string]any{"client_user_id": "user-1"}, body["user"])
		assert.Equal(t, "Financial Dashboard", body["client_name"])
		assert.Equal(t, []any{"transactions"}, body["products"])
		assert.Equal(t, []any{"US"}, body["country_codes"])
		assert.Equal(t, "en", body["language"])

		writeJSON(w, http.StatusOK, `{"link_token":"link-sandbox-123","expiration":"2026-10-19T12:00:00Z","request_id":"req-1"}`)
	}, 0)

	token, err := client.CreateLinkToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-123", token.LinkToken)
	assert.Equal(t, "2026-10-19T12:00:00Z", token.Expiration)
}

func TestClient_ExchangePublicToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/item/public_token/exchange", r.URL.Path)
			assert.Equal(t, "public-sandbox-1", decodeBody(t, r)["public_token"])
			writeJSON(w, http.StatusOK, `{"access_token":"access-sandbox-abc123","item_id":"item-1","request_id":"req"}`)
		}, 0)

		exchange, err := client.ExchangePublicToken(context.Background(), "public-sandbox-1")
		require.NoError(t, err)
		assert.Equal(t, "access-sandbox-abc123", exchange.AccessToken)
		assert.Equal(t, "item-1", exchange.ItemID)
	})

	t.Run("Invalid public token is not retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusBadRequest, `{
				"error_type":"INVALID_INPUT",
				"error_code":"INVALID_PUBLIC_TOKEN",
				"error_message":"provided public token is in an invalid format",
				"request_id":"req"
			}`)
		}, 3)

		_, err := client.ExchangePublicToken(context.Background(), "bad")
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, ErrorCodeInvalidPublicToken, apiErr.ErrorCode)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_Retries(t *testing.T) {
	t.Run("Recovers after throttling", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				writeJSON(w, http.StatusTooManyRequests, `{"error_type":"RATE_LIMIT_EXCEEDED","error_code":"RATE_LIMIT_EXCEEDED","error_message":"slow down"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"item":{"item_id":"item-1","institution_id":"ins_1","error":null}}`)
		}, 3)

		item, err := client.GetItem(context.Background(), "access-sandbox-abc123")
		require.NoError(t, err)
		assert.Equal(t, "item-1", item.ItemID)
		assert.Nil(t, item.Error)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}, 2)

		err := client.RemoveItem(context.Background(), "access-sandbox-abc123")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
		assert.Equal(t, "UNEXPECTED_RESPONSE", ErrorCode(err))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			cancel()
			w.WriteHeader(http.StatusServiceUnavailable)
		}, 5)

		err := client.RemoveItem(ctx, "access-sandbox-abc123")
		assert.Error(t, err)
	})
}

func TestClient_GetInstitution(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/institutions/get_by_id", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "ins_109508", body["institution_id"])
		assert.Equal(t, []any{"US"}, body["country_codes"])
		writeJSON(w, http.StatusOK, `{"institution":{"institution_id":"ins_109508","name":"First Platypus Bank"}}`)
	}, 0)

	institution, err := client.GetInstitution(context.Background(), "ins_109508")
	require.NoError(t, err)
	assert.Equal(t, "First Platypus Bank", institution.Name)
}

func TestClient_GetAccounts(t *testing.T) {
	t.Run("Decodes decimal balances", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/accounts/get", r.URL.Path)
			assert.Equal(t, "access-sandbox-abc123", decodeBody(t, r)["access_token"])
			writeJSON(w, http.StatusOK, `{"accounts":[{
				"account_id":"acc-1",
				"name":"Plaid Checking",
				"official_name":"Plaid Gold Standard 0% Interest Checking",
				"mask":"0000",
				"type":"depository",
				"subtype":"checking",
				"balances":{"available":100.1,"current":110.25,"limit":null,"iso_currency_code":"USD"}
			}]}`)
		}, 0)

		accounts, err := client.GetAccounts(context.Background(), "access-sandbox-abc123")
		require.NoError(t, err)
		require.Len(t, accounts, 1)

		balances := accounts[0].Balances
		assert.True(t, balances.Available.Valid)
		assert.True(t, decimal.RequireFromString("100.1").Equal(balances.Available.Decimal))
		assert.True(t, decimal.RequireFromString("110.25").Equal(balances.Current.Decimal))
		assert.False(t, balances.Limit.Valid)
		require.NotNil(t, balances.ISOCurrencyCode)
		assert.Equal(t, "USD", *balances.ISOCurrencyCode)
	})

	t.Run("Login required", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"error_type":"ITEM_ERROR","error_code":"ITEM_LOGIN_REQUIRED","error_message":"login required"}`)
		}, 2)

		accounts, err := client.GetAccounts(context.Background(), "access-sandbox-abc123")
		assert.Nil(t, accounts)
		assert.Equal(t, ErrorCodeItemLoginRequired, ErrorCode(err))
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("Empty list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"accounts":null}`)
		}, 0)

		accounts, err := client.GetAccounts(context.Background(), "access-sandbox-abc123")
		require.NoError(t, err)
		assert.NotNil(t, accounts)
		assert.Empty(t, accounts)
	})
}

func TestClient_GetTransactions(t *testing.T) {
	start := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	t.Run("Pages until the reported total", func(t *testing.T) {
		var offsets []float64
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transactions/get", r.URL.Path)
			body := decodeBody(t, r)
			assert.Equal(t, "access-sandbox-abc123", body["access_token"])
			assert.Equal(t, "2026-09-19", body["start_date"])
			assert.Equal(t, "2026-10-19", body["end_date"])

			options := body["options"].(map[string]any)
			assert.Equal(t, float64(transactionsPageSize), options["count"])
			offsets = append(offsets, options["offset"].(float64))

			if options["offset"].(float64) == 0 {
				writeJSON(w, http.StatusOK, `{"total_transactions":2,"transactions":[
					{"transaction_id":"tx-1","account_id":"acc-1","name":"Uber","amount":6.33,"date":"2026-10-18","pending":false}
				]}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"total_transactions":2,"transactions":[
				{"transaction_id":"tx-2","account_id":"acc-1","name":"Payroll","merchant_name":null,"amount":-2500,"iso_currency_code":"USD","date":"2026-10-01","pending":true}
			]}`)
		}, 0)

		transactions, err := client.GetTransactions(context.Background(), "access-sandbox-abc123", start, end)
		require.NoError(t, err)
		require.Len(t, transactions, 2)
		assert.Equal(t, []float64{0, 1}, offsets)

		assert.Equal(t, "tx-1", transactions[0].TransactionID)
		assert.True(t, decimal.RequireFromString("6.33").Equal(transactions[0].Amount))
		assert.Nil(t, transactions[0].MerchantName)
		assert.True(t, decimal.NewFromInt(-2500).Equal(transactions[1].Amount))
		assert.True(t, transactions[1].Pending)
		require.NotNil(t, transactions[1].ISOCurrencyCode)
		assert.Equal(t, "USD", *transactions[1].ISOCurrencyCode)
	})

	t.Run("Empty window", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusOK, `{"total_transactions":0,"transactions":[]}`)
		}, 0)

		transactions, err := client.GetTransactions(context.Background(), "access-sandbox-abc123", start, end)
		require.NoError(t, err)
		assert.NotNil(t, transactions)
		assert.Empty(t, transactions)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Product not ready", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"error_type":"ITEM_ERROR","error_code":"PRODUCT_NOT_READY"}`)
		}, 0)

		transactions, err := client.GetTransactions(context.Background(), "access-sandbox-abc123", start, end)
		assert.Nil(t, transactions)
		assert.Equal(t, ErrorCodeProductNotReady, ErrorCode(err))
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})
}

func TestClient_RemoveItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/remove", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"request_id":"req"}`)
	}, 0)

	assert.NoError(t, client.RemoveItem(context.Background(), "access-sandbox-abc123"))
}

func TestErrorCode(t *testing.T) {
	assert.Empty(t, ErrorCode(nil))
	assert.Empty(t, ErrorCode(assert.AnError))
	assert.Equal(t, "X", ErrorCode(&APIError{ErrorCode: "X"}))
}

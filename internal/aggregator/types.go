package aggregator

import (
	"github.com/shopspring/decimal"
)

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateRequest struct {
	User         linkTokenUser `json:"user"`
	ClientName   string        `json:"client_name"`
	Products     []string      `json:"products"`
	CountryCodes []string      `json:"country_codes"`
	Language     string        `json:"language"`
}

// LinkToken is a short-lived token that initializes the client-side link widget.
type LinkToken struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

type publicTokenExchangeRequest struct {
	PublicToken string `json:"public_token"`
}

// Exchange is the result of trading a public token for long-lived credentials. AccessToken
// must be sealed before it is stored.
type Exchange struct {
	AccessToken string `json:"access_token"` //nolint:gosec // plaintext only in transit
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

type accessTokenRequest struct {
	AccessToken string `json:"access_token"`
}

// Item is the aggregator's view of a linked item.
type Item struct {
	ItemID        string    `json:"item_id"`
	InstitutionID string    `json:"institution_id"`
	Error         *APIError `json:"error"`
}

type itemGetResponse struct {
	Item Item `json:"item"`
}

type institutionGetRequest struct {
	InstitutionID string   `json:"institution_id"`
	CountryCodes  []string `json:"country_codes"`
}

// Institution is a financial institution known to the aggregator.
type Institution struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

type institutionGetResponse struct {
	Institution Institution `json:"institution"`
}

// Balances are decimal amounts as reported by the institution.
type Balances struct {
	Available       decimal.NullDecimal `json:"available"`
	Current         decimal.NullDecimal `json:"current"`
	Limit           decimal.NullDecimal `json:"limit"`
	ISOCurrencyCode *string             `json:"iso_currency_code"`
}

// Account is a single account under an item.
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Mask         *string  `json:"mask"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Balances     Balances `json:"balances"`
}

type accountsGetResponse struct {
	Accounts []Account `json:"accounts"`
	Item     Item      `json:"item"`
}

type transactionsGetOptions struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

type transactionsGetRequest struct {
	AccessToken string                 `json:"access_token"`
	StartDate   string                 `json:"start_date"`
	EndDate     string                 `json:"end_date"`
	Options     transactionsGetOptions `json:"options"`
}

// Transaction is a posted or pending transaction. Positive amounts are money leaving the
// account.
type Transaction struct {
	TransactionID   string          `json:"transaction_id"`
	AccountID       string          `json:"account_id"`
	Name            string          `json:"name"`
	MerchantName    *string         `json:"merchant_name"`
	Amount          decimal.Decimal `json:"amount"`
	ISOCurrencyCode *string         `json:"iso_currency_code"`
	Date            string          `json:"date"`
	Pending         bool            `json:"pending"`
}

type transactionsGetResponse struct {
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
}

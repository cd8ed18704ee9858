package dto

import (
	"time"

	"github.com/shopspring/decimal"

	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

// LinkTokenResponse initializes the client-side link widget.
type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
}

// ItemResponse represents a linked item. The stored credential is never included.
type ItemResponse struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"item_id"`
	InstitutionID   string    `json:"institution_id,omitempty"`
	InstitutionName string    `json:"institution_name,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListItemsResponse wraps the user's items.
type ListItemsResponse struct {
	Data []ItemResponse `json:"data"`
}

// BalanceResponse holds decimal amounts encoded as JSON strings.
type BalanceResponse struct {
	Available       *decimal.Decimal `json:"available"`
	Current         decimal.Decimal  `json:"current"`
	Limit           *decimal.Decimal `json:"limit"`
	ISOCurrencyCode string           `json:"iso_currency_code,omitempty"`
}

// AccountResponse represents one account under an item.
type AccountResponse struct {
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	OfficialName string          `json:"official_name,omitempty"`
	Mask         string          `json:"mask,omitempty"`
	Type         string          `json:"type"`
	Subtype      string          `json:"subtype,omitempty"`
	Balances     BalanceResponse `json:"balances"`
}

// ListAccountsResponse wraps the accounts of one item.
type ListAccountsResponse struct {
	ItemID string            `json:"item_id"`
	Data   []AccountResponse `json:"data"`
}

// TransactionResponse represents one transaction. Positive amounts are money leaving the
// account.
type TransactionResponse struct {
	TransactionID   string          `json:"transaction_id"`
	AccountID       string          `json:"account_id"`
	Name            string          `json:"name"`
	MerchantName    string          `json:"merchant_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	ISOCurrencyCode string          `json:"iso_currency_code,omitempty"`
	Date            string          `json:"date"`
	Pending         bool            `json:"pending"`
}

// SummaryResponse is the dashboard view of one item. TransactionError is set when the
// transactions could not be fetched; accounts and total_balance are still valid.
type SummaryResponse struct {
	ItemID           string                `json:"item_id"`
	Accounts         []AccountResponse     `json:"accounts"`
	TotalBalance     decimal.Decimal       `json:"total_balance"`
	Transactions     []TransactionResponse `json:"transactions"`
	TransactionError string                `json:"transaction_error,omitempty"`
}

// MapLinkTokenToResponse converts a domain link token to an API response.
func MapLinkTokenToResponse(token *linkingDomain.LinkToken) LinkTokenResponse {
	return LinkTokenResponse{LinkToken: token.Token, Expiration: token.Expiration}
}

// MapItemToResponse converts a domain item to an API response without its credential.
func MapItemToResponse(item *linkingDomain.Item) ItemResponse {
	return ItemResponse{
		ID:              item.ID.String(),
		ItemID:          item.ItemID,
		InstitutionID:   item.InstitutionID,
		InstitutionName: item.InstitutionName,
		Status:          string(item.Status),
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

// MapItemsToListResponse converts domain items to a list response.
func MapItemsToListResponse(items []*linkingDomain.Item) ListItemsResponse {
	data := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		data = append(data, MapItemToResponse(item))
	}
	return ListItemsResponse{Data: data}
}

// MapAccountsToListResponse converts domain accounts to a list response.
func MapAccountsToListResponse(itemID string, accounts []linkingDomain.Account) ListAccountsResponse {
	return ListAccountsResponse{ItemID: itemID, Data: mapAccounts(accounts)}
}

// MapSummaryToResponse converts a domain summary to an API response.
func MapSummaryToResponse(summary *linkingDomain.Summary) SummaryResponse {
	transactions := make([]TransactionResponse, 0, len(summary.Transactions))
	for _, transaction := range summary.Transactions {
		transactions = append(transactions, TransactionResponse{
			TransactionID:   transaction.TransactionID,
			AccountID:       transaction.AccountID,
			Name:            transaction.Name,
			MerchantName:    transaction.MerchantName,
			Amount:          transaction.Amount,
			ISOCurrencyCode: transaction.ISOCurrencyCode,
			Date:            transaction.Date,
			Pending:         transaction.Pending,
		})
	}

	return SummaryResponse{
		ItemID:           summary.ItemID,
		Accounts:         mapAccounts(summary.Accounts),
		TotalBalance:     summary.TotalBalance,
		Transactions:     transactions,
		TransactionError: summary.TransactionsError,
	}
}

func mapAccounts(accounts []linkingDomain.Account) []AccountResponse {
	data := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		data = append(data, AccountResponse{
			AccountID:    account.AccountID,
			Name:         account.Name,
			OfficialName: account.OfficialName,
			Mask:         account.Mask,
			Type:         account.Type,
			Subtype:      account.Subtype,
			Balances: BalanceResponse{
				Available:       account.Balance.Available,
				Current:         account.Balance.Current,
				Limit:           account.Balance.Limit,
				ISOCurrencyCode: account.Balance.ISOCurrencyCode,
			},
		})
	}
	return data
}

// Package domain defines linked financial institutions ("items") and the accounts they expose.
//
// An Item stores the aggregator access token only in sealed form. The plaintext token exists
// in memory for the duration of a single aggregator call and is never part of an Item.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus is the health of an item's credentials at the aggregator.
type ItemStatus string

const (
	// ItemStatusGood means the credentials work.
	ItemStatusGood ItemStatus = "good"
	// ItemStatusLoginRequired means the user must re-authenticate with the institution.
	ItemStatusLoginRequired ItemStatus = "login_required"
	// ItemStatusError means the stored credentials can no longer be used.
	ItemStatusError ItemStatus = "error"
)

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusGood, ItemStatusLoginRequired, ItemStatusError:
		return true
	}
	return false
}

// Item is a user's link to one financial institution.
type Item struct {
	ID              uuid.UUID // UUIDv7
	UserID          string    // Subject of the authenticated user
	ItemID          string    // Aggregator item identifier, unique
	AccessToken     string    // Sealed record, never plaintext
	InstitutionID   string
	InstitutionName string
	Status          ItemStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether userID owns the item.
func (i *Item) OwnedBy(userID string) bool {
	return i.UserID == userID
}

// LinkInput carries what the client-side widget returns after a successful login.
type LinkInput struct {
	UserID          string
	PublicToken     string
	InstitutionID   string
	InstitutionName string
}

// Balance holds account balances. Available and Limit are not reported by every institution.
type Balance struct {
	Available       *decimal.Decimal
	Current         decimal.Decimal
	Limit           *decimal.Decimal
	ISOCurrencyCode string
}

// Account is a single account held under an item.
type Account struct {
	AccountID    string
	Name         string
	OfficialName string
	Mask         string
	Type         string
	Subtype      string
	Balance      Balance
}

// Account types counted towards TotalBalance.
const (
	AccountTypeDepository = "depository"
	AccountTypeInvestment = "investment"
)

// TotalBalance sums the current balances of depository and investment accounts. Credit and
// loan balances are owed, not held, and are left out.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, account := range accounts {
		switch account.Type {
		case AccountTypeDepository, AccountTypeInvestment:
			total = total.Add(account.Balance.Current)
		}
	}
	return total
}

// Transaction is a single transaction on one of an item's accounts.
type Transaction struct {
	TransactionID   string
	AccountID       string
	Name            string
	MerchantName    string
	Amount          decimal.Decimal // Positive when money leaves the account
	ISOCurrencyCode string
	Date            string // YYYY-MM-DD
	Pending         bool
}

// SummaryInput selects an item and the transaction window, both dates inclusive.
type SummaryInput struct {
	UserID string
	ItemID string
	Start  time.Time
	End    time.Time
}

// Summary is the dashboard view of one item. Transactions are best effort: when they cannot
// be fetched TransactionsError carries the aggregator error code and Transactions is empty.
type Summary struct {
	ItemID            string
	Accounts          []Account
	TotalBalance      decimal.Decimal
	Transactions      []Transaction
	TransactionsError string
}

// VerifyReport summarizes a sweep over every stored credential.
type VerifyReport struct {
	Checked  int
	Unusable []string // Item ids whose credentials failed to open
}

// LinkToken initializes the client-side link widget for one user.
type LinkToken struct {
	Token      string
	Expiration string
}

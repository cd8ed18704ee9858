// Package usecase implements account linking: the only caller of credential sealing.
package usecase

import (
	"context"
	"time"

	"github.com/finboard/finboard/internal/aggregator"
	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

// ItemRepository persists items. Implementations honour the transaction carried by ctx.
type ItemRepository interface {
	Create(ctx context.Context, item *linkingDomain.Item) error

	// GetByItemID returns ErrItemNotFound when no row matches.
	GetByItemID(ctx context.Context, itemID string) (*linkingDomain.Item, error)

	ListByUserID(ctx context.Context, userID string) ([]*linkingDomain.Item, error)
	List(ctx context.Context, offset, limit int) ([]*linkingDomain.Item, error)
	UpdateStatus(ctx context.Context, itemID string, status linkingDomain.ItemStatus, updatedAt time.Time) error
	Delete(ctx context.Context, itemID string) error
}

// Aggregator is the subset of the aggregation API used for linking.
type Aggregator interface {
	CreateLinkToken(ctx context.Context, userID string) (*aggregator.LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*aggregator.Exchange, error)
	GetItem(ctx context.Context, accessToken string) (*aggregator.Item, error)
	GetInstitution(ctx context.Context, institutionID string) (*aggregator.Institution, error)
	GetAccounts(ctx context.Context, accessToken string) ([]aggregator.Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]aggregator.Transaction, error)
	RemoveItem(ctx context.Context, accessToken string) error
}

// Sealer protects access tokens at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(record string) (string, error)
}

// ItemUseCase links institutions to users and serves data through stored credentials.
type ItemUseCase interface {
	// CreateLinkToken returns a token for the client-side link widget.
	CreateLinkToken(ctx context.Context, userID string) (*linkingDomain.LinkToken, error)

	// Link exchanges the public token, seals the access token and stores the item with status
	// good. Missing institution metadata is looked up, falling back to a generic name. Nothing
	// is stored when sealing fails (ErrSecureCredentialsFailed). A second link of the same
	// aggregator item fails with ErrItemAlreadyLinked. When the item cannot be stored for any
	// other reason the fresh access token is revoked at the aggregator.
	Link(ctx context.Context, input *linkingDomain.LinkInput) (*linkingDomain.Item, error)

	// List returns userID's items ordered by institution name.
	List(ctx context.Context, userID string) ([]*linkingDomain.Item, error)

	// Accounts opens the item's credentials and fetches its accounts. Items owned by another
	// user are reported as ErrItemNotFound. A credential that cannot be opened aborts the
	// call with ErrProcessCredentialsFailed.
	Accounts(ctx context.Context, userID, itemID string) ([]linkingDomain.Account, error)

	// Summary returns the item's accounts, the total of its depository and investment
	// balances and the transactions dated within the input window. Accounts fail the call as
	// in Accounts; a transactions failure is reported in Summary.TransactionsError instead.
	Summary(ctx context.Context, input *linkingDomain.SummaryInput) (*linkingDomain.Summary, error)

	// Unlink revokes the item at the aggregator and deletes it.
	Unlink(ctx context.Context, userID, itemID string) error

	// VerifyCredentials opens every stored credential in batches of batchSize and reports the
	// items whose credentials fail. With markUnusable those items get status error.
	VerifyCredentials(ctx context.Context, batchSize int, markUnusable bool) (*linkingDomain.VerifyReport, error)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/finboard/internal/aggregator"
	"github.com/finboard/finboard/internal/database"
	apperrors "github.com/finboard/finboard/internal/errors"
	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

const (
	defaultVerifyBatchSize = 100
	defaultInstitutionName = "Financial Institution"

	// transactionsUnavailable is reported when a transactions failure carries no aggregator code.
	transactionsUnavailable = "TRANSACTIONS_UNAVAILABLE"
)

type itemUseCase struct {
	txManager  database.TxManager
	itemRepo   ItemRepository
	aggregator Aggregator
	sealer     Sealer
	logger     *slog.Logger
	now        func() time.Time
}

// NewItemUseCase creates an ItemUseCase. logger may be nil.
func NewItemUseCase(
	txManager database.TxManager,
	itemRepo ItemRepository,
	agg Aggregator,
	sealer Sealer,
	logger *slog.Logger,
) ItemUseCase {
	return &itemUseCase{
		txManager:  txManager,
		itemRepo:   itemRepo,
		aggregator: agg,
		sealer:     sealer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (i *itemUseCase) CreateLinkToken(ctx context.Context, userID string) (*linkingDomain.LinkToken, error) {
	token, err := i.aggregator.CreateLinkToken(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create link token")
	}
	return &linkingDomain.LinkToken{Token: token.LinkToken, Expiration: token.Expiration}, nil
}

func (i *itemUseCase) Link(ctx context.Context, input *linkingDomain.LinkInput) (*linkingDomain.Item, error) {
	exchange, err := i.aggregator.ExchangePublicToken(ctx, input.PublicToken)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to exchange public token")
	}

	institutionID, institutionName := i.institution(ctx, input, exchange.AccessToken)

	sealed, err := i.sealer.Seal(exchange.AccessToken)
	if err != nil {
		i.revoke(ctx, exchange)
		return nil, fmt.Errorf("%w: %w", linkingDomain.ErrSecureCredentialsFailed, err)
	}

	now := i.now()
	item := &linkingDomain.Item{
		ID:              uuid.Must(uuid.NewV7()),
		UserID:          input.UserID,
		ItemID:          exchange.ItemID,
		AccessToken:     sealed,
		InstitutionID:   institutionID,
		InstitutionName: institutionName,
		Status:          linkingDomain.ItemStatusGood,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := i.itemRepo.Create(ctx, item); err != nil {
		// An already linked item shares its item id with the stored row; removing it would
		// break the existing link.
		if !errors.Is(err, linkingDomain.ErrItemAlreadyLinked) {
			i.revoke(ctx, exchange)
		}
		return nil, err
	}

	return item, nil
}

func (i *itemUseCase) List(ctx context.Context, userID string) ([]*linkingDomain.Item, error) {
	return i.itemRepo.ListByUserID(ctx, userID)
}

func (i *itemUseCase) Accounts(ctx context.Context, userID, itemID string) ([]linkingDomain.Account, error) {
	item, err := i.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	accessToken, err := i.open(item)
	if err != nil {
		return nil, err
	}

	return i.accounts(ctx, itemID, accessToken)
}

func (i *itemUseCase) Summary(ctx context.Context, input *linkingDomain.SummaryInput) (*linkingDomain.Summary, error) {
	item, err := i.ownedItem(ctx, input.UserID, input.ItemID)
	if err != nil {
		return nil, err
	}

	accessToken, err := i.open(item)
	if err != nil {
		return nil, err
	}

	accounts, err := i.accounts(ctx, item.ItemID, accessToken)
	if err != nil {
		return nil, err
	}

	summary := &linkingDomain.Summary{
		ItemID:       item.ItemID,
		Accounts:     accounts,
		TotalBalance: linkingDomain.TotalBalance(accounts),
		Transactions: []linkingDomain.Transaction{},
	}

	transactions, err := i.aggregator.GetTransactions(ctx, accessToken, input.Start, input.End)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		code := aggregator.ErrorCode(err)
		if code == "" {
			code = transactionsUnavailable
		}
		if i.logger != nil {
			i.logger.WarnContext(ctx, "transactions unavailable, returning balances only",
				slog.String("item_id", item.ItemID),
				slog.String("error_code", code),
			)
		}
		summary.TransactionsError = code
		return summary, nil
	}

	for _, transaction := range transactions {
		summary.Transactions = append(summary.Transactions, toDomainTransaction(transaction))
	}
	return summary, nil
}

// Unlink calls the aggregator outside the transaction; only the ownership re-check and the
// delete run inside it.
func (i *itemUseCase) Unlink(ctx context.Context, userID, itemID string) error {
	item, err := i.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	accessToken, err := i.open(item)
	if err != nil {
		return err
	}

	if err := i.aggregator.RemoveItem(ctx, accessToken); err != nil &&
		aggregator.ErrorCode(err) != aggregator.ErrorCodeInvalidAccessToken {
		return apperrors.Wrapf(err, "failed to remove item %s", itemID)
	}

	return i.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := i.ownedItem(ctx, userID, itemID); err != nil {
			return err
		}
		return i.itemRepo.Delete(ctx, itemID)
	})
}

func (i *itemUseCase) VerifyCredentials(
	ctx context.Context,
	batchSize int,
	markUnusable bool,
) (*linkingDomain.VerifyReport, error) {
	if batchSize <= 0 {
		batchSize = defaultVerifyBatchSize
	}

	report := &linkingDomain.VerifyReport{Unusable: []string{}}
	for offset := 0; ; offset += batchSize {
		items, err := i.itemRepo.List(ctx, offset, batchSize)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			report.Checked++
			if _, err := i.sealer.Open(item.AccessToken); err == nil {
				continue
			}
			report.Unusable = append(report.Unusable, item.ItemID)

			if markUnusable && item.Status != linkingDomain.ItemStatusError {
				if err := i.itemRepo.UpdateStatus(ctx, item.ItemID, linkingDomain.ItemStatusError, i.now()); err != nil {
					return nil, err
				}
			}
		}

		if len(items) < batchSize {
			return report, nil
		}
	}
}

// institution fills in metadata the link widget did not report. Lookups are best effort;
// linking never fails because of them.
func (i *itemUseCase) institution(
	ctx context.Context,
	input *linkingDomain.LinkInput,
	accessToken string,
) (id, name string) {
	id, name = input.InstitutionID, input.InstitutionName

	if id == "" {
		if item, err := i.aggregator.GetItem(ctx, accessToken); err == nil {
			id = item.InstitutionID
		}
	}
	if name == "" && id != "" {
		if institution, err := i.aggregator.GetInstitution(ctx, id); err == nil {
			name = institution.Name
		}
	}
	if name == "" {
		name = defaultInstitutionName
	}
	return id, name
}

// accounts fetches the item's accounts. ITEM_LOGIN_REQUIRED moves the item to
// login_required before the error is returned.
func (i *itemUseCase) accounts(ctx context.Context, itemID, accessToken string) ([]linkingDomain.Account, error) {
	accounts, err := i.aggregator.GetAccounts(ctx, accessToken)
	if err != nil {
		wrapped := apperrors.Wrapf(err, "failed to get accounts for item %s", itemID)
		if aggregator.ErrorCode(err) == aggregator.ErrorCodeItemLoginRequired {
			statusErr := i.itemRepo.UpdateStatus(ctx, itemID, linkingDomain.ItemStatusLoginRequired, i.now())
			return nil, errors.Join(wrapped, statusErr)
		}
		return nil, wrapped
	}

	result := make([]linkingDomain.Account, 0, len(accounts))
	for _, account := range accounts {
		result = append(result, toDomainAccount(account))
	}
	return result, nil
}

// revoke invalidates an exchanged access token that could not be stored. It is best effort
// and runs even if ctx was cancelled.
func (i *itemUseCase) revoke(ctx context.Context, exchange *aggregator.Exchange) {
	err := i.aggregator.RemoveItem(context.WithoutCancel(ctx), exchange.AccessToken)
	if i.logger == nil {
		return
	}
	if err != nil {
		i.logger.ErrorContext(ctx, "failed to revoke unstored item",
			slog.String("item_id", exchange.ItemID),
			slog.String("error_code", aggregator.ErrorCode(err)),
		)
		return
	}
	i.logger.InfoContext(ctx, "revoked unstored item", slog.String("item_id", exchange.ItemID))
}

func (i *itemUseCase) ownedItem(ctx context.Context, userID, itemID string) (*linkingDomain.Item, error) {
	item, err := i.itemRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(userID) {
		return nil, linkingDomain.ErrItemNotFound
	}
	return item, nil
}

// open never yields an empty token on failure; callers must abort.
func (i *itemUseCase) open(item *linkingDomain.Item) (string, error) {
	accessToken, err := i.sealer.Open(item.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", linkingDomain.ErrProcessCredentialsFailed, err)
	}
	return accessToken, nil
}

func toDomainAccount(account aggregator.Account) linkingDomain.Account {
	balances := account.Balances
	result := linkingDomain.Account{
		AccountID:    account.AccountID,
		Name:         account.Name,
		OfficialName: deref(account.OfficialName),
		Mask:         deref(account.Mask),
		Type:         account.Type,
		Subtype:      deref(account.Subtype),
		Balance: linkingDomain.Balance{
			Current:         balances.Current.Decimal,
			ISOCurrencyCode: deref(balances.ISOCurrencyCode),
		},
	}
	if balances.Available.Valid {
		available := balances.Available.Decimal
		result.Balance.Available = &available
	}
	if balances.Limit.Valid {
		limit := balances.Limit.Decimal
		result.Balance.Limit = &limit
	}
	return result
}

func toDomainTransaction(transaction aggregator.Transaction) linkingDomain.Transaction {
	return linkingDomain.Transaction{
		TransactionID:   transaction.TransactionID,
		AccountID:       transaction.AccountID,
		Name:            transaction.Name,
		MerchantName:    deref(transaction.MerchantName),
		Amount:          transaction.Amount,
		ISOCurrencyCode: deref(transaction.ISOCurrencyCode),
		Date:            transaction.Date,
		Pending:         transaction.Pending,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/finboard/finboard/internal/database"
	apperrors "github.com/finboard/finboard/internal/errors"
	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

const mysqlDuplicateEntry = 1062

// MySQLItemRepository implements item persistence for MySQL.
type MySQLItemRepository struct {
	db *sql.DB
}

// NewMySQLItemRepository creates a new MySQL item repository.
func NewMySQLItemRepository(db *sql.DB) *MySQLItemRepository {
	return &MySQLItemRepository{db: db}
}

// Create inserts item. A duplicate item_id yields ErrItemAlreadyLinked.
func (m *MySQLItemRepository) Create(ctx context.Context, item *linkingDomain.Item) error {
	querier := database.GetTx(ctx, m.db)

	id, err := item.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal item id")
	}

	query := `INSERT INTO plaid_items
			  (id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		item.UserID,
		item.ItemID,
		item.AccessToken,
		item.InstitutionID,
		item.InstitutionName,
		string(item.Status),
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return linkingDomain.ErrItemAlreadyLinked
		}
		return apperrors.Wrap(err, "failed to create item")
	}
	return nil
}

// GetByItemID returns the item with the aggregator id itemID.
func (m *MySQLItemRepository) GetByItemID(ctx context.Context, itemID string) (*linkingDomain.Item, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at
			  FROM plaid_items WHERE item_id = ?`

	item, err := scanItem(querier.QueryRowContext(ctx, query, itemID), scanBinaryUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, linkingDomain.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get item")
	}
	return item, nil
}

// ListByUserID returns userID's items ordered by institution name.
func (m *MySQLItemRepository) ListByUserID(ctx context.Context, userID string) ([]*linkingDomain.Item, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at
			  FROM plaid_items WHERE user_id = ?
			  ORDER BY institution_name ASC, item_id ASC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list items")
	}
	return collectItems(rows, scanBinaryUUID)
}

// List returns a page of all items ordered by creation time.
func (m *MySQLItemRepository) List(ctx context.Context, offset, limit int) ([]*linkingDomain.Item, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at
			  FROM plaid_items
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list items")
	}
	return collectItems(rows, scanBinaryUUID)
}

// UpdateStatus sets the status of itemID.
func (m *MySQLItemRepository) UpdateStatus(
	ctx context.Context,
	itemID string,
	status linkingDomain.ItemStatus,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE plaid_items SET status = ?, updated_at = ? WHERE item_id = ?`

	result, err := querier.ExecContext(ctx, query, string(status), updatedAt, itemID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update item status")
	}
	return requireAffected(result, "failed to update item status")
}

// Delete removes itemID.
func (m *MySQLItemRepository) Delete(ctx context.Context, itemID string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM plaid_items WHERE item_id = ?`, itemID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete item")
	}
	return requireAffected(result, "failed to delete item")
}

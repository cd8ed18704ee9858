// Package repository persists linked items in PostgreSQL and MySQL.
//
// Both implementations are transaction-aware through database.GetTx. PostgreSQL stores the
// row id as a native UUID, MySQL as BINARY(16).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/finboard/finboard/internal/database"
	apperrors "github.com/finboard/finboard/internal/errors"
	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

const postgresUniqueViolation = "23505"

// PostgreSQLItemRepository implements item persistence for PostgreSQL.
type PostgreSQLItemRepository struct {
	db *sql.DB
}

// NewPostgreSQLItemRepository creates a new PostgreSQL item repository.
func NewPostgreSQLItemRepository(db *sql.DB) *PostgreSQLItemRepository {
	return &PostgreSQLItemRepository{db: db}
}

// Create inserts item. A duplicate item_id yields ErrItemAlreadyLinked.
func (p *PostgreSQLItemRepository) Create(ctx context.Context, item *linkingDomain.Item) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO plaid_items
			  (id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		item.ID,
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
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == postgresUniqueViolation {
			return linkingDomain.ErrItemAlreadyLinked
		}
		return apperrors.Wrap(err, "failed to create item")
	}
	return nil
}

// GetByItemID returns the item with the aggregator id itemID.
func (p *PostgreSQLItemRepository) GetByItemID(ctx context.Context, itemID string) (*linkingDomain.Item, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at
			  FROM plaid_items WHERE item_id = $1`

	item, err := scanItem(querier.QueryRowContext(ctx, query, itemID), scanUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, linkingDomain.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get item")
	}
	return item, nil
}

// ListByUserID returns userID's items ordered by institution name.
func (p *PostgreSQLItemRepository) ListByUserID(ctx context.Context, userID string) ([]*linkingDomain.Item, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at
			  FROM plaid_items WHERE user_id = $1
			  ORDER BY institution_name ASC, item_id ASC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list items")
	}
	return collectItems(rows, scanUUID)
}

// List returns a page of all items ordered by creation time.
func (p *PostgreSQLItemRepository) List(ctx context.Context, offset, limit int) ([]*linkingDomain.Item, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, item_id, access_token, institution_id, institution_name, status, created_at, updated_at
			  FROM plaid_items
			  ORDER BY created_at ASC, id ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list items")
	}
	return collectItems(rows, scanUUID)
}

// UpdateStatus sets the status of itemID.
func (p *PostgreSQLItemRepository) UpdateStatus(
	ctx context.Context,
	itemID string,
	status linkingDomain.ItemStatus,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE plaid_items SET status = $1, updated_at = $2 WHERE item_id = $3`

	result, err := querier.ExecContext(ctx, query, string(status), updatedAt, itemID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update item status")
	}
	return requireAffected(result, "failed to update item status")
}

// Delete removes itemID.
func (p *PostgreSQLItemRepository) Delete(ctx context.Context, itemID string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM plaid_items WHERE item_id = $1`, itemID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete item")
	}
	return requireAffected(result, "failed to delete item")
}

package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/database"
	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

var itemColumns = []string{
	"id", "user_id", "item_id", "access_token", "institution_id",
	"institution_name", "status", "created_at", "updated_at",
}

func newTestItem(userID, itemID, institutionName string) *linkingDomain.Item {
	now := time.Now().UTC().Truncate(time.Second)
	return &linkingDomain.Item{
		ID:              uuid.Must(uuid.NewV7()),
		UserID:          userID,
		ItemID:          itemID,
		AccessToken:     "00112233445566778899aabbccddeeff:00112233445566778899aabbccddeeff:abcdef",
		InstitutionID:   "ins_" + itemID,
		InstitutionName: institutionName,
		Status:          linkingDomain.ItemStatusGood,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func itemRow(item *linkingDomain.Item, id driver.Value) []driver.Value {
	return []driver.Value{
		id, item.UserID, item.ItemID, item.AccessToken, item.InstitutionID,
		item.InstitutionName, string(item.Status), item.CreatedAt, item.UpdatedAt,
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestPostgreSQLItemRepository_Create(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta("INSERT INTO plaid_items")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		item := newTestItem("user-1", "item-1", "First Platypus Bank")

		mock.ExpectExec(insert).
			WithArgs(
				sqlmock.AnyArg(),
				item.UserID,
				item.ItemID,
				item.AccessToken,
				item.InstitutionID,
				item.InstitutionName,
				"good",
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLItemRepository(db).Create(ctx, item))
	})

	t.Run("Duplicate item", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(insert).WillReturnError(&pq.Error{Code: "23505"})

		err := NewPostgreSQLItemRepository(db).Create(ctx, newTestItem("user-1", "item-1", "Bank"))
		assert.ErrorIs(t, err, linkingDomain.ErrItemAlreadyLinked)
	})

	t.Run("Driver error", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(insert).WillReturnError(errors.New("connection reset"))

		err := NewPostgreSQLItemRepository(db).Create(ctx, newTestItem("user-1", "item-1", "Bank"))
		assert.ErrorContains(t, err, "failed to create item")
		assert.NotErrorIs(t, err, linkingDomain.ErrItemAlreadyLinked)
	})

	t.Run("Uses transaction from context", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewPostgreSQLItemRepository(db)
		err := database.NewTxManager(db).WithTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, newTestItem("user-1", "item-1", "Bank"))
		})
		assert.NoError(t, err)
	})
}

func TestPostgreSQLItemRepository_GetByItemID(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("FROM plaid_items WHERE item_id = $1")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		item := newTestItem("user-1", "item-1", "Bank")

		mock.ExpectQuery(query).
			WithArgs("item-1").
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(itemRow(item, item.ID.String())...))

		got, err := NewPostgreSQLItemRepository(db).GetByItemID(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		got, err := NewPostgreSQLItemRepository(db).GetByItemID(ctx, "missing")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, linkingDomain.ErrItemNotFound)
	})
}

func TestPostgreSQLItemRepository_ListByUserID(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("WHERE user_id = $1") + ".*" + regexp.QuoteMeta("ORDER BY institution_name ASC")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		first := newTestItem("user-1", "item-a", "Alpha Credit Union")
		second := newTestItem("user-1", "item-b", "Beta Bank")

		mock.ExpectQuery(query).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow(itemRow(first, first.ID.String())...).
				AddRow(itemRow(second, second.ID.String())...))

		items, err := NewPostgreSQLItemRepository(db).ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, []*linkingDomain.Item{first, second}, items)
	})

	t.Run("Empty", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).WithArgs("user-2").WillReturnRows(sqlmock.NewRows(itemColumns))

		items, err := NewPostgreSQLItemRepository(db).ListByUserID(ctx, "user-2")
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("Row error", func(t *testing.T) {
		db, mock := newSQLMock(t)
		item := newTestItem("user-1", "item-a", "Alpha")
		mock.ExpectQuery(query).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow(itemRow(item, item.ID.String())...).
				RowError(0, errors.New("broken row")))

		_, err := NewPostgreSQLItemRepository(db).ListByUserID(ctx, "user-1")
		assert.Error(t, err)
	})
}

func TestPostgreSQLItemRepository_List(t *testing.T) {
	db, mock := newSQLMock(t)
	item := newTestItem("user-1", "item-a", "Alpha")

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(25, 50).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(itemRow(item, item.ID.String())...))

	items, err := NewPostgreSQLItemRepository(db).List(context.Background(), 50, 25)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPostgreSQLItemRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("UPDATE plaid_items SET status = $1, updated_at = $2 WHERE item_id = $3")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).
			WithArgs("error", sqlmock.AnyArg(), "item-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewPostgreSQLItemRepository(db).UpdateStatus(ctx, "item-1", linkingDomain.ItemStatusError, time.Now())
		assert.NoError(t, err)
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgreSQLItemRepository(db).UpdateStatus(ctx, "missing", linkingDomain.ItemStatusError, time.Now())
		assert.ErrorIs(t, err, linkingDomain.ErrItemNotFound)
	})
}

func TestPostgreSQLItemRepository_Delete(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("DELETE FROM plaid_items WHERE item_id = $1")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WithArgs("item-1").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLItemRepository(db).Delete(ctx, "item-1"))
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgreSQLItemRepository(db).Delete(ctx, "missing")
		assert.ErrorIs(t, err, linkingDomain.ErrItemNotFound)
	})
}

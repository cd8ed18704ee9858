package repository

import (
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/finboard/finboard/internal/errors"
	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// idScanner returns a scan destination for the id column and a function converting it once
// the row has been scanned.
type idScanner func() (dest any, finish func(*linkingDomain.Item) error)

func scanUUID() (any, func(*linkingDomain.Item) error) {
	var id uuid.UUID
	return &id, func(item *linkingDomain.Item) error {
		item.ID = id
		return nil
	}
}

func scanBinaryUUID() (any, func(*linkingDomain.Item) error) {
	var idBytes []byte
	return &idBytes, func(item *linkingDomain.Item) error {
		if err := item.ID.UnmarshalBinary(idBytes); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal item id")
		}
		return nil
	}
}

func scanItem(row rowScanner, scanID idScanner) (*linkingDomain.Item, error) {
	var item linkingDomain.Item
	var status string

	idDest, finish := scanID()
	if err := row.Scan(
		idDest,
		&item.UserID,
		&item.ItemID,
		&item.AccessToken,
		&item.InstitutionID,
		&item.InstitutionName,
		&status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := finish(&item); err != nil {
		return nil, err
	}
	item.Status = linkingDomain.ItemStatus(status)

	return &item, nil
}

func collectItems(rows *sql.Rows, scanID idScanner) ([]*linkingDomain.Item, error) {
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*linkingDomain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows, scanID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate items")
	}

	return items, nil
}

func requireAffected(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if affected == 0 {
		return linkingDomain.ErrItemNotFound
	}
	return nil
}

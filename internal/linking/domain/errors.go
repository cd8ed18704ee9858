package domain

import (
	"github.com/finboard/finboard/internal/errors"
)

// Linking errors.
var (
	// ErrItemNotFound indicates the item does not exist or belongs to another user.
	ErrItemNotFound = errors.Wrap(errors.ErrNotFound, "item not found")

	// ErrItemAlreadyLinked indicates the aggregator item id is already stored.
	ErrItemAlreadyLinked = errors.Wrap(errors.ErrConflict, "item already linked")

	// ErrSecureCredentialsFailed indicates the access token could not be sealed. Nothing is
	// persisted when this is returned.
	ErrSecureCredentialsFailed = errors.Wrap(errors.ErrCredentials, "failed to secure credentials")

	// ErrProcessCredentialsFailed indicates a stored access token could not be opened.
	ErrProcessCredentialsFailed = errors.Wrap(errors.ErrCredentials, "failed to process credentials")

	// ErrInvalidStatus indicates an unknown ItemStatus.
	ErrInvalidStatus = errors.Wrap(errors.ErrInvalidInput, "invalid item status")
)

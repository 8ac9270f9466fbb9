package store

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist.
	ErrNotFound = errors.New("tripdb: item not found")

	// ErrAlreadyExists is returned when a create hits an existing key.
	ErrAlreadyExists = errors.New("tripdb: item already exists")

	// ErrUnprocessed is returned when a batch call leaves items or keys unprocessed.
	ErrUnprocessed = errors.New("tripdb: batch left unprocessed items")

	// ErrTooManyItems is returned when a transaction exceeds MaxTransactionSize.
	ErrTooManyItems = errors.New("tripdb: too many items for one transaction")

	// ErrMissingKey is returned when a marshaled entity has no PK or SK.
	ErrMissingKey = errors.New("tripdb: entity has no primary key")

	// ErrUnknownRelationship is returned when no relationship links a child kind to a parent kind.
	ErrUnknownRelationship = errors.New("tripdb: unknown relationship")
)

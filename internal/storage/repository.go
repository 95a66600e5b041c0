package storage

import (
	"context"
	"errors"

	"savesense/internal/domain"
)

var (
	// ErrNotFound is returned when no matching record exists.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by Insert when (UserID, Value) is already stored.
	ErrAlreadyExists = errors.New("entry already exists")
)

// Repository defines the interface for data storage operations.
// This allows us to swap storage implementations (e.g., BadgerDB, PostgreSQL)
// without changing the core application logic that uses it.
type Repository interface {
	// FindOne returns the entry a user saved for value, or ErrNotFound.
	FindOne(ctx context.Context, userID, value string) (domain.SharedEntry, error)

	// Insert stores a new entry and returns it with ID and CreatedAt assigned.
	// The (UserID, Value) pair is enforced unique; a conflict yields ErrAlreadyExists.
	Insert(ctx context.Context, entry domain.SharedEntry) (domain.SharedEntry, error)

	// ListByUser retrieves all entries saved by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.SharedEntry, error)

	// Delete removes a user's entry for value. Deleting a missing entry is not an error.
	Delete(ctx context.Context, userID, value string) error

	// Close gracefully shuts down the repository connection.
	Close() error
}

// SessionStore keeps the login state of chat users.
type SessionStore interface {
	GetSession(ctx context.Context, chatUserID int64) (domain.User, error)
	SaveSession(ctx context.Context, chatUserID int64, user domain.User) error
	DeleteSession(ctx context.Context, chatUserID int64) error
}

// Package store defines the contract notely needs from the remote notes table.
//
// Every method is scoped to an owning user id: a row that belongs to another
// user is indistinguishable from a missing one. Zero-row lookups, updates and
// deletes return an error wrapping apperr.ErrNotFound.
package store

import (
	"context"
	"time"

	"github.com/starford/notely/internal/models"
)

// NoteStore is the notes table as seen by the data-access layer.
type NoteStore interface {
	// ListByOwner returns every note owned by userID, most recently updated first.
	ListByOwner(ctx context.Context, userID string) ([]models.Note, error)
	// Get returns exactly one note.
	Get(ctx context.Context, userID, id string) (*models.Note, error)
	// Insert persists n and returns the stored row with server-assigned id and timestamps.
	Insert(ctx context.Context, n models.Note) (*models.Note, error)
	// Update applies patch and sets updated_at, returning the stored row.
	Update(ctx context.Context, userID, id string, patch models.NotePatch, updatedAt time.Time) (*models.Note, error)
	// Delete removes one note.
	Delete(ctx context.Context, userID, id string) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	Close() error
}

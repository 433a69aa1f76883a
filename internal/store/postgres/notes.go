package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
)

const (
	noteColumns = `id, created_at, updated_at, title, content, summary, user_id`

	listNotesQuery  = `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 ORDER BY updated_at DESC`
	getNoteQuery    = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`
	insertNoteQuery = `INSERT INTO notes (title, content, summary, user_id) VALUES ($1, $2, $3, $4) RETURNING ` + noteColumns
	updateNoteQuery = `UPDATE notes SET
	title = COALESCE($1, title),
	content = COALESCE($2, content),
	summary = CASE WHEN $3 THEN NULL ELSE COALESCE($4, summary) END,
	updated_at = $5
WHERE id = $6 AND user_id = $7
RETURNING ` + noteColumns
	deleteNoteQuery = `DELETE FROM notes WHERE id = $1 AND user_id = $2`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*models.Note, error) {
	var (
		n       models.Note
		summary sql.NullString
	)
	if err := r.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt, &n.Title, &n.Content, &summary, &n.UserID); err != nil {
		return nil, err
	}
	if summary.Valid {
		s := summary.String
		n.Summary = &s
	}
	return &n, nil
}

// ListByOwner returns the user's notes ordered by updated_at descending.
func (db *DB) ListByOwner(ctx context.Context, userID string) ([]models.Note, error) {
	if !validIDs(userID) {
		return []models.Note{}, nil
	}
	rows, err := db.conn.QueryContext(ctx, listNotesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan note: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Get returns one note owned by userID.
func (db *DB) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	if !validIDs(userID, id) {
		return nil, notFound(id)
	}
	n, err := scanNote(db.conn.QueryRowContext(ctx, getNoteQuery, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get note: %w", err)
	}
	return n, nil
}

// Insert stores a new note; id and timestamps come from column defaults.
func (db *DB) Insert(ctx context.Context, n models.Note) (*models.Note, error) {
	out, err := scanNote(db.conn.QueryRowContext(ctx, insertNoteQuery,
		n.Title, n.Content, nullString(n.Summary), n.UserID))
	if err != nil {
		return nil, fmt.Errorf("postgres: insert note: %w", err)
	}
	return out, nil
}

// Update applies patch to one note and returns the stored row.
func (db *DB) Update(ctx context.Context, userID, id string, patch models.NotePatch, updatedAt time.Time) (*models.Note, error) {
	if !validIDs(userID, id) {
		return nil, notFound(id)
	}
	n, err := scanNote(db.conn.QueryRowContext(ctx, updateNoteQuery,
		nullString(patch.Title), nullString(patch.Content), patch.ClearSummary, nullString(patch.Summary),
		updatedAt.UTC(), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: update note: %w", err)
	}
	return n, nil
}

// Delete removes one note. Deleting a missing note is an error.
func (db *DB) Delete(ctx context.Context, userID, id string) error {
	if !validIDs(userID, id) {
		return notFound(id)
	}
	res, err := db.conn.ExecContext(ctx, deleteNoteQuery, id, userID)
	if err != nil {
		return fmt.Errorf("postgres: delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete note: %w", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func notFound(id string) error {
	return fmt.Errorf("postgres: note %s: %w", id, apperr.ErrNotFound)
}

// validIDs reports whether every id can be compared with a UUID column.
// Anything else cannot match a row.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

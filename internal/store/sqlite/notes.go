package sqlite

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

const noteColumns = `id, created_at, updated_at, title, content, summary, user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*models.Note, error) {
	var (
		n                models.Note
		created, updated string
		summary          sql.NullString
	)
	if err := r.Scan(&n.ID, &created, &updated, &n.Title, &n.Content, &summary, &n.UserID); err != nil {
		return nil, err
	}
	var err error
	if n.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updated); err != nil {
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
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan note: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Get returns one note owned by userID.
func (db *DB) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get note: %w", err)
	}
	return n, nil
}

// Insert stores a new note with a fresh UUID and identical created/updated timestamps.
func (db *DB) Insert(ctx context.Context, n models.Note) (*models.Note, error) {
	n.ID = uuid.NewString()
	now := db.now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, formatTime(n.CreatedAt), formatTime(n.UpdatedAt), n.Title, n.Content, nullString(n.Summary), n.UserID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert note: %w", err)
	}
	return &n, nil
}

// Update applies patch to one note and returns the stored row.
func (db *DB) Update(ctx context.Context, userID, id string, patch models.NotePatch, updatedAt time.Time) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `
		UPDATE notes SET
			title      = COALESCE(?, title),
			content    = COALESCE(?, content),
			summary    = CASE WHEN ? THEN NULL ELSE COALESCE(?, summary) END,
			updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+noteColumns,
		nullString(patch.Title), nullString(patch.Content), patch.ClearSummary, nullString(patch.Summary),
		formatTime(updatedAt), id, userID)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: update note: %w", err)
	}
	return n, nil
}

// Delete removes one note. Deleting a missing note is an error.
func (db *DB) Delete(ctx context.Context, userID, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete note: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

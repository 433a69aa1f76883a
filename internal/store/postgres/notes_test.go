package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
)

const (
	userID    = "0b7d2f9e-3c41-4a8e-9d55-6f2e1a7c4b10"
	noteID1   = "5a1e8c3d-7f20-4b96-8e4a-2c9d0f6b1e37"
	noteID2   = "c4f9a2b7-1d63-4e08-a5f1-9b3e7d2c6a48"
	missingID = "e8d3b6a1-4c72-49f5-b0e9-3a6f1c8d2b59"
)

var columns = []string{"id", "created_at", "updated_at", "title", "content", "summary", "user_id"}

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return New(conn), mock
}

func TestListByOwner(t *testing.T) {
	db, mock := newMock(t)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(listNotesQuery).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(noteID2, ts, ts.Add(time.Hour), "Second", "b", "short", userID).
			AddRow(noteID1, ts, ts, "First", "a", nil, userID))

	notes, err := db.ListByOwner(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, noteID2, notes[0].ID)
	require.NotNil(t, notes[0].Summary)
	assert.Equal(t, "short", *notes[0].Summary)
	assert.Nil(t, notes[1].Summary)
}

func TestListByOwnerEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(listNotesQuery).WithArgs(userID).WillReturnRows(sqlmock.NewRows(columns))

	notes, err := db.ListByOwner(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(getNoteQuery).WithArgs(missingID, userID).WillReturnError(sql.ErrNoRows)

	_, err := db.Get(context.Background(), userID, missingID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "err = %v", err)
}

func TestGetBackendError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(getNoteQuery).WithArgs(noteID1, userID).WillReturnError(errors.New("connection reset"))

	_, err := db.Get(context.Background(), userID, noteID1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestInsertReturnsServerAssignedFields(t *testing.T) {
	db, mock := newMock(t)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertNoteQuery).
		WithArgs("Title", "Body", nil, userID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("generated-id", ts, ts, "Title", "Body", nil, userID))

	n, err := db.Insert(context.Background(), models.Note{Title: "Title", Content: "Body", UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, "generated-id", n.ID)
	assert.True(t, n.CreatedAt.Equal(ts))
	assert.Nil(t, n.Summary)
}

func TestUpdate(t *testing.T) {
	db, mock := newMock(t)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := ts.Add(time.Hour)
	summary := "A summary."

	mock.ExpectQuery(updateNoteQuery).
		WithArgs(nil, nil, false, summary, sqlmock.AnyArg(), noteID1, userID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(noteID1, ts, at, "T", "C", summary, userID))

	n, err := db.Update(context.Background(), userID, noteID1, models.NotePatch{Summary: &summary}, at)
	require.NoError(t, err)
	assert.True(t, n.UpdatedAt.Equal(at))
	require.NotNil(t, n.Summary)
	assert.Equal(t, summary, *n.Summary)
}

func TestUpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	title := "x"
	mock.ExpectQuery(updateNoteQuery).
		WithArgs(title, nil, false, nil, sqlmock.AnyArg(), noteID1, userID).
		WillReturnError(sql.ErrNoRows)

	_, err := db.Update(context.Background(), userID, noteID1, models.NotePatch{Title: &title}, time.Now())
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "err = %v", err)
}

func TestDelete(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(deleteNoteQuery).WithArgs(noteID1, userID).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.Delete(context.Background(), userID, noteID1))
}

func TestDeleteMissingIsError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(deleteNoteQuery).WithArgs(noteID1, userID).WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.Delete(context.Background(), userID, noteID1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "err = %v", err)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	db, _ := newMock(t)
	ctx := context.Background()
	title := "x"

	_, err := db.Get(ctx, userID, "not-a-uuid")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "get: err = %v", err)

	_, err = db.Get(ctx, "", noteID1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "anonymous get: err = %v", err)

	_, err = db.Update(ctx, userID, "not-a-uuid", models.NotePatch{Title: &title}, time.Now())
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "update: err = %v", err)

	err = db.Delete(ctx, "", noteID1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "delete: err = %v", err)

	items, err := db.ListByOwner(ctx, "local")
	require.NoError(t, err)
	assert.Empty(t, items)
}

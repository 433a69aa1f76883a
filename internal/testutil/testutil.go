// Package testutil provides shared test helpers for setting up stores and callers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/store/sqlite"
)

// TestStore creates a temporary SQLite note store that is automatically cleaned up.
func TestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notely-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := sqlite.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// AsUser returns a background context carrying userID as the caller.
func AsUser(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

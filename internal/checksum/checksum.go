// Package checksum derives content digests for notes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/starford/notely/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// NoteETag returns a strong HTTP entity tag for the stored state of n.
// Any change to title, content, summary or updated_at yields a new tag.
func NoteETag(n models.Note) string {
	summary := "\x00"
	if n.Summary != nil {
		summary = "\x01" + *n.Summary
	}
	parts := n.ID + "\x1f" + n.UpdatedAt.UTC().Format(time.RFC3339Nano) + "\x1f" +
		n.Title + "\x1f" + n.Content + "\x1f" + summary
	return `"` + Sum([]byte(parts))[:32] + `"`
}

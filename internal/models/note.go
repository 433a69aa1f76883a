// Package models defines the domain types for notely.
package models

import "time"

// Note is a user-owned text record with an optional AI-generated summary.
type Note struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary"`
	UserID    string    `json:"user_id"`
}

// NoteInput carries the caller-supplied fields of a new note.
type NoteInput struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Summary *string `json:"summary,omitempty"`
}

// NotePatch is a partial update. Nil fields are left unchanged.
type NotePatch struct {
	Title        *string `json:"title,omitempty"`
	Content      *string `json:"content,omitempty"`
	Summary      *string `json:"summary,omitempty"`
	ClearSummary bool    `json:"clear_summary,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Summary == nil && !p.ClearSummary
}

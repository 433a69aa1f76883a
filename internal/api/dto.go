package api

import (
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notely/internal/models"
)

const maxTitleLength = 500

// notBlank rejects strings that are empty after trimming. Nil pointers pass.
var notBlank = validation.By(func(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string  `json:"title" example:"Groceries" validate:"required"`
	Content string  `json:"content" example:"milk, eggs, bread" validate:"required"`
	Summary *string `json:"summary,omitempty" example:"A shopping list."`
}

// Validate validates the create request.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, notBlank, validation.RuneLength(0, maxTitleLength)),
		validation.Field(&r.Content, notBlank),
	)
}

func (r CreateNoteRequest) input() models.NoteInput {
	return models.NoteInput{Title: r.Title, Content: r.Content, Summary: r.Summary}
}

// nullableString records whether a JSON field was present and whether it was null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// UpdateNoteRequest is the request body for a partial note update.
// A null or empty summary clears the stored summary.
type UpdateNoteRequest struct {
	Title   *string        `json:"title,omitempty" example:"Groceries (weekend)"`
	Content *string        `json:"content,omitempty" example:"milk, eggs, bread, coffee"`
	Summary nullableString `json:"summary" swaggertype:"string"`
}

// Validate validates the update request.
func (r UpdateNoteRequest) Validate() error {
	if r.Title == nil && r.Content == nil && !r.Summary.Set {
		return errors.New("at least one of title, content or summary is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, notBlank, validation.RuneLength(0, maxTitleLength)),
		validation.Field(&r.Content, notBlank),
	)
}

func (r UpdateNoteRequest) patch() models.NotePatch {
	p := models.NotePatch{Title: r.Title, Content: r.Content}
	if r.Summary.Set {
		if r.Summary.Value == nil || *r.Summary.Value == "" {
			p.ClearSummary = true
		} else {
			p.Summary = r.Summary.Value
		}
	}
	return p
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SummarizeNoteResponse is returned by POST /api/notes/{id}/summarize.
type SummarizeNoteResponse struct {
	Note       *models.Note `json:"note" validate:"required"`
	Summarized bool         `json:"summarized" example:"true"`
}

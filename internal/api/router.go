// Package api implements the notely REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/notes"
)

// NewRouter creates a chi router with all API routes mounted.
// summarizeHandler, if non-nil, is mounted at POST /summarize.
// sseHandler, if non-nil, is mounted at GET /events.
// Both sit behind the same auth middleware as the note routes.
func NewRouter(svc *notes.Service, authOpts auth.Options, summarizeHandler, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(auth.Middleware(authOpts))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/summarize", h.SummarizeNote)

	if summarizeHandler != nil {
		r.Method(http.MethodPost, "/summarize", summarizeHandler)
	}
	if sseHandler != nil {
		r.Method(http.MethodGet, "/events", sseHandler)
	}

	return r
}

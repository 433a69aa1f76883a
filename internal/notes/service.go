// Package notes is the data-access layer for a caller's notes: CRUD over the
// remote notes table, summarization with graceful degradation and explicit
// invalidation events after mutations.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/metrics"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/store"
)

// Summarizer produces a summary of text.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Service coordinates store access, summarization and invalidation for the caller in ctx.
type Service struct {
	store        store.NoteStore
	summarizer   Summarizer
	invalidators []Invalidator
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInvalidator registers a consumer of invalidation events.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidators = append(s.invalidators, inv) }
}

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new note service. summarizer may be nil, in which case
// every summarization yields no summary.
func NewService(st store.NoteStore, summarizer Summarizer, opts ...Option) *Service {
	s := &Service{
		store:      st,
		summarizer: summarizer,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the caller's notes, most recently updated first.
// An anonymous caller gets an empty list, not an error.
func (s *Service) List(ctx context.Context) ([]models.Note, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return []models.Note{}, nil
	}
	out, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, s.queryError("list", err)
	}
	return out, nil
}

// Get returns one of the caller's notes.
func (s *Service) Get(ctx context.Context, id string) (*models.Note, error) {
	userID, _ := auth.UserIDFromContext(ctx)
	n, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, s.queryError("get", err)
	}
	return n, nil
}

// Create stores a new note owned by the caller.
func (s *Service) Create(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, apperr.ErrAuthRequired
	}
	n, err := s.store.Insert(ctx, models.Note{
		Title:   in.Title,
		Content: in.Content,
		Summary: nonEmpty(in.Summary),
		UserID:  userID,
	})
	if err != nil {
		return nil, s.mutationError("create", "", err)
	}
	s.notify(Invalidation{Kind: KindCreated, NoteID: n.ID, UserID: userID, Scope: ScopeList})
	return n, nil
}

// Update applies a partial update. updated_at is always set to the current time.
func (s *Service) Update(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	userID, _ := auth.UserIDFromContext(ctx)
	n, err := s.store.Update(ctx, userID, id, patch, s.now())
	if err != nil {
		return nil, s.mutationError("update", id, err)
	}
	s.notify(Invalidation{Kind: KindUpdated, NoteID: id, UserID: userID, Scope: ScopeList | ScopeNote})
	return n, nil
}

// Delete removes one of the caller's notes. Deleting a missing note fails.
func (s *Service) Delete(ctx context.Context, id string) error {
	userID, _ := auth.UserIDFromContext(ctx)
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return s.mutationError("delete", id, err)
	}
	s.notify(Invalidation{Kind: KindDeleted, NoteID: id, UserID: userID, Scope: ScopeList | ScopeNote})
	return nil
}

// Summarize asks the summarizer for a summary of content. Any failure is
// logged and reported as ok=false so callers can carry on without one. A
// blank summary counts as no summary.
func (s *Service) Summarize(ctx context.Context, content string) (string, bool) {
	if s.summarizer == nil {
		return "", false
	}
	summary, err := s.summarizer.Summarize(ctx, content)
	if err != nil {
		s.logger.Warn("no summary produced", slog.String("error", err.Error()))
		return "", false
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", false
	}
	return summary, true
}

// SummarizeNote generates a summary for a stored note and saves it. When no
// summary is produced the note is returned unchanged with summarized=false.
func (s *Service) SummarizeNote(ctx context.Context, id string) (n *models.Note, summarized bool, err error) {
	n, err = s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	summary, ok := s.Summarize(ctx, n.Content)
	if !ok {
		return n, false, nil
	}
	n, err = s.Update(ctx, id, models.NotePatch{Summary: &summary})
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) notify(inv Invalidation) {
	metrics.RecordMutation(string(inv.Kind))
	for _, i := range s.invalidators {
		i.Invalidate(inv)
	}
}

func (s *Service) queryError(op string, err error) error {
	metrics.RecordStoreError(op)
	if !errors.Is(err, apperr.ErrNotFound) {
		s.logger.Error("note query failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return fmt.Errorf("%w: %w", apperr.ErrQuery, err)
}

func (s *Service) mutationError(op, id string, err error) error {
	metrics.RecordStoreError(op)
	s.logger.Error("note mutation failed",
		slog.String("op", op),
		slog.String("id", id),
		slog.String("error", err.Error()))
	return fmt.Errorf("%w: %w", apperr.ErrQuery, err)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Package notecache keeps recently read notes in memory in front of a
// store.NoteStore. Entries expire after a TTL and are evicted by
// write-through and by explicit invalidation events from the notes service.
package notecache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notes"
	"github.com/starford/notely/internal/store"
)

// Store is a store.NoteStore with an expiring LRU of single-note reads.
//
// The backing table may be written by other clients, so a cached row is
// trusted for at most the TTL.
type Store struct {
	store.NoteStore
	cache *expirable.LRU[string, models.Note]
	// evictions is bumped on every local eviction. A read that raced with one
	// does not populate the cache.
	evictions atomic.Uint64
}

var (
	_ store.NoteStore   = (*Store)(nil)
	_ notes.Invalidator = (*Store)(nil)
)

// New wraps next with a cache holding up to size notes for at most ttl.
func New(next store.NoteStore, size int, ttl time.Duration) *Store {
	return &Store{
		NoteStore: next,
		cache:     expirable.NewLRU[string, models.Note](size, nil, ttl),
	}
}

func key(userID, id string) string {
	return userID + "\x00" + id
}

// Get serves from the cache, falling back to the wrapped store.
func (s *Store) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	k := key(userID, id)
	if n, ok := s.cache.Get(k); ok {
		return cloneNote(n), nil
	}
	gen := s.evictions.Load()
	n, err := s.NoteStore.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if s.evictions.Load() == gen {
		s.cache.Add(k, *cloneNote(*n))
	}
	return n, nil
}

// Update writes through and drops the cached copy.
func (s *Store) Update(ctx context.Context, userID, id string, patch models.NotePatch, updatedAt time.Time) (*models.Note, error) {
	s.evict(userID, id)
	return s.NoteStore.Update(ctx, userID, id, patch, updatedAt)
}

// Delete writes through and drops the cached copy.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	s.evict(userID, id)
	return s.NoteStore.Delete(ctx, userID, id)
}

// Invalidate implements notes.Invalidator.
func (s *Store) Invalidate(inv notes.Invalidation) {
	if inv.Scope.Has(notes.ScopeNote) {
		s.evict(inv.UserID, inv.NoteID)
	}
}

// Len returns the number of cached notes.
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) evict(userID, id string) {
	s.evictions.Add(1)
	s.cache.Remove(key(userID, id))
}

// cloneNote copies n so callers never share the cached summary.
func cloneNote(n models.Note) *models.Note {
	if n.Summary != nil {
		summary := *n.Summary
		n.Summary = &summary
	}
	return &n
}

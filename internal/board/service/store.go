// Package service implements the lead board engine: polling, reconciliation,
// filtering, the status workflow, bulk selection, and CSV import.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/platform/cache"
	"leadboard_backend/platform/logger"
)

const snapshotCacheKey = "board:snapshot"

// Snapshot is the lead collection together with the instant it was fetched.
// The pair is always read and replaced as a unit.
type Snapshot struct {
	Leads     []domain.Lead `json:"leads"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// Store owns the single in-memory lead collection. Every component reads a
// derived view from here; none keeps its own copy. An optional cache mirrors
// the snapshot (write-through) so a restart can warm-start the board; the
// in-memory state stays authoritative.
type Store struct {
	mu        sync.RWMutex
	leads     []domain.Lead
	fetchedAt time.Time

	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewStore creates an empty store. The cache may be nil.
func NewStore(c cache.Cache, cacheTTL time.Duration, log *logger.Logger) *Store {
	return &Store{cache: c, cacheTTL: cacheTTL, log: log}
}

// WarmStart populates the store from the snapshot cache, if one exists.
// A warm-started snapshot never produces new-lead notifications; the next
// poll reconciles against it like any other previous state.
func (s *Store) WarmStart(ctx context.Context) {
	if s.cache == nil {
		return
	}

	var snap Snapshot
	if err := s.cache.Get(ctx, snapshotCacheKey, &snap); err != nil {
		if !errors.Is(err, cache.ErrMiss) && s.log != nil {
			s.log.Warn("snapshot warm start failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.leads = snap.Leads
	s.fetchedAt = snap.FetchedAt
	s.mu.Unlock()
}

// Snapshot returns a copy of the collection and its fetch timestamp.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Leads: append([]domain.Lead(nil), s.leads...), FetchedAt: s.fetchedAt}
}

// Get returns one lead by id.
func (s *Store) Get(id string) (domain.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lead := range s.leads {
		if lead.ID == id {
			return lead, true
		}
	}
	return domain.Lead{}, false
}

// Len returns the current collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

// ApplyFetch reconciles a freshly fetched collection against the held one and
// replaces collection and fetch timestamp atomically. It returns the ids of
// genuinely new leads: createdAt strictly later than the previous fetch
// timestamp AND absent from the previous collection. The very first fetch
// (and a warm start without a timestamp) reports nothing as new.
func (s *Store) ApplyFetch(ctx context.Context, fresh []domain.Lead, fetchedAt time.Time) []string {
	s.mu.Lock()
	newIDs := detectNewLeads(s.leads, s.fetchedAt, fresh)
	s.leads = fresh
	s.fetchedAt = fetchedAt
	s.mu.Unlock()

	s.persist(ctx)
	return newIDs
}

// SetStatus updates one lead's status in place. Called only after the remote
// backend confirmed the transition.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.LeadStatus, now time.Time) bool {
	s.mu.Lock()
	updated := false
	for i, lead := range s.leads {
		if lead.ID == id {
			s.leads[i] = lead.WithStatus(status, now)
			updated = true
			break
		}
	}
	s.mu.Unlock()

	if updated {
		s.persist(ctx)
	}
	return updated
}

// SetFollowUp updates one lead's follow-up instant in place.
func (s *Store) SetFollowUp(ctx context.Context, id string, at *time.Time) bool {
	s.mu.Lock()
	updated := false
	for i, lead := range s.leads {
		if lead.ID == id {
			s.leads[i].FollowUpAt = at
			updated = true
			break
		}
	}
	s.mu.Unlock()

	if updated {
		s.persist(ctx)
	}
	return updated
}

// Remove drops the given ids from the collection.
func (s *Store) Remove(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.leads[:0]
	for _, lead := range s.leads {
		if !drop[lead.ID] {
			kept = append(kept, lead)
		}
	}
	s.leads = kept
	s.mu.Unlock()

	s.persist(ctx)
}

// Invalidate clears the in-memory collection and the cached snapshot.
// Called on logout and explicit cache-bust.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.leads = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, snapshotCacheKey); err != nil && s.log != nil {
			s.log.Warn("snapshot cache invalidation failed", "error", err)
		}
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}

	snap := s.Snapshot()
	if err := s.cache.Set(ctx, snapshotCacheKey, snap, s.cacheTTL); err != nil && s.log != nil {
		s.log.Warn("snapshot cache write failed", "error", err)
	}
}

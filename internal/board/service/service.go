package service

import (
	"context"
	"sync"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/crm"
	"leadboard_backend/internal/events"
	"leadboard_backend/platform/apperr"
	"leadboard_backend/platform/config"
	"leadboard_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

// SyncResult describes the outcome of one pass through the fetch pipeline.
type SyncResult struct {
	LeadCount  int
	NewLeadIDs []string
	// Stale is true when a later-issued fetch already landed and this
	// response was discarded without touching state.
	Stale bool
}

// Service is the lead board engine. All three fetch triggers (poll, search
// debounce, manual refresh) funnel through Sync; every mutation goes through
// the store so components share one collection.
type Service struct {
	gateway   Gateway
	store     *Store
	bus       events.Bus
	log       *logger.Logger
	cfg       config.BoardConfig
	workflow  *Workflow
	selection *SelectionManager

	filterMu sync.Mutex
	filter   domain.FilterState

	// Last-fetch-wins bookkeeping: a response is applied only if no
	// later-issued fetch has been applied before it.
	group      singleflight.Group
	orderMu    sync.Mutex
	issuedGen  uint64
	appliedGen uint64
}

// NewService wires the engine together.
func NewService(gateway Gateway, store *Store, bus events.Bus, cfg config.BoardConfig, log *logger.Logger) *Service {
	s := &Service{
		gateway:   gateway,
		store:     store,
		bus:       bus,
		log:       log,
		cfg:       cfg,
		selection: NewSelectionManager(),
	}
	s.workflow = NewWorkflow(gateway, store, bus, log)
	return s
}

// Store exposes the backing store to composition roots (warm start).
func (s *Service) Store() *Store { return s.store }

// Selection exposes the bulk selection manager.
func (s *Service) Selection() *SelectionManager { return s.selection }

// Workflow exposes the status workflow.
func (s *Service) Workflow() *Workflow { return s.workflow }

// =============================================================================
// Filter state
// =============================================================================

// Filter returns the current filter state.
func (s *Service) Filter() domain.FilterState {
	s.filterMu.Lock()
	defer s.filterMu.Unlock()
	return s.filter
}

// SetFilter replaces the status/platform/date-range axes. It reports whether
// a server-side axis changed, in which case the caller should trigger a
// reconciliation fetch.
func (s *Service) SetFilter(status, platform string, dateRange domain.DateRange) bool {
	s.filterMu.Lock()
	defer s.filterMu.Unlock()

	changed := s.filter.Status != status || s.filter.Platform != platform
	s.filter.Status = status
	s.filter.Platform = platform
	s.filter.DateRange = dateRange
	return changed
}

// setSearch updates the search axis; the debounce lives in the Poller.
func (s *Service) setSearch(query string) {
	s.filterMu.Lock()
	s.filter.SearchQuery = query
	s.filterMu.Unlock()
}

// View returns the filtered board view derived from the current snapshot.
// When the search axis is served remotely the local search predicate is
// skipped so the view never double-filters.
func (s *Service) View() []domain.Lead {
	snap := s.store.Snapshot()
	filter := s.Filter()

	skipSearch := s.cfg.GetRemoteSearch() && filter.SearchQuery != ""
	return domain.Filter(snap.Leads, filter, domain.FilterOptions{SkipSearch: skipSearch})
}

// Summary returns per-status lead counts over the current view, one entry
// per board column.
func (s *Service) Summary() map[domain.LeadStatus]int {
	counts := make(map[domain.LeadStatus]int, len(domain.AllStatuses()))
	for _, status := range domain.AllStatuses() {
		counts[status] = 0
	}
	for _, lead := range s.View() {
		counts[lead.Status]++
	}
	return counts
}

// =============================================================================
// Fetch pipeline
// =============================================================================

// Sync runs the fetch pipeline once. Concurrent triggers collapse into a
// single upstream request; every caller observes the shared result. visible
// marks a user-initiated refresh, which publishes a RefreshCompleted event
// either way it resolves.
func (s *Service) Sync(ctx context.Context, visible bool) (SyncResult, error) {
	value, err, _ := s.group.Do("sync", func() (interface{}, error) {
		result, syncErr := s.doSync(ctx)
		return result, syncErr
	})

	var result SyncResult
	if value != nil {
		result = value.(SyncResult)
	}

	if visible {
		event := events.RefreshCompleted{BaseEvent: events.NewBaseEvent(), Succeeded: err == nil, LeadCount: result.LeadCount}
		if err != nil {
			event.Error = err.Error()
		}
		s.bus.Publish(ctx, event)
	}

	return result, err
}

func (s *Service) doSync(ctx context.Context) (SyncResult, error) {
	s.orderMu.Lock()
	s.issuedGen++
	gen := s.issuedGen
	s.orderMu.Unlock()

	query := s.buildQuery()
	leads, err := s.gateway.ListLeads(ctx, query)
	if err != nil {
		return SyncResult{}, err
	}
	fetchedAt := time.Now()

	s.orderMu.Lock()
	if gen <= s.appliedGen {
		s.orderMu.Unlock()
		s.log.Debug("discarding stale fetch response", "generation", gen)
		return SyncResult{Stale: true, LeadCount: s.store.Len()}, nil
	}
	s.appliedGen = gen
	newIDs := s.store.ApplyFetch(ctx, leads, fetchedAt)
	s.orderMu.Unlock()

	if len(newIDs) > 0 {
		s.bus.Publish(ctx, events.NewLeadsDetected{
			BaseEvent: events.NewBaseEvent(),
			Count:     len(newIDs),
			LeadIDs:   newIDs,
		})
	}

	return SyncResult{LeadCount: len(leads), NewLeadIDs: newIDs}, nil
}

func (s *Service) buildQuery() crm.ListQuery {
	filter := s.Filter()

	query := crm.ListQuery{
		Status:   filter.Status,
		Platform: filter.Platform,
		Limit:    s.cfg.GetPageSize(),
	}
	if s.cfg.GetRemoteSearch() {
		query.Search = filter.SearchQuery
	}
	return query
}

// =============================================================================
// Per-lead operations
// =============================================================================

// History returns the collapsed audit trail for a lead.
func (s *Service) History(ctx context.Context, leadID string) ([]domain.StatusHistoryEntry, error) {
	entries, err := s.gateway.StatusHistory(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return domain.CollapseHistory(entries), nil
}

// Conversations returns recent messages for a lead.
func (s *Service) Conversations(ctx context.Context, leadID string, limit int) ([]domain.Conversation, error) {
	return s.gateway.Conversations(ctx, leadID, limit)
}

// SendMessage sends an outbound message to a lead.
func (s *Service) SendMessage(ctx context.Context, leadID, content string, messageType domain.MessageType) error {
	if messageType != domain.MessageEmail && messageType != domain.MessageWhatsApp {
		return apperr.Validation("unsupported message type")
	}
	return s.gateway.SendMessage(ctx, leadID, content, messageType)
}

// SetFollowUp sets or clears a lead's follow-up instant. Local state changes
// only after the remote accepted the update.
func (s *Service) SetFollowUp(ctx context.Context, leadID string, at *time.Time) error {
	if at != nil && at.Before(time.Now()) {
		return apperr.Validation("follow-up must be in the future")
	}
	if err := s.gateway.SetFollowUp(ctx, leadID, at); err != nil {
		return err
	}
	s.store.SetFollowUp(ctx, leadID, at)
	return nil
}

// DeleteLead removes one lead remotely, then locally.
func (s *Service) DeleteLead(ctx context.Context, leadID string) error {
	if err := s.gateway.DeleteLead(ctx, leadID); err != nil {
		return err
	}
	s.store.Remove(ctx, []string{leadID})
	s.selection.Remove([]string{leadID})
	return nil
}

// =============================================================================
// Session lifecycle
// =============================================================================

// EndSession clears everything that must not leak across sessions: the
// selection set, pending transitions, and the cached snapshot.
func (s *Service) EndSession(ctx context.Context, userID string) {
	s.selection.Reset()
	s.workflow.Reset()
	s.store.Invalidate(ctx)
	s.bus.Publish(ctx, events.SessionEnded{BaseEvent: events.NewBaseEvent(), UserID: userID})
}

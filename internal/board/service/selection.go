package service

import (
	"context"
	"sync"

	"leadboard_backend/internal/events"
	"leadboard_backend/platform/apperr"
)

// SelectionManager tracks the bulk-selection mode and the set of selected
// lead ids. Selection is only meaningful while the mode is active; exiting
// the mode always clears the set.
type SelectionManager struct {
	mu     sync.Mutex
	active bool
	ids    map[string]bool
}

// NewSelectionManager creates an inactive manager with an empty set.
func NewSelectionManager() *SelectionManager {
	return &SelectionManager{ids: make(map[string]bool)}
}

// EnterMode activates selection mode with an empty set.
func (m *SelectionManager) EnterMode() {
	m.mu.Lock()
	m.active = true
	m.ids = make(map[string]bool)
	m.mu.Unlock()
}

// ExitMode deactivates selection mode and clears the set.
func (m *SelectionManager) ExitMode() {
	m.mu.Lock()
	m.active = false
	m.ids = make(map[string]bool)
	m.mu.Unlock()
}

// Active reports whether selection mode is on.
func (m *SelectionManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Toggle flips one lead's membership in the selection set.
func (m *SelectionManager) Toggle(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return apperr.Conflict("selection mode is not active")
	}
	if m.ids[id] {
		delete(m.ids, id)
	} else {
		m.ids[id] = true
	}
	return nil
}

// SelectAll replaces the set with the given ids, normally the ids of the
// currently filtered view so hidden leads are never swept into a bulk action.
func (m *SelectionManager) SelectAll(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return apperr.Conflict("selection mode is not active")
	}
	m.ids = make(map[string]bool, len(ids))
	for _, id := range ids {
		m.ids[id] = true
	}
	return nil
}

// DeselectAll empties the set but stays in selection mode.
func (m *SelectionManager) DeselectAll() {
	m.mu.Lock()
	m.ids = make(map[string]bool)
	m.mu.Unlock()
}

// IDs returns the selected ids. Order is unspecified.
func (m *SelectionManager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	return ids
}

// Selected reports whether one lead is in the set.
func (m *SelectionManager) Selected(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id]
}

// Count returns the size of the selection set.
func (m *SelectionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

// Remove drops the given ids from the set without leaving selection mode.
// Used when leads disappear from the collection (single delete, successful
// bulk deletes).
func (m *SelectionManager) Remove(ids []string) {
	m.mu.Lock()
	for _, id := range ids {
		delete(m.ids, id)
	}
	m.mu.Unlock()
}

// Reset returns the manager to its initial state. Called on logout.
func (m *SelectionManager) Reset() {
	m.mu.Lock()
	m.active = false
	m.ids = make(map[string]bool)
	m.mu.Unlock()
}

// BulkDeleteResult is the engine-level outcome of a batched delete.
type BulkDeleteResult struct {
	Requested    int      `json:"requested"`
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	FailedIDs    []string `json:"failedIds,omitempty"`
	// ExitedMode is true when the whole batch succeeded and selection mode
	// was closed automatically.
	ExitedMode bool `json:"exitedMode"`
}

// BulkDeleteSelected deletes every selected lead in one batched call.
// confirm must be true; the handler surfaces the count so the caller can show
// a confirmation step first.
//
// Partial failures never lose track of what remains: succeeded ids leave the
// collection and the selection set, failed ids stay selected for retry, and
// selection mode auto-exits only on a fully clean batch. When the backend
// reports failures without naming the failed ids the whole selection is kept
// and a silent sync reconciles which leads actually remain.
func (s *Service) BulkDeleteSelected(ctx context.Context, confirm bool) (BulkDeleteResult, error) {
	if !s.selection.Active() {
		return BulkDeleteResult{}, apperr.Conflict("selection mode is not active")
	}
	if !confirm {
		return BulkDeleteResult{}, apperr.Validation("bulk delete requires confirmation")
	}

	ids := s.selection.IDs()
	if len(ids) == 0 {
		return BulkDeleteResult{}, apperr.Validation("no leads selected")
	}

	remote, err := s.gateway.BulkDelete(ctx, ids)
	if err != nil {
		return BulkDeleteResult{}, err
	}

	result := BulkDeleteResult{
		Requested:    len(ids),
		SuccessCount: remote.SuccessCount,
		FailedCount:  remote.FailedCount,
		FailedIDs:    remote.FailedIDs,
	}

	switch {
	case remote.FailedCount == 0:
		s.store.Remove(ctx, ids)
		s.selection.ExitMode()
		result.ExitedMode = true

	case len(remote.FailedIDs) > 0:
		failed := make(map[string]bool, len(remote.FailedIDs))
		for _, id := range remote.FailedIDs {
			failed[id] = true
		}
		var succeeded []string
		for _, id := range ids {
			if !failed[id] {
				succeeded = append(succeeded, id)
			}
		}
		s.store.Remove(ctx, succeeded)
		s.selection.Remove(succeeded)

	default:
		// Failures without ids: keep the whole selection and let a silent
		// sync reconcile which leads actually remain.
		go func() {
			if _, err := s.Sync(context.WithoutCancel(ctx), false); err != nil {
				s.log.Warn("post bulk-delete reconcile failed", "error", err)
			}
		}()
	}

	s.bus.Publish(ctx, events.BulkDeleteCompleted{
		BaseEvent:    events.NewBaseEvent(),
		Requested:    len(ids),
		SuccessCount: remote.SuccessCount,
		FailedCount:  remote.FailedCount,
	})

	return result, nil
}

package service

import (
	"context"
	"sync"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/events"
	"leadboard_backend/platform/apperr"
	"leadboard_backend/platform/logger"
)

// PendingTransition is phase one of a status change: a target selected in the
// UI, waiting for optional remarks and an explicit commit. It is a separate
// value from the committed status so cancel and commit can never race over a
// single mutable field.
type PendingTransition struct {
	LeadID    string            `json:"leadId"`
	From      domain.LeadStatus `json:"from"`
	Target    domain.LeadStatus `json:"target"`
	Remarks   string            `json:"remarks,omitempty"`
	StartedAt time.Time         `json:"startedAt"`
}

// StatusCommitter is the slice of the gateway the workflow needs.
type StatusCommitter interface {
	UpdateStatus(ctx context.Context, leadID string, status domain.LeadStatus, reason string) error
}

// Workflow enforces the two-phase status state machine. The transition graph
// is deliberately permissive (any status may move to any other); what the
// workflow guarantees is ordering and atomicity: the local status changes and
// the audit trail grows only after the remote update succeeded, and commits
// for the same lead are strictly sequential.
type Workflow struct {
	committer StatusCommitter
	store     *Store
	bus       events.Bus
	log       *logger.Logger

	mu      sync.Mutex
	pending map[string]PendingTransition
	gates   map[string]*sync.Mutex
}

// NewWorkflow creates a workflow over the given store and committer.
func NewWorkflow(committer StatusCommitter, store *Store, bus events.Bus, log *logger.Logger) *Workflow {
	return &Workflow{
		committer: committer,
		store:     store,
		bus:       bus,
		log:       log,
		pending:   make(map[string]PendingTransition),
		gates:     make(map[string]*sync.Mutex),
	}
}

// Begin starts phase one: records the selected target without touching the
// committed status. Beginning again replaces the previous pending target.
func (w *Workflow) Begin(leadID string, target domain.LeadStatus) (PendingTransition, error) {
	if !domain.IsValidStatus(string(target)) {
		return PendingTransition{}, apperr.Validation("unknown target status")
	}

	lead, ok := w.store.Get(leadID)
	if !ok {
		return PendingTransition{}, apperr.NotFound("lead not found")
	}

	pending := PendingTransition{
		LeadID:    leadID,
		From:      lead.Status,
		Target:    target,
		StartedAt: time.Now(),
	}

	w.mu.Lock()
	w.pending[leadID] = pending
	w.mu.Unlock()

	return pending, nil
}

// SetRemarks attaches draft remarks to a pending transition.
func (w *Workflow) SetRemarks(leadID, remarks string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, ok := w.pending[leadID]
	if !ok {
		return apperr.NotFound("no pending transition for lead")
	}
	pending.Remarks = remarks
	w.pending[leadID] = pending
	return nil
}

// Pending returns the pending transition for a lead, if any.
func (w *Workflow) Pending(leadID string) (PendingTransition, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pending, ok := w.pending[leadID]
	return pending, ok
}

// Cancel discards the pending transition without any mutation.
func (w *Workflow) Cancel(leadID string) {
	w.mu.Lock()
	delete(w.pending, leadID)
	w.mu.Unlock()
}

// Commit runs phase two. The per-lead gate makes a second commit attempt on
// the same lead wait for the prior remote confirmation (or failure), so the
// audit trail can never record a jump from a state that was never committed.
// On failure the pending transition is kept so the user can retry or cancel;
// the committed status is untouched either way until the remote confirms.
func (w *Workflow) Commit(ctx context.Context, leadID string) (domain.Lead, error) {
	gate := w.gate(leadID)
	gate.Lock()
	defer gate.Unlock()

	w.mu.Lock()
	pending, ok := w.pending[leadID]
	w.mu.Unlock()
	if !ok {
		return domain.Lead{}, apperr.NotFound("no pending transition for lead")
	}

	lead, ok := w.store.Get(leadID)
	if !ok {
		w.Cancel(leadID)
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	oldStatus := lead.Status

	if err := w.committer.UpdateStatus(ctx, leadID, pending.Target, pending.Remarks); err != nil {
		w.log.Warn("status transition rejected", "leadId", leadID, "target", pending.Target, "error", err)
		return domain.Lead{}, err
	}

	now := time.Now()
	w.store.SetStatus(ctx, leadID, pending.Target, now)

	w.mu.Lock()
	delete(w.pending, leadID)
	w.mu.Unlock()

	w.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OldStatus: oldStatus,
		NewStatus: pending.Target,
		Reason:    pending.Remarks,
	})

	updated, _ := w.store.Get(leadID)
	return updated, nil
}

// Reset drops every pending transition. Called on logout.
func (w *Workflow) Reset() {
	w.mu.Lock()
	w.pending = make(map[string]PendingTransition)
	w.mu.Unlock()
}

func (w *Workflow) gate(leadID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	gate, ok := w.gates[leadID]
	if !ok {
		gate = &sync.Mutex{}
		w.gates[leadID] = gate
	}
	return gate
}

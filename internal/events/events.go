// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadboard_backend/internal/board/domain"
	"leadboard_backend/platform/events"
	"leadboard_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Board Domain Events
// =============================================================================

// NewLeadsDetected is published once per reconcile that found genuinely new
// leads. Always aggregated: one event regardless of how many leads arrived.
type NewLeadsDetected struct {
	BaseEvent
	Count   int      `json:"count"`
	LeadIDs []string `json:"leadIds"`
}

func (e NewLeadsDetected) EventName() string { return "board.leads.new_detected" }

// RefreshCompleted is published after a user-initiated refresh resolves.
type RefreshCompleted struct {
	BaseEvent
	Succeeded bool   `json:"succeeded"`
	LeadCount int    `json:"leadCount"`
	Error     string `json:"error,omitempty"`
}

func (e RefreshCompleted) EventName() string { return "board.refresh.completed" }

// LeadStatusChanged is published when a status transition commit succeeds on
// the remote backend.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    string            `json:"leadId"`
	OldStatus domain.LeadStatus `json:"oldStatus"`
	NewStatus domain.LeadStatus `json:"newStatus"`
	Reason    string            `json:"reason,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "board.lead.status_changed" }

// BulkDeleteCompleted is published after a batched delete resolves,
// including partial failures.
type BulkDeleteCompleted struct {
	BaseEvent
	Requested    int `json:"requested"`
	SuccessCount int `json:"successCount"`
	FailedCount  int `json:"failedCount"`
}

func (e BulkDeleteCompleted) EventName() string { return "board.bulk_delete.completed" }

// LeadsImported is published after a CSV import resolves with the remote
// backend's per-row accounting.
type LeadsImported struct {
	BaseEvent
	TotalRows  int `json:"totalRows"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

func (e LeadsImported) EventName() string { return "board.leads.imported" }

// SessionEnded is published on logout so stateful components can reset.
type SessionEnded struct {
	BaseEvent
	UserID string `json:"userId"`
}

func (e SessionEnded) EventName() string { return "session.ended" }

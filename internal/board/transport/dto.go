// Package transport defines the request and response shapes for the board
// HTTP surface.
package transport

import (
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/board/service"
)

// SearchRequest feeds the debounced search input.
type SearchRequest struct {
	Query string `json:"query"`
}

// BoardResponse is the filtered view plus the filter state that produced it.
type BoardResponse struct {
	Leads     []domain.Lead      `json:"leads"`
	Count     int                `json:"count"`
	Filter    domain.FilterState `json:"filter"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// RefreshResponse reports the outcome of a manual refresh.
type RefreshResponse struct {
	LeadCount int      `json:"leadCount"`
	NewLeads  []string `json:"newLeads,omitempty"`
}

// SummaryResponse carries per-status column counts.
type SummaryResponse struct {
	Columns []SummaryColumn `json:"columns"`
	Total   int             `json:"total"`
}

// SummaryColumn is one Kanban column with its display metadata.
type SummaryColumn struct {
	Status domain.LeadStatus `json:"status"`
	Count  int               `json:"count"`
}

// TransitionRequest begins a status transition.
type TransitionRequest struct {
	Target  string `json:"target" validate:"required"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

// SendMessageRequest sends an outbound message to a lead.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
	Type    string `json:"type" validate:"required,oneof=email whatsapp"`
}

// FollowUpRequest sets or clears a follow-up instant. A null time clears it.
type FollowUpRequest struct {
	At *time.Time `json:"at"`
}

// SelectionModeRequest toggles selection mode.
type SelectionModeRequest struct {
	Active bool `json:"active"`
}

// ToggleSelectionRequest flips one lead's selection.
type ToggleSelectionRequest struct {
	LeadID string `json:"leadId" validate:"required"`
}

// BulkDeleteRequest confirms a batched delete of the current selection.
type BulkDeleteRequest struct {
	Confirm bool `json:"confirm"`
}

// SelectionResponse reports the current selection state.
type SelectionResponse struct {
	Active   bool     `json:"active"`
	Count    int      `json:"count"`
	Selected []string `json:"selected"`
}

// NewSelectionResponse builds a SelectionResponse from the manager.
func NewSelectionResponse(m *service.SelectionManager) SelectionResponse {
	return SelectionResponse{Active: m.Active(), Count: m.Count(), Selected: m.IDs()}
}

// Package notify turns board events into user-facing notices. It is the only
// place notification copy lives; the engine publishes facts, the feed decides
// tone and wording.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadboard_backend/internal/events"
	"leadboard_backend/platform/logger"
)

// Severity is the tone of a notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is one user-facing notification.
type Notice struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// maxNotices bounds the feed; the oldest notices are dropped first.
const maxNotices = 100

// Feed is a bounded, in-memory notice list fed by board events.
type Feed struct {
	log *logger.Logger

	mu      sync.Mutex
	notices []Notice
}

// NewFeed creates an empty feed.
func NewFeed(log *logger.Logger) *Feed {
	return &Feed{log: log}
}

// Register subscribes the feed to every event it renders.
func (f *Feed) Register(bus events.Bus) {
	bus.Subscribe(events.NewLeadsDetected{}.EventName(), events.HandlerFunc(f.onNewLeads))
	bus.Subscribe(events.RefreshCompleted{}.EventName(), events.HandlerFunc(f.onRefresh))
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(f.onStatusChanged))
	bus.Subscribe(events.BulkDeleteCompleted{}.EventName(), events.HandlerFunc(f.onBulkDelete))
	bus.Subscribe(events.LeadsImported{}.EventName(), events.HandlerFunc(f.onImport))
	bus.Subscribe(events.SessionEnded{}.EventName(), events.HandlerFunc(f.onSessionEnded))
}

// Push appends a notice directly. Exposed for components that need to report
// outside the event flow.
func (f *Feed) Push(severity Severity, message string) Notice {
	notice := Notice{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}

	f.mu.Lock()
	f.notices = append(f.notices, notice)
	if len(f.notices) > maxNotices {
		f.notices = f.notices[len(f.notices)-maxNotices:]
	}
	f.mu.Unlock()

	return notice
}

// List returns the notices, newest first.
func (f *Feed) List() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notice, len(f.notices))
	for i, n := range f.notices {
		out[len(f.notices)-1-i] = n
	}
	return out
}

// Drain returns the notices newest first and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	notices := f.notices
	f.notices = nil
	f.mu.Unlock()

	out := make([]Notice, len(notices))
	for i, n := range notices {
		out[len(notices)-1-i] = n
	}
	return out
}

// Clear empties the feed.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.notices = nil
	f.mu.Unlock()
}

// =============================================================================
// Event handlers
// =============================================================================

func (f *Feed) onNewLeads(ctx context.Context, event events.Event) error {
	e, ok := event.(events.NewLeadsDetected)
	if !ok {
		return nil
	}

	// One aggregated notice per batch, never one per lead.
	if e.Count == 1 {
		f.Push(SeverityInfo, "1 new lead received")
	} else {
		f.Push(SeverityInfo, fmt.Sprintf("%d new leads received", e.Count))
	}
	return nil
}

func (f *Feed) onRefresh(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RefreshCompleted)
	if !ok {
		return nil
	}

	if e.Succeeded {
		f.Push(SeveritySuccess, "Leads refreshed")
	} else {
		f.Push(SeverityError, "Refresh failed, showing last loaded leads")
	}
	return nil
}

func (f *Feed) onStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadStatusChanged)
	if !ok {
		return nil
	}

	f.Push(SeveritySuccess, fmt.Sprintf("Lead moved to %s", e.NewStatus))
	return nil
}

func (f *Feed) onBulkDelete(ctx context.Context, event events.Event) error {
	e, ok := event.(events.BulkDeleteCompleted)
	if !ok {
		return nil
	}

	switch {
	case e.FailedCount == 0:
		f.Push(SeveritySuccess, fmt.Sprintf("Deleted %d leads", e.SuccessCount))
	case e.SuccessCount == 0:
		f.Push(SeverityError, fmt.Sprintf("Failed to delete %d leads", e.FailedCount))
	default:
		f.Push(SeverityWarning, fmt.Sprintf("Deleted %d leads, %d failed and remain selected", e.SuccessCount, e.FailedCount))
	}
	return nil
}

// onImport renders exactly one summary notice per import, its tone tracking
// the worst thing that happened: row errors and duplicates together produce a
// combined warning, either alone gets a tailored message, and a clean run is
// a plain success. Row-level detail is logged by the importer, not shown.
func (f *Feed) onImport(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadsImported)
	if !ok {
		return nil
	}

	switch {
	case e.Errors > 0 && e.Duplicates > 0:
		f.Push(SeverityWarning, fmt.Sprintf(
			"Imported %d of %d leads (%d duplicates skipped, %d rows failed)",
			e.Created, e.TotalRows, e.Duplicates, e.Errors))
	case e.Errors > 0:
		f.Push(SeverityWarning, fmt.Sprintf(
			"Imported %d of %d leads, %d rows failed", e.Created, e.TotalRows, e.Errors))
	case e.Duplicates > 0:
		f.Push(SeverityInfo, fmt.Sprintf(
			"Imported %d leads, %d duplicates skipped", e.Created, e.Duplicates))
	default:
		f.Push(SeveritySuccess, fmt.Sprintf("Imported %d leads", e.Created))
	}
	return nil
}

func (f *Feed) onSessionEnded(ctx context.Context, event events.Event) error {
	f.Clear()
	return nil
}

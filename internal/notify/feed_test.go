package notify

import (
	"context"
	"strings"
	"testing"

	"leadboard_backend/internal/events"
	"leadboard_backend/platform/logger"
)

func newTestFeed(t *testing.T) (*Feed, events.Bus) {
	t.Helper()
	log := logger.New("development")
	feed := NewFeed(log)
	bus := events.NewInMemoryBus(log)
	feed.Register(bus)
	return feed, bus
}

func TestNewLeadsNoticeIsAggregated(t *testing.T) {
	feed, bus := newTestFeed(t)
	ctx := context.Background()

	_ = bus.PublishSync(ctx, events.NewLeadsDetected{
		BaseEvent: events.NewBaseEvent(),
		Count:     3,
		LeadIDs:   []string{"a", "b", "c"},
	})

	notices := feed.List()
	if len(notices) != 1 {
		t.Fatalf("got %d notices, want exactly 1 aggregated", len(notices))
	}
	if notices[0].Message != "3 new leads received" {
		t.Fatalf("message = %q", notices[0].Message)
	}

	_ = bus.PublishSync(ctx, events.NewLeadsDetected{BaseEvent: events.NewBaseEvent(), Count: 1, LeadIDs: []string{"d"}})
	notices = feed.List()
	if notices[0].Message != "1 new lead received" {
		t.Fatalf("singular message = %q", notices[0].Message)
	}
}

func TestImportNoticeTone(t *testing.T) {
	tests := []struct {
		name         string
		event        events.LeadsImported
		wantSeverity Severity
		wantContains []string
	}{
		{
			name:         "clean import",
			event:        events.LeadsImported{TotalRows: 5, Created: 5},
			wantSeverity: SeveritySuccess,
			wantContains: []string{"Imported 5 leads"},
		},
		{
			name:         "duplicates only",
			event:        events.LeadsImported{TotalRows: 5, Created: 3, Duplicates: 2},
			wantSeverity: SeverityInfo,
			wantContains: []string{"3", "2 duplicates skipped"},
		},
		{
			name:         "errors only",
			event:        events.LeadsImported{TotalRows: 5, Created: 3, Errors: 2},
			wantSeverity: SeverityWarning,
			wantContains: []string{"3 of 5", "2 rows failed"},
		},
		{
			name:         "errors and duplicates combine into one warning",
			event:        events.LeadsImported{TotalRows: 10, Created: 6, Duplicates: 2, Errors: 2},
			wantSeverity: SeverityWarning,
			wantContains: []string{"6 of 10", "2 duplicates skipped", "2 rows failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, bus := newTestFeed(t)
			tt.event.BaseEvent = events.NewBaseEvent()
			_ = bus.PublishSync(context.Background(), tt.event)

			notices := feed.List()
			if len(notices) != 1 {
				t.Fatalf("got %d notices, want exactly 1 per import", len(notices))
			}
			if notices[0].Severity != tt.wantSeverity {
				t.Fatalf("severity = %q, want %q", notices[0].Severity, tt.wantSeverity)
			}
			for _, fragment := range tt.wantContains {
				if !strings.Contains(notices[0].Message, fragment) {
					t.Fatalf("message %q missing %q", notices[0].Message, fragment)
				}
			}
		})
	}
}

func TestBulkDeleteNoticeTone(t *testing.T) {
	feed, bus := newTestFeed(t)
	ctx := context.Background()

	_ = bus.PublishSync(ctx, events.BulkDeleteCompleted{BaseEvent: events.NewBaseEvent(), Requested: 3, SuccessCount: 3})
	_ = bus.PublishSync(ctx, events.BulkDeleteCompleted{BaseEvent: events.NewBaseEvent(), Requested: 3, SuccessCount: 2, FailedCount: 1})
	_ = bus.PublishSync(ctx, events.BulkDeleteCompleted{BaseEvent: events.NewBaseEvent(), Requested: 3, FailedCount: 3})

	notices := feed.List()
	if len(notices) != 3 {
		t.Fatalf("got %d notices, want 3", len(notices))
	}
	// Newest first.
	if notices[0].Severity != SeverityError {
		t.Fatalf("all-failed severity = %q, want error", notices[0].Severity)
	}
	if notices[1].Severity != SeverityWarning || !strings.Contains(notices[1].Message, "remain selected") {
		t.Fatalf("partial notice = %+v", notices[1])
	}
	if notices[2].Severity != SeveritySuccess {
		t.Fatalf("clean severity = %q, want success", notices[2].Severity)
	}
}

func TestRefreshNotices(t *testing.T) {
	feed, bus := newTestFeed(t)
	ctx := context.Background()

	_ = bus.PublishSync(ctx, events.RefreshCompleted{BaseEvent: events.NewBaseEvent(), Succeeded: true, LeadCount: 4})
	_ = bus.PublishSync(ctx, events.RefreshCompleted{BaseEvent: events.NewBaseEvent(), Succeeded: false, Error: "boom"})

	notices := feed.List()
	if len(notices) != 2 {
		t.Fatalf("got %d notices, want 2", len(notices))
	}
	if notices[0].Severity != SeverityError || !strings.Contains(notices[0].Message, "last loaded leads") {
		t.Fatalf("failure notice = %+v", notices[0])
	}
	if notices[1].Severity != SeveritySuccess {
		t.Fatalf("success notice = %+v", notices[1])
	}
}

func TestDrainDeliversOnce(t *testing.T) {
	feed, _ := newTestFeed(t)

	feed.Push(SeverityInfo, "one")
	feed.Push(SeverityInfo, "two")

	drained := feed.Drain()
	if len(drained) != 2 || drained[0].Message != "two" {
		t.Fatalf("drained = %+v", drained)
	}
	if len(feed.Drain()) != 0 {
		t.Fatal("second drain returned notices")
	}
}

func TestSessionEndClearsFeed(t *testing.T) {
	feed, bus := newTestFeed(t)

	feed.Push(SeverityInfo, "stale")
	_ = bus.PublishSync(context.Background(), events.SessionEnded{BaseEvent: events.NewBaseEvent(), UserID: "u1"})

	if len(feed.List()) != 0 {
		t.Fatal("notices survived session end")
	}
}

func TestFeedIsBounded(t *testing.T) {
	feed, _ := newTestFeed(t)

	for i := 0; i < maxNotices+25; i++ {
		feed.Push(SeverityInfo, "n")
	}
	if got := len(feed.List()); got != maxNotices {
		t.Fatalf("feed length = %d, want %d", got, maxNotices)
	}
}

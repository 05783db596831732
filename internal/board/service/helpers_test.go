package service

import (
	"context"
	"io"
	"sync"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/crm"
	"leadboard_backend/internal/events"
	"leadboard_backend/platform/logger"
)

// fakeGateway implements Gateway with overridable behavior per method.
type fakeGateway struct {
	mu        sync.Mutex
	listCalls int

	listFn       func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error)
	updateFn     func(ctx context.Context, leadID string, status domain.LeadStatus, reason string) error
	historyFn    func(ctx context.Context, leadID string) ([]domain.StatusHistoryEntry, error)
	bulkDeleteFn func(ctx context.Context, ids []string) (crm.BulkDeleteResult, error)
	importFn     func(ctx context.Context, filename string, file io.Reader) (crm.ImportSummary, error)
	deleteFn     func(ctx context.Context, leadID string) error
	followUpFn   func(ctx context.Context, leadID string, at *time.Time) error
}

func (f *fakeGateway) ListLeads(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listFn != nil {
		return f.listFn(ctx, q)
	}
	return nil, nil
}

func (f *fakeGateway) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeGateway) UpdateStatus(ctx context.Context, leadID string, status domain.LeadStatus, reason string) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, leadID, status, reason)
	}
	return nil
}

func (f *fakeGateway) StatusHistory(ctx context.Context, leadID string) ([]domain.StatusHistoryEntry, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, leadID)
	}
	return nil, nil
}

func (f *fakeGateway) Conversations(ctx context.Context, leadID string, limit int) ([]domain.Conversation, error) {
	return nil, nil
}

func (f *fakeGateway) SendMessage(ctx context.Context, leadID, content string, messageType domain.MessageType) error {
	return nil
}

func (f *fakeGateway) SetFollowUp(ctx context.Context, leadID string, at *time.Time) error {
	if f.followUpFn != nil {
		return f.followUpFn(ctx, leadID, at)
	}
	return nil
}

func (f *fakeGateway) DeleteLead(ctx context.Context, leadID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, leadID)
	}
	return nil
}

func (f *fakeGateway) BulkDelete(ctx context.Context, ids []string) (crm.BulkDeleteResult, error) {
	if f.bulkDeleteFn != nil {
		return f.bulkDeleteFn(ctx, ids)
	}
	return crm.BulkDeleteResult{Success: true, SuccessCount: len(ids)}, nil
}

func (f *fakeGateway) ImportCSV(ctx context.Context, filename string, file io.Reader) (crm.ImportSummary, error) {
	if f.importFn != nil {
		return f.importFn(ctx, filename, file)
	}
	return crm.ImportSummary{Success: true}, nil
}

var _ Gateway = (*fakeGateway)(nil)

// recordBus records published events synchronously.
type recordBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

func (b *recordBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordBus) Events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func (b *recordBus) ByName(name string) []events.Event {
	var out []events.Event
	for _, e := range b.Events() {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

var _ events.Bus = (*recordBus)(nil)

// testBoardConfig satisfies config.BoardConfig with short test timings.
type testBoardConfig struct {
	pollInterval   time.Duration
	searchDebounce time.Duration
	pageSize       int
	remoteSearch   bool
}

func (c testBoardConfig) GetPollInterval() time.Duration   { return c.pollInterval }
func (c testBoardConfig) GetSearchDebounce() time.Duration { return c.searchDebounce }
func (c testBoardConfig) GetPageSize() int                 { return c.pageSize }
func (c testBoardConfig) GetRemoteSearch() bool            { return c.remoteSearch }

func defaultTestConfig() testBoardConfig {
	return testBoardConfig{
		pollInterval:   30 * time.Second,
		searchDebounce: 20 * time.Millisecond,
		pageSize:       200,
		remoteSearch:   false,
	}
}

func testLead(id string, status domain.LeadStatus, createdAt time.Time) domain.Lead {
	return domain.Lead{
		ID:             id,
		Name:           "Lead " + id,
		Email:          "lead" + id + "@example.com",
		SourcePlatform: domain.PlatformFacebook,
		Status:         status,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func newTestService(gw *fakeGateway, bus *recordBus, cfg testBoardConfig) *Service {
	log := logger.New("development")
	store := NewStore(nil, 0, log)
	return NewService(gw, store, bus, cfg, log)
}

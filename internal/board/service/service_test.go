package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/crm"
	"leadboard_backend/internal/events"
	"leadboard_backend/platform/apperr"
)

func TestSyncPublishesAggregatedNewLeadEvent(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	bus := &recordBus{}
	svc := newTestService(gw, bus, defaultTestConfig())
	ctx := context.Background()

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{testLead("1", domain.StatusNew, t0)}, nil
	}
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{
			testLead("1", domain.StatusNew, t0),
			testLead("2", domain.StatusNew, t0.Add(10*time.Second)),
			testLead("3", domain.StatusNew, t0.Add(20*time.Second)),
		}, nil
	}
	result, err := svc.Sync(ctx, false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(result.NewLeadIDs) != 2 {
		t.Fatalf("NewLeadIDs = %v, want two entries", result.NewLeadIDs)
	}

	published := bus.ByName(events.NewLeadsDetected{}.EventName())
	if len(published) != 1 {
		t.Fatalf("published %d NewLeadsDetected events, want exactly 1", len(published))
	}
	if e := published[0].(events.NewLeadsDetected); e.Count != 2 {
		t.Fatalf("Count = %d, want 2", e.Count)
	}
}

func TestSyncVisibleRefreshReportsOutcome(t *testing.T) {
	gw := &fakeGateway{}
	bus := &recordBus{}
	svc := newTestService(gw, bus, defaultTestConfig())
	ctx := context.Background()

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return nil, apperr.Unavailable("crm unreachable")
	}
	if _, err := svc.Sync(ctx, true); err == nil {
		t.Fatal("Sync succeeded against failing gateway")
	}

	published := bus.ByName(events.RefreshCompleted{}.EventName())
	if len(published) != 1 {
		t.Fatalf("published %d RefreshCompleted events, want 1", len(published))
	}
	if e := published[0].(events.RefreshCompleted); e.Succeeded {
		t.Fatal("RefreshCompleted.Succeeded = true for failed refresh")
	}

	// Silent syncs never publish refresh outcomes.
	gw.listFn = nil
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := len(bus.ByName(events.RefreshCompleted{}.EventName())); got != 1 {
		t.Fatalf("silent sync published a RefreshCompleted event (total %d)", got)
	}
}

func TestSyncFailureKeepsLastGoodCollection(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	svc := newTestService(gw, &recordBus{}, defaultTestConfig())
	ctx := context.Background()

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{testLead("1", domain.StatusNew, t0)}, nil
	}
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return nil, errors.New("boom")
	}
	if _, err := svc.Sync(ctx, false); err == nil {
		t.Fatal("Sync succeeded against failing gateway")
	}
	if svc.Store().Len() != 1 {
		t.Fatal("failed sync dropped the last good collection")
	}
}

func TestSyncLastFetchWins(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	svc := newTestService(gw, &recordBus{}, defaultTestConfig())
	ctx := context.Background()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	slow := []domain.Lead{testLead("slow", domain.StatusNew, t0)}
	fast := []domain.Lead{testLead("fast", domain.StatusNew, t0)}

	first := true
	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		if first {
			first = false
			close(slowStarted)
			<-release
			return slow, nil
		}
		return fast, nil
	}

	done := make(chan SyncResult)
	go func() {
		result, _ := svc.doSync(ctx)
		done <- result
	}()
	<-slowStarted

	// A later-issued fetch resolves first and lands.
	if _, err := svc.doSync(ctx); err != nil {
		t.Fatalf("fast doSync: %v", err)
	}

	close(release)
	result := <-done

	if !result.Stale {
		t.Fatal("earlier-issued fetch was not discarded as stale")
	}
	if _, ok := svc.Store().Get("fast"); !ok {
		t.Fatal("later fetch result missing from store")
	}
	if _, ok := svc.Store().Get("slow"); ok {
		t.Fatal("stale fetch result overwrote the store")
	}
}

func TestViewAppliesFilterAxes(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	svc := newTestService(gw, &recordBus{}, defaultTestConfig())
	ctx := context.Background()

	leads := []domain.Lead{
		testLead("1", domain.StatusNew, t0),
		testLead("2", domain.StatusContacted, t0),
		testLead("3", domain.StatusContacted, t0),
	}
	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return leads, nil
	}
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	svc.SetFilter("contacted", "", domain.RangeAll)
	view := svc.View()
	if len(view) != 2 {
		t.Fatalf("view length = %d, want 2", len(view))
	}

	summary := svc.Summary()
	if summary[domain.StatusContacted] != 2 || summary[domain.StatusNew] != 0 {
		t.Fatalf("summary = %v, want contacted=2 new=0 over filtered view", summary)
	}
}

func TestViewSkipsLocalSearchWhenRemote(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	cfg := defaultTestConfig()
	cfg.remoteSearch = true
	svc := newTestService(gw, &recordBus{}, cfg)
	ctx := context.Background()

	// The gateway already narrowed the collection by search; leads that do
	// not literally contain the query must survive the local pass.
	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{testLead("1", domain.StatusNew, t0)}, nil
	}
	svc.setSearch("fuzzy-match")
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if got := len(svc.View()); got != 1 {
		t.Fatalf("view length = %d, want 1 (local search must be skipped)", got)
	}
}

func TestSetFilterReportsServerAxisChange(t *testing.T) {
	svc := newTestService(&fakeGateway{}, &recordBus{}, defaultTestConfig())

	if !svc.SetFilter("contacted", "", domain.RangeAll) {
		t.Fatal("status change not reported")
	}
	if svc.SetFilter("contacted", "", domain.RangeToday) {
		t.Fatal("date range change reported as server axis change")
	}
	if !svc.SetFilter("contacted", "facebook", domain.RangeToday) {
		t.Fatal("platform change not reported")
	}
}

func TestSetFollowUpRejectsPastAndIsRemoteFirst(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	svc := newTestService(gw, &recordBus{}, defaultTestConfig())
	ctx := context.Background()

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{testLead("1", domain.StatusNew, t0)}, nil
	}
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if err := svc.SetFollowUp(ctx, "1", &past); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("past follow-up error = %v, want validation", err)
	}

	gw.followUpFn = func(ctx context.Context, leadID string, at *time.Time) error {
		return apperr.Unavailable("crm unreachable")
	}
	future := time.Now().Add(time.Hour)
	if err := svc.SetFollowUp(ctx, "1", &future); err == nil {
		t.Fatal("SetFollowUp succeeded against failing gateway")
	}
	lead, _ := svc.Store().Get("1")
	if lead.FollowUpAt != nil {
		t.Fatal("follow-up set locally despite remote failure")
	}
}

func TestDeleteLeadRemovesFromStoreAndSelection(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	svc := newTestService(gw, &recordBus{}, defaultTestConfig())
	ctx := context.Background()

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{testLead("1", domain.StatusNew, t0)}, nil
	}
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc.Selection().EnterMode()
	if err := svc.Selection().Toggle("1"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	if err := svc.DeleteLead(ctx, "1"); err != nil {
		t.Fatalf("DeleteLead: %v", err)
	}
	if _, ok := svc.Store().Get("1"); ok {
		t.Fatal("lead still in store after delete")
	}
	if svc.Selection().Selected("1") {
		t.Fatal("deleted lead still selected")
	}
}

func TestEndSessionClearsEverything(t *testing.T) {
	t0 := time.Now()
	gw := &fakeGateway{}
	bus := &recordBus{}
	svc := newTestService(gw, bus, defaultTestConfig())
	ctx := context.Background()

	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return []domain.Lead{testLead("1", domain.StatusNew, t0)}, nil
	}
	if _, err := svc.Sync(ctx, false); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc.Selection().EnterMode()
	_ = svc.Selection().Toggle("1")
	if _, err := svc.Workflow().Begin("1", domain.StatusContacted); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	svc.EndSession(ctx, "user-1")

	if svc.Store().Len() != 0 {
		t.Fatal("store not invalidated on logout")
	}
	if svc.Selection().Active() || svc.Selection().Count() != 0 {
		t.Fatal("selection survived logout")
	}
	if _, ok := svc.Workflow().Pending("1"); ok {
		t.Fatal("pending transition survived logout")
	}
	if len(bus.ByName(events.SessionEnded{}.EventName())) != 1 {
		t.Fatal("SessionEnded not published")
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"leadboard_backend/internal/board/domain"
	"leadboard_backend/internal/crm"
	"leadboard_backend/platform/logger"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPollerSyncsOnInterval(t *testing.T) {
	gw := &fakeGateway{}
	cfg := defaultTestConfig()
	cfg.pollInterval = 20 * time.Millisecond
	svc := newTestService(gw, &recordBus{}, cfg)
	poller := NewPoller(svc, cfg, logger.New("development"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	waitFor(t, time.Second, func() bool { return gw.ListCalls() >= 2 })
}

func TestPollerKeepsRunningAfterFailedPoll(t *testing.T) {
	gw := &fakeGateway{}
	gw.listFn = func(ctx context.Context, q crm.ListQuery) ([]domain.Lead, error) {
		return nil, context.DeadlineExceeded
	}

	cfg := defaultTestConfig()
	cfg.pollInterval = 20 * time.Millisecond
	svc := newTestService(gw, &recordBus{}, cfg)
	poller := NewPoller(svc, cfg, logger.New("development"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	waitFor(t, time.Second, func() bool { return gw.ListCalls() >= 3 })
}

func TestSearchDebounceCollapsesKeystrokes(t *testing.T) {
	gw := &fakeGateway{}
	cfg := defaultTestConfig()
	cfg.searchDebounce = 40 * time.Millisecond
	svc := newTestService(gw, &recordBus{}, cfg)
	poller := NewPoller(svc, cfg, logger.New("development"))
	defer poller.Stop()

	for _, q := range []string{"j", "jo", "joh", "john"} {
		poller.SearchChanged(q)
		time.Sleep(5 * time.Millisecond)
	}

	// The search axis updates immediately even though the fetch waits.
	if got := svc.Filter().SearchQuery; got != "john" {
		t.Fatalf("search query = %q, want john", got)
	}
	if gw.ListCalls() != 0 {
		t.Fatalf("fetch fired before debounce window elapsed (%d calls)", gw.ListCalls())
	}

	waitFor(t, time.Second, func() bool { return gw.ListCalls() >= 1 })
	time.Sleep(80 * time.Millisecond)
	if gw.ListCalls() != 1 {
		t.Fatalf("ListCalls = %d, want exactly 1 for four keystrokes", gw.ListCalls())
	}
}

func TestStopPreventsPendingDebounce(t *testing.T) {
	gw := &fakeGateway{}
	cfg := defaultTestConfig()
	cfg.searchDebounce = 30 * time.Millisecond
	svc := newTestService(gw, &recordBus{}, cfg)
	poller := NewPoller(svc, cfg, logger.New("development"))

	poller.SearchChanged("abandoned")
	poller.Stop()

	time.Sleep(60 * time.Millisecond)
	if gw.ListCalls() != 0 {
		t.Fatalf("debounced fetch fired after Stop (%d calls)", gw.ListCalls())
	}
}

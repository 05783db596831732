package service

import (
	"context"
	"sync"
	"time"

	"leadboard_backend/platform/config"
	"leadboard_backend/platform/logger"
)

// Poller drives the two time-based fetch triggers: the background poll tick
// and the debounced search. Both resolve into silent syncs on the service;
// the poller itself holds no lead state.
type Poller struct {
	service *Service
	cfg     config.BoardConfig
	log     *logger.Logger

	mu       sync.Mutex
	debounce *time.Timer
	stopped  bool
}

// NewPoller creates a poller over the given service.
func NewPoller(service *Service, cfg config.BoardConfig, log *logger.Logger) *Poller {
	return &Poller{service: service, cfg: cfg, log: log}
}

// Run polls on a fixed interval until the context is cancelled. A failed poll
// logs and waits for the next tick; the board keeps showing the last good
// collection.
func (p *Poller) Run(ctx context.Context) {
	interval := p.cfg.GetPollInterval()
	p.log.Info("board poller started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("board poller stopped")
			return
		case <-ticker.C:
			if _, err := p.service.Sync(ctx, false); err != nil {
				p.log.Warn("background poll failed", "error", err)
			}
		}
	}
}

// SearchChanged records a new search query and arms the debounce timer.
// Each call cancels the previous timer, so only the final query within the
// debounce window triggers a fetch. An empty query still syncs: clearing the
// search restores the unfiltered collection.
func (p *Poller) SearchChanged(query string) {
	p.service.setSearch(query)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.cfg.GetSearchDebounce(), func() {
		if _, err := p.service.Sync(context.Background(), false); err != nil {
			p.log.Warn("search fetch failed", "error", err)
		}
	})
}

// Stop cancels any armed debounce timer and rejects new ones. Run is stopped
// separately through its context.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
}

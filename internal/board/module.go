// Package board provides the lead board bounded context module.
// This file defines the module that encapsulates all board setup and route
// registration.
package board

import (
	"context"

	"leadboard_backend/internal/board/handler"
	"leadboard_backend/internal/board/service"
	"leadboard_backend/internal/events"
	apphttp "leadboard_backend/internal/http"
	"leadboard_backend/internal/notify"
	"leadboard_backend/platform/cache"
	"leadboard_backend/platform/config"
	"leadboard_backend/platform/logger"
	"leadboard_backend/platform/validator"
)

// ModuleConfig combines the config interfaces the board module needs.
type ModuleConfig interface {
	config.BoardConfig
	config.CacheConfig
}

// Module is the board bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	poller  *service.Poller
	feed    *notify.Feed
}

// NewModule creates and initializes the board module with all its
// dependencies. The store is warm-started from the snapshot cache; the poller
// must still be started by the caller via Poller().Run.
func NewModule(gateway service.Gateway, snapshotCache cache.Cache, eventBus events.Bus, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	store := service.NewStore(snapshotCache, cfg.GetSnapshotCacheTTL(), log)
	store.WarmStart(context.Background())

	svc := service.NewService(gateway, store, eventBus, cfg, log)
	poller := service.NewPoller(svc, cfg, log)

	feed := notify.NewFeed(log)
	feed.Register(eventBus)

	return &Module{
		handler: handler.New(svc, poller, feed, val),
		service: svc,
		poller:  poller,
		feed:    feed,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "board"
}

// Service returns the board engine service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Poller returns the polling scheduler so the composition root can run it.
func (m *Module) Poller() *service.Poller {
	return m.poller
}

// Feed returns the notification feed.
func (m *Module) Feed() *notify.Feed {
	return m.feed
}

// RegisterRoutes mounts board routes on the provided router context.
// The whole surface requires authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

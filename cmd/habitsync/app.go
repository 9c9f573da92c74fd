package main

import (
	"log"

	"github.com/comitanigiacomo/kanso-habit-store/internal/adapters/bridge"
	"github.com/comitanigiacomo/kanso-habit-store/internal/adapters/storage"
	"github.com/comitanigiacomo/kanso-habit-store/internal/config"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/store"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/subscription"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habit-store/internal/metrics"
)

// app holds the wired components shared by every command.
type app struct {
	metrics   *metrics.Metrics
	backend   domain.StorageBackend
	worker    *workers.SurfaceReloadWorker
	store     *store.HabitStore
	habits    *services.HabitService
	stats     *services.StatsService
	lifecycle *subscription.Lifecycle

	closers []func() error
}

func newApp(cfg config.AppConfig) *app {
	a := &app{}

	embedded := storage.NewEmbeddedBackend(cfg.EmbeddedDriver, cfg.EmbeddedDSN, domain.StorageGroup)
	a.closers = append(a.closers, embedded.Close)

	selector := storage.NewSelector(
		func() storage.Capabilities {
			return storage.Capabilities{WidgetBridge: cfg.WidgetBridge}
		},
		func() domain.StorageBackend {
			rdb, err := bridge.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				log.Printf("[STORAGE] Widget bridge unavailable, falling back to embedded storage: %v", err)
				return nil
			}
			a.closers = append(a.closers, rdb.Close)
			return storage.NewBridgeBackend(bridge.NewRedisSurface(rdb, domain.StorageGroup), domain.StorageGroup)
		},
		func() domain.StorageBackend {
			return embedded
		},
	)

	a.wire(selector.Backend(), services.SystemClock{})
	return a
}

func (a *app) wire(backend domain.StorageBackend, clock services.Clock) {
	a.metrics = metrics.New()
	a.backend = backend
	a.worker = workers.NewSurfaceReloadWorker(backend, a.metrics)
	a.store = store.NewHabitStore(backend, a.worker, a.metrics)
	a.habits = services.NewHabitService(a.store, clock)
	a.stats = services.NewStatsService(a.store, clock)
	a.lifecycle = subscription.NewLifecycle(a.store)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[APP] Close failed: %v", err)
		}
	}
}

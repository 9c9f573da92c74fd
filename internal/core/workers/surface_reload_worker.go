package workers

import (
	"context"
	"log"

	"github.com/comitanigiacomo/kanso-habit-store/internal/metrics"
)

type SurfaceBackend interface {
	ReloadSurfaces(ctx context.Context) error
	Name() string
}

// SurfaceReloadWorker asks the storage backend to redraw external surfaces
// after writes. Requests coalesce: while one reload is pending, further
// requests are absorbed by it.
type SurfaceReloadWorker struct {
	backend SurfaceBackend
	metrics *metrics.Metrics
	jobs    chan struct{}
	done    chan struct{}
}

func NewSurfaceReloadWorker(backend SurfaceBackend, m *metrics.Metrics) *SurfaceReloadWorker {
	return &SurfaceReloadWorker{
		backend: backend,
		metrics: m,
		jobs:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (w *SurfaceReloadWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		log.Println("[WORKER] Surface reload worker started in background...")
		for {
			select {
			case <-w.jobs:
				w.process(ctx)
			case <-ctx.Done():
				log.Println("[WORKER] Surface reload worker shutting down...")
				return
			}
		}
	}()
}

// Enqueue never blocks.
func (w *SurfaceReloadWorker) Enqueue() {
	select {
	case w.jobs <- struct{}{}:
	default:
	}
}

// Done is closed once a started worker has stopped.
func (w *SurfaceReloadWorker) Done() <-chan struct{} {
	return w.done
}

// Drain runs a pending reload on the caller's goroutine. One-shot commands
// use it instead of Start.
func (w *SurfaceReloadWorker) Drain(ctx context.Context) bool {
	select {
	case <-w.jobs:
		w.process(ctx)
		return true
	default:
		return false
	}
}

func (w *SurfaceReloadWorker) process(ctx context.Context) {
	err := w.backend.ReloadSurfaces(ctx)
	w.metrics.ObserveReload(err)
	if err != nil {
		log.Printf("[WORKER] Surface reload on %s backend failed: %v", w.backend.Name(), err)
	}
}

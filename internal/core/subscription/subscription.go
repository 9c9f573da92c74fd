// Package subscription keeps a live, fully rebuilt view of the habits for
// presentation layers.
package subscription

import (
	"context"
	"sync"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/widgets"
)

// Snapshot is the complete view derived from one emitted document. A new
// emission always produces a new Snapshot; nothing is patched in place.
type Snapshot struct {
	Document *domain.HabitDocument
	Entities []*services.HabitEntity
	Widgets  *widgets.Index
}

func newSnapshot(svc *services.HabitService, doc *domain.HabitDocument) *Snapshot {
	return &Snapshot{
		Document: doc,
		Entities: svc.Entities(doc),
		Widgets:  widgets.Build(doc.Habits),
	}
}

// Subscription follows the store's emissions until Close is called or its
// context ends.
type Subscription struct {
	mu     sync.RWMutex
	latest *Snapshot

	stop context.CancelFunc
	done chan struct{}
}

// Subscribe starts delivering snapshots to onChange, beginning with the
// current document. onChange runs on the subscription's goroutine and may be
// nil when only Latest is used.
func Subscribe(ctx context.Context, svc *services.HabitService, onChange func(*Snapshot)) *Subscription {
	ctx, stop := context.WithCancel(ctx)
	docs, release := svc.Store().Subscribe(ctx)

	sub := &Subscription{
		stop: stop,
		done: make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer release()

		for {
			select {
			case <-ctx.Done():
				return
			case doc, ok := <-docs:
				if !ok {
					return
				}
				snap := newSnapshot(svc, doc)

				sub.mu.Lock()
				sub.latest = snap
				sub.mu.Unlock()

				if onChange != nil {
					onChange(snap)
				}
			}
		}
	}()

	return sub
}

// Latest returns the most recent snapshot, or nil before the first emission
// has been processed.
func (s *Subscription) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Close ends the subscription. It is safe to call more than once and from
// inside onChange.
func (s *Subscription) Close() {
	s.stop()
}

// Done is closed once the subscription has released the store.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

package subscription

import (
	"context"
	"log"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/store"
)

// Lifecycle relays application state changes to the store. Becoming active
// rereads the backend, since the widget surface may have written meanwhile.
type Lifecycle struct {
	store *store.HabitStore
}

func NewLifecycle(st *store.HabitStore) *Lifecycle {
	return &Lifecycle{store: st}
}

func (l *Lifecycle) AppBecameActive(ctx context.Context) error {
	doc, err := l.store.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Printf("[LIFECYCLE] App became active, reloaded %d habits", len(doc.Habits))
	return nil
}

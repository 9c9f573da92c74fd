package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/metrics"
)

// SurfaceReloader receives best-effort requests to redraw external surfaces.
type SurfaceReloader interface {
	Enqueue()
}

// HabitStore is the only writer of the habit document. Every successful save
// is emitted to subscribers and followed by a widget reload request. Merging
// is the caller's job: Save always receives a complete document.
type HabitStore struct {
	backend  domain.StorageBackend
	key      string
	bus      *Broadcaster
	reloader SurfaceReloader
	metrics  *metrics.Metrics

	primeMu sync.Mutex
}

func NewHabitStore(backend domain.StorageBackend, reloader SurfaceReloader, m *metrics.Metrics) *HabitStore {
	return &HabitStore{
		backend:  backend,
		key:      domain.StorageKey,
		bus:      NewBroadcaster(),
		reloader: reloader,
		metrics:  m,
	}
}

func (s *HabitStore) Backend() domain.StorageBackend {
	return s.backend
}

// Load returns the stored document. Backend failures and corrupt data are
// logged and answered with the empty document.
func (s *HabitStore) Load(ctx context.Context) *domain.HabitDocument {
	doc, err := s.LoadForWrite(ctx)
	if err != nil {
		log.Printf("[STORE] Load failed, using empty document: %v", err)
		return domain.NewDocument()
	}
	return doc
}

// LoadForWrite is the strict read used by read-modify-write cycles: a backend
// failure is returned as ErrPersistenceFailure instead of an empty document,
// so a write is never computed from a fallback. Corrupt data still reads as
// empty.
func (s *HabitStore) LoadForWrite(ctx context.Context) (*domain.HabitDocument, error) {
	data, err := s.backend.Load(ctx, s.key)
	if err != nil {
		s.metrics.ObserveLoad(metrics.ResultError)
		return nil, fmt.Errorf("%w: load from %s: %v", domain.ErrPersistenceFailure, s.backend.Name(), err)
	}

	if data == nil {
		s.metrics.ObserveLoad(metrics.ResultEmpty)
		return domain.NewDocument(), nil
	}

	doc, err := domain.ParseDocument(data)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptDocument) {
			log.Printf("[STORE] Corrupted document in %s backend, treating as empty: %v", s.backend.Name(), err)
			s.metrics.ObserveLoad(metrics.ResultCorrupt)
			return domain.NewDocument(), nil
		}
		return nil, err
	}

	s.metrics.ObserveLoad(metrics.ResultOK)
	return doc, nil
}

// Save persists doc, then emits it and requests a surface reload. A failed
// save emits nothing.
func (s *HabitStore) Save(ctx context.Context, doc *domain.HabitDocument) error {
	data, err := doc.Encode()
	if err != nil {
		s.metrics.ObserveSave(err)
		return fmt.Errorf("%w: encode document: %v", domain.ErrPersistenceFailure, err)
	}

	if err := s.backend.Save(ctx, s.key, data); err != nil {
		s.metrics.ObserveSave(err)
		log.Printf("[STORE] Save to %s backend failed: %v", s.backend.Name(), err)
		return fmt.Errorf("%w: save to %s: %v", domain.ErrPersistenceFailure, s.backend.Name(), err)
	}

	s.metrics.ObserveSave(nil)
	s.bus.Publish(doc)
	s.requestReload()
	return nil
}

// Clear removes the stored document and emits the empty one.
func (s *HabitStore) Clear(ctx context.Context) error {
	if err := s.backend.Clear(ctx, s.key); err != nil {
		log.Printf("[STORE] Clear on %s backend failed: %v", s.backend.Name(), err)
		return fmt.Errorf("%w: clear %s: %v", domain.ErrPersistenceFailure, s.backend.Name(), err)
	}

	s.bus.Publish(domain.NewDocument())
	s.requestReload()
	return nil
}

// Refresh rereads the backend and emits the result. It recovers changes made
// out of band, for example by the widget surface. A failed read emits nothing
// and subscribers keep the last good document.
func (s *HabitStore) Refresh(ctx context.Context) (*domain.HabitDocument, error) {
	doc, err := s.LoadForWrite(ctx)
	if err != nil {
		log.Printf("[STORE] Refresh failed, keeping last emitted document: %v", err)
		return nil, err
	}
	s.bus.Publish(doc)
	return doc, nil
}

// Subscribe streams documents, starting with the current one. The returned
// function must be called to release the subscription.
func (s *HabitStore) Subscribe(ctx context.Context) (<-chan *domain.HabitDocument, func()) {
	s.prime(ctx)

	ch, cancel := s.bus.Subscribe()
	s.metrics.SubscriberAdded()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cancel()
			s.metrics.SubscriberRemoved()
		})
	}
}

// prime loads the document once so that the first subscriber has something to
// replay. The empty fallback of a failed read is never emitted, so the next
// subscriber or save tries again.
func (s *HabitStore) prime(ctx context.Context) {
	s.primeMu.Lock()
	defer s.primeMu.Unlock()

	if s.bus.Last() != nil {
		return
	}
	doc, err := s.LoadForWrite(ctx)
	if err != nil {
		log.Printf("[STORE] Initial load failed, nothing emitted: %v", err)
		return
	}
	s.bus.Publish(doc)
}

// Current returns the last emitted document, loading it if nothing has been
// emitted yet. While the backend is unreadable it answers the empty document
// without emitting it.
func (s *HabitStore) Current(ctx context.Context) *domain.HabitDocument {
	if doc := s.bus.Last(); doc != nil {
		return doc
	}
	s.prime(ctx)
	if doc := s.bus.Last(); doc != nil {
		return doc
	}
	return s.Load(ctx)
}

func (s *HabitStore) Subscribers() int {
	return s.bus.Subscribers()
}

func (s *HabitStore) requestReload() {
	if s.reloader == nil {
		return
	}
	s.reloader.Enqueue()
}

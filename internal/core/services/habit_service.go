package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/store"
)

// HabitService owns every read-modify-write cycle against the habit document.
// A cycle loads once and saves once. Cycles started in this process are
// serialised.
type HabitService struct {
	store *store.HabitStore
	clock Clock

	mu sync.Mutex
}

func NewHabitService(st *store.HabitStore, clock Clock) *HabitService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &HabitService{
		store: st,
		clock: clock,
	}
}

type CreateHabitInput struct {
	ID        string
	Name      string
	Kind      domain.HabitKind
	Unit      string
	Goal      *float64
	Color     string
	Icon      string
	ListOrder *int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Today() string {
	return domain.DateKey(s.clock.Now())
}

func (s *HabitService) Store() *store.HabitStore {
	return s.store
}

// errUnchanged lets a modify callback finish the cycle without saving.
var errUnchanged = errors.New("document unchanged")

func (s *HabitService) modify(ctx context.Context, fn func(doc *domain.HabitDocument) error) (*domain.HabitDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.LoadForWrite(ctx)
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		if errors.Is(err, errUnchanged) {
			return doc, nil
		}
		return nil, err
	}

	today := s.Today()
	for _, h := range doc.Habits {
		h.RefreshCurrent(today)
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *HabitService) modifyRecord(ctx context.Context, id string, fn func(doc *domain.HabitDocument, rec *domain.HabitRecord) error) (*domain.HabitRecord, error) {
	var updated *domain.HabitRecord

	_, err := s.modify(ctx, func(doc *domain.HabitDocument) error {
		rec, _ := doc.Find(id)
		if rec == nil {
			return domain.ErrHabitNotFound
		}
		if err := fn(doc, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated.Clone(), nil
}

// Create appends a new habit, or merges into the habit with the same id.
func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*HabitEntity, error) {
	var result *domain.HabitRecord

	_, err := s.modify(ctx, func(doc *domain.HabitDocument) error {
		if input.ID != "" {
			if existing, _ := doc.Find(input.ID); existing != nil {
				if err := s.merge(existing, input); err != nil {
					return err
				}
				result = existing
				return nil
			}
		}

		goal := 1.0
		if input.Goal != nil {
			goal = *input.Goal
		}

		rec, err := domain.NewHabitRecord(input.Name, input.Kind, input.Unit, goal, input.Color, input.Icon)
		if err != nil {
			return err
		}

		rec.ID = input.ID
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}

		if input.ListOrder != nil {
			rec.ListOrder = *input.ListOrder
		} else {
			rec.ListOrder = doc.MaxListOrder() + 1
		}

		doc.Habits = append(doc.Habits, rec)
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.entity(result.Clone()), nil
}

func (s *HabitService) merge(existing *domain.HabitRecord, input CreateHabitInput) error {
	if input.Kind != "" && input.Kind != existing.Kind {
		return fmt.Errorf("%w: type of habit %s cannot change from %s to %s",
			domain.ErrInvalidOperation, existing.ID, existing.Kind, input.Kind)
	}

	goal := existing.Goal
	if input.Goal != nil {
		goal = *input.Goal
	}

	err := existing.Update(
		mergeString(input.Name, existing.Name),
		mergeString(input.Unit, existing.Unit),
		goal,
		mergeString(input.Color, existing.Color),
		mergeString(input.Icon, existing.Icon),
		s.Today(),
	)
	if err != nil {
		return err
	}

	if input.ListOrder != nil {
		existing.ListOrder = *input.ListOrder
	}
	return nil
}

// Delete removes the habit with its history and any widget slots it held.
func (s *HabitService) Delete(ctx context.Context, id string) error {
	_, err := s.modify(ctx, func(doc *domain.HabitDocument) error {
		if !doc.Remove(id) {
			return domain.ErrHabitNotFound
		}
		return nil
	})
	return err
}

// VacateWidgetSlot removes slot from every habit that claims it, in one write.
// Vacating a slot nobody holds writes nothing.
func (s *HabitService) VacateWidgetSlot(ctx context.Context, slot domain.WidgetSlot) error {
	_, err := s.modify(ctx, func(doc *domain.HabitDocument) error {
		removed := false
		for _, h := range doc.Habits {
			if h.RemoveSlot(slot) {
				removed = true
			}
		}
		if !removed {
			return errUnchanged
		}
		return nil
	})
	return err
}

// Reorder gives the listed habits the orders 1..n in one write. Habits not
// listed keep their relative order after them.
func (s *HabitService) Reorder(ctx context.Context, ids []string) error {
	_, err := s.modify(ctx, func(doc *domain.HabitDocument) error {
		listed := make(map[string]bool, len(ids))
		for _, id := range ids {
			if listed[id] {
				return fmt.Errorf("%w: habit %s listed twice", domain.ErrInvalidOperation, id)
			}
			if rec, _ := doc.Find(id); rec == nil {
				return domain.ErrHabitNotFound
			}
			listed[id] = true
		}

		rest := make([]*domain.HabitRecord, 0, len(doc.Habits))
		for _, rec := range doc.Sorted() {
			if !listed[rec.ID] {
				rest = append(rest, rec)
			}
		}

		for i, id := range ids {
			rec, _ := doc.Find(id)
			rec.ListOrder = i + 1
		}
		for i, rec := range rest {
			rec.ListOrder = len(ids) + i + 1
		}
		return nil
	})
	return err
}

func (s *HabitService) List(ctx context.Context) []*HabitEntity {
	return s.Entities(s.store.Load(ctx))
}

func (s *HabitService) Get(ctx context.Context, id string) (*HabitEntity, error) {
	rec, _ := s.store.Load(ctx).Find(id)
	if rec == nil {
		return nil, domain.ErrHabitNotFound
	}
	return s.entity(rec), nil
}

// Entities projects a document into entities ordered for display.
func (s *HabitService) Entities(doc *domain.HabitDocument) []*HabitEntity {
	sorted := doc.Sorted()
	entities := make([]*HabitEntity, 0, len(sorted))
	for _, rec := range sorted {
		entities = append(entities, s.entity(rec.Clone()))
	}
	return entities
}

func (s *HabitService) entity(rec *domain.HabitRecord) *HabitEntity {
	return &HabitEntity{svc: s, record: rec}
}

func resolveDate(date string) (string, error) {
	return domain.NormalizeDateKey(date)
}

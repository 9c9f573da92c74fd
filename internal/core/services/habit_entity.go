package services

import (
	"context"
	"fmt"
	"math"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

// HabitEntity is a projection of one habit record and the only way callers
// mutate a habit. Every operation is a read-modify-write of the whole
// document; on success the projection is refreshed from what was written.
type HabitEntity struct {
	svc    *HabitService
	record *domain.HabitRecord
}

func (e *HabitEntity) ID() string             { return e.record.ID }
func (e *HabitEntity) Name() string           { return e.record.Name }
func (e *HabitEntity) Kind() domain.HabitKind { return e.record.Kind }
func (e *HabitEntity) Unit() string           { return e.record.Unit }
func (e *HabitEntity) Goal() float64          { return e.record.EffectiveGoal() }
func (e *HabitEntity) Color() string          { return e.record.Color }
func (e *HabitEntity) Icon() string           { return e.record.Icon }
func (e *HabitEntity) ListOrder() int         { return e.record.ListOrder }

// CurrentQuantity is today's value, read from history rather than the cached
// field.
func (e *HabitEntity) CurrentQuantity() float64 {
	return e.record.QuantityOn(e.svc.Today())
}

func (e *HabitEntity) Entry(date string) (domain.HistoryEntry, bool) {
	entry, ok := e.record.History[date]
	return entry, ok
}

func (e *HabitEntity) History() map[string]domain.HistoryEntry {
	return e.record.Clone().History
}

func (e *HabitEntity) Completion(date string) domain.CompletionState {
	return e.record.Completion(date)
}

func (e *HabitEntity) CompletionToday() domain.CompletionState {
	return e.record.Completion(e.svc.Today())
}

func (e *HabitEntity) Streaks() (int, int) {
	return domain.CalculateStreaks(e.record, e.svc.Today())
}

func (e *HabitEntity) WidgetSlots() []domain.WidgetSlot {
	return e.record.Slots()
}

// Record returns a copy of the underlying record.
func (e *HabitEntity) Record() *domain.HabitRecord {
	return e.record.Clone()
}

func (e *HabitEntity) requireKind(kind domain.HabitKind, op string) error {
	if e.record.Kind != kind {
		return fmt.Errorf("%w: %s on a %s habit", domain.ErrInvalidOperation, op, e.record.Kind)
	}
	return nil
}

func (e *HabitEntity) apply(ctx context.Context, fn func(doc *domain.HabitDocument, rec *domain.HabitRecord) error) error {
	updated, err := e.svc.modifyRecord(ctx, e.record.ID, fn)
	if err != nil {
		return err
	}
	e.record = updated
	return nil
}

func (e *HabitEntity) Increment(ctx context.Context, delta float64) error {
	return e.IncrementOn(ctx, delta, e.svc.Today())
}

// IncrementOn adds delta to the day's quantity, clamping at zero. The day
// keeps its recorded goal, or takes the habit's current goal if it has none.
func (e *HabitEntity) IncrementOn(ctx context.Context, delta float64, date string) error {
	if err := e.requireKind(domain.HabitKindQuantity, "increment"); err != nil {
		return err
	}
	day, err := resolveDate(date)
	if err != nil {
		return err
	}

	return e.apply(ctx, func(doc *domain.HabitDocument, rec *domain.HabitRecord) error {
		quantity := math.Max(0, rec.QuantityOn(day)+delta)
		return rec.RecordDay(day, quantity, rec.GoalOn(day))
	})
}

func (e *HabitEntity) SetChecked(ctx context.Context, checked bool) error {
	return e.SetCheckedOn(ctx, checked, e.svc.Today())
}

func (e *HabitEntity) SetCheckedOn(ctx context.Context, checked bool, date string) error {
	if err := e.requireKind(domain.HabitKindCheckbox, "set checked"); err != nil {
		return err
	}
	day, err := resolveDate(date)
	if err != nil {
		return err
	}

	quantity := 0.0
	if checked {
		quantity = 1
	}

	return e.apply(ctx, func(doc *domain.HabitDocument, rec *domain.HabitRecord) error {
		return rec.RecordDay(day, quantity, 1)
	})
}

// SetValue overwrites the day's quantity. Without an explicit goal the day
// keeps its recorded goal, falling back to the habit's current goal; passing
// a goal is the only way to rewrite the goal of a past day.
func (e *HabitEntity) SetValue(ctx context.Context, quantity float64, date string, goal *float64) error {
	if err := e.requireKind(domain.HabitKindQuantity, "set value"); err != nil {
		return err
	}
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	if goal != nil && *goal < 0 {
		return domain.ErrInvalidGoal
	}
	day, err := resolveDate(date)
	if err != nil {
		return err
	}

	return e.apply(ctx, func(doc *domain.HabitDocument, rec *domain.HabitRecord) error {
		dayGoal := rec.GoalOn(day)
		if goal != nil {
			dayGoal = *goal
		}
		return rec.RecordDay(day, quantity, dayGoal)
	})
}

// Reorder rewrites this habit's position only. Use HabitService.Reorder to
// move several habits in one write.
func (e *HabitEntity) Reorder(ctx context.Context, newOrder int) error {
	return e.apply(ctx, func(doc *domain.HabitDocument, rec *domain.HabitRecord) error {
		rec.ListOrder = newOrder
		return nil
	})
}

// AssignToWidgetSlot moves this habit into slot, vacating it from whichever
// habit held it, in the same write.
func (e *HabitEntity) AssignToWidgetSlot(ctx context.Context, slot domain.WidgetSlot) error {
	if !domain.IsCatalogSlot(slot) {
		return fmt.Errorf("%w: unknown widget slot %s", domain.ErrInvalidOperation, slot)
	}

	return e.apply(ctx, func(doc *domain.HabitDocument, rec *domain.HabitRecord) error {
		for _, h := range doc.Habits {
			h.RemoveSlot(slot)
		}
		rec.AddSlot(slot)
		return nil
	})
}

func (e *HabitEntity) VacateWidgetSlot(ctx context.Context, slot domain.WidgetSlot) error {
	return e.apply(ctx, func(doc *domain.HabitDocument, rec *domain.HabitRecord) error {
		rec.RemoveSlot(slot)
		return nil
	})
}

// Reload replaces the projection with the stored record.
func (e *HabitEntity) Reload(ctx context.Context) error {
	fresh, err := e.svc.Get(ctx, e.record.ID)
	if err != nil {
		return err
	}
	e.record = fresh.record
	return nil
}

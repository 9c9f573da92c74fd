// Package widgets answers which habit each home-screen slot shows.
package widgets

import (
	"sort"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

type Entry struct {
	Slot    domain.WidgetSlot `json:"slot"`
	HabitID string            `json:"habit_id,omitempty"`
}

// Index maps every catalog slot to at most one habit. Slots outside the
// catalog are ignored.
type Index struct {
	holders map[domain.WidgetSlot]string
	slots   map[string][]domain.WidgetSlot
}

// Build indexes the assignments of records. Stored data written by another
// surface can claim one slot for two habits; the habit that sorts first by
// list order keeps it.
func Build(records []*domain.HabitRecord) *Index {
	sorted := append([]*domain.HabitRecord{}, records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ListOrder < sorted[j].ListOrder
	})

	idx := &Index{
		holders: make(map[domain.WidgetSlot]string),
		slots:   make(map[string][]domain.WidgetSlot),
	}

	for _, h := range sorted {
		for _, slot := range h.Slots() {
			if !domain.IsCatalogSlot(slot) {
				continue
			}
			if _, taken := idx.holders[slot]; taken {
				continue
			}
			idx.holders[slot] = h.ID
		}
	}

	for _, slot := range domain.SlotCatalog() {
		if id, ok := idx.holders[slot]; ok {
			idx.slots[id] = append(idx.slots[id], slot)
		}
	}

	return idx
}

// HabitFor returns the id of the habit shown in slot.
func (i *Index) HabitFor(slot domain.WidgetSlot) (string, bool) {
	id, ok := i.holders[slot]
	return id, ok
}

// Entries lists the whole catalog in display order, empty slots included.
func (i *Index) Entries() []Entry {
	catalog := domain.SlotCatalog()
	entries := make([]Entry, 0, len(catalog))
	for _, slot := range catalog {
		entries = append(entries, Entry{Slot: slot, HabitID: i.holders[slot]})
	}
	return entries
}

func (i *Index) SlotsFor(habitID string) []domain.WidgetSlot {
	return append([]domain.WidgetSlot{}, i.slots[habitID]...)
}

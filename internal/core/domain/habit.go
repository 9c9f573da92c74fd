package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrHabitNameEmpty   = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong = errors.New("habit name is too long (max 100 chars)")
	ErrInvalidHabitKind = errors.New("invalid habit type (must be checkbox or quantity)")
	ErrInvalidGoal      = errors.New("goal cannot be negative")
	ErrInvalidColor     = errors.New("color is not part of the palette")
	ErrInvalidQuantity  = errors.New("quantity cannot be negative")
)

type HabitKind string

const (
	HabitKindCheckbox HabitKind = "checkbox"
	HabitKindQuantity HabitKind = "quantity"
	MaxNameLen                  = 100
)

// Palette is the fixed set of colour tokens a habit can be displayed with.
var Palette = []string{
	"red", "orange", "amber", "green", "teal", "sky", "blue", "indigo", "purple", "pink", "gray",
}

const DefaultColor = "blue"

// HistoryEntry is one day of progress. Fields written by other clients, such
// as a note, survive load and save.
type HistoryEntry struct {
	Quantity float64 `json:"quantity"`
	Goal     float64 `json:"goal"`

	extra map[string]json.RawMessage
}

func (e HistoryEntry) clone() HistoryEntry {
	e.extra = cloneRaw(e.extra)
	return e
}

type WidgetConfig struct {
	Assignments []WidgetAssignment `json:"assignments"`

	extra map[string]json.RawMessage
}

type HabitRecord struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Kind            HabitKind               `json:"type"`
	Unit            string                  `json:"unit,omitempty"`
	Goal            float64                 `json:"goal"`
	Color           string                  `json:"bgColor"`
	Icon            string                  `json:"icon,omitempty"`
	CurrentQuantity float64                 `json:"quantity"`
	ListOrder       int                     `json:"listOrder"`
	Widgets         *WidgetConfig           `json:"widgets,omitempty"`
	History         map[string]HistoryEntry `json:"history"`

	extra map[string]json.RawMessage
}

func validColor(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

func validateAndNormalize(name string, kind HabitKind, goal float64, color string) (string, float64, string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", 0, "", ErrHabitNameEmpty
	}
	if len(trimmed) > MaxNameLen {
		return "", 0, "", ErrHabitNameTooLong
	}

	switch kind {
	case HabitKindCheckbox:
		goal = 1
	case HabitKindQuantity:
		if goal < 0 {
			return "", 0, "", ErrInvalidGoal
		}
	default:
		return "", 0, "", ErrInvalidHabitKind
	}

	if color == "" {
		color = DefaultColor
	} else if !validColor(color) {
		return "", 0, "", ErrInvalidColor
	}

	return trimmed, goal, color, nil
}

// NewHabitRecord validates the user-facing fields of a habit. ID and ListOrder
// are left for the caller to assign.
func NewHabitRecord(name string, kind HabitKind, unit string, goal float64, color, icon string) (*HabitRecord, error) {
	cleanName, safeGoal, safeColor, err := validateAndNormalize(name, kind, goal, color)
	if err != nil {
		return nil, err
	}

	if kind == HabitKindCheckbox {
		unit = ""
	}

	return &HabitRecord{
		Name:    cleanName,
		Kind:    kind,
		Unit:    strings.TrimSpace(unit),
		Goal:    safeGoal,
		Color:   safeColor,
		Icon:    icon,
		History: make(map[string]HistoryEntry),
	}, nil
}

// Update applies editable fields in place. Kind is immutable. When the goal
// changes, today's entry follows it; earlier days keep the goal they recorded.
func (h *HabitRecord) Update(name, unit string, goal float64, color, icon, today string) error {
	cleanName, safeGoal, safeColor, err := validateAndNormalize(name, h.Kind, goal, color)
	if err != nil {
		return err
	}

	if h.Kind == HabitKindCheckbox {
		unit = ""
	}

	if safeGoal != h.Goal {
		if entry, ok := h.History[today]; ok {
			entry.Goal = safeGoal
			h.History[today] = entry
		}
	}

	h.Name = cleanName
	h.Unit = strings.TrimSpace(unit)
	h.Goal = safeGoal
	h.Color = safeColor
	h.Icon = icon
	return nil
}

func (h *HabitRecord) EffectiveGoal() float64 {
	if h.Kind == HabitKindCheckbox {
		return 1
	}
	return h.Goal
}

// GoalOn returns the goal recorded for date, falling back to the current goal.
func (h *HabitRecord) GoalOn(date string) float64 {
	if entry, ok := h.History[date]; ok {
		return entry.Goal
	}
	return h.EffectiveGoal()
}

func (h *HabitRecord) QuantityOn(date string) float64 {
	return h.History[date].Quantity
}

func (h *HabitRecord) SetEntry(date string, entry HistoryEntry) error {
	if entry.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if h.History == nil {
		h.History = make(map[string]HistoryEntry)
	}
	h.History[date] = entry
	return nil
}

// RecordDay sets the day's quantity and goal, keeping whatever else the stored
// entry carries.
func (h *HabitRecord) RecordDay(date string, quantity, goal float64) error {
	entry := h.History[date].clone()
	entry.Quantity = quantity
	entry.Goal = goal
	return h.SetEntry(date, entry)
}

// RefreshCurrent recomputes the cached quantity from today's entry.
func (h *HabitRecord) RefreshCurrent(today string) {
	h.CurrentQuantity = h.History[today].Quantity
}

func (h *HabitRecord) Completion(date string) CompletionState {
	entry, ok := h.History[date]
	if !ok {
		return CompletionFor(0, h.EffectiveGoal())
	}
	return CompletionFor(entry.Quantity, entry.Goal)
}

func (h *HabitRecord) HoldsSlot(slot WidgetSlot) bool {
	if h.Widgets == nil {
		return false
	}
	for _, a := range h.Widgets.Assignments {
		if a.Slot() == slot {
			return true
		}
	}
	return false
}

func (h *HabitRecord) AddSlot(slot WidgetSlot) {
	if h.HoldsSlot(slot) {
		return
	}
	if h.Widgets == nil {
		h.Widgets = &WidgetConfig{}
	}
	h.Widgets.Assignments = append(h.Widgets.Assignments, WidgetAssignment{Type: slot.Type, Order: slot.Order})
}

// RemoveSlot reports whether the slot was held.
func (h *HabitRecord) RemoveSlot(slot WidgetSlot) bool {
	if h.Widgets == nil {
		return false
	}
	kept := h.Widgets.Assignments[:0]
	removed := false
	for _, a := range h.Widgets.Assignments {
		if a.Slot() == slot {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	h.Widgets.Assignments = kept
	return removed
}

func (h *HabitRecord) Slots() []WidgetSlot {
	if h.Widgets == nil {
		return nil
	}
	slots := make([]WidgetSlot, 0, len(h.Widgets.Assignments))
	for _, a := range h.Widgets.Assignments {
		slots = append(slots, a.Slot())
	}
	return slots
}

func (h *HabitRecord) Clone() *HabitRecord {
	clone := *h

	if h.History != nil {
		clone.History = make(map[string]HistoryEntry, len(h.History))
		for k, v := range h.History {
			clone.History[k] = v.clone()
		}
	}

	if h.Widgets != nil {
		w := &WidgetConfig{extra: cloneRaw(h.Widgets.extra)}
		if h.Widgets.Assignments != nil {
			w.Assignments = make([]WidgetAssignment, 0, len(h.Widgets.Assignments))
			for _, a := range h.Widgets.Assignments {
				w.Assignments = append(w.Assignments, a.clone())
			}
		}
		clone.Widgets = w
	}

	clone.extra = cloneRaw(h.extra)
	return &clone
}

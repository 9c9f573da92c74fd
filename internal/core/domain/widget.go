package domain

import (
	"encoding/json"
	"fmt"
)

const (
	SlotSmall  = "small"
	SlotMedium = "medium"
	SlotLarge  = "large"
)

// WidgetSlot identifies one home-screen display position.
type WidgetSlot struct {
	Type  string `json:"type"`
	Order int    `json:"order"`
}

func (s WidgetSlot) String() string {
	return fmt.Sprintf("%s/%d", s.Type, s.Order)
}

// WidgetAssignment is a slot claim as stored. The widget renderer may add its
// own fields, which are written back untouched.
type WidgetAssignment struct {
	Type  string `json:"type"`
	Order int    `json:"order"`

	extra map[string]json.RawMessage
}

func (a WidgetAssignment) clone() WidgetAssignment {
	a.extra = cloneRaw(a.extra)
	return a
}

func (a WidgetAssignment) Slot() WidgetSlot {
	return WidgetSlot{Type: a.Type, Order: a.Order}
}

var slotCapacity = []struct {
	kind  string
	count int
}{
	{SlotSmall, 4},
	{SlotMedium, 2},
	{SlotLarge, 1},
}

// SlotCatalog lists every slot the widget surface can render, in display order.
func SlotCatalog() []WidgetSlot {
	var slots []WidgetSlot
	for _, c := range slotCapacity {
		for order := 1; order <= c.count; order++ {
			slots = append(slots, WidgetSlot{Type: c.kind, Order: order})
		}
	}
	return slots
}

func IsCatalogSlot(slot WidgetSlot) bool {
	for _, s := range SlotCatalog() {
		if s == slot {
			return true
		}
	}
	return false
}

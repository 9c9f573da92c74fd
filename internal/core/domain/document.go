package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// HabitDocument is the whole persisted unit. Fields this version does not know
// about are kept and written back on the next save.
type HabitDocument struct {
	Habits []*HabitRecord `json:"habits"`

	extra map[string]json.RawMessage
}

var (
	documentFields = []string{"habits"}
	recordFields   = []string{
		"id", "name", "type", "unit", "goal", "bgColor", "icon",
		"quantity", "listOrder", "widgets", "history",
	}
	widgetFields     = []string{"assignments"}
	assignmentFields = []string{"type", "order"}
	historyFields    = []string{"quantity", "goal"}
)

func NewDocument() *HabitDocument {
	return &HabitDocument{Habits: []*HabitRecord{}}
}

// ParseDocument decodes a stored document. Empty input is an empty document;
// malformed input is ErrCorruptDocument.
func ParseDocument(data []byte) (*HabitDocument, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	var doc HabitDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	doc.normalize()
	return &doc, nil
}

func (d *HabitDocument) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// normalize drops null and duplicate records and folds history keys to their
// canonical spelling. The first record seen for an id wins.
func (d *HabitDocument) normalize() {
	seen := make(map[string]bool, len(d.Habits))
	kept := make([]*HabitRecord, 0, len(d.Habits))

	for _, h := range d.Habits {
		if h == nil || seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		h.History = normalizeHistory(h.History)
		kept = append(kept, h)
	}

	d.Habits = kept
}

// normalizeHistory drops unparseable keys and folds the rest to their canonical
// spelling. A key already in canonical form wins; among loose spellings of the
// same day the first in key order wins.
func normalizeHistory(history map[string]HistoryEntry) map[string]HistoryEntry {
	keys := make([]string, 0, len(history))
	for key := range history {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	clean := make(map[string]HistoryEntry, len(history))
	exact := make(map[string]bool, len(history))

	for _, key := range keys {
		canonical, err := NormalizeDateKey(key)
		if err != nil {
			continue
		}
		if exact[canonical] {
			continue
		}
		if _, exists := clean[canonical]; exists && canonical != key {
			continue
		}
		clean[canonical] = history[key]
		exact[canonical] = canonical == key
	}

	return clean
}

func (d *HabitDocument) Find(id string) (*HabitRecord, int) {
	for i, h := range d.Habits {
		if h.ID == id {
			return h, i
		}
	}
	return nil, -1
}

func (d *HabitDocument) Remove(id string) bool {
	_, idx := d.Find(id)
	if idx < 0 {
		return false
	}
	d.Habits = append(d.Habits[:idx], d.Habits[idx+1:]...)
	return true
}

func (d *HabitDocument) MaxListOrder() int {
	highest := 0
	for _, h := range d.Habits {
		if h.ListOrder > highest {
			highest = h.ListOrder
		}
	}
	return highest
}

// Sorted returns the records ordered by ListOrder. Ties keep document order,
// which is insertion order.
func (d *HabitDocument) Sorted() []*HabitRecord {
	sorted := append([]*HabitRecord{}, d.Habits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ListOrder < sorted[j].ListOrder
	})
	return sorted
}

func (d *HabitDocument) Clone() *HabitDocument {
	clone := &HabitDocument{
		Habits: make([]*HabitRecord, 0, len(d.Habits)),
		extra:  cloneRaw(d.extra),
	}
	for _, h := range d.Habits {
		clone.Habits = append(clone.Habits, h.Clone())
	}
	return clone
}

type habitDocumentAlias HabitDocument

func (d HabitDocument) MarshalJSON() ([]byte, error) {
	alias := habitDocumentAlias(d)
	if alias.Habits == nil {
		alias.Habits = []*HabitRecord{}
	}
	return marshalWithExtra(alias, d.extra)
}

func (d *HabitDocument) UnmarshalJSON(data []byte) error {
	var alias habitDocumentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, documentFields)
	if err != nil {
		return err
	}
	*d = HabitDocument(alias)
	d.extra = extra
	return nil
}

type habitRecordAlias HabitRecord

func (h HabitRecord) MarshalJSON() ([]byte, error) {
	alias := habitRecordAlias(h)
	if alias.History == nil {
		alias.History = map[string]HistoryEntry{}
	}
	return marshalWithExtra(alias, h.extra)
}

func (h *HabitRecord) UnmarshalJSON(data []byte) error {
	var alias habitRecordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, recordFields)
	if err != nil {
		return err
	}
	*h = HabitRecord(alias)
	h.extra = extra
	return nil
}

type widgetConfigAlias WidgetConfig

func (w WidgetConfig) MarshalJSON() ([]byte, error) {
	alias := widgetConfigAlias(w)
	if alias.Assignments == nil {
		alias.Assignments = []WidgetAssignment{}
	}
	return marshalWithExtra(alias, w.extra)
}

func (w *WidgetConfig) UnmarshalJSON(data []byte) error {
	var alias widgetConfigAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, widgetFields)
	if err != nil {
		return err
	}
	*w = WidgetConfig(alias)
	w.extra = extra
	return nil
}

type widgetAssignmentAlias WidgetAssignment

func (a WidgetAssignment) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(widgetAssignmentAlias(a), a.extra)
}

func (a *WidgetAssignment) UnmarshalJSON(data []byte) error {
	var alias widgetAssignmentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, assignmentFields)
	if err != nil {
		return err
	}
	*a = WidgetAssignment(alias)
	a.extra = extra
	return nil
}

type historyEntryAlias HistoryEntry

func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(historyEntryAlias(e), e.extra)
}

func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var alias historyEntryAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, historyFields)
	if err != nil {
		return err
	}
	*e = HistoryEntry(alias)
	e.extra = extra
	return nil
}

// marshalWithExtra encodes v and appends the unknown fields in key order, so
// the output is stable across load/save cycles.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	hasFields := len(bytes.TrimSpace(data)) > 2

	for _, k := range keys {
		if hasFields {
			buf.WriteByte(',')
		}
		hasFields = true

		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func splitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func cloneRaw(src map[string]json.RawMessage) map[string]json.RawMessage {
	if src == nil {
		return nil
	}
	dst := make(map[string]json.RawMessage, len(src))
	for k, v := range src {
		dst[k] = append(json.RawMessage{}, v...)
	}
	return dst
}

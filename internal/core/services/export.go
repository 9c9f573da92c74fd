package services

import (
	"sort"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

// DayValue is one row of the flat export: a habit's quantity on one day.
type DayValue struct {
	Date      string  `json:"date"`
	HabitName string  `json:"habit"`
	Value     float64 `json:"value"`
}

// Flatten turns the document into one row per history entry, ordered by date
// and then by list order.
func Flatten(doc *domain.HabitDocument) []DayValue {
	type row struct {
		DayValue
		rank int
	}

	var rows []row
	for rank, h := range doc.Sorted() {
		for date, entry := range h.History {
			rows = append(rows, row{
				DayValue: DayValue{Date: date, HabitName: h.Name, Value: entry.Quantity},
				rank:     rank,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].rank < rows[j].rank
	})

	values := make([]DayValue, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.DayValue)
	}
	return values
}

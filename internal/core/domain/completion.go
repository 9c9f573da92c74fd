package domain

import (
	"sort"
	"time"
)

type CompletionState string

const (
	CompletionNone     CompletionState = "none"
	CompletionPartial  CompletionState = "partial"
	CompletionComplete CompletionState = "complete"
)

func CompletionFor(quantity, goal float64) CompletionState {
	switch {
	case quantity <= 0:
		return CompletionNone
	case quantity >= goal:
		return CompletionComplete
	default:
		return CompletionPartial
	}
}

// CalculateStreaks returns the current and longest runs of consecutive
// completed days. The current run survives until the end of the day after its
// last completion.
func CalculateStreaks(h *HabitRecord, today string) (int, int) {
	var days []time.Time
	for key, entry := range h.History {
		if CompletionFor(entry.Quantity, entry.Goal) != CompletionComplete {
			continue
		}
		t, err := ParseDateKey(key)
		if err != nil {
			continue
		}
		days = append(days, t)
	}

	if len(days) == 0 {
		return 0, 0
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})

	consecutive := func(later, earlier time.Time) bool {
		return later.AddDate(0, 0, -1).Equal(earlier)
	}

	current := 0
	if now, err := ParseDateKey(today); err == nil {
		if days[0].Equal(now) || consecutive(now, days[0]) {
			current = 1
			for i := 0; i < len(days)-1; i++ {
				if !consecutive(days[i], days[i+1]) {
					break
				}
				current++
			}
		}
	}

	longest := 0
	run := 1
	for i := 0; i < len(days)-1; i++ {
		if consecutive(days[i], days[i+1]) {
			run++
			continue
		}
		if run > longest {
			longest = run
		}
		run = 1
	}
	if run > longest {
		longest = run
	}

	return current, longest
}

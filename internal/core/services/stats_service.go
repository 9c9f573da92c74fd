package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/store"
)

type StatsService struct {
	store *store.HabitStore
	clock Clock
}

func NewStatsService(st *store.HabitStore, clock Clock) *StatsService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &StatsService{
		store: st,
		clock: clock,
	}
}

// GetWeeklyStats summarises every habit over the inclusive date range. A day
// counts as achieved when its entry is complete against the goal it recorded.
// Empty bounds default to the seven days ending today.
func (s *StatsService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	today := s.clock.Now()

	endKey := input.EndDate
	if endKey == "" {
		endKey = domain.DateKey(today)
	}
	endDate, err := parseBound(endKey)
	if err != nil {
		return nil, err
	}

	startKey := input.StartDate
	if startKey == "" {
		startKey = domain.DateKey(endDate.AddDate(0, 0, -6))
	}
	startDate, err := parseBound(startKey)
	if err != nil {
		return nil, err
	}

	if startDate.After(endDate) {
		return nil, domain.ErrInvalidRange
	}
	if endDate.Sub(startDate).Hours()/24 >= domain.MaxStatsRangeDays {
		return nil, fmt.Errorf("%w: range longer than %d days", domain.ErrInvalidRange, domain.MaxStatsRangeDays)
	}

	doc := s.store.Load(ctx)
	habits := doc.Sorted()
	todayKey := domain.DateKey(today)

	stats := &domain.WeeklyStats{
		StartDate:   domain.DateKey(startDate),
		EndDate:     domain.DateKey(endDate),
		TotalHabits: len(habits),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
	}

	totalDaysPossible := 0
	totalDaysCompleted := 0

	for _, h := range habits {
		hStat := domain.HabitStat{
			HabitID:       h.ID,
			HabitName:     h.Name,
			Kind:          h.Kind,
			Color:         h.Color,
			Icon:          h.Icon,
			Goal:          h.EffectiveGoal(),
			Unit:          h.Unit,
			DailyProgress: make([]float64, 0),
		}

		daysInPeriod := 0
		daysAchieved := 0

		for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
			dateKey := domain.DateKey(current)
			val := h.QuantityOn(dateKey)

			hStat.TotalValue += val
			hStat.DailyProgress = append(hStat.DailyProgress, val)

			if h.Completion(dateKey) == domain.CompletionComplete {
				daysAchieved++
				totalDaysCompleted++
			}

			daysInPeriod++
			totalDaysPossible++
		}

		hStat.DaysCompleted = daysAchieved
		if daysInPeriod > 0 {
			hStat.CompletionRate = float64(daysAchieved) / float64(daysInPeriod) * 100
		}
		hStat.CurrentStreak, hStat.LongestStreak = domain.CalculateStreaks(h, todayKey)

		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	if totalDaysPossible > 0 {
		stats.OverallRate = float64(totalDaysCompleted) / float64(totalDaysPossible) * 100
	}

	return stats, nil
}

func parseBound(key string) (time.Time, error) {
	canonical, err := domain.NormalizeDateKey(key)
	if err != nil {
		return time.Time{}, err
	}
	return domain.ParseDateKey(canonical)
}

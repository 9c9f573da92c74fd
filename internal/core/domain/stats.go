package domain

import "errors"

var ErrInvalidRange = errors.New("start date must not be after end date")

// MaxStatsRangeDays bounds a stats request so a bad query cannot walk years of
// days per habit.
const MaxStatsRangeDays = 366

type WeeklyStats struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

type HabitStat struct {
	HabitID        string    `json:"habit_id"`
	HabitName      string    `json:"habit_name"`
	Kind           HabitKind `json:"type"`
	Color          string    `json:"color"`
	Icon           string    `json:"icon"`
	Goal           float64   `json:"goal"`
	Unit           string    `json:"unit"`
	TotalValue     float64   `json:"total_value"`
	CompletionRate float64   `json:"completion_rate"`
	DaysCompleted  int       `json:"days_completed"`
	DailyProgress  []float64 `json:"daily_progress"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
}

type StatsInput struct {
	StartDate string
	EndDate   string
}

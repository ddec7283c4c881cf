package models

import (
	"time"
)

// MilestoneDefinition is a configurable wager threshold that pays a bonus
// once per user per calendar month.
type MilestoneDefinition struct {
	Amount      int64   `db:"milestone_amount"`
	BonusAmount float64 `db:"bonus_amount"`
	Description string  `db:"description"`
	IsActive    bool    `db:"is_active"`
}

// MilestoneAchievement records that a user crossed a threshold in a given
// month. Unique per (username, amount, month).
type MilestoneAchievement struct {
	ID            int64     `db:"id"`
	Username      string    `db:"username"`
	Amount        int64     `db:"milestone_amount"`
	BonusAmount   float64   `db:"bonus_amount"`
	MonthYear     string    `db:"month_year"`
	MonthlyWager  float64   `db:"monthly_wager_at_achievement"`
	Notified      bool      `db:"notified"`
	AchievedAt    time.Time `db:"achieved_at"`
}

// NextMilestone describes the smallest unachieved threshold above the
// current monthly wager.
type NextMilestone struct {
	Amount      int64
	BonusAmount float64
	Description string
	Remaining   float64
	Progress    float64
}

// MilestoneProgress is the full per-month progress report for a user.
type MilestoneProgress struct {
	MonthYear    string
	Achievements []*MilestoneAchievement
	Requests     []*MilestoneRequest
	Next         *NextMilestone
}

// MonthKey formats a time as the canonical month bucket used by
// achievements and requests.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

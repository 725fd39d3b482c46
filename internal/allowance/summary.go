package allowance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
)

// ChoreDetail is the per-assignment breakdown inside a weekly summary.
type ChoreDetail struct {
	AssignmentID        int64           `json:"assignment_id"`
	ChoreID             int64           `json:"chore_id"`
	Name                string          `json:"name"`
	AmountPerCompletion decimal.Decimal `json:"amount_per_completion"`
	Frequency           model.Frequency `json:"frequency"`
	Completions         int             `json:"completions"`
	Target              int             `json:"target"`
	AmountEarned        decimal.Decimal `json:"amount_earned"`
	Percentage          float64         `json:"percentage"`
}

// Summary is the weekly allowance view for one user: base allowance plus
// chore earnings, completion progress and payment state.
type Summary struct {
	BaseAllowance        decimal.Decimal `json:"base_allowance"`
	ChoresEarned         decimal.Decimal `json:"chores_earned"`
	Total                decimal.Decimal `json:"total"`
	ChoresCompleted      int             `json:"chores_completed"`
	ChoresTarget         int             `json:"chores_target"`
	CompletionPercentage float64         `json:"completion_percentage"`
	IsPaid               bool            `json:"is_paid"`
	PaidAt               *time.Time      `json:"paid_at"`
	ChoreDetails         []ChoreDetail   `json:"chore_details"`
}

// LastWeekSummary is the condensed view of the previous week shown on the
// dashboard.
type LastWeekSummary struct {
	ChoresCompleted int             `json:"chores_completed"`
	Total           decimal.Decimal `json:"total"`
	WeekStart       time.Time       `json:"week_start"`
	WeekEnd         time.Time       `json:"week_end"`
}

// HistoryEntry is one week in the 12-week earnings trend, oldest first.
// Weeks that were never created appear with zero values.
type HistoryEntry struct {
	WeekLabel       string          `json:"week_label"`
	WeekStart       time.Time       `json:"week_start"`
	ChoresCompleted int             `json:"chores_completed"`
	TotalEarned     decimal.Decimal `json:"total_earned"`
}

// UnpaidWeek identifies a week with a positive balance and no paid payment.
type UnpaidWeek struct {
	WeekID    int64           `json:"week_id"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Amount    decimal.Decimal `json:"amount"`
}

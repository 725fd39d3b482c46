package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage format for date-only columns.
const DateLayout = "2006-01-02"

// WeekPeriod is a Monday-to-Sunday span, uniquely keyed by its Monday.
// Periods are created lazily the first time any date inside them is
// referenced and never change afterwards.
type WeekPeriod struct {
	ID        int64     `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// ChoreAssignment binds a chore definition to one user for one week. Ad-hoc
// chores carry a custom name/amount override so a single definition can be
// displayed differently per assignment.
type ChoreAssignment struct {
	ID           int64            `json:"id"`
	WeekID       int64            `json:"week_id"`
	ChoreID      int64            `json:"chore_id"`
	UserID       int64            `json:"user_id"`
	CustomName   *string          `json:"custom_name"`
	CustomAmount *decimal.Decimal `json:"custom_amount"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DisplayName resolves the assignment's name: the custom override if present,
// otherwise the definition's name.
func (a *ChoreAssignment) DisplayName(def *ChoreDefinition) string {
	if a.CustomName != nil && *a.CustomName != "" {
		return *a.CustomName
	}
	return def.Name
}

// DisplayAmount resolves the per-completion amount: the custom override if
// present, otherwise the definition's amount.
func (a *ChoreAssignment) DisplayAmount(def *ChoreDefinition) decimal.Decimal {
	if a.CustomAmount != nil {
		return *a.CustomAmount
	}
	return def.Amount
}

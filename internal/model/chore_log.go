package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Completion slots for twice-daily chores. Other frequencies only use slot 1.
const (
	SlotMorning = 1
	SlotEvening = 2
)

// ChoreLog records one completion event. Existence of a row means the chore
// was completed for that (user, chore, date, slot); rows are created and
// deleted by toggling, never updated.
type ChoreLog struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	ChoreID       int64           `json:"chore_id"`
	WeekID        int64           `json:"week_id"`
	AssignmentID  *int64          `json:"assignment_id"`
	CompletedDate time.Time       `json:"completed_date"`
	Slot          int             `json:"slot"`
	AmountEarned  decimal.Decimal `json:"amount_earned"`
	CompletedAt   time.Time       `json:"completed_at"`
}

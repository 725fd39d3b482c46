package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyPayment records the payout for one (week, user) pair. Once a payment
// with IsPaid set exists, that week is locked for the user and completion
// toggles are rejected.
type WeeklyPayment struct {
	ID     int64           `json:"id"`
	WeekID int64           `json:"week_id"`
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	// OriginalAmount holds the calculated total when an admin overrides the
	// paid amount.
	OriginalAmount *decimal.Decimal `json:"original_amount"`
	IsPaid         bool             `json:"is_paid"`
	PaidAt         *time.Time       `json:"paid_at"`
	Notes          string           `json:"notes"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

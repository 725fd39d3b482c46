package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Email         *string         `json:"email"`
	IsAdmin       bool            `json:"is_admin"`
	BaseAllowance decimal.Decimal `json:"base_allowance"`
	HasPIN        bool            `json:"has_pin"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsChild reports whether the user is a child account. Children authenticate
// with a PIN and earn allowance; admins authenticate with a password.
func (u *User) IsChild() bool {
	return !u.IsAdmin
}

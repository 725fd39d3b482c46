package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency describes how often a chore is expected to be completed within a
// week. The policy package derives weekly targets from it.
type Frequency string

const (
	FrequencyDaily        Frequency = "daily"
	FrequencyTwiceDaily   Frequency = "twice_daily"
	FrequencyWeekly       Frequency = "weekly"
	FrequencyFlexible     Frequency = "flexible"
	FrequencySpecificDays Frequency = "specific_days"
	FrequencyAdHoc        Frequency = "ad_hoc"
)

// Valid reports whether f is one of the known frequency values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyTwiceDaily, FrequencyWeekly,
		FrequencyFlexible, FrequencySpecificDays, FrequencyAdHoc:
		return true
	}
	return false
}

// ChoreDefinition is a catalog entry describing a chore, its reward amount and
// its frequency policy. Preset definitions are shared; ad-hoc definitions are
// created for a single assignment.
type ChoreDefinition struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   Frequency       `json:"frequency"`
	TimesPerDay int             `json:"times_per_day"`
	// TimesPerWeek applies to flexible chores: completions needed for 100%.
	TimesPerWeek *int `json:"times_per_week"`
	// PreferredDays applies to specific_days chores: weekday numbers with
	// Monday = 0 through Sunday = 6.
	PreferredDays []int `json:"preferred_days"`
	IsPreset      bool  `json:"is_preset"`
	// AppliesToAll grants the chore to every child; otherwise AssignedUserIDs
	// lists the children it applies to.
	AppliesToAll    bool      `json:"applies_to_all"`
	AssignedUserIDs []int64   `json:"assigned_user_ids"`
	CreatedByUserID *int64    `json:"created_by_user_id"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

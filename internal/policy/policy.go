// Package policy derives weekly completion targets and earnable amounts from
// a chore's frequency settings. All functions are pure; persistence and
// completion counting live elsewhere.
package policy

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
)

// WeeklyTarget returns the number of completions needed in one week for 100%
// credit on the chore.
func WeeklyTarget(c *model.ChoreDefinition) int {
	switch c.Frequency {
	case model.FrequencyDaily:
		return 7
	case model.FrequencyTwiceDaily:
		return 7 * c.TimesPerDay
	case model.FrequencyWeekly:
		return 1
	case model.FrequencyFlexible:
		if c.TimesPerWeek != nil && *c.TimesPerWeek > 0 {
			return *c.TimesPerWeek
		}
		return 1
	case model.FrequencySpecificDays:
		return len(c.PreferredDays)
	default: // ad_hoc
		return 1
	}
}

// MaxWeeklyAmount returns the most a child can earn from the chore in one
// week: per-completion amount times the weekly target.
func MaxWeeklyAmount(c *model.ChoreDefinition) decimal.Decimal {
	return c.Amount.Mul(decimal.NewFromInt(int64(WeeklyTarget(c))))
}

// AppliesToUser reports whether the chore applies to the given user, either
// because it applies to all children or because the user is in its explicit
// assignee set.
func AppliesToUser(c *model.ChoreDefinition, userID int64) bool {
	if c.AppliesToAll {
		return true
	}
	return slices.Contains(c.AssignedUserIDs, userID)
}

// IsPreferredDay reports whether dayNum (Monday = 0) is a preferred day for
// the chore. Only specific_days chores restrict days; every other frequency
// always returns true. Callers that want specific_days enforcement must check
// this explicitly — nothing downstream rejects off-day completions.
func IsPreferredDay(c *model.ChoreDefinition, dayNum int) bool {
	if c.Frequency != model.FrequencySpecificDays || len(c.PreferredDays) == 0 {
		return true
	}
	return slices.Contains(c.PreferredDays, dayNum)
}

// Slots returns the completion slots a chore uses on a single day.
func Slots(c *model.ChoreDefinition) []int {
	if c.Frequency == model.FrequencyTwiceDaily {
		return []int{model.SlotMorning, model.SlotEvening}
	}
	return []int{model.SlotMorning}
}

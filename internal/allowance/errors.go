package allowance

import "errors"

var (
	// ErrWeekLocked is returned when a mutation targets a (week, user) pair
	// that already has a paid payment.
	ErrWeekLocked = errors.New("week is locked: payment already recorded")

	// ErrNotAssigned is returned when a completion toggle targets a chore the
	// user has no assignment for in that week.
	ErrNotAssigned = errors.New("chore not assigned to user for this week")

	// ErrInvalidSlot is returned for slot values other than 1, or 2 on a
	// twice-daily chore.
	ErrInvalidSlot = errors.New("invalid completion slot")
)

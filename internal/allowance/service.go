// Package allowance implements the weekly chore accounting engine: assignment
// materialization, completion toggling with payment-lock enforcement, and the
// per-child weekly money summary with its historical aggregations.
package allowance

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/policy"
	"github.com/dukewell/chorewheel/internal/store"
	"github.com/dukewell/chorewheel/internal/week"
)

const historyWeeks = 12

// teethTarget is the fixed denominator of the teeth-brushing widget:
// twice daily, seven days.
const teethTarget = 14

type Service struct {
	users       *store.UserStore
	chores      *store.ChoreStore
	weeks       *store.WeekStore
	assignments *store.AssignmentStore
	logs        *store.ChoreLogStore
	payments    *store.PaymentStore
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(
	users *store.UserStore,
	chores *store.ChoreStore,
	weeks *store.WeekStore,
	assignments *store.AssignmentStore,
	logs *store.ChoreLogStore,
	payments *store.PaymentStore,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:       users,
		chores:      chores,
		weeks:       weeks,
		assignments: assignments,
		logs:        logs,
		payments:    payments,
		logger:      logger,
		now:         time.Now,
	}
}

// CurrentWeek resolves (creating if needed) the week containing today.
func (s *Service) CurrentWeek() (*model.WeekPeriod, error) {
	return s.weeks.GetOrCreate(s.now())
}

// WeekForDate resolves (creating if needed) the week containing date.
func (s *Service) WeekForDate(date time.Time) (*model.WeekPeriod, error) {
	return s.weeks.GetOrCreate(date)
}

// EnsureAssignments materializes the user's assignments for a week on first
// access: one assignment per active preset definition that applies to the
// user. Idempotent — if any assignments already exist the set is returned
// unchanged, so later catalog edits never retroactively alter a visited week.
func (s *Service) EnsureAssignments(userID, weekID int64) ([]model.ChoreAssignment, error) {
	assignments, err := s.assignments.ListForUserWeek(userID, weekID)
	if err != nil {
		return nil, err
	}
	if len(assignments) > 0 {
		return assignments, nil
	}

	presets, err := s.chores.ListActivePresets()
	if err != nil {
		return nil, err
	}
	for i := range presets {
		if !policy.AppliesToUser(&presets[i], userID) {
			continue
		}
		if _, err := s.assignments.Create(weekID, presets[i].ID, userID, nil, nil); err != nil {
			return nil, fmt.Errorf("materialize assignment for chore %d: %w", presets[i].ID, err)
		}
	}
	s.logger.Info("materialized weekly assignments", "user_id", userID, "week_id", weekID)

	return s.assignments.ListForUserWeek(userID, weekID)
}

// AddAdHocChore creates a one-off chore for a single user and week: a
// non-preset ad_hoc definition plus exactly one assignment carrying the
// custom name and amount.
func (s *Service) AddAdHocChore(userID, weekID int64, name string, amount decimal.Decimal, createdByUserID int64) (*model.ChoreAssignment, error) {
	locked, err := s.WeekLocked(weekID, userID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrWeekLocked
	}

	def, err := s.chores.Create(&model.ChoreDefinition{
		Name:            name,
		Amount:          amount,
		Frequency:       model.FrequencyAdHoc,
		TimesPerDay:     1,
		IsPreset:        false,
		AppliesToAll:    false,
		AssignedUserIDs: []int64{userID},
		CreatedByUserID: &createdByUserID,
		IsActive:        true,
	})
	if err != nil {
		return nil, err
	}
	return s.assignments.Create(weekID, def.ID, userID, &name, &amount)
}

// RemoveAssignment deletes an assignment and purges its ledger entries. For
// ad-hoc chores the user-created definition is removed too.
func (s *Service) RemoveAssignment(assignmentID int64) error {
	a, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}

	locked, err := s.WeekLocked(a.WeekID, a.UserID)
	if err != nil {
		return err
	}
	if locked {
		return ErrWeekLocked
	}

	def, err := s.chores.GetByID(a.ChoreID)
	if err != nil {
		return err
	}
	removeDefinition := def != nil && !def.IsPreset && def.CreatedByUserID != nil
	return s.assignments.DeleteCascade(a, removeDefinition)
}

// WeekLocked reports whether (week, user) has a paid payment. Locked weeks
// reject all completion and assignment mutations.
func (s *Service) WeekLocked(weekID, userID int64) (bool, error) {
	return s.payments.IsWeekPaid(weekID, userID)
}

// ToggleCompletion flips the completion state of (user, chore, date, slot).
// The containing week is resolved from the date; the user must hold an
// assignment for the chore in that week, and the week must not be locked.
// The amount recorded on creation is the assignment's display amount.
func (s *Service) ToggleCompletion(userID, choreID int64, date time.Time, slot int) (bool, *model.ChoreLog, error) {
	def, err := s.chores.GetByID(choreID)
	if err != nil {
		return false, nil, err
	}
	if def == nil {
		return false, nil, ErrNotAssigned
	}
	if slot != model.SlotMorning && slot != model.SlotEvening {
		return false, nil, ErrInvalidSlot
	}
	if slot == model.SlotEvening && def.Frequency != model.FrequencyTwiceDaily {
		return false, nil, ErrInvalidSlot
	}

	wk, err := s.weeks.GetOrCreate(date)
	if err != nil {
		return false, nil, err
	}

	locked, err := s.WeekLocked(wk.ID, userID)
	if err != nil {
		return false, nil, err
	}
	if locked {
		return false, nil, ErrWeekLocked
	}

	assignment, err := s.findAssignment(userID, wk.ID, choreID)
	if err != nil {
		return false, nil, err
	}
	if assignment == nil {
		return false, nil, ErrNotAssigned
	}

	amount := assignment.DisplayAmount(def)
	completed, entry, err := s.logs.Toggle(userID, choreID, wk.ID, &assignment.ID, date, slot, amount)
	if err != nil {
		return false, nil, err
	}
	s.logger.Debug("toggled completion",
		"user_id", userID, "chore_id", choreID,
		"date", date.Format(model.DateLayout), "slot", slot, "completed", completed)
	return completed, entry, nil
}

func (s *Service) findAssignment(userID, weekID, choreID int64) (*model.ChoreAssignment, error) {
	assignments, err := s.assignments.ListForUserWeek(userID, weekID)
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		if assignments[i].ChoreID == choreID {
			return &assignments[i], nil
		}
	}
	return nil, nil
}

// CalculateWeeklySummary aggregates a user's assignments, ledger entries and
// payment state for one week. Returns nil (no error) when the user or week
// does not exist. It never materializes assignments — callers wanting the
// lazy default set must call EnsureAssignments first.
func (s *Service) CalculateWeeklySummary(userID, weekID int64) (*Summary, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	wk, err := s.weeks.GetByID(weekID)
	if err != nil {
		return nil, err
	}
	if wk == nil {
		return nil, nil
	}

	assignments, err := s.assignments.ListForUserWeek(userID, weekID)
	if err != nil {
		return nil, err
	}

	choresEarned := decimal.Zero
	choresCompleted := 0
	choresTarget := 0
	details := make([]ChoreDetail, 0, len(assignments))

	for i := range assignments {
		a := &assignments[i]
		def, err := s.chores.GetByID(a.ChoreID)
		if err != nil {
			return nil, err
		}
		if def == nil {
			continue
		}

		logs, err := s.logs.ListForUserChoreWeek(userID, a.ChoreID, weekID)
		if err != nil {
			return nil, err
		}

		earned := decimal.Zero
		for j := range logs {
			earned = earned.Add(logs[j].AmountEarned)
		}
		target := policy.WeeklyTarget(def)

		choresEarned = choresEarned.Add(earned)
		choresCompleted += len(logs)
		choresTarget += target

		details = append(details, ChoreDetail{
			AssignmentID:        a.ID,
			ChoreID:             def.ID,
			Name:                a.DisplayName(def),
			AmountPerCompletion: a.DisplayAmount(def),
			Frequency:           def.Frequency,
			Completions:         len(logs),
			Target:              target,
			AmountEarned:        earned,
			Percentage:          percentage(len(logs), target),
		})
	}

	payment, err := s.payments.GetForWeekUser(weekID, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		BaseAllowance:        user.BaseAllowance,
		ChoresEarned:         choresEarned.Round(2),
		Total:                user.BaseAllowance.Add(choresEarned).Round(2),
		ChoresCompleted:      choresCompleted,
		ChoresTarget:         choresTarget,
		CompletionPercentage: percentage(choresCompleted, choresTarget),
		ChoreDetails:         details,
	}
	if payment != nil {
		summary.IsPaid = payment.IsPaid
		summary.PaidAt = payment.PaidAt
	}
	return summary, nil
}

// percentage returns completed/target as a percentage rounded to 1 decimal
// place, or 0 when the target is 0.
func percentage(completed, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(target)*1000) / 10
}

// LastWeekSummary returns the condensed summary for the week before the
// current one, or nil if that week was never created. "Never created" is
// distinct from "created but empty", which yields a zero-valued summary.
func (s *Service) LastWeekSummary(userID int64) (*LastWeekSummary, error) {
	current, err := s.CurrentWeek()
	if err != nil {
		return nil, err
	}

	lastStart := current.StartDate.AddDate(0, 0, -7)
	lastWeek, err := s.weeks.GetByStartDate(lastStart)
	if err != nil {
		return nil, err
	}
	if lastWeek == nil {
		return nil, nil
	}

	summary, err := s.CalculateWeeklySummary(userID, lastWeek.ID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nil
	}

	return &LastWeekSummary{
		ChoresCompleted: summary.ChoresCompleted,
		Total:           summary.Total,
		WeekStart:       lastWeek.StartDate,
		WeekEnd:         lastWeek.EndDate,
	}, nil
}

// History returns the last 12 weeks of completion counts and earnings,
// oldest first. Weeks never created (or users/weeks that resolve to no
// summary) contribute zero entries so charts always get 12 points.
func (s *Service) History(userID int64) ([]HistoryEntry, error) {
	current, err := s.CurrentWeek()
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, historyWeeks)
	for i := 0; i < historyWeeks; i++ {
		start := current.StartDate.AddDate(0, 0, -7*i)
		entry := HistoryEntry{
			WeekLabel:   start.Format("02 Jan"),
			WeekStart:   start,
			TotalEarned: decimal.Zero,
		}

		wk, err := s.weeks.GetByStartDate(start)
		if err != nil {
			return nil, err
		}
		if wk != nil {
			summary, err := s.CalculateWeeklySummary(userID, wk.ID)
			if err != nil {
				return nil, err
			}
			if summary != nil {
				entry.ChoresCompleted = summary.ChoresCompleted
				entry.TotalEarned = summary.Total
			}
		}
		entries = append(entries, entry)
	}

	// Reverse to oldest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// UnpaidWeeks returns every week where the user has assignments, no paid
// payment exists, and the calculated total is positive, sorted ascending by
// start date.
func (s *Service) UnpaidWeeks(userID int64) ([]UnpaidWeek, error) {
	weekIDs, err := s.assignments.ListWeekIDsForUser(userID)
	if err != nil {
		return nil, err
	}

	var unpaid []UnpaidWeek
	for _, weekID := range weekIDs {
		paid, err := s.payments.IsWeekPaid(weekID, userID)
		if err != nil {
			return nil, err
		}
		if paid {
			continue
		}

		summary, err := s.CalculateWeeklySummary(userID, weekID)
		if err != nil {
			return nil, err
		}
		if summary == nil || !summary.Total.IsPositive() {
			continue
		}

		wk, err := s.weeks.GetByID(weekID)
		if err != nil {
			return nil, err
		}
		unpaid = append(unpaid, UnpaidWeek{
			WeekID:    weekID,
			StartDate: wk.StartDate,
			EndDate:   wk.EndDate,
			Amount:    summary.Total,
		})
	}

	sortUnpaid(unpaid)
	return unpaid, nil
}

func sortUnpaid(weeks []UnpaidWeek) {
	for i := 1; i < len(weeks); i++ {
		for j := i; j > 0 && weeks[j].StartDate.Before(weeks[j-1].StartDate); j-- {
			weeks[j], weeks[j-1] = weeks[j-1], weeks[j]
		}
	}
}

// AdjacentWeeks returns the week periods immediately before and after the
// given week, either of which may be nil if never created.
func (s *Service) AdjacentWeeks(weekID int64) (*model.WeekPeriod, *model.WeekPeriod, error) {
	current, err := s.weeks.GetByID(weekID)
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		return nil, nil, nil
	}

	prev, err := s.weeks.GetByStartDate(current.StartDate.AddDate(0, 0, -7))
	if err != nil {
		return nil, nil, err
	}
	next, err := s.weeks.GetByStartDate(current.StartDate.AddDate(0, 0, 7))
	if err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

// TeethBrushingCount returns (completions, 14) for the first twice-daily
// chore whose name contains "teeth", or (0, 14) if none exists. Built for a
// single dashboard widget; not a general lookup mechanism.
func (s *Service) TeethBrushingCount(userID, weekID int64) (int, int, error) {
	def, err := s.chores.FindTwiceDailyByName("teeth")
	if err != nil {
		return 0, teethTarget, err
	}
	if def == nil {
		return 0, teethTarget, nil
	}
	count, err := s.logs.CompletionCount(userID, def.ID, weekID)
	if err != nil {
		return 0, teethTarget, err
	}
	return count, teethTarget, nil
}

// TotalEarned sums a user's ledger earnings, optionally bounded by completion
// date.
func (s *Service) TotalEarned(userID int64, from, to *time.Time) (decimal.Decimal, error) {
	return s.logs.SumEarned(userID, from, to)
}

// DayGrid returns, for each of the week's seven days and each slot the chore
// uses, whether a completion is logged. Keyed by day index 0-6 then slot.
func (s *Service) DayGrid(userID int64, wk *model.WeekPeriod, def *model.ChoreDefinition) (map[int]map[int]bool, error) {
	grid := make(map[int]map[int]bool, 7)
	for i, day := range week.Days(wk.StartDate) {
		grid[i] = make(map[int]bool)
		for _, slot := range policy.Slots(def) {
			done, err := s.logs.IsCompleted(userID, def.ID, day, slot)
			if err != nil {
				return nil, err
			}
			grid[i][slot] = done
		}
	}
	return grid, nil
}

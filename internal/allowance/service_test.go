package allowance

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/database"
	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/store"
)

type fixture struct {
	svc         *Service
	users       *store.UserStore
	chores      *store.ChoreStore
	weeks       *store.WeekStore
	assignments *store.AssignmentStore
	logs        *store.ChoreLogStore
	payments    *store.PaymentStore
}

// today is a fixed Wednesday; its week starts Monday 2024-03-04.
var today = time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users:       store.NewUserStore(db),
		chores:      store.NewChoreStore(db),
		weeks:       store.NewWeekStore(db),
		assignments: store.NewAssignmentStore(db),
		logs:        store.NewChoreLogStore(db),
		payments:    store.NewPaymentStore(db),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.users, f.chores, f.weeks, f.assignments, f.logs, f.payments, logger)
	f.svc.now = func() time.Time { return today }
	return f
}

func (f *fixture) child(t *testing.T, name string, baseAllowance string) *model.User {
	t.Helper()
	u, err := f.users.Create(name, nil, false, decimal.RequireFromString(baseAllowance))
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return u
}

func (f *fixture) chore(t *testing.T, name, amount string, freq model.Frequency, mutate func(*model.ChoreDefinition)) *model.ChoreDefinition {
	t.Helper()
	def := &model.ChoreDefinition{
		Name:         name,
		Amount:       decimal.RequireFromString(amount),
		Frequency:    freq,
		TimesPerDay:  1,
		IsPreset:     true,
		AppliesToAll: true,
		IsActive:     true,
	}
	if mutate != nil {
		mutate(def)
	}
	created, err := f.chores.Create(def)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return created
}

func (f *fixture) assign(t *testing.T, weekID, choreID, userID int64) *model.ChoreAssignment {
	t.Helper()
	a, err := f.assignments.Create(weekID, choreID, userID, nil, nil)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}

func (f *fixture) currentWeek(t *testing.T) *model.WeekPeriod {
	t.Helper()
	w, err := f.weeks.GetOrCreate(today)
	if err != nil {
		t.Fatalf("get current week: %v", err)
	}
	return w
}

func TestEnsureAssignmentsMaterializesPresets(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	w := f.currentWeek(t)

	// The seed migration ships 7 preset chores, all applies_to_all.
	got, err := f.svc.EnsureAssignments(child.ID, w.ID)
	if err != nil {
		t.Fatalf("ensure assignments: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("materialized %d assignments, want 7", len(got))
	}

	// Idempotent: a second call returns the same set.
	again, err := f.svc.EnsureAssignments(child.ID, w.ID)
	if err != nil {
		t.Fatalf("ensure assignments again: %v", err)
	}
	if len(again) != 7 {
		t.Fatalf("second call returned %d assignments, want 7", len(again))
	}

	// Catalog changes after materialization do not alter the week.
	f.chore(t, "Water Plants", "0.30", model.FrequencyDaily, nil)
	after, err := f.svc.EnsureAssignments(child.ID, w.ID)
	if err != nil {
		t.Fatalf("ensure after catalog change: %v", err)
	}
	if len(after) != 7 {
		t.Fatalf("got %d assignments after catalog change, want 7", len(after))
	}
}

func TestEnsureAssignmentsRespectsAllowlist(t *testing.T) {
	f := newFixture(t)
	nico := f.child(t, "Nico", "3.00")
	jack := f.child(t, "Jack", "3.00")

	// Clear the seeded catalog so only the allowlisted chore remains.
	seeded, err := f.chores.List()
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	for _, c := range seeded {
		if err := f.chores.Delete(c.ID); err != nil {
			t.Fatalf("delete seeded chore: %v", err)
		}
	}

	f.chore(t, "Feed Cat", "0.50", model.FrequencyDaily, func(c *model.ChoreDefinition) {
		c.AppliesToAll = false
		c.AssignedUserIDs = []int64{nico.ID}
	})

	w := f.currentWeek(t)
	nicoAssignments, err := f.svc.EnsureAssignments(nico.ID, w.ID)
	if err != nil {
		t.Fatalf("ensure for nico: %v", err)
	}
	if len(nicoAssignments) != 1 {
		t.Fatalf("nico got %d assignments, want 1", len(nicoAssignments))
	}

	jackAssignments, err := f.svc.EnsureAssignments(jack.ID, w.ID)
	if err != nil {
		t.Fatalf("ensure for jack: %v", err)
	}
	if len(jackAssignments) != 0 {
		t.Fatalf("jack got %d assignments, want 0", len(jackAssignments))
	}
}

func TestTogglePairRestoresState(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	w := f.currentWeek(t)
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)
	f.assign(t, w.ID, bed.ID, child.ID)

	done, entry, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotMorning)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !done || entry == nil {
		t.Fatalf("first toggle = (%v, %v), want (true, entry)", done, entry)
	}
	if !entry.AmountEarned.Equal(decimal.RequireFromString("0.50")) {
		t.Errorf("amount earned = %s, want 0.50", entry.AmountEarned)
	}

	done, entry, err = f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotMorning)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if done || entry != nil {
		t.Fatalf("second toggle = (%v, %v), want (false, nil)", done, entry)
	}

	count, err := f.logs.CompletionCount(child.ID, bed.ID, w.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("ledger has %d entries after toggle pair, want 0", count)
	}
}

func TestToggleRejectsUnassignedAndBadSlot(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	f.currentWeek(t)
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)

	if _, _, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotMorning); err != ErrNotAssigned {
		t.Errorf("toggle without assignment: err = %v, want ErrNotAssigned", err)
	}

	w := f.currentWeek(t)
	f.assign(t, w.ID, bed.ID, child.ID)
	if _, _, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotEvening); err != ErrInvalidSlot {
		t.Errorf("slot 2 on daily chore: err = %v, want ErrInvalidSlot", err)
	}
	if _, _, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, 3); err != ErrInvalidSlot {
		t.Errorf("slot 3: err = %v, want ErrInvalidSlot", err)
	}
}

func TestWeeklySummaryScenario(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	w := f.currentWeek(t)
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)
	f.assign(t, w.ID, bed.ID, child.ID)

	// Three completions across the week.
	for i := 0; i < 3; i++ {
		date := w.StartDate.AddDate(0, 0, i)
		if _, _, err := f.svc.ToggleCompletion(child.ID, bed.ID, date, model.SlotMorning); err != nil {
			t.Fatalf("toggle day %d: %v", i, err)
		}
	}

	summary, err := f.svc.CalculateWeeklySummary(child.ID, w.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary == nil {
		t.Fatal("summary is nil")
	}

	if !summary.ChoresEarned.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("chores_earned = %s, want 1.50", summary.ChoresEarned)
	}
	if !summary.Total.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("total = %s, want 4.50", summary.Total)
	}
	if summary.ChoresCompleted != 3 {
		t.Errorf("chores_completed = %d, want 3", summary.ChoresCompleted)
	}
	if summary.ChoresTarget != 7 {
		t.Errorf("chores_target = %d, want 7", summary.ChoresTarget)
	}
	if summary.CompletionPercentage != 42.9 {
		t.Errorf("completion_percentage = %v, want 42.9", summary.CompletionPercentage)
	}
	if summary.IsPaid {
		t.Error("is_paid = true, want false")
	}
	if len(summary.ChoreDetails) != 1 {
		t.Fatalf("chore_details length = %d, want 1", len(summary.ChoreDetails))
	}
	detail := summary.ChoreDetails[0]
	if detail.Completions != 3 || detail.Target != 7 {
		t.Errorf("detail = %d/%d, want 3/7", detail.Completions, detail.Target)
	}
	if !detail.AmountEarned.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("detail amount_earned = %s, want 1.50", detail.AmountEarned)
	}
}

func TestTwiceDailySummary(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "0.00")
	w := f.currentWeek(t)
	teeth := f.chore(t, "Night Brushing", "0.25", model.FrequencyTwiceDaily, func(c *model.ChoreDefinition) {
		c.TimesPerDay = 2
	})
	f.assign(t, w.ID, teeth.ID, child.ID)

	// Two days fully completed, both slots.
	for i := 0; i < 2; i++ {
		date := w.StartDate.AddDate(0, 0, i)
		for _, slot := range []int{model.SlotMorning, model.SlotEvening} {
			if _, _, err := f.svc.ToggleCompletion(child.ID, teeth.ID, date, slot); err != nil {
				t.Fatalf("toggle day %d slot %d: %v", i, slot, err)
			}
		}
	}

	count, err := f.logs.CompletionCount(child.ID, teeth.ID, w.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Errorf("completion_count = %d, want 4", count)
	}

	summary, err := f.svc.CalculateWeeklySummary(child.ID, w.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ChoresTarget != 14 {
		t.Errorf("chores_target = %d, want 14", summary.ChoresTarget)
	}
	if !summary.ChoresEarned.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("chores_earned = %s, want 1.00", summary.ChoresEarned)
	}
}

func TestEmptySummary(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	w := f.currentWeek(t)

	summary, err := f.svc.CalculateWeeklySummary(child.ID, w.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary == nil {
		t.Fatal("summary is nil for existing user and week")
	}
	if !summary.ChoresEarned.IsZero() {
		t.Errorf("chores_earned = %s, want 0", summary.ChoresEarned)
	}
	if !summary.Total.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("total = %s, want 3.00", summary.Total)
	}
	if summary.ChoresCompleted != 0 || summary.IsPaid {
		t.Errorf("completed = %d, is_paid = %v, want 0 and false", summary.ChoresCompleted, summary.IsPaid)
	}
	if summary.CompletionPercentage != 0 {
		t.Errorf("completion_percentage = %v, want 0", summary.CompletionPercentage)
	}
}

func TestSummaryNilForMissingUserOrWeek(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	w := f.currentWeek(t)

	summary, err := f.svc.CalculateWeeklySummary(999, w.ID)
	if err != nil {
		t.Fatalf("summary for missing user: %v", err)
	}
	if summary != nil {
		t.Error("summary for missing user should be nil")
	}

	summary, err = f.svc.CalculateWeeklySummary(child.ID, 999)
	if err != nil {
		t.Fatalf("summary for missing week: %v", err)
	}
	if summary != nil {
		t.Error("summary for missing week should be nil")
	}
}

func TestPaidWeekLocksToggles(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	w := f.currentWeek(t)
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)
	f.assign(t, w.ID, bed.ID, child.ID)

	if _, err := f.payments.MarkPaid(w.ID, child.ID, decimal.RequireFromString("3.50"), nil, ""); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	locked, err := f.svc.WeekLocked(w.ID, child.ID)
	if err != nil {
		t.Fatalf("week locked: %v", err)
	}
	if !locked {
		t.Fatal("week should be locked after payment")
	}

	if _, _, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotMorning); err != ErrWeekLocked {
		t.Errorf("toggle on locked week: err = %v, want ErrWeekLocked", err)
	}

	summary, err := f.svc.CalculateWeeklySummary(child.ID, w.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.IsPaid || summary.PaidAt == nil {
		t.Errorf("summary paid state = (%v, %v), want (true, non-nil)", summary.IsPaid, summary.PaidAt)
	}
}

func TestLastWeekSummary(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	f.currentWeek(t)

	// Previous week never created.
	got, err := f.svc.LastWeekSummary(child.ID)
	if err != nil {
		t.Fatalf("last week summary: %v", err)
	}
	if got != nil {
		t.Fatalf("summary for never-created week = %+v, want nil", got)
	}

	// Create it (zero activity) — now a zero-valued summary is returned.
	lastMonday := today.AddDate(0, 0, -7)
	if _, err := f.weeks.GetOrCreate(lastMonday); err != nil {
		t.Fatalf("create last week: %v", err)
	}
	got, err = f.svc.LastWeekSummary(child.ID)
	if err != nil {
		t.Fatalf("last week summary: %v", err)
	}
	if got == nil {
		t.Fatal("summary for existing empty week should not be nil")
	}
	if got.ChoresCompleted != 0 {
		t.Errorf("chores_completed = %d, want 0", got.ChoresCompleted)
	}
	if !got.Total.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("total = %s, want 3.00 (base allowance)", got.Total)
	}
}

func TestHistoryOldestFirst(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "0.00")
	w := f.currentWeek(t)
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)
	f.assign(t, w.ID, bed.ID, child.ID)
	if _, _, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotMorning); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	entries, err := f.svc.History(child.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("history length = %d, want 12", len(entries))
	}

	// Oldest first; the current week is the last entry.
	last := entries[len(entries)-1]
	if !last.WeekStart.Equal(w.StartDate) {
		t.Errorf("last entry week start = %v, want %v", last.WeekStart, w.StartDate)
	}
	if last.ChoresCompleted != 1 {
		t.Errorf("current week completions = %d, want 1", last.ChoresCompleted)
	}
	for i := 0; i < len(entries)-1; i++ {
		if !entries[i].WeekStart.Before(entries[i+1].WeekStart) {
			t.Errorf("entries not ascending at %d", i)
		}
		if entries[i].ChoresCompleted != 0 || !entries[i].TotalEarned.IsZero() {
			t.Errorf("never-created week %d should be zeroed, got %+v", i, entries[i])
		}
	}
}

func TestUnpaidWeeks(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "3.00")
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)

	// Two past weeks with assignments, one paid.
	week1, err := f.weeks.GetOrCreate(today.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("week1: %v", err)
	}
	week2, err := f.weeks.GetOrCreate(today.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("week2: %v", err)
	}
	f.assign(t, week1.ID, bed.ID, child.ID)
	f.assign(t, week2.ID, bed.ID, child.ID)

	if _, err := f.payments.MarkPaid(week2.ID, child.ID, decimal.RequireFromString("3.00"), nil, ""); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	unpaid, err := f.svc.UnpaidWeeks(child.ID)
	if err != nil {
		t.Fatalf("unpaid weeks: %v", err)
	}
	if len(unpaid) != 1 {
		t.Fatalf("unpaid count = %d, want 1", len(unpaid))
	}
	if unpaid[0].WeekID != week1.ID {
		t.Errorf("unpaid week = %d, want %d", unpaid[0].WeekID, week1.ID)
	}
	// Base allowance alone makes the total positive.
	if !unpaid[0].Amount.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("unpaid amount = %s, want 3.00", unpaid[0].Amount)
	}
}

func TestAdjacentWeeks(t *testing.T) {
	f := newFixture(t)
	w := f.currentWeek(t)

	prev, next, err := f.svc.AdjacentWeeks(w.ID)
	if err != nil {
		t.Fatalf("adjacent weeks: %v", err)
	}
	if prev != nil || next != nil {
		t.Fatalf("adjacent of isolated week = (%v, %v), want (nil, nil)", prev, next)
	}

	before, err := f.weeks.GetOrCreate(today.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("create previous week: %v", err)
	}
	prev, next, err = f.svc.AdjacentWeeks(w.ID)
	if err != nil {
		t.Fatalf("adjacent weeks: %v", err)
	}
	if prev == nil || prev.ID != before.ID {
		t.Errorf("prev = %v, want week %d", prev, before.ID)
	}
	if next != nil {
		t.Errorf("next = %v, want nil", next)
	}
}

func TestTeethBrushingCount(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "0.00")
	w := f.currentWeek(t)

	// The seeded catalog includes the twice-daily "Brush Teeth" preset.
	count, target, err := f.svc.TeethBrushingCount(child.ID, w.ID)
	if err != nil {
		t.Fatalf("teeth count: %v", err)
	}
	if count != 0 || target != 14 {
		t.Errorf("teeth count = (%d, %d), want (0, 14)", count, target)
	}

	teeth, err := f.chores.FindTwiceDailyByName("teeth")
	if err != nil || teeth == nil {
		t.Fatalf("seeded teeth chore missing: %v", err)
	}
	f.assign(t, w.ID, teeth.ID, child.ID)
	for _, slot := range []int{model.SlotMorning, model.SlotEvening} {
		if _, _, err := f.svc.ToggleCompletion(child.ID, teeth.ID, today, slot); err != nil {
			t.Fatalf("toggle slot %d: %v", slot, err)
		}
	}

	count, target, err = f.svc.TeethBrushingCount(child.ID, w.ID)
	if err != nil {
		t.Fatalf("teeth count: %v", err)
	}
	if count != 2 || target != 14 {
		t.Errorf("teeth count = (%d, %d), want (2, 14)", count, target)
	}
}

func TestAdHocChoreLifecycle(t *testing.T) {
	f := newFixture(t)
	admin, err := f.users.Create("Chris", nil, true, decimal.Zero)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	child := f.child(t, "Nico", "0.00")
	w := f.currentWeek(t)

	a, err := f.svc.AddAdHocChore(child.ID, w.ID, "Wash the Car", decimal.RequireFromString("2.00"), admin.ID)
	if err != nil {
		t.Fatalf("add ad-hoc chore: %v", err)
	}
	if a.CustomName == nil || *a.CustomName != "Wash the Car" {
		t.Errorf("custom name = %v, want Wash the Car", a.CustomName)
	}

	def, err := f.chores.GetByID(a.ChoreID)
	if err != nil || def == nil {
		t.Fatalf("ad-hoc definition missing: %v", err)
	}
	if def.IsPreset || def.Frequency != model.FrequencyAdHoc {
		t.Errorf("definition = preset:%v freq:%s, want ad-hoc", def.IsPreset, def.Frequency)
	}

	// Complete it, then remove: assignment, ledger entry and definition all go.
	if _, _, err := f.svc.ToggleCompletion(child.ID, a.ChoreID, today, model.SlotMorning); err != nil {
		t.Fatalf("toggle ad-hoc: %v", err)
	}
	if err := f.svc.RemoveAssignment(a.ID); err != nil {
		t.Fatalf("remove assignment: %v", err)
	}

	gone, err := f.assignments.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if gone != nil {
		t.Error("assignment should be deleted")
	}
	count, err := f.logs.CompletionCount(child.ID, a.ChoreID, w.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("ledger entries remaining = %d, want 0", count)
	}
	defGone, err := f.chores.GetByID(a.ChoreID)
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if defGone != nil {
		t.Error("ad-hoc definition should be deleted with its assignment")
	}
}

func TestCustomAmountUsedForToggle(t *testing.T) {
	f := newFixture(t)
	child := f.child(t, "Nico", "0.00")
	w := f.currentWeek(t)
	bed := f.chore(t, "Make Own Bed", "0.50", model.FrequencyDaily, nil)

	custom := decimal.RequireFromString("0.75")
	name := "Special Bed Duty"
	if _, err := f.assignments.Create(w.ID, bed.ID, child.ID, &name, &custom); err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	_, entry, err := f.svc.ToggleCompletion(child.ID, bed.ID, today, model.SlotMorning)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !entry.AmountEarned.Equal(custom) {
		t.Errorf("amount earned = %s, want custom 0.75", entry.AmountEarned)
	}

	summary, err := f.svc.CalculateWeeklySummary(child.ID, w.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ChoreDetails[0].Name != name {
		t.Errorf("detail name = %q, want %q", summary.ChoreDetails[0].Name, name)
	}
	if !summary.ChoreDetails[0].AmountPerCompletion.Equal(custom) {
		t.Errorf("detail amount = %s, want 0.75", summary.ChoreDetails[0].AmountPerCompletion)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/auth"
	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/policy"
	"github.com/dukewell/chorewheel/internal/store"
	"github.com/dukewell/chorewheel/internal/week"
)

type DashboardHandler struct {
	svc         *allowance.Service
	chores      *store.ChoreStore
	assignments *store.AssignmentStore
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewDashboardHandler(svc *allowance.Service, cs *store.ChoreStore, as *store.AssignmentStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, chores: cs, assignments: as, logger: logger, now: time.Now}
}

// choreRow is one assignment row in the weekly grid.
type choreRow struct {
	AssignmentID int64                `json:"assignment_id"`
	ChoreID      int64                `json:"chore_id"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Amount       decimal.Decimal      `json:"amount"`
	Frequency    model.Frequency      `json:"frequency"`
	Target       int                  `json:"target"`
	Slots        []int                `json:"slots"`
	IsAdHoc      bool                 `json:"is_ad_hoc"`
	Days         []dayCell            `json:"days"`
}

// dayCell is one day of one chore row: completion state per slot plus
// whether the policy prefers this day.
type dayCell struct {
	Date      string       `json:"date"`
	Preferred bool         `json:"preferred"`
	Completed map[int]bool `json:"completed"`
}

type weekResponse struct {
	WeekID    int64              `json:"week_id"`
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	Days      []string           `json:"days"`
	Locked    bool               `json:"locked"`
	Chores    []choreRow         `json:"chores"`
	Summary   *allowance.Summary `json:"summary"`
	Teeth     teethResponse      `json:"teeth_brushing"`
	PrevWeek  *string            `json:"prev_week"`
	NextWeek  *string            `json:"next_week"`
}

type teethResponse struct {
	Count  int `json:"count"`
	Target int `json:"target"`
}

// Week returns the full weekly grid for a user, materializing assignments on
// first visit.
func (h *DashboardHandler) Week(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(r)
	if !ok {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	date, err := parseDateQuery(r, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	wk, err := h.svc.WeekForDate(date)
	if err != nil {
		h.logger.Error("resolve week", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve week")
		return
	}

	assignments, err := h.svc.EnsureAssignments(userID, wk.ID)
	if err != nil {
		h.logger.Error("ensure assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load assignments")
		return
	}

	days := week.Days(wk.StartDate)
	dayStrs := make([]string, len(days))
	for i, d := range days {
		dayStrs[i] = d.Format(model.DateLayout)
	}

	rows := make([]choreRow, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		def, err := h.chores.GetByID(a.ChoreID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load chore")
			return
		}
		if def == nil {
			continue
		}

		grid, err := h.svc.DayGrid(userID, wk, def)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load completions")
			return
		}

		cells := make([]dayCell, len(days))
		for j := range days {
			cells[j] = dayCell{
				Date:      dayStrs[j],
				Preferred: policy.IsPreferredDay(def, j),
				Completed: grid[j],
			}
		}

		rows = append(rows, choreRow{
			AssignmentID: a.ID,
			ChoreID:      def.ID,
			Name:         a.DisplayName(def),
			Description:  def.Description,
			Amount:       a.DisplayAmount(def),
			Frequency:    def.Frequency,
			Target:       policy.WeeklyTarget(def),
			Slots:        policy.Slots(def),
			IsAdHoc:      def.Frequency == model.FrequencyAdHoc,
			Days:         cells,
		})
	}

	summary, err := h.svc.CalculateWeeklySummary(userID, wk.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to calculate summary")
		return
	}
	locked, err := h.svc.WeekLocked(wk.ID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check lock")
		return
	}
	teethCount, teethTarget, err := h.svc.TeethBrushingCount(userID, wk.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count teeth brushing")
		return
	}
	prev, next, err := h.svc.AdjacentWeeks(wk.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve adjacent weeks")
		return
	}

	resp := weekResponse{
		WeekID:    wk.ID,
		StartDate: wk.StartDate.Format(model.DateLayout),
		EndDate:   wk.EndDate.Format(model.DateLayout),
		Days:      dayStrs,
		Locked:    locked,
		Chores:    rows,
		Summary:   summary,
		Teeth:     teethResponse{Count: teethCount, Target: teethTarget},
	}
	if prev != nil {
		s := prev.StartDate.Format(model.DateLayout)
		resp.PrevWeek = &s
	}
	if next != nil {
		s := next.StartDate.Format(model.DateLayout)
		resp.NextWeek = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

type toggleRequest struct {
	ChoreID int64  `json:"chore_id"`
	Date    string `json:"date"`
	Slot    int    `json:"slot"`
}

// Toggle flips a completion for the authenticated (or admin-selected) user.
func (h *DashboardHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(r)
	if !ok {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Slot == 0 {
		req.Slot = model.SlotMorning
	}
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	completed, entry, err := h.svc.ToggleCompletion(userID, req.ChoreID, date, req.Slot)
	if err != nil {
		switch {
		case errors.Is(err, allowance.ErrWeekLocked):
			writeError(w, http.StatusConflict, "week is locked: payment already recorded")
		case errors.Is(err, allowance.ErrNotAssigned):
			writeError(w, http.StatusNotFound, "chore is not assigned for this week")
		case errors.Is(err, allowance.ErrInvalidSlot):
			writeError(w, http.StatusBadRequest, "invalid completion slot")
		default:
			h.logger.Error("toggle completion", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to toggle completion")
		}
		return
	}

	resp := map[string]any{"completed": completed}
	if entry != nil {
		resp["amount_earned"] = entry.AmountEarned
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary returns the weekly summary for a user and date.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(r)
	if !ok {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	date, err := parseDateQuery(r, h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	wk, err := h.svc.WeekForDate(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve week")
		return
	}
	summary, err := h.svc.CalculateWeeklySummary(userID, wk.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to calculate summary")
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// LastWeek returns the condensed previous-week summary, or null when that
// week was never visited.
func (h *DashboardHandler) LastWeek(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(r)
	if !ok {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	summary, err := h.svc.LastWeekSummary(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load last week")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// History returns 12 weeks of totals, oldest first.
func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(r)
	if !ok {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	entries, err := h.svc.History(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// UnpaidWeeks lists weeks with positive totals and no recorded payment.
func (h *DashboardHandler) UnpaidWeeks(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(r)
	if !ok {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	weeks, err := h.svc.UnpaidWeeks(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load unpaid weeks")
		return
	}
	if weeks == nil {
		weeks = []allowance.UnpaidWeek{}
	}
	writeJSON(w, http.StatusOK, weeks)
}

type adHocRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// AddAdHoc creates a one-off chore on the week containing the given date.
func (h *DashboardHandler) AddAdHoc(w http.ResponseWriter, r *http.Request) {
	ac, acOK := auth.FromContext(r.Context())
	userID, ok := targetUserID(r)
	if !ok || !acOK {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	var req adHocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount cannot be negative")
		return
	}
	date := h.now()
	if req.Date != "" {
		var err error
		if date, err = time.Parse(model.DateLayout, req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	wk, err := h.svc.WeekForDate(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve week")
		return
	}

	assignment, err := h.svc.AddAdHocChore(userID, wk.ID, req.Name, req.Amount, ac.UserID)
	if err != nil {
		if errors.Is(err, allowance.ErrWeekLocked) {
			writeError(w, http.StatusConflict, "week is locked: payment already recorded")
			return
		}
		h.logger.Error("add ad hoc chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add chore")
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// RemoveAssignment deletes one weekly assignment and its completions. Children
// may only remove their own.
func (h *DashboardHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.assignments.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if ac, ok := auth.FromContext(r.Context()); !ok || (!ac.IsAdmin && ac.UserID != a.UserID) {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	if err := h.svc.RemoveAssignment(id); err != nil {
		if errors.Is(err, allowance.ErrWeekLocked) {
			writeError(w, http.StatusConflict, "week is locked: payment already recorded")
			return
		}
		h.logger.Error("remove assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

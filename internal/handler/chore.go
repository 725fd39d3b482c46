package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/store"
)

type ChoreHandler struct {
	chores *store.ChoreStore
	logger *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, logger: logger}
}

type choreRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Frequency       model.Frequency `json:"frequency"`
	TimesPerDay     int             `json:"times_per_day"`
	TimesPerWeek    *int            `json:"times_per_week"`
	PreferredDays   []int           `json:"preferred_days"`
	AppliesToAll    bool            `json:"applies_to_all"`
	AssignedUserIDs []int64         `json:"assigned_user_ids"`
	IsActive        *bool           `json:"is_active"`
}

func (r *choreRequest) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if !r.Frequency.Valid() {
		return "invalid frequency"
	}
	if r.Amount.IsNegative() {
		return "amount cannot be negative"
	}
	if r.Frequency == model.FrequencySpecificDays && len(r.PreferredDays) == 0 {
		return "specific_days chores need preferred_days"
	}
	for _, d := range r.PreferredDays {
		if d < 0 || d > 6 {
			return "preferred_days must be 0 (Monday) through 6 (Sunday)"
		}
	}
	if !r.AppliesToAll && len(r.AssignedUserIDs) == 0 {
		return "chore must apply to all children or name assignees"
	}
	return ""
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.chores.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.ChoreDefinition{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	timesPerDay := req.TimesPerDay
	if timesPerDay < 1 {
		timesPerDay = 1
	}

	chore, err := h.chores.Create(&model.ChoreDefinition{
		Name:            req.Name,
		Description:     req.Description,
		Amount:          req.Amount,
		Frequency:       req.Frequency,
		TimesPerDay:     timesPerDay,
		TimesPerWeek:    req.TimesPerWeek,
		PreferredDays:   req.PreferredDays,
		IsPreset:        true,
		AppliesToAll:    req.AppliesToAll,
		AssignedUserIDs: req.AssignedUserIDs,
		IsActive:        true,
	})
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.chores.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Amount = req.Amount
	existing.Frequency = req.Frequency
	existing.TimesPerDay = req.TimesPerDay
	if existing.TimesPerDay < 1 {
		existing.TimesPerDay = 1
	}
	existing.TimesPerWeek = req.TimesPerWeek
	existing.PreferredDays = req.PreferredDays
	existing.AppliesToAll = req.AppliesToAll
	existing.AssignedUserIDs = req.AssignedUserIDs
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	chore, err := h.chores.Update(existing)
	if err != nil {
		h.logger.Error("update chore", "error", err, "chore_id", id)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

// SetActive toggles a definition without touching already-materialized weeks.
func (h *ChoreHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.chores.SetActive(id, req.IsActive); err != nil {
		h.logger.Error("set chore active", "error", err, "chore_id", id)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.chores.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.chores.Delete(id); err != nil {
		h.logger.Error("delete chore", "error", err, "chore_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

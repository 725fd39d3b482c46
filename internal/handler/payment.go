package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/email"
	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/store"
)

type PaymentHandler struct {
	payments *store.PaymentStore
	users    *store.UserStore
	weeks    *store.WeekStore
	svc      *allowance.Service
	notifier *email.Notifier
	logger   *slog.Logger
}

func NewPaymentHandler(ps *store.PaymentStore, us *store.UserStore, ws *store.WeekStore, svc *allowance.Service, notifier *email.Notifier, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: ps, users: us, weeks: ws, svc: svc, notifier: notifier, logger: logger}
}

type markPaidRequest struct {
	WeekID int64            `json:"week_id"`
	UserID int64            `json:"user_id"`
	Amount *decimal.Decimal `json:"amount"` // nil pays the calculated total
	Notes  string           `json:"notes"`
}

// MarkPaid records a payment for (week, user), locking the week. When the
// amount overrides the calculated total, the original is retained.
func (h *PaymentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByID(req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	wk, err := h.weeks.GetByID(req.WeekID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get week")
		return
	}
	if wk == nil {
		writeError(w, http.StatusNotFound, "week not found")
		return
	}

	summary, err := h.svc.CalculateWeeklySummary(req.UserID, req.WeekID)
	if err != nil || summary == nil {
		h.logger.Error("summary for payment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to calculate total")
		return
	}

	amount := summary.Total
	var originalAmount *decimal.Decimal
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			writeError(w, http.StatusBadRequest, "amount cannot be negative")
			return
		}
		if !req.Amount.Equal(summary.Total) {
			originalAmount = &summary.Total
		}
		amount = *req.Amount
	}

	payment, err := h.payments.MarkPaid(req.WeekID, req.UserID, amount.Round(2), originalAmount, req.Notes)
	if err != nil {
		h.logger.Error("mark paid", "error", err, "week_id", req.WeekID, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "failed to record payment")
		return
	}

	h.logger.Info("payment recorded",
		"user_id", req.UserID, "week_id", req.WeekID, "amount", amount.StringFixed(2))
	go h.notifier.SendPaymentConfirmation(user, wk, payment.Amount)

	writeJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	if payments == nil {
		payments = []model.WeeklyPayment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukewell/chorewheel/internal/email"
	"github.com/dukewell/chorewheel/internal/settings"
)

type SettingsHandler struct {
	settings *settings.Service
	notifier *email.Notifier
	logger   *slog.Logger
}

func NewSettingsHandler(st *settings.Service, notifier *email.Notifier, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: st, notifier: notifier, logger: logger}
}

type mailSettingsResponse struct {
	From           string `json:"from"`
	BaseURL        string `json:"base_url"`
	TokenSet       bool   `json:"token_set"`
	SummaryEnabled bool   `json:"summary_enabled"`
}

// GetMail returns mail settings. The API token is never echoed back, only
// whether one is stored.
func (h *SettingsHandler) GetMail(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.MailSettings()
	if err != nil {
		h.logger.Error("load mail settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	enabled, err := h.settings.GetBool(settings.KeySummaryEmailEnabled, true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, mailSettingsResponse{
		From:           cfg.From,
		BaseURL:        cfg.BaseURL,
		TokenSet:       cfg.APIToken != "",
		SummaryEnabled: enabled,
	})
}

type mailSettingsRequest struct {
	APIToken       string `json:"api_token"` // empty keeps the stored token
	From           string `json:"from"`
	BaseURL        string `json:"base_url"`
	SummaryEnabled *bool  `json:"summary_enabled"`
}

func (h *SettingsHandler) SaveMail(w http.ResponseWriter, r *http.Request) {
	var req mailSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	err := h.settings.SaveMailSettings(settings.MailConfig{
		APIToken: req.APIToken,
		From:     req.From,
		BaseURL:  req.BaseURL,
	})
	if err != nil {
		h.logger.Error("save mail settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	if req.SummaryEnabled != nil {
		value := "false"
		if *req.SummaryEnabled {
			value = "true"
		}
		if err := h.settings.Set(settings.KeySummaryEmailEnabled, value, false); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendTestSummary triggers the weekly summary email immediately.
func (h *SettingsHandler) SendTestSummary(w http.ResponseWriter, r *http.Request) {
	sent, err := h.notifier.SendWeeklySummary()
	if err != nil {
		h.logger.Error("test summary", "error", err)
		writeError(w, http.StatusBadGateway, "failed to send summary email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

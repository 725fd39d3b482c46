// Package handler implements the JSON API: login sessions, user and chore
// administration, the weekly dashboard, payments and mail settings.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dukewell/chorewheel/internal/auth"
	"github.com/dukewell/chorewheel/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseDateQuery reads a ?date=YYYY-MM-DD query param, defaulting to now.
func parseDateQuery(r *http.Request, now func() time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return now(), nil
	}
	return time.Parse(model.DateLayout, raw)
}

// targetUserID resolves which user a dashboard request is about. Admins may
// pass ?user_id= to view any child; everyone else only sees themselves.
func targetUserID(r *http.Request) (int64, bool) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		return 0, false
	}
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return ac.UserID, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	if id != ac.UserID && !ac.IsAdmin {
		return 0, false
	}
	return id, true
}

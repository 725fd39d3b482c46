package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukewell/chorewheel/internal/auth"
	"github.com/dukewell/chorewheel/internal/middleware"
	"github.com/dukewell/chorewheel/internal/store"
)

const sessionTTL = 30 * 24 * time.Hour

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, logger: logger}
}

type loginRequest struct {
	LoginType string `json:"login_type"` // "pin" or "password"
	UserID    int64  `json:"user_id"`
	PIN       string `json:"pin"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginResponse struct {
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// Login authenticates either a child (user_id + 4-digit PIN) or an admin
// (email + password) and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var userID int64
	switch req.LoginType {
	case "pin":
		userID = req.UserID
		hash, err := h.users.GetPINHash(userID)
		if err != nil {
			h.logger.Error("login pin lookup", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !auth.Verify(hash, req.PIN) {
			writeError(w, http.StatusUnauthorized, "invalid PIN")
			return
		}
	case "password":
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		user, err := h.users.GetByEmail(email)
		if err != nil {
			h.logger.Error("login email lookup", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		// Run the comparison even for unknown emails to keep timing uniform.
		var hash string
		if user != nil {
			hash, err = h.users.GetPasswordHash(user.ID)
			if err != nil {
				h.logger.Error("login password lookup", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			userID = user.ID
		}
		if !auth.Verify(hash, req.Password) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "login_type must be pin or password")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil || !user.IsActive {
		writeError(w, http.StatusUnauthorized, "account unavailable")
		return
	}

	sess, err := h.sessions.Create(user.ID, sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	h.logger.Info("user logged in", "user_id", user.ID, "login_type", req.LoginType)
	writeJSON(w, http.StatusOK, loginResponse{UserID: user.ID, Name: user.Name, IsAdmin: user.IsAdmin})
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user, for session restore on page load.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{UserID: ac.UserID, Name: ac.Name, IsAdmin: ac.IsAdmin})
}

// Package server wires stores, services and handlers into the HTTP router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/email"
	"github.com/dukewell/chorewheel/internal/handler"
	"github.com/dukewell/chorewheel/internal/middleware"
	"github.com/dukewell/chorewheel/internal/scheduler"
	"github.com/dukewell/chorewheel/internal/settings"
	"github.com/dukewell/chorewheel/internal/store"
)

type Server struct {
	db           *sql.DB
	authH        *handler.AuthHandler
	userH        *handler.UserHandler
	choreH       *handler.ChoreHandler
	dashboardH   *handler.DashboardHandler
	paymentH     *handler.PaymentHandler
	settingsH    *handler.SettingsHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	scheduler    *scheduler.Scheduler
	logger       *slog.Logger
}

// New builds the full application graph on top of an opened database.
// secretKey encrypts settings stored with the encrypted flag.
func New(db *sql.DB, secretKey string, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	choreStore := store.NewChoreStore(db)
	weekStore := store.NewWeekStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	logStore := store.NewChoreLogStore(db)
	paymentStore := store.NewPaymentStore(db)
	settingsStore := store.NewSettingsStore(db)
	sessionStore := store.NewSessionStore(db)

	allowanceSvc := allowance.NewService(
		userStore, choreStore, weekStore, assignmentStore, logStore, paymentStore,
		logger.With("component", "allowance"),
	)
	settingsSvc := settings.NewService(settingsStore, secretKey)
	notifier := email.NewNotifier(userStore, allowanceSvc, settingsSvc, logger.With("component", "email"))
	sched := scheduler.NewScheduler(notifier, settingsSvc, logger.With("component", "scheduler"))

	return &Server{
		db:           db,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		userH:        handler.NewUserHandler(userStore, logger.With("component", "user")),
		choreH:       handler.NewChoreHandler(choreStore, logger.With("component", "chore")),
		dashboardH:   handler.NewDashboardHandler(allowanceSvc, choreStore, assignmentStore, logger.With("component", "dashboard")),
		paymentH:     handler.NewPaymentHandler(paymentStore, userStore, weekStore, allowanceSvc, notifier, logger.With("component", "payment")),
		settingsH:    handler.NewSettingsHandler(settingsSvc, notifier, logger.With("component", "settings")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		scheduler:    sched,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// UserStore returns the user store, used at startup to bootstrap the first
// admin account.
func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the weekly email scheduler.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Dashboard routes — children see themselves, admins may pass ?user_id=
	mux.HandleFunc("GET /api/dashboard/week", s.dashboardH.Week)
	mux.HandleFunc("POST /api/dashboard/toggle", s.dashboardH.Toggle)
	mux.HandleFunc("GET /api/dashboard/summary", s.dashboardH.Summary)
	mux.HandleFunc("GET /api/dashboard/last-week", s.dashboardH.LastWeek)
	mux.HandleFunc("GET /api/dashboard/history", s.dashboardH.History)
	mux.HandleFunc("GET /api/dashboard/unpaid-weeks", s.dashboardH.UnpaidWeeks)
	mux.HandleFunc("POST /api/dashboard/ad-hoc", s.dashboardH.AddAdHoc)
	mux.HandleFunc("DELETE /api/assignments/{id}", s.dashboardH.RemoveAssignment)

	// Admin routes
	mux.Handle("GET /api/users", middleware.RequireAdmin(http.HandlerFunc(s.userH.List)))
	mux.Handle("POST /api/users", middleware.RequireAdmin(http.HandlerFunc(s.userH.Create)))
	mux.Handle("PUT /api/users/{id}", middleware.RequireAdmin(http.HandlerFunc(s.userH.Update)))
	mux.Handle("DELETE /api/users/{id}", middleware.RequireAdmin(http.HandlerFunc(s.userH.Delete)))
	mux.Handle("POST /api/users/{id}/pin", middleware.RequireAdmin(http.HandlerFunc(s.userH.SetPIN)))
	mux.Handle("POST /api/users/{id}/password", middleware.RequireAdmin(http.HandlerFunc(s.userH.SetPassword)))

	mux.Handle("GET /api/chores", middleware.RequireAdmin(http.HandlerFunc(s.choreH.List)))
	mux.Handle("POST /api/chores", middleware.RequireAdmin(http.HandlerFunc(s.choreH.Create)))
	mux.Handle("PUT /api/chores/{id}", middleware.RequireAdmin(http.HandlerFunc(s.choreH.Update)))
	mux.Handle("PUT /api/chores/{id}/active", middleware.RequireAdmin(http.HandlerFunc(s.choreH.SetActive)))
	mux.Handle("DELETE /api/chores/{id}", middleware.RequireAdmin(http.HandlerFunc(s.choreH.Delete)))

	mux.Handle("GET /api/payments", middleware.RequireAdmin(http.HandlerFunc(s.paymentH.List)))
	mux.Handle("POST /api/payments", middleware.RequireAdmin(http.HandlerFunc(s.paymentH.MarkPaid)))

	mux.Handle("GET /api/settings/mail", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.GetMail)))
	mux.Handle("PUT /api/settings/mail", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.SaveMail)))
	mux.Handle("POST /api/settings/mail/test-summary", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.SendTestSummary)))
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/auth"
	"github.com/dukewell/chorewheel/internal/database"
	"github.com/dukewell/chorewheel/internal/logging"
	"github.com/dukewell/chorewheel/internal/server"
	"github.com/dukewell/chorewheel/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("CHOREWHEEL_LOG_LEVEL"), os.Getenv("CHOREWHEEL_LOG_FORMAT"))

	port := os.Getenv("CHOREWHEEL_PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("CHOREWHEEL_DB_PATH")
	if dbPath == "" {
		dbPath = "chorewheel.db"
	}
	secretKey := os.Getenv("CHOREWHEEL_SECRET_KEY")
	if secretKey == "" {
		logger.Warn("CHOREWHEEL_SECRET_KEY not set, encrypted settings will not survive restarts with a different key")
		secretKey = "chorewheel-dev-secret"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, secretKey, logger)

	if err := bootstrapAdmin(srv.UserStore(), logger); err != nil {
		logger.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	// Periodic cleanup of expired sessions and stale rate-limit entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("chorewheel listening", "port", port, "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin creates the first admin account from the environment when
// the user table is empty, so a fresh install can log in.
func bootstrapAdmin(users *store.UserStore, logger *slog.Logger) error {
	count, err := users.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	name := os.Getenv("CHOREWHEEL_ADMIN_NAME")
	email := os.Getenv("CHOREWHEEL_ADMIN_EMAIL")
	password := os.Getenv("CHOREWHEEL_ADMIN_PASSWORD")
	if name == "" {
		name = "Admin"
	}
	if email == "" || password == "" {
		logger.Info("no users exist and CHOREWHEEL_ADMIN_EMAIL/PASSWORD unset, skipping admin bootstrap")
		return nil
	}

	admin, err := users.Create(name, &email, true, decimal.Zero)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := users.SetPasswordHash(admin.ID, hash); err != nil {
		return err
	}
	logger.Info("bootstrapped admin account", "email", email)
	return nil
}

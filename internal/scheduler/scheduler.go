// Package scheduler runs the weekly summary email job: Sundays at 19:00
// local time, once per week.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukewell/chorewheel/internal/email"
	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/settings"
	"github.com/dukewell/chorewheel/internal/week"
)

// lastSummaryKey records the week start of the most recent summary send, so a
// restart on Sunday evening doesn't mail twice.
const lastSummaryKey = "last_summary_email_week"

const (
	summaryHour = 19
)

// Scheduler periodically checks whether the weekly summary email is due.
type Scheduler struct {
	mu       sync.RWMutex
	notifier *email.Notifier
	settings *settings.Service
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

func NewScheduler(notifier *email.Notifier, st *settings.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		settings: st,
		logger:   logger,
		interval: 60 * time.Second,
		now:      time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	now := s.now()
	if now.Weekday() != time.Sunday || now.Hour() != summaryHour {
		return
	}

	weekStart := week.MondayOf(now).Format(model.DateLayout)
	last, err := s.settings.Get(lastSummaryKey)
	if err != nil {
		s.logger.Error("scheduler: read last summary marker", "error", err)
		return
	}
	if last == weekStart {
		return
	}

	sent, err := s.notifier.SendWeeklySummary()
	if err != nil {
		s.logger.Error("scheduler: weekly summary send failed", "error", err)
		return
	}

	if err := s.settings.Set(lastSummaryKey, weekStart, false); err != nil {
		s.logger.Error("scheduler: record summary marker", "error", err)
	}
	s.logger.Info("scheduler: weekly summary job ran", "week_start", weekStart, "emails_sent", sent)
}

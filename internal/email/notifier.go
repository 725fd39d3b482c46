// Package email sends transactional mail through Postmark: the weekly
// allowance summary to household admins and payment confirmations.
package email

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/settings"
	"github.com/dukewell/chorewheel/internal/store"
)

// Notifier assembles and sends report emails. The mail client is rebuilt per
// send from stored settings so admins can rotate credentials without a
// restart.
type Notifier struct {
	users     *store.UserStore
	allowance *allowance.Service
	settings  *settings.Service
	logger    *slog.Logger

	// newClient is swappable for tests.
	newClient func(cfg settings.MailConfig) *Client
}

func NewNotifier(users *store.UserStore, svc *allowance.Service, st *settings.Service, logger *slog.Logger) *Notifier {
	return &Notifier{
		users:     users,
		allowance: svc,
		settings:  st,
		logger:    logger,
		newClient: func(cfg settings.MailConfig) *Client {
			return NewClient(cfg.APIToken, cfg.From)
		},
	}
}

func (n *Notifier) client() (*Client, error) {
	cfg, err := n.settings.MailSettings()
	if err != nil {
		return nil, fmt.Errorf("load mail settings: %w", err)
	}
	c := n.newClient(cfg)
	if !c.Configured() {
		return nil, fmt.Errorf("email not configured")
	}
	return c, nil
}

// SendWeeklySummary mails every admin with an email address a summary of the
// current week across all children. Returns the number of emails sent.
func (n *Notifier) SendWeeklySummary() (int, error) {
	enabled, err := n.settings.GetBool(settings.KeySummaryEmailEnabled, true)
	if err != nil {
		return 0, err
	}
	if !enabled {
		n.logger.Info("weekly summary email disabled, skipping")
		return 0, nil
	}

	client, err := n.client()
	if err != nil {
		return 0, err
	}

	admins, err := n.users.ListAdminsWithEmail()
	if err != nil {
		return 0, err
	}
	if len(admins) == 0 {
		n.logger.Info("no admins with email, skipping weekly summary")
		return 0, nil
	}

	wk, err := n.allowance.CurrentWeek()
	if err != nil {
		return 0, err
	}

	summaries, err := n.collectChildSummaries(wk)
	if err != nil {
		return 0, err
	}

	subject := summarySubject(wk)
	sent := 0
	for i := range admins {
		admin := &admins[i]
		text := summaryText(admin.Name, wk, summaries)
		htmlBody := summaryHTML(admin.Name, wk, summaries)
		if err := client.Send(*admin.Email, subject, text, htmlBody); err != nil {
			n.logger.Error("send weekly summary failed", "to", *admin.Email, "error", err)
			continue
		}
		sent++
	}
	n.logger.Info("weekly summary sent", "recipients", sent, "week_start", wk.StartDate.Format(model.DateLayout))
	return sent, nil
}

func (n *Notifier) collectChildSummaries(wk *model.WeekPeriod) ([]ChildSummary, error) {
	children, err := n.users.ListChildren()
	if err != nil {
		return nil, err
	}

	summaries := make([]ChildSummary, 0, len(children))
	for i := range children {
		child := &children[i]
		if _, err := n.allowance.EnsureAssignments(child.ID, wk.ID); err != nil {
			return nil, err
		}
		summary, err := n.allowance.CalculateWeeklySummary(child.ID, wk.ID)
		if err != nil {
			return nil, err
		}
		count, target, err := n.allowance.TeethBrushingCount(child.ID, wk.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ChildSummary{
			ChildName:     child.Name,
			Summary:       summary,
			TeethBrushing: fmt.Sprintf("%d/%d", count, target),
		})
	}
	return summaries, nil
}

// SendPaymentConfirmation mails admins when a weekly payment is recorded.
// Failures are logged, not returned: a missing email must never roll back a
// payment.
func (n *Notifier) SendPaymentConfirmation(child *model.User, wk *model.WeekPeriod, amount decimal.Decimal) {
	client, err := n.client()
	if err != nil {
		n.logger.Debug("payment confirmation skipped", "error", err)
		return
	}

	admins, err := n.users.ListAdminsWithEmail()
	if err != nil {
		n.logger.Error("list admins for payment confirmation", "error", err)
		return
	}

	subject := fmt.Sprintf("ChoreWheel Payment Recorded - %s", child.Name)
	now := time.Now()
	for i := range admins {
		admin := &admins[i]
		text := paymentConfirmationText(admin.Name, child.Name, wk, amount, now)
		if err := client.Send(*admin.Email, subject, text, ""); err != nil {
			n.logger.Error("send payment confirmation failed", "to", *admin.Email, "error", err)
		}
	}
}

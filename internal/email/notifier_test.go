package email

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/database"
	"github.com/dukewell/chorewheel/internal/settings"
	"github.com/dukewell/chorewheel/internal/store"
)

func newNotifierFixture(t *testing.T, apiURL string) (*Notifier, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := store.NewUserStore(db)
	svc := allowance.NewService(
		users,
		store.NewChoreStore(db),
		store.NewWeekStore(db),
		store.NewAssignmentStore(db),
		store.NewChoreLogStore(db),
		store.NewPaymentStore(db),
		logger,
	)
	settingsSvc := settings.NewService(store.NewSettingsStore(db), "test-secret")
	if err := settingsSvc.SaveMailSettings(settings.MailConfig{APIToken: "tok", From: "chores@example.com"}); err != nil {
		t.Fatalf("save mail settings: %v", err)
	}

	n := NewNotifier(users, svc, settingsSvc, logger)
	n.newClient = func(cfg settings.MailConfig) *Client {
		return NewClient(cfg.APIToken, cfg.From, WithAPIURL(apiURL))
	}
	return n, users
}

func TestSendWeeklySummary(t *testing.T) {
	var sent []postmarkEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e postmarkEmail
		json.NewDecoder(r.Body).Decode(&e)
		sent = append(sent, e)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	n, users := newNotifierFixture(t, server.URL)

	email := "mum@example.com"
	if _, err := users.Create("Mum", &email, true, decimal.Zero); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := users.Create("Isla", nil, false, decimal.NewFromFloat(3)); err != nil {
		t.Fatalf("create child: %v", err)
	}

	count, err := n.SendWeeklySummary()
	if err != nil {
		t.Fatalf("send weekly summary: %v", err)
	}
	if count != 1 || len(sent) != 1 {
		t.Fatalf("sent %d emails (recorded %d), want 1", count, len(sent))
	}

	msg := sent[0]
	if msg.To != "mum@example.com" {
		t.Errorf("To = %q, want mum@example.com", msg.To)
	}
	if !strings.HasPrefix(msg.Subject, "ChoreWheel Weekly Summary") {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "--- Isla ---") {
		t.Errorf("text body missing child section:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "Base Allowance: £3.00") {
		t.Errorf("text body missing base allowance:\n%s", msg.TextBody)
	}
}

func TestSendWeeklySummaryDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no email should be sent when disabled")
	}))
	defer server.Close()

	n, users := newNotifierFixture(t, server.URL)
	email := "mum@example.com"
	users.Create("Mum", &email, true, decimal.Zero)

	if err := n.settings.Set(settings.KeySummaryEmailEnabled, "false", false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	count, err := n.SendWeeklySummary()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if count != 0 {
		t.Errorf("sent = %d, want 0", count)
	}
}

func TestSendWeeklySummaryNoAdmins(t *testing.T) {
	n, users := newNotifierFixture(t, "http://unused.test")
	users.Create("Isla", nil, false, decimal.NewFromFloat(3))

	count, err := n.SendWeeklySummary()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if count != 0 {
		t.Errorf("sent = %d, want 0 with no admin recipients", count)
	}
}

package settings

import (
	"strings"
	"testing"

	"github.com/dukewell/chorewheel/internal/database"
	"github.com/dukewell/chorewheel/internal/store"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tests := []string{
		"hunter2",
		"",
		"token-with-unicode-ü-and-symbols-!@#",
		strings.Repeat("x", 4096),
	}
	for _, plaintext := range tests {
		encrypted, err := EncryptString(plaintext, "app-secret")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if encrypted == plaintext && plaintext != "" {
			t.Error("ciphertext equals plaintext")
		}
		decrypted, err := DecryptString(encrypted, "app-secret")
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip mismatch: got %q", decrypted)
		}
	}
}

func TestDecryptWrongSecretFails(t *testing.T) {
	encrypted, err := EncryptString("sensitive", "right-secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := DecryptString(encrypted, "wrong-secret"); err == nil {
		t.Error("decrypt with wrong secret should fail")
	}
}

func TestDecryptGarbageFails(t *testing.T) {
	if _, err := DecryptString("not-base64!!!", "secret"); err == nil {
		t.Error("invalid base64 should fail")
	}
	if _, err := DecryptString("c2hvcnQ=", "secret"); err == nil {
		t.Error("too-short ciphertext should fail")
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(store.NewSettingsStore(db), "test-secret")
}

func TestServiceEncryptedSetting(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Set(KeyMailAPIToken, "pm-token-123", true); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := svc.Get(KeyMailAPIToken)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "pm-token-123" {
		t.Errorf("got %q, want pm-token-123", got)
	}
}

func TestServiceMissingKeyEmpty(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.Get("nonexistent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("missing key = %q, want empty", got)
	}
}

func TestSaveMailSettingsKeepsTokenWhenEmpty(t *testing.T) {
	svc := newTestService(t)

	if err := svc.SaveMailSettings(MailConfig{APIToken: "original", From: "a@b.c"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Update without token: token is preserved.
	if err := svc.SaveMailSettings(MailConfig{From: "new@b.c"}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	cfg, err := svc.MailSettings()
	if err != nil {
		t.Fatalf("mail settings: %v", err)
	}
	if cfg.APIToken != "original" {
		t.Errorf("token = %q, want original", cfg.APIToken)
	}
	if cfg.From != "new@b.c" {
		t.Errorf("from = %q, want new@b.c", cfg.From)
	}
}

func TestGetBool(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.GetBool(KeySummaryEmailEnabled, true)
	if err != nil || got != true {
		t.Errorf("missing key GetBool = (%v, %v), want default true", got, err)
	}

	if err := svc.Set(KeySummaryEmailEnabled, "false", false); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = svc.GetBool(KeySummaryEmailEnabled, true)
	if err != nil || got != false {
		t.Errorf("GetBool = (%v, %v), want false", got, err)
	}
}

// Package settings manages application settings stored in the database, with
// encryption-at-rest for mail credentials.
package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukewell/chorewheel/internal/store"
)

// Mail setting keys. The password is the only value stored encrypted.
const (
	KeyMailAPIToken = "mail_api_token"
	KeyMailFrom     = "mail_from"
	KeyMailBaseURL  = "mail_base_url"

	KeySummaryEmailEnabled = "summary_email_enabled"
)

// MailConfig is the outbound email configuration assembled from settings.
type MailConfig struct {
	APIToken string
	From     string
	BaseURL  string
}

type Service struct {
	store  *store.SettingsStore
	secret string
}

// NewService wraps the settings store. secret is the application secret key
// that encrypted values are derived from.
func NewService(st *store.SettingsStore, secret string) *Service {
	return &Service{store: st, secret: secret}
}

// Get returns a setting value, decrypting when flagged. Missing keys return
// the empty string.
func (s *Service) Get(key string) (string, error) {
	setting, err := s.store.Get(key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}
	if !setting.IsEncrypted {
		return setting.Value, nil
	}
	value, err := DecryptString(setting.Value, s.secret)
	if err != nil {
		return "", fmt.Errorf("decrypt setting %q: %w", key, err)
	}
	return value, nil
}

// Set stores a setting, encrypting when requested.
func (s *Service) Set(key, value string, encrypt bool) error {
	if encrypt && value != "" {
		encrypted, err := EncryptString(value, s.secret)
		if err != nil {
			return fmt.Errorf("encrypt setting %q: %w", key, err)
		}
		return s.store.Set(key, encrypted, true)
	}
	return s.store.Set(key, value, false)
}

// GetBool reads a boolean setting; missing or unparseable values return def.
func (s *Service) GetBool(key string, def bool) (bool, error) {
	value, err := s.Get(key)
	if err != nil {
		return def, err
	}
	if value == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def, nil
	}
	return b, nil
}

// MailSettings assembles the outbound mail configuration. The API token is
// stored encrypted.
func (s *Service) MailSettings() (MailConfig, error) {
	var cfg MailConfig
	var err error
	if cfg.APIToken, err = s.Get(KeyMailAPIToken); err != nil {
		return cfg, err
	}
	if cfg.From, err = s.Get(KeyMailFrom); err != nil {
		return cfg, err
	}
	if cfg.BaseURL, err = s.Get(KeyMailBaseURL); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveMailSettings persists mail configuration. An empty token keeps the
// existing one so forms can omit the secret on update.
func (s *Service) SaveMailSettings(cfg MailConfig) error {
	if cfg.APIToken != "" {
		if err := s.Set(KeyMailAPIToken, cfg.APIToken, true); err != nil {
			return err
		}
	}
	if err := s.Set(KeyMailFrom, cfg.From, false); err != nil {
		return err
	}
	return s.Set(KeyMailBaseURL, cfg.BaseURL, false)
}

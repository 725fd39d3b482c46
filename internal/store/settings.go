package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukewell/chorewheel/internal/model"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (*model.AppSetting, error) {
	var setting model.AppSetting
	err := s.db.QueryRow(
		`SELECT id, key, value, is_encrypted, created_at, updated_at FROM app_settings WHERE key = ?`, key,
	).Scan(&setting.ID, &setting.Key, &setting.Value, &setting.IsEncrypted, &setting.CreatedAt, &setting.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &setting, nil
}

func (s *SettingsStore) Set(key, value string, isEncrypted bool) error {
	_, err := s.db.Exec(
		`INSERT INTO app_settings (key, value, is_encrypted, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, is_encrypted = excluded.is_encrypted, updated_at = excluded.updated_at`,
		key, value, isEncrypted, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

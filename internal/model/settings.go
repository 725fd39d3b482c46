package model

import "time"

// AppSetting is a key/value row. Sensitive values (mail password) are stored
// encrypted and flagged so reads know to decrypt.
type AppSetting struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	IsEncrypted bool      `json:"is_encrypted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

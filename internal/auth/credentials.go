package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	pinLength         = 4
	minPasswordLength = 6
)

var (
	// ErrInvalidPIN is returned when a PIN is not exactly 4 digits.
	ErrInvalidPIN = errors.New("PIN must be exactly 4 digits")

	// ErrPasswordTooShort is returned when a password is under 6 characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// HashPIN validates and hashes a child's 4-digit PIN.
func HashPIN(pin string) (string, error) {
	if len(pin) != pinLength || !allDigits(pin) {
		return "", ErrInvalidPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// HashPassword validates and hashes an admin password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a stored bcrypt hash against a candidate credential.
// An empty hash (credential never set) never matches.
func Verify(hash, candidate string) bool {
	if hash == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

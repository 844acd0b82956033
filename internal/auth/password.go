package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 6
	// bcrypt ignores everything past 72 bytes; refuse instead of truncating.
	MaxPasswordLen = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = fmt.Errorf("password shorter than %d characters", MinPasswordLen)
	ErrPasswordTooLong    = fmt.Errorf("password longer than %d bytes", MaxPasswordLen)
)

// Cost is the bcrypt work factor for new accounts.
var Cost = bcrypt.DefaultCost

func checkPassword(plaintext string) error {
	switch {
	case len(plaintext) < MinPasswordLen:
		return ErrPasswordTooShort
	case len(plaintext) > MaxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

func HashPassword(plaintext string) (string, error) {
	if err := checkPassword(plaintext); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports ErrInvalidCredentials for a wrong password. A
// stored hash that bcrypt cannot read is a storage problem and comes back
// wrapped as such.
func ComparePassword(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("stored password hash: %w", err)
	}
}

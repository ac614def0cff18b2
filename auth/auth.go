// Package auth gates catalog edits behind an admin password kept in the system keyring.
package auth

import (
	"errors"
	"fmt"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/log"
	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is accepted until the admin sets their own.
const DefaultPassword = "12345"

const (
	service = constant.LiveTV
	user    = "admin"
)

var (
	ErrWrongPassword = errors.New("wrong admin password")
	ErrEmptyPassword = errors.New("admin password cannot be empty")
)

// IsDefault reports whether no custom password has been stored.
func IsDefault() (bool, error) {
	_, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// Verify checks password against the stored hash, or the default password
// when none is stored.
func Verify(password string) error {
	hash, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		if password != DefaultPassword {
			return ErrWrongPassword
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("keyring: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		log.Warn("admin login rejected")
		return ErrWrongPassword
	}
	return nil
}

// SetPassword replaces the admin password after verifying the current one.
func SetPassword(current, next string) error {
	if next == "" {
		return ErrEmptyPassword
	}
	if err := Verify(current); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return keyring.Set(service, user, string(hash))
}

// Reset forgets the stored password so the default applies again.
func Reset() error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

package validators

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

// Argon2 hashes anything, this only keeps request bodies sane
const maxPasswordLength = 255

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if minLen := viper.GetInt("security.min_password_length"); len(p) < minLen {
		return fmt.Errorf("%w, must be at least %d characters long", ErrPasswordTooShort, minLen)
	}

	if len(p) > maxPasswordLength {
		return ErrPasswordTooLong
	}

	return nil
}

package validation

import (
	"errors"
)

var ErrInvalidEmail = errors.New("invalid email address")

// ValidateEmail checks format and the RFC 5321 length limit
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	err := validate().Var(email, "email")
	if err != nil {
		return ErrInvalidEmail
	}
	return nil
}

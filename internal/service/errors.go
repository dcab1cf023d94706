package service

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the acting user may not perform the
	// operation. Handlers answer 403 without further detail.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound wraps every repository not-found error surfaced by services
	ErrNotFound = errors.New("not found")
)

const invalidChoice = "Select a valid choice. That choice is not one of the available choices."

func notFound(err error) error {
	return fmt.Errorf("%w: %w", ErrNotFound, err)
}

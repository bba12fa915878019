// Package service implements the authorization, account and booking rules
// of the booking service.
package service

import (
	"errors"
	"fmt"

	"github.com/trainease/booking-service/internal/repository"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError maps repository sentinels onto service sentinels and keeps
// anything else as an internal error.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	}
	return err
}

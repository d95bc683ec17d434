package services

import (
	"errors"
	"fmt"

	"parley/internal/repositories"
)

// Error kinds returned by the chat and message services. Callers match them
// with errors.Is; the wrapped text carries the detail.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrStoreFailure    = errors.New("store failure")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// storeError classifies a repository error.
func storeError(op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

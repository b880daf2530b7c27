package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an id no longer refers to a stored node.
	ErrNotFound = errors.New("not found")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled by user")
	// ErrNotScheduled is returned when toggling a date the plan does not schedule.
	ErrNotScheduled = errors.New("date is not scheduled")
	// ErrPersist wraps gateway failures after an in-memory mutation succeeded.
	ErrPersist = errors.New("persist collections")
)

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// IsValidation reports whether err carries validation failures.
func IsValidation(err error) bool {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

package services

import (
	"errors"
	"fmt"
	"time"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
)

var (
	// ErrValidation wraps every input validation failure. The wrapped text is shown to the client.
	ErrValidation = errors.New("validation error")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("operation not permitted")
)

const dateLayout = "2006-01-02"

// TxRunner runs fn inside a database transaction. *database.DB satisfies it.
type TxRunner interface {
	InTx(fn func(exec repositories.SQLExecutor) error) error
}

// Actor is the authenticated employee performing an operation.
type Actor struct {
	ID   int64
	Role string
}

// IsAdmin reports whether the actor is an employer or a manager.
func (a Actor) IsAdmin() bool {
	return models.IsAdminRole(a.Role)
}

// BusinessClock turns wall-clock time into business dates in the shop's timezone.
type BusinessClock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewBusinessClock returns a clock reading the system time in loc.
func NewBusinessClock(loc *time.Location) BusinessClock {
	if loc == nil {
		loc = time.UTC
	}
	return BusinessClock{Location: loc, Now: time.Now}
}

// Today is the current business date as YYYY-MM-DD.
func (c BusinessClock) Today() string {
	return c.now().In(c.location()).Format(dateLayout)
}

func (c BusinessClock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c BusinessClock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// parseDateParam validates an optional YYYY-MM-DD query value.
func parseDateParam(name string, value *string) (*string, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	if _, err := time.Parse(dateLayout, *value); err != nil {
		return nil, validationError("%s must be a date in YYYY-MM-DD format", name)
	}
	return value, nil
}

// validateDateRange checks both bounds and their order.
func validateDateRange(start, end *string) (*string, *string, error) {
	start, err := parseDateParam("start_date", start)
	if err != nil {
		return nil, nil, err
	}
	end, err = parseDateParam("end_date", end)
	if err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && *end < *start {
		return nil, nil, validationError("end_date cannot be earlier than start_date")
	}
	return start, end, nil
}

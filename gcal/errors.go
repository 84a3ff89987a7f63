package gcal

import "fmt"

// Error represents a failed calendar operation.
type Error struct {
	// Op is the operation that failed ("credentials", "token", "service", "list").
	Op string

	// CalendarID is set for operations on a specific calendar.
	CalendarID string

	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.CalendarID != "" {
		return fmt.Sprintf("gcal %s (calendar: %s): %v", e.Op, e.CalendarID, e.Err)
	}
	return fmt.Sprintf("gcal %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

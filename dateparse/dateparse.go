package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Parser defines the interface for resolving a reference instant.
type Parser interface {
	Parse(arg string) (time.Time, error)
}

// DefaultParser resolves reference instants in a fixed location.
type DefaultParser struct {
	loc *time.Location
	now func() time.Time
}

// New returns a DefaultParser for loc. A nil loc means UTC.
func New(loc *time.Location) *DefaultParser {
	if loc == nil {
		loc = time.UTC
	}
	return &DefaultParser{loc: loc, now: time.Now}
}

// Parse turns a command-line date argument into an instant in the parser's
// location. Relative words keep the current time of day so that the digest
// sees the same "now" it would see on that day.
func (p *DefaultParser) Parse(arg string) (time.Time, error) {
	now := p.now().In(p.loc)

	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "now", "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}

	if t, err := time.ParseInLocation("2006-01-02T15:04", arg, p.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", arg); err == nil {
		// Mid-morning, the usual delivery time.
		y, m, d := t.Date()
		return time.Date(y, m, d, 9, 0, 0, 0, p.loc), nil
	}
	if t, err := time.Parse(time.RFC3339, arg); err == nil {
		return t.In(p.loc), nil
	}
	return time.Time{}, fmt.Errorf("could not parse date %q: %w", arg, ErrUnknownFormat)
}

// ErrUnknownFormat is returned when no supported layout matches.
var ErrUnknownFormat = errors.New("expected today, tomorrow, yesterday, YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339")

package digest

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// When is one bound of a calendar entry. All-day bounds carry only Date,
// timed bounds carry only DateTime.
type When struct {
	Date     string    // civil date, "2006-01-02"
	DateTime time.Time // zero for all-day bounds
}

// Event is a single calendar entry as returned by the calendar collaborator.
type Event struct {
	Title       string
	Description string
	Location    string
	Start       When
	End         When
}

// AllDay reports whether both bounds are civil dates.
func (e Event) AllDay() bool {
	return e.Start.Date != "" && e.End.Date != ""
}

// Timed reports whether both bounds are instants.
func (e Event) Timed() bool {
	return !e.AllDay() && !e.Start.DateTime.IsZero() && !e.End.DateTime.IsZero()
}

// Line is one rendered entry of a digest section.
type Line struct {
	// Text is the head of the entry: a bracketed date or time range (if any)
	// followed by the title.
	Text        string
	Description string
	Location    string

	// SingleDay marks an all-day event covering exactly today.
	SingleDay bool
	// Crossing marks a timed event whose start or end falls on another day.
	Crossing bool
}

// render numbers the entry and appends the optional sub-lines.
func (l Line) render(n int, loc Locale) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(n))
	sb.WriteString(". ")
	sb.WriteString(l.Text)
	if l.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(loc.DetailPrefix)
		sb.WriteString(l.Description)
	}
	if l.Location != "" {
		sb.WriteString("\n")
		sb.WriteString(loc.LocationPrefix)
		sb.WriteString(l.Location)
	}
	sb.WriteString("\n")
	return sb.String()
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

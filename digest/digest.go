// Package digest turns a flat list of calendar entries into the daily
// message: all-day events active today, then timed events active today.
//
// Every day-boundary decision is made in the Builder's location, never in
// the process's local zone.
package digest

import (
	"strings"
	"time"
)

// Rule separates the sections of a digest.
const Rule = "--------------------------------------"

const dateLayout = "2006-01-02"

// Builder renders digests for one fixed civil timezone and locale.
type Builder struct {
	loc    *time.Location
	locale Locale
}

// NewBuilder returns a Builder. A nil location means UTC.
func NewBuilder(loc *time.Location, locale Locale) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{loc: loc, locale: locale}
}

// Location returns the timezone the builder compares dates in.
func (b *Builder) Location() *time.Location {
	return b.loc
}

// Build renders the full digest for the day containing now.
func (b *Builder) Build(now time.Time, events []Event) string {
	return b.Sections(now, events).String()
}

// Sections selects today's entries without rendering them.
func (b *Builder) Sections(now time.Time, events []Event) Sections {
	return Sections{
		locale: b.locale,
		Today:  b.civil(now),
		AllDay: b.AllDay(now, events),
		Timed:  b.Timed(now, events),
	}
}

// AllDay selects the all-day events covering today, in input order.
//
// An event is today's if it starts today, or if it started earlier and ends
// after today. A range of exactly [yesterday, today] belongs to yesterday.
// All-day end dates are exclusive.
func (b *Builder) AllDay(now time.Time, events []Event) []Line {
	today := b.civil(now)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	var out []Line
	for _, ev := range events {
		if !ev.AllDay() {
			continue
		}
		// Civil dates are compared as UTC midnights, which always exist.
		start, err := time.Parse(dateLayout, ev.Start.Date)
		if err != nil {
			continue
		}
		end, err := time.Parse(dateLayout, ev.End.Date)
		if err != nil {
			continue
		}

		active := start.Equal(today) ||
			(start.Before(today) && end.After(today) &&
				!(start.Equal(yesterday) && end.Equal(today)))
		if !active {
			continue
		}

		l := Line{
			Description: clean(ev.Description),
			Location:    clean(ev.Location),
			SingleDay:   start.Equal(today) && end.Equal(tomorrow),
		}
		if l.SingleDay {
			l.Text = b.title(ev)
		} else {
			l.Text = "[" + b.locale.day(start) + " - " + b.locale.day(end) + "]\n" + b.title(ev)
		}
		out = append(out, l)
	}
	return out
}

// Timed selects the timed events overlapping today, in input order.
//
// An event is today's if it starts today, or if it started before today and
// ends after today's first instant. An event ending exactly at midnight
// belongs to the previous day.
func (b *Builder) Timed(now time.Time, events []Event) []Line {
	today := b.civil(now)

	var out []Line
	for _, ev := range events {
		if !ev.Timed() {
			continue
		}
		start := ev.Start.DateTime.In(b.loc)
		end := ev.End.DateTime.In(b.loc)
		startDay, endDay := b.civil(start), b.civil(end)

		active := startDay.Equal(today) ||
			(startDay.Before(today) &&
				(endDay.After(today) || (endDay.Equal(today) && !atMidnight(end))))
		if !active {
			continue
		}

		l := Line{
			Description: clean(ev.Description),
			Location:    clean(ev.Location),
			Crossing:    !startDay.Equal(today) || !endDay.Equal(today),
		}
		if l.Crossing {
			l.Text = "[" + b.locale.day(start) + " " + start.Format("15:04") +
				" - " + b.locale.day(end) + " " + end.Format("15:04") + "]"
		} else {
			l.Text = "[" + start.Format("15:04") + " - " + end.Format("15:04") + "]"
		}
		l.Text += "\n" + b.title(ev)
		out = append(out, l)
	}
	return out
}

// Window returns the fetch bounds around now: from midnight days before
// today up to 23:59:59 days after today.
func (b *Builder) Window(now time.Time, days int) (time.Time, time.Time) {
	y, m, d := now.In(b.loc).Date()
	from := time.Date(y, m, d-days, 0, 0, 0, 0, b.loc)
	to := time.Date(y, m, d+days, 23, 59, 59, 0, b.loc)
	return from, to
}

func (b *Builder) title(ev Event) string {
	if t := clean(ev.Title); t != "" {
		return t
	}
	return b.locale.Untitled
}

// civil returns the calendar date of t in the builder's zone as a UTC
// midnight.
func (b *Builder) civil(t time.Time) time.Time {
	y, m, d := t.In(b.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func atMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// Sections holds the entries of one digest.
type Sections struct {
	locale Locale

	// Today is the digest's civil date as a UTC midnight.
	Today  time.Time
	AllDay []Line
	Timed  []Line
}

// String renders the digest message.
func (s Sections) String() string {
	lines := make([]string, 0, len(s.AllDay)+len(s.Timed)+7)
	lines = append(lines,
		s.locale.header(s.Today),
		"",
		Rule,
		s.locale.AllDayTitle,
	)
	for i, l := range s.AllDay {
		lines = append(lines, l.render(i+1, s.locale))
	}
	lines = append(lines, Rule, s.locale.TimedTitle)
	for i, l := range s.Timed {
		lines = append(lines, l.render(i+1, s.locale))
	}
	lines = append(lines, Rule)
	return strings.Join(lines, "\n")
}

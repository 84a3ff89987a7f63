package digest

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Locale holds the fixed strings of the digest template for one language.
type Locale struct {
	Tag            language.Tag
	HeaderFormat   string // fmt verb receives the formatted date
	AllDayTitle    string
	TimedTitle     string
	DetailPrefix   string
	LocationPrefix string
	Untitled       string
	Weekdays       [7]string // indexed by time.Weekday
}

var (
	Japanese = Locale{
		Tag:            language.Japanese,
		HeaderFormat:   "今日 %sの予定",
		AllDayTitle:    "■終日予定",
		TimedTitle:     "■時間予定",
		DetailPrefix:   "詳細: ",
		LocationPrefix: "場所: ",
		Untitled:       "(タイトルなし)",
		Weekdays:       [7]string{"日", "月", "火", "水", "木", "金", "土"},
	}
	English = Locale{
		Tag:            language.English,
		HeaderFormat:   "Schedule for %s",
		AllDayTitle:    "■All-day events",
		TimedTitle:     "■Timed events",
		DetailPrefix:   "detail: ",
		LocationPrefix: "location: ",
		Untitled:       "(no title)",
		Weekdays:       [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	}
)

var supported = []Locale{Japanese, English}

var matcher = language.NewMatcher([]language.Tag{Japanese.Tag, English.Tag})

// ParseLocale picks the closest supported locale for a BCP 47 tag.
// An empty tag selects Japanese.
func ParseLocale(s string) (Locale, error) {
	if s == "" {
		return Japanese, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Locale{}, fmt.Errorf("language.Parse(%q): %w", s, err)
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx], nil
}

// header renders the first line of the digest.
func (l Locale) header(today time.Time) string {
	return fmt.Sprintf(l.HeaderFormat, today.Format("2006/01/02")+" ("+l.Weekdays[today.Weekday()]+")")
}

// day renders "MM/DD (ddd)".
func (l Locale) day(t time.Time) string {
	return t.Format("01/02") + " (" + l.Weekdays[t.Weekday()] + ")"
}

package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	clockPattern   = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(:\d{2})?\s*(AM|PM)?$`)
	meridiemSuffix = regexp.MustCompile(`\s*(AM|PM)$`)
	monthDayLabel  = regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)

	clockLayouts = []string{"3:04:05 PM", "3:04 PM", "15:04:05", "15:04"}
)

// ParseTimestamp infers the layout of a free-form timestamp. Values without
// a zone are read as wall clock time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseClock parses a strict H:MM[:SS] [AM|PM] time of day and returns the
// offset from midnight.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if !clockPattern.MatchString(s) {
		return 0, false
	}
	s = strings.ToUpper(s)
	s = meridiemSuffix.ReplaceAllString(s, " $1")

	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second, true
	}
	return 0, false
}

// ParseDayLabel reads a spreadsheet column header as a calendar date. A
// bare month/day label is placed in defaultYear.
func ParseDayLabel(label string, defaultYear int, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(label, "00:00:00", ""))
	if s == "" {
		return time.Time{}, false
	}
	if monthDayLabel.MatchString(s) {
		s = fmt.Sprintf("%s/%d", s, defaultYear)
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}

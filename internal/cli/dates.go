// Package cli holds input parsing shared by the donedone commands.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/donedone/donedone-cli/pkg/donedone"
)

// Matches: "3d", "+2w", "in 1mo"
var offsetRegex = regexp.MustCompile(`^(?:\+|in\s+)?(\d+)\s*(mo|w|d)$`)

// ParseDate turns a human date into a calendar day relative to now.
// Supports: "today", "tomorrow", "friday", "next mon", "3d", "+2w", "1mo",
// YYYY-MM-DD and RFC3339. The result is midnight in now's location.
func ParseDate(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	input := strings.ToLower(raw)

	switch input {
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	case "today":
		return startOfDay(now), nil
	case "tomorrow":
		return startOfDay(now).AddDate(0, 0, 1), nil
	}

	if t, ok := parseWeekday(input, now); ok {
		return t, nil
	}

	if matches := offsetRegex.FindStringSubmatch(input); len(matches) == 3 {
		value, err := strconv.Atoi(matches[1])
		if err != nil || value < 1 {
			return time.Time{}, fmt.Errorf("invalid date offset %q", raw)
		}
		return applyOffset(startOfDay(now), value, matches[2]), nil
	}

	if t, err := time.ParseInLocation(donedone.DueDateLayout, raw, now.Location()); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
	}

	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseWeekday resolves "fri" to the next Friday, today included; "next fri"
// skips today.
func parseWeekday(expr string, now time.Time) (time.Time, bool) {
	input := expr
	next := false
	if rest, ok := strings.CutPrefix(input, "next "); ok {
		next = true
		input = strings.TrimSpace(rest)
	} else if rest, ok := strings.CutPrefix(input, "this "); ok {
		input = strings.TrimSpace(rest)
	}

	weekday, ok := weekdayMap[input]
	if !ok {
		return time.Time{}, false
	}

	base := startOfDay(now)
	delta := (int(weekday) - int(base.Weekday()) + 7) % 7
	if next && delta == 0 {
		delta = 7
	}
	return base.AddDate(0, 0, delta), true
}

var weekdayMap = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

func applyOffset(day time.Time, value int, unit string) time.Time {
	switch unit {
	case "mo":
		return day.AddDate(0, value, 0)
	case "w":
		return day.AddDate(0, 0, 7*value)
	default:
		return day.AddDate(0, 0, value)
	}
}

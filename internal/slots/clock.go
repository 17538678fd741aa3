package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/store"
)

// ParseClock converts a canonical HH:MM value to minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, apperr.Validationf("time %q must be in HH:MM form", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, apperr.Validationf("time %q must be in HH:MM form", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, apperr.Validationf("time %q must be in HH:MM form", value)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a canonical YYYY-MM-DD value.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(store.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, apperr.Validationf("date %q must be in YYYY-MM-DD form", value)
	}
	return parsed, nil
}

// StartAt combines a date and clock value into a local time.
func StartAt(date, clock string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(minutes) * time.Minute), nil
}

// beforeToday reports whether the date lies strictly before today.
func beforeToday(date time.Time, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return date.Before(today)
}

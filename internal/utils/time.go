package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/ibadah/internal/constants"
)

// ErrInvalidDayKey is returned for strings that are not zero-padded YYYY-MM-DD keys.
var ErrInvalidDayKey = errors.New("invalid day key")

// DayKey formats t as a day key in t's own location (the user's civil calendar).
func DayKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// TodayKey returns today's day key in the given IANA timezone ("" or "Local" for the system zone).
func TodayKey(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return DayKey(now), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// IsDayKey reports whether s is a fixed-width, zero-padded YYYY-MM-DD calendar date.
func IsDayKey(s string) bool {
	if len(s) != len(constants.DateFormat) || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// ValidateDayKey returns ErrInvalidDayKey wrapped with the offending value.
func ValidateDayKey(s string) error {
	if !IsDayKey(s) {
		return fmt.Errorf("%w: %q", ErrInvalidDayKey, s)
	}
	return nil
}

// ParseDayKey parses a day key at UTC midnight. UTC keeps day arithmetic free of DST shifts.
func ParseDayKey(s string) (time.Time, error) {
	if err := ValidateDayKey(s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(constants.DateFormat, s)
}

// ShiftDay returns the key n calendar days away from key.
func ShiftDay(key string, n int) (string, error) {
	t, err := ParseDayKey(key)
	if err != nil {
		return "", err
	}
	return DayKey(t.AddDate(0, 0, n)), nil
}

// CompareDayKeys compares two day keys lexicographically, which matches
// calendar order only because keys are zero-padded. It panics on keys that
// are not.
func CompareDayKeys(a, b string) int {
	mustDayKey(a)
	mustDayKey(b)
	return strings.Compare(a, b)
}

// IsAfter reports whether key a falls after key b.
func IsAfter(a, b string) bool {
	return CompareDayKeys(a, b) > 0
}

// IsNextDay reports whether b is exactly one calendar day after a.
func IsNextDay(a, b string) bool {
	next, err := ShiftDay(a, 1)
	return err == nil && next == b
}

// MonthPrefix returns the YYYY-MM prefix shared by every day key in the month.
func MonthPrefix(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(constants.MonthFormat)
}

// ParseMonth validates a YYYY-MM string and returns it unchanged.
func ParseMonth(s string) (string, error) {
	t, err := time.Parse(constants.MonthFormat, s)
	if err != nil || len(s) != len(constants.MonthFormat) {
		return "", fmt.Errorf("invalid month %q, use YYYY-MM", s)
	}
	return t.Format(constants.MonthFormat), nil
}

func mustDayKey(s string) {
	if !IsDayKey(s) {
		panic(fmt.Sprintf("day key %q is not zero-padded YYYY-MM-DD", s))
	}
}

package utils

import (
	"errors"
	"testing"
	"time"
)

func TestIsDayKey(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2026-02-20", true},
		{"2024-02-29", true},
		{"2026-2-20", false},
		{"2026-02-5", false},
		{"2026/02/20", false},
		{"2025-02-29", false},
		{"2026-13-01", false},
		{"", false},
		{"20260220xx", false},
	}
	for _, tt := range tests {
		if got := IsDayKey(tt.in); got != tt.want {
			t.Errorf("IsDayKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateDayKey(t *testing.T) {
	if err := ValidateDayKey("2026-02-20"); err != nil {
		t.Errorf("expected valid key, got %v", err)
	}
	if err := ValidateDayKey("2026-2-20"); !errors.Is(err, ErrInvalidDayKey) {
		t.Errorf("expected ErrInvalidDayKey, got %v", err)
	}
}

func TestShiftDay(t *testing.T) {
	tests := []struct {
		key  string
		n    int
		want string
	}{
		{"2026-02-20", -1, "2026-02-19"},
		{"2026-03-01", -1, "2026-02-28"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2025-12-31", 1, "2026-01-01"},
		{"2026-02-20", 0, "2026-02-20"},
	}
	for _, tt := range tests {
		got, err := ShiftDay(tt.key, tt.n)
		if err != nil {
			t.Fatalf("ShiftDay(%q, %d) error: %v", tt.key, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("ShiftDay(%q, %d) = %q, want %q", tt.key, tt.n, got, tt.want)
		}
	}

	if _, err := ShiftDay("bad", 1); err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestCompareDayKeys(t *testing.T) {
	if CompareDayKeys("2026-02-09", "2026-02-10") >= 0 {
		t.Error("expected 2026-02-09 before 2026-02-10")
	}
	if !IsAfter("2026-03-01", "2026-02-28") {
		t.Error("expected 2026-03-01 after 2026-02-28")
	}
	if CompareDayKeys("2026-02-20", "2026-02-20") != 0 {
		t.Error("expected equal keys to compare as 0")
	}
}

func TestCompareDayKeysPanicsOnUnpaddedKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unpadded key")
		}
	}()
	CompareDayKeys("2026-2-9", "2026-02-10")
}

func TestIsNextDay(t *testing.T) {
	if !IsNextDay("2026-02-28", "2026-03-01") {
		t.Error("expected 2026-03-01 to follow 2026-02-28")
	}
	if IsNextDay("2026-02-20", "2026-02-22") {
		t.Error("2026-02-22 does not follow 2026-02-20")
	}
}

func TestDayKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	// 2026-02-20 20:00 UTC is already 2026-02-21 in UTC+7.
	ts := time.Date(2026, 2, 20, 20, 0, 0, 0, time.UTC).In(loc)
	if got := DayKey(ts); got != "2026-02-21" {
		t.Errorf("DayKey() = %q, want 2026-02-21", got)
	}
}

func TestMonthHelpers(t *testing.T) {
	if got := MonthPrefix(2026, time.February); got != "2026-02" {
		t.Errorf("MonthPrefix() = %q, want 2026-02", got)
	}
	if _, err := ParseMonth("2026-2"); err == nil {
		t.Error("expected error for unpadded month")
	}
	if got, err := ParseMonth("2026-03"); err != nil || got != "2026-03" {
		t.Errorf("ParseMonth() = %q, %v", got, err)
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.Local {
		t.Errorf("expected time.Local for empty timezone, got %v, %v", loc, err)
	}
	if _, err := NowInTimezone("Not/AZone"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

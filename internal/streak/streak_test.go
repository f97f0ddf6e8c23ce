package streak

import "testing"

func TestCurrent(t *testing.T) {
	const today = "2026-02-21"

	tests := []struct {
		name   string
		ledger []string
		want   int
	}{
		{"empty", nil, 0},
		{"today only", []string{"2026-02-21"}, 1},
		{"today and two before", []string{"2026-02-21", "2026-02-20", "2026-02-19"}, 3},
		{"run ending yesterday", []string{"2026-02-20", "2026-02-19"}, 2},
		{"gap at yesterday", []string{"2026-02-19"}, 0},
		{"long run broken by yesterday", []string{"2026-02-15", "2026-02-16", "2026-02-17", "2026-02-18", "2026-02-19"}, 0},
		{"today with gap before", []string{"2026-02-21", "2026-02-19", "2026-02-18"}, 1},
		{"future dates ignored", []string{"2026-02-22", "2026-02-23"}, 0},
		{"across month boundary", []string{"2026-03-01", "2026-02-28", "2026-02-27"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentFromDates(tt.ledger, today); got != tt.want {
				t.Errorf("CurrentFromDates(%v) = %d, want %d", tt.ledger, got, tt.want)
			}
		})
	}
}

func TestCurrentAcrossMonthBoundary(t *testing.T) {
	ledger := []string{"2026-03-01", "2026-02-28", "2026-02-27"}
	if got := CurrentFromDates(ledger, "2026-03-01"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := CurrentFromDates(ledger, "2026-03-02"); got != 3 {
		t.Errorf("expected run ending yesterday to count 3, got %d", got)
	}
}

func TestCurrentInvalidToday(t *testing.T) {
	if got := CurrentFromDates([]string{"2026-02-20"}, "bad"); got != 0 {
		t.Errorf("expected 0 for invalid today, got %d", got)
	}
}

func TestLongest(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"empty", nil, 0},
		{"single", []string{"2026-02-10"}, 1},
		{"unsorted run", []string{"2026-02-12", "2026-02-10", "2026-02-11"}, 3},
		{"two runs", []string{"2026-02-01", "2026-02-02", "2026-02-05", "2026-02-06", "2026-02-07", "2026-02-08"}, 4},
		{"duplicates", []string{"2026-02-01", "2026-02-01", "2026-02-02"}, 2},
		{"leap day", []string{"2024-02-28", "2024-02-29", "2024-03-01"}, 3},
		{"junk skipped", []string{"2026-02-01", "x", "2026-02-02"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Longest(tt.dates); got != tt.want {
				t.Errorf("Longest(%v) = %d, want %d", tt.dates, got, tt.want)
			}
		})
	}
}

func TestLongestIgnoresToday(t *testing.T) {
	dates := []string{"2025-03-01", "2025-03-02", "2025-03-03"}
	if Longest(dates) != 3 {
		t.Error("longest streak must not depend on today")
	}
	if CurrentFromDates(dates, "2026-02-21") != 0 {
		t.Error("expected current streak 0 for an old run")
	}
}

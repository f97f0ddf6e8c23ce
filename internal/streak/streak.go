// Package streak derives fasting streaks from a set of day keys.
package streak

import (
	"sort"

	"github.com/julianstephens/ibadah/internal/utils"
)

// Current returns the streak as of today.
//
// When today is in the ledger the run ending today counts. Otherwise, when
// yesterday is in the ledger, the run ending yesterday counts and today does
// not reset it. Any other ledger yields 0, however long the earlier run was.
func Current(ledger map[string]struct{}, today string) int {
	if _, ok := ledger[today]; ok {
		return runEndingAt(ledger, today)
	}
	yesterday, err := utils.ShiftDay(today, -1)
	if err != nil {
		return 0
	}
	if _, ok := ledger[yesterday]; ok {
		return runEndingAt(ledger, yesterday)
	}
	return 0
}

// CurrentFromDates is Current over a list of day keys.
func CurrentFromDates(dates []string, today string) int {
	return Current(ToSet(dates), today)
}

// Longest returns the longest run of calendar-consecutive days, independent of today.
func Longest(dates []string) int {
	set := ToSet(dates)
	if len(set) == 0 {
		return 0
	}
	sorted := make([]string, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if utils.IsNextDay(sorted[i-1], sorted[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// ToSet builds a membership set from valid day keys.
func ToSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if utils.IsDayKey(d) {
			set[d] = struct{}{}
		}
	}
	return set
}

// runEndingAt counts end and every directly preceding day present in ledger.
func runEndingAt(ledger map[string]struct{}, end string) int {
	n := 0
	day := end
	for {
		if _, ok := ledger[day]; !ok {
			return n
		}
		n++
		prev, err := utils.ShiftDay(day, -1)
		if err != nil {
			return n
		}
		day = prev
	}
}

package journal

import (
	"sort"

	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/storage"
	"github.com/julianstephens/ibadah/internal/utils"
)

// FastingLedger is the set of days the user fasted, stored as a sorted list.
type FastingLedger struct {
	store storage.Store
}

// Dates returns the ledger sorted and without duplicates.
func (l *FastingLedger) Dates() []string {
	var dates []string
	if !readJSON(l.store, constants.FastingKey, &dates) {
		return []string{}
	}
	return normalizeDates(dates)
}

// Set returns the ledger as a membership set.
func (l *FastingLedger) Set() map[string]struct{} {
	dates := l.Dates()
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// Contains reports whether date is in the ledger.
func (l *FastingLedger) Contains(date string) bool {
	_, ok := l.Set()[date]
	return ok
}

// Toggle adds (on) or removes (off) date. Adding a present date and removing
// an absent one are no-ops that do not touch storage.
func (l *FastingLedger) Toggle(date string, on bool) ([]string, error) {
	if err := utils.ValidateDayKey(date); err != nil {
		return l.Dates(), err
	}
	set := l.Set()
	_, present := set[date]
	if present == on {
		return l.Dates(), nil
	}
	if on {
		set[date] = struct{}{}
	} else {
		delete(set, date)
	}

	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	dates = normalizeDates(dates)
	return dates, l.Write(dates)
}

// Write replaces the ledger.
func (l *FastingLedger) Write(dates []string) error {
	return writeJSON(l.store, constants.FastingKey, normalizeDates(dates))
}

func normalizeDates(dates []string) []string {
	out := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if !utils.IsDayKey(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

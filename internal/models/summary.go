package models

import "sort"

// SummaryMap maps a day key to that day's progress percentage.
type SummaryMap map[string]int

// Clone returns an independent copy; a nil map clones to an empty one.
func (m SummaryMap) Clone() SummaryMap {
	out := make(SummaryMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Dates returns the keys in ascending order.
func (m SummaryMap) Dates() []string {
	dates := make([]string, 0, len(m))
	for k := range m {
		dates = append(dates, k)
	}
	sort.Strings(dates)
	return dates
}

// Equal reports whether both maps hold the same entries.
func (m SummaryMap) Equal(other SummaryMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

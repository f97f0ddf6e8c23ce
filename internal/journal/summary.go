package journal

import (
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/storage"
)

// SummaryCache is the locally cached day -> progress rollup.
type SummaryCache struct {
	store storage.Store
}

// Load returns the cached map, empty when absent or corrupt.
func (c *SummaryCache) Load() models.SummaryMap {
	m := models.SummaryMap{}
	if !readJSON(c.store, constants.SummaryKey, &m) || m == nil {
		return models.SummaryMap{}
	}
	return m
}

// Upsert sets the progress for one day.
func (c *SummaryCache) Upsert(date string, progress int) error {
	m := c.Load()
	if v, ok := m[date]; ok && v == progress {
		return nil
	}
	m[date] = progress
	return c.Write(m)
}

// Write replaces the cached map.
func (c *SummaryCache) Write(m models.SummaryMap) error {
	if m == nil {
		m = models.SummaryMap{}
	}
	return writeJSON(c.store, constants.SummaryKey, m)
}

// RebuildFromAllDays recomputes progress for every stored day and overwrites
// cached values that differ. Day records are authoritative over the cache.
// Empty task lists are skipped. Running it twice yields the same map.
func (c *SummaryCache) RebuildFromAllDays(days *DayStore) (models.SummaryMap, error) {
	m := c.Load()
	dates, err := days.Dates()
	if err != nil {
		return m, err
	}

	changed := false
	for _, date := range dates {
		tasks, ok := days.Stored(date)
		if !ok || len(tasks) == 0 {
			continue
		}
		p := models.Progress(tasks)
		if cur, has := m[date]; !has || cur != p {
			m[date] = p
			changed = true
		}
	}

	if changed {
		if err := c.Write(m); err != nil {
			return m, err
		}
	}
	return m, nil
}

package journal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/storage"
	"github.com/julianstephens/ibadah/internal/utils"
)

// DayStore persists one task list per calendar day.
type DayStore struct {
	store   storage.Store
	catalog []models.WorshipTask
	summary *SummaryCache
}

func dayStorageKey(date string) string {
	return constants.DayKeyPrefix + date
}

// Catalog returns a copy of the task list new days start from.
func (s *DayStore) Catalog() []models.WorshipTask {
	return models.CloneTasks(s.catalog)
}

// Stored returns the task list saved for date exactly as written.
func (s *DayStore) Stored(date string) ([]models.WorshipTask, bool) {
	var tasks []models.WorshipTask
	if !readJSON(s.store, dayStorageKey(date), &tasks) {
		return nil, false
	}
	return tasks, true
}

// Has reports whether a readable record exists for date.
func (s *DayStore) Has(date string) bool {
	_, ok := s.Stored(date)
	return ok
}

// Load returns the record for date with stored completion flags merged onto
// the catalog. Days without a readable record start from the fresh catalog.
func (s *DayStore) Load(date string) models.DayRecord {
	stored, ok := s.Stored(date)
	if !ok {
		return models.NewDayRecord(date, s.catalog)
	}
	return models.NewDayRecord(date, catalog.Merge(s.catalog, stored))
}

// Save recomputes progress, writes the task list and upserts the summary.
// The returned record carries the recomputed progress even when the write
// fails.
func (s *DayStore) Save(rec models.DayRecord) (models.DayRecord, error) {
	rec = models.NewDayRecord(rec.Date, rec.Tasks)
	if err := utils.ValidateDayKey(rec.Date); err != nil {
		return rec, err
	}
	if err := writeJSON(s.store, dayStorageKey(rec.Date), rec.Tasks); err != nil {
		return rec, fmt.Errorf("failed to save day %s: %w", rec.Date, err)
	}
	if s.summary != nil {
		if err := s.summary.Upsert(rec.Date, rec.Progress); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Seed writes tasks for date only when no readable record exists yet.
// It reports whether anything was written.
func (s *DayStore) Seed(date string, tasks []models.WorshipTask) (bool, error) {
	if s.Has(date) {
		return false, nil
	}
	if err := writeJSON(s.store, dayStorageKey(date), tasks); err != nil {
		return false, fmt.Errorf("failed to seed day %s: %w", date, err)
	}
	return true, nil
}

// Dates lists every day with a stored record, ascending. Keys whose suffix is
// not a valid day key are skipped.
func (s *DayStore) Dates() ([]string, error) {
	keys, err := s.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list day records: %w", err)
	}
	var dates []string
	for _, k := range keys {
		if !strings.HasPrefix(k, constants.DayKeyPrefix) {
			continue
		}
		date := strings.TrimPrefix(k, constants.DayKeyPrefix)
		if utils.IsDayKey(date) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

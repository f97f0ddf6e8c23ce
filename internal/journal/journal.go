// Package journal holds the per-device worship and fasting records kept in
// the local key/value store.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/storage"
)

// Journal groups the local stores that share one key/value backend.
type Journal struct {
	store storage.Store

	Days     *DayStore
	Summary  *SummaryCache
	Fasting  *FastingLedger
	Bookmark *BookmarkStore
	Session  *SessionStore
}

// New wires every local store over store. catalog is the task list fresh days
// start from.
func New(store storage.Store, catalog []models.WorshipTask) *Journal {
	summary := &SummaryCache{store: store}
	return &Journal{
		store:    store,
		Days:     &DayStore{store: store, catalog: models.CloneTasks(catalog), summary: summary},
		Summary:  summary,
		Fasting:  &FastingLedger{store: store},
		Bookmark: &BookmarkStore{store: store},
		Session:  &SessionStore{store: store},
	}
}

// ClearUserData removes every per-user key: day records, the summary, the
// fasting ledger, the bookmark and the session. The device id survives.
func (j *Journal) ClearUserData() error {
	keys, err := j.store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list local keys: %w", err)
	}

	var errs []error
	for _, k := range keys {
		if !isUserKey(k) {
			continue
		}
		if err := j.store.Remove(k); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func isUserKey(k string) bool {
	if strings.HasPrefix(k, constants.DayKeyPrefix) {
		return true
	}
	switch k {
	case constants.SummaryKey, constants.FastingKey, constants.LegacyFastingKey,
		constants.BookmarkKey, constants.SessionKey:
		return true
	}
	return false
}

// readJSON decodes key into v. Missing, unreadable and corrupt values all
// report false; the latter two are logged.
func readJSON(store storage.Store, key string, v interface{}) bool {
	raw, err := store.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("local read failed, treating as absent", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logger.Warn("corrupt local record, treating as absent", "key", key, "error", err)
		return false
	}
	return true
}

func writeJSON(store storage.Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Set(key, string(raw))
}

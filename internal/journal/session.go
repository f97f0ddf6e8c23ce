package journal

import (
	"errors"

	"github.com/google/uuid"

	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/storage"
)

// SessionStore remembers who is signed in on this device.
type SessionStore struct {
	store storage.Store
}

// Current returns the active session, if any.
func (s *SessionStore) Current() (models.Session, bool) {
	var sess models.Session
	if !readJSON(s.store, constants.SessionKey, &sess) || sess.UID == "" {
		return models.Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Save(sess models.Session) error {
	if sess.UID == "" {
		return errors.New("session uid cannot be empty")
	}
	return writeJSON(s.store, constants.SessionKey, sess)
}

// DeviceID returns the id generated on first use for this device.
func (s *SessionStore) DeviceID() string {
	id, err := s.store.Get(constants.DeviceIDKey)
	if err == nil && id != "" {
		return id
	}
	id = uuid.NewString()
	if err := s.store.Set(constants.DeviceIDKey, id); err != nil {
		logger.Warn("failed to persist device id", "error", err)
	}
	return id
}

// BookmarkStore holds the last Quran position read on this device.
type BookmarkStore struct {
	store storage.Store
}

func (b *BookmarkStore) Load() (models.Bookmark, bool) {
	var bm models.Bookmark
	if !readJSON(b.store, constants.BookmarkKey, &bm) || bm.Surah == 0 {
		return models.Bookmark{}, false
	}
	return bm, true
}

func (b *BookmarkStore) Save(bm models.Bookmark) error {
	if bm.Surah < 1 || bm.Surah > 114 || bm.Ayah < 1 {
		return errors.New("bookmark must reference surah 1-114 and ayah >= 1")
	}
	return writeJSON(b.store, constants.BookmarkKey, bm)
}

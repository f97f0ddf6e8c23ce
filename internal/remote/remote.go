// Package remote defines the per-user cloud document store and its backends.
package remote

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/ibadah/internal/models"
)

// ErrNotFound is returned when a user document or daily log does not exist.
var ErrNotFound = errors.New("remote document not found")

// UserDocument is the per-user aggregate document.
type UserDocument struct {
	UID             string            `json:"uid" firestore:"uid"`
	Email           string            `json:"email,omitempty" firestore:"email,omitempty"`
	DisplayName     string            `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL        string            `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	WorshipHistory  models.SummaryMap `json:"worshipHistory" firestore:"worshipHistory"`
	FastingHistory  []string          `json:"fastingHistory" firestore:"fastingHistory"`
	FastingStreak   int               `json:"fastingStreak" firestore:"fastingStreak"`
	WorshipProgress int               `json:"worshipProgress" firestore:"worshipProgress"`
	CurrentCity     string            `json:"currentCity" firestore:"currentCity"`
	LastRead        *models.Bookmark  `json:"lastRead,omitempty" firestore:"lastRead,omitempty"`
	CreatedAt       time.Time         `json:"createdAt" firestore:"createdAt"`
}

// DailyLog is the detailed record for one (user, day).
type DailyLog struct {
	Date      string               `json:"date" firestore:"date"`
	Tasks     []models.WorshipTask `json:"tasks" firestore:"tasks"`
	Progress  int                  `json:"progress" firestore:"progress"`
	UpdatedAt time.Time            `json:"updatedAt" firestore:"updatedAt"`
}

// UserPatch is a partial update. Nil fields are left untouched;
// WorshipHistory merges key by key while FastingHistory replaces the list.
type UserPatch struct {
	WorshipHistory  models.SummaryMap
	FastingHistory  []string
	FastingStreak   *int
	WorshipProgress *int
	LastRead        *models.Bookmark
}

// Empty reports whether the patch would change nothing.
func (p UserPatch) Empty() bool {
	return len(p.WorshipHistory) == 0 && p.FastingHistory == nil && p.FastingStreak == nil &&
		p.WorshipProgress == nil && p.LastRead == nil
}

// Provider is a remote document store. Implementations must apply every
// write as a merge; no call may replace a user document wholesale.
type Provider interface {
	// GetUser returns ErrNotFound when the user has no document yet.
	GetUser(ctx context.Context, uid string) (*UserDocument, error)
	// EnsureUser creates the document with defaults when absent, otherwise
	// merges the non-empty profile fields. It returns the stored document.
	EnsureUser(ctx context.Context, uid string, profile models.Profile) (*UserDocument, error)
	MergeUser(ctx context.Context, uid string, patch UserPatch) error
	// SetFasting adds or removes a single ledger date and stores streak.
	SetFasting(ctx context.Context, uid, date string, fasted bool, streak int) error

	SaveDailyLog(ctx context.Context, uid string, log DailyLog) error
	// GetDailyLog returns ErrNotFound when no log exists for date.
	GetDailyLog(ctx context.Context, uid, date string) (*DailyLog, error)
	// ListDailyLogs scans the whole collection; no ordering is guaranteed.
	ListDailyLogs(ctx context.Context, uid string) ([]DailyLog, error)

	Close() error
}

// NewUserDocument returns the defaults a first sign-in starts from.
func NewUserDocument(uid string, profile models.Profile, city string, now time.Time) *UserDocument {
	return &UserDocument{
		UID:            uid,
		Email:          profile.Email,
		DisplayName:    profile.DisplayName,
		PhotoURL:       profile.PhotoURL,
		WorshipHistory: models.SummaryMap{},
		FastingHistory: []string{},
		CurrentCity:    city,
		CreatedAt:      now,
	}
}

// MonthlyLogs scans every log and keeps those whose date starts with the
// YYYY-MM prefix, sorted by date. Stores are not assumed to filter by range.
func MonthlyLogs(ctx context.Context, p Provider, uid, monthPrefix string) ([]DailyLog, error) {
	logs, err := p.ListDailyLogs(ctx, uid)
	if err != nil {
		return nil, err
	}
	var out []DailyLog
	for _, l := range logs {
		if strings.HasPrefix(l.Date, monthPrefix+"-") {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// IndexLogs keys logs by date.
func IndexLogs(logs []DailyLog) map[string]DailyLog {
	idx := make(map[string]DailyLog, len(logs))
	for _, l := range logs {
		idx[l.Date] = l
	}
	return idx
}

// ApplyPatch merges patch into doc in place. Backends that store the document
// as one value share it.
func ApplyPatch(doc *UserDocument, patch UserPatch) {
	if len(patch.WorshipHistory) > 0 {
		if doc.WorshipHistory == nil {
			doc.WorshipHistory = models.SummaryMap{}
		}
		for k, v := range patch.WorshipHistory {
			doc.WorshipHistory[k] = v
		}
	}
	if patch.FastingHistory != nil {
		doc.FastingHistory = append([]string{}, patch.FastingHistory...)
	}
	if patch.FastingStreak != nil {
		doc.FastingStreak = *patch.FastingStreak
	}
	if patch.WorshipProgress != nil {
		doc.WorshipProgress = *patch.WorshipProgress
	}
	if patch.LastRead != nil {
		bm := *patch.LastRead
		doc.LastRead = &bm
	}
}

// ApplyProfile copies the non-empty profile fields onto doc.
func ApplyProfile(doc *UserDocument, profile models.Profile) {
	if profile.Email != "" {
		doc.Email = profile.Email
	}
	if profile.DisplayName != "" {
		doc.DisplayName = profile.DisplayName
	}
	if profile.PhotoURL != "" {
		doc.PhotoURL = profile.PhotoURL
	}
}

// ApplyFasting adds or removes date from doc's ledger, keeping it sorted.
func ApplyFasting(doc *UserDocument, date string, fasted bool, streak int) {
	set := make(map[string]struct{}, len(doc.FastingHistory)+1)
	for _, d := range doc.FastingHistory {
		set[d] = struct{}{}
	}
	if fasted {
		set[date] = struct{}{}
	} else {
		delete(set, date)
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	doc.FastingHistory = dates
	doc.FastingStreak = streak
}

// CloneDocument deep-copies a document so callers cannot alias backend state.
func CloneDocument(doc *UserDocument) *UserDocument {
	c := *doc
	c.WorshipHistory = doc.WorshipHistory.Clone()
	c.FastingHistory = append([]string{}, doc.FastingHistory...)
	if doc.LastRead != nil {
		bm := *doc.LastRead
		c.LastRead = &bm
	}
	return &c
}

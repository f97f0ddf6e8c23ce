// Package reconcile merges a device's local worship and fasting records with
// the signed-in user's remote document. Merges only ever raise progress
// values and union fasting dates, so running it repeatedly is safe.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/metrics"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/streak"
	"github.com/julianstephens/ibadah/internal/utils"
)

// Result describes what one reconciliation run did.
type Result struct {
	RunID string
	// Pulled counts summary values raised by remote daily logs.
	Pulled int
	// Seeded counts local day records created from remote daily logs.
	Seeded int
	// Pushed counts local days written as remote daily logs.
	Pushed       int
	PushFailures int
	// RemoteChanged reports whether the user document was written.
	RemoteChanged bool
	Streak        int
	Summary       models.SummaryMap
	Fasting       []string
}

// Engine runs reconciliation for one device.
type Engine struct {
	mu      sync.Mutex
	journal *journal.Journal
	remote  remote.Provider
	metrics *metrics.Metrics
	today   func() string
	now     func() time.Time
}

type Option func(*Engine)

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithToday overrides the day key streaks are computed against.
func WithToday(today func() string) Option {
	return func(e *Engine) { e.today = today }
}

// WithClock overrides the timestamp stamped on pushed daily logs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(j *journal.Journal, r remote.Provider, opts ...Option) *Engine {
	e := &Engine{
		journal: j,
		remote:  r,
		now:     time.Now,
	}
	e.today = func() string { return utils.DayKey(e.now()) }
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile merges local and remote state for uid. A failed remote read
// aborts before anything local is written. Failed remote writes are logged
// and counted in the result; they never fail the run.
func (e *Engine) Reconcile(ctx context.Context, uid string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	res := Result{RunID: uuid.NewString()}
	l := logger.With("run", res.RunID, "uid", uid)

	err := e.reconcile(ctx, uid, l, &res)
	e.metrics.ObserveReconcile(time.Since(start), res.Pulled, res.Seeded, res.Pushed, res.PushFailures, res.Streak, err)
	if err != nil {
		l.Warn("reconciliation aborted", "error", err)
		return res, err
	}
	l.Info("reconciliation finished",
		"pulled", res.Pulled, "seeded", res.Seeded, "pushed", res.Pushed,
		"failures", res.PushFailures, "remoteChanged", res.RemoteChanged, "streak", res.Streak)
	return res, nil
}

func (e *Engine) reconcile(ctx context.Context, uid string, l *log.Logger, res *Result) error {
	if uid == "" {
		return errors.New("reconcile requires a signed-in user")
	}

	doc, err := e.remote.GetUser(ctx, uid)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		doc = &remote.UserDocument{UID: uid}
	case err != nil:
		return fmt.Errorf("failed to read user document: %w", err)
	}
	logs, err := e.remote.ListDailyLogs(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to list daily logs: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date < logs[j].Date })
	remoteLogs := remote.IndexLogs(logs)

	// Day records are authoritative over the cached summary.
	localSummary, err := e.journal.Summary.RebuildFromAllDays(e.journal.Days)
	if err != nil {
		l.Warn("summary rebuild incomplete", "error", err)
	}

	merged := doc.WorshipHistory.Clone()
	if merged == nil {
		merged = models.SummaryMap{}
	}
	fasting := streak.ToSet(doc.FastingHistory)

	for _, dl := range logs {
		if !utils.IsDayKey(dl.Date) {
			l.Warn("skipping daily log with malformed date", "date", dl.Date)
			continue
		}
		if cur, ok := merged[dl.Date]; !ok || dl.Progress > cur {
			merged[dl.Date] = dl.Progress
			res.Pulled++
		}
		if len(dl.Tasks) == 0 {
			continue
		}
		seeded, err := e.journal.Days.Seed(dl.Date, dl.Tasks)
		if err != nil {
			l.Warn("failed to seed day from remote log", "date", dl.Date, "error", err)
			continue
		}
		if seeded {
			res.Seeded++
		}
	}

	for date, v := range localSummary {
		if cur, ok := merged[date]; !ok || v > cur {
			merged[date] = v
		}
	}

	for _, d := range e.journal.Fasting.Dates() {
		fasting[d] = struct{}{}
	}

	e.pushLocalDays(ctx, uid, l, remoteLogs, merged, res)

	res.Streak = streak.Current(fasting, e.today())
	res.Summary = merged
	res.Fasting = sortedDates(fasting)

	patch := remote.UserPatch{}
	if !merged.Equal(doc.WorshipHistory) {
		patch.WorshipHistory = merged
	}
	if !equalDates(res.Fasting, doc.FastingHistory) {
		patch.FastingHistory = res.Fasting
	}
	if res.Streak != doc.FastingStreak {
		s := res.Streak
		patch.FastingStreak = &s
	}
	if p, ok := merged[e.today()]; ok && p != doc.WorshipProgress {
		patch.WorshipProgress = &p
	}
	e.reconcileBookmark(doc, &patch, l)

	if !patch.Empty() {
		if err := e.remote.MergeUser(ctx, uid, patch); err != nil {
			res.PushFailures++
			l.Warn("failed to write merged user document", "error", err)
		} else {
			res.RemoteChanged = true
		}
	}

	if err := e.journal.Summary.Write(merged); err != nil {
		l.Warn("failed to write local summary", "error", err)
	}
	if err := e.journal.Fasting.Write(res.Fasting); err != nil {
		l.Warn("failed to write local fasting ledger", "error", err)
	}
	return nil
}

// pushLocalDays uploads local days the remote has no log for, or a lower
// one, and folds their progress into merged.
func (e *Engine) pushLocalDays(ctx context.Context, uid string, l *log.Logger, remoteLogs map[string]remote.DailyLog, merged models.SummaryMap, res *Result) {
	dates, err := e.journal.Days.Dates()
	if err != nil {
		l.Warn("failed to list local days", "error", err)
		return
	}
	for _, date := range dates {
		tasks, ok := e.journal.Days.Stored(date)
		if !ok || len(tasks) == 0 {
			continue
		}
		p := models.Progress(tasks)
		if p == 0 {
			continue
		}
		if existing, ok := remoteLogs[date]; ok && p <= existing.Progress {
			continue
		}

		if p > merged[date] {
			merged[date] = p
		}
		err := e.remote.SaveDailyLog(ctx, uid, remote.DailyLog{
			Date:      date,
			Tasks:     tasks,
			Progress:  p,
			UpdatedAt: e.now(),
		})
		if err != nil {
			res.PushFailures++
			l.Warn("failed to push daily log", "date", date, "error", err)
			continue
		}
		res.Pushed++
	}
}

// reconcileBookmark keeps whichever last-read position is newer.
func (e *Engine) reconcileBookmark(doc *remote.UserDocument, patch *remote.UserPatch, l *log.Logger) {
	local, hasLocal := e.journal.Bookmark.Load()
	switch {
	case doc.LastRead != nil && (!hasLocal || doc.LastRead.UpdatedAt.After(local.UpdatedAt)):
		if err := e.journal.Bookmark.Save(*doc.LastRead); err != nil {
			l.Warn("ignoring remote bookmark", "error", err)
		}
	case hasLocal && (doc.LastRead == nil || local.UpdatedAt.After(doc.LastRead.UpdatedAt)):
		patch.LastRead = &local
	}
}

// SignOut clears every local record belonging to the signed-in user. Remote
// data is untouched.
func (e *Engine) SignOut() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.journal.ClearUserData(); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	logger.Info("local user data cleared")
	return nil
}

func sortedDates(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func equalDates(sorted, other []string) bool {
	if len(sorted) != len(other) {
		return false
	}
	o := append([]string{}, other...)
	sort.Strings(o)
	for i := range sorted {
		if sorted[i] != o[i] {
			return false
		}
	}
	return true
}

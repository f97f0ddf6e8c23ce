// Package tracker drives the daily worship checklist: which date is being
// viewed, loading its record and committing task and fasting toggles.
//
// Loads are split into BeginLoad, Fetch and Apply so a caller can run the
// fetch asynchronously. Only the most recently issued ticket may be applied,
// and a save commits only when its date matches the applied load.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/metrics"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/streak"
	"github.com/julianstephens/ibadah/internal/utils"
)

var (
	// ErrFutureDate is returned when selecting or editing a day after today.
	ErrFutureDate = errors.New("date is in the future")
	// ErrStaleLoad is returned when a save targets a date other than the one
	// currently loaded.
	ErrStaleLoad = errors.New("date is not the currently loaded day")
	// ErrUnknownTask is returned when toggling an id absent from the record.
	ErrUnknownTask = errors.New("unknown task")
)

type ProgressObserver interface {
	OnProgressChanged(date string, progress int)
}

type FastingObserver interface {
	OnFastingChanged(date string, fasted bool, streak int)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(date string, progress int)

func (f ProgressFunc) OnProgressChanged(date string, progress int) { f(date, progress) }

// FastingFunc adapts a function to FastingObserver.
type FastingFunc func(date string, fasted bool, streak int)

func (f FastingFunc) OnFastingChanged(date string, fasted bool, streak int) { f(date, fasted, streak) }

// Ticket identifies one load. Seq increases with every BeginLoad.
type Ticket struct {
	Seq  uint64
	Date string
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	// commitMu is held from a toggle's local save through its remote push,
	// so saves reach both stores in the order they were issued.
	commitMu sync.Mutex

	journal  *journal.Journal
	remote   remote.Provider
	uid      string
	metrics  *metrics.Metrics
	today    func() string
	now      func() time.Time
	selected string
	seq      uint64

	loaded    models.DayRecord
	hasLoaded bool

	progressObservers []ProgressObserver
	fastingObservers  []FastingObserver
}

type Option func(*Controller)

// WithRemote pushes committed changes for uid to r. An empty uid disables pushes.
func WithRemote(r remote.Provider, uid string) Option {
	return func(c *Controller) {
		c.remote = r
		c.uid = uid
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithToday overrides the clock used to decide what "today" is.
func WithToday(today func() string) Option {
	return func(c *Controller) { c.today = today }
}

// New returns a controller viewing today. Nothing is loaded until Load or
// BeginLoad/Apply runs.
func New(j *journal.Journal, opts ...Option) *Controller {
	c := &Controller{journal: j, now: time.Now}
	c.today = func() string { return utils.DayKey(c.now()) }
	for _, opt := range opts {
		opt(c)
	}
	c.selected = c.today()
	return c
}

// SetUser switches the signed-in user for remote pushes.
func (c *Controller) SetUser(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uid = uid
}

func (c *Controller) Subscribe(o ProgressObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressObservers = append(c.progressObservers, o)
}

func (c *Controller) SubscribeFasting(o FastingObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fastingObservers = append(c.fastingObservers, o)
}

// Selected returns the date being viewed.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Today returns the current day key.
func (c *Controller) Today() string {
	return c.today()
}

// Current returns the applied record and whether one is applied for the
// selected date.
func (c *Controller) Current() (models.DayRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.hasLoaded && c.loaded.Date == c.selected
	return c.loaded.Clone(), ok
}

// Select views date and issues a load ticket for it.
func (c *Controller) Select(date string) (Ticket, error) {
	if err := utils.ValidateDayKey(date); err != nil {
		return Ticket{}, err
	}
	if utils.IsAfter(date, c.today()) {
		return Ticket{}, fmt.Errorf("%s: %w", date, ErrFutureDate)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = date
	return c.beginLoadLocked(), nil
}

// SelectPrevious views the day before the selected one.
func (c *Controller) SelectPrevious() (Ticket, error) {
	prev, err := utils.ShiftDay(c.Selected(), -1)
	if err != nil {
		return Ticket{}, err
	}
	return c.Select(prev)
}

// SelectNext views the day after the selected one. It fails with
// ErrFutureDate when today is already selected.
func (c *Controller) SelectNext() (Ticket, error) {
	next, err := utils.ShiftDay(c.Selected(), 1)
	if err != nil {
		return Ticket{}, err
	}
	return c.Select(next)
}

func (c *Controller) SelectToday() Ticket {
	t, _ := c.Select(c.today())
	return t
}

// CanGoNext reports whether a later day may be selected.
func (c *Controller) CanGoNext() bool {
	return utils.IsAfter(c.today(), c.Selected())
}

// BeginLoad issues a ticket for the selected date. Any earlier ticket
// becomes stale.
func (c *Controller) BeginLoad() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLoadLocked()
}

func (c *Controller) beginLoadLocked() Ticket {
	c.seq++
	return Ticket{Seq: c.seq, Date: c.selected}
}

// Fetch reads the record for t. Days with no local record are pulled from
// the remote daily log when signed in. It does not change controller state
// and may run on any goroutine.
func (c *Controller) Fetch(ctx context.Context, t Ticket) models.DayRecord {
	c.mu.Lock()
	r, uid := c.remote, c.uid
	c.mu.Unlock()

	if r != nil && uid != "" && !c.journal.Days.Has(t.Date) {
		ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
		defer cancel()
		l, err := r.GetDailyLog(ctx, uid, t.Date)
		switch {
		case err == nil && len(l.Tasks) > 0:
			seeded, err := c.journal.Days.Seed(t.Date, l.Tasks)
			if err != nil {
				logger.Warn("failed to cache remote day", "date", t.Date, "error", err)
				return models.NewDayRecord(t.Date, catalog.Merge(c.journal.Days.Catalog(), l.Tasks))
			}
			if seeded {
				if err := c.journal.Summary.Upsert(t.Date, models.Progress(l.Tasks)); err != nil {
					logger.Warn("failed to update summary for remote day", "date", t.Date, "error", err)
				}
			}
		case err != nil && !errors.Is(err, remote.ErrNotFound):
			logger.Warn("remote day fetch failed, using local record", "date", t.Date, "error", err)
		}
	}
	return c.journal.Days.Load(t.Date)
}

// Apply commits rec as the loaded record if t is still the latest ticket.
// It reports whether rec was applied.
func (c *Controller) Apply(t Ticket, rec models.DayRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Seq != c.seq || t.Date != rec.Date {
		logger.Debug("discarding superseded load", "date", t.Date, "seq", t.Seq, "latest", c.seq)
		return false
	}
	c.loaded = rec.Clone()
	c.hasLoaded = true
	return true
}

// Load runs a full load of the selected date synchronously.
func (c *Controller) Load(ctx context.Context) models.DayRecord {
	t := c.BeginLoad()
	rec := c.Fetch(ctx, t)
	c.Apply(t, rec)
	return rec
}

// ToggleTask flips task id on date, persists the day and notifies
// observers. The remote push is best-effort and never fails the call.
func (c *Controller) ToggleTask(ctx context.Context, date, id string) (models.DayRecord, error) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.mu.Lock()
	if err := c.guardLocked(date); err != nil {
		c.mu.Unlock()
		return models.DayRecord{}, err
	}
	rec := c.loaded.Clone()
	if !rec.Toggle(id) {
		c.mu.Unlock()
		return models.DayRecord{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	saved, err := c.journal.Days.Save(rec)
	if err != nil {
		logger.Warn("local save failed, keeping in-memory state", "date", date, "error", err)
	}
	c.loaded = saved.Clone()
	observers := append([]ProgressObserver(nil), c.progressObservers...)
	r, uid := c.remote, c.uid
	c.mu.Unlock()

	c.metrics.TaskToggled()
	for _, o := range observers {
		o.OnProgressChanged(saved.Date, saved.Progress)
	}
	c.pushDay(ctx, r, uid, saved)
	return saved, nil
}

// ToggleFasting records whether date was fasted and returns the new streak.
func (c *Controller) ToggleFasting(ctx context.Context, date string, fasted bool) (int, error) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.mu.Lock()
	if err := c.guardLocked(date); err != nil {
		c.mu.Unlock()
		return 0, err
	}
	dates, err := c.journal.Fasting.Toggle(date, fasted)
	if err != nil {
		logger.Warn("local fasting write failed", "date", date, "error", err)
	}
	current := streak.CurrentFromDates(dates, c.today())
	observers := append([]FastingObserver(nil), c.fastingObservers...)
	r, uid := c.remote, c.uid
	c.mu.Unlock()

	c.metrics.FastingToggled(fasted, current)
	for _, o := range observers {
		o.OnFastingChanged(date, fasted, current)
	}
	if r != nil && uid != "" {
		ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
		defer cancel()
		if err := r.SetFasting(ctx, uid, date, fasted, current); err != nil {
			c.metrics.PushFailed()
			logger.Warn("failed to push fasting toggle", "date", date, "error", err)
		}
	}
	return current, nil
}

// Fasted reports whether date is in the fasting ledger.
func (c *Controller) Fasted(date string) bool {
	return c.journal.Fasting.Contains(date)
}

// Streak returns the current fasting streak.
func (c *Controller) Streak() int {
	return streak.Current(c.journal.Fasting.Set(), c.today())
}

func (c *Controller) guardLocked(date string) error {
	if utils.IsDayKey(date) && utils.IsAfter(date, c.today()) {
		return fmt.Errorf("%s: %w", date, ErrFutureDate)
	}
	if !c.hasLoaded || c.loaded.Date != date || c.selected != date {
		c.metrics.StaleSave()
		return fmt.Errorf("%s: %w", date, ErrStaleLoad)
	}
	return nil
}

func (c *Controller) pushDay(ctx context.Context, r remote.Provider, uid string, rec models.DayRecord) {
	if r == nil || uid == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()

	err := r.SaveDailyLog(ctx, uid, remote.DailyLog{
		Date:      rec.Date,
		Tasks:     rec.Tasks,
		Progress:  rec.Progress,
		UpdatedAt: c.now(),
	})
	if err != nil {
		c.metrics.PushFailed()
		logger.Warn("failed to push daily log", "date", rec.Date, "error", err)
		return
	}

	patch := remote.UserPatch{WorshipHistory: models.SummaryMap{rec.Date: rec.Progress}}
	if rec.Date == c.today() {
		p := rec.Progress
		patch.WorshipProgress = &p
	}
	if err := r.MergeUser(ctx, uid, patch); err != nil {
		c.metrics.PushFailed()
		logger.Warn("failed to push progress rollup", "date", rec.Date, "error", err)
	}
}

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/reconcile"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/storage"
	"github.com/julianstephens/ibadah/internal/tracker"
	"github.com/julianstephens/ibadah/internal/tui/components/tasklist"
)

const today = "2026-02-21"

func setupModel(t *testing.T) (Model, *tracker.Controller, *journal.Journal) {
	t.Helper()
	j := journal.New(storage.NewMemoryStore(), catalog.Default())
	ctl := tracker.New(j, tracker.WithToday(func() string { return today }))
	return NewModel(context.Background(), ctl, j), ctl, j
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestInitLoadsToday(t *testing.T) {
	m, _, _ := setupModel(t)

	msg := m.Init()()
	m, _ = update(t, m, msg)
	if m.loading {
		t.Fatal("expected record to be applied")
	}
	if m.record.Date != today {
		t.Errorf("expected %s, got %s", today, m.record.Date)
	}
	if len(m.record.Tasks) != len(catalog.Default()) {
		t.Errorf("expected %d tasks, got %d", len(catalog.Default()), len(m.record.Tasks))
	}
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	m, ctl, j := setupModel(t)
	m, _ = update(t, m, m.Init()())

	older := m.loadCmd(ctl.BeginLoad())
	m, newer := update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if newer == nil {
		t.Fatal("expected a load command for the previous day")
	}

	// The newer load lands first, then the stale one for today.
	m, _ = update(t, m, newer())
	m, _ = update(t, m, older())
	if m.record.Date != "2026-02-20" {
		t.Fatalf("expected 2026-02-20 to stay loaded, got %s", m.record.Date)
	}

	m, cmd := update(t, m, tasklist.ToggleTaskMsg{ID: "fajr"})
	if cmd == nil {
		t.Fatal("expected toggle command")
	}
	m, _ = update(t, m, cmd())
	if m.status != "" {
		t.Errorf("unexpected status %q", m.status)
	}
	if !j.Days.Has("2026-02-20") {
		t.Error("expected the toggle to persist 2026-02-20")
	}
	if j.Days.Has(today) {
		t.Error("expected today to stay untouched")
	}
}

func TestNextIsBlockedOnToday(t *testing.T) {
	m, _, _ := setupModel(t)
	m, _ = update(t, m, m.Init()())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if cmd != nil {
		t.Error("expected no load when already on today")
	}
	if m.record.Date != today {
		t.Errorf("expected %s, got %s", today, m.record.Date)
	}
}

func TestFastingToggleUpdatesStreak(t *testing.T) {
	m, _, j := setupModel(t)
	m, _ = update(t, m, m.Init()())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if cmd == nil {
		t.Fatal("expected fasting command")
	}
	m, _ = update(t, m, cmd())
	if !m.fasted {
		t.Error("expected today to be marked fasted")
	}
	if m.streak != 1 {
		t.Errorf("expected streak 1, got %d", m.streak)
	}
	if !j.Fasting.Contains(today) {
		t.Error("expected ledger to contain today")
	}
}

func TestToggleIgnoredWhileLoading(t *testing.T) {
	m, _, _ := setupModel(t)
	if _, cmd := update(t, m, tasklist.ToggleTaskMsg{ID: "fajr"}); cmd != nil {
		t.Error("expected toggles to be ignored before the first load")
	}
}

func TestOutOfOrderToggleResultsShowLatestRecord(t *testing.T) {
	m, _, _ := setupModel(t)
	m, _ = update(t, m, m.Init()())

	m, first := update(t, m, tasklist.ToggleTaskMsg{ID: "fajr"})
	m, second := update(t, m, tasklist.ToggleTaskMsg{ID: "dhuhr"})
	if first == nil || second == nil {
		t.Fatal("expected toggle commands")
	}
	firstMsg, secondMsg := first(), second()

	m, _ = update(t, m, secondMsg)
	m, _ = update(t, m, firstMsg)
	if m.record.Completed() != 2 {
		t.Errorf("expected both toggles on screen, got %d completed", m.record.Completed())
	}
}

func TestLaunchSyncPullsRemoteDays(t *testing.T) {
	ctx := context.Background()
	j := journal.New(storage.NewMemoryStore(), catalog.Default())
	ctl := tracker.New(j, tracker.WithToday(func() string { return today }))

	r := remote.NewMemory()
	tasks := catalog.Default()
	tasks[0].Completed = true
	for _, d := range []string{"2026-02-19", today} {
		if err := r.SaveDailyLog(ctx, "u1", remote.DailyLog{Date: d, Tasks: tasks, Progress: models.Progress(tasks)}); err != nil {
			t.Fatal(err)
		}
	}
	engine := reconcile.New(j, r, reconcile.WithToday(func() string { return today }))
	m := NewModel(ctx, ctl, j).WithSync(func(ctx context.Context) (reconcile.Result, error) {
		return engine.Reconcile(ctx, "u1")
	})

	batch, ok := m.Init()().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected a load and a sync command, got %#v", batch)
	}
	m, _ = update(t, m, batch[0]())
	if m.record.Completed() != 0 {
		t.Fatalf("expected the local record before sync, got %d completed", m.record.Completed())
	}

	m, reload := update(t, m, batch[1]())
	if reload == nil {
		t.Fatal("expected a reload after sync")
	}
	m, _ = update(t, m, reload())
	if m.loading || m.record.Completed() != 1 {
		t.Errorf("expected the synced record for today, got %d completed", m.record.Completed())
	}
	if got := j.Summary.Load()["2026-02-19"]; got != 5 {
		t.Errorf("expected remote-only day in history, got %d", got)
	}
	if !strings.HasPrefix(m.notice, "Synced") {
		t.Errorf("unexpected notice %q", m.notice)
	}
}

func TestLaunchSyncFailureKeepsLocalData(t *testing.T) {
	m, _, _ := setupModel(t)
	m = m.WithSync(func(context.Context) (reconcile.Result, error) {
		return reconcile.Result{}, errors.New("offline")
	})
	m, _ = update(t, m, m.loadCmd(m.controller.BeginLoad())())

	m, cmd := update(t, m, m.syncCmd()())
	if cmd != nil {
		t.Error("expected no reload after a failed sync")
	}
	if m.loading || m.record.Date != today {
		t.Errorf("expected today to stay loaded, got %s (loading=%v)", m.record.Date, m.loading)
	}
	if !strings.HasPrefix(m.notice, "Offline") {
		t.Errorf("unexpected notice %q", m.notice)
	}
}

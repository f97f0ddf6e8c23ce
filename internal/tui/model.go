package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/recap"
	"github.com/julianstephens/ibadah/internal/reconcile"
	"github.com/julianstephens/ibadah/internal/tracker"
	"github.com/julianstephens/ibadah/internal/tui/components/history"
	"github.com/julianstephens/ibadah/internal/tui/components/tasklist"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateHistory
	StateRecap
)

var tabTitles = []string{"Hari Ini", "Riwayat", "Rekap"}

// SyncFunc reconciles local data with the signed-in user's remote store.
type SyncFunc func(ctx context.Context) (reconcile.Result, error)

type Model struct {
	ctx        context.Context
	controller *tracker.Controller
	journal    *journal.Journal
	sync       SyncFunc
	state      SessionState
	keys       KeyMap
	help       help.Model
	checklist  tasklist.Model
	history    history.Model
	recap      recap.Recap

	// record is the applied day; loading is true until the latest ticket lands.
	record  models.DayRecord
	loading bool
	fasted  bool
	streak  int

	status   string
	notice   string
	quitting bool
	width    int
	height   int
}

// NewModel builds the TUI over ctl, which must share j.
func NewModel(ctx context.Context, ctl *tracker.Controller, j *journal.Journal) Model {
	m := Model{
		ctx:        ctx,
		controller: ctl,
		journal:    j,
		state:      StateToday,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		checklist:  tasklist.New(nil, 0, 0),
		history:    history.New(0, 0),
		loading:    true,
		record:     models.DayRecord{Date: ctl.Selected()},
	}
	m.refreshHistory()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateToday {
		keys = append(keys, m.keys.Prev, m.keys.Next, m.keys.Today, m.keys.Fast)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Prev, m.keys.Next, m.keys.Today}
	actions := []key.Binding{m.keys.Toggle, m.keys.Fast}
	return [][]key.Binding{global, navigation, actions}
}

// WithSync reconciles once when the program starts and reloads the viewed
// day afterwards.
func (m Model) WithSync(fn SyncFunc) Model {
	m.sync = fn
	return m
}

func (m Model) Init() tea.Cmd {
	load := m.loadCmd(m.controller.BeginLoad())
	if m.sync == nil {
		return load
	}
	return tea.Batch(load, m.syncCmd())
}

// dayLoadedMsg carries a fetched record back to the update loop.
type dayLoadedMsg struct {
	ticket tracker.Ticket
	record models.DayRecord
}

type taskToggledMsg struct {
	record models.DayRecord
	err    error
}

type syncedMsg struct {
	result reconcile.Result
	err    error
}

type fastingToggledMsg struct {
	date   string
	fasted bool
	streak int
	err    error
}

func (m Model) loadCmd(t tracker.Ticket) tea.Cmd {
	ctl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		return dayLoadedMsg{ticket: t, record: ctl.Fetch(ctx, t)}
	}
}

func (m Model) syncCmd() tea.Cmd {
	fn, ctx := m.sync, m.ctx
	return func() tea.Msg {
		res, err := fn(ctx)
		return syncedMsg{result: res, err: err}
	}
}

func (m Model) toggleTaskCmd(date, id string) tea.Cmd {
	ctl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		rec, err := ctl.ToggleTask(ctx, date, id)
		return taskToggledMsg{record: rec, err: err}
	}
}

func (m Model) toggleFastingCmd(date string, fasted bool) tea.Cmd {
	ctl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		s, err := ctl.ToggleFasting(ctx, date, fasted)
		return fastingToggledMsg{date: date, fasted: fasted, streak: s, err: err}
	}
}

func (m *Model) refreshHistory() {
	m.history.SetHistory(m.journal.Summary.Load(), m.journal.Fasting.Dates())
	if r, err := recap.Build(m.journal, m.controller.Today()); err == nil {
		m.recap = r
	}
	m.streak = m.controller.Streak()
}

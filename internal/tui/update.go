package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/tracker"
	"github.com/julianstephens/ibadah/internal/tui/components/tasklist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		// tabs, header and help take five lines
		m.checklist.SetSize(msg.Width-h, msg.Height-v-5)
		m.history.SetSize(msg.Width-h, msg.Height-v-3)
		return m, nil

	case dayLoadedMsg:
		if !m.controller.Apply(msg.ticket, msg.record) {
			return m, nil
		}
		m.record = msg.record
		m.loading = false
		m.fasted = m.controller.Fasted(msg.record.Date)
		m.checklist.SetTasks(msg.record.Tasks)
		m.refreshHistory()
		return m, nil

	case syncedMsg:
		if msg.err != nil {
			logger.Warn("launch sync failed, continuing locally", "error", msg.err)
			m.notice = "Offline: showing local data."
			return m, nil
		}
		m.notice = fmt.Sprintf("Synced: %d pulled, %d pushed.", msg.result.Pulled, msg.result.Pushed)
		m.refreshHistory()
		// Reconciliation may have seeded the viewed day.
		m.loading = true
		return m, m.loadCmd(m.controller.BeginLoad())

	case taskToggledMsg:
		if msg.err != nil {
			m.status = describe(msg.err)
			return m, nil
		}
		// Toggle results can land out of order; the controller holds the
		// latest committed record.
		if rec, ok := m.controller.Current(); ok && !m.loading && rec.Date == m.record.Date {
			m.record = rec
			m.checklist.SetTasks(rec.Tasks)
		}
		m.status = ""
		m.refreshHistory()
		return m, nil

	case fastingToggledMsg:
		if msg.err != nil {
			m.status = describe(msg.err)
			return m, nil
		}
		if msg.date == m.record.Date {
			m.fasted = msg.fasted
		}
		m.streak = msg.streak
		m.status = ""
		m.refreshHistory()
		return m, nil

	case tasklist.ToggleTaskMsg:
		if m.loading {
			return m, nil
		}
		return m, m.toggleTaskCmd(m.record.Date, msg.ID)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles))
			return m, nil
		}

		if m.state == StateToday {
			switch {
			case key.Matches(msg, m.keys.Prev):
				return m.selectDay(m.controller.SelectPrevious())
			case key.Matches(msg, m.keys.Next):
				if !m.controller.CanGoNext() {
					return m, nil
				}
				return m.selectDay(m.controller.SelectNext())
			case key.Matches(msg, m.keys.Today):
				return m.selectDay(m.controller.SelectToday(), nil)
			case key.Matches(msg, m.keys.Fast):
				if m.loading {
					return m, nil
				}
				return m, m.toggleFastingCmd(m.record.Date, !m.fasted)
			}
		}
	}

	switch m.state {
	case StateToday:
		m.checklist, cmd = m.checklist.Update(msg)
	case StateHistory:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

// selectDay starts loading a newly selected day. Toggles are ignored until
// its record is applied.
func (m Model) selectDay(t tracker.Ticket, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.status = describe(err)
		return m, nil
	}
	m.loading = true
	m.status = ""
	m.record.Date = t.Date
	return m, m.loadCmd(t)
}

func describe(err error) string {
	switch {
	case errors.Is(err, tracker.ErrFutureDate):
		return "Cannot edit a day in the future."
	case errors.Is(err, tracker.ErrStaleLoad):
		return "Still loading that day, try again."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/ibadah/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateHistory:
		content = docStyle.Render(m.history.View())
	case StateRecap:
		content = docStyle.Render(m.viewRecap())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewToday() string {
	date := m.record.Date
	label := date
	if t, err := utils.ParseDayKey(date); err == nil {
		label = t.Format("Monday, 2 January 2006")
	}
	if date == m.controller.Today() {
		label += " (today)"
	}

	header := headerStyle.Render(label)
	if m.loading {
		header += mutedStyle.Render("  loading...")
	} else {
		header += fmt.Sprintf("  %d%%", m.record.Progress)
	}

	fast := mutedStyle.Render("Not fasting")
	if m.fasted {
		fast = fastingStyle.Render("Fasting")
	}
	line := fmt.Sprintf("%s  ·  streak %d day(s)", fast, m.streak)

	parts := []string{header, line, ""}
	if m.status != "" {
		parts = append(parts, dangerStyle.Render(m.status))
	} else if m.notice != "" {
		parts = append(parts, mutedStyle.Render(m.notice))
	}
	parts = append(parts, m.checklist.View())
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewRecap() string {
	r := m.recap
	var b strings.Builder
	b.WriteString(headerStyle.Render("Ramadan recap"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Days fasted:      %d\n", r.FastingDays)
	fmt.Fprintf(&b, "Average worship:  %d%%\n", r.AvgWorship)
	fmt.Fprintf(&b, "Current streak:   %d\n", r.CurrentStreak)
	fmt.Fprintf(&b, "Longest streak:   %d\n", r.LongestStreak)
	if len(r.TopTasks) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Most consistent"))
		b.WriteString("\n")
		for i, t := range r.TopTasks {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, t.Label, t.Count)
		}
	}
	return b.String()
}

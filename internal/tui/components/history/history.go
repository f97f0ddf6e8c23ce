package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/ibadah/internal/models"
)

const barWidth = 20

var (
	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	fastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// Model shows the worship summary and fasting ledger, newest day first.
type Model struct {
	viewport viewport.Model
	summary  models.SummaryMap
	fasting  map[string]struct{}
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.summary) == 0 && len(m.fasting) == 0 {
		return "No history yet. Tick a task to start one."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetHistory(summary models.SummaryMap, fasting []string) {
	m.summary = summary.Clone()
	m.fasting = make(map[string]struct{}, len(fasting))
	for _, d := range fasting {
		m.fasting[d] = struct{}{}
	}
	m.Render()
}

func (m *Model) Render() {
	seen := make(map[string]struct{}, len(m.summary)+len(m.fasting))
	for d := range m.summary {
		seen[d] = struct{}{}
	}
	for d := range m.fasting {
		seen[d] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var b strings.Builder
	for _, d := range dates {
		b.WriteString(Line(d, m.summary[d], hasDate(m.fasting, d)))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

// Line renders one history row: date, progress bar, percent and fasting mark.
func Line(date string, progress int, fasted bool) string {
	filled := progress * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	bar := barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", barWidth-filled)
	mark := ""
	if fasted {
		mark = " " + fastStyle.Render("puasa")
	}
	return fmt.Sprintf("%s %s %3d%%%s", dateStyle.Render(date), bar, progress, mark)
}

func hasDate(set map[string]struct{}, d string) bool {
	_, ok := set[d]
	return ok
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// testListModel renders the live `[PASS]/[FAIL]/[SKIP]` progress list
// spec.md §7 prints, revealing one outcome per tick instead of printing
// the whole batch at once, the way the teacher's interactiveModel
// progressively reveals component metadata instead of dumping it in one
// shot.
//
// Grounded on the teacher's cmd/run/interactive.go: a bubbletea.Model
// with lipgloss styles for pass/fail/pending rows and a bubbles spinner
// for the row still in flight.
type testListModel struct {
	spinner  spinner.Model
	all      []testOutcome
	revealed int
}

func newTestListModel(outcomes []testOutcome) testListModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return testListModel{spinner: s, all: outcomes}
}

type revealMsg struct{}

func revealTick() tea.Cmd {
	return tea.Tick(40*time.Millisecond, func(time.Time) tea.Msg { return revealMsg{} })
}

func (m testListModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, revealTick())
}

func (m testListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case revealMsg:
		if m.revealed < len(m.all) {
			m.revealed++
			return m, revealTick()
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleBar  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
)

func (m testListModel) View() string {
	var b strings.Builder
	b.WriteString(titleBar.Render(fmt.Sprintf("chic test  %d/%d", m.revealed, len(m.all))))
	b.WriteByte('\n')
	for i, o := range m.all[:m.revealed] {
		switch o.status {
		case "PASS":
			fmt.Fprintf(&b, "%s %s\n", passStyle.Render("[PASS]"), o.name)
		case "FAIL":
			fmt.Fprintf(&b, "%s %s -- %s\n", failStyle.Render("[FAIL]"), o.name, o.reason)
		default:
			fmt.Fprintf(&b, "%s %s\n", skipStyle.Render("[SKIP]"), o.name)
		}
		_ = i
	}
	if m.revealed < len(m.all) {
		fmt.Fprintf(&b, "%s running %s...\n", m.spinner.View(), m.all[m.revealed].name)
	}
	return b.String()
}

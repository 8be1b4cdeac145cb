// Package progress renders a live per-org view of a running report.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/billing-report/internal/report"
	"github.com/j-veylop/billing-report/internal/ui/styles"
)

// State is the progress of one credential.
type State int

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
)

// EventMsg carries an aggregator event into the program.
type EventMsg report.Event

// DoneMsg tells the program that every credential has finished.
type DoneMsg struct{}

type orgLine struct {
	err   error
	label string
	rows  int
	state State
}

// Model is the bubbletea model of the progress view.
type Model struct {
	spinner     spinner.Model
	lines       []orgLine
	finished    int
	done        bool
	interrupted bool
}

// New creates a progress model with one line per credential label.
func New(labels []string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	lines := make([]orgLine, len(labels))
	for i, label := range labels {
		lines[i] = orgLine{label: label}
	}
	return Model{spinner: s, lines: lines}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles aggregator events, spinner ticks and ctrl+c.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
	case EventMsg:
		m.apply(report.Event(msg))
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) apply(ev report.Event) {
	if ev.Index < 0 || ev.Index >= len(m.lines) {
		return
	}
	line := &m.lines[ev.Index]
	switch ev.Type {
	case report.EventStarted:
		line.state = StateRunning
	case report.EventFinished:
		line.state = StateDone
		line.rows = ev.Rows
		if ev.OrgName != "" {
			line.label = ev.OrgName
		}
		m.finished++
	case report.EventFailed:
		line.state = StateFailed
		line.err = ev.Err
		if ev.Descriptor != "" {
			line.label = ev.Descriptor
		}
		m.finished++
	}
}

// State returns the state of the credential at index i.
func (m Model) State(i int) State {
	if i < 0 || i >= len(m.lines) {
		return StatePending
	}
	return m.lines[i].state
}

// Finished returns how many credentials have succeeded or failed.
func (m Model) Finished() int {
	return m.finished
}

// Interrupted reports whether the user quit with ctrl+c.
func (m Model) Interrupted() bool {
	return m.interrupted
}

// View renders the progress view.
func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Fetching usage for %d org(s)", len(m.lines))
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("  %d/%d", m.finished, len(m.lines))))
	b.WriteString("\n")

	for _, line := range m.lines {
		b.WriteString(m.icon(line.state))
		b.WriteString(" ")
		b.WriteString(styles.LabelStyle.Render(line.label))
		b.WriteString(status(line))
		b.WriteString("\n")
	}

	if !m.done && !m.interrupted {
		b.WriteString(styles.HelpStyle.Render("ctrl+c to abort"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) icon(s State) string {
	switch s {
	case StateRunning:
		return m.spinner.View()
	case StateDone:
		return styles.SuccessTextStyle.Render("✓")
	case StateFailed:
		return styles.ErrorTextStyle.Render("✗")
	default:
		return styles.HelpStyle.Render("·")
	}
}

func status(line orgLine) string {
	switch line.state {
	case StateRunning:
		return styles.InfoTextStyle.Render("fetching...")
	case StateDone:
		return styles.SuccessTextStyle.Render(fmt.Sprintf("%d row(s)", line.rows))
	case StateFailed:
		return styles.ErrorTextStyle.Render(fmt.Sprintf("failed: %v", line.err))
	default:
		return styles.HelpStyle.Render("waiting")
	}
}

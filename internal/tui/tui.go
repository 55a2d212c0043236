package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---
type doneMsg struct{}

// --- Model ---

// Model shows one running replace tool: a spinner while it processes, the
// outcome once it is done. q or ctrl+c aborts it.
type Model struct {
	ctx     context.Context
	tool    *replace.Tool
	spinner spinner.Model
	state   state
	aborted bool
}

type state int

const (
	stateProcessing state = iota
	stateDone
)

func New(ctx context.Context, tool *replace.Tool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		tool:    tool,
		spinner: s,
		state:   stateProcessing,
	}
}

func (m Model) Init() tea.Cmd {
	task := m.tool.Start(m.ctx)
	return tea.Batch(m.spinner.Tick, waitFor(task))
}

// waitFor blocks until the task is done.
func waitFor(task *replace.Task) tea.Cmd {
	return func() tea.Msg {
		<-task.Done()
		return doneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.tool.Abort()
			m.aborted = true
			m.state = stateDone
			return m, tea.Quit
		}

	case doneMsg:
		m.state = stateDone
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s %s", m.spinner.View(), m.tool.View())
	case stateDone:
		return m.renderSummary(m.tool.Summary())
	default:
		return ""
	}
}

// Result returns the tool's current result.
func (m Model) Result() model.ToolResult {
	return m.tool.GetToolResult()
}

// Aborted reports whether the user quit before the tool finished.
func (m Model) Aborted() bool {
	return m.aborted
}

func (m Model) renderSummary(s model.Summary) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s Replace [[ -%d / +%d ]] in %s", m.tool.StatusIcon(), s.Removed, s.Added, s.Path)))
	b.WriteString("\n\n")

	if s.Failed {
		b.WriteString(errorStyle.Render("Error: " + s.Message))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(successStyle.Render(s.Message))
	b.WriteString("\n")
	if s.Preview == "" {
		b.WriteString(faintStyle.Render("No visible change."))
		b.WriteString("\n")
		return b.String()
	}
	for _, line := range strings.Split(s.Preview, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			line = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			line = removedStyle.Render(line)
		}
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}

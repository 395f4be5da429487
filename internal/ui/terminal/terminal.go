// Package terminal provides the output pane that shows run progress and
// the captured console output of scripts.
package terminal

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/zjrosen/stupidea/internal/run"
	"github.com/zjrosen/stupidea/internal/sandbox"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

var (
	progressStyle = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	failedStyle   = lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	warnStyle     = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	welcomeStyle  = lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	plainStyle    = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)
)

// Model is the terminal pane. It implements run.Output.
type Model struct {
	lines    []string // styled, unwrapped
	raw      []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

var _ run.Output = (*Model)(nil)

// New creates a terminal showing the welcome line.
func New() *Model {
	m := &Model{viewport: viewport.New(0, 0)}
	m.Append(run.MsgWelcome)
	return m
}

// Append adds output lines and scrolls to the bottom.
func (m *Model) Append(lines ...string) {
	for _, line := range lines {
		m.raw = append(m.raw, line)
		m.lines = append(m.lines, Style(line))
	}
	m.refresh()
}

// AppendScript adds a highlighted listing of a compiled script.
func (m *Model) AppendScript(script string) {
	for _, line := range strings.Split(HighlightScript(script), "\n") {
		m.raw = append(m.raw, line)
		m.lines = append(m.lines, line)
	}
	m.refresh()
}

// Clear removes all output.
func (m *Model) Clear() {
	m.lines = nil
	m.raw = nil
	m.refresh()
}

// Lines returns the lines appended so far, unstyled.
func (m *Model) Lines() []string {
	return append([]string(nil), m.raw...)
}

// SetSize sets the content area size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
}

// Focus gives the pane keyboard focus for scrolling.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Update scrolls the pane. Keys are only handled while focused; the mouse
// wheel always works.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
	case tea.MouseMsg:
	default:
		return nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// View renders the visible part of the output.
func (m *Model) View() string {
	return m.viewport.View()
}

func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	width := m.width
	var sb strings.Builder
	for i, line := range m.lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		if width > 0 {
			line = wrap.String(wordwrap.String(line, width), width)
		}
		sb.WriteString(line)
	}
	m.viewport.SetContent(sb.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// Style colours a terminal line by its prefix.
func Style(line string) string {
	switch {
	case line == run.MsgWelcome:
		return welcomeStyle.Render(line)
	case strings.HasPrefix(line, run.MsgFailed):
		return failedStyle.Render(line)
	case strings.HasPrefix(line, ">>> "):
		return progressStyle.Render(line)
	case strings.HasPrefix(line, sandbox.RuntimePrefix), strings.HasPrefix(line, "ERROR: "):
		return errorStyle.Render(line)
	case strings.HasPrefix(line, "WARN: "):
		return warnStyle.Render(line)
	default:
		return plainStyle.Render(line)
	}
}

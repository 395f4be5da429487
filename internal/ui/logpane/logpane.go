// Package logpane provides the debug log overlay. Entries arrive from the
// log broker while the TUI runs with --debug.
package logpane

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/ui/overlay"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

const (
	maxEntries        = 500
	viewportMaxHeight = 20
	viewportMinHeight = 3
	boxMaxWidth       = 140
	boxMinWidth       = 30
)

// CloseMsg is sent when the pane closes itself.
type CloseMsg struct{}

// Model is the log pane state.
type Model struct {
	entries  []string
	visible  bool
	minLevel log.Level
	width    int
	height   int
	viewport viewport.Model
}

// New creates a hidden pane.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// Add records an entry, dropping the oldest beyond the buffer size.
func (m *Model) Add(entry string) {
	m.entries = append(m.entries, strings.TrimSuffix(entry, "\n"))
	if over := len(m.entries) - maxEntries; over > 0 {
		m.entries = m.entries[over:]
	}
	if m.visible {
		m.refresh()
	}
}

// Len returns the number of buffered entries.
func (m Model) Len() int {
	return len(m.entries)
}

// Update handles keys while visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "c":
		m.entries = nil
	case "d":
		m.minLevel = log.LevelDebug
	case "i":
		m.minLevel = log.LevelInfo
	case "w":
		m.minLevel = log.LevelWarn
	case "e":
		m.minLevel = log.LevelError
	case "j", "down":
		m.viewport.ScrollDown(1)
		return m, nil
	case "k", "up":
		m.viewport.ScrollUp(1)
		return m, nil
	case "esc", "ctrl+g":
		m.visible = false
		return m, func() tea.Msg { return CloseMsg{} }
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// Visible reports whether the pane is shown.
func (m Model) Visible() bool {
	return m.visible
}

// Toggle shows or hides the pane.
func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.refresh()
	}
}

// SetSize updates the screen size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refresh()
}

// View renders the pane box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	width := m.boxWidth()
	divider := lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", width))

	var sb strings.Builder
	sb.WriteString(styles.TitleStyle.PaddingLeft(1).Render("Logs"))
	sb.WriteString("\n")
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(divider)
	sb.WriteString("\n")
	sb.WriteString(m.filterHint())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width).
		Render(sb.String())
}

// Overlay renders the pane centred over bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(m.width, m.height, overlay.Center, m.View(), bg)
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}
	contentWidth := m.boxWidth() - 2
	// header, footer and border take six lines
	height := max(min(viewportMaxHeight, m.height-6), viewportMinHeight)

	m.viewport = viewport.New(contentWidth, height)
	m.viewport.SetContent(m.content(contentWidth))
	m.viewport.GotoBottom()
}

func (m Model) content(width int) string {
	var lines []string
	for _, entry := range m.entries {
		level, ok := levelOf(entry)
		if ok && level < m.minLevel {
			continue
		}
		lines = append(lines, colorize(entry, level, width))
	}
	if len(lines) == 0 {
		return styles.MutedStyle.Italic(true).Render("No logs to display")
	}
	return strings.Join(lines, "\n")
}

func levelOf(entry string) (log.Level, bool) {
	for _, level := range []log.Level{log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug} {
		if strings.Contains(entry, "["+level.String()+"]") {
			return level, true
		}
	}
	return log.LevelDebug, false
}

func colorize(entry string, level log.Level, width int) string {
	if ansi.StringWidth(entry) > width {
		entry = ansi.Truncate(entry, width-3, "...")
	}
	var fg lipgloss.TerminalColor
	switch level {
	case log.LevelError:
		fg = styles.StatusErrorColor
	case log.LevelWarn:
		fg = styles.StatusWarningColor
	case log.LevelInfo:
		fg = styles.BorderFocusColor
	default:
		fg = styles.TextMutedColor
	}
	return lipgloss.NewStyle().Foreground(fg).Render(entry)
}

func (m Model) filterHint() string {
	hint := styles.MutedStyle
	active := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	parts := []string{hint.Render("[c] Clear")}
	for _, f := range []struct {
		level log.Level
		label string
	}{
		{log.LevelDebug, "[d] Debug"},
		{log.LevelInfo, "[i] Info"},
		{log.LevelWarn, "[w] Warn"},
		{log.LevelError, "[e] Error"},
	} {
		if f.level == m.minLevel {
			parts = append(parts, active.Render(f.label))
		} else {
			parts = append(parts, hint.Render(f.label))
		}
	}
	return strings.Join(parts, "  ")
}

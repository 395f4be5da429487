package app

import (
	"fmt"
	"path/filepath"
	"strings"

	bubbleshelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/stupidea/internal/run"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

const (
	headerHeight = 1
	footerHeight = 1
	minPaneRows  = 3
)

var (
	appTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).PaddingLeft(1)
)

// paneHeights splits the body between editor and terminal, three to two.
func (m Model) paneHeights() (editor, term int) {
	body := max(m.height-headerHeight-footerHeight, 2*minPaneRows)
	editor = max(body*3/5, minPaneRows)
	term = max(body-editor, minPaneRows)
	return editor, term
}

// layout pushes the current size into the children.
func (m *Model) layout() {
	editorH, termH := m.paneHeights()
	inner := max(m.width-2, 1)
	m.editor.SetSize(inner, max(editorH-2, 1))
	m.terminal.SetSize(inner, max(termH-2, 1))
	m.toaster = m.toaster.SetSize(m.width, m.height)
	m.help = m.help.SetSize(m.width, m.height)
	m.settings = m.settings.SetSize(m.width, m.height)
	m.logs.SetSize(m.width, m.height)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	editorH, termH := m.paneHeights()

	title := "Editor"
	if m.filePath != "" {
		title = filepath.Base(m.filePath)
	}
	if m.editor.Text() != m.savedText {
		title += " [+]"
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		styles.RenderPane(m.editor.View(), title, m.width, editorH, m.focus == focusEditor),
		styles.RenderPane(m.terminal.View(), "Terminal", m.width, termH, m.focus == focusTerminal),
		m.footer(),
	)

	switch {
	case m.editing:
		view = m.settings.Overlay(view)
	case m.showHelp:
		view = m.help.Overlay(view)
	}
	if m.logs.Visible() {
		view = m.logs.Overlay(view)
	}
	view = m.toaster.Overlay(view)
	return zone.Scan(view)
}

func (m Model) header() string {
	runButton := zone.Mark(zoneRun, styles.PrimaryButtonStyle.Render("▶ Run"))
	if m.runner.Busy() {
		runButton = zone.Mark(zoneRun, styles.DangerButtonStyle.Render("■ Stop"))
	}
	parts := []string{
		appTitleStyle.Render("StupiD IDEA"),
		runButton,
		" ",
		zone.Mark(zoneRehighlight, styles.SecondaryButtonStyle.Render("↻ Re-highlight")),
		" ",
		zone.Mark(zoneSettings, styles.SecondaryButtonStyle.Render("⚙ Settings")),
	}
	if status := m.status(); status != "" {
		parts = append(parts, statusStyle.Render(status))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// status describes background work: a run, a highlight call in flight, or
// lines still waiting for colours.
func (m Model) status() string {
	switch m.runner.State() {
	case run.Compiling:
		return m.spinner.View() + " Compiling..."
	case run.Running:
		return m.spinner.View() + " Running..."
	}
	if m.highlighter.Busy() {
		return m.spinner.View() + " Highlighting"
	}
	if n := len(m.highlighter.Dirty()); n > 0 {
		return fmt.Sprintf("%d line(s) pending", n)
	}
	return ""
}

func (m Model) footer() string {
	h := bubbleshelp.New()
	h.Width = m.width
	line := h.ShortHelpView(m.keys.ShortHelp())
	if model := m.cfg.Highlight.Model; model != "" {
		line += styles.MutedStyle.Render(" • " + model)
	}
	return strings.TrimRight(line, " ")
}

// Package help contains the help overlay. The text is markdown rendered
// with glamour.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/keys"
	"github.com/zjrosen/stupidea/internal/ui/overlay"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

// noMarginStyle removes glamour's document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

const (
	boxMaxWidth       = 76
	viewportMinHeight = 3
	// border, blank line and footer
	chromeHeight = 4
)

var legend = map[highlight.Color]string{
	highlight.Pink:   "keywords",
	highlight.Sky:    "function and class names",
	highlight.Cyan:   "numbers and booleans",
	highlight.Green:  "strings",
	highlight.Yellow: "operators",
	highlight.White:  "identifiers",
	highlight.Gray:   "punctuation",
	highlight.Orange: "typos",
	highlight.Purple: "built-ins",
	highlight.Indigo: "everything else",
	highlight.Teal:   "types",
	highlight.Lime:   "comments",
	highlight.Amber:  "odd identifiers",
	highlight.Red:    "errors",
}

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.OverlayBorderColor).
	Padding(0, 1)

// Model holds the help view state. The rendered text scrolls inside a
// viewport sized to the screen.
type Model struct {
	keys     keys.KeyMap
	style    string
	width    int
	height   int
	viewport viewport.Model
}

// New creates a help view. style is "dark" or "light".
func New(km keys.KeyMap, style string) Model {
	if style != "light" {
		style = "dark"
	}
	m := Model{keys: km, style: style}
	m.refresh()
	return m
}

// SetSize updates dimensions and re-renders the text for the new width.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.refresh()
	return m
}

// Update scrolls the text.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Top scrolls back to the first line.
func (m Model) Top() Model {
	m.viewport.GotoTop()
	return m
}

func (m *Model) refresh() {
	body, err := m.Render()
	if err != nil {
		body = m.Markdown()
	}
	body = strings.Trim(body, "\n")

	height := lipgloss.Height(body)
	if m.height > 0 {
		height = max(min(height, m.height-chromeHeight-2), viewportMinHeight)
	}
	offset := m.viewport.YOffset
	m.viewport = viewport.New(m.boxWidth()-4, height)
	m.viewport.SetContent(body)
	m.viewport.SetYOffset(offset)
}

// Markdown returns the help text before rendering.
func (m Model) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# StupiD IDEA\n\n")
	sb.WriteString("Type StupiD code in the editor. Lines are coloured by the model a moment after you stop typing; ")
	sb.WriteString("a dot in the gutter marks lines still waiting for colours.\n\n")

	sb.WriteString("## Keys\n\n")
	sb.WriteString("| Key | Action |\n|---|---|\n")
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			writeBinding(&sb, b)
		}
	}

	sb.WriteString("\n## Colours\n\n")
	for _, c := range highlight.Labels() {
		fmt.Fprintf(&sb, "- `%s` %s\n", c, legend[c])
	}
	return sb.String()
}

func writeBinding(sb *strings.Builder, b key.Binding) {
	h := b.Help()
	if h.Key == "" {
		return
	}
	fmt.Fprintf(sb, "| `%s` | %s |\n", h.Key, h.Desc)
}

// Render returns the glamour output for the current width.
func (m Model) Render() (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(m.boxWidth()-4),
	)
	if err != nil {
		return "", err
	}
	return r.Render(m.Markdown())
}

func (m Model) boxWidth() int {
	if m.width <= 0 {
		return boxMaxWidth
	}
	return max(min(m.width-4, boxMaxWidth), 24)
}

// View renders the help box.
func (m Model) View() string {
	hint := "esc or f1 to close"
	if !m.viewport.AtTop() || !m.viewport.AtBottom() {
		hint = "↑/↓ scroll · " + hint
	}
	footer := styles.MutedStyle.Render(ansi.Truncate(hint, m.boxWidth()-4, ""))
	return boxStyle.Render(m.viewport.View() + "\n\n" + footer)
}

// Overlay renders the help box centred over bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(m.width, m.height, overlay.Center, m.View(), bg)
}

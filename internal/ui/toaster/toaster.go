// Package toaster provides short-lived notices shown above the status bar.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stupidea/internal/ui/overlay"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 3 * time.Second

// Style determines the border colour and icon of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
	StyleWarn
)

// DismissMsg hides the toast it was scheduled for. A newer toast ignores
// the dismissal of an older one.
type DismissMsg struct {
	id int
}

// Model holds the toaster state.
type Model struct {
	message string
	style   Style
	visible bool
	id      int
	width   int
	height  int
}

// New creates a hidden toaster.
func New() Model {
	return Model{}
}

// Show displays message and returns the command that dismisses it after d.
func (m Model) Show(message string, style Style, d time.Duration) (Model, tea.Cmd) {
	m.id++
	m.message = message
	m.style = style
	m.visible = true
	id := m.id
	return m, tea.Tick(d, func(time.Time) tea.Msg { return DismissMsg{id: id} })
}

// Update handles dismissals.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.id == m.id {
		m.visible = false
		m.message = ""
	}
	return m
}

// Visible returns whether a toast is showing.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the current text.
func (m Model) Message() string {
	return m.message
}

// SetSize updates the screen size.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	var icon string
	switch m.style {
	case StyleError:
		style = style.BorderForeground(styles.StatusErrorColor)
		icon = "✗ "
	case StyleInfo:
		style = style.BorderForeground(styles.BorderFocusColor)
		icon = "i "
	case StyleWarn:
		style = style.BorderForeground(styles.StatusWarningColor)
		icon = "! "
	default:
		style = style.BorderForeground(styles.StatusSuccessColor)
		icon = "✓ "
	}
	return style.Render(icon + m.message)
}

// Overlay renders the toast near the bottom of bg.
func (m Model) Overlay(bg string) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(m.width, m.height, overlay.Bottom, m.View(), bg)
}

package logpane

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stupidea/internal/log"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func shown() Model {
	m := New()
	m.SetSize(100, 30)
	m.Toggle()
	return m
}

func TestNew_Hidden(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
	require.Equal(t, "bg", m.Overlay("bg"))
}

func TestAdd_BoundsBuffer(t *testing.T) {
	m := New()
	for i := range maxEntries + 10 {
		m.Add(fmt.Sprintf("entry %d", i))
	}
	require.Equal(t, maxEntries, m.Len())
	require.Equal(t, "entry 10", m.entries[0])
}

func TestView_FiltersByLevel(t *testing.T) {
	m := shown()
	m.Add("2026-10-19T10:00:00 [DEBUG] [highlight] partial pass lines=2")
	m.Add("2026-10-19T10:00:01 [WARN] [gateway] classify failed error=timeout")

	view := m.View()
	require.Contains(t, view, "partial pass")
	require.Contains(t, view, "classify failed")

	m, _ = m.Update(keyPress("w"))
	view = m.View()
	require.NotContains(t, view, "partial pass")
	require.Contains(t, view, "classify failed")
	require.Equal(t, log.LevelWarn, m.minLevel)
}

func TestUpdate_ClearAndClose(t *testing.T) {
	m := shown()
	m.Add("[INFO] [run] compiling")

	m, _ = m.Update(keyPress("c"))
	require.Zero(t, m.Len())
	require.Contains(t, m.View(), "No logs to display")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.Visible())
	require.IsType(t, CloseMsg{}, cmd())
}

func TestUpdate_IgnoredWhenHidden(t *testing.T) {
	m := New()
	m.Add("[INFO] [run] compiling")
	m, cmd := m.Update(keyPress("c"))
	require.Nil(t, cmd)
	require.Equal(t, 1, m.Len())
}

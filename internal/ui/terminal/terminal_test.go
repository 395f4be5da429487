package terminal

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stupidea/internal/run"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestNew_StartsWithWelcome(t *testing.T) {
	m := New()
	require.Equal(t, []string{run.MsgWelcome}, m.Lines())
}

func TestAppend_FollowsBottom(t *testing.T) {
	m := New()
	m.SetSize(40, 2)
	m.Append(run.MsgCompiling, run.MsgCompiled, "Hello, World", run.MsgFinished)

	view := m.View()
	require.Contains(t, view, "Hello, World")
	require.Contains(t, view, run.MsgFinished)
	require.NotContains(t, view, run.MsgWelcome)
}

func TestAppend_WrapsLongLines(t *testing.T) {
	m := New()
	m.Clear()
	m.SetSize(10, 5)
	m.Append("aaaa bbbb cccc")

	lines := strings.Split(m.View(), "\n")
	require.Equal(t, "aaaa bbbb", strings.TrimRight(lines[0], " "))
	require.Equal(t, "cccc", strings.TrimRight(lines[1], " "))

	m.Append(strings.Repeat("x", 25))
	for _, l := range strings.Split(m.View(), "\n") {
		require.LessOrEqual(t, ansi.StringWidth(l), 10)
	}
}

func TestUpdate_ScrollOnlyWhenFocused(t *testing.T) {
	m := New()
	m.SetSize(40, 1)
	m.Append("one", "two", "three")
	require.Contains(t, m.View(), "three")

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Contains(t, m.View(), "three")

	m.Focus()
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Contains(t, m.View(), "two")
}

func TestAppendScript_PlainInAsciiProfile(t *testing.T) {
	m := New()
	m.AppendScript("console.log('hi');\nconsole.log(1);\n")

	require.Equal(t, []string{run.MsgWelcome, "console.log('hi');", "console.log(1);"}, m.Lines())
}

func TestHighlight_ProducesEscapes(t *testing.T) {
	out := highlight("const x = 1;", "terminal256")
	require.Contains(t, out, "\x1b[")
	require.Equal(t, "const x = 1;", ansi.Strip(out))

	multi := highlight("a();\nb();", "terminal256")
	require.Len(t, strings.Split(multi, "\n"), 2)
}

func TestStyle_KeepsText(t *testing.T) {
	for _, line := range []string{run.MsgWelcome, run.MsgFailed + "boom", "RUNTIME ERROR: x", "WARN: y", "plain"} {
		require.Equal(t, line, Style(line))
	}
}

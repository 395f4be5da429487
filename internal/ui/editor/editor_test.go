package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stupidea/internal/highlight"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type stubSource struct {
	colors [][]highlight.ColoredToken
	dirty  map[int]bool
}

func (s stubSource) Colors() [][]highlight.ColoredToken { return s.colors }
func (s stubSource) IsDirty(i int) bool                 { return s.dirty[i] }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// press feeds keys and returns the last ChangedMsg, if any.
func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, *ChangedMsg) {
	t.Helper()
	var changed *ChangedMsg
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = m.Update(k)
		if cmd != nil {
			msg, ok := cmd().(ChangedMsg)
			require.True(t, ok)
			changed = &msg
		}
	}
	return m, changed
}

func TestNew_SampleHasFiveLines(t *testing.T) {
	m := New(Sample)
	require.Len(t, strings.Split(m.Text(), "\n"), 5)
	require.Equal(t, Sample, m.Text())
}

func TestUpdate_InsertEmitsChanged(t *testing.T) {
	m := New("ab")
	m, changed := press(t, m, key(tea.KeyEnd), runes("c"))

	require.NotNil(t, changed)
	require.Equal(t, "abc", changed.Text)
	require.Equal(t, "abc", m.Text())
}

func TestUpdate_MovementDoesNotEmit(t *testing.T) {
	m := New("ab\ncd")
	_, changed := press(t, m, key(tea.KeyDown), key(tea.KeyRight), key(tea.KeyUp), key(tea.KeyHome))
	require.Nil(t, changed)
}

func TestUpdate_EnterSplitsAndBackspaceJoins(t *testing.T) {
	m := New("hello")
	m, _ = press(t, m, key(tea.KeyRight), key(tea.KeyRight), key(tea.KeyEnter))
	require.Equal(t, "he\nllo", m.Text())
	row, col := m.Cursor()
	require.Equal(t, 1, row)
	require.Equal(t, 0, col)

	m, changed := press(t, m, key(tea.KeyBackspace))
	require.Equal(t, "hello", m.Text())
	require.Equal(t, "hello", changed.Text)
	row, col = m.Cursor()
	require.Equal(t, 0, row)
	require.Equal(t, 2, col)
}

func TestUpdate_DeleteJoinsNextLine(t *testing.T) {
	m := New("ab\ncd")
	m, _ = press(t, m, key(tea.KeyEnd), key(tea.KeyDelete))
	require.Equal(t, "abcd", m.Text())
}

func TestUpdate_GraphemeAwareEditing(t *testing.T) {
	m := New("喵a")
	m, _ = press(t, m, key(tea.KeyRight), key(tea.KeyBackspace))
	require.Equal(t, "a", m.Text())

	m = New("éx")
	m, _ = press(t, m, key(tea.KeyDelete))
	require.Equal(t, "x", m.Text())
}

func TestUpdate_MultiLinePaste(t *testing.T) {
	m := New("[]")
	m, _ = press(t, m, key(tea.KeyRight), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a\nb\nc"), Paste: true})

	require.Equal(t, "[a\nb\nc]", m.Text())
	row, col := m.Cursor()
	require.Equal(t, 2, row)
	require.Equal(t, 1, col)
}

func TestUpdate_KillLine(t *testing.T) {
	m := New("abc\ndef")
	m, _ = press(t, m, key(tea.KeyRight), key(tea.KeyCtrlK))
	require.Equal(t, "a\ndef", m.Text())
	m, _ = press(t, m, key(tea.KeyCtrlK))
	require.Equal(t, "adef", m.Text())
}

func TestUpdate_IgnoredWhenBlurred(t *testing.T) {
	m := New("x")
	m.Blur()
	m, changed := press(t, m, runes("y"))
	require.Nil(t, changed)
	require.Equal(t, "x", m.Text())
}

func TestSetText_ClampsCursor(t *testing.T) {
	m := New("one\ntwo\nthree")
	m, _ = press(t, m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyEnd))
	m.SetText("x")
	row, col := m.Cursor()
	require.Equal(t, 0, row)
	require.Equal(t, 1, col)
}

func TestView_RendersColoursGutterAndDirtyMarker(t *testing.T) {
	m := New("cint x\nfoo")
	m.Blur()
	m.SetSize(40, 5)
	m.SetSource(stubSource{
		colors: [][]highlight.ColoredToken{
			{{Text: "cint", Color: highlight.Orange}, {Text: " ", Color: highlight.White}, {Text: "x", Color: highlight.White}},
			{{Text: "stale", Color: highlight.Pink}},
		},
		dirty: map[int]bool{1: true},
	})

	lines := strings.Split(m.View(), "\n")
	require.Equal(t, []string{"  1  cint x", "  2• foo"}, lines)
}

func TestView_ScrollsToCursor(t *testing.T) {
	m := New("1\n2\n3\n4\n5")
	m.SetSize(20, 2)
	m, _ = press(t, m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown))

	view := m.View()
	require.Contains(t, view, "  3  3")
	require.Contains(t, view, "  4  4")
	require.NotContains(t, view, "  1  1")
}

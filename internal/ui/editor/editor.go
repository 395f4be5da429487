// Package editor provides the source editor pane. It owns the text buffer
// and cursor, and paints each line from the highlighter's colour model.
package editor

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

// Sample is the program shown when no file exists yet.
const Sample = "//introduce<FTL>\n" +
	"#improve pilipala\n" +
	"cint<>`%s',&&Hello,World;\n" +
	"pilipala.NeW Z_06 <- piplikl.UP\n" +
	"Z_06.askForCoins(‘一键三连喵，关注Z_06谢谢喵’ = inpt()"

const gutterWidth = 5 // "%3d" + dirty marker + space

// ColorSource supplies the colour model rendered by the editor.
type ColorSource interface {
	Colors() [][]highlight.ColoredToken
	IsDirty(i int) bool
}

// ChangedMsg is emitted after every edit that changes the text.
type ChangedMsg struct {
	Text string
}

var (
	gutterStyle = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	dirtyStyle  = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

// Model is the editor state.
type Model struct {
	lines   []string
	row     int // cursor line
	col     int // cursor grapheme within the line
	top     int // first visible line
	left    int // horizontal scroll in cells
	width   int
	height  int
	focused bool
	source  ColorSource
}

// New creates an editor holding text.
func New(text string) Model {
	m := Model{focused: true}
	m.lines = strings.Split(text, "\n")
	return m
}

// SetSource sets the colour model to render.
func (m *Model) SetSource(src ColorSource) {
	m.source = src
}

// SetSize sets the pane dimensions (content area, without border).
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.scrollIntoView()
}

// Focus gives the editor keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the editor has focus.
func (m Model) Focused() bool { return m.focused }

// Text returns the buffer contents.
func (m Model) Text() string {
	return strings.Join(m.lines, "\n")
}

// SetText replaces the buffer, keeping the cursor where it still fits.
// No ChangedMsg is emitted.
func (m *Model) SetText(text string) {
	m.lines = strings.Split(text, "\n")
	m.row = min(m.row, len(m.lines)-1)
	m.col = min(m.col, graphemeCount(m.lines[m.row]))
	m.scrollIntoView()
}

// Cursor returns the cursor line and grapheme column.
func (m Model) Cursor() (row, col int) {
	return m.row, m.col
}

// Update handles editing keys while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	before := m.Text()
	switch key.Type {
	case tea.KeyRunes, tea.KeySpace:
		m.insert(string(key.Runes))
	case tea.KeyEnter:
		m.newline()
	case tea.KeyBackspace:
		m.backspace()
	case tea.KeyDelete:
		m.deleteForward()
	case tea.KeyLeft:
		m.moveLeft()
	case tea.KeyRight:
		m.moveRight()
	case tea.KeyUp:
		m.moveVertical(-1)
	case tea.KeyDown:
		m.moveVertical(1)
	case tea.KeyPgUp:
		m.moveVertical(-max(m.height-1, 1))
	case tea.KeyPgDown:
		m.moveVertical(max(m.height-1, 1))
	case tea.KeyHome, tea.KeyCtrlA:
		m.col = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		m.col = graphemeCount(m.lines[m.row])
	case tea.KeyCtrlK:
		m.killLine()
	default:
		return m, nil
	}
	m.scrollIntoView()

	text := m.Text()
	if text == before {
		return m, nil
	}
	return m, func() tea.Msg { return ChangedMsg{Text: text} }
}

func (m *Model) insert(s string) {
	if s == "" {
		return
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	line := m.lines[m.row]
	at := byteOffset(line, m.col)
	head, tail := line[:at], line[at:]

	parts := strings.Split(s, "\n")
	if len(parts) == 1 {
		m.lines[m.row] = head + s + tail
		m.col += graphemeCount(s)
		return
	}

	// pasted text spanning several lines
	last := len(parts) - 1
	inserted := make([]string, len(parts))
	copy(inserted, parts)
	inserted[0] = head + parts[0]
	inserted[last] = parts[last] + tail

	lines := make([]string, 0, len(m.lines)+last)
	lines = append(lines, m.lines[:m.row]...)
	lines = append(lines, inserted...)
	lines = append(lines, m.lines[m.row+1:]...)
	m.lines = lines
	m.row += last
	m.col = graphemeCount(parts[last])
}

func (m *Model) newline() {
	line := m.lines[m.row]
	at := byteOffset(line, m.col)
	m.lines[m.row] = line[:at]
	m.lines = append(m.lines[:m.row+1], append([]string{line[at:]}, m.lines[m.row+1:]...)...)
	m.row++
	m.col = 0
}

func (m *Model) backspace() {
	if m.col > 0 {
		line := m.lines[m.row]
		from, to := byteOffset(line, m.col-1), byteOffset(line, m.col)
		m.lines[m.row] = line[:from] + line[to:]
		m.col--
		return
	}
	if m.row == 0 {
		return
	}
	prev := m.lines[m.row-1]
	m.col = graphemeCount(prev)
	m.lines[m.row-1] = prev + m.lines[m.row]
	m.lines = append(m.lines[:m.row], m.lines[m.row+1:]...)
	m.row--
}

func (m *Model) deleteForward() {
	line := m.lines[m.row]
	if m.col < graphemeCount(line) {
		from, to := byteOffset(line, m.col), byteOffset(line, m.col+1)
		m.lines[m.row] = line[:from] + line[to:]
		return
	}
	if m.row == len(m.lines)-1 {
		return
	}
	m.lines[m.row] = line + m.lines[m.row+1]
	m.lines = append(m.lines[:m.row+1], m.lines[m.row+2:]...)
}

func (m *Model) killLine() {
	line := m.lines[m.row]
	if m.col < graphemeCount(line) {
		m.lines[m.row] = line[:byteOffset(line, m.col)]
		return
	}
	m.deleteForward()
}

func (m *Model) moveLeft() {
	switch {
	case m.col > 0:
		m.col--
	case m.row > 0:
		m.row--
		m.col = graphemeCount(m.lines[m.row])
	}
}

func (m *Model) moveRight() {
	switch {
	case m.col < graphemeCount(m.lines[m.row]):
		m.col++
	case m.row < len(m.lines)-1:
		m.row++
		m.col = 0
	}
}

func (m *Model) moveVertical(delta int) {
	m.row = max(0, min(m.row+delta, len(m.lines)-1))
	m.col = min(m.col, graphemeCount(m.lines[m.row]))
}

// scrollIntoView adjusts the viewport so the cursor is visible.
func (m *Model) scrollIntoView() {
	if m.height > 0 {
		if m.row < m.top {
			m.top = m.row
		}
		if m.row >= m.top+m.height {
			m.top = m.row - m.height + 1
		}
	}
	m.top = max(0, min(m.top, len(m.lines)-1))

	textWidth := m.width - gutterWidth
	if textWidth <= 0 {
		m.left = 0
		return
	}
	x := displayWidth(m.lines[m.row], m.col)
	if x < m.left {
		m.left = x
	}
	if x >= m.left+textWidth {
		m.left = x - textWidth + 1
	}
}

// View renders the visible lines with a line number gutter. Dirty lines are
// marked with a dot in the gutter.
func (m Model) View() string {
	var colors [][]highlight.ColoredToken
	if m.source != nil {
		colors = m.source.Colors()
	}

	height := m.height
	if height <= 0 {
		height = len(m.lines)
	}
	textWidth := max(m.width-gutterWidth, 1)

	rows := make([]string, 0, height)
	for i := m.top; i < len(m.lines) && len(rows) < height; i++ {
		marker := " "
		if m.source != nil && m.source.IsDirty(i) {
			marker = dirtyStyle.Render("•")
		}
		gutter := gutterStyle.Render(fmt.Sprintf("%3d", i+1)) + marker + " "

		var tokens []highlight.ColoredToken
		if i < len(colors) {
			tokens = colors[i]
		}
		body := m.renderLine(m.lines[i], tokens, i == m.row && m.focused)
		if m.width > 0 {
			if m.left > 0 {
				body = ansi.TruncateLeft(body, m.left, "")
			}
			body = ansi.Truncate(body, textWidth, "")
		}
		rows = append(rows, gutter+body)
	}
	return strings.Join(rows, "\n")
}

// renderLine paints one line. Colours that no longer match the text (the
// highlighter has not seen the latest edit) fall back to the pending style.
func (m Model) renderLine(line string, tokens []highlight.ColoredToken, cursor bool) string {
	if !matches(line, tokens) {
		tokens = nil
		if line != "" {
			tokens = []highlight.ColoredToken{{Text: line, Color: highlight.Pending}}
		}
	}
	if !cursor {
		return styles.RenderLine(tokens)
	}

	var sb strings.Builder
	idx := 0
	for _, tok := range tokens {
		style := styles.ColorStyle(tok.Color)
		for _, g := range graphemes(tok.Text) {
			if idx == m.col {
				sb.WriteString(cursorStyle.Render(g))
			} else {
				sb.WriteString(style.Render(g))
			}
			idx++
		}
	}
	if m.col >= idx {
		sb.WriteString(cursorStyle.Render(" "))
	}
	return sb.String()
}

func matches(line string, tokens []highlight.ColoredToken) bool {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	return sb.String() == line
}

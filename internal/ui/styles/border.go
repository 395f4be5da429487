package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderPane draws content inside a rounded border with the title embedded
// in the top edge:
//
//	╭─ Editor ───────╮
//	│content         │
//	╰────────────────╯
//
// width and height include the border. The border is highlighted when the
// pane has focus.
func RenderPane(content, title string, width, height int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderFocusColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)

	innerWidth := max(width-2, 1)
	innerHeight := max(height-2, 1)

	lines := strings.Split(content, "\n")
	var sb strings.Builder
	sb.WriteString(topBorder(title, innerWidth, borderStyle, TitleStyle))
	sb.WriteString("\n")
	for i := range innerHeight {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if w := lipgloss.Width(line); w > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		} else if w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		}
		sb.WriteString(borderStyle.Render(borderVertical))
		sb.WriteString(line)
		sb.WriteString(borderStyle.Render(borderVertical))
		sb.WriteString("\n")
	}
	sb.WriteString(borderStyle.Render(borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight))
	return sb.String()
}

// topBorder builds ╭─ Title ───╮, dropping the title when it cannot fit.
func topBorder(title string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	// "─ " before and " ─" after the title
	if title == "" || innerWidth < 4 {
		return borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	}

	display := runewidth.Truncate(title, innerWidth-4, "...")
	rest := max(innerWidth-3-runewidth.StringWidth(display), 0)

	return borderStyle.Render(borderTopLeft+borderHorizontal+" ") +
		titleStyle.Render(display) +
		borderStyle.Render(" "+strings.Repeat(borderHorizontal, rest)+borderTopRight)
}

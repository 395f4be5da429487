// Package overlay draws modal boxes (help, settings, log pane) on top of the
// main screen without clearing it.
package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Position specifies where to place the box.
type Position int

const (
	Center Position = iota
	Bottom
)

// Place splices fg into bg, both possibly ANSI styled. width and height are
// the screen size; bg is padded to height.
func Place(width, height int, pos Position, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, strings.Repeat(" ", width))
	}

	fgWidth := 0
	for _, l := range fgLines {
		fgWidth = max(fgWidth, ansi.StringWidth(l))
	}
	x := max((width-fgWidth)/2, 0)
	y := max((height-len(fgLines))/2, 0)
	if pos == Bottom {
		y = max(height-len(fgLines)-1, 0)
	}

	for i, fgLine := range fgLines {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		bgLine := bgLines[row]

		left := ansi.Truncate(bgLine, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		var right string
		if end := x + ansi.StringWidth(fgLine); end < ansi.StringWidth(bgLine) {
			right = ansi.TruncateLeft(bgLine, end, "")
		}
		bgLines[row] = left + fgLine + right
	}
	return strings.Join(bgLines, "\n")
}

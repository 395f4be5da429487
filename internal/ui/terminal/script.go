package terminal

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const scriptTheme = "dracula"

// HighlightScript renders a JavaScript listing for the terminal. The listing
// is left plain when the colour profile has no colours.
func HighlightScript(script string) string {
	script = strings.TrimRight(script, "\n")
	if lipgloss.ColorProfile() == termenv.Ascii {
		return script
	}
	return highlight(script, "terminal256")
}

func highlight(script, formatter string) string {
	lexer := lexers.Get("javascript")
	if lexer == nil {
		return script
	}
	lexer = chroma.Coalesce(lexer)

	f := formatters.Get(formatter)
	if f == nil {
		f = formatters.Fallback
	}
	it, err := lexer.Tokenise(nil, script)
	if err != nil {
		return script
	}
	var sb strings.Builder
	if err := f.Format(&sb, chromastyles.Get(scriptTheme), it); err != nil {
		return script
	}
	// The lexer appends a newline; fold anything past the script's last
	// line back into it so trailing resets are kept.
	lines := strings.Split(sb.String(), "\n")
	if n := strings.Count(script, "\n") + 1; len(lines) > n {
		lines[n-1] += strings.Join(lines[n:], "")
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

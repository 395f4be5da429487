// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stupidea/internal/highlight"
)

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CCCCCC"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#696969"} // hints, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	ButtonTextColor        = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor   = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonSecondaryBgColor = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#2D3436"}
	ButtonDangerBgColor    = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#922B21"}
	ButtonDisabledBgColor  = lipgloss.AdaptiveColor{Light: "#2D2D2D", Dark: "#2D2D2D"}

	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#8C8C8C"}

	baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

	PrimaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonPrimaryBgColor)

	SecondaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonSecondaryBgColor)

	DangerButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonDangerBgColor)

	DisabledButtonStyle = baseButtonStyle.
				Foreground(TextMutedColor).
				Background(ButtonDisabledBgColor)

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(OverlayTitleColor)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	WarnStyle  = lipgloss.NewStyle().Foreground(StatusWarningColor)
)

// Darcula inspired palette for classification labels.
var labelColors = map[highlight.Color]lipgloss.TerminalColor{
	highlight.Pink:   lipgloss.Color("#FB923C"), // keywords
	highlight.Sky:    lipgloss.Color("#FDE047"), // function names
	highlight.Cyan:   lipgloss.Color("#60A5FA"), // numbers
	highlight.Green:  lipgloss.Color("#22C55E"),
	highlight.Yellow: lipgloss.Color("#FACC15"),
	highlight.White:  lipgloss.Color("#CBD5E1"),
	highlight.Gray:   lipgloss.Color("#6B7280"),
	highlight.Red:    lipgloss.Color("#EF4444"),
	highlight.Orange: lipgloss.Color("#F87171"), // typos
	highlight.Purple: lipgloss.Color("#C084FC"),
	highlight.Indigo: lipgloss.Color("#818CF8"),
	highlight.Teal:   lipgloss.Color("#5EEAD4"),
	highlight.Lime:   lipgloss.Color("#6B7280"), // comments
	highlight.Amber:  lipgloss.Color("#CBD5E1"),
}

var (
	neutralTokenStyle = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	pendingTokenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	tokenStyles       = buildTokenStyles()
)

func buildTokenStyles() map[highlight.Color]lipgloss.Style {
	m := make(map[highlight.Color]lipgloss.Style, len(labelColors))
	for c, fg := range labelColors {
		s := lipgloss.NewStyle().Foreground(fg)
		if c == highlight.Red {
			s = s.Underline(true)
		}
		m[c] = s
	}
	return m
}

// ColorStyle returns the style for a classification label. Pending tokens
// are dimmed and labels outside the palette render neutral.
func ColorStyle(c highlight.Color) lipgloss.Style {
	if c == highlight.Pending {
		return pendingTokenStyle
	}
	if s, ok := tokenStyles[c]; ok {
		return s
	}
	return neutralTokenStyle
}

// RenderLine paints one coloured line.
func RenderLine(tokens []highlight.ColoredToken) string {
	if len(tokens) == 0 {
		return ""
	}
	var out []byte
	for _, tok := range tokens {
		out = append(out, ColorStyle(tok.Color).Render(tok.Text)...)
	}
	return string(out)
}

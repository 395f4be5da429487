package highlight

import "strings"

// Color is a classification label returned by the gateway.
type Color string

const (
	Pink   Color = "pink"   // keywords
	Sky    Color = "sky"    // function and class names
	Cyan   Color = "cyan"   // numbers and booleans
	Green  Color = "green"  // strings
	Yellow Color = "yellow" // operators
	White  Color = "white"  // plain identifiers
	Gray   Color = "gray"   // punctuation
	Orange Color = "orange" // clear typos
	Purple Color = "purple" // built-ins
	Indigo Color = "indigo" // miscellaneous
	Teal   Color = "teal"   // storage and types
	Lime   Color = "lime"   // comments
	Amber  Color = "amber"  // slightly odd identifiers
	Red    Color = "red"    // errors

	// Pending marks a token whose colour has not been classified yet.
	// It is never produced by the gateway.
	Pending Color = "pending"
)

// Labels lists every label the gateway may return, in schema order.
func Labels() []Color {
	return []Color{Pink, Sky, Cyan, Green, Yellow, White, Gray, Orange, Purple, Indigo, Teal, Lime, Amber, Red}
}

// ParseColor normalises a raw label. Unknown labels are kept verbatim so the
// renderer can fall back to its neutral style.
func ParseColor(s string) Color {
	return Color(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether c is one of the gateway labels.
func (c Color) Known() bool {
	for _, l := range Labels() {
		if c == l {
			return true
		}
	}
	return false
}

// ColoredToken is one painted token of a line.
type ColoredToken struct {
	Text  string
	Color Color
}

// Recolor builds an optimistic colouring for freshly tokenized text: token j
// borrows the colour that position j had before the edit, and positions past
// the old token count are Pending.
func Recolor(prev []ColoredToken, tokens []string) []ColoredToken {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]ColoredToken, len(tokens))
	for j, tok := range tokens {
		c := Pending
		if j < len(prev) && prev[j].Color != "" {
			c = prev[j].Color
		}
		out[j] = ColoredToken{Text: tok, Color: c}
	}
	return out
}

// Paint pairs tokens with authoritative colours. ok is false when the counts
// differ, in which case the classification cannot be aligned.
func Paint(tokens []string, colors []Color) (line []ColoredToken, ok bool) {
	if len(tokens) != len(colors) {
		return nil, false
	}
	if len(tokens) == 0 {
		return nil, true
	}
	line = make([]ColoredToken, len(tokens))
	for j, tok := range tokens {
		line[j] = ColoredToken{Text: tok, Color: colors[j]}
	}
	return line, true
}

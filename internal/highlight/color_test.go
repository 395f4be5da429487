package highlight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecolor_CarriesColoursByPosition(t *testing.T) {
	prev := []ColoredToken{{"let", Pink}, {" ", White}, {"a", White}}

	got := Recolor(prev, []string{"let", " ", "ab", " ", "="})

	require.Equal(t, []ColoredToken{
		{"let", Pink}, {" ", White}, {"ab", White}, {" ", Pending}, {"=", Pending},
	}, got)
}

func TestRecolor_NoPreviousIsPending(t *testing.T) {
	got := Recolor(nil, []string{"x", "+"})
	require.Equal(t, []ColoredToken{{"x", Pending}, {"+", Pending}}, got)
	require.Nil(t, Recolor(nil, nil))
}

func TestPaint_RequiresMatchingCounts(t *testing.T) {
	line, ok := Paint([]string{"a", "+"}, []Color{White, Yellow})
	require.True(t, ok)
	require.Equal(t, []ColoredToken{{"a", White}, {"+", Yellow}}, line)

	_, ok = Paint([]string{"a", "+"}, []Color{White})
	require.False(t, ok)
}

func TestParseColor(t *testing.T) {
	require.Equal(t, Sky, ParseColor(" SKY "))
	require.True(t, ParseColor("Lime").Known())
	require.False(t, ParseColor("magenta").Known())
	require.False(t, Pending.Known())
	require.Len(t, Labels(), 14)
}

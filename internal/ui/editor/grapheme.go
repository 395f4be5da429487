package editor

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// The cursor column counts grapheme clusters, not bytes or cells. These
// helpers translate between the three.

func graphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// byteOffset returns the byte offset of the n-th grapheme, or len(s) when n
// is at or past the end.
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	offset, idx, state := 0, 0, -1
	rest := s
	for len(rest) > 0 {
		if idx == n {
			return offset
		}
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		offset += len(cluster)
		idx++
	}
	return len(s)
}

// displayWidth returns the cell width of the first n graphemes.
func displayWidth(s string, n int) int {
	return runewidth.StringWidth(s[:byteOffset(s, n)])
}

// graphemes splits s into its clusters.
func graphemes(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.StepString(s, state)
		out = append(out, cluster)
	}
	return out
}

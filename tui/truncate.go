package tui

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// Truncate shortens s to at most width display cells, appending an
// ellipsis when anything was cut. Grapheme clusters are never split, so
// emoji and combining sequences survive truncation intact.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}

	budget := width - runewidth.StringWidth(ellipsis)
	var out string
	var used int
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		w := runewidth.StringWidth(cluster)
		if used+w > budget {
			break
		}
		out += cluster
		used += w
	}
	return out + ellipsis
}

// FirstLine returns the first line of s truncated to width. Multi-line
// input always gains an ellipsis even when the first line fits.
func FirstLine(s string, width int) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return Truncate(s[:i]+ellipsis, width)
		}
	}
	return Truncate(s, width)
}

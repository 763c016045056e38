package shelltool

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// sanitize strips ANSI escape sequences and control characters from command
// output before it is returned to the model. Tabs and newlines survive;
// CRLF normalizes to LF; a lone CR overwrites the line from column 0 the
// way a terminal would.
func sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' || r > 0x1F {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if !strings.ContainsRune(s, '\r') {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.ContainsRune(line, '\r') {
			lines[i] = overwriteCarriageReturns(line)
		}
	}
	return strings.Join(lines, "\n")
}

// overwriteCarriageReturns replays CR overwrites within a single line. Each
// \r resets the write position to column 0; when the overwriting segment is
// shorter than what it replaces, the tail of the old content remains.
func overwriteCarriageReturns(line string) string {
	segments := strings.Split(line, "\r")
	buf := []rune(segments[0])
	for _, seg := range segments[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}

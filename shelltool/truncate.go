package shelltool

import "strings"

// truncateResult describes the outcome of tail truncation.
type truncateResult struct {
	Content     string
	Truncated   bool
	TotalLines  int
	OutputLines int
}

// truncateTail keeps the last maxLines lines or maxBytes bytes of input,
// whichever limit is hit first, working backwards from the end so the most
// recent output survives.
func truncateTail(s string, maxLines, maxBytes int) truncateResult {
	if s == "" {
		return truncateResult{}
	}

	trimmed := strings.TrimSuffix(s, "\n")
	lines := strings.Split(trimmed, "\n")
	totalLines := len(lines)

	if totalLines <= maxLines && len(s) <= maxBytes {
		return truncateResult{
			Content:     s,
			TotalLines:  totalLines,
			OutputLines: totalLines,
		}
	}

	var collected []string
	outputBytes := 0
	for i := len(lines) - 1; i >= 0 && len(collected) < maxLines; i-- {
		lineBytes := len(lines[i]) + 1 // separator
		if outputBytes+lineBytes > maxBytes {
			// A single oversized line keeps only its tail.
			if len(collected) == 0 {
				tail := lines[i]
				if len(tail) > maxBytes {
					tail = tail[len(tail)-maxBytes:]
				}
				return truncateResult{
					Content:     tail,
					Truncated:   true,
					TotalLines:  totalLines,
					OutputLines: 1,
				}
			}
			break
		}
		collected = append(collected, lines[i])
		outputBytes += lineBytes
	}

	// Reverse back into chronological order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}

	return truncateResult{
		Content:     strings.Join(collected, "\n"),
		Truncated:   true,
		TotalLines:  totalLines,
		OutputLines: len(collected),
	}
}

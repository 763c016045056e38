// Package tui provides the interactive terminal pieces of the chain CLI:
// the per-call tool approval prompt and a spinner status line shown while
// a chain runs without streamed output.
package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chain"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	ToolCall lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t chain.Theme) Styles {
	return Styles{
		ToolCall: lipgloss.NewStyle().Foreground(ansiColor(t.ToolCall)),
		Error:    lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:  lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

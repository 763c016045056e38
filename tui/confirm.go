package tui

import (
	"bytes"
	"encoding/json"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chain"
)

var _ tea.Model = ConfirmModel{}

// ConfirmModel is a one-shot yes/no prompt for a pending tool call.
type ConfirmModel struct {
	call    chain.ToolCall
	styles  Styles
	width   int
	decided bool
	yes     bool
}

// NewConfirm creates a confirmation prompt for call.
func NewConfirm(call chain.ToolCall, theme chain.Theme) ConfirmModel {
	return ConfirmModel{
		call:   call,
		styles: NewStyles(theme),
		width:  80,
	}
}

// Approved reports the user's decision. False until a key is pressed.
func (m ConfirmModel) Approved() bool { return m.decided && m.yes }

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "enter":
			m.decided = true
			m.yes = true
			return m, tea.Quit
		case "n", "N", "esc", "ctrl+c":
			m.decided = true
			m.yes = false
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("Tool call approval"))
	b.WriteString("\n")
	b.WriteString(m.styles.ToolCall.Render(m.call.Name))
	b.WriteString(" ")
	b.WriteString(m.styles.Muted.Render(FirstLine(formatArgs(m.call.Arguments), m.width-len(m.call.Name)-1)))
	b.WriteString("\n")
	b.WriteString(m.styles.Success.Render("[y]es"))
	b.WriteString("  ")
	b.WriteString(m.styles.Error.Render("[n]o"))
	b.WriteString("\n")
	return b.String()
}

// formatArgs compacts raw JSON arguments for single-line display.
func formatArgs(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Approver returns a per-call confirmation hook for chain.WithApprove.
// It blocks on an interactive prompt for each tool call and reports the
// user's decision. Any program error denies the call.
func Approver(theme chain.Theme) func(chain.ToolCall) bool {
	return func(call chain.ToolCall) bool {
		final, err := tea.NewProgram(NewConfirm(call, theme)).Run()
		if err != nil {
			return false
		}
		m, ok := final.(ConfirmModel)
		return ok && m.Approved()
	}
}

package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chain"
)

var _ tea.Model = StatusModel{}

// StatusDoneMsg stops the status line. Err, when set, is shown before the
// program quits.
type StatusDoneMsg struct {
	Err error
}

// StatusUpdateMsg replaces the status message.
type StatusUpdateMsg struct {
	Message string
}

// StatusModel is a single-line spinner shown while a chain runs without
// streamed output.
type StatusModel struct {
	spinner spinner.Model
	styles  Styles
	message string
	width   int
	err     error
}

// NewStatus creates a status line with an initial message.
func NewStatus(message string, theme chain.Theme) StatusModel {
	styles := NewStyles(theme)
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.Accent),
	)
	return StatusModel{
		spinner: sp,
		styles:  styles,
		message: message,
		width:   80,
	}
}

// Err returns the error delivered by StatusDoneMsg, if any.
func (m StatusModel) Err() error { return m.err }

// Init implements tea.Model.
func (m StatusModel) Init() tea.Cmd { return m.spinner.Tick }

// Update implements tea.Model.
func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case StatusUpdateMsg:
		m.message = msg.Message
		return m, nil

	case StatusDoneMsg:
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m StatusModel) View() string {
	if m.err != nil {
		return m.styles.Error.Render(Truncate(m.err.Error(), m.width)) + "\n"
	}
	line := m.spinner.View() + " " + m.styles.Muted.Render(Truncate(m.message, m.width-2))
	return line + "\n"
}

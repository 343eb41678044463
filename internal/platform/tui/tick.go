// Package tui provides the Bubble Tea views of the balance tool: the batch
// progress view, the report browser and an SSH server that serves the
// browser read-only.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to refresh time-dependent views.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the given rate.
func tickCmd(rate int) tea.Cmd {
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

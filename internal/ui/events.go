package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// EventMsg wraps a socket event for the bubbletea loop.
type EventMsg struct {
	Event ws.Event
}

// streamEndedMsg is sent when the session's event channel is closed.
type streamEndedMsg struct{}

// waitForEvent reads the next socket event. Models re-issue it after each
// EventMsg so exactly one read is pending at a time.
func waitForEvent(events <-chan ws.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamEndedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

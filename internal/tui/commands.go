package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/mediasense/internal/session"
)

// Async commands that return tea.Msg

// waitForState blocks until the engine publishes a snapshot. It is re-armed
// after every stateMsg.
func waitForState(updates <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return engineStoppedMsg{}
		}
		return stateMsg{state: s}
	}
}

// dispatch hands events to the engine off the UI goroutine.
func dispatch(engine Dispatcher, events ...session.Event) tea.Cmd {
	return func() tea.Msg {
		for _, ev := range events {
			if !engine.Dispatch(ev) {
				return dispatchedMsg{ok: false}
			}
		}
		return dispatchedMsg{ok: true}
	}
}

func submitURL(engine Dispatcher, url string) tea.Cmd {
	return dispatch(engine, session.URLChanged{Value: url}, session.Submitted{})
}

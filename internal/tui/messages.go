package tui

import "github.com/elsanchez/mediasense/internal/session"

// Message types for async operations

type stateMsg struct {
	state session.State
}

type engineStoppedMsg struct{}

type dispatchedMsg struct {
	ok bool
}

package tui

import "github.com/abdul-hamid-achik/ntricacid/internal/conversation"

// StateMsg carries a controller state change pushed from outside the event loop
type StateMsg struct {
	State conversation.State
}

// SubmitDoneMsg is sent when a submit or retry command returns
type SubmitDoneMsg struct {
	Outcome conversation.Outcome
	State   conversation.State
}

// TerminalDoneMsg carries the lines produced by a forwarded terminal query
type TerminalDoneMsg struct {
	Lines []string
}

// StatusMsg sets the one-line status shown above the input
type StatusMsg struct {
	Text    string
	IsError bool
}

// TickMsg is sent for spinner animation
type TickMsg struct{}

// QuitMsg signals the TUI to quit
type QuitMsg struct{}

func statusOK(text string) StatusMsg {
	return StatusMsg{Text: text}
}

func statusErr(err error) StatusMsg {
	return StatusMsg{Text: err.Error(), IsError: true}
}

// Package terminal implements the simulated command prompt: a small table
// of canned commands, with everything else forwarded to the AI as a query.
package terminal

import (
	"context"
	"strings"
	"sync"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
)

// Prompt is printed before every echoed command.
const Prompt = `C:\Users\Researcher> `

const (
	ProcessingLine = "Processing neural response..."
	// FailedLine is shown when the sender fails for an unexpected reason.
	FailedLine = "ERROR: Command not recognized or neural link timed out."
	// BusyLine is shown when the AI could not answer the query.
	BusyLine = "ERROR: Neural core busy. Connection timed out."
)

var banner = []string{
	"Microsoft Windows [Version 10.0.19045.3803]",
	"(c) NtricAcid Corporation. All rights reserved.",
	"",
}

// Command is a recognised terminal command.
type Command int

const (
	CmdForward Command = iota
	CmdClear
	CmdExit
	CmdHelp
	CmdVer
	CmdWhoami
	CmdSysteminfo
	CmdQuery
)

var commandTable = map[string]Command{
	"clear":      CmdClear,
	"cls":        CmdClear,
	"exit":       CmdExit,
	"quit":       CmdExit,
	"help":       CmdHelp,
	"ver":        CmdVer,
	"whoami":     CmdWhoami,
	"systeminfo": CmdSysteminfo,
}

var canned = map[Command][]string{
	CmdHelp: {
		"HELP          Provides help information for NtricAcid commands.",
		"CLS           Clears the screen.",
		"EXIT          Quits the CMD.EXE program (command interpreter).",
		"VER           Displays the NtricAcid version.",
		"WHOAMI        Displays the current user name.",
		"SYSTEMINFO    Displays machine-specific properties and configuration.",
		"QUERY [text]  Sends a direct neural query to the AI core.",
		"",
	},
	CmdVer:    {"NtricAcid OS [Version 5.2.2024]", ""},
	CmdWhoami: {`ntricacid\researcher`, ""},
	CmdSysteminfo: {
		"Host Name:                 NTRICACID-V5",
		"OS Name:                   NtricAcid OS",
		"System Manufacturer:       SIAN Labs",
		"System Model:              Neural Core v3",
		"Processor(s):              Quantum RISC v9 @ 4.2THz",
		"Total Physical Memory:     1,024,000 MB",
		"",
	},
}

// Parse maps a trimmed input line to its command. For CmdQuery and
// CmdForward the returned text is what gets sent to the AI.
func Parse(line string) (Command, string) {
	lower := strings.ToLower(line)
	if cmd, ok := commandTable[lower]; ok {
		return cmd, ""
	}
	if strings.HasPrefix(lower, "query ") {
		if text := strings.TrimSpace(line[len("query "):]); text != "" {
			return CmdQuery, text
		}
	}
	return CmdForward, line
}

// Sender answers forwarded queries.
type Sender interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Result describes what one Execute call did.
type Result struct {
	Command Command
	// Output holds the lines appended after the echo.
	Output  []string
	Cleared bool
	Closed  bool
}

// Emulator holds the transcript. It lives in memory only.
type Emulator struct {
	mu     sync.Mutex
	lines  []string
	closed bool

	sender Sender
	log    *logging.Logger
}

// New creates an emulator whose transcript starts with the banner.
func New(sender Sender, log *logging.Logger) *Emulator {
	if log == nil {
		log = logging.Nop()
	}
	return &Emulator{
		lines:  append([]string(nil), banner...),
		sender: sender,
		log:    log.WithPrefix("terminal"),
	}
}

// Transcript returns a copy of the lines shown so far.
func (e *Emulator) Transcript() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.lines...)
}

// Closed reports whether exit was requested.
func (e *Emulator) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Reopen clears the closed flag. The transcript is kept.
func (e *Emulator) Reopen() {
	e.mu.Lock()
	e.closed = false
	e.mu.Unlock()
}

// Execute runs one input line to completion.
func (e *Emulator) Execute(ctx context.Context, line string) Result {
	res, query, ok := e.Prepare(line)
	if !ok {
		return res
	}
	res.Output = append(res.Output, e.Complete(ctx, query)...)
	return res
}

// Prepare handles the local part of a line: the echo and any canned
// command. When the line must be sent to the AI it appends the processing
// line and returns the query with ok set; Complete finishes it.
func (e *Emulator) Prepare(line string) (res Result, query string, ok bool) {
	cmd := strings.TrimSpace(line)
	if cmd == "" {
		return Result{}, "", false
	}

	kind, text := Parse(cmd)
	res.Command = kind
	e.log.Event(logging.EventTerminalCommand, logging.Command(cmd))
	e.log.Metrics().RecordTerminalLine()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = append(e.lines, Prompt+cmd)

	switch kind {
	case CmdClear:
		e.lines = []string{""}
		res.Cleared = true
		return res, "", false
	case CmdExit:
		e.closed = true
		res.Closed = true
		return res, "", false
	case CmdForward, CmdQuery:
		e.lines = append(e.lines, ProcessingLine)
		res.Output = []string{ProcessingLine}
		return res, text, true
	default:
		out := canned[kind]
		e.lines = append(e.lines, out...)
		res.Output = append([]string(nil), out...)
		return res, "", false
	}
}

// Complete sends query and appends the answer, or an error line.
func (e *Emulator) Complete(ctx context.Context, query string) []string {
	var out []string
	reply, err := e.send(ctx, query)
	if err != nil {
		e.log.Warn("query failed", logging.Error(err))
		out = []string{failureLine(err), ""}
	} else {
		out = []string{reply, ""}
	}
	e.log.Event(logging.EventTerminalForward, logging.Prompt(query), logging.Success(err == nil))

	e.mu.Lock()
	e.lines = append(e.lines, out...)
	e.mu.Unlock()
	return out
}

func (e *Emulator) send(ctx context.Context, query string) (string, error) {
	if e.sender == nil {
		return "", nerrors.TerminalForwardFailed(nil)
	}
	return e.sender.Send(ctx, query)
}

func failureLine(err error) string {
	if nerrors.GetCategory(err) == nerrors.CategoryTerminal {
		return BusyLine
	}
	return FailedLine
}

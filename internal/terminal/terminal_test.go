package terminal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
)

type fakeSender struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeSender) Send(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestBanner(t *testing.T) {
	e := New(nil, nil)
	assert.Equal(t, []string{
		"Microsoft Windows [Version 10.0.19045.3803]",
		"(c) NtricAcid Corporation. All rights reserved.",
		"",
	}, e.Transcript())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		cmd  Command
		text string
	}{
		{"cls", CmdClear, ""},
		{"CLEAR", CmdClear, ""},
		{"Exit", CmdExit, ""},
		{"quit", CmdExit, ""},
		{"help", CmdHelp, ""},
		{"VER", CmdVer, ""},
		{"whoami", CmdWhoami, ""},
		{"systeminfo", CmdSysteminfo, ""},
		{"query what is nmap", CmdQuery, "what is nmap"},
		{"QUERY   spaced  ", CmdQuery, "spaced"},
		{"query", CmdForward, "query"},
		{"dir", CmdForward, "dir"},
		{"help me", CmdForward, "help me"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, text := Parse(tt.in)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestExecuteEmptyIsNoop(t *testing.T) {
	s := &fakeSender{}
	e := New(s, nil)
	before := e.Transcript()

	res := e.Execute(context.Background(), "   ")
	assert.Empty(t, res.Output)
	assert.Equal(t, before, e.Transcript())
	assert.Empty(t, s.prompts)
}

func TestExecuteCanned(t *testing.T) {
	tests := []struct {
		in    string
		first string
		n     int
	}{
		{"help", "HELP          Provides help information for NtricAcid commands.", 8},
		{"ver", "NtricAcid OS [Version 5.2.2024]", 2},
		{"whoami", `ntricacid\researcher`, 2},
		{"SystemInfo", "Host Name:                 NTRICACID-V5", 7},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := &fakeSender{}
			e := New(s, nil)
			res := e.Execute(context.Background(), tt.in)

			require.Len(t, res.Output, tt.n)
			assert.Equal(t, tt.first, res.Output[0])
			assert.Equal(t, "", res.Output[tt.n-1])

			lines := e.Transcript()
			assert.Len(t, lines, 3+1+tt.n)
			assert.Equal(t, Prompt+tt.in, lines[3])
			assert.Empty(t, s.prompts, "canned commands never reach the AI")
		})
	}
}

func TestExecuteClear(t *testing.T) {
	e := New(nil, nil)
	e.Execute(context.Background(), "ver")
	res := e.Execute(context.Background(), "cls")
	assert.True(t, res.Cleared)
	assert.Equal(t, []string{""}, e.Transcript())
}

func TestExitAndReopen(t *testing.T) {
	e := New(nil, nil)
	e.Execute(context.Background(), "whoami")
	res := e.Execute(context.Background(), "exit")
	assert.True(t, res.Closed)
	assert.True(t, e.Closed())

	before := e.Transcript()
	e.Reopen()
	assert.False(t, e.Closed())
	assert.Equal(t, before, e.Transcript(), "reopening keeps the transcript")
}

func TestExecuteForward(t *testing.T) {
	s := &fakeSender{reply: "Nmap is a network scanner."}
	e := New(s, nil)

	res := e.Execute(context.Background(), "  what is nmap  ")
	assert.Equal(t, CmdForward, res.Command)
	assert.Equal(t, []string{ProcessingLine, "Nmap is a network scanner.", ""}, res.Output)
	assert.Equal(t, []string{"what is nmap"}, s.prompts)

	lines := e.Transcript()
	assert.Equal(t, []string{Prompt + "what is nmap", ProcessingLine, "Nmap is a network scanner.", ""}, lines[3:])
}

func TestExecuteQueryStripsKeyword(t *testing.T) {
	s := &fakeSender{reply: "ok"}
	e := New(s, nil)
	res := e.Execute(context.Background(), "query explain ARP spoofing")
	assert.Equal(t, CmdQuery, res.Command)
	assert.Equal(t, []string{"explain ARP spoofing"}, s.prompts)
}

func TestExecuteForwardFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"gateway could not answer", nerrors.TerminalForwardFailed(fmt.Errorf("429")), BusyLine},
		{"anything else", fmt.Errorf("boom"), FailedLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeSender{err: tt.err}, nil)
			res := e.Execute(context.Background(), "hello")
			assert.Equal(t, []string{ProcessingLine, tt.want, ""}, res.Output)
		})
	}
}

func TestExecuteWithoutSender(t *testing.T) {
	e := New(nil, nil)
	res := e.Execute(context.Background(), "hello")
	assert.Equal(t, []string{ProcessingLine, BusyLine, ""}, res.Output)
}

func TestPrepareThenComplete(t *testing.T) {
	s := &fakeSender{reply: "later"}
	e := New(s, nil)

	res, query, ok := e.Prepare("ping")
	require.True(t, ok)
	assert.Equal(t, "ping", query)
	assert.Equal(t, ProcessingLine, e.Transcript()[len(e.Transcript())-1])
	assert.Equal(t, []string{ProcessingLine}, res.Output)

	out := e.Complete(context.Background(), query)
	assert.Equal(t, []string{"later", ""}, out)
}

type scriptedReader struct {
	inputs  []string
	history []string
}

func (s *scriptedReader) Prompt(string) (string, error) {
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	if in == "^C" {
		return "", liner.ErrPromptAborted
	}
	return in, nil
}

func (s *scriptedReader) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func TestREPLRun(t *testing.T) {
	color.NoColor = true

	s := &fakeSender{reply: "answer"}
	e := New(s, nil)
	reader := &scriptedReader{inputs: []string{"ver", "", "ask something", "exit", "never read"}}
	var out bytes.Buffer

	r := newREPL(e, reader, &out)
	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Microsoft Windows [Version 10.0.19045.3803]")
	assert.Contains(t, text, "NtricAcid OS [Version 5.2.2024]")
	assert.Contains(t, text, ProcessingLine)
	assert.Contains(t, text, "answer")
	assert.Equal(t, []string{"ver", "ask something", "exit"}, reader.history)
	assert.Equal(t, []string{"never read"}, reader.inputs)
	assert.True(t, e.Closed())
}

func TestREPLStopsOnAbortAndEOF(t *testing.T) {
	color.NoColor = true
	for _, inputs := range [][]string{{"^C"}, {}} {
		e := New(nil, nil)
		r := newREPL(e, &scriptedReader{inputs: inputs}, io.Discard)
		assert.NoError(t, r.Run(context.Background()))
	}
}

func TestREPLStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &scriptedReader{inputs: []string{"ver"}}
	r := newREPL(New(nil, nil), reader, io.Discard)
	assert.NoError(t, r.Run(ctx))
	assert.Equal(t, []string{"ver"}, reader.inputs)
}

package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

// LineReader reads one edited line of input.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// REPL runs an Emulator on a real terminal.
type REPL struct {
	emu         *Emulator
	reader      LineReader
	out         io.Writer
	historyFile string
	closeFn     func()

	dim   *color.Color
	red   *color.Color
	green *color.Color
}

// NewREPL creates a REPL reading through liner. Input history is loaded
// from and saved to historyFile when it is not empty.
func NewREPL(emu *Emulator, historyFile string) *REPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	r := newREPL(emu, line, os.Stdout)
	r.historyFile = historyFile
	r.closeFn = func() {
		r.saveHistory(line)
		line.Close()
	}
	return r
}

func newREPL(emu *Emulator, reader LineReader, out io.Writer) *REPL {
	return &REPL{
		emu:    emu,
		reader: reader,
		out:    out,
		dim:    color.New(color.FgHiBlack),
		red:    color.New(color.FgRed, color.Bold),
		green:  color.New(color.FgGreen),
	}
}

func (r *REPL) saveHistory(line *liner.State) {
	if r.historyFile == "" {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// Close restores the terminal and saves input history.
func (r *REPL) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// Run reads commands until exit, EOF, Ctrl+C or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	for _, l := range r.emu.Transcript() {
		r.print(l)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := r.reader.Prompt(Prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		r.reader.AppendHistory(input)

		res, query, ok := r.emu.Prepare(input)
		if res.Cleared {
			fmt.Fprint(r.out, "\033[H\033[2J")
		}
		for _, l := range res.Output {
			r.print(l)
		}
		if ok {
			for _, l := range r.emu.Complete(ctx, query) {
				r.print(l)
			}
		}
		if res.Closed {
			return nil
		}
	}
}

func (r *REPL) print(line string) {
	switch {
	case strings.HasPrefix(line, "ERROR:"):
		r.red.Fprintln(r.out, line)
	case line == ProcessingLine:
		r.dim.Fprintln(r.out, line)
	default:
		r.green.Fprintln(r.out, line)
	}
}

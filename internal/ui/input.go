package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// InputHandler reads answers and piped prompts
type InputHandler struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewInputHandler creates a handler on stdin, prompting on stderr so
// stdout stays clean for piping.
func NewInputHandler() *InputHandler {
	return NewInputHandlerFrom(os.Stdin, os.Stderr)
}

// NewInputHandlerFrom creates a handler reading in and prompting on out
func NewInputHandlerFrom(in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// ReadLine reads a single line of input
func (h *InputHandler) ReadLine(prompt string) (string, error) {
	fmt.Fprint(h.out, prompt)
	line, err := h.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadAll reads everything until EOF, e.g. a prompt piped into `ask`
func (h *InputHandler) ReadAll() (string, error) {
	data, err := io.ReadAll(h.reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Confirm asks for a yes/no confirmation
func (h *InputHandler) Confirm(prompt string, defaultYes bool) (bool, error) {
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}

	response, err := h.ReadLine(prompt + suffix)
	if err != nil {
		if err == io.EOF {
			return defaultYes, nil
		}
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return defaultYes, nil
	}

	return response == "y" || response == "yes", nil
}

// StdinIsPiped reports whether stdin is a pipe or file rather than a terminal
func StdinIsPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

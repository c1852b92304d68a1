// Package ui renders conversation output for the line-mode commands
// (ask, settings, tracks, history) when the full-screen TUI is not used.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
	"github.com/abdul-hamid-achik/ntricacid/internal/tracks"
	"github.com/abdul-hamid-achik/ntricacid/internal/ui/highlight"
)

// ANSI color codes
const (
	Reset     = "\033[0m"
	Bold      = "\033[1m"
	Dim       = "\033[2m"
	Italic    = "\033[3m"
	Underline = "\033[4m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
)

// ANSI cursor control codes
const (
	CursorStart = "\r"      // Move cursor to start of line
	ClearLine   = "\033[2K" // Clear entire line
)

// OutputHandler writes replies and notices to a pair of writers
type OutputHandler struct {
	out         io.Writer
	errOut      io.Writer
	useColors   bool
	highlighter *highlight.Highlighter
}

// NewOutputHandler creates a handler on stdout/stderr, colored when
// stdout is a terminal and NO_COLOR is unset.
func NewOutputHandler() *OutputHandler {
	useColors := true
	if fileInfo, err := os.Stdout.Stat(); err != nil || (fileInfo.Mode()&os.ModeCharDevice) == 0 {
		useColors = false
	}
	if os.Getenv("NO_COLOR") != "" {
		useColors = false
	}
	return NewOutputHandlerTo(os.Stdout, os.Stderr, useColors)
}

// NewOutputHandlerTo creates a handler on the given writers
func NewOutputHandlerTo(out, errOut io.Writer, useColors bool) *OutputHandler {
	return &OutputHandler{
		out:         out,
		errOut:      errOut,
		useColors:   useColors,
		highlighter: highlight.New(useColors),
	}
}

// SetTheme picks the code highlighting style for a dark or light terminal
func (o *OutputHandler) SetTheme(theme string) {
	style := highlight.DarkStyle
	if theme == "light" {
		style = highlight.LightStyle
	}
	o.highlighter = highlight.NewWithStyle(o.useColors, style)
}

// color applies color if colors are enabled
func (o *OutputHandler) color(color, text string) string {
	if !o.useColors {
		return text
	}
	return color + text + Reset
}

// IsTTY returns true if the output is a terminal (not piped/redirected)
func (o *OutputHandler) IsTTY() bool {
	return o.useColors
}

// TextLn outputs regular text with newline
func (o *OutputHandler) TextLn(text string) {
	fmt.Fprintln(o.out, text)
}

// Reply prints one message the way the chat view shows it. name is the
// speaker label; root switches the assistant accent to red.
func (o *OutputHandler) Reply(m chat.Message, name string, root bool) {
	if m.IsError() {
		o.Failure(m)
		return
	}

	accent := Magenta
	if root {
		accent = Red
	}
	icon := "◆ "
	if m.Role == chat.RoleUser {
		icon = "> "
		accent = Cyan
	}
	fmt.Fprintln(o.out, o.color(accent+Bold, icon+name)+o.color(Dim, " · "+m.Timestamp.Format("15:04")))

	if m.Content != "" {
		fmt.Fprintln(o.out, o.highlighter.HighlightMarkdownCodeBlocks(m.Content))
	}

	if m.ImageURL != "" {
		fmt.Fprintln(o.out, o.color(Blue, "▨ ")+DescribeImage(m.ImageURL)+o.color(Dim, " (history export --format html to view)"))
	}

	if len(m.GroundingLinks) > 0 {
		fmt.Fprintln(o.out, o.color(Dim, "Sources:"))
		for _, link := range m.GroundingLinks {
			fmt.Fprintln(o.out, "  "+o.color(Blue, "↳ ")+link.Title+" "+o.color(Dim+Underline, link.URI))
		}
	}
}

// Failure prints an error message from the history on stderr
func (o *OutputHandler) Failure(m chat.Message) {
	prefix := o.color(Red+Bold, "✗ ")
	fmt.Fprintln(o.errOut, prefix+o.color(Red, m.Content))
	if m.ErrorType != "" {
		fmt.Fprintln(o.errOut, o.color(Dim, "  kind: "+string(m.ErrorType)+" · run `ntricacid ask --retry` to try again"))
	}
}

// Error outputs an error message
func (o *OutputHandler) Error(err error) {
	prefix := o.color(Red+Bold, "Error: ")
	fmt.Fprintln(o.errOut, prefix+err.Error())
}

// Warning outputs a warning message
func (o *OutputHandler) Warning(msg string) {
	prefix := o.color(Yellow+Bold, "Warning: ")
	fmt.Fprintln(o.errOut, prefix+msg)
}

// Success outputs a success message
func (o *OutputHandler) Success(msg string) {
	prefix := o.color(Green+Bold, "✓ ")
	fmt.Fprintln(o.out, prefix+msg)
}

// Info outputs an info message
func (o *OutputHandler) Info(msg string) {
	prefix := o.color(Blue, "ℹ ")
	fmt.Fprintln(o.out, prefix+msg)
}

// Header outputs a header
func (o *OutputHandler) Header(text string) {
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, o.color(Bold+Underline, text))
	fmt.Fprintln(o.out)
}

// Separator outputs a horizontal line
func (o *OutputHandler) Separator() {
	fmt.Fprintln(o.out, o.color(Dim, strings.Repeat("─", 40)))
}

// ModelInfo outputs the current provider and model
func (o *OutputHandler) ModelInfo(provider, model string) {
	fmt.Fprintln(o.out, o.color(Dim, "Using ")+o.color(Cyan, provider)+o.color(Dim, " model ")+o.color(Cyan, model))
}

// Settings prints every preference as an aligned name/value list
func (o *OutputHandler) Settings(s settings.UserSettings) {
	pairs := s.Fields()
	width := 0
	for _, p := range pairs {
		width = max(width, len(p.Name))
	}
	for _, p := range pairs {
		name := p.Name + strings.Repeat(" ", width-len(p.Name))
		fmt.Fprintln(o.out, "  "+o.color(Cyan, name)+"  "+p.Value)
	}
}

// Tracks prints the learning-track catalog, numbered from 1
func (o *OutputHandler) Tracks(all []tracks.Track) {
	for i, t := range all {
		fmt.Fprintf(o.out, "  %s %s %s %s\n",
			o.color(Dim, fmt.Sprintf("%d.", i+1)),
			t.Icon,
			o.color(Bold, t.Title),
			o.color(Dim, "("+t.ID+")"))
		fmt.Fprintln(o.out, "     "+t.Description)
	}
}

// DescribeImage summarizes an image reference without dumping its data
func DescribeImage(url string) string {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return "image " + url
	}
	header, data, ok := strings.Cut(url[len(prefix):], ",")
	if !ok {
		return "generated image"
	}
	mime, _, _ := strings.Cut(header, ";")
	return fmt.Sprintf("generated image %s, %s", mime, formatBytes(len(data)*3/4))
}

// formatBytes formats a size with a KB suffix for thousands
func formatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

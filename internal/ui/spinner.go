package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/ntricacid/internal/llm"
)

// Braille spinner animation frames
var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// SpinnerConfig holds configuration for a countdown display
type SpinnerConfig struct {
	Message  string        // Main message (e.g., "Pacing chat request")
	Reason   string        // Reason for waiting
	Duration time.Duration // Total wait duration
}

// Spinner provides animated terminal feedback on the handler's error stream
type Spinner struct {
	output *OutputHandler
}

// NewSpinner creates a new spinner attached to an output handler
func NewSpinner(output *OutputHandler) *Spinner {
	return &Spinner{
		output: output,
	}
}

// Start displays a spinner with countdown until duration elapses or context is cancelled.
// It blocks until complete.
func (s *Spinner) Start(ctx context.Context, cfg SpinnerConfig) error {
	// Skip spinner for very short waits to avoid flicker
	if cfg.Duration < 500*time.Millisecond {
		select {
		case <-time.After(cfg.Duration):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !s.output.IsTTY() {
		return s.staticWait(ctx, cfg)
	}
	return s.animatedWait(ctx, cfg)
}

// PacingWait renders a gateway pacing delay. It matches llm.WaitCallback.
func (s *Spinner) PacingWait(ctx context.Context, info llm.WaitInfo) error {
	return s.Start(ctx, SpinnerConfig{
		Message:  "Pacing " + info.Op + " request",
		Reason:   "local rate limit",
		Duration: info.Duration,
	})
}

// staticWait displays a single line and waits (for non-TTY/piped output)
func (s *Spinner) staticWait(ctx context.Context, cfg SpinnerConfig) error {
	// Format: ℹ Pacing chat request: waiting 4s (local rate limit)
	msg := fmt.Sprintf("ℹ %s: waiting %s", cfg.Message, formatDuration(cfg.Duration))
	if cfg.Reason != "" {
		msg += fmt.Sprintf(" (%s)", cfg.Reason)
	}
	fmt.Fprintln(s.output.errOut, msg)

	select {
	case <-time.After(cfg.Duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// animatedWait displays an animated spinner with countdown (for TTY mode)
func (s *Spinner) animatedWait(ctx context.Context, cfg SpinnerConfig) error {
	startTime := time.Now()
	frameIndex := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	defer s.cleanup()

	for {
		remaining := max(cfg.Duration-time.Since(startTime), 0)

		frame := string(spinnerFrames[frameIndex])
		line := s.buildStatusLine(frame, cfg.Message, cfg.Reason) + s.remainingSuffix(remaining)
		fmt.Fprint(s.output.errOut, ClearLine+CursorStart+line)

		if remaining == 0 {
			return nil
		}

		select {
		case <-ticker.C:
			frameIndex = (frameIndex + 1) % len(spinnerFrames)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Busy animates message until the returned stop func is called. On a
// non-TTY it prints nothing. stop is idempotent and waits for the line to clear.
func (s *Spinner) Busy(ctx context.Context, message string) (stop func()) {
	if !s.output.IsTTY() {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer s.cleanup()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for frameIndex := 0; ; frameIndex = (frameIndex + 1) % len(spinnerFrames) {
			fmt.Fprint(s.output.errOut, ClearLine+CursorStart+s.buildStatusLine(string(spinnerFrames[frameIndex]), message, ""))
			select {
			case <-ticker.C:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}

// buildStatusLine constructs the animated status line
func (s *Spinner) buildStatusLine(frame, message, reason string) string {
	// Format: ⠹ Pacing chat request | local rate limit | 4s remaining
	var line string
	if s.output.useColors {
		line = fmt.Sprintf("%s%s%s %s%s%s", Cyan, frame, Reset, Yellow, message, Reset)
	} else {
		line = fmt.Sprintf("%s %s", frame, message)
	}

	if reason != "" {
		if s.output.useColors {
			line += fmt.Sprintf(" %s|%s %s", Dim, Reset, reason)
		} else {
			line += fmt.Sprintf(" | %s", reason)
		}
	}
	return line
}

func (s *Spinner) remainingSuffix(remaining time.Duration) string {
	remainingStr := formatDuration(remaining)
	if s.output.useColors {
		return fmt.Sprintf(" %s|%s %s%s remaining%s", Dim, Reset, Bold, remainingStr, Reset)
	}
	return fmt.Sprintf(" | %s remaining", remainingStr)
}

// cleanup clears the spinner line completely
func (s *Spinner) cleanup() {
	if s.output.IsTTY() {
		fmt.Fprint(s.output.errOut, ClearLine+CursorStart)
	}
}

// formatDuration formats a duration for display (45s, 1m30s, 5m00s)
func formatDuration(d time.Duration) string {
	d = max(d.Round(time.Second), 0)

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}

package tui

import (
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdul-hamid-achik/ntricacid/internal/conversation"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

// Reloader re-reads persisted state after another process changed it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// RunConfig contains configuration for running the TUI
type RunConfig struct {
	Options
	// Watcher, when set, reports store keys changed by other processes.
	Watcher storage.Watcher
	// Reloader is called for each external change. Usually the session itself.
	Reloader Reloader
}

// Runner owns the tea.Program so state changes can be pushed into it from
// the controller's OnChange callback. The controller needs OnChange at
// construction time, so the runner is created first and the session is
// attached afterwards with SetSession.
type Runner struct {
	mu      sync.Mutex
	program *tea.Program
	cfg     RunConfig
	log     *logging.Logger
}

// NewRunner creates a Runner. Call SetSession and then Run.
func NewRunner(cfg RunConfig) *Runner {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{cfg: cfg, log: log.WithPrefix("tui-run")}
}

// SetSession attaches the session the TUI drives. A session that can
// reload itself becomes the Reloader unless one was configured.
func (r *Runner) SetSession(s Session) {
	r.cfg.Session = s
	if rl, ok := s.(Reloader); ok && r.cfg.Reloader == nil {
		r.cfg.Reloader = rl
	}
}

func (r *Runner) current() *tea.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.program
}

// send delivers msg if the program is running
func (r *Runner) send(msg tea.Msg) {
	if p := r.current(); p != nil {
		p.Send(msg)
	}
}

// OnChange forwards a state change into the running program. It is safe to
// call from any goroutine; changes before Run are dropped because the model
// starts from a fresh snapshot.
func (r *Runner) OnChange(s conversation.State) {
	r.send(StateMsg{State: s})
}

// Quit signals the TUI to quit
func (r *Runner) Quit() {
	r.send(QuitMsg{})
}

// Run starts the TUI and blocks until it exits
func (r *Runner) Run(ctx context.Context) error {
	if !IsTTYAvailable() {
		return fmt.Errorf("TUI mode requires a terminal")
	}
	if r.cfg.Session == nil {
		return fmt.Errorf("TUI needs a session")
	}

	// No mouse capture to allow native text selection
	program := tea.NewProgram(NewModel(ctx, r.cfg.Options), tea.WithAltScreen(), tea.WithContext(ctx))
	r.mu.Lock()
	r.program = program
	r.mu.Unlock()

	if r.cfg.Watcher != nil && r.cfg.Reloader != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := r.cfg.Watcher.Watch(watchCtx, func(key string) {
			r.log.Debug("external change", logging.Key(key))
			if err := r.cfg.Reloader.Reload(watchCtx); err != nil {
				r.log.Warn("reload failed", logging.Error(err))
				r.send(statusErr(err))
			}
		})
		if err != nil {
			r.log.Warn("store watch unavailable", logging.Error(err))
		}
	}

	r.log.Debug("starting TUI program")
	_, err := program.Run()
	r.mu.Lock()
	r.program = nil
	r.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	r.log.Debug("TUI exited normally")
	return nil
}

// IsTTYAvailable checks if the terminal supports TUI mode.
func IsTTYAvailable() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}

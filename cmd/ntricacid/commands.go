package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/conversation"
	"github.com/abdul-hamid-achik/ntricacid/internal/llm"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/offline"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
	"github.com/abdul-hamid-achik/ntricacid/internal/terminal"
	"github.com/abdul-hamid-achik/ntricacid/internal/tracks"
	"github.com/abdul-hamid-achik/ntricacid/internal/tui"
	"github.com/abdul-hamid-achik/ntricacid/internal/ui"
)

// runTUI starts the interactive chat
func runTUI(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	if !tui.IsTTYAvailable() {
		return fmt.Errorf("interactive mode needs a terminal; use 'ntricacid ask <prompt>' instead")
	}

	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	runCfg := tui.RunConfig{
		Options: tui.Options{
			Logger:    log,
			ModelName: chatModel(cfg),
			Theme:     cfg.Theme,
		},
	}
	if w, ok := a.store.(storage.Watcher); ok {
		runCfg.Watcher = w
	}

	runner := tui.NewRunner(runCfg)
	ctrl, err := a.controller(ctx, runner.OnChange)
	if err != nil {
		return err
	}
	runner.SetSession(ctrl)

	log.Debug("entering interactive mode", logging.Model(chatModel(cfg)))
	return runner.Run(ctx)
}

// runAsk submits one prompt and prints the reply
func runAsk(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	var (
		retry bool
		speak bool
		words []string
	)
	for _, arg := range args {
		switch arg {
		case "--retry":
			retry = true
		case "--speak":
			speak = true
		default:
			words = append(words, arg)
		}
	}

	prompt := strings.Join(words, " ")
	if prompt == "" && !retry && ui.StdinIsPiped() {
		piped, err := ui.NewInputHandler().ReadAll()
		if err != nil {
			return fmt.Errorf("read prompt from stdin: %w", err)
		}
		prompt = piped
	}
	if strings.TrimSpace(prompt) == "" && !retry {
		return fmt.Errorf("ask needs a prompt. Use 'ntricacid ask <prompt>' or pipe one on stdin")
	}

	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller(ctx, nil)
	if err != nil {
		return err
	}

	output := ui.NewOutputHandler()
	output.SetTheme(cfg.Theme)
	spinner := ui.NewSpinner(output)

	stopBusy := spinner.Busy(ctx, "Processing neural request...")
	defer stopBusy()
	a.setWaitCallback(func(ctx context.Context, info llm.WaitInfo) error {
		stopBusy()
		return spinner.PacingWait(ctx, info)
	})

	var outcome conversation.Outcome
	if retry {
		log.Debug("retrying last failed request")
		outcome = ctrl.RetryLast(ctx)
	} else {
		log.Debug("one-shot ask", logging.Prompt(prompt))
		outcome = ctrl.Submit(ctx, prompt)
	}
	stopBusy()

	if outcome == conversation.OutcomeRejected {
		if retry {
			return fmt.Errorf("nothing to retry: the last message is not a failed request")
		}
		return fmt.Errorf("prompt rejected")
	}

	st := ctrl.Snapshot()
	last := st.Messages[len(st.Messages)-1]
	name := st.Settings.AIName
	if st.Root {
		name = "ROOT_CMD"
	}
	output.Reply(last, name, st.Root)

	if outcome == conversation.OutcomeFailed {
		return exitError{code: 2}
	}

	// Auto-play already spoke the reply inside Submit.
	asked := st.Messages[len(st.Messages)-2].Content
	if speak && st.Settings.VoiceEnabled && !conversation.AutoPlays(st.Settings, asked) {
		if err := ctrl.SpeakLast(ctx); err != nil {
			output.Warning("playback failed: " + err.Error())
		}
	}
	return nil
}

// runTerm opens the research terminal in line mode
func runTerm(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller(ctx, nil)
	if err != nil {
		return err
	}

	repl := terminal.NewREPL(terminal.New(ctrl, log), termHistoryFile(cfg))
	defer repl.Close()
	return repl.Run(ctx)
}

// runServe runs the offline cache server until interrupted
func runServe(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	offCfg := cfg.Offline
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		if name != "--addr" && name != "--upstream" {
			return fmt.Errorf("unknown serve flag %q", args[i])
		}
		if !hasValue {
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", name)
			}
			i++
			value = args[i]
		}
		if name == "--addr" {
			offCfg.Addr = value
		} else {
			offCfg.Upstream = value
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := offline.NewServer(offCfg, store, log)
	if err != nil {
		return err
	}

	bold := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.FgHiBlack)
	bold.Printf("ntricacid offline cache %s\n", offCfg.CacheName)
	dim.Printf("  listening  http://%s\n", offCfg.Addr)
	dim.Printf("  upstream   %s\n", offCfg.Upstream)
	dim.Println("  ctrl+c to stop")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runTracks lists the learning tracks, or submits one given by id or number
func runTracks(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	if len(args) > 0 {
		t, err := tracks.Lookup(strings.Join(args, " "))
		if err != nil {
			return err
		}
		log.Debug("starting track", logging.F("track", t.ID))
		return runAsk(ctx, cfg, log, []string{t.Prompt})
	}

	output := ui.NewOutputHandler()
	output.Header("Learning Tracks")
	output.Tracks(tracks.All())
	output.TextLn("")
	output.Info("Start one with 'ntricacid tracks <n>', or from the TUI sidebar (ctrl+b).")
	return nil
}

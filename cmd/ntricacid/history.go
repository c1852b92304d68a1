package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/export"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
	"github.com/abdul-hamid-achik/ntricacid/internal/ui"
)

// stored is the persisted session as the offline commands see it. These
// commands never need the gateway, so they work without an API key.
type stored struct {
	store   storage.Store
	prefs   *settings.Repository
	history *chat.Repository
	log     *logging.Logger
}

func openStored(cfg *config.Config, log *logging.Logger) (*stored, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return &stored{
		store:   store,
		prefs:   settings.NewRepository(store, log),
		history: chat.NewRepository(store, log),
		log:     log,
	}, nil
}

func (s *stored) load(ctx context.Context) (settings.UserSettings, chat.History, error) {
	prefs, err := s.prefs.Load(ctx)
	if err != nil {
		return prefs, nil, err
	}
	h, err := s.history.Load(ctx, prefs.AIName, prefs.PersistenceEnabled)
	return prefs, h, err
}

func (s *stored) Close() {
	_ = s.store.Close()
}

// handleSettingsCommand handles the "settings" subcommand
func handleSettingsCommand(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	if len(args) > 0 && (args[0] == "help" || args[0] == "--help" || args[0] == "-h") {
		return settingsHelp()
	}

	st, err := openStored(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	prefs, err := st.prefs.Load(ctx)
	if err != nil {
		return err
	}
	output := ui.NewOutputHandler()

	if len(args) == 0 || args[0] == "show" {
		output.Header("Settings")
		output.Settings(prefs)
		output.TextLn("")
		output.ModelInfo(string(cfg.Provider), chatModel(cfg))
		return nil
	}

	if args[0] != "set" {
		return fmt.Errorf("unknown settings subcommand: %s. Use 'ntricacid settings help' for usage", args[0])
	}
	if len(args) < 3 {
		return fmt.Errorf("settings set needs a name and a value")
	}

	name, value := args[1], strings.Join(args[2:], " ")
	if err := prefs.Set(name, value); err != nil {
		return err
	}
	if err := st.prefs.Save(ctx, prefs); err != nil {
		return err
	}

	// Persistence changes apply to the stored history right away
	if strings.EqualFold(name, "persistenceEnabled") {
		h, err := st.history.Load(ctx, prefs.AIName, true)
		if err != nil {
			return err
		}
		if err := st.history.Save(ctx, h, prefs.PersistenceEnabled); err != nil {
			return err
		}
	}

	log.Info("setting changed", logging.F("name", name))
	output.Success(fmt.Sprintf("%s = %s", name, value))
	return nil
}

func settingsHelp() error {
	fmt.Print(`ntricacid settings - Show or change preferences

Usage:
  ntricacid settings                      Show all preferences
  ntricacid settings set <name> <value>   Change one preference

Names:
  aiName, userName                        Text
  voiceEnabled, autoPlayVoice,
  persistenceEnabled, cloudSyncEnabled    true or false

Examples:
  ntricacid settings set aiName Cipher
  ntricacid settings set autoPlayVoice true
`)
	return nil
}

// handleHistoryCommand handles the "history" subcommand
func handleHistoryCommand(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	if len(args) == 0 {
		return historyHelp()
	}

	switch args[0] {
	case "show":
		return historyShow(ctx, cfg, log)
	case "export":
		return historyExport(ctx, cfg, log, args[1:])
	case "clear":
		return historyClear(ctx, cfg, log, args[1:])
	case "help", "--help", "-h":
		return historyHelp()
	default:
		return fmt.Errorf("unknown history subcommand: %s. Use 'ntricacid history help' for usage", args[0])
	}
}

func historyHelp() error {
	fmt.Print(`ntricacid history - Work with the stored conversation

Usage:
  ntricacid history show                  Print every message
  ntricacid history export [flags]        Write the conversation to a file
  ntricacid history clear [--yes]         Delete all but the welcome message

Export Flags:
  --format md|html|json                   Output format (default md)
  --out <file>                            Destination, "-" for stdout
                                          (default ntricacid-history-<time>.<ext>)
`)
	return nil
}

func historyShow(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	st, err := openStored(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	prefs, h, err := st.load(ctx)
	if err != nil {
		return err
	}

	output := ui.NewOutputHandler()
	output.SetTheme(cfg.Theme)
	for i, m := range h {
		if i > 0 {
			output.Separator()
		}
		name := prefs.AIName
		if m.Role == chat.RoleUser {
			name = prefs.UserName
		}
		output.Reply(m, name, false)
	}
	return nil
}

func historyExport(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	format, out := "md", ""
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		if name != "--format" && name != "--out" {
			return fmt.Errorf("unknown export flag %q", args[i])
		}
		if !hasValue {
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", name)
			}
			i++
			value = args[i]
		}
		if name == "--format" {
			format = value
		} else {
			out = value
		}
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	st, err := openStored(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	prefs, h, err := st.load(ctx)
	if err != nil {
		return err
	}

	if out == "-" {
		return export.Write(os.Stdout, f, h, prefs)
	}
	if out == "" {
		out = export.FileName(f, time.Now())
	}
	if err := writeExport(out, f, h, prefs); err != nil {
		return err
	}

	log.Info("history exported", logging.Path(out), logging.Count(len(h)))
	ui.NewOutputHandler().Success(fmt.Sprintf("Exported %d messages to %s", len(h), out))
	return nil
}

func writeExport(path string, f export.Format, h chat.History, prefs settings.UserSettings) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return export.Write(file, f, h, prefs)
}

func historyClear(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	yes := len(args) > 0 && (args[0] == "--yes" || args[0] == "-y")

	output := ui.NewOutputHandler()
	if !yes {
		ok, err := ui.NewInputHandler().Confirm("Purge memory? Permanently delete current session logs?", false)
		if err != nil {
			return err
		}
		if !ok {
			output.Info("Cancelled.")
			return nil
		}
	}

	st, err := openStored(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	prefs, h, err := st.load(ctx)
	if err != nil {
		return err
	}

	// Same sequence as the controller: drop the key, then store the welcome
	// message again when persistence is on.
	if err := st.history.Save(ctx, nil, false); err != nil {
		return err
	}
	if err := st.history.Save(ctx, h.KeepFirst(), prefs.PersistenceEnabled); err != nil {
		return err
	}

	log.Info("history cleared", logging.Count(len(h)-1))
	log.Metrics().RecordClear()
	output.Success("Memory purged.")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
)

var Version = "dev"

// exitError ends the process with code after its output was already shown
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	_ = logging.Close()

	if err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted before or after the command name
type globalFlags struct {
	token    string
	provider string
	debug    bool
}

func run(ctx context.Context, args []string) error {
	// Version and help before config so they never create files
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("ntricacid version %s\n", Version)
			return nil
		case "--help", "-h", "help":
			printHelp()
			return nil
		}
	}

	flags, args, err := parseGlobalFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.provider != "" {
		if err := cfg.SetProvider(config.Provider(flags.provider)); err != nil {
			return err
		}
	}
	cfg.SetToken(flags.token)

	command := ""
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	// The TUI owns the screen; console logging would corrupt it
	log, err := initLogging(cfg, command == "", flags.debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log.Debug("ntricacid session started", logging.Command(command), logging.Provider(string(cfg.Provider)), logging.Path(cfg.ConfigPath()))

	switch command {
	case "":
		return runTUI(ctx, cfg, log)
	case "ask":
		return runAsk(ctx, cfg, log, args)
	case "term", "terminal":
		return runTerm(ctx, cfg, log)
	case "serve":
		return runServe(ctx, cfg, log, args)
	case "settings":
		return handleSettingsCommand(ctx, cfg, log, args)
	case "history":
		return handleHistoryCommand(ctx, cfg, log, args)
	case "tracks":
		return runTracks(ctx, cfg, log, args)
	default:
		return fmt.Errorf("unknown command %q. Use 'ntricacid help' for usage", command)
	}
}

// parseGlobalFlags removes --token, --provider and --debug from args
func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	rest := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--token", "--provider":
			if !hasValue {
				if i+1 >= len(args) {
					return flags, nil, fmt.Errorf("%s requires a value", name)
				}
				i++
				value = args[i]
			}
			if name == "--token" {
				flags.token = value
			} else {
				flags.provider = value
			}
		case "--debug":
			flags.debug = true
		default:
			rest = append(rest, arg)
		}
	}
	return flags, rest, nil
}

// initLogging installs the global logger. Session logs go under the data
// directory unless NTRICACID_LOG_DIR says otherwise.
func initLogging(cfg *config.Config, quiet, debug bool) (*logging.Logger, error) {
	logCfg := logging.ConfigFromEnv().WithQuiet(quiet)
	if os.Getenv("NTRICACID_LOG_DIR") == "" {
		logCfg = logCfg.WithLogDir(cfg.LogDir())
	}
	if debug {
		logCfg = logCfg.WithDebugMode(true)
	}
	return logging.Init(logCfg)
}

func printHelp() {
	fmt.Print(`ntricacid - security research chat client

Usage:
  ntricacid                          Start the interactive TUI
  ntricacid ask [prompt...]          Send one prompt and print the reply
  ntricacid ask --retry              Resend the prompt of the last failed request
  ntricacid term                     Open the research terminal
  ntricacid serve [--addr host:port] Run the offline cache server
  ntricacid settings                 Show preferences
  ntricacid settings set <name> <value>
  ntricacid history show             Print the conversation
  ntricacid history export [--format md|html|json] [--out file|-]
  ntricacid history clear [--yes]    Delete the conversation
  ntricacid tracks                   List learning tracks
  ntricacid tracks <id|n>            Ask a learning track's prompt
  ntricacid version                  Show version
  ntricacid help                     Show this help

Flags:
  --token <key>           API key (overrides the environment)
  --provider <name>       gemini or anthropic
  --debug                 Debug logging and traces
  -v, --version           Show version
  -h, --help              Show help

Ask Flags:
  --speak                 Play the reply after printing it
  A prompt may also be piped on stdin: echo "explain ASLR" | ntricacid ask

TUI Keys:
  enter submit · ctrl+r retry · ctrl+l clear · ctrl+t terminal · ctrl+b tracks
  ctrl+s settings · ctrl+d theme · ctrl+p speak · F1 help · ctrl+c quit

Environment:
  GEMINI_API_KEY, API_KEY API key for the gemini provider
  ANTHROPIC_API_KEY       API key for the anthropic provider
  NTRICACID_LOG_LEVEL     Console log level (debug, info, warn, error)
  NTRICACID_LOG_DIR       Session log directory
  NTRICACID_DEBUG         1 enables debug tracing

Config Files (in priority order):
  ./ntricacid.yaml
  ./.ntricacid/config.yaml
  ~/.config/ntricacid/config.yaml
`)
}

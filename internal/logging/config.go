package logging

import (
	"os"
	"strings"
)

// Level represents log severity levels.
type Level int

const (
	// LevelDebug logs everything, including verbose debugging information.
	LevelDebug Level = iota
	// LevelInfo logs informational messages and above.
	LevelInfo
	// LevelWarn logs warnings and errors only.
	LevelWarn
	// LevelError logs only error messages.
	LevelError
)

// String returns the string representation of a log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level for console output.
	Level Level

	// DebugMode enables full debug tracing to JSONL files.
	DebugMode bool

	// DebugGateway enables logging of full gateway request/response payloads.
	DebugGateway bool

	// DebugDir is the directory for debug trace files.
	DebugDir string

	// LogDir is the directory for session log files.
	LogDir string

	// Quiet discards console output. The file log still receives everything.
	Quiet bool
}

// DefaultDebugDir is the default directory for debug traces.
const DefaultDebugDir = "/tmp/ntricacid-debug"

// DefaultLogDir is the default directory for session logs (relative to cwd).
const DefaultLogDir = ".ntricacid/logs"

// ConfigFromEnv creates a Config from environment variables.
//
// Environment variables:
//   - NTRICACID_DEBUG: "1" enables debug tracing
//   - NTRICACID_DEBUG_GATEWAY: "1" logs full gateway payloads
//   - NTRICACID_DEBUG_DIR: debug trace directory
//   - NTRICACID_LOG_DIR: session log directory
//   - NTRICACID_LOG_LEVEL: console log level (debug, info, warn, error)
func ConfigFromEnv() Config {
	cfg := Config{
		Level:    LevelInfo,
		DebugDir: DefaultDebugDir,
		LogDir:   DefaultLogDir,
	}

	if os.Getenv("NTRICACID_DEBUG") == "1" {
		cfg.DebugMode = true
		cfg.Level = LevelDebug
	}

	if os.Getenv("NTRICACID_DEBUG_GATEWAY") == "1" {
		cfg.DebugGateway = true
	}

	if dir := os.Getenv("NTRICACID_DEBUG_DIR"); dir != "" {
		cfg.DebugDir = dir
	}

	if dir := os.Getenv("NTRICACID_LOG_DIR"); dir != "" {
		cfg.LogDir = dir
	}

	if level := os.Getenv("NTRICACID_LOG_LEVEL"); level != "" {
		cfg.Level = ParseLevel(level)
	}

	return cfg
}

// WithDebugMode returns a copy of the config with debug mode enabled.
func (c Config) WithDebugMode(enabled bool) Config {
	c.DebugMode = enabled
	if enabled {
		c.Level = LevelDebug
	}
	return c
}

// WithQuiet returns a copy of the config with console output discarded.
func (c Config) WithQuiet(quiet bool) Config {
	c.Quiet = quiet
	return c
}

// WithLogDir returns a copy of the config writing session logs under dir.
func (c Config) WithLogDir(dir string) Config {
	c.LogDir = dir
	return c
}

// WithLevel returns a copy of the config with the specified level.
func (c Config) WithLevel(level Level) Config {
	c.Level = level
	return c
}

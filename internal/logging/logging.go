// Package logging is the ntricacid logging system.
//
// Output goes to three places:
//   - Console (stderr): human-readable, filtered by level, silenced while the TUI runs
//   - File (<data dir>/logs/): one log per process, every level
//   - Tracer (JSONL): structured events, only in debug mode
//
// Usage:
//
//	log, err := logging.Init(logging.ConfigFromEnv())
//	if err != nil {
//	    // handle error
//	}
//	defer log.Close()
//
//	log.Info("starting")
//	log.Event(logging.EventGatewayRequest, logging.Op("chat"))
package logging

import (
	"io"
	"sync"

	"github.com/google/uuid"
)

// Logger fans messages out to the console, the session file and the tracer.
type Logger struct {
	config  Config
	console *ConsoleWriter
	file    *FileWriter
	tracer  *Tracer
	metrics *Metrics

	sessionID string

	// component prefix, e.g. "conversation", "gateway", "storage"
	prefix string
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// Init creates a logger from cfg and installs it as the global logger.
func Init(cfg Config) (*Logger, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}

	globalLogger = logger
	return logger, nil
}

// New creates a new Logger instance.
func New(cfg Config) (*Logger, error) {
	consoleLevel := cfg.Level
	if cfg.DebugMode {
		consoleLevel = LevelDebug
	}
	console := NewConsoleWriter(consoleLevel)
	if cfg.Quiet {
		console.SetOutput(io.Discard)
	}

	sessionID := uuid.NewString()

	tracer, err := NewTracer(cfg.DebugDir, sessionID, cfg.DebugMode, cfg.DebugGateway)
	if err != nil {
		return nil, err
	}

	return &Logger{
		config:    cfg,
		console:   console,
		file:      NewFileWriter(cfg.LogDir),
		tracer:    tracer,
		metrics:   NewMetrics(),
		sessionID: sessionID,
	}, nil
}

// Nop returns a logger that writes nowhere. Useful in tests and as a
// fallback when a component is built without one.
func Nop() *Logger {
	console := NewConsoleWriter(LevelError + 1)
	console.SetOutput(io.Discard)
	return &Logger{
		console: console,
		file:    &FileWriter{disabled: true},
		tracer:  &Tracer{},
		metrics: NewMetrics(),
	}
}

// Global returns the global logger, or nil before Init.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithPrefix returns a child logger whose lines are tagged [prefix].
func (l *Logger) WithPrefix(prefix string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.prefix = prefix
	return &child
}

// SetQuiet toggles console output. File and tracer output are unaffected.
func (l *Logger) SetQuiet(quiet bool) {
	if l == nil {
		return
	}
	l.console.SetMuted(quiet)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.log(LevelDebug, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.log(LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.log(LevelWarn, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.log(LevelError, msg, fields...)
}

func (l *Logger) log(level Level, msg string, fields ...Field) {
	l.console.Write(level, l.prefix, msg, fields...)
	_ = l.file.Write(level, l.prefix, msg, fields...)
}

// Event writes a structured event to the tracer. No-op outside debug mode.
func (l *Logger) Event(eventType string, fields ...Field) {
	if l == nil || !l.tracer.IsEnabled() {
		return
	}
	l.tracer.Event(eventType, fields...)
}

// EventWithData writes a structured event with extra data to the tracer.
func (l *Logger) EventWithData(eventType string, data map[string]any, fields ...Field) {
	if l == nil || !l.tracer.IsEnabled() {
		return
	}
	l.tracer.EventWithData(eventType, data, fields...)
}

// NewRequestID generates a correlation ID and sets it for subsequent events.
func (l *Logger) NewRequestID() string {
	if l == nil || l.tracer == nil {
		return GenerateRequestID()
	}
	return l.tracer.NewRequestID()
}

func (l *Logger) ClearRequestID() {
	if l == nil || l.tracer == nil {
		return
	}
	l.tracer.ClearRequestID()
}

// GatewayRequest records a full gateway request payload (NTRICACID_DEBUG_GATEWAY=1).
func (l *Logger) GatewayRequest(requestID string, payload map[string]any) {
	if l == nil || l.tracer == nil {
		return
	}
	l.tracer.GatewayPayload("request", requestID, payload)
}

// GatewayResponse records a full gateway response payload (NTRICACID_DEBUG_GATEWAY=1).
func (l *Logger) GatewayResponse(requestID string, payload map[string]any) {
	if l == nil || l.tracer == nil {
		return
	}
	l.tracer.GatewayPayload("response", requestID, payload)
}

func (l *Logger) Metrics() *Metrics {
	if l == nil {
		return nil
	}
	return l.metrics
}

func (l *Logger) GetSessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// LogPath returns the session log file path, or "" before the first write.
func (l *Logger) LogPath() string {
	if l == nil {
		return ""
	}
	return l.file.GetPath()
}

func (l *Logger) IsDebugEnabled() bool {
	if l == nil {
		return false
	}
	return l.console.Enabled(LevelDebug)
}

func (l *Logger) IsTracingEnabled() bool {
	if l == nil {
		return false
	}
	return l.tracer.IsEnabled()
}

// SetLevel sets the console log level.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.console.SetLevel(level)
}

// Close flushes the metrics summary into the trace and closes all writers.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	if l.tracer.IsEnabled() && l.metrics != nil {
		l.tracer.EventWithData(EventMetricsSummary, l.metrics.GetSnapshot())
	}

	var errs []error
	if err := l.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := l.tracer.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Package-level helpers using the global logger

func Debug(msg string, fields ...Field) {
	if l := Global(); l != nil {
		l.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...Field) {
	if l := Global(); l != nil {
		l.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...Field) {
	if l := Global(); l != nil {
		l.Warn(msg, fields...)
	}
}

// LogError logs an error message to the global logger.
func LogError(msg string, fields ...Field) {
	if l := Global(); l != nil {
		l.Error(msg, fields...)
	}
}

// LogEvent writes a structured event through the global logger.
func LogEvent(eventType string, fields ...Field) {
	if l := Global(); l != nil {
		l.Event(eventType, fields...)
	}
}

// Close closes and clears the global logger.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		err := globalLogger.Close()
		globalLogger = nil
		return err
	}
	return nil
}

// DebugEnabled reports whether the global logger emits debug lines.
func DebugEnabled() bool {
	if l := Global(); l != nil {
		return l.IsDebugEnabled()
	}
	return false
}

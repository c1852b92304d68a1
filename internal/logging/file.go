package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWriter appends every log line, regardless of level, to a per-process
// log file. The file is created lazily on the first write.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	logDir   string
	logPath  string
	disabled bool
	initOnce sync.Once
	initErr  error
}

// NewFileWriter creates a file writer rooted at logDir. An empty logDir
// disables file logging.
func NewFileWriter(logDir string) *FileWriter {
	return &FileWriter{
		logDir:   logDir,
		disabled: logDir == "",
	}
}

func (f *FileWriter) init() error {
	f.initOnce.Do(func() {
		f.initErr = f.doInit()
	})
	return f.initErr
}

func (f *FileWriter) doInit() error {
	logDir, err := filepath.Abs(f.logDir)
	if err != nil {
		return fmt.Errorf("resolve log directory: %w", err)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	now := time.Now()
	logPath := filepath.Join(logDir, fmt.Sprintf("ntricacid_%s_%d.log", now.Format("2006-01-02_15-04-05"), os.Getpid()))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}

	f.file = file
	f.logPath = logPath

	_, _ = fmt.Fprintf(file, "=== Session started at %s ===\n", now.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(file, "Log file: %s\n", logPath)
	_, _ = fmt.Fprintf(file, "---\n")

	latestPath := filepath.Join(logDir, "latest.log")
	_ = os.Remove(latestPath)
	_ = os.Symlink(filepath.Base(logPath), latestPath)

	return nil
}

// Write appends one line to the log file.
func (f *FileWriter) Write(level Level, prefix, msg string, fields ...Field) error {
	if f.disabled {
		return nil
	}
	if err := f.init(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	_, err := f.file.WriteString(formatLine(time.Now(), level, prefix, msg, fields))
	return err
}

// GetPath returns the path to the current log file, or "" if nothing was written yet.
func (f *FileWriter) GetPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logPath
}

func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		_, _ = fmt.Fprintf(f.file, "---\n=== Session ended at %s ===\n", time.Now().Format("2006-01-02 15:04:05"))
		err := f.file.Close()
		f.file = nil
		return err
	}
	return nil
}

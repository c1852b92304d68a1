package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one JSONL trace record.
type Event struct {
	Timestamp string         `json:"ts"`
	Event     string         `json:"event"`
	Session   string         `json:"session"`
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// GatewayPayload is a full gateway request or response, traced when
// NTRICACID_DEBUG_GATEWAY=1.
type GatewayPayload struct {
	Timestamp string         `json:"ts"`
	Type      string         `json:"type"` // "request" or "response"
	Session   string         `json:"session"`
	RequestID string         `json:"request_id"`
	Data      map[string]any `json:"data"`
}

// Tracer writes structured events to JSONL files. Inactive outside debug mode.
type Tracer struct {
	mu             sync.Mutex
	sessionID      string
	requestID      string
	sessionFile    *os.File
	gatewayFile    *os.File
	enabled        bool
	gatewayEnabled bool
	sessionPath    string
}

// NewTracer creates a tracer. With debugMode false it is a no-op.
func NewTracer(debugDir, sessionID string, debugMode, gatewayEnabled bool) (*Tracer, error) {
	t := &Tracer{
		sessionID:      sessionID,
		enabled:        debugMode,
		gatewayEnabled: debugMode && gatewayEnabled,
	}

	if !debugMode {
		return t, nil
	}

	if err := os.MkdirAll(debugDir, 0755); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	sessionPath := filepath.Join(debugDir, fmt.Sprintf("session_%s.jsonl", timestamp))
	sessionFile, err := os.OpenFile(sessionPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create session file: %w", err)
	}
	t.sessionFile = sessionFile
	t.sessionPath = sessionPath

	if t.gatewayEnabled {
		gwPath := filepath.Join(debugDir, fmt.Sprintf("gateway_%s.jsonl", timestamp))
		gwFile, err := os.OpenFile(gwPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			_ = sessionFile.Close()
			return nil, fmt.Errorf("create gateway trace file: %w", err)
		}
		t.gatewayFile = gwFile
	}

	latestPath := filepath.Join(debugDir, "latest.jsonl")
	_ = os.Remove(latestPath)
	_ = os.Symlink(sessionPath, latestPath)

	t.logEvent(EventSessionStart, map[string]any{
		"session_id":    sessionID,
		"debug_dir":     debugDir,
		"gateway_trace": t.gatewayEnabled,
	})

	return t, nil
}

func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

func (t *Tracer) GetSessionID() string {
	if t == nil {
		return ""
	}
	return t.sessionID
}

// SetRequestID sets the correlation ID stamped on subsequent events.
func (t *Tracer) SetRequestID(id string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestID = id
}

func (t *Tracer) NewRequestID() string {
	id := GenerateRequestID()
	t.SetRequestID(id)
	return id
}

func (t *Tracer) ClearRequestID() {
	t.SetRequestID("")
}

func (t *Tracer) Event(eventType string, fields ...Field) {
	if !t.IsEnabled() {
		return
	}
	t.logEvent(eventType, fieldsToMap(fields))
}

// EventWithData writes an event whose data is data merged with fields.
func (t *Tracer) EventWithData(eventType string, data map[string]any, fields ...Field) {
	if !t.IsEnabled() {
		return
	}

	merged := make(map[string]any, len(data)+len(fields))
	for k, v := range data {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}

	t.logEvent(eventType, merged)
}

func (t *Tracer) logEvent(eventType string, data map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessionFile == nil {
		return
	}

	line, err := json.Marshal(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Event:     eventType,
		Session:   t.sessionID,
		RequestID: t.requestID,
		Data:      data,
	})
	if err != nil {
		return
	}

	_, _ = t.sessionFile.Write(append(line, '\n'))
}

// GatewayPayload writes a full request or response body to the gateway trace.
func (t *Tracer) GatewayPayload(payloadType, requestID string, data map[string]any) {
	if t == nil || !t.gatewayEnabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gatewayFile == nil {
		return
	}

	line, err := json.Marshal(GatewayPayload{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Type:      payloadType,
		Session:   t.sessionID,
		RequestID: requestID,
		Data:      data,
	})
	if err != nil {
		return
	}

	_, _ = t.gatewayFile.Write(append(line, '\n'))
}

// GetPath returns the path to the session trace file.
func (t *Tracer) GetPath() string {
	if t == nil {
		return ""
	}
	return t.sessionPath
}

// Close writes session.end and closes the trace files.
func (t *Tracer) Close() error {
	if !t.IsEnabled() {
		return nil
	}

	t.logEvent(EventSessionEnd, map[string]any{"session_id": t.sessionID})

	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.sessionFile != nil {
		if err := t.sessionFile.Close(); err != nil {
			errs = append(errs, err)
		}
		t.sessionFile = nil
	}
	if t.gatewayFile != nil {
		if err := t.gatewayFile.Close(); err != nil {
			errs = append(errs, err)
		}
		t.gatewayFile = nil
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// GenerateRequestID creates a correlation ID for one gateway call.
func GenerateRequestID() string {
	return "req_" + uuid.NewString()[:8]
}

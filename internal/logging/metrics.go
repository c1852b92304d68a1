package logging

import (
	"sync"
	"time"
)

// OpMetrics tracks calls to one gateway operation.
type OpMetrics struct {
	Calls     int            `json:"calls"`
	Errors    int            `json:"errors"`
	TotalTime time.Duration  `json:"total_time_ms"`
	ByKind    map[string]int `json:"by_kind,omitempty"`
}

// Metrics collects in-process counters for one run.
type Metrics struct {
	mu sync.Mutex

	SessionStart time.Time `json:"session_start"`

	Submits        int `json:"submits"`
	Rejected       int `json:"rejected"`
	Retries        int `json:"retries"`
	Clears         int `json:"clears"`
	RootActivated  int `json:"root_activated"`
	TerminalLines  int `json:"terminal_lines"`
	StorageCorrupt int `json:"storage_corrupt"`

	Gateway map[string]*OpMetrics `json:"gateway"`
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionStart: time.Now(),
		Gateway:      make(map[string]*OpMetrics),
	}
}

func (m *Metrics) RecordSubmit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submits++
}

func (m *Metrics) RecordRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected++
}

func (m *Metrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Retries++
}

func (m *Metrics) RecordClear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clears++
}

func (m *Metrics) RecordRootActivated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RootActivated++
}

func (m *Metrics) RecordTerminalLine() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TerminalLines++
}

func (m *Metrics) RecordStorageCorrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StorageCorrupt++
}

// RecordGatewayCall records one gateway call. kind is empty on success.
func (m *Metrics) RecordGatewayCall(op string, duration time.Duration, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	om := m.Gateway[op]
	if om == nil {
		om = &OpMetrics{ByKind: make(map[string]int)}
		m.Gateway[op] = om
	}
	om.Calls++
	om.TotalTime += duration
	if kind != "" {
		om.Errors++
		om.ByKind[kind]++
	}
}

// MetricsSummary is a point-in-time view of the counters.
type MetricsSummary struct {
	SessionDuration    time.Duration
	Submits            int
	Rejected           int
	Retries            int
	Clears             int
	RootActivated      int
	TerminalLines      int
	StorageCorrupt     int
	GatewayCallsTotal  int
	GatewayErrorsTotal int
	ErrorsByKind       map[string]int
}

func (m *Metrics) Summary() MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MetricsSummary{
		SessionDuration: time.Since(m.SessionStart),
		Submits:         m.Submits,
		Rejected:        m.Rejected,
		Retries:         m.Retries,
		Clears:          m.Clears,
		RootActivated:   m.RootActivated,
		TerminalLines:   m.TerminalLines,
		StorageCorrupt:  m.StorageCorrupt,
		ErrorsByKind:    make(map[string]int),
	}
	for _, om := range m.Gateway {
		s.GatewayCallsTotal += om.Calls
		s.GatewayErrorsTotal += om.Errors
		for k, n := range om.ByKind {
			s.ErrorsByKind[k] += n
		}
	}
	return s
}

// GetSnapshot returns the summary as a map for the trace.
func (m *Metrics) GetSnapshot() map[string]any {
	s := m.Summary()
	return map[string]any{
		"session_duration_ms":  s.SessionDuration.Milliseconds(),
		"submits":              s.Submits,
		"rejected":             s.Rejected,
		"retries":              s.Retries,
		"clears":               s.Clears,
		"root_activated":       s.RootActivated,
		"terminal_lines":       s.TerminalLines,
		"storage_corrupt":      s.StorageCorrupt,
		"gateway_calls_total":  s.GatewayCallsTotal,
		"gateway_errors_total": s.GatewayErrorsTotal,
		"errors_by_kind":       s.ErrorsByKind,
	}
}

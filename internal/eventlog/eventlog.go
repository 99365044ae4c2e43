package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Severity classifies an event for routing and filtering.
type Severity int

const (
	Info Severity = iota
	Analytic
	Warning
	Severe
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Analytic:
		return "analytic"
	case Warning:
		return "warning"
	case Severe:
		return "severe"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Event is a named occurrence with string parameters.
type Event interface {
	Name() string
	Params() map[string]string
	Severity() Severity
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Track(Event)
}

// Recorder is what producers of events depend on.
type Recorder interface {
	Record(Event)
}

// Manager fans events out to every registered sink. A sink that panics is
// skipped, so Record never fails for the caller.
type Manager struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

// NewManager creates a Manager dispatching to the given sinks.
func NewManager(logger *slog.Logger, sinks ...Sink) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{sinks: sinks, logger: logger}
}

// Add registers another sink.
func (m *Manager) Add(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Record delivers e to all sinks.
func (m *Manager) Record(e Event) {
	if e == nil {
		return
	}
	m.mu.RLock()
	sinks := m.sinks
	m.mu.RUnlock()

	for _, s := range sinks {
		m.track(s, e)
	}
}

func (m *Manager) track(s Sink, e Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event sink panicked", "event", e.Name(), "sink", fmt.Sprintf("%T", s), "panic", r)
		}
	}()
	s.Track(e)
}

// SlogSink writes events to a slog.Logger, mapping severities onto levels.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink that logs to logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Track(e Event) {
	params := e.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("severity", e.Severity().String()))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, params[k]))
	}
	s.logger.LogAttrs(context.Background(), Level(e.Severity()), e.Name(), attrs...)
}

// Level maps a Severity to the slog level it is logged at.
func Level(s Severity) slog.Level {
	switch s {
	case Analytic:
		return slog.LevelDebug
	case Warning:
		return slog.LevelWarn
	case Severe:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Memory keeps every event it sees. It is both a Sink and a Recorder.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Track(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *Memory) Record(e Event) {
	m.Track(e)
}

// Events returns a copy of the captured events in arrival order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Names returns the names of the captured events in arrival order.
func (m *Memory) Names() []string {
	events := m.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name()
	}
	return names
}

// Reset drops all captured events.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

package logger

import (
	"fmt"
	"strings"
	"sync"
)

// MockLogger records log calls for assertions in tests.
type MockLogger struct {
	state *mockState
	attrs []any
}

type mockState struct {
	messages []LogMessage
	mu       sync.Mutex
}

// LogMessage is a single recorded log call.
type LogMessage struct {
	Level string
	Msg   string
	Args  []any
}

// NewMockLogger creates a MockLogger with an empty record.
func NewMockLogger() *MockLogger {
	return &MockLogger{state: &mockState{}}
}

// Debug records a debug message.
func (m *MockLogger) Debug(msg string, args ...any) { m.record("DEBUG", msg, args) }

// Info records an info message.
func (m *MockLogger) Info(msg string, args ...any) { m.record("INFO", msg, args) }

// Warn records a warning message.
func (m *MockLogger) Warn(msg string, args ...any) { m.record("WARN", msg, args) }

// Error records an error message.
func (m *MockLogger) Error(msg string, args ...any) { m.record("ERROR", msg, args) }

// With returns a logger sharing this record with extra attributes prepended to every call.
func (m *MockLogger) With(args ...any) Logger {
	attrs := make([]any, 0, len(m.attrs)+len(args))
	attrs = append(attrs, m.attrs...)
	attrs = append(attrs, args...)
	return &MockLogger{state: m.state, attrs: attrs}
}

// WithGroup returns a logger tagged with the group name.
func (m *MockLogger) WithGroup(name string) Logger {
	return m.With("group", name)
}

func (m *MockLogger) record(level, msg string, args []any) {
	merged := make([]any, 0, len(m.attrs)+len(args))
	merged = append(merged, m.attrs...)
	merged = append(merged, args...)

	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	m.state.messages = append(m.state.messages, LogMessage{Level: level, Msg: msg, Args: merged})
}

// Messages returns a copy of every recorded message.
func (m *MockLogger) Messages() []LogMessage {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	out := make([]LogMessage, len(m.state.messages))
	copy(out, m.state.messages)
	return out
}

// HasMessage reports whether a message with exactly this level and text was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, lm := range m.Messages() {
		if lm.Level == level && lm.Msg == msg {
			return true
		}
	}
	return false
}

// HasMessageContaining reports whether a message at level contains substring.
func (m *MockLogger) HasMessageContaining(level, substring string) bool {
	for _, lm := range m.Messages() {
		if lm.Level == level && strings.Contains(lm.Msg, substring) {
			return true
		}
	}
	return false
}

// Count returns how many messages were logged at level.
func (m *MockLogger) Count(level string) int {
	n := 0
	for _, lm := range m.Messages() {
		if lm.Level == level {
			n++
		}
	}
	return n
}

// Clear drops all recorded messages.
func (m *MockLogger) Clear() {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	m.state.messages = nil
}

// String renders the record, one message per line.
func (m *MockLogger) String() string {
	var sb strings.Builder
	for _, msg := range m.Messages() {
		fmt.Fprintf(&sb, "[%s] %s %v\n", msg.Level, msg.Msg, msg.Args)
	}
	return sb.String()
}

package logger

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage is one captured log call
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// TestLogger captures log calls in memory. Loggers derived with WithField
// share the capture buffer of their parent.
type TestLogger struct {
	sink   *captureSink
	fields map[string]interface{}
}

type captureSink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewTestLogger creates an empty capturing logger
func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &captureSink{}, fields: map[string]interface{}{}}
}

func (l *TestLogger) log(level, msg string, extra map[string]interface{}) {
	fields := make(map[string]interface{}, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.messages = append(l.sink.messages, LogMessage{Level: level, Message: msg, Fields: fields})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string) { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string) { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }

// Fatal is captured like any other level; it does not exit
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, f map[string]interface{}) { l.log("DEBUG", msg, f) }
func (l *TestLogger) InfoWithFields(msg string, f map[string]interface{}) { l.log("INFO", msg, f) }
func (l *TestLogger) WarnWithFields(msg string, f map[string]interface{}) { l.log("WARN", msg, f) }
func (l *TestLogger) ErrorWithFields(msg string, f map[string]interface{}) { l.log("ERROR", msg, f) }
func (l *TestLogger) FatalWithFields(msg string, f map[string]interface{}) { l.log("FATAL", msg, f) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{sink: l.sink, fields: merged}
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) WithContext(context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	z := zerolog.Nop()
	return &z
}

// GetMessages returns a copy of everything captured so far
func (l *TestLogger) GetMessages() []LogMessage {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make([]LogMessage, len(l.sink.messages))
	copy(out, l.sink.messages)
	return out
}

// GetMessagesByLevel filters captured messages by level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var out []LogMessage
	for _, m := range l.GetMessages() {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

// HasMessage reports whether a message at level contains substr
func (l *TestLogger) HasMessage(level, substr string) bool {
	for _, m := range l.GetMessagesByLevel(level) {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Contains reports whether any captured message or field value contains substr
func (l *TestLogger) Contains(substr string) bool {
	for _, m := range l.GetMessages() {
		if strings.Contains(m.Message, substr) {
			return true
		}
		for _, v := range m.Fields {
			if s, ok := v.(string); ok && strings.Contains(s, substr) {
				return true
			}
		}
	}
	return false
}

// Clear drops all captured messages
func (l *TestLogger) Clear() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.messages = nil
}

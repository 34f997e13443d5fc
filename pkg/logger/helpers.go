package logger

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// LogStage records the start of a pipeline stage
func LogStage(l Logger, stage string, fields map[string]interface{}) {
	l.WithField("stage", stage).InfoWithFields("Stage started", fields)
}

// LogAuthOutcome records how an authentication attempt ended.
// It never receives credentials, only the account name and outcome.
func LogAuthOutcome(l Logger, username, method, outcome string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"stage":    "auth",
		"username": username,
		"method":   method,
		"outcome":  outcome,
	})
	if err != nil {
		entry.WithError(err).Warn("Authentication attempt failed")
		return
	}
	entry.Info("Authentication attempt finished")
}

// LogCollection records the result of fetching one relationship list
func LogCollection(l Logger, list string, count int, elapsed time.Duration, err error) {
	entry := l.WithFields(map[string]interface{}{
		"stage":   "collect",
		"list":    list,
		"elapsed": elapsed,
	})
	if err != nil {
		entry.WithError(err).Error("Failed to fetch " + list)
		return
	}
	entry.WithField("count", count).Info("Fetched " + list)
}

// LogRequest records an HTTP exchange with the query string stripped
func LogRequest(l Logger, method, rawURL string, statusCode int, elapsed time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         redactURL(rawURL),
		"status_code": statusCode,
		"duration_ms": elapsed.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit records that the platform throttled a request
func LogRateLimit(l Logger, endpoint string, retryAfter string) {
	l.WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached")
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string) {}
func (n nopLogger) Info(string) {}
func (n nopLogger) Warn(string) {}
func (n nopLogger) Error(string) {}
func (n nopLogger) Fatal(string) {}
func (n nopLogger) WithField(string, interface{}) Logger { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger { return n }
func (n nopLogger) WithError(error) Logger { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{}) {}
func (n nopLogger) WarnWithFields(string, map[string]interface{}) {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (n nopLogger) FatalWithFields(string, map[string]interface{}) {}
func (n nopLogger) GetZerolog() *zerolog.Logger { z := zerolog.Nop(); return &z }

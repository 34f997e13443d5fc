package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignonfollowers/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "with file", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFileSinkWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.WithField("list", "following").Info("Fetched following")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "Fetched following", entry["message"])
	assert.Equal(t, "following", entry["list"])
	assert.Equal(t, "ignonfollowers", entry["app"])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	child := base.WithField("stage", "collect")
	base.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "collect")
	assert.Contains(t, lines[1], `"stage":"collect"`)
}

func TestTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	l.InfoWithFields("typed", map[string]interface{}{
		"count":   3,
		"ok":      true,
		"elapsed": 1500 * time.Millisecond,
		"names":   []string{"a", "b"},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, true, entry["ok"])
	assert.Equal(t, "1.5s", entry["elapsed"])
	assert.Equal(t, []interface{}{"a", "b"}, entry["names"])
}

func TestWithErrorNil(t *testing.T) {
	l := NewTestLogger()
	assert.Same(t, l, l.WithError(nil))
}

func TestLogRequestStripsQuery(t *testing.T) {
	l := NewTestLogger()
	LogRequest(l, "GET", "https://www.instagram.com/api/v1/friendships/1/followers/?count=100&max_id=abc", 429, 20*time.Millisecond)

	msgs := l.GetMessagesByLevel("WARN")
	require.Len(t, msgs, 1)
	assert.Equal(t, "https://www.instagram.com/api/v1/friendships/1/followers/", msgs[0].Fields["url"])
	assert.Equal(t, 429, msgs[0].Fields["status_code"])
}

func TestLogCollection(t *testing.T) {
	l := NewTestLogger()
	LogCollection(l, "followers", 10, time.Second, nil)
	LogCollection(l, "following", 0, time.Second, errors.New("timeout"))

	assert.True(t, l.HasMessage("INFO", "Fetched followers"))
	errs := l.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "following", errs[0].Fields["list"])
	assert.Equal(t, "timeout", errs[0].Fields["error"])
}

func TestLogAuthOutcome(t *testing.T) {
	l := NewTestLogger()
	LogAuthOutcome(l, "ana", "session", "login_required", errors.New("expired"))
	LogAuthOutcome(l, "ana", "password", "success", nil)

	assert.True(t, l.HasMessage("WARN", "Authentication attempt failed"))
	assert.True(t, l.HasMessage("INFO", "Authentication attempt finished"))
}

func TestTestLoggerSharesCapture(t *testing.T) {
	l := NewTestLogger()
	child := l.WithField("component", "pacer")
	child.Debug("sleeping")

	msgs := l.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "pacer", msgs[0].Fields["component"])
	assert.True(t, l.Contains("pacer"))

	l.Clear()
	assert.Empty(t, l.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetLogger(prev)

	capture := NewTestLogger()
	SetLogger(capture)
	WithField("k", "v").Info("through global")

	assert.True(t, capture.HasMessage("INFO", "through global"))
	assert.NotNil(t, NewNopLogger().GetZerolog())
}

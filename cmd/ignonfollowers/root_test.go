package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/ui"
)

func quietOutput(t *testing.T) {
	t.Helper()
	prev := ui.Output()
	ui.SetOutput(io.Discard)
	logger.SetLogger(logger.NewNopLogger())
	t.Cleanup(func() { ui.SetOutput(prev) })
}

func TestReportFailureExitCodes(t *testing.T) {
	quietOutput(t)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"interrupted", fmt.Errorf("collect: %w", context.Canceled), 0},
		{"auth failure", apperrors.New(apperrors.KindAuth, "auth.login", "invalid password").WithReason(apperrors.ReasonBadPassword), 1},
		{"rate limited", apperrors.FromStatus("friendships", 429), 1},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reportFailure("collection", tt.err)

			var exit *exitError
			require.True(t, errors.As(err, &exit))
			assert.Equal(t, tt.want, exit.code)
		})
	}
}

func TestCommandsAreRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"run"},
		{"history"},
		{"auth", "login"},
		{"session", "logout"},
		{"config", "validate"},
		{"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

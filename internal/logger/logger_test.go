package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{" warn ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"verbose", log.InfoLevel},
		{"", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestConfigure_FlagBeatsEnv(t *testing.T) {
	t.Setenv("AISHELL_LOG_LEVEL", "error")

	require.NoError(t, Configure("debug", ""))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	require.NoError(t, Configure("", ""))
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel())
}

func TestConfigure_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aishell.log")
	require.NoError(t, Configure("info", path))
	t.Cleanup(func() { _ = Configure("info", "") })

	Info("hello from test", "component", "logger")
	NewStyledLogger("Test").Info("component line")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), "component line")
}

func TestNewStyledLogger_InheritsLevel(t *testing.T) {
	require.NoError(t, Configure("warn", ""))
	t.Cleanup(func() { _ = Configure("info", "") })

	l := NewStyledLogger("Auth")
	assert.Equal(t, log.WarnLevel, l.GetLevel())
	assert.Equal(t, "Auth ", l.GetPrefix())
}

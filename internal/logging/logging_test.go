package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("non terminal writer logs json", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		logger := New(&buf, "DEV", "info")

		// Act
		logger.Info("session created", "upload_id", "abc")

		// Assert
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "session created", line["msg"])
		assert.Equal(t, "abc", line["upload_id"])
	})

	t.Run("level filters", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		logger := New(&buf, "prod", "warn")

		// Act
		logger.Info("dropped")
		logger.Debug("dropped too")

		// Assert
		assert.Zero(t, buf.Len())
	})
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := Setup(tt.level, "json", &bytes.Buffer{})
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup("info", "json", &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("component", "quiz").Msg("generated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "generated", entry["message"])
	assert.Equal(t, "quiz", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestSetupPretty(t *testing.T) {
	var buf bytes.Buffer
	log := Setup("info", "pretty", &buf)

	log.Info().Msg("ready")

	out := buf.String()
	assert.Contains(t, out, "ready")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

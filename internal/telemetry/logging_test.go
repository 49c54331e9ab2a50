package telemetry_test

import (
	"testing"

	"github.com/mitrakirim/fulfillment/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel}, // unrecognized falls back to info
	}

	for _, tt := range tests {
		t.Run("level "+tt.in, func(t *testing.T) {
			logger, err := telemetry.NewLogger(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.Level())
		})
	}
}

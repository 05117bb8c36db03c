package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop() })

	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			require.NoError(t, Init(tt.level))
			assert.True(t, Log.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, Log.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop() })

	err := Init("loud")
	assert.EqualError(t, err, `invalid log level "loud"`)
	assert.False(t, Log.Core().Enabled(zapcore.ErrorLevel), "logger left as no-op")
}

func TestDefaultIsNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("quiet")
		Warn("quiet")
	})
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug", "debug", false},
		{"info", "info", false},
		{"warn", "warn", false},
		{"error", "error", false},
		{"invalid", "verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestDefaults(t *testing.T) {
	assert.NotNil(t, NewNop().Logger)
	assert.Equal(t, "info", DefaultConfig().Level)
	assert.Equal(t, "json", encodingFormat(false))
	assert.Equal(t, "console", encodingFormat(true))
}

func TestForProject(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := &Logger{Logger: zap.New(core)}

	logger.ForProject("session", "proj_1").Info("built")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "session", entries[0].LoggerName)
	assert.Equal(t, "proj_1", entries[0].ContextMap()["project_id"])
}

func TestConsole(t *testing.T) {
	tests := []struct {
		level types.Level
		want  zapcore.Level
	}{
		{types.LevelLog, zapcore.DebugLevel},
		{types.LevelInfo, zapcore.InfoLevel},
		{types.LevelWarn, zapcore.InfoLevel},
		{types.LevelError, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			Console(zap.New(core), types.NewLogRecord(tt.level, "hello"))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.Equal(t, "hello", entries[0].Message)
			assert.Equal(t, "preview", entries[0].ContextMap()["source"])
		})
	}
}

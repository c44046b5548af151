package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level LogLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{MinLevel: level, base: zap.New(core).Sugar()}, logs
}

func TestLoggerFiltersBelowMinLevel(t *testing.T) {
	l, logs := observed(LevelWarn)

	l.Debug("Test", "hidden")
	l.Info("Test", "hidden")
	l.Warn("Test", "shown %d", 1)
	l.Error("Test", "shown %d", 2)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "shown 1", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestLoggerTagsComponent(t *testing.T) {
	l, logs := observed(LevelDebug)

	l.Info("Orchestrator", "contract=%d", 42)

	entries := logs.FilterField(zap.String("component", "Orchestrator")).All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "contract=42", entries[0].Message)
}

func TestSetLogLevel(t *testing.T) {
	l, logs := observed(LevelError)
	l.Info("", "hidden")
	l.SetLogLevel(LevelDebug)
	l.Debug("", "shown")
	assert.Equal(t, 1, logs.Len())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

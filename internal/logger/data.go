package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Logger provides component-tagged logging with levels on top of zap

type Logger struct {
	MinLevel LogLevel
	mu       sync.Mutex
	base     *zap.SugaredLogger
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Output encodings accepted by New
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

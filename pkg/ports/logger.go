package ports

import (
	"errors"
	"fmt"
	"strings"
)

// LogLevel is the minimum severity a Logger prints.
type LogLevel int

const (
	// LevelDebug shows per-frame and per-component detail.
	LevelDebug LogLevel = iota
	// LevelInfo shows job start, backend choice and completion.
	LevelInfo
	// LevelWarn shows rejected requests and recoverable problems.
	LevelWarn
	// LevelError shows failed builds only.
	LevelError
	// LevelQuiet prints nothing.
	LevelQuiet
)

// ErrUnknownLogLevel is returned by ParseLogLevel for unrecognised names.
var ErrUnknownLogLevel = errors.New("ports: unknown log level")

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a level name case-insensitively.
// An empty name is LevelInfo and "warning" is accepted for LevelWarn.
func ParseLogLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLogLevel, s)
}

// Logger writes leveled messages. msg is a format key that implementations
// may translate before applying args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags each line with component.
	// Nested calls join names with "/".
	WithComponent(component string) Logger
}

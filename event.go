package gelf

import (
	"log/slog"
	"time"
)

// Level is the severity of a LogEvent. The zero value, LevelUnknown, means the
// event carries no level.
type Level int

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// syslog severities used by GELF
var severities = map[Level]int{
	LevelFatal: 2,
	LevelError: 3,
	LevelWarn:  4,
	LevelInfo:  5,
	LevelDebug: 6,
	LevelTrace: 7,
}

// defaultSeverity is used for absent or unrecognized levels.
const defaultSeverity = 3

// Severity returns the GELF (syslog) level for l. Unknown levels map to 3
// (error).
func (l Level) Severity() int {
	if s, ok := severities[l]; ok {
		return s
	}
	return defaultSeverity
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// LevelFromSlog maps a slog.Level onto the six GELF-relevant levels. Levels
// below slog.LevelDebug become LevelTrace, and levels at or above
// slog.LevelError+4 become LevelFatal.
func LevelFromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	case l < slog.LevelError+4:
		return LevelError
	default:
		return LevelFatal
	}
}

// LogEvent is one log record as handed to the Encoder. The Encoder only reads
// it; Properties is copied before any field is added.
type LogEvent struct {
	// Message is the formatted message text. Events with an empty message are
	// not sent.
	Message string

	Level Level

	// Time of the event. The zero time is replaced with time.Now().
	Time time.Time

	LoggerName string

	// Err is the outermost error of a causal chain, followed with
	// errors.Unwrap.
	Err error

	// Properties holds the event's own fields. Values may be any of the
	// scalar kinds understood by FieldEncoder, or arbitrary objects.
	Properties map[string]any
}

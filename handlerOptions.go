package gelf

import "log/slog"

// HandlerOptions are used to customize the GELF slog.Handler.
//
// NB: The struct pointer options approach is used to be consistent with the
// approach used in the standard library for `HandlerOptions`.
type HandlerOptions struct {

	// Level reports the minimum record level that will be logged. The handler
	// discards records with lower levels. If Level is nil, the handler assumes
	// LevelInfo. The handler calls Level.Level for each record processed; to
	// adjust the minimum level dynamically, use a LevelVar.
	Level slog.Leveler

	// LoggerName is sent as the `_LoggerName` field of every record.
	LoggerName string

	// AddSource causes the handler to compute the source code position of the
	// log statement and add a SourceKey attribute to the output.
	AddSource bool

	// Target customizes the Target built by NewHandler. It is not used by
	// NewHandlerCustom.
	Target *TargetOptions

	// Verbose controls whether debug logs are written to the internal logger.
	Verbose bool
}

// DefaultHandlerOptions returns *HandlerOptions with all default values.
func DefaultHandlerOptions() *HandlerOptions {
	return &HandlerOptions{
		Level: slog.LevelInfo,
	}
}

// resolve ensures that all options have valid values.
func (o *HandlerOptions) resolve() {

	// set default log level if not provided
	if o.Level == nil {
		o.Level = slog.LevelInfo
	}
}

package gelf

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var internalLogger atomic.Value

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Str("component", "gelf").Logger()
	internalLogger.Store(&l)
}

// InternalLogger returns the Logger used to write out internal logs, where logs
// get written when something goes wrong in the logging stack itself. It must
// never be a logger that writes back into a gelf Handler.
func InternalLogger() *zerolog.Logger { return internalLogger.Load().(*zerolog.Logger) }

// SetInternalLogger makes l the internal logger. Use zerolog.Nop() to silence
// the stack entirely.
func SetInternalLogger(l zerolog.Logger) {
	internalLogger.Store(&l)
}

// debugf writes a debug line when verbose is set.
func debugf(verbose bool, format string, args ...any) {
	if !verbose {
		return
	}
	InternalLogger().Debug().Msgf(format, args...)
}

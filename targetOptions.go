package gelf

import (
	"fmt"
	"strings"
)

// Format is the serialization of the payload before compression.
type Format int

const (
	// FormatJSON is GELF as specified, and the default.
	FormatJSON Format = iota

	// FormatMsgpack writes the same payload schema as one msgpack map, for
	// relays that accept msgpack. GELF inputs do not.
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "json" or "msgpack".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("%w: unknown payload format %q", ErrInvalidArgument, s)
}

// TargetOptions are used to customize the Target.
type TargetOptions struct {

	// Formatting controls how events are encoded. The default is
	// DefaultFormattingOptions().
	Formatting *FormattingOptions

	// Format of the payload. The default is FormatJSON.
	Format Format

	// Transport customizes compression, chunking and metrics. The default is
	// DefaultTransportOptions().
	Transport *TransportOptions

	// Verbose controls whether debug logs are written to the internal logger.
	Verbose bool
}

// DefaultTargetOptions returns *TargetOptions with all default values.
func DefaultTargetOptions() *TargetOptions {
	return &TargetOptions{
		Formatting: DefaultFormattingOptions(),
		Format:     FormatJSON,
		Transport:  DefaultTransportOptions(),
	}
}

// resolve ensures that all options have valid values.
func (o *TargetOptions) resolve() {
	if o.Formatting == nil {
		o.Formatting = DefaultFormattingOptions()
	} else {
		o.Formatting.resolve()
	}

	if o.Format != FormatJSON && o.Format != FormatMsgpack {
		o.Format = FormatJSON
	}

	if o.Transport == nil {
		o.Transport = DefaultTransportOptions()
	} else {
		o.Transport.resolve()
	}
}

package gelf

import "time"

// FormattingOptions control how a LogEvent is turned into a Message.
//
// NB: The struct pointer options approach is used to be consistent with the
// other options in this package, which follow the `HandlerOptions` used by
// log/slog.
type FormattingOptions struct {

	// Facility names the logical source application. It is sent as the
	// `_facility` additional field, and omitted when empty.
	Facility string

	// IncludeAmbientContextProperties merges the AmbientContext snapshot into
	// the additional fields. Event properties and computed fields win on key
	// collisions.
	IncludeAmbientContextProperties bool

	// SerializeObjectProperties enables structured serialization of property
	// values that are not one of the recognized scalar kinds. When false,
	// such properties are dropped.
	SerializeObjectProperties bool

	// TimeFormat controls how time values inside properties are serialized.
	// It does not change the message timestamp, which is defined by GELF. The
	// default is time.RFC3339Nano.
	TimeFormat string
}

const defaultTimeFormat = time.RFC3339Nano

// DefaultFormattingOptions returns *FormattingOptions with all default values.
func DefaultFormattingOptions() *FormattingOptions {
	return &FormattingOptions{TimeFormat: defaultTimeFormat}
}

// resolve ensures that all options have valid values.
func (o *FormattingOptions) resolve() {

	// set time format if missing, otherwise validate the user provided one
	if len(o.TimeFormat) == 0 {
		o.TimeFormat = defaultTimeFormat
		return
	}
	t := time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC)
	if _, err := time.Parse(o.TimeFormat, t.Format(o.TimeFormat)); err != nil {
		InternalLogger().Warn().Err(err).Str("layout", o.TimeFormat).
			Msg("FormattingOptions.TimeFormat is invalid; using time.RFC3339Nano")
		o.TimeFormat = defaultTimeFormat
	}
}

package gelf

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ShortMessageMaxLength is the number of characters of the formatted message
// kept in short_message.
const ShortMessageMaxLength = 250

// computed additional fields, before prefixing
const (
	fieldLoggerName = "LoggerName"
	fieldFacility   = "facility"
)

// Encoder turns LogEvents into GELF Messages. It holds no per-event state and
// is safe for concurrent use.
type Encoder struct {
	hostname func() (string, error)
	now      func() time.Time
}

// NewEncoder returns an Encoder that resolves the host name with os.Hostname
// on every call.
func NewEncoder() *Encoder {
	return &Encoder{hostname: os.Hostname, now: time.Now}
}

// Encode builds the Message for ev.
//
// It returns ErrEmptyMessage when ev has no message text; callers skip such
// events without reporting an error. It returns ErrInvalidArgument when ev or
// opts is nil. The ambient snapshot is only read when
// opts.IncludeAmbientContextProperties is set, and may be nil.
//
// Additional fields are assembled on a private copy of ev.Properties, in
// increasing order of precedence: ambient properties, event properties,
// exception fields, then LoggerName and facility.
func (e *Encoder) Encode(ev *LogEvent, opts *FormattingOptions, ambient AmbientContext) (*Message, error) {
	if ev == nil || opts == nil {
		return nil, fmt.Errorf("%w: log event and formatting options are required", ErrInvalidArgument)
	}
	if len(ev.Message) == 0 {
		return nil, ErrEmptyMessage
	}

	t := ev.Time
	if t.IsZero() {
		t = e.now()
	}

	m := &Message{
		Version:      Version,
		Host:         e.host(),
		ShortMessage: truncate(ev.Message, ShortMessageMaxLength),
		FullMessage:  ev.Message,
		Timestamp:    unixTimestamp(t),
		Level:        ev.Level.Severity(),
	}

	fe := &FieldEncoder{
		SerializeObjects: opts.SerializeObjectProperties,
		TimeFormat:       opts.TimeFormat,
	}
	m.Extra = additionalFields(collectProperties(ev, opts, ambient), fe)

	return m, nil
}

func (e *Encoder) host() string {
	h, err := e.hostname()
	if err != nil || len(h) == 0 {
		return "localhost"
	}
	return h
}

// collectProperties merges every property source into a new map. Empty
// strings from computed fields are stored as nil, so they override lower
// precedence values and are then dropped.
func collectProperties(ev *LogEvent, opts *FormattingOptions, ambient AmbientContext) map[string]any {
	props := make(map[string]any, len(ev.Properties)+2)

	if opts.IncludeAmbientContextProperties && ambient != nil {
		maps.Copy(props, ambient.Snapshot())
	}
	maps.Copy(props, ev.Properties)

	for i, l := range flattenErrors(ev.Err) {
		prefix := "Exception." + strconv.Itoa(i) + "."
		props[prefix+"Type"] = nilIfEmpty(l.Type)
		props[prefix+"Source"] = nilIfEmpty(l.Source)
		props[prefix+"Message"] = nilIfEmpty(l.Message)
		props[prefix+"StackTrace"] = nilIfEmpty(l.StackTrace)
	}

	props[fieldLoggerName] = nilIfEmpty(ev.LoggerName)
	props[fieldFacility] = nilIfEmpty(opts.Facility)

	return props
}

func nilIfEmpty(s string) any {
	if len(s) == 0 {
		return nil
	}
	return s
}

// additionalFields encodes props into underscore-prefixed fields sorted by
// key. Keys are visited in sorted order, so when "x" and "_x" collide the
// later one, "x", wins.
func additionalFields(props map[string]any, fe *FieldEncoder) []Field {
	byKey := make(map[string]Value, len(props))
	for _, k := range slices.Sorted(maps.Keys(props)) {
		v, ok := fe.Encode(props[k])
		if !ok {
			continue
		}
		byKey[fieldKey(k)] = v
	}

	fields := make([]Field, 0, len(byKey))
	for _, k := range slices.Sorted(maps.Keys(byKey)) {
		fields = append(fields, Field{Key: k, Value: byKey[k]})
	}
	return fields
}

// fieldKey adds the additional-field underscore unless k already has it.
func fieldKey(k string) string {
	if strings.HasPrefix(k, "_") {
		return k
	}
	return "_" + k
}

// truncate cuts s to its first n characters.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

// encErrs collects serialization errors
type encErrs struct {
	err error
}

func (e *encErrs) join(target string, err error) (wasErr bool) {
	if err == nil {
		return false
	}
	e.err = errors.Join(e.err, fmt.Errorf("failed to encode %s: %w", target, err))
	return true
}

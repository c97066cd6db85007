package gelf

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
)

// EventWriter defines the Target API used by the Handler.
type EventWriter interface {
	Write(context.Context, *LogEvent) error
	Close() error
}

// Handler is an adapter that sends Go structured logs to a GELF input.
//
// Attributes become additional fields. Groups are flattened into dotted keys,
// so slog.Group("req", slog.String("method", "GET")) is sent as
// `_req.method`. The first attribute whose value is an error becomes the
// event's error chain and is sent as the Exception.<n>.* fields; later error
// values are sent as their message text.
//
//	// Example of basic usage
//	h, err := gelf.NewHandler(gelf.Destination{Host: "graylog", Port: 12201}, nil)
//	if err != nil {
//	   log.Fatalln(err)
//	}
//
//	logger := slog.New(h)
//	slog.SetDefault(logger)
//
//	slog.Info("unrecognized user", "user_id", user_id)
//
// Request-scoped fields can be attached to the context with
// ContextWithProperties; they are sent when the Target's
// FormattingOptions.IncludeAmbientContextProperties is set.
type Handler struct {
	*HandlerOptions
	target EventWriter

	// attrs from WithAttrs, already flattened
	props map[string]any
	err   error

	// group prefix for attrs added from now on, e.g. "req.headers."
	prefix string
}

// NewHandler creates a Handler that sends to dst through a Target built from
// opts.Target, opening one socket per record.
//
// For complete control over the sink, for instance to reuse sockets with a
// Client, build the Target yourself and use NewHandlerCustom.
func NewHandler(dst Destination, opts *HandlerOptions) (*Handler, error) {
	if opts == nil {
		opts = DefaultHandlerOptions()
	}

	t, err := NewTarget(dst, nil, opts.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to create gelf.NewTarget: %w", err)
	}

	return NewHandlerCustom(t, opts), nil
}

// NewHandlerCustom creates a Handler that writes events to target.
func NewHandlerCustom(target EventWriter, opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = DefaultHandlerOptions()
	} else {
		opts.resolve()
	}

	return &Handler{
		HandlerOptions: opts,
		target:         target,
	}
}

// Shutdown closes the Target. You MUST NOT call any other logger methods
// after calling Shutdown.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.debug("shutting down the logging stack")

	doneCh := make(chan error, 1)
	go func() { doneCh <- h.target.Close() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-doneCh:
		return err
	}
}

func (h *Handler) debug(format string, args ...any) {
	debugf(h.Verbose, format, args...)
}

// Enabled reports whether the handler handles records at the given level. The
// handler ignores records whose level is lower.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Level.Level()
}

// Handle converts the Record into a LogEvent and writes it to the Target. It
// will only be called when Enabled returns true. Records without a message
// are skipped. The Context is passed to the Target, which reads ambient
// properties from it.
//
// Handle follows the slog.Handler rules, except that a zero r.Time is
// replaced with time.Now() rather than omitted, as GELF requires a timestamp.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {

	c := attrCollector{
		props: make(map[string]any, len(h.props)+r.NumAttrs()+1),
		err:   h.err,
	}
	maps.Copy(c.props, h.props)

	// rule: ignore source if no program counter
	if h.AddSource && r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		c.props[slog.SourceKey] = fmt.Sprintf("%s:%d", f.File, f.Line)
	}

	r.Attrs(func(attr slog.Attr) bool {
		c.add(h.prefix, attr)
		return true // continue iterating
	})

	ev := &LogEvent{
		Message:    r.Message,
		Level:      LevelFromSlog(r.Level),
		Time:       r.Time,
		LoggerName: h.LoggerName,
		Err:        c.err,
		Properties: c.props,
	}

	if err := h.target.Write(ctx, ev); err != nil {
		InternalLogger().Error().Err(err).Msg("failed to send log record")
		return err
	}
	return nil
}

// WithAttrs returns a new Handler whose attributes consist of both the
// receiver's attributes and the arguments.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {

	// rule: skip if no attrs
	if len(attrs) == 0 {
		return h
	}

	c := attrCollector{
		props: maps.Clone(h.props),
		err:   h.err,
	}
	if c.props == nil {
		c.props = make(map[string]any, len(attrs))
	}
	for _, attr := range attrs {
		c.add(h.prefix, attr)
	}

	h2 := *h
	h2.props = c.props
	h2.err = c.err
	return &h2
}

// WithGroup returns a new Handler that prefixes the keys of attributes added
// later with name and a dot.
//
// If the name is empty, WithGroup returns the receiver.
func (h *Handler) WithGroup(name string) slog.Handler {

	// rule: ignore if name is empty
	if len(name) == 0 {
		return h
	}

	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// attrCollector flattens slog attrs into LogEvent properties.
type attrCollector struct {
	props map[string]any
	err   error
}

func (c *attrCollector) add(prefix string, attr slog.Attr) {

	// rule: must first resolve, and then ignore if empty
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	k, v := attr.Key, attr.Value

	if v.Kind() == slog.KindGroup {
		gAttrs := v.Group()

		// rule: ignore empty groups; inline attrs if key is empty
		if len(gAttrs) == 0 {
			return
		}
		if len(k) > 0 {
			prefix = prefix + k + "."
		}
		for _, ga := range gAttrs {
			c.add(prefix, ga)
		}
		return
	}

	// rule: ignore non-group attrs with empty keys
	if len(k) == 0 {
		return
	}
	key := prefix + k

	switch v.Kind() {
	case slog.KindAny:
		a := v.Any()
		if err, ok := a.(error); ok {
			if c.err == nil {
				c.err = err
				return
			}
			c.props[key] = err.Error()
			return
		}
		c.props[key] = a
	case slog.KindBool:
		c.props[key] = v.Bool()
	case slog.KindDuration:
		c.props[key] = v.Duration()
	case slog.KindFloat64:
		c.props[key] = v.Float64()
	case slog.KindInt64:
		c.props[key] = v.Int64()
	case slog.KindString:
		c.props[key] = v.String()
	case slog.KindTime:
		c.props[key] = v.Time()
	case slog.KindUint64:
		c.props[key] = v.Uint64()
	default:
		InternalLogger().Warn().Str("key", key).Msgf("unknown slog.Value.Kind: %d", v.Kind())
	}
}

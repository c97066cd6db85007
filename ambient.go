package gelf

import (
	"context"
	"maps"
)

// AmbientContext provides the name/value pairs active when an event is
// encoded, such as request-scoped fields. Snapshot must return a map the
// caller may read without synchronization; the Encoder never writes to it.
type AmbientContext interface {
	Snapshot() map[string]any
}

// Properties is a plain map that satisfies AmbientContext.
type Properties map[string]any

// Snapshot returns p itself.
func (p Properties) Snapshot() map[string]any { return p }

type ambientKey struct{}

// ContextWithProperties returns a copy of ctx carrying props merged over any
// Properties already attached to ctx. Target and Handler read them back when
// FormattingOptions.IncludeAmbientContextProperties is set.
//
//	ctx = gelf.ContextWithProperties(ctx, gelf.Properties{
//		"request_id": reqID,
//		"method":     r.Method,
//	})
func ContextWithProperties(ctx context.Context, props Properties) context.Context {
	merged := make(Properties, len(props))
	if parent, ok := ctx.Value(ambientKey{}).(Properties); ok {
		maps.Copy(merged, parent)
	}
	maps.Copy(merged, props)
	return context.WithValue(ctx, ambientKey{}, merged)
}

// PropertiesFromContext returns the Properties attached to ctx, or nil.
func PropertiesFromContext(ctx context.Context) Properties {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(ambientKey{}).(Properties)
	return p
}

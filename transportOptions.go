package gelf

import "go.opentelemetry.io/otel/metric"

// TransportOptions are used to customize the Transport.
type TransportOptions struct {

	// Compression applied to every payload. The default is gzip.
	Compression Compression

	// IDs generates the message id of chunked messages. The default is an
	// IDGenerator that resolves the local address on every call.
	IDs MessageIDGenerator

	// Meter receives the transport metrics. The default is the meter of the
	// global OpenTelemetry meter provider.
	Meter metric.Meter

	// OnDrop is called when a message is dropped because its compressed size
	// needs more than MaxChunkCount chunks. Send still returns nil for such
	// messages.
	OnDrop func(dst Destination, compressedSize, chunks int)

	// Verbose controls whether debug logs are written to the internal logger.
	Verbose bool
}

// DefaultTransportOptions returns *TransportOptions with all default values.
func DefaultTransportOptions() *TransportOptions {
	return &TransportOptions{
		Compression: CompressGzip,
		IDs:         &IDGenerator{},
	}
}

// resolve ensures that all options have valid values.
func (o *TransportOptions) resolve() {

	// only the compressions GELF inputs detect
	if o.Compression != CompressGzip && o.Compression != CompressZlib && o.Compression != CompressNone {
		o.Compression = CompressGzip
	}

	if o.IDs == nil {
		o.IDs = &IDGenerator{}
	}
}

package gelf

import (
	"errors"
	"fmt"
)

// Transport compresses GELF payloads, chunks them when they exceed one
// datagram, and hands the datagrams to a DatagramSink.
//
// Messages that would need more than MaxChunkCount chunks are dropped: Send
// returns nil, nothing is written, and the drop is reported through the
// gelf.messages.dropped counter and the OnDrop option. Every other failure is
// returned to the caller, and nothing is retried.
//
// A Transport is safe for concurrent use when its sink is.
type Transport struct {
	*TransportOptions
	sink       DatagramSink
	compressor *Compressor
	chunker    *Chunker
	metrics    *transportMetrics
}

// NewTransport returns a Transport writing to sink. A nil opts uses
// DefaultTransportOptions.
func NewTransport(sink DatagramSink, opts *TransportOptions) (*Transport, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: datagram sink is required", ErrInvalidArgument)
	}

	if opts == nil {
		opts = DefaultTransportOptions()
	} else {
		opts.resolve()
	}

	m, err := newTransportMetrics(opts.Meter, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport metrics: %w", err)
	}

	return &Transport{
		TransportOptions: opts,
		sink:             sink,
		compressor:       NewCompressor(opts.Compression),
		chunker:          NewChunker(opts.IDs),
		metrics:          m,
	}, nil
}

// Send delivers one serialized payload to dst.
func (t *Transport) Send(dst Destination, payload []byte) error {
	if err := dst.Validate(); err != nil {
		return err
	}

	compressed, err := t.compressor.Compress(payload)
	if err != nil {
		t.metrics.recordError()
		return err
	}

	datagrams, err := t.chunker.Split(compressed)
	switch {
	case errors.Is(err, ErrTooManyChunks):
		n := numChunks(len(compressed))
		debugf(t.Verbose, "dropping message for %s: %d compressed bytes need %d chunks (max %d)",
			dst, len(compressed), n, MaxChunkCount)
		t.metrics.recordDropped(len(compressed))
		if t.OnDrop != nil {
			t.OnDrop(dst, len(compressed), n)
		}
		return nil
	case err != nil:
		t.metrics.recordError()
		return fmt.Errorf("failed to chunk message for %s: %w", dst, err)
	}

	if len(datagrams) == 1 {
		err = t.sink.SendOne(datagrams[0], dst)
	} else {
		err = t.sink.SendMany(datagrams, dst)
	}
	if err != nil {
		t.metrics.recordError()
		return err
	}

	t.metrics.recordSent(len(compressed), len(datagrams))
	debugf(t.Verbose, "sent message to %s: %d compressed bytes in %d datagram(s)", dst, len(compressed), len(datagrams))
	return nil
}

package gelf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Target encodes LogEvents and sends them to one GELF input. It is the
// complete pipeline: encode, serialize, compress, chunk, send.
//
//	t, err := gelf.NewTarget(gelf.Destination{Host: "graylog", Port: 12201}, nil, nil)
//	if err != nil {
//		log.Fatalln(err)
//	}
//	err = t.Write(ctx, &gelf.LogEvent{Message: "user signed in", Level: gelf.LevelInfo})
type Target struct {
	*TargetOptions
	dst       Destination
	sink      DatagramSink
	encoder   *Encoder
	transport *Transport
}

// NewTarget returns a Target for dst. A nil sink sends with a UDPSink (one
// socket per message); pass a Client to reuse sockets.
func NewTarget(dst Destination, sink DatagramSink, opts *TargetOptions) (*Target, error) {
	if err := dst.Validate(); err != nil {
		return nil, err
	}

	if sink == nil {
		sink = &UDPSink{}
	}

	if opts == nil {
		opts = DefaultTargetOptions()
	} else {
		opts.resolve()
	}

	tr, err := NewTransport(sink, opts.Transport)
	if err != nil {
		return nil, err
	}

	return &Target{
		TargetOptions: opts,
		dst:           dst,
		sink:          sink,
		encoder:       NewEncoder(),
		transport:     tr,
	}, nil
}

// Destination returns the GELF input the Target sends to.
func (t *Target) Destination() Destination { return t.dst }

// Write encodes ev and sends it. Events without a message are skipped and
// Write returns nil. Ambient properties are read from ctx when
// FormattingOptions.IncludeAmbientContextProperties is set.
func (t *Target) Write(ctx context.Context, ev *LogEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: log event is required", ErrInvalidArgument)
	}

	var ambient AmbientContext
	if t.Formatting.IncludeAmbientContextProperties {
		if p := PropertiesFromContext(ctx); p != nil {
			ambient = p
		}
	}

	m, err := t.encoder.Encode(ev, t.Formatting, ambient)
	if errors.Is(err, ErrEmptyMessage) {
		debugf(t.Verbose, "skipping log event without a message")
		return nil
	}
	if err != nil {
		return err
	}

	payload, err := t.Marshal(m)
	if err != nil {
		return err
	}

	return t.transport.Send(t.dst, payload)
}

// Marshal serializes m in the Target's Format.
func (t *Target) Marshal(m *Message) ([]byte, error) {
	if t.Format == FormatMsgpack {
		b, err := msgpack.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to encode message as msgpack: %w", err)
		}
		return b, nil
	}
	return m.AppendJSON(make([]byte, 0, 512)), nil
}

// Close closes the sink if it holds resources, such as a Client.
func (t *Target) Close() error {
	if c, ok := t.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

package gelf

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bitdabbler/gelf"

// transport instrument names
const (
	metricMessagesSent    = "gelf.messages.sent"
	metricChunksSent      = "gelf.chunks.sent"
	metricMessagesDropped = "gelf.messages.dropped"
	metricSendErrors      = "gelf.send.errors"
	metricCompressedSize  = "gelf.message.compressed_size"
)

type transportMetrics struct {
	sent    metric.Int64Counter
	chunks  metric.Int64Counter
	dropped metric.Int64Counter
	errors  metric.Int64Counter
	size    metric.Int64Histogram
	attrs   metric.MeasurementOption
}

// newTransportMetrics creates the transport instruments on meter, or on the
// global meter provider when meter is nil.
func newTransportMetrics(meter metric.Meter, compression Compression) (*transportMetrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	m := &transportMetrics{
		attrs: metric.WithAttributes(attribute.String("gelf.compression", compression.String())),
	}

	var err, e error
	m.sent, e = meter.Int64Counter(metricMessagesSent,
		metric.WithDescription("GELF messages handed to the datagram sink"),
		metric.WithUnit("{message}"))
	err = errors.Join(err, e)

	m.chunks, e = meter.Int64Counter(metricChunksSent,
		metric.WithDescription("Chunk datagrams of chunked GELF messages"),
		metric.WithUnit("{chunk}"))
	err = errors.Join(err, e)

	m.dropped, e = meter.Int64Counter(metricMessagesDropped,
		metric.WithDescription("GELF messages dropped because they need more than 128 chunks"),
		metric.WithUnit("{message}"))
	err = errors.Join(err, e)

	m.errors, e = meter.Int64Counter(metricSendErrors,
		metric.WithDescription("GELF messages that failed to send"),
		metric.WithUnit("{message}"))
	err = errors.Join(err, e)

	m.size, e = meter.Int64Histogram(metricCompressedSize,
		metric.WithDescription("Compressed GELF payload size"),
		metric.WithUnit("By"))
	err = errors.Join(err, e)

	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *transportMetrics) recordSent(size, chunks int) {
	ctx := context.Background()
	m.sent.Add(ctx, 1, m.attrs)
	m.size.Record(ctx, int64(size), m.attrs)
	if chunks > 1 {
		m.chunks.Add(ctx, int64(chunks), m.attrs)
	}
}

func (m *transportMetrics) recordDropped(size int) {
	ctx := context.Background()
	m.dropped.Add(ctx, 1, m.attrs)
	m.size.Record(ctx, int64(size), m.attrs)
}

func (m *transportMetrics) recordError() {
	m.errors.Add(context.Background(), 1, m.attrs)
}

package gelf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const testHost = "127.0.0.1"

// testServer is a GELF UDP input. It reassembles chunked messages,
// decompresses them and parses the JSON payload.
type testServer struct {
	conn      *net.UDPConn
	port      int
	datagrams chan []byte
	messages  chan *fastjson.Value
	partials  map[MessageID]*partialMessage
	*testServerOptions
}

type testServerOptions struct {
	verbose bool
}

type partialMessage struct {
	parts [][]byte
	got   int
}

func newTestServer(t *testing.T, opts *testServerOptions) *testServer {
	t.Helper()

	if opts == nil {
		opts = &testServerOptions{}
	}

	// assign port dynamically (use port 0 to assign dynamically)
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(testHost)})
	require.NoError(t, err, "failed to start test server listener")

	s := &testServer{
		conn:              conn,
		port:              conn.LocalAddr().(*net.UDPAddr).Port,
		datagrams:         make(chan []byte, 1024),
		messages:          make(chan *fastjson.Value, 128),
		partials:          make(map[MessageID]*partialMessage),
		testServerOptions: opts,
	}
	t.Cleanup(s.Shutdown)

	go s.serve()

	return s
}

func (s *testServer) destination() Destination {
	return Destination{Host: testHost, Port: s.port}
}

func (s *testServer) Shutdown() {
	s.conn.Close()
}

func (s *testServer) serve() {
	buf := make([]byte, 1<<16)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			s.debug("stopped reading: %v", err)
			return
		}
		d := bytes.Clone(buf[:n])

		select {
		case s.datagrams <- d:
		default:
			s.debug("datagram buffer full; not recording raw datagram")
		}

		payload, ok := s.reassemble(d)
		if !ok {
			continue
		}
		v, err := decodePayload(payload)
		if err != nil {
			s.debug("failed to decode GELF message: %v", err)
			continue
		}
		s.messages <- v
	}
}

// reassemble returns the complete compressed payload once every chunk of its
// message has arrived.
func (s *testServer) reassemble(d []byte) ([]byte, bool) {
	if len(d) < ChunkHeaderSize || d[0] != magicChunked[0] || d[1] != magicChunked[1] {
		return d, true
	}

	var id MessageID
	copy(id[:], d[2:10])
	seq, total := int(d[10]), int(d[11])

	p, ok := s.partials[id]
	if !ok {
		p = &partialMessage{parts: make([][]byte, total)}
		s.partials[id] = p
	}
	if p.parts[seq] == nil {
		p.parts[seq] = d[ChunkHeaderSize:]
		p.got++
	}
	if p.got < total {
		return nil, false
	}

	delete(s.partials, id)
	return bytes.Join(p.parts, nil), true
}

func (s *testServer) nextMessage(t *testing.T) *fastjson.Value {
	t.Helper()

	timeout, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case <-timeout.Done():
		t.Fatal("GELF message was not received in time")
		return nil
	case v := <-s.messages:
		return v
	}
}

func (s *testServer) debug(format string, args ...any) {
	debugf(s.verbose, "testServer: "+format, args...)
}

// decodePayload detects the compression by its magic bytes, like GELF inputs
// do, and parses the JSON.
func decodePayload(payload []byte) (*fastjson.Value, error) {
	raw, err := decompress(payload)
	if err != nil {
		return nil, err
	}
	return fastjson.ParseBytes(raw)
}

func decompress(payload []byte) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch {
	case len(payload) > 1 && payload[0] == 0x1f && payload[1] == 0x8b:
		r, err = gzip.NewReader(bytes.NewReader(payload))
	case len(payload) > 0 && payload[0] == 0x78:
		r, err = zlib.NewReader(bytes.NewReader(payload))
	default:
		return payload, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// recordingSink is a DatagramSink that records datagrams rather than send
// them.
type recordingSink struct {
	mu    sync.Mutex
	calls [][][]byte
	dsts  []Destination
	err   error
}

func (s *recordingSink) SendOne(datagram []byte, dst Destination) error {
	return s.SendMany([][]byte{datagram}, dst)
}

func (s *recordingSink) SendMany(datagrams [][]byte, dst Destination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, datagrams)
	s.dsts = append(s.dsts, dst)
	return nil
}

func (s *recordingSink) sent() [][][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// lastMessage decodes the last message sent, which must fit one datagram.
func (s *recordingSink) lastMessage(t *testing.T) *fastjson.Value {
	t.Helper()

	calls := s.sent()
	require.NotEmpty(t, calls, "nothing was sent")
	last := calls[len(calls)-1]
	require.Len(t, last, 1, "expected an unchunked message")

	v, err := decodePayload(last[0])
	require.NoError(t, err)
	return v
}

// recordingWriter is an EventWriter that records events rather than encode
// them.
type recordingWriter struct {
	events []*LogEvent
	ctxs   []context.Context
	closed bool
	err    error
}

func (w *recordingWriter) Write(ctx context.Context, ev *LogEvent) error {
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, ev)
	w.ctxs = append(w.ctxs, ctx)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func (w *recordingWriter) last(t *testing.T) *LogEvent {
	t.Helper()
	require.NotEmpty(t, w.events, "no event was written")
	return w.events[len(w.events)-1]
}

// staticIDs always returns the same MessageID and counts calls.
type staticIDs struct {
	id    MessageID
	calls int
	err   error
}

func (g *staticIDs) Generate([]byte) (MessageID, error) {
	g.calls++
	return g.id, g.err
}

var errTestSink = errors.New("sink unavailable")

// sumCounter adds up the data points of the int64 counter named name.
func sumCounter(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				panic(fmt.Sprintf("metric %s is %T, not an int64 sum", name, m.Data))
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

// fieldString returns the string value of key in a parsed message.
func fieldString(v *fastjson.Value, key string) string {
	return string(v.GetStringBytes(key))
}

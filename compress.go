package gelf

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression selects how payloads are compressed before they are sent. GELF
// UDP inputs detect GZIP and ZLIB by their magic bytes and also accept
// uncompressed JSON.
type Compression int

const (
	// CompressGzip is the default.
	CompressGzip Compression = iota
	CompressZlib
	CompressNone
)

func (c Compression) String() string {
	switch c {
	case CompressGzip:
		return "gzip"
	case CompressZlib:
		return "zlib"
	case CompressNone:
		return "none"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ParseCompression parses "gzip", "zlib" or "none".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "gzip", "":
		return CompressGzip, nil
	case "zlib":
		return CompressZlib, nil
	case "none":
		return CompressNone, nil
	}
	return 0, fmt.Errorf("%w: unknown compression %q", ErrInvalidArgument, s)
}

// resetWriter is satisfied by both *gzip.Writer and *zlib.Writer.
type resetWriter interface {
	io.WriteCloser
	Reset(io.Writer)
}

// Compressor compresses payloads favoring ratio over speed. Writers are
// pooled; a Compressor is safe for concurrent use and its output depends only
// on its input.
type Compressor struct {
	kind Compression
	pool sync.Pool
}

// NewCompressor returns a Compressor for the given kind. Unknown kinds fall
// back to gzip.
func NewCompressor(kind Compression) *Compressor {
	if kind != CompressZlib && kind != CompressNone {
		kind = CompressGzip
	}
	c := &Compressor{kind: kind}
	c.pool.New = func() any {
		var w resetWriter
		var err error
		switch c.kind {
		case CompressZlib:
			w, err = zlib.NewWriterLevel(io.Discard, zlib.BestCompression)
		default:
			w, err = gzip.NewWriterLevel(io.Discard, gzip.BestCompression)
		}
		if err != nil {
			// unreachable with a constant, valid level
			InternalLogger().Error().Err(err).Msg("failed to create compression writer")
			return nil
		}
		return w
	}
	return c
}

// Kind reports the compression used.
func (c *Compressor) Kind() Compression { return c.kind }

// Compress returns the compressed form of payload.
func (c *Compressor) Compress(payload []byte) ([]byte, error) {
	if c.kind == CompressNone {
		return bytes.Clone(payload), nil
	}

	w, ok := c.pool.Get().(resetWriter)
	if !ok {
		return nil, fmt.Errorf("failed to get %s writer", c.kind)
	}
	defer c.pool.Put(w)

	buf := bytes.NewBuffer(make([]byte, 0, len(payload)/2+64))
	w.Reset(buf)
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to %s compress payload: %w", c.kind, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish %s stream: %w", c.kind, err)
	}
	return buf.Bytes(), nil
}

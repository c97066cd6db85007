package gelf

// Chunked GELF framing. A compressed message that does not fit in one datagram
// is split into chunks, each prefixed with a 12 byte header:
//
// +------+------+------------------+-----+-------+
// |    0 |    1 | 2 ... 9          |  10 |    11 |
// +------+------+------------------+-----+-------+
// | 0x1e | 0x0f | message id       | seq | total |
// +------+------+------------------+-----+-------+
//
//	ref: https://go2docs.graylog.org/current/getting_in_log_data/gelf.html#GELFviaUDP
const (
	// MaxDatagramSize is the largest datagram sent. Messages up to this size
	// are sent whole, without a chunk header.
	MaxDatagramSize = 8192

	// ChunkHeaderSize is the size of the chunk header.
	ChunkHeaderSize = 12

	// MaxChunkDataSize is the payload capacity of one chunk.
	MaxChunkDataSize = MaxDatagramSize - ChunkHeaderSize

	// MaxChunkCount is limited by the protocol; messages that need more chunks
	// are dropped.
	MaxChunkCount = 128
)

var magicChunked = [2]byte{0x1e, 0x0f}

// numChunks returns the number of chunks needed for n compressed bytes, or 1
// when they fit in a single datagram.
func numChunks(n int) int {
	if n <= MaxDatagramSize {
		return 1
	}
	return (n + MaxChunkDataSize - 1) / MaxChunkDataSize
}

// Chunker decides whether a compressed payload fits one datagram and frames
// it into chunks when it does not. It is safe for concurrent use.
type Chunker struct {
	ids MessageIDGenerator
}

// NewChunker returns a Chunker using ids for message ids. A nil ids uses a
// default IDGenerator.
func NewChunker(ids MessageIDGenerator) *Chunker {
	if ids == nil {
		ids = &IDGenerator{}
	}
	return &Chunker{ids: ids}
}

// Split returns the datagrams to send for compressed, in send order.
//
//   - up to MaxDatagramSize bytes: one datagram, the payload itself, unframed
//   - more than MaxChunkCount chunks needed: nil and ErrTooManyChunks
//   - otherwise: one framed chunk per MaxChunkDataSize slice, sequence numbers
//     0..n-1, all sharing one message id
//
// Split returns ErrNoLocalAddress, and no datagrams, if the message id cannot
// be generated.
func (c *Chunker) Split(compressed []byte) ([][]byte, error) {
	n := numChunks(len(compressed))
	if n == 1 {
		return [][]byte{compressed}, nil
	}
	if n > MaxChunkCount {
		return nil, ErrTooManyChunks
	}

	id, err := c.ids.Generate(compressed)
	if err != nil {
		return nil, err
	}

	// one backing array; each chunk gets its own, non-overlapping slice
	buf := make([]byte, n*ChunkHeaderSize+len(compressed))
	chunks := make([][]byte, n)
	for i := 0; i < n; i++ {
		data := compressed[i*MaxChunkDataSize : min((i+1)*MaxChunkDataSize, len(compressed))]
		size := ChunkHeaderSize + len(data)

		chunk := buf[:size:size]
		buf = buf[size:]

		chunk[0], chunk[1] = magicChunked[0], magicChunked[1]
		copy(chunk[2:10], id[:])
		chunk[10] = byte(i)
		chunk[11] = byte(n)
		copy(chunk[ChunkHeaderSize:], data)

		chunks[i] = chunk
	}
	return chunks, nil
}

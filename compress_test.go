package gelf

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressor_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"short_message":"repetitive payload"}`), 200)

	tests := []struct {
		kind  Compression
		magic []byte
	}{
		{CompressGzip, []byte{0x1f, 0x8b}},
		{CompressZlib, []byte{0x78}},
		{CompressNone, []byte(`{"short`)},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.kind.String(), func(t *testing.T) {
			c := NewCompressor(tt.kind)
			assert.Equal(t, tt.kind, c.Kind())

			out, err := c.Compress(payload)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, tt.magic))
			if tt.kind != CompressNone {
				assert.Less(t, len(out), len(payload))
			}

			raw, err := decompress(out)
			require.NoError(t, err)
			assert.Equal(t, payload, raw)
		})
	}
}

func TestCompressor_NoneCopies(t *testing.T) {
	payload := []byte("abc")
	out, err := NewCompressor(CompressNone).Compress(payload)
	require.NoError(t, err)

	out[0] = 'x'
	assert.Equal(t, []byte("abc"), payload)
}

func TestCompressor_ConcurrentUse(t *testing.T) {
	c := NewCompressor(CompressGzip)
	payload := bytes.Repeat([]byte("concurrent "), 500)

	want, err := c.Compress(payload)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Compress(payload)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got, "output depends only on input")
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		input   string
		expect  Compression
		wantErr bool
	}{
		{"gzip", CompressGzip, false},
		{"", CompressGzip, false},
		{"ZLIB", CompressZlib, false},
		{"none", CompressNone, false},
		{"snappy", 0, true},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCompression(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

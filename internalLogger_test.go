package gelf

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetInternalLogger(t *testing.T) {
	prev := *InternalLogger()
	t.Cleanup(func() { SetInternalLogger(prev) })

	var buf bytes.Buffer
	SetInternalLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	debugf(false, "quiet %d", 1)
	assert.Zero(t, buf.Len(), "debug lines need verbose")

	debugf(true, "loud %d", 2)
	assert.Contains(t, buf.String(), `"message":"loud 2"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

const streamPayload = `{"type":"papers","content":[{"id":"W1","title":"First","authors":[],"year":2020,"url":"u","citedByCount":0}]}
{"type":"aiResponse","content":"Hello ","done":false}
{"type":"aiResponse","content":"world [1].","done":false}
{"type":"aiResponse","content":"","done":true}
`

func feedAll(d *Decoder, payload []byte, chunkSize int) []domain.Frame {
	var frames []domain.Frame
	for i := 0; i < len(payload); i += chunkSize {
		end := i + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		frames = append(frames, d.Feed(payload[i:end])...)
	}
	return append(frames, d.Close()...)
}

func TestDecoderChunkSplitInvariance(t *testing.T) {
	payload := []byte(streamPayload)

	whole := feedAll(NewDecoder(zap.NewNop()), payload, len(payload))
	require.Len(t, whole, 4)

	// Any chunking of the same bytes must reassemble identical frames, even
	// when boundaries fall mid-JSON-object.
	for _, size := range []int{1, 2, 3, 7, 16, 61, 128} {
		got := feedAll(NewDecoder(zap.NewNop()), payload, size)
		assert.Equal(t, whole, got, "chunk size %d", size)
	}
}

func TestDecoderSkipsMalformedLines(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	frames := d.Feed([]byte("{\"type\":\"aiResponse\",\"content\":\"ok\",\"done\":false}\nnot json at all\n{\"type\":\"aiResponse\",\"content\":\"\",\"done\":true}\n"))
	require.Len(t, frames, 2)
	assert.Equal(t, "ok", frames[0].Content)
	assert.True(t, frames[1].Done)
}

func TestDecoderParsesResidueAtEOF(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	// Final frame arrives without a trailing newline.
	frames := d.Feed([]byte(`{"type":"aiResponse","content":"tail","done":false}`))
	assert.Empty(t, frames)

	frames = d.Close()
	require.Len(t, frames, 1)
	assert.Equal(t, "tail", frames[0].Content)
}

func TestDecoderIgnoresWhitespaceResidue(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	d.Feed([]byte("  \n "))
	assert.Empty(t, d.Close())
}

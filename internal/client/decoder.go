package client

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

// Decoder reassembles newline-delimited JSON frames from a byte stream whose
// chunk boundaries may fall anywhere, including mid-object. It keeps the
// trailing incomplete line buffered between feeds.
type Decoder struct {
	buf    strings.Builder
	logger *zap.Logger
}

// NewDecoder creates a frame decoder.
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Feed appends a received chunk and returns every complete frame it now
// holds. A line that fails to parse is logged and dropped; it does not abort
// the stream.
func (d *Decoder) Feed(chunk []byte) []domain.Frame {
	d.buf.Write(chunk)

	data := d.buf.String()
	lines := strings.Split(data, "\n")

	// The final element is the (possibly empty) incomplete tail.
	tail := lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	d.buf.Reset()
	d.buf.WriteString(tail)

	return d.parseLines(lines)
}

// Close parses any non-whitespace residue left at end-of-input and resets
// the decoder.
func (d *Decoder) Close() []domain.Frame {
	residue := d.buf.String()
	d.buf.Reset()
	if strings.TrimSpace(residue) == "" {
		return nil
	}
	return d.parseLines([]string{residue})
}

func (d *Decoder) parseLines(lines []string) []domain.Frame {
	var frames []domain.Frame
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var frame domain.Frame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			d.logger.Warn("dropping malformed stream line",
				zap.String("line", line),
				zap.Error(err),
			)
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

package client

import (
	"regexp"
	"strconv"

	"github.com/deepscience/deepscience/internal/domain"
)

// citationPattern matches bracketed numeric references like [3]. Non-numeric
// bracket contents are never matched and stay literal text.
var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// Segment is one token of a resolved answer: either literal text (to which
// markdown formatting applies) or a citation bound to a paper.
type Segment struct {
	Text     string
	Citation bool
	Ordinal  int    // 1-based, set for citation segments
	PaperID  string // join key into the papers list, set for citation segments
}

// ResolveCitations splits a completed answer into text and citation
// segments. An ordinal n resolves to papers[n-1] iff 1 <= n <= len(papers);
// out-of-range ordinals pass through as literal text. Callers must only
// invoke this once the stream is complete, never against partial text.
func ResolveCitations(answer string, papers []domain.Paper) []Segment {
	var segments []Segment
	last := 0

	for _, m := range citationPattern.FindAllStringSubmatchIndex(answer, -1) {
		start, end := m[0], m[1]
		ordinal, err := strconv.Atoi(answer[m[2]:m[3]])
		if err != nil || ordinal < 1 || ordinal > len(papers) {
			// Out of range: leave the bracket text in the surrounding span.
			continue
		}

		if start > last {
			segments = append(segments, Segment{Text: answer[last:start]})
		}
		segments = append(segments, Segment{
			Text:     answer[start:end],
			Citation: true,
			Ordinal:  ordinal,
			PaperID:  papers[ordinal-1].ID,
		})
		last = end
	}

	if last < len(answer) {
		segments = append(segments, Segment{Text: answer[last:]})
	}
	return segments
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

func collectFrames(t *testing.T, frames <-chan domain.Frame) []domain.Frame {
	t.Helper()
	var got []domain.Frame
	for f := range frames {
		got = append(got, f)
	}
	return got
}

func testPapers() []domain.Paper {
	return []domain.Paper{
		{ID: "W1", Title: "First", Authors: []string{"Ada"}, Year: 2020, Abstract: "about things"},
		{ID: "W2", Title: "Second", Authors: []string{"Ben", "Cas"}, Year: 2021},
	}
}

func TestSynthesizeNoPapersShortCircuits(t *testing.T) {
	provider := &fakeProvider{streamDeltas: []string{"should never be seen"}}
	svc := NewAnswerService(provider, 0, 0, zap.NewNop())

	got := collectFrames(t, svc.Synthesize(context.Background(), "anything", nil))

	require.Len(t, got, 2)
	assert.Equal(t, domain.FrameTypePapers, got[0].Type)
	assert.Empty(t, got[0].Papers)
	assert.Equal(t, domain.DoneFrame(NoResultsMessage), got[1])

	_, streams := provider.calls()
	assert.Zero(t, streams, "completion service must not be called with zero papers")
}

func TestSynthesizeStreamsFrames(t *testing.T) {
	provider := &fakeProvider{streamDeltas: []string{"The ", "answer ", "[1]."}}
	svc := NewAnswerService(provider, 0, 0, zap.NewNop())

	got := collectFrames(t, svc.Synthesize(context.Background(), "what is it", testPapers()))

	require.Len(t, got, 5)
	assert.Equal(t, domain.FrameTypePapers, got[0].Type)
	assert.Len(t, got[0].Papers, 2)
	assert.Equal(t, domain.TextFrame("The "), got[1])
	assert.Equal(t, domain.TextFrame("answer "), got[2])
	assert.Equal(t, domain.TextFrame("[1]."), got[3])
	assert.Equal(t, domain.DoneFrame(""), got[4])
	assert.True(t, got[4].Terminal())
}

func TestSynthesizeMidStreamFailure(t *testing.T) {
	provider := &fakeProvider{
		streamDeltas: []string{"partial "},
		streamErr:    errors.New("upstream hiccup"),
	}
	svc := NewAnswerService(provider, 0, 0, zap.NewNop())

	got := collectFrames(t, svc.Synthesize(context.Background(), "q", testPapers()))

	require.Len(t, got, 3)
	assert.Equal(t, domain.TextFrame("partial "), got[1])
	assert.Equal(t, domain.FrameTypeError, got[2].Type)
	assert.True(t, got[2].Terminal())
}

func TestSynthesizePromptCarriesOrdinals(t *testing.T) {
	provider := &fakeProvider{streamDeltas: []string{"ok"}}
	svc := NewAnswerService(provider, 800, 0.5, zap.NewNop())

	collectFrames(t, svc.Synthesize(context.Background(), "my question", testPapers()))

	require.Len(t, provider.lastHistory, 2)
	assert.Equal(t, "system", provider.lastHistory[0].Role)
	assert.Contains(t, provider.lastHistory[0].Content, "[1] [2] [3]")

	user := provider.lastHistory[1].Content
	assert.Contains(t, user, "User Query: my question")
	assert.Contains(t, user, "Paper 1:\nTitle: First")
	assert.Contains(t, user, "Paper 2:\nTitle: Second")
	assert.Contains(t, user, "Authors: Ben, Cas")
	assert.Contains(t, user, "Abstract: about things")

	assert.Equal(t, 800, provider.lastOptions.MaxTokens)
	assert.InDelta(t, 0.5, provider.lastOptions.Temperature, 1e-9)
}

func TestSynthesizeTruncatesLongAbstracts(t *testing.T) {
	long := strings.Repeat("x", abstractLimit+100)
	provider := &fakeProvider{streamDeltas: []string{"ok"}}
	svc := NewAnswerService(provider, 0, 0, zap.NewNop())

	papers := []domain.Paper{{ID: "W1", Title: "Long", Abstract: long}}
	collectFrames(t, svc.Synthesize(context.Background(), "q", papers))

	user := provider.lastHistory[1].Content
	assert.Contains(t, user, strings.Repeat("x", abstractLimit)+"...")
	assert.NotContains(t, user, strings.Repeat("x", abstractLimit+1))
}

func TestSynthesizeCancelledContextStopsStream(t *testing.T) {
	deltas := make([]string, 5000)
	for i := range deltas {
		deltas[i] = "x"
	}
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{streamDeltas: deltas}
	svc := NewAnswerService(provider, 0, 0, zap.NewNop())

	frames := svc.Synthesize(ctx, "q", testPapers())
	<-frames // opening papers frame
	cancel()

	count := 0
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for range frames {
			count++
		}
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate after cancellation")
	}
	assert.Less(t, count, len(deltas))
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
	"github.com/deepscience/deepscience/internal/llm"
)

// systemPrompt fixes the assistant's persona and the inline citation format.
// Citations are 1-based bracketed ordinals matching the order of the papers
// frame, which is what the client resolves against.
const systemPrompt = `You are DeepScience, an AI research assistant that helps users understand scientific papers and research topics.
Your goal is to provide accurate, concise, and helpful information based on scientific papers.

When responding to queries:
1. Provide clear, concise explanations that are accessible to someone with a basic understanding of the field
2. Cite specific papers when making claims using this format: Numerical reference: [paper_number] where paper_number is the paper's index, in plural form [1] [2] [3] etc.
3. Acknowledge limitations or uncertainties in the research
4. Avoid speculation beyond what the papers support
5. Format your response in markdown for readability
6. Don't include other references or citations in your response

Remember that you are helping researchers understand complex topics, so clarity and accuracy are essential.`

// NoResultsMessage closes the stream when retrieval found nothing; the
// completion service is never called in that case.
const NoResultsMessage = "I couldn't find any relevant papers for your query. Please try different search terms."

// streamFailureMessage is the error frame content for a mid-stream
// completion failure. Upstream detail stays in the logs.
const streamFailureMessage = "Failed to generate AI response"

// abstractLimit bounds how much of each abstract goes into the prompt.
const abstractLimit = 1500

// AnswerService is the answer synthesizer: it builds the completion prompt
// from the query and papers and re-emits the token stream as frames.
type AnswerService struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// NewAnswerService creates a new answer service
func NewAnswerService(provider llm.Provider, maxTokens int, temperature float64, logger *zap.Logger) *AnswerService {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	if temperature <= 0 {
		temperature = 0.5
	}
	return &AnswerService{
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Synthesize streams the frames for one query: the papers frame first, then
// answer increments, then exactly one terminal frame. The returned channel is
// unbuffered so transport back-pressure reaches the provider read loop, and
// it is closed after the terminal frame. Cancelling ctx stops the stream.
func (s *AnswerService) Synthesize(ctx context.Context, query string, papers []domain.Paper) <-chan domain.Frame {
	frames := make(chan domain.Frame)

	go func() {
		defer close(frames)

		if !s.emit(ctx, frames, domain.PapersFrame(papers)) {
			return
		}

		if len(papers) == 0 {
			s.emit(ctx, frames, domain.DoneFrame(NoResultsMessage))
			return
		}

		history := []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(query, papers)},
		}

		deltas, errs := s.provider.ChatStream(ctx, history,
			llm.WithTemperature(s.temperature),
			llm.WithMaxTokens(s.maxTokens),
		)

		for delta := range deltas {
			if delta == "" {
				continue
			}
			if !s.emit(ctx, frames, domain.TextFrame(delta)) {
				return
			}
		}

		if err := <-errs; err != nil {
			s.logger.Error("completion stream failed",
				zap.String("query", query),
				zap.Error(err),
			)
			s.emit(ctx, frames, domain.ErrorFrame(streamFailureMessage))
			return
		}

		s.emit(ctx, frames, domain.DoneFrame(""))
	}()

	return frames
}

func (s *AnswerService) emit(ctx context.Context, frames chan<- domain.Frame, f domain.Frame) bool {
	select {
	case frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildUserMessage serializes the query and each paper with its 1-based
// ordinal, which is the citation index the model is told to emit.
func buildUserMessage(query string, papers []domain.Paper) string {
	var contexts []string
	for i, paper := range papers {
		authors := strings.Join(paper.Authors, ", ")
		if authors == "" {
			authors = "Unknown authors"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Paper %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", paper.Title)
		fmt.Fprintf(&b, "Authors: %s\n", authors)
		fmt.Fprintf(&b, "Year: %d\n", paper.Year)
		if paper.Abstract != "" {
			fmt.Fprintf(&b, "Abstract: %s\n", truncate(paper.Abstract, abstractLimit))
		}
		contexts = append(contexts, b.String())
	}

	return fmt.Sprintf(`
User Query: %s

Here are some relevant scientific papers that might help answer this query:

%s

Based on these papers, please provide a comprehensive answer to the user's query.
`, query, strings.Join(contexts, "\n\n"))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

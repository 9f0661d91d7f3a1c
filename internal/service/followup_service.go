package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/llm"
)

const followUpSystemPrompt = "You are a helpful assistant that generates relevant follow-up questions based on a user's query and an AI response. Return a JSON object with an array of follow-up questions under the key 'questions'."

// maxFollowUps caps how many questions are ever returned.
const maxFollowUps = 5

// answerExcerptLimit bounds how much of the answer goes into the prompt.
const answerExcerptLimit = 1500

// FollowUpService generates suggested next queries from a completed answer.
// Failure here is non-fatal: any provider or parse problem yields an empty
// list and is never surfaced to the user.
type FollowUpService struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// NewFollowUpService creates a new follow-up service
func NewFollowUpService(provider llm.Provider, maxTokens int, temperature float64, logger *zap.Logger) *FollowUpService {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if temperature <= 0 {
		temperature = 0.7
	}
	return &FollowUpService{
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate requests 3-5 follow-up questions for the (query, answer) pair.
// Always returns a non-nil slice of at most 5 questions.
func (s *FollowUpService) Generate(ctx context.Context, query, answer string) []string {
	if strings.TrimSpace(query) == "" || strings.TrimSpace(answer) == "" {
		return []string{}
	}

	prompt := fmt.Sprintf(`
Based on the following user query and AI response, generate 3-5 relevant follow-up questions that the user might want to ask next.
The questions should be concise, diverse, and help the user explore the topic further.

Original Query: %q

AI Response: %q

Only return the JSON array, nothing else.
`, query, truncate(answer, answerExcerptLimit))

	history := []llm.Message{
		{Role: "system", Content: followUpSystemPrompt},
		{Role: "user", Content: prompt},
	}

	content, err := s.provider.Chat(ctx, history,
		llm.WithTemperature(s.temperature),
		llm.WithMaxTokens(s.maxTokens),
		llm.WithJSONMode(),
	)
	if err != nil {
		s.logger.Warn("follow-up generation failed", zap.Error(err))
		return []string{}
	}

	questions := decodeQuestions(content)
	if len(questions) == 0 {
		s.logger.Debug("follow-up response had no recognizable questions",
			zap.String("content", content),
		)
	}
	return questions
}

// decodeQuestions is a tolerant best-effort decoder for the shapes a
// non-deterministic model actually returns: a bare array, a "questions" key,
// a followUpQuestions/follow_up_questions key, or a malformed object whose
// keys or values happen to contain question-like strings. Unrecognized
// shapes decode to an empty list.
func decodeQuestions(content string) []string {
	content = strings.TrimSpace(content)

	var bare []any
	if err := json.Unmarshal([]byte(content), &bare); err == nil {
		return filterQuestions(bare)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return []string{}
	}

	for _, key := range []string{"questions", "followUpQuestions", "follow_up_questions"} {
		if raw, ok := obj[key]; ok {
			if arr, ok := raw.([]any); ok {
				if qs := filterQuestions(arr); len(qs) > 0 {
					return qs
				}
			}
		}
	}

	// Heuristic fallback: scan keys and values for question-like strings.
	var extracted []any
	for key := range obj {
		if strings.Contains(key, "?") {
			extracted = append(extracted, key)
		}
	}
	for _, value := range obj {
		switch v := value.(type) {
		case string:
			if strings.Contains(v, "?") {
				extracted = append(extracted, v)
			}
		case []any:
			extracted = append(extracted, v...)
		}
	}
	return filterQuestions(extracted)
}

func filterQuestions(items []any) []string {
	questions := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			questions = append(questions, s)
		}
		if len(questions) == maxFollowUps {
			break
		}
	}
	return questions
}

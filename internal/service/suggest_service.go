package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/llm"
)

const suggestSystemPrompt = "You are a helpful assistant that generates search suggestions for a scientific research assistant. Generate 5 search suggestions based on the user's partial query. Return the suggestions in a JSON object with a 'suggestions' array."

// SuggestService produces autocomplete suggestions for partial queries. A
// short-lived cache absorbs keystroke bursts that repeat the same prefix.
type SuggestService struct {
	provider  llm.Provider
	maxTokens int
	cache     *gocache.Cache
	logger    *zap.Logger
}

// NewSuggestService creates a new suggestion service
func NewSuggestService(provider llm.Provider, maxTokens int, cacheTTL time.Duration, logger *zap.Logger) *SuggestService {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SuggestService{
		provider:  provider,
		maxTokens: maxTokens,
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
		logger:    logger,
	}
}

// Suggest returns up to 5 search suggestions for a partial query. A blank
// query or any provider failure yields an empty list without error.
func (s *SuggestService) Suggest(ctx context.Context, partial string) []string {
	key := strings.ToLower(strings.TrimSpace(partial))
	if key == "" {
		return []string{}
	}

	if cached, ok := s.cache.Get(key); ok {
		return cached.([]string)
	}

	history := []llm.Message{
		{Role: "system", Content: suggestSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Generate 5 search suggestions for: %q", partial)},
	}

	content, err := s.provider.Chat(ctx, history,
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(s.maxTokens),
		llm.WithJSONMode(),
	)
	if err != nil {
		s.logger.Warn("suggestion generation failed", zap.Error(err))
		return []string{}
	}

	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		s.logger.Warn("suggestion response was not valid JSON", zap.Error(err))
		return []string{}
	}
	if parsed.Suggestions == nil {
		parsed.Suggestions = []string{}
	}

	s.cache.SetDefault(key, parsed.Suggestions)
	return parsed.Suggestions
}

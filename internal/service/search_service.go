package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

// PaperSearcher is the bibliographic provider contract the retrieval adapter
// depends on.
type PaperSearcher interface {
	Search(ctx context.Context, query string, page, perPage int) ([]domain.Paper, error)
}

// SearchService is the retrieval adapter: one provider search per query,
// normalized and order-preserving. Provider failure degrades to zero results
// rather than failing the request.
type SearchService struct {
	searcher PaperSearcher
	perPage  int
	logger   *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(searcher PaperSearcher, perPage int, logger *zap.Logger) *SearchService {
	if perPage <= 0 {
		perPage = 10
	}
	return &SearchService{
		searcher: searcher,
		perPage:  perPage,
		logger:   logger,
	}
}

// Search returns the ranked papers for a query. The provider's relevance
// ranking is authoritative and is never re-sorted. Any upstream failure is
// logged and absorbed as an empty list.
func (s *SearchService) Search(ctx context.Context, query string) []domain.Paper {
	if strings.TrimSpace(query) == "" {
		return []domain.Paper{}
	}

	papers, err := s.searcher.Search(ctx, query, 1, s.perPage)
	if err != nil {
		s.logger.Warn("paper search failed, continuing with no results",
			zap.String("query", query),
			zap.Error(err),
		)
		return []domain.Paper{}
	}
	if papers == nil {
		papers = []domain.Paper{}
	}
	return papers
}

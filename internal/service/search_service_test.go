package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

type fakeSearcher struct {
	papers []domain.Paper
	err    error
	calls  int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page, perPage int) ([]domain.Paper, error) {
	f.calls++
	return f.papers, f.err
}

func TestSearchAbsorbsProviderFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	svc := NewSearchService(searcher, 10, zap.NewNop())

	got := svc.Search(context.Background(), "quantum computing")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchPreservesOrder(t *testing.T) {
	searcher := &fakeSearcher{papers: []domain.Paper{{ID: "W2"}, {ID: "W1"}, {ID: "W3"}}}
	svc := NewSearchService(searcher, 10, zap.NewNop())

	got := svc.Search(context.Background(), "q")
	assert.Equal(t, []string{"W2", "W1", "W3"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSearchSkipsBlankQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewSearchService(searcher, 10, zap.NewNop())

	assert.Empty(t, svc.Search(context.Background(), "   "))
	assert.Zero(t, searcher.calls)
}

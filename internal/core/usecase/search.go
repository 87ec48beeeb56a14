package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
)

type SearchUseCase struct {
	repo     ports.DocumentRepository
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewSearchUseCase(repo ports.DocumentRepository, embedder ports.Embedder, index ports.VectorIndex) *SearchUseCase {
	return &SearchUseCase{repo: repo, embedder: embedder, index: index}
}

// Search ranks embedded documents against the query. The index snapshot is
// rebuilt from persisted embeddings on every call, so results produced by a
// separate worker process are visible without coordination.
func (uc *SearchUseCase) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is required"))
	}
	if topK <= 0 {
		topK = 5
	}

	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if err := uc.refreshIndex(ctx); err != nil {
		return nil, err
	}
	return uc.index.Search(vector, topK), nil
}

func (uc *SearchUseCase) refreshIndex(ctx context.Context) error {
	docs, err := uc.repo.ListEmbedded(ctx)
	if err != nil {
		return fmt.Errorf("list embedded documents: %w", err)
	}
	if err := uc.index.Replace(docs); err != nil {
		return fmt.Errorf("rebuild vector index: %w", err)
	}
	return nil
}

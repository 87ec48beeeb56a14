package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/solvify/docpipe/internal/core/domain"
)

func TestSearchRejectsBlankQuery(t *testing.T) {
	uc := NewSearchUseCase(newRepoFake(), &embedderFake{}, &indexFake{})

	_, err := uc.Search(context.Background(), "   ", 5)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestSearchRebuildsIndexFromPersistedEmbeddings(t *testing.T) {
	repo := newRepoFake()
	repo.embedded = []domain.Document{
		{ID: "doc-1", Filename: "invoice.pdf", Embedding: []float32{1, 0}},
	}
	index := &indexFake{results: []domain.SearchResult{
		{Score: 0.9, DocumentID: "doc-1", Filename: "invoice.pdf"},
	}}
	embedder := &embedderFake{vector: []float32{1, 0}}
	uc := NewSearchUseCase(repo, embedder, index)

	results, err := uc.Search(context.Background(), "acme invoice", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].DocumentID != "doc-1" {
		t.Fatalf("results = %+v", results)
	}
	if len(index.replaced) != 1 || len(index.replaced[0]) != 1 {
		t.Fatalf("index not rebuilt from repository: %+v", index.replaced)
	}
	if len(embedder.queries) != 1 || embedder.queries[0] != "acme invoice" {
		t.Fatalf("queries = %v", embedder.queries)
	}
}

func TestSearchPropagatesEmbeddingFailure(t *testing.T) {
	uc := NewSearchUseCase(newRepoFake(), &embedderFake{err: errors.New("ollama down")}, &indexFake{})

	_, err := uc.Search(context.Background(), "query", 5)
	if err == nil {
		t.Fatal("Search() error = nil, want embedding failure")
	}
}

func TestSearchDefaultsTopK(t *testing.T) {
	repo := newRepoFake()
	uc := NewSearchUseCase(repo, &embedderFake{vector: []float32{1}}, &indexFake{})

	if _, err := uc.Search(context.Background(), "query", 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

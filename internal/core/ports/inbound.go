package ports

import (
	"context"
	"io"

	"github.com/solvify/docpipe/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
}

// JobSubmitter creates a processing job and returns immediately.
type JobSubmitter interface {
	Submit(ctx context.Context, documentID string) (*domain.Job, error)
}

// JobRunner drives a submitted job through the pipeline. Invoked by the
// worker, never by request-handling code.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

// SearchService answers ranked similarity queries.
type SearchService interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

// ChatService answers natural-language questions over document context.
type ChatService interface {
	Answer(ctx context.Context, query string) (domain.ChatAnswer, error)
}

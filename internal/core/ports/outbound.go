package ports

import (
	"context"
	"io"
	"time"

	"github.com/solvify/docpipe/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListPending(ctx context.Context) ([]domain.Document, error)
	ListEmbedded(ctx context.Context) ([]domain.Document, error)
	SaveProcessed(ctx context.Context, id string, result *domain.DocumentResult, embedding []float32) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// JobStore tracks batch jobs keyed by job id. Implementations must hand out
// copies so status polling never observes a half-written record.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
}

// ResultStore keeps the most recent accumulated job results with a persisted
// artifact behind the in-memory copy.
type ResultStore interface {
	SetLatest(ctx context.Context, results map[string]*domain.DocumentResult) error
	Latest(ctx context.Context) (map[string]*domain.DocumentResult, error)
}

// ObjectStorage stores source document bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue hands job submissions from the API to the worker.
type MessageQueue interface {
	PublishJobSubmitted(ctx context.Context, jobID string) error
	SubscribeJobSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// TextNormalizer canonicalizes raw extracted text before classification.
type TextNormalizer interface {
	Clean(raw string) string
}

// TextExtractor pulls plain text out of a stored source file.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Classifier assigns a document class to cleaned text. Implementations never
// fail: model degradation resolves to Unclassifiable, not an error.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.DocumentClass
}

// FieldExtractor extracts the class-specific field set from cleaned text.
type FieldExtractor interface {
	Extract(text string, class domain.DocumentClass) (domain.FieldSet, error)
}

// GenerativeExtractor jointly classifies and extracts via a generative model.
// Failures surface as domain.ErrGenerative; this path never degrades to nulls.
type GenerativeExtractor interface {
	Extract(ctx context.Context, text string) (*domain.DocumentResult, error)
}

// Embedder builds fixed-dimension vectors for document and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex holds an in-memory snapshot of embedded documents. Replace
// swaps the snapshot wholesale; Search ranks by cosine similarity.
type VectorIndex interface {
	Replace(entries []domain.Document) error
	Search(queryVector []float32, topK int) []domain.SearchResult
}

// PipelineObserver receives per-document pipeline outcomes for
// instrumentation.
type PipelineObserver interface {
	ObserveDocument(class domain.DocumentClass, duration time.Duration)
}

// AnswerGenerator produces generative responses for the chat path.
type AnswerGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

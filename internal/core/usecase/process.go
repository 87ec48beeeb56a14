package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
)

// ExtractionMode selects how processed fields are produced.
type ExtractionMode string

const (
	// ExtractDeterministic runs the hybrid classifier followed by the
	// regex field extractor.
	ExtractDeterministic ExtractionMode = "deterministic"
	// ExtractGenerative delegates classification and extraction to one
	// generative model call.
	ExtractGenerative ExtractionMode = "generative"
)

type ProcessUseCase struct {
	repo       ports.DocumentRepository
	jobs       ports.JobStore
	results    ports.ResultStore
	queue      ports.MessageQueue
	extractor  ports.TextExtractor
	normalizer ports.TextNormalizer
	classifier ports.Classifier
	fields     ports.FieldExtractor
	generative ports.GenerativeExtractor
	embedder   ports.Embedder
	index      ports.VectorIndex
	observer   ports.PipelineObserver
	mode       ExtractionMode
	logger     *slog.Logger
}

type ProcessDeps struct {
	Repo       ports.DocumentRepository
	Jobs       ports.JobStore
	Results    ports.ResultStore
	Queue      ports.MessageQueue
	Extractor  ports.TextExtractor
	Normalizer ports.TextNormalizer
	Classifier ports.Classifier
	Fields     ports.FieldExtractor
	Generative ports.GenerativeExtractor
	Embedder   ports.Embedder
	Index      ports.VectorIndex
	Observer   ports.PipelineObserver
	Mode       ExtractionMode
	Logger     *slog.Logger
}

func NewProcessUseCase(deps ProcessDeps) *ProcessUseCase {
	if deps.Mode == "" {
		deps.Mode = ExtractDeterministic
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ProcessUseCase{
		repo:       deps.Repo,
		jobs:       deps.Jobs,
		results:    deps.Results,
		queue:      deps.Queue,
		extractor:  deps.Extractor,
		normalizer: deps.Normalizer,
		classifier: deps.Classifier,
		fields:     deps.Fields,
		generative: deps.Generative,
		embedder:   deps.Embedder,
		index:      deps.Index,
		observer:   deps.Observer,
		mode:       deps.Mode,
		logger:     deps.Logger,
	}
}

// Submit creates a queued job and hands it to the worker pool. An empty
// documentID targets every pending document; validation of an explicit id
// happens during the run so submission stays fast.
func (uc *ProcessUseCase) Submit(ctx context.Context, documentID string) (*domain.Job, error) {
	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if documentID != "" {
		job.DocumentIDs = []string{documentID}
	}

	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := uc.queue.PublishJobSubmitted(ctx, job.ID); err != nil {
		uc.failJob(ctx, job, fmt.Errorf("publish job: %w", err))
		return nil, fmt.Errorf("publish job: %w", err)
	}
	return job, nil
}

// Run executes a submitted job. Per-document failures are isolated into
// Error entries; the job itself only fails on faults that invalidate the
// whole run, such as an explicitly targeted document that does not exist.
func (uc *ProcessUseCase) Run(ctx context.Context, jobID string) error {
	job, err := uc.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	job.Status = domain.JobProcessing
	if err := uc.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	docs, err := uc.resolveDocuments(ctx, job)
	if err != nil {
		uc.failJob(ctx, job, err)
		return err
	}

	results := make(map[string]*domain.DocumentResult, len(docs))
	for i := range docs {
		doc := &docs[i]

		job.CurrentFile = doc.Filename
		job.Progress = i * 100 / max(len(docs), 1)
		if err := uc.jobs.Update(ctx, job); err != nil {
			uc.logger.Warn("job progress update failed", "job_id", job.ID, "error", err)
		}

		started := time.Now()
		result := uc.processDocument(ctx, doc)
		results[doc.Filename] = result
		if uc.observer != nil {
			uc.observer.ObserveDocument(result.Class, time.Since(started))
		}
	}

	if err := uc.results.SetLatest(ctx, results); err != nil {
		uc.logger.Error("persist results failed", "job_id", job.ID, "error", err)
	}
	uc.rebuildIndex(ctx)

	job.Status = domain.JobComplete
	job.Progress = 100
	job.CurrentFile = ""
	if err := uc.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark job complete: %w", err)
	}
	return nil
}

func (uc *ProcessUseCase) resolveDocuments(ctx context.Context, job *domain.Job) ([]domain.Document, error) {
	if len(job.DocumentIDs) == 0 {
		docs, err := uc.repo.ListPending(ctx)
		if err != nil {
			return nil, fmt.Errorf("list pending documents: %w", err)
		}
		return docs, nil
	}

	docs := make([]domain.Document, 0, len(job.DocumentIDs))
	for _, id := range job.DocumentIDs {
		doc, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve document %s: %w", id, err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// processDocument runs one document through extract, classify, extract
// fields and embed. It never returns an error: any failure becomes an Error
// entry so the rest of the batch keeps going.
func (uc *ProcessUseCase) processDocument(ctx context.Context, doc *domain.Document) *domain.DocumentResult {
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		uc.logger.Warn("document status update failed", "document_id", doc.ID, "error", err)
	}

	text, err := uc.documentText(ctx, doc)
	if err != nil {
		return uc.recordFailure(ctx, doc, fmt.Errorf("extract text: %w", err))
	}

	if text == "" {
		result := &domain.DocumentResult{Class: domain.ClassUnclassifiable, Fields: &domain.OtherFields{}}
		uc.saveResult(ctx, doc, result, nil)
		return result
	}

	result, err := uc.extractResult(ctx, text)
	if err != nil {
		return uc.recordFailure(ctx, doc, err)
	}

	vectors, err := uc.embedder.Embed(ctx, []string{text})
	if err != nil {
		return uc.recordFailure(ctx, doc, fmt.Errorf("embed document: %w", err))
	}

	uc.saveResult(ctx, doc, result, vectors[0])
	return result
}

func (uc *ProcessUseCase) documentText(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.Content != "" {
		return doc.Content, nil
	}
	raw, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}
	return uc.normalizer.Clean(raw), nil
}

func (uc *ProcessUseCase) extractResult(ctx context.Context, text string) (*domain.DocumentResult, error) {
	if uc.mode == ExtractGenerative {
		result, err := uc.generative.Extract(ctx, text)
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	class := uc.classifier.Classify(ctx, text)
	fields, err := uc.fields.Extract(text, class)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}
	return &domain.DocumentResult{Class: class, Fields: fields}, nil
}

func (uc *ProcessUseCase) saveResult(ctx context.Context, doc *domain.Document, result *domain.DocumentResult, embedding []float32) {
	if err := uc.repo.SaveProcessed(ctx, doc.ID, result, embedding); err != nil {
		uc.logger.Error("persist processed output failed", "document_id", doc.ID, "error", err)
	}
}

func (uc *ProcessUseCase) recordFailure(ctx context.Context, doc *domain.Document, cause error) *domain.DocumentResult {
	uc.logger.Error("document processing failed",
		"document_id", doc.ID, "filename", doc.Filename, "error", cause)

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, cause.Error()); err != nil {
		uc.logger.Warn("document status update failed", "document_id", doc.ID, "error", err)
	}
	return &domain.DocumentResult{Class: domain.ClassError, Err: cause.Error()}
}

func (uc *ProcessUseCase) rebuildIndex(ctx context.Context) {
	docs, err := uc.repo.ListEmbedded(ctx)
	if err != nil {
		uc.logger.Error("list embedded documents failed", "error", err)
		return
	}
	if err := uc.index.Replace(docs); err != nil {
		uc.logger.Error("vector index rebuild failed", "error", err)
	}
}

func (uc *ProcessUseCase) failJob(ctx context.Context, job *domain.Job, cause error) {
	job.Status = domain.JobError
	job.Error = cause.Error()
	job.CurrentFile = ""
	if err := uc.jobs.Update(ctx, job); err != nil {
		uc.logger.Error("mark job failed", "job_id", job.ID, "error", err)
	}
}

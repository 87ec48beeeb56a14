package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/solvify/docpipe/internal/core/domain"
)

type statusCall struct {
	id     string
	status domain.DocumentStatus
	errMsg string
}

type savedResult struct {
	result    *domain.DocumentResult
	embedding []float32
}

type repoFake struct {
	mu       sync.Mutex
	docs     map[string]*domain.Document
	pending  []domain.Document
	embedded []domain.Document

	createErr  error
	listErr    error
	saveErr    error
	saved      map[string]savedResult
	statusLog  []statusCall
	createdDoc *domain.Document
}

func newRepoFake() *repoFake {
	return &repoFake{
		docs:  make(map[string]*domain.Document),
		saved: make(map[string]savedResult),
	}
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	f.createdDoc = &copyDoc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *repoFake) ListPending(context.Context) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pending, nil
}

func (f *repoFake) ListEmbedded(context.Context) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.embedded, nil
}

func (f *repoFake) SaveProcessed(_ context.Context, id string, result *domain.DocumentResult, embedding []float32) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[id] = savedResult{result: result, embedding: embedding}
	return nil
}

func (f *repoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusLog = append(f.statusLog, statusCall{id: id, status: status, errMsg: errMessage})
	return nil
}

type jobStoreFake struct {
	mu      sync.Mutex
	jobs    map[string]domain.Job
	history []domain.Job
}

func newJobStoreFake() *jobStoreFake {
	return &jobStoreFake{jobs: make(map[string]domain.Job)}
}

func (f *jobStoreFake) Create(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *jobStoreFake) Get(_ context.Context, id string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id %s", id))
	}
	return &job, nil
}

func (f *jobStoreFake) Update(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	f.history = append(f.history, *job)
	return nil
}

type resultStoreFake struct {
	latest map[string]*domain.DocumentResult
}

func (f *resultStoreFake) SetLatest(_ context.Context, results map[string]*domain.DocumentResult) error {
	f.latest = results
	return nil
}

func (f *resultStoreFake) Latest(context.Context) (map[string]*domain.DocumentResult, error) {
	if f.latest == nil {
		return map[string]*domain.DocumentResult{}, nil
	}
	return f.latest, nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishJobSubmitted(_ context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeJobSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

type storageFake struct {
	files map[string][]byte
	err   error
}

func newStorageFake() *storageFake {
	return &storageFake{files: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("missing key %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type textExtractorFake struct {
	texts map[string]string
	errs  map[string]error
	calls int
}

func (f *textExtractorFake) Extract(_ context.Context, doc *domain.Document) (string, error) {
	f.calls++
	if err, ok := f.errs[doc.ID]; ok {
		return "", err
	}
	return f.texts[doc.ID], nil
}

// staticExtractor returns the same text for every document.
type staticExtractor string

func (s staticExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return string(s), nil
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return "", fmt.Errorf("unreadable source")
}

type passthroughNormalizer struct{}

func (passthroughNormalizer) Clean(raw string) string { return raw }

type classifierFake struct {
	class domain.DocumentClass
	calls int
}

func (f *classifierFake) Classify(context.Context, string) domain.DocumentClass {
	f.calls++
	return f.class
}

type fieldExtractorFake struct {
	fields domain.FieldSet
	err    error
	calls  int
}

func (f *fieldExtractorFake) Extract(string, domain.DocumentClass) (domain.FieldSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

type generativeFake struct {
	result *domain.DocumentResult
	err    error
	calls  int
}

func (f *generativeFake) Extract(context.Context, string) (*domain.DocumentResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type embedderFake struct {
	vector  []float32
	err     error
	queries []string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, text)
	return f.vector, nil
}

type indexFake struct {
	replaced [][]domain.Document
	results  []domain.SearchResult
}

func (f *indexFake) Replace(entries []domain.Document) error {
	f.replaced = append(f.replaced, entries)
	return nil
}

func (f *indexFake) Search([]float32, int) []domain.SearchResult {
	return f.results
}

type generatorFake struct {
	response string
	err      error
	prompts  []string
}

func (f *generatorFake) GenerateJSON(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, prompt)
	return f.response, nil
}

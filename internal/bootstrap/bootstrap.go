// Package bootstrap wires configuration, infrastructure and use cases into
// a runnable application graph shared by the api and worker entrypoints.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solvify/docpipe/internal/config"
	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
	"github.com/solvify/docpipe/internal/core/usecase"
	"github.com/solvify/docpipe/internal/infrastructure/classify"
	"github.com/solvify/docpipe/internal/infrastructure/fields"
	"github.com/solvify/docpipe/internal/infrastructure/jobstore"
	"github.com/solvify/docpipe/internal/infrastructure/llm/ollama"
	"github.com/solvify/docpipe/internal/infrastructure/queue/nats"
	"github.com/solvify/docpipe/internal/infrastructure/repository/postgres"
	"github.com/solvify/docpipe/internal/infrastructure/resilience"
	"github.com/solvify/docpipe/internal/infrastructure/resultstore"
	"github.com/solvify/docpipe/internal/infrastructure/storage/localfs"
	"github.com/solvify/docpipe/internal/infrastructure/textextract"
	"github.com/solvify/docpipe/internal/infrastructure/textnorm"
	vectormem "github.com/solvify/docpipe/internal/infrastructure/vector/memory"
	"github.com/solvify/docpipe/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    *nats.Queue
	Repo     ports.DocumentRepository
	Postgres *postgres.DocumentRepository
	Jobs     ports.JobStore
	Results  ports.ResultStore

	Ingest  ports.DocumentIngestor
	Process *usecase.ProcessUseCase
	Search  ports.SearchService
	Chat    ports.ChatService

	Ollama        *ollama.Client
	HTTPMetrics   *metrics.HTTPServerMetrics
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var jobs ports.JobStore
	if cfg.JobStore == "memory" {
		jobs = jobstore.NewMemory()
	} else {
		jobs = postgres.NewJobRepository(db)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	results := resultstore.New(storage)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		BreakerEnabled:   true,
	}, logger)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	generative := ollama.NewExtractor(ollamaClient)

	rules, err := loadRules(cfg.ClassifierRulesPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}
	classifier := classify.New(rules, ollama.NewZeroShot(ollamaClient), logger)

	extractor := textextract.New(storage)
	normalizer := textnorm.Normalizer{}
	fieldExtractor := fields.New()
	index := vectormem.NewIndex()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	workerMetrics := metrics.NewWorkerMetrics("worker")

	ingest := usecase.NewIngestUseCase(repo, storage, extractor, normalizer, logger)
	process := usecase.NewProcessUseCase(usecase.ProcessDeps{
		Repo:       repo,
		Jobs:       jobs,
		Results:    results,
		Queue:      queue,
		Extractor:  extractor,
		Normalizer: normalizer,
		Classifier: classifier,
		Fields:     fieldExtractor,
		Generative: generative,
		Embedder:   embedder,
		Index:      index,
		Observer:   documentObserver{metrics: workerMetrics},
		Mode:       usecase.ExtractionMode(cfg.ExtractionMode),
		Logger:     logger,
	})
	search := usecase.NewSearchUseCase(repo, embedder, index)
	chat := usecase.NewChatUseCase(
		search, repo, generator,
		usecase.RetrievalMode(cfg.ChatRetrievalMode), cfg.ChatTopK, logger,
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		Repo:     repo,
		Postgres: repo,
		Jobs:     jobs,
		Results:  results,

		Ingest:  ingest,
		Process: process,
		Search:  search,
		Chat:    chat,

		Ollama:        ollamaClient,
		HTTPMetrics:   httpMetrics,
		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadRules(path string) ([]classify.Rule, error) {
	if path == "" {
		return classify.DefaultRules(), nil
	}
	rules, err := classify.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("load classifier rules: %w", err)
	}
	return rules, nil
}

type documentObserver struct {
	metrics *metrics.WorkerMetrics
}

func (o documentObserver) ObserveDocument(class domain.DocumentClass, duration time.Duration) {
	o.metrics.ObserveDocument("worker", class, duration)
}

// Package httpadapter exposes the document pipeline over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
	"github.com/solvify/docpipe/internal/infrastructure/export"
	"github.com/solvify/docpipe/internal/observability/metrics"
)

const serviceName = "api"

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to temp files.
const maxUploadMemory = 32 << 20

// BackendPinger probes a dependency for the health endpoint.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	ingest    ports.DocumentIngestor
	submitter ports.JobSubmitter
	jobs      ports.JobStore
	results   ports.ResultStore
	search    ports.SearchService
	chat      ports.ChatService
	topK      int
	models    BackendPinger
	store     BackendPinger
	metrics   *metrics.HTTPServerMetrics
	limiter   *ipRateLimiter
	logger    *slog.Logger
}

type RouterConfig struct {
	Ingest         ports.DocumentIngestor
	Submitter      ports.JobSubmitter
	Jobs           ports.JobStore
	Results        ports.ResultStore
	Search         ports.SearchService
	Chat           ports.ChatService
	SearchTopK     int
	Models         BackendPinger
	Store          BackendPinger
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.SearchTopK <= 0 {
		cfg.SearchTopK = 5
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Router{
		ingest:    cfg.Ingest,
		submitter: cfg.Submitter,
		jobs:      cfg.Jobs,
		results:   cfg.Results,
		search:    cfg.Search,
		chat:      cfg.Chat,
		topK:      cfg.SearchTopK,
		models:    cfg.Models,
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		limiter:   newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:    cfg.Logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/documents/upload", rt.uploadDocuments)
	mux.HandleFunc("/v1/documents/process", rt.processAll)
	mux.HandleFunc("/v1/documents/process/", rt.processOne)
	mux.HandleFunc("/v1/documents/status/", rt.jobStatus)
	mux.HandleFunc("/v1/documents/results", rt.latestResults)
	mux.HandleFunc("/v1/documents/results/export", rt.exportResults)
	mux.HandleFunc("/v1/search", rt.searchDocuments)
	mux.HandleFunc("/v1/chat", rt.chatWithDocuments)

	var handler http.Handler = mux
	handler = rt.limiter.middleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

// healthz reports reachability of the model backend and the document store.
// A nil pinger counts as reachable.
func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	modelsUp := rt.models == nil || rt.models.Ping(ctx) == nil
	storeUp := rt.store == nil || rt.store.Ping(ctx) == nil

	status := "ok"
	code := http.StatusOK
	if !modelsUp || !storeUp {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"models_loaded": map[string]bool{
			"classifier": modelsUp,
			"embedder":   modelsUp,
			"generator":  modelsUp,
		},
		"storage": storeUp,
	})
}

type uploadedDocument struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploaded := make([]uploadedDocument, 0, len(files))
	for _, header := range files {
		doc, err := rt.uploadOne(r, header)
		if err != nil {
			writeError(w, fmt.Errorf("upload %s: %w", header.Filename, err))
			return
		}
		uploaded = append(uploaded, uploadedDocument{
			ID:       doc.ID,
			Filename: doc.Filename,
			Status:   string(doc.Status),
		})
	}

	if rt.metrics != nil {
		for _, header := range files {
			rt.metrics.RecordUploadBytes(header.Size)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": uploaded})
}

func (rt *Router) uploadOne(r *http.Request, header *multipart.FileHeader) (*domain.Document, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open multipart file: %w", err)
	}
	defer file.Close()

	return rt.ingest.Upload(r.Context(), header.Filename, file)
}

func (rt *Router) processAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	rt.submitJob(w, r, "")
}

func (rt *Router) processOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/process/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}
	rt.submitJob(w, r, id)
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request, documentID string) {
	job, err := rt.submitter.Submit(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "processing",
		"job_id": job.ID,
	})
}

// jobStatus reports a job's progress. Unknown ids deliberately answer with
// status "unknown" instead of 404: clients poll immediately after submission
// and a worker restart must not break their loop.
func (rt *Router) jobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/v1/documents/status/")
	if jobID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	job, err := rt.jobs.Get(r.Context(), jobID)
	if err != nil {
		if domain.IsKind(err, domain.ErrJobNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "unknown", "job_id": jobID})
			return
		}
		writeError(w, err)
		return
	}

	payload := map[string]any{
		"job_id":   job.ID,
		"status":   string(job.Status),
		"progress": job.Progress,
	}
	if job.CurrentFile != "" {
		payload["current_file"] = job.CurrentFile
	}
	if job.Error != "" {
		payload["error"] = job.Error
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) latestResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	results, err := rt.results.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (rt *Router) exportResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	results, err := rt.results.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	workbook, err := export.Workbook(results)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="results.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	results, err := rt.search.Search(r.Context(), req.Query, rt.topK)
	if rt.metrics != nil {
		rt.metrics.RecordSearch(serviceName, len(results), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (rt *Router) chatWithDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	answer, err := rt.chat.Answer(r.Context(), req.Query)
	if rt.metrics != nil {
		rt.metrics.RecordChat(serviceName, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"response": answer.Response()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

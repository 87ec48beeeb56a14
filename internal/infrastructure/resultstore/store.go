// Package resultstore keeps the latest per-filename extraction results. The
// in-memory map serves the hot path; a JSON artifact in object storage
// survives restarts and lets the api process read results produced by the
// worker.
package resultstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
)

const artifactKey = "outputs/results.json"

type Store struct {
	storage ports.ObjectStorage

	mu     sync.RWMutex
	latest map[string]*domain.DocumentResult
}

func New(storage ports.ObjectStorage) *Store {
	return &Store{storage: storage}
}

func (s *Store) SetLatest(ctx context.Context, results map[string]*domain.DocumentResult) error {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	s.mu.Lock()
	s.latest = cloneResults(results)
	s.mu.Unlock()

	if s.storage == nil {
		return nil
	}
	if err := s.storage.Save(ctx, artifactKey, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("persist results artifact: %w", err)
	}
	return nil
}

// Latest returns the most recent results map, reading back the persisted
// artifact when this process has not produced results itself.
func (s *Store) Latest(ctx context.Context) (map[string]*domain.DocumentResult, error) {
	s.mu.RLock()
	cached := s.latest
	s.mu.RUnlock()

	if cached != nil {
		return cloneResults(cached), nil
	}
	if s.storage == nil {
		return map[string]*domain.DocumentResult{}, nil
	}

	reader, err := s.storage.Open(ctx, artifactKey)
	if err != nil {
		// No artifact yet means no completed run, not a failure.
		return map[string]*domain.DocumentResult{}, nil
	}
	defer reader.Close()

	var results map[string]*domain.DocumentResult
	if err := json.NewDecoder(reader).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode results artifact: %w", err)
	}
	if results == nil {
		results = map[string]*domain.DocumentResult{}
	}
	return results, nil
}

func cloneResults(results map[string]*domain.DocumentResult) map[string]*domain.DocumentResult {
	out := make(map[string]*domain.DocumentResult, len(results))
	for name, result := range results {
		out[name] = result
	}
	return out
}

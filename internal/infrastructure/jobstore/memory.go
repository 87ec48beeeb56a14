// Package jobstore provides an in-memory job store for single-process
// deployments and tests. Multi-process deployments use the postgres store.
package jobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/solvify/docpipe/internal/core/domain"
)

type Memory struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]domain.Job)}
}

func (m *Memory) Create(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("job already exists: %s", job.ID)
	}
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id %s", id))
	}
	out := cloneJob(&job)
	return &out, nil
}

func (m *Memory) Update(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; !ok {
		return domain.WrapError(domain.ErrJobNotFound, "update job", fmt.Errorf("id %s", job.ID))
	}
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

// cloneJob copies the job so callers cannot mutate stored state through a
// retained pointer.
func cloneJob(job *domain.Job) domain.Job {
	out := *job
	out.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	return out
}

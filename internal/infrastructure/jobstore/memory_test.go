package jobstore

import (
	"context"
	"testing"

	"github.com/solvify/docpipe/internal/core/domain"
)

func TestCreateAndGetReturnsCopy(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	job := &domain.Job{ID: "job-1", Status: domain.JobQueued, DocumentIDs: []string{"a"}}
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Status = domain.JobError
	got.DocumentIDs[0] = "mutated"

	again, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Status != domain.JobQueued || again.DocumentIDs[0] != "a" {
		t.Fatalf("stored job mutated through returned copy: %+v", again)
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Create(ctx, &domain.Job{ID: "job-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, &domain.Job{ID: "job-1"}); err == nil {
		t.Fatal("Create() error = nil, want duplicate rejection")
	}
}

func TestGetUnknownJobReturnsNotFound(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
}

func TestUpdateRequiresExistingJob(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Update(ctx, &domain.Job{ID: "missing"}); !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}

	if err := store.Create(ctx, &domain.Job{ID: "job-1", Status: domain.JobQueued}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Update(ctx, &domain.Job{ID: "job-1", Status: domain.JobComplete, Progress: 100}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	job, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.Status != domain.JobComplete || job.Progress != 100 {
		t.Fatalf("job = %+v", job)
	}
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solvify/docpipe/internal/core/domain"
)

// JobRepository is the shared job store. The api and worker processes run
// separately, so job state has to live somewhere both can reach.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	idsJSON, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		return fmt.Errorf("marshal document ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO jobs (id, status, progress, current_file, error_message, document_ids, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		job.ID, string(job.Status), job.Progress, job.CurrentFile, job.Error, idsJSON,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, status, progress, current_file, error_message, document_ids, created_at, updated_at
FROM jobs
WHERE id = $1
`, id)

	var job domain.Job
	var idsRaw []byte
	var status string

	err := row.Scan(
		&job.ID, &status, &job.Progress, &job.CurrentFile, &job.Error,
		&idsRaw, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal(idsRaw, &job.DocumentIDs); err != nil {
		return nil, fmt.Errorf("unmarshal document ids: %w", err)
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	idsJSON, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		return fmt.Errorf("marshal document ids: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE jobs
SET status = $2, progress = $3, current_file = $4, error_message = $5, document_ids = $6, updated_at = $7
WHERE id = $1
`,
		job.ID, string(job.Status), job.Progress, job.CurrentFile, job.Error, idsJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "update job", fmt.Errorf("id %s", job.ID))
	}
	return nil
}

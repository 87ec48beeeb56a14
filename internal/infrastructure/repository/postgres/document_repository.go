// Package postgres persists documents and jobs through database/sql with the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/solvify/docpipe/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Ping probes database reachability for the health endpoint.
func (r *DocumentRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	vector_embeddings JSONB,
	processed_output JSONB,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	current_file TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	document_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, storage_path, content, vector_embeddings, processed_output, status, error_message, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	embJSON, outJSON, err := marshalDocumentPayloads(doc)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.StoragePath, doc.Content, embJSON, outJSON,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// ListPending returns documents that have been uploaded but not yet run
// through the pipeline, oldest first.
func (r *DocumentRepository) ListPending(ctx context.Context) ([]domain.Document, error) {
	return r.list(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE status = $1
ORDER BY created_at ASC
`, string(domain.StatusUploaded))
}

// ListEmbedded returns processed documents that carry an embedding, the
// corpus served to search and chat.
func (r *DocumentRepository) ListEmbedded(ctx context.Context) ([]domain.Document, error) {
	return r.list(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE vector_embeddings IS NOT NULL
ORDER BY created_at ASC
`)
}

func (r *DocumentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) SaveProcessed(ctx context.Context, id string, result *domain.DocumentResult, embedding []float32) error {
	outJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal processed output: %w", err)
	}
	var embJSON []byte
	if embedding != nil {
		if embJSON, err = json.Marshal(embedding); err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET processed_output = $2, vector_embeddings = $3, status = $4, updated_at = $5
WHERE id = $1
`, id, outJSON, embJSON, string(domain.StatusProcessed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save processed output: %w", err)
	}
	return requireRowAffected(res, id, "save processed output")
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(res, id, "update document status")
}

func requireRowAffected(res sql.Result, id, operation string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var embRaw, outRaw []byte
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.StoragePath, &doc.Content,
		&embRaw, &outRaw, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(embRaw) > 0 {
		if err := json.Unmarshal(embRaw, &doc.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
	}
	if len(outRaw) > 0 {
		doc.Processed = &domain.DocumentResult{}
		if err := json.Unmarshal(outRaw, doc.Processed); err != nil {
			return nil, fmt.Errorf("unmarshal processed output: %w", err)
		}
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func marshalDocumentPayloads(doc *domain.Document) (embJSON, outJSON []byte, err error) {
	if doc.Embedding != nil {
		if embJSON, err = json.Marshal(doc.Embedding); err != nil {
			return nil, nil, fmt.Errorf("marshal embedding: %w", err)
		}
	}
	if doc.Processed != nil {
		if outJSON, err = json.Marshal(doc.Processed); err != nil {
			return nil, nil, fmt.Errorf("marshal processed output: %w", err)
		}
	}
	return embJSON, outJSON, nil
}

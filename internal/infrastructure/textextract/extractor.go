// Package textextract pulls raw text out of uploaded source files.
package textextract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract dispatches on the file extension. Unsupported formats and I/O
// failures are errors for the caller to contain per document; a readable but
// empty file yields an empty string without error.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return extractPDF(raw)
	case ".xlsx":
		return extractXLSX(raw)
	case ".txt":
		return extractPlainText(doc.Filename, raw)
	default:
		return "", fmt.Errorf("unsupported file format: %s", doc.Filename)
	}
}

func extractPlainText(filename string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("file %s is not valid utf-8 text", filename)
	}
	return strings.TrimSpace(string(raw)), nil
}

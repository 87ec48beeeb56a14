// Package memory holds the process-local vector index: a brute-force cosine
// scan over an immutable snapshot that is swapped wholesale on reindex.
package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/solvify/docpipe/internal/core/domain"
)

const snippetLength = 300

type entry struct {
	documentID string
	filename   string
	text       string
	metadata   *domain.DocumentResult
	vector     []float32
}

type Index struct {
	mu   sync.RWMutex
	snap []entry
}

func NewIndex() *Index { return &Index{} }

// Replace rebuilds the index from scratch. Documents without an embedding
// are skipped; remaining vectors must share one dimensionality. The swap is
// a single assignment under lock, so concurrent searches serve either the
// old snapshot or the new one, never a half-written state.
func (ix *Index) Replace(docs []domain.Document) error {
	snap := make([]entry, 0, len(docs))
	dim := 0
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(doc.Embedding)
		} else if len(doc.Embedding) != dim {
			return fmt.Errorf("embedding dimension mismatch: %d vs %d for %s", len(doc.Embedding), dim, doc.ID)
		}
		snap = append(snap, entry{
			documentID: doc.ID,
			filename:   doc.Filename,
			text:       doc.Content,
			metadata:   doc.Processed,
			vector:     doc.Embedding,
		})
	}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()
	return nil
}

// Search ranks the snapshot by cosine similarity against queryVector,
// descending, ties broken by indexing order. topK is clamped to the indexed
// count; an empty index yields an empty slice, never an error.
func (ix *Index) Search(queryVector []float32, topK int) []domain.SearchResult {
	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()

	if len(snap) == 0 || len(queryVector) == 0 || topK <= 0 {
		return []domain.SearchResult{}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(snap))
	for i := range snap {
		scores[i] = scored{idx: i, score: cosine(queryVector, snap[i].vector)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.SearchResult, 0, topK)
	for _, s := range scores[:topK] {
		e := snap[s.idx]
		out = append(out, domain.SearchResult{
			Score:      s.score,
			DocumentID: e.documentID,
			Filename:   e.filename,
			Metadata:   e.metadata,
			Snippet:    snippet(e.text),
		})
	}
	return out
}

// Size reports the number of indexed documents.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.snap)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}

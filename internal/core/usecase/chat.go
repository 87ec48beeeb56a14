package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solvify/docpipe/internal/core/domain"
	"github.com/solvify/docpipe/internal/core/ports"
)

// RetrievalMode selects how chat gathers document context.
type RetrievalMode string

const (
	// RetrieveSimilarity feeds only the top-k most similar documents to the
	// model.
	RetrieveSimilarity RetrievalMode = "similarity"
	// RetrieveExhaustive feeds every embedded document, for small corpora
	// where recall matters more than context size.
	RetrieveExhaustive RetrievalMode = "exhaustive"
)

const chatExcerptChars = 500

type ChatUseCase struct {
	search    *SearchUseCase
	repo      ports.DocumentRepository
	generator ports.AnswerGenerator
	mode      RetrievalMode
	topK      int
	logger    *slog.Logger
}

func NewChatUseCase(
	search *SearchUseCase,
	repo ports.DocumentRepository,
	generator ports.AnswerGenerator,
	mode RetrievalMode,
	topK int,
	logger *slog.Logger,
) *ChatUseCase {
	if mode == "" {
		mode = RetrieveSimilarity
	}
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		search:    search,
		repo:      repo,
		generator: generator,
		mode:      mode,
		topK:      topK,
		logger:    logger,
	}
}

// Answer builds document context for the query, asks the model for a JSON
// answer and falls back to the raw text when the model refuses to produce
// parseable JSON.
func (uc *ChatUseCase) Answer(ctx context.Context, query string) (domain.ChatAnswer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.ChatAnswer{}, domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("query is required"))
	}

	contextText, err := uc.buildContext(ctx, query)
	if err != nil {
		return domain.ChatAnswer{}, err
	}

	raw, err := uc.generator.GenerateJSON(ctx, buildChatPrompt(query, contextText))
	if err != nil {
		return domain.ChatAnswer{}, fmt.Errorf("generate answer: %w", err)
	}

	cleaned := cleanModelJSON(raw)
	var payload any
	if jsonErr := json.Unmarshal([]byte(cleaned), &payload); jsonErr != nil {
		uc.logger.Warn("chat answer is not valid JSON, returning raw text", "error", jsonErr)
		return domain.ChatAnswer{Payload: raw, Raw: raw}, nil
	}
	// A contract-following answer is {"response": [...]}; unwrap it before
	// the endpoint wraps the payload in its own response envelope.
	if obj, ok := payload.(map[string]any); ok && len(obj) == 1 {
		if inner, exists := obj["response"]; exists {
			payload = inner
		}
	}
	return domain.ChatAnswer{Payload: payload, Raw: raw}, nil
}

func (uc *ChatUseCase) buildContext(ctx context.Context, query string) (string, error) {
	if uc.mode == RetrieveExhaustive {
		docs, err := uc.repo.ListEmbedded(ctx)
		if err != nil {
			return "", fmt.Errorf("list embedded documents: %w", err)
		}
		blocks := make([]string, 0, len(docs))
		for i := range docs {
			blocks = append(blocks, documentBlock(docs[i].Filename, docs[i].Processed, docs[i].Content))
		}
		return strings.Join(blocks, "\n\n"), nil
	}

	hits, err := uc.search.Search(ctx, query, uc.topK)
	if err != nil {
		return "", err
	}
	blocks := make([]string, 0, len(hits))
	for _, hit := range hits {
		blocks = append(blocks, documentBlock(hit.Filename, hit.Metadata, hit.Snippet))
	}
	return strings.Join(blocks, "\n\n"), nil
}

// documentBlock renders one document for the prompt: extracted data when
// the pipeline produced any, otherwise a content excerpt.
func documentBlock(filename string, result *domain.DocumentResult, content string) string {
	if result != nil {
		data, err := json.Marshal(result)
		if err == nil {
			return fmt.Sprintf("Document: %s\nData: %s", filename, data)
		}
	}
	excerpt := []rune(content)
	if len(excerpt) > chatExcerptChars {
		return fmt.Sprintf("Document: %s\nContent: %s...", filename, string(excerpt[:chatExcerptChars]))
	}
	return fmt.Sprintf("Document: %s\nContent: %s", filename, content)
}

func buildChatPrompt(query, contextText string) string {
	return `You are an assistant answering questions about a set of processed documents.
Use only the document context below.

Rules:
- Include a document only if it matches ALL constraints in the question.
- Match field names exactly. A question about a due amount resolves to a
  field named amount_due, never to a differently named total field of
  another document.
- When the question names a time period, include only values dated within
  exactly that period.
- If nothing in the context satisfies every constraint, return an empty list.

Return a single JSON object of the shape {"response": [...]} and nothing
else. No prose, no markdown, no commentary outside the JSON.

Context:
` + contextText + `

Question: ` + query
}

// cleanModelJSON strips markdown fencing and line comments that smaller
// models sometimes wrap around their JSON output.
func cleanModelJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}

	lines := strings.Split(trimmed, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

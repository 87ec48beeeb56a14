package ollama

import (
	"strings"

	"github.com/solvify/docpipe/internal/core/domain"
)

const (
	// Character budgets approximate the model context window; they are not
	// token-accurate.
	maxZeroShotChars = 1000
	maxExtractChars  = 2500
)

func buildZeroShotPrompt(text string, labels []domain.DocumentClass) string {
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, string(label))
	}

	return `You are a zero-shot document classifier.
Score how well the document matches each of these labels: ` + strings.Join(names, ", ") + `.
Return a strict JSON object of shape {"scores": {"<label>": <number 0..1>, ...}} covering every label.
No markdown, no prose, no extra keys.

Document:
` + truncate(text, maxZeroShotChars)
}

func buildExtractionPrompt(text string) string {
	return `Analyze the text below.
1. Identify what type of document it is (Invoice, Resume, Utility Bill, or Other).
2. Extract relevant structured information based on that type.

Expected fields for common types:
- Invoice: invoice_number, date, total_amount, currency, vendor_name
- Resume: name, email, phone, experience_years, latest_job_title
- Utility Bill: account_number, date, amount_due, usage_kwh

Return the result strictly as a single JSON object of shape
{"document_type": "<type>", "extracted_data": {...}}.
No prose, no markdown fencing, only the JSON object.

Text to process:
---
` + truncate(text, maxExtractChars) + `
---
`
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

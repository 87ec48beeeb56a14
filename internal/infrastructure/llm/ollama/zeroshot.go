package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/solvify/docpipe/internal/core/domain"
)

// ZeroShot scores text against the candidate label set via the generation
// model. Errors are returned to the caller, which degrades to keyword
// scoring; nothing here masks failures.
type ZeroShot struct {
	client *Client
}

func NewZeroShot(client *Client) *ZeroShot {
	return &ZeroShot{client: client}
}

func (z *ZeroShot) Score(ctx context.Context, text string, labels []domain.DocumentClass) (map[domain.DocumentClass]float64, error) {
	raw, err := z.client.generate(ctx, map[string]any{
		"model":  z.client.genModel,
		"prompt": buildZeroShotPrompt(text, labels),
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse zero-shot scores: %w", err)
	}
	if len(parsed.Scores) == 0 {
		return nil, fmt.Errorf("zero-shot response has no scores")
	}

	out := make(map[domain.DocumentClass]float64, len(labels))
	for _, label := range labels {
		out[label] = parsed.Scores[string(label)]
	}
	return out, nil
}

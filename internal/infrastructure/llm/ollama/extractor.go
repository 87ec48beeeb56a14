package ollama

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/solvify/docpipe/internal/core/domain"
)

// envelopeSchema describes the contracted response shape. Validation failure
// is not fatal: responses that parse as JSON but miss the envelope are
// passed through raw, per the class-dependent result contract.
const envelopeSchema = `{
	"type": "object",
	"properties": {
		"document_type": {"type": "string", "minLength": 1},
		"extracted_data": {"type": "object"}
	},
	"required": ["document_type", "extracted_data"]
}`

// Extractor is the generative path: one model call that classifies and
// extracts jointly. Request and parse failures surface as
// domain.ErrGenerative; unlike the deterministic extractor this path never
// degrades to nulls.
type Extractor struct {
	client *Client
	schema *jsonschema.Schema
}

func NewExtractor(client *Client) *Extractor {
	schema := jsonschema.MustCompileString("envelope.json", envelopeSchema)
	return &Extractor{client: client, schema: schema}
}

func (e *Extractor) Extract(ctx context.Context, text string) (*domain.DocumentResult, error) {
	raw, err := e.client.generate(ctx, map[string]any{
		"model":  e.client.genModel,
		"prompt": buildExtractionPrompt(text),
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
			"num_predict": 512,
		},
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrGenerative, "generate extraction", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(stripCodeFences(raw))), &parsed); err != nil {
		return nil, domain.WrapError(domain.ErrGenerative, "parse extraction response", err)
	}

	if err := e.schema.Validate(parsed); err == nil {
		return flattenEnvelope(parsed), nil
	}
	// Off-contract but parsable: hand the shape through unchanged.
	return &domain.DocumentResult{Class: classFromPayload(parsed), Extra: parsed}, nil
}

// flattenEnvelope turns {document_type, extracted_data:{...}} into a flat
// result annotated with the class.
func flattenEnvelope(parsed map[string]any) *domain.DocumentResult {
	docType, _ := parsed["document_type"].(string)
	data, _ := parsed["extracted_data"].(map[string]any)

	flat := make(map[string]any, len(data)+1)
	for k, v := range data {
		flat[k] = v
	}
	flat["document_type"] = docType
	return &domain.DocumentResult{Class: domain.DocumentClass(docType), Extra: flat}
}

func classFromPayload(parsed map[string]any) domain.DocumentClass {
	if docType, ok := parsed["document_type"].(string); ok && docType != "" {
		return domain.DocumentClass(docType)
	}
	return domain.ClassOther
}

// stripCodeFences removes a ```json ... ``` wrapper if the model emitted one
// despite the instructions.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

package domain

// SearchResult is a ranked hit from the vector index. Ephemeral: computed
// per query, never persisted.
type SearchResult struct {
	Score      float64         `json:"score"`
	DocumentID string          `json:"document_id"`
	Filename   string          `json:"filename"`
	Metadata   *DocumentResult `json:"metadata,omitempty"`
	Snippet    string          `json:"snippet"`
}

// ChatAnswer carries the generative response. Payload is the parsed JSON
// object when the model honored the output contract, Raw the unparsed text
// otherwise; callers must treat the shape as class-dependent.
type ChatAnswer struct {
	Payload any    `json:"payload,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// Response returns whichever representation is populated.
func (a ChatAnswer) Response() any {
	if a.Payload != nil {
		return a.Payload
	}
	return a.Raw
}

package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentClass is the fixed label set the pipeline classifies into.
// The set only grows by redeploying the pipeline, never at runtime.
type DocumentClass string

const (
	ClassInvoice        DocumentClass = "Invoice"
	ClassResume         DocumentClass = "Resume"
	ClassUtilityBill    DocumentClass = "Utility Bill"
	ClassOther          DocumentClass = "Other"
	ClassUnclassifiable DocumentClass = "Unclassifiable"
	ClassError          DocumentClass = "Error"
)

// CandidateClasses is the classification priority order. Tie-breaks between
// equal scores resolve to the earliest entry, so the order is part of the
// classification contract.
var CandidateClasses = []DocumentClass{
	ClassInvoice,
	ClassResume,
	ClassUtilityBill,
	ClassOther,
}

type Document struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	StoragePath string          `json:"storage_path"`
	Content     string          `json:"content,omitempty"`
	Embedding   []float32       `json:"vector_embeddings,omitempty"`
	Processed   *DocumentResult `json:"processed_output,omitempty"`
	Status      DocumentStatus  `json:"status"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

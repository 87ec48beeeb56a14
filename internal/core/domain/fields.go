package domain

import "encoding/json"

// FieldSet is the class-dependent extraction payload. Each document class
// carries its own field struct; absent fields stay nil and marshal as null,
// matching the persisted result shape.
type FieldSet interface {
	fieldSet()
	// Map renders the fields as a flat name->value mapping, nils included.
	Map() map[string]any
}

type InvoiceFields struct {
	InvoiceNumber *string  `json:"invoice_number"`
	Date          *string  `json:"date"`
	Company       *string  `json:"company"`
	TotalAmount   *float64 `json:"total_amount"`
}

func (InvoiceFields) fieldSet() {}

func (f InvoiceFields) Map() map[string]any {
	return map[string]any{
		"invoice_number": ptrValue(f.InvoiceNumber),
		"date":           ptrValue(f.Date),
		"company":        ptrValue(f.Company),
		"total_amount":   ptrValue(f.TotalAmount),
	}
}

type ResumeFields struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	ExperienceYears int     `json:"experience_years"`
}

func (ResumeFields) fieldSet() {}

func (f ResumeFields) Map() map[string]any {
	return map[string]any{
		"name":             ptrValue(f.Name),
		"email":            ptrValue(f.Email),
		"phone":            ptrValue(f.Phone),
		"experience_years": f.ExperienceYears,
	}
}

type UtilityBillFields struct {
	AccountNumber *string  `json:"account_number"`
	Date          *string  `json:"date"`
	UsageKWH      *float64 `json:"usage_kwh"`
	AmountDue     *float64 `json:"amount_due"`
}

func (UtilityBillFields) fieldSet() {}

func (f UtilityBillFields) Map() map[string]any {
	return map[string]any{
		"account_number": ptrValue(f.AccountNumber),
		"date":           ptrValue(f.Date),
		"usage_kwh":      ptrValue(f.UsageKWH),
		"amount_due":     ptrValue(f.AmountDue),
	}
}

// OtherFields is the empty payload for classes outside the extractable set.
type OtherFields struct{}

func (OtherFields) fieldSet() {}

func (OtherFields) Map() map[string]any { return map[string]any{} }

// DocumentResult is the per-document outcome recorded in job results and in
// the documents table. Exactly one of Fields or Extra is set for successful
// extractions; Extra holds the already-flat generative payload.
type DocumentResult struct {
	Class  DocumentClass
	Fields FieldSet
	Extra  map[string]any
	Err    string
}

// Map renders the result in its flat wire shape, the same view MarshalJSON
// serializes.
func (r DocumentResult) Map() map[string]any {
	out := map[string]any{"class": r.Class}
	if r.Fields != nil {
		for k, v := range r.Fields.Map() {
			out[k] = v
		}
	}
	for k, v := range r.Extra {
		if k == "document_type" || k == "class" {
			continue
		}
		out[k] = v
	}
	if r.Err != "" {
		out["error"] = r.Err
	}
	return out
}

// MarshalJSON flattens the envelope into the wire shape
// {"class": ..., <field>: <value>, ...} with an "error" key on failures.
func (r DocumentResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON restores the flat wire shape into Extra; the typed field
// structs are not reconstructed on the read path.
func (r *DocumentResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if cls, ok := raw["class"].(string); ok {
		r.Class = DocumentClass(cls)
		delete(raw, "class")
	}
	if msg, ok := raw["error"].(string); ok {
		r.Err = msg
		delete(raw, "error")
	}
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

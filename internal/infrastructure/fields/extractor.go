// Package fields extracts class-specific structured fields from cleaned text
// using regular expressions and date heuristics.
package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/solvify/docpipe/internal/core/domain"
)

var (
	emailRe   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe   = regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	invoiceRe = regexp.MustCompile(`(?:Invoice|INV|#)\s?[:#]?\s?([A-Za-z0-9-]+)`)
	accountRe = regexp.MustCompile(`(?:Account|Acc)\s?[:#]?\s?([A-Za-z0-9-]+)`)
	kwhRe     = regexp.MustCompile(`(?i)(\d+\.?\d*)\s?kwh`)
	yearsRe   = regexp.MustCompile(`(?i)(\d+)\+?\s?years?`)

	// amountPattern: optional currency symbol, 1-3 digit groups with optional
	// thousands separators, mandatory two-decimal fraction.
	amountPattern = `\$?\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})`
	amountRe      = regexp.MustCompile(amountPattern)
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// Extract dispatches on the document class. Missing fields stay nil; the
// only error path is an amount that matched the pattern but failed to parse,
// which indicates a defect rather than absent data.
func (e *Extractor) Extract(text string, class domain.DocumentClass) (domain.FieldSet, error) {
	switch class {
	case domain.ClassInvoice:
		return e.extractInvoice(text)
	case domain.ClassResume:
		return e.extractResume(text), nil
	case domain.ClassUtilityBill:
		return e.extractUtilityBill(text)
	default:
		return domain.OtherFields{}, nil
	}
}

func (e *Extractor) extractInvoice(text string) (domain.FieldSet, error) {
	out := domain.InvoiceFields{
		InvoiceNumber: findGroup(invoiceRe, text),
		Date:          findDate(text),
		Company:       firstNonEmptyLine(text),
	}
	amount, err := findAmount(text, []string{"total", "amount", "due", "balance"})
	if err != nil {
		return nil, err
	}
	out.TotalAmount = amount
	return out, nil
}

func (e *Extractor) extractResume(text string) domain.FieldSet {
	out := domain.ResumeFields{
		Name:  findName(text),
		Email: findGroup(emailRe, text),
		Phone: findGroup(phoneRe, text),
	}
	if m := yearsRe.FindStringSubmatch(text); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			out.ExperienceYears = years
		}
	}
	return out
}

func (e *Extractor) extractUtilityBill(text string) (domain.FieldSet, error) {
	out := domain.UtilityBillFields{
		AccountNumber: findGroup(accountRe, text),
		Date:          findDate(text),
	}
	if m := kwhRe.FindStringSubmatch(text); m != nil {
		usage, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse kwh %q: %w", m[1], err)
		}
		out.UsageKWH = &usage
	}
	amount, err := findAmount(text, []string{"amount due", "total due", "payable"})
	if err != nil {
		return nil, err
	}
	out.AmountDue = amount
	return out, nil
}

// findGroup returns the first capture group of the first match, or the whole
// match when the pattern has no groups.
func findGroup(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	value := m[0]
	if len(m) > 1 {
		value = m[1]
	}
	return &value
}

// findAmount looks for an amount following one of the keywords, falling back
// to the first amount anywhere in the text.
func findAmount(text string, keywords []string) (*float64, error) {
	for _, kw := range keywords {
		re, err := regexp.Compile(`(?is)` + regexp.QuoteMeta(kw) + `.*?(` + amountPattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("compile amount pattern for %q: %w", kw, err)
		}
		if m := re.FindStringSubmatch(text); m != nil {
			return parseAmount(m[1])
		}
	}
	if m := amountRe.FindString(text); m != "" {
		return parseAmount(m)
	}
	return nil, nil
}

// parseAmount strips the currency symbol and thousands separators. The
// pattern guarantees a parsable remainder, so failure is surfaced, not masked.
func parseAmount(raw string) (*float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return &value, nil
}

func firstNonEmptyLine(text string) *string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return &line
		}
	}
	return nil
}

// findName scans the first three lines for one with at least two
// whitespace-separated tokens.
func findName(text string) *string {
	lines := strings.Split(text, "\n")
	limit := 3
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if line != "" && len(strings.Fields(line)) >= 2 {
			return &line
		}
	}
	return nil
}

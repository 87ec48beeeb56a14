package fields

import (
	"testing"

	"github.com/solvify/docpipe/internal/core/domain"
)

func TestExtractInvoice(t *testing.T) {
	text := "Acme Corp\nInvoice #123\nDate: 06/10/2024\nTotal: $45.00"

	fs, err := New().Extract(text, domain.ClassInvoice)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	inv, ok := fs.(domain.InvoiceFields)
	if !ok {
		t.Fatalf("expected InvoiceFields, got %T", fs)
	}
	if inv.InvoiceNumber == nil || *inv.InvoiceNumber != "123" {
		t.Fatalf("invoice_number = %v, want 123", inv.InvoiceNumber)
	}
	if inv.TotalAmount == nil || *inv.TotalAmount != 45.00 {
		t.Fatalf("total_amount = %v, want 45.00", inv.TotalAmount)
	}
	if inv.Company == nil || *inv.Company != "Acme Corp" {
		t.Fatalf("company = %v, want Acme Corp", inv.Company)
	}
	if inv.Date == nil || *inv.Date != "2024-06-10" {
		t.Fatalf("date = %v, want 2024-06-10", inv.Date)
	}
}

func TestExtractInvoiceMissingFieldsStayNil(t *testing.T) {
	fs, err := New().Extract("some formless note", domain.ClassInvoice)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	inv := fs.(domain.InvoiceFields)
	if inv.InvoiceNumber != nil || inv.Date != nil || inv.TotalAmount != nil {
		t.Fatalf("expected nil fields, got %+v", inv)
	}
	// The first non-empty line still serves as the company heuristic.
	if inv.Company == nil {
		t.Fatalf("expected company from first line")
	}
}

func TestExtractInvoiceThousandsSeparatorAmount(t *testing.T) {
	fs, err := New().Extract("Balance due: $1,234.56", domain.ClassInvoice)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	inv := fs.(domain.InvoiceFields)
	if inv.TotalAmount == nil || *inv.TotalAmount != 1234.56 {
		t.Fatalf("total_amount = %v, want 1234.56", inv.TotalAmount)
	}
}

func TestExtractResume(t *testing.T) {
	text := "Jane Doe\nSenior Engineer\njane.doe@example.com\n(555) 123-4567\n8 years of experience"

	fs, err := New().Extract(text, domain.ClassResume)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	res := fs.(domain.ResumeFields)
	if res.Name == nil || *res.Name != "Jane Doe" {
		t.Fatalf("name = %v, want Jane Doe", res.Name)
	}
	if res.Email == nil || *res.Email != "jane.doe@example.com" {
		t.Fatalf("email = %v", res.Email)
	}
	if res.Phone == nil {
		t.Fatalf("expected phone match")
	}
	if res.ExperienceYears != 8 {
		t.Fatalf("experience_years = %d, want 8", res.ExperienceYears)
	}
}

func TestExtractResumeDefaultsExperienceToZero(t *testing.T) {
	fs, err := New().Extract("Jane Doe\njd@example.com", domain.ClassResume)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if fs.(domain.ResumeFields).ExperienceYears != 0 {
		t.Fatalf("expected experience_years 0")
	}
}

func TestExtractUtilityBill(t *testing.T) {
	text := "City Power\nAccount: UB-4451\nService date 2024-06-05\nUsage: 340.5 kWh\nAmount Due: $88.20"

	fs, err := New().Extract(text, domain.ClassUtilityBill)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	ub := fs.(domain.UtilityBillFields)
	if ub.AccountNumber == nil || *ub.AccountNumber != "UB-4451" {
		t.Fatalf("account_number = %v, want UB-4451", ub.AccountNumber)
	}
	if ub.UsageKWH == nil || *ub.UsageKWH != 340.5 {
		t.Fatalf("usage_kwh = %v, want 340.5", ub.UsageKWH)
	}
	if ub.AmountDue == nil || *ub.AmountDue != 88.20 {
		t.Fatalf("amount_due = %v, want 88.20", ub.AmountDue)
	}
	if ub.Date == nil || *ub.Date != "2024-06-05" {
		t.Fatalf("date = %v, want 2024-06-05", ub.Date)
	}
}

func TestExtractOtherClassesYieldEmptyFields(t *testing.T) {
	for _, class := range []domain.DocumentClass{domain.ClassOther, domain.ClassUnclassifiable, "Memo"} {
		fs, err := New().Extract("anything", class)
		if err != nil {
			t.Fatalf("Extract(%s) error = %v", class, err)
		}
		if _, ok := fs.(domain.OtherFields); !ok {
			t.Fatalf("Extract(%s) = %T, want OtherFields", class, fs)
		}
		if len(fs.Map()) != 0 {
			t.Fatalf("expected empty field map for %s", class)
		}
	}
}

func TestFindDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"posted 01/15/2023 by mail", "2023-01-15"},
		{"due January 1, 2023 sharp", "2023-01-01"},
		{"ref 2023-04-30 end", "2023-04-30"},
		{"no date here", ""},
	}
	for _, tt := range tests {
		got := findDate(tt.in)
		if tt.want == "" {
			if got != nil {
				t.Fatalf("findDate(%q) = %v, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Fatalf("findDate(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFindAmountPrefersKeywordProximity(t *testing.T) {
	text := "Deposit paid: $5.00\nTotal: $45.00"
	amount, err := findAmount(text, []string{"total", "amount", "due", "balance"})
	if err != nil {
		t.Fatalf("findAmount() error = %v", err)
	}
	if amount == nil || *amount != 45.00 {
		t.Fatalf("amount = %v, want 45.00 (amount following the keyword)", amount)
	}
}

package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/solvify/docpipe/internal/core/domain"
)

func openWorkbook(t *testing.T, raw []byte) [][]string {
	t.Helper()
	file, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	return rows
}

func TestWorkbookUnionsColumnsAcrossClasses(t *testing.T) {
	amount := 45.0
	invoiceNo := "INV-1"
	name := "Ada Lovelace"

	raw, err := Workbook(map[string]*domain.DocumentResult{
		"invoice.pdf": {
			Class:  domain.ClassInvoice,
			Fields: &domain.InvoiceFields{InvoiceNumber: &invoiceNo, TotalAmount: &amount},
		},
		"resume.txt": {
			Class:  domain.ClassResume,
			Fields: &domain.ResumeFields{Name: &name, ExperienceYears: 5},
		},
	})
	if err != nil {
		t.Fatalf("Workbook() error = %v", err)
	}

	rows := openWorkbook(t, raw)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}

	header := rows[0]
	if header[0] != "filename" || header[1] != "class" {
		t.Fatalf("header = %v", header)
	}
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %q in %v", name, header)
		return -1
	}

	// Filenames sort alphabetically, invoice first.
	invoiceRow := rows[1]
	if invoiceRow[0] != "invoice.pdf" || invoiceRow[1] != "Invoice" {
		t.Fatalf("invoice row = %v", invoiceRow)
	}
	if invoiceRow[col("invoice_number")] != "INV-1" {
		t.Fatalf("invoice_number = %q", invoiceRow[col("invoice_number")])
	}

	resumeRow := rows[2]
	if resumeRow[col("name")] != "Ada Lovelace" {
		t.Fatalf("name = %q", resumeRow[col("name")])
	}
}

func TestWorkbookIncludesErrorEntries(t *testing.T) {
	raw, err := Workbook(map[string]*domain.DocumentResult{
		"broken.pdf": {Class: domain.ClassError, Err: "pdf corrupted"},
	})
	if err != nil {
		t.Fatalf("Workbook() error = %v", err)
	}

	rows := openWorkbook(t, raw)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	found := false
	for _, cell := range rows[1] {
		if cell == "pdf corrupted" {
			found = true
		}
	}
	if !found {
		t.Fatalf("error message missing from row %v", rows[1])
	}
}

func TestWorkbookWithNoResultsStillHasHeader(t *testing.T) {
	raw, err := Workbook(map[string]*domain.DocumentResult{})
	if err != nil {
		t.Fatalf("Workbook() error = %v", err)
	}

	rows := openWorkbook(t, raw)
	if len(rows) != 1 || rows[0][0] != "filename" {
		t.Fatalf("rows = %v", rows)
	}
}

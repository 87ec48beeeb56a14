// Package export renders extraction results as an XLSX workbook for
// download.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/solvify/docpipe/internal/core/domain"
)

const sheetName = "Results"

// Workbook builds a spreadsheet with one row per document. The column set
// is the union of all field names across results, so rows with different
// classes still line up.
func Workbook(results map[string]*domain.DocumentResult) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	columns := collectColumns(results)
	header := append([]string{"filename"}, columns...)
	if err := writeRow(file, 1, toCells(header)); err != nil {
		return nil, err
	}

	filenames := make([]string, 0, len(results))
	for name := range results {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	for i, name := range filenames {
		flat := results[name].Map()
		row := make([]any, 0, len(header))
		row = append(row, name)
		for _, column := range columns {
			row = append(row, cellValue(flat[column]))
		}
		if err := writeRow(file, i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func collectColumns(results map[string]*domain.DocumentResult) []string {
	seen := make(map[string]bool)
	for _, result := range results {
		for key := range result.Map() {
			seen[key] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		if key == "class" {
			continue
		}
		columns = append(columns, key)
	}
	sort.Strings(columns)
	// Class always leads so the sheet reads class-first.
	return append([]string{"class"}, columns...)
}

func writeRow(file *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row coordinates: %w", err)
	}
	if err := file.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// cellValue keeps scalars native and serializes anything nested, so model
// outputs with arbitrary structure still export.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case domain.DocumentClass:
		return string(val)
	case string, bool, int, int64, float64, float32:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

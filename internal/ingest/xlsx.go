package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pricelist/internal"
)

// parseSpreadsheet reads the first sheet of an xlsx workbook into a Table
// and reports the total sheet count as metadata.
func parseSpreadsheet(content []byte) (internal.IngestResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.IngestResult{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	result := internal.IngestResult{Kind: internal.KindSpreadsheet, SheetCount: len(sheets)}
	if len(sheets) == 0 {
		result.Table = internal.Table{Headers: []string{}, Rows: []map[string]any{}}
		return result, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return internal.IngestResult{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		if rowIsBlank(row) {
			continue
		}
		// excelize yields ragged rows; pad to the widest so every row
		// carries the full header set.
		padded := make([]string, width)
		copy(padded, row)
		grid = append(grid, padded)
	}
	result.Table = tableFromRows(grid)
	if len(sheets) > 1 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("workbook has %d sheets, only %q was read", len(sheets), sheets[0]))
	}
	return result, nil
}

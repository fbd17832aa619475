package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pricelist/internal"
)

var offerColumns = []string{
	"productId", "supplierId", "rawPrice", "rawCurrency", "packQty", "packUnit",
	"normalizedPricePerUnit", "normalizedUnit", "category", "sourceId", "updatedAt",
	"inStock", "leadTime", "minimumOrder", "notes",
}

// ExportOffersCSV writes offers as the downloadable CSV artifact. Values
// containing the delimiter, a quote or a newline are quoted with internal
// quotes doubled.
func ExportOffersCSV(offers []internal.Offer, outputPath string) error {
	rows := make([][]string, 0, len(offers))
	for _, o := range offers {
		rows = append(rows, offerCells(o))
	}
	return writeCSV(outputPath, offerColumns, rows)
}

// ExportMappedCSV writes canonical field-keyed records: the header row is
// the mapped canonical field names in mapping order (the table's header
// order, skips dropped).
func ExportMappedCSV(headers []string, cm internal.ColumnMapping, records []map[string]any, outputPath string) error {
	fields := []string{}
	for _, header := range headers {
		fm, ok := cm[header]
		if !ok || fm.Field == internal.SkipField || fm.Field == "" {
			continue
		}
		fields = append(fields, fm.Field)
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		cells := make([]string, 0, len(fields))
		for _, field := range fields {
			cells = append(cells, cellText(record[field]))
		}
		rows = append(rows, cells)
	}
	return writeCSV(outputPath, fields, rows)
}

func writeCSV(outputPath string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	writeLine := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(cell))
		}
		b.WriteString("\r\n")
	}
	writeLine(headers)
	for _, row := range rows {
		writeLine(row)
	}

	return os.WriteFile(outputPath, []byte(b.String()), 0o644)
}

func quoteCell(cell string) string {
	if strings.ContainsAny(cell, ",\"\n\r") {
		return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return cell
}

// ExportOffersXLSX writes the same offer rows as a workbook.
func ExportOffersXLSX(offers []internal.Offer, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range offerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, o := range offers {
		r := i + 2
		for col, value := range offerCells(o) {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func offerCells(o internal.Offer) []string {
	return []string{
		o.ProductID,
		o.SupplierID,
		formatFloat(o.RawPrice),
		o.RawCurrency,
		formatFloat(o.PackQty),
		o.PackUnit,
		formatFloat(o.NormalizedPricePerUnit),
		o.NormalizedUnit,
		derefString(o.Category),
		o.SourceID,
		o.UpdatedAt,
		derefBool(o.InStock),
		derefString(o.LeadTime),
		derefFloat(o.MinimumOrder),
		derefString(o.Notes),
	}
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func derefBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

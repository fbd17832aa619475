package ingest

import (
	"fmt"
	"strings"

	"pricelist/internal"
	"pricelist/internal/util"
)

// tableFromRows promotes the first row to headers and coerces the rest.
// A lone row is treated as headerless data under synthesized positional
// headers. Blank header cells get positional names too.
func tableFromRows(rows [][]string) internal.Table {
	if len(rows) == 0 {
		return internal.Table{Headers: []string{}, Rows: []map[string]any{}}
	}

	var headers []string
	var dataRows [][]string
	if len(rows) == 1 {
		headers = positionalHeaders(len(rows[0]))
		dataRows = rows
	} else {
		headers = promoteHeaders(rows[0])
		dataRows = rows[1:]
	}

	out := internal.Table{Headers: headers, Rows: make([]map[string]any, 0, len(dataRows))}
	for _, raw := range dataRows {
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			cell := ""
			if i < len(raw) {
				cell = raw[i]
			}
			row[h] = CoerceCell(cell)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func promoteHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := map[string]int{}
	for i, cell := range raw {
		h := strings.TrimSpace(cell)
		if h == "" {
			h = positionalHeader(i)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s (%d)", h, n+1)
		}
		seen[h] = 1
		headers[i] = h
	}
	return headers
}

func positionalHeaders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = positionalHeader(i)
	}
	return out
}

func positionalHeader(i int) string {
	return fmt.Sprintf("Column %d", i+1)
}

// CoerceCell trims a raw cell and reinterprets it as float64 when it looks
// numeric after stripping thousands separators and currency symbols.
// Empty stays the empty string.
func CoerceCell(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if parsed, ok := util.ParseNumber(trimmed); ok {
		return parsed
	}
	return trimmed
}

// CellString renders a coerced cell back to text.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", t), "0"), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// CellNumber extracts a numeric value from a coerced cell, re-running the
// numeric pattern for cells kept as strings.
func CellNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return util.ParseNumber(t)
	default:
		return 0, false
	}
}

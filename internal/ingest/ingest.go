// Package ingest turns heterogeneous supplier price-list inputs (delimited
// text, spreadsheets, HTML tables, PDFs) into the uniform Table shape.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pricelist/internal"
)

// UnsupportedFormatError names formats this subsystem does not handle.
// It is always recoverable by supplying CSV or plain text instead.
type UnsupportedFormatError struct {
	Filename string
	Ext      string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (%s): supply CSV, TSV, XLSX, HTML or PDF instead", e.Ext, e.Filename)
}

type Ingestor struct {
	pdfExtractor PDFExtractor
}

func New(pdfExtractor PDFExtractor) *Ingestor {
	return &Ingestor{pdfExtractor: pdfExtractor}
}

// Ingest dispatches on the file extension. Zero parsed rows is a valid
// empty result, never an error.
func (g *Ingestor) Ingest(ctx context.Context, filename string, content []byte) (internal.IngestResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".tsv", ".txt", "":
		return IngestText(string(content)), nil
	case ".xlsx", ".xls":
		return parseSpreadsheet(content)
	case ".html", ".htm":
		return parseHTMLTable(string(content))
	case ".pdf":
		return parsePDF(ctx, content, g.pdfExtractor)
	default:
		return internal.IngestResult{}, &UnsupportedFormatError{Filename: filename, Ext: ext}
	}
}

// IngestText parses delimited text with delimiter auto-detection.
func IngestText(text string) internal.IngestResult {
	delimiter := DetectDelimiter(text)
	rows := ParseDelimited(text, delimiter)
	return internal.IngestResult{Kind: internal.KindDelimited, Table: tableFromRows(rows)}
}

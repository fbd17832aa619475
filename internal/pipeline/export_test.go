package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pricelist/internal"
)

func TestQuoteCell(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
	}
	for _, tc := range cases {
		if got := quoteCell(tc.input); got != tc.want {
			t.Errorf("quoteCell(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestExportOffersCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "offers.csv")

	offers := []internal.Offer{
		{
			ProductID:              "CBL-100",
			SupplierID:             "Acme, Inc.",
			RawPrice:               485,
			RawCurrency:            "AUD",
			PackQty:                5,
			PackUnit:               "m",
			NormalizedPricePerUnit: 97,
			NormalizedUnit:         "m",
			SourceID:               "src-1",
			UpdatedAt:              "2026-08-01T00:00:00Z",
		},
	}

	if err := ExportOffersCSV(offers, path); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(blob), "\r\n")
	if len(lines) != 3 || lines[2] != "" {
		t.Fatalf("expected header, one row and CRLF line ends, got %q", string(blob))
	}
	if !strings.HasPrefix(lines[0], "productId,supplierId,rawPrice") {
		t.Fatalf("header: %q", lines[0])
	}
	if !strings.Contains(lines[1], `"Acme, Inc."`) {
		t.Fatalf("supplier with comma must be quoted: %q", lines[1])
	}
	if !strings.Contains(lines[1], ",97,") {
		t.Fatalf("normalized price missing: %q", lines[1])
	}
}

func TestExportMappedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapped.csv")

	headers := []string{"Item", "Internal", "Cost"}
	cm := internal.ColumnMapping{
		"Item":     {Field: "product_name", Confidence: 1},
		"Internal": {Field: internal.SkipField, Confidence: 0.1},
		"Cost":     {Field: "price", Confidence: 1},
	}
	records := []map[string]any{
		{"product_name": "Copper cable", "price": 4.5},
	}

	if err := ExportMappedCSV(headers, cm, records, path); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(blob)
	want := "product_name,price\r\nCopper cable,4.5\r\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

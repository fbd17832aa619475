package ingest

import "testing"

func TestIngestTextPromotesHeaders(t *testing.T) {
	result := IngestText("Product,Price,Currency\nWidget,\"$1,234.56\",USD\n")
	table := result.Table
	if len(table.Headers) != 3 || table.Headers[0] != "Product" {
		t.Fatalf("headers=%v", table.Headers)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	price, ok := table.Rows[0]["Price"].(float64)
	if !ok || price != 1234.56 {
		t.Fatalf("price=%v", table.Rows[0]["Price"])
	}
	if table.Rows[0]["Product"] != "Widget" {
		t.Fatalf("product=%v", table.Rows[0]["Product"])
	}
}

func TestIngestTextSingleRowIsHeaderless(t *testing.T) {
	result := IngestText("Widget,10,USD")
	table := result.Table
	if len(table.Headers) != 3 || table.Headers[0] != "Column 1" {
		t.Fatalf("headers=%v", table.Headers)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	if v, ok := table.Rows[0]["Column 2"].(float64); !ok || v != 10 {
		t.Fatalf("cell=%v", table.Rows[0]["Column 2"])
	}
}

func TestIngestTextEmpty(t *testing.T) {
	result := IngestText("")
	if !result.Table.Empty() {
		t.Fatalf("expected empty table, got %+v", result.Table)
	}
}

func TestIngestTextBlankAndDuplicateHeaders(t *testing.T) {
	result := IngestText("Name,,Price,Price\na,b,1,2\n")
	headers := result.Table.Headers
	if headers[1] != "Column 2" {
		t.Fatalf("blank header not synthesized: %v", headers)
	}
	if headers[2] == headers[3] {
		t.Fatalf("duplicate headers not disambiguated: %v", headers)
	}
}

func TestCoerceCell(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  any
	}{
		{name: "plain number", input: " 10 ", want: float64(10)},
		{name: "currency symbol", input: "$485.00", want: float64(485)},
		{name: "euro thousand comma", input: "€1,500", want: float64(1500)},
		{name: "percent", input: "15%", want: float64(15)},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "text stays text", input: " Widget ", want: "Widget"},
		{name: "mixed stays text", input: "ABC123", want: "ABC123"},
		{name: "empty stays empty", input: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CoerceCell(tc.input); got != tc.want {
				t.Fatalf("got %v (%T) want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

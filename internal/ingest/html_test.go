package ingest

import "testing"

func TestParseHTMLTable(t *testing.T) {
	html := `<html><body>
<p>Dear customer, our prices:</p>
<table>
<tr><th>Product</th><th>Price</th><th>Unit</th></tr>
<tr><td>Cable 3x2.5</td><td>485</td><td>m</td></tr>
<tr><td>Widget</td><td>12.50</td><td>pcs</td></tr>
</table>
</body></html>`

	result, err := parseHTMLTable(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Table.Headers) != 3 || result.Table.Headers[0] != "Product" {
		t.Fatalf("headers=%v", result.Table.Headers)
	}
	if len(result.Table.Rows) != 2 {
		t.Fatalf("rows=%d", len(result.Table.Rows))
	}
	if price, ok := result.Table.Rows[1]["Price"].(float64); !ok || price != 12.5 {
		t.Fatalf("price=%v", result.Table.Rows[1]["Price"])
	}
}

func TestParseHTMLTableNone(t *testing.T) {
	result, err := parseHTMLTable("<p>no table here</p>")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Table.Empty() {
		t.Fatalf("expected empty table, got %+v", result.Table)
	}
}

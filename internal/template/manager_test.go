package template

import (
	"path/filepath"
	"testing"

	"pricelist/internal"
	"pricelist/internal/mapping"
	"pricelist/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "pricelist.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewManager(db, mapping.New(db.Learned(), 0)), db
}

func TestTemplateLifecycle(t *testing.T) {
	m, _ := newTestManager(t)

	cm, err := m.AutoDetectMappings([]string{"Supplier", "Product", "Price", "SKU"})
	if err != nil {
		t.Fatal(err)
	}

	created, err := m.Create("acme", "Acme monthly list", cm)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("template id not assigned")
	}

	got, err := m.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.SupplierID != "acme" || got.Mapping["Price"].Field != "price" {
		t.Fatalf("stored template: %+v", got)
	}

	bySupplier, err := m.GetBySupplier("acme")
	if err != nil {
		t.Fatal(err)
	}
	if bySupplier == nil || bySupplier.ID != created.ID {
		t.Fatalf("supplier lookup: %+v", bySupplier)
	}

	updated, err := m.Update(created.ID, "Acme weekly list", nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Acme weekly list" {
		t.Fatalf("name not updated: %q", updated.Name)
	}

	list, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list: %d templates", len(list))
	}

	if err := m.Delete(created.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(created.ID); err == nil {
		t.Fatal("second delete must fail")
	}
	if got, err := m.Get(created.ID); err != nil || got != nil {
		t.Fatalf("deleted template still readable: %+v %v", got, err)
	}
}

func TestCreateRequiresSupplier(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Create("", "nameless", nil); err == nil {
		t.Fatal("expected error for empty supplier id")
	}
}

func TestCorrectFeedsLearnedStore(t *testing.T) {
	m, db := newTestManager(t)

	created, err := m.Create("acme", "", internal.ColumnMapping{
		"Vendor": {Field: internal.SkipField, Confidence: 0.3},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := m.Correct(created.ID, "Vendor", "supplier")
	if err != nil {
		t.Fatal(err)
	}
	fm := updated.Mapping["Vendor"]
	if fm.Field != "supplier" || fm.Confidence != 1.0 {
		t.Fatalf("template entry: %+v", fm)
	}

	// The correction applies globally, not just to this template.
	field, ok, err := db.Learned().Get("vendor")
	if err != nil || !ok || field != "supplier" {
		t.Fatalf("learned store: %q %v %v", field, ok, err)
	}

	cm, err := m.AutoDetectMappings([]string{"VENDOR"})
	if err != nil {
		t.Fatal(err)
	}
	if cm["VENDOR"].Field != "supplier" || cm["VENDOR"].Confidence != 1.0 {
		t.Fatalf("later detection ignores correction: %+v", cm["VENDOR"])
	}
}

func TestCorrectRejectsUnknownField(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create("acme", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Correct(created.ID, "Vendor", "bogus"); err == nil {
		t.Fatal("expected error for unknown canonical field")
	}
}

func TestProcessDataReplaysMapping(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create("acme", "", internal.ColumnMapping{
		"Item":     {Field: "product_name", Confidence: 1},
		"SKU":      {Field: "product_code", Confidence: 1},
		"Cost":     {Field: "price", Confidence: 1},
		"Internal": {Field: internal.SkipField, Confidence: 0.2},
	})
	if err != nil {
		t.Fatal(err)
	}

	records, err := m.ProcessData(created.ID, []map[string]any{
		{"Item": "Copper cable", "SKU": 10023.0, "Cost": "$4.50", "Internal": "x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records: %d", len(records))
	}
	rec := records[0]
	if _, ok := rec["Internal"]; ok {
		t.Fatal("skipped column must be dropped")
	}
	// Product codes stay strings even when the cell was parsed numeric.
	if code, ok := rec["product_code"].(string); !ok || code != "10023" {
		t.Fatalf("product_code: %#v", rec["product_code"])
	}
	if price, ok := rec["price"].(float64); !ok || price != 4.5 {
		t.Fatalf("price: %#v", rec["price"])
	}
}

func TestProcessDataUnknownTemplate(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.ProcessData("missing", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

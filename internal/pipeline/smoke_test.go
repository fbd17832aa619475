package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pricelist/internal/config"
	"pricelist/internal/ingest"
	"pricelist/internal/mapping"
	"pricelist/internal/normalize"
	"pricelist/internal/storage"
	"pricelist/internal/template"
)

type fakeRates struct {
	rates map[string]float64
}

func (f *fakeRates) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	return f.rates, nil
}

func newTestProcessor(t *testing.T, rates *fakeRates) (*Processor, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "pricelist.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{BaseCurrency: "AUD", PricePrecision: 2, MapAcceptThreshold: 0.6}
	mapper := mapping.New(db.Learned(), cfg.MapAcceptThreshold)
	templates := template.NewManager(db, mapper)
	var source normalize.RateSource
	if rates != nil {
		source = rates
	}
	norm := normalize.New(source, nil, cfg.PricePrecision)
	return NewProcessor(cfg, db, nil, ingest.New(nil), templates, norm), db
}

func TestProcessFileEndToEnd(t *testing.T) {
	p, db := newTestProcessor(t, &fakeRates{rates: map[string]float64{"USD": 1.5}})

	content := []byte("Supplier,Product,SKU,Price,Currency,Qty,Unit\r\n" +
		"Acme,Copper cable,CBL-100,485.00,AUD,5,m\r\n" +
		"Acme,Widget,W-9,\"$100.00\",USD,1,pcs\r\n" +
		"Acme,No price,X-1,,USD,1,pcs\r\n")

	result := p.ProcessFile(context.Background(), FileRequest{
		Filename: "acme.csv",
		Content:  content,
		Supplier: "acme",
	})
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	if result.Offers != 2 || result.Skipped != 1 {
		t.Fatalf("offers=%d skipped=%d", result.Offers, result.Skipped)
	}
	if result.SourceID == "" {
		t.Fatal("source id not recorded")
	}

	offers, err := db.ListOffers("Acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 2 {
		t.Fatalf("stored offers: %d", len(offers))
	}
	byProduct := map[string]float64{}
	for _, o := range offers {
		byProduct[o.ProductID] = o.NormalizedPricePerUnit
	}
	if byProduct["CBL-100"] != 97 {
		t.Fatalf("CBL-100 normalized price: %v", byProduct["CBL-100"])
	}
	if byProduct["W-9"] != 150 {
		t.Fatalf("W-9 normalized price: %v", byProduct["W-9"])
	}

	// A valid first ingest persists the auto-detected supplier template.
	tmpl, err := db.GetTemplateBySupplier("acme")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl == nil {
		t.Fatal("supplier template not persisted")
	}
	if tmpl.Mapping["Price"].Field != "price" {
		t.Fatalf("template mapping: %+v", tmpl.Mapping["Price"])
	}
}

func TestProcessFileEmptyInput(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	result := p.ProcessFile(context.Background(), FileRequest{
		Filename: "empty.csv",
		Content:  []byte(""),
	})
	if result.Err != nil {
		t.Fatalf("empty input must be recoverable: %v", result.Err)
	}
	if result.Offers != 0 {
		t.Fatalf("offers=%d", result.Offers)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected an empty-input warning")
	}
}

func TestProcessFileMissingRequiredColumns(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	result := p.ProcessFile(context.Background(), FileRequest{
		Filename: "partial.csv",
		Content:  []byte("Supplier,Product\r\nAcme,Cable\r\n"),
	})
	var missing *mapping.MissingFieldsError
	if !errors.As(result.Err, &missing) {
		t.Fatalf("expected MissingFieldsError, got %v", result.Err)
	}
}

func TestProcessFileUnsupportedFormat(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	result := p.ProcessFile(context.Background(), FileRequest{
		Filename: "listing.docx",
		Content:  []byte("not tabular"),
	})
	var unsupported *ingest.UnsupportedFormatError
	if !errors.As(result.Err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", result.Err)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	p, db := newTestProcessor(t, nil)

	results := p.ProcessBatch(context.Background(), []FileRequest{
		{Filename: "bad.docx", Content: []byte("x"), Supplier: "acme"},
		{
			Filename: "good.csv",
			Supplier: "acme",
			Content:  []byte("Supplier,Product,Price\r\nAcme,Cable,10\r\n"),
		},
	})
	if len(results) != 2 {
		t.Fatalf("results: %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("first file should fail")
	}
	if results[1].Err != nil {
		t.Fatalf("second file should succeed: %v", results[1].Err)
	}

	offers, err := db.ListOffers("")
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 1 {
		t.Fatalf("stored offers: %d", len(offers))
	}
}

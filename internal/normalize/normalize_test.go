package normalize

import (
	"context"
	"errors"
	"testing"
)

type fakeRates struct {
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeRates) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	f.calls++
	return f.rates, f.err
}

func TestNormalizePerUnitPrice(t *testing.T) {
	n := New(nil, nil, 2)

	// 485 AUD for a 5 m reel, priced per metre.
	got := n.Normalize(context.Background(), 485, "AUD", 5, "m", "m", "AUD")
	want := Result{Price: 97.00, Currency: "AUD", Unit: "m"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestNormalizeCurrencyConversion(t *testing.T) {
	rates := &fakeRates{rates: map[string]float64{"USD": 1.5}}
	n := New(rates, nil, 2)

	got := n.Normalize(context.Background(), 100, "USD", 1, "pcs", "pcs", "AUD")
	want := Result{Price: 150.00, Currency: "AUD", Unit: "pcs"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestNormalizeMissingRateKeepsCurrency(t *testing.T) {
	rates := &fakeRates{rates: map[string]float64{"EUR": 1.7}}
	n := New(rates, nil, 2)

	got := n.Normalize(context.Background(), 100, "USD", 1, "pcs", "pcs", "AUD")
	if got.Currency != "USD" || got.Price != 100 {
		t.Fatalf("missing rate must keep original currency: %+v", got)
	}
}

func TestNormalizeRateSourceErrorKeepsCurrency(t *testing.T) {
	rates := &fakeRates{err: errors.New("fx down")}
	n := New(rates, nil, 2)

	got := n.Normalize(context.Background(), 100, "USD", 1, "pcs", "pcs", "AUD")
	if got.Currency != "USD" || got.Price != 100 {
		t.Fatalf("rate source failure must keep original currency: %+v", got)
	}
}

func TestNormalizeUnitRescale(t *testing.T) {
	n := New(nil, nil, 2)

	// 50 per 100 cm, target metres: 0.50 per cm, 50.00 per m.
	got := n.Normalize(context.Background(), 50, "", 100, "cm", "m", "USD")
	want := Result{Price: 50.00, Currency: "USD", Unit: "m"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestNormalizeIncompatibleUnitsKeepPackUnit(t *testing.T) {
	n := New(nil, nil, 2)

	got := n.Normalize(context.Background(), 30, "", 3, "kg", "m", "USD")
	if got.Unit != "kg" || got.Price != 10 {
		t.Fatalf("incompatible units must fall back to pack unit: %+v", got)
	}
}

func TestNormalizeUnknownUnitPassesThrough(t *testing.T) {
	n := New(nil, nil, 2)

	got := n.Normalize(context.Background(), 12, "", 1, "carton", "pcs", "USD")
	if got.Unit != "carton" || got.Price != 12 {
		t.Fatalf("unknown unit must pass through unchanged: %+v", got)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := New(nil, nil, 2)

	// Zero quantity is treated as one, empty currency as base, empty pack
	// unit as the target unit.
	got := n.Normalize(context.Background(), 9.5, "", 0, "", "m", "AUD")
	want := Result{Price: 9.50, Currency: "AUD", Unit: "m"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(nil, nil, 2)

	first := n.Normalize(context.Background(), 485, "AUD", 5, "m", "m", "AUD")
	second := n.Normalize(context.Background(), first.Price, first.Currency, 1, first.Unit, "m", "AUD")
	if first.Price != second.Price || first.Unit != second.Unit || first.Currency != second.Currency {
		t.Fatalf("re-normalizing changed the result: %+v vs %+v", first, second)
	}
}

func TestNormalizeRounding(t *testing.T) {
	n := New(nil, nil, 2)

	got := n.Normalize(context.Background(), 10, "", 3, "pcs", "pcs", "USD")
	if got.Price != 3.33 {
		t.Fatalf("got %v want 3.33", got.Price)
	}

	got = n.Normalize(context.Background(), 0.005, "", 1, "pcs", "pcs", "USD")
	if got.Price != 0.01 {
		t.Fatalf("half rounds away from zero, got %v", got.Price)
	}
}

func TestTargetUnitFor(t *testing.T) {
	n := New(nil, nil, 2)

	if got := n.TargetUnitFor("Cable", "ft"); got != "m" {
		t.Fatalf("category default wins: %q", got)
	}
	if got := n.TargetUnitFor("", "g"); got != "kg" {
		t.Fatalf("pack unit standard wins: %q", got)
	}
	if got := n.TargetUnitFor("", "mystery"); got != "pcs" {
		t.Fatalf("fallback is count: %q", got)
	}
}

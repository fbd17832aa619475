package pipeline

import (
	"context"
	"strings"
	"time"

	"pricelist/internal"
	"pricelist/internal/ingest"
	"pricelist/internal/normalize"
	"pricelist/internal/util"
)

// buildOffer turns one canonical field-keyed record into an Offer. Returns
// false when the record has no usable price.
func buildOffer(ctx context.Context, n *normalize.Normalizer, record map[string]any, fallbackSupplier, sourceID, baseCurrency, targetUnit string) (internal.Offer, bool) {
	price, ok := ingest.CellNumber(record["price"])
	if !ok {
		return internal.Offer{}, false
	}

	supplier := strings.TrimSpace(ingest.CellString(record["supplier"]))
	if supplier == "" {
		supplier = fallbackSupplier
	}

	productID := strings.TrimSpace(ingest.CellString(record["product_code"]))
	if productID == "" {
		productID = strings.TrimSpace(ingest.CellString(record["product_name"]))
	}
	if productID == "" {
		return internal.Offer{}, false
	}

	currency := strings.ToUpper(strings.TrimSpace(ingest.CellString(record["currency"])))

	packQty := 1.0
	if qty, ok := ingest.CellNumber(record["pack_quantity"]); ok && qty > 0 {
		packQty = qty
	}
	packUnit := strings.TrimSpace(ingest.CellString(record["pack_unit"]))
	if packUnit == "" {
		packUnit = strings.TrimSpace(ingest.CellString(record["unit"]))
	}

	category := strings.TrimSpace(ingest.CellString(record["category"]))
	if targetUnit == "" {
		targetUnit = n.TargetUnitFor(category, packUnit)
	}

	result := n.Normalize(ctx, price, currency, packQty, packUnit, targetUnit, baseCurrency)

	offer := internal.Offer{
		ProductID:              productID,
		SupplierID:             supplier,
		RawPrice:               price,
		RawCurrency:            orDefault(currency, strings.ToUpper(baseCurrency)),
		PackQty:                packQty,
		PackUnit:               packUnit,
		NormalizedPricePerUnit: result.Price,
		NormalizedUnit:         result.Unit,
		SourceID:               sourceID,
		UpdatedAt:              time.Now().UTC().Format(time.RFC3339),
	}
	if category != "" {
		offer.Category = util.StringPtr(category)
	}
	if raw, present := record["in_stock"]; present {
		if b, isBool := raw.(bool); isBool {
			offer.InStock = util.BoolPtr(b)
		} else if b, ok := util.ParseBool(ingest.CellString(raw)); ok {
			offer.InStock = util.BoolPtr(b)
		}
	}
	if lead := strings.TrimSpace(ingest.CellString(record["lead_time"])); lead != "" {
		offer.LeadTime = util.StringPtr(lead)
	}
	if minOrder, ok := ingest.CellNumber(record["minimum_order"]); ok {
		offer.MinimumOrder = util.FloatPtr(minOrder)
	}
	if notes := strings.TrimSpace(ingest.CellString(record["notes"])); notes != "" {
		offer.Notes = util.StringPtr(notes)
	}
	return offer, true
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

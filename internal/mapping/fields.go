// Package mapping matches arbitrary supplier column headers onto the fixed
// canonical field set, with a persistent learned-correction store.
package mapping

// FieldType drives cell coercion downstream: fields declared string (codes,
// notes) are never reinterpreted as numbers even when they look numeric.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "bool"
)

type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Synonyms []string
}

// Fields is the canonical target set in declaration order. Tie-breaks during
// mapping follow this order.
var Fields = []Field{
	{Name: "supplier", Type: TypeString, Required: true, Synonyms: []string{
		"supplier", "supplier name", "vendor", "vendor name", "seller", "company", "manufacturer", "brand", "distributor",
	}},
	{Name: "product_name", Type: TypeString, Required: true, Synonyms: []string{
		"product name", "product", "item", "item name", "description", "item description", "name", "title", "article name", "material",
	}},
	{Name: "product_code", Type: TypeString, Synonyms: []string{
		"product code", "item code", "sku", "article", "article number", "part number", "part no", "code", "ref", "reference", "model",
	}},
	{Name: "price", Type: TypeNumber, Required: true, Synonyms: []string{
		"price", "unit price", "cost", "unit cost", "rate", "amount", "price per unit", "net price", "list price",
	}},
	{Name: "currency", Type: TypeString, Synonyms: []string{
		"currency", "curr", "ccy", "currency code",
	}},
	{Name: "category", Type: TypeString, Synonyms: []string{
		"category", "group", "product group", "type", "product type", "class", "family",
	}},
	{Name: "unit", Type: TypeString, Synonyms: []string{
		"unit", "uom", "unit of measure", "measure", "units",
	}},
	{Name: "pack_quantity", Type: TypeNumber, Synonyms: []string{
		"pack quantity", "pack qty", "qty", "quantity", "pack size", "pcs per pack", "units per pack", "count",
	}},
	{Name: "pack_unit", Type: TypeString, Synonyms: []string{
		"pack unit", "packaging", "pack", "packing", "per", "sold per", "sales unit",
	}},
	{Name: "in_stock", Type: TypeBool, Synonyms: []string{
		"in stock", "stock", "availability", "available", "on hand", "stock status",
	}},
	{Name: "lead_time", Type: TypeString, Synonyms: []string{
		"lead time", "delivery time", "delivery", "eta", "availability date",
	}},
	{Name: "minimum_order", Type: TypeNumber, Synonyms: []string{
		"minimum order", "min order", "moq", "min qty", "minimum order quantity",
	}},
	{Name: "notes", Type: TypeString, Synonyms: []string{
		"notes", "note", "comment", "comments", "remarks", "info", "details",
	}},
}

// FieldByName returns the canonical field definition, if any.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields lists the fields that must be mapped before ingestion may
// proceed.
func RequiredFields() []string {
	out := []string{}
	for _, f := range Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

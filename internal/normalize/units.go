// Package normalize converts raw price/currency/pack tuples into prices per
// a common unit in a base currency so offers compare across suppliers.
package normalize

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Conversion rescales a unit into its dimension's standard unit. Two units
// are inter-convertible only when they share a StandardUnit.
type Conversion struct {
	StandardUnit string  `yaml:"standard"`
	Factor       float64 `yaml:"factor"`
}

type UnitTable struct {
	conversions      map[string]Conversion
	categoryDefaults map[string]string
}

func DefaultUnitTable() *UnitTable {
	t := &UnitTable{
		conversions: map[string]Conversion{
			// length
			"m": {"m", 1}, "meter": {"m", 1}, "metre": {"m", 1}, "mtr": {"m", 1},
			"cm": {"m", 0.01}, "mm": {"m", 0.001}, "km": {"m", 1000},
			"ft": {"m", 0.3048}, "in": {"m", 0.0254},
			// mass
			"kg": {"kg", 1}, "kilogram": {"kg", 1}, "g": {"kg", 0.001}, "gram": {"kg", 0.001},
			"t": {"kg", 1000}, "ton": {"kg", 1000}, "tonne": {"kg", 1000}, "lb": {"kg", 0.453592},
			// volume
			"l": {"l", 1}, "liter": {"l", 1}, "litre": {"l", 1}, "ml": {"l", 0.001}, "gal": {"l", 3.78541},
			// count
			"pcs": {"pcs", 1}, "pc": {"pcs", 1}, "piece": {"pcs", 1}, "pieces": {"pcs", 1},
			"ea": {"pcs", 1}, "each": {"pcs", 1}, "item": {"pcs", 1}, "dozen": {"pcs", 12},
			"pair": {"pcs", 2},
			// area
			"m2": {"m2", 1}, "sqm": {"m2", 1}, "cm2": {"m2", 0.0001},
		},
		categoryDefaults: map[string]string{
			"cable": "m", "wire": "m", "pipe": "m", "hose": "m", "rope": "m",
			"chemical": "kg", "powder": "kg", "metal": "kg",
			"liquid": "l", "paint": "l", "oil": "l",
			"fastener": "pcs", "tool": "pcs", "fitting": "pcs",
		},
	}
	return t
}

// Lookup resolves a unit alias. Matching is case-insensitive and ignores a
// trailing dot ("pcs.", "Kg").
func (t *UnitTable) Lookup(unit string) (Conversion, bool) {
	key := normalizeUnitKey(unit)
	conv, ok := t.conversions[key]
	return conv, ok
}

// CanonicalUnit returns the alias-free name a known unit normalizes to when
// it is already a standard unit, otherwise the cleaned alias itself.
func (t *UnitTable) CanonicalUnit(unit string) string {
	key := normalizeUnitKey(unit)
	if conv, ok := t.conversions[key]; ok && conv.Factor == 1 {
		return conv.StandardUnit
	}
	return key
}

// Convertible reports whether two units share a physical dimension.
func (t *UnitTable) Convertible(a, b string) bool {
	ca, okA := t.Lookup(a)
	cb, okB := t.Lookup(b)
	return okA && okB && ca.StandardUnit == cb.StandardUnit
}

// DefaultUnitForCategory picks a sensible target unit for batch ingestion.
func (t *UnitTable) DefaultUnitForCategory(category string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(category))
	if unit, ok := t.categoryDefaults[key]; ok {
		return unit, true
	}
	for probe, unit := range t.categoryDefaults {
		if key != "" && strings.Contains(key, probe) {
			return unit, true
		}
	}
	return "", false
}

type unitOverrides struct {
	Conversions      map[string]Conversion `yaml:"conversions"`
	CategoryDefaults map[string]string     `yaml:"category_defaults"`
}

// LoadOverrides merges a YAML units file over the built-in tables. Entries
// with non-positive factors are rejected.
func (t *UnitTable) LoadOverrides(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overrides unitOverrides
	if err := yaml.Unmarshal(blob, &overrides); err != nil {
		return fmt.Errorf("parse units file %s: %w", path, err)
	}
	for unit, conv := range overrides.Conversions {
		if conv.Factor <= 0 {
			return fmt.Errorf("units file %s: unit %q has non-positive factor", path, unit)
		}
		t.conversions[normalizeUnitKey(unit)] = conv
	}
	for category, unit := range overrides.CategoryDefaults {
		t.categoryDefaults[strings.ToLower(strings.TrimSpace(category))] = unit
	}
	return nil
}

func normalizeUnitKey(unit string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), ".")
}

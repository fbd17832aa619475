// Package template persists supplier-specific column mappings and replays
// them over freshly ingested rows.
package template

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pricelist/internal"
	"pricelist/internal/ingest"
	"pricelist/internal/mapping"
	"pricelist/internal/storage"
	"pricelist/internal/util"
)

type Manager struct {
	db     *storage.DB
	mapper *mapping.Mapper
}

func NewManager(db *storage.DB, mapper *mapping.Mapper) *Manager {
	return &Manager{db: db, mapper: mapper}
}

// AutoDetectMappings returns the full mapping for the given headers,
// including the ones left as "skip".
func (m *Manager) AutoDetectMappings(headers []string) (internal.ColumnMapping, error) {
	return m.mapper.MapHeaders(headers)
}

func (m *Manager) Create(supplierID, name string, cm internal.ColumnMapping) (internal.SupplierTemplate, error) {
	if supplierID == "" {
		return internal.SupplierTemplate{}, fmt.Errorf("supplier id is required")
	}
	if name == "" {
		name = supplierID
	}
	t := internal.SupplierTemplate{
		ID:         uuid.NewString(),
		SupplierID: supplierID,
		Name:       name,
		Mapping:    cm,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.db.UpsertTemplate(t); err != nil {
		return internal.SupplierTemplate{}, err
	}
	return t, nil
}

func (m *Manager) Update(id, name string, cm internal.ColumnMapping) (internal.SupplierTemplate, error) {
	existing, err := m.db.GetTemplate(id)
	if err != nil {
		return internal.SupplierTemplate{}, err
	}
	if existing == nil {
		return internal.SupplierTemplate{}, fmt.Errorf("template not found: %s", id)
	}
	if name != "" {
		existing.Name = name
	}
	if cm != nil {
		existing.Mapping = cm
	}
	if err := m.db.UpsertTemplate(*existing); err != nil {
		return internal.SupplierTemplate{}, err
	}
	return *existing, nil
}

func (m *Manager) Get(id string) (*internal.SupplierTemplate, error) {
	return m.db.GetTemplate(id)
}

func (m *Manager) GetBySupplier(supplierID string) (*internal.SupplierTemplate, error) {
	return m.db.GetTemplateBySupplier(supplierID)
}

func (m *Manager) List() ([]internal.SupplierTemplate, error) {
	return m.db.ListTemplates()
}

// Delete removes a template. Offers already ingested through it stay as
// they are.
func (m *Manager) Delete(id string) error {
	return m.db.DeleteTemplate(id)
}

// Correct applies a user override to a stored template and feeds it into
// the learned store, so the same header maps correctly for every supplier
// file seen later.
func (m *Manager) Correct(templateID, header, field string) (internal.SupplierTemplate, error) {
	t, err := m.db.GetTemplate(templateID)
	if err != nil {
		return internal.SupplierTemplate{}, err
	}
	if t == nil {
		return internal.SupplierTemplate{}, fmt.Errorf("template not found: %s", templateID)
	}

	if err := m.mapper.Correct(header, field); err != nil {
		return internal.SupplierTemplate{}, err
	}

	if t.Mapping == nil {
		t.Mapping = internal.ColumnMapping{}
	}
	key := header
	for existing := range t.Mapping {
		if util.NormalizeHeader(existing) == util.NormalizeHeader(header) {
			key = existing
			break
		}
	}
	t.Mapping[key] = internal.FieldMapping{Field: field, Confidence: 1.0}

	if err := m.db.UpsertTemplate(*t); err != nil {
		return internal.SupplierTemplate{}, err
	}
	return *t, nil
}

// ProcessData replays a stored mapping over new rows, producing canonical
// field-keyed records. Headers with no mapping (or mapped to "skip") are
// silently dropped. Values are re-coerced by the canonical field's declared
// type, so numeric-looking product codes stay strings.
func (m *Manager) ProcessData(templateID string, rows []map[string]any) ([]map[string]any, error) {
	t, err := m.db.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}
	return ApplyMapping(t.Mapping, rows), nil
}

// ApplyMapping is the mapping replay itself, shared with the pipeline.
func ApplyMapping(cm internal.ColumnMapping, rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := map[string]any{}
		for header, fm := range cm {
			if fm.Field == internal.SkipField || fm.Field == "" {
				continue
			}
			value, ok := row[header]
			if !ok {
				continue
			}
			record[fm.Field] = coerceForField(fm.Field, value)
		}
		out = append(out, record)
	}
	return out
}

func coerceForField(field string, value any) any {
	def, ok := mapping.FieldByName(field)
	if !ok {
		return value
	}
	switch def.Type {
	case mapping.TypeString:
		return ingest.CellString(value)
	case mapping.TypeNumber:
		if n, ok := ingest.CellNumber(value); ok {
			return n
		}
		return value
	case mapping.TypeBool:
		if b, ok := util.ParseBool(ingest.CellString(value)); ok {
			return b
		}
		return value
	default:
		return value
	}
}

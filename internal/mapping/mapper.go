package mapping

import (
	"fmt"
	"sort"
	"strings"

	"pricelist/internal"
	"pricelist/internal/util"
)

// LearnedStore persists user corrections keyed by normalized header text.
// Corrections never expire; the last one wins.
type LearnedStore interface {
	Get(normalizedHeader string) (string, bool, error)
	Put(normalizedHeader, field string) error
}

type Mapper struct {
	store     LearnedStore
	threshold float64
}

func New(store LearnedStore, threshold float64) *Mapper {
	if threshold <= 0 {
		threshold = 0.6
	}
	return &Mapper{store: store, threshold: threshold}
}

// MapHeaders maps every header independently. Learned corrections short-
// circuit at confidence 1.0 before any similarity scoring.
func (m *Mapper) MapHeaders(headers []string) (internal.ColumnMapping, error) {
	out := make(internal.ColumnMapping, len(headers))
	for _, header := range headers {
		fm, err := m.mapOne(header)
		if err != nil {
			return nil, err
		}
		out[header] = fm
	}
	return out, nil
}

func (m *Mapper) mapOne(header string) (internal.FieldMapping, error) {
	norm := util.NormalizeHeader(header)
	if norm == "" {
		return internal.FieldMapping{Field: internal.SkipField}, nil
	}

	if m.store != nil {
		learned, ok, err := m.store.Get(norm)
		if err != nil {
			return internal.FieldMapping{}, fmt.Errorf("learned store lookup %q: %w", norm, err)
		}
		if ok {
			return internal.FieldMapping{Field: learned, Confidence: 1.0}, nil
		}
	}

	bestField := internal.SkipField
	bestScore := 0.0
	nearMisses := []scoredSynonym{}

	for _, field := range Fields {
		fieldScore := 0.0
		fieldSynonym := ""
		for _, syn := range field.Synonyms {
			score := util.Similarity(norm, util.NormalizeHeader(syn))
			if score > fieldScore {
				fieldScore = score
				fieldSynonym = syn
			}
		}
		if fieldScore >= m.threshold {
			nearMisses = append(nearMisses, scoredSynonym{synonym: fieldSynonym, field: field.Name, score: fieldScore})
		}
		// Strictly-greater keeps the earliest field on ties.
		if fieldScore > bestScore {
			bestScore = fieldScore
			bestField = field.Name
		}
	}

	if bestScore < m.threshold {
		return internal.FieldMapping{Field: internal.SkipField, Confidence: bestScore}, nil
	}

	fm := internal.FieldMapping{Field: bestField, Confidence: bestScore}
	sort.SliceStable(nearMisses, func(i, j int) bool { return nearMisses[i].score > nearMisses[j].score })
	for _, nm := range nearMisses {
		if nm.field == bestField {
			continue
		}
		fm.Synonyms = append(fm.Synonyms, nm.synonym)
	}
	return fm, nil
}

type scoredSynonym struct {
	synonym string
	field   string
	score   float64
}

// Correct records a user override for a header and persists it so any later
// mapping of the same normalized header returns the corrected field.
func (m *Mapper) Correct(header, field string) error {
	if field != internal.SkipField {
		if _, ok := FieldByName(field); !ok {
			return fmt.Errorf("unknown canonical field: %s", field)
		}
	}
	if m.store == nil {
		return fmt.Errorf("no learned store configured")
	}
	norm := util.NormalizeHeader(header)
	if norm == "" {
		return fmt.Errorf("empty header")
	}
	return m.store.Put(norm, field)
}

// MissingFieldsError blocks downstream normalization until the named
// required fields are mapped, automatically or by manual override.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "required fields unmapped: " + strings.Join(e.Fields, ", ")
}

// ValidateRequired checks that every required canonical field appears in
// the mapping.
func ValidateRequired(mapping internal.ColumnMapping) error {
	mapped := map[string]bool{}
	for _, fm := range mapping {
		mapped[fm.Field] = true
	}
	missing := []string{}
	for _, name := range RequiredFields() {
		if !mapped[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

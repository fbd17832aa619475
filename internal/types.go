package internal

const SkipField = "skip"

// Table is the uniform shape every ingestion path produces. Cell values are
// either string or float64, as decided by cell coercion.
type Table struct {
	Headers []string         `json:"headers"`
	Rows    []map[string]any `json:"rows"`
}

func (t Table) Empty() bool {
	return len(t.Headers) == 0 && len(t.Rows) == 0
}

// TableCandidate is one table proposed by the external PDF extraction
// collaborator, with its extraction confidence and source page.
type TableCandidate struct {
	Table      Table   `json:"table"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
}

type IngestKind string

const (
	KindDelimited   IngestKind = "delimited"
	KindSpreadsheet IngestKind = "spreadsheet"
	KindHTMLTable   IngestKind = "html_table"
	KindPDF         IngestKind = "pdf"
)

type IngestResult struct {
	Kind       IngestKind
	Table      Table
	SheetCount int
	Warnings   []string
}

// FieldMapping maps one original header onto a canonical field (or "skip").
type FieldMapping struct {
	Field      string   `json:"field"`
	Confidence float64  `json:"confidence"`
	Synonyms   []string `json:"synonyms,omitempty"`
}

// ColumnMapping is keyed by the original header text. Ordering, where it
// matters (export), follows the table's header order.
type ColumnMapping map[string]FieldMapping

type SupplierTemplate struct {
	ID         string        `json:"id"`
	SupplierID string        `json:"supplierId"`
	Name       string        `json:"name"`
	Mapping    ColumnMapping `json:"mapping"`
	CreatedAt  string        `json:"createdAt"`
	UpdatedAt  string        `json:"updatedAt"`
}

// Offer is the canonical price record. The normalized fields are always
// derivable from the raw fields plus the target unit and base currency.
type Offer struct {
	ProductID              string   `json:"productId"`
	SupplierID             string   `json:"supplierId"`
	RawPrice               float64  `json:"rawPrice"`
	RawCurrency            string   `json:"rawCurrency"`
	PackQty                float64  `json:"packQty"`
	PackUnit               string   `json:"packUnit"`
	NormalizedPricePerUnit float64  `json:"normalizedPricePerUnit"`
	NormalizedUnit         string   `json:"normalizedUnit"`
	Category               *string  `json:"category,omitempty"`
	SourceID               string   `json:"sourceId"`
	UpdatedAt              string   `json:"updatedAt"`
	InStock                *bool    `json:"inStock,omitempty"`
	LeadTime               *string  `json:"leadTime,omitempty"`
	MinimumOrder           *float64 `json:"minimumOrder,omitempty"`
	Notes                  *string  `json:"notes,omitempty"`
}

// SourceRow tracks one ingested input (a file on disk or a mail attachment).
type SourceRow struct {
	ID         string
	Supplier   string
	Origin     string
	Filename   string
	Hash       string
	Status     string
	ReceivedAt string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// MailRow is a fetched supplier mail awaiting attachment processing.
type MailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pricelist/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS templates (
  id TEXT PRIMARY KEY,
  supplierId TEXT NOT NULL,
  name TEXT NOT NULL,
  mappingJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_templates_supplier ON templates(supplierId);

CREATE TABLE IF NOT EXISTS learned_mappings (
  header TEXT PRIMARY KEY,
  field TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sources (
  id TEXT PRIMARY KEY,
  supplier TEXT NOT NULL,
  origin TEXT NOT NULL,
  filename TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'ingested',
  receivedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sources_supplier ON sources(supplier);
CREATE INDEX IF NOT EXISTS idx_sources_hash ON sources(hash);

CREATE TABLE IF NOT EXISTS offers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  productId TEXT NOT NULL,
  supplierId TEXT NOT NULL,
  rawPrice REAL NOT NULL,
  rawCurrency TEXT NOT NULL,
  packQty REAL NOT NULL,
  packUnit TEXT NOT NULL,
  normalizedPricePerUnit REAL NOT NULL,
  normalizedUnit TEXT NOT NULL,
  category TEXT,
  sourceId TEXT NOT NULL,
  updatedAt TEXT NOT NULL,
  inStock INTEGER,
  leadTime TEXT,
  minimumOrder REAL,
  notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_offers_supplier ON offers(supplierId);
CREATE INDEX IF NOT EXISTS idx_offers_product ON offers(productId);

CREATE TABLE IF NOT EXISTS mails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertTemplate(t internal.SupplierTemplate) error {
	mappingJSON, err := json.Marshal(t.Mapping)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO templates (id, supplierId, name, mappingJson, createdAt, updatedAt)
VALUES (?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  supplierId=excluded.supplierId,
  name=excluded.name,
  mappingJson=excluded.mappingJson,
  updatedAt=CURRENT_TIMESTAMP
`, t.ID, t.SupplierID, t.Name, string(mappingJSON), nullable(t.CreatedAt))
	return err
}

func (d *DB) GetTemplate(id string) (*internal.SupplierTemplate, error) {
	return d.scanTemplate(d.conn.QueryRow(`
SELECT id, supplierId, name, mappingJson, createdAt, updatedAt FROM templates WHERE id = ?`, id))
}

func (d *DB) GetTemplateBySupplier(supplierID string) (*internal.SupplierTemplate, error) {
	return d.scanTemplate(d.conn.QueryRow(`
SELECT id, supplierId, name, mappingJson, createdAt, updatedAt
FROM templates WHERE supplierId = ? ORDER BY updatedAt DESC LIMIT 1`, supplierID))
}

func (d *DB) scanTemplate(row *sql.Row) (*internal.SupplierTemplate, error) {
	var t internal.SupplierTemplate
	var mappingJSON string
	err := row.Scan(&t.ID, &t.SupplierID, &t.Name, &mappingJSON, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(mappingJSON), &t.Mapping); err != nil {
		return nil, fmt.Errorf("template %s has corrupt mapping: %w", t.ID, err)
	}
	return &t, nil
}

func (d *DB) ListTemplates() ([]internal.SupplierTemplate, error) {
	rows, err := d.conn.Query(`
SELECT id, supplierId, name, mappingJson, createdAt, updatedAt FROM templates ORDER BY updatedAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SupplierTemplate
	for rows.Next() {
		var t internal.SupplierTemplate
		var mappingJSON string
		if err := rows.Scan(&t.ID, &t.SupplierID, &t.Name, &mappingJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(mappingJSON), &t.Mapping); err != nil {
			return nil, fmt.Errorf("template %s has corrupt mapping: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) DeleteTemplate(id string) error {
	result, err := d.conn.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("template not found: %s", id)
	}
	return nil
}

// Learned returns the learned-mapping store view over this database.
func (d *DB) Learned() *LearnedMappings {
	return &LearnedMappings{db: d}
}

// LearnedMappings satisfies mapping.LearnedStore. Last write wins, entries
// never expire.
type LearnedMappings struct {
	db *DB
}

func (s *LearnedMappings) Get(normalizedHeader string) (string, bool, error) {
	var field string
	err := s.db.conn.QueryRow(`SELECT field FROM learned_mappings WHERE header = ?`, normalizedHeader).Scan(&field)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return field, true, nil
}

func (s *LearnedMappings) Put(normalizedHeader, field string) error {
	_, err := s.db.conn.Exec(`
INSERT INTO learned_mappings (header, field) VALUES (?, ?)
ON CONFLICT(header) DO UPDATE SET field = excluded.field, updatedAt = CURRENT_TIMESTAMP
`, normalizedHeader, field)
	return err
}

func (d *DB) UpsertSource(src internal.SourceRow) error {
	_, err := d.conn.Exec(`
INSERT INTO sources (id, supplier, origin, filename, hash, status, receivedAt)
VALUES (?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
ON CONFLICT(id) DO UPDATE SET status = excluded.status
`, src.ID, src.Supplier, src.Origin, src.Filename, src.Hash, src.Status, nullable(src.ReceivedAt))
	return err
}

func (d *DB) UpdateSourceStatus(id, status string) error {
	_, err := d.conn.Exec(`UPDATE sources SET status = ? WHERE id = ?`, status, id)
	return err
}

func (d *DB) InsertOffers(offers []internal.Offer) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO offers (
  productId, supplierId, rawPrice, rawCurrency, packQty, packUnit,
  normalizedPricePerUnit, normalizedUnit, category, sourceId, updatedAt,
  inStock, leadTime, minimumOrder, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range offers {
		if _, err := stmt.Exec(
			o.ProductID, o.SupplierID, o.RawPrice, o.RawCurrency, o.PackQty, o.PackUnit,
			o.NormalizedPricePerUnit, o.NormalizedUnit, o.Category, o.SourceID, o.UpdatedAt,
			o.InStock, o.LeadTime, o.MinimumOrder, o.Notes,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListOffers(supplierID string) ([]internal.Offer, error) {
	query := `
SELECT productId, supplierId, rawPrice, rawCurrency, packQty, packUnit,
       normalizedPricePerUnit, normalizedUnit, category, sourceId, updatedAt,
       inStock, leadTime, minimumOrder, notes
FROM offers`
	args := []any{}
	if supplierID != "" {
		query += ` WHERE supplierId = ?`
		args = append(args, supplierID)
	}
	query += ` ORDER BY supplierId, productId, updatedAt`

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Offer
	for rows.Next() {
		var o internal.Offer
		if err := rows.Scan(
			&o.ProductID, &o.SupplierID, &o.RawPrice, &o.RawCurrency, &o.PackQty, &o.PackUnit,
			&o.NormalizedPricePerUnit, &o.NormalizedUnit, &o.Category, &o.SourceID, &o.UpdatedAt,
			&o.InStock, &o.LeadTime, &o.MinimumOrder, &o.Notes,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (d *DB) UpsertMail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.MailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO mails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.MailRow{}, err
	}

	row, err := d.GetMailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.MailRow{}, err
	}
	if row == nil {
		return internal.MailRow{}, errors.New("failed to upsert mail")
	}
	return *row, nil
}

func (d *DB) GetMailByProviderMessageID(provider, messageID string) (*internal.MailRow, error) {
	var row internal.MailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListMailsByStatus(status string, limit int) ([]internal.MailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MailRow
	for rows.Next() {
		var row internal.MailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateMailStatus(mailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE mails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, mailID)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

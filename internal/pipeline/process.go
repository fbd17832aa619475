// Package pipeline wires ingestion, header mapping and price normalization
// into the file-by-file processing flow.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pricelist/internal"
	"pricelist/internal/config"
	"pricelist/internal/ingest"
	"pricelist/internal/mapping"
	"pricelist/internal/normalize"
	"pricelist/internal/storage"
	"pricelist/internal/template"
)

// OfferSink consumes fully-formed offers; *storage.DB is the default, an
// external persistence collaborator can take its place.
type OfferSink interface {
	InsertOffers(offers []internal.Offer) error
}

type Processor struct {
	cfg       config.Config
	db        *storage.DB
	sink      OfferSink
	ingestor  *ingest.Ingestor
	templates *template.Manager
	norm      *normalize.Normalizer
}

func NewProcessor(cfg config.Config, db *storage.DB, sink OfferSink, ingestor *ingest.Ingestor, templates *template.Manager, norm *normalize.Normalizer) *Processor {
	if sink == nil {
		sink = db
	}
	return &Processor{cfg: cfg, db: db, sink: sink, ingestor: ingestor, templates: templates, norm: norm}
}

// FileResult is one file's outcome. A failed file never aborts the batch.
type FileResult struct {
	Filename string
	SourceID string
	Offers   int
	Skipped  int
	Warnings []string
	Err      error
}

type FileRequest struct {
	Filename   string
	Content    []byte
	Supplier   string
	TemplateID string
	TargetUnit string
	Origin     string
}

// ProcessBatch handles files sequentially; a later failure cannot corrupt
// earlier successes.
func (p *Processor) ProcessBatch(ctx context.Context, requests []FileRequest) []FileResult {
	out := make([]FileResult, 0, len(requests))
	for _, req := range requests {
		out = append(out, p.ProcessFile(ctx, req))
	}
	return out
}

func (p *Processor) ProcessFile(ctx context.Context, req FileRequest) FileResult {
	result := FileResult{Filename: req.Filename}

	ingested, err := p.ingestor.Ingest(ctx, req.Filename, req.Content)
	if err != nil {
		result.Err = err
		return result
	}
	result.Warnings = append(result.Warnings, ingested.Warnings...)

	if ingested.Table.Empty() || len(ingested.Table.Rows) == 0 {
		result.Warnings = append(result.Warnings, "no data rows parsed")
		return result
	}

	cm, err := p.resolveMapping(req, ingested.Table.Headers)
	if err != nil {
		result.Err = err
		return result
	}
	if err := mapping.ValidateRequired(cm); err != nil {
		result.Err = err
		return result
	}

	sourceID := uuid.NewString()
	hash := sha256.Sum256(req.Content)
	origin := req.Origin
	if origin == "" {
		origin = "file"
	}
	if err := p.db.UpsertSource(internal.SourceRow{
		ID:       sourceID,
		Supplier: req.Supplier,
		Origin:   origin,
		Filename: filepath.Base(req.Filename),
		Hash:     hex.EncodeToString(hash[:]),
		Status:   "processing",
	}); err != nil {
		result.Err = err
		return result
	}

	records := template.ApplyMapping(cm, ingested.Table.Rows)
	offers := make([]internal.Offer, 0, len(records))
	for _, record := range records {
		offer, ok := buildOffer(ctx, p.norm, record, req.Supplier, sourceID, p.cfg.BaseCurrency, req.TargetUnit)
		if !ok {
			result.Skipped++
			continue
		}
		offers = append(offers, offer)
	}

	if len(offers) > 0 {
		if err := p.sink.InsertOffers(offers); err != nil {
			result.Err = err
			_ = p.db.UpdateSourceStatus(sourceID, "failed")
			return result
		}
	}
	if err := p.db.UpdateSourceStatus(sourceID, "processed"); err != nil {
		result.Err = err
		return result
	}

	result.SourceID = sourceID
	result.Offers = len(offers)
	return result
}

// resolveMapping prefers an explicit template, then the supplier's stored
// template, then auto-detection. First-time auto-detections that satisfy
// the required fields are persisted as the supplier's template.
func (p *Processor) resolveMapping(req FileRequest, headers []string) (internal.ColumnMapping, error) {
	if req.TemplateID != "" {
		t, err := p.templates.Get(req.TemplateID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("template not found: %s", req.TemplateID)
		}
		return t.Mapping, nil
	}

	if req.Supplier != "" {
		t, err := p.templates.GetBySupplier(req.Supplier)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t.Mapping, nil
		}
	}

	cm, err := p.templates.AutoDetectMappings(headers)
	if err != nil {
		return nil, err
	}
	if req.Supplier != "" && mapping.ValidateRequired(cm) == nil {
		if _, err := p.templates.Create(req.Supplier, req.Supplier, cm); err != nil {
			return nil, err
		}
	}
	return cm, nil
}

// ProcessPath reads a file from disk and processes it.
func (p *Processor) ProcessPath(ctx context.Context, path, supplier, templateID string) FileResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Filename: path, Err: err}
	}
	return p.ProcessFile(ctx, FileRequest{
		Filename:   path,
		Content:    content,
		Supplier:   supplier,
		TemplateID: templateID,
	})
}

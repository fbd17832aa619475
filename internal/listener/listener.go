// Package listener polls a supplier mailbox and feeds fetched price lists
// through the processing pipeline.
package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pricelist/internal/config"
	"pricelist/internal/connectors"
	gmailconnector "pricelist/internal/connectors/gmail"
	imapconnector "pricelist/internal/connectors/imap"
	"pricelist/internal/pipeline"
	"pricelist/internal/storage"
)

type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.Processor
}

func NewService(db *storage.DB, cfg config.Config, processor *pipeline.Processor) *Service {
	return &Service{db: db, cfg: cfg, processor: processor}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processedMails, newOffers, err := s.processor.ProcessPendingMails(ctx, s.cfg.MailListenerProcessBatch)
	if err != nil {
		return err
	}

	if s.cfg.MailListenerAutoExport && newOffers > 0 {
		if err := s.exportOffers(); err != nil {
			return err
		}
	}

	_ = s.db.SetMetadata("listener.last_cycle", time.Now().UTC().Format(time.RFC3339))
	fmt.Printf("listener cycle done provider=%s fetched=%d stored=%d mails=%d offers=%d\n",
		provider, fetchResult.Fetched, fetchResult.Stored, processedMails, newOffers)
	return nil
}

func (s *Service) exportOffers() error {
	offers, err := s.db.ListOffers("")
	if err != nil {
		return err
	}
	if len(offers) == 0 {
		return nil
	}
	filename := fmt.Sprintf("offers_%s.csv", time.Now().UTC().Format("20060102T150405"))
	return pipeline.ExportOffersCSV(offers, filepath.Join(s.cfg.OutputDir, "listener", filename))
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

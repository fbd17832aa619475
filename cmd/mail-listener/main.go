package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricelist/internal/config"
	"pricelist/internal/fx"
	"pricelist/internal/ingest"
	"pricelist/internal/listener"
	"pricelist/internal/mapping"
	"pricelist/internal/normalize"
	"pricelist/internal/pipeline"
	"pricelist/internal/storage"
	"pricelist/internal/template"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	units := normalize.DefaultUnitTable()
	if cfg.UnitsFile != "" {
		if err := units.LoadOverrides(cfg.UnitsFile); err != nil {
			fmt.Fprintf(os.Stderr, "warning: units file ignored: %v\n", err)
		}
	}
	rates := fx.NewCache(fx.NewClient(cfg), time.Duration(cfg.FXCacheTTLHrs)*time.Hour)
	norm := normalize.New(rates, units, cfg.PricePrecision)
	mapper := mapping.New(db.Learned(), cfg.MapAcceptThreshold)
	templates := template.NewManager(db, mapper)
	ingestor := ingest.New(ingest.NewExtractorClient(cfg))
	processor := pipeline.NewProcessor(cfg, db, nil, ingestor, templates, norm)

	svc := listener.NewService(db, cfg, processor)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"pricelist/internal/config"
	"pricelist/internal/connectors"
	gmailconnector "pricelist/internal/connectors/gmail"
	imapconnector "pricelist/internal/connectors/imap"
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

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	processor, templates := buildServices(cfg, db)

	cmd := os.Args[1]
	switch cmd {
	case "ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		supplier := fs.String("supplier", "", "supplier id")
		templateID := fs.String("template", "", "template id")
		_ = fs.Parse(os.Args[2:])
		files := fs.Args()
		if len(files) == 0 {
			must(fmt.Errorf("at least one input file is required"))
		}

		for _, file := range files {
			result := processor.ProcessPath(context.Background(), file, *supplier, *templateID)
			if result.Err != nil {
				fmt.Printf("file %s failed: %v\n", file, result.Err)
				continue
			}
			for _, w := range result.Warnings {
				fmt.Printf("file %s: %s\n", file, w)
			}
			fmt.Printf("file %s done offers=%d skipped=%d source=%s\n", file, result.Offers, result.Skipped, result.SourceID)
		}
	case "map":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "input file")
		out := fs.String("out", "", "write mapped rows as CSV")
		_ = fs.Parse(os.Args[2:])
		if *file == "" {
			must(fmt.Errorf("--file is required"))
		}

		content, err := os.ReadFile(*file)
		must(err)
		ingestor := ingest.New(ingest.NewExtractorClient(cfg))
		result, err := ingestor.Ingest(context.Background(), *file, content)
		must(err)

		cm, err := templates.AutoDetectMappings(result.Table.Headers)
		must(err)
		for _, header := range result.Table.Headers {
			fm := cm[header]
			fmt.Printf("%-30s -> %-15s confidence=%.2f\n", header, fm.Field, fm.Confidence)
		}
		if err := mapping.ValidateRequired(cm); err != nil {
			fmt.Printf("warning: %v\n", err)
		}
		if *out != "" {
			records := template.ApplyMapping(cm, result.Table.Rows)
			must(pipeline.ExportMappedCSV(result.Table.Headers, cm, records, *out))
			fmt.Printf("wrote %d mapped rows to %s\n", len(records), *out)
		}
	case "correct":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		templateID := fs.String("template", "", "template id to update")
		header := fs.String("header", "", "original header text")
		field := fs.String("field", "", "canonical field or skip")
		_ = fs.Parse(os.Args[2:])
		if *header == "" || *field == "" {
			must(fmt.Errorf("--header and --field are required"))
		}

		if *templateID != "" {
			_, err := templates.Correct(*templateID, *header, *field)
			must(err)
		} else {
			mapper := mapping.New(db.Learned(), cfg.MapAcceptThreshold)
			must(mapper.Correct(*header, *field))
		}
		fmt.Printf("learned: %q -> %s\n", *header, *field)
	case "templates:list":
		list, err := templates.List()
		must(err)
		for _, t := range list {
			fmt.Printf("%s supplier=%s name=%q columns=%d updated=%s\n", t.ID, t.SupplierID, t.Name, len(t.Mapping), t.UpdatedAt)
		}
	case "templates:create":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		supplier := fs.String("supplier", "", "supplier id")
		name := fs.String("name", "", "template name")
		file := fs.String("file", "", "sample file to detect headers from")
		_ = fs.Parse(os.Args[2:])
		if *supplier == "" || *file == "" {
			must(fmt.Errorf("--supplier and --file are required"))
		}

		content, err := os.ReadFile(*file)
		must(err)
		ingestor := ingest.New(ingest.NewExtractorClient(cfg))
		result, err := ingestor.Ingest(context.Background(), *file, content)
		must(err)
		cm, err := templates.AutoDetectMappings(result.Table.Headers)
		must(err)
		t, err := templates.Create(*supplier, *name, cm)
		must(err)
		fmt.Printf("template created id=%s supplier=%s\n", t.ID, t.SupplierID)
	case "templates:delete":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "template id")
		_ = fs.Parse(os.Args[2:])
		if *id == "" {
			must(fmt.Errorf("--id is required"))
		}
		must(templates.Delete(*id))
		fmt.Printf("template deleted id=%s\n", *id)
	case "export:csv", "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		supplier := fs.String("supplier", "", "filter by supplier id")
		out := fs.String("out", "", "output path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		offers, err := db.ListOffers(*supplier)
		must(err)
		if len(offers) == 0 {
			must(fmt.Errorf("no offers to export"))
		}
		if cmd == "export:csv" {
			must(pipeline.ExportOffersCSV(offers, *out))
		} else {
			must(pipeline.ExportOffersXLSX(offers, *out))
		}
		fmt.Printf("exported %d offers to %s\n", len(offers), *out)
	case "rates":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		base := fs.String("base", cfg.BaseCurrency, "base currency")
		_ = fs.Parse(os.Args[2:])

		cache := fx.NewCache(fx.NewClient(cfg), time.Duration(cfg.FXCacheTTLHrs)*time.Hour)
		rates, err := cache.GetRates(context.Background(), *base)
		must(err)
		currencies := make([]string, 0, len(rates))
		for c := range rates {
			currencies = append(currencies, c)
		}
		sort.Strings(currencies)
		for _, c := range currencies {
			fmt.Printf("%s -> %s = %.6f\n", c, strings.ToUpper(*base), rates[c])
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		mails, offers, err := processor.ProcessPendingMails(context.Background(), *batch)
		must(err)
		fmt.Printf("processed mails=%d offers=%d\n", mails, offers)
	case "mail:listen":
		svc := listener.NewService(db, cfg, processor)
		must(svc.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func buildServices(cfg config.Config, db *storage.DB) (*pipeline.Processor, *template.Manager) {
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
	return processor, templates
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: pricelist <command>")
	fmt.Println("commands:")
	fmt.Println("  ingest --supplier=acme [--template=ID] file.csv [file2.xlsx ...]")
	fmt.Println("  map --file=price.csv [--out=mapped.csv]")
	fmt.Println("  correct --header=\"Vendor\" --field=supplier [--template=ID]")
	fmt.Println("  templates:list")
	fmt.Println("  templates:create --supplier=acme --file=price.csv [--name=...]")
	fmt.Println("  templates:delete --id=ID")
	fmt.Println("  export:csv --out=./out/offers.csv [--supplier=acme]")
	fmt.Println("  export:xlsx --out=./out/offers.xlsx [--supplier=acme]")
	fmt.Println("  rates [--base=USD]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/guarzo/bidgap/internal/batch"
	"github.com/guarzo/bidgap/internal/config"
	"github.com/guarzo/bidgap/internal/model"
	"github.com/guarzo/bidgap/internal/pricing"
	"github.com/guarzo/bidgap/internal/progress"
	"github.com/guarzo/bidgap/internal/report"
	"github.com/guarzo/bidgap/internal/research"
	"github.com/guarzo/bidgap/internal/schedule"
	"github.com/guarzo/bidgap/internal/scrape"
	"github.com/guarzo/bidgap/internal/storage"
)

const usage = `bidgap - auction lot research and bid planning

Usage:
  bidgap <command> [flags]

Commands:
  scrape    scrape a HiBid auction listing and record its lots
  research  look up market prices for stored products
  calc      recompute prices, recommended bids, and margins
  lookup    show a stored product
  export    write an auction report CSV
  config    print the effective configuration
  watch     keep research fresh on a cron schedule

Run "bidgap <command> -h" for command flags.
`

type app struct {
	cfg   config.Config
	log   zerolog.Logger
	store *storage.Store
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if os.Getenv("BIDGAP_DEBUG") == "" {
		log = log.Level(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, os.Args[1], os.Args[2:]); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger, command string, args []string) error {
	cfgPath := os.Getenv("BIDGAP_CONFIG")
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, log: log}

	switch command {
	case "config":
		return a.printConfig(os.Stdout)
	case "scrape", "research", "calc", "lookup", "export", "watch":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	a.store, err = storage.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	switch command {
	case "scrape":
		return a.cmdScrape(ctx, args)
	case "research":
		return a.cmdResearch(ctx, args)
	case "calc":
		return a.cmdCalc(ctx, args)
	case "lookup":
		return a.cmdLookup(args)
	case "export":
		return a.cmdExport(args)
	case "watch":
		return a.cmdWatch(ctx, args)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		if _, err := os.Stat("bidgap.yaml"); err == nil {
			path = "bidgap.yaml"
		}
	}
	return config.Load(path)
}

func (a *app) printConfig(w *os.File) error {
	out, err := yaml.Marshal(a.cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func (a *app) cmdScrape(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	auctionURL := fs.String("url", "", "auction listing URL (required)")
	out := fs.String("out", "auction.json", "file to write the scraped auction to")
	followLots := fs.Bool("lots", true, "fetch each lot's detail page for UPC and condition data")
	fs.Parse(args)
	if *auctionURL == "" {
		return fmt.Errorf("scrape: -url is required")
	}

	hibid := scrape.NewHiBid(scrape.NewClient(a.cfg.Scrape))
	auction, err := hibid.ScrapeAuction(ctx, *auctionURL)
	if err != nil {
		return fmt.Errorf("scrape auction: %w", err)
	}
	a.log.Info().Str("title", auction.Title).Int("lots", len(auction.Lots)).Msg("auction scraped")

	if *followLots {
		for i := range auction.Lots {
			lot := &auction.Lots[i]
			if lot.URL == "" {
				continue
			}
			product, detail, err := hibid.ScrapeLot(ctx, lot.URL)
			if err != nil {
				a.log.Warn().Err(err).Str("lot", lot.LotNumber).Msg("lot page failed")
				continue
			}
			if detail.UPC != "" {
				lot.UPC = detail.UPC
			}
			if detail.CurrentBid != nil {
				lot.CurrentBid = detail.CurrentBid
			}
			if product.UPC == "" {
				a.log.Debug().Str("lot", lot.LotNumber).Msg("no UPC on lot page")
				continue
			}
			if err := a.store.Upsert(*product); err != nil {
				a.log.Warn().Err(err).Str("lot", lot.LotNumber).Msg("store failed")
			}
		}
	}

	if err := saveAuction(*out, auction); err != nil {
		return err
	}
	a.log.Info().Str("path", *out).Msg("auction saved")
	return nil
}

func (a *app) cmdResearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("research", flag.ExitOnError)
	upc := fs.String("upc", "", "research a single product by UPC")
	stale := fs.Bool("stale", false, "only products whose research is out of date")
	workers := fs.Int("workers", 0, "concurrent research workers (0 = auto)")
	useMock := fs.Bool("mock", false, "use canned findings instead of live scraping")
	fs.Parse(args)

	products, err := a.selectProducts(*upc, *stale)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		a.log.Info().Msg("nothing to research")
		return nil
	}

	researcher := a.buildResearcher(*useMock)
	a.log.Info().Strs("providers", researcher.Providers()).Int("products", len(products)).Msg("researching")

	runner := batch.NewRunner(*workers, a.log)
	bar := progress.New(os.Stderr, "researching", len(products), isTerminal(os.Stderr))
	runner.OnProgress = func(done, _ int) { bar.Set(done) }
	sum := batch.ResearchAll(ctx, runner, researcher, products)
	bar.Done()
	if err := a.persist(products); err != nil {
		return err
	}

	a.log.Info().
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Dur("elapsed", sum.Elapsed).
		Msg("research complete")
	return nil
}

func (a *app) cmdCalc(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calc", flag.ExitOnError)
	auctionPath := fs.String("auction", "", "auction JSON for live bid margins")
	workers := fs.Int("workers", 0, "concurrent workers (0 = auto)")
	fs.Parse(args)

	bids := map[string]pricing.Amount{}
	if *auctionPath != "" {
		auction, err := loadAuction(*auctionPath)
		if err != nil {
			return err
		}
		for _, lot := range auction.Lots {
			if lot.UPC != "" {
				bids[lot.UPC] = pricing.FromPtr(lot.CurrentBid)
			}
		}
	}

	products, err := a.selectProducts("", false)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(*workers, a.log)
	bar := progress.New(os.Stderr, "calculating", len(products), isTerminal(os.Stderr))
	runner.OnProgress = func(done, _ int) { bar.Set(done) }
	sum := batch.NewCalculator(runner, a.cfg.Fees).Run(ctx, products, bids)
	bar.Done()
	if err := a.persist(products); err != nil {
		return err
	}

	a.log.Info().
		Int("priced", sum.Succeeded).
		Int("insufficient_data", sum.Skipped).
		Dur("elapsed", sum.Elapsed).
		Msg("calculation complete")
	return nil
}

func (a *app) cmdLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	upc := fs.String("upc", "", "product UPC")
	name := fs.String("name", "", "substring of the product name")
	fs.Parse(args)

	var products []model.Product
	switch {
	case *upc != "":
		p, ok := a.store.Get(*upc)
		if !ok {
			return fmt.Errorf("no product with UPC %s", *upc)
		}
		products = []model.Product{p}
	case *name != "":
		products = a.store.FindByName(*name)
		if len(products) == 0 {
			return fmt.Errorf("no product matching %q", *name)
		}
	default:
		return fmt.Errorf("lookup: -upc or -name is required")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, p := range products {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	auctionPath := fs.String("auction", "auction.json", "scraped auction JSON")
	out := fs.String("out", "report.csv", "CSV file to write")
	fs.Parse(args)

	auction, err := loadAuction(*auctionPath)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	lookup := func(upc string) *model.Product {
		if p, ok := a.store.Get(upc); ok {
			return &p
		}
		return nil
	}
	if err := report.WriteAuctionCSV(f, *auction, lookup); err != nil {
		return err
	}
	if err := report.Summarize(os.Stdout, *auction, lookup); err != nil {
		return err
	}
	a.log.Info().Str("path", *out).Int("lots", len(auction.Lots)).Msg("report written")
	return nil
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	spec := fs.String("cron", "@hourly", "cron schedule for refresh cycles")
	workers := fs.Int("workers", 0, "concurrent workers (0 = auto)")
	useMock := fs.Bool("mock", false, "use canned findings instead of live scraping")
	fs.Parse(args)

	runner := batch.NewRunner(*workers, a.log)
	refresher := schedule.NewRefresher(a.store, runner, a.buildResearcher(*useMock), a.cfg.Fees, a.cfg.ResearchMaxAge, a.log)

	if err := refresher.RunOnce(ctx); err != nil {
		a.log.Warn().Err(err).Msg("initial refresh failed")
	}
	if err := refresher.Start(ctx, *spec); err != nil {
		return err
	}
	defer refresher.Stop()

	<-ctx.Done()
	a.log.Info().Msg("shutting down")
	return nil
}

func (a *app) buildResearcher(useMock bool) *research.Researcher {
	if useMock {
		return research.NewResearcher(a.log, &research.Mock{})
	}
	client := scrape.NewClient(a.cfg.Scrape)
	return research.NewResearcher(a.log,
		research.NewEbay(client, a.cfg.Scrape.MaxResults),
		research.NewAmazon(client),
	)
}

func (a *app) selectProducts(upc string, staleOnly bool) ([]*model.Product, error) {
	var records []model.Product
	switch {
	case upc != "":
		p, ok := a.store.Get(upc)
		if !ok {
			return nil, fmt.Errorf("no product with UPC %s", upc)
		}
		records = []model.Product{p}
	case staleOnly:
		records = a.store.StaleProducts(a.cfg.ResearchMaxAge)
	default:
		records = a.store.All()
	}

	products := make([]*model.Product, len(records))
	for i := range records {
		products[i] = &records[i]
	}
	return products, nil
}

func (a *app) persist(products []*model.Product) error {
	for _, p := range products {
		if err := a.store.Put(*p); err != nil {
			return fmt.Errorf("persist %s: %w", p.UPC, err)
		}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}

func saveAuction(path string, auction *model.Auction) error {
	data, err := json.MarshalIndent(auction, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadAuction(path string) (*model.Auction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auction: %w", err)
	}
	var auction model.Auction
	if err := json.Unmarshal(data, &auction); err != nil {
		return nil, fmt.Errorf("parse auction %s: %w", path, err)
	}
	return &auction, nil
}

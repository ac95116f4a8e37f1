// One-shot tool: scan sites for trading days with no recorded cash-up and
// optionally send the gap digest to each site's manager.
//
// Usage:
//
//	go run cmd/cashup-audit/main.go [-site ID] [-days N] [-notify]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"siteops/internal/config"
	"siteops/internal/domain"
	"siteops/internal/hours"
	"siteops/internal/notify"
	"siteops/internal/recon"
	"siteops/internal/store"
	"siteops/internal/util"
)

func main() {
	siteID := flag.String("site", "", "site to audit (default: all sites)")
	days := flag.Int("days", 0, "trailing window in days (default: config)")
	doNotify := flag.Bool("notify", false, "send gap digests to site managers")
	flag.Parse()

	cfgPath := "config/siteops.yaml"
	if p := os.Getenv("SITEOPS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	sites, err := resolveSites(ctx, db, *siteID)
	if err != nil {
		log.Fatalf("resolving sites: %v", err)
	}
	if len(sites) == 0 {
		logger.Info("no sites to audit")
		return
	}

	window := cfg.Recon.DaysBack
	if *days > 0 {
		window = *days
	}

	calendar := hours.NewCalendar(db)
	svc := recon.NewService(db, calendar, cfg.Recon.MaxConcurrentChecks, logger)

	var dispatcher *notify.Dispatcher
	if *doNotify {
		dispatcher = notify.NewDispatcher(
			&notify.LogSender{Log: logger},
			db,
			cfg.Notify.RateLimitPerMin,
			cfg.Notify.MaxAttempts,
			time.Duration(cfg.Notify.RetryBaseMS)*time.Millisecond,
			logger,
		)
	}

	gaps := 0
	for i := range sites {
		site := &sites[i]
		missing, err := svc.MissingCashupDates(ctx, site.ID, window)
		if err != nil {
			log.Fatalf("auditing %s: %v", site.ID, err)
		}

		fmt.Printf("%s: %d missing cash-up day(s)\n", site.ID, len(missing))
		for _, d := range missing {
			fmt.Printf("  %s\n", d)
		}
		gaps += len(missing)

		if dispatcher != nil {
			if err := dispatcher.NotifyMissingCashups(ctx, site, missing); err != nil {
				log.Fatalf("notifying %s: %v", site.ID, err)
			}
		}
	}

	if gaps == 0 {
		logger.Info("audit complete, every trading day reconciled", "sites", len(sites))
	} else {
		logger.Info("audit complete", "sites", len(sites), "missing", gaps)
	}
}

func resolveSites(ctx context.Context, db *store.SQLiteStore, siteID string) ([]domain.Site, error) {
	if siteID == "" {
		return db.ListSites(ctx)
	}
	site, ok, err := db.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("unknown site %q", siteID)
	}
	return []domain.Site{*site}, nil
}

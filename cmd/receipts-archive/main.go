// One-shot tool: export a month of receipts from the operational database to
// the Parquet archive. Re-running a month is idempotent.
//
// Usage:
//
//	go run cmd/receipts-archive/main.go -site ID -month YYYY-MM
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"siteops/internal/config"
	"siteops/internal/domain"
	"siteops/internal/store"
	"siteops/internal/util"
)

func main() {
	siteID := flag.String("site", "", "site to archive (required)")
	month := flag.String("month", "", "month to archive as YYYY-MM (required)")
	flag.Parse()

	if *siteID == "" || *month == "" {
		flag.Usage()
		os.Exit(2)
	}
	first, err := time.Parse("2006-01", *month)
	if err != nil {
		log.Fatalf("invalid month %q: %v", *month, err)
	}

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

	start := first.Format(domain.DateLayout)
	end := first.AddDate(0, 1, -1).Format(domain.DateLayout)
	receipts, err := db.ReadReceipts(ctx, *siteID, start, end)
	if err != nil {
		log.Fatalf("reading receipts: %v", err)
	}
	if len(receipts) == 0 {
		logger.Info("no receipts to archive", "site", *siteID, "month", *month)
		return
	}

	archive := store.NewParquetArchive(cfg.Storage.DataDir)
	if err := archive.ArchiveReceipts(ctx, receipts); err != nil {
		log.Fatalf("archiving receipts: %v", err)
	}

	logger.Info("receipts archived", "site", *siteID, "month", *month, "receipts", len(receipts))
}

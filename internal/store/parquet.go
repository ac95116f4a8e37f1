package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"siteops/internal/domain"
)

// ParquetArchive stores monthly receipt archives as Parquet files on disk.
// The archive is the cold copy used for P&L over closed periods; the
// operational SQLite database remains the hot store.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates a ParquetArchive rooted at the given data
// directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// ReceiptRecord is the Parquet schema for archived receipts.
type ReceiptRecord struct {
	ID          string `parquet:"id"`
	SiteID      string `parquet:"site_id"`
	Timestamp   int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Gross       int64  `parquet:"gross"`
	Tax         int64  `parquet:"tax"`
	Covers      int32  `parquet:"covers"`
	PaymentType string `parquet:"payment_type"`
}

// ArchiveReceipts writes receipts to Parquet files organized by site and
// month. Each site+month combination produces a separate file at:
//
//	<DataDir>/<siteID>/receipts/<YYYY-MM>.parquet
//
// Existing records are merged and deduplicated by receipt ID, with incoming
// records preferred, so re-archiving a month is idempotent.
func (a *ParquetArchive) ArchiveReceipts(_ context.Context, receipts []domain.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	type key struct {
		siteID string
		month  string // YYYY-MM
	}
	groups := make(map[key][]ReceiptRecord)
	for _, r := range receipts {
		k := key{siteID: r.SiteID, month: r.Timestamp.Format("2006-01")}
		groups[k] = append(groups[k], ReceiptRecord{
			ID:          r.ID,
			SiteID:      r.SiteID,
			Timestamp:   r.Timestamp.UnixMilli(),
			Gross:       r.Gross,
			Tax:         r.Tax,
			Covers:      int32(r.Covers),
			PaymentType: r.PaymentType,
		})
	}

	for k, records := range groups {
		path := a.receiptPath(k.siteID, k.month)

		// Read existing records to merge.
		existing, _ := readParquetFile[ReceiptRecord](path)
		merged := mergeReceiptRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("archiving receipts for %s/%s: %w", k.siteID, k.month, err)
		}
	}
	return nil
}

// ReadMonth reads a site's archived receipts for one YYYY-MM month. A missing
// archive file yields an empty result, not an error.
func (a *ParquetArchive) ReadMonth(_ context.Context, siteID, month string) ([]domain.Receipt, error) {
	path := a.receiptPath(siteID, month)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	records, err := readParquetFile[ReceiptRecord](path)
	if err != nil {
		return nil, err
	}

	receipts := make([]domain.Receipt, 0, len(records))
	for _, r := range records {
		receipts = append(receipts, domain.Receipt{
			ID:          r.ID,
			SiteID:      r.SiteID,
			Timestamp:   time.UnixMilli(r.Timestamp).UTC(),
			Gross:       r.Gross,
			Tax:         r.Tax,
			Covers:      int(r.Covers),
			PaymentType: r.PaymentType,
		})
	}
	return receipts, nil
}

// ListMonths returns the months with an archive file for the given site,
// sorted ascending.
func (a *ParquetArchive) ListMonths(_ context.Context, siteID string) ([]string, error) {
	dir := filepath.Join(a.DataDir, siteID, "receipts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var months []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".parquet") {
			months = append(months, strings.TrimSuffix(name, ".parquet"))
		}
	}
	sort.Strings(months)
	return months, nil
}

// receiptPath returns the filesystem path for a monthly receipt archive.
// Layout: <dataDir>/<siteID>/receipts/<YYYY-MM>.parquet
func (a *ParquetArchive) receiptPath(siteID, month string) string {
	return filepath.Join(a.DataDir, siteID, "receipts", month+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeReceiptRecords deduplicates receipt records by ID, preferring incoming
// records over existing ones, and returns them sorted by timestamp.
func mergeReceiptRecords(existing, incoming []ReceiptRecord) []ReceiptRecord {
	seen := make(map[string]ReceiptRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.ID] = r
	}
	for _, r := range incoming {
		seen[r.ID] = r
	}

	merged := make([]ReceiptRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp < merged[j].Timestamp
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

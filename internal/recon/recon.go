// Package recon implements the missing cash-up reconciliation scan: for a
// trailing window of calendar days it reports every day a site was open but
// recorded no end-of-day cash-up, most recent day first.
package recon

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"siteops/internal/domain"
	"siteops/internal/store"
)

// DefaultDaysBack is the trailing window used when the caller does not name
// one.
const DefaultDaysBack = 365

// OpenOracle answers whether a site was trading on a given YYYY-MM-DD date.
type OpenOracle interface {
	IsOpen(ctx context.Context, siteID, date string) (bool, error)
}

// StorageError reports a failed cash-up session lookup. The scan aborts with
// no partial result.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "cashup session lookup failed: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// OracleError reports a failed open-check for a single date. The scan aborts
// with no partial result; per-date skip-and-continue is deliberately not
// offered, so a flaky hours backend cannot silently shrink the gap list.
type OracleError struct {
	Date string
	Err  error
}

func (e *OracleError) Error() string {
	return "open check for " + e.Date + " failed: " + e.Err.Error()
}

func (e *OracleError) Unwrap() error { return e.Err }

// Service runs reconciliation scans. Each scan is stateless and re-derived
// from storage on every invocation.
type Service struct {
	cashups   store.CashupStore
	oracle    OpenOracle
	maxChecks int // >1 enables bounded-concurrency open-checks
	now       func() time.Time
	log       *slog.Logger
}

// NewService creates a reconciliation Service. maxConcurrentChecks values
// below 2 select the sequential scan.
func NewService(cashups store.CashupStore, oracle OpenOracle, maxConcurrentChecks int, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cashups:   cashups,
		oracle:    oracle,
		maxChecks: maxConcurrentChecks,
		now:       time.Now,
		log:       log.With("component", "recon"),
	}
}

// DateRange returns the daysBack consecutive calendar dates ending the day
// before today, in chronological order. Today itself is excluded since its
// cash-up cannot exist until close of business. daysBack <= 0 yields nil.
func DateRange(today time.Time, daysBack int) []string {
	if daysBack <= 0 {
		return nil
	}
	dates := make([]string, 0, daysBack)
	for i := daysBack; i >= 1; i-- {
		dates = append(dates, today.AddDate(0, 0, -i).Format(domain.DateLayout))
	}
	return dates
}

// MissingCashupDates returns every date in the trailing daysBack window on
// which the site was open but no cash-up session was recorded, sorted
// descending (most recent first). daysBack <= 0 scans nothing. One session
// lookup is issued for the whole window; the oracle is consulted only for
// dates not already reconciled. Any storage or oracle failure aborts the
// scan with no partial result.
//
// No transaction spans the lookup and the open-checks: a session recorded
// mid-scan may still be reported missing. Callers treat the result as a
// point-in-time snapshot.
func (s *Service) MissingCashupDates(ctx context.Context, siteID string, daysBack int) ([]string, error) {
	dates := DateRange(s.now(), daysBack)
	if len(dates) == 0 {
		return []string{}, nil
	}

	existing, err := s.cashups.SessionDates(ctx, siteID, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	// Existence is checked before the open-check so already-reconciled days
	// never cost an oracle call.
	candidates := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := existing[d]; !ok {
			candidates = append(candidates, d)
		}
	}

	var missing []string
	if s.maxChecks > 1 {
		missing, err = s.openDatesConcurrent(ctx, siteID, candidates)
	} else {
		missing, err = s.openDatesSequential(ctx, siteID, candidates)
	}
	if err != nil {
		return nil, err
	}

	// Newest first.
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}

	s.log.Debug("scan complete",
		"site", siteID,
		"window", len(dates),
		"reconciled", len(existing),
		"missing", len(missing),
	)
	return missing, nil
}

// openDatesSequential filters candidates to the dates the site was open,
// preserving chronological order.
func (s *Service) openDatesSequential(ctx context.Context, siteID string, candidates []string) ([]string, error) {
	missing := make([]string, 0, len(candidates))
	for _, d := range candidates {
		open, err := s.oracle.IsOpen(ctx, siteID, d)
		if err != nil {
			return nil, &OracleError{Date: d, Err: err}
		}
		if open {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// openDatesConcurrent is the bounded-concurrency variant of
// openDatesSequential. Results keep chronological order; the first oracle
// failure cancels the remaining checks and aborts the scan.
func (s *Service) openDatesConcurrent(ctx context.Context, siteID string, candidates []string) ([]string, error) {
	open := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxChecks)
	for i, d := range candidates {
		g.Go(func() error {
			ok, err := s.oracle.IsOpen(gctx, siteID, d)
			if err != nil {
				return &OracleError{Date: d, Err: err}
			}
			open[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	missing := make([]string, 0, len(candidates))
	for i, d := range candidates {
		if open[i] {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// Package report provides receipt aggregation for daily takings and P&L
// summaries.
package report

import (
	"sort"

	"siteops/internal/domain"
)

// DayTotal holds aggregated takings for a single calendar day. Amounts are in
// minor currency units.
type DayTotal struct {
	Date     string `json:"date"`
	Gross    int64  `json:"gross"`
	Tax      int64  `json:"tax"`
	Net      int64  `json:"net"`
	Covers   int    `json:"covers"`
	Receipts int    `json:"receipts"`
}

// Summary totals a range of days.
type Summary struct {
	Gross       int64 `json:"gross"`
	Tax         int64 `json:"tax"`
	Net         int64 `json:"net"`
	Covers      int   `json:"covers"`
	Receipts    int   `json:"receipts"`
	TradingDays int   `json:"tradingDays"`
}

// DailyTotals aggregates receipts into per-day totals sorted by date
// ascending. Days with no receipts produce no row.
func DailyTotals(receipts []domain.Receipt) []DayTotal {
	byDay := make(map[string]*DayTotal)
	for i := range receipts {
		r := &receipts[i]
		day := r.Day()

		dt, ok := byDay[day]
		if !ok {
			dt = &DayTotal{Date: day}
			byDay[day] = dt
		}
		dt.Gross += r.Gross
		dt.Tax += r.Tax
		dt.Net += r.Net()
		dt.Covers += r.Covers
		dt.Receipts++
	}

	totals := make([]DayTotal, 0, len(byDay))
	for _, dt := range byDay {
		totals = append(totals, *dt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals
}

// Summarize rolls day totals up into a single range summary. A day counts as
// a trading day iff it has at least one receipt.
func Summarize(totals []DayTotal) Summary {
	var sum Summary
	for _, dt := range totals {
		sum.Gross += dt.Gross
		sum.Tax += dt.Tax
		sum.Net += dt.Net
		sum.Covers += dt.Covers
		sum.Receipts += dt.Receipts
		if dt.Receipts > 0 {
			sum.TradingDays++
		}
	}
	return sum
}

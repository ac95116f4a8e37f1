package report

import (
	"testing"
	"time"

	"siteops/internal/domain"
)

func receipt(id, siteID string, ts time.Time, gross, tax int64, covers int) domain.Receipt {
	return domain.Receipt{
		ID: id, SiteID: siteID, Timestamp: ts,
		Gross: gross, Tax: tax, Covers: covers,
	}
}

func TestDailyTotals(t *testing.T) {
	receipts := []domain.Receipt{
		receipt("r-1", "kings-arms", time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC), 2200, 366, 1),
		receipt("r-2", "kings-arms", time.Date(2024, 6, 8, 19, 30, 0, 0, time.UTC), 4500, 750, 2),
		receipt("r-3", "kings-arms", time.Date(2024, 6, 7, 20, 0, 0, 0, time.UTC), 900, 150, 1),
	}

	totals := DailyTotals(receipts)
	if len(totals) != 2 {
		t.Fatalf("DailyTotals returned %d days, want 2", len(totals))
	}

	// Sorted ascending by date.
	if totals[0].Date != "2024-06-07" || totals[1].Date != "2024-06-08" {
		t.Errorf("DailyTotals order = [%s, %s], want [2024-06-07, 2024-06-08]",
			totals[0].Date, totals[1].Date)
	}

	d8 := totals[1]
	if d8.Gross != 6700 {
		t.Errorf("Gross = %d, want 6700", d8.Gross)
	}
	if d8.Tax != 1116 {
		t.Errorf("Tax = %d, want 1116", d8.Tax)
	}
	if d8.Net != 5584 {
		t.Errorf("Net = %d, want 5584", d8.Net)
	}
	if d8.Covers != 3 {
		t.Errorf("Covers = %d, want 3", d8.Covers)
	}
	if d8.Receipts != 2 {
		t.Errorf("Receipts = %d, want 2", d8.Receipts)
	}
}

func TestDailyTotalsEmpty(t *testing.T) {
	if totals := DailyTotals(nil); len(totals) != 0 {
		t.Errorf("DailyTotals(nil) = %v, want empty", totals)
	}
}

func TestSummarize(t *testing.T) {
	totals := []DayTotal{
		{Date: "2024-06-07", Gross: 900, Tax: 150, Net: 750, Covers: 1, Receipts: 1},
		{Date: "2024-06-08", Gross: 6700, Tax: 1116, Net: 5584, Covers: 3, Receipts: 2},
	}

	sum := Summarize(totals)
	if sum.Gross != 7600 || sum.Tax != 1266 || sum.Net != 6334 {
		t.Errorf("Summarize amounts = %+v, want gross 7600, tax 1266, net 6334", sum)
	}
	if sum.Covers != 4 || sum.Receipts != 3 {
		t.Errorf("Summarize counts = %+v, want covers 4, receipts 3", sum)
	}
	if sum.TradingDays != 2 {
		t.Errorf("TradingDays = %d, want 2", sum.TradingDays)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero Summary", sum)
	}
}

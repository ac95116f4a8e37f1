package recon

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"siteops/internal/domain"
)

// fakeCashupStore implements store.CashupStore with a fixed date set.
type fakeCashupStore struct {
	dates map[string]struct{}
	err   error
}

func (f *fakeCashupStore) SaveSession(context.Context, *domain.CashupSession) error {
	return nil
}

func (f *fakeCashupStore) SessionDates(_ context.Context, _, start, end string) (map[string]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]struct{})
	for d := range f.dates {
		if d >= start && d <= end {
			out[d] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeCashupStore) ListSessions(context.Context, string, string, string) ([]domain.CashupSession, error) {
	return nil, nil
}

// fakeOracle answers IsOpen from a function. Call recording is mutex-guarded
// since the concurrent scan invokes IsOpen from multiple goroutines.
type fakeOracle struct {
	isOpen func(date string) (bool, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeOracle) IsOpen(_ context.Context, _, date string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, date)
	f.mu.Unlock()
	return f.isOpen(date)
}

func alwaysOpen(string) (bool, error) { return true, nil }

func sessions(dates ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		m[d] = struct{}{}
	}
	return m
}

func newTestService(cashups *fakeCashupStore, oracle OpenOracle, maxChecks int, today time.Time) *Service {
	s := NewService(cashups, oracle, maxChecks, nil)
	s.now = func() time.Time { return today }
	return s
}

func TestDateRange(t *testing.T) {
	today := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)

	got := DateRange(today, 3)
	want := []string{"2024-06-07", "2024-06-08", "2024-06-09"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DateRange(3) = %v, want %v", got, want)
	}

	if got := DateRange(today, 0); len(got) != 0 {
		t.Errorf("DateRange(0) = %v, want empty", got)
	}
	if got := DateRange(today, -5); len(got) != 0 {
		t.Errorf("DateRange(-5) = %v, want empty", got)
	}

	// The window always has exactly daysBack dates and never includes today.
	for _, daysBack := range []int{1, 7, 30, 365, 366} {
		r := DateRange(today, daysBack)
		if len(r) != daysBack {
			t.Errorf("DateRange(%d) has %d dates", daysBack, len(r))
		}
		if r[len(r)-1] != "2024-06-09" {
			t.Errorf("DateRange(%d) ends at %s, want 2024-06-09", daysBack, r[len(r)-1])
		}
		for _, d := range r {
			if d == "2024-06-10" {
				t.Errorf("DateRange(%d) includes today", daysBack)
			}
		}
	}

	// Crosses month and year boundaries without gaps.
	r := DateRange(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 4)
	want = []string{"2023-12-29", "2023-12-30", "2023-12-31", "2024-01-01"}
	if !reflect.DeepEqual(r, want) {
		t.Errorf("DateRange across year = %v, want %v", r, want)
	}
}

func TestMissingCashupDatesExample(t *testing.T) {
	// daysBack=3, today 2024-06-10, session exists for 06-08, open all days.
	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cashups := &fakeCashupStore{dates: sessions("2024-06-08")}
	oracle := &fakeOracle{isOpen: alwaysOpen}
	svc := newTestService(cashups, oracle, 1, today)

	got, err := svc.MissingCashupDates(context.Background(), "kings-arms", 3)
	if err != nil {
		t.Fatalf("MissingCashupDates: %v", err)
	}

	want := []string{"2024-06-09", "2024-06-07"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MissingCashupDates = %v, want %v", got, want)
	}
}

func TestMissingCashupDatesAllClosed(t *testing.T) {
	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cashups := &fakeCashupStore{dates: sessions("2024-06-08")}
	oracle := &fakeOracle{isOpen: func(string) (bool, error) { return false, nil }}
	svc := newTestService(cashups, oracle, 1, today)

	got, err := svc.MissingCashupDates(context.Background(), "kings-arms", 3)
	if err != nil {
		t.Fatalf("MissingCashupDates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("MissingCashupDates with all days closed = %v, want empty", got)
	}
}

func TestMissingCashupDatesAllReconciled(t *testing.T) {
	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cashups := &fakeCashupStore{dates: sessions("2024-06-07", "2024-06-08", "2024-06-09")}
	oracle := &fakeOracle{isOpen: alwaysOpen}
	svc := newTestService(cashups, oracle, 1, today)

	got, err := svc.MissingCashupDates(context.Background(), "kings-arms", 3)
	if err != nil {
		t.Fatalf("MissingCashupDates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("MissingCashupDates with all days reconciled = %v, want empty", got)
	}
	// Reconciled days must never cost an oracle call.
	if len(oracle.calls) != 0 {
		t.Errorf("oracle consulted %d times for reconciled days, want 0", len(oracle.calls))
	}
}

func TestMissingCashupDatesZeroWindow(t *testing.T) {
	svc := newTestService(&fakeCashupStore{}, &fakeOracle{isOpen: alwaysOpen}, 1,
		time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))

	got, err := svc.MissingCashupDates(context.Background(), "kings-arms", 0)
	if err != nil {
		t.Fatalf("MissingCashupDates: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("MissingCashupDates(0) = %v, want empty non-nil", got)
	}
}

func TestMissingCashupDatesInvariants(t *testing.T) {
	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	existing := sessions("2024-03-01", "2024-03-05", "2024-03-10", "2024-03-14")
	cashups := &fakeCashupStore{dates: existing}
	// Closed on the 3rd, 8th, and 12th.
	closed := sessions("2024-03-03", "2024-03-08", "2024-03-12")
	oracle := &fakeOracle{isOpen: func(d string) (bool, error) {
		_, isClosed := closed[d]
		return !isClosed, nil
	}}
	svc := newTestService(cashups, oracle, 1, today)

	const daysBack = 20
	got, err := svc.MissingCashupDates(context.Background(), "kings-arms", daysBack)
	if err != nil {
		t.Fatalf("MissingCashupDates: %v", err)
	}

	inRange := make(map[string]struct{})
	for _, d := range DateRange(today, daysBack) {
		inRange[d] = struct{}{}
	}
	for _, d := range got {
		if _, ok := inRange[d]; !ok {
			t.Errorf("result date %s outside the enumerated range", d)
		}
		if _, ok := existing[d]; ok {
			t.Errorf("result date %s already has a session", d)
		}
		if _, ok := closed[d]; ok {
			t.Errorf("result date %s was closed", d)
		}
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i] > got[j] }) {
		t.Errorf("result not sorted descending: %v", got)
	}
}

func TestMissingCashupDatesStorageError(t *testing.T) {
	sentinel := errors.New("connection refused")
	svc := newTestService(&fakeCashupStore{err: sentinel}, &fakeOracle{isOpen: alwaysOpen}, 1,
		time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))

	got, err := svc.MissingCashupDates(context.Background(), "kings-arms", 30)
	if got != nil {
		t.Errorf("partial result returned on storage failure: %v", got)
	}

	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v (%T), want *StorageError", err, err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("StorageError should wrap the cause, got: %v", err)
	}
}

func TestMissingCashupDatesOracleErrorAborts(t *testing.T) {
	sentinel := errors.New("hours backend down")
	for _, maxChecks := range []int{1, 4} {
		oracle := &fakeOracle{isOpen: func(d string) (bool, error) {
			if d == "2024-06-05" {
				return false, sentinel
			}
			return true, nil
		}}
		svc := newTestService(&fakeCashupStore{}, oracle, maxChecks,
			time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))

		got, err := svc.MissingCashupDates(context.Background(), "kings-arms", 7)
		if got != nil {
			t.Errorf("maxChecks=%d: partial result returned on oracle failure: %v", maxChecks, got)
		}

		var oerr *OracleError
		if !errors.As(err, &oerr) {
			t.Fatalf("maxChecks=%d: error = %v (%T), want *OracleError", maxChecks, err, err)
		}
		if oerr.Date != "2024-06-05" {
			t.Errorf("maxChecks=%d: OracleError.Date = %s, want 2024-06-05", maxChecks, oerr.Date)
		}
		if !errors.Is(err, sentinel) {
			t.Errorf("maxChecks=%d: OracleError should wrap the cause, got: %v", maxChecks, err)
		}
	}
}

func TestMissingCashupDatesConcurrentMatchesSequential(t *testing.T) {
	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	existing := sessions("2024-05-20", "2024-05-25", "2024-06-01", "2024-06-07")
	// Closed every Sunday and Monday.
	isOpen := func(d string) (bool, error) {
		day, err := time.Parse(domain.DateLayout, d)
		if err != nil {
			return false, err
		}
		wd := day.Weekday()
		return wd != time.Sunday && wd != time.Monday, nil
	}

	seq := newTestService(&fakeCashupStore{dates: existing}, &fakeOracle{isOpen: isOpen}, 1, today)
	conc := newTestService(&fakeCashupStore{dates: existing}, &fakeOracle{isOpen: isOpen}, 8, today)

	want, err := seq.MissingCashupDates(context.Background(), "kings-arms", 45)
	if err != nil {
		t.Fatalf("sequential scan: %v", err)
	}
	got, err := conc.MissingCashupDates(context.Background(), "kings-arms", 45)
	if err != nil {
		t.Fatalf("concurrent scan: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("concurrent scan diverged:\n  got  %v\n  want %v", got, want)
	}
}

package hours

import (
	"context"
	"errors"
	"testing"
	"time"

	"siteops/internal/domain"
)

// fakeHoursStore implements store.HoursStore in memory.
type fakeHoursStore struct {
	weekly      map[string][]domain.OpeningHours
	overrides   map[string][]domain.HoursOverride
	weeklyErr   error
	weeklyCalls int
}

func (f *fakeHoursStore) UpsertHours(_ context.Context, h domain.OpeningHours) error {
	if f.weekly == nil {
		f.weekly = make(map[string][]domain.OpeningHours)
	}
	f.weekly[h.SiteID] = append(f.weekly[h.SiteID], h)
	return nil
}

func (f *fakeHoursStore) WeeklyHours(_ context.Context, siteID string) ([]domain.OpeningHours, error) {
	f.weeklyCalls++
	if f.weeklyErr != nil {
		return nil, f.weeklyErr
	}
	return f.weekly[siteID], nil
}

func (f *fakeHoursStore) UpsertOverride(_ context.Context, ov domain.HoursOverride) error {
	if f.overrides == nil {
		f.overrides = make(map[string][]domain.HoursOverride)
	}
	f.overrides[ov.SiteID] = append(f.overrides[ov.SiteID], ov)
	return nil
}

func (f *fakeHoursStore) Overrides(_ context.Context, siteID, start, end string) ([]domain.HoursOverride, error) {
	var out []domain.HoursOverride
	for _, ov := range f.overrides[siteID] {
		if ov.Date >= start && ov.Date <= end {
			out = append(out, ov)
		}
	}
	return out, nil
}

func TestIsOpenWeeklySchedule(t *testing.T) {
	fs := &fakeHoursStore{}
	// Open Tuesday through Saturday; 2024-06-10 is a Monday.
	for _, wd := range []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
		fs.UpsertHours(context.Background(), domain.OpeningHours{
			SiteID: "kings-arms", Weekday: wd, OpenTime: "11:00", CloseTime: "23:00",
		})
	}
	cal := NewCalendar(fs)

	open, err := cal.IsOpen(context.Background(), "kings-arms", "2024-06-11") // Tuesday
	if err != nil {
		t.Fatalf("IsOpen: %v", err)
	}
	if !open {
		t.Error("IsOpen(Tuesday) = false, want true")
	}

	open, err = cal.IsOpen(context.Background(), "kings-arms", "2024-06-10") // Monday
	if err != nil {
		t.Fatalf("IsOpen: %v", err)
	}
	if open {
		t.Error("IsOpen(Monday, no schedule row) = true, want false")
	}
}

func TestIsOpenOverrideWins(t *testing.T) {
	fs := &fakeHoursStore{}
	ctx := context.Background()

	fs.UpsertHours(ctx, domain.OpeningHours{
		SiteID: "kings-arms", Weekday: time.Wednesday, OpenTime: "11:00", CloseTime: "23:00",
	})
	// 2024-12-25 is a Wednesday, but the site is shut for Christmas.
	fs.UpsertOverride(ctx, domain.HoursOverride{
		SiteID: "kings-arms", Date: "2024-12-25", Closed: true, Reason: "christmas",
	})
	// 2024-12-23 is a Monday with no weekly row, but opens for a one-off.
	fs.UpsertOverride(ctx, domain.HoursOverride{
		SiteID: "kings-arms", Date: "2024-12-23", OpenTime: "12:00", CloseTime: "20:00",
	})

	cal := NewCalendar(fs)

	open, err := cal.IsOpen(ctx, "kings-arms", "2024-12-25")
	if err != nil {
		t.Fatalf("IsOpen: %v", err)
	}
	if open {
		t.Error("closed override ignored: IsOpen = true, want false")
	}

	open, err = cal.IsOpen(ctx, "kings-arms", "2024-12-23")
	if err != nil {
		t.Fatalf("IsOpen: %v", err)
	}
	if !open {
		t.Error("amending override ignored: IsOpen = false, want true")
	}
}

func TestIsOpenBadDate(t *testing.T) {
	cal := NewCalendar(&fakeHoursStore{})
	if _, err := cal.IsOpen(context.Background(), "kings-arms", "25/12/2024"); err == nil {
		t.Error("IsOpen accepted a malformed date")
	}
}

func TestIsOpenStoreErrorPropagates(t *testing.T) {
	sentinel := errors.New("db gone")
	cal := NewCalendar(&fakeHoursStore{weeklyErr: sentinel})

	_, err := cal.IsOpen(context.Background(), "kings-arms", "2024-06-11")
	if !errors.Is(err, sentinel) {
		t.Errorf("IsOpen error = %v, want wrapped %v", err, sentinel)
	}
}

func TestWeeklyScheduleCached(t *testing.T) {
	fs := &fakeHoursStore{}
	ctx := context.Background()
	fs.UpsertHours(ctx, domain.OpeningHours{
		SiteID: "kings-arms", Weekday: time.Friday, OpenTime: "11:00", CloseTime: "23:00",
	})
	cal := NewCalendar(fs)

	for _, date := range []string{"2024-06-14", "2024-06-21", "2024-06-28"} {
		if _, err := cal.IsOpen(ctx, "kings-arms", date); err != nil {
			t.Fatalf("IsOpen(%s): %v", date, err)
		}
	}
	if fs.weeklyCalls != 1 {
		t.Errorf("WeeklyHours called %d times, want 1 (cached)", fs.weeklyCalls)
	}

	cal.Invalidate("kings-arms")
	if _, err := cal.IsOpen(ctx, "kings-arms", "2024-07-05"); err != nil {
		t.Fatalf("IsOpen after Invalidate: %v", err)
	}
	if fs.weeklyCalls != 2 {
		t.Errorf("WeeklyHours called %d times after Invalidate, want 2", fs.weeklyCalls)
	}
}

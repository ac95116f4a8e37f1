// Package hours resolves whether a site was trading on a given calendar day.
// The answer combines the site's weekly schedule with per-date overrides;
// an override always wins.
package hours

import (
	"context"
	"fmt"
	"sync"
	"time"

	"siteops/internal/domain"
	"siteops/internal/store"
)

// Calendar answers open/closed questions for sites. The weekly schedule is
// cached per site for the lifetime of the Calendar; overrides are read per
// query since they change more often.
type Calendar struct {
	store store.HoursStore

	mu     sync.Mutex
	weekly map[string]map[time.Weekday]domain.OpeningHours
}

// NewCalendar creates a Calendar backed by the given hours store.
func NewCalendar(s store.HoursStore) *Calendar {
	return &Calendar{
		store:  s,
		weekly: make(map[string]map[time.Weekday]domain.OpeningHours),
	}
}

// IsOpen reports whether the site was open for trading on the given
// YYYY-MM-DD date. A closed override wins over the weekly schedule; an
// amending override means open; otherwise the site is open iff a weekly
// schedule row exists for the date's weekday.
func (c *Calendar) IsOpen(ctx context.Context, siteID, date string) (bool, error) {
	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return false, fmt.Errorf("parsing date %q: %w", date, err)
	}

	overrides, err := c.store.Overrides(ctx, siteID, date, date)
	if err != nil {
		return false, fmt.Errorf("loading overrides for %s: %w", siteID, err)
	}
	if len(overrides) > 0 {
		return !overrides[0].Closed, nil
	}

	schedule, err := c.weeklyFor(ctx, siteID)
	if err != nil {
		return false, err
	}
	_, open := schedule[day.Weekday()]
	return open, nil
}

// weeklyFor returns the cached weekday map for a site, loading it on first
// use.
func (c *Calendar) weeklyFor(ctx context.Context, siteID string) (map[time.Weekday]domain.OpeningHours, error) {
	c.mu.Lock()
	cached, ok := c.weekly[siteID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	rows, err := c.store.WeeklyHours(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("loading weekly hours for %s: %w", siteID, err)
	}

	schedule := make(map[time.Weekday]domain.OpeningHours, len(rows))
	for _, h := range rows {
		schedule[h.Weekday] = h
	}

	c.mu.Lock()
	c.weekly[siteID] = schedule
	c.mu.Unlock()
	return schedule, nil
}

// Invalidate drops the cached weekly schedule for a site, forcing a reload on
// the next query. Call after editing the site's schedule.
func (c *Calendar) Invalidate(siteID string) {
	c.mu.Lock()
	delete(c.weekly, siteID)
	c.mu.Unlock()
}

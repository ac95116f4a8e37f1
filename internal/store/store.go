// Package store defines storage interfaces for persisting and retrieving
// domain objects such as sites, cash-up sessions, opening hours, receipts,
// and outbound messages.
package store

import (
	"context"

	"siteops/internal/domain"
)

// SiteStore persists and retrieves site records.
type SiteStore interface {
	// SaveSite inserts or updates a site.
	SaveSite(ctx context.Context, site *domain.Site) error

	// GetSite retrieves a single site by ID. It returns ok=false when the
	// site does not exist.
	GetSite(ctx context.Context, id string) (*domain.Site, bool, error)

	// ListSites returns all sites ordered by ID.
	ListSites(ctx context.Context) ([]domain.Site, error)
}

// CashupStore persists and retrieves end-of-day cash-up sessions.
type CashupStore interface {
	// SaveSession inserts a new cash-up session.
	SaveSession(ctx context.Context, session *domain.CashupSession) error

	// SessionDates returns the set of session dates recorded for the site
	// within [start, end] (inclusive, YYYY-MM-DD bounds).
	SessionDates(ctx context.Context, siteID, start, end string) (map[string]struct{}, error)

	// ListSessions returns the site's sessions within [start, end] ordered
	// by session date ascending.
	ListSessions(ctx context.Context, siteID, start, end string) ([]domain.CashupSession, error)
}

// HoursStore persists and retrieves site opening-hours configuration.
type HoursStore interface {
	// UpsertHours inserts or replaces one weekday row of the weekly schedule.
	UpsertHours(ctx context.Context, hours domain.OpeningHours) error

	// WeeklyHours returns the site's weekly schedule rows.
	WeeklyHours(ctx context.Context, siteID string) ([]domain.OpeningHours, error)

	// UpsertOverride inserts or replaces a per-date override.
	UpsertOverride(ctx context.Context, ov domain.HoursOverride) error

	// Overrides returns the site's per-date overrides within [start, end].
	Overrides(ctx context.Context, siteID, start, end string) ([]domain.HoursOverride, error)
}

// ReceiptStore persists and retrieves settled receipts.
type ReceiptStore interface {
	// WriteReceipts persists a batch of receipts.
	WriteReceipts(ctx context.Context, receipts []domain.Receipt) error

	// ReadReceipts returns the site's receipts with calendar day in
	// [start, end], ordered by timestamp ascending.
	ReadReceipts(ctx context.Context, siteID, start, end string) ([]domain.Receipt, error)
}

// MessageStore records outbound notifications after dispatch.
type MessageStore interface {
	// SaveMessage inserts a sent message.
	SaveMessage(ctx context.Context, msg *domain.Message) error

	// ListMessages returns the site's most recent messages, up to limit.
	ListMessages(ctx context.Context, siteID string, limit int) ([]domain.Message, error)
}

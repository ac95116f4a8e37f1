// Package domain defines the core business types shared across siteops:
// sites, cash-up sessions, receipts, opening hours, and outbound messages.
package domain

import "time"

// DateLayout is the canonical calendar-day format used throughout siteops.
// Dates are timezone-naive at every boundary (API, storage, archives).
const DateLayout = "2006-01-02"

// Site is a single physical business location.
type Site struct {
	ID           string
	Name         string
	Timezone     string // IANA name, e.g. "Europe/London"
	ManagerEmail string
}

// CashupSession is a recorded end-of-day cash reconciliation for a site.
// All monetary amounts are in minor currency units (pence/cents).
type CashupSession struct {
	ID            string
	SiteID        string
	SessionDate   string // YYYY-MM-DD
	DeclaredTotal int64  // counted at close
	ExpectedTotal int64  // till total for the day
	RecordedBy    string
	RecordedAt    time.Time
}

// Variance returns declared minus expected. Zero means the till balanced.
func (s CashupSession) Variance() int64 {
	return s.DeclaredTotal - s.ExpectedTotal
}

// Receipt is a single settled bill. Amounts are in minor currency units.
type Receipt struct {
	ID          string
	SiteID      string
	Timestamp   time.Time
	Gross       int64
	Tax         int64
	Covers      int
	PaymentType string // "card", "cash", ...
}

// Net returns the gross amount less tax.
func (r Receipt) Net() int64 {
	return r.Gross - r.Tax
}

// Day returns the receipt's calendar day in DateLayout form.
func (r Receipt) Day() string {
	return r.Timestamp.Format(DateLayout)
}

// OpeningHours is one weekday row of a site's weekly trading schedule.
// A site is considered open on a weekday iff a row exists for it.
type OpeningHours struct {
	SiteID    string
	Weekday   time.Weekday
	OpenTime  string // "09:00"
	CloseTime string // "23:00"
}

// HoursOverride amends or closes a single calendar date, taking precedence
// over the weekly schedule (bank holidays, private events, refits).
type HoursOverride struct {
	SiteID    string
	Date      string // YYYY-MM-DD
	Closed    bool
	OpenTime  string // ignored when Closed
	CloseTime string
	Reason    string
}

// Message is an outbound notification recorded after dispatch.
type Message struct {
	ID        string
	SiteID    string
	Recipient string
	Subject   string
	Body      string
	SentAt    time.Time
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"siteops/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ SiteStore = (*SQLiteStore)(nil)
var _ CashupStore = (*SQLiteStore)(nil)
var _ HoursStore = (*SQLiteStore)(nil)
var _ ReceiptStore = (*SQLiteStore)(nil)
var _ MessageStore = (*SQLiteStore)(nil)

// SQLiteStore implements the operational stores backed by a single SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sites (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			timezone      TEXT NOT NULL DEFAULT '',
			manager_email TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS cashup_sessions (
			id             TEXT PRIMARY KEY,
			site_id        TEXT NOT NULL,
			session_date   TEXT NOT NULL,
			declared_total INTEGER NOT NULL,
			expected_total INTEGER NOT NULL,
			recorded_by    TEXT NOT NULL DEFAULT '',
			recorded_at    INTEGER NOT NULL,
			UNIQUE (site_id, session_date)
		);
		CREATE INDEX IF NOT EXISTS idx_cashup_site_date
			ON cashup_sessions (site_id, session_date);

		CREATE TABLE IF NOT EXISTS opening_hours (
			site_id    TEXT NOT NULL,
			weekday    INTEGER NOT NULL,
			open_time  TEXT NOT NULL,
			close_time TEXT NOT NULL,
			PRIMARY KEY (site_id, weekday)
		);

		CREATE TABLE IF NOT EXISTS hours_overrides (
			site_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			closed     INTEGER NOT NULL,
			open_time  TEXT NOT NULL DEFAULT '',
			close_time TEXT NOT NULL DEFAULT '',
			reason     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (site_id, date)
		);

		CREATE TABLE IF NOT EXISTS receipts (
			id           TEXT PRIMARY KEY,
			site_id      TEXT NOT NULL,
			ts           INTEGER NOT NULL,
			day          TEXT NOT NULL,
			gross        INTEGER NOT NULL,
			tax          INTEGER NOT NULL,
			covers       INTEGER NOT NULL DEFAULT 0,
			payment_type TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_receipts_site_day
			ON receipts (site_id, day);

		CREATE TABLE IF NOT EXISTS messages (
			id        TEXT PRIMARY KEY,
			site_id   TEXT NOT NULL,
			recipient TEXT NOT NULL,
			subject   TEXT NOT NULL,
			body      TEXT NOT NULL,
			sent_at   INTEGER NOT NULL
		);
	`)
	return err
}

// ---------------------------------------------------------------------------
// SiteStore implementation
// ---------------------------------------------------------------------------

// SaveSite inserts or updates a site.
func (s *SQLiteStore) SaveSite(ctx context.Context, site *domain.Site) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sites (id, name, timezone, manager_email)
		VALUES (?, ?, ?, ?)`,
		site.ID, site.Name, site.Timezone, site.ManagerEmail,
	)
	return err
}

// GetSite retrieves a single site by ID.
func (s *SQLiteStore) GetSite(ctx context.Context, id string) (*domain.Site, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, timezone, manager_email FROM sites WHERE id = ?`, id)

	var site domain.Site
	err := row.Scan(&site.ID, &site.Name, &site.Timezone, &site.ManagerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &site, true, nil
}

// ListSites returns all sites ordered by ID.
func (s *SQLiteStore) ListSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, timezone, manager_email FROM sites ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var site domain.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Timezone, &site.ManagerEmail); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// ---------------------------------------------------------------------------
// CashupStore implementation
// ---------------------------------------------------------------------------

// SaveSession inserts a new cash-up session.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *domain.CashupSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cashup_sessions
		(id, site_id, session_date, declared_total, expected_total, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.SiteID,
		session.SessionDate,
		session.DeclaredTotal,
		session.ExpectedTotal,
		session.RecordedBy,
		session.RecordedAt.UnixMilli(),
	)
	return err
}

// SessionDates returns the set of session dates recorded for the site within
// [start, end]. YYYY-MM-DD strings compare correctly as text.
func (s *SQLiteStore) SessionDates(ctx context.Context, siteID, start, end string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_date FROM cashup_sessions
		WHERE site_id = ? AND session_date BETWEEN ? AND ?`,
		siteID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates[d] = struct{}{}
	}
	return dates, rows.Err()
}

// ListSessions returns the site's sessions within [start, end] ordered by
// session date ascending.
func (s *SQLiteStore) ListSessions(ctx context.Context, siteID, start, end string) ([]domain.CashupSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, session_date, declared_total, expected_total, recorded_by, recorded_at
		FROM cashup_sessions
		WHERE site_id = ? AND session_date BETWEEN ? AND ?
		ORDER BY session_date`,
		siteID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.CashupSession
	for rows.Next() {
		var sess domain.CashupSession
		var recordedAt int64
		if err := rows.Scan(
			&sess.ID, &sess.SiteID, &sess.SessionDate,
			&sess.DeclaredTotal, &sess.ExpectedTotal,
			&sess.RecordedBy, &recordedAt,
		); err != nil {
			return nil, err
		}
		sess.RecordedAt = time.UnixMilli(recordedAt).UTC()
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ---------------------------------------------------------------------------
// HoursStore implementation
// ---------------------------------------------------------------------------

// UpsertHours inserts or replaces one weekday row of the weekly schedule.
func (s *SQLiteStore) UpsertHours(ctx context.Context, hours domain.OpeningHours) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO opening_hours (site_id, weekday, open_time, close_time)
		VALUES (?, ?, ?, ?)`,
		hours.SiteID, int(hours.Weekday), hours.OpenTime, hours.CloseTime,
	)
	return err
}

// WeeklyHours returns the site's weekly schedule rows.
func (s *SQLiteStore) WeeklyHours(ctx context.Context, siteID string) ([]domain.OpeningHours, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site_id, weekday, open_time, close_time
		FROM opening_hours WHERE site_id = ? ORDER BY weekday`,
		siteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []domain.OpeningHours
	for rows.Next() {
		var h domain.OpeningHours
		var weekday int
		if err := rows.Scan(&h.SiteID, &weekday, &h.OpenTime, &h.CloseTime); err != nil {
			return nil, err
		}
		h.Weekday = time.Weekday(weekday)
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// UpsertOverride inserts or replaces a per-date override.
func (s *SQLiteStore) UpsertOverride(ctx context.Context, ov domain.HoursOverride) error {
	closed := 0
	if ov.Closed {
		closed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO hours_overrides
		(site_id, date, closed, open_time, close_time, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ov.SiteID, ov.Date, closed, ov.OpenTime, ov.CloseTime, ov.Reason,
	)
	return err
}

// Overrides returns the site's per-date overrides within [start, end].
func (s *SQLiteStore) Overrides(ctx context.Context, siteID, start, end string) ([]domain.HoursOverride, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site_id, date, closed, open_time, close_time, reason
		FROM hours_overrides
		WHERE site_id = ? AND date BETWEEN ? AND ?
		ORDER BY date`,
		siteID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []domain.HoursOverride
	for rows.Next() {
		var ov domain.HoursOverride
		var closed int
		if err := rows.Scan(&ov.SiteID, &ov.Date, &closed, &ov.OpenTime, &ov.CloseTime, &ov.Reason); err != nil {
			return nil, err
		}
		ov.Closed = closed != 0
		overrides = append(overrides, ov)
	}
	return overrides, rows.Err()
}

// ---------------------------------------------------------------------------
// ReceiptStore implementation
// ---------------------------------------------------------------------------

// WriteReceipts persists a batch of receipts in a single transaction.
func (s *SQLiteStore) WriteReceipts(ctx context.Context, receipts []domain.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO receipts
		(id, site_id, ts, day, gross, tax, covers, payment_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range receipts {
		r := &receipts[i]
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.SiteID, r.Timestamp.UnixMilli(), r.Day(),
			r.Gross, r.Tax, r.Covers, r.PaymentType,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReadReceipts returns the site's receipts with calendar day in [start, end],
// ordered by timestamp ascending.
func (s *SQLiteStore) ReadReceipts(ctx context.Context, siteID, start, end string) ([]domain.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, ts, gross, tax, covers, payment_type
		FROM receipts
		WHERE site_id = ? AND day BETWEEN ? AND ?
		ORDER BY ts`,
		siteID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []domain.Receipt
	for rows.Next() {
		var r domain.Receipt
		var ts int64
		if err := rows.Scan(&r.ID, &r.SiteID, &ts, &r.Gross, &r.Tax, &r.Covers, &r.PaymentType); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(ts).UTC()
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// ---------------------------------------------------------------------------
// MessageStore implementation
// ---------------------------------------------------------------------------

// SaveMessage inserts a sent message.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *domain.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, site_id, recipient, subject, body, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SiteID, msg.Recipient, msg.Subject, msg.Body, msg.SentAt.UnixMilli(),
	)
	return err
}

// ListMessages returns the site's most recent messages, up to limit.
func (s *SQLiteStore) ListMessages(ctx context.Context, siteID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, recipient, subject, body, sent_at
		FROM messages
		WHERE site_id = ?
		ORDER BY sent_at DESC
		LIMIT ?`,
		siteID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var sentAt int64
		if err := rows.Scan(&m.ID, &m.SiteID, &m.Recipient, &m.Subject, &m.Body, &sentAt); err != nil {
			return nil, err
		}
		m.SentAt = time.UnixMilli(sentAt).UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

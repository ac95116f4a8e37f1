// Package notify dispatches missing-cashup digests to site managers.
// Dispatch is rate-limited and retried; the reconciliation scan itself never
// retries, so transient delivery failures stay contained here.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"siteops/internal/domain"
	"siteops/internal/store"
	"siteops/internal/util"
)

// Sender delivers a single message to its recipient.
type Sender interface {
	Send(ctx context.Context, msg *domain.Message) error
}

// LogSender writes messages to the log instead of delivering them. Used in
// development and as the default until a mail transport is configured.
type LogSender struct {
	Log *slog.Logger
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg *domain.Message) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("outbound message",
		"site", msg.SiteID,
		"recipient", msg.Recipient,
		"subject", msg.Subject,
	)
	return nil
}

// Dispatcher composes and sends notifications, recording each delivered
// message.
type Dispatcher struct {
	sender      Sender
	messages    store.MessageStore
	limiter     *util.RateLimiter
	maxAttempts int
	retryBase   time.Duration
	now         func() time.Time
	log         *slog.Logger
}

// NewDispatcher creates a Dispatcher. ratePerMinute bounds outbound sends
// across all sites; maxAttempts and retryBase control per-message delivery
// retries.
func NewDispatcher(sender Sender, messages store.MessageStore, ratePerMinute, maxAttempts int, retryBase time.Duration, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		sender:      sender,
		messages:    messages,
		limiter:     util.NewRateLimiter(ratePerMinute),
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		now:         time.Now,
		log:         log.With("component", "notify"),
	}
}

// NotifyMissingCashups sends the site's manager a digest of the missing
// dates. Nothing is sent when dates is empty or the site has no manager
// email. The message is recorded only after delivery succeeds.
func (d *Dispatcher) NotifyMissingCashups(ctx context.Context, site *domain.Site, dates []string) error {
	if len(dates) == 0 {
		return nil
	}
	if site.ManagerEmail == "" {
		d.log.Warn("site has no manager email, skipping notification", "site", site.ID)
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		SiteID:    site.ID,
		Recipient: site.ManagerEmail,
		Subject:   fmt.Sprintf("%s: %d day(s) missing a cash-up", site.Name, len(dates)),
		Body:      composeBody(site, dates),
	}

	err := util.Retry(ctx, d.maxAttempts, d.retryBase, func() error {
		return d.sender.Send(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("sending missing-cashup digest for %s: %w", site.ID, err)
	}

	msg.SentAt = d.now().UTC()
	if err := d.messages.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("recording message %s: %w", msg.ID, err)
	}

	d.log.Info("missing-cashup digest sent", "site", site.ID, "dates", len(dates))
	return nil
}

// composeBody renders the digest body. Dates arrive newest-first from the
// scan and are listed in that order.
func composeBody(site *domain.Site, dates []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following trading days at %s have no recorded cash-up:\n\n", site.Name)
	for _, d := range dates {
		fmt.Fprintf(&b, "  - %s\n", d)
	}
	b.WriteString("\nPlease complete the end-of-day reconciliation for each date.\n")
	return b.String()
}

package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/groupbuy-backend/internal/statuschanges"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"github.com/angelmondragon/groupbuy-backend/pkg/mailer"
	"github.com/angelmondragon/groupbuy-backend/pkg/metrics"
	"github.com/google/uuid"
)

const (
	defaultClaimTTL = time.Hour
	defaultSubject  = "Your commitment updates"
	dayLayout       = "January 2, 2006"
)

type recipientLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Report counts the outcome of one daily batch.
type Report struct {
	Users  int
	Sent   int
	Failed int
}

// BatcherParams configure the daily notification batcher.
type BatcherParams struct {
	Changes  statuschanges.Repository
	Users    recipientLookup
	Sender   mailer.Sender
	Logger   *logger.Logger
	Metrics  *metrics.DigestMetrics
	Location *time.Location
	ClaimTTL time.Duration
	Subject  string
	Now      func() time.Time
}

// Batcher sends each member one summary of the day's commitment decisions.
type Batcher struct {
	changes  statuschanges.Repository
	users    recipientLookup
	sender   mailer.Sender
	logg     *logger.Logger
	metrics  *metrics.DigestMetrics
	loc      *time.Location
	claimTTL time.Duration
	subject  string
	now      func() time.Time
}

// NewBatcher validates params and builds a Batcher.
func NewBatcher(params BatcherParams) (*Batcher, error) {
	if params.Changes == nil {
		return nil, fmt.Errorf("status change repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := params.ClaimTTL
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		subject = defaultSubject
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Batcher{
		changes:  params.Changes,
		users:    params.Users,
		sender:   params.Sender,
		logg:     params.Logger,
		metrics:  params.Metrics,
		loc:      loc,
		claimTTL: ttl,
		subject:  subject,
		now:      now,
	}, nil
}

// DayBounds returns the [start, end) instants of asOf's calendar day in loc.
func DayBounds(asOf time.Time, loc *time.Location) (time.Time, time.Time) {
	local := asOf.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

type userGroup struct {
	userID  uuid.UUID
	changes []models.CommitmentStatusChange
}

// RunDailyBatch claims the unprocessed status changes created on asOf's day,
// sends one summary per member and marks a member's rows processed only once
// their email went out. A failed member keeps their rows for the next run.
func (b *Batcher) RunDailyBatch(ctx context.Context, asOf time.Time) (*Report, error) {
	start, end := DayBounds(asOf, b.loc)
	ctx = b.logg.WithField(ctx, "digest_day", start.Format("2006-01-02"))

	now := b.now().UTC()
	token := uuid.New()
	claimed, err := b.changes.ClaimForDay(ctx, statuschanges.ClaimParams{
		DayStart:    start,
		DayEnd:      end,
		Token:       token,
		ClaimedAt:   now,
		StaleBefore: now.Add(-b.claimTTL),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim status changes")
	}
	report := &Report{}
	if len(claimed) == 0 {
		b.logg.Info(ctx, "no status changes to notify")
		return report, nil
	}

	groups := groupByUser(claimed)
	report.Users = len(groups)
	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.userID)
	}
	recipients, err := b.users.FindByIDs(ctx, ids)
	if err != nil {
		b.releaseAll(ctx, groups, token)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load digest recipients")
	}

	day := start.Format(dayLayout)
	for _, g := range groups {
		userCtx := b.logg.WithUserID(ctx, g.userID.String())
		if err := b.sendGroup(userCtx, g, recipients, day, token); err != nil {
			report.Failed++
			b.metrics.IncFailed()
			b.logg.Error(b.logg.WithField(userCtx, "changes", len(g.changes)), "digest send failed", err)
			continue
		}
		report.Sent++
		b.metrics.IncSent()
	}

	b.logg.Info(b.logg.WithFields(ctx, map[string]any{
		"users":  report.Users,
		"sent":   report.Sent,
		"failed": report.Failed,
	}), "digest batch complete")
	return report, nil
}

func (b *Batcher) sendGroup(ctx context.Context, g userGroup, recipients map[uuid.UUID]models.User, day string, token uuid.UUID) error {
	summary := BuildSummary("", day, g.changes)
	recipient, ok := recipients[g.userID]
	if !ok || strings.TrimSpace(recipient.Email) == "" {
		b.release(ctx, summary.ChangeIDs, token)
		return pkgerrors.New(pkgerrors.CodeNotFound, "recipient has no email address")
	}
	summary.RecipientName = recipient.DisplayName()

	body, err := Render(summary)
	if err != nil {
		b.release(ctx, summary.ChangeIDs, token)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render digest")
	}
	if err := b.sender.Send(ctx, recipient.Email, b.subject, body); err != nil {
		b.release(ctx, summary.ChangeIDs, token)
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeNotification, err, "send digest")
	}

	if _, err := b.changes.MarkProcessed(ctx, summary.ChangeIDs, token, b.now().UTC()); err != nil {
		// the email went out; the claim expires after the TTL and the rows
		// will be picked up again.
		b.logg.Error(ctx, "failed to mark status changes processed", err)
	}
	return nil
}

func (b *Batcher) release(ctx context.Context, ids []uuid.UUID, token uuid.UUID) {
	if _, err := b.changes.ReleaseClaim(ctx, ids, token); err != nil {
		b.logg.Error(ctx, "failed to release status change claim", err)
	}
}

func (b *Batcher) releaseAll(ctx context.Context, groups []userGroup, token uuid.UUID) {
	for _, g := range groups {
		ids := make([]uuid.UUID, 0, len(g.changes))
		for _, c := range g.changes {
			ids = append(ids, c.ID)
		}
		b.release(ctx, ids, token)
	}
}

func groupByUser(changes []models.CommitmentStatusChange) []userGroup {
	index := make(map[uuid.UUID]int)
	var groups []userGroup
	for _, change := range changes {
		i, ok := index[change.UserID]
		if !ok {
			i = len(groups)
			index[change.UserID] = i
			groups = append(groups, userGroup{userID: change.UserID})
		}
		groups[i].changes = append(groups[i].changes, change)
	}
	return groups
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/groupbuy-backend/internal/digest"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultDigestLookbackDays = 3

type digestRunner interface {
	RunDailyBatch(ctx context.Context, asOf time.Time) (*digest.Report, error)
}

// CommitmentDigestJobParams configure the daily digest job.
type CommitmentDigestJobParams struct {
	Logger       *logger.Logger
	Batcher      digestRunner
	LookbackDays int
	Location     *time.Location
}

// NewCommitmentDigestJob sends the daily summaries for each complete day in
// the lookback window, oldest first. Days already sent produce no email, so
// the overlap only retries members whose send failed.
func NewCommitmentDigestJob(params CommitmentDigestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Batcher == nil {
		return nil, fmt.Errorf("digest batcher required")
	}
	lookback := params.LookbackDays
	if lookback <= 0 {
		lookback = defaultDigestLookbackDays
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &commitmentDigestJob{
		logg:     params.Logger,
		batcher:  params.Batcher,
		lookback: lookback,
		loc:      loc,
		now:      time.Now,
	}, nil
}

type commitmentDigestJob struct {
	logg     *logger.Logger
	batcher  digestRunner
	lookback int
	loc      *time.Location
	now      func() time.Time
}

func (j *commitmentDigestJob) Name() string { return "commitment-digest" }

func (j *commitmentDigestJob) Run(ctx context.Context) error {
	today := j.now().In(j.loc)
	var (
		errs  error
		total digest.Report
	)
	for offset := j.lookback; offset >= 1; offset-- {
		day := today.AddDate(0, 0, -offset)
		report, err := j.batcher.RunDailyBatch(ctx, day)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("digest for %s: %w", day.Format("2006-01-02"), err))
			continue
		}
		total.Users += report.Users
		total.Sent += report.Sent
		total.Failed += report.Failed
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"lookback_days": j.lookback,
		"users":         total.Users,
		"sent":          total.Sent,
		"failed":        total.Failed,
	}), "commitment digest complete")
	if errs != nil {
		return errs
	}
	if total.Failed > 0 {
		return fmt.Errorf("commitment digest: %d of %d summaries failed", total.Failed, total.Users)
	}
	return nil
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"gorm.io/gorm"
)

const statusChangeRetentionDays = 180

// StatusChangeRetentionJobParams configure the retention sweep.
type StatusChangeRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository statusChangePruner
	Retention  int
}

type statusChangePruner interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewStatusChangeRetentionJob deletes emailed status changes older than the
// retention period. Rows still waiting for their digest are never removed.
func NewStatusChangeRetentionJob(params StatusChangeRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("status change repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = statusChangeRetentionDays
	}
	return &statusChangeRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type statusChangeRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      statusChangePruner
	retention int
	now       func() time.Time
}

func (j *statusChangeRetentionJob) Name() string { return "status-change-retention" }

func (j *statusChangeRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteOlderThan(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("status change retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "status change retention complete")
	return nil
}

package statuschanges

import (
	"context"
	"time"

	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists commitment status-change audit rows and drives their
// email processing state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, change *models.CommitmentStatusChange) error
	ListByCommitment(ctx context.Context, commitmentID uuid.UUID) ([]models.CommitmentStatusChange, error)
	ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.CommitmentStatusChange, error)
	ClaimForDay(ctx context.Context, params ClaimParams) ([]models.CommitmentStatusChange, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID, token uuid.UUID, sentAt time.Time) (int64, error)
	ReleaseClaim(ctx context.Context, ids []uuid.UUID, token uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// ClaimParams bound one claim pass over a reporting day.
type ClaimParams struct {
	DayStart    time.Time
	DayEnd      time.Time
	Token       uuid.UUID
	ClaimedAt   time.Time
	StaleBefore time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a status-change repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, change *models.CommitmentStatusChange) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(change).Error
}

func (r *repository) ListByCommitment(ctx context.Context, commitmentID uuid.UUID) ([]models.CommitmentStatusChange, error) {
	var rows []models.CommitmentStatusChange
	err := r.db.WithContext(ctx).
		Where("commitment_id = ?", commitmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.CommitmentStatusChange, error) {
	var rows []models.CommitmentStatusChange
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ClaimForDay stamps every unprocessed, unclaimed (or stale-claimed) row created
// inside [DayStart, DayEnd) with the token and returns the rows now holding it.
// Two concurrent claimers never receive the same row.
func (r *repository) ClaimForDay(ctx context.Context, params ClaimParams) ([]models.CommitmentStatusChange, error) {
	db := r.db.WithContext(ctx)
	err := db.Model(&models.CommitmentStatusChange{}).
		Where("processed_for_email = ?", false).
		Where("created_at >= ? AND created_at < ?", params.DayStart.UTC(), params.DayEnd.UTC()).
		Where("(claim_token IS NULL OR claimed_at < ?)", params.StaleBefore.UTC()).
		Updates(map[string]any{
			"claim_token": params.Token,
			"claimed_at":  params.ClaimedAt.UTC(),
		}).Error
	if err != nil {
		return nil, err
	}

	var rows []models.CommitmentStatusChange
	err = db.
		Where("claim_token = ? AND processed_for_email = ?", params.Token, false).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkProcessed(ctx context.Context, ids []uuid.UUID, token uuid.UUID, sentAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.CommitmentStatusChange{}).
		Where("id IN ? AND claim_token = ?", ids, token).
		Updates(map[string]any{
			"processed_for_email": true,
			"email_sent_at":       sentAt.UTC(),
			"claim_token":         nil,
			"claimed_at":          nil,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ReleaseClaim(ctx context.Context, ids []uuid.UUID, token uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.CommitmentStatusChange{}).
		Where("id IN ? AND claim_token = ?", ids, token).
		Updates(map[string]any{
			"claim_token": nil,
			"claimed_at":  nil,
		})
	return res.RowsAffected, res.Error
}

// DeleteOlderThan removes processed rows created before cutoff. Unprocessed
// rows are kept regardless of age.
func (r *repository) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.WithContext(ctx).
		Where("processed_for_email = ? AND created_at < ?", true, cutoff.UTC()).
		Delete(&models.CommitmentStatusChange{})
	return res.RowsAffected, res.Error
}

package commitments

import (
	"context"
	"time"

	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for commitments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, commitment *models.Commitment) (*models.Commitment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error)
	ListByDeal(ctx context.Context, dealID uuid.UUID, statuses ...enums.CommitmentStatus) ([]models.Commitment, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.CommitmentStatus, response *string) (bool, error)
	UpdateResponse(ctx context.Context, id uuid.UUID, response *string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a commitments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, commitment *models.Commitment) (*models.Commitment, error) {
	if commitment.ID == uuid.Nil {
		commitment.ID = uuid.New()
	}
	if commitment.Status == "" {
		commitment.Status = enums.CommitmentStatusPending
	}
	if commitment.SizeCommitments == nil {
		commitment.SizeCommitments = types.SizeCommitments{}
	}
	if err := r.db.WithContext(ctx).Create(commitment).Error; err != nil {
		return nil, err
	}
	return commitment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error) {
	var commitment models.Commitment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&commitment).Error; err != nil {
		return nil, err
	}
	return &commitment, nil
}

// ListByDeal returns the deal's commitments, optionally narrowed to statuses,
// oldest first.
func (r *repository) ListByDeal(ctx context.Context, dealID uuid.UUID, statuses ...enums.CommitmentStatus) ([]models.Commitment, error) {
	query := r.db.WithContext(ctx).Where("deal_id = ?", dealID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.Commitment
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TransitionStatus moves the commitment from one status to another only if it
// is still in from. It reports false when another writer got there first.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.CommitmentStatus, response *string) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if response != nil {
		updates["distributor_response"] = *response
	}
	res := r.db.WithContext(ctx).
		Model(&models.Commitment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateResponse(ctx context.Context, id uuid.UUID, response *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Commitment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"distributor_response": response,
			"updated_at":           time.Now().UTC(),
		}).Error
}

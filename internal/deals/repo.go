package deals

import (
	"context"
	"time"

	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence operations for deals and their decision history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deal *models.Deal) (*models.Deal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	UpdateAggregates(ctx context.Context, id uuid.UUID, totalSold int, totalRevenue decimal.Decimal) error
	RecordBulkDecision(ctx context.Context, id uuid.UUID, decision enums.BulkDecision) error
	AppendDecisionChange(ctx context.Context, change *models.DealDecisionChange) error
	ListDecisionChanges(ctx context.Context, dealID uuid.UUID) ([]models.DealDecisionChange, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a deals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deal *models.Deal) (*models.Deal, error) {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	if deal.Status == "" {
		deal.Status = enums.DealStatusActive
	}
	// the json serializer writes nil as NULL; the column is NOT NULL
	if deal.Sizes == nil {
		deal.Sizes = types.DealSizes{}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// LockByID loads the deal with a row lock so concurrent decisions on the same
// deal serialize. Only meaningful inside a transaction.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) UpdateAggregates(ctx context.Context, id uuid.UUID, totalSold int, totalRevenue decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_sold":    totalSold,
			"total_revenue": totalRevenue,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// RecordBulkDecision marks the deal as decided and closes it to further single decisions.
func (r *repository) RecordBulkDecision(ctx context.Context, id uuid.UUID, decision enums.BulkDecision) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"bulk_action": true,
			"bulk_status": decision,
			"status":      enums.DealStatusInactive,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *repository) AppendDecisionChange(ctx context.Context, change *models.DealDecisionChange) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(change).Error
}

func (r *repository) ListDecisionChanges(ctx context.Context, dealID uuid.UUID) ([]models.DealDecisionChange, error) {
	var rows []models.DealDecisionChange
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("changed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

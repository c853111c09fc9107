package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
)

// Deal is a distributor-posted bulk offer. TotalSold and TotalRevenue are
// rollups over its approved commitments and are only written by recomputation.
type Deal struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string               `gorm:"column:name;not null"`
	Description       *string              `gorm:"column:description"`
	DistributorID     uuid.UUID            `gorm:"column:distributor_id;type:uuid;not null"`
	Sizes             types.DealSizes      `gorm:"column:sizes;type:jsonb;serializer:json"`
	Status            enums.DealStatus     `gorm:"column:status;type:text;not null;default:'active'"`
	BulkAction        bool                 `gorm:"column:bulk_action;not null;default:false"`
	BulkStatus        *enums.BulkDecision  `gorm:"column:bulk_status;type:text"`
	TotalSold         int                  `gorm:"column:total_sold;not null;default:0"`
	TotalRevenue      decimal.Decimal      `gorm:"column:total_revenue;type:numeric(14,2);not null;default:0"`
	CommitmentStartAt *time.Time           `gorm:"column:commitment_start_at"`
	CommitmentEndAt   *time.Time           `gorm:"column:commitment_end_at"`
	DealStartAt       *time.Time           `gorm:"column:deal_start_at"`
	DealEndAt         *time.Time           `gorm:"column:deal_end_at"`
	DecisionChanges   []DealDecisionChange `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// CommitmentWindowContains reports whether at falls inside the commitment
// window. Deals without a window accept commitments at any time.
func (d Deal) CommitmentWindowContains(at time.Time) bool {
	if d.CommitmentStartAt != nil && at.Before(*d.CommitmentStartAt) {
		return false
	}
	if d.CommitmentEndAt != nil && at.After(*d.CommitmentEndAt) {
		return false
	}
	return true
}

// DealDecisionChange is one append-only entry in a deal's decision history.
type DealDecisionChange struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID         uuid.UUID          `gorm:"column:deal_id;type:uuid;not null;index"`
	PreviousStatus enums.BulkDecision `gorm:"column:previous_status;type:text;not null"`
	NewStatus      enums.BulkDecision `gorm:"column:new_status;type:text;not null"`
	Reason         string             `gorm:"column:reason;not null"`
	Notes          *string            `gorm:"column:notes"`
	ChangedBy      uuid.UUID          `gorm:"column:changed_by;type:uuid;not null"`
	ChangedAt      time.Time          `gorm:"column:changed_at;not null"`
}

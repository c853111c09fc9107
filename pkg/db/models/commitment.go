package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
)

// Commitment is one member's intended purchase against a deal.
//
// Quantity and PricePerUnit are the scalar values used by records created
// before size lines existed. The Modified* fields carry a distributor
// override and win over the submitted values when present.
type Commitment struct {
	ID                      uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID                  uuid.UUID              `gorm:"column:deal_id;type:uuid;not null;index"`
	UserID                  uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	SizeCommitments         types.SizeCommitments  `gorm:"column:size_commitments;type:jsonb;serializer:json"`
	Quantity                int                    `gorm:"column:quantity;not null;default:0"`
	PricePerUnit            decimal.Decimal        `gorm:"column:price_per_unit;type:numeric(14,2);not null;default:0"`
	TotalPrice              decimal.Decimal        `gorm:"column:total_price;type:numeric(14,2);not null;default:0"`
	Status                  enums.CommitmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DistributorResponse     *string                `gorm:"column:distributor_response"`
	ModifiedByDistributor   bool                   `gorm:"column:modified_by_distributor;not null;default:false"`
	ModifiedSizeCommitments types.SizeCommitments  `gorm:"column:modified_size_commitments;type:jsonb;serializer:json"`
	ModifiedTotalPrice      decimal.NullDecimal    `gorm:"column:modified_total_price;type:numeric(14,2)"`
	CreatedAt               time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

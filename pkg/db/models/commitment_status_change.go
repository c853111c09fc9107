package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
)

// CommitmentStatusChange is the audit/outbox row written for every commitment
// transition. Only the email processing and claim columns change after insert.
type CommitmentStatusChange struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommitmentID        uuid.UUID               `gorm:"column:commitment_id;type:uuid;not null;index"`
	DealID              uuid.UUID               `gorm:"column:deal_id;type:uuid;not null"`
	UserID              uuid.UUID               `gorm:"column:user_id;type:uuid;not null"`
	DealName            string                  `gorm:"column:deal_name;not null"`
	DistributorName     string                  `gorm:"column:distributor_name;not null;default:''"`
	DistributorEmail    string                  `gorm:"column:distributor_email;not null;default:''"`
	PreviousStatus      enums.CommitmentStatus  `gorm:"column:previous_status;type:text;not null"`
	NewStatus           enums.CommitmentStatus  `gorm:"column:new_status;type:text;not null"`
	DistributorResponse *string                 `gorm:"column:distributor_response"`
	CommitmentDetails   types.CommitmentDetails `gorm:"column:commitment_details;type:jsonb;serializer:json"`
	ProcessedBy         enums.ActorType         `gorm:"column:processed_by;type:text;not null"`
	ProcessedByID       uuid.UUID               `gorm:"column:processed_by_id;type:uuid;not null"`
	ProcessedForEmail   bool                    `gorm:"column:processed_for_email;not null;default:false"`
	EmailSentAt         *time.Time              `gorm:"column:email_sent_at"`
	ClaimToken          *uuid.UUID              `gorm:"column:claim_token;type:uuid"`
	ClaimedAt           *time.Time              `gorm:"column:claimed_at"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
}

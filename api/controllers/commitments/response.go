package commitments

import (
	"time"

	internalcommitments "github.com/angelmondragon/groupbuy-backend/internal/commitments"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type commitmentResponse struct {
	ID                    uuid.UUID             `json:"id"`
	DealID                uuid.UUID             `json:"dealId"`
	UserID                uuid.UUID             `json:"userId"`
	Status                string                `json:"status"`
	SizeCommitments       types.SizeCommitments `json:"sizeCommitments,omitempty"`
	Quantity              int                   `json:"quantity"`
	TotalPrice            decimal.Decimal       `json:"totalPrice"`
	EffectiveTotalPrice   decimal.Decimal       `json:"effectiveTotalPrice"`
	DistributorResponse   *string               `json:"distributorResponse,omitempty"`
	ModifiedByDistributor bool                  `json:"modifiedByDistributor"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

func toCommitmentResponse(c *models.Commitment) commitmentResponse {
	return commitmentResponse{
		ID:                    c.ID,
		DealID:                c.DealID,
		UserID:                c.UserID,
		Status:                c.Status.String(),
		SizeCommitments:       c.SizeCommitments,
		Quantity:              c.Quantity,
		TotalPrice:            c.TotalPrice,
		EffectiveTotalPrice:   internalcommitments.EffectiveTotalPrice(*c),
		DistributorResponse:   c.DistributorResponse,
		ModifiedByDistributor: c.ModifiedByDistributor,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

type bulkResultResponse struct {
	Affected     int             `json:"affected"`
	FailedIDs    []uuid.UUID     `json:"failedIds"`
	BulkStatus   string          `json:"bulkStatus"`
	TotalSold    int             `json:"totalSold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

func toBulkResultResponse(r *internalcommitments.BulkResult) bulkResultResponse {
	failed := r.FailedIDs
	if failed == nil {
		failed = []uuid.UUID{}
	}
	return bulkResultResponse{
		Affected:     r.Affected,
		FailedIDs:    failed,
		BulkStatus:   r.BulkStatus.String(),
		TotalSold:    r.TotalSold,
		TotalRevenue: r.TotalRevenue,
	}
}

package commitments

import (
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Totals are a deal's rollups over its approved commitments.
type Totals struct {
	TotalSold    int
	TotalRevenue decimal.Decimal
}

// RecomputeTotals sums effective quantity and price over approved commitments.
// It has no side effects and returns the same result for the same input.
func RecomputeTotals(commitments []models.Commitment) Totals {
	totals := Totals{TotalRevenue: decimal.Zero}
	for _, c := range commitments {
		if c.Status != enums.CommitmentStatusApproved {
			continue
		}
		totals.TotalSold += EffectiveValue(c).Quantity()
		totals.TotalRevenue = totals.TotalRevenue.Add(EffectiveTotalPrice(c))
	}
	return totals
}

package deals

import (
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// SelectTier returns the tier with the largest TierQuantity not above qty.
func SelectTier(qty int, tiers []types.DiscountTier) *types.DiscountTier {
	var selected *types.DiscountTier
	for _, tier := range tiers {
		if tier.TierQuantity <= qty {
			if selected == nil || tier.TierQuantity > selected.TierQuantity {
				picked := tier
				selected = &picked
			}
		}
	}
	return selected
}

// PriceLine prices qty units of size, applying the best reachable volume tier.
func PriceLine(size types.DealSize, qty int) types.SizeCommitment {
	unitPrice := size.DiscountPrice
	tier := SelectTier(qty, size.DiscountTiers)
	if tier != nil {
		unitPrice = tier.TierDiscount
	}
	return types.SizeCommitment{
		Size:                size.Size,
		Name:                size.Name,
		Quantity:            qty,
		PricePerUnit:        unitPrice,
		TotalPrice:          unitPrice.Mul(decimal.NewFromInt(int64(qty))),
		AppliedDiscountTier: tier,
	}
}

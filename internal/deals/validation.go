package deals

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
)

// ValidateSizes checks that every size can be priced consistently: tiers
// ascend strictly by quantity and never get more expensive.
func ValidateSizes(sizes types.DealSizes) error {
	if len(sizes) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "deal has no sizes")
	}
	details := map[string]string{}
	seen := make(map[string]struct{}, len(sizes))
	for _, size := range sizes {
		if problem := sizeProblem(size); problem != "" {
			details[size.Size] = problem
			continue
		}
		if _, dup := seen[size.Size]; dup {
			details[size.Size] = "duplicate size"
		}
		seen[size.Size] = struct{}{}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid deal sizes").WithDetails(details)
	}
	return nil
}

func sizeProblem(size types.DealSize) string {
	switch {
	case size.Size == "":
		return "size code is required"
	case size.DiscountPrice.IsNegative() || size.OriginalCost.IsNegative():
		return "prices must be non-negative"
	case size.DiscountPrice.GreaterThan(size.OriginalCost):
		return "discount price exceeds original cost"
	}
	prevQty := 0
	prevPrice := size.DiscountPrice
	for i, tier := range size.DiscountTiers {
		if tier.TierQuantity <= 0 {
			return fmt.Sprintf("tier %d quantity must be positive", i)
		}
		if tier.TierQuantity <= prevQty {
			return fmt.Sprintf("tier %d quantity must be greater than %d", i, prevQty)
		}
		if tier.TierDiscount.IsNegative() {
			return fmt.Sprintf("tier %d price must be non-negative", i)
		}
		if tier.TierDiscount.GreaterThan(prevPrice) {
			return fmt.Sprintf("tier %d price must not exceed %s", i, prevPrice.StringFixed(2))
		}
		prevQty = tier.TierQuantity
		prevPrice = tier.TierDiscount
	}
	return ""
}

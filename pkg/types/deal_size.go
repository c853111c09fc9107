package types

import "github.com/shopspring/decimal"

// DiscountTier lowers the per-unit price once a line reaches TierQuantity units.
type DiscountTier struct {
	TierQuantity int             `json:"tierQuantity"`
	TierDiscount decimal.Decimal `json:"tierDiscount"`
}

// DealSize is one purchasable size on a deal with its volume pricing.
type DealSize struct {
	Size           string          `json:"size"`
	Name           string          `json:"name"`
	OriginalCost   decimal.Decimal `json:"originalCost"`
	DiscountPrice  decimal.Decimal `json:"discountPrice"`
	BottlesPerCase int             `json:"bottlesPerCase,omitempty"`
	DiscountTiers  []DiscountTier  `json:"discountTiers,omitempty"`
}

// DealSizes is stored as a JSON column on deals.
type DealSizes []DealSize

// Find returns the size matching the provided code.
func (d DealSizes) Find(size string) (DealSize, bool) {
	for _, candidate := range d {
		if candidate.Size == size {
			return candidate, true
		}
	}
	return DealSize{}, false
}

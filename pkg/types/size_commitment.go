package types

import "github.com/shopspring/decimal"

// SizeCommitment is one size line on a member commitment.
type SizeCommitment struct {
	Size                string          `json:"size"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	PricePerUnit        decimal.Decimal `json:"pricePerUnit"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	AppliedDiscountTier *DiscountTier   `json:"appliedDiscountTier,omitempty"`
}

// SizeCommitments is stored as a JSON column on commitments.
type SizeCommitments []SizeCommitment

// Quantity sums the line quantities.
func (s SizeCommitments) Quantity() int {
	total := 0
	for _, line := range s {
		total += line.Quantity
	}
	return total
}

// Total sums the line totals.
func (s SizeCommitments) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s {
		total = total.Add(line.TotalPrice)
	}
	return total
}

// CommitmentDetails is the point-in-time value captured with a status change.
type CommitmentDetails struct {
	SizeCommitments SizeCommitments `json:"sizeCommitments,omitempty"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Quantity        int             `json:"quantity"`
}

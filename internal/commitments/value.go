package commitments

import (
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Value is the quantity and price a commitment counts for. It is either Sized
// (per-size lines) or Scalar (records that predate size lines).
type Value interface {
	Quantity() int
	Total() decimal.Decimal
	Lines() types.SizeCommitments
	isValue()
}

// Sized is a value made of size lines.
type Sized struct {
	SizeLines types.SizeCommitments
}

func (s Sized) Quantity() int                { return s.SizeLines.Quantity() }
func (s Sized) Total() decimal.Decimal       { return s.SizeLines.Total() }
func (s Sized) Lines() types.SizeCommitments { return s.SizeLines }
func (Sized) isValue()                       {}

// Scalar is a single quantity at a single unit price. StoredTotal wins when set.
type Scalar struct {
	Qty          int
	PricePerUnit decimal.Decimal
	StoredTotal  decimal.Decimal
}

func (s Scalar) Quantity() int { return s.Qty }

func (s Scalar) Total() decimal.Decimal {
	if !s.StoredTotal.IsZero() {
		return s.StoredTotal
	}
	return s.PricePerUnit.Mul(decimal.NewFromInt(int64(s.Qty)))
}

func (Scalar) Lines() types.SizeCommitments { return nil }
func (Scalar) isValue()                     {}

// EffectiveValue resolves what a commitment counts for: distributor-modified
// lines first, then the submitted lines, then the legacy scalar fields.
func EffectiveValue(c models.Commitment) Value {
	if len(c.ModifiedSizeCommitments) > 0 {
		return Sized{SizeLines: c.ModifiedSizeCommitments}
	}
	if len(c.SizeCommitments) > 0 {
		return Sized{SizeLines: c.SizeCommitments}
	}
	return Scalar{Qty: c.Quantity, PricePerUnit: c.PricePerUnit, StoredTotal: c.TotalPrice}
}

// EffectiveTotalPrice is the modified total when the distributor set one,
// otherwise the effective value's total.
func EffectiveTotalPrice(c models.Commitment) decimal.Decimal {
	if c.ModifiedTotalPrice.Valid {
		return c.ModifiedTotalPrice.Decimal
	}
	return EffectiveValue(c).Total()
}

// Snapshot captures the effective value for an audit row.
func Snapshot(c models.Commitment) types.CommitmentDetails {
	v := EffectiveValue(c)
	return types.CommitmentDetails{
		SizeCommitments: append(types.SizeCommitments(nil), v.Lines()...),
		TotalPrice:      EffectiveTotalPrice(c),
		Quantity:        v.Quantity(),
	}
}

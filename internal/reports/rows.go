package reports

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/groupbuy-backend/internal/commitments"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row is one commitment flattened for a report.
type Row struct {
	Member    string
	Email     string
	Status    string
	Sizes     string
	Quantity  int
	Total     decimal.Decimal
	Modified  bool
	Response  string
	Submitted string
}

// Sheet is a deal's commitments ready for rendering.
type Sheet struct {
	DealName      string
	DealStatus    string
	BulkStatus    string
	Rows          []Row
	ApprovedUnits int
	ApprovedValue decimal.Decimal
}

// BuildSheet flattens commitments using the value the distributor agreed to
// when one exists.
func BuildSheet(deal *models.Deal, list []models.Commitment, members map[uuid.UUID]models.User) Sheet {
	sheet := Sheet{
		DealName:      deal.Name,
		DealStatus:    deal.Status.String(),
		ApprovedValue: decimal.Zero,
		Rows:          make([]Row, 0, len(list)),
	}
	if deal.BulkStatus != nil {
		sheet.BulkStatus = deal.BulkStatus.String()
	}
	totals := commitments.RecomputeTotals(list)
	sheet.ApprovedUnits = totals.TotalSold
	sheet.ApprovedValue = totals.TotalRevenue

	for _, c := range list {
		value := commitments.EffectiveValue(c)
		row := Row{
			Status:    c.Status.String(),
			Sizes:     describeLines(value),
			Quantity:  value.Quantity(),
			Total:     commitments.EffectiveTotalPrice(c),
			Modified:  c.ModifiedByDistributor,
			Submitted: c.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		if member, ok := members[c.UserID]; ok {
			row.Member = member.DisplayName()
			row.Email = member.Email
		} else {
			row.Member = c.UserID.String()
		}
		if c.DistributorResponse != nil {
			row.Response = *c.DistributorResponse
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func describeLines(value commitments.Value) string {
	lines := value.Lines()
	if len(lines) == 0 {
		return ""
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s x%d", line.Size, line.Quantity))
	}
	return strings.Join(parts, ", ")
}

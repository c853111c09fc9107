package digest

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one decided commitment inside a member's daily summary.
type Line struct {
	DealName        string
	DistributorName string
	Quantity        int
	Total           decimal.Decimal
	Response        string
}

// Summary is everything a member is told about one reporting day.
type Summary struct {
	RecipientName      string
	Day                string
	Approved           []Line
	Declined           []Line
	TotalApprovedValue decimal.Decimal
	TotalDeclinedValue decimal.Decimal
	ChangeIDs          []uuid.UUID
}

// BuildSummary partitions a member's status changes into approved and
// declined lines and totals each side from the snapshotted prices.
func BuildSummary(recipient string, day string, changes []models.CommitmentStatusChange) Summary {
	summary := Summary{
		RecipientName:      recipient,
		Day:                day,
		TotalApprovedValue: decimal.Zero,
		TotalDeclinedValue: decimal.Zero,
		ChangeIDs:          make([]uuid.UUID, 0, len(changes)),
	}
	for _, change := range changes {
		summary.ChangeIDs = append(summary.ChangeIDs, change.ID)
		line := Line{
			DealName:        change.DealName,
			DistributorName: change.DistributorName,
			Quantity:        change.CommitmentDetails.Quantity,
			Total:           change.CommitmentDetails.TotalPrice,
		}
		if change.DistributorResponse != nil {
			line.Response = *change.DistributorResponse
		}
		switch change.NewStatus {
		case enums.CommitmentStatusApproved:
			summary.Approved = append(summary.Approved, line)
			summary.TotalApprovedValue = summary.TotalApprovedValue.Add(line.Total)
		case enums.CommitmentStatusDeclined:
			summary.Declined = append(summary.Declined, line)
			summary.TotalDeclinedValue = summary.TotalDeclinedValue.Add(line.Total)
		}
	}
	return summary
}

var summaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<p>Hi {{.RecipientName}},</p>
<p>Here is what changed on your commitments on {{.Day}}.</p>
{{if .Approved}}
<h3>Approved</h3>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><th align="left">Deal</th><th align="left">Distributor</th><th align="right">Qty</th><th align="right">Total</th><th align="left">Note</th></tr>
{{range .Approved}}<tr><td>{{.DealName}}</td><td>{{.DistributorName}}</td><td align="right">{{.Quantity}}</td><td align="right">{{money .Total}}</td><td>{{.Response}}</td></tr>
{{end}}</table>
<p><strong>Total approved: {{money .TotalApprovedValue}}</strong></p>
{{end}}
{{if .Declined}}
<h3>Declined</h3>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><th align="left">Deal</th><th align="left">Distributor</th><th align="right">Qty</th><th align="right">Total</th><th align="left">Note</th></tr>
{{range .Declined}}<tr><td>{{.DealName}}</td><td>{{.DistributorName}}</td><td align="right">{{.Quantity}}</td><td align="right">{{money .Total}}</td><td>{{.Response}}</td></tr>
{{end}}</table>
<p><strong>Total declined: {{money .TotalDeclinedValue}}</strong></p>
{{end}}
</body>
</html>
`))

// Render produces the HTML body for a summary.
func Render(summary Summary) (string, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

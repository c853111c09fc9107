package reports

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// DealSummaryPDF renders a printable summary of the deal's commitments.
func DealSummaryPDF(sheet Sheet) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, sheet.DealName, props.Text{Size: 18, Style: fontstyle.Bold}),
	)
	status := "Status: " + sheet.DealStatus
	if sheet.BulkStatus != "" {
		status += " / decision: " + sheet.BulkStatus
	}
	m.AddRow(10,
		text.NewCol(12, status, props.Text{Size: 10}),
	)

	m.AddRow(10,
		text.NewCol(4, "Member", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Sizes", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, row := range sheet.Rows {
		m.AddRow(8,
			text.NewCol(4, row.Member, props.Text{Size: 9}),
			text.NewCol(2, row.Status, props.Text{Size: 9}),
			text.NewCol(3, row.Sizes, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", row.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, "$"+row.Total.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Approved units", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, fmt.Sprintf("%d", sheet.ApprovedUnits), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Approved revenue", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, "$"+sheet.ApprovedValue.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Commitments"

var sheetHeaders = []string{"Member", "Email", "Status", "Sizes", "Quantity", "Total", "Modified", "Response", "Submitted"}

// CommitmentSheetXLSX renders the sheet as a single-tab workbook with a
// trailing approved-totals row.
func CommitmentSheetXLSX(sheet Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range sheetHeaders {
		if err := f.SetCellValue(sheetName, cell(i, 1), h); err != nil {
			return nil, err
		}
	}

	for r, row := range sheet.Rows {
		line := r + 2
		values := []any{
			row.Member,
			row.Email,
			row.Status,
			row.Sizes,
			row.Quantity,
			row.Total.InexactFloat64(),
			row.Modified,
			row.Response,
			row.Submitted,
		}
		for c, v := range values {
			if err := f.SetCellValue(sheetName, cell(c, line), v); err != nil {
				return nil, err
			}
		}
	}

	totalLine := len(sheet.Rows) + 3
	if err := f.SetCellValue(sheetName, cell(3, totalLine), "Approved total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, cell(4, totalLine), sheet.ApprovedUnits); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, cell(5, totalLine), sheet.ApprovedValue.InexactFloat64()); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

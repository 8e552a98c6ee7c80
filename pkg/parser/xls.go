package parser

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// readXLS returns the cells of the first sheet. Numbers come back as plain
// decimals, cells in user-defined date formats as RFC 3339 timestamps and
// cells in built-in date formats as "2006.01", which the date parser rejects.
func (p *Parser) readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), p.charset)
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}
	if workbook == nil || workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no sheet found in workbook")
	}

	sheet := workbook.GetSheet(0)
	// ReadAllCells skips a sheet whose last row is 0, i.e. header only.
	if sheet.MaxRow == 0 {
		return nil, nil
	}

	// Bounded to the first sheet's rows so later sheets are never read.
	rows := workbook.ReadAllCells(int(sheet.MaxRow) + 1)
	p.logger.Debug("read xls sheet", "name", sheet.Name, "rows", len(rows))
	return rows, nil
}

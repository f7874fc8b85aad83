package importer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ImportExcel parses a workbook, stages every edit from the table's
// worksheet, commits, and returns the number of rows modified.
func (im *Importer) ImportExcel(ctx context.Context, data []byte) (int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("import excel: %w", err)
	}
	defer f.Close()

	sheet := im.def.Worksheet
	if sheet == "" {
		sheet = "Sheet1"
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("import excel: sheet %q: %w", sheet, err)
	}

	banner := len(im.def.InfoRows)
	var keyIdx map[string]int

	for rowNum, record := range rows {
		if rowNum < banner {
			continue
		}
		if rowNum == banner {
			keyIdx = im.resolveHeaders(record)
			continue
		}
		if err := im.stageRow(record, keyIdx); err != nil {
			return 0, fmt.Errorf("import excel: row %d: %w", rowNum+1, err)
		}
	}

	return im.staging.Commit(ctx)
}

package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/RoundTrip/internal/core"
)

// WriteExcel writes the banner rows, display headers and data rows into
// a workbook with the table's worksheet name. The id column is hidden
// from the human editor and a table region is declared over the header
// and data cells so the importer can round-trip against it.
func (e *Exporter) WriteExcel(rows []core.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.def.Worksheet
	if sheet == "" {
		sheet = "Sheet1"
	} else if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export excel: %w", err)
	}

	if err := f.SetColVisible(sheet, "A", false); err != nil {
		return nil, fmt.Errorf("export excel: %w", err)
	}

	cur := 1
	for _, info := range e.def.InfoRows {
		for col, value := range info {
			if err := writeCell(f, sheet, col+1, cur, value); err != nil {
				return nil, err
			}
		}
		cur++
	}

	headers := e.def.AllDisplayHeaders()
	headerRow := cur
	for col, h := range headers {
		if err := writeCell(f, sheet, col+1, cur, h); err != nil {
			return nil, err
		}
	}
	cur++

	keys := e.def.AllColumnKeys()
	for _, row := range rows {
		for col, key := range keys {
			if err := writeCell(f, sheet, col+1, cur, e.cellValue(row, key)); err != nil {
				return nil, err
			}
		}
		cur++
	}

	// Declare the data region so spreadsheet tools treat headers plus
	// data as one table. An empty export stays a plain sheet.
	if len(rows) > 0 {
		start, _ := excelize.CoordinatesToCellName(1, headerRow)
		end, _ := excelize.CoordinatesToCellName(len(headers), headerRow+len(rows))
		if err := f.AddTable(sheet, &excelize.Table{
			Range: start + ":" + end,
		}); err != nil {
			return nil, fmt.Errorf("export excel: add table: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export excel: %w", err)
	}
	return buf.Bytes(), nil
}

// writeCell writes one value with its native cell type, falling back to
// the generic writer for anything unrecognized.
func writeCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("export excel: %w", err)
	}

	switch v := value.(type) {
	case nil:
		return nil
	case string:
		err = f.SetCellStr(sheet, cell, v)
	case int:
		err = f.SetCellInt(sheet, cell, int64(v))
	case int64:
		err = f.SetCellInt(sheet, cell, v)
	case float64:
		err = f.SetCellFloat(sheet, cell, v, -1, 64)
	case bool:
		err = f.SetCellBool(sheet, cell, v)
	case time.Time:
		err = f.SetCellValue(sheet, cell, v)
	default:
		err = f.SetCellValue(sheet, cell, v)
	}
	if err != nil {
		return fmt.Errorf("export excel: cell %s: %w", cell, err)
	}
	return nil
}

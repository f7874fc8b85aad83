// Package export serializes store rows to spreadsheet files. Two
// serializations are provided: delimited text (CSV) and an Excel
// workbook. Both write the table's banner rows, then the display
// headers (modifiable columns suffixed with the marker), then one row
// per record.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/JonMunkholm/RoundTrip/internal/core"
)

// ErrorCell is written in place of a value whose extraction failed, so
// a bad extractor never aborts an export.
const ErrorCell = "ERROR"

// Exporter converts rows of one table definition into file bytes.
type Exporter struct {
	def core.TableDefinition
}

// New returns an exporter for the given table definition.
func New(def core.TableDefinition) *Exporter {
	return &Exporter{def: def}
}

// cellValue produces the export value for one column of a row. The
// reserved pseudo-columns export blank; extraction failures export the
// ErrorCell marker.
func (e *Exporter) cellValue(row core.Row, key string) any {
	if key == core.ColumnDeleteTag || key == core.ColumnCopyTag {
		return nil
	}
	v, err := e.def.Extract(row, key)
	if err != nil {
		return ErrorCell
	}
	return v
}

// WriteCSV writes the banner rows, display headers and data rows as
// delimited text.
func (e *Exporter) WriteCSV(w io.Writer, rows []core.Row) error {
	cw := csv.NewWriter(w)

	for _, info := range e.def.InfoRows {
		if err := cw.Write(info); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}

	if err := cw.Write(e.def.AllDisplayHeaders()); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	keys := e.def.AllColumnKeys()
	for _, row := range rows {
		record := make([]string, len(keys))
		for i, key := range keys {
			record[i] = formatCell(e.cellValue(row, key))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatCell renders a cell value as text for delimited output.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprint(val)
	}
}

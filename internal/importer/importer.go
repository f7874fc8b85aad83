// Package importer parses edited spreadsheet files back into the
// staging engine. Both parsers skip the table's banner rows, resolve
// source headers to column keys (unknown headers are ignored), route
// cell values through the table definition into a staging buffer, and
// commit.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/RoundTrip/internal/core"
)

// markerColumns are checked before any other cell on a data row; a
// marked row stages its marker action and skips the rest of the row.
var markerColumns = []string{core.ColumnDeleteTag, core.ColumnCopyTag}

// Importer parses one uploaded file against a table definition and
// stages its edits.
type Importer struct {
	def     core.TableDefinition
	staging *core.Staging
}

// New returns an importer with a fresh staging buffer resolving stores
// through the given resolver.
func New(def core.TableDefinition, stores core.StoreResolver) *Importer {
	return &Importer{def: def, staging: core.NewStaging(stores)}
}

// Staging exposes the underlying buffer, mainly so callers can
// configure exemptions before importing.
func (im *Importer) Staging() *core.Staging {
	return im.staging
}

// ImportCSV parses delimited text, stages every edit, commits, and
// returns the number of rows modified.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	banner := len(im.def.InfoRows)
	var keyIdx map[string]int

	for rowNum := 0; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("import csv: row %d: %w", rowNum+1, err)
		}

		if rowNum < banner {
			continue
		}
		if rowNum == banner {
			keyIdx = im.resolveHeaders(record)
			continue
		}
		if err := im.stageRow(record, keyIdx); err != nil {
			return 0, fmt.Errorf("import csv: row %d: %w", rowNum+1, err)
		}
	}

	return im.staging.Commit(ctx)
}

// resolveHeaders maps internal column keys to their position in the
// source header row. Headers that do not resolve against the table
// definition are ignored, so extra spreadsheet columns are harmless.
func (im *Importer) resolveHeaders(record []string) map[string]int {
	keyIdx := make(map[string]int, len(record))
	for idx, header := range record {
		key, err := im.def.ColumnKeyFromHeader(core.CleanCell(header))
		if err != nil {
			slog.Debug("ignoring unknown header",
				"table", im.def.Name, "header", header)
			continue
		}
		keyIdx[key] = idx
	}
	return keyIdx
}

// stageRow stages one data row. Marker columns are checked first: a row
// carrying the delete mark stages only its marker action. Otherwise the
// row id comes from the id cell and every other resolved column routes
// through the table definition's insert path.
func (im *Importer) stageRow(record []string, keyIdx map[string]int) error {
	for _, marker := range markerColumns {
		idx, ok := keyIdx[marker]
		if !ok || idx >= len(record) {
			continue
		}
		if !strings.Contains(strings.ToUpper(record[idx]), core.DeleteMark) {
			continue
		}
		id, err := im.rowID(record, keyIdx)
		if err != nil {
			return err
		}
		// The marker column's own cell value rides along so a copy
		// marker can carry its destination.
		return im.def.Insert(im.staging, id, marker, core.CleanCell(record[idx]))
	}

	id, err := im.rowID(record, keyIdx)
	if err != nil {
		return err
	}

	for _, key := range im.def.AllColumnKeys() {
		switch key {
		case core.ColumnID, core.ColumnDeleteTag, core.ColumnCopyTag:
			continue
		}
		idx, ok := keyIdx[key]
		if !ok || idx >= len(record) {
			continue
		}
		if err := im.def.Insert(im.staging, id, key, core.CleanCell(record[idx])); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
	}
	return nil
}

// rowID extracts the row identity from the id cell.
func (im *Importer) rowID(record []string, keyIdx map[string]int) (core.RowID, error) {
	idx, ok := keyIdx[core.ColumnID]
	if !ok {
		return 0, fmt.Errorf("no id column in file")
	}
	if idx >= len(record) {
		return 0, fmt.Errorf("row has no id cell")
	}
	return core.ParseRowID(record[idx])
}

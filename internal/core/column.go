package core

import (
	"fmt"
	"strings"
)

// ExtractFunc produces the export value for one column of a row.
type ExtractFunc func(row Row) (any, error)

// InsertFunc stages an imported cell value for one column of a row.
type InsertFunc func(st *Staging, id RowID, value any) error

// Column describes one table column: its display header, an optional
// extraction function and an optional insertion function. A Column with
// an insertion function is user-modifiable and its display header is
// suffixed with the modifiable marker on export.
type Column struct {
	Header  string
	Extract ExtractFunc
	Insert  InsertFunc
}

// Modifiable reports whether this column can be edited through the
// import path.
func (c Column) Modifiable() bool {
	return c.Insert != nil
}

// ColumnSpec binds an internal column key to its Column definition.
type ColumnSpec struct {
	Key    string
	Column Column
}

// TableDefinition is a named, ordered set of column definitions for one
// entity type. Column order is display order. Definitions are values;
// construct them once and register them.
type TableDefinition struct {
	// Name is the unique adapter key, e.g. "students".
	Name string

	// Entity is the staging-buffer key and store-resolution key.
	Entity EntityType

	// Worksheet is the Excel sheet name used for export and import.
	Worksheet string

	// InfoRows is static banner content written above the header row on
	// export and skipped on import.
	InfoRows [][]string

	// Columns in display order.
	Columns []ColumnSpec
}

// Validate checks the definition invariants: a name, an entity, at
// least one column, and headers that stay unambiguous after the
// modifiable marker is stripped.
func (d TableDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("table definition has no name")
	}
	if d.Entity == "" {
		return fmt.Errorf("table %q has no entity type", d.Name)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", d.Name)
	}

	seenKeys := make(map[string]bool, len(d.Columns))
	seenHeaders := make(map[string]bool, len(d.Columns))
	for _, spec := range d.Columns {
		if spec.Key == "" {
			return fmt.Errorf("table %q has a column with an empty key", d.Name)
		}
		if seenKeys[spec.Key] {
			return fmt.Errorf("table %q: duplicate column key %q", d.Name, spec.Key)
		}
		seenKeys[spec.Key] = true

		header := strings.TrimSuffix(spec.Column.Header, ModifiableMarker)
		if header == "" {
			return fmt.Errorf("table %q: column %q has an empty header", d.Name, spec.Key)
		}
		if seenHeaders[header] {
			return fmt.Errorf("table %q: ambiguous header %q", d.Name, header)
		}
		seenHeaders[header] = true
	}

	return nil
}

// AllHeaders returns the header strings in definition order.
func (d TableDefinition) AllHeaders() []string {
	headers := make([]string, len(d.Columns))
	for i, spec := range d.Columns {
		headers[i] = spec.Column.Header
	}
	return headers
}

// AllDisplayHeaders returns the headers in definition order with the
// modifiable marker appended to every column that has an insertion
// function, signaling which columns are safe to edit.
func (d TableDefinition) AllDisplayHeaders() []string {
	headers := make([]string, len(d.Columns))
	for i, spec := range d.Columns {
		if spec.Column.Modifiable() {
			headers[i] = spec.Column.Header + ModifiableMarker
		} else {
			headers[i] = spec.Column.Header
		}
	}
	return headers
}

// AllColumnKeys returns the internal column keys in definition order.
func (d TableDefinition) AllColumnKeys() []string {
	keys := make([]string, len(d.Columns))
	for i, spec := range d.Columns {
		keys[i] = spec.Key
	}
	return keys
}

// ColumnKeyFromHeader resolves a source header to its internal column
// key. A single trailing modifiable marker is stripped before matching.
// Matching is exact; an unknown header returns ErrHeaderUnknown.
func (d TableDefinition) ColumnKeyFromHeader(header string) (string, error) {
	header = strings.TrimSuffix(header, ModifiableMarker)
	for _, spec := range d.Columns {
		if spec.Column.Header == header {
			return spec.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrHeaderUnknown, header)
}

// HeaderFromColumnKey returns the display header for an internal key.
func (d TableDefinition) HeaderFromColumnKey(key string) (string, error) {
	col, ok := d.column(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrColumnUnknown, key)
	}
	return col.Header, nil
}

// Extract produces the value of a column from a live row. Columns
// without an extraction function fall back to a generic attribute read
// of the key off the row.
func (d TableDefinition) Extract(row Row, key string) (any, error) {
	col, ok := d.column(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnUnknown, key)
	}
	if col.Extract != nil {
		return col.Extract(row)
	}
	return row.Get(key), nil
}

// Insert routes an imported cell value into the staging buffer via the
// column's insertion function. Only modifiable columns are routed, with
// the exception of the two reserved pseudo-columns (delete_tag and
// copy_tag) which always route when they carry an insertion function.
// Any other key is a no-op.
func (d TableDefinition) Insert(st *Staging, id RowID, key string, value any) error {
	col, ok := d.column(key)
	if !ok {
		return nil
	}
	if col.Insert == nil {
		return nil
	}
	if col.Modifiable() || key == ColumnDeleteTag || key == ColumnCopyTag {
		return col.Insert(st, id, value)
	}
	return nil
}

func (d TableDefinition) column(key string) (Column, bool) {
	for _, spec := range d.Columns {
		if spec.Key == key {
			return spec.Column, true
		}
	}
	return Column{}, false
}

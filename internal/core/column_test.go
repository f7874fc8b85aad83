package core

import (
	"errors"
	"fmt"
	"testing"
)

func testDefinition() TableDefinition {
	return TableDefinition{
		Name:      "widgets",
		Entity:    entityWidget,
		Worksheet: "Widgets",
		Columns: []ColumnSpec{
			{Key: ColumnID, Column: Column{Header: "DBID"}},
			{Key: "name", Column: Column{
				Header: "Name",
				Insert: func(st *Staging, id RowID, value any) error {
					st.Add(entityWidget, id, map[string]any{"name": value})
					return nil
				},
			}},
			{Key: "size", Column: Column{
				Header: "Size",
				Extract: func(row Row) (any, error) {
					v, ok := row.Get("size").(int64)
					if !ok {
						return nil, fmt.Errorf("size is not an integer")
					}
					return v * 2, nil
				},
			}},
			{Key: ColumnDeleteTag, Column: Column{
				Header: "Delete",
				Insert: func(st *Staging, id RowID, value any) error {
					st.Delete(entityWidget, id)
					return nil
				},
			}},
		},
	}
}

func TestTableDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TableDefinition)
		wantErr bool
	}{
		{"valid", func(d *TableDefinition) {}, false},
		{"empty name", func(d *TableDefinition) { d.Name = "" }, true},
		{"empty entity", func(d *TableDefinition) { d.Entity = "" }, true},
		{"no columns", func(d *TableDefinition) { d.Columns = nil }, true},
		{"empty key", func(d *TableDefinition) { d.Columns[0].Key = "" }, true},
		{"duplicate key", func(d *TableDefinition) { d.Columns[1].Key = ColumnID }, true},
		{"ambiguous header after marker strip", func(d *TableDefinition) {
			d.Columns[1].Column.Header = "DBID" + ModifiableMarker
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			tt.mutate(&def)
			err := def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllDisplayHeaders_MarksModifiableOnly(t *testing.T) {
	def := testDefinition()

	got := def.AllDisplayHeaders()
	want := []string{"DBID", "Name*", "Size", "Delete*"}

	if len(got) != len(want) {
		t.Fatalf("AllDisplayHeaders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestColumnKeyFromHeader(t *testing.T) {
	def := testDefinition()

	tests := []struct {
		header string
		want   string
	}{
		{"DBID", ColumnID},
		{"Name", "name"},
		{"Name*", "name"}, // marker stripped
		{"Delete*", ColumnDeleteTag},
	}
	for _, tt := range tests {
		got, err := def.ColumnKeyFromHeader(tt.header)
		if err != nil {
			t.Errorf("ColumnKeyFromHeader(%q) error = %v", tt.header, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ColumnKeyFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}

	_, err := def.ColumnKeyFromHeader("Nope")
	if !errors.Is(err, ErrHeaderUnknown) {
		t.Errorf("unknown header error = %v, want ErrHeaderUnknown", err)
	}
}

func TestHeaderFromColumnKey(t *testing.T) {
	def := testDefinition()

	got, err := def.HeaderFromColumnKey("name")
	if err != nil || got != "Name" {
		t.Errorf("HeaderFromColumnKey(name) = %q, %v; want Name, nil", got, err)
	}

	_, err = def.HeaderFromColumnKey("nope")
	if !errors.Is(err, ErrColumnUnknown) {
		t.Errorf("unknown key error = %v, want ErrColumnUnknown", err)
	}
}

func TestExtract(t *testing.T) {
	def := testDefinition()
	row := &fakeRow{id: 1, vals: map[string]any{"name": "a", "size": int64(5)}}

	// Generic attribute read when the column has no extractor.
	got, err := def.Extract(row, "name")
	if err != nil || got != "a" {
		t.Errorf("Extract(name) = %v, %v; want a, nil", got, err)
	}

	// Extractor takes over when present.
	got, err = def.Extract(row, "size")
	if err != nil || got != int64(10) {
		t.Errorf("Extract(size) = %v, %v; want 10, nil", got, err)
	}

	// Extractor failure propagates.
	bad := &fakeRow{id: 2, vals: map[string]any{"size": "not a number"}}
	if _, err := def.Extract(bad, "size"); err == nil {
		t.Error("Extract() with failing extractor returned nil error")
	}

	if _, err := def.Extract(row, "nope"); !errors.Is(err, ErrColumnUnknown) {
		t.Errorf("Extract(unknown) error = %v, want ErrColumnUnknown", err)
	}
}

func TestInsert_Routing(t *testing.T) {
	def := testDefinition()
	st := NewStaging(fakeResolver{})

	// Modifiable column stages its value.
	if err := def.Insert(st, 1, "name", "edited"); err != nil {
		t.Fatalf("Insert(name) error = %v", err)
	}
	if got := st.updates[entityWidget][0].cols["name"]; got != "edited" {
		t.Errorf("staged name = %v, want edited", got)
	}

	// Reserved pseudo-column routes through its inserter.
	if err := def.Insert(st, 2, ColumnDeleteTag, DeleteMark); err != nil {
		t.Fatalf("Insert(delete_tag) error = %v", err)
	}
	if got := st.updates[entityWidget][1].cols[ColumnDeleteTag]; got != DeleteMark {
		t.Errorf("staged delete tag = %v, want %q", got, DeleteMark)
	}

	// Columns without an inserter and unknown keys are silent no-ops.
	if err := def.Insert(st, 3, "size", int64(4)); err != nil {
		t.Errorf("Insert(size) error = %v, want nil no-op", err)
	}
	if err := def.Insert(st, 3, "nope", "x"); err != nil {
		t.Errorf("Insert(unknown) error = %v, want nil no-op", err)
	}
	if len(st.updates[entityWidget]) != 2 {
		t.Errorf("pending entries = %d, want 2 (no-ops staged nothing)", len(st.updates[entityWidget]))
	}
}

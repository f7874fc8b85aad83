package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/RoundTrip/internal/core"
	"github.com/JonMunkholm/RoundTrip/internal/export"
	"github.com/JonMunkholm/RoundTrip/internal/store"
)

const entityPerson = core.EntityType("person")

func personDefinition() core.TableDefinition {
	return core.TableDefinition{
		Name:      "people",
		Entity:    entityPerson,
		Worksheet: "People",
		InfoRows: [][]string{
			{"People export"},
		},
		Columns: []core.ColumnSpec{
			{Key: core.ColumnID, Column: core.Column{Header: "DBID"}},
			{Key: "first_name", Column: core.Column{
				Header: "First Name",
				Insert: func(st *core.Staging, id core.RowID, value any) error {
					st.Add(entityPerson, id, map[string]any{"first_name": value})
					return nil
				},
			}},
			{Key: "last_name", Column: core.Column{Header: "Last Name"}},
			{Key: core.ColumnDeleteTag, Column: core.Column{
				Header: "Delete",
				Insert: func(st *core.Staging, id core.RowID, value any) error {
					st.Delete(entityPerson, id)
					return nil
				},
			}},
		},
	}
}

func seededStores(t *testing.T) (*store.Memory, *store.Set) {
	t.Helper()
	mem := store.NewMemory()
	mem.Seed(store.NewRecord(1, map[string]any{"first_name": "Alice", "last_name": "Smith"}))
	mem.Seed(store.NewRecord(2, map[string]any{"first_name": "Bob", "last_name": "Jones"}))

	set := store.NewSet()
	set.Bind(entityPerson, mem)
	return mem, set
}

func TestImportCSV_AppliesEdit(t *testing.T) {
	mem, stores := seededStores(t)

	file := strings.Join([]string{
		"People export",
		"DBID,First Name*,Last Name,Delete*",
		"1,Alicia,Smith,",
		"2,Bob,Jones,",
	}, "\n")

	count, err := New(personDefinition(), stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 1 {
		t.Errorf("ImportCSV() = %d, want 1", count)
	}

	row, err := mem.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if got := row.Get("first_name"); got != "Alicia" {
		t.Errorf("first_name = %v, want Alicia", got)
	}
}

func TestImportCSV_DeleteMarkedRow(t *testing.T) {
	mem, stores := seededStores(t)

	file := strings.Join([]string{
		"People export",
		"DBID,First Name*,Last Name,Delete*",
		"1,Alice,Smith,",
		"2,Renamed Anyway,Jones,x",
	}, "\n")

	count, err := New(personDefinition(), stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 1 {
		t.Errorf("ImportCSV() = %d, want 1 (one deletion)", count)
	}

	if mem.Len() != 1 {
		t.Errorf("store rows = %d after delete, want 1", mem.Len())
	}

	// The surviving row keeps its original name; the marked row's other
	// edits were never staged.
	row, err := mem.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if got := row.Get("first_name"); got != "Alice" {
		t.Errorf("first_name = %v, want Alice", got)
	}
}

func TestImportCSV_MarkerCellValuePassedThrough(t *testing.T) {
	_, stores := seededStores(t)

	var copyValues []any
	def := personDefinition()
	def.Columns = append(def.Columns, core.ColumnSpec{
		Key: core.ColumnCopyTag,
		Column: core.Column{
			Header: "Copy To",
			Insert: func(st *core.Staging, id core.RowID, value any) error {
				copyValues = append(copyValues, value)
				return nil
			},
		},
	})

	file := strings.Join([]string{
		"People export",
		"DBID,First Name*,Copy To*",
		"1,Should Not Apply,X:5",
	}, "\n")

	count, err := New(def, stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 0 {
		t.Errorf("ImportCSV() = %d, want 0 (copy inserter staged nothing)", count)
	}

	// The inserter sees the cell's own value, and the marked row's other
	// edits are skipped.
	if len(copyValues) != 1 || copyValues[0] != "X:5" {
		t.Errorf("copy inserter received %v, want [X:5]", copyValues)
	}
}

func TestImportCSV_UnknownHeaderIgnored(t *testing.T) {
	_, stores := seededStores(t)

	file := strings.Join([]string{
		"People export",
		"DBID,First Name*,Mystery Column",
		"1,Alicia,whatever",
	}, "\n")

	count, err := New(personDefinition(), stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 1 {
		t.Errorf("ImportCSV() = %d, want 1", count)
	}
}

func TestImportCSV_NonModifiableColumnNotApplied(t *testing.T) {
	mem, stores := seededStores(t)

	file := strings.Join([]string{
		"People export",
		"DBID,First Name*,Last Name,Delete*",
		"1,Alice,Tampered,",
	}, "\n")

	count, err := New(personDefinition(), stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 0 {
		t.Errorf("ImportCSV() = %d, want 0 (read-only edit dropped)", count)
	}

	row, _ := mem.Get(context.Background(), 1)
	if got := row.Get("last_name"); got != "Smith" {
		t.Errorf("last_name = %v, want Smith", got)
	}
}

func TestImportCSV_MissingRowSkipped(t *testing.T) {
	_, stores := seededStores(t)

	file := strings.Join([]string{
		"People export",
		"DBID,First Name*",
		"99,Ghost",
		"1,Alicia",
	}, "\n")

	count, err := New(personDefinition(), stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 1 {
		t.Errorf("ImportCSV() = %d, want 1 (unknown id skipped)", count)
	}
}

func TestImportCSV_NoIDColumn(t *testing.T) {
	_, stores := seededStores(t)

	file := strings.Join([]string{
		"People export",
		"First Name*",
		"Alicia",
	}, "\n")

	_, err := New(personDefinition(), stores).ImportCSV(context.Background(), strings.NewReader(file))
	if err == nil {
		t.Fatal("ImportCSV() expected error for file without an id column")
	}
}

func TestRoundTripCSV_UnmodifiedIsIdempotent(t *testing.T) {
	_, stores := seededStores(t)
	def := personDefinition()

	st, _ := stores.StoreFor(entityPerson)
	rows, err := st.(core.Lister).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var buf bytes.Buffer
	if err := export.New(def).WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	count, err := New(def, stores).ImportCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if count != 0 {
		t.Errorf("round trip of unmodified export = %d rows modified, want 0", count)
	}
}

func TestRoundTripExcel(t *testing.T) {
	mem, stores := seededStores(t)
	def := personDefinition()

	rows, err := mem.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	data, err := export.New(def).WriteExcel(rows)
	if err != nil {
		t.Fatalf("WriteExcel() error = %v", err)
	}

	// Unmodified workbook commits nothing.
	count, err := New(def, stores).ImportExcel(context.Background(), data)
	if err != nil {
		t.Fatalf("ImportExcel() error = %v", err)
	}
	if count != 0 {
		t.Errorf("unmodified workbook = %d rows modified, want 0", count)
	}

	// Edit one cell and import again.
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	// Banner row, header row, then data: row 3 is id 1, column B is the
	// first name.
	if err := f.SetCellStr("People", "B3", "Alicia"); err != nil {
		t.Fatalf("SetCellStr error = %v", err)
	}
	edited, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatalf("WriteToBuffer error = %v", err)
	}

	count, err = New(def, stores).ImportExcel(context.Background(), edited.Bytes())
	if err != nil {
		t.Fatalf("ImportExcel() error = %v", err)
	}
	if count != 1 {
		t.Errorf("edited workbook = %d rows modified, want 1", count)
	}

	row, _ := mem.Get(context.Background(), 1)
	if got := row.Get("first_name"); got != "Alicia" {
		t.Errorf("first_name = %v, want Alicia", got)
	}
}

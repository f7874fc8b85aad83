package adapters

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/RoundTrip/internal/core"
	"github.com/JonMunkholm/RoundTrip/internal/importer"
	"github.com/JonMunkholm/RoundTrip/internal/store"
)

func studentsDef(t *testing.T) core.TableDefinition {
	t.Helper()
	def, ok := core.Get("students")
	if !ok {
		t.Fatal("students adapter not registered")
	}
	return def
}

func TestStudents_Registered(t *testing.T) {
	def := studentsDef(t)

	if def.Entity != EntityStudent {
		t.Errorf("entity = %v, want %v", def.Entity, EntityStudent)
	}
	if def.Worksheet != "Students" {
		t.Errorf("worksheet = %q, want Students", def.Worksheet)
	}
	if err := def.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestStudents_DisplayHeaders(t *testing.T) {
	def := studentsDef(t)

	want := []string{
		"DBID", "Student Number*", "First Name*", "Last Name*",
		"Join Date", "Overall GPA", "Banned*", "Delete*",
	}
	got := def.AllDisplayHeaders()
	if len(got) != len(want) {
		t.Fatalf("AllDisplayHeaders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseStudentNumber(t *testing.T) {
	tests := []struct {
		in      any
		want    int64
		wantErr bool
	}{
		{"S-123", 123, false},
		{"s-123", 123, false},
		{"123", 123, false},
		{"", 0, false},
		{"S-abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseStudentNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseStudentNumber(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseStudentNumber(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStudents_BanUnenrollsOnCommit(t *testing.T) {
	def := studentsDef(t)

	mem := store.NewMemory()
	mem.Seed(store.NewRecord(1, map[string]any{
		"student_number": int64(123),
		"first_name":     "Alice",
		"last_name":      "Smith",
		"gpa":            3.8,
		"banned":         false,
	}))
	stores := store.NewSet()
	stores.Bind(EntityStudent, mem)

	file := strings.Join([]string{
		"Columns marked with * may be edited and re-imported.",
		"Put an X in the Delete column to remove a row.",
		"DBID,First Name*,Banned*",
		"1,Alice,yes",
	}, "\n")

	count, err := importer.New(def, stores).ImportCSV(context.Background(), strings.NewReader(file))
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
	if got := row.Get("banned"); got != true {
		t.Errorf("banned = %v, want true", got)
	}
	if got := row.Get("gpa"); got != 0.0 {
		t.Errorf("gpa = %v, want 0 after unenroll", got)
	}
}

func TestUnenrollOnCommit_RegistersOnce(t *testing.T) {
	st := core.NewStaging(store.NewSet())

	unenrollOnCommit(st, 1)
	unenrollOnCommit(st, 1)

	if !st.HasHook(core.PreUpdate, 1) {
		t.Fatal("hook not registered")
	}
}

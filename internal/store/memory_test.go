package store

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/RoundTrip/internal/core"
)

func TestMemory_GetNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), 1)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() error = %v, want wrapped core.ErrNotFound", err)
	}
}

func TestMemory_SaveAndGet(t *testing.T) {
	m := NewMemory()

	if err := m.Save(context.Background(), NewRecord(1, map[string]any{"name": "a"})); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	row, err := m.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := row.Get("name"); got != "a" {
		t.Errorf("name = %v, want a", got)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	m.Seed(NewRecord(1, map[string]any{"name": "a"}))

	row, err := m.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	row.Set("name", "mutated")

	again, _ := m.Get(context.Background(), 1)
	if got := again.Get("name"); got != "a" {
		t.Errorf("stored name = %v after unsaved mutation, want a", got)
	}
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory()
	m.Seed(NewRecord(1, map[string]any{"name": "a"}))

	row, _ := m.Get(context.Background(), 1)
	if err := m.Delete(context.Background(), row); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := m.Get(context.Background(), 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want core.ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := m.Delete(context.Background(), row); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestMemory_ListOrderedByID(t *testing.T) {
	m := NewMemory()
	m.Seed(NewRecord(3, map[string]any{"name": "c"}))
	m.Seed(NewRecord(1, map[string]any{"name": "a"}))
	m.Seed(NewRecord(2, map[string]any{"name": "b"}))

	rows, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []core.RowID{1, 2, 3}
	if len(rows) != len(want) {
		t.Fatalf("List() returned %d rows, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if row.ID() != want[i] {
			t.Errorf("rows[%d].ID() = %d, want %d", i, row.ID(), want[i])
		}
	}
}

func TestRecord_GetID(t *testing.T) {
	rec := NewRecord(7, map[string]any{"name": "a"})

	if got := rec.Get(core.ColumnID); got != int64(7) {
		t.Errorf("Get(id) = %v, want 7", got)
	}
}

func TestRecord_ValuesIsCopy(t *testing.T) {
	rec := NewRecord(1, map[string]any{"name": "a"})

	vals := rec.Values()
	vals["name"] = "mutated"

	if got := rec.Get("name"); got != "a" {
		t.Errorf("record name = %v after mutating Values() copy, want a", got)
	}
}

func TestSet_Bind(t *testing.T) {
	set := NewSet()
	mem := NewMemory()

	if _, ok := set.StoreFor("widget"); ok {
		t.Error("StoreFor() = true on empty set")
	}

	set.Bind("widget", mem)

	st, ok := set.StoreFor("widget")
	if !ok || st != core.Store(mem) {
		t.Errorf("StoreFor(widget) = %v, %v; want bound store", st, ok)
	}
}

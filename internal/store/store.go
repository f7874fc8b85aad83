// Package store provides Row and Store implementations for the staging
// engine: a generic record type, an in-memory store, and a
// Postgres-backed store over pgx.
package store

import (
	"github.com/JonMunkholm/RoundTrip/internal/core"
)

// Record is a generic column-keyed row. It satisfies core.Row and is
// the row type both stores hand out.
type Record struct {
	id     core.RowID
	values map[string]any
}

// NewRecord builds a record from a value map. The map is copied.
func NewRecord(id core.RowID, values map[string]any) *Record {
	rec := &Record{id: id, values: make(map[string]any, len(values))}
	for k, v := range values {
		rec.values[k] = v
	}
	return rec
}

// ID returns the record's primary key.
func (r *Record) ID() core.RowID { return r.id }

// Get returns the value of a column, or nil if the record does not
// carry it. The id column always answers with the record's primary
// key, so generic extraction sees it without the key being duplicated
// into the value map.
func (r *Record) Get(column string) any {
	if column == core.ColumnID {
		return int64(r.id)
	}
	return r.values[column]
}

// Set writes a column value onto the record.
func (r *Record) Set(column string, value any) { r.values[column] = value }

// Values returns a copy of the record's column values.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// clone returns an independent copy of the record so mutations on a
// loaded row do not leak into the store before Save.
func (r *Record) clone() *Record {
	return NewRecord(r.id, r.values)
}

// Set maps entity types to their stores. It satisfies
// core.StoreResolver.
type Set struct {
	stores map[core.EntityType]core.Store
}

// NewSet returns an empty store set.
func NewSet() *Set {
	return &Set{stores: make(map[core.EntityType]core.Store)}
}

// Bind associates an entity type with a store, replacing any previous
// binding.
func (s *Set) Bind(entity core.EntityType, st core.Store) {
	s.stores[entity] = st
}

// StoreFor returns the store bound to an entity type.
func (s *Set) StoreFor(entity core.EntityType) (core.Store, bool) {
	st, ok := s.stores[entity]
	return st, ok
}

package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// ExemptionMode controls how columns in the exemption set behave during
// commit. The set exists for columns that must never be written
// directly (generated or trigger-maintained columns) while still
// appearing in imported files.
type ExemptionMode int

const (
	// ExemptSkipWrite counts an exempt column as changed but never
	// writes it onto the row.
	ExemptSkipWrite ExemptionMode = iota

	// ExemptSkipCount neither writes the column nor counts it, so a row
	// whose only differing columns are exempt is not persisted.
	ExemptSkipCount
)

// pendingRow is one staged update: a row id plus the column values to
// apply. At most one pendingRow exists per (entity, id).
type pendingRow struct {
	id   RowID
	cols map[string]any
}

// Staging accumulates pending per-row column updates and deletions
// across entity types, runs registered hooks, and commits everything to
// the stores in a single pass. Create one per import operation and
// discard it after Commit.
//
// Staging is not safe for concurrent use.
type Staging struct {
	stores StoreResolver

	entityOrder []EntityType
	updates     map[EntityType][]*pendingRow

	hooks    map[HookPhase]map[RowID][]HookFunc
	hookData map[RowID]HookData

	exempt     map[string]struct{}
	exemptMode ExemptionMode
}

// NewStaging returns an empty staging buffer that resolves stores
// through the given resolver at commit time.
func NewStaging(stores StoreResolver) *Staging {
	return &Staging{
		stores:   stores,
		updates:  make(map[EntityType][]*pendingRow),
		hooks:    make(map[HookPhase]map[RowID][]HookFunc),
		hookData: make(map[RowID]HookData),
		exempt:   make(map[string]struct{}),
	}
}

// Exempt configures the exemption set and its mode. Later calls add to
// the set and overwrite the mode.
func (s *Staging) Exempt(mode ExemptionMode, columns ...string) {
	s.exemptMode = mode
	for _, c := range columns {
		s.exempt[c] = struct{}{}
	}
}

// Add stages column updates for a row. If the row already has a pending
// update the new values merge into it, with later values overwriting
// earlier ones per column key; otherwise a new entry is appended, so
// commit order is first-staged order.
func (s *Staging) Add(entity EntityType, id RowID, cols map[string]any) {
	pr := s.pending(entity, id)
	for key, value := range cols {
		pr.cols[key] = value
	}
}

// Delete stages a deletion for a row. The delete tag merges into an
// existing pending entry for the row if one exists, suppressing that
// entry's other column writes at commit.
func (s *Staging) Delete(entity EntityType, id RowID) {
	s.pending(entity, id).cols[ColumnDeleteTag] = DeleteMark
}

// pending finds the existing update entry for (entity, id) by linear
// scan, or appends a fresh one.
func (s *Staging) pending(entity EntityType, id RowID) *pendingRow {
	if _, ok := s.updates[entity]; !ok {
		s.entityOrder = append(s.entityOrder, entity)
	}
	for _, pr := range s.updates[entity] {
		if pr.id == id {
			return pr
		}
	}
	pr := &pendingRow{id: id, cols: make(map[string]any)}
	s.updates[entity] = append(s.updates[entity], pr)
	return pr
}

// AddHook registers fn to run during Commit for the given phase and row
// id. Hooks for the same phase and row run in registration order. The
// first registration for a row id initializes its hook-data payload.
func (s *Staging) AddHook(phase HookPhase, id RowID, fn HookFunc) {
	if _, ok := s.hooks[phase]; !ok {
		s.hooks[phase] = make(map[RowID][]HookFunc)
	}
	if _, ok := s.hooks[phase][id]; !ok {
		s.hooks[phase][id] = nil
		if _, ok := s.hookData[id]; !ok {
			s.hookData[id] = make(HookData)
		}
	}
	s.hooks[phase][id] = append(s.hooks[phase][id], fn)
}

// HasHook reports whether at least one hook is registered for the phase
// and row id. Callers use it to avoid registering the same hook twice
// within one import.
func (s *Staging) HasHook(phase HookPhase, id RowID) bool {
	rows, ok := s.hooks[phase]
	if !ok {
		return false
	}
	_, ok = rows[id]
	return ok
}

// Commit applies every staged update to the stores in a single pass and
// returns the number of rows modified (deleted rows plus rows with at
// least one changed column).
//
// Per entity type in first-staged order, per pending row in insertion
// order: the live row is loaded; a missing row is skipped silently. A
// pending delete tag runs the pre-delete hooks, deletes the row, runs
// the post-delete hooks and suppresses all other column writes for that
// row. Otherwise each staged value is compared against the row's
// current value and written only when different; if anything changed
// the pre-update hooks run, the row is saved, and the post-update hooks
// run. Any error other than a missing row aborts the remaining commit.
func (s *Staging) Commit(ctx context.Context) (int, error) {
	modified := 0

	for _, entity := range s.entityOrder {
		store, ok := s.stores.StoreFor(entity)
		if !ok {
			return modified, fmt.Errorf("commit: no store for entity %q", entity)
		}

		for _, pr := range s.updates[entity] {
			row, err := store.Get(ctx, pr.id)
			if errors.Is(err, ErrNotFound) {
				slog.Debug("staged row no longer exists, skipping",
					"entity", string(entity), "row_id", int64(pr.id))
				continue
			}
			if err != nil {
				return modified, fmt.Errorf("commit %s/%d: %w", entity, pr.id, err)
			}

			if isDeleteMark(pr.cols[ColumnDeleteTag]) {
				s.runHooks(PreDelete, pr.id, row)
				if err := store.Delete(ctx, row); err != nil {
					return modified, fmt.Errorf("commit delete %s/%d: %w", entity, pr.id, err)
				}
				s.runHooks(PostDelete, pr.id, row)
				modified++
				continue
			}

			changed := 0
			for key, value := range pr.cols {
				if key == ColumnDeleteTag {
					continue
				}
				if valueEqual(row.Get(key), value) {
					continue
				}
				if _, exempt := s.exempt[key]; exempt {
					if s.exemptMode == ExemptSkipWrite {
						changed++
					}
					continue
				}
				row.Set(key, value)
				changed++
			}

			if changed > 0 {
				s.runHooks(PreUpdate, pr.id, row)
				if err := store.Save(ctx, row); err != nil {
					return modified, fmt.Errorf("commit save %s/%d: %w", entity, pr.id, err)
				}
				s.runHooks(PostUpdate, pr.id, row)
				modified++
			}
		}
	}

	return modified, nil
}

// runHooks executes the hooks for one phase and row id in registration
// order, threading the accumulated payload through each and replacing
// it whenever a hook returns a non-nil result.
func (s *Staging) runHooks(phase HookPhase, id RowID, row Row) {
	rows, ok := s.hooks[phase]
	if !ok {
		return
	}
	for _, fn := range rows[id] {
		if result := fn(s.hookData[id], row); result != nil {
			s.hookData[id] = result
		}
	}
}

// isDeleteMark reports whether a staged cell value requests deletion.
func isDeleteMark(v any) bool {
	str, ok := v.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(str), DeleteMark)
}

// valueEqual compares a row's current value with a staged value.
// DeepEqual keeps slices and times comparable without panicking on
// uncomparable types.
func valueEqual(current, staged any) bool {
	return reflect.DeepEqual(current, staged)
}

// Package core provides the staging and commit engine for spreadsheet
// round-trip editing. This package has no transport or file-format
// dependencies and can be driven by any frontend.
package core

import (
	"context"
	"errors"
)

// RowID identifies one persisted record by primary key.
type RowID int64

// EntityType tags which kind of record a pending update targets.
// It is the outer key of the staging buffer and the key used to
// resolve a Store at commit time.
type EntityType string

// Row is one live record loaded from a Store. Column access is by
// internal column key; Get returns nil for columns the row does not
// carry.
type Row interface {
	ID() RowID
	Get(column string) any
	Set(column string, value any)
}

// Store is the persistence capability set the commit loop needs.
// Implementations must return an error wrapping ErrNotFound from Get
// when no row exists for the given id.
type Store interface {
	Get(ctx context.Context, id RowID) (Row, error)
	Save(ctx context.Context, row Row) error
	Delete(ctx context.Context, row Row) error
}

// Lister is an optional Store extension for reading every row of a
// table, used by exporters.
type Lister interface {
	List(ctx context.Context) ([]Row, error)
}

// StoreResolver maps entity types to their stores. A Staging buffer is
// constructed with one and consults it during Commit.
type StoreResolver interface {
	StoreFor(entity EntityType) (Store, bool)
}

// ErrNotFound is returned (wrapped) by Store.Get when a row id does not
// exist. Commit treats it as "skip this pending update".
var ErrNotFound = errors.New("row not found")

// Sentinel errors for table definition lookups.
var (
	ErrHeaderUnknown = errors.New("header is not defined in table")
	ErrColumnUnknown = errors.New("column is not defined in table")
)

// Reserved column keys and markers shared by the definition contract,
// the staging buffer, and the file codecs.
const (
	// ColumnID is the row identity column. It is always present and is
	// never writable through the generic modifiable path.
	ColumnID = "id"

	// ColumnDeleteTag marks a row for deletion when its value is
	// DeleteMark (case-insensitive).
	ColumnDeleteTag = "delete_tag"

	// ColumnCopyTag is a secondary marker column with importer-specific
	// semantics. Like ColumnDeleteTag it bypasses the modifiable check.
	ColumnCopyTag = "copy_tag"

	// DeleteMark is the cell value that requests deletion.
	DeleteMark = "X"

	// ModifiableMarker is appended to display headers of editable
	// columns and stripped during header resolution.
	ModifiableMarker = "*"
)

// HookPhase names a point in the commit lifecycle at which registered
// hooks run.
type HookPhase string

const (
	PreDelete  HookPhase = "precommit_delete"
	PostDelete HookPhase = "postcommit_delete"
	PreUpdate  HookPhase = "precommit_update"
	PostUpdate HookPhase = "postcommit_update"
)

// HookData is the mutable payload threaded through every hook that runs
// for one row id during a commit.
type HookData map[string]any

// HookFunc runs during Commit for a registered phase and row id. It may
// mutate row in place before the row is persisted or deleted. Returning
// a non-nil value replaces the stored payload for the row id; returning
// nil keeps the current payload.
type HookFunc func(data HookData, row Row) HookData

// Package storage defines the abstract, backend-neutral contract the
// execution engine depends on: schema and row access, mutation,
// transactions, indexes, and alter-table primitives. The engine never
// imports a concrete backend directly; glue wires one in by interface.
//
// Two reference backends live alongside this contract: storage/memory (an
// in-process B-tree-ordered store used for tests and embedding without a
// database) and storage/mysqlstore.
package storage

import (
	"context"

	"emberql/schema"
	"emberql/value"
)

// Row is either a structured positional row or a schemaless document; a
// table is always fully one or the other.
type Row struct {
	Values []value.Value     // structured rows
	Doc    *value.Map        // schemaless rows
}

func (r Row) Schemaless() bool { return r.Doc != nil }

// KeyedRow pairs a Row with the Key the store has assigned or resolved it
// under.
type KeyedRow struct {
	Key value.Key
	Row Row
}

// RowStream is the async row-sourcing primitive every scan-like operation
// returns. Next
// returns io.EOF-equivalent via the ok bool rather than a sentinel value,
// so a stream can carry a zero KeyedRow without ambiguity.
type RowStream interface {
	// Next advances the stream. ok is false exactly once, at exhaustion,
	// with err nil on a clean end and non-nil on a stream-level failure.
	Next(ctx context.Context) (row KeyedRow, ok bool, err error)
	// Close releases any backend resource held by the stream; it must be
	// safe to call multiple times and after full consumption.
	Close() error
}

// Store is the read-only capability surface.
type Store interface {
	FetchAllSchemas(ctx context.Context) ([]*schema.Table, error)
	FetchSchema(ctx context.Context, table string) (*schema.Table, bool, error)
	FetchData(ctx context.Context, table string, key value.Key) (Row, bool, error)
	ScanData(ctx context.Context, table string) (RowStream, error)
}

// StoreMut is the write capability surface.
type StoreMut interface {
	InsertSchema(ctx context.Context, t *schema.Table) error
	DeleteSchema(ctx context.Context, table string) error
	// AppendData lets the backend assign keys (rowid tables).
	AppendData(ctx context.Context, table string, rows []Row) ([]value.Key, error)
	// InsertData replaces existing rows by key (used by INSERT with an
	// explicit/derived key, and by UPDATE's write-back).
	InsertData(ctx context.Context, table string, rows []KeyedRow) error
	DeleteData(ctx context.Context, table string, keys []value.Key) error
}

// IndexOp mirrors ast.IndexOp without importing the ast package from
// storage, keeping the contract dependency-light
// "language-neutral".
type IndexOp uint8

const (
	IndexEq IndexOp = iota
	IndexLt
	IndexLtEq
	IndexGt
	IndexGtEq
)

// Index is the read-side indexed-scan capability.
type Index interface {
	ScanIndexedData(ctx context.Context, table, index string, op IndexOp, v value.Value) (RowStream, error)
}

// IndexMut is the write-side index-maintenance capability.
type IndexMut interface {
	CreateIndex(ctx context.Context, table, indexName string, expr func(Row) (value.Value, error)) error
	DropIndex(ctx context.Context, table, indexName string) error
}

// AlterTable is the DDL-mutation capability beyond CREATE/DROP TABLE.
type AlterTable interface {
	RenameSchema(ctx context.Context, oldName, newName string) error
	RenameColumn(ctx context.Context, table, oldName, newName string) error
	AddColumn(ctx context.Context, table string, col schema.Column, defaultValue value.Value) error
	DropColumn(ctx context.Context, table, column string) error
}

// Transaction is the transaction-control capability. Begin returns
// whether the call was a no-op because auto-commit was already active and
// nesting was requested; nested explicit transactions are a contract
// violation the backend must reject, not silently flatten.
type Transaction interface {
	Begin(ctx context.Context, autoCommit bool) (noop bool, err error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Feature is a backend capability flag advertised through Metadata.
type Feature uint8

const (
	FeatureIndex Feature = iota
	FeatureTransaction
	FeatureAlterTable
	FeatureSchemaless
)

// Metadata lets the executor ask a backend what it supports before
// relying on a capability beyond Store/StoreMut.
type Metadata interface {
	Supports(f Feature) bool
}

// Migrator is carried by file/database-backed backends
// a store whose persisted format version is older than current must run
// an idempotent migration step before the store becomes usable.
type Migrator interface {
	// FormatVersion reports the version marker found in the persisted
	// store, or 0 if the store is being created fresh.
	FormatVersion(ctx context.Context) (int, error)
	// Migrate upgrades the persisted store from its current version to
	// CurrentFormatVersion. Running it twice in a row is a no-op the
	// second time (idempotence is the backend's responsibility, not the
	// caller's).
	Migrate(ctx context.Context) error
}

// CurrentFormatVersion is the format-version marker new stores are
// created with; backends bump this and add a Migrate step when the
// on-disk layout changes.
const CurrentFormatVersion = 1

// Backend bundles every capability an orchestrator-facing store exposes.
// Individual packages (plan, exec) depend on the narrower interfaces
// above; Backend is the convenience type glue wires concretely.
type Backend interface {
	Store
	StoreMut
	Transaction
	Metadata
}

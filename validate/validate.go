// Package validate implements the uniqueness and referential-integrity
// checks the execution engine runs during INSERT/UPDATE/DELETE.
// It depends only on the storage.Store read surface and the schema
// registry; the DML appliers in package exec call it before writing.
package validate

import (
	"context"
	"fmt"

	"emberql/ast"
	"emberql/schema"
	"emberql/storage"
	"emberql/value"
)

// Error is the validation-layer error taxonomy.
type Error struct {
	Op      string
	Table   string
	Column  string
	Value   string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: table %q column %q value %q", e.Op, e.Table, e.Column, e.Value)
}

func errDuplicatePrimaryKey(table string, k value.Key) error {
	return &Error{Op: "DuplicateEntryOnPrimaryKey", Table: table, Value: renderKey(k)}
}

func errDuplicateUnique(table, column string, v value.Value) error {
	return &Error{Op: "DuplicateEntryOnUniqueField", Table: table, Column: column, Value: v.String()}
}

func errSchemalessConflict(table string) error {
	return &Error{Op: "ConflictOnSchemalessRowInSchemaTable", Table: table, Message: "row shape does not match table's schema"}
}

// ErrUpdateOnPrimaryKeyNotSupported backs UPDATE rule ("Forbid
// assignment to any primary-key column") and scenario 5: primary keys
// are immutable once a row exists because every referencing foreign key
// resolves against it.
type ErrUpdateOnPrimaryKeyNotSupported struct{ Table, Column string }

func (e *ErrUpdateOnPrimaryKeyNotSupported) Error() string {
	return fmt.Sprintf("UpdateOnPrimaryKeyNotSupported: table %q column %q", e.Table, e.Column)
}

// ReferencingForeignKey pairs a table with the foreign-key constraint on
// it that targets some other table, for the DELETE cascade walk.
type ReferencingForeignKey struct {
	Table *schema.Table
	FK    ast.ForeignKeyConstraint
}

// ReferencingForeignKeys scans every schema for foreign keys that target
// referencedTable, used by DELETE to enforce NoAction/Restrict/Cascade/
// SetNull/SetDefault across the whole schema graph.
func ReferencingForeignKeys(all []*schema.Table, referencedTable string) []ReferencingForeignKey {
	var out []ReferencingForeignKey
	for _, t := range all {
		for _, fk := range t.ForeignKeys {
			if fk.ReferencedTable == referencedTable {
				out = append(out, ReferencingForeignKey{Table: t, FK: fk})
			}
		}
	}
	return out
}

// ErrCannotFindReferencedValue is the Update/Insert/Delete-category error
// raised when a foreign-key column's value has no matching row in its
// referenced table.
type ErrCannotFindReferencedValue struct {
	Table  string
	Column string
	Value  string
}

func (e *ErrCannotFindReferencedValue) Error() string {
	return fmt.Sprintf("CannotFindReferencedValue: table %q column %q value %q", e.Table, e.Column, e.Value)
}

func renderKey(k value.Key) string {
	if k.IsNone() {
		return "<rowid>"
	}
	if k.IsComposite() {
		out := "("
		for i, p := range k.Parts() {
			if i > 0 {
				out += ", "
			}
			out += renderKey(p)
		}
		return out + ")"
	}
	return k.Value().String()
}

// Row is the minimal shape validate needs from a candidate row: its
// structured positional values (nil for a schemaless row) or document.
type Row struct {
	Values []value.Value
	Doc    *value.Map
}

// columnValue reads a named column out of a structured or schemaless row.
func columnValue(t *schema.Table, r Row, column string) (value.Value, bool) {
	if t.Schemaless() {
		if r.Doc == nil {
			return value.Value{}, false
		}
		return r.Doc.Get(column)
	}
	for i, c := range t.Columns {
		if c.Name == column {
			if i >= len(r.Values) {
				return value.Value{}, false
			}
			return r.Values[i], true
		}
	}
	return value.Value{}, false
}

// CheckRowShape rejects mixing a schemaless document into a structured
// table's row or vice versa.
func CheckRowShape(t *schema.Table, r Row) error {
	if t.Schemaless() && r.Doc == nil {
		return errSchemalessConflict(t.Name)
	}
	if !t.Schemaless() && r.Doc != nil {
		return errSchemalessConflict(t.Name)
	}
	if !t.Schemaless() && len(r.Values) != len(t.Columns) {
		return &Error{Op: "ConflictOnStorageColumnIndex", Table: t.Name, Message: "row width does not match column count"}
	}
	return nil
}

// CheckNullability rejects a Null value in a non-nullable column.
func CheckNullability(t *schema.Table, r Row) error {
	if t.Schemaless() {
		return nil
	}
	for i, c := range t.Columns {
		if !c.Nullable && i < len(r.Values) && r.Values[i].IsNull() {
			return value.ErrNullOnNotNullField(c.Name)
		}
	}
	return nil
}

// BuildKey constructs the Key a row resolves to under t's primary key
// definition, or value.None() for a rowid-keyed table.
func BuildKey(t *schema.Table, r Row) (value.Key, error) {
	pk := t.PrimaryKeyColumns()
	if len(pk) == 0 {
		return value.None(), nil
	}
	if len(pk) == 1 {
		v, ok := columnValue(t, r, pk[0])
		if !ok {
			return value.Key{}, &Error{Op: "ColumnNotFound", Table: t.Name, Column: pk[0]}
		}
		return value.NewKey(v)
	}
	parts := make([]value.Key, 0, len(pk))
	for _, col := range pk {
		v, ok := columnValue(t, r, col)
		if !ok {
			return value.Key{}, &Error{Op: "ColumnNotFound", Table: t.Name, Column: col}
		}
		k, err := value.NewKey(v)
		if err != nil {
			return value.Key{}, err
		}
		parts = append(parts, k)
	}
	return value.CompositeKey(parts), nil
}

// CheckUniqueAgainstStore validates that inserting/updating row r into t
// does not collide, on its primary key or any per-column unique
// constraint, with an existing row other than excludeKey. It scans the
// full table; reference backends are expected to be small enough for this.
func CheckUniqueAgainstStore(ctx context.Context, store storage.Store, t *schema.Table, r Row, excludeKey value.Key) error {
	key, err := BuildKey(t, r)
	if err != nil {
		return err
	}
	if !key.IsNone() {
		_, found, err := store.FetchData(ctx, t.Name, key)
		if err != nil {
			return err
		}
		if found && (excludeKey.IsNone() || key.Compare(excludeKey) != value.Equal) {
			return errDuplicatePrimaryKey(t.Name, key)
		}
	}
	uniqueCols := nonPrimaryUniqueColumns(t)
	if len(uniqueCols) == 0 {
		return nil
	}
	stream, err := store.ScanData(ctx, t.Name)
	if err != nil {
		return err
	}
	defer stream.Close()
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if !excludeKey.IsNone() && kr.Key.Compare(excludeKey) == value.Equal {
			continue
		}
		for _, col := range uniqueCols {
			a, aok := columnValue(t, r, col)
			b, bok := columnValue(t, Row{Values: kr.Row.Values, Doc: kr.Row.Doc}, col)
			if !aok || !bok || a.IsNull() || b.IsNull() {
				continue
			}
			if value.Compare(a, b) == value.Equal {
				return errDuplicateUnique(t.Name, col, a)
			}
		}
	}
	return nil
}

func nonPrimaryUniqueColumns(t *schema.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Unique && !c.Primary {
			out = append(out, c.Name)
		}
	}
	return out
}

// CheckForeignKeys validates that every foreign-key constraint on t whose
// referencing columns are all non-Null in r resolves to an existing row
// in its referenced table.
func CheckForeignKeys(ctx context.Context, store storage.Store, schemas SchemaLookup, t *schema.Table, r Row) error {
	for _, fk := range t.ForeignKeys {
		if err := checkOneForeignKey(ctx, store, schemas, t, fk, r); err != nil {
			return err
		}
	}
	return nil
}

// SchemaLookup is the registry validate needs to resolve a referenced
// table's schema when following a foreign key.
type SchemaLookup interface {
	Schema(table string) (*schema.Table, bool)
}

func checkOneForeignKey(ctx context.Context, store storage.Store, schemas SchemaLookup, t *schema.Table, fk ast.ForeignKeyConstraint, r Row) error {
	vals := make([]value.Value, 0, len(fk.Columns))
	allNull := true
	for _, col := range fk.Columns {
		v, ok := columnValue(t, r, col)
		if !ok {
			return &Error{Op: "ColumnNotFound", Table: t.Name, Column: col}
		}
		if !v.IsNull() {
			allNull = false
		}
		vals = append(vals, v)
	}
	if allNull {
		// A fully-Null foreign key is vacuously satisfied (standard SQL
		// MATCH SIMPLE semantics); only requires resolving non-Null
		// references.
		return nil
	}
	refTable, ok := schemas.Schema(fk.ReferencedTable)
	if !ok {
		return &Error{Op: "TableNotFound", Table: fk.ReferencedTable}
	}
	key, err := buildReferencedKey(refTable, fk.ReferencedColumns, vals)
	if err != nil {
		return err
	}
	_, found, err := store.FetchData(ctx, fk.ReferencedTable, key)
	if err != nil {
		return err
	}
	if !found {
		return &ErrCannotFindReferencedValue{Table: fk.ReferencedTable, Column: fk.ReferencedColumns[0], Value: renderSlice(vals)}
	}
	return nil
}

func buildReferencedKey(refTable *schema.Table, cols []string, vals []value.Value) (value.Key, error) {
	if len(vals) == 1 {
		return value.NewKey(vals[0])
	}
	parts := make([]value.Key, 0, len(vals))
	for _, v := range vals {
		k, err := value.NewKey(v)
		if err != nil {
			return value.Key{}, err
		}
		parts = append(parts, k)
	}
	return value.CompositeKey(parts), nil
}

func renderSlice(vs []value.Value) string {
	if len(vs) == 1 {
		return vs[0].String()
	}
	out := "("
	for i, v := range vs {
		if i > 0 {
			out += ", "
		}
		out += v.String()
	}
	return out + ")"
}

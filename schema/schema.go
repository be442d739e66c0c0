// Package schema holds the engine's table/column/constraint definitions
// and the validation rules enforced at DDL time. Its shape mirrors
// a small closed Database/Table/Column model, generalized from a
// dump-diffing schema to an executable one: columns carry engine value
// Kinds instead of raw dialect type strings, and constraints carry the
// foreign-key actions the executor enforces during DML.
package schema

import (
	"fmt"

	"emberql/ast"
	"emberql/value"
)

// Table is one table's schema as the planner and executor consult it:
// its columns (nil for a schemaless table), secondary indexes, foreign
// keys and comment.
type Table struct {
	Name        string
	Columns     []Column // nil => schemaless table
	Indexes     []Index
	ForeignKeys []ast.ForeignKeyConstraint
	Comment     string
}

func (t *Table) Schemaless() bool { return t.Columns == nil }

type Column struct {
	Name     string
	Type     value.Kind
	Nullable bool
	Default  *ast.Expr
	Unique   bool
	Primary  bool
}

type Index struct {
	Name       string
	Expression ast.Expr
}

// ColumnByName looks up a structured table's column definition by name.
func (t *Table) ColumnByName(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKeyColumns returns the ordered set of columns whose unique marker
// is primary; empty means the table is rowid-keyed.
func (t *Table) PrimaryKeyColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Primary {
			out = append(out, c.Name)
		}
	}
	return out
}

// IndexByName finds a declared secondary index.
func (t *Table) IndexByName(name string) (*Index, bool) {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i], true
		}
	}
	return nil, false
}

// Error is the schema/DDL error taxonomy.
type Error struct {
	Op    string
	Table string
	Msg   string
}

func (e *Error) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: table %q: %s", e.Op, e.Table, e.Msg)
}

func ErrTableAlreadyExists(table string) error {
	return &Error{Op: "TableAlreadyExists", Table: table, Msg: "table already exists"}
}

func ErrTableNotFound(table string) error {
	return &Error{Op: "TableNotFound", Table: table, Msg: "table not found"}
}

func ErrDuplicateColumn(table, col string) error {
	return &Error{Op: "DuplicateColumnName", Table: table, Msg: fmt.Sprintf("duplicate column %q", col)}
}

func ErrUnsupportedConstraintType(table, col string, k value.Kind) error {
	return &Error{Op: "UnsupportedConstraintType", Table: table, Msg: fmt.Sprintf("column %q of type %s cannot carry a unique/primary constraint", col, k)}
}

func ErrColumnNotFound(table, col string) error {
	return &Error{Op: "ColumnNotFound", Table: table, Msg: fmt.Sprintf("column %q not found", col)}
}

func ErrSchemalessAlterNotSupported(table string) error {
	return &Error{Op: "SchemalessAlterNotSupported", Table: table, Msg: "only RENAME TABLE is supported on a schemaless table"}
}

// ValidateCreateTable enforces the CREATE TABLE rejection rules
// before a Schema is registered: duplicate column names, and unique or
// primary markers on Kinds that cannot be Keys.
func ValidateCreateTable(t *Table) error {
	seen := map[string]bool{}
	for _, c := range t.Columns {
		if seen[c.Name] {
			return ErrDuplicateColumn(t.Name, c.Name)
		}
		seen[c.Name] = true
		if c.Unique || c.Primary {
			if !keyableKind(c.Type) {
				return ErrUnsupportedConstraintType(t.Name, c.Name, c.Type)
			}
		}
	}
	return nil
}

func keyableKind(k value.Kind) bool {
	switch k {
	case value.KindF32, value.KindF64, value.KindMap, value.KindList, value.KindPoint:
		return false
	default:
		return true
	}
}

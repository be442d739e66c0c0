package exec

import (
	"emberql/schema"
	"emberql/value"
)

// PayloadKind enumerates the orchestrator-facing result shapes a single
// statement execution can produce.
type PayloadKind uint8

const (
	PayloadCreateTable PayloadKind = iota
	PayloadInsert
	PayloadUpdate
	PayloadDelete
	PayloadSelect
	PayloadSelectMap
	PayloadDropTable
	PayloadAlterTable
	PayloadCreateIndex
	PayloadDropIndex
	PayloadStartTransaction
	PayloadCommit
	PayloadRollback
	PayloadShowVariable
	PayloadShowColumns
	PayloadShowIndexes
)

// Payload is the result of executing one statement. Only the fields
// relevant to Kind are populated.
type Payload struct {
	Kind PayloadKind

	// Insert/Update/Delete/DropTable row counts.
	Count int

	// Select: structured row output.
	Labels []string
	Rows   [][]value.Value

	// SelectMap: schemaless document output.
	Docs []*value.Map

	VariableName  string
	VariableValue string

	Columns []schema.Column

	// ShowIndexes.
	Indexes []schema.Index
}

// Package ast defines the engine's internal statement, query and
// expression tree. The translator package is the only producer of these
// types from parsed SQL; the planner and executor are the only consumers.
package ast

import "emberql/value"

// Statement is the root of any top-level SQL statement the engine accepts.
type Statement interface {
	statementNode()
}

type Query struct {
	Body    *SetExpr
	OrderBy []OrderByExpr
	Limit   Expr
	Offset  Expr
}

func (*Query) statementNode() {}

// SetExpr is either a plain Select, a Values literal, or a set operation
// combining two SetExprs.
type SetExpr struct {
	Select   *Select
	Values   [][]Expr
	SetOp    *SetOperation
}

type SetOpKind uint8

const (
	SetOpUnion SetOpKind = iota
	SetOpIntersect
	SetOpExcept
)

type SetOperation struct {
	Op    SetOpKind
	All   bool
	Left  *SetExpr
	Right *SetExpr
}

type Select struct {
	Projection []SelectItem
	From       *TableWithJoins
	Selection  Expr
	GroupBy    []Expr
	Having     Expr
	Distinct   bool
}

// SelectItem is either a bare/aliased expression or a wildcard projection.
type SelectItem struct {
	Expr       Expr
	Alias      string
	Wildcard   bool
	WildcardOf string // non-empty for `alias.*`
}

type OrderByExpr struct {
	Expr Expr
	Asc  bool
}

type TableFactor struct {
	Name    string
	Alias   string
	Derived *Query // non-nil for a subquery in FROM
	Index   *IndexItem
}

// IndexItem annotates a TableFactor chosen by the planner's index-selection
// pass.
type IndexOp uint8

const (
	IndexEq IndexOp = iota
	IndexLt
	IndexLtEq
	IndexGt
	IndexGtEq
)

type IndexItem struct {
	IndexName string
	Operator  IndexOp
	Value     Expr
}

type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
)

// HashExecutorHint marks a join the planner/translator determined can run
// through the hash-join executor instead of the default nested-loop one.
type HashExecutorHint struct {
	KeyExpr   Expr
	ValueExpr Expr
	Where     Expr
}

type Join struct {
	Table *TableFactor
	Kind  JoinKind
	On    Expr
	Hash  *HashExecutorHint
}

type TableWithJoins struct {
	Base  *TableFactor
	Joins []Join
}

type Insert struct {
	Table   string
	Columns []string
	Source  *Query // either a Values-only SetExpr or a full SELECT (INSERT ... SELECT)
}

func (*Insert) statementNode() {}

type Assignment struct {
	Column string
	Value  Expr
}

type Update struct {
	Table       string
	Assignments []Assignment
	Selection   Expr
}

func (*Update) statementNode() {}

type Delete struct {
	Table     string
	Selection Expr
}

func (*Delete) statementNode() {}

type ColumnDef struct {
	Name     string
	Type     value.Kind
	Nullable bool
	Default  *Expr
	Unique   bool
	Primary  bool
}

type ForeignKeyAction uint8

const (
	FKNoAction ForeignKeyAction = iota
	FKCascade
	FKSetNull
	FKSetDefault
	FKRestrict
)

type ForeignKeyConstraint struct {
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ForeignKeyAction
	OnUpdate          ForeignKeyAction
}

type CreateTable struct {
	Table       string
	Columns     []ColumnDef
	ForeignKeys []ForeignKeyConstraint
	IfNotExists bool
	AsSelect    *Query // non-nil for CREATE TABLE ... AS SELECT
	Comment     string
}

func (*CreateTable) statementNode() {}

type AlterTableKind uint8

const (
	AlterRenameTable AlterTableKind = iota
	AlterRenameColumn
	AlterAddColumn
	AlterDropColumn
)

type AlterTable struct {
	Table      string
	Kind       AlterTableKind
	NewName    string
	OldColumn  string
	NewColumn  string
	AddColumn  *ColumnDef
	DropColumn string
}

func (*AlterTable) statementNode() {}

type DropTable struct {
	Table    string
	IfExists bool
}

func (*DropTable) statementNode() {}

type CreateIndex struct {
	Table      string
	IndexName  string
	Expression Expr
}

func (*CreateIndex) statementNode() {}

type DropIndex struct {
	Table     string
	IndexName string
}

func (*DropIndex) statementNode() {}

type StartTransaction struct{}

func (*StartTransaction) statementNode() {}

type Commit struct{}

func (*Commit) statementNode() {}

type Rollback struct{}

func (*Rollback) statementNode() {}

type ShowColumns struct{ Table string }

func (*ShowColumns) statementNode() {}

type ShowVariable struct{ Name string }

func (*ShowVariable) statementNode() {}

type ShowIndexes struct{ Table string }

func (*ShowIndexes) statementNode() {}

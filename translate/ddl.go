package translate

import (
	"github.com/pingcap/tidb/pkg/parser/ast"

	eastl "emberql/ast"
)

func (t *Translator) translateCreateTable(n *ast.CreateTableStmt) (*eastl.CreateTable, error) {
	ct := &eastl.CreateTable{
		Table:       n.Table.Name.O,
		IfNotExists: n.IfNotExists,
	}
	for _, opt := range n.Options {
		if opt.Tp == ast.TableOptionComment {
			ct.Comment = opt.StrValue
		}
	}

	if n.Select != nil {
		sel, ok := n.Select.(*ast.SelectStmt)
		if !ok {
			return nil, errUnsupportedExpr(render(n.Select))
		}
		q, err := t.translateSelectAsQuery(sel)
		if err != nil {
			return nil, err
		}
		ct.AsSelect = q
		return ct, nil
	}

	primaryCols := map[string]bool{}
	uniqueCols := map[string]bool{}
	for _, cons := range n.Constraints {
		switch cons.Tp {
		case ast.ConstraintPrimaryKey:
			for _, k := range cons.Keys {
				primaryCols[k.Column.Name.O] = true
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			for _, k := range cons.Keys {
				uniqueCols[k.Column.Name.O] = true
			}
		case ast.ConstraintForeignKey:
			fk := eastl.ForeignKeyConstraint{}
			for _, k := range cons.Keys {
				fk.Columns = append(fk.Columns, k.Column.Name.O)
			}
			if cons.Refer != nil {
				fk.ReferencedTable = cons.Refer.Table.Name.O
				for _, k := range cons.Refer.IndexPartSpecifications {
					fk.ReferencedColumns = append(fk.ReferencedColumns, k.Column.Name.O)
				}
				if cons.Refer.OnDelete != nil {
					fk.OnDelete = referAction(cons.Refer.OnDelete.ReferOpt)
				}
				if cons.Refer.OnUpdate != nil {
					fk.OnUpdate = referAction(cons.Refer.OnUpdate.ReferOpt)
				}
			}
			ct.ForeignKeys = append(ct.ForeignKeys, fk)
		}
	}

	for _, colDef := range n.Cols {
		col := eastl.ColumnDef{
			Name:     colDef.Name.Name.O,
			Type:     NormalizeDataType(colDef.Tp.String()),
			Nullable: true,
		}
		for _, opt := range colDef.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				col.Nullable = false
			case ast.ColumnOptionNull:
				col.Nullable = true
			case ast.ColumnOptionPrimaryKey:
				col.Primary = true
				col.Nullable = false
			case ast.ColumnOptionUniqKey:
				col.Unique = true
			case ast.ColumnOptionDefaultValue:
				d, err := t.translateExpr(opt.Expr)
				if err != nil {
					return nil, err
				}
				col.Default = &d
			}
		}
		if primaryCols[col.Name] {
			col.Primary = true
			col.Nullable = false
		}
		if uniqueCols[col.Name] {
			col.Unique = true
		}
		ct.Columns = append(ct.Columns, col)
	}
	return ct, nil
}

func referAction(opt ast.ReferOptionType) eastl.ForeignKeyAction {
	switch opt {
	case ast.ReferOptionCascade:
		return eastl.FKCascade
	case ast.ReferOptionSetNull:
		return eastl.FKSetNull
	case ast.ReferOptionSetDefault:
		return eastl.FKSetDefault
	case ast.ReferOptionRestrict:
		return eastl.FKRestrict
	default:
		return eastl.FKNoAction
	}
}

func (t *Translator) translateAlterTable(n *ast.AlterTableStmt) (eastl.Statement, error) {
	table := n.Table.Name.O
	if len(n.Specs) != 1 {
		return nil, errUnsupportedStatement("only a single ALTER TABLE clause is supported per statement")
	}
	spec := n.Specs[0]
	switch spec.Tp {
	case ast.AlterTableRenameTable:
		return &eastl.AlterTable{Table: table, Kind: eastl.AlterRenameTable, NewName: spec.NewTable.Name.O}, nil
	case ast.AlterTableRenameColumn:
		return &eastl.AlterTable{
			Table: table, Kind: eastl.AlterRenameColumn,
			OldColumn: spec.OldColumnName.Name.O, NewColumn: spec.NewColumnName.Name.O,
		}, nil
	case ast.AlterTableAddColumns:
		if len(spec.NewColumns) != 1 {
			return nil, errUnsupportedStatement("only a single ADD COLUMN is supported per clause")
		}
		colDef := spec.NewColumns[0]
		col := eastl.ColumnDef{Name: colDef.Name.Name.O, Type: NormalizeDataType(colDef.Tp.String()), Nullable: true}
		for _, opt := range colDef.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				col.Nullable = false
			case ast.ColumnOptionDefaultValue:
				d, err := t.translateExpr(opt.Expr)
				if err != nil {
					return nil, err
				}
				col.Default = &d
			}
		}
		return &eastl.AlterTable{Table: table, Kind: eastl.AlterAddColumn, AddColumn: &col}, nil
	case ast.AlterTableDropColumn:
		return &eastl.AlterTable{Table: table, Kind: eastl.AlterDropColumn, DropColumn: spec.OldColumnName.Name.O}, nil
	default:
		return nil, errUnsupportedStatement(render(n))
	}
}

func (t *Translator) translateDropTable(n *ast.DropTableStmt) (*eastl.DropTable, error) {
	if len(n.Tables) != 1 {
		return nil, errUnsupportedStatement("only a single-table DROP TABLE is supported")
	}
	return &eastl.DropTable{Table: n.Tables[0].Name.O, IfExists: n.IfExists}, nil
}

func (t *Translator) translateCreateIndex(n *ast.CreateIndexStmt) (*eastl.CreateIndex, error) {
	if len(n.IndexPartSpecifications) != 1 {
		return nil, errUnsupportedStatement("composite indexes are not supported")
	}
	part := n.IndexPartSpecifications[0]
	var expr eastl.Expr
	if part.Expr != nil {
		e, err := t.translateExpr(part.Expr)
		if err != nil {
			return nil, err
		}
		expr = e
	} else {
		expr = eastl.Expr{Kind: eastl.ExprIdentifier, Ident: part.Column.Name.O}
	}
	return &eastl.CreateIndex{Table: n.Table.Name.O, IndexName: n.IndexName, Expression: expr}, nil
}

func (t *Translator) translateShow(n *ast.ShowStmt) (eastl.Statement, error) {
	switch n.Tp {
	case ast.ShowColumns:
		return &eastl.ShowColumns{Table: n.Table.Name.O}, nil
	case ast.ShowIndex:
		return &eastl.ShowIndexes{Table: n.Table.Name.O}, nil
	case ast.ShowVariables:
		return &eastl.ShowVariable{}, nil
	default:
		return nil, errUnsupportedStatement(render(n))
	}
}

package translate

import (
	"github.com/pingcap/tidb/pkg/parser/ast"

	eastl "emberql/ast"
)

func (t *Translator) translateInsert(n *ast.InsertStmt) (*eastl.Insert, error) {
	tableName, err := tableNameFromRefs(n.Table)
	if err != nil {
		return nil, err
	}
	ins := &eastl.Insert{Table: tableName}
	for _, c := range n.Columns {
		ins.Columns = append(ins.Columns, c.Name.O)
	}

	switch {
	case n.Select != nil:
		switch sel := n.Select.(type) {
		case *ast.SelectStmt:
			q, err := t.translateSelectAsQuery(sel)
			if err != nil {
				return nil, err
			}
			ins.Source = q
		default:
			return nil, errUnsupportedExpr(render(n.Select))
		}
	case n.Lists != nil:
		var rows [][]eastl.Expr
		for _, row := range n.Lists {
			var tr []eastl.Expr
			for _, e := range row {
				v, err := t.translateExpr(e)
				if err != nil {
					return nil, err
				}
				tr = append(tr, v)
			}
			rows = append(rows, tr)
		}
		ins.Source = &eastl.Query{Body: &eastl.SetExpr{Values: rows}}
	default:
		return nil, errUnsupportedStatement(render(n))
	}
	return ins, nil
}

func (t *Translator) translateUpdate(n *ast.UpdateStmt) (*eastl.Update, error) {
	tableName, err := tableRefsToSingleTable(n.TableRefs)
	if err != nil {
		return nil, err
	}
	upd := &eastl.Update{Table: tableName}
	for _, a := range n.List {
		v, err := t.translateExpr(a.Expr)
		if err != nil {
			return nil, err
		}
		upd.Assignments = append(upd.Assignments, eastl.Assignment{Column: a.Column.Name.O, Value: v})
	}
	if n.Where != nil {
		w, err := t.translateExpr(n.Where)
		if err != nil {
			return nil, err
		}
		upd.Selection = w
	}
	return upd, nil
}

func (t *Translator) translateDelete(n *ast.DeleteStmt) (*eastl.Delete, error) {
	tableName, err := tableRefsToSingleTable(n.TableRefs)
	if err != nil {
		return nil, err
	}
	del := &eastl.Delete{Table: tableName}
	if n.Where != nil {
		w, err := t.translateExpr(n.Where)
		if err != nil {
			return nil, err
		}
		del.Selection = w
	}
	return del, nil
}

func tableNameFromRefs(refs *ast.TableRefsClause) (string, error) {
	if refs == nil || refs.TableRefs == nil {
		return "", errUnsupportedStatement("missing table reference")
	}
	return tableRefsToSingleTable(refs)
}

// tableRefsToSingleTable expects DML's single-table target, unwrapping the parser's
// TableSource/TableName/Join wrapping down to a bare table name.
func tableRefsToSingleTable(refs *ast.TableRefsClause) (string, error) {
	if refs == nil || refs.TableRefs == nil {
		return "", errUnsupportedStatement("missing table reference")
	}
	var n ast.ResultSetNode = refs.TableRefs
	if j, ok := n.(*ast.Join); ok {
		if j.Right != nil {
			return "", errUnsupportedExpr("joined target in DML")
		}
		n = j.Left
	}
	if ts, ok := n.(*ast.TableSource); ok {
		n = ts.Source
	}
	tn, ok := n.(*ast.TableName)
	if !ok {
		return "", errUnsupportedExpr("non-table DML target")
	}
	return tn.Name.O, nil
}

package translate

import (
	"github.com/pingcap/tidb/pkg/parser/ast"

	eastl "emberql/ast"
)

func (t *Translator) translateSelectAsQuery(n *ast.SelectStmt) (*eastl.Query, error) {
	sel, err := t.translateSelect(n)
	if err != nil {
		return nil, err
	}
	q := &eastl.Query{Body: &eastl.SetExpr{Select: sel}}
	if n.OrderBy != nil {
		ob, err := t.translateOrderBy(n.OrderBy)
		if err != nil {
			return nil, err
		}
		q.OrderBy = ob
	}
	if n.Limit != nil {
		if n.Limit.Count != nil {
			c, err := t.translateExpr(n.Limit.Count)
			if err != nil {
				return nil, err
			}
			q.Limit = c
		}
		if n.Limit.Offset != nil {
			o, err := t.translateExpr(n.Limit.Offset)
			if err != nil {
				return nil, err
			}
			q.Offset = o
		}
	}
	return q, nil
}

func (t *Translator) translateSelect(n *ast.SelectStmt) (*eastl.Select, error) {
	sel := &eastl.Select{Distinct: n.Distinct}

	if n.Fields != nil {
		for _, f := range n.Fields.Fields {
			item, err := t.translateSelectField(f)
			if err != nil {
				return nil, err
			}
			sel.Projection = append(sel.Projection, item)
		}
	}

	if n.From != nil && n.From.TableRefs != nil {
		twj, err := t.translateTableRefs(n.From.TableRefs)
		if err != nil {
			return nil, err
		}
		sel.From = twj
	}

	if n.Where != nil {
		w, err := t.translateExpr(n.Where)
		if err != nil {
			return nil, err
		}
		sel.Selection = w
	}

	if n.GroupBy != nil {
		for _, item := range n.GroupBy.Items {
			e, err := t.translateExpr(item.Expr)
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
		}
	}

	if n.Having != nil {
		h, err := t.translateExpr(n.Having.Expr)
		if err != nil {
			return nil, err
		}
		sel.Having = h
	}

	return sel, nil
}

func (t *Translator) translateSelectField(f *ast.SelectField) (eastl.SelectItem, error) {
	if f.WildCard != nil {
		return eastl.SelectItem{Wildcard: true, WildcardOf: f.WildCard.Table.O}, nil
	}
	e, err := t.translateExpr(f.Expr)
	if err != nil {
		return eastl.SelectItem{}, err
	}
	alias := f.AsName.O
	if alias == "" {
		alias = render(f.Expr)
	}
	return eastl.SelectItem{Expr: e, Alias: alias}, nil
}

// translateOrderBy drops any NULLS FIRST/LAST clause
// normalization rule.
func (t *Translator) translateOrderBy(ob *ast.OrderByClause) ([]eastl.OrderByExpr, error) {
	out := make([]eastl.OrderByExpr, 0, len(ob.Items))
	for _, item := range ob.Items {
		e, err := t.translateExpr(item.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, eastl.OrderByExpr{Expr: e, Asc: !item.Desc})
	}
	return out, nil
}

// translateTableRefs flattens the parser's left-deep binary Join tree into
// a base table plus an ordered slice of Joins.
func (t *Translator) translateTableRefs(n ast.ResultSetNode) (*eastl.TableWithJoins, error) {
	join, ok := n.(*ast.Join)
	if !ok {
		base, err := t.translateTableFactor(n)
		if err != nil {
			return nil, err
		}
		return &eastl.TableWithJoins{Base: base}, nil
	}

	var joins []eastl.Join
	base, err := t.flattenJoin(join, &joins)
	if err != nil {
		return nil, err
	}
	return &eastl.TableWithJoins{Base: base, Joins: joins}, nil
}

func (t *Translator) flattenJoin(j *ast.Join, acc *[]eastl.Join) (*eastl.TableFactor, error) {
	var base *eastl.TableFactor
	var err error

	if left, ok := j.Left.(*ast.Join); ok && j.Right != nil {
		base, err = t.flattenJoin(left, acc)
	} else {
		base, err = t.translateTableFactor(j.Left)
	}
	if err != nil {
		return nil, err
	}
	if j.Right == nil {
		return base, nil
	}

	right, err := t.translateTableFactor(j.Right)
	if err != nil {
		return nil, err
	}

	kind := eastl.JoinInner
	if j.Tp == ast.LeftJoin {
		kind = eastl.JoinLeftOuter
	}
	var on eastl.Expr
	if j.Tp == ast.RightJoin {
		// RIGHT JOIN has no engine-side counterpart; the translator rejects it rather than
		// silently reordering operands, since that would also flip
		// which side's order the executor preserves.
		return nil, errUnsupportedExpr("RIGHT JOIN")
	}
	if j.On != nil {
		on, err = t.translateExpr(j.On.Expr)
		if err != nil {
			return nil, err
		}
	}

	*acc = append(*acc, eastl.Join{Table: right, Kind: kind, On: on})
	return base, nil
}

func (t *Translator) translateTableFactor(n ast.ResultSetNode) (*eastl.TableFactor, error) {
	switch s := n.(type) {
	case *ast.TableSource:
		alias := s.AsName.O
		switch inner := s.Source.(type) {
		case *ast.TableName:
			return &eastl.TableFactor{Name: inner.Name.O, Alias: alias}, nil
		case *ast.SelectStmt:
			q, err := t.translateSelectAsQuery(inner)
			if err != nil {
				return nil, err
			}
			return &eastl.TableFactor{Alias: alias, Derived: q}, nil
		case *ast.SetOprStmt:
			body, err := t.translateSetOprBody(inner)
			if err != nil {
				return nil, err
			}
			return &eastl.TableFactor{Alias: alias, Derived: &eastl.Query{Body: body}}, nil
		default:
			return nil, errUnsupportedExpr(render(n))
		}
	case *ast.TableName:
		return &eastl.TableFactor{Name: s.Name.O}, nil
	default:
		return nil, errUnsupportedExpr(render(n))
	}
}

func (t *Translator) translateSetOpr(n *ast.SetOprStmt) (*eastl.Query, error) {
	body, err := t.translateSetOprBody(n)
	if err != nil {
		return nil, err
	}
	q := &eastl.Query{Body: body}
	if n.OrderBy != nil {
		ob, err := t.translateOrderBy(n.OrderBy)
		if err != nil {
			return nil, err
		}
		q.OrderBy = ob
	}
	if n.Limit != nil {
		if n.Limit.Count != nil {
			c, err := t.translateExpr(n.Limit.Count)
			if err != nil {
				return nil, err
			}
			q.Limit = c
		}
		if n.Limit.Offset != nil {
			o, err := t.translateExpr(n.Limit.Offset)
			if err != nil {
				return nil, err
			}
			q.Offset = o
		}
	}
	return q, nil
}

// translateSetOprBody folds a chain of SELECT/UNION/INTERSECT/EXCEPT into
// a left-associative SetExpr tree, honoring INTERSECT's higher precedence
// over UNION/EXCEPT.
func (t *Translator) translateSetOprBody(n *ast.SetOprStmt) (*eastl.SetExpr, error) {
	if n.SelectList == nil || len(n.SelectList.Selects) == 0 {
		return nil, errUnsupportedExpr(render(n))
	}

	type term struct {
		expr *eastl.SetExpr
		op   eastl.SetOpKind
		all  bool
	}
	var terms []term
	for i, s := range n.SelectList.Selects {
		var se *eastl.SetExpr
		switch sel := s.(type) {
		case *ast.SelectStmt:
			translated, err := t.translateSelect(sel)
			if err != nil {
				return nil, err
			}
			se = &eastl.SetExpr{Select: translated}
		default:
			return nil, errUnsupportedExpr(render(s))
		}
		tm := term{expr: se}
		if i > 0 {
			afterSetOpr := s.(*ast.SelectStmt).AfterSetOperator
			switch *afterSetOpr {
			case ast.Union:
				tm.op, tm.all = eastl.SetOpUnion, false
			case ast.UnionAll:
				tm.op, tm.all = eastl.SetOpUnion, true
			case ast.Except:
				tm.op, tm.all = eastl.SetOpExcept, false
			case ast.ExceptAll:
				tm.op, tm.all = eastl.SetOpExcept, true
			case ast.Intersect:
				tm.op, tm.all = eastl.SetOpIntersect, false
			case ast.IntersectAll:
				tm.op, tm.all = eastl.SetOpIntersect, true
			default:
				return nil, errUnsupportedExpr("unknown set operator")
			}
		}
		terms = append(terms, tm)
	}

	// INTERSECT binds tighter: fold runs of INTERSECT first, then
	// left-fold the remaining UNION/EXCEPT chain.
	folded := []term{terms[0]}
	for _, tm := range terms[1:] {
		if tm.op == eastl.SetOpIntersect {
			last := folded[len(folded)-1]
			folded[len(folded)-1] = term{
				expr: &eastl.SetExpr{SetOp: &eastl.SetOperation{Op: eastl.SetOpIntersect, All: tm.all, Left: last.expr, Right: tm.expr}},
				op:   last.op,
				all:  last.all,
			}
			continue
		}
		folded = append(folded, tm)
	}

	result := folded[0].expr
	for _, tm := range folded[1:] {
		result = &eastl.SetExpr{SetOp: &eastl.SetOperation{Op: tm.op, All: tm.all, Left: result, Right: tm.expr}}
	}
	return result, nil
}

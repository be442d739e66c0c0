package plan

import "emberql/ast"

// selectIndexes runs the index-selection pass over every
// Select reachable from q, including derived tables and set-operation
// branches. At most one IndexItem is attached per TableFactor; the
// matching WHERE conjunct stays in the Filter stage too (the executor
// still evaluates the full predicate — the index only bounds the scan).
func (p *Planner) selectIndexes(q *ast.Query) {
	if q == nil {
		return
	}
	p.selectIndexesSetExpr(q.Body)
}

func (p *Planner) selectIndexesSetExpr(se *ast.SetExpr) {
	if se == nil {
		return
	}
	if se.Select != nil {
		p.selectIndexesSelect(se.Select)
	}
	if se.SetOp != nil {
		p.selectIndexesSetExpr(se.SetOp.Left)
		p.selectIndexesSetExpr(se.SetOp.Right)
	}
}

func (p *Planner) selectIndexesSelect(sel *ast.Select) {
	if sel.From == nil {
		return
	}
	conjuncts := splitConjuncts(sel.Selection)
	p.annotateTableFactor(sel.From.Base, conjuncts)
	for i := range sel.From.Joins {
		// A join's ON predicate can also carry an index-eligible conjunct
		// for its right-hand table, but only WHERE conjuncts are
		// considered here, not ON conjuncts.
		p.annotateTableFactor(sel.From.Joins[i].Table, conjuncts)
	}
	if sel.From.Base != nil && sel.From.Base.Derived != nil {
		p.selectIndexes(sel.From.Base.Derived)
	}
	for i := range sel.From.Joins {
		if t := sel.From.Joins[i].Table; t != nil && t.Derived != nil {
			p.selectIndexes(t.Derived)
		}
	}
}

// splitConjuncts flattens a top-level AND tree into its leaf predicates;
// OR never yields an index-eligible conjunct since not every row matching
// the OR need satisfy it.
func splitConjuncts(e ast.Expr) []ast.Expr {
	if e.Kind == ast.ExprLiteral && e.Literal.IsNull() {
		// Zero-value Expr: no WHERE clause was present at all.
		return nil
	}
	if e.Kind == ast.ExprBinaryOp && e.BinOp == ast.OpAnd {
		out := splitConjuncts(*e.Left)
		out = append(out, splitConjuncts(*e.Right)...)
		return out
	}
	return []ast.Expr{e}
}

func (p *Planner) annotateTableFactor(tf *ast.TableFactor, conjuncts []ast.Expr) {
	if tf == nil || tf.Name == "" || tf.Index != nil {
		return
	}
	t, ok := p.Schemas.Schema(tf.Name)
	if !ok || len(t.Indexes) == 0 {
		return
	}
	alias := tf.Alias
	if alias == "" {
		alias = tf.Name
	}
	for _, idx := range t.Indexes {
		for _, c := range conjuncts {
			if c.Kind != ast.ExprBinaryOp {
				continue
			}
			op, ok := indexOp(c.BinOp)
			if !ok {
				continue
			}
			if exprMatchesIndex(*c.Left, idx.Expression, alias) && isLiteral(*c.Right) {
				tf.Index = &ast.IndexItem{IndexName: idx.Name, Operator: op, Value: *c.Right}
				return
			}
			if exprMatchesIndex(*c.Right, idx.Expression, alias) && isLiteral(*c.Left) {
				tf.Index = &ast.IndexItem{IndexName: idx.Name, Operator: reverseOp(op), Value: *c.Left}
				return
			}
		}
	}
}

func isLiteral(e ast.Expr) bool { return e.Kind == ast.ExprLiteral }

func indexOp(op ast.BinaryOp) (ast.IndexOp, bool) {
	switch op {
	case ast.OpEq:
		return ast.IndexEq, true
	case ast.OpLt:
		return ast.IndexLt, true
	case ast.OpLtEq:
		return ast.IndexLtEq, true
	case ast.OpGt:
		return ast.IndexGt, true
	case ast.OpGtEq:
		return ast.IndexGtEq, true
	default:
		return 0, false
	}
}

// reverseOp mirrors the operator when the literal appeared on the left
// (`1 < col` means `col > 1`), "(or its reverse)".
func reverseOp(op ast.IndexOp) ast.IndexOp {
	switch op {
	case ast.IndexLt:
		return ast.IndexGt
	case ast.IndexLtEq:
		return ast.IndexGtEq
	case ast.IndexGt:
		return ast.IndexLt
	case ast.IndexGtEq:
		return ast.IndexLtEq
	default:
		return op
	}
}

// exprMatchesIndex reports whether e is the same expression the index was
// declared over, ignoring a table-alias qualifier that matches alias.
func exprMatchesIndex(e, indexExpr ast.Expr, alias string) bool {
	return sameShape(stripAlias(e, alias), indexExpr)
}

func stripAlias(e ast.Expr, alias string) ast.Expr {
	if e.Kind == ast.ExprCompoundIdentifier && e.CompoundAlias == alias {
		return ast.Expr{Kind: ast.ExprIdentifier, Ident: e.CompoundColumn}
	}
	return e
}

// sameShape is a structural equality check over the handful of Expr
// shapes an index expression can take: a bare column, or a function-call
// expression over bare columns.
func sameShape(a, b ast.Expr) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ast.ExprIdentifier:
		return a.Ident == b.Ident
	case ast.ExprCompoundIdentifier:
		return a.CompoundAlias == b.CompoundAlias && a.CompoundColumn == b.CompoundColumn
	case ast.ExprFunctionCall:
		if a.FuncName != b.FuncName || len(a.FuncArgs) != len(b.FuncArgs) {
			return false
		}
		for i := range a.FuncArgs {
			if !sameShape(a.FuncArgs[i], b.FuncArgs[i]) {
				return false
			}
		}
		return true
	case ast.ExprLiteral:
		return a.Literal.String() == b.Literal.String() && a.Literal.Kind() == b.Literal.Kind()
	default:
		return false
	}
}

package plan

import "emberql/ast"

// selectHashJoins runs the join-executor-selection pass: for each
// equi-join whose ON predicate carries a conjunct entirely rooted in the
// join's right-hand table against an expression entirely free of it, mark
// the join with a HashExecutorHint so exec's hashJoin runs instead of the
// default nested-loop executor. Any remaining ON conjuncts are kept as the
// hint's residual Where, evaluated only against probe-matched pairs.
func (p *Planner) selectHashJoins(q *ast.Query) {
	if q == nil {
		return
	}
	p.selectHashJoinsSetExpr(q.Body)
}

func (p *Planner) selectHashJoinsSetExpr(se *ast.SetExpr) {
	if se == nil {
		return
	}
	if se.Select != nil {
		p.selectHashJoinsSelect(se.Select)
	}
	if se.SetOp != nil {
		p.selectHashJoinsSetExpr(se.SetOp.Left)
		p.selectHashJoinsSetExpr(se.SetOp.Right)
	}
}

func (p *Planner) selectHashJoinsSelect(sel *ast.Select) {
	if sel.From == nil {
		return
	}
	for i := range sel.From.Joins {
		annotateHashJoin(&sel.From.Joins[i])
	}
	if sel.From.Base != nil && sel.From.Base.Derived != nil {
		p.selectHashJoins(sel.From.Base.Derived)
	}
	for i := range sel.From.Joins {
		if t := sel.From.Joins[i].Table; t != nil && t.Derived != nil {
			p.selectHashJoins(t.Derived)
		}
	}
}

// annotateHashJoin looks for one ON conjunct of the form
// `rightRootedExpr = leftExpr` (or its reverse) and, if found, attaches a
// HashExecutorHint; at most one hint per join, same "first eligible match
// wins" rule the index-selection pass uses.
func annotateHashJoin(j *ast.Join) {
	if j.Hash != nil || j.Table == nil {
		return
	}
	rightAlias := j.Table.Alias
	if rightAlias == "" {
		rightAlias = j.Table.Name
	}
	if rightAlias == "" {
		return
	}
	conjuncts := splitConjuncts(j.On)
	for i, c := range conjuncts {
		if c.Kind != ast.ExprBinaryOp || c.BinOp != ast.OpEq {
			continue
		}
		keyExpr, valueExpr, ok := splitEquiJoin(*c.Left, *c.Right, rightAlias)
		if !ok {
			continue
		}
		residual := make([]ast.Expr, 0, len(conjuncts)-1)
		residual = append(residual, conjuncts[:i]...)
		residual = append(residual, conjuncts[i+1:]...)
		j.Hash = &ast.HashExecutorHint{
			KeyExpr:   keyExpr,
			ValueExpr: valueExpr,
			Where:     combineConjuncts(residual),
		}
		return
	}
}

// splitEquiJoin decides which side of an `a = b` conjunct is wholly rooted
// in the join's right-hand alias (becomes ValueExpr, evaluated against the
// right row alone while building the hash table) and which is entirely
// free of it (becomes KeyExpr, evaluated against the accumulated left
// context while probing).
func splitEquiJoin(a, b ast.Expr, rightAlias string) (keyExpr, valueExpr ast.Expr, ok bool) {
	if isRootedIn(a, rightAlias) && !referencesAlias(b, rightAlias) {
		return b, a, true
	}
	if isRootedIn(b, rightAlias) && !referencesAlias(a, rightAlias) {
		return a, b, true
	}
	return ast.Expr{}, ast.Expr{}, false
}

// isRootedIn reports whether e resolves only against alias: a qualified
// column of alias, or a function call/cast built purely out of such
// columns. Bare (unqualified) identifiers are never rooted, since
// resolving them needs the full row-context chain rather than a single
// aliased source evaluated in isolation.
func isRootedIn(e ast.Expr, alias string) bool {
	switch e.Kind {
	case ast.ExprCompoundIdentifier:
		return e.CompoundAlias == alias
	case ast.ExprFunctionCall:
		if len(e.FuncArgs) == 0 {
			return false
		}
		for _, a := range e.FuncArgs {
			if !isRootedIn(a, alias) {
				return false
			}
		}
		return true
	case ast.ExprCast:
		return e.CastExpr != nil && isRootedIn(*e.CastExpr, alias)
	case ast.ExprNested:
		return e.Inner != nil && isRootedIn(*e.Inner, alias)
	default:
		return false
	}
}

// referencesAlias reports whether e could possibly touch alias anywhere in
// its tree. Bare identifiers are treated conservatively as touching every
// alias, since which source they resolve against depends on the full
// context chain, not a structural check.
func referencesAlias(e ast.Expr, alias string) bool {
	switch e.Kind {
	case ast.ExprLiteral:
		return false
	case ast.ExprCompoundIdentifier:
		return e.CompoundAlias == alias
	case ast.ExprNested:
		return e.Inner != nil && referencesAlias(*e.Inner, alias)
	case ast.ExprBinaryOp:
		return (e.Left != nil && referencesAlias(*e.Left, alias)) ||
			(e.Right != nil && referencesAlias(*e.Right, alias))
	case ast.ExprUnaryOp:
		return e.Operand != nil && referencesAlias(*e.Operand, alias)
	case ast.ExprCast:
		return e.CastExpr != nil && referencesAlias(*e.CastExpr, alias)
	case ast.ExprFunctionCall:
		for _, a := range e.FuncArgs {
			if referencesAlias(a, alias) {
				return true
			}
		}
		return false
	default:
		// Between/In/Exists/Subquery/Case/array-index etc: conservatively
		// assume they could touch alias rather than risk mis-rooting an
		// equi-join side.
		return true
	}
}

// combineConjuncts rebuilds an AND tree from the conjuncts splitConjuncts
// would have produced from it, or the zero Expr (meaning "no clause") when
// cs is empty.
func combineConjuncts(cs []ast.Expr) ast.Expr {
	if len(cs) == 0 {
		return ast.Expr{}
	}
	out := cs[0]
	for _, c := range cs[1:] {
		out = ast.Expr{Kind: ast.ExprBinaryOp, BinOp: ast.OpAnd, Left: ptr(out), Right: ptr(c)}
	}
	return out
}

package ast

// MutatingVisitor rewrites an expression tree in place, post-order: every
// child is visited (and may be replaced) before the parent's VisitExpr is
// called. The planner's schemaless rewrite and the translator do not use
// it; the planner walks expressions by hand in plan.rewriteExpr.
type MutatingVisitor interface {
	VisitExpr(e *Expr)
}

// FallibleVisitor walks an expression tree post-order, stopping at the
// first error. Used by passes that only need to validate or collect
// information without rewriting (e.g. rejecting correlated subqueries in
// stateless-mode checks).
type FallibleVisitor interface {
	VisitExpr(e *Expr) error
}

// Walk applies v to every child of e (post-order) and finally to e itself.
func Walk(v MutatingVisitor, e *Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprNested:
		Walk(v, e.Inner)
	case ExprBinaryOp:
		Walk(v, e.Left)
		Walk(v, e.Right)
	case ExprUnaryOp:
		Walk(v, e.Operand)
	case ExprBetween:
		Walk(v, e.BetweenExpr)
		Walk(v, e.BetweenLow)
		Walk(v, e.BetweenHigh)
	case ExprInList:
		Walk(v, e.InExpr)
		for i := range e.InList {
			Walk(v, &e.InList[i])
		}
	case ExprInSubquery:
		Walk(v, e.InExpr)
		WalkQuery(v, e.InSub)
	case ExprExists:
		WalkQuery(v, e.ExistsSub)
	case ExprSubquery:
		WalkQuery(v, e.SubqueryOf)
	case ExprCase:
		if e.CaseOperand != nil {
			Walk(v, e.CaseOperand)
		}
		for i := range e.CaseWhens {
			Walk(v, &e.CaseWhens[i].Condition)
			Walk(v, &e.CaseWhens[i].Result)
		}
		if e.CaseElse != nil {
			Walk(v, e.CaseElse)
		}
	case ExprCast:
		Walk(v, e.CastExpr)
	case ExprArrayIndex:
		Walk(v, e.ArrayBase)
		Walk(v, e.ArrayIndex)
	case ExprFunctionCall:
		for i := range e.FuncArgs {
			Walk(v, &e.FuncArgs[i])
		}
	case ExprAggregateRef:
		if e.AggregateOf != nil {
			Walk(v, e.AggregateOf)
		}
	}
	v.VisitExpr(e)
}

// WalkFallible is the error-propagating counterpart of Walk.
func WalkFallible(v FallibleVisitor, e *Expr) error {
	if e == nil {
		return nil
	}
	var children []*Expr
	var subqueries []*Query
	switch e.Kind {
	case ExprNested:
		children = append(children, e.Inner)
	case ExprBinaryOp:
		children = append(children, e.Left, e.Right)
	case ExprUnaryOp:
		children = append(children, e.Operand)
	case ExprBetween:
		children = append(children, e.BetweenExpr, e.BetweenLow, e.BetweenHigh)
	case ExprInList:
		children = append(children, e.InExpr)
		for i := range e.InList {
			children = append(children, &e.InList[i])
		}
		if e.InSub != nil {
			subqueries = append(subqueries, e.InSub)
		}
	case ExprInSubquery:
		children = append(children, e.InExpr)
		subqueries = append(subqueries, e.InSub)
	case ExprExists:
		subqueries = append(subqueries, e.ExistsSub)
	case ExprSubquery:
		subqueries = append(subqueries, e.SubqueryOf)
	case ExprCase:
		if e.CaseOperand != nil {
			children = append(children, e.CaseOperand)
		}
		for i := range e.CaseWhens {
			children = append(children, &e.CaseWhens[i].Condition, &e.CaseWhens[i].Result)
		}
		if e.CaseElse != nil {
			children = append(children, e.CaseElse)
		}
	case ExprCast:
		children = append(children, e.CastExpr)
	case ExprArrayIndex:
		children = append(children, e.ArrayBase, e.ArrayIndex)
	case ExprFunctionCall:
		for i := range e.FuncArgs {
			children = append(children, &e.FuncArgs[i])
		}
	case ExprAggregateRef:
		if e.AggregateOf != nil {
			children = append(children, e.AggregateOf)
		}
	}
	for _, c := range children {
		if err := WalkFallible(v, c); err != nil {
			return err
		}
	}
	for _, q := range subqueries {
		if err := WalkQueryFallible(v, q); err != nil {
			return err
		}
	}
	return v.VisitExpr(e)
}

// WalkQuery applies a MutatingVisitor to every expression reachable from a
// Query: select items, ON clauses, hash-executor expressions, WHERE, GROUP
// BY, HAVING, ORDER BY, LIMIT, OFFSET, recursing into subqueries.
func WalkQuery(v MutatingVisitor, q *Query) {
	if q == nil {
		return
	}
	WalkSetExpr(v, q.Body)
	for i := range q.OrderBy {
		Walk(v, &q.OrderBy[i].Expr)
	}
	Walk(v, &q.Limit)
	Walk(v, &q.Offset)
}

func WalkSetExpr(v MutatingVisitor, s *SetExpr) {
	if s == nil {
		return
	}
	if s.Select != nil {
		WalkSelect(v, s.Select)
	}
	for _, row := range s.Values {
		for i := range row {
			Walk(v, &row[i])
		}
	}
	if s.SetOp != nil {
		WalkSetExpr(v, s.SetOp.Left)
		WalkSetExpr(v, s.SetOp.Right)
	}
}

func WalkSelect(v MutatingVisitor, sel *Select) {
	if sel == nil {
		return
	}
	for i := range sel.Projection {
		if !sel.Projection[i].Wildcard {
			Walk(v, &sel.Projection[i].Expr)
		}
	}
	if sel.From != nil {
		WalkTableWithJoins(v, sel.From)
	}
	Walk(v, &sel.Selection)
	for i := range sel.GroupBy {
		Walk(v, &sel.GroupBy[i])
	}
	Walk(v, &sel.Having)
}

func WalkTableWithJoins(v MutatingVisitor, t *TableWithJoins) {
	if t == nil {
		return
	}
	WalkTableFactor(v, t.Base)
	for i := range t.Joins {
		WalkTableFactor(v, t.Joins[i].Table)
		Walk(v, &t.Joins[i].On)
		if h := t.Joins[i].Hash; h != nil {
			Walk(v, &h.KeyExpr)
			Walk(v, &h.ValueExpr)
			if h.Where.Kind != 0 {
				Walk(v, &h.Where)
			}
		}
	}
}

func WalkTableFactor(v MutatingVisitor, t *TableFactor) {
	if t == nil {
		return
	}
	if t.Derived != nil {
		WalkQuery(v, t.Derived)
	}
}

// WalkQueryFallible is the fallible counterpart of WalkQuery.
func WalkQueryFallible(v FallibleVisitor, q *Query) error {
	if q == nil {
		return nil
	}
	if err := walkSetExprFallible(v, q.Body); err != nil {
		return err
	}
	for i := range q.OrderBy {
		if err := WalkFallible(v, &q.OrderBy[i].Expr); err != nil {
			return err
		}
	}
	if err := WalkFallible(v, &q.Limit); err != nil {
		return err
	}
	return WalkFallible(v, &q.Offset)
}

func walkSetExprFallible(v FallibleVisitor, s *SetExpr) error {
	if s == nil {
		return nil
	}
	if s.Select != nil {
		if err := walkSelectFallible(v, s.Select); err != nil {
			return err
		}
	}
	for _, row := range s.Values {
		for i := range row {
			if err := WalkFallible(v, &row[i]); err != nil {
				return err
			}
		}
	}
	if s.SetOp != nil {
		if err := walkSetExprFallible(v, s.SetOp.Left); err != nil {
			return err
		}
		return walkSetExprFallible(v, s.SetOp.Right)
	}
	return nil
}

func walkSelectFallible(v FallibleVisitor, sel *Select) error {
	if sel == nil {
		return nil
	}
	for i := range sel.Projection {
		if sel.Projection[i].Wildcard {
			continue
		}
		if err := WalkFallible(v, &sel.Projection[i].Expr); err != nil {
			return err
		}
	}
	if sel.From != nil {
		if err := walkTableWithJoinsFallible(v, sel.From); err != nil {
			return err
		}
	}
	if err := WalkFallible(v, &sel.Selection); err != nil {
		return err
	}
	for i := range sel.GroupBy {
		if err := WalkFallible(v, &sel.GroupBy[i]); err != nil {
			return err
		}
	}
	return WalkFallible(v, &sel.Having)
}

func walkTableWithJoinsFallible(v FallibleVisitor, t *TableWithJoins) error {
	if t == nil {
		return nil
	}
	if t.Base != nil && t.Base.Derived != nil {
		if err := WalkQueryFallible(v, t.Base.Derived); err != nil {
			return err
		}
	}
	for i := range t.Joins {
		if t.Joins[i].Table != nil && t.Joins[i].Table.Derived != nil {
			if err := WalkQueryFallible(v, t.Joins[i].Table.Derived); err != nil {
				return err
			}
		}
		if err := WalkFallible(v, &t.Joins[i].On); err != nil {
			return err
		}
	}
	return nil
}

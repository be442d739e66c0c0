package exec

import (
	"context"
	"fmt"

	"emberql/ast"
	"emberql/eval"
	"emberql/fn"
	"emberql/value"
)

// aggregateCall is one distinct aggregate function call discovered in a
// Select's projection or HAVING clause. runSelect passes no ORDER BY to
// collectSelectAggregates, so an aggregate that appears only in the
// enclosing Query's ORDER BY is not collected.
// Label is the synthetic key both the ExprAggregateRef
// nodes and the per-group Aggregates map are keyed by.
type aggregateCall struct {
	Label string
	Call  *ast.Expr
}

func isAggregateName(name string) bool {
	switch name {
	case "COUNT", "SUM", "AVG", "MIN", "MAX", "VARIANCE", "STDEV":
		return true
	}
	return false
}

// collectSelectAggregates rewrites every aggregate call reachable from
// sel's projection and HAVING, and from orderBy, into an ExprAggregateRef
// node, and returns the distinct calls that must be computed per group
// before projection/HAVING/ORDER BY can evaluate. It does
// not use ast.Walk/MutatingVisitor because it must stop at subquery
// boundaries — an aggregate inside a correlated subquery belongs to that
// subquery's own grouping, not this Select's.
func collectSelectAggregates(sel *ast.Select, orderBy []ast.OrderByExpr) []aggregateCall {
	var calls []aggregateCall
	seen := map[string]int{}
	for i := range sel.Projection {
		if sel.Projection[i].Wildcard {
			continue
		}
		collectAggregatesInto(&sel.Projection[i].Expr, &calls, seen)
	}
	if hasExpr(sel.Having) {
		collectAggregatesInto(&sel.Having, &calls, seen)
	}
	for i := range orderBy {
		collectAggregatesInto(&orderBy[i].Expr, &calls, seen)
	}
	return calls
}

func collectAggregatesInto(e *ast.Expr, calls *[]aggregateCall, seen map[string]int) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprInSubquery, ast.ExprExists, ast.ExprSubquery:
		return

	case ast.ExprAggregateRef:
		// Already rewritten by a prior pass over this same Select (a
		// correlated subquery's runSelect runs once per outer row); rebuild
		// the calls list from the reference rather than re-rewriting, so a
		// second pass stays idempotent.
		if _, ok := seen[e.FuncName]; !ok {
			seen[e.FuncName] = len(*calls)
			*calls = append(*calls, aggregateCall{Label: e.FuncName, Call: e.AggregateOf})
		}
		return

	case ast.ExprFunctionCall:
		if isAggregateName(e.FuncName) {
			key := exprKey(*e)
			idx, ok := seen[key]
			if !ok {
				idx = len(*calls)
				seen[key] = idx
				call := *e
				*calls = append(*calls, aggregateCall{Label: key, Call: &call})
			}
			*e = ast.Expr{Kind: ast.ExprAggregateRef, FuncName: key, AggregateOf: (*calls)[idx].Call}
			return
		}
		for i := range e.FuncArgs {
			collectAggregatesInto(&e.FuncArgs[i], calls, seen)
		}

	case ast.ExprNested:
		collectAggregatesInto(e.Inner, calls, seen)
	case ast.ExprBinaryOp:
		collectAggregatesInto(e.Left, calls, seen)
		collectAggregatesInto(e.Right, calls, seen)
	case ast.ExprUnaryOp:
		collectAggregatesInto(e.Operand, calls, seen)
	case ast.ExprBetween:
		collectAggregatesInto(e.BetweenExpr, calls, seen)
		collectAggregatesInto(e.BetweenLow, calls, seen)
		collectAggregatesInto(e.BetweenHigh, calls, seen)
	case ast.ExprInList:
		collectAggregatesInto(e.InExpr, calls, seen)
		for i := range e.InList {
			collectAggregatesInto(&e.InList[i], calls, seen)
		}
	case ast.ExprCase:
		if e.CaseOperand != nil {
			collectAggregatesInto(e.CaseOperand, calls, seen)
		}
		for i := range e.CaseWhens {
			collectAggregatesInto(&e.CaseWhens[i].Condition, calls, seen)
			collectAggregatesInto(&e.CaseWhens[i].Result, calls, seen)
		}
		if e.CaseElse != nil {
			collectAggregatesInto(e.CaseElse, calls, seen)
		}
	case ast.ExprCast:
		collectAggregatesInto(e.CastExpr, calls, seen)
	case ast.ExprArrayIndex:
		collectAggregatesInto(e.ArrayBase, calls, seen)
		collectAggregatesInto(e.ArrayIndex, calls, seen)
	}
}

// exprKey renders a structural, address-independent key for an Expr, used
// both to dedupe repeated aggregate calls (SUM(x) in both SELECT and
// HAVING is one accumulator) and as the group-by bucket discriminator is
// not this — see renderKeyValue for that. Only the shapes that can appear
// inside an aggregate's argument list need full coverage; anything else
// falls back to its Kind tag, which is still stable and merely
// over-distinguishes (never under-distinguishes) unusual shapes.
func exprKey(e ast.Expr) string {
	switch e.Kind {
	case ast.ExprLiteral:
		return "L:" + e.Literal.Kind().String() + ":" + e.Literal.String()
	case ast.ExprIdentifier:
		return "I:" + e.Ident
	case ast.ExprCompoundIdentifier:
		return "C:" + e.CompoundAlias + "." + e.CompoundColumn
	case ast.ExprNested:
		return "(" + exprKey(*e.Inner) + ")"
	case ast.ExprBinaryOp:
		return exprKey(*e.Left) + fmt.Sprintf(":%d:", e.BinOp) + exprKey(*e.Right)
	case ast.ExprUnaryOp:
		return fmt.Sprintf("U%d:", e.UnOp) + exprKey(*e.Operand)
	case ast.ExprCast:
		return fmt.Sprintf("CAST(%s AS %d)", exprKey(*e.CastExpr), e.CastType)
	case ast.ExprArrayIndex:
		return "A:" + exprKey(*e.ArrayBase) + "->" + exprKey(*e.ArrayIndex)
	case ast.ExprFunctionCall:
		s := "F:" + e.FuncName + "("
		for i, a := range e.FuncArgs {
			if i > 0 {
				s += ","
			}
			s += exprKey(a)
		}
		if e.FuncDistinct {
			s += ";distinct"
		}
		return s + ")"
	default:
		return fmt.Sprintf("K%d", e.Kind)
	}
}

// applyAggregation groups rows by sel.GroupBy, computes every call in calls per group, and
// returns one representative RowContext per group carrying the results
// in its Aggregates map. A query with no GROUP BY but at least one
// aggregate call collapses to a single group over all of rows, including
// the empty-input case (producing the aggregates' identity values, e.g.
// COUNT = 0, SUM = NULL).
func (e *Engine) applyAggregation(goCtx context.Context, sel *ast.Select, rows []*eval.RowContext, calls []aggregateCall) ([]*eval.RowContext, error) {
	if len(sel.GroupBy) == 0 {
		var rep eval.RowContext
		if len(rows) > 0 {
			rep = *rows[0]
		}
		agg, err := computeAggregates(goCtx, e.Eval, calls, rows)
		if err != nil {
			return nil, err
		}
		rep.Aggregates = agg
		return []*eval.RowContext{&rep}, nil
	}

	type group struct {
		rows []*eval.RowContext
	}
	var order []string
	groups := map[string]*group{}
	for _, r := range rows {
		keyVals := make([]value.Value, len(sel.GroupBy))
		for i := range sel.GroupBy {
			v, err := e.Eval.Eval(goCtx, &sel.GroupBy[i], r)
			if err != nil {
				return nil, err
			}
			keyVals[i] = v
		}
		ks := renderKeyValue(keyVals)
		g, ok := groups[ks]
		if !ok {
			g = &group{}
			groups[ks] = g
			order = append(order, ks)
		}
		g.rows = append(g.rows, r)
	}

	out := make([]*eval.RowContext, 0, len(order))
	for _, ks := range order {
		g := groups[ks]
		agg, err := computeAggregates(goCtx, e.Eval, calls, g.rows)
		if err != nil {
			return nil, err
		}
		rep := *g.rows[0]
		rep.Aggregates = agg
		out = append(out, &rep)
	}
	return out, nil
}

func computeAggregates(goCtx context.Context, ev *eval.Evaluator, calls []aggregateCall, rows []*eval.RowContext) (map[string]value.Value, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	result := make(map[string]value.Value, len(calls))
	for _, c := range calls {
		acc := fn.NewAccumulator(c.Call.FuncName)
		if acc == nil {
			return nil, &Error{Op: "UnknownFunction", Msg: c.Call.FuncName}
		}
		wildcard := len(c.Call.FuncArgs) == 0
		var seenDistinct map[string]bool
		if c.Call.FuncDistinct {
			seenDistinct = map[string]bool{}
		}
		for _, r := range rows {
			var arg value.Value
			if !wildcard {
				v, err := ev.Eval(goCtx, &c.Call.FuncArgs[0], r)
				if err != nil {
					return nil, err
				}
				arg = v
			}
			if seenDistinct != nil {
				dk := arg.String()
				if seenDistinct[dk] {
					continue
				}
				seenDistinct[dk] = true
			}
			if err := acc.Accumulate(arg, wildcard); err != nil {
				return nil, err
			}
		}
		result[c.Label] = acc.Finish()
	}
	return result, nil
}

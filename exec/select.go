package exec

import (
	"context"
	"fmt"
	"sort"

	"emberql/ast"
	"emberql/eval"
	"emberql/plan"
	"emberql/value"
)

// runQuery executes a full Query — its SetExpr body, then ORDER BY and
// LIMIT/OFFSET over the combined result. outer is the
// enclosing row context for a correlated derived table or subquery; nil
// for a top-level statement.
func (e *Engine) runQuery(ctx context.Context, q *ast.Query, outer *eval.RowContext) ([]string, [][]value.Value, error) {
	labels, rows, err := e.runSetExpr(ctx, q.Body, outer)
	if err != nil {
		return nil, nil, err
	}

	if len(q.OrderBy) > 0 {
		if err := e.sortRows(ctx, labels, rows, q.OrderBy); err != nil {
			return nil, nil, err
		}
	}

	if hasExpr(q.Offset) {
		v, err := e.Eval.Eval(ctx, &q.Offset, outer)
		if err != nil {
			return nil, nil, err
		}
		n, err := intFromValue(v)
		if err != nil {
			return nil, nil, err
		}
		if n < 0 {
			n = 0
		}
		if n > len(rows) {
			n = len(rows)
		}
		rows = rows[n:]
	}

	if hasExpr(q.Limit) {
		v, err := e.Eval.Eval(ctx, &q.Limit, outer)
		if err != nil {
			return nil, nil, err
		}
		n, err := intFromValue(v)
		if err != nil {
			return nil, nil, err
		}
		if n < 0 {
			n = 0
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}

	return labels, rows, nil
}

func (e *Engine) runSetExpr(ctx context.Context, se *ast.SetExpr, outer *eval.RowContext) ([]string, [][]value.Value, error) {
	if se.Select != nil {
		return e.runSelect(ctx, se.Select, outer)
	}
	if se.SetOp != nil {
		leftLabels, left, err := e.runSetExpr(ctx, se.SetOp.Left, outer)
		if err != nil {
			return nil, nil, err
		}
		_, right, err := e.runSetExpr(ctx, se.SetOp.Right, outer)
		if err != nil {
			return nil, nil, err
		}
		return leftLabels, combineSetOp(se.SetOp.Op, se.SetOp.All, left, right), nil
	}

	rows := make([][]value.Value, len(se.Values))
	for r := range se.Values {
		vals := make([]value.Value, len(se.Values[r]))
		for i := range se.Values[r] {
			v, err := e.Eval.Eval(ctx, &se.Values[r][i], outer)
			if err != nil {
				return nil, nil, err
			}
			vals[i] = v
		}
		rows[r] = vals
	}
	var labels []string
	if len(se.Values) > 0 {
		labels = make([]string, len(se.Values[0]))
		for i := range labels {
			labels[i] = fmt.Sprintf("column%d", i+1)
		}
	}
	return labels, rows, nil
}

// runSelect executes one Select through the full pipeline: join, filter,
// aggregate, having, project, distinct. ORDER BY and
// LIMIT/OFFSET belong to the enclosing Query and are applied by runQuery
// once the whole set expression has been combined.
func (e *Engine) runSelect(ctx context.Context, sel *ast.Select, outer *eval.RowContext) ([]string, [][]value.Value, error) {
	var rows []*eval.RowContext
	var cols []sourceColumns
	var err error
	if sel.From != nil {
		rows, cols, err = e.joinRows(ctx, sel.From)
		if err != nil {
			return nil, nil, err
		}
	} else {
		rows = []*eval.RowContext{{Parent: outer}}
	}

	filtered := make([]*eval.RowContext, 0, len(rows))
	for _, r := range rows {
		ok, err := evalPredicateBool(ctx, e.Eval, sel.Selection, r)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			filtered = append(filtered, r)
		}
	}

	calls := collectSelectAggregates(sel, nil)
	if len(sel.GroupBy) > 0 || len(calls) > 0 {
		filtered, err = e.applyAggregation(ctx, sel, filtered, calls)
		if err != nil {
			return nil, nil, err
		}
	}

	if hasExpr(sel.Having) {
		having := make([]*eval.RowContext, 0, len(filtered))
		for _, r := range filtered {
			ok, err := evalPredicateBool(ctx, e.Eval, sel.Having, r)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				having = append(having, r)
			}
		}
		filtered = having
	}

	projItems := buildProjection(sel, cols)
	labels := make([]string, len(projItems))
	for i, pi := range projItems {
		labels[i] = pi.Label
	}

	out := make([][]value.Value, 0, len(filtered))
	for _, r := range filtered {
		vals := make([]value.Value, len(projItems))
		for i := range projItems {
			v, err := e.Eval.Eval(ctx, &projItems[i].Expr, r)
			if err != nil {
				return nil, nil, err
			}
			vals[i] = v
		}
		out = append(out, vals)
	}

	if sel.Distinct {
		out = distinctRows(out)
	}
	return labels, out, nil
}

// projItem is one resolved projection output: the expression to evaluate
// per row and the label it surfaces under.
type projItem struct {
	Expr  ast.Expr
	Label string
}

// buildProjection expands wildcard SelectItems against cols
// and passes ordinary items through unchanged. The translator guarantees
// every non-wildcard SelectItem already carries a non-empty Alias.
func buildProjection(sel *ast.Select, cols []sourceColumns) []projItem {
	var out []projItem
	for i := range sel.Projection {
		item := &sel.Projection[i]
		if !item.Wildcard {
			out = append(out, projItem{Expr: item.Expr, Label: item.Alias})
			continue
		}
		if item.WildcardOf != "" {
			for _, sc := range cols {
				if sc.Alias == item.WildcardOf {
					out = append(out, expandSourceColumns(sc)...)
				}
			}
			continue
		}
		for _, sc := range cols {
			out = append(out, expandSourceColumns(sc)...)
		}
	}
	return out
}

func expandSourceColumns(sc sourceColumns) []projItem {
	out := make([]projItem, 0, len(sc.Labels))
	for _, l := range sc.Labels {
		out = append(out, projItem{
			Expr:  ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: sc.Alias, CompoundColumn: l},
			Label: l,
		})
	}
	return out
}

// ordinalIndex reports whether e is a bare integer literal, interpreted
// as a 1-based ORDER BY column position.
func ordinalIndex(e ast.Expr) (int, bool) {
	if e.Kind != ast.ExprLiteral || !e.Literal.Kind().IsInt() {
		return 0, false
	}
	f, ok := e.Literal.AsFloat64()
	if !ok {
		return 0, false
	}
	return int(f) - 1, true
}

// sortRows stable-sorts rows in place by orderBy, evaluated against the
// already-projected output row (labels, row) — so ORDER BY sees the same
// columns a client of the result set would. Nulls sort as the
// largest value in either direction: last ascending, first descending.
func (e *Engine) sortRows(goCtx context.Context, labels []string, rows [][]value.Value, orderBy []ast.OrderByExpr) error {
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		for _, ob := range orderBy {
			var vi, vj value.Value
			if idx, ok := ordinalIndex(ob.Expr); ok {
				if idx < 0 || idx >= len(labels) {
					sortErr = &Error{Op: "ColumnIndexOutOfRange", Msg: fmt.Sprintf("ORDER BY position %d is out of range", idx+1)}
					return false
				}
				vi, vj = rows[i][idx], rows[j][idx]
			} else {
				ri := &eval.RowContext{Labels: labels, Row: rows[i]}
				rj := &eval.RowContext{Labels: labels, Row: rows[j]}
				v, err := e.Eval.Eval(goCtx, &ob.Expr, ri)
				if err != nil {
					sortErr = err
					return false
				}
				vi = v
				v, err = e.Eval.Eval(goCtx, &ob.Expr, rj)
				if err != nil {
					sortErr = err
					return false
				}
				vj = v
			}
			c := orderCompare(vi, vj)
			if !ob.Asc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return sortErr
}

func orderCompare(a, b value.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}
	switch value.Compare(a, b) {
	case value.Less:
		return -1
	case value.Greater:
		return 1
	default:
		return 0
	}
}

func distinctRows(rows [][]value.Value) [][]value.Value {
	seen := map[string]bool{}
	out := make([][]value.Value, 0, len(rows))
	for _, r := range rows {
		k := renderKeyValue(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

func countRows(rows [][]value.Value) map[string]int {
	m := map[string]int{}
	for _, r := range rows {
		m[renderKeyValue(r)]++
	}
	return m
}

// combineSetOp implements UNION/INTERSECT/EXCEPT with full multiset ALL
// semantics and DISTINCT (duplicate-free) semantics otherwise.
func combineSetOp(op ast.SetOpKind, all bool, left, right [][]value.Value) [][]value.Value {
	switch op {
	case ast.SetOpUnion:
		out := make([][]value.Value, 0, len(left)+len(right))
		out = append(out, left...)
		out = append(out, right...)
		if !all {
			out = distinctRows(out)
		}
		return out

	case ast.SetOpIntersect:
		if all {
			rightCount := countRows(right)
			var out [][]value.Value
			for _, l := range left {
				k := renderKeyValue(l)
				if rightCount[k] > 0 {
					rightCount[k]--
					out = append(out, l)
				}
			}
			return out
		}
		rightKeys := map[string]bool{}
		for _, r := range right {
			rightKeys[renderKeyValue(r)] = true
		}
		var out [][]value.Value
		seen := map[string]bool{}
		for _, l := range left {
			k := renderKeyValue(l)
			if !rightKeys[k] || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, l)
		}
		return out

	case ast.SetOpExcept:
		if all {
			rightCount := countRows(right)
			var out [][]value.Value
			for _, l := range left {
				k := renderKeyValue(l)
				if rightCount[k] > 0 {
					rightCount[k]--
					continue
				}
				out = append(out, l)
			}
			return out
		}
		rightKeys := map[string]bool{}
		for _, r := range right {
			rightKeys[renderKeyValue(r)] = true
		}
		var out [][]value.Value
		seen := map[string]bool{}
		for _, l := range left {
			k := renderKeyValue(l)
			if rightKeys[k] || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, l)
		}
		return out
	}
	return nil
}

func intFromValue(v value.Value) (int, error) {
	f, ok := v.AsFloat64()
	if !ok {
		return 0, &Error{Op: "IncompatibleDataType", Msg: "LIMIT/OFFSET requires a numeric value"}
	}
	return int(f), nil
}

// buildSelectPayload routes a query's output to PayloadSelectMap when it
// is the single schemaless document column the planner's rewrite leaves
// behind, and to PayloadSelect otherwise.
func buildSelectPayload(labels []string, rows [][]value.Value) Payload {
	if len(labels) == 1 && labels[0] == plan.DocColumn {
		allMapOrNull := true
		for _, r := range rows {
			if k := r[0].Kind(); k != value.KindMap && k != value.KindNull {
				allMapOrNull = false
				break
			}
		}
		if allMapOrNull {
			docs := make([]*value.Map, len(rows))
			for i, r := range rows {
				if r[0].Kind() == value.KindMap {
					docs[i] = r[0].MapOf()
				}
			}
			return Payload{Kind: PayloadSelectMap, Docs: docs}
		}
	}
	return Payload{Kind: PayloadSelect, Labels: labels, Rows: rows}
}

package exec

import (
	"context"

	"emberql/ast"
	"emberql/eval"
	"emberql/value"
)

// joinRows builds the full row-context chain a FROM clause produces: the
// base table's rows, progressively joined against each subsequent
// TableFactor per its Join Kind/On/Hash annotation. It
// returns alongside it the ordered column descriptor for every source, in
// FROM-clause declaration order, for projection's wildcard expansion.
func (e *Engine) joinRows(ctx context.Context, from *ast.TableWithJoins) ([]*eval.RowContext, []sourceColumns, error) {
	baseCols, left, err := e.sourceRows(ctx, from.Base)
	if err != nil {
		return nil, nil, err
	}
	cols := []sourceColumns{baseCols}
	for i := range from.Joins {
		j := &from.Joins[i]
		rightCols, right, err := e.sourceRows(ctx, j.Table)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, rightCols)
		if j.Hash != nil {
			left, err = e.hashJoin(ctx, left, right, j, rightCols)
		} else {
			left, err = e.nestedLoopJoin(ctx, left, right, j.On, j.Kind, rightCols)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return left, cols, nil
}

func paddedContext(cols sourceColumns) *eval.RowContext {
	return &eval.RowContext{Alias: cols.Alias, Labels: cols.Labels, Padded: true}
}

// chain links right underneath left so the combined context's alias
// resolves to right directly and falls through to left (and everything
// left is itself chained to) for any other qualifier.
func chain(right *eval.RowContext, left *eval.RowContext) *eval.RowContext {
	joined := *right
	joined.Parent = left
	return &joined
}

func (e *Engine) nestedLoopJoin(goCtx context.Context, left, right []*eval.RowContext, on ast.Expr, kind ast.JoinKind, padCols sourceColumns) ([]*eval.RowContext, error) {
	var out []*eval.RowContext
	for _, l := range left {
		matched := false
		for _, r := range right {
			combined := chain(r, l)
			ok, err := evalPredicateBool(goCtx, e.Eval, on, combined)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				out = append(out, combined)
			}
		}
		if !matched && kind == ast.JoinLeftOuter {
			out = append(out, chain(paddedContext(padCols), l))
		}
	}
	return out, nil
}

// hashJoin implements the planner/translator's hash-executor hint: the right side is bucketed once by ValueExpr, the left side
// probes by KeyExpr, and any residual (non-equi) predicate in Where is
// evaluated only against the probe-matched pairs. A Null key never
// matches a bucket, mirroring SQL equi-join semantics under three-valued
// logic (Null = Null is unknown, never true).
func (e *Engine) hashJoin(goCtx context.Context, left, right []*eval.RowContext, j *ast.Join, padCols sourceColumns) ([]*eval.RowContext, error) {
	buckets := map[string][]*eval.RowContext{}
	for _, r := range right {
		v, err := e.Eval.Eval(goCtx, &j.Hash.ValueExpr, r)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			continue
		}
		key := hashKeyString(v)
		buckets[key] = append(buckets[key], r)
	}

	var out []*eval.RowContext
	for _, l := range left {
		kv, err := e.Eval.Eval(goCtx, &j.Hash.KeyExpr, l)
		if err != nil {
			return nil, err
		}
		matched := false
		if !kv.IsNull() {
			for _, r := range buckets[hashKeyString(kv)] {
				combined := chain(r, l)
				ok, err := evalPredicateBool(goCtx, e.Eval, j.Hash.Where, combined)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					out = append(out, combined)
				}
			}
		}
		if !matched && j.Kind == ast.JoinLeftOuter {
			out = append(out, chain(paddedContext(padCols), l))
		}
	}
	return out, nil
}

// hashKeyString renders a bucket key from an equi-join key value. Using
// Value.String() rather than the byte-order-preserving Key encoding is
// deliberate: a hash-join bucket only needs equality, not ordering, and
// String() already normalizes same-magnitude values of different integer
// widths identically (e.g. an I32 5 and an I64 5 both render "5").
func hashKeyString(v value.Value) string {
	return v.String()
}

package exec

import (
	"context"
	"fmt"

	"emberql/ast"
	"emberql/eval"
	"emberql/schema"
	"emberql/storage"
	"emberql/value"
)

// hasExpr reports whether e carries an actual clause, as opposed to the
// zero-value Expr that marks an absent optional clause (no WHERE, no ON,
// no hash-executor WHERE). The zero Expr is ExprLiteral over the zero
// Value, whose Kind is KindNull — the same convention package plan's
// index-selection pass already relies on (splitConjuncts).
func hasExpr(e ast.Expr) bool {
	return !(e.Kind == ast.ExprLiteral && e.Literal.IsNull())
}

// evalPredicateBool evaluates a WHERE/ON/HAVING-shaped predicate, treating
// an absent clause as always-true and a Null result as false.
func evalPredicateBool(goCtx context.Context, ev *eval.Evaluator, e ast.Expr, rc *eval.RowContext) (bool, error) {
	if !hasExpr(e) {
		return true, nil
	}
	v, err := ev.Eval(goCtx, &e, rc)
	if err != nil {
		return false, err
	}
	b, _ := value.ToTriBool(v)
	return b != nil && *b, nil
}

func columnNames(t *schema.Table) []string {
	if t.Schemaless() {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func storageIndexOp(op ast.IndexOp) storage.IndexOp {
	switch op {
	case ast.IndexLt:
		return storage.IndexLt
	case ast.IndexLtEq:
		return storage.IndexLtEq
	case ast.IndexGt:
		return storage.IndexGt
	case ast.IndexGtEq:
		return storage.IndexGtEq
	default:
		return storage.IndexEq
	}
}

func rowContextFor(t *schema.Table, alias string, row storage.Row) *eval.RowContext {
	if row.Schemaless() {
		return &eval.RowContext{Alias: alias, Doc: row.Doc}
	}
	return &eval.RowContext{Alias: alias, Labels: columnNames(t), Row: row.Values}
}

// sourceColumns describes one FROM-clause source's alias and column
// labels, in declaration order, used to expand `*`/`alias.*` wildcards
// during projection. Labels is nil for a schemaless source
// (its wildcard is rewritten to the `doc` column by the planner already).
type sourceColumns struct {
	Alias  string
	Labels []string
}

// sourceRows materializes every row a single FROM/JOIN table factor
// produces — a recursive run of a derived subquery, or a full/indexed
// scan of a base table — alongside the column labels that
// produced it, so wildcard expansion never has to re-derive a derived
// table's shape separately from actually running it. The reference
// engine materializes rather than streams past this point, matching // allowance for backends that "cannot stream" — see DESIGN.md.
func (e *Engine) sourceRows(ctx context.Context, tf *ast.TableFactor) (sourceColumns, []*eval.RowContext, error) {
	alias := tf.Alias

	if tf.Derived != nil {
		labels, rows, err := e.runQuery(ctx, tf.Derived, nil)
		if err != nil {
			return sourceColumns{}, nil, err
		}
		out := make([]*eval.RowContext, len(rows))
		for i, r := range rows {
			out[i] = &eval.RowContext{Alias: alias, Labels: labels, Row: r}
		}
		return sourceColumns{Alias: alias, Labels: labels}, out, nil
	}

	t, ok := e.schemas.Schema(tf.Name)
	if !ok {
		return sourceColumns{}, nil, errTableNotFoundDuringFetch(tf.Name)
	}
	if alias == "" {
		alias = tf.Name
	}
	cols := sourceColumns{Alias: alias, Labels: columnNames(t)}

	var stream storage.RowStream
	var err error
	if tf.Index != nil {
		v, everr := e.Eval.Eval(ctx, &tf.Index.Value, nil)
		if everr != nil {
			return sourceColumns{}, nil, everr
		}
		idx, ok := e.Store.(storage.Index)
		if !ok {
			return sourceColumns{}, nil, &Error{Op: "UnsupportedFeature", Msg: "storage backend does not support indexed scans"}
		}
		stream, err = idx.ScanIndexedData(ctx, tf.Name, tf.Index.IndexName, storageIndexOp(tf.Index.Operator), v)
	} else {
		stream, err = e.Store.ScanData(ctx, tf.Name)
	}
	if err != nil {
		return sourceColumns{}, nil, err
	}
	defer stream.Close()

	var out []*eval.RowContext
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return sourceColumns{}, nil, err
		}
		if !ok {
			break
		}
		out = append(out, rowContextFor(t, alias, kr.Row))
	}
	return cols, out, nil
}

func renderKeyValue(vs []value.Value) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += "\x1f"
		}
		out += fmt.Sprintf("%d:%s", v.Kind(), v.String())
	}
	return out
}

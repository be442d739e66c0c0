package eval

import (
	"context"

	"emberql/ast"
	"emberql/fn"
	"emberql/value"
)

// SubqueryRunner executes a Query embedded in an expression (EXISTS, IN,
// scalar subquery) and streams back single-column or multi-column rows.
// The executor (package exec) implements this; eval depends only on the
// interface to avoid an eval<->exec import cycle, since exec itself calls
// back into eval for filter/projection expressions.
type SubqueryRunner interface {
	RunSubquery(ctx context.Context, q *ast.Query, outer *RowContext) (RowIter, error)
}

// RowIter is the minimal row-at-a-time surface the evaluator needs from a
// subquery's result stream.
type RowIter interface {
	Next(ctx context.Context) ([]value.Value, bool, error)
	Close() error
}

// Evaluator evaluates AST expressions in contextual or stateless mode.
// It is stateless itself and safe to share across statements.
type Evaluator struct {
	Functions *fn.Registry
	Runner    SubqueryRunner
}

func New(functions *fn.Registry, runner SubqueryRunner) *Evaluator {
	return &Evaluator{Functions: functions, Runner: runner}
}

// Eval evaluates e against ctx. ctx == nil means stateless mode: only
// literals, function calls over literals, and non-correlated subqueries
// are permitted; everything else (identifiers, aggregate refs)
// fails with StatelessModeViolation / ValueNotFound.
func (ev *Evaluator) Eval(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	switch e.Kind {
	case ast.ExprLiteral:
		return e.Literal, nil

	case ast.ExprIdentifier:
		if ctx == nil {
			return value.Value{}, errStatelessViolation("identifier " + e.Ident)
		}
		return ctx.Lookup("", e.Ident)

	case ast.ExprCompoundIdentifier:
		if ctx == nil {
			return value.Value{}, errStatelessViolation("identifier " + e.CompoundAlias + "." + e.CompoundColumn)
		}
		return ctx.Lookup(e.CompoundAlias, e.CompoundColumn)

	case ast.ExprNested:
		return ev.Eval(goCtx, e.Inner, ctx)

	case ast.ExprBinaryOp:
		return ev.evalBinary(goCtx, e, ctx)

	case ast.ExprUnaryOp:
		return ev.evalUnary(goCtx, e, ctx)

	case ast.ExprBetween:
		return ev.evalBetween(goCtx, e, ctx)

	case ast.ExprInList:
		return ev.evalInList(goCtx, e, ctx)

	case ast.ExprInSubquery:
		return ev.evalInSubquery(goCtx, e, ctx)

	case ast.ExprExists:
		return ev.evalExists(goCtx, e, ctx)

	case ast.ExprSubquery:
		return ev.evalScalarSubquery(goCtx, e, ctx)

	case ast.ExprCase:
		return ev.evalCase(goCtx, e, ctx)

	case ast.ExprTypedString:
		return value.Cast(value.Text(e.TypedStringVal), e.TypedStringType)

	case ast.ExprCast:
		v, err := ev.Eval(goCtx, e.CastExpr, ctx)
		if err != nil {
			return value.Value{}, err
		}
		return value.Cast(v, e.CastType)

	case ast.ExprArrayIndex:
		return ev.evalArrayIndex(goCtx, e, ctx)

	case ast.ExprInterval:
		return ev.evalInterval(e)

	case ast.ExprFunctionCall:
		return ev.evalFuncCall(goCtx, e, ctx)

	case ast.ExprAggregateRef:
		if ctx == nil {
			return value.Value{}, errStatelessViolation("aggregate reference")
		}
		label := e.FuncName
		if v, ok := ctx.Aggregate(label); ok {
			return v, nil
		}
		return value.Value{}, errValueNotFound("", label)

	default:
		return value.Value{}, &Error{Op: "UnsupportedExpression", Msg: "unknown expression kind"}
	}
}

func (ev *Evaluator) evalBinary(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	// AND/OR short-circuit under Kleene logic.
	if e.BinOp == ast.OpAnd || e.BinOp == ast.OpOr {
		l, err := ev.Eval(goCtx, e.Left, ctx)
		if err != nil {
			return value.Value{}, err
		}
		lb, _ := value.ToTriBool(l)
		if e.BinOp == ast.OpAnd && lb != nil && !*lb {
			return value.Bool(false), nil
		}
		if e.BinOp == ast.OpOr && lb != nil && *lb {
			return value.Bool(true), nil
		}
		r, err := ev.Eval(goCtx, e.Right, ctx)
		if err != nil {
			return value.Value{}, err
		}
		rb, _ := value.ToTriBool(r)
		if e.BinOp == ast.OpAnd {
			return value.FromTriBool(value.And(lb, rb)), nil
		}
		return value.FromTriBool(value.Or(lb, rb)), nil
	}

	l, err := ev.Eval(goCtx, e.Left, ctx)
	if err != nil {
		return value.Value{}, err
	}
	r, err := ev.Eval(goCtx, e.Right, ctx)
	if err != nil {
		return value.Value{}, err
	}
	return applyBinary(e.BinOp, l, r)
}

func applyBinary(op ast.BinaryOp, l, r value.Value) (value.Value, error) {
	switch op {
	case ast.OpPlus:
		return value.Add(l, r)
	case ast.OpMinus:
		return value.Sub(l, r)
	case ast.OpMultiply:
		return value.Mul(l, r)
	case ast.OpDivide:
		return value.Div(l, r)
	case ast.OpModulo:
		return value.Mod(l, r)
	case ast.OpConcat:
		return value.Concat(l, r)
	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		return compareOp(op, l, r), nil
	case ast.OpLike, ast.OpILike:
		return fn.Like(l, r, op == ast.OpILike)
	case ast.OpBitwiseAnd, ast.OpBitwiseOr, ast.OpBitwiseXor:
		return fn.BitwiseBinary(op == ast.OpBitwiseAnd, op == ast.OpBitwiseOr, l, r)
	default:
		return value.Value{}, &Error{Op: "UnsupportedBinaryOperation", Msg: "unknown operator"}
	}
}

func compareOp(op ast.BinaryOp, l, r value.Value) value.Value {
	if l.IsNull() || r.IsNull() {
		return value.Null()
	}
	ord := value.Compare(l, r)
	if ord == value.Incomparable {
		return value.Null()
	}
	switch op {
	case ast.OpEq:
		return value.Bool(ord == value.Equal)
	case ast.OpNotEq:
		return value.Bool(ord != value.Equal)
	case ast.OpLt:
		return value.Bool(ord == value.Less)
	case ast.OpLtEq:
		return value.Bool(ord == value.Less || ord == value.Equal)
	case ast.OpGt:
		return value.Bool(ord == value.Greater)
	default: // OpGtEq
		return value.Bool(ord == value.Greater || ord == value.Equal)
	}
}

func (ev *Evaluator) evalUnary(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	v, err := ev.Eval(goCtx, e.Operand, ctx)
	if err != nil {
		return value.Value{}, err
	}
	switch e.UnOp {
	case ast.OpNegate:
		return value.Sub(value.I64(0), v)
	case ast.OpNot:
		b, _ := value.ToTriBool(v)
		return value.FromTriBool(value.Not(b)), nil
	case ast.OpFactorial:
		return value.Factorial(v)
	case ast.OpBitwiseNot:
		return value.BitwiseNot(v)
	case ast.OpIsNull:
		// IS NULL inspects Null itself rather than propagating it like
		// every other operator does.
		return value.Bool(v.IsNull()), nil
	default:
		return value.Value{}, &Error{Op: "UnsupportedUnaryOperation", Msg: "unknown operator"}
	}
}

func (ev *Evaluator) evalBetween(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	v, err := ev.Eval(goCtx, e.BetweenExpr, ctx)
	if err != nil {
		return value.Value{}, err
	}
	lo, err := ev.Eval(goCtx, e.BetweenLow, ctx)
	if err != nil {
		return value.Value{}, err
	}
	hi, err := ev.Eval(goCtx, e.BetweenHigh, ctx)
	if err != nil {
		return value.Value{}, err
	}
	geLo := compareOp(ast.OpGtEq, v, lo)
	leHi := compareOp(ast.OpLtEq, v, hi)
	lb, _ := value.ToTriBool(geLo)
	hb, _ := value.ToTriBool(leHi)
	result := value.FromTriBool(value.And(lb, hb))
	if e.BetweenNot {
		b, _ := value.ToTriBool(result)
		return value.FromTriBool(value.Not(b)), nil
	}
	return result, nil
}

// evalInList stops at the first match.
func (ev *Evaluator) evalInList(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	v, err := ev.Eval(goCtx, e.InExpr, ctx)
	if err != nil {
		return value.Value{}, err
	}
	sawNull := v.IsNull()
	found := false
	for i := range e.InList {
		item, err := ev.Eval(goCtx, &e.InList[i], ctx)
		if err != nil {
			return value.Value{}, err
		}
		if item.IsNull() {
			sawNull = true
			continue
		}
		if value.Compare(v, item) == value.Equal {
			found = true
			break
		}
	}
	result := resolveInResult(found, sawNull)
	if e.InNot {
		b, _ := value.ToTriBool(result)
		return value.FromTriBool(value.Not(b)), nil
	}
	return result, nil
}

func resolveInResult(found, sawNull bool) value.Value {
	if found {
		return value.Bool(true)
	}
	if sawNull {
		return value.Null()
	}
	return value.Bool(false)
}

func (ev *Evaluator) evalInSubquery(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	v, err := ev.Eval(goCtx, e.InExpr, ctx)
	if err != nil {
		return value.Value{}, err
	}
	iter, err := ev.Runner.RunSubquery(goCtx, e.InSub, ctx)
	if err != nil {
		return value.Value{}, err
	}
	defer iter.Close()
	sawNull := v.IsNull()
	found := false
	for {
		row, ok, err := iter.Next(goCtx)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			break
		}
		if len(row) == 0 {
			continue
		}
		if row[0].IsNull() {
			sawNull = true
			continue
		}
		if value.Compare(v, row[0]) == value.Equal {
			found = true
			break
		}
	}
	result := resolveInResult(found, sawNull)
	if e.InNot {
		b, _ := value.ToTriBool(result)
		return value.FromTriBool(value.Not(b)), nil
	}
	return result, nil
}

// evalExists stops after the first yielded row.
func (ev *Evaluator) evalExists(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	iter, err := ev.Runner.RunSubquery(goCtx, e.ExistsSub, ctx)
	if err != nil {
		return value.Value{}, err
	}
	defer iter.Close()
	_, ok, err := iter.Next(goCtx)
	if err != nil {
		return value.Value{}, err
	}
	result := ok
	if e.ExistsNot {
		result = !result
	}
	return value.Bool(result), nil
}

func (ev *Evaluator) evalScalarSubquery(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	iter, err := ev.Runner.RunSubquery(goCtx, e.SubqueryOf, ctx)
	if err != nil {
		return value.Value{}, err
	}
	defer iter.Close()
	row, ok, err := iter.Next(goCtx)
	if err != nil {
		return value.Value{}, err
	}
	if !ok || len(row) == 0 {
		return value.Null(), nil
	}
	return row[0], nil
}

// evalCase evaluates the first matching branch only.
func (ev *Evaluator) evalCase(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	var operand value.Value
	hasOperand := e.CaseOperand != nil
	if hasOperand {
		v, err := ev.Eval(goCtx, e.CaseOperand, ctx)
		if err != nil {
			return value.Value{}, err
		}
		operand = v
	}
	for _, w := range e.CaseWhens {
		cond, err := ev.Eval(goCtx, &w.Condition, ctx)
		if err != nil {
			return value.Value{}, err
		}
		matched := false
		if hasOperand {
			matched = !cond.IsNull() && !operand.IsNull() && value.Compare(operand, cond) == value.Equal
		} else {
			b, _ := value.ToTriBool(cond)
			matched = b != nil && *b
		}
		if matched {
			return ev.Eval(goCtx, &w.Result, ctx)
		}
	}
	if e.CaseElse != nil {
		return ev.Eval(goCtx, e.CaseElse, ctx)
	}
	return value.Null(), nil
}

func (ev *Evaluator) evalArrayIndex(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	base, err := ev.Eval(goCtx, e.ArrayBase, ctx)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := ev.Eval(goCtx, e.ArrayIndex, ctx)
	if err != nil {
		return value.Value{}, err
	}
	v, err := fn.Unwrap(base, idx)
	if err != nil {
		return value.Value{}, err
	}
	if e.ArrayLong && v.Kind() != value.KindNull {
		return value.Text(v.String()), nil
	}
	return v, nil
}

func (ev *Evaluator) evalInterval(e *ast.Expr) (value.Value, error) {
	return fn.ParseInterval(e.IntervalLiteral, e.IntervalUnit)
}

func (ev *Evaluator) evalFuncCall(goCtx context.Context, e *ast.Expr, ctx *RowContext) (value.Value, error) {
	args := make([]value.Value, len(e.FuncArgs))
	for i := range e.FuncArgs {
		v, err := ev.Eval(goCtx, &e.FuncArgs[i], ctx)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}
	return ev.Functions.Call(e.FuncName, args)
}

package translate

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	driver "github.com/pingcap/tidb/pkg/parser/test_driver"

	eastl "emberql/ast"
	"emberql/value"
)

var binOps = map[opcode.Op]eastl.BinaryOp{
	opcode.Plus:    eastl.OpPlus,
	opcode.Minus:   eastl.OpMinus,
	opcode.Mul:     eastl.OpMultiply,
	opcode.Div:     eastl.OpDivide,
	opcode.Mod:     eastl.OpModulo,
	opcode.EQ:      eastl.OpEq,
	opcode.NE:      eastl.OpNotEq,
	opcode.LT:      eastl.OpLt,
	opcode.LE:      eastl.OpLtEq,
	opcode.GT:      eastl.OpGt,
	opcode.GE:      eastl.OpGtEq,
	opcode.LogicAnd: eastl.OpAnd,
	opcode.LogicOr:  eastl.OpOr,
	opcode.And:      eastl.OpBitwiseAnd,
	opcode.Or:       eastl.OpBitwiseOr,
	opcode.Xor:      eastl.OpBitwiseXor,
}

// translateExpr folds the parser's expression tree into the engine's flat
// Expr union, rejecting any node type the switch below does not handle.
func (t *Translator) translateExpr(n ast.ExprNode) (eastl.Expr, error) {
	switch e := n.(type) {
	case *driver.ValueExpr:
		return eastl.Expr{Kind: eastl.ExprLiteral, Literal: datumToValue(e)}, nil

	case *ast.ColumnNameExpr:
		if e.Name.Table.O != "" {
			return eastl.Expr{
				Kind:           eastl.ExprCompoundIdentifier,
				CompoundAlias:  e.Name.Table.O,
				CompoundColumn: e.Name.Name.O,
			}, nil
		}
		return eastl.Expr{Kind: eastl.ExprIdentifier, Ident: e.Name.Name.O}, nil

	case *ast.ParenthesesExpr:
		inner, err := t.translateExpr(e.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprNested, Inner: &inner}, nil

	case *ast.BinaryOperationExpr:
		op, ok := binOps[e.Op]
		if !ok {
			return eastl.Expr{}, errUnsupportedExpr(render(n))
		}
		l, err := t.translateExpr(e.L)
		if err != nil {
			return eastl.Expr{}, err
		}
		r, err := t.translateExpr(e.R)
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprBinaryOp, BinOp: op, Left: &l, Right: &r}, nil

	case *ast.UnaryOperationExpr:
		var op eastl.UnaryOp
		switch e.Op {
		case opcode.Minus:
			op = eastl.OpNegate
		case opcode.Not, opcode.Not2:
			op = eastl.OpNot
		case opcode.BitNeg:
			op = eastl.OpBitwiseNot
		default:
			return eastl.Expr{}, errUnsupportedExpr(render(n))
		}
		v, err := t.translateExpr(e.V)
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprUnaryOp, UnOp: op, Operand: &v}, nil

	case *ast.IsNullExpr:
		inner, err := t.translateExpr(e.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		isNull := eastl.Expr{Kind: eastl.ExprUnaryOp, UnOp: eastl.OpIsNull, Operand: &inner}
		if e.Not {
			return eastl.Expr{Kind: eastl.ExprUnaryOp, UnOp: eastl.OpNot, Operand: &isNull}, nil
		}
		return isNull, nil

	case *ast.BetweenExpr:
		expr, err := t.translateExpr(e.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		lo, err := t.translateExpr(e.Left)
		if err != nil {
			return eastl.Expr{}, err
		}
		hi, err := t.translateExpr(e.Right)
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprBetween, BetweenExpr: &expr, BetweenLow: &lo, BetweenHigh: &hi, BetweenNot: e.Not}, nil

	case *ast.PatternInExpr:
		expr, err := t.translateExpr(e.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		if e.Sel != nil {
			q, err := t.translateSubquery(e.Sel.(*ast.SubqueryExpr))
			if err != nil {
				return eastl.Expr{}, err
			}
			return eastl.Expr{Kind: eastl.ExprInSubquery, InExpr: &expr, InSub: q, InNot: e.Not}, nil
		}
		list := make([]eastl.Expr, 0, len(e.List))
		for _, item := range e.List {
			v, err := t.translateExpr(item)
			if err != nil {
				return eastl.Expr{}, err
			}
			list = append(list, v)
		}
		return eastl.Expr{Kind: eastl.ExprInList, InExpr: &expr, InList: list, InNot: e.Not}, nil

	case *ast.PatternLikeOrIlikeExpr:
		expr, err := t.translateExpr(e.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		pat, err := t.translateExpr(e.Pattern)
		if err != nil {
			return eastl.Expr{}, err
		}
		op := eastl.OpLike
		if !e.IsLike {
			op = eastl.OpILike
		}
		bin := eastl.Expr{Kind: eastl.ExprBinaryOp, BinOp: op, Left: &expr, Right: &pat}
		if e.Not {
			return eastl.Expr{Kind: eastl.ExprUnaryOp, UnOp: eastl.OpNot, Operand: &bin}, nil
		}
		return bin, nil

	case *ast.ExistsSubqueryExpr:
		q, err := t.translateSubquery(e.Sel.(*ast.SubqueryExpr))
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprExists, ExistsSub: q, ExistsNot: e.Not}, nil

	case *ast.SubqueryExpr:
		q, err := t.translateSubquery(e)
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprSubquery, SubqueryOf: q}, nil

	case *ast.CaseExpr:
		return t.translateCase(e)

	case *ast.FuncCastExpr:
		inner, err := t.translateExpr(e.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		return eastl.Expr{Kind: eastl.ExprCast, CastExpr: &inner, CastType: NormalizeDataType(e.Tp.String())}, nil

	case *ast.FuncCallExpr:
		return t.translateFuncCall(e)

	case *ast.AggregateFuncExpr:
		args := make([]eastl.Expr, 0, len(e.Args))
		for _, a := range e.Args {
			v, err := t.translateExpr(a)
			if err != nil {
				return eastl.Expr{}, err
			}
			args = append(args, v)
		}
		return eastl.Expr{
			Kind:         eastl.ExprFunctionCall,
			FuncName:     strings.ToUpper(e.F),
			FuncArgs:     args,
			FuncDistinct: e.Distinct,
		}, nil

	default:
		return eastl.Expr{}, errUnsupportedExpr(render(n))
	}
}

func (t *Translator) translateCase(e *ast.CaseExpr) (eastl.Expr, error) {
	out := eastl.Expr{Kind: eastl.ExprCase}
	if e.Value != nil {
		v, err := t.translateExpr(e.Value)
		if err != nil {
			return eastl.Expr{}, err
		}
		out.CaseOperand = &v
	}
	for _, w := range e.WhenClauses {
		cond, err := t.translateExpr(w.Expr)
		if err != nil {
			return eastl.Expr{}, err
		}
		res, err := t.translateExpr(w.Result)
		if err != nil {
			return eastl.Expr{}, err
		}
		out.CaseWhens = append(out.CaseWhens, eastl.CaseWhen{Condition: cond, Result: res})
	}
	if e.ElseClause != nil {
		el, err := t.translateExpr(e.ElseClause)
		if err != nil {
			return eastl.Expr{}, err
		}
		out.CaseElse = &el
	}
	return out, nil
}

func (t *Translator) translateFuncCall(e *ast.FuncCallExpr) (eastl.Expr, error) {
	name := strings.ToUpper(e.FnName.O)
	args := make([]eastl.Expr, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := t.translateExpr(a)
		if err != nil {
			return eastl.Expr{}, err
		}
		args = append(args, v)
	}
	return eastl.Expr{Kind: eastl.ExprFunctionCall, FuncName: name, FuncArgs: args}, nil
}

func (t *Translator) translateSubquery(e *ast.SubqueryExpr) (*eastl.Query, error) {
	switch sel := e.Query.(type) {
	case *ast.SelectStmt:
		return t.translateSelectAsQuery(sel)
	case *ast.SetOprStmt:
		body, err := t.translateSetOprBody(sel)
		if err != nil {
			return nil, err
		}
		return &eastl.Query{Body: body}, nil
	default:
		return nil, errUnsupportedExpr(render(e))
	}
}

// datumToValue converts a literal parsed by the test_driver value-expr
// extension (teacher and pack both import it blank for this purpose) into
// the engine's Value.
func datumToValue(e *driver.ValueExpr) value.Value {
	d := e.Datum
	switch d.Kind() {
	case driver.KindNull:
		return value.Null()
	case driver.KindInt64:
		return value.I64(d.GetInt64())
	case driver.KindUint64:
		return value.U64(d.GetUint64())
	case driver.KindFloat32:
		return value.F32(d.GetFloat32())
	case driver.KindFloat64:
		return value.F64(d.GetFloat64())
	case driver.KindString, driver.KindBytes:
		return value.Text(d.GetString())
	case driver.KindMysqlDecimal:
		dec, err := value.ParseDecimalLiteral(d.GetMysqlDecimal().String())
		if err != nil {
			return value.Text(d.GetMysqlDecimal().String())
		}
		return dec
	default:
		return value.Text(d.GetString())
	}
}

package mysqlstore

import (
	"encoding/json"
	"fmt"

	"emberql/ast"
	"emberql/value"
)

// exprWire is the JSON-serializable shape of an ast.Expr used to persist a
// column's DEFAULT expression and an index's key expression in the
// emberql_schemas catalog table. It covers the expression shapes those two
// positions actually take in practice — literals, identifiers, nested
// binary/unary arithmetic, casts and function calls (e.g. `DEFAULT NOW()`,
// `CREATE INDEX ... (UPPER(name))`) — rather than the full AST. Subqueries,
// CASE, EXISTS and joins never appear in a DEFAULT or a single-column index
// expression, so they are intentionally not represented.
type exprWire struct {
	Kind  string     `json:"kind"`
	Lit   *litWire   `json:"lit,omitempty"`
	Ident string     `json:"ident,omitempty"`
	Alias string     `json:"alias,omitempty"`
	Col   string     `json:"col,omitempty"`
	Inner *exprWire  `json:"inner,omitempty"`
	Op    uint8      `json:"op,omitempty"`
	Left  *exprWire  `json:"left,omitempty"`
	Right *exprWire  `json:"right,omitempty"`
	Operand *exprWire `json:"operand,omitempty"`
	CastTy  uint8     `json:"cast_ty,omitempty"`
	Func    string    `json:"func,omitempty"`
	Args    []exprWire `json:"args,omitempty"`
}

type litWire struct {
	Kind uint8  `json:"kind"`
	Text string `json:"text"` // v.String(), reparsed by kind on decode
}

func encodeExpr(e *ast.Expr) (*exprWire, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case ast.ExprLiteral:
		return &exprWire{Kind: "literal", Lit: &litWire{Kind: uint8(e.Literal.Kind()), Text: e.Literal.String()}}, nil
	case ast.ExprIdentifier:
		return &exprWire{Kind: "ident", Ident: e.Ident}, nil
	case ast.ExprCompoundIdentifier:
		return &exprWire{Kind: "compound", Alias: e.CompoundAlias, Col: e.CompoundColumn}, nil
	case ast.ExprNested:
		inner, err := encodeExpr(e.Inner)
		if err != nil {
			return nil, err
		}
		return &exprWire{Kind: "nested", Inner: inner}, nil
	case ast.ExprBinaryOp:
		left, err := encodeExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return &exprWire{Kind: "binop", Op: uint8(e.BinOp), Left: left, Right: right}, nil
	case ast.ExprUnaryOp:
		operand, err := encodeExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return &exprWire{Kind: "unop", Op: uint8(e.UnOp), Operand: operand}, nil
	case ast.ExprCast:
		inner, err := encodeExpr(e.CastExpr)
		if err != nil {
			return nil, err
		}
		return &exprWire{Kind: "cast", Inner: inner, CastTy: uint8(e.CastType)}, nil
	case ast.ExprFunctionCall:
		args := make([]exprWire, 0, len(e.FuncArgs))
		for i := range e.FuncArgs {
			w, err := encodeExpr(&e.FuncArgs[i])
			if err != nil {
				return nil, err
			}
			args = append(args, *w)
		}
		return &exprWire{Kind: "call", Func: e.FuncName, Args: args}, nil
	default:
		return nil, fmt.Errorf("mysqlstore: expression kind %v is not representable as a column default or index expression", e.Kind)
	}
}

func decodeExpr(w *exprWire) (*ast.Expr, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "literal":
		v, err := litFromWire(w.Lit)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprLiteral, Literal: v}, nil
	case "ident":
		return &ast.Expr{Kind: ast.ExprIdentifier, Ident: w.Ident}, nil
	case "compound":
		return &ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: w.Alias, CompoundColumn: w.Col}, nil
	case "nested":
		inner, err := decodeExpr(w.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprNested, Inner: inner}, nil
	case "binop":
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprBinaryOp, BinOp: ast.BinaryOp(w.Op), Left: left, Right: right}, nil
	case "unop":
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprUnaryOp, UnOp: ast.UnaryOp(w.Op), Operand: operand}, nil
	case "cast":
		inner, err := decodeExpr(w.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprCast, CastExpr: inner, CastType: value.Kind(w.CastTy)}, nil
	case "call":
		args := make([]ast.Expr, 0, len(w.Args))
		for i := range w.Args {
			e, err := decodeExpr(&w.Args[i])
			if err != nil {
				return nil, err
			}
			args = append(args, *e)
		}
		return &ast.Expr{Kind: ast.ExprFunctionCall, FuncName: w.Func, FuncArgs: args}, nil
	default:
		return nil, fmt.Errorf("mysqlstore: unknown persisted expression kind %q", w.Kind)
	}
}

func litFromWire(l *litWire) (value.Value, error) {
	if l == nil {
		return value.Null(), nil
	}
	k := value.Kind(l.Kind)
	switch k {
	case value.KindNull:
		return value.Null(), nil
	case value.KindBool:
		return value.Bool(l.Text == "true"), nil
	case value.KindText:
		return value.Text(l.Text), nil
	case value.KindI64, value.KindI32, value.KindI16, value.KindI8, value.KindI128:
		var i int64
		if _, err := fmt.Sscanf(l.Text, "%d", &i); err != nil {
			return value.Value{}, err
		}
		return value.I64(i), nil
	case value.KindDecimal:
		return value.ParseDecimalLiteral(l.Text)
	default:
		return value.Text(l.Text), nil
	}
}

func marshalExprPtr(e *ast.Expr) ([]byte, error) {
	w, err := encodeExpr(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func unmarshalExprPtr(b []byte) (*ast.Expr, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var w exprWire
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	return decodeExpr(&w)
}

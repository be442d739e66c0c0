package mysqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/ast"
	"emberql/value"
)

func TestExprCodecLiteral(t *testing.T) {
	e := &ast.Expr{Kind: ast.ExprLiteral, Literal: value.I64(42)}
	b, err := marshalExprPtr(e)
	require.NoError(t, err)

	got, err := unmarshalExprPtr(b)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ast.ExprLiteral, got.Kind)
	assert.Equal(t, value.Equal, value.Compare(value.I64(42), got.Literal))
}

func TestExprCodecFunctionCall(t *testing.T) {
	e := &ast.Expr{
		Kind:     ast.ExprFunctionCall,
		FuncName: "NOW",
	}
	b, err := marshalExprPtr(e)
	require.NoError(t, err)

	got, err := unmarshalExprPtr(b)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NOW", got.FuncName)
}

func TestExprCodecBinaryOp(t *testing.T) {
	e := &ast.Expr{
		Kind:  ast.ExprBinaryOp,
		BinOp: ast.OpPlus,
		Left:  &ast.Expr{Kind: ast.ExprIdentifier, Ident: "x"},
		Right: &ast.Expr{Kind: ast.ExprLiteral, Literal: value.I64(1)},
	}
	b, err := marshalExprPtr(e)
	require.NoError(t, err)

	got, err := unmarshalExprPtr(b)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ast.ExprBinaryOp, got.Kind)
	assert.Equal(t, ast.OpPlus, got.BinOp)
	assert.Equal(t, "x", got.Left.Ident)
}

func TestExprCodecNilRoundTrips(t *testing.T) {
	b, err := marshalExprPtr(nil)
	require.NoError(t, err)

	got, err := unmarshalExprPtr(b)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExprCodecUnrepresentableKind(t *testing.T) {
	e := &ast.Expr{Kind: ast.ExprSubquery}
	_, err := encodeExpr(e)
	assert.Error(t, err)
}

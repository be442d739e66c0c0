package ast

import (
	"testing"

	"emberql/value"

	"github.com/stretchr/testify/assert"
)

type renameVisitor struct{ from, to string }

func (r *renameVisitor) VisitExpr(e *Expr) {
	if e.Kind == ExprIdentifier && e.Ident == r.from {
		e.Ident = r.to
	}
}

func TestWalkRewritesPostOrder(t *testing.T) {
	e := &Expr{
		Kind: ExprBinaryOp,
		BinOp: OpPlus,
		Left:  &Expr{Kind: ExprIdentifier, Ident: "a"},
		Right: &Expr{Kind: ExprIdentifier, Ident: "b"},
	}
	Walk(&renameVisitor{from: "a", to: "x"}, e)
	assert.Equal(t, "x", e.Left.Ident)
	assert.Equal(t, "b", e.Right.Ident)
}

type countingFallibleVisitor struct{ n int }

func (c *countingFallibleVisitor) VisitExpr(e *Expr) error {
	c.n++
	return nil
}

func TestWalkFallibleVisitsEveryNode(t *testing.T) {
	e := &Expr{
		Kind:  ExprUnaryOp,
		UnOp:  OpNot,
		Operand: &Expr{
			Kind:  ExprBetween,
			BetweenExpr: &Expr{Kind: ExprIdentifier, Ident: "a"},
			BetweenLow:  &Expr{Kind: ExprLiteral, Literal: value.I64(1)},
			BetweenHigh: &Expr{Kind: ExprLiteral, Literal: value.I64(10)},
		},
	}
	v := &countingFallibleVisitor{}
	err := WalkFallible(v, e)
	assert.NoError(t, err)
	assert.Equal(t, 5, v.n)
}

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/ast"
	"emberql/plan"
	"emberql/schema"
	"emberql/value"
)

type fakeLookup struct {
	tables map[string]*schema.Table
}

func (f *fakeLookup) Schema(table string) (*schema.Table, bool) {
	t, ok := f.tables[table]
	return t, ok
}

func TestPlanIsIdempotentOnStructuredTable(t *testing.T) {
	lookup := &fakeLookup{tables: map[string]*schema.Table{
		"users": {
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: value.KindI64, Primary: true},
				{Name: "name", Type: value.KindText},
			},
		},
	}}
	p := plan.New(lookup)

	stmt := &ast.Query{
		Body: &ast.SetExpr{
			Select: &ast.Select{
				Projection: []ast.SelectItem{{Expr: ast.Expr{Kind: ast.ExprIdentifier, Ident: "name"}}},
				From: &ast.TableWithJoins{
					Base: &ast.TableFactor{Name: "users"},
				},
			},
		},
	}

	first, err := p.Plan(stmt)
	require.NoError(t, err)
	second, err := p.Plan(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlanRewritesSchemalessIdentifiers(t *testing.T) {
	lookup := &fakeLookup{tables: map[string]*schema.Table{
		"events": {Name: "events"}, // Columns == nil => schemaless
	}}
	p := plan.New(lookup)

	stmt := &ast.Query{
		Body: &ast.SetExpr{
			Select: &ast.Select{
				Projection: []ast.SelectItem{{Expr: ast.Expr{Kind: ast.ExprIdentifier, Ident: "payload"}}},
				From: &ast.TableWithJoins{
					Base: &ast.TableFactor{Name: "events"},
				},
			},
		},
	}

	out, err := p.Plan(stmt)
	require.NoError(t, err)
	q, ok := out.(*ast.Query)
	require.True(t, ok)
	// rewritten identifiers stop being bare ExprIdentifier referencing
	// the schemaless column name directly.
	assert.NotEqual(t, ast.ExprIdentifier, q.Body.Select.Projection[0].Expr.Kind)
}

func equiJoinOn(leftAlias, leftCol, rightAlias, rightCol string) ast.Expr {
	return ast.Expr{
		Kind:  ast.ExprBinaryOp,
		BinOp: ast.OpEq,
		Left:  &ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: leftAlias, CompoundColumn: leftCol},
		Right: &ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: rightAlias, CompoundColumn: rightCol},
	}
}

func TestPlanMarksEquiJoinForHashExecutor(t *testing.T) {
	lookup := &fakeLookup{tables: map[string]*schema.Table{
		"users":  {Name: "users", Columns: []schema.Column{{Name: "id", Type: value.KindI64, Primary: true}}},
		"orders": {Name: "orders", Columns: []schema.Column{{Name: "user_id", Type: value.KindI64}}},
	}}
	p := plan.New(lookup)

	stmt := &ast.Query{
		Body: &ast.SetExpr{
			Select: &ast.Select{
				Projection: []ast.SelectItem{{Wildcard: true}},
				From: &ast.TableWithJoins{
					Base: &ast.TableFactor{Name: "users", Alias: "u"},
					Joins: []ast.Join{{
						Table: &ast.TableFactor{Name: "orders", Alias: "o"},
						Kind:  ast.JoinInner,
						On:    equiJoinOn("u", "id", "o", "user_id"),
					}},
				},
			},
		},
	}

	out, err := p.Plan(stmt)
	require.NoError(t, err)
	q := out.(*ast.Query)
	join := q.Body.Select.From.Joins[0]
	require.NotNil(t, join.Hash, "expected the equi-join to be marked for the hash executor")
	assert.Equal(t, ast.ExprCompoundIdentifier, join.Hash.KeyExpr.Kind)
	assert.Equal(t, "u", join.Hash.KeyExpr.CompoundAlias)
	assert.Equal(t, "id", join.Hash.KeyExpr.CompoundColumn)
	assert.Equal(t, ast.ExprCompoundIdentifier, join.Hash.ValueExpr.Kind)
	assert.Equal(t, "o", join.Hash.ValueExpr.CompoundAlias)
	assert.Equal(t, "user_id", join.Hash.ValueExpr.CompoundColumn)
	assert.False(t, join.On.Kind == 0 && join.On.Literal.IsNull(), "ON predicate stays in place for the executor")
}

func TestPlanLeavesNonEquiJoinOnNestedLoop(t *testing.T) {
	lookup := &fakeLookup{tables: map[string]*schema.Table{
		"users":  {Name: "users", Columns: []schema.Column{{Name: "id", Type: value.KindI64, Primary: true}}},
		"orders": {Name: "orders", Columns: []schema.Column{{Name: "user_id", Type: value.KindI64}}},
	}}
	p := plan.New(lookup)

	stmt := &ast.Query{
		Body: &ast.SetExpr{
			Select: &ast.Select{
				Projection: []ast.SelectItem{{Wildcard: true}},
				From: &ast.TableWithJoins{
					Base: &ast.TableFactor{Name: "users", Alias: "u"},
					Joins: []ast.Join{{
						Table: &ast.TableFactor{Name: "orders", Alias: "o"},
						Kind:  ast.JoinInner,
						On: ast.Expr{
							Kind:  ast.ExprBinaryOp,
							BinOp: ast.OpLt,
							Left:  &ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: "u", CompoundColumn: "id"},
							Right: &ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: "o", CompoundColumn: "user_id"},
						},
					}},
				},
			},
		},
	}

	out, err := p.Plan(stmt)
	require.NoError(t, err)
	q := out.(*ast.Query)
	assert.Nil(t, q.Body.Select.From.Joins[0].Hash)
}

package glue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/ast"
	"emberql/glue"
	"emberql/storage/memory"
	"emberql/value"
)

func assertInt(t *testing.T, want int, got value.Value) {
	t.Helper()
	f, ok := got.AsFloat64()
	require.True(t, ok, "value is not numeric: %v", got)
	assert.EqualValues(t, want, f)
}

func newGlue(t *testing.T) *glue.Glue {
	t.Helper()
	ctx := context.Background()
	g, err := glue.New(ctx, memory.New(), glue.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close(ctx) })
	return g
}

// TestScenarioAggregateOverWholeTable is scenario 1: COUNT/SUM/MAX/MIN
// and COUNT(col)/AVG over a 5-row table with one nullable column.
func TestScenarioAggregateOverWholeTable(t *testing.T) {
	ctx := context.Background()
	g := newGlue(t)

	_, err := g.Execute(ctx, `
		CREATE TABLE Item (id INT PRIMARY KEY, quantity INT, age INT NULL);
		INSERT INTO Item (id, quantity, age) VALUES
			(1, 10, 11), (2, 0, 90), (3, 9, NULL), (4, 3, 3), (5, 25, NULL);
	`)
	require.NoError(t, err)

	payloads, err := g.Execute(ctx, `SELECT COUNT(*), SUM(quantity), MAX(quantity), MIN(quantity) FROM Item;`)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	require.Len(t, payloads[0].Rows, 1)
	row := payloads[0].Rows[0]
	assertInt(t, 5, row[0])
	assertInt(t, 47, row[1])
	assertInt(t, 25, row[2])
	assertInt(t, 0, row[3])

	payloads, err = g.Execute(ctx, `SELECT COUNT(age), AVG(id) FROM Item;`)
	require.NoError(t, err)
	row = payloads[0].Rows[0]
	assertInt(t, 3, row[0])
	assert.InDelta(t, 3.0, row[1].Float64Of(), 1e-9)
}

// TestScenarioGroupByHaving is scenario 2: SUM/COUNT grouped by city,
// filtered down to the one group with more than one row.
func TestScenarioGroupByHaving(t *testing.T) {
	ctx := context.Background()
	g := newGlue(t)

	_, err := g.Execute(ctx, `
		CREATE TABLE Item (id INT PRIMARY KEY, quantity INT NULL, city TEXT, ratio FLOAT);
		INSERT INTO Item (id, quantity, city, ratio) VALUES
			(1, 10, 'Seoul', 1.0),
			(2, 11, 'Seoul', 1.1),
			(3, 5, 'Dhaka', 1.2),
			(4, 7, 'Beijing', 1.3),
			(5, 3, 'Daejeon', 1.4),
			(6, 9, 'Seattle', 1.5);
	`)
	require.NoError(t, err)

	payloads, err := g.Execute(ctx, `
		SELECT SUM(quantity), COUNT(*), city FROM Item GROUP BY city HAVING COUNT(*) > 1;
	`)
	require.NoError(t, err)
	require.Len(t, payloads[0].Rows, 1)
	row := payloads[0].Rows[0]
	assertInt(t, 21, row[0])
	assertInt(t, 2, row[1])
	assert.Equal(t, "Seoul", row[2].TextOf())
}

// TestScenarioNullableArithmeticAndPredicate is scenario 3: Null
// propagates through arithmetic, and an AND'd predicate over a Null column
// still selects exactly the matching row.
func TestScenarioNullableArithmeticAndPredicate(t *testing.T) {
	ctx := context.Background()
	g := newGlue(t)

	_, err := g.Execute(ctx, `
		CREATE TABLE Test (id INT NULL, num INT NULL, name TEXT NULL);
		INSERT INTO Test (id, num, name) VALUES (NULL, 1, 'Hello'), (2, 2, 'World');
	`)
	require.NoError(t, err)

	payloads, err := g.Execute(ctx, `SELECT id+1 FROM Test WHERE id IS NULL;`)
	require.NoError(t, err)
	require.Len(t, payloads[0].Rows, 1)
	assert.True(t, payloads[0].Rows[0][0].IsNull())

	payloads, err = g.Execute(ctx, `SELECT id, num FROM Test WHERE id IS NULL AND name = 'Hello';`)
	require.NoError(t, err)
	require.Len(t, payloads[0].Rows, 1)
	assert.True(t, payloads[0].Rows[0][0].IsNull())
	assertInt(t, 1, payloads[0].Rows[0][1])
}

// TestScenarioIndexAnnotationAndDrop is scenario 4: the planner
// annotates an equality predicate with the matching index, and dropping the
// index leaves the result set unchanged but the annotation gone.
func TestScenarioIndexAnnotationAndDrop(t *testing.T) {
	ctx := context.Background()
	g := newGlue(t)

	_, err := g.Execute(ctx, `
		CREATE TABLE Test (id INT PRIMARY KEY, num INT, name TEXT);
		INSERT INTO Test (id, num, name) VALUES (1, 10, 'a'), (2, 20, 'b');
		CREATE INDEX idx_id ON Test(id);
	`)
	require.NoError(t, err)

	stmts, err := g.Plan(ctx, `SELECT * FROM Test WHERE id = 1;`)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	q, ok := stmts[0].(*ast.Query)
	require.True(t, ok)
	require.NotNil(t, q.Body.Select.From.Base.Index)
	assert.Equal(t, "idx_id", q.Body.Select.From.Base.Index.IndexName)
	assert.Equal(t, ast.IndexEq, q.Body.Select.From.Base.Index.Operator)

	payloads, err := g.Execute(ctx, `SELECT * FROM Test WHERE id = 1;`)
	require.NoError(t, err)
	require.Len(t, payloads[0].Rows, 1)

	_, err = g.Execute(ctx, `DROP INDEX idx_id ON Test;`)
	require.NoError(t, err)

	stmts, err = g.Plan(ctx, `SELECT * FROM Test WHERE id = 1;`)
	require.NoError(t, err)
	q, ok = stmts[0].(*ast.Query)
	require.True(t, ok)
	assert.Nil(t, q.Body.Select.From.Base.Index)

	payloads, err = g.Execute(ctx, `SELECT * FROM Test WHERE id = 1;`)
	require.NoError(t, err)
	require.Len(t, payloads[0].Rows, 1)
}

// TestScenarioForeignKeyOnUpdateAndInsert is scenario 5: the primary key
// column cannot be updated, and an INSERT whose FK value has no matching
// referenced row is rejected.
func TestScenarioForeignKeyOnUpdateAndInsert(t *testing.T) {
	ctx := context.Background()
	g := newGlue(t)

	_, err := g.Execute(ctx, `
		CREATE TABLE Referenced (id INT PRIMARY KEY);
		INSERT INTO Referenced (id) VALUES (1), (2), (3);
		CREATE TABLE Referencing2 (
			id INT PRIMARY KEY,
			referenced_id INT,
			FOREIGN KEY (referenced_id) REFERENCES Referenced(id) ON UPDATE RESTRICT
		);
		INSERT INTO Referencing2 (id, referenced_id) VALUES (2, 2);
	`)
	require.NoError(t, err)

	_, err = g.Execute(ctx, `UPDATE Referenced SET id = 4 WHERE id = 1;`)
	require.Error(t, err)

	_, err = g.Execute(ctx, `INSERT INTO Referencing2 (id, referenced_id) VALUES (3, 4);`)
	require.Error(t, err)
}
